package location

import (
	"context"
	"testing"
	"time"

	"issuex/client/store"
	"issuex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSensor struct {
	pos   Position
	err   error
	calls int
}

func (f *fakeSensor) CurrentPosition(ctx context.Context) (Position, error) {
	f.calls++
	return f.pos, f.err
}

type fakeGeocoder struct{ addr string }

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lng float64) string {
	return f.addr
}

func newTestResolver(t *testing.T, sensor Sensor) (*Resolver, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	r := NewResolver(sensor, st, &fakeGeocoder{addr: "Test Address"}, nil)
	return r, st
}

func seedCache(t *testing.T, st *store.Store, loc models.Location, ts time.Time) {
	t.Helper()
	require.NoError(t, st.Set(store.KeyUserLocation, loc))
	require.NoError(t, st.Set(store.KeyLocationTimestamp, ts.UnixMilli()))
}

func TestAcquireFreshCacheSkipsSensor(t *testing.T) {
	sensor := &fakeSensor{pos: Position{Lat: 1, Lng: 1}}
	r, st := newTestResolver(t, sensor)

	now := time.Now()
	r.now = func() time.Time { return now }
	cached := models.Location{Lat: 12.9716, Lng: 77.5946, Address: "Bengaluru"}
	seedCache(t, st, cached, now.Add(-30*time.Minute))

	loc := r.Acquire(context.Background())
	assert.Equal(t, cached, loc)
	assert.Zero(t, sensor.calls, "fresh cache must not invoke the sensor")
}

func TestAcquireLiveReading(t *testing.T) {
	sensor := &fakeSensor{pos: Position{Lat: 12.9716, Lng: 77.5946, Accuracy: 30}}
	r, st := newTestResolver(t, sensor)

	loc := r.Acquire(context.Background())
	assert.Equal(t, 12.9716, loc.Lat)
	assert.Equal(t, 77.5946, loc.Lng)
	assert.Equal(t, "Test Address", loc.Address)
	require.NotNil(t, loc.Accuracy)
	assert.Equal(t, 30.0, *loc.Accuracy)
	assert.Equal(t, PermissionGranted, r.Permission())

	// Reading was persisted for the next session.
	var saved models.Location
	assert.True(t, st.Get(store.KeyUserLocation, &saved))
	assert.Equal(t, loc.Lat, saved.Lat)
}

func TestAcquireSensorFailureUsesStaleCache(t *testing.T) {
	sensor := &fakeSensor{err: ErrTimeout}
	r, st := newTestResolver(t, sensor)

	now := time.Now()
	r.now = func() time.Time { return now }
	cached := models.Location{Lat: 12.9716, Lng: 77.5946}
	seedCache(t, st, cached, now.Add(-6*time.Hour))

	loc := r.Acquire(context.Background())
	assert.Equal(t, cached, loc)
	assert.Equal(t, 1, sensor.calls)
}

func TestAcquirePermissionDeniedSetsState(t *testing.T) {
	sensor := &fakeSensor{err: ErrPermissionDenied}
	r, st := newTestResolver(t, sensor)

	now := time.Now()
	r.now = func() time.Time { return now }
	cached := models.Location{Lat: 12.9716, Lng: 77.5946}
	seedCache(t, st, cached, now.Add(-2*time.Hour))

	loc := r.Acquire(context.Background())
	assert.Equal(t, cached, loc)
	assert.Equal(t, PermissionDenied, r.Permission())
}

func TestAcquireFallsBackToDefault(t *testing.T) {
	sensor := &fakeSensor{err: ErrUnavailable}
	r, st := newTestResolver(t, sensor)

	// Cache exists but is older than a day: unusable even as a fallback.
	now := time.Now()
	r.now = func() time.Time { return now }
	seedCache(t, st, models.Location{Lat: 1, Lng: 1}, now.Add(-25*time.Hour))

	loc := r.Acquire(context.Background())
	assert.Equal(t, DefaultLocation.Lat, loc.Lat)
	assert.Equal(t, DefaultLocation.Lng, loc.Lng)
}

func TestAcquireNoCacheNoSensor(t *testing.T) {
	sensor := &fakeSensor{err: ErrUnavailable}
	r, _ := newTestResolver(t, sensor)

	loc := r.Acquire(context.Background())
	assert.Equal(t, 40.7128, loc.Lat)
	assert.Equal(t, -74.0060, loc.Lng)
}

func TestAcquireRejectsOutOfRangeReading(t *testing.T) {
	sensor := &fakeSensor{pos: Position{Lat: 123.4, Lng: 500}}
	r, st := newTestResolver(t, sensor)

	now := time.Now()
	r.now = func() time.Time { return now }
	cached := models.Location{Lat: 12.9716, Lng: 77.5946}
	seedCache(t, st, cached, now.Add(-3*time.Hour))

	// The bogus reading is treated like a sensor error and the stale
	// cache wins.
	loc := r.Acquire(context.Background())
	assert.Equal(t, cached, loc)
}
