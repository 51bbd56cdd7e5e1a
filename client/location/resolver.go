// Package location acquires the device location with a layered fallback
// chain: fresh cache, live sensor read, stale cache, hardcoded default.
// The resolver never reports "no location" — downstream radius filtering
// always needs a coordinate, so failures only degrade quality.
package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"issuex/client/store"
	"issuex/models"
)

// Sensor errors, mirrored from the platform geolocation error codes.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
	ErrTimeout          = errors.New("location request timed out")
)

// PermissionState tracks the sensor permission as last observed.
type PermissionState string

const (
	PermissionPrompt  PermissionState = "prompt"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// Position is a raw sensor reading.
type Position struct {
	Lat      float64
	Lng      float64
	Accuracy float64
}

// Sensor reads the current device position. Implementations should honor
// the context deadline the resolver sets.
type Sensor interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// AddressResolver annotates coordinates with a display address. The chained
// geocoder satisfies it.
type AddressResolver interface {
	Reverse(ctx context.Context, lat, lng float64) string
}

const (
	freshTTL      = time.Hour
	staleTTL      = 24 * time.Hour
	sensorTimeout = 15 * time.Second

	// addressPending marks a location whose address annotation failed;
	// acquisition itself still succeeds.
	addressPending = "Locating address..."
)

// DefaultLocation anchors the feed when no reading and no usable cache
// exist.
var DefaultLocation = models.Location{Lat: 40.7128, Lng: -74.0060, Address: "New York, NY"}

// Resolver acquires locations. Zero value is not usable; construct with
// NewResolver.
type Resolver struct {
	sensor   Sensor
	store    *store.Store
	geocoder AddressResolver
	log      *slog.Logger

	// test seams
	now     func() time.Time
	timeout time.Duration

	permission PermissionState
}

// NewResolver builds a resolver. geocoder may be nil, in which case
// locations carry the pending-address sentinel until something resolves
// them.
func NewResolver(sensor Sensor, st *store.Store, geocoder AddressResolver, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		sensor:     sensor,
		store:      st,
		geocoder:   geocoder,
		log:        log,
		now:        time.Now,
		timeout:    sensorTimeout,
		permission: PermissionPrompt,
	}
}

// Permission returns the sensor permission as last observed.
func (r *Resolver) Permission() PermissionState {
	return r.permission
}

func (r *Resolver) cached() (models.Location, time.Time, bool) {
	var loc models.Location
	var tsMillis int64
	if !r.store.Get(store.KeyUserLocation, &loc) || !r.store.Get(store.KeyLocationTimestamp, &tsMillis) {
		return models.Location{}, time.Time{}, false
	}
	if !loc.Valid() {
		return models.Location{}, time.Time{}, false
	}
	return loc, time.UnixMilli(tsMillis), true
}

func (r *Resolver) persist(loc models.Location) {
	if err := r.store.Set(store.KeyUserLocation, loc); err != nil {
		r.log.Warn("failed to persist location", "error", err)
		return
	}
	if err := r.store.Set(store.KeyLocationTimestamp, r.now().UnixMilli()); err != nil {
		r.log.Warn("failed to persist location timestamp", "error", err)
	}
}

// Acquire resolves the current location. The fallback ladder runs in
// order: cache under an hour old, live sensor read, cache under a day old,
// hardcoded default. Address annotation is best-effort and never fails the
// acquisition.
func (r *Resolver) Acquire(ctx context.Context) models.Location {
	if loc, ts, ok := r.cached(); ok && r.now().Sub(ts) < freshTTL {
		return loc
	}

	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	pos, err := r.sensor.CurrentPosition(sctx)
	cancel()

	if err == nil {
		loc := models.Location{Lat: pos.Lat, Lng: pos.Lng}
		if pos.Accuracy > 0 {
			acc := pos.Accuracy
			loc.Accuracy = &acc
		}
		if !loc.Valid() {
			// An out-of-range or NaN reading is a sensor failure.
			err = ErrUnavailable
		} else {
			r.permission = PermissionGranted
			loc.Address = addressPending
			if r.geocoder != nil {
				loc.Address = r.geocoder.Reverse(ctx, loc.Lat, loc.Lng)
			}
			r.persist(loc)
			return loc
		}
	}

	if errors.Is(err, ErrPermissionDenied) {
		r.permission = PermissionDenied
	}
	r.log.Info("sensor read failed, falling back", "error", err)

	if loc, ts, ok := r.cached(); ok && r.now().Sub(ts) < staleTTL {
		return loc
	}
	return DefaultLocation
}
