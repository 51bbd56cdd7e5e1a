package session

import (
	"context"
	"errors"
	"testing"

	"issuex/client/api"
	"issuex/client/store"
	"issuex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	user  *models.User
	err   error
	token string
}

func (f *fakeBackend) Me(ctx context.Context) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeBackend) SetToken(token string) { f.token = token }
func (f *fakeBackend) ClearToken()           { f.token = "" }

func newTestManager(t *testing.T, backend Backend) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return NewManager(backend, st, nil), st
}

func TestSignInPublishesProvisionalThenConfirmed(t *testing.T) {
	confirmed := &models.User{Name: "Asha Rao", Email: "asha@example.com", Role: models.RoleAdmin}
	backend := &fakeBackend{user: confirmed}
	m, st := newTestManager(t, backend)

	var phases []Phase
	m.Subscribe(func(s Snapshot) { phases = append(phases, s.Phase) })

	m.HandleSignIn(context.Background(), Identity{Name: "Asha", Email: "asha@example.com"}, "tok123")

	require.Equal(t, []Phase{PhaseProvisional, PhaseConfirmed}, phases)
	assert.Equal(t, "tok123", backend.token)

	snap := m.Current()
	assert.Equal(t, PhaseConfirmed, snap.Phase)
	assert.Equal(t, "Asha Rao", snap.User.Name)
	assert.False(t, snap.Loading)

	// Confirmed profile was persisted for the next session.
	var saved models.User
	assert.True(t, st.Get(store.KeyUser, &saved))
	assert.Equal(t, "Asha Rao", saved.Name)
}

func TestProvisionalViewUsesCachedSnapshot(t *testing.T) {
	backend := &fakeBackend{err: errors.New("backend cold")}
	m, st := newTestManager(t, backend)

	cached := models.User{Name: "Cached Name", Email: "asha@example.com", Role: models.RoleGovernment}
	require.NoError(t, st.Set(store.KeyUser, cached))

	var first Snapshot
	captured := false
	m.Subscribe(func(s Snapshot) {
		if !captured {
			first = s
			captured = true
		}
	})

	m.HandleSignIn(context.Background(), Identity{Name: "Provider Name", Email: "asha@example.com"}, "tok")

	// The cached snapshot wins over the provider profile fields.
	assert.Equal(t, PhaseProvisional, first.Phase)
	assert.Equal(t, "Cached Name", first.User.Name)
	assert.True(t, first.Loading)

	// Fetch failure leaves the session provisional, not signed out.
	snap := m.Current()
	assert.Equal(t, PhaseProvisional, snap.Phase)
	assert.False(t, snap.Loading)
}

func TestUserNotFoundStaysProvisional(t *testing.T) {
	backend := &fakeBackend{err: &api.StatusError{Code: 401, Message: "user not found"}}
	m, _ := newTestManager(t, backend)

	m.HandleSignIn(context.Background(), Identity{Name: "New User", Email: "new@example.com"}, "tok")

	snap := m.Current()
	assert.Equal(t, PhaseProvisional, snap.Phase)
	require.NotNil(t, snap.User)
	assert.Equal(t, "new@example.com", snap.User.Email)
}

func TestOtherUnauthorizedForcesSignOut(t *testing.T) {
	backend := &fakeBackend{err: &api.StatusError{Code: 401, Message: "Invalid authorization token"}}
	m, st := newTestManager(t, backend)

	m.HandleSignIn(context.Background(), Identity{Email: "asha@example.com"}, "bad-token")

	snap := m.Current()
	assert.Equal(t, PhaseSignedOut, snap.Phase)
	assert.Nil(t, snap.User)
	assert.Empty(t, backend.token)

	var token string
	assert.False(t, st.Get(store.KeyToken, &token))
}

func TestIsAdminRequiresConfirmation(t *testing.T) {
	// Provisional role data must never gate access control.
	backend := &fakeBackend{err: errors.New("unreachable")}
	m, st := newTestManager(t, backend)

	cached := models.User{Name: "A", Email: "a@example.com", Role: models.RoleAdmin}
	require.NoError(t, st.Set(store.KeyUser, cached))

	m.HandleSignIn(context.Background(), Identity{Email: "a@example.com"}, "tok")
	assert.False(t, m.IsAdmin(), "provisional admin role must not count")

	backend.err = nil
	backend.user = &models.User{Name: "A", Email: "a@example.com", Role: models.RoleAdmin}
	m.HandleSignIn(context.Background(), Identity{Email: "a@example.com"}, "tok")
	assert.True(t, m.IsAdmin())
}

func TestSignOutClearsEverything(t *testing.T) {
	backend := &fakeBackend{user: &models.User{Email: "a@example.com"}}
	m, st := newTestManager(t, backend)

	m.HandleSignIn(context.Background(), Identity{Email: "a@example.com"}, "tok")
	m.HandleSignOut()

	snap := m.Current()
	assert.Equal(t, PhaseSignedOut, snap.Phase)
	assert.Nil(t, snap.User)

	var saved models.User
	assert.False(t, st.Get(store.KeyUser, &saved))
}

func TestResumeRestoresPersistedSession(t *testing.T) {
	confirmed := &models.User{Name: "Asha Rao", Email: "asha@example.com"}
	backend := &fakeBackend{user: confirmed}
	m, st := newTestManager(t, backend)

	require.NoError(t, st.Set(store.KeyToken, "tok"))
	require.NoError(t, st.Set(store.KeyUser, models.User{Name: "Asha", Email: "asha@example.com"}))

	assert.True(t, m.Resume(context.Background()))
	assert.Equal(t, PhaseConfirmed, m.Current().Phase)

	// Nothing persisted: nothing to resume.
	m2, _ := newTestManager(t, backend)
	assert.False(t, m2.Resume(context.Background()))
}
