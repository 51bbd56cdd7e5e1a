// Package session tracks the authenticated user through a two-phase state
// machine: an optimistic provisional view published immediately on a
// sign-in event, then a confirmed profile fetched from the backend. The
// split exists so the UI never blocks first paint on a cold backend.
package session

import (
	"context"
	"log/slog"
	"sync"

	"issuex/client/api"
	"issuex/client/store"
	"issuex/models"
)

// Phase names the session lifecycle stage.
type Phase int

const (
	// PhaseSignedOut means no identity is present.
	PhaseSignedOut Phase = iota
	// PhaseProvisional means the user view is optimistic: built from
	// cached data or provider profile fields, not yet backend-confirmed.
	// Role fields must not gate access control in this phase.
	PhaseProvisional
	// PhaseConfirmed means the backend supplied the authoritative profile.
	PhaseConfirmed
)

// Identity is what the external identity provider hands over on a
// sign-in transition.
type Identity struct {
	Name     string
	Email    string
	PhotoURL string
}

// Snapshot is the published session state.
type Snapshot struct {
	User    *models.User
	Phase   Phase
	Loading bool
}

// Backend is the slice of the API client the manager needs.
type Backend interface {
	Me(ctx context.Context) (*models.User, error)
	SetToken(token string)
	ClearToken()
}

// Manager owns session state. All methods are safe for concurrent use.
type Manager struct {
	backend Backend
	store   *store.Store
	log     *slog.Logger

	mu        sync.Mutex
	user      *models.User
	phase     Phase
	loading   bool
	listeners []func(Snapshot)
}

// NewManager builds a session manager.
func NewManager(backend Backend, st *store.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{backend: backend, store: st, log: log}
}

// Subscribe registers a listener invoked on every published transition.
// Feed synchronizers subscribe here to re-fetch on identity changes.
func (m *Manager) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Current returns the latest snapshot.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{User: m.user, Phase: m.phase, Loading: m.loading}
}

// IsAdmin reports whether the confirmed user holds the admin role.
// Provisional role data is never authoritative for access control, so this
// is false until confirmation.
func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == PhaseConfirmed && m.user != nil && m.user.Role == models.RoleAdmin
}

func (m *Manager) publish(user *models.User, phase Phase, loading bool) {
	m.mu.Lock()
	m.user = user
	m.phase = phase
	m.loading = loading
	snap := Snapshot{User: user, Phase: phase, Loading: loading}
	listeners := make([]func(Snapshot), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// provisionalUser builds the optimistic view: the cached snapshot when it
// matches the identity's email, otherwise a user synthesized from provider
// profile fields.
func (m *Manager) provisionalUser(id Identity) *models.User {
	var cached models.User
	if m.store.Get(store.KeyUser, &cached) && cached.Email == id.Email {
		return &cached
	}
	return &models.User{
		Name:           id.Name,
		Email:          id.Email,
		ProfilePicture: id.PhotoURL,
		Role:           models.RoleUser,
	}
}

// HandleSignIn processes an identity-provider sign-in: it persists the
// token, publishes the provisional view immediately, then reconciles with
// the backend profile.
//
// A 401 with the backend's "user not found" message means registration is
// still in flight; the provisional view stays. Any other 401 invalidates
// the session.
func (m *Manager) HandleSignIn(ctx context.Context, id Identity, token string) {
	m.backend.SetToken(token)
	if err := m.store.Set(store.KeyToken, token); err != nil {
		m.log.Warn("failed to persist token", "error", err)
	}

	m.publish(m.provisionalUser(id), PhaseProvisional, true)

	confirmed, err := m.backend.Me(ctx)
	switch {
	case err == nil:
		if err := m.store.Set(store.KeyUser, confirmed); err != nil {
			m.log.Warn("failed to persist user snapshot", "error", err)
		}
		m.publish(confirmed, PhaseConfirmed, false)
	case api.IsUserNotFound(err):
		// Account still provisioning; keep the optimistic view.
		m.log.Info("profile not yet provisioned, staying provisional")
		m.publish(m.Current().User, PhaseProvisional, false)
	case api.IsStatus(err, 401):
		m.log.Warn("session rejected by backend, signing out")
		m.HandleSignOut()
	default:
		// Backend unreachable or errored; the provisional view carries the
		// UI until a later reconciliation.
		m.log.Warn("profile fetch failed", "error", err)
		m.publish(m.Current().User, PhaseProvisional, false)
	}
}

// HandleSignOut clears all session state synchronously.
func (m *Manager) HandleSignOut() {
	m.backend.ClearToken()
	if err := m.store.Delete(store.KeyToken); err != nil {
		m.log.Warn("failed to clear token", "error", err)
	}
	if err := m.store.Delete(store.KeyUser); err != nil {
		m.log.Warn("failed to clear user snapshot", "error", err)
	}
	m.publish(nil, PhaseSignedOut, false)
}

// Resume restores a persisted session on startup: publishes the cached
// snapshot provisionally and reconciles like a fresh sign-in.
func (m *Manager) Resume(ctx context.Context) bool {
	var token string
	if !m.store.Get(store.KeyToken, &token) || token == "" {
		return false
	}

	var cached models.User
	if !m.store.Get(store.KeyUser, &cached) {
		return false
	}

	m.HandleSignIn(ctx, Identity{Name: cached.Name, Email: cached.Email, PhotoURL: cached.ProfilePicture}, token)
	return true
}
