// Package feed keeps the client's issue collection in sync with the
// backend. It owns the probing/live/degraded mode machine, coalesces
// re-fetch triggers through a debounce window, retries rate-limited
// fetches with bounded backoff, and falls back to a fixed mock dataset
// when the backend is unreachable so the UI always has something to show.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"issuex/client/api"
	"issuex/client/store"
	"issuex/geo"
	"issuex/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

// Mode is the synchronizer's operating mode.
type Mode int

const (
	// ModeProbing means no health check has completed yet.
	ModeProbing Mode = iota
	// ModeLive fetches from the backend.
	ModeLive
	// ModeDegraded operates entirely on the in-memory mock dataset.
	ModeDegraded
)

// FilterAll matches every status or category.
const FilterAll = "all"

// ErrNotAuthenticated rejects mutations that require a signed-in user.
var ErrNotAuthenticated = errors.New("sign in to do that")

// NoticeLevel classifies user-facing notices.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// Notice is a non-blocking user-facing message.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Service is the slice of the API client the synchronizer consumes.
type Service interface {
	Health(ctx context.Context) error
	ListIssues(ctx context.Context, q api.IssueQuery) (*api.IssuePage, error)
	CreateIssue(ctx context.Context, in api.CreateIssueInput) (*models.Issue, error)
	UpdateIssue(ctx context.Context, id string, in api.UpdateIssueInput) (*models.Issue, error)
	DeleteIssue(ctx context.Context, id string) error
	Vote(ctx context.Context, id, voteType string) (*models.Issue, error)
	Follow(ctx context.Context, id string) (*models.Issue, error)
	Flag(ctx context.Context, id, reason string) (*models.Issue, error)
}

const (
	defaultDebounce = 500 * time.Millisecond
	defaultRadiusKm = 10
	defaultLimit    = 50
	maxRetries      = 3
)

// Config wires a Synchronizer.
type Config struct {
	Service Service
	// Store persists the radius preference across sessions. Optional.
	Store *store.Store
	Log   *slog.Logger
	// Debounce overrides the trigger coalescing window. Zero selects the
	// 500ms default.
	Debounce time.Duration
	// Notify receives user-facing notices. Optional.
	Notify func(Notice)
	// Mock overrides the degraded-mode dataset. Defaults to MockIssues().
	Mock []models.Issue
	// Sleep is the retry delay hook, a test seam. Defaults to a context-
	// aware real sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Synchronizer orchestrates fetching, filtering and mutating the issue
// collection. All exported methods are safe for concurrent use.
type Synchronizer struct {
	svc    Service
	store  *store.Store
	log    *slog.Logger
	notify func(Notice)
	sleep  func(ctx context.Context, d time.Duration) error
	mock   []models.Issue

	probe singleflight.Group

	mu        sync.Mutex
	mode      Mode
	usingMock bool
	issues    []models.Issue
	location  *models.Location
	radiusKm  float64
	status    string
	category  string
	user      *models.User
	debounce  time.Duration
	timer     *time.Timer
	seq       uint64
}

// New builds a synchronizer. The persisted radius preference is restored
// when a store is supplied.
func New(cfg Config) *Synchronizer {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(Notice) {}
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = defaultDebounce
	}
	mock := cfg.Mock
	if mock == nil {
		mock = MockIssues()
	}

	s := &Synchronizer{
		svc:      cfg.Service,
		store:    cfg.Store,
		log:      log,
		notify:   notify,
		sleep:    sleep,
		mock:     mock,
		mode:     ModeProbing,
		radiusKm: defaultRadiusKm,
		status:   FilterAll,
		category: FilterAll,
		debounce: debounce,
	}

	if s.store != nil {
		var radius float64
		if s.store.Get(store.KeySearchRadius, &radius) && radius > 0 {
			s.radiusKm = radius
		}
	}
	return s
}

// Mode returns the current operating mode.
func (s *Synchronizer) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// UsingMockData reports whether the visible collection is the sample
// dataset rather than backend data.
func (s *Synchronizer) UsingMockData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usingMock
}

// Probe runs the backend health check, deduplicated so concurrent callers
// share one in-flight check. A success enters (or restores) live mode; a
// failure enters degraded mode on the mock dataset.
func (s *Synchronizer) Probe(ctx context.Context) Mode {
	result, _, _ := s.probe.Do("health", func() (interface{}, error) {
		err := s.svc.Health(ctx)

		s.mu.Lock()
		if err != nil {
			s.mode = ModeDegraded
			s.enterMockLocked()
			s.mu.Unlock()
			s.log.Warn("health check failed, entering degraded mode", "error", err)
			s.notify(Notice{NoticeWarn, "Server unavailable, showing sample data"})
			return ModeDegraded, nil
		}
		restored := s.mode == ModeDegraded
		s.mode = ModeLive
		s.mu.Unlock()

		if restored {
			s.log.Info("health check restored live mode")
		}
		s.Refresh(ctx)
		return ModeLive, nil
	})
	return result.(Mode)
}

// enterMockLocked swaps the collection to the mock dataset. Caller holds mu.
func (s *Synchronizer) enterMockLocked() {
	s.usingMock = true
	s.issues = make([]models.Issue, len(s.mock))
	copy(s.issues, s.mock)
}

// scheduleRefresh coalesces triggers through the debounce window: rapid
// successive changes produce a single fetch carrying the final values.
func (s *Synchronizer) scheduleRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.Refresh(context.Background())
	})
}

// SetLocation updates the resolved location and schedules a re-fetch.
func (s *Synchronizer) SetLocation(loc models.Location) {
	s.mu.Lock()
	s.location = &loc
	s.mu.Unlock()
	s.scheduleRefresh()
}

// SetRadius updates the radius filter, persists the preference and
// schedules a re-fetch.
func (s *Synchronizer) SetRadius(km float64) {
	s.mu.Lock()
	s.radiusKm = km
	st := s.store
	s.mu.Unlock()

	if st != nil {
		if err := st.Set(store.KeySearchRadius, km); err != nil {
			s.log.Warn("failed to persist radius", "error", err)
		}
	}
	s.scheduleRefresh()
}

// SetStatusFilter updates the status predicate ("all" matches everything).
func (s *Synchronizer) SetStatusFilter(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.scheduleRefresh()
}

// SetCategoryFilter updates the category predicate.
func (s *Synchronizer) SetCategoryFilter(category string) {
	s.mu.Lock()
	s.category = category
	s.mu.Unlock()
	s.scheduleRefresh()
}

// SetUser updates the authenticated user. Login and logout both re-fetch
// because vote-ownership annotations differ per user.
func (s *Synchronizer) SetUser(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.scheduleRefresh()
}

// Refresh fetches immediately, bypassing the debounce window. Each fetch
// carries a monotonic sequence number; a response is applied only when its
// sequence is still the latest issued, discarding out-of-order arrivals.
func (s *Synchronizer) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.location == nil || s.mode == ModeProbing {
		s.mu.Unlock()
		return
	}
	if s.mode == ModeDegraded {
		// Degraded mode has no remote to refresh; Visible recomputes the
		// predicates over the mock collection on demand.
		s.mu.Unlock()
		return
	}
	s.seq++
	mySeq := s.seq
	q := api.IssueQuery{
		Lat:      s.location.Lat,
		Lng:      s.location.Lng,
		RadiusKm: s.radiusKm,
		Status:   s.status,
		Category: s.category,
		Sort:     "newest",
		Page:     1,
		Limit:    defaultLimit,
	}
	s.mu.Unlock()

	var attempt int
	for {
		page, err := s.svc.ListIssues(ctx, q)
		if err == nil {
			s.apply(mySeq, page.Issues)
			return
		}

		switch {
		case api.IsStatus(err, http.StatusTooManyRequests):
			if attempt < maxRetries {
				delay := time.Second << attempt
				s.log.Info("rate limited, backing off", "delay", delay)
				if s.sleep(ctx, delay) != nil {
					return
				}
				attempt++
				continue
			}
			s.notify(Notice{NoticeError, "Too many requests, please try again later"})
			return

		case isUnreachable(err) || api.IsStatus(err, http.StatusNotFound):
			// No automatic recovery on this path; only a later explicit
			// Probe can restore live mode.
			s.mu.Lock()
			s.mode = ModeDegraded
			s.enterMockLocked()
			s.mu.Unlock()
			s.log.Warn("backend unreachable, switching to mock data", "error", err)
			s.notify(Notice{NoticeWarn, "Server unavailable, showing sample data"})
			return

		default:
			s.mu.Lock()
			s.enterMockLocked()
			s.mu.Unlock()
			s.log.Error("fetch failed", "error", err)
			s.notify(Notice{NoticeError, "Failed to load issues"})
			return
		}
	}
}

// isUnreachable distinguishes transport failures (no HTTP response at all)
// from backend-reported statuses.
func isUnreachable(err error) bool {
	var se *api.StatusError
	return !errors.As(err, &se)
}

// apply replaces the collection wholesale; the server is the source of
// truth for the visible set. Stale responses are discarded.
func (s *Synchronizer) apply(seq uint64, issues []models.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.log.Debug("discarding stale fetch response", "seq", seq, "latest", s.seq)
		return
	}
	s.issues = issues
	s.usingMock = false
	s.mode = ModeLive
}

// Visible returns the displayed set: the conjunction of the radius, status
// and category predicates over the current collection.
func (s *Synchronizer) Visible() []models.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Issue
	for _, issue := range s.issues {
		if s.location != nil && !geo.IsWithinRadius(&issue.Location, s.location, s.radiusKm) {
			continue
		}
		if s.status != FilterAll && s.status != "" && string(issue.Status) != s.status {
			continue
		}
		if s.category != FilterAll && s.category != "" && string(issue.Category) != s.category {
			continue
		}
		out = append(out, issue)
	}
	return out
}

// splice replaces the record matching the authoritative update's identity.
func (s *Synchronizer) splice(updated *models.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.issues {
		if s.issues[i].ID == updated.ID {
			s.issues[i] = *updated
			return
		}
	}
}

func (s *Synchronizer) requireUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Synchronizer) offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == ModeDegraded || s.usingMock
}

// Vote applies a vote. Live mode splices the server's authoritative record;
// degraded mode transforms the local record as a best-effort offline
// emulation that is never queued for later sync. Unauthenticated attempts
// are rejected with no state change.
func (s *Synchronizer) Vote(ctx context.Context, id, voteType string) error {
	if err := s.requireUser(); err != nil {
		s.notify(Notice{NoticeWarn, "Sign in to vote on issues"})
		return err
	}
	if !models.ValidVoteType(voteType) {
		return errors.New("invalid vote type")
	}

	if s.offline() {
		s.voteLocally(id, models.VoteType(voteType))
		return nil
	}

	updated, err := s.svc.Vote(ctx, id, voteType)
	if err != nil {
		s.notify(Notice{NoticeError, "Failed to record vote"})
		return err
	}
	s.splice(updated)
	return nil
}

// voteLocally mirrors the server's toggle/switch semantics on the local
// record only.
func (s *Synchronizer) voteLocally(id string, voteType models.VoteType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.issues {
		issue := &s.issues[i]
		if issue.ID.Hex() != id {
			continue
		}
		prev := issue.UserVote
		switch {
		case prev == string(voteType):
			// Toggle off.
			if voteType == models.Upvote {
				issue.UpvotesCount--
			} else {
				issue.DownvotesCount--
			}
			issue.UserVote = ""
		case prev == "":
			if voteType == models.Upvote {
				issue.UpvotesCount++
			} else {
				issue.DownvotesCount++
			}
			issue.UserVote = string(voteType)
		default:
			// Switch direction.
			if voteType == models.Upvote {
				issue.UpvotesCount++
				issue.DownvotesCount--
			} else {
				issue.DownvotesCount++
				issue.UpvotesCount--
			}
			issue.UserVote = string(voteType)
		}
		issue.VoteCount = issue.UpvotesCount - issue.DownvotesCount
		return
	}
}

// Follow toggles following an issue.
func (s *Synchronizer) Follow(ctx context.Context, id string) error {
	if err := s.requireUser(); err != nil {
		s.notify(Notice{NoticeWarn, "Sign in to follow issues"})
		return err
	}

	if s.offline() {
		s.mu.Lock()
		for i := range s.issues {
			issue := &s.issues[i]
			if issue.ID.Hex() == id {
				if issue.UserFollowing {
					issue.FollowersCount--
				} else {
					issue.FollowersCount++
				}
				issue.UserFollowing = !issue.UserFollowing
				break
			}
		}
		s.mu.Unlock()
		return nil
	}

	updated, err := s.svc.Follow(ctx, id)
	if err != nil {
		s.notify(Notice{NoticeError, "Failed to update follow"})
		return err
	}
	s.splice(updated)
	return nil
}

// Flag reports an issue.
func (s *Synchronizer) Flag(ctx context.Context, id, reason string) error {
	if err := s.requireUser(); err != nil {
		s.notify(Notice{NoticeWarn, "Sign in to flag issues"})
		return err
	}

	if s.offline() {
		s.mu.Lock()
		for i := range s.issues {
			if s.issues[i].ID.Hex() == id {
				s.issues[i].FlagsCount++
				break
			}
		}
		s.mu.Unlock()
		return nil
	}

	updated, err := s.svc.Flag(ctx, id, reason)
	if err != nil {
		s.notify(Notice{NoticeError, "Failed to flag issue"})
		return err
	}
	s.splice(updated)
	return nil
}

// Create submits a new issue. In degraded mode the record exists only
// locally for the rest of the session.
func (s *Synchronizer) Create(ctx context.Context, in api.CreateIssueInput) (*models.Issue, error) {
	if err := s.requireUser(); err != nil {
		s.notify(Notice{NoticeWarn, "Sign in to report an issue"})
		return nil, err
	}

	if s.offline() {
		s.mu.Lock()
		now := time.Now()
		reporter := models.Reporter{Anonymous: in.Anonymous}
		if !in.Anonymous && s.user != nil {
			reporter.Name = s.user.Name
			reporter.Email = s.user.Email
		}
		issue := models.Issue{
			ID:          primitive.NewObjectID(),
			Title:       in.Title,
			Description: in.Description,
			Category:    models.IssueCategory(in.Category),
			Status:      models.Reported,
			Severity:    models.IssueSeverity(in.Severity),
			Location:    in.Location,
			Reporter:    reporter,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.issues = append([]models.Issue{issue}, s.issues...)
		s.mu.Unlock()
		return &issue, nil
	}

	issue, err := s.svc.CreateIssue(ctx, in)
	if err != nil {
		s.notify(Notice{NoticeError, "Failed to create issue"})
		return nil, err
	}

	s.mu.Lock()
	s.issues = append([]models.Issue{*issue}, s.issues...)
	s.mu.Unlock()
	return issue, nil
}

// Update edits an issue.
func (s *Synchronizer) Update(ctx context.Context, id string, in api.UpdateIssueInput) error {
	if err := s.requireUser(); err != nil {
		return err
	}

	if s.offline() {
		s.mu.Lock()
		for i := range s.issues {
			issue := &s.issues[i]
			if issue.ID.Hex() != id {
				continue
			}
			if in.Title != nil {
				issue.Title = *in.Title
			}
			if in.Description != nil {
				issue.Description = *in.Description
			}
			if in.Category != nil {
				issue.Category = models.IssueCategory(*in.Category)
			}
			if in.Severity != nil {
				issue.Severity = models.IssueSeverity(*in.Severity)
			}
			if in.Status != nil && models.CanTransition(issue.Status, models.IssueStatus(*in.Status)) {
				issue.Status = models.IssueStatus(*in.Status)
			}
			if in.Location != nil {
				issue.Location = *in.Location
			}
			issue.UpdatedAt = time.Now()
			break
		}
		s.mu.Unlock()
		return nil
	}

	updated, err := s.svc.UpdateIssue(ctx, id, in)
	if err != nil {
		s.notify(Notice{NoticeError, "Failed to update issue"})
		return err
	}
	s.splice(updated)
	return nil
}

// Delete removes an issue.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if err := s.requireUser(); err != nil {
		return err
	}

	if !s.offline() {
		if err := s.svc.DeleteIssue(ctx, id); err != nil {
			s.notify(Notice{NoticeError, "Failed to delete issue"})
			return err
		}
	}

	s.mu.Lock()
	for i := range s.issues {
		if s.issues[i].ID.Hex() == id {
			s.issues = append(s.issues[:i], s.issues[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}
