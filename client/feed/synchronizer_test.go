package feed

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"issuex/client/api"
	"issuex/client/store"
	"issuex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu         sync.Mutex
	healthErr  error
	listErr    error
	listErrs   []error // consumed one per call when non-empty
	issues     []models.Issue
	listCalls  int
	lastQuery  api.IssueQuery
	voteResult *models.Issue
}

func (f *fakeService) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeService) ListIssues(ctx context.Context, q api.IssueQuery) (*api.IssuePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastQuery = q
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if f.listErr != nil {
		return nil, f.listErr
	}
	return &api.IssuePage{Issues: f.issues, TotalIssues: len(f.issues)}, nil
}

func (f *fakeService) CreateIssue(ctx context.Context, in api.CreateIssueInput) (*models.Issue, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) UpdateIssue(ctx context.Context, id string, in api.UpdateIssueInput) (*models.Issue, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) DeleteIssue(ctx context.Context, id string) error { return nil }

func (f *fakeService) Vote(ctx context.Context, id, voteType string) (*models.Issue, error) {
	if f.voteResult == nil {
		return nil, errors.New("no vote result configured")
	}
	return f.voteResult, nil
}

func (f *fakeService) Follow(ctx context.Context, id string) (*models.Issue, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) Flag(ctx context.Context, id, reason string) (*models.Issue, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeService) query() api.IssueQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func noSleep(recorded *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func newTempStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func newLiveSync(t *testing.T, svc *fakeService, cfg Config) *Synchronizer {
	t.Helper()
	cfg.Service = svc
	s := New(cfg)
	require.Equal(t, ModeLive, s.Probe(context.Background()))
	return s
}

func TestProbeFailureEntersDegradedMode(t *testing.T) {
	svc := &fakeService{healthErr: errors.New("connection refused")}
	var notices []Notice
	s := New(Config{Service: svc, Notify: func(n Notice) { notices = append(notices, n) }})

	assert.Equal(t, ModeDegraded, s.Probe(context.Background()))
	assert.True(t, s.UsingMockData())
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeWarn, notices[0].Level)
}

func TestDebounceCoalescesTriggers(t *testing.T) {
	svc := &fakeService{}
	s := newLiveSync(t, svc, Config{Debounce: 50 * time.Millisecond})
	s.SetLocation(models.Location{Lat: 12.9716, Lng: 77.5946})
	time.Sleep(150 * time.Millisecond)
	before := svc.calls()

	// Five rapid radius changes within the window produce one fetch with
	// the final value.
	for _, r := range []float64{1, 2, 3, 4, 5} {
		s.SetRadius(r)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, before+1, svc.calls())
	assert.Equal(t, 5.0, svc.query().RadiusKm)
}

func TestRateLimitBackoffSchedule(t *testing.T) {
	rateLimited := &api.StatusError{Code: http.StatusTooManyRequests, Message: "rate limit exceeded"}
	svc := &fakeService{listErr: rateLimited}
	var sleeps []time.Duration
	var notices []Notice
	s := newLiveSync(t, svc, Config{
		Sleep:  noSleep(&sleeps),
		Notify: func(n Notice) { notices = append(notices, n) },
	})
	s.mu.Lock()
	loc := models.Location{Lat: 12.9716, Lng: 77.5946}
	s.location = &loc
	s.mu.Unlock()

	before := svc.calls()
	s.Refresh(context.Background())

	// Initial attempt plus exactly three retries at 1s/2s/4s, then the
	// rate-limit notice; no further retry.
	assert.Equal(t, before+4, svc.calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeps)
	require.NotEmpty(t, notices)
	assert.Equal(t, NoticeError, notices[len(notices)-1].Level)
	assert.Equal(t, ModeLive, s.Mode(), "rate limiting does not demote the mode")
}

func TestNetworkFailureSwitchesToMockForSession(t *testing.T) {
	svc := &fakeService{listErr: errors.New("dial tcp: connection refused")}
	var notices []Notice
	s := newLiveSync(t, svc, Config{Notify: func(n Notice) { notices = append(notices, n) }})
	s.mu.Lock()
	loc := models.Location{Lat: 12.9716, Lng: 77.5946}
	s.location = &loc
	s.mu.Unlock()

	s.Refresh(context.Background())

	assert.Equal(t, ModeDegraded, s.Mode())
	assert.True(t, s.UsingMockData())

	// Degraded mode fetches nothing further.
	calls := svc.calls()
	s.Refresh(context.Background())
	assert.Equal(t, calls, svc.calls())

	// A later explicit probe restores live mode.
	svc.mu.Lock()
	svc.listErr = nil
	svc.mu.Unlock()
	assert.Equal(t, ModeLive, s.Probe(context.Background()))
	assert.False(t, s.UsingMockData())
}

func TestStaleResponsesDiscarded(t *testing.T) {
	svc := &fakeService{}
	s := newLiveSync(t, svc, Config{})

	stale := []models.Issue{{Title: "stale"}}
	fresh := []models.Issue{{Title: "fresh"}}

	// Simulate two overlapping fetches where the older response lands
	// after the newer one.
	s.mu.Lock()
	s.seq = 1
	oldSeq := s.seq
	s.seq = 2
	newSeq := s.seq
	s.mu.Unlock()

	s.apply(newSeq, fresh)
	s.apply(oldSeq, stale)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.issues, 1)
	assert.Equal(t, "fresh", s.issues[0].Title)
}

func TestUnauthenticatedVoteRejected(t *testing.T) {
	svc := &fakeService{healthErr: errors.New("down")}
	var notices []Notice
	s := New(Config{Service: svc, Notify: func(n Notice) { notices = append(notices, n) }})
	s.Probe(context.Background())

	before := s.Visible()
	target := MockIssues()[0]

	err := s.Vote(context.Background(), target.ID.Hex(), "upvote")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, before, s.Visible(), "collection must be unchanged")
	require.NotEmpty(t, notices)
	assert.Equal(t, NoticeWarn, notices[len(notices)-1].Level)
}

func TestDegradedVoteTransformsLocalRecordOnly(t *testing.T) {
	svc := &fakeService{healthErr: errors.New("down")}
	s := New(Config{Service: svc})
	s.Probe(context.Background())
	s.SetUser(&models.User{Name: "Asha", Email: "asha@example.com"})

	target := MockIssues()[0]
	var beforeUp, beforeVotes int
	s.mu.Lock()
	for _, issue := range s.issues {
		if issue.ID == target.ID {
			beforeUp = issue.UpvotesCount
			beforeVotes = issue.VoteCount
		}
	}
	s.mu.Unlock()

	require.NoError(t, s.Vote(context.Background(), target.ID.Hex(), "upvote"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, issue := range s.issues {
		if issue.ID == target.ID {
			assert.Equal(t, beforeUp+1, issue.UpvotesCount)
			assert.Equal(t, beforeVotes+1, issue.VoteCount)
			assert.Equal(t, "upvote", issue.UserVote)
		} else {
			assert.Empty(t, issue.UserVote, "only the voted record changes")
		}
	}
}

func TestLiveVoteSplicesAuthoritativeRecord(t *testing.T) {
	issues := MockIssues()
	authoritative := issues[0]
	authoritative.UpvotesCount = 99
	authoritative.VoteCount = 98
	authoritative.UserVote = "upvote"

	svc := &fakeService{issues: issues, voteResult: &authoritative}
	s := newLiveSync(t, svc, Config{})
	s.mu.Lock()
	loc := models.Location{Lat: 12.9716, Lng: 77.5946}
	s.location = &loc
	s.mu.Unlock()
	s.Refresh(context.Background())

	// Set the user directly so no debounced re-fetch races the splice.
	s.mu.Lock()
	s.user = &models.User{Name: "Asha"}
	s.mu.Unlock()

	require.NoError(t, s.Vote(context.Background(), authoritative.ID.Hex(), "upvote"))

	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, issue := range s.issues {
		if issue.ID == authoritative.ID {
			found = true
			assert.Equal(t, 99, issue.UpvotesCount)
			assert.Equal(t, 98, issue.VoteCount)
		}
	}
	assert.True(t, found)
}

func TestVisibleAppliesPredicateConjunction(t *testing.T) {
	svc := &fakeService{healthErr: errors.New("down")}
	s := New(Config{Service: svc})
	s.Probe(context.Background())

	// Spec scenario: center (12.9716, 77.5946), radius 5 km; the mock
	// pothole at (12.9716, 77.6000) is ~0.6 km away and reported.
	s.mu.Lock()
	loc := models.Location{Lat: 12.9716, Lng: 77.5946}
	s.location = &loc
	s.radiusKm = 5
	s.status = "reported"
	s.category = FilterAll
	s.mu.Unlock()

	visible := s.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Deep pothole near Trinity Circle", visible[0].Title)

	// Changing the status filter to resolved removes it.
	s.mu.Lock()
	s.status = "resolved"
	s.mu.Unlock()
	for _, issue := range s.Visible() {
		assert.NotEqual(t, "Deep pothole near Trinity Circle", issue.Title)
	}

	// Category predicate composes with the rest.
	s.mu.Lock()
	s.status = FilterAll
	s.category = "lighting"
	s.mu.Unlock()
	visible = s.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, models.Lighting, visible[0].Category)
}

func TestDegradedCreateAndDeleteAreLocal(t *testing.T) {
	svc := &fakeService{healthErr: errors.New("down")}
	s := New(Config{Service: svc})
	s.Probe(context.Background())
	s.SetUser(&models.User{Name: "Asha", Email: "asha@example.com"})

	issue, err := s.Create(context.Background(), api.CreateIssueInput{
		Title:       "New local issue",
		Description: "Only exists in this session",
		Category:    "roads",
		Severity:    "low",
		Location:    models.Location{Lat: 12.97, Lng: 77.60},
	})
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.Equal(t, models.Reported, issue.Status)
	assert.Equal(t, "Asha", issue.Reporter.Name)

	s.mu.Lock()
	count := len(s.issues)
	s.mu.Unlock()
	assert.Equal(t, len(MockIssues())+1, count)

	require.NoError(t, s.Delete(context.Background(), issue.ID.Hex()))
	s.mu.Lock()
	count = len(s.issues)
	s.mu.Unlock()
	assert.Equal(t, len(MockIssues()), count)
}

func TestRadiusPreferencePersists(t *testing.T) {
	st := newTempStore(t)
	svc := &fakeService{}
	s := New(Config{Service: svc, Store: st, Debounce: 10 * time.Millisecond})
	s.SetRadius(25)
	time.Sleep(50 * time.Millisecond)

	s2 := New(Config{Service: svc, Store: st})
	s2.mu.Lock()
	defer s2.mu.Unlock()
	assert.Equal(t, 25.0, s2.radiusKm)
}
