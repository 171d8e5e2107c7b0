package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/platform"
)

// fakeSessionRepo is an in-memory stand-in for repository.FocusSessionRepository,
// sufficient to exercise the state machine without a database.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]models.FocusSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]models.FocusSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *models.FocusSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.FocusSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFound("FocusSession", id)
	}
	return &s, nil
}

func (r *fakeSessionRepo) Save(ctx context.Context, s *models.FocusSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sessions[s.ID]
	if ok && existing.Version != s.Version {
		return apperrors.ErrConflict
	}
	s.Version++
	r.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) ListRunningExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.FocusSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FocusSession
	for _, s := range r.sessions {
		if s.State == models.SessionRunning && s.ExpiresAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListByHive(ctx context.Context, hiveID uuid.UUID) ([]models.FocusSession, error) {
	return nil, nil
}

func (r *fakeSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.FocusSession, error) {
	return nil, nil
}

func newTestCore(t *testing.T, clock *platform.FakeClock) (*Core, *fakeSessionRepo) {
	repo := newFakeSessionRepo()
	sched := platform.NewRealScheduler(context.Background())
	t.Cleanup(sched.Stop)
	return NewCore(repo, sched, platform.NoopPublisher{}, clock), repo
}

func TestCore_Start_CreatesRunningSession(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(t, clock)

	s, err := core.Start(context.Background(), uuid.New(), nil, models.SessionIndividual, 1500)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, s.State)
	assert.Equal(t, 1500, s.RemainingSec)
}

func TestCore_PauseThenResume_PreservesRemaining(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(t, clock)

	s, err := core.Start(context.Background(), uuid.New(), nil, models.SessionIndividual, 1000)
	require.NoError(t, err)

	clock.Advance(400 * time.Second)
	paused, err := core.Pause(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaused, paused.State)
	assert.InDelta(t, 600, paused.RemainingSec, 1)

	clock.Advance(time.Hour)
	resumed, err := core.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, resumed.State)
	assert.Equal(t, clock.Now().Add(600*time.Second), resumed.ExpiresAt)
}

func TestCore_FireExpiry_CompletesWhenGoalReached(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, repo := newTestCore(t, clock)

	s, err := core.Start(context.Background(), uuid.New(), nil, models.SessionIndividual, 100)
	require.NoError(t, err)

	clock.Advance(200 * time.Second)
	core.fireExpiry(context.Background(), s.ID)

	final, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, final.State)
	require.NotNil(t, final.ProductivityScore)
	assert.Equal(t, 100, *final.ProductivityScore)
}

func TestCore_Complete_ExpiresWhenEndedEarly(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(t, clock)

	s, err := core.Start(context.Background(), uuid.New(), nil, models.SessionIndividual, 1000)
	require.NoError(t, err)

	clock.Advance(400 * time.Second)
	final, err := core.Complete(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionExpired, final.State)
	require.NotNil(t, final.ProductivityScore)
	assert.Less(t, *final.ProductivityScore, 100)
}

func TestCore_FireExpiry_IgnoresAlreadyTerminalSession(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(t, clock)

	s, err := core.Start(context.Background(), uuid.New(), nil, models.SessionIndividual, 100)
	require.NoError(t, err)
	_, err = core.Cancel(context.Background(), s.ID)
	require.NoError(t, err)

	core.fireExpiry(context.Background(), s.ID)

	final, err := core.sessions.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, final.State)
}

func TestCore_Reconcile_CompletesOverdueRunningSessions(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(t, clock)

	s, err := core.Start(context.Background(), uuid.New(), nil, models.SessionIndividual, 60)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	require.NoError(t, core.Reconcile(context.Background()))

	final, err := core.sessions.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, final.State.IsTerminal())
}
