package buddy

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/platform"
)

// fakeRepo is an in-memory stand-in for repository.PartnershipRepository,
// sufficient to exercise the lifecycle/streak/health/goal logic without a
// database, mirroring the fakeSessionRepo pattern used in internal/timer.
type fakeRepo struct {
	mu           sync.Mutex
	partnerships map[uuid.UUID]models.Partnership
	checkins     []models.Checkin
	goals        map[uuid.UUID]models.Goal
	milestones   map[uuid.UUID]models.Milestone
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		partnerships: make(map[uuid.UUID]models.Partnership),
		goals:        make(map[uuid.UUID]models.Goal),
		milestones:   make(map[uuid.UUID]models.Milestone),
	}
}

func (r *fakeRepo) Create(ctx context.Context, p *models.Partnership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.partnerships[p.ID] = *p
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Partnership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partnerships[id]
	if !ok {
		return nil, apperrors.NewNotFound("Partnership", id)
	}
	return &p, nil
}

func (r *fakeRepo) GetActiveByPair(ctx context.Context, low, high uuid.UUID) (*models.Partnership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.partnerships {
		if p.User1ID == low && p.User2ID == high && p.Status != models.PartnershipEnded {
			out := p
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRepo) Save(ctx context.Context, p *models.Partnership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.partnerships[p.ID]
	if ok && existing.Version != p.Version {
		return apperrors.ErrConflict
	}
	p.Version++
	r.partnerships[p.ID] = *p
	return nil
}

func (r *fakeRepo) ListPendingOlderThan(ctx context.Context, cutoffUnixSec int64) ([]models.Partnership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Partnership
	for _, p := range r.partnerships {
		if p.Status == models.PartnershipPending && p.CreatedAt.Unix() < cutoffUnixSec {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Partnership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Partnership
	for _, p := range r.partnerships {
		if p.User1ID == userID || p.User2ID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateCheckin(ctx context.Context, c *models.Checkin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.checkins = append(r.checkins, *c)
	return nil
}

func (r *fakeRepo) ListCheckins(ctx context.Context, partnershipID, userID uuid.UUID) ([]models.Checkin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Checkin
	for _, c := range r.checkins {
		if c.PartnershipID != partnershipID {
			continue
		}
		if userID != uuid.Nil && c.UserID != userID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeRepo) CreateGoal(ctx context.Context, g *models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[g.ID] = *g
	return nil
}

func (r *fakeRepo) GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[id]
	if !ok {
		return nil, apperrors.NewNotFound("Goal", id)
	}
	for _, m := range r.milestones {
		if m.GoalID == id {
			g.Milestones = append(g.Milestones, m)
		}
	}
	return &g, nil
}

func (r *fakeRepo) SaveGoal(ctx context.Context, g *models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[g.ID] = *g
	return nil
}

func (r *fakeRepo) ListGoals(ctx context.Context, partnershipID uuid.UUID) ([]models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Goal
	for _, g := range r.goals {
		if g.PartnershipID == partnershipID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.milestones[m.ID] = *m
	return nil
}

func (r *fakeRepo) SaveMilestone(ctx context.Context, m *models.Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.milestones[m.ID] = *m
	return nil
}

func (r *fakeRepo) ListMilestones(ctx context.Context, goalID uuid.UUID) ([]models.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Milestone
	for _, m := range r.milestones {
		if m.GoalID == goalID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestCore(clock *platform.FakeClock) (*Core, *fakeRepo) {
	repo := newFakeRepo()
	return NewCore(DefaultConfig(), repo, nil, clock), repo
}
