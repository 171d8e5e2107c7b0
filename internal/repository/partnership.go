package repository

import (
	"context"
	"errors"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnershipRepository persists Partnerships, Checkins, Goals and Milestones.
type PartnershipRepository interface {
	Create(ctx context.Context, p *models.Partnership) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Partnership, error)
	// GetActiveByPair returns the single non-ENDED partnership for the
	// unordered pair (low, high), or apperrors.ErrNotFound if none exists.
	GetActiveByPair(ctx context.Context, low, high uuid.UUID) (*models.Partnership, error)
	// Save performs an optimistic-lock compare-and-swap on Version,
	// returning apperrors.ErrConflict when the row moved since read.
	Save(ctx context.Context, p *models.Partnership) error
	ListPendingOlderThan(ctx context.Context, cutoffUnixSec int64) ([]models.Partnership, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Partnership, error)

	CreateCheckin(ctx context.Context, c *models.Checkin) error
	ListCheckins(ctx context.Context, partnershipID, userID uuid.UUID) ([]models.Checkin, error)

	CreateGoal(ctx context.Context, g *models.Goal) error
	GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error)
	SaveGoal(ctx context.Context, g *models.Goal) error
	ListGoals(ctx context.Context, partnershipID uuid.UUID) ([]models.Goal, error)

	CreateMilestone(ctx context.Context, m *models.Milestone) error
	SaveMilestone(ctx context.Context, m *models.Milestone) error
	ListMilestones(ctx context.Context, goalID uuid.UUID) ([]models.Milestone, error)
}

type partnershipRepository struct {
	db *gorm.DB
}

// NewPartnershipRepository constructs a GORM-backed PartnershipRepository.
func NewPartnershipRepository(db *gorm.DB) PartnershipRepository {
	return &partnershipRepository{db: db}
}

func (r *partnershipRepository) Create(ctx context.Context, p *models.Partnership) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		// A concurrent request can win the race between buddy.Core.Request's
		// GetActiveByPair check and this insert; the partial unique index
		// uq_partnership_active_pair is the actual enforcement point for
		// spec.md §8 scenario 4, so surface its violation as a conflict
		// rather than a fatal error.
		if isUniqueViolation(err) {
			return apperrors.NewConflict("a non-ended partnership already exists for this pair")
		}
		return apperrors.Wrap(apperrors.CodeFatal, "create partnership", err)
	}
	return nil
}

func (r *partnershipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Partnership, error) {
	var p models.Partnership
	if err := readDB(r.db).WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Partnership", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get partnership", err)
	}
	return &p, nil
}

func (r *partnershipRepository) GetActiveByPair(ctx context.Context, low, high uuid.UUID) (*models.Partnership, error) {
	var p models.Partnership
	if err := readDB(r.db).WithContext(ctx).
		Where("user1_id = ? AND user2_id = ? AND status != ?", low, high, models.PartnershipEnded).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get active partnership", err)
	}
	return &p, nil
}

func (r *partnershipRepository) Save(ctx context.Context, p *models.Partnership) error {
	prevVersion := p.Version
	p.Version = prevVersion + 1
	res := r.db.WithContext(ctx).Model(&models.Partnership{}).
		Where("id = ? AND version = ?", p.ID, prevVersion).
		Select("*").Omit("created_at").
		Updates(p)
	if res.Error != nil {
		p.Version = prevVersion
		return apperrors.Wrap(apperrors.CodeFatal, "save partnership", res.Error)
	}
	if res.RowsAffected == 0 {
		p.Version = prevVersion
		return apperrors.ErrConflict
	}
	return nil
}

func (r *partnershipRepository) ListPendingOlderThan(ctx context.Context, cutoffUnixSec int64) ([]models.Partnership, error) {
	var ps []models.Partnership
	if err := readDB(r.db).WithContext(ctx).
		Where("status = ? AND extract(epoch from created_at) < ?", models.PartnershipPending, cutoffUnixSec).
		Find(&ps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list stale pending partnerships", err)
	}
	return ps, nil
}

func (r *partnershipRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Partnership, error) {
	var ps []models.Partnership
	if err := readDB(r.db).WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Find(&ps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list partnerships for user", err)
	}
	return ps, nil
}

func (r *partnershipRepository) CreateCheckin(ctx context.Context, c *models.Checkin) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "create checkin", err)
	}
	return nil
}

func (r *partnershipRepository) ListCheckins(ctx context.Context, partnershipID, userID uuid.UUID) ([]models.Checkin, error) {
	var checkins []models.Checkin
	q := readDB(r.db).WithContext(ctx).Where("partnership_id = ?", partnershipID)
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Order("created_at ASC").Find(&checkins).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list checkins", err)
	}
	return checkins, nil
}

func (r *partnershipRepository) CreateGoal(ctx context.Context, g *models.Goal) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "create goal", err)
	}
	return nil
}

func (r *partnershipRepository) GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	var g models.Goal
	if err := readDB(r.db).WithContext(ctx).Preload("Milestones").First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Goal", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get goal", err)
	}
	return &g, nil
}

func (r *partnershipRepository) SaveGoal(ctx context.Context, g *models.Goal) error {
	if err := r.db.WithContext(ctx).Save(g).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "save goal", err)
	}
	return nil
}

func (r *partnershipRepository) ListGoals(ctx context.Context, partnershipID uuid.UUID) ([]models.Goal, error) {
	var goals []models.Goal
	if err := readDB(r.db).WithContext(ctx).
		Where("partnership_id = ?", partnershipID).
		Preload("Milestones").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list goals", err)
	}
	return goals, nil
}

func (r *partnershipRepository) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "create milestone", err)
	}
	return nil
}

func (r *partnershipRepository) SaveMilestone(ctx context.Context, m *models.Milestone) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "save milestone", err)
	}
	return nil
}

func (r *partnershipRepository) ListMilestones(ctx context.Context, goalID uuid.UUID) ([]models.Milestone, error) {
	var ms []models.Milestone
	if err := readDB(r.db).WithContext(ctx).
		Where("goal_id = ?", goalID).Order("ordinal ASC").Find(&ms).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list milestones", err)
	}
	return ms, nil
}
