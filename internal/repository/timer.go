package repository

import (
	"context"
	"errors"
	"time"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FocusSessionRepository persists FocusSessions. Save uses GORM's
// optimistic-lock-friendly Updates-by-version pattern: the caller is
// expected to pass the session it originally read, and Save fails with
// apperrors.ErrConflict if the row's version has moved on.
type FocusSessionRepository interface {
	Create(ctx context.Context, s *models.FocusSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FocusSession, error)
	Save(ctx context.Context, s *models.FocusSession) error
	ListRunningExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.FocusSession, error)
	ListByHive(ctx context.Context, hiveID uuid.UUID) ([]models.FocusSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.FocusSession, error)
}

type focusSessionRepository struct {
	db *gorm.DB
}

// NewFocusSessionRepository constructs a GORM-backed FocusSessionRepository.
func NewFocusSessionRepository(db *gorm.DB) FocusSessionRepository {
	return &focusSessionRepository{db: db}
}

func (r *focusSessionRepository) Create(ctx context.Context, s *models.FocusSession) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "create focus session", err)
	}
	return nil
}

func (r *focusSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FocusSession, error) {
	var s models.FocusSession
	if err := readDB(r.db).WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("FocusSession", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get focus session", err)
	}
	return &s, nil
}

// Save persists s using version as an optimistic-lock compare-and-swap:
// it updates the row matching (id, version) and bumps version by one.
// Zero rows affected means another writer won the race, surfaced as a
// conflict so the caller re-reads and retries per spec.md §4.E/§5.
func (r *focusSessionRepository) Save(ctx context.Context, s *models.FocusSession) error {
	prevVersion := s.Version
	s.Version = prevVersion + 1
	res := r.db.WithContext(ctx).Model(&models.FocusSession{}).
		Where("id = ? AND version = ?", s.ID, prevVersion).
		Select("*").Omit("created_at").
		Updates(s)
	if res.Error != nil {
		s.Version = prevVersion
		return apperrors.Wrap(apperrors.CodeFatal, "save focus session", res.Error)
	}
	if res.RowsAffected == 0 {
		s.Version = prevVersion
		return apperrors.ErrConflict
	}
	return nil
}

func (r *focusSessionRepository) ListRunningExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.FocusSession, error) {
	var sessions []models.FocusSession
	if err := readDB(r.db).WithContext(ctx).
		Where("state = ? AND expires_at < ?", models.SessionRunning, cutoff).
		Find(&sessions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list expiring sessions", err)
	}
	return sessions, nil
}

func (r *focusSessionRepository) ListByHive(ctx context.Context, hiveID uuid.UUID) ([]models.FocusSession, error) {
	var sessions []models.FocusSession
	if err := readDB(r.db).WithContext(ctx).
		Where("hive_id = ?", hiveID).Find(&sessions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list hive sessions", err)
	}
	return sessions, nil
}

func (r *focusSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.FocusSession, error) {
	var sessions []models.FocusSession
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list user sessions", err)
	}
	return sessions, nil
}

// TimerTemplateRepository persists TimerTemplates.
type TimerTemplateRepository interface {
	Create(ctx context.Context, t *models.TimerTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TimerTemplate, error)
	ListSystemTemplates(ctx context.Context) ([]models.TimerTemplate, error)
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.TimerTemplate, error)
}

type timerTemplateRepository struct {
	db *gorm.DB
}

// NewTimerTemplateRepository constructs a GORM-backed TimerTemplateRepository.
func NewTimerTemplateRepository(db *gorm.DB) TimerTemplateRepository {
	return &timerTemplateRepository{db: db}
}

func (r *timerTemplateRepository) Create(ctx context.Context, t *models.TimerTemplate) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "create timer template", err)
	}
	return nil
}

func (r *timerTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TimerTemplate, error) {
	var t models.TimerTemplate
	if err := readDB(r.db).WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("TimerTemplate", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get timer template", err)
	}
	return &t, nil
}

func (r *timerTemplateRepository) ListSystemTemplates(ctx context.Context) ([]models.TimerTemplate, error) {
	var templates []models.TimerTemplate
	if err := readDB(r.db).WithContext(ctx).
		Where("is_system = ?", true).Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list system templates", err)
	}
	return templates, nil
}

func (r *timerTemplateRepository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.TimerTemplate, error) {
	var templates []models.TimerTemplate
	if err := readDB(r.db).WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list owner templates", err)
	}
	return templates, nil
}
