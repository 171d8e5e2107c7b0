package repository

import (
	"context"
	"errors"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HiveRepository persists Hives and their Memberships.
type HiveRepository interface {
	Create(ctx context.Context, hive *models.Hive) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Hive, error)
	GetBySlug(ctx context.Context, slug string) (*models.Hive, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Hive, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddMembership(ctx context.Context, m *models.Membership) error
	RemoveMembership(ctx context.Context, hiveID, userID uuid.UUID) error
	GetMembership(ctx context.Context, hiveID, userID uuid.UUID) (*models.Membership, error)
	ListMemberships(ctx context.Context, hiveID uuid.UUID) ([]models.Membership, error)
	UpdateMembershipRole(ctx context.Context, hiveID, userID uuid.UUID, role models.MembershipRole) error
	CountMembers(ctx context.Context, hiveID uuid.UUID) (int64, error)
}

type hiveRepository struct {
	db *gorm.DB
}

// NewHiveRepository constructs a GORM-backed HiveRepository.
func NewHiveRepository(db *gorm.DB) HiveRepository {
	return &hiveRepository{db: db}
}

func (r *hiveRepository) Create(ctx context.Context, hive *models.Hive) error {
	if err := validation.ValidateHiveSlug(hive.Slug); err != nil {
		return apperrors.NewValidationFailure(err.Error())
	}
	if err := r.db.WithContext(ctx).Create(hive).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "create hive", err)
	}
	return nil
}

func (r *hiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Hive, error) {
	var hive models.Hive
	if err := readDB(r.db).WithContext(ctx).First(&hive, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Hive", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get hive", err)
	}
	return &hive, nil
}

func (r *hiveRepository) GetBySlug(ctx context.Context, slug string) (*models.Hive, error) {
	var hive models.Hive
	if err := readDB(r.db).WithContext(ctx).First(&hive, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Hive", slug)
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get hive by slug", err)
	}
	return &hive, nil
}

func (r *hiveRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Hive, error) {
	var hives []models.Hive
	if err := readDB(r.db).WithContext(ctx).
		Where("visibility = ?", models.VisibilityPublic).
		Limit(limit).Offset(offset).
		Find(&hives).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list public hives", err)
	}
	return hives, nil
}

func (r *hiveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Hive{}, "id = ?", id).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "delete hive", err)
	}
	return nil
}

func (r *hiveRepository) AddMembership(ctx context.Context, m *models.Membership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeConflict, "add membership", err)
	}
	return nil
}

func (r *hiveRepository) RemoveMembership(ctx context.Context, hiveID, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("hive_id = ? AND user_id = ?", hiveID, userID).
		Delete(&models.Membership{}).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "remove membership", err)
	}
	return nil
}

func (r *hiveRepository) GetMembership(ctx context.Context, hiveID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	if err := readDB(r.db).WithContext(ctx).
		Where("hive_id = ? AND user_id = ?", hiveID, userID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Membership", userID)
		}
		return nil, apperrors.Wrap(apperrors.CodeFatal, "get membership", err)
	}
	return &m, nil
}

func (r *hiveRepository) ListMemberships(ctx context.Context, hiveID uuid.UUID) ([]models.Membership, error) {
	var ms []models.Membership
	if err := readDB(r.db).WithContext(ctx).Where("hive_id = ?", hiveID).Find(&ms).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "list memberships", err)
	}
	return ms, nil
}

func (r *hiveRepository) UpdateMembershipRole(ctx context.Context, hiveID, userID uuid.UUID, role models.MembershipRole) error {
	res := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("hive_id = ? AND user_id = ?", hiveID, userID).
		Update("role", role)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "update membership role", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("Membership", userID)
	}
	return nil
}

func (r *hiveRepository) CountMembers(ctx context.Context, hiveID uuid.UUID) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Membership{}).
		Where("hive_id = ?", hiveID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeFatal, "count members", err)
	}
	return count, nil
}
