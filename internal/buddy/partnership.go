// Package buddy implements spec.md §4.E: the accountability-partnership
// lifecycle, candidate matching, check-in streak math, health scoring, and
// goal/milestone progression. Grounded on the teacher's
// internal/service/friend_service.go (request/accept/reject over a status
// enum, looked up by an unordered pair via GetFriendshipBetweenUsers) and
// internal/models/friendship.go, generalized from a binary friend relation
// to the full Partnership state machine with optimistic version locking.
package buddy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/observability"
	"sanctum/internal/platform"
	"sanctum/internal/repository"
)

// Config holds the partnership engine's timing knobs, sourced from
// config.Config's PARTNERSHIP_*/CHECKIN_* keys (spec.md §6).
type Config struct {
	PendingTTL          time.Duration
	CheckinGapTolerance time.Duration
}

// DefaultConfig mirrors config.go's viper defaults (72h PENDING TTL, zero
// check-in gap tolerance).
func DefaultConfig() Config {
	return Config{PendingTTL: 72 * time.Hour, CheckinGapTolerance: 0}
}

// Core implements the partnership operations named in spec.md §4.E.
type Core struct {
	cfg       Config
	repo      repository.PartnershipRepository
	publisher platform.DeltaPublisher
	clock     platform.Clock
}

// NewCore builds a Core.
func NewCore(cfg Config, repo repository.PartnershipRepository, publisher platform.DeltaPublisher, clock platform.Clock) *Core {
	if publisher == nil {
		publisher = platform.NoopPublisher{}
	}
	return &Core{cfg: cfg, repo: repo, publisher: publisher, clock: clock}
}

// Request creates a PENDING partnership between userID and targetID,
// enforcing spec.md §4.E's uniqueness invariant: at most one non-ENDED
// partnership per unordered pair, looked up the same way regardless of
// argument order (grounded on friend_service.go's SendFriendRequest,
// which performs the same existing-relationship check before creating).
func (c *Core) Request(ctx context.Context, userID, targetID uuid.UUID) (*models.Partnership, error) {
	if userID == targetID {
		return nil, apperrors.NewValidationFailure("cannot partner with yourself")
	}

	low, high := models.Pair(userID, targetID)
	existing, err := c.repo.GetActiveByPair(ctx, low, high)
	if err != nil && apperrors.CodeOf(err) != apperrors.CodeNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("a non-ended partnership already exists for this pair")
	}

	now := c.clock.Now()
	p := &models.Partnership{
		ID:                uuid.New(),
		User1ID:           low,
		User2ID:           high,
		Status:            models.PartnershipPending,
		LastInteractionAt: now,
	}
	if err := c.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	observability.PartnershipsActive.Inc()
	c.emit(ctx, p, models.DeltaPartnershipCreated)
	return p, nil
}

// Accept transitions a PENDING partnership to ACTIVE.
func (c *Core) Accept(ctx context.Context, partnershipID uuid.UUID) (*models.Partnership, error) {
	p, err := c.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return nil, err
	}
	// Accepting an already-accepted partnership is a no-op, per spec.md §8's
	// idempotence laws.
	if p.Status == models.PartnershipActive {
		return p, nil
	}
	if p.Status != models.PartnershipPending {
		return nil, apperrors.NewValidationFailure("partnership is not pending")
	}

	now := c.clock.Now()
	p.Status = models.PartnershipActive
	p.StartedAt = &now
	p.LastInteractionAt = now
	if err := c.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	c.emit(ctx, p, models.DeltaPartnershipAccepted)
	return p, nil
}

// Reject transitions a PENDING partnership to ENDED with reason "rejected".
func (c *Core) Reject(ctx context.Context, partnershipID uuid.UUID) (*models.Partnership, error) {
	p, err := c.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PartnershipPending {
		return nil, apperrors.NewValidationFailure("partnership is not pending")
	}
	return c.end(ctx, p, "rejected")
}

// Pause transitions ACTIVE to PAUSED. Pausing an already-paused
// partnership is idempotent, per spec.md §4.E's "ACTIVE ⇄ PAUSED is
// idempotent."
func (c *Core) Pause(ctx context.Context, partnershipID uuid.UUID) (*models.Partnership, error) {
	p, err := c.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.PartnershipPaused {
		return p, nil
	}
	if p.Status != models.PartnershipActive {
		return nil, apperrors.NewValidationFailure("partnership is not active")
	}

	p.Status = models.PartnershipPaused
	p.LastInteractionAt = c.clock.Now()
	if err := c.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	c.emit(ctx, p, models.DeltaPartnershipPaused)
	return p, nil
}

// Resume transitions PAUSED back to ACTIVE. Idempotent on an already-active
// partnership.
func (c *Core) Resume(ctx context.Context, partnershipID uuid.UUID) (*models.Partnership, error) {
	p, err := c.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.PartnershipActive {
		return p, nil
	}
	if p.Status != models.PartnershipPaused {
		return nil, apperrors.NewValidationFailure("partnership is not paused")
	}

	p.Status = models.PartnershipActive
	p.LastInteractionAt = c.clock.Now()
	if err := c.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	c.emit(ctx, p, models.DeltaPartnershipResumed)
	return p, nil
}

// End transitions ACTIVE or PAUSED to the terminal ENDED state. Re-ending
// (or ending a PENDING partnership, which must go through Reject) is a
// hard validation failure, per spec.md §4.E: "Re-activating ENDED is
// forbidden; the conflict is a hard validation failure."
func (c *Core) End(ctx context.Context, partnershipID uuid.UUID, reason string) (*models.Partnership, error) {
	p, err := c.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PartnershipActive && p.Status != models.PartnershipPaused {
		return nil, apperrors.NewValidationFailure("partnership is not active or paused")
	}
	return c.end(ctx, p, reason)
}

func (c *Core) end(ctx context.Context, p *models.Partnership, reason string) (*models.Partnership, error) {
	now := c.clock.Now()
	p.Status = models.PartnershipEnded
	p.EndedAt = &now
	p.EndReason = reason
	p.LastInteractionAt = now
	if p.StartedAt != nil {
		p.DurationDays = int(now.Sub(*p.StartedAt).Hours() / 24)
	}
	if err := c.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	observability.PartnershipsActive.Dec()
	c.emit(ctx, p, models.DeltaPartnershipEnded)
	return p, nil
}

func (c *Core) emit(ctx context.Context, p *models.Partnership, kind models.DeltaKind) {
	_ = c.publisher.Publish(ctx, platform.DeltaEvent{
		Topic: models.TopicPartnership(p.ID),
		Type:  string(kind),
		Payload: models.PartnershipDeltaPayload{
			PartnershipID: p.ID,
			Status:        p.Status,
		},
		UserID: p.User1ID.String(),
	})
}
