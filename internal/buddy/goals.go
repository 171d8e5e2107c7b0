package buddy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/observability"
	"sanctum/internal/platform"
)

// CreateGoal creates a goal scoped to partnershipID, per spec.md §4.E.
func (c *Core) CreateGoal(ctx context.Context, partnershipID, createdBy uuid.UUID, title, description string, targetDate time.Time) (*models.Goal, error) {
	if _, err := c.repo.GetByID(ctx, partnershipID); err != nil {
		return nil, err
	}

	g := &models.Goal{
		ID:            uuid.New(),
		PartnershipID: partnershipID,
		Title:         title,
		Description:   description,
		Status:        models.GoalInProgress,
		TargetDate:    targetDate,
		CreatedBy:     createdBy,
	}
	if err := c.repo.CreateGoal(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// AddMilestone appends an ordinal milestone to a goal.
func (c *Core) AddMilestone(ctx context.Context, goalID uuid.UUID, title string, ordinal int) (*models.Milestone, error) {
	if _, err := c.repo.GetGoal(ctx, goalID); err != nil {
		return nil, err
	}
	m := &models.Milestone{
		ID:      uuid.New(),
		GoalID:  goalID,
		Title:   title,
		Ordinal: ordinal,
	}
	if err := c.repo.CreateMilestone(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CompleteMilestone marks a milestone complete and recomputes its goal's
// progress from milestone completion, per spec.md §4.E: "Goal progress is
// derived from milestone completion when milestones exist:
// progressPct = floor(completedMilestones × 100 / totalMilestones)."
func (c *Core) CompleteMilestone(ctx context.Context, goalID, milestoneID, completedBy uuid.UUID) (*models.Milestone, error) {
	milestones, err := c.repo.ListMilestones(ctx, goalID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	var completed *models.Milestone
	total, done := len(milestones), 0
	for i := range milestones {
		m := &milestones[i]
		if m.ID == milestoneID {
			if m.CompletedAt == nil {
				m.CompletedAt = &now
				m.CompletedBy = &completedBy
				if err := c.repo.SaveMilestone(ctx, m); err != nil {
					return nil, err
				}
			}
			completed = m
		}
		if m.CompletedAt != nil {
			done++
		}
	}
	if completed == nil {
		return nil, apperrors.NewNotFound("Milestone", milestoneID)
	}

	if total > 0 {
		progress := done * 100 / total
		if err := c.setGoalProgress(ctx, goalID, progress); err != nil {
			return nil, err
		}
	}
	return completed, nil
}

// SetGoalProgress manually sets a goal's progress, per spec.md §4.E's
// monotonic rule: newProgress >= oldProgress unless allowRegression is
// set. Only valid for goals with no milestones — once milestones exist,
// progress is derived, not manually set.
func (c *Core) SetGoalProgress(ctx context.Context, goalID uuid.UUID, newProgress int, allowRegression bool) (*models.Goal, error) {
	g, err := c.repo.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if len(g.Milestones) > 0 {
		return nil, apperrors.NewValidationFailure("progress is derived from milestones for this goal")
	}
	if newProgress < 0 || newProgress > 100 {
		return nil, apperrors.NewValidationFailure("progress must be in [0, 100]")
	}
	if newProgress < g.ProgressPct && !allowRegression {
		return nil, apperrors.NewValidationFailure("progress cannot regress without allowRegression")
	}
	return g, c.setGoalProgress(ctx, goalID, newProgress)
}

// setGoalProgress applies progress to the goal, auto-completing it at
// 100%, per spec.md §4.E's "Reaching 100% auto-transitions the goal to
// COMPLETED with completedAt = now."
func (c *Core) setGoalProgress(ctx context.Context, goalID uuid.UUID, progress int) error {
	g, err := c.repo.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}

	g.ProgressPct = progress
	kind := models.DeltaGoalProgress
	if progress >= 100 {
		now := c.clock.Now()
		g.Status = models.GoalCompleted
		g.CompletedAt = &now
		kind = models.DeltaGoalCompleted
		observability.GoalsCompletedTotal.Inc()
	}
	if err := c.repo.SaveGoal(ctx, g); err != nil {
		return err
	}

	p, err := c.repo.GetByID(ctx, g.PartnershipID)
	if err != nil {
		return err
	}
	if err := c.recomputeHealthScore(ctx, p); err != nil {
		return err
	}

	_ = c.publisher.Publish(ctx, platform.DeltaEvent{
		Topic: models.TopicPartnership(g.PartnershipID),
		Type:  string(kind),
		Payload: models.GoalDeltaPayload{
			GoalID:        g.ID,
			PartnershipID: g.PartnershipID,
			ProgressPct:   g.ProgressPct,
			Status:        g.Status,
		},
		UserID: p.User1ID.String(),
	})
	return nil
}
