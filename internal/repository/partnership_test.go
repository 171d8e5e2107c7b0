package repository

import (
	"context"
	"testing"
	"time"

	"sanctum/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartnershipRepository_Integration(t *testing.T) {
	repo := NewPartnershipRepository(testDB)
	ctx := context.Background()

	low, high := models.Pair(uuid.New(), uuid.New())
	p := &models.Partnership{
		ID:      uuid.New(),
		User1ID: low,
		User2ID: high,
		Status:  models.PartnershipPending,
	}
	require.NoError(t, repo.Create(ctx, p))

	t.Run("GetActiveByPair finds the pending partnership", func(t *testing.T) {
		found, err := repo.GetActiveByPair(ctx, low, high)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
	})

	t.Run("Save enforces optimistic concurrency", func(t *testing.T) {
		stale, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)

		current, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		current.Status = models.PartnershipActive
		require.NoError(t, repo.Save(ctx, current))

		stale.Status = models.PartnershipPaused
		err = repo.Save(ctx, stale)
		assert.Error(t, err)
	})

	t.Run("Goal and milestone progression", func(t *testing.T) {
		goal := &models.Goal{
			ID:            uuid.New(),
			PartnershipID: p.ID,
			Title:         "Ship the feature",
			TargetDate:    time.Now().Add(30 * 24 * time.Hour),
			CreatedBy:     low,
		}
		require.NoError(t, repo.CreateGoal(ctx, goal))

		m := &models.Milestone{ID: uuid.New(), GoalID: goal.ID, Title: "Design", Ordinal: 1}
		require.NoError(t, repo.CreateMilestone(ctx, m))

		got, err := repo.GetGoal(ctx, goal.ID)
		require.NoError(t, err)
		assert.Len(t, got.Milestones, 1)
	})

	t.Run("ListPendingOlderThan only returns stale PENDING rows", func(t *testing.T) {
		stalePair1, stalePair2 := models.Pair(uuid.New(), uuid.New())
		stale := &models.Partnership{
			ID:      uuid.New(),
			User1ID: stalePair1,
			User2ID: stalePair2,
			Status:  models.PartnershipPending,
		}
		require.NoError(t, repo.Create(ctx, stale))

		cutoff := time.Now().Add(1 * time.Hour).Unix()
		list, err := repo.ListPendingOlderThan(ctx, cutoff)
		require.NoError(t, err)

		found := false
		for _, row := range list {
			if row.ID == stale.ID {
				found = true
			}
		}
		assert.True(t, found)
	})
}
