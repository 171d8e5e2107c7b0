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

func TestFocusSessionRepository_Integration(t *testing.T) {
	repo := NewFocusSessionRepository(testDB)
	ctx := context.Background()

	userID := uuid.New()
	s := &models.FocusSession{
		ID:                 uuid.New(),
		UserID:             userID,
		Type:               models.SessionIndividual,
		State:              models.SessionRunning,
		PlannedDurationSec: 1500,
		RemainingSec:       1500,
		StartedAt:          time.Now(),
		ExpiresAt:          time.Now().Add(25 * time.Minute),
	}
	require.NoError(t, repo.Create(ctx, s))

	t.Run("Save enforces optimistic concurrency", func(t *testing.T) {
		stale, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)

		current, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		current.State = models.SessionPaused
		require.NoError(t, repo.Save(ctx, current))

		stale.State = models.SessionCompleted
		assert.Error(t, repo.Save(ctx, stale))
	})

	t.Run("ListRunningExpiringBefore excludes non-RUNNING sessions", func(t *testing.T) {
		list, err := repo.ListRunningExpiringBefore(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		for _, row := range list {
			assert.NotEqual(t, s.ID, row.ID)
		}
	})

	t.Run("ListByUser returns the session", func(t *testing.T) {
		list, err := repo.ListByUser(ctx, userID, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, list)
	})
}

func TestTimerTemplateRepository_Integration(t *testing.T) {
	repo := NewTimerTemplateRepository(testDB)
	ctx := context.Background()

	owner := uuid.New()
	tmpl := &models.TimerTemplate{
		ID:            uuid.New(),
		OwnerUserID:   &owner,
		Name:          "Deep Work 50/10",
		FocusSec:      3000,
		ShortBreakSec: 600,
		LongBreakSec:  1800,
		Cycles:        4,
	}
	require.NoError(t, repo.Create(ctx, tmpl))

	found, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, tmpl.ID, found[0].ID)
}
