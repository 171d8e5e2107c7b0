package buddy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanctum/internal/models"
	"sanctum/internal/platform"
)

func TestCore_RecordCheckin_RecomputesHealthScoreInBounds(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, repo := newTestCore(clock)
	p, err := core.Request(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	p, err = core.Accept(context.Background(), p.ID)
	require.NoError(t, err)

	_, err = core.RecordCheckin(context.Background(), p.ID, p.User1ID, models.CheckinDaily, "stayed focused", models.MoodAccomplished, nil)
	require.NoError(t, err)

	final, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, final.HealthScore, 0.0)
	assert.LessOrEqual(t, final.HealthScore, 1.0)
	assert.True(t, final.LastInteractionAt.Equal(clock.Now()))
}

func TestAverageMoodScore_NeutralWithNoRecentCheckins(t *testing.T) {
	assert.Equal(t, 0.5, averageMoodScore(nil, time.Now(), moodWindow))
}

func TestAverageMoodScore_HighForAccomplishedMood(t *testing.T) {
	now := time.Now()
	checkins := []models.Checkin{{CreatedAt: now, Mood: models.MoodAccomplished}}
	assert.InDelta(t, 1.0, averageMoodScore(checkins, now, moodWindow), 0.01)
}

func TestAverageGoalProgress_IgnoresCancelledGoals(t *testing.T) {
	goals := []models.Goal{
		{ProgressPct: 100, Status: models.GoalCompleted},
		{ProgressPct: 50, Status: models.GoalCancelled},
	}
	assert.InDelta(t, 1.0, averageGoalProgress(goals), 0.01)
}

func TestClamp01_BoundsBothSides(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.5, clamp01(0.5))
}
