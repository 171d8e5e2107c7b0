package buddy

import (
	"context"
	"time"

	"sanctum/internal/models"
)

// recentCompletionWindow bounds "recent" in spec.md §4.E's health-score
// completion-rate term to the same 14-day window the streak factor caps at.
const recentCompletionWindow = 14 * 24 * time.Hour

// moodWindow bounds the mood-average term to the trailing week named in
// spec.md §4.E.
const moodWindow = 7 * 24 * time.Hour

const (
	weightCompletion    = 0.4
	weightMood          = 0.2
	weightStreak        = 0.2
	weightGoalProgress  = 0.2
	streakFactorCeiling = 14.0
)

// averageMoodScore returns the mean derived emotional score (in [1, 10])
// over checkins created within window of asOf, scaled to [0, 1]. Returns
// the neutral midpoint 0.5 if no check-ins fall in the window.
func averageMoodScore(checkins []models.Checkin, asOf time.Time, window time.Duration) float64 {
	cutoff := asOf.Add(-window)
	sum, n := 0, 0
	for _, c := range checkins {
		if c.CreatedAt.Before(cutoff) || c.CreatedAt.After(asOf) {
			continue
		}
		sum += c.Mood.Score()
		n++
	}
	if n == 0 {
		return 0.5
	}
	avg := float64(sum) / float64(n)
	return (avg - 1) / 9
}

// averageGoalProgress returns the mean ProgressPct (in [0, 1]) across every
// non-cancelled goal, the proxy this implementation uses for spec.md
// §4.E's "goal-progress trend" term — recorded as an Open Question
// decision in DESIGN.md since the spec leaves the exact trend definition
// unspecified.
func averageGoalProgress(goals []models.Goal) float64 {
	sum, n := 0, 0
	for _, g := range goals {
		if g.Status == models.GoalCancelled {
			continue
		}
		sum += g.ProgressPct
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// recomputeHealthScore implements spec.md §4.E's convex combination and
// saves the updated partnership. It is invoked after every check-in and
// every goal-progress event.
func (c *Core) recomputeHealthScore(ctx context.Context, p *models.Partnership) error {
	now := c.clock.Now()
	activeSince := p.CreatedAt
	if p.StartedAt != nil {
		activeSince = *p.StartedAt
	}

	checkins1, err := c.repo.ListCheckins(ctx, p.ID, p.User1ID)
	if err != nil {
		return err
	}
	checkins2, err := c.repo.ListCheckins(ctx, p.ID, p.User2ID)
	if err != nil {
		return err
	}
	goals, err := c.repo.ListGoals(ctx, p.ID)
	if err != nil {
		return err
	}

	recentSince := now.Add(-recentCompletionWindow)
	if recentSince.Before(activeSince) {
		recentSince = activeSince
	}
	completion1 := CompletionRate(checkins1, p.User1ID, recentSince, now, time.UTC)
	completion2 := CompletionRate(checkins2, p.User2ID, recentSince, now, time.UTC)
	completionTerm := (completion1 + completion2) / 2

	allCheckins := append(append([]models.Checkin{}, checkins1...), checkins2...)
	moodTerm := averageMoodScore(allCheckins, now, moodWindow)

	streak1 := CurrentDailyStreak(checkins1, p.User1ID, now, time.UTC)
	streak2 := CurrentDailyStreak(checkins2, p.User2ID, now, time.UTC)
	avgStreak := float64(streak1+streak2) / 2
	streakTerm := avgStreak / streakFactorCeiling
	if streakTerm > 1 {
		streakTerm = 1
	}

	goalTerm := averageGoalProgress(goals)

	score := weightCompletion*completionTerm +
		weightMood*moodTerm +
		weightStreak*streakTerm +
		weightGoalProgress*goalTerm

	p.HealthScore = clamp01(score)
	return c.repo.Save(ctx, p)
}
