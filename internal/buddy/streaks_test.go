package buddy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"sanctum/internal/models"
)

func checkinOn(partnershipID, userID uuid.UUID, day time.Time, kind models.CheckinKind) models.Checkin {
	return models.Checkin{
		ID:            uuid.New(),
		CreatedAt:     day,
		PartnershipID: partnershipID,
		UserID:        userID,
		Kind:          kind,
		Mood:          models.MoodFocused,
	}
}

// TestStreaks_GapBreaksStreak exercises spec.md §8 scenario 3: check-ins on
// days d-4, d-3, d-1, d (missing d-2). currentDailyStreak(d) = 2,
// longestDailyStreak = 2, missedDays(d-4, d) = 1.
func TestStreaks_GapBreaksStreak(t *testing.T) {
	pid, uid := uuid.New(), uuid.New()
	d := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	checkins := []models.Checkin{
		checkinOn(pid, uid, d.AddDate(0, 0, -4), models.CheckinDaily),
		checkinOn(pid, uid, d.AddDate(0, 0, -3), models.CheckinDaily),
		checkinOn(pid, uid, d.AddDate(0, 0, -1), models.CheckinDaily),
		checkinOn(pid, uid, d, models.CheckinDaily),
	}

	assert.Equal(t, 2, CurrentDailyStreak(checkins, uid, d, time.UTC))
	assert.Equal(t, 2, LongestDailyStreak(checkins, uid, time.UTC))
	assert.Equal(t, 1, MissedDays(checkins, uid, d.AddDate(0, 0, -4), d, time.UTC))
}

func TestStreaks_CurrentDailyStreak_ZeroWithNoCheckins(t *testing.T) {
	assert.Equal(t, 0, CurrentDailyStreak(nil, uuid.New(), time.Now(), time.UTC))
}

func TestStreaks_CurrentDailyStreak_ConsecutiveRun(t *testing.T) {
	pid, uid := uuid.New(), uuid.New()
	d := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	checkins := []models.Checkin{
		checkinOn(pid, uid, d.AddDate(0, 0, -2), models.CheckinDaily),
		checkinOn(pid, uid, d.AddDate(0, 0, -1), models.CheckinDaily),
		checkinOn(pid, uid, d, models.CheckinDaily),
	}
	assert.Equal(t, 3, CurrentDailyStreak(checkins, uid, d, time.UTC))
}

func TestStreaks_CurrentDailyStreak_IsLeqLongestInvariant(t *testing.T) {
	// spec.md §8 invariant: currentDailyStreak <= longestDailyStreak always.
	pid, uid := uuid.New(), uuid.New()
	d := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	checkins := []models.Checkin{
		checkinOn(pid, uid, d.AddDate(0, 0, -10), models.CheckinDaily),
		checkinOn(pid, uid, d.AddDate(0, 0, -9), models.CheckinDaily),
		checkinOn(pid, uid, d.AddDate(0, 0, -8), models.CheckinDaily),
		checkinOn(pid, uid, d, models.CheckinDaily),
	}
	current := CurrentDailyStreak(checkins, uid, d, time.UTC)
	longest := LongestDailyStreak(checkins, uid, time.UTC)
	assert.LessOrEqual(t, current, longest)
	assert.Equal(t, 1, current)
	assert.Equal(t, 3, longest)
}

func TestStreaks_CompletionRate_ClampsToOne(t *testing.T) {
	pid, uid := uuid.New(), uuid.New()
	d := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	checkins := []models.Checkin{checkinOn(pid, uid, d, models.CheckinDaily)}
	rate := CompletionRate(checkins, uid, d, d, time.UTC)
	assert.Equal(t, 1.0, rate)
}

func TestStreaks_CurrentWeeklyStreak_ConsecutiveISOWeeks(t *testing.T) {
	pid, uid := uuid.New(), uuid.New()
	d := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	checkins := []models.Checkin{
		checkinOn(pid, uid, d.AddDate(0, 0, -14), models.CheckinWeekly),
		checkinOn(pid, uid, d.AddDate(0, 0, -7), models.CheckinWeekly),
		checkinOn(pid, uid, d, models.CheckinWeekly),
	}
	assert.Equal(t, 3, CurrentWeeklyStreak(checkins, uid, d, time.UTC))
}
