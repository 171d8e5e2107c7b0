package buddy

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"sanctum/internal/models"
)

// dayKey truncates t to a calendar day in loc, used as the unit streak math
// operates over for DAILY check-ins.
func dayKey(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// isoWeekKey truncates t to its ISO year/week in loc, the unit WEEKLY
// streaks operate over.
func isoWeekKey(t time.Time, loc *time.Location) (int, int) {
	return t.In(loc).ISOWeek()
}

// checkinDaysSet returns the distinct calendar days (in loc) on which a
// DAILY check-in exists for (partnershipID, userID), sorted ascending.
func checkinDaysSet(checkins []models.Checkin, userID uuid.UUID, loc *time.Location) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, c := range checkins {
		if c.UserID != userID || c.Kind != models.CheckinDaily {
			continue
		}
		seen[dayKey(c.CreatedAt, loc)] = struct{}{}
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// checkinWeeksSet returns the distinct ISO (year, week) pairs on which a
// WEEKLY check-in exists for (partnershipID, userID).
func checkinWeeksSet(checkins []models.Checkin, userID uuid.UUID, loc *time.Location) [][2]int {
	seen := make(map[[2]int]struct{})
	for _, c := range checkins {
		if c.UserID != userID || c.Kind != models.CheckinWeekly {
			continue
		}
		y, w := isoWeekKey(c.CreatedAt, loc)
		seen[[2]int{y, w}] = struct{}{}
	}
	weeks := make([][2]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i][0] != weeks[j][0] {
			return weeks[i][0] < weeks[j][0]
		}
		return weeks[i][1] < weeks[j][1]
	})
	return weeks
}

// CurrentDailyStreak implements spec.md §4.E: the length of the maximal
// consecutive-day run of DAILY check-ins ending at asOf.
func CurrentDailyStreak(checkins []models.Checkin, userID uuid.UUID, asOf time.Time, loc *time.Location) int {
	days := checkinDaysSet(checkins, userID, loc)
	if len(days) == 0 {
		return 0
	}
	present := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		present[d] = struct{}{}
	}

	streak := 0
	cursor := dayKey(asOf, loc)
	for {
		if _, ok := present[cursor]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// CurrentWeeklyStreak is CurrentDailyStreak's ISO-week analogue.
func CurrentWeeklyStreak(checkins []models.Checkin, userID uuid.UUID, asOf time.Time, loc *time.Location) int {
	weeks := checkinWeeksSet(checkins, userID, loc)
	if len(weeks) == 0 {
		return 0
	}
	present := make(map[[2]int]struct{}, len(weeks))
	for _, w := range weeks {
		present[w] = struct{}{}
	}

	streak := 0
	cursor := asOf
	for {
		y, w := isoWeekKey(cursor, loc)
		if _, ok := present[[2]int{y, w}]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
	return streak
}

// LongestDailyStreak is the maximal run over all of history, not just the
// run ending at asOf, per spec.md §4.E.
func LongestDailyStreak(checkins []models.Checkin, userID uuid.UUID, loc *time.Location) int {
	days := checkinDaysSet(checkins, userID, loc)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// MissedDays implements spec.md §4.E:
// (to − from).days + 1 − distinct days with a DAILY check-in in [from, to].
func MissedDays(checkins []models.Checkin, userID uuid.UUID, from, to time.Time, loc *time.Location) int {
	from, to = dayKey(from, loc), dayKey(to, loc)
	totalDays := int(to.Sub(from).Hours()/24) + 1

	distinct := 0
	for _, d := range checkinDaysSet(checkins, userID, loc) {
		if !d.Before(from) && !d.After(to) {
			distinct++
		}
	}
	missed := totalDays - distinct
	if missed < 0 {
		return 0
	}
	return missed
}

// CompletionRate is the number of distinct check-in days within
// [activeSince, asOf] divided by partnership-active days, per spec.md
// §4.E, reported in [0, 1].
func CompletionRate(checkins []models.Checkin, userID uuid.UUID, activeSince, asOf time.Time, loc *time.Location) float64 {
	from, to := dayKey(activeSince, loc), dayKey(asOf, loc)
	activeDays := int(to.Sub(from).Hours()/24) + 1
	if activeDays <= 0 {
		return 0
	}
	distinct := 0
	for _, d := range checkinDaysSet(checkins, userID, loc) {
		if !d.Before(from) && !d.After(to) {
			distinct++
		}
	}
	rate := float64(distinct) / float64(activeDays)
	if rate > 1 {
		return 1
	}
	return rate
}

// StreakSnapshot bundles the streak/completion figures computed for one
// (partnership, user) pair, as returned by Core.Streaks.
type StreakSnapshot struct {
	CurrentDaily   int
	CurrentWeekly  int
	LongestDaily   int
	MissedDays     int
	CompletionRate float64
}

// Streaks computes the full StreakSnapshot for (partnershipID, userID) as
// of asOf, in loc (the partnership's timezone, per spec.md §4.E).
func (c *Core) Streaks(ctx context.Context, partnershipID, userID uuid.UUID, asOf time.Time, loc *time.Location) (StreakSnapshot, error) {
	p, err := c.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return StreakSnapshot{}, err
	}
	checkins, err := c.repo.ListCheckins(ctx, partnershipID, userID)
	if err != nil {
		return StreakSnapshot{}, err
	}

	activeSince := p.CreatedAt
	if p.StartedAt != nil {
		activeSince = *p.StartedAt
	}

	return StreakSnapshot{
		CurrentDaily:   CurrentDailyStreak(checkins, userID, asOf, loc),
		CurrentWeekly:  CurrentWeeklyStreak(checkins, userID, asOf, loc),
		LongestDaily:   LongestDailyStreak(checkins, userID, loc),
		MissedDays:     MissedDays(checkins, userID, activeSince, asOf, loc),
		CompletionRate: CompletionRate(checkins, userID, activeSince, asOf, loc),
	}, nil
}

// RecordCheckin persists a Checkin, bumps the partnership's
// LastInteractionAt, and recomputes its health score (spec.md §4.E:
// "recomputed on each check-in"). Grounded on the repository.PartnershipRepository
// contract and friend_service.go's pattern of a thin persistence call
// followed by a derived side-effect.
func (c *Core) RecordCheckin(ctx context.Context, partnershipID, userID uuid.UUID, kind models.CheckinKind, content string, mood models.Mood, productivityRating *int) (*models.Checkin, error) {
	p, err := c.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return nil, err
	}

	checkin := &models.Checkin{
		ID:                 uuid.New(),
		PartnershipID:      partnershipID,
		UserID:             userID,
		Kind:               kind,
		Content:            content,
		Mood:               mood,
		ProductivityRating: productivityRating,
	}
	if err := c.repo.CreateCheckin(ctx, checkin); err != nil {
		return nil, err
	}

	p.LastInteractionAt = c.clock.Now()
	if err := c.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	if err := c.recomputeHealthScore(ctx, p); err != nil {
		return nil, err
	}
	return checkin, nil
}
