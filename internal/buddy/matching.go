package buddy

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	"sanctum/internal/models"
)

// MatchCandidate is the compatibility-scoring input for one prospective
// partner, per spec.md §4.E: "shared focus areas, goals, preferred focus
// times, timezone proximity, and skill level." No user-profile model
// exists elsewhere in this repository (the spec's Non-goals exclude
// profile CRUD), so matching takes this narrow, caller-supplied view of a
// candidate rather than reaching into a user-service dependency.
type MatchCandidate struct {
	UserID             uuid.UUID
	FocusAreas         []string
	Goals              []string
	PreferredFocusHour int // 0-23, local to the candidate
	TimezoneOffsetMin  int // minutes east of UTC
	SkillLevel         int // 1-5
}

// Match pairs a scored candidate with its compatibility score in [0, 1].
type Match struct {
	Candidate          MatchCandidate
	CompatibilityScore float64
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	inter, union := 0, len(set)
	for _, v := range b {
		if _, ok := set[v]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func hourProximity(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff > 12 {
		diff = 24 - diff
	}
	return 1 - float64(diff)/12
}

func timezoneProximity(a, b int) float64 {
	diffMin := a - b
	if diffMin < 0 {
		diffMin = -diffMin
	}
	const maxOffsetMin = 14 * 60
	if diffMin > maxOffsetMin {
		diffMin = maxOffsetMin
	}
	return 1 - float64(diffMin)/maxOffsetMin
}

func skillProximity(a, b int) float64 {
	diff := math.Abs(float64(a - b))
	return 1 - diff/4 // skill levels span 1-5, max diff is 4
}

// compatibilityScore weights the five dimensions spec.md §4.E names
// equally, clamped to [0, 1].
func compatibilityScore(self, candidate MatchCandidate) float64 {
	focusAreas := jaccard(self.FocusAreas, candidate.FocusAreas)
	goals := jaccard(self.Goals, candidate.Goals)
	hour := hourProximity(self.PreferredFocusHour, candidate.PreferredFocusHour)
	tz := timezoneProximity(self.TimezoneOffsetMin, candidate.TimezoneOffsetMin)
	skill := skillProximity(self.SkillLevel, candidate.SkillLevel)

	score := (focusAreas + goals + hour + tz + skill) / 5
	return clamp01(score)
}

// FindMatches implements spec.md §4.E's findMatches(userId, maxK): scores
// candidates by compatibilityScore, orders descending, and breaks ties by
// candidate id for reproducibility.
func FindMatches(self MatchCandidate, candidates []MatchCandidate, maxK int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, cand := range candidates {
		if cand.UserID == self.UserID {
			continue
		}
		matches = append(matches, Match{Candidate: cand, CompatibilityScore: compatibilityScore(self, cand)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CompatibilityScore != matches[j].CompatibilityScore {
			return matches[i].CompatibilityScore > matches[j].CompatibilityScore
		}
		return matches[i].Candidate.UserID.String() < matches[j].Candidate.UserID.String()
	})

	if maxK > 0 && len(matches) > maxK {
		matches = matches[:maxK]
	}
	return matches
}

// CandidateSource supplies the pool FindMatches draws from — a narrow seam
// so the buddy package never depends on a concrete user-directory
// implementation, consistent with spec.md §6's interface-only treatment
// of out-of-scope collaborators.
type CandidateSource interface {
	ListCandidates(ctx context.Context, excludeUserID uuid.UUID) ([]MatchCandidate, error)
}

// FindMatchesFor looks up candidates via source and delegates to
// FindMatches, excluding any user already partnered (non-ENDED) with
// userID.
func (c *Core) FindMatchesFor(ctx context.Context, self MatchCandidate, source CandidateSource, maxK int) ([]Match, error) {
	candidates, err := source.ListCandidates(ctx, self.UserID)
	if err != nil {
		return nil, err
	}

	existing, err := c.repo.ListForUser(ctx, self.UserID)
	if err != nil {
		return nil, err
	}
	partnered := make(map[uuid.UUID]struct{}, len(existing))
	for _, p := range existing {
		if p.Status == models.PartnershipEnded {
			continue
		}
		other := p.User1ID
		if other == self.UserID {
			other = p.User2ID
		}
		partnered[other] = struct{}{}
	}

	filtered := candidates[:0]
	for _, cand := range candidates {
		if _, ok := partnered[cand.UserID]; ok {
			continue
		}
		filtered = append(filtered, cand)
	}

	return FindMatches(self, filtered, maxK), nil
}
