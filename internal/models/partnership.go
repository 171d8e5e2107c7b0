package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnershipStatus is the accountability-partnership lifecycle state.
// ENDED is terminal.
type PartnershipStatus string

const (
	PartnershipPending PartnershipStatus = "PENDING"
	PartnershipActive  PartnershipStatus = "ACTIVE"
	PartnershipPaused  PartnershipStatus = "PAUSED"
	PartnershipEnded   PartnershipStatus = "ENDED"
)

// Partnership pairs two users for mutual accountability. Invariants:
// User1ID != User2ID; at most one non-ENDED partnership exists for an
// unordered pair (enforced at the store level by the partial unique index
// uq_partnership_active_pair, see internal/database/migrations and
// internal/database/schema.go's AutoMigrate path — GORM's uniqueIndex tag
// cannot express the "WHERE status <> ENDED" condition scenario 4 needs);
// the ENDED transition requires EndedAt and EndReason.
type Partnership struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User1ID uuid.UUID `gorm:"type:uuid;not null;index:idx_partnership_pair" json:"user1Id"`
	User2ID uuid.UUID `gorm:"type:uuid;not null;index:idx_partnership_pair" json:"user2Id"`

	Status PartnershipStatus `gorm:"size:16;not null;index" json:"status"`

	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	EndReason string     `gorm:"size:64" json:"endReason,omitempty"`

	DurationDays        int     `gorm:"not null;default:0" json:"durationDays"`
	CompatibilityScore   float64 `gorm:"not null;default:0" json:"compatibilityScore"`
	HealthScore          float64 `gorm:"not null;default:0" json:"healthScore"`
	LastInteractionAt    time.Time `json:"lastInteractionAt"`

	// Version guards optimistic concurrency control per spec.md §4.E/§5.
	Version int `gorm:"not null;default:0" json:"version"`
}

// Pair returns the two user ids in a deterministic order, so an unordered
// lookup can be normalized to a single canonical key regardless of the
// order the caller supplied them in.
func Pair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}

// CheckinKind classifies a Checkin.
type CheckinKind string

const (
	CheckinDaily     CheckinKind = "DAILY"
	CheckinWeekly    CheckinKind = "WEEKLY"
	CheckinMilestone CheckinKind = "MILESTONE"
)

// Mood is the self-reported emotional state attached to a Checkin.
type Mood string

const (
	MoodMotivated   Mood = "MOTIVATED"
	MoodFocused     Mood = "FOCUSED"
	MoodStressed    Mood = "STRESSED"
	MoodTired       Mood = "TIRED"
	MoodExcited     Mood = "EXCITED"
	MoodNeutral     Mood = "NEUTRAL"
	MoodFrustrated  Mood = "FRUSTRATED"
	MoodAccomplished Mood = "ACCOMPLISHED"
)

// moodScores maps each Mood to its derived emotional score in [1, 10].
var moodScores = map[Mood]int{
	MoodAccomplished: 10,
	MoodExcited:      9,
	MoodMotivated:    8,
	MoodFocused:      7,
	MoodNeutral:      5,
	MoodTired:        4,
	MoodStressed:     3,
	MoodFrustrated:   2,
}

// Score returns the derived emotional score in [1, 10] for the mood.
// Unknown moods score neutral (5).
func (m Mood) Score() int {
	if s, ok := moodScores[m]; ok {
		return s
	}
	return 5
}

// Negative reports whether the mood counts as a negative-affect signal,
// consulted by the health-score calculation's mood term.
func (m Mood) Negative() bool {
	switch m {
	case MoodStressed, MoodTired, MoodFrustrated:
		return true
	default:
		return false
	}
}

// Checkin is a partnership accountability entry logged by one user.
type Checkin struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	PartnershipID uuid.UUID `gorm:"type:uuid;not null;index" json:"partnershipId"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Kind          CheckinKind `gorm:"size:16;not null" json:"kind"`
	Content       string    `gorm:"type:text" json:"content"`
	Mood          Mood      `gorm:"size:16;not null" json:"mood"`
	ProductivityRating *int `json:"productivityRating,omitempty"`
}

// GoalStatus is the lifecycle state of a Goal.
type GoalStatus string

const (
	GoalInProgress GoalStatus = "IN_PROGRESS"
	GoalCompleted  GoalStatus = "COMPLETED"
	GoalPaused     GoalStatus = "PAUSED"
	GoalCancelled  GoalStatus = "CANCELLED"
)

// Goal is a partnership-scoped objective. Invariant:
// Status == COMPLETED iff ProgressPct == 100 && CompletedAt != nil.
type Goal struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	PartnershipID uuid.UUID  `gorm:"type:uuid;not null;index" json:"partnershipId"`
	Title         string     `gorm:"size:256;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	ProgressPct   int        `gorm:"not null;default:0" json:"progressPct"`
	Status        GoalStatus `gorm:"size:16;not null;default:IN_PROGRESS" json:"status"`
	TargetDate    time.Time  `json:"targetDate"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`

	Milestones []Milestone `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE" json:"-"`
}

// Milestone is an ordered sub-step of a Goal; it cascades on goal deletion.
type Milestone struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"goalId"`
	Title       string     `gorm:"size:256;not null" json:"title"`
	TargetDate  time.Time  `json:"targetDate"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CompletedBy *uuid.UUID `gorm:"type:uuid" json:"completedBy,omitempty"`
	Ordinal     int        `gorm:"not null" json:"ordinal"`
}

// AccountabilityScore is derived per (PartnershipID, UserID); it is never
// persisted directly, only recomputed on demand from checkins/milestones.
type AccountabilityScore struct {
	PartnershipID        uuid.UUID `json:"partnershipId"`
	UserID               uuid.UUID `json:"userId"`
	CheckinCompletionRate float64  `json:"checkinCompletionRate"`
	CurrentStreak        int       `json:"currentStreak"`
	MilestonesCompleted  int       `json:"milestonesCompleted"`
}
