package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionType distinguishes a solo timer from one shared across a Hive.
type SessionType string

const (
	SessionIndividual SessionType = "INDIVIDUAL"
	SessionHiveShared SessionType = "HIVE_SHARED"
)

// SessionState is the FocusSession lifecycle state. COMPLETED, CANCELLED,
// and EXPIRED are terminal: no further transitions are valid from them.
type SessionState string

const (
	SessionRunning   SessionState = "RUNNING"
	SessionPaused    SessionState = "PAUSED"
	SessionCompleted SessionState = "COMPLETED"
	SessionCancelled SessionState = "CANCELLED"
	SessionExpired   SessionState = "EXPIRED"
)

// IsTerminal reports whether s admits no further transitions.
func (s SessionState) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionCancelled, SessionExpired:
		return true
	default:
		return false
	}
}

// FocusSession is one timed focus interval, solo or hive-shared.
// Invariant: RemainingSec is monotonically non-increasing while RUNNING.
type FocusSession struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	HiveID     *uuid.UUID `gorm:"type:uuid;index" json:"hiveId,omitempty"`
	TemplateID *uuid.UUID `gorm:"type:uuid" json:"templateId,omitempty"`

	Type  SessionType  `gorm:"size:16;not null" json:"type"`
	State SessionState `gorm:"size:16;not null;index" json:"state"`

	PlannedDurationSec int        `gorm:"not null" json:"plannedDurationSec"`
	RemainingSec       int        `gorm:"not null" json:"remainingSec"`
	StartedAt          time.Time  `json:"startedAt"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	ResumesAt          *time.Time `json:"resumesAt,omitempty"`
	ExpiresAt          time.Time  `gorm:"index" json:"expiresAt"`

	DistractionCount  int      `gorm:"not null;default:0" json:"distractionCount"`
	PauseCount        int      `gorm:"not null;default:0" json:"pauseCount"`
	ProductivityScore *int     `json:"productivityScore,omitempty"`

	// Version guards optimistic concurrency on concurrent pause/resume/expire races.
	Version int `gorm:"not null;default:0" json:"version"`
}

// TimerTemplate is a reusable focus/break cadence. System templates are
// immutable and shared across all users (OwnerUserID is nil).
type TimerTemplate struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID *uuid.UUID `gorm:"type:uuid;index" json:"ownerUserId,omitempty"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	FocusSec    int        `gorm:"not null" json:"focusSec"`
	ShortBreakSec int      `gorm:"not null" json:"shortBreakSec"`
	LongBreakSec  int      `gorm:"not null" json:"longBreakSec"`
	Cycles        int      `gorm:"not null;default:4" json:"cycles"`
	IsSystem      bool     `gorm:"not null;default:false" json:"isSystem"`
}
