package models

import (
	"time"

	"github.com/google/uuid"
)

// DeltaKind distinguishes the payload shapes that travel over the
// broadcast bus's DeltaEvent envelope (platform.DeltaEvent.Type).
type DeltaKind string

const (
	DeltaPresenceJoin        DeltaKind = "PRESENCE_JOIN"
	DeltaPresenceDeviceAdded DeltaKind = "PRESENCE_DEVICE_ADDED"
	DeltaPresenceStatus      DeltaKind = "PRESENCE_STATUS"
	DeltaPresenceLeave       DeltaKind = "PRESENCE_LEAVE"
	DeltaPresenceResync      DeltaKind = "RESYNC_REQUIRED"

	DeltaTimerStarted   DeltaKind = "TIMER_STARTED"
	DeltaTimerPaused    DeltaKind = "TIMER_PAUSED"
	DeltaTimerResumed   DeltaKind = "TIMER_RESUMED"
	DeltaTimerCompleted DeltaKind = "TIMER_COMPLETED"
	DeltaTimerCancelled DeltaKind = "TIMER_CANCELLED"
	DeltaTimerExpired   DeltaKind = "TIMER_EXPIRED"

	DeltaPartnershipCreated   DeltaKind = "PARTNERSHIP_CREATED"
	DeltaPartnershipAccepted  DeltaKind = "PARTNERSHIP_ACCEPTED"
	DeltaPartnershipPaused    DeltaKind = "PARTNERSHIP_PAUSED"
	DeltaPartnershipResumed   DeltaKind = "PARTNERSHIP_RESUMED"
	DeltaPartnershipEnded     DeltaKind = "PARTNERSHIP_ENDED"

	DeltaGoalProgress  DeltaKind = "GOAL_PROGRESS"
	DeltaGoalCompleted DeltaKind = "GOAL_COMPLETED"
)

// PresenceDeltaPayload carries a presence change for one (userId, hiveId).
type PresenceDeltaPayload struct {
	UserID uuid.UUID      `json:"userId"`
	HiveID uuid.UUID      `json:"hiveId"`
	Status PresenceStatus `json:"status"`
}

// TimerDeltaPayload carries a FocusSession state transition.
type TimerDeltaPayload struct {
	SessionID uuid.UUID    `json:"sessionId"`
	HiveID    *uuid.UUID   `json:"hiveId,omitempty"`
	State     SessionState `json:"state"`
	RemainingSec int       `json:"remainingSec"`
}

// PartnershipDeltaPayload carries a Partnership lifecycle transition.
type PartnershipDeltaPayload struct {
	PartnershipID uuid.UUID         `json:"partnershipId"`
	Status        PartnershipStatus `json:"status"`
}

// GoalDeltaPayload carries a Goal progress or completion event.
type GoalDeltaPayload struct {
	GoalID        uuid.UUID  `json:"goalId"`
	PartnershipID uuid.UUID  `json:"partnershipId"`
	ProgressPct   int        `json:"progressPct"`
	Status        GoalStatus `json:"status"`
}

// TopicHive, TopicUser, and TopicPartnership format broadcast-bus topic
// descriptors per spec.md §4.F.
func TopicHive(id uuid.UUID) string        { return "hive:" + id.String() }
func TopicUser(id uuid.UUID) string        { return "user:" + id.String() }
func TopicPartnership(id uuid.UUID) string { return "partnership:" + id.String() }

// Envelope is the wire shape delivered to broadcast-bus subscribers,
// matching spec.md §6's {topic, sequenceNo, kind, payload, producedAt}.
type Envelope struct {
	Topic      string    `json:"topic"`
	SequenceNo uint64    `json:"sequenceNo"`
	Kind       DeltaKind `json:"kind"`
	Payload    any       `json:"payload"`
	ProducedAt time.Time `json:"producedAt"`
}
