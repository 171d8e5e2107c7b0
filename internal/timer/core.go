// Package timer implements spec.md §4.D: the FocusSession state machine,
// wall-clock-consuming RUNNING state, idempotent scheduled expiry, the
// productivity score formula, and startup reconciliation of sessions a
// crashed process left RUNNING past their expiry. Grounded on the
// teacher's internal/service/game_service.go stale-room reconciliation
// (a scheduled sweep that completes rooms a crashed process left dangling)
// generalized from game rooms to focus sessions.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/observability"
	"sanctum/internal/platform"
	"sanctum/internal/repository"
)

// Core implements the timer operations named in spec.md §4.D.
type Core struct {
	sessions  repository.FocusSessionRepository
	scheduler platform.Scheduler
	publisher platform.DeltaPublisher
	clock     platform.Clock

	mu      sync.Mutex
	handles map[uuid.UUID]platform.TaskHandle
}

// NewCore builds a Core.
func NewCore(sessions repository.FocusSessionRepository, scheduler platform.Scheduler, publisher platform.DeltaPublisher, clock platform.Clock) *Core {
	if publisher == nil {
		publisher = platform.NoopPublisher{}
	}
	return &Core{sessions: sessions, scheduler: scheduler, publisher: publisher, clock: clock, handles: make(map[uuid.UUID]platform.TaskHandle)}
}

func scheduleKey(sessionID uuid.UUID) string {
	return "timer-expiry:" + sessionID.String()
}

// Start creates a new RUNNING FocusSession and schedules its expiry task.
func (c *Core) Start(ctx context.Context, userID uuid.UUID, hiveID *uuid.UUID, sessionType models.SessionType, plannedDurationSec int) (*models.FocusSession, error) {
	if plannedDurationSec <= 0 {
		return nil, apperrors.NewValidationFailure("plannedDurationSec must be positive")
	}

	now := c.clock.Now()
	s := &models.FocusSession{
		ID:                 uuid.New(),
		UserID:             userID,
		HiveID:             hiveID,
		Type:               sessionType,
		State:              models.SessionRunning,
		PlannedDurationSec: plannedDurationSec,
		RemainingSec:       plannedDurationSec,
		StartedAt:          now,
		ExpiresAt:          now.Add(time.Duration(plannedDurationSec) * time.Second),
	}
	if err := c.sessions.Create(ctx, s); err != nil {
		return nil, err
	}

	c.scheduleExpiry(s)
	observability.TimerSessionsActive.Inc()
	c.emit(ctx, s, models.DeltaTimerStarted)
	return s, nil
}

// Pause freezes a RUNNING session's remaining time.
func (c *Core) Pause(ctx context.Context, sessionID uuid.UUID) (*models.FocusSession, error) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.State != models.SessionRunning {
		return nil, apperrors.NewValidationFailure("session is not running")
	}

	now := c.clock.Now()
	remaining := int(s.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	s.RemainingSec = remaining
	s.PausedAt = &now
	s.PauseCount++
	s.State = models.SessionPaused

	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	c.cancelExpiry(s.ID)
	c.emit(ctx, s, models.DeltaTimerPaused)
	return s, nil
}

// Resume re-enters RUNNING from PAUSED, recomputing expiresAt from the
// remaining time.
func (c *Core) Resume(ctx context.Context, sessionID uuid.UUID) (*models.FocusSession, error) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.State != models.SessionPaused {
		return nil, apperrors.NewValidationFailure("session is not paused")
	}

	now := c.clock.Now()
	s.ExpiresAt = now.Add(time.Duration(s.RemainingSec) * time.Second)
	s.PausedAt = nil
	s.State = models.SessionRunning

	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	c.scheduleExpiry(s)
	c.emit(ctx, s, models.DeltaTimerResumed)
	return s, nil
}

// Cancel transitions a non-terminal session to CANCELLED.
func (c *Core) Cancel(ctx context.Context, sessionID uuid.UUID) (*models.FocusSession, error) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.State.IsTerminal() {
		return s, nil
	}

	s.State = models.SessionCancelled
	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	c.cancelExpiry(s.ID)
	observability.TimerSessionsActive.Dec()
	observability.TimerTransitionsTotal.WithLabelValues(string(models.SessionCancelled)).Inc()
	c.emit(ctx, s, models.DeltaTimerCancelled)
	return s, nil
}

// RecordDistraction increments a RUNNING session's distraction counter.
func (c *Core) RecordDistraction(ctx context.Context, sessionID uuid.UUID) error {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.State != models.SessionRunning {
		return apperrors.NewValidationFailure("session is not running")
	}
	s.DistractionCount++
	return c.sessions.Save(ctx, s)
}

// scheduleExpiry registers (or replaces) the expiry task for s.
func (c *Core) scheduleExpiry(s *models.FocusSession) {
	h := c.scheduler.At(scheduleKey(s.ID), s.ExpiresAt, func(ctx context.Context) {
		c.fireExpiry(ctx, s.ID)
	})
	c.mu.Lock()
	c.handles[s.ID] = h
	c.mu.Unlock()
}

func (c *Core) cancelExpiry(sessionID uuid.UUID) {
	c.mu.Lock()
	h, ok := c.handles[sessionID]
	delete(c.handles, sessionID)
	c.mu.Unlock()
	if ok {
		h.Cancel()
	}
}

// fireExpiry re-reads the session (another node may have paused or
// cancelled it in the meantime) and completes it only if it is still
// RUNNING and truly past its expiry, per spec.md §4.D's scheduling
// semantics. A duplicate firing on an already-terminal session is a no-op.
func (c *Core) fireExpiry(ctx context.Context, sessionID uuid.UUID) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return
	}
	if s.State != models.SessionRunning || s.ExpiresAt.After(c.clock.Now()) {
		return
	}
	_, _ = c.complete(ctx, s)
}

// Complete ends a RUNNING session now, regardless of whether its planned
// duration has actually elapsed — the explicit "I'm done" path named in
// spec.md §4.D, as opposed to the scheduled timeout in fireExpiry.
func (c *Core) Complete(ctx context.Context, sessionID uuid.UUID) (*models.FocusSession, error) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.State != models.SessionRunning {
		return nil, apperrors.NewValidationFailure("session is not running")
	}
	return c.complete(ctx, s)
}

// complete finishes a RUNNING session as COMPLETED or EXPIRED depending
// on whether its planned duration was reached, per spec.md §4.D. The
// session's remaining time is recomputed from the current clock rather
// than trusting the cached RemainingSec field, since that field is only
// synced at pause/resume boundaries while RUNNING.
func (c *Core) complete(ctx context.Context, s *models.FocusSession) (*models.FocusSession, error) {
	remaining := int(s.ExpiresAt.Sub(c.clock.Now()).Seconds())
	elapsedFocusSec := s.PlannedDurationSec - max0(remaining)
	baseCompletion := float64(elapsedFocusSec) / float64(s.PlannedDurationSec)

	if baseCompletion >= 1.0 {
		s.State = models.SessionCompleted
	} else {
		s.State = models.SessionExpired
	}
	s.RemainingSec = 0

	score := computeProductivityScore(elapsedFocusSec, s.PlannedDurationSec, s.DistractionCount, s.PauseCount)
	s.ProductivityScore = &score

	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	c.cancelExpiry(s.ID)
	observability.TimerSessionsActive.Dec()
	observability.TimerTransitionsTotal.WithLabelValues(string(s.State)).Inc()

	kind := models.DeltaTimerExpired
	if s.State == models.SessionCompleted {
		kind = models.DeltaTimerCompleted
	}
	c.emit(ctx, s, kind)
	return s, nil
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (c *Core) emit(ctx context.Context, s *models.FocusSession, kind models.DeltaKind) {
	topic := models.TopicUser(s.UserID)
	if s.HiveID != nil {
		topic = models.TopicHive(*s.HiveID)
	}
	_ = c.publisher.Publish(ctx, platform.DeltaEvent{
		Topic: topic,
		Type:  string(kind),
		Payload: models.TimerDeltaPayload{
			SessionID:    s.ID,
			HiveID:       s.HiveID,
			State:        s.State,
			RemainingSec: s.RemainingSec,
		},
		UserID: s.UserID.String(),
	})
}
