// Package presence implements spec.md §4.C: per-(user, hive) Presence
// records backed by a distributed key-value store, with multi-device
// join/leave tracking, heartbeat-driven liveness, and a scheduled stale
// sweep. Grounded on the teacher's internal/notifications/connection_manager.go
// (Redis presence set + last-seen TTL + offline-grace timer + reaper
// loop) and hub.go (per-user connection multiplexing), generalized from
// a single online/offline bit per user to the full per-hive Presence
// record the spec requires.
package presence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/observability"
	"sanctum/internal/platform"
)

// Config tunes heartbeat staleness and disconnect grace, per spec.md §6's
// PRESENCE_HEARTBEAT_SEC/PRESENCE_STALE_SEC/PRESENCE_GRACE_SEC.
type Config struct {
	HeartbeatInterval time.Duration
	StaleAfter        time.Duration
	DisconnectGrace   time.Duration
}

// DefaultConfig matches spec.md §6's defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		StaleAfter:        60 * time.Second,
		DisconnectGrace:   30 * time.Second,
	}
}

// Core implements the presence operations named in spec.md §4.C.
type Core struct {
	cfg       Config
	kv        platform.KeyValueStore
	scheduler platform.Scheduler
	publisher platform.DeltaPublisher
	clock     platform.Clock
	locks     *keyedMutex

	// connTo maps a live connectionID to the (hiveID, userID) it belongs
	// to, so onHeartbeat/onDisconnect can be addressed by connectionID
	// alone, matching the teacher's Client/Hub addressing model.
	connTo *connIndex
}

// NewCore builds a Core. scheduler and publisher may be platform.NoopPublisher{}
// and a real scheduler respectively in production; tests can substitute fakes.
func NewCore(cfg Config, kv platform.KeyValueStore, scheduler platform.Scheduler, publisher platform.DeltaPublisher, clock platform.Clock) *Core {
	if publisher == nil {
		publisher = platform.NoopPublisher{}
	}
	return &Core{
		cfg:       cfg,
		kv:        kv,
		scheduler: scheduler,
		publisher: publisher,
		clock:     clock,
		locks:     newKeyedMutex(),
		connTo:    newConnIndex(),
	}
}

func (c *Core) recordKey(hiveID, userID uuid.UUID) string {
	return hiveID.String() + ":" + userID.String()
}

// OnConnect upserts the Presence record, attaches a new DeviceSession, and
// emits PRESENCE_JOIN (first device in the hive) or PRESENCE_DEVICE_ADDED.
func (c *Core) OnConnect(ctx context.Context, userID, hiveID uuid.UUID, deviceID, connectionID string, kind models.ClientKind) error {
	lock := c.locks.lock(c.recordKey(hiveID, userID))
	defer lock.Unlock()

	now := c.clock.Now()
	p, err := load(ctx, c.kv, hiveID, userID)
	if err != nil {
		return err
	}

	wasAbsent := p == nil
	if p == nil {
		p = &models.Presence{UserID: userID, HiveID: hiveID}
	}

	p.Status = models.StatusOnline
	p.LastHeartbeat = now
	p.Devices = append(p.Devices, models.DeviceSession{
		DeviceID:      deviceID,
		ConnectionID:  connectionID,
		ConnectedAt:   now,
		LastHeartbeat: now,
		ClientKind:    kind,
	})
	p.Version++

	if err := save(ctx, c.kv, *p); err != nil {
		return err
	}
	if err := addToRoster(ctx, c.kv, hiveID, userID); err != nil {
		return err
	}
	c.connTo.put(connectionID, hiveID, userID)

	kindDelta := models.DeltaPresenceDeviceAdded
	if wasAbsent {
		kindDelta = models.DeltaPresenceJoin
		observability.PresenceRosterSize.WithLabelValues(hiveID.String()).Inc()
	}
	observability.PresenceDevicesActive.WithLabelValues(hiveID.String()).Inc()
	c.emit(ctx, hiveID, kindDelta, *p)
	return nil
}

// OnHeartbeat refreshes lastHeartbeat on the DeviceSession and its parent
// Presence record; it emits no delta.
func (c *Core) OnHeartbeat(ctx context.Context, connectionID string) error {
	loc, ok := c.connTo.get(connectionID)
	if !ok {
		return apperrors.NewNotFound("connection", connectionID)
	}

	lock := c.locks.lock(c.recordKey(loc.hiveID, loc.userID))
	defer lock.Unlock()

	p, err := load(ctx, c.kv, loc.hiveID, loc.userID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperrors.NewNotFound("presence", loc.userID)
	}

	now := c.clock.Now()
	p.LastHeartbeat = now
	for i := range p.Devices {
		if p.Devices[i].ConnectionID == connectionID {
			p.Devices[i].LastHeartbeat = now
		}
	}
	return save(ctx, c.kv, *p)
}

// validTransition enforces spec.md §4.C's status transition rule:
// ONLINE <-> AWAY <-> FOCUSING freely; any -> OFFLINE only via
// disconnect/sweep, never via OnStatusChange directly.
func validTransition(newStatus models.PresenceStatus) bool {
	switch newStatus {
	case models.StatusOnline, models.StatusAway, models.StatusFocusing:
		return true
	default:
		return false
	}
}

// OnStatusChange updates status if the transition is permitted, emitting
// PRESENCE_STATUS.
func (c *Core) OnStatusChange(ctx context.Context, userID, hiveID uuid.UUID, newStatus models.PresenceStatus) error {
	if !validTransition(newStatus) {
		return apperrors.NewValidationFailure("status transition to " + string(newStatus) + " is not permitted directly")
	}

	lock := c.locks.lock(c.recordKey(hiveID, userID))
	defer lock.Unlock()

	p, err := load(ctx, c.kv, hiveID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperrors.NewNotFound("presence", userID)
	}

	p.Status = newStatus
	p.Version++
	if err := save(ctx, c.kv, *p); err != nil {
		return err
	}
	c.emit(ctx, hiveID, models.DeltaPresenceStatus, *p)
	return nil
}

// OnDisconnect removes the DeviceSession for connectionID. If no devices
// remain, it schedules a grace-period check rather than immediately
// marking the user offline, so a fast reconnect (e.g. a page refresh)
// doesn't emit a spurious LEAVE.
func (c *Core) OnDisconnect(ctx context.Context, connectionID string) error {
	loc, ok := c.connTo.get(connectionID)
	if !ok {
		return nil
	}
	c.connTo.delete(connectionID)

	lock := c.locks.lock(c.recordKey(loc.hiveID, loc.userID))
	p, err := load(ctx, c.kv, loc.hiveID, loc.userID)
	if err != nil {
		lock.Unlock()
		return err
	}
	if p == nil {
		lock.Unlock()
		return nil
	}

	p.RemoveDevice(connectionID)
	p.Version++
	noDevicesLeft := len(p.Devices) == 0
	if err := save(ctx, c.kv, *p); err != nil {
		lock.Unlock()
		return err
	}
	lock.Unlock()

	if !noDevicesLeft {
		return nil
	}

	c.scheduler.At(graceKey(loc.hiveID, loc.userID), c.clock.Now().Add(c.cfg.DisconnectGrace), func(taskCtx context.Context) {
		c.finalizeDisconnect(taskCtx, loc.hiveID, loc.userID)
	})
	return nil
}

func graceKey(hiveID, userID uuid.UUID) string {
	return "presence-grace:" + hiveID.String() + ":" + userID.String()
}

func (c *Core) finalizeDisconnect(ctx context.Context, hiveID, userID uuid.UUID) {
	lock := c.locks.lock(c.recordKey(hiveID, userID))
	defer lock.Unlock()

	p, err := load(ctx, c.kv, hiveID, userID)
	if err != nil || p == nil || len(p.Devices) > 0 {
		return
	}

	p.Status = models.StatusOffline
	p.Version++
	if err := save(ctx, c.kv, *p); err != nil {
		return
	}
	_ = removeFromRoster(ctx, c.kv, hiveID, userID)
	observability.PresenceRosterSize.WithLabelValues(hiveID.String()).Dec()
	c.emit(ctx, hiveID, models.DeltaPresenceLeave, *p)
}

// GetHiveRoster returns the current roster snapshot for a hive.
func (c *Core) GetHiveRoster(ctx context.Context, hiveID uuid.UUID) ([]models.Presence, error) {
	ids, err := readRoster(ctx, c.kv, hiveID)
	if err != nil {
		return nil, err
	}
	roster := make([]models.Presence, 0, len(ids))
	for _, userID := range ids {
		p, err := load(ctx, c.kv, hiveID, userID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			roster = append(roster, *p)
		}
	}
	return roster, nil
}

func (c *Core) emit(ctx context.Context, hiveID uuid.UUID, kind models.DeltaKind, p models.Presence) {
	_ = c.publisher.Publish(ctx, platform.DeltaEvent{
		Topic:   models.TopicHive(hiveID),
		Type:    string(kind),
		Payload: models.PresenceDeltaPayload{UserID: p.UserID, HiveID: p.HiveID, Status: p.Status},
		HiveID:  hiveID.String(),
		UserID:  p.UserID.String(),
	})
}
