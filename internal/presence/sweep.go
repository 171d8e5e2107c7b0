package presence

import (
	"context"
	"time"

	"sanctum/internal/observability"
)

const sweepTaskKey = "presence-stale-sweep"

// sweepInterval is the fixed cadence spec.md §4.C names for StaleSweep.
const sweepInterval = 10 * time.Second

// StartStaleSweep registers a recurring task that removes any
// DeviceSession whose lastHeartbeat is older than cfg.StaleAfter,
// grounded on the teacher's ConnectionManager.reaperLoop.
func (c *Core) StartStaleSweep() {
	c.scheduler.Every(sweepTaskKey, sweepInterval, func(ctx context.Context) {
		c.StaleSweep(ctx)
	})
}

// StaleSweep performs one sweep pass: any DeviceSession whose
// LastHeartbeat predates (now - StaleAfter) is dropped; a Presence record
// left with no devices follows the same grace-period-then-offline path
// as an explicit disconnect.
func (c *Core) StaleSweep(ctx context.Context) {
	now := c.clock.Now()
	cutoff := now.Add(-c.cfg.StaleAfter)

	for connectionID, loc := range c.connTo.all() {
		lock := c.locks.lock(c.recordKey(loc.hiveID, loc.userID))
		p, err := load(ctx, c.kv, loc.hiveID, loc.userID)
		if err != nil || p == nil {
			lock.Unlock()
			continue
		}

		stale := true
		for _, d := range p.Devices {
			if d.ConnectionID == connectionID && !d.LastHeartbeat.Before(cutoff) {
				stale = false
				break
			}
		}
		if !stale {
			lock.Unlock()
			continue
		}

		p.RemoveDevice(connectionID)
		p.Version++
		noDevicesLeft := len(p.Devices) == 0
		_ = save(ctx, c.kv, *p)
		lock.Unlock()

		c.connTo.delete(connectionID)
		observability.PresenceStaleSwept.WithLabelValues(loc.hiveID.String()).Inc()

		if noDevicesLeft {
			hiveID, userID := loc.hiveID, loc.userID
			c.scheduler.At(graceKey(hiveID, userID), now.Add(c.cfg.DisconnectGrace), func(taskCtx context.Context) {
				c.finalizeDisconnect(taskCtx, hiveID, userID)
			})
		}
	}
}
