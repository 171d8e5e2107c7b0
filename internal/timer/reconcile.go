package timer

import (
	"context"
	"time"
)

// reconcileHorizon bounds how far in the future a RUNNING session's
// expiry may sit to still be picked up by ListRunningExpiringBefore,
// which filters on "expires_at < cutoff" — there's no direct
// "all RUNNING sessions" query, so Reconcile asks for everything
// expiring within a generous horizon instead.
const reconcileHorizon = 365 * 24 * time.Hour

// Reconcile implements spec.md §4.D's startup reconciliation: any session
// whose expiresAt has already passed while still RUNNING (e.g. the
// scheduled firing was lost to a process restart) is completed
// immediately; every other still-RUNNING session has its expiry task
// rescheduled so the fresh in-memory Scheduler reflects durable state
// again. Grounded on the teacher's game_service.go stale-room
// reconciliation, which performs the same "catch up on what the crashed
// process missed" pass over persisted state at startup.
func (c *Core) Reconcile(ctx context.Context) error {
	now := c.clock.Now()
	running, err := c.sessions.ListRunningExpiringBefore(ctx, now.Add(reconcileHorizon))
	if err != nil {
		return err
	}
	for i := range running {
		s := running[i]
		if !s.ExpiresAt.After(now) {
			c.fireExpiry(ctx, s.ID)
			continue
		}
		c.scheduleExpiry(&s)
	}
	return nil
}
