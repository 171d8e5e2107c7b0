package buddy

import (
	"context"

	"sanctum/internal/observability"
)

// ExpireStalePending implements spec.md §4.E's "PENDING auto-expires after
// 72h" rule: a scheduled sweep transitions stale PENDING partnerships to
// ENDED with reason "request_expired". Grounded on the teacher's
// game_service.go stale-room sweep idiom, generalized from game rooms to
// partnership requests.
func (c *Core) ExpireStalePending(ctx context.Context) error {
	cutoff := c.clock.Now().Add(-c.cfg.PendingTTL)
	stale, err := c.repo.ListPendingOlderThan(ctx, cutoff.Unix())
	if err != nil {
		return err
	}
	for i := range stale {
		p := stale[i]
		if _, err := c.end(ctx, &p, "request_expired"); err != nil {
			continue
		}
		observability.PartnershipPendingExpiredTotal.Inc()
	}
	return nil
}
