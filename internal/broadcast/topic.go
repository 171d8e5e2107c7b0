// Package broadcast implements spec.md §4.F: a single-process topic broker
// with bounded per-subscriber queues, per-topic sequence numbers, and a
// RESYNC_REQUIRED marker on overflow. Grounded on the teacher's
// internal/notifications/hub.go (per-user connection fanout) and
// client.go (bounded Send channel + drop-on-full), generalized from
// per-user websocket fanout to per-topic delta fanout.
package broadcast

import "sanctum/internal/models"

// Topic name helpers mirroring models.TopicHive/TopicUser/TopicPartnership,
// re-exported here so callers only need to import broadcast.
var (
	TopicHive        = models.TopicHive
	TopicUser        = models.TopicUser
	TopicPartnership = models.TopicPartnership
)
