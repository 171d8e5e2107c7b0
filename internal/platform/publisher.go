package platform

import "context"

// DeltaEvent is the envelope the broadcast bus fans out to subscribers:
// presence changes, timer transitions, and partnership events all travel
// as one of these regardless of which core produced them.
type DeltaEvent struct {
	Topic     string
	Type      string
	Payload   any
	HiveID    string
	UserID    string
}

// DeltaPublisher abstracts "publish this event to subscribers of a topic"
// so the presence, timer, and buddy cores can emit deltas without importing
// the broadcast package directly, generalizing the teacher's notifier.go
// fan-out-to-hub pattern into a narrow seam the cores depend on.
type DeltaPublisher interface {
	Publish(ctx context.Context, event DeltaEvent) error
}

// NoopPublisher discards every event. Useful as a zero-value default in
// tests that don't care about broadcast fan-out.
type NoopPublisher struct{}

// Publish discards event and always returns nil.
func (NoopPublisher) Publish(ctx context.Context, event DeltaEvent) error { return nil }
