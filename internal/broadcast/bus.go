package broadcast

import (
	"context"
	"sync"
	"time"

	"sanctum/internal/models"
	"sanctum/internal/observability"
	"sanctum/internal/platform"
)

// DefaultQueueSize is the default bound on a subscriber's pending-envelope
// queue, per spec.md §4.F.
const DefaultQueueSize = 256

// Subscriber receives delivered envelopes on Queue. When the queue is full,
// the oldest entry is dropped and a RESYNC_REQUIRED marker envelope is
// appended in place of the incoming one; while that marker is still the
// newest queued entry, further envelopes are discarded. The marker tells
// the subscriber to fall back to an authoritative read (e.g.
// getHiveRoster) instead of trusting the stream.
type Subscriber struct {
	Queue chan models.Envelope

	bus     *Bus
	topic   string
	id      uint64
	mu      sync.Mutex
	dropped bool
}

// Cancel unregisters the subscriber from its topic.
func (s *Subscriber) Cancel() {
	s.bus.unsubscribe(s.topic, s.id)
}

func (s *Subscriber) deliver(env models.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.Queue <- env:
		s.dropped = false
		return
	default:
	}

	observability.BroadcastBackpressureDrops.WithLabelValues(s.topic, "queue_full").Inc()
	if s.dropped {
		return
	}
	select {
	case <-s.Queue:
	default:
	}

	marker := models.Envelope{Topic: s.topic, Kind: models.DeltaPresenceResync, ProducedAt: env.ProducedAt}
	select {
	case s.Queue <- marker:
		s.dropped = true
	default:
	}
}

type topicState struct {
	mu          sync.Mutex
	seq         uint64
	subscribers map[uint64]*Subscriber
}

// Bus is a single-process broker over bounded per-subscriber queues, with
// an optional platform.DeltaPublisher mirroring each publish to a
// cross-node channel for multi-instance fanout per spec.md §4.F.
type Bus struct {
	mu        sync.RWMutex
	topics    map[string]*topicState
	nextSubID uint64
	publisher platform.DeltaPublisher
	clock     platform.Clock
}

// NewBus constructs a Bus. A nil publisher defaults to platform.NoopPublisher{}.
func NewBus(publisher platform.DeltaPublisher, clock platform.Clock) *Bus {
	if publisher == nil {
		publisher = platform.NoopPublisher{}
	}
	return &Bus{topics: make(map[string]*topicState), publisher: publisher, clock: clock}
}

func (b *Bus) topicState(topic string) *topicState {
	b.mu.RLock()
	ts, ok := b.topics[topic]
	b.mu.RUnlock()
	if ok {
		return ts
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if ts, ok := b.topics[topic]; ok {
		return ts
	}
	ts = &topicState{subscribers: make(map[uint64]*Subscriber)}
	b.topics[topic] = ts
	return ts
}

// Subscribe registers a new Subscriber on topic with a bounded queue and
// returns it plus a cancel function.
func (b *Bus) Subscribe(topic string) (*Subscriber, func()) {
	ts := b.topicState(topic)

	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.mu.Unlock()

	sub := &Subscriber{Queue: make(chan models.Envelope, DefaultQueueSize), bus: b, topic: topic, id: id}

	ts.mu.Lock()
	ts.subscribers[id] = sub
	ts.mu.Unlock()

	return sub, sub.Cancel
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.RLock()
	ts, ok := b.topics[topic]
	b.mu.RUnlock()
	if !ok {
		return
	}
	ts.mu.Lock()
	delete(ts.subscribers, id)
	ts.mu.Unlock()
}

// Publish assigns the next per-topic sequence number to (kind, payload)
// and delivers the resulting envelope to every current local subscriber,
// then mirrors it via the configured DeltaPublisher for other nodes.
func (b *Bus) Publish(ctx context.Context, topic string, kind models.DeltaKind, payload any) models.Envelope {
	ts := b.topicState(topic)

	ts.mu.Lock()
	ts.seq++
	seq := ts.seq
	subs := make([]*Subscriber, 0, len(ts.subscribers))
	for _, s := range ts.subscribers {
		subs = append(subs, s)
	}
	ts.mu.Unlock()

	env := models.Envelope{
		Topic:      topic,
		SequenceNo: seq,
		Kind:       kind,
		Payload:    payload,
		ProducedAt: b.now(),
	}

	observability.BroadcastEventsTotal.WithLabelValues(string(kind)).Inc()
	for _, s := range subs {
		s.deliver(env)
	}

	_ = b.publisher.Publish(ctx, platform.DeltaEvent{Topic: topic, Type: string(kind), Payload: payload})

	return env
}

func (b *Bus) now() time.Time {
	if b.clock != nil {
		return b.clock.Now()
	}
	return time.Now()
}

// AsPublisher adapts Bus to platform.DeltaPublisher, so presence, timer, and
// buddy cores can be wired to publish through the bus without importing it
// directly, keeping the dependency direction the same as the teacher's
// notifier.go fan-out-to-hub call (service layer calls notifier, never the
// reverse).
func (b *Bus) AsPublisher() platform.DeltaPublisher {
	return busPublisher{bus: b}
}

type busPublisher struct {
	bus *Bus
}

func (p busPublisher) Publish(ctx context.Context, event platform.DeltaEvent) error {
	p.bus.Publish(ctx, event.Topic, models.DeltaKind(event.Type), event.Payload)
	return nil
}
