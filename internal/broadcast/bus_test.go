package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanctum/internal/models"
	"sanctum/internal/platform"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	bus := NewBus(nil, clock)
	topic := TopicHive(uuid.New())

	sub, cancel := bus.Subscribe(topic)
	defer cancel()

	env := bus.Publish(context.Background(), topic, models.DeltaPresenceJoin, models.PresenceDeltaPayload{})
	assert.Equal(t, uint64(1), env.SequenceNo)

	select {
	case got := <-sub.Queue:
		assert.Equal(t, env.SequenceNo, got.SequenceNo)
	default:
		t.Fatal("expected a delivered envelope")
	}
}

func TestBus_SequenceNumbersIncreasePerTopic(t *testing.T) {
	bus := NewBus(nil, platform.NewFakeClock(time.Now()))
	topic := TopicHive(uuid.New())
	sub, cancel := bus.Subscribe(topic)
	defer cancel()

	for i := 0; i < 3; i++ {
		bus.Publish(context.Background(), topic, models.DeltaPresenceStatus, nil)
	}

	var last uint64
	for i := 0; i < 3; i++ {
		env := <-sub.Queue
		require.Greater(t, env.SequenceNo, last)
		last = env.SequenceNo
	}
}

func TestBus_OverflowAppendsResyncMarker(t *testing.T) {
	bus := NewBus(nil, platform.NewFakeClock(time.Now()))
	topic := TopicHive(uuid.New())
	sub, cancel := bus.Subscribe(topic)
	defer cancel()

	for i := 0; i < DefaultQueueSize+5; i++ {
		bus.Publish(context.Background(), topic, models.DeltaPresenceStatus, nil)
	}

	var lastKind models.DeltaKind
	for {
		select {
		case env := <-sub.Queue:
			lastKind = env.Kind
			continue
		default:
		}
		break
	}
	assert.Equal(t, models.DeltaPresenceResync, lastKind)
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus(nil, platform.NewFakeClock(time.Now()))
	topic := TopicUser(uuid.New())
	sub, cancel := bus.Subscribe(topic)
	cancel()

	bus.Publish(context.Background(), topic, models.DeltaPresenceJoin, nil)

	select {
	case <-sub.Queue:
		t.Fatal("cancelled subscriber should not receive further envelopes")
	default:
	}
}
