package presence

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

type capturingPublisher struct {
	events []platform.DeltaEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event platform.DeltaEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newTestCore(t *testing.T, clock *platform.FakeClock) (*Core, *capturingPublisher, platform.Scheduler) {
	kv := platform.NewMemoryKVStoreWithClock(clock)
	sched := platform.NewRealScheduler(context.Background())
	t.Cleanup(sched.Stop)
	pub := &capturingPublisher{}
	core := NewCore(DefaultConfig(), kv, sched, pub, clock)
	return core, pub, sched
}

func TestCore_OnConnect_FirstDeviceEmitsJoin(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, pub, _ := newTestCore(t, clock)
	userID, hiveID := uuid.New(), uuid.New()

	err := core.OnConnect(context.Background(), userID, hiveID, "device-1", "conn-1", models.ClientWeb)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, string(models.DeltaPresenceJoin), pub.events[0].Type)

	roster, err := core.GetHiveRoster(context.Background(), hiveID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, models.StatusOnline, roster[0].Status)
}

func TestCore_OnConnect_SecondDeviceEmitsDeviceAdded(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, pub, _ := newTestCore(t, clock)
	userID, hiveID := uuid.New(), uuid.New()

	require.NoError(t, core.OnConnect(context.Background(), userID, hiveID, "device-1", "conn-1", models.ClientWeb))
	require.NoError(t, core.OnConnect(context.Background(), userID, hiveID, "device-2", "conn-2", models.ClientMobile))

	require.Len(t, pub.events, 2)
	assert.Equal(t, string(models.DeltaPresenceDeviceAdded), pub.events[1].Type)
}

func TestCore_OnStatusChange_RejectsDirectOffline(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _, _ := newTestCore(t, clock)
	userID, hiveID := uuid.New(), uuid.New()
	require.NoError(t, core.OnConnect(context.Background(), userID, hiveID, "d1", "c1", models.ClientWeb))

	err := core.OnStatusChange(context.Background(), userID, hiveID, models.StatusOffline)
	assert.Error(t, err)
}

func TestCore_OnStatusChange_AllowsFocusing(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, pub, _ := newTestCore(t, clock)
	userID, hiveID := uuid.New(), uuid.New()
	require.NoError(t, core.OnConnect(context.Background(), userID, hiveID, "d1", "c1", models.ClientWeb))

	require.NoError(t, core.OnStatusChange(context.Background(), userID, hiveID, models.StatusFocusing))
	assert.Equal(t, string(models.DeltaPresenceStatus), pub.events[len(pub.events)-1].Type)
}

func TestCore_OnHeartbeat_RefreshesLastHeartbeat(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _, _ := newTestCore(t, clock)
	userID, hiveID := uuid.New(), uuid.New()
	require.NoError(t, core.OnConnect(context.Background(), userID, hiveID, "d1", "c1", models.ClientWeb))

	clock.Advance(10 * time.Second)
	require.NoError(t, core.OnHeartbeat(context.Background(), "c1"))

	roster, err := core.GetHiveRoster(context.Background(), hiveID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.True(t, roster[0].LastHeartbeat.Equal(clock.Now()))
}

func TestCore_OnDisconnect_LastDeviceEventuallyLeaves(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, pub, _ := newTestCore(t, clock)
	userID, hiveID := uuid.New(), uuid.New()
	require.NoError(t, core.OnConnect(context.Background(), userID, hiveID, "d1", "c1", models.ClientWeb))

	require.NoError(t, core.OnDisconnect(context.Background(), "c1"))

	// OnDisconnect only schedules the grace-period check; finalize it
	// directly rather than depending on wall-clock timers in this test.
	core.finalizeDisconnect(context.Background(), hiveID, userID)

	require.GreaterOrEqual(t, len(pub.events), 2)
	assert.Equal(t, string(models.DeltaPresenceLeave), pub.events[len(pub.events)-1].Type)

	roster, err := core.GetHiveRoster(context.Background(), hiveID)
	require.NoError(t, err)
	assert.Len(t, roster, 0)
}

func TestCore_StaleSweep_RemovesExpiredDevice(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _, _ := newTestCore(t, clock)
	userID, hiveID := uuid.New(), uuid.New()
	require.NoError(t, core.OnConnect(context.Background(), userID, hiveID, "d1", "c1", models.ClientWeb))

	clock.Advance(2 * time.Minute)
	core.StaleSweep(context.Background())

	// Once the last device is swept, StaleSweep only schedules the
	// grace-period check; finalize it directly as the disconnect test does.
	core.finalizeDisconnect(context.Background(), hiveID, userID)

	roster, err := core.GetHiveRoster(context.Background(), hiveID)
	require.NoError(t, err)
	assert.Len(t, roster, 0)
}
