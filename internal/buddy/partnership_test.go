package buddy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/platform"
)

func TestCore_Request_RejectsSelfPartnership(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(clock)
	u := uuid.New()

	_, err := core.Request(context.Background(), u, u)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailure, apperrors.CodeOf(err))
}

func TestCore_Request_RejectsDuplicatePair(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(clock)
	a, b := uuid.New(), uuid.New()

	_, err := core.Request(context.Background(), a, b)
	require.NoError(t, err)

	// Same pair, reversed argument order: spec.md §8 scenario 4.
	_, err = core.Request(context.Background(), b, a)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestCore_Request_AllowsNewPairAfterFirstEnds(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(clock)
	a, b := uuid.New(), uuid.New()

	p, err := core.Request(context.Background(), a, b)
	require.NoError(t, err)
	p, err = core.Accept(context.Background(), p.ID)
	require.NoError(t, err)
	_, err = core.End(context.Background(), p.ID, "no_longer_needed")
	require.NoError(t, err)

	_, err = core.Request(context.Background(), a, b)
	require.NoError(t, err)
}

func TestCore_Accept_IsIdempotent(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(clock)
	p, err := core.Request(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	first, err := core.Accept(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipActive, first.Status)

	second, err := core.Accept(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipActive, second.Status)
}

func TestCore_PauseResume_AreIdempotent(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(clock)
	p, err := core.Request(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	p, err = core.Accept(context.Background(), p.ID)
	require.NoError(t, err)

	paused, err := core.Pause(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipPaused, paused.Status)

	pausedAgain, err := core.Pause(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipPaused, pausedAgain.Status)

	resumed, err := core.Resume(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipActive, resumed.Status)
}

func TestCore_End_RequiresActiveOrPaused(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(clock)
	p, err := core.Request(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = core.End(context.Background(), p.ID, "whatever")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailure, apperrors.CodeOf(err))
}

func TestCore_End_ForbidsReEndingTerminalPartnership(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, _ := newTestCore(clock)
	p, err := core.Request(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	p, err = core.Accept(context.Background(), p.ID)
	require.NoError(t, err)
	p, err = core.End(context.Background(), p.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipEnded, p.Status)

	_, err = core.End(context.Background(), p.ID, "done_again")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailure, apperrors.CodeOf(err))
}

func TestCore_ExpireStalePending_ExpiresAfterTTL(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, repo := newTestCore(clock)
	p, err := core.Request(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	clock.Advance(73 * time.Hour)
	require.NoError(t, core.ExpireStalePending(context.Background()))

	final, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipEnded, final.Status)
	assert.Equal(t, "request_expired", final.EndReason)
}

func TestCore_ExpireStalePending_LeavesFreshPendingAlone(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	core, repo := newTestCore(clock)
	p, err := core.Request(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	clock.Advance(1 * time.Hour)
	require.NoError(t, core.ExpireStalePending(context.Background()))

	final, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipPending, final.Status)
}
