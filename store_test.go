package timefit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/kode4food/timefit"
)

func newTestStore(t *testing.T) *timefit.Store {
	t.Helper()

	server, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(server.Close)

	cfg := timefit.DefaultConfig()
	cfg.Store.Addr = server.Addr()

	tf := timefit.NewTimeFit(cfg)
	store, err := tf.NewStore(cfg.Store)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestClaimAndConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 2)))
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(2, 3)))

	err := store.Claim(ctx, "room-1", rangeOf(1, 3))
	var claimed *timefit.RangeClaimedError
	assert.ErrorAs(t, err, &claimed)
	assert.Equal(t, "room-1", claimed.Timeline)
	assert.True(t, claimed.Wanted.Equal(rangeOf(1, 3)))

	// other timelines are unaffected
	assert.NoError(t, store.Claim(ctx, "room-2", rangeOf(1, 3)))
}

func TestClaimEmptyRange(t *testing.T) {
	store := newTestStore(t)
	err := store.Claim(context.Background(), "room-1", rangeOf(2, 1))
	assert.ErrorIs(t, err, timefit.ErrEmptyRange)
}

func TestBetween(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 2)))
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(3, 4)))
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(8, 9)))

	pairs, err := store.Between(ctx, "room-1", rangeOf(2, 5))
	assert.NoError(t, err)
	assert.Len(t, pairs, 1)
	assert.True(t, pairs[0][0].Equal(day(3)))
	assert.True(t, pairs[0][1].Equal(day(4)))
}

func TestPlace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 2)))
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(2, 3)))

	ev := map[string]any{"start": day(1), "stop": day(4)}
	fitted, err := store.Place(ctx, "room-1", ev)
	assert.NoError(t, err)
	assert.True(t, fitted.Equal(rangeOf(3, 4)))

	count, err := store.Len(ctx, "room-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPlaceNoRoom(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 4)))

	ev := map[string]any{"start": day(1), "stop": day(4)}
	_, err := store.Place(ctx, "room-1", ev)
	assert.ErrorIs(t, err, timefit.ErrNoRoom)
}

func TestPlaceWithOcclusions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ev := map[string]any{"start": day(1), "stop": day(4)}
	fitted, err := store.Place(
		ctx, "room-1", ev, timefit.Occlusions(rangeOf(1, 2)),
	)
	assert.NoError(t, err)
	assert.True(t, fitted.Equal(rangeOf(2, 4)))
}

func TestReleaseAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 2)))
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(3, 4)))

	assert.NoError(t, store.Release(ctx, "room-1", rangeOf(1, 2)))
	count, err := store.Len(ctx, "room-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// the released span can be claimed again
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 2)))

	assert.NoError(t, store.Clear(ctx, "room-1"))
	count, err = store.Len(ctx, "room-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestClaimAsync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.True(t, store.ClaimAsync("room-1", rangeOf(1, 2)))

	assert.Eventually(t, func() bool {
		count, err := store.Len(ctx, "room-1")
		return err == nil && count == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOccupantsFeedFitter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 2)))
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(2, 3)))

	occupants, err := store.Occupants(ctx, "room-1", rangeOf(1, 10))
	assert.NoError(t, err)
	assert.Len(t, occupants, 2)

	res, err := timefit.StreamlineTimes(
		map[string]any{"start": day(1), "stop": day(4)}, occupants,
	)
	assert.NoError(t, err)
	assert.True(t, res.Equal(rangeOf(3, 4)))
}
