package timefit_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/timefit"
)

func newTestArchiver(t *testing.T) *timefit.BoltArchiver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	archiver, err := timefit.NewBoltArchiver(path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = archiver.Close() })
	return archiver
}

func TestBoltArchiverRoundTrip(t *testing.T) {
	archiver := newTestArchiver(t)
	ctx := context.Background()

	ranges := []timefit.TimeRange{rangeOf(1, 2), rangeOf(3, 4)}
	assert.NoError(t, archiver.Put(ctx, "room-1", ranges))

	got, err := archiver.Get(ctx, "room-1")
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, got[0].Equal(ranges[0]))
	assert.True(t, got[1].Equal(ranges[1]))

	assert.NoError(t, archiver.Delete(ctx, "room-1"))
	_, err = archiver.Get(ctx, "room-1")
	assert.ErrorIs(t, err, timefit.ErrArchiveNotFound)
}

func TestBoltArchiverMissing(t *testing.T) {
	archiver := newTestArchiver(t)
	_, err := archiver.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, timefit.ErrArchiveNotFound)
}

func TestStoreArchiveRestore(t *testing.T) {
	store := newTestStore(t)
	archiver := newTestArchiver(t)
	ctx := context.Background()

	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(1, 2)))
	assert.NoError(t, store.Claim(ctx, "room-1", rangeOf(3, 4)))

	assert.NoError(t, store.Archive(ctx, "room-1", archiver))

	count, err := store.Len(ctx, "room-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	archived, err := archiver.Get(ctx, "room-1")
	assert.NoError(t, err)
	assert.Len(t, archived, 2)

	assert.NoError(t, store.Restore(ctx, "room-1", archiver))

	count, err = store.Len(ctx, "room-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = archiver.Get(ctx, "room-1")
	assert.ErrorIs(t, err, timefit.ErrArchiveNotFound)
}
