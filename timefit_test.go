package timefit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/timefit"
)

func TestDefaultConfig(t *testing.T) {
	cfg := timefit.DefaultConfig()
	assert.Equal(t, timefit.DefaultStartField, cfg.Start.Name)
	assert.Equal(t, timefit.DefaultStopField, cfg.Stop.Name)
	assert.Equal(t, timefit.Ascending, cfg.Direction)
	assert.Equal(t, timefit.SortByStart, cfg.SortField)
	assert.Nil(t, cfg.FallbackZone)
	assert.Equal(t, timefit.DefaultRedisEndpoint, cfg.Store.Addr)
}

func TestNewTimeFitZeroDesignators(t *testing.T) {
	tf := timefit.NewTimeFit(timefit.Config{})
	res, err := tf.StreamlineTimes(
		map[string]any{"start": day(1), "stop": day(2)},
	)
	assert.NoError(t, err)
	assert.True(t, res.Equal(rangeOf(1, 2)))
}

func TestForMemoizesAccessors(t *testing.T) {
	first := timefit.For("begin", "end")
	second := timefit.For("begin", "end")
	assert.Same(t, first, second)

	other := timefit.For("begin", "finish")
	assert.NotSame(t, first, other)
}

func TestBoundNormalize(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	assert.NoError(t, err)

	cfg := timefit.DefaultConfig()
	cfg.FallbackZone = loc
	tf := timefit.NewTimeFit(cfg)

	out, err := tf.Normalize("2024-01-01T09:00:00")
	assert.NoError(t, err)
	assert.Equal(t, loc, out.Location())
	assert.True(t, out.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, loc)))
}

func TestTimeRangeOrdering(t *testing.T) {
	a := rangeOf(1, 2)
	b := rangeOf(1, 3)
	c := rangeOf(2, 3)

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
	assert.False(t, a.Before(a))
}

func TestTimeRangeOverlaps(t *testing.T) {
	assert.True(t, rangeOf(1, 3).Overlaps(rangeOf(2, 4)))
	assert.False(t, rangeOf(1, 2).Overlaps(rangeOf(2, 3)))
	assert.True(t, rangeOf(1, 4).Contains(rangeOf(2, 3)))
	assert.False(t, rangeOf(2, 3).Contains(rangeOf(1, 4)))
	assert.Equal(t, 24*time.Hour, rangeOf(1, 2).Duration())
}

func TestOcclusionsHelper(t *testing.T) {
	tl := timefit.Occlusions(rangeOf(1, 2), rangeOf(3, 4))
	assert.Len(t, tl, 2)
	assert.Equal(t, any(rangeOf(1, 2)), tl[0])
}
