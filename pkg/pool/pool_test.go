package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxmesh/prxcore/pkg/pool"
)

func TestFixedAllocReleaseRoundTrip(t *testing.T) {
	f := pool.NewFixed(64, 0, 4, 1, 3, nil, nil, nil)
	buf, err := f.Alloc()
	require.NoError(t, err)
	assert.Len(t, buf, 64)
	assert.Equal(t, 1, f.InUse())
	f.Release(buf)
	assert.Equal(t, 0, f.InUse())
}

func TestFixedRejectsAboveMaxPool(t *testing.T) {
	f := pool.NewFixed(8, 0, 1, 0, 1, nil, nil, nil)
	_, err := f.Alloc()
	require.NoError(t, err)
	_, err = f.Alloc()
	require.Error(t, err)
}

func TestFixedWatermarkFiresOncePerCrossing(t *testing.T) {
	var events []pool.Direction
	cb := func(dir pool.Direction, _ any) { events = append(events, dir) }
	f := pool.NewFixed(8, 0, 10, 1, 3, cb, nil, nil)

	bufs := make([][]byte, 0, 4)
	for i := 0; i < 3; i++ {
		b, err := f.Alloc()
		require.NoError(t, err)
		bufs = append(bufs, b)
	}
	require.Len(t, events, 1)
	assert.Equal(t, pool.Above, events[0])

	// Further allocation above the high watermark must not refire "Above".
	b, err := f.Alloc()
	require.NoError(t, err)
	bufs = append(bufs, b)
	require.Len(t, events, 1)

	for _, b := range bufs {
		f.Release(b)
	}
	require.Len(t, events, 2)
	assert.Equal(t, pool.Below, events[1])
}

func TestDynamicNewRoundsToIncrement(t *testing.T) {
	d := pool.NewDynamic(16, 0, 0, 0, nil, nil, nil)
	buf, err := d.New(5)
	require.NoError(t, err)
	assert.Len(t, buf, 5)
	assert.Equal(t, 16, cap(buf))
}

func TestDynamicGrowIsMonotonicAndNoopOnZero(t *testing.T) {
	d := pool.NewDynamic(8, 0, 0, 0, nil, nil, nil)
	buf, err := d.New(4)
	require.NoError(t, err)

	grown, tail := d.Grow(buf, 0)
	assert.Nil(t, tail)
	assert.Len(t, grown, 4)

	grown, tail = d.Grow(grown, 4)
	require.Len(t, grown, 8)
	require.Len(t, tail, 4)

	copy(tail, []byte{1, 2, 3, 4})
	assert.Equal(t, []byte{1, 2, 3, 4}, grown[4:8])
}

func TestDynamicRejectsAboveMaxPool(t *testing.T) {
	d := pool.NewDynamic(8, 1, 0, 0, nil, nil, nil)
	_, err := d.New(1)
	require.NoError(t, err)
	_, err = d.New(1)
	require.Error(t, err)
}
