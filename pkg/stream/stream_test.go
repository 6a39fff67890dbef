package stream_test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prxmesh/prxcore/pkg/pool"
	"github.com/prxmesh/prxcore/pkg/stream"
)

func TestFixedReadWrite(t *testing.T) {
	in := []byte("hello")
	out := make([]byte, 5)
	s := stream.NewFixed(in, out)

	buf := make([]byte, 5)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	_, err = s.Read(buf)
	assert.ErrorIs(t, err, io.EOF)

	n, err = s.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(s.Written()))
}

func TestFixedWriteFailsWhenExhausted(t *testing.T) {
	s := stream.NewFixed(nil, make([]byte, 2))
	_, err := s.Write([]byte("abc"))
	require.Error(t, err)
}

func TestFixedResetRead(t *testing.T) {
	s := stream.NewFixed([]byte("ab"), nil)
	buf := make([]byte, 2)
	_, _ = s.Read(buf)
	assert.Equal(t, 0, s.Readable())
	require.NoError(t, s.ResetRead())
	assert.Equal(t, 2, s.Readable())
}

func TestDynamicGrowsAndReadsBack(t *testing.T) {
	p := pool.NewDynamic(8, 0, 0, 0, nil, nil, zap.NewNop())
	d, err := stream.NewDynamic(p, 8)
	require.NoError(t, err)

	_, err = d.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, d.Readable())

	buf := make([]byte, 10)
	n, err := d.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(buf[:n]))
}

func TestDynamicTakeBufferSurvivesClose(t *testing.T) {
	p := pool.NewDynamic(8, 0, 0, 0, nil, nil, nil)
	d, err := stream.NewDynamic(p, 8)
	require.NoError(t, err)
	_, _ = d.Write([]byte("data"))

	owned := d.TakeBuffer()
	require.NoError(t, d.Close())
	assert.Equal(t, "data", string(owned))
}

func TestFileReadWriteRoundTrip(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stream")
	require.NoError(t, err)
	defer f.Close()

	s := stream.NewFile(f, f)
	_, err = s.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, s.ResetRead())

	buf := make([]byte, 7)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(buf[:n]))
}
