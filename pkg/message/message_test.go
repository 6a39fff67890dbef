package message_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxmesh/prxcore/pkg/codec"
	"github.com/prxmesh/prxcore/pkg/message"
	"github.com/prxmesh/prxcore/pkg/perr"
	"github.com/prxmesh/prxcore/pkg/pool"
	"github.com/prxmesh/prxcore/pkg/pref"
	"github.com/prxmesh/prxcore/pkg/stream"
)

func refOf(b byte) pref.Ref {
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = b
	}
	r, err := pref.FromBytes(buf)
	if err != nil {
		panic(err)
	}
	return r
}

// S1: ping request round trip over the binary codec.
func TestPingRequestBinaryRoundTrip(t *testing.T) {
	f := message.NewFactory("t", 0, 0, 0, 0, nil, nil, nil)

	src := refOf(1)
	tgt := refOf(16)

	m, err := f.Create(message.TypePing, src, tgt)
	require.NoError(t, err)
	m.Content.PingRequest = &message.PingRequest{
		Address: message.NewInet4(net.ParseIP("10.0.0.1"), 1234),
	}

	s := stream.NewFixed(nil, make([]byte, 4096))
	var ectx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &ectx, s, false, nil))
	require.NoError(t, f.Encode(&ectx, m))
	require.NoError(t, codec.FiniCtx(&ectx, s, true))

	ds := stream.NewFixed(s.Written(), nil)
	var dctx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &dctx, ds, true, nil))
	out, err := f.Decode(&dctx)
	require.NoError(t, err)

	assert.True(t, m.SourceID.Equal(out.SourceID))
	assert.True(t, m.TargetID.Equal(out.TargetID))
	assert.Equal(t, m.Type, out.Type)
	assert.Equal(t, m.IsResponse, out.IsResponse)
	require.NotNil(t, out.Content.PingRequest)
	assert.Equal(t, "10.0.0.1:1234", out.Content.PingRequest.Address.String())
}

// S2: link response with both v4 and v6 addresses, JSON round trip.
func TestLinkResponseJSONRoundTrip(t *testing.T) {
	f := message.NewFactory("t", 0, 0, 0, 0, nil, nil, nil)
	m, err := f.Create(message.TypeLink, refOf(0), refOf(0))
	require.NoError(t, err)
	m.IsResponse = true
	m.Content.LinkResponse = &message.LinkResponse{
		LinkID:       refOf(0xAA),
		LocalAddress: message.NewInet6(net.ParseIP("::1"), 5000),
		PeerAddress:  message.NewInet4(net.ParseIP("192.168.0.2"), 5000),
	}

	s := stream.NewFixed(nil, make([]byte, 4096))
	var ectx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.JSON), &ectx, s, false, nil))
	require.NoError(t, f.Encode(&ectx, m))
	require.NoError(t, codec.FiniCtx(&ectx, s, true))

	ds := stream.NewFixed(s.Written(), nil)
	var dctx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.JSON), &dctx, ds, true, nil))
	out, err := f.Decode(&dctx)
	require.NoError(t, err)

	require.NotNil(t, out.Content.LinkResponse)
	assert.True(t, m.Content.LinkResponse.LinkID.Equal(out.Content.LinkResponse.LinkID))
	assert.Equal(t, "[::1]:5000", out.Content.LinkResponse.LocalAddress.String())
	assert.Equal(t, "192.168.0.2:5000", out.Content.LinkResponse.PeerAddress.String())
}

// S3: data message with a payload and an empty control buffer, binary
// round trip.
func TestDataMessageBinaryRoundTrip(t *testing.T) {
	f := message.NewFactory("t", 0, 0, 0, 0, nil, nil, nil)
	m, err := f.Create(message.TypeData, refOf(0), refOf(0))
	require.NoError(t, err)
	m.Content.DataMessage = &message.DataMessage{
		SequenceNumber: 42,
		SourceAddress:  message.NewInet4(net.ParseIP("10.0.0.1"), 80),
		Buffer:         []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}

	s := stream.NewFixed(nil, make([]byte, 4096))
	var ectx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &ectx, s, false, nil))
	require.NoError(t, f.Encode(&ectx, m))
	require.NoError(t, codec.FiniCtx(&ectx, s, true))

	ds := stream.NewFixed(s.Written(), nil)
	var dctx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &dctx, ds, true, nil))
	out, err := f.Decode(&dctx)
	require.NoError(t, err)
	require.NotNil(t, out.Content.DataMessage)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, out.Content.DataMessage.Buffer)
}

// S5: oversized narrow decode.
func TestNarrowingRejectsOversizedValue(t *testing.T) {
	s := stream.NewFixed(nil, make([]byte, 64))
	var ctx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &ctx, s, false, nil))
	require.NoError(t, ctx.EncTypeBegin(1))
	require.NoError(t, ctx.EncUint("v", 0x100000000))
	require.NoError(t, ctx.EncTypeEnd())

	var dctx codec.Context
	ds := stream.NewFixed(s.Written(), nil)
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &dctx, ds, true, nil))
	require.NoError(t, dctx.DecTypeBegin())
	var v uint32
	err := dctx.DecUint32("v", &v)
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrInvalidFormat)
}

// S6: protocol version mismatch is rejected and the message released.
func TestVersionMismatchRejectsAndReleases(t *testing.T) {
	f := message.NewFactory("t", 0, 0, 0, 0, nil, nil, nil)
	s := stream.NewFixed(nil, make([]byte, 4096))
	var ectx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &ectx, s, false, nil))
	require.NoError(t, ectx.EncTypeBegin(9))
	require.NoError(t, ectx.EncUint("version", uint64(99)<<24))
	require.NoError(t, ectx.EncBin("source_id", refOf(0).Bytes()))
	require.NoError(t, ectx.EncBin("proxy_id", refOf(0).Bytes()))
	require.NoError(t, ectx.EncBin("target_id", refOf(0).Bytes()))
	require.NoError(t, ectx.EncUint("seq_id", 1))
	require.NoError(t, ectx.EncInt("error_code", 0))
	require.NoError(t, ectx.EncBool("is_response", false))
	require.NoError(t, ectx.EncUint("type", uint64(message.TypePing)))
	require.NoError(t, ectx.EncObject("content", true, &codec.Context{}))
	require.NoError(t, ectx.EncTypeEnd())
	require.NoError(t, codec.FiniCtx(&ectx, s, true))

	ds := stream.NewFixed(s.Written(), nil)
	var dctx codec.Context
	require.NoError(t, codec.InitCtx(codec.ByID(codec.Binary), &dctx, ds, true, nil))
	_, err := f.Decode(&dctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrInvalidFormat)
	assert.Equal(t, 0, f.InUse())
}

func TestAsResponseSwapsAndPreservesProxyAndSeq(t *testing.T) {
	f := message.NewFactory("t", 0, 0, 0, 0, nil, nil, nil)
	m, err := f.Create(message.TypePing, refOf(1), refOf(2))
	require.NoError(t, err)
	m.ProxyID = refOf(9)
	m.Content.PingRequest = &message.PingRequest{}
	seq := m.SeqID

	m.AsResponse()

	assert.True(t, m.SourceID.Equal(refOf(2)))
	assert.True(t, m.TargetID.Equal(refOf(1)))
	assert.True(t, m.ProxyID.Equal(refOf(9)))
	assert.Equal(t, seq, m.SeqID)
	assert.True(t, m.IsResponse)
	assert.Nil(t, m.Content.PingRequest)
}

func TestCloneIsIndependent(t *testing.T) {
	f := message.NewFactory("t", 0, 0, 0, 0, nil, nil, nil)
	m, err := f.Create(message.TypeData, refOf(1), refOf(2))
	require.NoError(t, err)
	m.Content.DataMessage = &message.DataMessage{Buffer: []byte{1, 2, 3}}

	clone, err := f.Clone(m)
	require.NoError(t, err)
	require.NotSame(t, m, clone)
	assert.Equal(t, m.Content.DataMessage.Buffer, clone.Content.DataMessage.Buffer)

	message.Release(clone)
	assert.Equal(t, []byte{1, 2, 3}, m.Content.DataMessage.Buffer)
}

func TestFactoryWatermarkFiresOncePerCrossing(t *testing.T) {
	var events []pool.Direction
	cb := func(dir pool.Direction, _ any) { events = append(events, dir) }
	f := message.NewFactory("t", 0, 10, 1, 2, cb, nil, nil)

	m1, err := f.Create(message.TypePing, pref.Null, pref.Null)
	require.NoError(t, err)
	_, err = f.Create(message.TypePing, pref.Null, pref.Null)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, pool.Above, events[0])

	message.Release(m1)
	require.Len(t, events, 2)
	assert.Equal(t, pool.Below, events[1])
}
