// Package message implements the tagged-union protocol message model
// (ping/link/setopt/getopt/open/close/data/poll), its per-variant wire
// codec, and the pooled Factory that owns Message lifetime and payload
// arenas, per spec §3/§4.2/§4.3.
package message

import (
	"sync"

	"github.com/spiral/errors"
	"go.uber.org/zap"

	"github.com/prxmesh/prxcore/pkg/codec"
	"github.com/prxmesh/prxcore/pkg/perr"
	"github.com/prxmesh/prxcore/pkg/pool"
	"github.com/prxmesh/prxcore/pkg/pref"
	"github.com/prxmesh/prxcore/pkg/stream"
)

// Message type tags. Kept in sync with the managed-layer wire
// contract; order of members in the encoded form must not change.
const (
	TypePing   uint32 = 10
	TypeLink   uint32 = 12
	TypeSetopt uint32 = 13
	TypeGetopt uint32 = 14
	TypeOpen   uint32 = 20
	TypeClose  uint32 = 21
	TypeData   uint32 = 30
	TypePoll   uint32 = 31
)

// TypeName returns a human-readable name for a type tag, or "unknown".
func TypeName(t uint32) string {
	switch t {
	case TypePing:
		return "ping"
	case TypeLink:
		return "link"
	case TypeSetopt:
		return "setopt"
	case TypeGetopt:
		return "getopt"
	case TypeOpen:
		return "open"
	case TypeClose:
		return "close"
	case TypeData:
		return "data"
	case TypePoll:
		return "poll"
	default:
		return "unknown"
	}
}

// ProtocolVersion is the core's wire protocol version; its high byte
// is the major version enforced on decode (§6). The low three bytes
// are minor.revision.patch and are logged but not enforced.
const ProtocolVersion uint32 = uint32(LinkVersion) << 24

// LinkVersion is both the protocol major version and the version byte
// carried in every LinkRequest.
const LinkVersion uint8 = 7

// --- content variants, one struct per (type, is_response) pair ---

type PingRequest struct {
	Address SocketAddress
}

type PingResponse struct {
	Address         SocketAddress
	PhysicalAddress [8]byte
	TimeMS          uint32
}

type LinkRequest struct {
	Version uint8
	Props   SocketProperties
}

type LinkResponse struct {
	LinkID       pref.Ref
	LocalAddress SocketAddress
	PeerAddress  SocketAddress
}

type SetoptRequest struct {
	Value Property
}

type GetoptRequest struct {
	OptionID uint32
}

type GetoptResponse struct {
	Value Property
}

type OpenRequest struct {
	StreamID         pref.Ref
	Encoding         int32
	Type             int32
	ConnectionString string
	Polled           bool
	MaxRecv          uint32
}

type CloseResponse struct {
	TimeOpen      uint64
	BytesSent     uint64
	BytesReceived uint64
	ErrorCode     int32
}

type DataMessage struct {
	SequenceNumber uint64
	SourceAddress  SocketAddress
	ControlBuffer  []byte
	Buffer         []byte
}

type PollMessage struct {
	SequenceNumber uint64
	Timeout        uint64
}

// Content is the sum type selected by (Type, IsResponse); exactly one
// field is non-nil for any well-formed Message, chosen by the decode
// dispatch table in codec.go.
type Content struct {
	PingRequest    *PingRequest
	PingResponse   *PingResponse
	LinkRequest    *LinkRequest
	LinkResponse   *LinkResponse
	SetoptRequest  *SetoptRequest
	GetoptRequest  *GetoptRequest
	GetoptResponse *GetoptResponse
	OpenRequest    *OpenRequest
	CloseResponse  *CloseResponse
	DataMessage    *DataMessage
	PollMessage    *PollMessage
}

// Message is the protocol envelope: addressing, sequencing, and a
// tagged-union payload, backed by a factory-owned arena for every
// binary field decoded into it.
type Message struct {
	SourceID      pref.Ref
	ProxyID       pref.Ref
	TargetID      pref.Ref
	SeqID         uint32
	ErrorCode     int32
	IsResponse    bool
	Type          uint32
	Content       Content
	CorrelationID int
	UserContext   any

	owner  *Factory
	buffer []byte
}

// AllocateBuffer grows the message's payload arena by size bytes and
// returns a slice over the newly-appended tail — the memory every
// decoded binary blob ultimately points into. Decoded strings are not
// placed here: the codecs ignore the allocator for strings. A zero size is a no-op returning nil. Unlike the original C
// implementation, a Go arena reallocation on growth never invalidates
// slices returned by earlier calls: each returned slice is an
// independent reference the garbage collector keeps alive, so
// pointers handed out before a later growth remain valid without any
// extra bookkeeping.
func (m *Message) AllocateBuffer(size int) ([]byte, error) {
	const op = errors.Op("message: allocate buffer")
	if size == 0 {
		return nil, nil
	}
	if m.owner == nil {
		return nil, errors.E(op, perr.ErrFault)
	}
	grown, tail := m.owner.arena.Grow(m.buffer, size)
	m.buffer = grown
	return tail, nil
}

// AsResponse swaps source and target, zeroes content, and marks the
// message as a response. The proxy id is untouched: it identifies the
// hop the message passed through, not either endpoint.
func (m *Message) AsResponse() {
	pref.Swap(&m.SourceID, &m.TargetID)
	m.Content = Content{}
	m.IsResponse = true
}

// Release returns m to its owning factory. Releasing nil is a no-op.
func Release(m *Message) {
	if m == nil {
		return
	}
	m.owner.release(m)
}

// Factory is a pooled allocator for Message objects: a bounded
// free-list of message slots with watermark backpressure, plus a
// shared dynamic pool backing every message's payload arena.
type Factory struct {
	mu       sync.Mutex
	name     string
	free     []*Message
	maxPool  int
	lowWM    int
	highWM   int
	cb       pool.WatermarkFunc
	cbCtx    any
	inUse    int
	aboveHWM bool
	seq      uint32

	arena *pool.Dynamic
	log   *zap.Logger
}

// NewFactory creates a message factory. initialPoolSize pre-warms the
// free list; maxPoolSize bounds outstanding messages (0 = unbounded).
func NewFactory(name string, initialPoolSize, maxPoolSize, lowWM, highWM int, cb pool.WatermarkFunc, cbCtx any, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Factory{
		name:    name,
		maxPool: maxPoolSize,
		lowWM:   lowWM,
		highWM:  highWM,
		cb:      cb,
		cbCtx:   cbCtx,
		log:     log,
	}
	f.arena = pool.NewDynamic(512, 0, 0, 0, nil, nil, log)
	for i := 0; i < initialPoolSize; i++ {
		f.free = append(f.free, &Message{})
	}
	return f
}

// Free releases every pooled resource. Outstanding messages drawn from
// the factory remain valid but must still be released individually.
func (f *Factory) Free() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = nil
	f.log.Debug("message factory freed", zap.String("name", f.name))
}

func (f *Factory) acquire() (*Message, error) {
	const op = errors.Op("message: factory acquire")
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.maxPool > 0 && f.inUse >= f.maxPool {
		return nil, errors.E(op, perr.ErrOutOfMemory)
	}
	var m *Message
	if n := len(f.free); n > 0 {
		m = f.free[n-1]
		f.free = f.free[:n-1]
		*m = Message{}
	} else {
		m = &Message{}
	}
	m.owner = f
	f.seq++
	m.SeqID = f.seq
	f.inUse++
	f.fireLocked()
	return m, nil
}

// Create builds a new request/response Message of the given type.
func (f *Factory) Create(typ uint32, source, target pref.Ref) (*Message, error) {
	const op = errors.Op("message: create")
	m, err := f.acquire()
	if err != nil {
		return nil, errors.E(op, err)
	}
	m.Type = typ
	m.SourceID = source
	m.TargetID = target
	return m, nil
}

// CreateEmpty builds a blank Message ready to be the decode target of
// DecodeMessage.
func (f *Factory) CreateEmpty() (*Message, error) {
	const op = errors.Op("message: create empty")
	m, err := f.acquire()
	if err != nil {
		return nil, errors.E(op, err)
	}
	return m, nil
}

// release returns a message's arena and slot to the factory.
func (f *Factory) release(m *Message) {
	if m.buffer != nil {
		f.arena.Release(m.buffer)
		m.buffer = nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = append(f.free, m)
	if f.inUse > 0 {
		f.inUse--
	}
	f.fireLocked()
}

func (f *Factory) fireLocked() {
	if f.cb == nil {
		return
	}
	switch {
	case !f.aboveHWM && f.highWM > 0 && f.inUse >= f.highWM:
		f.aboveHWM = true
		f.cb(pool.Above, f.cbCtx)
	case f.aboveHWM && f.inUse <= f.lowWM:
		f.aboveHWM = false
		f.cb(pool.Below, f.cbCtx)
	}
}

// InUse reports the number of currently outstanding messages.
func (f *Factory) InUse() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inUse
}

// Encode writes m as the outermost composite on ctx.
func (f *Factory) Encode(ctx *codec.Context, m *Message) error {
	return EncodeMessage(ctx, m)
}

// Decode reads a Message from ctx into a freshly-acquired empty
// message, binding the codec's default allocator to that message's
// arena so every variable-size field lands inside it. On any error
// the partially-decoded message is released before returning, leaving
// no message outstanding on the failure path.
func (f *Factory) Decode(ctx *codec.Context) (*Message, error) {
	const op = errors.Op("message: factory decode")
	m, err := f.CreateEmpty()
	if err != nil {
		return nil, errors.E(op, err)
	}
	ctx.DefaultAllocator = func(_ *codec.Context, n int) ([]byte, error) {
		return m.AllocateBuffer(n)
	}
	if err := DecodeMessage(ctx, m); err != nil {
		f.release(m)
		return nil, errors.E(op, err)
	}
	return m, nil
}

// Clone deep-copies original into a new message drawn from the same
// factory: it re-encodes the original to an in-memory binary stream
// and decodes the result into a fresh message, so the clone owns an
// entirely independent arena. Releasing the clone never affects
// original.
func (f *Factory) Clone(original *Message) (*Message, error) {
	const op = errors.Op("message: clone")
	buf := make([]byte, 0, 256)
	enc := stream.NewFixed(nil, make([]byte, 64*1024))
	var ectx codec.Context
	if err := codec.InitCtx(codec.ByID(codec.Binary), &ectx, enc, false, f.log); err != nil {
		return nil, errors.E(op, err)
	}
	if err := f.Encode(&ectx, original); err != nil {
		return nil, errors.E(op, err)
	}
	if err := codec.FiniCtx(&ectx, enc, true); err != nil {
		return nil, errors.E(op, err)
	}
	buf = append(buf, enc.Written()...)

	dec := stream.NewFixed(buf, nil)
	var dctx codec.Context
	if err := codec.InitCtx(codec.ByID(codec.Binary), &dctx, dec, true, f.log); err != nil {
		return nil, errors.E(op, err)
	}
	clone, err := f.Decode(&dctx)
	if err != nil {
		return nil, errors.E(op, err)
	}
	clone.CorrelationID = original.CorrelationID
	clone.UserContext = original.UserContext
	return clone, nil
}
