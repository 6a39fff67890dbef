// Package browse implements the browse sub-protocol, a request /
// multi-response stream carried over an already-opened link, keyed by
// a session handle ref, per spec §4.4.
package browse

import (
	"unsafe"

	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/codec"
	"github.com/prxmesh/prxcore/pkg/message"
	"github.com/prxmesh/prxcore/pkg/perr"
	"github.com/prxmesh/prxcore/pkg/pref"
)

var (
	encodeRef  = message.EncodeRef
	decodeRef  = message.DecodeRef
	encodeItem = message.EncodeAddress
	decodeItem = message.DecodeAddress
	encodeProp = message.EncodeProperty
	decodeProp = message.DecodeProperty
)

// ProtocolVersion is the browse command protocol version enforced on
// decode.
const ProtocolVersion uint8 = 1

// RequestType selects what a browse request asks for.
type RequestType uint32

const (
	RequestCancel RequestType = iota
	RequestResolve
	RequestService
	RequestDirpath
	RequestIPScan
	RequestPortScan
)

// RequestFlags are request-side bit flags.
type RequestFlags uint32

const (
	FlagCacheOnly RequestFlags = 0x1
)

// ResponseFlags are combinable bitwise response-side flags.
type ResponseFlags uint32

const (
	FlagEOS         ResponseFlags = 0x1
	FlagRemoved     ResponseFlags = 0x2
	FlagAllForNow   ResponseFlags = 0x4
	FlagEmpty       ResponseFlags = 0x8
)

// Request is a single browse command, identified by Handle.
type Request struct {
	Handle  pref.Ref
	Version uint8
	Type    RequestType
	Flags   RequestFlags
	Item    message.SocketAddress
}

// Response is one reply in a browse session's response stream.
type Response struct {
	Handle    pref.Ref
	Flags     ResponseFlags
	ErrorCode int32
	Item      message.SocketAddress
	Props     []message.Property
}

// EncodeRequest writes r as the outermost composite on ctx.
func EncodeRequest(ctx *codec.Context, r *Request) error {
	const op = errors.Op("browse: encode request")
	if err := ctx.EncTypeBegin(5); err != nil {
		return errors.E(op, err)
	}
	if err := encodeRef(ctx, "handle", r.Handle); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncUint("version", uint64(r.Version)); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncUint("type", uint64(r.Type)); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncUint("flags", uint64(r.Flags)); err != nil {
		return errors.E(op, err)
	}
	if err := encodeItem(ctx, "item", r.Item); err != nil {
		return errors.E(op, err)
	}
	return ctx.EncTypeEnd()
}

// DecodeRequest reads r from ctx's outermost composite.
func DecodeRequest(ctx *codec.Context, r *Request) error {
	const op = errors.Op("browse: decode request")
	if err := ctx.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeRef(ctx, "handle", &r.Handle); err != nil {
		return errors.E(op, err)
	}
	var version uint8
	if err := ctx.DecUint8("version", &version); err != nil {
		return errors.E(op, err)
	}
	if version != ProtocolVersion {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	r.Version = version
	var typ uint32
	if err := ctx.DecUint32("type", &typ); err != nil {
		return errors.E(op, err)
	}
	r.Type = RequestType(typ)
	var flags uint32
	if err := ctx.DecUint32("flags", &flags); err != nil {
		return errors.E(op, err)
	}
	r.Flags = RequestFlags(flags)
	if err := decodeItem(ctx, "item", &r.Item); err != nil {
		return errors.E(op, err)
	}
	return ctx.DecTypeEnd()
}

// EncodeResponse writes r as the outermost composite on ctx.
func EncodeResponse(ctx *codec.Context, r *Response) error {
	const op = errors.Op("browse: encode response")
	if err := ctx.EncTypeBegin(5); err != nil {
		return errors.E(op, err)
	}
	if err := encodeRef(ctx, "handle", r.Handle); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncUint("flags", uint64(r.Flags)); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncInt("error_code", int64(r.ErrorCode)); err != nil {
		return errors.E(op, err)
	}
	if err := encodeItem(ctx, "item", r.Item); err != nil {
		return errors.E(op, err)
	}
	var arr codec.Context
	if err := ctx.EncArray("props", len(r.Props), &arr); err != nil {
		return errors.E(op, err)
	}
	for i := range r.Props {
		if err := encodeProp(&arr, "", r.Props[i]); err != nil {
			return errors.E(op, err)
		}
	}
	return ctx.EncTypeEnd()
}

// DecodeResponse reads r from ctx's outermost composite.
//
// On decode, a non-zero properties count allocates an array of
// (count+1) property slots — one more than the wire count — via the
// context's default allocator when one is bound (so the slots live in
// the owning message's arena), or the heap otherwise. The "+1" is an
// unexplained sentinel slot in the original protocol that this build
// preserves rather than second-guesses. On any per-element decode
// failure the whole array is discarded and the response rejected.
func DecodeResponse(ctx *codec.Context, r *Response) error {
	const op = errors.Op("browse: decode response")
	if err := ctx.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeRef(ctx, "handle", &r.Handle); err != nil {
		return errors.E(op, err)
	}
	var flags uint32
	if err := ctx.DecUint32("flags", &flags); err != nil {
		return errors.E(op, err)
	}
	r.Flags = ResponseFlags(flags)
	var ec int32
	if err := ctx.DecInt32("error_code", &ec); err != nil {
		return errors.E(op, err)
	}
	r.ErrorCode = ec
	if err := decodeItem(ctx, "item", &r.Item); err != nil {
		return errors.E(op, err)
	}

	var n int
	var arr codec.Context
	if err := ctx.DecArray("props", &n, &arr); err != nil {
		return errors.E(op, err)
	}
	if n > 0 {
		props, err := allocProps(ctx, n+1)
		if err != nil {
			return errors.E(op, err)
		}
		for i := 0; i < n; i++ {
			if err := decodeProp(&arr, "", &props[i]); err != nil {
				return errors.E(op, perr.ErrInvalidFormat, err)
			}
		}
		r.Props = props[:n]
	} else {
		r.Props = nil
	}
	return ctx.DecTypeEnd()
}

// allocProps reserves count property slots from ctx's bound arena
// allocator when one is set (so the slots live in the owning
// message's arena, mirroring the pattern DecBin uses for raw byte
// buffers), or from the heap otherwise.
func allocProps(ctx *codec.Context, count int) ([]message.Property, error) {
	if ctx.DefaultAllocator == nil {
		return make([]message.Property, count), nil
	}
	var zero message.Property
	buf, err := ctx.DefaultAllocator(ctx, count*int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*message.Property)(unsafe.Pointer(&buf[0])), count), nil
}
