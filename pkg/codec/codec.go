// Package codec implements the schema-driven encode/decode abstraction
// that drives both wire formats (binary MessagePack-style and
// self-describing JSON) from a single call sequence, per spec §4.1.
package codec

import (
	"go.uber.org/zap"

	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/perr"
	"github.com/prxmesh/prxcore/pkg/stream"
)

// ID identifies a concrete codec implementation.
type ID int

const (
	// Auto resolves to Binary; it is also the value for unknown ids.
	Auto ID = iota
	Binary
	JSON
)

// Allocator routes variable-size decode allocations to caller-owned
// memory (typically a Message's payload arena). It must return a
// slice with len == desired.
type Allocator func(ctx *Context, desired int) ([]byte, error)

// Codec is the interface every wire-format implementation satisfies.
// Every method returns a Go error in place of the C interface's
// int32_t status; the first non-nil error aborts the enclosing type
// without leaking (callers are expected to propagate immediately).
type Codec interface {
	ID() ID

	InitCtx(ctx *Context, s stream.Stream, initFromStream bool) error
	FiniCtx(ctx *Context, s stream.Stream, flush bool) error

	EncInt(ctx *Context, name string, v int64) error
	EncUint(ctx *Context, name string, v uint64) error
	EncDouble(ctx *Context, name string, v float64) error
	EncBool(ctx *Context, name string, v bool) error
	EncString(ctx *Context, name string, v string) error
	EncBin(ctx *Context, name string, v []byte) error
	EncObject(ctx *Context, name string, isNull bool, obj *Context) error
	EncArray(ctx *Context, name string, length int, arr *Context) error
	EncTypeBegin(ctx *Context, members int) error
	EncTypeEnd(ctx *Context) error

	DecInt(ctx *Context, name string, v *int64) error
	DecUint(ctx *Context, name string, v *uint64) error
	DecDouble(ctx *Context, name string, v *float64) error
	DecBool(ctx *Context, name string, v *bool) error
	DecString(ctx *Context, name string, alloc Allocator, v *string) error
	DecBin(ctx *Context, name string, alloc Allocator, v *[]byte) error
	DecObject(ctx *Context, name string, isNull *bool, obj *Context) error
	DecArray(ctx *Context, name string, length *int, arr *Context) error
	DecTypeBegin(ctx *Context) error
	DecTypeEnd(ctx *Context) error
}

// Context is bound to a stream for the duration of one encode/decode
// call. It lives on the caller's stack (a local variable), never
// shared across goroutines.
type Context struct {
	Codec            Codec
	state            any
	Index            int
	UserContext      any
	DefaultAllocator Allocator
	Log              *zap.Logger
}

// ByID returns the singleton implementation for a codec id. Unknown
// ids (including Auto) resolve to the binary codec.
func ByID(id ID) Codec {
	switch id {
	case JSON:
		return jsonCodec
	default:
		return binaryCodec
	}
}

// InitCtx binds ctx to stream s.
func InitCtx(c Codec, ctx *Context, s stream.Stream, initFromStream bool, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	ctx.Codec = c
	ctx.Log = log
	return c.InitCtx(ctx, s, initFromStream)
}

// FiniCtx tears down ctx's codec-private state.
func FiniCtx(ctx *Context, s stream.Stream, flush bool) error {
	return ctx.Codec.FiniCtx(ctx, s, flush)
}

// GetCodecID returns the codec id bound to ctx.
func (ctx *Context) GetCodecID() ID {
	return ctx.Codec.ID()
}

// --- convenience wrappers mirroring io_encode_*/io_decode_* ---

func (ctx *Context) EncInt(name string, v int64) error   { return ctx.Codec.EncInt(ctx, name, v) }
func (ctx *Context) EncUint(name string, v uint64) error { return ctx.Codec.EncUint(ctx, name, v) }
func (ctx *Context) EncDouble(name string, v float64) error {
	return ctx.Codec.EncDouble(ctx, name, v)
}
func (ctx *Context) EncBool(name string, v bool) error     { return ctx.Codec.EncBool(ctx, name, v) }
func (ctx *Context) EncString(name string, v string) error { return ctx.Codec.EncString(ctx, name, v) }
func (ctx *Context) EncBin(name string, v []byte) error    { return ctx.Codec.EncBin(ctx, name, v) }
func (ctx *Context) EncObject(name string, isNull bool, obj *Context) error {
	return ctx.Codec.EncObject(ctx, name, isNull, obj)
}
func (ctx *Context) EncArray(name string, length int, arr *Context) error {
	return ctx.Codec.EncArray(ctx, name, length, arr)
}
func (ctx *Context) EncTypeBegin(members int) error { return ctx.Codec.EncTypeBegin(ctx, members) }
func (ctx *Context) EncTypeEnd() error              { return ctx.Codec.EncTypeEnd(ctx) }

func (ctx *Context) DecInt(name string, v *int64) error   { return ctx.Codec.DecInt(ctx, name, v) }
func (ctx *Context) DecUint(name string, v *uint64) error { return ctx.Codec.DecUint(ctx, name, v) }
func (ctx *Context) DecDouble(name string, v *float64) error {
	return ctx.Codec.DecDouble(ctx, name, v)
}
func (ctx *Context) DecBool(name string, v *bool) error { return ctx.Codec.DecBool(ctx, name, v) }
func (ctx *Context) DecString(name string, alloc Allocator, v *string) error {
	if alloc == nil {
		alloc = ctx.DefaultAllocator
	}
	return ctx.Codec.DecString(ctx, name, alloc, v)
}
func (ctx *Context) DecBin(name string, alloc Allocator, v *[]byte) error {
	if alloc == nil {
		alloc = ctx.DefaultAllocator
	}
	return ctx.Codec.DecBin(ctx, name, alloc, v)
}
func (ctx *Context) DecObject(name string, isNull *bool, obj *Context) error {
	var tmp bool
	if isNull == nil {
		isNull = &tmp
	}
	return ctx.Codec.DecObject(ctx, name, isNull, obj)
}
func (ctx *Context) DecArray(name string, length *int, arr *Context) error {
	return ctx.Codec.DecArray(ctx, name, length, arr)
}
func (ctx *Context) DecTypeBegin() error { return ctx.Codec.DecTypeBegin(ctx) }
func (ctx *Context) DecTypeEnd() error   { return ctx.Codec.DecTypeEnd(ctx) }

// --- narrowing integer decoders: the wire type is always 64 bits ---

func (ctx *Context) DecUint32(name string, v *uint32) error {
	const op = errors.Op("codec: dec uint32")
	var u64 uint64
	if err := ctx.DecUint(name, &u64); err != nil {
		return err
	}
	*v = uint32(u64)
	if uint64(*v) != u64 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

func (ctx *Context) DecUint16(name string, v *uint16) error {
	const op = errors.Op("codec: dec uint16")
	var u64 uint64
	if err := ctx.DecUint(name, &u64); err != nil {
		return err
	}
	*v = uint16(u64)
	if uint64(*v) != u64 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

func (ctx *Context) DecUint8(name string, v *uint8) error {
	const op = errors.Op("codec: dec uint8")
	var u64 uint64
	if err := ctx.DecUint(name, &u64); err != nil {
		return err
	}
	*v = uint8(u64)
	if uint64(*v) != u64 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

func (ctx *Context) DecInt32(name string, v *int32) error {
	const op = errors.Op("codec: dec int32")
	var i64 int64
	if err := ctx.DecInt(name, &i64); err != nil {
		return err
	}
	*v = int32(i64)
	if int64(*v) != i64 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

func (ctx *Context) DecInt16(name string, v *int16) error {
	const op = errors.Op("codec: dec int16")
	var i64 int64
	if err := ctx.DecInt(name, &i64); err != nil {
		return err
	}
	*v = int16(i64)
	if int64(*v) != i64 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

func (ctx *Context) DecInt8(name string, v *int8) error {
	const op = errors.Op("codec: dec int8")
	var i64 int64
	if err := ctx.DecInt(name, &i64); err != nil {
		return err
	}
	*v = int8(i64)
	if int64(*v) != i64 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}
