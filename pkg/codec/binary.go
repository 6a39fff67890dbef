package codec

import (
	"github.com/spiral/errors"
	"github.com/vmihailenco/msgpack/v5"
	msgcodes "github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/prxmesh/prxcore/pkg/perr"
	"github.com/prxmesh/prxcore/pkg/stream"
)

// binaryID is the on-wire codec implementation backed by
// vmihailenco/msgpack/v5. Every composite (message, nested object) is
// a MessagePack array whose member order is the schema's declaration
// order; no field names cross the wire.
type binaryID struct{}

var binaryCodec Codec = binaryID{}

func (binaryID) ID() ID { return Binary }

// binaryRoot is shared by every Context nested under one InitCtx call;
// only one of enc/dec is non-nil for the lifetime of the context tree.
type binaryRoot struct {
	enc *msgpack.Encoder
	dec *msgpack.Decoder
}

// binaryFrame is the per-composite bookkeeping: how many members this
// array declared, and how many have been consumed so far.
type binaryFrame struct {
	root     *binaryRoot
	declared int
	seen     int
}

func (binaryID) InitCtx(ctx *Context, s stream.Stream, initFromStream bool) error {
	root := &binaryRoot{}
	if initFromStream {
		root.dec = msgpack.NewDecoder(s)
	} else {
		root.enc = msgpack.NewEncoder(s)
	}
	ctx.state = &binaryFrame{root: root, declared: -1}
	return nil
}

func (binaryID) FiniCtx(ctx *Context, s stream.Stream, flush bool) error {
	_ = ctx
	_ = s
	_ = flush
	return nil
}

func frame(ctx *Context) *binaryFrame {
	return ctx.state.(*binaryFrame)
}

func (binaryID) EncTypeBegin(ctx *Context, members int) error {
	const op = errors.Op("codec/binary: type begin")
	f := frame(ctx)
	f.declared = members
	f.seen = 0
	if err := f.root.enc.EncodeArrayLen(members); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	return nil
}

func (binaryID) EncTypeEnd(ctx *Context) error {
	const op = errors.Op("codec/binary: type end")
	f := frame(ctx)
	if f.declared >= 0 && f.seen != f.declared {
		return errors.E(op, perr.ErrFault)
	}
	return nil
}

func (binaryID) DecTypeBegin(ctx *Context) error {
	const op = errors.Op("codec/binary: dec type begin")
	f := frame(ctx)
	n, err := f.root.dec.DecodeArrayLen()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	f.declared = n
	f.seen = 0
	return nil
}

func (binaryID) DecTypeEnd(ctx *Context) error {
	const op = errors.Op("codec/binary: dec type end")
	f := frame(ctx)
	for f.seen < f.declared {
		if err := f.root.dec.Skip(); err != nil {
			return errors.E(op, perr.ErrInvalidFormat, err)
		}
		f.seen++
	}
	return nil
}

func (binaryID) EncInt(ctx *Context, name string, v int64) error {
	const op = errors.Op("codec/binary: enc int")
	f := frame(ctx)
	if err := f.root.enc.EncodeInt64(v); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	f.seen++
	return nil
}

func (binaryID) EncUint(ctx *Context, name string, v uint64) error {
	const op = errors.Op("codec/binary: enc uint")
	f := frame(ctx)
	if err := f.root.enc.EncodeUint64(v); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	f.seen++
	return nil
}

func (binaryID) EncDouble(ctx *Context, name string, v float64) error {
	const op = errors.Op("codec/binary: enc double")
	f := frame(ctx)
	if err := f.root.enc.EncodeFloat64(v); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	f.seen++
	return nil
}

func (binaryID) EncBool(ctx *Context, name string, v bool) error {
	const op = errors.Op("codec/binary: enc bool")
	f := frame(ctx)
	if err := f.root.enc.EncodeBool(v); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	f.seen++
	return nil
}

func (binaryID) EncString(ctx *Context, name string, v string) error {
	const op = errors.Op("codec/binary: enc string")
	f := frame(ctx)
	if err := f.root.enc.EncodeString(v); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	f.seen++
	return nil
}

func (binaryID) EncBin(ctx *Context, name string, v []byte) error {
	const op = errors.Op("codec/binary: enc bin")
	f := frame(ctx)
	if err := f.root.enc.EncodeBytes(v); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	f.seen++
	return nil
}

func (binaryID) EncObject(ctx *Context, name string, isNull bool, obj *Context) error {
	const op = errors.Op("codec/binary: enc object")
	f := frame(ctx)
	if isNull {
		if err := f.root.enc.EncodeNil(); err != nil {
			return errors.E(op, perr.ErrWriting, err)
		}
		f.seen++
		return nil
	}
	obj.Codec = ctx.Codec
	obj.Log = ctx.Log
	obj.DefaultAllocator = ctx.DefaultAllocator
	obj.state = &binaryFrame{root: f.root, declared: -1}
	f.seen++
	return nil
}

func (binaryID) EncArray(ctx *Context, name string, length int, arr *Context) error {
	const op = errors.Op("codec/binary: enc array")
	f := frame(ctx)
	if err := f.root.enc.EncodeArrayLen(length); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	arr.Codec = ctx.Codec
	arr.Log = ctx.Log
	arr.DefaultAllocator = ctx.DefaultAllocator
	arr.state = &binaryFrame{root: f.root, declared: length}
	f.seen++
	return nil
}

func (binaryID) DecInt(ctx *Context, name string, v *int64) error {
	const op = errors.Op("codec/binary: dec int")
	f := frame(ctx)
	n, err := f.root.dec.DecodeInt64()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	*v = n
	f.seen++
	return nil
}

func (binaryID) DecUint(ctx *Context, name string, v *uint64) error {
	const op = errors.Op("codec/binary: dec uint")
	f := frame(ctx)
	n, err := f.root.dec.DecodeUint64()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	*v = n
	f.seen++
	return nil
}

func (binaryID) DecDouble(ctx *Context, name string, v *float64) error {
	const op = errors.Op("codec/binary: dec double")
	f := frame(ctx)
	n, err := f.root.dec.DecodeFloat64()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	*v = n
	f.seen++
	return nil
}

func (binaryID) DecBool(ctx *Context, name string, v *bool) error {
	const op = errors.Op("codec/binary: dec bool")
	f := frame(ctx)
	b, err := f.root.dec.DecodeBool()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	*v = b
	f.seen++
	return nil
}

func (binaryID) DecString(ctx *Context, name string, alloc Allocator, v *string) error {
	const op = errors.Op("codec/binary: dec string")
	f := frame(ctx)
	s, err := f.root.dec.DecodeString()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	_ = alloc // strings are immutable Go values; no arena needed
	*v = s
	f.seen++
	return nil
}

func (binaryID) DecBin(ctx *Context, name string, alloc Allocator, v *[]byte) error {
	const op = errors.Op("codec/binary: dec bin")
	f := frame(ctx)
	raw, err := f.root.dec.DecodeBytes()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	dst := raw
	if alloc != nil {
		dst, err = alloc(ctx, len(raw))
		if err != nil {
			return errors.E(op, err)
		}
		copy(dst, raw)
	}
	*v = dst
	f.seen++
	return nil
}

func (binaryID) DecObject(ctx *Context, name string, isNull *bool, obj *Context) error {
	const op = errors.Op("codec/binary: dec object")
	f := frame(ctx)
	code, err := f.root.dec.PeekCode()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	if code == msgcodes.Nil {
		if err := f.root.dec.DecodeNil(); err != nil {
			return errors.E(op, perr.ErrInvalidFormat, err)
		}
		*isNull = true
		f.seen++
		return nil
	}
	*isNull = false
	obj.Codec = ctx.Codec
	obj.Log = ctx.Log
	obj.DefaultAllocator = ctx.DefaultAllocator
	obj.state = &binaryFrame{root: f.root, declared: -1}
	f.seen++
	return nil
}

func (binaryID) DecArray(ctx *Context, name string, length *int, arr *Context) error {
	const op = errors.Op("codec/binary: dec array")
	f := frame(ctx)
	n, err := f.root.dec.DecodeArrayLen()
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	*length = n
	arr.Codec = ctx.Codec
	arr.Log = ctx.Log
	arr.DefaultAllocator = ctx.DefaultAllocator
	arr.state = &binaryFrame{root: f.root, declared: n}
	f.seen++
	return nil
}
