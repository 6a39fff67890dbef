package codec

import (
	"encoding/base64"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/perr"
	"github.com/prxmesh/prxcore/pkg/stream"
)

// jsonAPI configures json-iterator to behave like encoding/json for
// numeric precision, matching the self-describing wire form the spec
// requires (field names, not positional arrays).
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonID struct{}

var jsonCodec Codec = jsonID{}

func (jsonID) ID() ID { return JSON }

// jsonRoot is shared across every Context nested under one InitCtx
// call. On encode it accumulates the document as plain Go values
// (map[string]any / []any); on decode it holds the fully parsed tree.
type jsonRoot struct {
	encoding bool
	top      any
}

// jsonFrame is the per-composite view: either the map being built
// (encode, object), the slice pointer being appended to (encode,
// array), or the already-parsed node being read from (decode, either
// kind).
type jsonFrame struct {
	root *jsonRoot

	// encode
	obj map[string]any
	arr *[]any

	// decode
	node  any
	index int
}

func (jsonID) InitCtx(ctx *Context, s stream.Stream, initFromStream bool) error {
	const op = errors.Op("codec/json: init")
	root := &jsonRoot{encoding: !initFromStream}
	if initFromStream {
		buf := make([]byte, 0, 4096)
		chunk := make([]byte, 4096)
		for {
			n, err := s.Read(chunk)
			if n > 0 {
				buf = append(buf, chunk[:n]...)
			}
			if err != nil {
				break
			}
		}
		var doc any
		if len(buf) > 0 {
			if err := jsonAPI.Unmarshal(buf, &doc); err != nil {
				return errors.E(op, perr.ErrInvalidFormat, err)
			}
		}
		root.top = doc
		ctx.state = &jsonFrame{root: root, node: doc}
		return nil
	}
	ctx.state = &jsonFrame{root: root}
	return nil
}

func (jsonID) FiniCtx(ctx *Context, s stream.Stream, flush bool) error {
	const op = errors.Op("codec/json: fini")
	f := ctx.state.(*jsonFrame)
	if !f.root.encoding || !flush {
		return nil
	}
	b, err := jsonAPI.Marshal(f.root.top)
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	if _, err := s.Write(b); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	return nil
}

func jframe(ctx *Context) *jsonFrame {
	return ctx.state.(*jsonFrame)
}

// put stores a named (object context) or positional (array context)
// value into f. The whole-document root is set by EncTypeBegin, not
// here.
func (f *jsonFrame) put(name string, v any) {
	if f.arr != nil {
		*f.arr = append(*f.arr, v)
		return
	}
	if f.obj == nil {
		f.obj = map[string]any{}
	}
	f.obj[name] = v
}

func (jsonID) EncTypeBegin(ctx *Context, members int) error {
	f := jframe(ctx)
	if f.obj == nil && f.arr == nil {
		f.obj = make(map[string]any, members)
	}
	if f.root.top == nil {
		f.root.top = f.obj
	}
	return nil
}

func (jsonID) EncTypeEnd(ctx *Context) error { return nil }

func (jsonID) DecTypeBegin(ctx *Context) error {
	const op = errors.Op("codec/json: dec type begin")
	f := jframe(ctx)
	if f.node == nil {
		return nil
	}
	if _, ok := f.node.(map[string]any); !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

func (jsonID) DecTypeEnd(ctx *Context) error { return nil }

func (jsonID) EncInt(ctx *Context, name string, v int64) error {
	jframe(ctx).put(name, v)
	return nil
}

func (jsonID) EncUint(ctx *Context, name string, v uint64) error {
	jframe(ctx).put(name, v)
	return nil
}

func (jsonID) EncDouble(ctx *Context, name string, v float64) error {
	jframe(ctx).put(name, v)
	return nil
}

func (jsonID) EncBool(ctx *Context, name string, v bool) error {
	jframe(ctx).put(name, v)
	return nil
}

func (jsonID) EncString(ctx *Context, name string, v string) error {
	jframe(ctx).put(name, v)
	return nil
}

func (jsonID) EncBin(ctx *Context, name string, v []byte) error {
	// self-describing form: binary payloads travel as base64 strings.
	// The document is built from plain interface{} values (not typed
	// []byte), so the standard library's automatic []byte-to-base64
	// marshaling never kicks in; encode explicitly instead.
	jframe(ctx).put(name, base64.StdEncoding.EncodeToString(v))
	return nil
}

func (jsonID) EncObject(ctx *Context, name string, isNull bool, obj *Context) error {
	f := jframe(ctx)
	if isNull {
		f.put(name, nil)
		return nil
	}
	child := map[string]any{}
	f.put(name, child)
	obj.Codec = ctx.Codec
	obj.Log = ctx.Log
	obj.DefaultAllocator = ctx.DefaultAllocator
	obj.state = &jsonFrame{root: f.root, obj: child}
	return nil
}

func (jsonID) EncArray(ctx *Context, name string, length int, arr *Context) error {
	f := jframe(ctx)
	slice := make([]any, 0, length)
	boxed := &slice
	// Store the pointer, not the slice header, so elements appended
	// through the array context show up when the document is marshaled.
	f.put(name, boxed)
	arr.Codec = ctx.Codec
	arr.Log = ctx.Log
	arr.DefaultAllocator = ctx.DefaultAllocator
	arr.state = &jsonFrame{root: f.root, arr: boxed}
	return nil
}

// get resolves the next value to decode: by name inside an object
// context, by position (and advances the cursor) inside an array
// context.
func (f *jsonFrame) get(name string) (any, bool) {
	if s, ok := f.node.([]any); ok {
		if f.index >= len(s) {
			return nil, false
		}
		v := s[f.index]
		f.index++
		return v, true
	}
	m, ok := f.node.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case jsoniter.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func (jsonID) DecInt(ctx *Context, name string, v *int64) error {
	const op = errors.Op("codec/json: dec int")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("missing field %q", name))
	}
	n, ok := asNumber(raw)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	*v = int64(n)
	return nil
}

func (jsonID) DecUint(ctx *Context, name string, v *uint64) error {
	const op = errors.Op("codec/json: dec uint")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("missing field %q", name))
	}
	n, ok := asNumber(raw)
	if !ok || n < 0 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	*v = uint64(n)
	return nil
}

func (jsonID) DecDouble(ctx *Context, name string, v *float64) error {
	const op = errors.Op("codec/json: dec double")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("missing field %q", name))
	}
	n, ok := asNumber(raw)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	*v = n
	return nil
}

func (jsonID) DecBool(ctx *Context, name string, v *bool) error {
	const op = errors.Op("codec/json: dec bool")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("missing field %q", name))
	}
	b, ok := raw.(bool)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	*v = b
	return nil
}

func (jsonID) DecString(ctx *Context, name string, alloc Allocator, v *string) error {
	const op = errors.Op("codec/json: dec string")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("missing field %q", name))
	}
	s, ok := raw.(string)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	_ = alloc
	*v = s
	return nil
}

func (jsonID) DecBin(ctx *Context, name string, alloc Allocator, v *[]byte) error {
	const op = errors.Op("codec/json: dec bin")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("missing field %q", name))
	}
	s, ok := raw.(string)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return errors.E(op, perr.ErrInvalidFormat, err)
	}
	dst := b
	if alloc != nil {
		var err error
		dst, err = alloc(ctx, len(b))
		if err != nil {
			return errors.E(op, err)
		}
		copy(dst, b)
	}
	*v = dst
	return nil
}

func (jsonID) DecObject(ctx *Context, name string, isNull *bool, obj *Context) error {
	const op = errors.Op("codec/json: dec object")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok || raw == nil {
		*isNull = true
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	*isNull = false
	obj.Codec = ctx.Codec
	obj.Log = ctx.Log
	obj.DefaultAllocator = ctx.DefaultAllocator
	obj.state = &jsonFrame{root: f.root, node: m}
	return nil
}

func (jsonID) DecArray(ctx *Context, name string, length *int, arr *Context) error {
	const op = errors.Op("codec/json: dec array")
	f := jframe(ctx)
	raw, ok := f.get(name)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat, fmt.Errorf("missing field %q", name))
	}
	s, ok := raw.([]any)
	if !ok {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	*length = len(s)
	arr.Codec = ctx.Codec
	arr.Log = ctx.Log
	arr.DefaultAllocator = ctx.DefaultAllocator
	arr.state = &jsonFrame{root: f.root, node: s}
	return nil
}
