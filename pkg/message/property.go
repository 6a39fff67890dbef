package message

import (
	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/codec"
	"github.com/prxmesh/prxcore/pkg/perr"
)

// PropertyKind selects which branch of a Property's value is
// populated.
type PropertyKind uint32

const (
	PropNone PropertyKind = iota
	PropInt64
	PropBin
	PropAddr
)

// Property is a (socket option id, typed value) pair, used by both
// setopt requests and getopt responses.
type Property struct {
	ID    uint32
	Kind  PropertyKind
	Int64 int64
	Bin   []byte
	Addr  SocketAddress
}

// EncodeProperty writes p as a named member of ctx's enclosing composite.
func EncodeProperty(ctx *codec.Context, name string, p Property) error {
	return encodeProperty(ctx, name, p)
}

// DecodeProperty reads p as a named member of ctx's enclosing composite.
func DecodeProperty(ctx *codec.Context, name string, p *Property) error {
	return decodeProperty(ctx, name, p)
}

func encodeProperty(ctx *codec.Context, name string, p Property) error {
	const op = errors.Op("message: encode property")
	var obj codec.Context
	if err := ctx.EncObject(name, false, &obj); err != nil {
		return errors.E(op, err)
	}
	switch p.Kind {
	case PropInt64:
		if err := obj.EncTypeBegin(3); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("id", uint64(p.ID)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("kind", uint64(PropInt64)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncInt("value", p.Int64); err != nil {
			return errors.E(op, err)
		}
	case PropBin:
		if err := obj.EncTypeBegin(3); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("id", uint64(p.ID)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("kind", uint64(PropBin)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncBin("value", p.Bin); err != nil {
			return errors.E(op, err)
		}
	case PropAddr:
		if err := obj.EncTypeBegin(3); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("id", uint64(p.ID)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("kind", uint64(PropAddr)); err != nil {
			return errors.E(op, err)
		}
		if err := encodeAddress(&obj, "value", p.Addr); err != nil {
			return errors.E(op, err)
		}
	default:
		if err := obj.EncTypeBegin(2); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("id", uint64(p.ID)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("kind", uint64(PropNone)); err != nil {
			return errors.E(op, err)
		}
	}
	return obj.EncTypeEnd()
}

func decodeProperty(ctx *codec.Context, name string, p *Property) error {
	const op = errors.Op("message: decode property")
	var obj codec.Context
	if err := ctx.DecObject(name, nil, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	var id, kind uint32
	if err := obj.DecUint32("id", &id); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint32("kind", &kind); err != nil {
		return errors.E(op, err)
	}
	p.ID = id
	p.Kind = PropertyKind(kind)
	switch p.Kind {
	case PropInt64:
		if err := obj.DecInt("value", &p.Int64); err != nil {
			return errors.E(op, err)
		}
	case PropBin:
		if err := obj.DecBin("value", nil, &p.Bin); err != nil {
			return errors.E(op, err)
		}
	case PropAddr:
		if err := decodeAddress(&obj, "value", &p.Addr); err != nil {
			return errors.E(op, err)
		}
	case PropNone:
		// no value member
	default:
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return obj.DecTypeEnd()
}
