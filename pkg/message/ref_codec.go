package message

import (
	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/codec"
	"github.com/prxmesh/prxcore/pkg/pref"
)

// EncodeRef writes r as a named member of ctx's enclosing composite.
func EncodeRef(ctx *codec.Context, name string, r pref.Ref) error {
	return encodeRef(ctx, name, r)
}

// DecodeRef reads r as a named member of ctx's enclosing composite.
func DecodeRef(ctx *codec.Context, name string, r *pref.Ref) error {
	return decodeRef(ctx, name, r)
}

// encodeRef writes a Ref as a 16-byte blob on the binary wire or a
// hex string on the JSON wire, per §4.5/§6.
func encodeRef(ctx *codec.Context, name string, r pref.Ref) error {
	const op = errors.Op("message: encode ref")
	if ctx.GetCodecID() == codec.JSON {
		if err := ctx.EncString(name, r.String()); err != nil {
			return errors.E(op, err)
		}
		return nil
	}
	b := r.Bytes()
	if err := ctx.EncBin(name, b[:]); err != nil {
		return errors.E(op, err)
	}
	return nil
}

func decodeRef(ctx *codec.Context, name string, r *pref.Ref) error {
	const op = errors.Op("message: decode ref")
	if ctx.GetCodecID() == codec.JSON {
		var s string
		if err := ctx.DecString(name, nil, &s); err != nil {
			return errors.E(op, err)
		}
		ref, err := pref.FromString(s)
		if err != nil {
			return errors.E(op, err)
		}
		*r = ref
		return nil
	}
	var raw []byte
	if err := ctx.DecBin(name, nil, &raw); err != nil {
		return errors.E(op, err)
	}
	ref, err := pref.FromBytes(raw)
	if err != nil {
		return errors.E(op, err)
	}
	*r = ref
	return nil
}
