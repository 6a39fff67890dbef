package message

import (
	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/codec"
)

// SocketProperties describes how a proxied socket should be created:
// the address family/type/protocol triple, any creation flags and a
// connect/accept timeout, and the peer or bind address to act on.
type SocketProperties struct {
	Family   AddressFamily
	SockType uint32
	Protocol uint32
	Flags    uint32
	Timeout  uint32
	Address  SocketAddress
}

func encodeSocketProperties(ctx *codec.Context, name string, p SocketProperties) error {
	const op = errors.Op("message: encode socket properties")
	var obj codec.Context
	if err := ctx.EncObject(name, false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(6); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("family", uint64(p.Family)); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("sock_type", uint64(p.SockType)); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("protocol", uint64(p.Protocol)); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("flags", uint64(p.Flags)); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("timeout", uint64(p.Timeout)); err != nil {
		return errors.E(op, err)
	}
	if err := encodeAddress(&obj, "address", p.Address); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeSocketProperties(ctx *codec.Context, name string, p *SocketProperties) error {
	const op = errors.Op("message: decode socket properties")
	var obj codec.Context
	if err := ctx.DecObject(name, nil, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	var family, sockType, protocol, flags, timeout uint32
	if err := obj.DecUint32("family", &family); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint32("sock_type", &sockType); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint32("protocol", &protocol); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint32("flags", &flags); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint32("timeout", &timeout); err != nil {
		return errors.E(op, err)
	}
	p.Family = AddressFamily(family)
	p.SockType = sockType
	p.Protocol = protocol
	p.Flags = flags
	p.Timeout = timeout
	if err := decodeAddress(&obj, "address", &p.Address); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}
