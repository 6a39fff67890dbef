package message

import (
	"fmt"
	"net"

	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/codec"
	"github.com/prxmesh/prxcore/pkg/perr"
)

// AddressFamily identifies the shape of a SocketAddress's payload.
type AddressFamily uint32

const (
	AFUnspec AddressFamily = iota
	AFUnix
	AFInet
	AFInet6
	AFProxy
)

// SocketAddress is a tagged union over the socket address families the
// core needs to move across the wire: a plain IPv4/IPv6 endpoint, a
// Unix domain path, or an opaque proxy host:port pair reached through
// an intermediate hop.
type SocketAddress struct {
	Family AddressFamily
	Inet4  *Inet4Address
	Inet6  *Inet6Address
	Unix   *UnixAddress
	Proxy  *ProxyAddress
}

type Inet4Address struct {
	Port uint16
	Addr [4]byte
}

type Inet6Address struct {
	Port     uint16
	FlowInfo uint32
	Addr     [16]byte
	ScopeID  uint32
}

type UnixAddress struct {
	Path string
}

type ProxyAddress struct {
	Host string
	Port uint16
}

// NewInet4 builds a SocketAddress from a dotted-quad IP and port.
func NewInet4(ip net.IP, port uint16) SocketAddress {
	var a Inet4Address
	a.Port = port
	copy(a.Addr[:], ip.To4())
	return SocketAddress{Family: AFInet, Inet4: &a}
}

// NewInet6 builds a SocketAddress from a 16-byte IP and port.
func NewInet6(ip net.IP, port uint16) SocketAddress {
	var a Inet6Address
	a.Port = port
	copy(a.Addr[:], ip.To16())
	return SocketAddress{Family: AFInet6, Inet6: &a}
}

// String renders a human-readable form; it is not the wire format.
func (a SocketAddress) String() string {
	switch a.Family {
	case AFInet:
		ip := net.IP(a.Inet4.Addr[:])
		return fmt.Sprintf("%s:%d", ip.String(), a.Inet4.Port)
	case AFInet6:
		ip := net.IP(a.Inet6.Addr[:])
		return fmt.Sprintf("[%s]:%d", ip.String(), a.Inet6.Port)
	case AFUnix:
		return a.Unix.Path
	case AFProxy:
		return fmt.Sprintf("%s:%d", a.Proxy.Host, a.Proxy.Port)
	default:
		return "unspec"
	}
}

// Equal reports deep equality of every populated branch.
func (a SocketAddress) Equal(b SocketAddress) bool {
	if a.Family != b.Family {
		return false
	}
	switch a.Family {
	case AFInet:
		return *a.Inet4 == *b.Inet4
	case AFInet6:
		return *a.Inet6 == *b.Inet6
	case AFUnix:
		return *a.Unix == *b.Unix
	case AFProxy:
		return *a.Proxy == *b.Proxy
	default:
		return true
	}
}

// EncodeAddress writes a as a named member of ctx's enclosing composite.
func EncodeAddress(ctx *codec.Context, name string, a SocketAddress) error {
	return encodeAddress(ctx, name, a)
}

// DecodeAddress reads a as a named member of ctx's enclosing composite.
func DecodeAddress(ctx *codec.Context, name string, a *SocketAddress) error {
	return decodeAddress(ctx, name, a)
}

func encodeAddress(ctx *codec.Context, name string, a SocketAddress) error {
	const op = errors.Op("message: encode address")
	var obj codec.Context
	if err := ctx.EncObject(name, false, &obj); err != nil {
		return errors.E(op, err)
	}
	switch a.Family {
	case AFInet:
		if a.Inet4 == nil {
			return errors.E(op, perr.ErrFault)
		}
		if err := obj.EncTypeBegin(3); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("family", uint64(AFInet)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("port", uint64(a.Inet4.Port)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncBin("addr", a.Inet4.Addr[:]); err != nil {
			return errors.E(op, err)
		}
	case AFInet6:
		if a.Inet6 == nil {
			return errors.E(op, perr.ErrFault)
		}
		if err := obj.EncTypeBegin(5); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("family", uint64(AFInet6)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("port", uint64(a.Inet6.Port)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("flow", uint64(a.Inet6.FlowInfo)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncBin("addr", a.Inet6.Addr[:]); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("scope_id", uint64(a.Inet6.ScopeID)); err != nil {
			return errors.E(op, err)
		}
	case AFUnix:
		if a.Unix == nil {
			return errors.E(op, perr.ErrFault)
		}
		if err := obj.EncTypeBegin(2); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("family", uint64(AFUnix)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncString("path", a.Unix.Path); err != nil {
			return errors.E(op, err)
		}
	case AFProxy:
		if a.Proxy == nil {
			return errors.E(op, perr.ErrFault)
		}
		if err := obj.EncTypeBegin(3); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("family", uint64(AFProxy)); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncString("host", a.Proxy.Host); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("port", uint64(a.Proxy.Port)); err != nil {
			return errors.E(op, err)
		}
	default:
		if err := obj.EncTypeBegin(1); err != nil {
			return errors.E(op, err)
		}
		if err := obj.EncUint("family", uint64(AFUnspec)); err != nil {
			return errors.E(op, err)
		}
	}
	return obj.EncTypeEnd()
}

func decodeAddress(ctx *codec.Context, name string, a *SocketAddress) error {
	const op = errors.Op("message: decode address")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject(name, &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		*a = SocketAddress{Family: AFUnspec}
		return nil
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	var family uint32
	if err := obj.DecUint32("family", &family); err != nil {
		return errors.E(op, err)
	}
	switch AddressFamily(family) {
	case AFInet:
		var in4 Inet4Address
		var port uint32
		if err := obj.DecUint32("port", &port); err != nil {
			return errors.E(op, err)
		}
		in4.Port = uint16(port)
		var raw []byte
		if err := obj.DecBin("addr", nil, &raw); err != nil {
			return errors.E(op, err)
		}
		copy(in4.Addr[:], raw)
		*a = SocketAddress{Family: AFInet, Inet4: &in4}
	case AFInet6:
		var in6 Inet6Address
		var port, flow, scope uint32
		if err := obj.DecUint32("port", &port); err != nil {
			return errors.E(op, err)
		}
		in6.Port = uint16(port)
		if err := obj.DecUint32("flow", &flow); err != nil {
			return errors.E(op, err)
		}
		in6.FlowInfo = flow
		var raw []byte
		if err := obj.DecBin("addr", nil, &raw); err != nil {
			return errors.E(op, err)
		}
		copy(in6.Addr[:], raw)
		if err := obj.DecUint32("scope_id", &scope); err != nil {
			return errors.E(op, err)
		}
		in6.ScopeID = scope
		*a = SocketAddress{Family: AFInet6, Inet6: &in6}
	case AFUnix:
		var u UnixAddress
		if err := obj.DecString("path", nil, &u.Path); err != nil {
			return errors.E(op, err)
		}
		*a = SocketAddress{Family: AFUnix, Unix: &u}
	case AFProxy:
		var p ProxyAddress
		if err := obj.DecString("host", nil, &p.Host); err != nil {
			return errors.E(op, err)
		}
		var port uint32
		if err := obj.DecUint32("port", &port); err != nil {
			return errors.E(op, err)
		}
		p.Port = uint16(port)
		*a = SocketAddress{Family: AFProxy, Proxy: &p}
	default:
		*a = SocketAddress{Family: AFUnspec}
	}
	return obj.DecTypeEnd()
}
