// Package pref implements the 128-bit remote reference identifier used
// as source/target/proxy addressing on every protocol message.
package pref

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/perr"
)

// Ref is an opaque 128-bit remoting reference. Trivially copyable,
// owned by value.
type Ref struct {
	u32 [4]uint32
}

// Null is the all-zero reference.
var Null = Ref{}

// Broadcast is the all-ones reference.
var Broadcast = Ref{u32: [4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff}}

// New draws 16 random bytes from the platform RNG (via uuid.NewRandom,
// which reads crypto/rand) and returns them as a reference.
func New() (Ref, error) {
	const op = errors.Op("pref: new")
	id, err := uuid.NewRandom()
	if err != nil {
		return Ref{}, errors.E(op, perr.ErrOutOfMemory, err)
	}
	return fromBytes(id[:]), nil
}

func fromBytes(b []byte) Ref {
	var r Ref
	for i := 0; i < 4; i++ {
		r.u32[i] = uint32(b[i*4])<<24 | uint32(b[i*4+1])<<16 | uint32(b[i*4+2])<<8 | uint32(b[i*4+3])
	}
	return r
}

// Bytes returns the 16-byte big-endian wire representation.
func (r Ref) Bytes() []byte {
	b := make([]byte, 16)
	for i := 0; i < 4; i++ {
		b[i*4] = byte(r.u32[i] >> 24)
		b[i*4+1] = byte(r.u32[i] >> 16)
		b[i*4+2] = byte(r.u32[i] >> 8)
		b[i*4+3] = byte(r.u32[i])
	}
	return b
}

// FromBytes parses a 16-byte wire blob into a reference.
func FromBytes(b []byte) (Ref, error) {
	const op = errors.Op("pref: from bytes")
	if len(b) != 16 {
		return Ref{}, errors.E(op, perr.ErrInvalidFormat)
	}
	return fromBytes(b), nil
}

// longForm renders all four 32-bit words; it is the only form this
// build uses, chosen over the "last word only" short form because it
// is the one that actually round-trips through FromString (the short
// form is lossy and is reserved for log-line printing, not identity).
const longForm = true

// String renders the reference as lower-case hex.
func (r Ref) String() string {
	if !longForm {
		return hexWord(r.u32[3])
	}
	var sb strings.Builder
	sb.Grow(32)
	for _, w := range r.u32 {
		sb.WriteString(hexWord(w))
	}
	return sb.String()
}

func hexWord(w uint32) string {
	b := []byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
	return hex.EncodeToString(b)
}

// FromString parses the long-form hex produced by String.
func FromString(s string) (Ref, error) {
	const op = errors.Op("pref: from string")
	s = strings.TrimSpace(s)
	if len(s) != 32 {
		return Ref{}, errors.E(op, perr.ErrInvalidFormat)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Ref{}, errors.E(op, perr.ErrInvalidFormat, err)
	}
	return fromBytes(b), nil
}

// AppendTo appends the reference's string form to sb, mirroring
// io_ref_append_to_STRING.
func (r Ref) AppendTo(sb *strings.Builder) {
	for _, w := range r.u32 {
		sb.WriteString(hexWord(w))
	}
}

// Equal reports bit-exact equality.
func (r Ref) Equal(o Ref) bool {
	return r.u32 == o.u32
}

// IsNull reports whether r is the all-zero reference.
func (r Ref) IsNull() bool {
	return r.Equal(Null)
}

// Hash is the XOR-fold of the reference's four 32-bit words.
func (r Ref) Hash() uint32 {
	return r.u32[0] ^ r.u32[1] ^ r.u32[2] ^ r.u32[3]
}

// Swap exchanges the contents of two references.
func Swap(a, b *Ref) {
	*a, *b = *b, *a
}
