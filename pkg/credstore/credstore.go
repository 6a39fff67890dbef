// Package credstore models the credential-store collaborator the
// core delegates key custody to: import/remove/HMAC against an opaque
// handle, so a raw shared-access key never needs to leave the store
// once imported, per spec §6 "Credential-store surface".
package credstore

import "strings"

// Capability reports what persistence a Store backs its handles with.
type Capability int

const (
	// CapabilityNone means Import always falls back to wrapping: there
	// is no persistent secret store behind this implementation.
	CapabilityNone Capability = iota
	// CapabilityPersistent means Import can hand back a durable,
	// store-resident handle.
	CapabilityPersistent
)

// wrappedPrefix marks a KeyHandle that carries its own wrapped secret
// rather than naming a record in a persistent store.
const wrappedPrefix = "b64:"

// HandleKind selects which branch of a KeyHandle is populated.
type HandleKind int

const (
	HandlePersistent HandleKind = iota
	HandleWrapped
)

// KeyHandle is a tagged reference to a secret held by a Store: either
// the name of a record the store owns, or a self-contained wrapped
// payload carrying the secret inline. Modeled as a sum type rather
// than string-prefix sniffing at every call site.
type KeyHandle struct {
	Kind HandleKind
	Name string
}

// String renders the wire/text form used in connection strings.
func (h KeyHandle) String() string {
	if h.Kind == HandleWrapped {
		return wrappedPrefix + h.Name
	}
	return h.Name
}

// ParseKeyHandle recovers a KeyHandle from its text form.
func ParseKeyHandle(s string) KeyHandle {
	if rest, ok := strings.CutPrefix(s, wrappedPrefix); ok {
		return KeyHandle{Kind: HandleWrapped, Name: rest}
	}
	return KeyHandle{Kind: HandlePersistent, Name: s}
}

// IsWrapped reports whether h carries its secret inline rather than
// naming a persistent record.
func (h KeyHandle) IsWrapped() bool { return h.Kind == HandleWrapped }

// Store is the credential custody surface a connection string and a
// SAS token provider delegate to.
type Store interface {
	// Import persists or wraps secret under name, returning a handle
	// that can later be used with Remove and HMACSHA256 without the
	// caller ever seeing the raw bytes again. persist is a hint: a
	// store with CapabilityNone always wraps regardless of persist.
	Import(name string, secret []byte, persist bool) (KeyHandle, error)
	// Remove deletes any persisted secret behind handle. Removing a
	// wrapped handle is a no-op: there is nothing persistent to
	// delete.
	Remove(handle KeyHandle) error
	// HMACSHA256 computes the HMAC-SHA-256 of message using the
	// secret behind handle, never exposing the secret itself.
	HMACSHA256(handle KeyHandle, message []byte) ([32]byte, error)
	// Capability reports what kind of handles Import can produce.
	Capability() Capability
}
