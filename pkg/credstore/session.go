package credstore

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/spiral/errors"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/prxmesh/prxcore/pkg/perr"
)

// SessionStore is the credential-store fallback used when no
// persistent, platform-native secret store is available: every
// secret is sealed with a random key generated once per SessionStore
// and never persisted, so the resulting handle is only ever useful
// within this process's lifetime.
type SessionStore struct {
	key [32]byte
}

// NewSessionStore creates a fallback store with a fresh session key.
func NewSessionStore() (*SessionStore, error) {
	const op = errors.Op("credstore: new session store")
	s := &SessionStore{}
	if _, err := rand.Read(s.key[:]); err != nil {
		return nil, errors.E(op, perr.ErrFault, err)
	}
	return s, nil
}

// Capability always reports CapabilityNone: SessionStore never
// persists, regardless of the caller's persist hint.
func (s *SessionStore) Capability() Capability { return CapabilityNone }

// Import seals secret with the session key and returns a wrapped
// handle carrying the ciphertext inline. The persist hint is ignored.
func (s *SessionStore) Import(_ string, secret []byte, _ bool) (KeyHandle, error) {
	const op = errors.Op("credstore: session import")
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return KeyHandle{}, errors.E(op, perr.ErrFault, err)
	}
	sealed := secretbox.Seal(nonce[:], secret, &nonce, &s.key)
	return KeyHandle{Kind: HandleWrapped, Name: base64.RawURLEncoding.EncodeToString(sealed)}, nil
}

// Remove is a no-op for every handle SessionStore can produce: a
// wrapped handle has nothing persistent behind it to delete.
func (s *SessionStore) Remove(handle KeyHandle) error {
	const op = errors.Op("credstore: session remove")
	if handle.Kind != HandleWrapped {
		return errors.E(op, perr.ErrNotFound)
	}
	return nil
}

// HMACSHA256 unseals the secret behind handle and computes the MAC,
// without ever handing the secret itself back to the caller.
func (s *SessionStore) HMACSHA256(handle KeyHandle, message []byte) ([32]byte, error) {
	const op = errors.Op("credstore: session hmac")
	var out [32]byte
	secret, err := s.unseal(handle)
	if err != nil {
		return out, errors.E(op, err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	copy(out[:], mac.Sum(nil))
	return out, nil
}

func (s *SessionStore) unseal(handle KeyHandle) ([]byte, error) {
	const op = errors.Op("credstore: session unseal")
	if handle.Kind != HandleWrapped {
		return nil, errors.E(op, perr.ErrNotFound)
	}
	sealed, err := base64.RawURLEncoding.DecodeString(handle.Name)
	if err != nil {
		return nil, errors.E(op, perr.ErrInvalidFormat, err)
	}
	if len(sealed) < 24 {
		return nil, errors.E(op, perr.ErrInvalidFormat)
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	secret, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return nil, errors.E(op, perr.ErrInvalidFormat)
	}
	return secret, nil
}
