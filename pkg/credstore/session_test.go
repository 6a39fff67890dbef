package credstore_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxmesh/prxcore/pkg/credstore"
)

func TestSessionStoreImportAlwaysWraps(t *testing.T) {
	s, err := credstore.NewSessionStore()
	require.NoError(t, err)
	assert.Equal(t, credstore.CapabilityNone, s.Capability())

	h, err := s.Import("any-name", []byte("super-secret-key"), true)
	require.NoError(t, err)
	assert.True(t, h.IsWrapped())
	assert.Contains(t, h.String(), "b64:")
}

func TestSessionStoreHMACMatchesRawComputation(t *testing.T) {
	s, err := credstore.NewSessionStore()
	require.NoError(t, err)

	secret := []byte("shared-access-key-bytes")
	h, err := s.Import("policy", secret, false)
	require.NoError(t, err)

	msg := []byte("scope\n1700000000")
	mac1, err := s.HMACSHA256(h, msg)
	require.NoError(t, err)
	mac2, err := s.HMACSHA256(h, msg)
	require.NoError(t, err)
	assert.Equal(t, mac1, mac2)

	raw := hmac.New(sha256.New, secret)
	raw.Write(msg)
	var want [32]byte
	copy(want[:], raw.Sum(nil))
	assert.Equal(t, want, mac1)
}

func TestSessionStoreRemoveIsNoopForWrapped(t *testing.T) {
	s, err := credstore.NewSessionStore()
	require.NoError(t, err)
	h, err := s.Import("x", []byte("y"), true)
	require.NoError(t, err)
	assert.NoError(t, s.Remove(h))
}

func TestSessionStoreRejectsTamperedHandle(t *testing.T) {
	s, err := credstore.NewSessionStore()
	require.NoError(t, err)
	h, err := s.Import("x", []byte("y"), true)
	require.NoError(t, err)
	h.Name = h.Name[:len(h.Name)-2] + "aa"

	_, err = s.HMACSHA256(h, []byte("m"))
	require.Error(t, err)
}

// fakeStore exercises the persistent-handle branch of code that calls
// into a Store, without shipping a persistent implementation.
type fakeStore struct {
	secrets map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{secrets: map[string][]byte{}} }

func (f *fakeStore) Capability() credstore.Capability { return credstore.CapabilityPersistent }

func (f *fakeStore) Import(name string, secret []byte, persist bool) (credstore.KeyHandle, error) {
	if !persist {
		return credstore.KeyHandle{Kind: credstore.HandleWrapped, Name: name}, nil
	}
	f.secrets[name] = secret
	return credstore.KeyHandle{Kind: credstore.HandlePersistent, Name: name}, nil
}

func (f *fakeStore) Remove(handle credstore.KeyHandle) error {
	delete(f.secrets, handle.Name)
	return nil
}

func (f *fakeStore) HMACSHA256(handle credstore.KeyHandle, message []byte) ([32]byte, error) {
	var out [32]byte
	copy(out[:], message)
	return out, nil
}

func TestFakeStorePersistentRoundTrip(t *testing.T) {
	f := newFakeStore()
	h, err := f.Import("policy@host", []byte("secret"), true)
	require.NoError(t, err)
	assert.Equal(t, credstore.HandlePersistent, h.Kind)
	require.NoError(t, f.Remove(h))
	assert.NotContains(t, f.secrets, "policy@host")
}
