package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxmesh/prxcore/pkg/credstore"
	"github.com/prxmesh/prxcore/pkg/token"
)

func TestSASProviderNewTokenShape(t *testing.T) {
	store, err := credstore.NewSessionStore()
	require.NoError(t, err)
	handle, err := store.Import("policy@host", []byte("secret"), true)
	require.NoError(t, err)

	p := token.NewSASProvider("owner", handle, "myhub.azure-devices.net/devices/dev1", store, 3600, nil)
	defer p.Release()

	tok, ttl, err := p.NewToken()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok, "SharedAccessSignature sr="))
	assert.Contains(t, tok, "&sig=")
	assert.Contains(t, tok, "&se=")
	assert.Contains(t, tok, "&skn=owner")
	assert.Equal(t, time.Duration(float64(3600)*0.8*float64(time.Second)), ttl)
}

func TestSASProviderCacheReusesToken(t *testing.T) {
	store, err := credstore.NewSessionStore()
	require.NoError(t, err)
	handle, err := store.Import("policy@host", []byte("secret"), true)
	require.NoError(t, err)
	cache, err := token.NewCache(8)
	require.NoError(t, err)

	p := token.NewSASProvider("owner", handle, "scope-a", store, 3600, cache)
	defer p.Release()

	tok1, _, err := p.NewToken()
	require.NoError(t, err)
	tok2, _, err := p.NewToken()
	require.NoError(t, err)
	assert.Equal(t, tok1, tok2)
}

func TestSASProviderCloneSharesState(t *testing.T) {
	store, err := credstore.NewSessionStore()
	require.NoError(t, err)
	handle, err := store.Import("policy@host", []byte("secret"), true)
	require.NoError(t, err)

	p := token.NewSASProvider("owner", handle, "scope", store, 3600, nil)
	clone := p.Clone()
	defer clone.Release()
	defer p.Release()

	assert.True(t, token.Equivalent(p, clone))
}

func TestPassThroughReturnsVerbatimToken(t *testing.T) {
	p := token.NewPassThrough("SharedAccessSignature sr=x&sig=y&se=1&skn=z")
	defer p.Release()
	tok, ttl, err := p.NewToken()
	require.NoError(t, err)
	assert.Equal(t, "SharedAccessSignature sr=x&sig=y&se=1&skn=z", tok)
	assert.Greater(t, ttl, 24*time.Hour)
}

func TestEquivalentComparesPropertiesCaseInsensitively(t *testing.T) {
	a := token.NewPassThrough("tok-a")
	b := token.NewPassThrough("tok-b")
	defer a.Release()
	defer b.Release()
	assert.True(t, token.Equivalent(a, b))

	store, err := credstore.NewSessionStore()
	require.NoError(t, err)
	handle, err := store.Import("policy@host", []byte("secret"), true)
	require.NoError(t, err)
	c := token.NewSASProvider("Owner", handle, "Scope-A", store, 3600, nil)
	d := token.NewSASProvider("owner", handle, "scope-a", store, 3600, nil)
	defer c.Release()
	defer d.Release()
	assert.True(t, token.Equivalent(c, d))
}

func TestEquivalentRejectsDifferentScope(t *testing.T) {
	store, err := credstore.NewSessionStore()
	require.NoError(t, err)
	handle, err := store.Import("policy@host", []byte("secret"), true)
	require.NoError(t, err)

	a := token.NewSASProvider("owner", handle, "scope-a", store, 3600, nil)
	b := token.NewSASProvider("owner", handle, "scope-b", store, 3600, nil)
	defer a.Release()
	defer b.Release()
	assert.False(t, token.Equivalent(a, b))
}
