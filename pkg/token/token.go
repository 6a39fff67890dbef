// Package token implements the Token Provider abstraction: a
// shared-access-signature provider backed by a credential-store
// handle, a pass-through provider for already-minted tokens, and an
// equivalence check used to dedupe providers by their public
// properties, per spec §4.7.
package token

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/credstore"
)

// PropertyID selects one of a provider's public, comparable
// properties.
type PropertyID int

const (
	PropertyType PropertyID = iota
	PropertyScope
	PropertyPolicy
	propertyCount
)

// Provider mints tokens for a scope. Providers are shared-ownership
// values: Clone returns a handle sharing the same underlying state
// (incrementing a refcount), and Release drops one reference,
// releasing the underlying state once the last reference is gone.
// This mirrors the original's INC_REF/DEC_REF provider lifetime
// without reaching for raw C-style refcounting: a single atomic
// counter embedded in the shared core is enough.
type Provider interface {
	Clone() Provider
	Release()
	GetProperty(id PropertyID) (string, bool)
	NewToken() (token string, ttl time.Duration, err error)
}

// Equivalent reports whether two providers are interchangeable: same
// pointer, or equal (case-insensitive) type/scope/policy properties.
func Equivalent(a, b Provider) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	for id := PropertyID(0); id < propertyCount; id++ {
		av, aok := a.GetProperty(id)
		bv, bok := b.GetProperty(id)
		if !aok && !bok {
			continue
		}
		if aok != bok || !strings.EqualFold(av, bv) {
			return false
		}
	}
	return true
}

// DefaultTTLSeconds is the SAS renewal window used when the caller
// does not specify one, matching the non-debug build default.
const DefaultTTLSeconds = 8 * 60 * 60

// sasCore is the state shared by every clone of a SASProvider.
type sasCore struct {
	refs       int32
	store      credstore.Store
	handle     credstore.KeyHandle
	scope      string
	policy     string
	ttlSeconds int
	cache      *Cache
}

// SASProvider mints shared-access-signature tokens, signed via a
// credential-store handle so the raw key is never read back into this
// process.
type SASProvider struct {
	core *sasCore
}

// NewSASProvider creates a SAS provider. ttlSeconds <= 0 uses
// DefaultTTLSeconds. cache may be nil to disable token reuse.
func NewSASProvider(policy string, handle credstore.KeyHandle, scope string, store credstore.Store, ttlSeconds int, cache *Cache) *SASProvider {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	return &SASProvider{core: &sasCore{
		refs:       1,
		store:      store,
		handle:     handle,
		scope:      scope,
		policy:     policy,
		ttlSeconds: ttlSeconds,
		cache:      cache,
	}}
}

// Clone returns a handle sharing the same underlying provider state.
func (p *SASProvider) Clone() Provider {
	atomic.AddInt32(&p.core.refs, 1)
	return &SASProvider{core: p.core}
}

// Release drops one reference; the last release clears the store
// reference so it can be garbage collected independently of any
// straggling clone.
func (p *SASProvider) Release() {
	if atomic.AddInt32(&p.core.refs, -1) == 0 {
		p.core.store = nil
	}
}

// GetProperty reports the CBS token type, the signing scope, and the
// signing policy name.
func (p *SASProvider) GetProperty(id PropertyID) (string, bool) {
	switch id {
	case PropertyType:
		return "servicebus.windows.net:sastoken", true
	case PropertyScope:
		return p.core.scope, true
	case PropertyPolicy:
		return p.core.policy, true
	default:
		return "", false
	}
}

// NewToken mints (or reuses a cached, still-fresh) SAS token for the
// provider's scope, per spec §4.7: sign "scope\nexpiry" with the
// credential store's HMAC-SHA-256, base64 and percent-encode the MAC,
// and compose the SharedAccessSignature string. The returned ttl is
// 80% of the configured lifetime, leaving headroom to renew before
// the token actually expires.
func (p *SASProvider) NewToken() (string, time.Duration, error) {
	const op = errors.Op("token: sas new token")
	key := p.core.scope + "|" + p.core.policy
	if p.core.cache != nil {
		if tok, remaining, ok := p.core.cache.Get(key); ok {
			// Keep the same renewal point as a fresh token: 20% of the
			// lifetime before the actual expiry.
			headroom := time.Duration(float64(p.core.ttlSeconds) * 0.2 * float64(time.Second))
			if remaining > headroom {
				return tok, remaining - headroom, nil
			}
		}
	}

	now := time.Now()
	expiry := now.Add(time.Duration(p.core.ttlSeconds) * time.Second)
	signing := fmt.Sprintf("%s\n%d", p.core.scope, expiry.Unix())

	mac, err := p.core.store.HMACSHA256(p.core.handle, []byte(signing))
	if err != nil {
		return "", 0, errors.E(op, err)
	}
	sig := url.QueryEscape(base64.StdEncoding.EncodeToString(mac[:]))
	tok := fmt.Sprintf("SharedAccessSignature sr=%s&sig=%s&se=%d&skn=%s",
		p.core.scope, sig, expiry.Unix(), p.core.policy)

	ttl := time.Duration(float64(p.core.ttlSeconds) * 0.8 * float64(time.Second))
	if p.core.cache != nil {
		p.core.cache.Put(key, tok, expiry)
	}
	return tok, ttl, nil
}

// passthruCore is the state shared by every clone of a PassThrough
// provider.
type passthruCore struct {
	refs  int32
	token string
}

// PassThrough hands back an already-minted token verbatim, reporting
// an effectively-infinite ttl so callers never attempt to renew it.
type PassThrough struct {
	core *passthruCore
}

// NewPassThrough wraps an existing token.
func NewPassThrough(tok string) *PassThrough {
	return &PassThrough{core: &passthruCore{refs: 1, token: tok}}
}

func (p *PassThrough) Clone() Provider {
	atomic.AddInt32(&p.core.refs, 1)
	return &PassThrough{core: p.core}
}

func (p *PassThrough) Release() {
	atomic.AddInt32(&p.core.refs, -1)
}

// GetProperty always reports absent: a pass-through token carries no
// comparable type/scope/policy of its own.
func (p *PassThrough) GetProperty(PropertyID) (string, bool) { return "", false }

// passthroughTTLSeconds mirrors the original's 0x0ffffff-second
// renewal window (about 194 days) used to signal "don't renew".
const passthroughTTLSeconds = 0x0ffffff

func (p *PassThrough) NewToken() (string, time.Duration, error) {
	return p.core.token, passthroughTTLSeconds * time.Second, nil
}
