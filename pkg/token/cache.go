package token

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spiral/errors"

	"github.com/prxmesh/prxcore/pkg/perr"
)

// cacheEntry is a minted token and the instant it actually expires on
// the wire (not the 80%-ttl renewal point callers are told about).
type cacheEntry struct {
	token     string
	expiresAt time.Time
}

// Cache reuses still-fresh SAS tokens keyed by scope+policy, sparing
// a HMAC round trip through the credential store on every renewal
// check.
type Cache struct {
	lru *lru.Cache[string, cacheEntry]
}

// NewCache creates a bounded token cache holding up to size entries.
func NewCache(size int) (*Cache, error) {
	const op = errors.Op("token: new cache")
	l, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, errors.E(op, perr.ErrOutOfMemory, err)
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached token for key and how long it remains valid,
// or ok=false if absent or already past its actual wire expiry.
func (c *Cache) Get(key string) (token string, remaining time.Duration, ok bool) {
	e, found := c.lru.Get(key)
	if !found {
		return "", 0, false
	}
	remaining = time.Until(e.expiresAt)
	if remaining <= 0 {
		c.lru.Remove(key)
		return "", 0, false
	}
	return e.token, remaining, true
}

// Put stores tok under key, valid until expiresAt.
func (c *Cache) Put(key, tok string, expiresAt time.Time) {
	c.lru.Add(key, cacheEntry{token: tok, expiresAt: expiresAt})
}
