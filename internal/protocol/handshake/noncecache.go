package handshake

import (
	"sync"

	"piqrypt/internal/domain"
)

// DefaultNonceCapacity bounds the seen-nonce cache when no capacity is
// configured.
const DefaultNonceCapacity = 1024

// NonceCache remembers recently seen (peer, nonce) pairs to reject replayed
// proposals. It is bounded: once full, the oldest entry is evicted, so
// retention is a sliding window rather than forever.
type NonceCache struct {
	mu    sync.Mutex
	cap   int
	seen  map[string]struct{}
	order []string
}

// NewNonceCache returns a cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultNonceCapacity.
func NewNonceCache(capacity int) *NonceCache {
	if capacity <= 0 {
		capacity = DefaultNonceCapacity
	}
	return &NonceCache{
		cap:  capacity,
		seen: make(map[string]struct{}, capacity),
	}
}

// Observe records the pair and reports whether it was already present.
func (c *NonceCache) Observe(peer domain.AgentID, nonce string) (replayed bool) {
	key := string(peer) + ":" + nonce

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return true
	}
	if len(c.order) == c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	return false
}
