package chain

import (
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"piqrypt/internal/crypto"
	"piqrypt/internal/domain"
)

// Chain is one agent's ordered, hash-linked event log. A mutex serializes
// appends so the prev_hash linkage can never race; readers get copies.
type Chain struct {
	mu       sync.Mutex
	owner    domain.AgentID
	pub      ed25519.PublicKey
	events   []domain.Event
	tailHash string
}

// New returns an empty chain owned by the given public key.
func New(pub ed25519.PublicKey) *Chain {
	return &Chain{
		owner:    crypto.AgentIDFromPublicKey(pub),
		pub:      pub,
		tailHash: domain.GenesisHash,
	}
}

// Load rebuilds a chain from previously exported events. The events are
// trusted as-is; run Verify to audit them.
func Load(pub ed25519.PublicKey, events []domain.Event) *Chain {
	c := New(pub)
	c.events = append(c.events, events...)
	if n := len(events); n > 0 {
		c.tailHash = EventHash(events[n-1])
	}
	return c
}

// Owner returns the owning agent id.
func (c *Chain) Owner() domain.AgentID { return c.owner }

// PublicKey returns the owner's public key.
func (c *Chain) PublicKey() ed25519.PublicKey { return c.pub }

// Extra carries the optional fields of an appended event.
type Extra struct {
	SessionID       domain.SessionID
	PeerAgentID     domain.AgentID
	PeerSignature   []byte
	InteractionHash string
	Role            domain.Role
}

// Append signs and appends one event, extending the chain by exactly one
// entry. Prior entries are never touched. The identity must own this chain
// and hold private key material.
func (c *Chain) Append(id domain.Identity, t domain.EventType, payloadHash string, extra Extra) (domain.Event, error) {
	if id.AgentID != c.owner {
		return domain.Event{}, fmt.Errorf("append by %s to chain of %s: %w", id.AgentID, c.owner, domain.ErrUnknownAgent)
	}
	if !crypto.CanSign(id) {
		return domain.Event{}, domain.ErrKeyUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := domain.Event{
		Type:            t,
		Timestamp:       time.Now().Unix(),
		AgentID:         c.owner,
		PayloadHash:     payloadHash,
		PrevHash:        c.tailHash,
		SessionID:       extra.SessionID,
		PeerAgentID:     extra.PeerAgentID,
		PeerSignature:   extra.PeerSignature,
		InteractionHash: extra.InteractionHash,
		Role:            extra.Role,
	}
	sig, err := crypto.Sign(id, SigningBytes(e))
	if err != nil {
		return domain.Event{}, err
	}
	e.Signature = sig

	c.events = append(c.events, e)
	c.tailHash = EventHash(e)
	return e, nil
}

// Events returns a copy of the chain's entries in append order.
func (c *Chain) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// TailHash returns the hash of the last entry, or the genesis sentinel for
// an empty chain.
func (c *Chain) TailHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tailHash
}

// Verify walks events in order, checking hash linkage and signatures against
// the owner's public key. It stops at the first failure and reports its
// index and kind. An empty chain is trivially valid.
func Verify(pub ed25519.PublicKey, events []domain.Event) domain.ChainResult {
	owner := crypto.AgentIDFromPublicKey(pub)
	prev := domain.GenesisHash
	for i, e := range events {
		if e.PrevHash != prev {
			return domain.ChainResult{BrokenAt: i, Kind: domain.KindHashMismatch}
		}
		if e.AgentID != owner || !crypto.Verify(pub, SigningBytes(e), e.Signature) {
			return domain.ChainResult{BrokenAt: i, Kind: domain.KindSignatureInvalid}
		}
		prev = EventHash(e)
	}
	return domain.ChainResult{OK: true}
}
