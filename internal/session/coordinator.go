package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"piqrypt/internal/chain"
	"piqrypt/internal/crypto"
	"piqrypt/internal/domain"
	"piqrypt/internal/protocol/handshake"
)

// DefaultHandshakeTimeout bounds each pairwise handshake during Start.
const DefaultHandshakeTimeout = 10 * time.Second

// Config tunes a coordinator. The zero value works: Nop logger, default
// timeout, default nonce cache capacity.
type Config struct {
	HandshakeTimeout time.Duration
	NonceCapacity    int
	Logger           zerolog.Logger
}

// Member is one session participant: an identity plus its exclusively-owned
// chain.
type Member struct {
	Identity domain.Identity
	Chain    *chain.Chain

	nonces *handshake.NonceCache
}

// NewMember builds a member with a fresh empty chain.
func NewMember(id domain.Identity) *Member {
	return &Member{Identity: id, Chain: chain.New(id.PublicKey)}
}

// NewMemberWithChain builds a member around an existing chain, for agents
// whose log predates the session.
func NewMemberWithChain(id domain.Identity, c *chain.Chain) *Member {
	return &Member{Identity: id, Chain: c}
}

// pairKey orders two ids so each unordered pair has one key.
func pairKey(a, b domain.AgentID) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}

// Coordinator drives one session through Pending → Active → Ended.
type Coordinator struct {
	// mu guards the lifecycle fields; each member chain carries its own
	// lock for appends. mu is released while handshakes are in flight so
	// concurrent Stamp calls fail fast with ErrSessionNotReady instead of
	// blocking on Start.
	mu         sync.Mutex
	id         domain.SessionID
	members    []*Member
	byID       map[domain.AgentID]*Member
	handshakes []domain.HandshakeRecord
	donePairs  map[string]bool
	starting   bool
	status     domain.SessionStatus
	startedAt  int64
	endedAt    int64
	cfg        Config
	log        zerolog.Logger
}

// New creates a pending session over the given members. At least two
// members with signing-capable identities are required.
func New(cfg Config, members ...*Member) (*Coordinator, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("session needs at least 2 members, got %d", len(members))
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}

	byID := make(map[domain.AgentID]*Member, len(members))
	for _, m := range members {
		if !crypto.CanSign(m.Identity) {
			return nil, fmt.Errorf("member %s: %w", m.Identity.AgentID, domain.ErrKeyUnavailable)
		}
		if _, dup := byID[m.Identity.AgentID]; dup {
			return nil, fmt.Errorf("member %s listed twice", m.Identity.AgentID)
		}
		m.nonces = handshake.NewNonceCache(cfg.NonceCapacity)
		byID[m.Identity.AgentID] = m
	}

	return &Coordinator{
		id:        domain.SessionID("sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
		members:   members,
		byID:      byID,
		donePairs: make(map[string]bool),
		status:    domain.SessionPending,
		cfg:       cfg,
		log:       cfg.Logger.With().Str("session", "coordinator").Logger(),
	}, nil
}

// ID returns the session identifier.
func (c *Coordinator) ID() domain.SessionID { return c.id }

// Status returns the current lifecycle state.
func (c *Coordinator) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Members returns the member ids in declaration order.
func (c *Coordinator) Members() []domain.AgentID {
	out := make([]domain.AgentID, len(c.members))
	for i, m := range c.members {
		out[i] = m.Identity.AgentID
	}
	return out
}

// Start stamps session_start on every chain, then performs the handshake
// protocol for every unordered pair exactly once. Pairs run concurrently;
// they are disjoint, so per-chain locking is the only discipline needed.
//
// The session becomes active only after every pair has completed. On error
// or cancellation it stays pending with the completed subset recorded, and
// a later Start picks up the remaining pairs.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.status == domain.SessionActive || c.starting:
		c.mu.Unlock()
		return domain.ErrSessionAlreadyStarted
	case c.status == domain.SessionEnded:
		c.mu.Unlock()
		return domain.ErrSessionAlreadyEnded
	}
	c.starting = true

	if c.startedAt == 0 {
		c.startedAt = time.Now().Unix()
		if err := c.stampStart(); err != nil {
			c.starting = false
			c.mu.Unlock()
			return err
		}
	}

	type pair struct{ a, b *Member }
	var pending []pair
	for i := 0; i < len(c.members); i++ {
		for j := i + 1; j < len(c.members); j++ {
			if !c.donePairs[pairKey(c.members[i].Identity.AgentID, c.members[j].Identity.AgentID)] {
				pending = append(pending, pair{c.members[i], c.members[j]})
			}
		}
	}
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	records := make(chan domain.HandshakeRecord, len(pending))
	for _, p := range pending {
		p := p
		g.Go(func() error {
			hctx, cancel := context.WithTimeout(gctx, c.cfg.HandshakeTimeout)
			defer cancel()

			responder := handshake.NewLocalResponder(p.b.Identity, p.b.Chain, c.id, p.b.nonces)
			rec, err := handshake.Perform(hctx, p.a.Identity, p.a.Chain, responder, c.id, time.Now().Unix())
			if err != nil {
				return fmt.Errorf("handshake %s-%s: %w",
					crypto.Fingerprint(p.a.Identity.PublicKey), crypto.Fingerprint(p.b.Identity.PublicKey), err)
			}
			records <- rec
			return nil
		})
	}
	err := g.Wait()
	close(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false
	for rec := range records {
		c.handshakes = append(c.handshakes, rec)
		c.donePairs[pairKey(rec.InitiatorID, rec.ResponderID)] = true
		c.log.Info().
			Str("initiator", rec.InitiatorID.String()).
			Str("responder", rec.ResponderID.String()).
			Msg("handshake co-signed")
	}
	if err != nil {
		c.log.Warn().Err(err).Int("completed", len(c.handshakes)).Msg("session start incomplete")
		return err
	}

	c.status = domain.SessionActive
	c.log.Info().
		Str("session_id", c.id.String()).
		Int("agents", len(c.members)).
		Int("handshakes", len(c.handshakes)).
		Msg("session active")
	return nil
}

// stampStart appends session_start to every member chain.
func (c *Coordinator) stampStart() error {
	participants := c.Members()
	payload, err := json.Marshal(struct {
		Participants []domain.AgentID `json:"participants"`
		AgentCount   int              `json:"agent_count"`
	}{participants, len(participants)})
	if err != nil {
		return err
	}
	hash := crypto.SHA256Hex(payload)
	for _, m := range c.members {
		if _, err := m.Chain.Append(m.Identity, domain.EventSessionStart, hash, chain.Extra{SessionID: c.id}); err != nil {
			return fmt.Errorf("stamping session_start for %s: %w", m.Identity.AgentID, err)
		}
	}
	return nil
}

// InteractionHash derives the link value shared by the two chains recording
// one logical interaction. It depends only on the payload hash, the
// unordered participant pair and the session id.
func InteractionHash(payloadHash string, a, b domain.AgentID, sessionID domain.SessionID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return crypto.SHA256Hex([]byte(payloadHash + ":" + ids[0] + ":" + ids[1] + ":" + sessionID.String()))
}

// Stamp records an interaction event for agent. The payload itself is never
// stored, only its hash. With a peer, a matching event lands on the peer's
// chain: same interaction hash, the "_received" type variant, and the
// initiating event's signature embedded. An empty peer stamps a single
// unilateral event.
//
// All rejections happen before any chain mutation.
func (c *Coordinator) Stamp(agent domain.AgentID, t domain.EventType, payload []byte, peer domain.AgentID) (domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case domain.SessionPending:
		if len(c.donePairs) < len(c.members)*(len(c.members)-1)/2 {
			return domain.Event{}, domain.ErrSessionNotReady
		}
		return domain.Event{}, domain.ErrSessionNotActive
	case domain.SessionEnded:
		return domain.Event{}, domain.ErrSessionNotActive
	}

	m, ok := c.byID[agent]
	if !ok {
		return domain.Event{}, fmt.Errorf("agent %s: %w", agent, domain.ErrUnknownAgent)
	}
	payloadHash := crypto.SHA256Hex(payload)

	if peer == "" {
		return m.Chain.Append(m.Identity, t, payloadHash, chain.Extra{SessionID: c.id})
	}

	pm, ok := c.byID[peer]
	if !ok {
		return domain.Event{}, fmt.Errorf("peer %s: %w", peer, domain.ErrUnknownAgent)
	}
	if peer == agent {
		return domain.Event{}, fmt.Errorf("agent %s stamping itself as peer: %w", agent, domain.ErrUnknownAgent)
	}

	ih := InteractionHash(payloadHash, agent, peer, c.id)
	event, err := m.Chain.Append(m.Identity, t, payloadHash, chain.Extra{
		SessionID:       c.id,
		PeerAgentID:     peer,
		InteractionHash: ih,
		Role:            domain.RoleInitiator,
	})
	if err != nil {
		return domain.Event{}, err
	}
	if _, err := pm.Chain.Append(pm.Identity, t.Received(), payloadHash, chain.Extra{
		SessionID:       c.id,
		PeerAgentID:     agent,
		PeerSignature:   event.Signature,
		InteractionHash: ih,
		Role:            domain.RoleResponder,
	}); err != nil {
		return domain.Event{}, fmt.Errorf("stamping peer side for %s: %w", peer, err)
	}

	c.log.Debug().
		Str("agent", agent.String()).
		Str("event_type", string(t)).
		Str("interaction", ih).
		Msg("co-signed stamp")
	return event, nil
}

// End stamps session_end on every member chain and closes the session.
func (c *Coordinator) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case domain.SessionPending:
		return domain.ErrSessionNotActive
	case domain.SessionEnded:
		return domain.ErrSessionAlreadyEnded
	}

	c.endedAt = time.Now().Unix()
	payload, err := json.Marshal(struct {
		DurationSeconds int64 `json:"duration_seconds"`
		TotalEvents     int   `json:"total_events"`
	}{c.endedAt - c.startedAt, c.totalEvents()})
	if err != nil {
		return err
	}
	hash := crypto.SHA256Hex(payload)
	for _, m := range c.members {
		if _, err := m.Chain.Append(m.Identity, domain.EventSessionEnd, hash, chain.Extra{SessionID: c.id}); err != nil {
			return fmt.Errorf("stamping session_end for %s: %w", m.Identity.AgentID, err)
		}
	}

	c.status = domain.SessionEnded
	c.log.Info().
		Str("session_id", c.id.String()).
		Int64("duration_seconds", c.endedAt-c.startedAt).
		Msg("session ended")
	return nil
}

func (c *Coordinator) totalEvents() int {
	n := 0
	for _, m := range c.members {
		n += m.Chain.Len()
	}
	return n
}

// Export returns the full session audit: every member's chain, public keys,
// and handshake records. Pure read, valid in any state.
func (c *Coordinator) Export() domain.SessionAudit {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make(map[domain.AgentID][]domain.Event, len(c.members))
	keys := make(map[domain.AgentID][]byte, len(c.members))
	for _, m := range c.members {
		events[m.Identity.AgentID] = m.Chain.Events()
		keys[m.Identity.AgentID] = m.Identity.PublicKey
	}
	handshakes := make([]domain.HandshakeRecord, len(c.handshakes))
	copy(handshakes, c.handshakes)

	return domain.SessionAudit{
		SessionID:  c.id,
		Status:     c.status,
		StartedAt:  c.startedAt,
		EndedAt:    c.endedAt,
		Members:    c.Members(),
		PublicKeys: keys,
		Events:     events,
		Handshakes: handshakes,
	}
}

// Summary reports per-agent progress without copying whole chains.
func (c *Coordinator) Summary() domain.SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	agents := make(map[domain.AgentID]domain.Agent, len(c.members))
	for _, m := range c.members {
		agents[m.Identity.AgentID] = domain.Agent{
			EventCount: m.Chain.Len(),
			TailHash:   m.Chain.TailHash(),
		}
	}
	return domain.SessionSummary{
		SessionID:   c.id,
		Status:      c.status,
		StartedAt:   c.startedAt,
		Agents:      agents,
		Handshakes:  len(c.handshakes),
		TotalEvents: c.totalEvents(),
	}
}
