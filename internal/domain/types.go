package domain

import "crypto/ed25519"

// AgentID is the stable identifier of an agent: the hex SHA-256 of its
// Ed25519 public key.
type AgentID string

// String returns the string form of the agent identifier.
func (id AgentID) String() string { return string(id) }

// SessionID identifies one multi-agent session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// EventType tags an event in an agent's chain.
type EventType string

// Received returns the peer-side variant of a co-signed event type.
func (t EventType) Received() EventType { return t + "_received" }

// Well-known event types stamped by the session coordinator.
const (
	EventSessionStart EventType = "session_start"
	EventSessionEnd   EventType = "session_end"
	EventHandshake    EventType = "handshake"
)

// Role marks which side of a co-signed exchange an event records.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// Identity holds an agent's signing key pair and derived identifier.
// PrivateKey is nil for identities known only by their public half; such
// identities can verify but never sign.
type Identity struct {
	AgentID    AgentID            `json:"agent_id"`
	PublicKey  ed25519.PublicKey  `json:"public_key"`
	PrivateKey ed25519.PrivateKey `json:"private_key,omitempty"`
}

// GenesisHash is the prev_hash of the first event in every chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Event is one signed, hash-linked entry in an agent's chain.
//
// Signature covers the canonical encoding of every other field, so the JSON
// field order here is part of the wire format and must not change.
type Event struct {
	Type            EventType `json:"event_type"`
	Timestamp       int64     `json:"timestamp"`
	AgentID         AgentID   `json:"agent_id"`
	PayloadHash     string    `json:"payload_hash"`
	PrevHash        string    `json:"prev_hash"`
	SessionID       SessionID `json:"session_id,omitempty"`
	PeerAgentID     AgentID   `json:"peer_agent_id,omitempty"`
	PeerSignature   []byte    `json:"peer_signature,omitempty"`
	InteractionHash string    `json:"interaction_hash,omitempty"`
	Role            Role      `json:"role,omitempty"`
	Signature       []byte    `json:"signature"`
}

// HandshakeProposal is the initiator's signed opening message of the
// mutual-authentication exchange.
//
// Field order is the canonical signing encoding; never reorder.
type HandshakeProposal struct {
	InitiatorID        AgentID   `json:"initiator_id"`
	InitiatorPublicKey []byte    `json:"initiator_public_key"`
	SessionID          SessionID `json:"session_id"`
	Nonce              string    `json:"nonce"`
	Timestamp          int64     `json:"timestamp"`
	Signature          []byte    `json:"signature"`
}

// HandshakeRecord pairs the two co-signed events produced by one completed
// handshake, plus the proposal they both answer. The responder's event
// embeds the proposal signature; the initiator's event embeds the
// responder's countersignature. Carrying the proposal keeps both
// embeddings independently verifiable from the record alone.
type HandshakeRecord struct {
	SessionID      SessionID         `json:"session_id"`
	InitiatorID    AgentID           `json:"initiator_id"`
	ResponderID    AgentID           `json:"responder_id"`
	Proposal       HandshakeProposal `json:"proposal"`
	InitiatorEvent Event             `json:"initiator_event"`
	ResponderEvent Event             `json:"responder_event"`
}

// SessionStatus is the linear session lifecycle.
type SessionStatus string

const (
	SessionPending SessionStatus = "pending"
	SessionActive  SessionStatus = "active"
	SessionEnded   SessionStatus = "ended"
)

// SessionAudit is the full export of a session: every member's chain plus
// the handshake records that bind them. Public keys ride along so an audit
// is verifiable on its own; agent ids are key hashes, so the keys are
// self-authenticating.
type SessionAudit struct {
	SessionID  SessionID           `json:"session_id"`
	Status     SessionStatus       `json:"status"`
	StartedAt  int64               `json:"started_at"`
	EndedAt    int64               `json:"ended_at,omitempty"`
	Members    []AgentID           `json:"members"`
	PublicKeys map[AgentID][]byte  `json:"public_keys"`
	Events     map[AgentID][]Event `json:"events"`
	Handshakes []HandshakeRecord   `json:"handshakes"`
}

// SessionSummary is a lightweight view of a session's progress.
type SessionSummary struct {
	SessionID   SessionID         `json:"session_id"`
	Status      SessionStatus     `json:"status"`
	StartedAt   int64             `json:"started_at"`
	Agents      map[AgentID]Agent `json:"agents"`
	Handshakes  int               `json:"handshakes"`
	TotalEvents int               `json:"total_events"`
}

// Agent summarises one member's chain inside a SessionSummary.
type Agent struct {
	EventCount int    `json:"event_count"`
	TailHash   string `json:"tail_hash"`
}
