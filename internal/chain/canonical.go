package chain

import (
	"encoding/json"

	"piqrypt/internal/crypto"
	"piqrypt/internal/domain"
)

// signingEvent mirrors domain.Event minus the signature. Field order is the
// canonical encoding, so signature verification is reproducible across
// implementations; never reorder these.
type signingEvent struct {
	Type            domain.EventType `json:"event_type"`
	Timestamp       int64            `json:"timestamp"`
	AgentID         domain.AgentID   `json:"agent_id"`
	PayloadHash     string           `json:"payload_hash"`
	PrevHash        string           `json:"prev_hash"`
	SessionID       domain.SessionID `json:"session_id,omitempty"`
	PeerAgentID     domain.AgentID   `json:"peer_agent_id,omitempty"`
	PeerSignature   []byte           `json:"peer_signature,omitempty"`
	InteractionHash string           `json:"interaction_hash,omitempty"`
	Role            domain.Role      `json:"role,omitempty"`
}

// SigningBytes returns the canonical encoding of e that Signature covers.
func SigningBytes(e domain.Event) []byte {
	b, err := json.Marshal(signingEvent{
		Type:            e.Type,
		Timestamp:       e.Timestamp,
		AgentID:         e.AgentID,
		PayloadHash:     e.PayloadHash,
		PrevHash:        e.PrevHash,
		SessionID:       e.SessionID,
		PeerAgentID:     e.PeerAgentID,
		PeerSignature:   e.PeerSignature,
		InteractionHash: e.InteractionHash,
		Role:            e.Role,
	})
	if err != nil {
		// A fixed struct of scalars and byte slices cannot fail to marshal.
		panic("chain: canonical encoding failed: " + err.Error())
	}
	return b
}

// EventHash returns the hex SHA-256 of the full event, signature included.
// This is the value the next event records as prev_hash.
func EventHash(e domain.Event) string {
	b, err := json.Marshal(e)
	if err != nil {
		panic("chain: event encoding failed: " + err.Error())
	}
	return crypto.SHA256Hex(b)
}
