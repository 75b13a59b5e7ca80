package handshake

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"piqrypt/internal/chain"
	"piqrypt/internal/crypto"
	"piqrypt/internal/domain"
)

// Response is the responder's countersigned answer. Signature covers the
// full proposal (signature included) concatenated with the responder's
// public key, and Event is the co-signed entry the responder appended to
// its own chain.
type Response struct {
	ResponderID        domain.AgentID `json:"responder_id"`
	ResponderPublicKey []byte         `json:"responder_public_key"`
	Signature          []byte         `json:"signature"`
	Event              domain.Event   `json:"event"`
}

// Responder answers handshake proposals. Implementations append their
// co-signed event before returning; a transport adapter implementing this
// interface lives outside the core.
type Responder interface {
	Respond(ctx context.Context, p domain.HandshakeProposal) (Response, error)
}

// NewProposal builds and signs a proposal for the given session with a
// fresh random nonce.
func NewProposal(id domain.Identity, sessionID domain.SessionID, now int64) (domain.HandshakeProposal, error) {
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return domain.HandshakeProposal{}, err
	}
	p := domain.HandshakeProposal{
		InitiatorID:        id.AgentID,
		InitiatorPublicKey: id.PublicKey,
		SessionID:          sessionID,
		Nonce:              hex.EncodeToString(nonce[:]),
		Timestamp:          now,
	}
	sig, err := crypto.Sign(id, ProposalSigningBytes(p))
	if err != nil {
		return domain.HandshakeProposal{}, err
	}
	p.Signature = sig
	return p, nil
}

// ProposalSigningBytes returns the canonical encoding of p that the
// initiator's signature covers.
func ProposalSigningBytes(p domain.HandshakeProposal) []byte {
	p.Signature = nil
	b, err := json.Marshal(p)
	if err != nil {
		panic("handshake: proposal encoding failed: " + err.Error())
	}
	return b
}

// ResponseSigningBytes returns what the responder countersigns: the full
// proposal, signature included, followed by the responder's public key.
func ResponseSigningBytes(p domain.HandshakeProposal, responderPub []byte) []byte {
	b, err := json.Marshal(p)
	if err != nil {
		panic("handshake: proposal encoding failed: " + err.Error())
	}
	return append(b, responderPub...)
}

// ProposalDigest is the payload hash shared by both sides' handshake
// events: the hash of the full signed proposal.
func ProposalDigest(p domain.HandshakeProposal) string {
	b, err := json.Marshal(p)
	if err != nil {
		panic("handshake: proposal encoding failed: " + err.Error())
	}
	return crypto.SHA256Hex(b)
}

// VerifyProposal checks the proposal signature against its claimed public
// key and the id binding between key and agent id.
func VerifyProposal(p domain.HandshakeProposal) error {
	if crypto.AgentIDFromPublicKey(p.InitiatorPublicKey) != p.InitiatorID {
		return fmt.Errorf("proposal id does not match public key: %w", domain.ErrSignatureInvalid)
	}
	if !crypto.Verify(p.InitiatorPublicKey, ProposalSigningBytes(p), p.Signature) {
		return fmt.Errorf("proposal signature: %w", domain.ErrSignatureInvalid)
	}
	return nil
}

// LocalResponder answers proposals for an in-process identity. One responder
// serves one pending session; its nonce cache rejects replayed proposals.
type LocalResponder struct {
	id      domain.Identity
	chain   *chain.Chain
	session domain.SessionID
	nonces  *NonceCache
}

// NewLocalResponder builds a responder for the identity's pending session.
// A nil cache gets a fresh one with the default capacity.
func NewLocalResponder(id domain.Identity, c *chain.Chain, sessionID domain.SessionID, nonces *NonceCache) *LocalResponder {
	if nonces == nil {
		nonces = NewNonceCache(0)
	}
	return &LocalResponder{id: id, chain: c, session: sessionID, nonces: nonces}
}

var _ Responder = (*LocalResponder)(nil)

// Respond validates the proposal, appends the responder-side co-signed
// event, and returns the countersigned response. Every rejection happens
// before the chain is touched.
func (r *LocalResponder) Respond(ctx context.Context, p domain.HandshakeProposal) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if err := VerifyProposal(p); err != nil {
		return Response{}, err
	}
	if p.SessionID != r.session {
		return Response{}, fmt.Errorf("proposal for %s, pending session is %s: %w",
			p.SessionID, r.session, domain.ErrSessionMismatch)
	}
	if r.nonces.Observe(p.InitiatorID, p.Nonce) {
		return Response{}, domain.ErrNonceReplay
	}

	sig, err := crypto.Sign(r.id, ResponseSigningBytes(p, r.id.PublicKey))
	if err != nil {
		return Response{}, err
	}
	event, err := r.chain.Append(r.id, domain.EventHandshake, ProposalDigest(p), chain.Extra{
		SessionID:     p.SessionID,
		PeerAgentID:   p.InitiatorID,
		PeerSignature: p.Signature,
		Role:          domain.RoleResponder,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{
		ResponderID:        r.id.AgentID,
		ResponderPublicKey: r.id.PublicKey,
		Signature:          sig,
		Event:              event,
	}, nil
}

// Complete verifies the response and appends the initiator-side co-signed
// event embedding the responder's countersignature. On any failure the
// initiator's chain is left unmodified.
func Complete(id domain.Identity, c *chain.Chain, p domain.HandshakeProposal, resp Response) (domain.Event, error) {
	if crypto.AgentIDFromPublicKey(ed25519.PublicKey(resp.ResponderPublicKey)) != resp.ResponderID {
		return domain.Event{}, fmt.Errorf("response id does not match public key: %w", domain.ErrSignatureInvalid)
	}
	if !crypto.Verify(resp.ResponderPublicKey, ResponseSigningBytes(p, resp.ResponderPublicKey), resp.Signature) {
		return domain.Event{}, fmt.Errorf("response signature: %w", domain.ErrSignatureInvalid)
	}
	return c.Append(id, domain.EventHandshake, ProposalDigest(p), chain.Extra{
		SessionID:     p.SessionID,
		PeerAgentID:   resp.ResponderID,
		PeerSignature: resp.Signature,
		Role:          domain.RoleInitiator,
	})
}

// Perform runs the full exchange from the initiator's side. It blocks on
// the responder up to the context deadline; on timeout or rejection the
// initiator's chain is untouched (both initiator steps happen or neither
// does).
func Perform(ctx context.Context, id domain.Identity, c *chain.Chain, r Responder, sessionID domain.SessionID, now int64) (domain.HandshakeRecord, error) {
	p, err := NewProposal(id, sessionID, now)
	if err != nil {
		return domain.HandshakeRecord{}, err
	}

	type result struct {
		resp Response
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := r.Respond(ctx, p)
		ch <- result{resp, err}
	}()

	var resp Response
	select {
	case <-ctx.Done():
		return domain.HandshakeRecord{}, fmt.Errorf("awaiting response from responder: %w", domain.ErrHandshakeTimeout)
	case res := <-ch:
		if res.err != nil {
			return domain.HandshakeRecord{}, res.err
		}
		resp = res.resp
	}

	event, err := Complete(id, c, p, resp)
	if err != nil {
		return domain.HandshakeRecord{}, err
	}
	return domain.HandshakeRecord{
		SessionID:      sessionID,
		InitiatorID:    id.AgentID,
		ResponderID:    resp.ResponderID,
		Proposal:       p,
		InitiatorEvent: event,
		ResponderEvent: resp.Event,
	}, nil
}
