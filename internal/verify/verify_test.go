package verify_test

import (
	"context"
	"testing"

	"piqrypt/internal/chain"
	"piqrypt/internal/crypto"
	"piqrypt/internal/domain"
	"piqrypt/internal/session"
	"piqrypt/internal/verify"
)

// drivenAudit runs a full 3-agent session (start, one co-signed stamp, one
// unilateral stamp, end) and returns its export plus the members.
func drivenAudit(t *testing.T) (domain.SessionAudit, []*session.Member) {
	t.Helper()
	members := make([]*session.Member, 3)
	for i := range members {
		id, err := crypto.GenerateIdentity()
		if err != nil {
			t.Fatalf("GenerateIdentity: %v", err)
		}
		members[i] = session.NewMember(id)
	}
	coord, err := session.New(session.Config{}, members...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := coord.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a, b := members[0].Identity.AgentID, members[1].Identity.AgentID
	if _, err := coord.Stamp(a, "reco_sent", []byte(`{"symbol":"AAPL"}`), b); err != nil {
		t.Fatalf("Stamp co-signed: %v", err)
	}
	if _, err := coord.Stamp(b, "order_executed", []byte(`{"qty":10}`), ""); err != nil {
		t.Fatalf("Stamp unilateral: %v", err)
	}
	if err := coord.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	return coord.Export(), members
}

func TestSession_CleanAuditVerifies(t *testing.T) {
	audit, _ := drivenAudit(t)

	v := verify.Session(audit)
	if !v.OK {
		t.Fatalf("clean audit rejected: %+v", v.Errors)
	}
	rep := verify.Report(v)
	if !rep.Valid || rep.Agents != 3 || rep.HandshakesCosigned != 3 || rep.Forks != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	// 3 x session_start + 6 handshake events + 2 interaction + 1 unilateral
	// + 3 session_end.
	if rep.EventsTotal != 15 {
		t.Fatalf("events_total = %d, want 15", rep.EventsTotal)
	}
	if len(rep.Errors) != 0 {
		t.Fatalf("clean audit produced errors: %+v", rep.Errors)
	}
}

func TestSession_BitFlipWithoutResigning(t *testing.T) {
	audit, _ := drivenAudit(t)

	victim := audit.Members[0]
	events := audit.Events[victim]
	events[2].PayloadHash = flipHexBit(events[2].PayloadHash)

	v := verify.Session(audit)
	if v.OK {
		t.Fatal("tampered audit verified ok")
	}
	found := false
	for _, e := range v.Errors {
		if e.AgentID == victim && e.Index == 2 && e.Kind == domain.KindSignatureInvalid {
			found = true
		}
	}
	if !found {
		t.Fatalf("no signature_invalid at index 2 for %s: %+v", victim, v.Errors)
	}
}

// flipHexBit flips one bit in the first hex digit.
func flipHexBit(s string) string {
	b := []byte(s)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	return string(b)
}

func TestSession_MissingPublicKey(t *testing.T) {
	audit, _ := drivenAudit(t)
	victim := audit.Members[1]
	delete(audit.PublicKeys, victim)

	v := verify.Session(audit)
	if v.OK {
		t.Fatal("audit without a member key verified ok")
	}
	if v.Agents[victim].Kind != domain.KindUnknownAgent {
		t.Fatalf("want unknown_agent for %s, got %+v", victim, v.Agents[victim])
	}
}

func TestSession_SwappedPeerSignatureDetected(t *testing.T) {
	audit, members := drivenAudit(t)

	// Forge the embedded countersignature in a handshake record: replace it
	// with a signature by the wrong key.
	forger := members[2].Identity
	forged, err := crypto.Sign(forger, []byte("not the response"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	audit.Handshakes[0].InitiatorEvent.PeerSignature = forged

	v := verify.Session(audit)
	if v.HandshakesCosigned != 2 {
		t.Fatalf("cosigned = %d, want 2 after forging one record", v.HandshakesCosigned)
	}
	if v.OK {
		t.Fatal("forged handshake record verified ok")
	}
}

func TestSession_OneSidedHandshakeReported(t *testing.T) {
	audit, _ := drivenAudit(t)

	// Drop the initiator's chain copy of a handshake event. The record's
	// event no longer exists in the owner's chain.
	rec := audit.Handshakes[0]
	events := audit.Events[rec.InitiatorID]
	kept := events[:0:0]
	for _, e := range events {
		if chain.EventHash(e) != chain.EventHash(rec.InitiatorEvent) {
			kept = append(kept, e)
		}
	}
	audit.Events[rec.InitiatorID] = kept

	v := verify.Session(audit)
	if v.OK {
		t.Fatal("one-sided handshake verified ok")
	}
	foundIncomplete := false
	for _, e := range v.Errors {
		if e.Kind == domain.KindHandshakeIncomplete {
			foundIncomplete = true
		}
	}
	if !foundIncomplete {
		t.Fatalf("no handshake_incomplete finding: %+v", v.Errors)
	}
}

func TestSession_DanglingInteraction(t *testing.T) {
	audit, _ := drivenAudit(t)

	// Remove the peer's "_received" copy of the co-signed interaction.
	var owner domain.AgentID
	for _, id := range audit.Members {
		kept := audit.Events[id][:0:0]
		for _, e := range audit.Events[id] {
			if e.InteractionHash != "" && e.Role == domain.RoleResponder && e.Type != domain.EventHandshake {
				owner = id
				continue
			}
			kept = append(kept, e)
		}
		audit.Events[id] = kept
	}
	if owner == "" {
		t.Fatal("no received-side interaction event found to drop")
	}

	v := verify.Session(audit)
	if v.OK {
		t.Fatal("dangling interaction verified ok")
	}
	found := false
	for _, e := range v.Errors {
		if e.Kind == domain.KindDanglingInteraction {
			found = true
		}
	}
	if !found {
		t.Fatalf("no dangling_interaction finding: %+v", v.Errors)
	}
}

func TestSession_MismatchedParticipantsDetected(t *testing.T) {
	audit, _ := drivenAudit(t)

	// Rewrite the peer id on one side of the interaction pair.
	for _, id := range audit.Members {
		events := audit.Events[id]
		for i := range events {
			if events[i].InteractionHash != "" && events[i].Type != domain.EventHandshake && events[i].Role == domain.RoleInitiator {
				events[i].PeerAgentID = "someone-else"
			}
		}
	}

	v := verify.Session(audit)
	if v.OK {
		t.Fatal("mismatched interaction participants verified ok")
	}
}

func TestDetectFork(t *testing.T) {
	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	c := chain.New(id.PublicKey)
	for i := 0; i < 3; i++ {
		if _, err := c.Append(id, "action", crypto.SHA256Hex([]byte{byte(i)}), chain.Extra{}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	honest := c.Events()

	// A prefix is not a fork.
	if _, forked := verify.DetectFork(honest, honest[:2]); forked {
		t.Fatal("prefix flagged as fork")
	}

	// Rewriting history from index 1 is.
	rival := chain.New(id.PublicKey)
	if _, err := rival.Append(id, "action", honest[0].PayloadHash, chain.Extra{}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := rival.Append(id, "action", crypto.SHA256Hex([]byte("rewritten")), chain.Extra{}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	idx, forked := verify.DetectFork(honest, rival.Events())
	if !forked {
		t.Fatal("divergent chains not flagged")
	}
	// Timestamps may differ even at index 0; the fork is at the first
	// differing entry, which is 0 or later but never past 1.
	if idx > 1 {
		t.Fatalf("fork index = %d, want <= 1", idx)
	}

	findings := verify.Forks([]verify.OwnedChain{
		{Owner: id.AgentID, Events: honest},
		{Owner: id.AgentID, Events: rival.Events()},
	})
	if len(findings) != 1 || findings[0].Kind != domain.KindFork {
		t.Fatalf("want one fork finding, got %+v", findings)
	}
}
