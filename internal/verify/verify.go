package verify

import (
	"bytes"
	"sort"

	"piqrypt/internal/chain"
	"piqrypt/internal/crypto"
	"piqrypt/internal/domain"
	"piqrypt/internal/protocol/handshake"
)

// Session audits a full exported session: every member chain, the handshake
// cross-references, and the interaction cross-links.
func Session(audit domain.SessionAudit) domain.SessionVerification {
	v := domain.SessionVerification{
		SessionID: audit.SessionID,
		Agents:    make(map[domain.AgentID]domain.ChainResult, len(audit.Members)),
		Errors:    []domain.VerificationError{},
	}

	for _, id := range audit.Members {
		events := audit.Events[id]
		v.EventsTotal += len(events)

		pub, ok := audit.PublicKeys[id]
		if !ok || crypto.AgentIDFromPublicKey(pub) != id {
			// No key, or a key that does not hash to the claimed id: nothing
			// in this chain can be trusted.
			res := domain.ChainResult{BrokenAt: -1, Kind: domain.KindUnknownAgent}
			v.Agents[id] = res
			v.Errors = append(v.Errors, domain.VerificationError{AgentID: id, Index: -1, Kind: domain.KindUnknownAgent})
			continue
		}

		res := chain.Verify(pub, events)
		v.Agents[id] = res
		if !res.OK {
			v.Errors = append(v.Errors, domain.VerificationError{AgentID: id, Index: res.BrokenAt, Kind: res.Kind})
		}
	}

	checkHandshakes(&v, audit)
	checkInteractions(&v, audit)

	v.OK = len(v.Errors) == 0 && v.Forks == 0
	return v
}

// checkHandshakes validates every handshake record: both events must exist
// in their owners' chains, and each embedded peer signature must verify as
// the counterparty's genuine signature over the recorded proposal.
func checkHandshakes(v *domain.SessionVerification, audit domain.SessionAudit) {
	for _, rec := range audit.Handshakes {
		initiatorOK := containsEvent(audit.Events[rec.InitiatorID], rec.InitiatorEvent)
		responderOK := containsEvent(audit.Events[rec.ResponderID], rec.ResponderEvent)
		if !initiatorOK || !responderOK {
			missing := rec.InitiatorID
			if initiatorOK {
				missing = rec.ResponderID
			}
			v.Errors = append(v.Errors, domain.VerificationError{
				AgentID: missing, Index: -1, Kind: domain.KindHandshakeIncomplete,
			})
			continue
		}
		if !cosigned(rec, audit) {
			v.Errors = append(v.Errors, domain.VerificationError{
				AgentID: rec.InitiatorID, Index: -1, Kind: domain.KindSignatureInvalid,
			})
			continue
		}
		v.HandshakesCosigned++
	}

	// Handshake events sitting in a chain with no counterpart on the peer's
	// chain mark an exchange that failed between the two appends.
	for _, id := range audit.Members {
		for i, e := range audit.Events[id] {
			if e.Type != domain.EventHandshake || e.Role != domain.RoleResponder {
				continue
			}
			if !hasHandshakeCounterpart(audit.Events[e.PeerAgentID], id, e.PayloadHash) {
				v.Errors = append(v.Errors, domain.VerificationError{
					AgentID: id, Index: i, Kind: domain.KindHandshakeIncomplete,
				})
			}
		}
	}
}

// cosigned reports whether a handshake record's mutual embeddings hold:
// the responder's event embeds the initiator's genuine proposal signature,
// the initiator's event embeds the responder's genuine countersignature,
// and both events record the digest of this exact proposal.
func cosigned(rec domain.HandshakeRecord, audit domain.SessionAudit) bool {
	p := rec.Proposal
	pubInitiator, okI := audit.PublicKeys[rec.InitiatorID]
	pubResponder, okR := audit.PublicKeys[rec.ResponderID]
	if !okI || !okR {
		return false
	}
	if p.InitiatorID != rec.InitiatorID || p.SessionID != audit.SessionID {
		return false
	}
	digest := handshake.ProposalDigest(p)
	if rec.InitiatorEvent.PayloadHash != digest || rec.ResponderEvent.PayloadHash != digest {
		return false
	}
	if !bytes.Equal(rec.ResponderEvent.PeerSignature, p.Signature) {
		return false
	}
	if !crypto.Verify(pubInitiator, handshake.ProposalSigningBytes(p), rec.ResponderEvent.PeerSignature) {
		return false
	}
	return crypto.Verify(pubResponder, handshake.ResponseSigningBytes(p, pubResponder), rec.InitiatorEvent.PeerSignature)
}

// hasHandshakeCounterpart reports whether events contain an initiator-side
// handshake entry with peer and the same proposal digest.
func hasHandshakeCounterpart(events []domain.Event, peer domain.AgentID, payloadHash string) bool {
	for _, e := range events {
		if e.Type == domain.EventHandshake && e.Role == domain.RoleInitiator &&
			e.PeerAgentID == peer && e.PayloadHash == payloadHash {
			return true
		}
	}
	return false
}

// containsEvent reports whether events contain exactly the given event,
// compared by full event hash.
func containsEvent(events []domain.Event, want domain.Event) bool {
	wantHash := chain.EventHash(want)
	for _, e := range events {
		if chain.EventHash(e) == wantHash {
			return true
		}
	}
	return false
}

// interactionSite is one occurrence of an interaction hash.
type interactionSite struct {
	owner domain.AgentID
	index int
	event domain.Event
}

// checkInteractions groups events by interaction hash and validates each
// group: every occurrence must agree on the participant pair, and a hash
// implying a peer must appear on at least two chains.
func checkInteractions(v *domain.SessionVerification, audit domain.SessionAudit) {
	groups := make(map[string][]interactionSite)
	for _, id := range audit.Members {
		for i, e := range audit.Events[id] {
			if e.InteractionHash == "" {
				continue
			}
			groups[e.InteractionHash] = append(groups[e.InteractionHash], interactionSite{id, i, e})
		}
	}

	for _, sites := range groups {
		owners := make(map[domain.AgentID]bool)
		participants := participantPair(sites[0].event)
		consistent := true
		for _, s := range sites {
			owners[s.owner] = true
			if participantPair(s.event) != participants {
				consistent = false
			}
		}
		if !consistent || (sites[0].event.PeerAgentID != "" && len(owners) < 2) {
			for _, s := range sites {
				v.Errors = append(v.Errors, domain.VerificationError{
					AgentID: s.owner, Index: s.index, Kind: domain.KindDanglingInteraction,
				})
			}
		}
	}
}

// participantPair returns the unordered participant set of an interaction
// event as a stable key.
func participantPair(e domain.Event) string {
	ids := []string{e.AgentID.String(), e.PeerAgentID.String()}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}

// DetectFork compares two chains claiming the same owner and returns the
// first index where they diverge. Two chains fork when both hold an entry
// at some index with different content; one being a prefix of the other is
// not a fork.
func DetectFork(a, b []domain.Event) (int, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if chain.EventHash(a[i]) != chain.EventHash(b[i]) {
			return i, true
		}
	}
	return 0, false
}

// OwnedChain is one claimed (owner, events) snapshot, used when multiple
// exports of the same agent's chain are compared.
type OwnedChain struct {
	Owner  domain.AgentID
	Events []domain.Event
}

// Forks scans a set of chain snapshots and reports a finding for every
// owner with divergent rival chains.
func Forks(chains []OwnedChain) []domain.VerificationError {
	byOwner := make(map[domain.AgentID][][]domain.Event)
	var order []domain.AgentID
	for _, c := range chains {
		if _, seen := byOwner[c.Owner]; !seen {
			order = append(order, c.Owner)
		}
		byOwner[c.Owner] = append(byOwner[c.Owner], c.Events)
	}

	var out []domain.VerificationError
	for _, owner := range order {
		versions := byOwner[owner]
		for i := 0; i < len(versions); i++ {
			for j := i + 1; j < len(versions); j++ {
				if idx, forked := DetectFork(versions[i], versions[j]); forked {
					out = append(out, domain.VerificationError{AgentID: owner, Index: idx, Kind: domain.KindFork})
				}
			}
		}
	}
	return out
}

// Report flattens a verification into the summary shape consumed by
// external tooling.
func Report(v domain.SessionVerification) domain.VerificationReport {
	return domain.VerificationReport{
		Valid:              v.OK,
		Agents:             len(v.Agents),
		HandshakesCosigned: v.HandshakesCosigned,
		EventsTotal:        v.EventsTotal,
		Forks:              v.Forks,
		Errors:             v.Errors,
	}
}
