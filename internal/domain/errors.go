package domain

import "errors"

// Cryptographic and structural failures. These surface from verification and
// are never recovered silently.
var (
	ErrKeyUnavailable   = errors.New("piqrypt: private key unavailable")
	ErrSignatureInvalid = errors.New("piqrypt: signature invalid")
	ErrHashMismatch     = errors.New("piqrypt: chain hash mismatch")
	ErrFork             = errors.New("piqrypt: fork detected")
)

// Protocol failures. These abort a single handshake attempt without touching
// either party's chain; retry is the caller's decision.
var (
	ErrNonceReplay         = errors.New("piqrypt: handshake nonce replayed")
	ErrSessionMismatch     = errors.New("piqrypt: handshake session mismatch")
	ErrHandshakeTimeout    = errors.New("piqrypt: handshake timed out")
	ErrHandshakeIncomplete = errors.New("piqrypt: handshake incomplete")
)

// Session lifecycle misuse. Rejected synchronously before any chain mutation.
var (
	ErrSessionNotReady       = errors.New("piqrypt: session handshakes not complete")
	ErrSessionNotActive      = errors.New("piqrypt: session not active")
	ErrSessionAlreadyStarted = errors.New("piqrypt: session already started")
	ErrSessionAlreadyEnded   = errors.New("piqrypt: session already ended")
	ErrUnknownAgent          = errors.New("piqrypt: agent not a session member")
	ErrDanglingInteraction   = errors.New("piqrypt: interaction recorded on one chain only")
)

// ErrorKind classifies a verification finding.
type ErrorKind string

const (
	KindHashMismatch        ErrorKind = "hash_mismatch"
	KindSignatureInvalid    ErrorKind = "signature_invalid"
	KindFork                ErrorKind = "fork"
	KindHandshakeIncomplete ErrorKind = "handshake_incomplete"
	KindDanglingInteraction ErrorKind = "dangling_interaction"
	KindUnknownAgent        ErrorKind = "unknown_agent"
)

// ChainResult reports the integrity of a single chain. BrokenAt and Kind are
// meaningful only when OK is false; BrokenAt is the index of the first
// failing event.
type ChainResult struct {
	OK       bool      `json:"ok"`
	BrokenAt int       `json:"broken_at,omitempty"`
	Kind     ErrorKind `json:"kind,omitempty"`
}

// VerificationError locates one finding inside a session verification.
// Index is -1 when the finding is not tied to a specific event.
type VerificationError struct {
	AgentID AgentID   `json:"agent_id"`
	Index   int       `json:"index"`
	Kind    ErrorKind `json:"kind"`
}

// SessionVerification is the detailed outcome of auditing a full session.
type SessionVerification struct {
	SessionID          SessionID               `json:"session_id"`
	Agents             map[AgentID]ChainResult `json:"agents"`
	HandshakesCosigned int                     `json:"handshakes_cosigned"`
	EventsTotal        int                     `json:"events_total"`
	Forks              int                     `json:"forks"`
	Errors             []VerificationError     `json:"errors"`
	OK                 bool                    `json:"ok"`
}

// VerificationReport is the flat summary consumed by external tooling.
type VerificationReport struct {
	Valid              bool                `json:"valid"`
	Agents             int                 `json:"agents"`
	HandshakesCosigned int                 `json:"handshakes_cosigned"`
	EventsTotal        int                 `json:"events_total"`
	Forks              int                 `json:"forks"`
	Errors             []VerificationError `json:"errors"`
}
