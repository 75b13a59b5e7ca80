package domain

// ChainStore persists per-agent event chains. Implementations own the file
// layout; the core only needs load and save.
type ChainStore interface {
	SaveChain(id AgentID, events []Event) error
	LoadChain(id AgentID) ([]Event, bool, error)
}

// IdentityStore persists an agent's key pair, encrypted at rest with a
// passphrase.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// AuditStore persists full session audits for later verification.
type AuditStore interface {
	SaveAudit(path string, audit SessionAudit) error
	LoadAudit(path string) (SessionAudit, error)
}
