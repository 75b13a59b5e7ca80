// Package handshake implements the two-message mutual-authentication
// exchange between two agent identities.
//
// The initiator signs a Proposal carrying its public key, the session id
// and a fresh nonce. The responder validates it (signature, session match,
// nonce freshness), countersigns proposal plus its own public key, and
// appends a co-signed event to its chain embedding the initiator's
// signature. The initiator verifies the Response and appends its own
// co-signed event embedding the responder's signature. The two events
// cross-reference each other and form one HandshakeRecord.
//
// The package carries no transport: responders are reached through the
// Responder interface, and LocalResponder adapts an in-process peer.
package handshake
