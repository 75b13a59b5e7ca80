// Package chain implements the per-agent append-only event log.
//
// Every event is signed by the owning identity and linked to its predecessor
// by a SHA-256 hash, so editing or removing any entry invalidates every
// later prev_hash. Appends are serialized per chain; verification is a pure
// walk over the exported events and needs only the owner's public key.
package chain
