// Package crypto exposes the minimal primitives used by piqrypt.
//
// Contents
//
//   - Ed25519 key generation, signing and verification (GenerateIdentity,
//     Sign, Verify)
//   - Agent identifiers derived from public keys (AgentIDFromPublicKey)
//   - SHA-256 digests in hex form (SHA256Hex) and short fingerprints for
//     display/logging (Fingerprint)
//
// # Notes
//
// Signing operates on domain.Identity values so callers never touch raw key
// material directly. Callers should treat private keys as sensitive and rely
// on memzero when practical to reduce lifetime in memory.
package crypto
