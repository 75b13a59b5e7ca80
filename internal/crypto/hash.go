package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"

	"piqrypt/internal/domain"
)

// SHA256Hex returns the hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AgentIDFromPublicKey derives the stable agent identifier from an Ed25519
// public key. Identical keys always map to identical ids.
func AgentIDFromPublicKey(pub ed25519.PublicKey) domain.AgentID {
	return domain.AgentID(SHA256Hex(pub))
}

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}
