package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"piqrypt/internal/domain"
)

// GenerateIdentity returns a fresh Ed25519 key pair with its derived agent id.
func GenerateIdentity() (domain.Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		AgentID:    AgentIDFromPublicKey(pub),
		PublicKey:  pub,
		PrivateKey: priv,
	}, nil
}

// PublicIdentity returns the verify-only view of a public key: the same
// agent id, no private material.
func PublicIdentity(pub ed25519.PublicKey) domain.Identity {
	return domain.Identity{
		AgentID:   AgentIDFromPublicKey(pub),
		PublicKey: pub,
	}
}

// Sign signs msg with the identity's private key.
func Sign(id domain.Identity, msg []byte) ([]byte, error) {
	if len(id.PrivateKey) != ed25519.PrivateKeySize {
		return nil, domain.ErrKeyUnavailable
	}
	return ed25519.Sign(id.PrivateKey, msg), nil
}

// Verify reports whether sig is a valid signature of msg under pub.
// Malformed keys or truncated signatures verify as false, never panic.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// CanSign reports whether the identity holds private key material.
func CanSign(id domain.Identity) bool {
	return len(id.PrivateKey) == ed25519.PrivateKeySize
}
