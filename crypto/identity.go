// Package crypto implements the Nodalync cryptographic primitives
// (§4.1): Ed25519 identities, deterministic signing, BLAKE3 content
// addressing, and peer-id derivation. All functions here are pure and
// synchronous — none perform I/O and none may be cancelled mid-call
// (§5).
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"nodalync.dev/core/types"
)

// Identity is a generated or loaded Ed25519 keypair.
type Identity struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// GenerateIdentity creates a fresh random Ed25519 keypair.
func GenerateIdentity() (Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, fmt.Errorf("crypto: generate identity: %w", err)
	}
	return Identity{Private: priv, Public: pub}, nil
}

// IdentityFromSeed deterministically derives an identity from a
// 32-byte seed. Used by tests that need stable fixtures.
func IdentityFromSeed(seed []byte) (Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return Identity{}, fmt.Errorf("crypto: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Identity{Private: priv, Public: priv.Public().(ed25519.PublicKey)}, nil
}

// PeerID derives this identity's protocol PeerId.
func (id Identity) PeerID() types.PeerId {
	return PeerIDFromPublicKey(id.Public)
}

// Sign produces a deterministic Ed25519 signature over msg.
func (id Identity) Sign(msg []byte) types.Signature {
	return Sign(id.Private, msg)
}

// Sign is the free-function form of Identity.Sign, for callers that
// only hold a raw private key (e.g. loaded from a keystore).
func Sign(priv ed25519.PrivateKey, msg []byte) types.Signature {
	sig := ed25519.Sign(priv, msg)
	var out types.Signature
	copy(out[:], sig)
	return out
}

// Verify checks sig over msg under pub. It never panics: malformed or
// truncated keys/signatures simply fail verification (§4.1).
func Verify(pub ed25519.PublicKey, msg []byte, sig types.Signature) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig[:])
}

// PeerIDFromPublicKey hashes and truncates pub into a 20-byte PeerId
// (§3 "PeerId"), mirroring how a content hash truncates down in
// consensus key-binding checks elsewhere in the ecosystem.
func PeerIDFromPublicKey(pub ed25519.PublicKey) types.PeerId {
	digest := ContentHash(pub)
	var id types.PeerId
	copy(id[:], digest[:len(id)])
	return id
}
