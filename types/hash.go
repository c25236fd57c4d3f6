// Package types defines the Nodalync data model: content addressing,
// manifests, provenance, channels, payments, and settlement records.
package types

import (
	"encoding/hex"
	"fmt"
)

// Hash is a 32-byte content address, computed by crypto.ContentHash.
type Hash [32]byte

// ZeroHash is the well-known absent-hash sentinel.
var ZeroHash = Hash{}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Less orders hashes by their big-endian byte value. Used wherever the
// spec requires a deterministic, caller-order-independent ordering
// (e.g. revenue splitter). Merkle batching uses insertion order, not
// this ordering.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("hash: %w", err)
	}
	if len(b) != len(Hash{}) {
		return Hash{}, fmt.Errorf("hash: expected %d bytes, got %d", len(Hash{}), len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	v, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// PeerId is a 20-byte peer identifier derived from an Ed25519 public key.
type PeerId [20]byte

// UnknownPeer is the sentinel denoting "unknown peer" (§3).
var UnknownPeer = PeerId{}

func (p PeerId) String() string {
	return hex.EncodeToString(p[:])
}

func (p PeerId) IsUnknown() bool {
	return p == UnknownPeer
}

func PeerIdFromHex(s string) (PeerId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PeerId{}, fmt.Errorf("peer id: %w", err)
	}
	if len(b) != len(PeerId{}) {
		return PeerId{}, fmt.Errorf("peer id: expected %d bytes, got %d", len(PeerId{}), len(b))
	}
	var p PeerId
	copy(p[:], b)
	return p, nil
}

func (p PeerId) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PeerId) UnmarshalText(text []byte) error {
	v, err := PeerIdFromHex(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Signature is a 64-byte Ed25519 signature.
type Signature [64]byte

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}
