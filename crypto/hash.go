package crypto

import (
	"github.com/zeebo/blake3"

	"nodalync.dev/core/types"
)

// ContentHash computes the protocol content address of bytes (§3
// "Hash", §4.1 content_hash). Empty input and multi-megabyte input are
// both valid — BLAKE3 streams internally and never buffers the whole
// digest context in one allocation.
func ContentHash(bytes []byte) types.Hash {
	sum := blake3.Sum256(bytes)
	return types.Hash(sum)
}

// PaymentID derives the deterministic payment id (§3 "Payment.id"):
// over (query_hash, amount, payment_nonce), unique per (channel, nonce).
func PaymentID(queryHash types.Hash, amount uint64, nonce uint64) types.Hash {
	h := blake3.New()
	_, _ = h.Write([]byte("nodalync/payment-id/v1"))
	_, _ = h.Write(queryHash[:])
	_, _ = h.Write(uint64LE(amount))
	_, _ = h.Write(uint64LE(nonce))
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return types.Hash(sum)
}

func uint64LE(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
