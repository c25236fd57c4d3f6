package settlement

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"nodalync.dev/core/types"
)

const (
	leafTag byte = 0x00
	nodeTag byte = 0x01
)

func sha3_256(b []byte) types.Hash {
	return types.Hash(sha3.Sum256(b))
}

// entryPreimage canonically encodes one SettlementBatchEntry for
// hashing: recipient, amount, then each provenance hash in order.
func entryPreimage(e types.SettlementBatchEntry) []byte {
	buf := make([]byte, 0, 20+8+32*len(e.ProvenanceHashes))
	buf = append(buf, e.Recipient[:]...)
	var amt [8]byte
	binary.BigEndian.PutUint64(amt[:], e.Amount)
	buf = append(buf, amt[:]...)
	for _, h := range e.ProvenanceHashes {
		buf = append(buf, h[:]...)
	}
	return buf
}

// MerkleRoot computes the Merkle hash of a settlement batch's entries
// in insertion order (§4.7 trigger_settlement step 3). Leaves and
// interior nodes are domain-separated with a one-byte tag, the same
// leaf/node tagging discipline the on-ledger transaction-commitment
// tree uses, so a settlement root can never collide with a
// transaction-merkle root even under an adversarially chosen preimage.
func MerkleRoot(entries []types.SettlementBatchEntry) (types.Hash, error) {
	if len(entries) == 0 {
		return types.Hash{}, types.NewError(types.ErrSettlementFailed, "cannot compute merkle root of an empty batch")
	}

	level := make([]types.Hash, 0, len(entries))
	for _, e := range entries {
		preimage := append([]byte{leafTag}, entryPreimage(e)...)
		level = append(level, sha3_256(preimage))
	}

	for len(level) > 1 {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); {
			if i == len(level)-1 {
				next = append(next, level[i])
				i++
				continue
			}
			preimage := make([]byte, 0, 1+32+32)
			preimage = append(preimage, nodeTag)
			preimage = append(preimage, level[i][:]...)
			preimage = append(preimage, level[i+1][:]...)
			next = append(next, sha3_256(preimage))
			i += 2
		}
		level = next
	}
	return level[0], nil
}
