package revenue

import (
	"math/rand"
	"testing"

	"nodalync.dev/core/types"
)

func peer(b byte) types.PeerId {
	var p types.PeerId
	p[0] = b
	return p
}

func hash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func sumAmounts(credits []types.RevenueCredit) uint64 {
	var total uint64
	for _, c := range credits {
		total += c.Amount
	}
	return total
}

// Own-content query, price 100 (§8 scenario 1).
func TestSplitOwnContent(t *testing.T) {
	alice := peer(1)
	hA := hash(0xA)
	rootSet := []types.ProvenanceEntry{{Hash: hA, Owner: alice, Weight: 1}}

	credits := Split(100, alice, hA, rootSet)
	if len(credits) != 1 {
		t.Fatalf("expected 1 credit, got %d", len(credits))
	}
	if credits[0].Recipient != alice || credits[0].Amount != 100 {
		t.Fatalf("expected alice:100, got %+v", credits[0])
	}
}

// L0->L3, 95/5 split (§8 scenario 2).
func TestSplitSynthesisFee(t *testing.T) {
	alice := peer(1)
	bob := peer(2)
	hA := hash(0xA)
	hL3 := hash(0xE3)
	rootSet := []types.ProvenanceEntry{{Hash: hA, Owner: alice, Weight: 1}}

	credits := Split(100, bob, hL3, rootSet)
	if sumAmounts(credits) != 100 {
		t.Fatalf("credits must sum to 100, got %d", sumAmounts(credits))
	}

	var aliceAmt, bobAmt uint64
	for _, c := range credits {
		switch c.Recipient {
		case alice:
			aliceAmt = c.Amount
		case bob:
			bobAmt = c.Amount
		}
	}
	if aliceAmt != 95 {
		t.Fatalf("alice amount = %d, want 95", aliceAmt)
	}
	if bobAmt != 5 {
		t.Fatalf("bob amount = %d, want 5", bobAmt)
	}
}

// Rounding residual (§8 scenario 3): two equal-weight roots, residual
// goes to the deriver.
func TestSplitRoundingResidualGoesToOwner(t *testing.T) {
	alice := peer(1)
	dan := peer(2)
	bob := peer(3)
	hA := hash(0xA)
	hD := hash(0xD)
	hL3 := hash(0xE3)

	rootSet := []types.ProvenanceEntry{
		{Hash: hA, Owner: alice, Weight: 1},
		{Hash: hD, Owner: dan, Weight: 1},
	}
	credits := Split(100, bob, hL3, rootSet)
	if sumAmounts(credits) != 100 {
		t.Fatalf("credits must sum to 100, got %d", sumAmounts(credits))
	}

	amounts := map[types.PeerId]uint64{}
	for _, c := range credits {
		amounts[c.Recipient] += c.Amount
	}
	if amounts[alice] != 47 {
		t.Fatalf("alice amount = %d, want 47", amounts[alice])
	}
	if amounts[dan] != 47 {
		t.Fatalf("dan amount = %d, want 47", amounts[dan])
	}
	if amounts[bob] != 6 {
		t.Fatalf("bob amount (fee + residual) = %d, want 6", amounts[bob])
	}
}

// Property 4: exact conservation, for randomized inputs.
func TestSplitExactConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		amount := uint64(rng.Intn(1_000_000))
		owner := peer(byte(rng.Intn(255) + 1))
		manifestHash := hash(byte(trial))

		n := rng.Intn(5) + 1
		rootSet := make([]types.ProvenanceEntry, n)
		for i := range rootSet {
			rootSet[i] = types.ProvenanceEntry{
				Hash:   hash(byte(i + 10)),
				Owner:  peer(byte(i + 10)),
				Weight: uint64(rng.Intn(100) + 1),
			}
		}

		credits := Split(amount, owner, manifestHash, rootSet)
		if got := sumAmounts(credits); got != amount {
			t.Fatalf("trial %d: credits sum to %d, want %d", trial, got, amount)
		}
	}
}

// Property 5: determinism under rearranged input order.
func TestSplitDeterministicUnderReorder(t *testing.T) {
	alice := peer(1)
	dan := peer(2)
	bob := peer(3)
	hA := hash(0xA)
	hD := hash(0xD)
	hL3 := hash(0xE3)

	forward := []types.ProvenanceEntry{
		{Hash: hA, Owner: alice, Weight: 3},
		{Hash: hD, Owner: dan, Weight: 7},
	}
	reversed := []types.ProvenanceEntry{
		{Hash: hD, Owner: dan, Weight: 7},
		{Hash: hA, Owner: alice, Weight: 3},
	}

	a := Split(1000, bob, hL3, forward)
	b := Split(1000, bob, hL3, reversed)

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("credit %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
