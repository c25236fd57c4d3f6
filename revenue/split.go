// Package revenue implements the deterministic revenue-distribution
// rule (§4.4): splitting one paid query's amount across the deriver
// and the weighted root contributors.
package revenue

import (
	"sort"

	"nodalync.dev/core/types"
)

// SynthFeeBPS is the fixed synthesis fee paid to a deriver on every
// paid query against derived (L2/L3) content: 5%, in basis points.
const SynthFeeBPS = 500

// Split computes the ordered list of RevenueCredits for amount paid to
// query content owned by owner with manifest hash manifestHash and
// root set rootSet. Output amounts always sum exactly to amount
// (§8 property 4); output is deterministic regardless of rootSet's
// input order (§8 property 5).
func Split(amount uint64, owner types.PeerId, manifestHash types.Hash, rootSet []types.ProvenanceEntry) []types.RevenueCredit {
	// Own-content case (§4.4 step 1): a single root entry owned by the
	// content's own owner pays that owner directly and skips the fee.
	if len(rootSet) == 1 && rootSet[0].Owner == owner {
		return []types.RevenueCredit{{
			Recipient:  owner,
			Amount:     amount,
			SourceHash: rootSet[0].Hash,
		}}
	}

	synthFee := amount * SynthFeeBPS / 10_000
	remaining := amount - synthFee

	sorted := sortedByHash(rootSet)

	var totalWeight uint64
	for _, e := range sorted {
		totalWeight += e.Weight
	}

	credits := make([]types.RevenueCredit, 0, len(sorted)+1)
	var sharesSum uint64
	if totalWeight > 0 {
		for _, e := range sorted {
			share := remaining * e.Weight / totalWeight
			sharesSum += share
			credits = append(credits, types.RevenueCredit{
				Recipient:  e.Owner,
				Amount:     share,
				SourceHash: e.Hash,
			})
		}
	}

	residual := remaining - sharesSum
	ownerCredit := synthFee + residual

	// Prepend the owner's synthesis-fee (+ rounding residual) entry so
	// callers that care about "who gets paid for deriving" see it
	// first, matching the spec's step ordering (§4.4 steps 2-5).
	out := make([]types.RevenueCredit, 0, len(credits)+1)
	out = append(out, types.RevenueCredit{Recipient: owner, Amount: ownerCredit, SourceHash: manifestHash})
	out = append(out, credits...)
	return out
}

func sortedByHash(entries []types.ProvenanceEntry) []types.ProvenanceEntry {
	out := append([]types.ProvenanceEntry(nil), entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Hash.Less(out[j].Hash) })
	return out
}
