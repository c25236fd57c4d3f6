// Package provenance implements the root-set merge algorithm used
// whenever new content is derived from one or more sources (§4.3).
package provenance

import "nodalync.dev/core/types"

// MaxDepth is the protocol's recommended provenance depth bound (§3).
const MaxDepth = 32

// Source is the minimal view of a contributing manifest the merge
// needs: its own hash, owner, visibility, content type, and already
//-computed provenance.
type Source struct {
	Hash        types.Hash
	Owner       types.PeerId
	Visibility  types.Visibility
	ContentType types.ContentType
	Provenance  types.Provenance
}

// Merge computes the new Provenance for content derived from sources,
// in caller order, per §4.3:
//
//  1. Union every source's root_set, summing weights and keeping the
//     least-restrictive visibility on collision.
//  2. For every L0 source, add a weight-1 self-entry (accumulating if
//     already present from step 1 — an L0 is always its own root).
//  3. derived_from is the source hashes, in caller order.
//  4. depth is 1 + max(source depths).
//
// Merge does not enforce any invariant (self-reference, depth bound,
// non-empty sources) — that is the validator's job (§4.2); Merge is
// the pure combinator the validator and the content-creation flow both
// call.
func Merge(sources []Source) types.Provenance {
	roots := make(map[types.Hash]types.ProvenanceEntry)

	upsert := func(e types.ProvenanceEntry) {
		existing, ok := roots[e.Hash]
		if !ok {
			roots[e.Hash] = e
			return
		}
		existing.Weight += e.Weight
		existing.Visibility = types.LeastRestrictive(existing.Visibility, e.Visibility)
		roots[e.Hash] = existing
	}

	for _, s := range sources {
		for _, e := range s.Provenance.RootSet {
			upsert(e)
		}
	}
	for _, s := range sources {
		if s.ContentType == types.L0Raw {
			upsert(types.ProvenanceEntry{
				Hash:       s.Hash,
				Owner:      s.Owner,
				Visibility: s.Visibility,
				Weight:     1,
			})
		}
	}

	derivedFrom := make([]types.Hash, 0, len(sources))
	var maxDepth uint32
	for i, s := range sources {
		derivedFrom = append(derivedFrom, s.Hash)
		if i == 0 || s.Provenance.Depth > maxDepth {
			maxDepth = s.Provenance.Depth
		}
	}

	return types.Provenance{
		RootSet:     roots,
		DerivedFrom: derivedFrom,
		Depth:       maxDepth + 1,
	}
}

// RootProvenance builds the trivial, one-entry Provenance for an L0 or
// L1 content hash (§3: "root_set has exactly one entry referencing the
// content itself, derived_from is empty, depth = 0").
func RootProvenance(hash types.Hash, owner types.PeerId, visibility types.Visibility) types.Provenance {
	return types.Provenance{
		RootSet: map[types.Hash]types.ProvenanceEntry{
			hash: {Hash: hash, Owner: owner, Visibility: visibility, Weight: 1},
		},
		DerivedFrom: nil,
		Depth:       0,
	}
}
