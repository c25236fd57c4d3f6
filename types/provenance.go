package types

import "sort"

// ProvenanceEntry is one weighted contributor in a root set (§3).
type ProvenanceEntry struct {
	Hash       Hash
	Owner      PeerId
	Visibility Visibility
	Weight     uint64
}

// Provenance is the accumulated root-contributor set of a piece of
// content, plus its immediate sources and DAG depth (§3).
type Provenance struct {
	// RootSet is keyed by the contributing root's hash; weights have
	// already been merged (duplicates summed) by the time a Provenance
	// is constructed — see package provenance.
	RootSet     map[Hash]ProvenanceEntry
	DerivedFrom []Hash
	Depth       uint32
}

// SortedRootSet returns the root set as a slice ordered ascending by
// hash bytes — the stable order the revenue splitter (§4.4 step 4)
// requires. Settlement Merkle batches keep insertion order instead.
func (p Provenance) SortedRootSet() []ProvenanceEntry {
	out := make([]ProvenanceEntry, 0, len(p.RootSet))
	for _, e := range p.RootSet {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hash.Less(out[j].Hash)
	})
	return out
}

// TotalWeight sums the weights of every root entry.
func (p Provenance) TotalWeight() uint64 {
	var total uint64
	for _, e := range p.RootSet {
		total += e.Weight
	}
	return total
}

// RootSetEqual compares two root sets as (hash -> weight) maps, per §4.3:
// "order never matters". Visibility is not part of equality because
// it is informational only and may legitimately differ across
// observers merging the same hash from different sources.
func (p Provenance) RootSetEqual(other Provenance) bool {
	if len(p.RootSet) != len(other.RootSet) {
		return false
	}
	for h, e := range p.RootSet {
		oe, ok := other.RootSet[h]
		if !ok || oe.Weight != e.Weight {
			return false
		}
	}
	return true
}

// IsSelfReferencing reports whether hash appears in RootSet or
// DerivedFrom, which is forbidden for any derived content (§3, §4.2).
func (p Provenance) IsSelfReferencing(hash Hash) bool {
	if _, ok := p.RootSet[hash]; ok {
		return true
	}
	for _, d := range p.DerivedFrom {
		if d == hash {
			return true
		}
	}
	return false
}
