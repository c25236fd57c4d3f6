package validator

import (
	"nodalync.dev/core/provenance"
	"nodalync.dev/core/types"
)

// ValidateProvenance enforces §3's Provenance invariants and §4.3's
// merge rule for manifest, given the full set of its declared sources
// (already resolved by the caller — an unresolved source hash is
// itself an error, checked by the caller via ErrUnknownSource before
// ValidateProvenance is reached in the normal flow, but this function
// re-derives the merge and will also fail if sources is incomplete).
func ValidateProvenance(manifest types.Manifest, sources []types.Manifest) error {
	switch {
	case manifest.ContentType.IsRoot():
		return validateRootProvenance(manifest)
	case manifest.ContentType == types.L3Synthesis:
		return validateDerivedProvenance(manifest, sources, false)
	case manifest.ContentType == types.L2EntityGraph:
		return validateDerivedProvenance(manifest, sources, true)
	default:
		return types.NewErrorf(types.ErrRootEntriesMismatch, "unknown content type %v", manifest.ContentType)
	}
}

func validateRootProvenance(manifest types.Manifest) error {
	p := manifest.Provenance
	if len(p.RootSet) != 1 {
		return types.NewError(types.ErrRootEntriesMismatch, "L0/L1 root set must contain exactly one entry")
	}
	entry, ok := p.RootSet[manifest.Hash]
	if !ok || entry.Weight != 1 {
		return types.NewError(types.ErrRootEntriesMismatch, "L0/L1 root set must self-reference with weight 1")
	}
	if len(p.DerivedFrom) != 0 {
		return types.NewError(types.ErrDerivedFromEmpty, "L0/L1 derived_from must be empty")
	}
	if p.Depth != 0 {
		return types.NewErrorf(types.ErrDepthExceeded, "L0/L1 depth must be 0, got %d", p.Depth)
	}
	return nil
}

func validateDerivedProvenance(manifest types.Manifest, sources []types.Manifest, isL2 bool) error {
	p := manifest.Provenance

	if len(p.DerivedFrom) == 0 {
		return types.NewError(types.ErrDerivedFromEmpty, "derived content must declare at least one source")
	}
	if len(sources) != len(p.DerivedFrom) {
		return types.NewError(types.ErrUnknownSource, "resolved source count does not match derived_from")
	}

	bySources := make(map[types.Hash]types.Manifest, len(sources))
	for _, s := range sources {
		bySources[s.Hash] = s
	}

	merged := make([]provenance.Source, 0, len(p.DerivedFrom))
	var maxSourceDepth uint32
	for i, h := range p.DerivedFrom {
		if h == manifest.Hash {
			return types.NewError(types.ErrSelfReference, "derived_from must not reference the content itself")
		}
		s, ok := bySources[h]
		if !ok {
			return types.NewErrorf(types.ErrUnknownSource, "source %s not resolved", h)
		}
		if isL2 && !s.ContentType.IsRoot() {
			return types.NewErrorf(types.ErrL2InvalidSourceType, "L2 source %s must be L0 or L1, got %v", h, s.ContentType)
		}
		if i == 0 || s.Provenance.Depth > maxSourceDepth {
			maxSourceDepth = s.Provenance.Depth
		}
		merged = append(merged, provenance.Source{
			Hash:        s.Hash,
			Owner:       s.Owner,
			Visibility:  s.Visibility,
			ContentType: s.ContentType,
			Provenance:  s.Provenance,
		})
	}

	if p.Depth != maxSourceDepth+1 {
		return types.NewErrorf(types.ErrDepthExceeded, "depth must be max(source depths)+1 = %d, got %d", maxSourceDepth+1, p.Depth)
	}
	if p.Depth > provenance.MaxDepth {
		return types.NewErrorf(types.ErrDepthExceeded, "depth %d exceeds bound %d", p.Depth, provenance.MaxDepth)
	}
	if p.IsSelfReferencing(manifest.Hash) {
		return types.NewError(types.ErrSelfReference, "root set or derived_from must not reference the content itself")
	}

	expected := provenance.Merge(merged)
	if !p.RootSetEqual(expected) {
		return types.NewError(types.ErrRootEntriesMismatch, "root set does not match the deterministic merge of source root sets")
	}

	if isL2 {
		if manifest.Visibility != types.Private {
			return types.NewError(types.ErrVisibilityNotPrivate, "L2 content must be private")
		}
		if manifest.Economics.Price != 0 {
			return types.NewError(types.ErrPriceNotZero, "L2 content must be priced at zero")
		}
	}
	return nil
}
