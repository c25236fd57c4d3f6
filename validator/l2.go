package validator

import (
	"strings"

	"nodalync.dev/core/types"
)

// curiePrefixes is the known CURIE prefix map predicates may resolve
// against (§4.2 validate_l2_structure). The set is fixed; nothing
// outside this package can extend it. Absolute http(s) URIs are
// always accepted as a fallback.
var curiePrefixes = map[string]struct{}{
	"foaf":   {},
	"schema": {},
	"rdf":    {},
	"rdfs":   {},
	"owl":    {},
	"skos":   {},
	"dc":     {},
}

// ValidateL2Structure enforces §4.2 validate_l2_structure over a
// parsed EntityGraph and its owning manifest. cannotPublish is
// returned (not merely "visibility not private") when the manifest's
// own Visibility field has been set to anything other than Private,
// since L2 content can never be published regardless of price (§3).
func ValidateL2Structure(graph types.EntityGraph, manifest types.Manifest) error {
	if manifest.ContentType != types.L2EntityGraph {
		return types.NewError(types.ErrCannotPublish, "manifest is not an L2 entity graph")
	}
	if manifest.Visibility != types.Private {
		return types.NewError(types.ErrCannotPublish, "L2 content cannot be published")
	}
	if manifest.Economics.Price != 0 {
		return types.NewError(types.ErrPriceNotZero, "L2 content must be priced at zero")
	}
	if graph.ID != manifest.Hash {
		return types.NewError(types.ErrRootEntriesMismatch, "graph id must equal the manifest hash")
	}
	if graph.DeclaredEntityCount != len(graph.Entities) {
		return types.NewErrorf(types.ErrRootEntriesMismatch, "declared entity count %d does not match actual %d", graph.DeclaredEntityCount, len(graph.Entities))
	}
	if graph.DeclaredRelCount != len(graph.Relationships) {
		return types.NewErrorf(types.ErrRootEntriesMismatch, "declared relationship count %d does not match actual %d", graph.DeclaredRelCount, len(graph.Relationships))
	}

	seen := make(map[string]struct{}, len(graph.Entities))
	for _, e := range graph.Entities {
		if e.ID == "" {
			return types.NewError(types.ErrDanglingEntityRef, "entity id must not be empty")
		}
		if _, dup := seen[e.ID]; dup {
			return types.NewErrorf(types.ErrDuplicateEntityID, "duplicate entity id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		if len(e.Aliases) > MaxEntityAliasCount {
			return types.NewErrorf(types.ErrLabelTooLong, "entity %q has %d aliases, max %d", e.ID, len(e.Aliases), MaxEntityAliasCount)
		}
		if len(e.Label) > MaxEntityLabelLen {
			return types.NewErrorf(types.ErrLabelTooLong, "entity %q label exceeds %d bytes", e.ID, MaxEntityLabelLen)
		}
		if len(e.Description) > MaxEntityDescriptionLen {
			return types.NewErrorf(types.ErrLabelTooLong, "entity %q description exceeds %d bytes", e.ID, MaxEntityDescriptionLen)
		}
	}

	for _, r := range graph.Relationships {
		if _, ok := seen[r.Subject]; !ok {
			return types.NewErrorf(types.ErrDanglingEntityRef, "relationship subject %q is not a declared entity", r.Subject)
		}
		if r.ObjectIsEntity() {
			if _, ok := seen[r.ObjectEntityID]; !ok {
				return types.NewErrorf(types.ErrDanglingEntityRef, "relationship object %q is not a declared entity", r.ObjectEntityID)
			}
		}
		if err := validatePredicate(r.Predicate); err != nil {
			return err
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return types.NewErrorf(types.ErrInvalidURI, "confidence %v out of range [0,1]", r.Confidence)
		}
	}
	return nil
}

func validatePredicate(predicate string) error {
	if strings.HasPrefix(predicate, "http://") || strings.HasPrefix(predicate, "https://") {
		return nil
	}
	parts := strings.SplitN(predicate, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return types.NewErrorf(types.ErrInvalidURI, "predicate %q is not a CURIE or absolute URI", predicate)
	}
	if _, ok := curiePrefixes[parts[0]]; !ok {
		return types.NewErrorf(types.ErrInvalidURI, "predicate %q uses unknown CURIE prefix %q", predicate, parts[0])
	}
	return nil
}
