package validator

import (
	"testing"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/provenance"
	"nodalync.dev/core/types"
)

func rootManifest(owner types.PeerId, contentType types.ContentType, label string) types.Manifest {
	h := crypto.ContentHash([]byte(label))
	return types.Manifest{
		Hash:        h,
		Owner:       owner,
		ContentType: contentType,
		Provenance:  provenance.RootProvenance(h, owner, types.Shared),
	}
}

func TestValidateProvenanceAcceptsRoot(t *testing.T) {
	m := rootManifest(mustPeer(1), types.L0Raw, "root-content")
	if err := ValidateProvenance(m, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateProvenanceRejectsRootWithDerivedFrom(t *testing.T) {
	m := rootManifest(mustPeer(1), types.L0Raw, "root-content")
	extra := crypto.ContentHash([]byte("extra"))
	m.Provenance.DerivedFrom = append(m.Provenance.DerivedFrom, extra)
	if got := types.CodeOf(ValidateProvenance(m, nil)); got != types.ErrDerivedFromEmpty {
		t.Fatalf("got %v, want ErrDerivedFromEmpty", got)
	}
}

func TestValidateProvenanceAcceptsDerivedSynthesis(t *testing.T) {
	source := rootManifest(mustPeer(1), types.L0Raw, "source-a")

	merged := provenance.Merge([]provenance.Source{{
		Hash: source.Hash, Owner: source.Owner, ContentType: source.ContentType, Provenance: source.Provenance,
	}})

	derivedHash := crypto.ContentHash([]byte("derived"))
	derived := types.Manifest{
		Hash:        derivedHash,
		Owner:       mustPeer(2),
		ContentType: types.L3Synthesis,
		Provenance:  merged,
	}
	derived.Provenance.DerivedFrom = []types.Hash{source.Hash}

	if err := ValidateProvenance(derived, []types.Manifest{source}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateProvenanceRejectsSelfReference(t *testing.T) {
	source := rootManifest(mustPeer(1), types.L0Raw, "source-a")

	merged := provenance.Merge([]provenance.Source{{
		Hash: source.Hash, Owner: source.Owner, ContentType: source.ContentType, Provenance: source.Provenance,
	}})
	derived := types.Manifest{
		Hash:        source.Hash,
		Owner:       mustPeer(2),
		ContentType: types.L3Synthesis,
		Provenance:  merged,
	}
	derived.Provenance.DerivedFrom = []types.Hash{source.Hash}

	if got := types.CodeOf(ValidateProvenance(derived, []types.Manifest{source})); got != types.ErrSelfReference {
		t.Fatalf("got %v, want ErrSelfReference", got)
	}
}

func TestValidateProvenanceRejectsL2SourceNotRoot(t *testing.T) {
	l0 := rootManifest(mustPeer(1), types.L0Raw, "l0-source")
	l3Merged := provenance.Merge([]provenance.Source{{
		Hash: l0.Hash, Owner: l0.Owner, ContentType: l0.ContentType, Provenance: l0.Provenance,
	}})
	l3 := types.Manifest{
		Hash:        crypto.ContentHash([]byte("l3")),
		Owner:       mustPeer(2),
		ContentType: types.L3Synthesis,
		Provenance:  l3Merged,
	}
	l3.Provenance.DerivedFrom = []types.Hash{l0.Hash}

	l2Merged := provenance.Merge([]provenance.Source{{
		Hash: l3.Hash, Owner: l3.Owner, ContentType: l3.ContentType, Provenance: l3.Provenance,
	}})
	l2 := types.Manifest{
		Hash:        crypto.ContentHash([]byte("l2")),
		Owner:       mustPeer(3),
		ContentType: types.L2EntityGraph,
		Visibility:  types.Private,
		Provenance:  l2Merged,
	}
	l2.Provenance.DerivedFrom = []types.Hash{l3.Hash}

	if got := types.CodeOf(ValidateProvenance(l2, []types.Manifest{l3})); got != types.ErrL2InvalidSourceType {
		t.Fatalf("got %v, want ErrL2InvalidSourceType", got)
	}
}

func TestValidateProvenanceRejectsUnresolvedSource(t *testing.T) {
	source := rootManifest(mustPeer(1), types.L0Raw, "source-a")
	derived := types.Manifest{
		Hash:        crypto.ContentHash([]byte("derived")),
		Owner:       mustPeer(2),
		ContentType: types.L3Synthesis,
		Provenance:  types.Provenance{DerivedFrom: []types.Hash{source.Hash}},
	}
	if got := types.CodeOf(ValidateProvenance(derived, nil)); got != types.ErrUnknownSource {
		t.Fatalf("got %v, want ErrUnknownSource", got)
	}
}
