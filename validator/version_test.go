package validator

import (
	"testing"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/types"
)

func TestValidateVersionAcceptsFirstVersion(t *testing.T) {
	h := crypto.ContentHash([]byte("v1"))
	m := types.Manifest{Hash: h, Version: types.Version{Number: 1, Root: h, Timestamp: 100}}
	if err := ValidateVersion(m, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateVersionRejectsFirstVersionWithPrevious(t *testing.T) {
	h := crypto.ContentHash([]byte("v1"))
	prev := crypto.ContentHash([]byte("bogus"))
	m := types.Manifest{Hash: h, Version: types.Version{Number: 1, Root: h, Previous: &prev, Timestamp: 100}}
	if err := ValidateVersion(m, nil); types.CodeOf(err) != types.ErrV1HasPrevious {
		t.Fatalf("got %v, want ErrV1HasPrevious", err)
	}
}

func TestValidateVersionAcceptsChainedVersion(t *testing.T) {
	root := crypto.ContentHash([]byte("root"))
	prevHash := crypto.ContentHash([]byte("v1"))
	previous := types.Manifest{Hash: prevHash, Version: types.Version{Number: 1, Root: root, Timestamp: 100}}

	newHash := crypto.ContentHash([]byte("v2"))
	next := types.Manifest{
		Hash:    newHash,
		Version: types.Version{Number: 2, Root: root, Previous: &prevHash, Timestamp: 200},
	}
	if err := ValidateVersion(next, &previous); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateVersionRejectsNonSequentialNumber(t *testing.T) {
	root := crypto.ContentHash([]byte("root"))
	prevHash := crypto.ContentHash([]byte("v1"))
	previous := types.Manifest{Hash: prevHash, Version: types.Version{Number: 1, Root: root, Timestamp: 100}}

	next := types.Manifest{
		Hash:    crypto.ContentHash([]byte("v3")),
		Version: types.Version{Number: 3, Root: root, Previous: &prevHash, Timestamp: 200},
	}
	if err := ValidateVersion(next, &previous); types.CodeOf(err) != types.ErrWrongNumber {
		t.Fatalf("got %v, want ErrWrongNumber", err)
	}
}

func TestValidateVersionRejectsNonMonotonicTimestamp(t *testing.T) {
	root := crypto.ContentHash([]byte("root"))
	prevHash := crypto.ContentHash([]byte("v1"))
	previous := types.Manifest{Hash: prevHash, Version: types.Version{Number: 1, Root: root, Timestamp: 200}}

	next := types.Manifest{
		Hash:    crypto.ContentHash([]byte("v2")),
		Version: types.Version{Number: 2, Root: root, Previous: &prevHash, Timestamp: 100},
	}
	if err := ValidateVersion(next, &previous); types.CodeOf(err) != types.ErrNonMonotonicTimestamp {
		t.Fatalf("got %v, want ErrNonMonotonicTimestamp", err)
	}
}

func TestValidateVersionRejectsWrongRoot(t *testing.T) {
	root := crypto.ContentHash([]byte("root"))
	otherRoot := crypto.ContentHash([]byte("other-root"))
	prevHash := crypto.ContentHash([]byte("v1"))
	previous := types.Manifest{Hash: prevHash, Version: types.Version{Number: 1, Root: root, Timestamp: 100}}

	next := types.Manifest{
		Hash:    crypto.ContentHash([]byte("v2")),
		Version: types.Version{Number: 2, Root: otherRoot, Previous: &prevHash, Timestamp: 200},
	}
	if err := ValidateVersion(next, &previous); types.CodeOf(err) != types.ErrWrongRoot {
		t.Fatalf("got %v, want ErrWrongRoot", err)
	}
}
