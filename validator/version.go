package validator

import "nodalync.dev/core/types"

// ValidateVersion enforces the Version invariants (§3, §4.2
// validate_version). previous is nil when newManifest introduces a
// brand-new content chain (number 1).
func ValidateVersion(newManifest types.Manifest, previous *types.Manifest) error {
	v := newManifest.Version
	if v.Number == 0 {
		return types.NewError(types.ErrWrongNumber, "version number must be >= 1")
	}

	if v.IsFirst() {
		if v.Previous != nil {
			return types.NewError(types.ErrV1HasPrevious, "version 1 must not declare a previous hash")
		}
		if v.Root != newManifest.Hash {
			return types.NewError(types.ErrWrongRoot, "version 1 root must equal the content hash")
		}
		return nil
	}

	if previous == nil {
		return types.NewError(types.ErrWrongNumber, "version > 1 requires the previous manifest")
	}
	if v.Previous == nil || *v.Previous != previous.Hash {
		return types.NewError(types.ErrWrongRoot, "previous hash must equal the prior version's content hash")
	}
	if v.Root != previous.Version.Root {
		return types.NewError(types.ErrWrongRoot, "root must be inherited from the previous version")
	}
	if v.Number != previous.Version.Number+1 {
		return types.NewError(types.ErrWrongNumber, "version number must increment by exactly 1")
	}
	if v.Timestamp <= previous.Version.Timestamp {
		return types.NewError(types.ErrNonMonotonicTimestamp, "timestamp must strictly increase over the previous version")
	}
	return nil
}
