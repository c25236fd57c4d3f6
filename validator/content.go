package validator

import (
	"nodalync.dev/core/crypto"
	"nodalync.dev/core/types"
)

// ValidateContent checks that bytes matches manifest's declared hash,
// size, and metadata bounds (§4.2 validate_content).
func ValidateContent(bytes []byte, manifest types.Manifest) error {
	if uint64(len(bytes)) > MaxContentBytes {
		return types.NewErrorf(types.ErrContentTooLarge, "content is %d bytes, max is %d", len(bytes), MaxContentBytes)
	}
	if got := crypto.ContentHash(bytes); got != manifest.Hash {
		return types.NewErrorf(types.ErrHashMismatch, "content hash %s does not match manifest hash %s", got, manifest.Hash)
	}
	if uint64(len(bytes)) != manifest.Metadata.Size {
		return types.NewErrorf(types.ErrSizeMismatch, "content is %d bytes, manifest declares %d", len(bytes), manifest.Metadata.Size)
	}
	return validateMetadataBounds(manifest.Metadata)
}

func validateMetadataBounds(m types.Metadata) error {
	if len(m.Title) > MaxTitleLen {
		return types.NewErrorf(types.ErrMetadataBoundViolation, "title exceeds %d bytes", MaxTitleLen)
	}
	if len(m.Description) > MaxDescriptionLen {
		return types.NewErrorf(types.ErrMetadataBoundViolation, "description exceeds %d bytes", MaxDescriptionLen)
	}
	if len(m.Tags) > MaxTagCount {
		return types.NewErrorf(types.ErrMetadataBoundViolation, "tag count %d exceeds %d", len(m.Tags), MaxTagCount)
	}
	for _, tag := range m.Tags {
		if len(tag) > MaxTagLen {
			return types.NewErrorf(types.ErrMetadataBoundViolation, "tag %q exceeds %d bytes", tag, MaxTagLen)
		}
	}
	return nil
}
