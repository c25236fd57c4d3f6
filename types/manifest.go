package types

// AccessControl gates who may query non-Private content (§3).
type AccessControl struct {
	Allowlist     []PeerId
	Denylist      []PeerId
	RequiredBond  uint64 // 0 means no bond required
}

func (a AccessControl) isAllowed(p PeerId) bool {
	if len(a.Allowlist) == 0 {
		return true
	}
	for _, id := range a.Allowlist {
		if id == p {
			return true
		}
	}
	return false
}

func (a AccessControl) isDenied(p PeerId) bool {
	for _, id := range a.Denylist {
		if id == p {
			return true
		}
	}
	return false
}

// Metadata is free-form descriptive content about a manifest.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Size        uint64
	Mime        string
}

// Economics tracks the monetization state of a manifest.
type Economics struct {
	Price        uint64
	TotalQueries uint64
	TotalRevenue uint64
}

// Manifest is the addressable record for one piece of content (§3).
// The manifest hash (Hash field) is a property of the content bytes,
// computed once by crypto.ContentHash and never recomputed here.
type Manifest struct {
	Hash          Hash
	ContentType   ContentType
	Owner         PeerId
	Version       Version
	Visibility    Visibility
	AccessControl AccessControl
	Metadata      Metadata
	Economics     Economics
	Provenance    Provenance
	CreatedAt     int64
	UpdatedAt     int64
}

// IsAccessibleTo reports whether requester may query m, independent of
// payment (§4.2 validate_access). It checks no price and ignores
// AccessControl.RequiredBond; the bond check is done by
// validator.ValidateAccess.
func (m Manifest) IsAccessibleTo(requester PeerId) error {
	if m.Visibility == Private && requester != m.Owner {
		return NewError(ErrAccessPrivate, "content is private")
	}
	if requester == m.Owner {
		return nil
	}
	if m.AccessControl.isDenied(requester) {
		return NewError(ErrInDenylist, "requester is denylisted")
	}
	if !m.AccessControl.isAllowed(requester) {
		return NewError(ErrNotInAllowlist, "requester is not in the allowlist")
	}
	return nil
}
