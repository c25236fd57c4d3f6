package types

// ManifestFilter narrows Store.ListManifests. A zero-value filter
// matches everything.
type ManifestFilter struct {
	Owner       *PeerId
	ContentType *ContentType
	Visibility  *Visibility
	Root        *Hash // matches Manifest.Version.Root, for version-chain lookups
}

func (f ManifestFilter) Match(m Manifest) bool {
	if f.Owner != nil && *f.Owner != m.Owner {
		return false
	}
	if f.ContentType != nil && *f.ContentType != m.ContentType {
		return false
	}
	if f.Visibility != nil && *f.Visibility != m.Visibility {
		return false
	}
	if f.Root != nil && *f.Root != m.Version.Root {
		return false
	}
	return true
}

// PendingFilter narrows Store.GetPending (unsettled QueuedDistributions).
type PendingFilter struct {
	Recipient *PeerId
	Before    *int64 // QueuedAtMs strictly less than Before, if set
}

func (f PendingFilter) Match(d QueuedDistribution) bool {
	if d.Settled {
		return false
	}
	if f.Recipient != nil && *f.Recipient != d.Recipient {
		return false
	}
	if f.Before != nil && d.QueuedAtMs >= *f.Before {
		return false
	}
	return true
}
