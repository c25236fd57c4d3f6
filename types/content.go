package types

// ContentType is the typed layer tag attached to every piece of content.
type ContentType uint8

const (
	// L0Raw is an unmodified source document.
	L0Raw ContentType = iota
	// L1Mentions is an ordered list of entity mentions extracted from an L0.
	L1Mentions
	// L2EntityGraph is a personal entity graph; always private, always free.
	L2EntityGraph
	// L3Synthesis is a derived insight synthesized from one or more sources.
	L3Synthesis
)

func (t ContentType) String() string {
	switch t {
	case L0Raw:
		return "L0"
	case L1Mentions:
		return "L1"
	case L2EntityGraph:
		return "L2"
	case L3Synthesis:
		return "L3"
	default:
		return "unknown"
	}
}

func (t ContentType) IsRoot() bool {
	return t == L0Raw || t == L1Mentions
}

func (t ContentType) IsDerived() bool {
	return t == L2EntityGraph || t == L3Synthesis
}

// Visibility controls who content is served to.
type Visibility uint8

const (
	Private Visibility = iota
	Unlisted
	Shared
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Unlisted:
		return "unlisted"
	case Shared:
		return "shared"
	default:
		return "unknown"
	}
}

// LeastRestrictive returns whichever of a, b is more visible. Used by
// the provenance merge when the same root hash is contributed by
// multiple sources with differing visibility (§4.3 step 2).
func LeastRestrictive(a, b Visibility) Visibility {
	if a > b {
		return a
	}
	return b
}
