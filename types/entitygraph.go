package types

// Entity is one node in a personal entity graph (L2 content).
type Entity struct {
	ID          string
	Label       string
	Description string
	Aliases     []string
}

// Relationship is a (subject, predicate, object) edge. Object may be
// either another declared Entity (ObjectEntityID set) or a literal
// value (ObjectLiteral set) — exactly one of the two is populated.
type Relationship struct {
	Subject       string // entity id
	Predicate     string // CURIE or absolute http(s) URI
	ObjectEntityID string
	ObjectLiteral  string
	Confidence     float64
}

func (r Relationship) ObjectIsEntity() bool {
	return r.ObjectEntityID != ""
}

// EntityGraph is the payload of an L2 manifest (§4.2 validate_l2_structure).
type EntityGraph struct {
	ID                  Hash
	Entities            []Entity
	Relationships       []Relationship
	DeclaredEntityCount int
	DeclaredRelCount    int
}
