package types

// Version threads a content hash's edit history (§3 "Version").
// Number is 1 for the first version of a root; Previous is the
// immediately preceding content hash (absent for number 1); Root is
// the content hash of the first version in the chain; Timestamp must
// strictly increase along the chain. Invariant enforcement lives in
// the validator package — Version itself carries no behavior.
type Version struct {
	Number    uint64
	Previous  *Hash
	Root      Hash
	Timestamp int64
}

func (v Version) IsFirst() bool {
	return v.Number == 1
}
