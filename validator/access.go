package validator

import "nodalync.dev/core/types"

// BondChecker reports whether requester has posted the required bond.
// Bond custody is a ledger/collaborator concern (§6.2); the validator
// only enforces that a check was performed when one is configured.
type BondChecker func(requester types.PeerId, required uint64) bool

// ValidateAccess enforces §4.2 validate_access. checkBond may be nil
// when the caller has no bond mechanism wired up (required_bond must
// then be zero on every manifest it validates, or access is denied).
func ValidateAccess(manifest types.Manifest, requester types.PeerId, checkBond BondChecker) error {
	if err := manifest.IsAccessibleTo(requester); err != nil {
		return err
	}
	if requester == manifest.Owner {
		return nil
	}
	if manifest.AccessControl.RequiredBond > 0 {
		if checkBond == nil || !checkBond(requester, manifest.AccessControl.RequiredBond) {
			return types.NewError(types.ErrBondRequired, "required bond not satisfied")
		}
	}
	return nil
}
