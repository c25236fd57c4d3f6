package validator

import (
	"crypto/ed25519"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/types"
)

// ValidatePayment enforces §4.2 validate_payment. requesterPub is the
// public key of the channel counterparty that allegedly signed
// payment — the caller resolves it from the channel's known peer
// identity before calling in.
func ValidatePayment(payment types.Payment, channel types.Channel, manifest types.Manifest, requesterPub ed25519.PublicKey) error {
	if payment.Recipient != manifest.Owner {
		return types.NewError(types.ErrWrongRecipient, "payment recipient does not match manifest owner")
	}
	if payment.QueryHash != manifest.Hash {
		return types.NewError(types.ErrQueryHashMismatch, "payment query hash does not match manifest hash")
	}
	if payment.Amount < manifest.Economics.Price {
		return types.NewErrorf(types.ErrInsufficientAmount, "payment amount %d is below price %d", payment.Amount, manifest.Economics.Price)
	}
	if !provenanceMatchesRootSet(payment.Provenance, manifest.Provenance) {
		return types.NewError(types.ErrProvenanceMismatch, "payment provenance does not match manifest root set")
	}
	if channel.State != types.Open {
		return types.NewError(types.ErrChannelNotOpen, "channel is not open")
	}
	if payment.Nonce <= channel.Nonce {
		return types.NewErrorf(types.ErrInvalidNonce, "payment nonce %d must exceed channel nonce %d", payment.Nonce, channel.Nonce)
	}
	if payment.Amount > channel.TheirBalance {
		return types.NewErrorf(types.ErrInsufficientBalance, "payment amount %d exceeds requester's channel balance %d", payment.Amount, channel.TheirBalance)
	}
	if !crypto.Verify(requesterPub, payment.SigningBytes(), payment.Signature) {
		return types.NewError(types.ErrInvalidSignature, "payment signature does not verify")
	}
	return nil
}

func provenanceMatchesRootSet(declared []types.ProvenanceEntry, actual types.Provenance) bool {
	if len(declared) != len(actual.RootSet) {
		return false
	}
	for _, e := range declared {
		ae, ok := actual.RootSet[e.Hash]
		if !ok || ae.Weight != e.Weight {
			return false
		}
	}
	return true
}
