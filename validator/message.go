package validator

import (
	"crypto/ed25519"

	"nodalync.dev/core/types"
	"nodalync.dev/core/wire"
)

// ValidateMessage enforces §4.2 validate_message: protocol version,
// message-type decoding, timestamp skew, and sender signature. now and
// maxSkewMs are supplied by the caller so the check stays pure and
// testable (§5: synchronous, cannot be cancelled mid-call).
func ValidateMessage(envelope wire.Envelope, senderPub ed25519.PublicKey, nowMs int64, maxSkewMs int64) error {
	if envelope.Version != wire.ProtocolVersion {
		return types.NewErrorf(types.ErrProtocolVersionMismatch, "envelope version 0x%02x, expected 0x%02x", envelope.Version, wire.ProtocolVersion)
	}
	if !envelope.MessageType.IsKnown() {
		return types.NewErrorf(types.ErrUnknownMessageType, "unrecognized message type %s", envelope.MessageType)
	}
	skew := envelope.TimestampMs - nowMs
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkewMs {
		return types.NewErrorf(types.ErrTimestampSkew, "envelope timestamp skew %dms exceeds %dms", skew, maxSkewMs)
	}
	if !envelope.Verify(senderPub) {
		return types.NewError(types.ErrInvalidSignature, "envelope signature does not verify")
	}
	return nil
}
