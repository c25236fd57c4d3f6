package types

import "fmt"

// ErrorCode is a taxonomy tag (§7), not a Go error type in itself —
// every failure the validator and channel/settlement state machines
// produce carries one of these so callers can branch on category
// without string-matching messages.
type ErrorCode string

const (
	// Content
	ErrHashMismatch           ErrorCode = "CONTENT_HASH_MISMATCH"
	ErrSizeMismatch           ErrorCode = "CONTENT_SIZE_MISMATCH"
	ErrContentTooLarge        ErrorCode = "CONTENT_TOO_LARGE"
	ErrMetadataBoundViolation ErrorCode = "CONTENT_METADATA_BOUND_VIOLATION"

	// Version
	ErrV1HasPrevious         ErrorCode = "VERSION_V1_HAS_PREVIOUS"
	ErrWrongRoot             ErrorCode = "VERSION_WRONG_ROOT"
	ErrWrongNumber           ErrorCode = "VERSION_WRONG_NUMBER"
	ErrNonMonotonicTimestamp ErrorCode = "VERSION_NON_MONOTONIC_TIMESTAMP"

	// Provenance
	ErrSelfReference        ErrorCode = "PROVENANCE_SELF_REFERENCE"
	ErrDepthExceeded        ErrorCode = "PROVENANCE_DEPTH_EXCEEDED"
	ErrUnknownSource        ErrorCode = "PROVENANCE_UNKNOWN_SOURCE"
	ErrRootEntriesMismatch  ErrorCode = "PROVENANCE_ROOT_ENTRIES_MISMATCH"
	ErrL2InvalidSourceType  ErrorCode = "PROVENANCE_L2_INVALID_SOURCE_TYPE"
	ErrDerivedFromEmpty     ErrorCode = "PROVENANCE_DERIVED_FROM_EMPTY"
	ErrDerivedFromNotSubset ErrorCode = "PROVENANCE_DERIVED_FROM_NOT_SUBSET"

	// L2-specific
	ErrVisibilityNotPrivate ErrorCode = "L2_VISIBILITY_NOT_PRIVATE"
	ErrPriceNotZero         ErrorCode = "L2_PRICE_NOT_ZERO"
	ErrDuplicateEntityID    ErrorCode = "L2_DUPLICATE_ENTITY_ID"
	ErrDanglingEntityRef    ErrorCode = "L2_DANGLING_ENTITY_REF"
	ErrInvalidURI           ErrorCode = "L2_INVALID_URI"
	ErrLabelTooLong         ErrorCode = "L2_LABEL_TOO_LONG"
	ErrCannotPublish        ErrorCode = "L2_CANNOT_PUBLISH"

	// Payment
	ErrInsufficientAmount  ErrorCode = "PAYMENT_INSUFFICIENT_AMOUNT"
	ErrWrongRecipient      ErrorCode = "PAYMENT_WRONG_RECIPIENT"
	ErrQueryHashMismatch   ErrorCode = "PAYMENT_QUERY_HASH_MISMATCH"
	ErrProvenanceMismatch  ErrorCode = "PAYMENT_PROVENANCE_MISMATCH"
	ErrInvalidSignature    ErrorCode = "PAYMENT_INVALID_SIGNATURE"
	ErrInvalidNonce        ErrorCode = "PAYMENT_INVALID_NONCE"

	// Channel
	ErrChannelNotOpen          ErrorCode = "CHANNEL_NOT_OPEN"
	ErrInsufficientBalance     ErrorCode = "CHANNEL_INSUFFICIENT_BALANCE"
	ErrDisputePeriodNotElapsed ErrorCode = "CHANNEL_DISPUTE_PERIOD_NOT_ELAPSED"
	ErrInvalidCloseState       ErrorCode = "CHANNEL_INVALID_CLOSE_STATE"
	ErrDepositTooLow           ErrorCode = "CHANNEL_DEPOSIT_TOO_LOW"
	ErrCooldownActive          ErrorCode = "CHANNEL_OPEN_COOLDOWN_ACTIVE"

	// Access
	ErrAccessPrivate     ErrorCode = "ACCESS_PRIVATE"
	ErrNotInAllowlist    ErrorCode = "ACCESS_NOT_IN_ALLOWLIST"
	ErrInDenylist        ErrorCode = "ACCESS_IN_DENYLIST"
	ErrBondRequired      ErrorCode = "ACCESS_BOND_REQUIRED"

	// Transport/Settlement
	ErrPeerUnresponsive  ErrorCode = "TRANSPORT_PEER_UNRESPONSIVE"
	ErrTimeout           ErrorCode = "TRANSPORT_TIMEOUT"
	ErrSettlementFailed  ErrorCode = "SETTLEMENT_FAILED"
	ErrChannelRequired   ErrorCode = "QUERY_CHANNEL_REQUIRED"

	// Message envelope
	ErrProtocolVersionMismatch ErrorCode = "MESSAGE_PROTOCOL_VERSION_MISMATCH"
	ErrUnknownMessageType      ErrorCode = "MESSAGE_UNKNOWN_TYPE"
	ErrTimestampSkew           ErrorCode = "MESSAGE_TIMESTAMP_SKEW"
)

// Error is the concrete error type every validator and state-machine
// failure is returned as. It never wraps I/O errors — collaborator
// failures are surfaced with fmt.Errorf("...: %w", err) instead.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func NewError(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func NewErrorf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err, or "" if err is not (or does
// not wrap) a *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if as(err, &e) {
		return e.Code
	}
	return ""
}

// as is a tiny local errors.As to avoid importing errors in callers
// that only need CodeOf; kept here so the taxonomy is self-contained.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
