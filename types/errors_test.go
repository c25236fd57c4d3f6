package types

import (
	"fmt"
	"testing"
)

func TestCodeOfExtractsDirectError(t *testing.T) {
	err := NewError(ErrInvalidNonce, "bad nonce")
	if got := CodeOf(err); got != ErrInvalidNonce {
		t.Fatalf("got %q, want %q", got, ErrInvalidNonce)
	}
}

func TestCodeOfUnwrapsWrappedError(t *testing.T) {
	inner := NewError(ErrChannelNotOpen, "not open")
	wrapped := fmt.Errorf("channel: load: %w", inner)
	if got := CodeOf(wrapped); got != ErrChannelNotOpen {
		t.Fatalf("got %q, want %q", got, ErrChannelNotOpen)
	}
}

func TestCodeOfReturnsEmptyForForeignError(t *testing.T) {
	if got := CodeOf(fmt.Errorf("plain error")); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}

func TestNewErrorfFormats(t *testing.T) {
	err := NewErrorf(ErrDepositTooLow, "deposit %d below minimum %d", 5, 1000)
	want := "CHANNEL_DEPOSIT_TOO_LOW: deposit 5 below minimum 1000"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
