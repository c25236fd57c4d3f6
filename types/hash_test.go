package types

import "testing"

func TestHashHexRoundTrip(t *testing.T) {
	var h Hash
	for i := range h {
		h[i] = byte(i)
	}
	s := h.String()
	got, err := HashFromHex(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %x, want %x", got, h)
	}
}

func TestHashFromHexRejectsWrongLength(t *testing.T) {
	if _, err := HashFromHex("abcd"); err == nil {
		t.Fatalf("expected error for short hex")
	}
}

func TestHashIsZero(t *testing.T) {
	if !(Hash{}).IsZero() {
		t.Fatalf("zero-value Hash should be zero")
	}
	h := Hash{1}
	if h.IsZero() {
		t.Fatalf("non-zero Hash reported as zero")
	}
}

func TestHashLessOrdersByBigEndianBytes(t *testing.T) {
	a := Hash{0x01}
	b := Hash{0x02}
	if !a.Less(b) {
		t.Fatalf("expected a < b")
	}
	if b.Less(a) {
		t.Fatalf("expected b not < a")
	}
	if a.Less(a) {
		t.Fatalf("expected a not < a")
	}
}

func TestPeerIdHexRoundTrip(t *testing.T) {
	var p PeerId
	for i := range p {
		p[i] = byte(i * 3)
	}
	got, err := PeerIdFromHex(p.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Fatalf("round trip mismatch: got %x, want %x", got, p)
	}
}
