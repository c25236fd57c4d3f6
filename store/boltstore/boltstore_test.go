package boltstore

import (
	"context"
	"testing"

	"nodalync.dev/core/types"
)

func testPeer(b byte) types.PeerId {
	var p types.PeerId
	p[0] = b
	return p
}

func testHash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsEmptyDataDir(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty data dir")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	hash := testHash(1)

	if _, ok, err := s.GetBlob(ctx, hash); err != nil || ok {
		t.Fatalf("expected no blob before Put, ok=%v err=%v", ok, err)
	}
	if err := s.PutBlob(ctx, hash, []byte("payload")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok, err := s.GetBlob(ctx, hash)
	if err != nil || !ok {
		t.Fatalf("expected blob, ok=%v err=%v", ok, err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want %q", got, "payload")
	}
}

func TestManifestRoundTripAndFilter(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	owner := testPeer(1)
	other := testPeer(2)

	m1 := types.Manifest{Hash: testHash(1), Owner: owner, ContentType: types.L0Raw, Visibility: types.Shared}
	m2 := types.Manifest{Hash: testHash(2), Owner: other, ContentType: types.L3Synthesis, Visibility: types.Private}
	if err := s.PutManifest(ctx, m1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.PutManifest(ctx, m2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.GetManifest(ctx, m1.Hash)
	if err != nil || !ok {
		t.Fatalf("expected manifest, ok=%v err=%v", ok, err)
	}
	if got.Owner != owner || got.ContentType != types.L0Raw {
		t.Fatalf("unexpected manifest: %+v", got)
	}

	filtered, err := s.ListManifests(ctx, types.ManifestFilter{Owner: &owner})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Hash != m1.Hash {
		t.Fatalf("expected only owner's manifest, got %+v", filtered)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	peer := testPeer(3)

	if _, ok, err := s.GetChannel(ctx, peer); err != nil || ok {
		t.Fatalf("expected no channel before create, ok=%v err=%v", ok, err)
	}

	ch := types.Channel{ChannelID: testHash(9), PeerID: peer, State: types.Opening, MyBalance: 1000}
	if err := s.CreateChannel(ctx, peer, ch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch.State = types.Open
	ch.Nonce = 1
	if err := s.UpdateChannel(ctx, peer, ch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.GetChannel(ctx, peer)
	if err != nil || !ok {
		t.Fatalf("expected channel, ok=%v err=%v", ok, err)
	}
	if got.State != types.Open || got.Nonce != 1 {
		t.Fatalf("unexpected channel after update: %+v", got)
	}
}

// Property 9: re-enqueuing the same (payment_id, recipient) pair must
// not duplicate the pending entry, matching storetest's in-memory
// double.
func TestEnqueueDistributionIsIdempotent(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	d := types.QueuedDistribution{PaymentID: testHash(1), Recipient: testPeer(1), Amount: 500, QueuedAtMs: 100}

	if err := s.EnqueueDistribution(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.EnqueueDistribution(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, err := s.GetPending(ctx, types.PendingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending distribution, got %d", len(pending))
	}
}

func TestMarkSettledExcludesFromPending(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	d := types.QueuedDistribution{PaymentID: testHash(2), Recipient: testPeer(1), Amount: 750, QueuedAtMs: 100}
	if err := s.EnqueueDistribution(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batchID := testHash(99)
	if err := s.MarkSettled(ctx, []types.Hash{d.PaymentID}, batchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, err := s.GetPending(ctx, types.PendingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected settled distribution to be excluded, got %+v", pending)
	}
}

func TestLastSettlementTimeRoundTrip(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	ts, err := s.GetLastSettlementTime(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != 0 {
		t.Fatalf("expected zero-value default, got %d", ts)
	}

	if err := s.SetLastSettlementTime(ctx, 12345); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts, err = s.GetLastSettlementTime(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != 12345 {
		t.Fatalf("got %d, want 12345", ts)
	}
}
