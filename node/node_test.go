package node

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/extractor/mentiontest"
	"nodalync.dev/core/ledger/localledger"
	"nodalync.dev/core/network/loopback"
	"nodalync.dev/core/provenance"
	"nodalync.dev/core/store/storetest"
	"nodalync.dev/core/types"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CloseTimeout = 200 * time.Millisecond
	cfg.DisputeWindow = time.Second
	cfg.OpenCooldown = 0
	cfg.QueryTimeout = time.Second
	cfg.SettlementTick = 10 * time.Millisecond
	return cfg
}

func newTestNode(t *testing.T, hub *loopback.Hub) *Node {
	t.Helper()
	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	link := hub.Join(id.PeerID())
	n, err := New(testConfig(), id, storetest.New(), link, localledger.New(), mentiontest.Extractor{}, quietLog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return n
}

func publish(t *testing.T, n *Node, bytes []byte, price uint64) types.Manifest {
	t.Helper()
	hash := crypto.ContentHash(bytes)
	m := types.Manifest{
		Hash:        hash,
		ContentType: types.L0Raw,
		Owner:       n.ID.PeerID(),
		Visibility:  types.Shared,
		Version:     types.Version{Number: 1, Root: hash, Timestamp: 1},
		Economics:   types.Economics{Price: price},
		Provenance:  provenance.RootProvenance(hash, n.ID.PeerID(), types.Shared),
	}
	ctx := context.Background()
	if err := n.Store.PutManifest(ctx, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.Store.PutBlob(ctx, hash, bytes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

// TestNodeRunServesPaidQueryEndToEnd wires two Nodes over a shared
// loopback hub and drives both through Run, exercising channel open,
// a paid query, revenue split, distribution enqueue, and a settlement
// tick all through the public Node surface rather than the individual
// collaborators.
func TestNodeRunServesPaidQueryEndToEnd(t *testing.T) {
	hub := loopback.NewHub()
	alice := newTestNode(t, hub)
	bob := newTestNode(t, hub)
	alice.Peers.Learn(bob.ID.Public)
	bob.Peers.Learn(alice.ID.Public)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go alice.Run(ctx)
	go bob.Run(ctx)

	bytes := []byte("bob's metered article")
	manifest := publish(t, bob, bytes, 250)

	openCtx, openCancel := context.WithTimeout(ctx, time.Second)
	defer openCancel()
	if _, err := alice.Channels.OpenChannel(openCtx, bob.ID.PeerID(), 10_000, nil); err != nil {
		t.Fatalf("unexpected error opening channel: %v", err)
	}

	// The responder side of the open handshake isn't driven by this
	// test (no sender for MsgChannelOpen is wired into dispatch yet),
	// so seed bob's mirrored channel record directly.
	aliceChannel, ok, err := alice.Store.GetChannel(ctx, bob.ID.PeerID())
	if err != nil || !ok {
		t.Fatalf("expected alice's channel record, err=%v ok=%v", err, ok)
	}
	aliceChannel.State = types.Open
	if err := alice.Store.CreateChannel(ctx, bob.ID.PeerID(), aliceChannel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bobChannel := types.Channel{
		ChannelID:    aliceChannel.ChannelID,
		PeerID:       alice.ID.PeerID(),
		State:        types.Open,
		MyBalance:    0,
		TheirBalance: 10_000,
	}
	if err := bob.Store.CreateChannel(ctx, alice.ID.PeerID(), bobChannel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	queryCtx, queryCancel := context.WithTimeout(ctx, 2*time.Second)
	defer queryCancel()
	got, receipt, err := alice.Requester.Query(queryCtx, manifest, 250, nil, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error querying: %v", err)
	}
	if string(got) != string(bytes) {
		t.Fatalf("got %q, want %q", got, bytes)
	}
	if receipt.Amount != 250 {
		t.Fatalf("receipt amount = %d, want 250", receipt.Amount)
	}

	updatedAlice, ok, err := alice.Store.GetChannel(ctx, bob.ID.PeerID())
	if err != nil || !ok {
		t.Fatalf("expected alice's channel record, err=%v ok=%v", err, ok)
	}
	if updatedAlice.MyBalance != 9_750 || updatedAlice.TheirBalance != 250 {
		t.Fatalf("unexpected requester-side balances: %+v", updatedAlice)
	}

	// Bob's content is unowned by anyone else, so the full 250 is
	// Bob's own-content payout and should have been queued for
	// settlement, then swept by the node's settlement tick.
	deadline := time.Now().Add(time.Second)
	for {
		last, err := bob.Store.GetLastSettlementTime(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if last > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("settlement tick never ran within the deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	pending, err := bob.Store.GetPending(ctx, types.PendingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected settlement tick to drain the pending queue, got %+v", pending)
	}
}

func TestValidateConfigRejectsBadNetwork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network = "bogus"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error for invalid network")
	}
}

func TestValidateConfigRejectsZeroTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CloseTimeout = 0
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error for zero close_timeout")
	}
}
