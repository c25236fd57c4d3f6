package settlement

import (
	"context"
	"testing"

	"nodalync.dev/core/ledger/localledger"
	"nodalync.dev/core/store/storetest"
	"nodalync.dev/core/types"
)

func TestShouldSettleOnThreshold(t *testing.T) {
	if !ShouldSettle(SettlementThreshold, 0, 0) {
		t.Fatalf("pending total at threshold should trigger settlement")
	}
	if ShouldSettle(SettlementThreshold-1, 0, 0) {
		t.Fatalf("pending total below threshold and no elapsed interval should not trigger")
	}
}

func TestShouldSettleOnInterval(t *testing.T) {
	if !ShouldSettle(0, 0, SettlementIntervalMs) {
		t.Fatalf("elapsed interval should trigger settlement even with zero pending")
	}
	if ShouldSettle(0, 0, SettlementIntervalMs-1) {
		t.Fatalf("interval not yet elapsed should not trigger")
	}
}

func distFor(recipient byte, amount uint64, queuedAt int64) types.QueuedDistribution {
	var p types.PeerId
	p[0] = recipient
	paymentID := types.Hash{recipient, byte(queuedAt)}
	return types.QueuedDistribution{PaymentID: paymentID, Recipient: p, Amount: amount, QueuedAtMs: queuedAt}
}

func TestTriggerSettlementNoOpBelowThreshold(t *testing.T) {
	st := storetest.New()
	b := NewBatcher(st, localledger.New(), nil)
	ctx := context.Background()

	if err := st.EnqueueDistribution(ctx, distFor(1, 10, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batch, err := b.TriggerSettlement(ctx, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch != nil {
		t.Fatalf("expected no-op, got batch %+v", batch)
	}
}

// Property 9: settlement queue uniqueness — re-enqueuing the same
// (payment_id, recipient) must not duplicate an entry or its amount.
func TestTriggerSettlementDeduplicatesOnPaymentAndRecipient(t *testing.T) {
	st := storetest.New()
	b := NewBatcher(st, localledger.New(), nil)
	ctx := context.Background()

	d := distFor(1, 500_000, 100)
	if err := st.EnqueueDistribution(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.EnqueueDistribution(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, err := st.GetPending(ctx, types.PendingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending distribution after duplicate enqueue, got %d", len(pending))
	}
}

func TestTriggerSettlementBuildsAndMarksBatch(t *testing.T) {
	st := storetest.New()
	b := NewBatcher(st, localledger.New(), nil)
	ctx := context.Background()

	if err := st.EnqueueDistribution(ctx, distFor(1, SettlementThreshold, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.EnqueueDistribution(ctx, distFor(2, 50, 200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batch, err := b.TriggerSettlement(ctx, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch == nil {
		t.Fatalf("expected a batch to be built")
	}
	if len(batch.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(batch.Entries))
	}
	if batch.MerkleRoot.IsZero() {
		t.Fatalf("batch merkle root should not be zero")
	}

	pending, err := st.GetPending(ctx, types.PendingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending distributions after settlement, got %d", len(pending))
	}

	last, err := st.GetLastSettlementTime(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last != 300 {
		t.Fatalf("last settlement time = %d, want 300", last)
	}
}

func TestTriggerSettlementAggregatesByRecipient(t *testing.T) {
	st := storetest.New()
	b := NewBatcher(st, localledger.New(), nil)
	ctx := context.Background()

	if err := st.EnqueueDistribution(ctx, distFor(1, SettlementThreshold/2, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2 := distFor(1, SettlementThreshold/2, 200)
	d2.PaymentID = types.Hash{1, 9, 9}
	if err := st.EnqueueDistribution(ctx, d2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batch, err := b.TriggerSettlement(ctx, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch == nil || len(batch.Entries) != 1 {
		t.Fatalf("expected a single aggregated entry, got %+v", batch)
	}
	if batch.Entries[0].Amount != SettlementThreshold {
		t.Fatalf("aggregated amount = %d, want %d", batch.Entries[0].Amount, SettlementThreshold)
	}
}
