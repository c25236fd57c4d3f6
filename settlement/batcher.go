// Package settlement implements the settlement batcher (§4.7): the
// periodic aggregation of enqueued revenue credits into Merkle-rooted
// batches for submission to the on-ledger adapter.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/ledger"
	"nodalync.dev/core/store"
	"nodalync.dev/core/types"
)

// SettlementThreshold and SettlementInterval are the protocol
// constants should_settle compares pending totals and elapsed time
// against (§4.7).
const (
	SettlementThreshold uint64 = 1_000_000
	SettlementIntervalMs int64 = 6 * 60 * 60 * 1000 // 6h
)

// ShouldSettle implements §4.7's trigger predicate exactly.
func ShouldSettle(pendingTotal uint64, lastSettlementMs, nowMs int64) bool {
	if pendingTotal >= SettlementThreshold {
		return true
	}
	return nowMs-lastSettlementMs >= SettlementIntervalMs
}

// Batcher drives trigger_settlement against a Store and a
// ledger.Settlement adapter.
type Batcher struct {
	Store    store.Store
	Ledger   ledger.Settlement
	Log      *slog.Logger
}

func NewBatcher(st store.Store, lg ledger.Settlement, log *slog.Logger) *Batcher {
	if log == nil {
		log = slog.Default()
	}
	return &Batcher{Store: st, Ledger: lg, Log: log}
}

// TriggerSettlement runs §4.7's trigger_settlement. It is a no-op
// (nil, nil) if should_settle is false. On a failed on-ledger
// submission the unsettled queue is left untouched and the error is
// returned — the next periodic call will retry the same entries.
func (b *Batcher) TriggerSettlement(ctx context.Context, nowMs int64) (*types.SettlementBatch, error) {
	lastSettlementMs, err := b.Store.GetLastSettlementTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("settlement: load last settlement time: %w", err)
	}

	pending, err := b.Store.GetPending(ctx, types.PendingFilter{})
	if err != nil {
		return nil, fmt.Errorf("settlement: load pending distributions: %w", err)
	}
	var pendingTotal uint64
	for _, d := range pending {
		pendingTotal += d.Amount
	}

	if !ShouldSettle(pendingTotal, lastSettlementMs, nowMs) {
		return nil, nil
	}
	if len(pending) == 0 {
		b.Log.Debug("settlement: interval elapsed but nothing pending", "now_ms", nowMs)
		if err := b.Store.SetLastSettlementTime(ctx, nowMs); err != nil {
			return nil, fmt.Errorf("settlement: advance last settlement time: %w", err)
		}
		return nil, nil
	}

	// queued_at ascending preserves insertion order (§8 "Settlement
	// queue: insertion order preserves queued_at").
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].QueuedAtMs < pending[j].QueuedAtMs })

	batch, paymentIDs := buildBatch(pending)
	root, err := MerkleRoot(batch.Entries)
	if err != nil {
		return nil, fmt.Errorf("settlement: merkle root: %w", err)
	}
	batch.MerkleRoot = root
	batch.BatchID = crypto.ContentHash(root[:])

	txID, err := b.Ledger.SettleBatch(ctx, batch)
	if err != nil {
		b.Log.Warn("settlement: on-ledger submission failed, queue left intact", "batch_id", batch.BatchID, "err", err)
		return nil, types.NewErrorf(types.ErrSettlementFailed, "on-ledger submission failed: %v", err)
	}
	_ = txID

	if err := b.Store.MarkSettled(ctx, paymentIDs, batch.BatchID); err != nil {
		return nil, fmt.Errorf("settlement: mark settled: %w", err)
	}
	if err := b.Store.SetLastSettlementTime(ctx, nowMs); err != nil {
		return nil, fmt.Errorf("settlement: advance last settlement time: %w", err)
	}
	b.Log.Info("settlement: batch submitted", "batch_id", batch.BatchID, "entries", len(batch.Entries), "tx_id", txID)
	return &batch, nil
}

// buildBatch aggregates QueuedDistributions by recipient, in the
// order recipients first appear (insertion order per §4.7 step 3),
// collecting each recipient's provenance hashes alongside their
// summed amount.
func buildBatch(pending []types.QueuedDistribution) (types.SettlementBatch, []types.Hash) {
	order := make([]types.PeerId, 0, len(pending))
	byRecipient := make(map[types.PeerId]*types.SettlementBatchEntry, len(pending))
	paymentIDs := make([]types.Hash, 0, len(pending))

	for _, d := range pending {
		e, ok := byRecipient[d.Recipient]
		if !ok {
			e = &types.SettlementBatchEntry{Recipient: d.Recipient}
			byRecipient[d.Recipient] = e
			order = append(order, d.Recipient)
		}
		e.Amount += d.Amount
		e.ProvenanceHashes = append(e.ProvenanceHashes, d.SourceHash)
		paymentIDs = append(paymentIDs, d.PaymentID)
	}

	entries := make([]types.SettlementBatchEntry, 0, len(order))
	for _, r := range order {
		entries = append(entries, *byRecipient[r])
	}
	return types.SettlementBatch{Entries: entries}, paymentIDs
}
