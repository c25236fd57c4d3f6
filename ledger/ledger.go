// Package ledger declares the on-chain settlement collaborator the
// core depends on (§6.2). The ledger itself (token, consensus rules)
// is out of scope (§1, §6.1 Non-goals); this package fixes the
// interface and (in ledger/localledger) provides the purely off-chain
// "test/local mode" funding path §4.5 calls out explicitly.
package ledger

import (
	"context"

	"nodalync.dev/core/types"
)

// TxStatus is the on-chain confirmation state of a submitted
// transaction or batch.
type TxStatus uint8

const (
	StatusUnknown TxStatus = iota
	StatusPending
	StatusConfirmed
	StatusFailed
)

// Settlement is the on-ledger adapter contract (§6.2). Every method is
// idempotent on its identifying input (deposit/withdraw reference,
// batch id, channel id) per §5's cancellation rules.
type Settlement interface {
	Deposit(ctx context.Context, peer types.PeerId, amount uint64) (txID types.Hash, err error)
	Withdraw(ctx context.Context, peer types.PeerId, amount uint64) (txID types.Hash, err error)

	SettleBatch(ctx context.Context, batch types.SettlementBatch) (txID types.Hash, err error)
	Verify(ctx context.Context, txID types.Hash) (TxStatus, error)

	OpenChannel(ctx context.Context, channelID types.Hash, peer types.PeerId, deposit uint64) (txID types.Hash, err error)
	CloseChannel(ctx context.Context, channelID types.Hash, finalMyBalance, finalTheirBalance uint64) (txID types.Hash, err error)
	DisputeChannel(ctx context.Context, channelID types.Hash, nonce uint64, myBalance, theirBalance uint64) (txID types.Hash, err error)
}
