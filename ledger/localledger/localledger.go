// Package localledger is a purely off-chain ledger.Settlement
// implementation — the "test/local mode" funding path §4.5 calls out
// explicitly for deposits and channel opens that never touch a real
// chain. Every call succeeds immediately and deterministically; there
// is no on-ledger state to fail against.
package localledger

import (
	"context"
	"sync"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/ledger"
	"nodalync.dev/core/types"
)

type Ledger struct {
	mu  sync.Mutex
	seq uint64
}

func New() *Ledger {
	return &Ledger{}
}

var _ ledger.Settlement = (*Ledger)(nil)

func (l *Ledger) nextTxID(label string) types.Hash {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()
	buf := make([]byte, 0, len(label)+8)
	buf = append(buf, label...)
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(seq>>(8*i)))
	}
	return crypto.ContentHash(buf)
}

func (l *Ledger) Deposit(_ context.Context, peer types.PeerId, amount uint64) (types.Hash, error) {
	return l.nextTxID("local/deposit/" + peer.String()), nil
}

func (l *Ledger) Withdraw(_ context.Context, peer types.PeerId, amount uint64) (types.Hash, error) {
	return l.nextTxID("local/withdraw/" + peer.String()), nil
}

func (l *Ledger) SettleBatch(_ context.Context, batch types.SettlementBatch) (types.Hash, error) {
	return l.nextTxID("local/settle/" + batch.MerkleRoot.String()), nil
}

func (l *Ledger) Verify(_ context.Context, txID types.Hash) (ledger.TxStatus, error) {
	return ledger.StatusConfirmed, nil
}

func (l *Ledger) OpenChannel(_ context.Context, channelID types.Hash, peer types.PeerId, deposit uint64) (types.Hash, error) {
	return l.nextTxID("local/channel-open/" + channelID.String()), nil
}

func (l *Ledger) CloseChannel(_ context.Context, channelID types.Hash, finalMyBalance, finalTheirBalance uint64) (types.Hash, error) {
	return l.nextTxID("local/channel-close/" + channelID.String()), nil
}

func (l *Ledger) DisputeChannel(_ context.Context, channelID types.Hash, nonce uint64, myBalance, theirBalance uint64) (types.Hash, error) {
	return l.nextTxID("local/channel-dispute/" + channelID.String()), nil
}
