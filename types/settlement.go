package types

// RevenueCredit is one line of the revenue splitter's output (§4.4):
// a recipient, an amount, and (when traceable to a specific root) the
// source hash that earned it.
type RevenueCredit struct {
	Recipient  PeerId
	Amount     uint64
	SourceHash Hash
}

// QueuedDistribution is a RevenueCredit that has been attributed to a
// specific payment and is waiting for settlement batching (§3).
type QueuedDistribution struct {
	PaymentID  Hash
	Recipient  PeerId
	Amount     uint64
	SourceHash Hash
	QueuedAtMs int64
	Settled    bool
	BatchID    *Hash
}

// SettlementBatchEntry is one aggregated line in a finalized batch —
// provenance hashes are kept (not dropped) so the on-chain adapter can
// publish an auditable trail without re-querying the store.
type SettlementBatchEntry struct {
	Recipient        PeerId
	Amount           uint64
	ProvenanceHashes []Hash
}

// SettlementBatch is one finalized, Merkle-rooted settlement (§3).
type SettlementBatch struct {
	BatchID    Hash
	Entries    []SettlementBatchEntry
	MerkleRoot Hash
}
