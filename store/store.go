// Package store declares the persistence collaborator the core
// depends on (§6.2). The core never implements durable storage
// itself — the embedded key-value/blob store is explicitly out of
// scope (§1) — but it needs a narrow, transactional interface to
// drive. See store/boltstore for a concrete bbolt-backed
// implementation and store/storetest for the in-memory double this
// package's own tests (and the rest of the core's tests) run against.
package store

import (
	"context"

	"nodalync.dev/core/types"
)

// Store is the persistence contract every operation in validator,
// channel, query, and settlement is written against. Every method is
// transactional per call (§6.2): the core never spans a transaction
// across an awaitable boundary it does not control.
type Store interface {
	PutBlob(ctx context.Context, hash types.Hash, bytes []byte) error
	GetBlob(ctx context.Context, hash types.Hash) ([]byte, bool, error)

	PutManifest(ctx context.Context, m types.Manifest) error
	GetManifest(ctx context.Context, hash types.Hash) (types.Manifest, bool, error)
	ListManifests(ctx context.Context, filter types.ManifestFilter) ([]types.Manifest, error)

	// AddProvenance records the content -> source hash edges for hash.
	// The Provenance value itself lives on the Manifest; this call
	// additionally persists the edge list for graph queries.
	AddProvenance(ctx context.Context, hash types.Hash, sources []types.Hash) error

	CreateChannel(ctx context.Context, peer types.PeerId, ch types.Channel) error
	GetChannel(ctx context.Context, peer types.PeerId) (types.Channel, bool, error)
	UpdateChannel(ctx context.Context, peer types.PeerId, ch types.Channel) error

	EnqueueDistribution(ctx context.Context, d types.QueuedDistribution) error
	GetPending(ctx context.Context, filter types.PendingFilter) ([]types.QueuedDistribution, error)
	MarkSettled(ctx context.Context, paymentIDs []types.Hash, batchID types.Hash) error

	GetLastSettlementTime(ctx context.Context) (int64, error)
	SetLastSettlementTime(ctx context.Context, ts int64) error
}
