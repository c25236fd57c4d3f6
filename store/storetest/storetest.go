// Package storetest provides an in-memory store.Store double for the
// core's own tests, mirroring boltstore's semantics without touching
// disk.
package storetest

import (
	"context"
	"sync"

	"nodalync.dev/core/store"
	"nodalync.dev/core/types"
)

type distKey struct {
	paymentID types.Hash
	recipient types.PeerId
}

// Store is a goroutine-safe, in-memory store.Store.
type Store struct {
	mu            sync.Mutex
	blobs         map[types.Hash][]byte
	manifests     map[types.Hash]types.Manifest
	provenance    map[types.Hash][]types.Hash
	channels      map[types.PeerId]types.Channel
	distributions map[distKey]types.QueuedDistribution
	distOrder     []distKey
	lastSettle    int64
}

func New() *Store {
	return &Store{
		blobs:         make(map[types.Hash][]byte),
		manifests:     make(map[types.Hash]types.Manifest),
		provenance:    make(map[types.Hash][]types.Hash),
		channels:      make(map[types.PeerId]types.Channel),
		distributions: make(map[distKey]types.QueuedDistribution),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) PutBlob(_ context.Context, hash types.Hash, bytes []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[hash] = append([]byte(nil), bytes...)
	return nil
}

func (s *Store) GetBlob(_ context.Context, hash types.Hash) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[hash]
	return b, ok, nil
}

func (s *Store) PutManifest(_ context.Context, m types.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[m.Hash] = m
	return nil
}

func (s *Store) GetManifest(_ context.Context, hash types.Hash) (types.Manifest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.manifests[hash]
	return m, ok, nil
}

func (s *Store) ListManifests(_ context.Context, filter types.ManifestFilter) ([]types.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Manifest
	for _, m := range s.manifests {
		if filter.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) AddProvenance(_ context.Context, hash types.Hash, sources []types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provenance[hash] = append([]types.Hash(nil), sources...)
	return nil
}

func (s *Store) CreateChannel(_ context.Context, peer types.PeerId, ch types.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[peer] = ch
	return nil
}

func (s *Store) UpdateChannel(_ context.Context, peer types.PeerId, ch types.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[peer] = ch
	return nil
}

func (s *Store) GetChannel(_ context.Context, peer types.PeerId) (types.Channel, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[peer]
	return ch, ok, nil
}

func (s *Store) EnqueueDistribution(_ context.Context, d types.QueuedDistribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := distKey{paymentID: d.PaymentID, recipient: d.Recipient}
	if _, exists := s.distributions[key]; exists {
		return nil
	}
	s.distributions[key] = d
	s.distOrder = append(s.distOrder, key)
	return nil
}

func (s *Store) GetPending(_ context.Context, filter types.PendingFilter) ([]types.QueuedDistribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.QueuedDistribution
	for _, key := range s.distOrder {
		d := s.distributions[key]
		if filter.Match(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) MarkSettled(_ context.Context, paymentIDs []types.Hash, batchID types.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[types.Hash]struct{}, len(paymentIDs))
	for _, id := range paymentIDs {
		wanted[id] = struct{}{}
	}
	for key, d := range s.distributions {
		if _, ok := wanted[d.PaymentID]; !ok || d.Settled {
			continue
		}
		d.Settled = true
		batch := batchID
		d.BatchID = &batch
		s.distributions[key] = d
	}
	return nil
}

func (s *Store) GetLastSettlementTime(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSettle, nil
}

func (s *Store) SetLastSettlementTime(_ context.Context, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSettle = ts
	return nil
}
