// Package boltstore is a bbolt-backed implementation of store.Store,
// one bucket per entity (§6.3), grounded on the same embedded-KV
// wiring pattern the ecosystem uses for its block/UTXO store: open one
// database file, create every bucket up front, and wrap each access in
// a single View/Update transaction.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"nodalync.dev/core/store"
	"nodalync.dev/core/types"
)

var _ store.Store = (*Store)(nil)

var (
	bucketBlobs        = []byte("blobs_by_hash")
	bucketManifests    = []byte("manifests_by_hash")
	bucketProvenance   = []byte("provenance_edges_by_hash")
	bucketChannels     = []byte("channels_by_peer")
	bucketDistributions = []byte("queued_distributions")
	bucketMeta         = []byte("meta")
)

var keyLastSettlement = []byte("last_settlement_time_ms")

// Store is a bbolt-backed store.Store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt database at
// filepath.Join(dataDir, "nodalync.db") and ensures every bucket
// exists.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("boltstore: data dir required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("boltstore: create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "nodalync.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open bbolt: %w", err)
	}
	s := &Store{db: db}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketBlobs, bucketManifests, bucketProvenance, bucketChannels, bucketDistributions, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) PutBlob(_ context.Context, hash types.Hash, bytes []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put(hash[:], bytes)
	})
}

func (s *Store) GetBlob(_ context.Context, hash types.Hash) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get(hash[:])
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, out != nil, err
}

func (s *Store) PutManifest(_ context.Context, m types.Manifest) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("boltstore: encode manifest: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketManifests).Put(m.Hash[:], b)
	})
}

func (s *Store) GetManifest(_ context.Context, hash types.Hash) (types.Manifest, bool, error) {
	var m types.Manifest
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketManifests).Get(hash[:])
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}
		found = true
		return nil
	})
	return m, found, err
}

func (s *Store) ListManifests(_ context.Context, filter types.ManifestFilter) ([]types.Manifest, error) {
	var out []types.Manifest
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketManifests).ForEach(func(_, v []byte) error {
			var m types.Manifest
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if filter.Match(m) {
				out = append(out, m)
			}
			return nil
		})
	})
	return out, err
}

func (s *Store) AddProvenance(_ context.Context, hash types.Hash, sources []types.Hash) error {
	b, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("boltstore: encode provenance edges: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProvenance).Put(hash[:], b)
	})
}

func (s *Store) CreateChannel(ctx context.Context, peer types.PeerId, ch types.Channel) error {
	return s.putChannel(peer, ch)
}

func (s *Store) UpdateChannel(_ context.Context, peer types.PeerId, ch types.Channel) error {
	return s.putChannel(peer, ch)
}

func (s *Store) putChannel(peer types.PeerId, ch types.Channel) error {
	b, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("boltstore: encode channel: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketChannels).Put(peer[:], b)
	})
}

func (s *Store) GetChannel(_ context.Context, peer types.PeerId) (types.Channel, bool, error) {
	var ch types.Channel
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketChannels).Get(peer[:])
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &ch); err != nil {
			return err
		}
		found = true
		return nil
	})
	return ch, found, err
}

// distributionKey makes (payment_id, recipient) the unique index §4.7
// requires: insert is a Put on this composite key, which is naturally
// idempotent in a KV store.
func distributionKey(paymentID types.Hash, recipient types.PeerId) []byte {
	key := make([]byte, 0, 32+20)
	key = append(key, paymentID[:]...)
	key = append(key, recipient[:]...)
	return key
}

func (s *Store) EnqueueDistribution(_ context.Context, d types.QueuedDistribution) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("boltstore: encode distribution: %w", err)
	}
	key := distributionKey(d.PaymentID, d.Recipient)
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketDistributions)
		if existing := bucket.Get(key); existing != nil {
			return nil // idempotent per (payment_id, recipient) (§4.7)
		}
		return bucket.Put(key, b)
	})
}

func (s *Store) GetPending(_ context.Context, filter types.PendingFilter) ([]types.QueuedDistribution, error) {
	var out []types.QueuedDistribution
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDistributions).ForEach(func(_, v []byte) error {
			var d types.QueuedDistribution
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if filter.Match(d) {
				out = append(out, d)
			}
			return nil
		})
	})
	return out, err
}

func (s *Store) MarkSettled(_ context.Context, paymentIDs []types.Hash, batchID types.Hash) error {
	wanted := make(map[types.Hash]struct{}, len(paymentIDs))
	for _, id := range paymentIDs {
		wanted[id] = struct{}{}
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketDistributions)
		return bucket.ForEach(func(k, v []byte) error {
			var d types.QueuedDistribution
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if _, ok := wanted[d.PaymentID]; !ok || d.Settled {
				return nil
			}
			d.Settled = true
			batch := batchID
			d.BatchID = &batch
			b, err := json.Marshal(d)
			if err != nil {
				return err
			}
			return bucket.Put(k, b)
		})
	})
}

func (s *Store) GetLastSettlementTime(_ context.Context) (int64, error) {
	var ts int64
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyLastSettlement)
		if v == nil {
			return nil
		}
		ts = int64(binary.BigEndian.Uint64(v))
		return nil
	})
	return ts, err
}

func (s *Store) SetLastSettlementTime(_ context.Context, ts int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(ts))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyLastSettlement, buf[:])
	})
}
