package query

import (
	"crypto/ed25519"
	"sync"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/types"
)

// PeerDirectory is an in-memory PeerKeys implementation populated from
// PeerInfo envelopes as they arrive. It is the reference collaborator
// used by single-process and test deployments; a networked deployment
// could instead persist the directory in Store.
type PeerDirectory struct {
	mu   sync.RWMutex
	keys map[types.PeerId]ed25519.PublicKey
}

func NewPeerDirectory() *PeerDirectory {
	return &PeerDirectory{keys: make(map[types.PeerId]ed25519.PublicKey)}
}

func (d *PeerDirectory) Learn(pub ed25519.PublicKey) types.PeerId {
	id := crypto.PeerIDFromPublicKey(pub)
	d.mu.Lock()
	d.keys[id] = append(ed25519.PublicKey(nil), pub...)
	d.mu.Unlock()
	return id
}

func (d *PeerDirectory) Resolve(peer types.PeerId) (ed25519.PublicKey, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pub, ok := d.keys[peer]
	return pub, ok
}

// Peers lists every peer id the directory currently knows a key for.
func (d *PeerDirectory) Peers() []types.PeerId {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]types.PeerId, 0, len(d.keys))
	for id := range d.keys {
		out = append(out, id)
	}
	return out
}
