// Package loopback is an in-process network.Network implementation
// over Go channels — no libp2p dependency, since the wire transport
// and DHT algorithm are out of scope (§1). It backs single-node
// developer mode and the core's own tests.
package loopback

import (
	"context"
	"fmt"
	"sync"

	"nodalync.dev/core/network"
	"nodalync.dev/core/types"
	"nodalync.dev/core/wire"
)

// Hub wires together a set of Network peers that deliver envelopes to
// each other in-process and share one DHT table.
type Hub struct {
	mu    sync.Mutex
	peers map[types.PeerId]chan wire.Envelope
	dht   map[types.Hash]network.Announcement
}

func NewHub() *Hub {
	return &Hub{
		peers: make(map[types.PeerId]chan wire.Envelope),
		dht:   make(map[types.Hash]network.Announcement),
	}
}

// Join registers a new peer on the hub and returns its Network handle.
func (h *Hub) Join(id types.PeerId) *Peer {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan wire.Envelope, 64)
	h.peers[id] = ch
	return &Peer{hub: h, id: id, inbox: ch}
}

// Peer is one node's view of the Hub.
type Peer struct {
	hub   *Hub
	id    types.PeerId
	inbox chan wire.Envelope
}

var _ network.Network = (*Peer)(nil)

func (p *Peer) LocalPeerID() types.PeerId { return p.id }

func (p *Peer) DHTAnnounce(_ context.Context, hash types.Hash, payload network.Announcement) error {
	p.hub.mu.Lock()
	defer p.hub.mu.Unlock()
	p.hub.dht[hash] = payload
	return nil
}

func (p *Peer) DHTGet(_ context.Context, hash types.Hash) (network.Announcement, bool, error) {
	p.hub.mu.Lock()
	defer p.hub.mu.Unlock()
	a, ok := p.hub.dht[hash]
	return a, ok, nil
}

func (p *Peer) DHTRemove(_ context.Context, hash types.Hash) error {
	p.hub.mu.Lock()
	defer p.hub.mu.Unlock()
	delete(p.hub.dht, hash)
	return nil
}

func (p *Peer) Send(ctx context.Context, peer types.PeerId, envelope wire.Envelope) error {
	p.hub.mu.Lock()
	dest, ok := p.hub.peers[peer]
	p.hub.mu.Unlock()
	if !ok {
		return fmt.Errorf("loopback: unknown peer %s", peer)
	}
	select {
	case dest <- envelope:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Peer) Broadcast(ctx context.Context, envelope wire.Envelope) error {
	p.hub.mu.Lock()
	dests := make([]chan wire.Envelope, 0, len(p.hub.peers))
	for id, ch := range p.hub.peers {
		if id == p.id {
			continue
		}
		dests = append(dests, ch)
	}
	p.hub.mu.Unlock()
	for _, dest := range dests {
		select {
		case dest <- envelope:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *Peer) NextEvent(ctx context.Context) (wire.Envelope, error) {
	select {
	case env := <-p.inbox:
		return env, nil
	case <-ctx.Done():
		return wire.Envelope{}, ctx.Err()
	}
}
