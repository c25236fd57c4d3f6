// Package network declares the transport/DHT collaborator the core
// depends on (§6.2). The libp2p wire transport and DHT algorithm are
// explicitly out of scope (§1); this package only fixes the contract
// the core drives, plus (in network/loopback) an in-process reference
// implementation used by the core's own tests and by single-node
// developer mode.
package network

import (
	"context"

	"nodalync.dev/core/types"
	"nodalync.dev/core/wire"
)

// Announcement is the payload a content owner publishes to the DHT so
// other peers can resolve a content hash to a serving peer.
type Announcement struct {
	Hash       types.Hash
	Owner      types.PeerId
	Visibility types.Visibility
}

// Network is the transport and discovery contract (§6.2).
type Network interface {
	DHTAnnounce(ctx context.Context, hash types.Hash, payload Announcement) error
	DHTGet(ctx context.Context, hash types.Hash) (Announcement, bool, error)
	DHTRemove(ctx context.Context, hash types.Hash) error

	Send(ctx context.Context, peer types.PeerId, envelope wire.Envelope) error
	Broadcast(ctx context.Context, envelope wire.Envelope) error

	// NextEvent blocks until an envelope addressed to this node
	// arrives, or ctx is cancelled.
	NextEvent(ctx context.Context) (wire.Envelope, error)

	// LocalPeerID translates this node's protocol PeerId; transports
	// that have their own native addressing scheme (a libp2p peer.ID,
	// a libp2p multiaddr) keep that translation behind this interface.
	LocalPeerID() types.PeerId
}
