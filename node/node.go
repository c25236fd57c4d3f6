package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nodalync.dev/core/channel"
	"nodalync.dev/core/crypto"
	"nodalync.dev/core/extractor"
	"nodalync.dev/core/ledger"
	"nodalync.dev/core/network"
	"nodalync.dev/core/query"
	"nodalync.dev/core/settlement"
	"nodalync.dev/core/store"
	"nodalync.dev/core/types"
	"nodalync.dev/core/wire"
)

// Node is one running Nodalync peer: an identity bound to a Store,
// Network, Settlement ledger, and Extractor, driving the channel
// manager, query pipeline, and settlement batcher on top of them.
type Node struct {
	cfg Config
	log *slog.Logger

	ID        crypto.Identity
	Store     store.Store
	Net       network.Network
	Ledger    ledger.Settlement
	Extractor extractor.Extractor

	Peers     *query.PeerDirectory
	Channels  *channel.Manager
	Requester *query.Requester
	Server    *query.Server
	Batcher   *settlement.Batcher
}

// New wires a Node from its collaborators. Callers are expected to
// have already opened st (e.g. boltstore.Open) and constructed net
// (e.g. loopback.Hub.Join or a real libp2p adapter).
func New(cfg Config, id crypto.Identity, st store.Store, net network.Network, lg ledger.Settlement, ex extractor.Extractor, log *slog.Logger) (*Node, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("node: invalid config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("peer", id.PeerID().String())

	peers := query.NewPeerDirectory()
	peers.Learn(id.Public)

	channelCfg := channel.Config{
		CloseTimeout:  cfg.CloseTimeout,
		DisputeWindow: cfg.DisputeWindow,
		OpenCooldown:  cfg.OpenCooldown,
	}
	channels := channel.NewManager(st, net, id, channelCfg)

	return &Node{
		cfg:       cfg,
		log:       log,
		ID:        id,
		Store:     st,
		Net:       net,
		Ledger:    lg,
		Extractor: ex,
		Peers:     peers,
		Channels:  channels,
		Requester: query.NewRequester(st, net, channels, peers, id),
		Server:    query.NewServer(st, net, channels, peers, id, log),
		Batcher:   settlement.NewBatcher(st, lg, log),
	}, nil
}

// Run drives the node's event loop: inbound envelopes dispatched by
// message type, and a periodic settlement tick, until ctx is
// cancelled (§5: "cooperative asynchronous I/O").
func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.SettlementTick)
	defer ticker.Stop()

	events := make(chan wire.Envelope)
	errs := make(chan error, 1)
	go func() {
		for {
			env, err := n.Net.NextEvent(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					errs <- err
				}
				return
			}
			select {
			case events <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return fmt.Errorf("node: network event loop: %w", err)
		case env := <-events:
			n.dispatch(ctx, env)
		case <-ticker.C:
			if _, err := n.Batcher.TriggerSettlement(ctx, time.Now().UnixMilli()); err != nil {
				n.log.Warn("node: settlement tick failed", "err", err)
			}
			n.sweepDisputes(ctx)
		}
	}
}

func (n *Node) dispatch(ctx context.Context, env wire.Envelope) {
	switch env.MessageType {
	case wire.MsgQueryRequest:
		if err := n.Server.HandleQueryRequest(ctx, env); err != nil {
			n.log.Debug("node: query request handling ended in error", "err", err)
		}
	case wire.MsgQueryResponse, wire.MsgQueryError:
		n.Requester.HandleResponse(env)
	case wire.MsgVersionRequest:
		if err := n.Server.HandleVersionRequest(ctx, env); err != nil {
			n.log.Debug("node: version request handling ended in error", "err", err)
		}
	case wire.MsgVersionResponse:
		n.Requester.HandleResponse(env)
	case wire.MsgChannelCloseAck:
		n.Channels.HandleCloseAck(env.ID, env)
	case wire.MsgPeerInfo:
		n.Peers.Learn(env.Payload)
	default:
		n.log.Debug("node: unhandled message type", "type", env.MessageType.String())
	}
}

// sweepDisputes resolves any channel whose dispute window has
// elapsed. A production deployment would iterate known peers from
// Store; this walks the peer directory as a stand-in for that index.
func (n *Node) sweepDisputes(ctx context.Context) {
	for _, peer := range n.Peers.Peers() {
		if _, err := n.Channels.ResolveDisputeIfReady(ctx, peer); err != nil {
			n.log.Warn("node: dispute resolution failed", "peer", peer, "err", err)
		}
	}
}

// ServeContent publishes manifest m and its bytes locally: stores the
// blob and manifest, records provenance edges, and announces the
// content hash on the DHT (§4.6's prerequisite for others to query
// it).
func (n *Node) ServeContent(ctx context.Context, m types.Manifest, bytes []byte) error {
	if err := n.Store.PutBlob(ctx, m.Hash, bytes); err != nil {
		return fmt.Errorf("node: store blob: %w", err)
	}
	if err := n.Store.PutManifest(ctx, m); err != nil {
		return fmt.Errorf("node: store manifest: %w", err)
	}
	sources := make([]types.Hash, 0, len(m.Provenance.DerivedFrom))
	sources = append(sources, m.Provenance.DerivedFrom...)
	if err := n.Store.AddProvenance(ctx, m.Hash, sources); err != nil {
		return fmt.Errorf("node: store provenance: %w", err)
	}
	return n.Net.DHTAnnounce(ctx, m.Hash, network.Announcement{Hash: m.Hash, Owner: m.Owner, Visibility: m.Visibility})
}
