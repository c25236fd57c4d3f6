package channel

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/network"
	"nodalync.dev/core/store"
	"nodalync.dev/core/types"
	"nodalync.dev/core/wire"
)

// Config holds the channel manager's protocol-constant knobs (§4.5, §5).
type Config struct {
	CloseTimeout    time.Duration
	DisputeWindow   time.Duration // recommended 24h (§4.5)
	OpenCooldown    time.Duration // §9 open question: resolved per-peer, see DESIGN.md
}

func DefaultConfig() Config {
	return Config{
		CloseTimeout:  30 * time.Second,
		DisputeWindow: 24 * time.Hour,
		OpenCooldown:  10 * time.Second,
	}
}

// CloseResult is returned by CloseChannel (§4.5 close_channel).
type CloseResult struct {
	MyBalance    uint64
	TheirBalance uint64
	FundingTxID  *types.Hash
}

// Manager orchestrates the channel state machine against a Store and
// a Network, serializing per-channel mutation with a KeyedMutex
// (§5: "a channel cannot be mutated concurrently"). State-transition
// logic itself lives in transitions.go and is pure; Manager's job is
// wiring those pure functions to persistence, signing, and transport.
type Manager struct {
	store store.Store
	net   network.Network
	id    crypto.Identity
	cfg   Config

	locks *KeyedMutex

	mu            sync.Mutex
	lastOpenAt    map[types.PeerId]time.Time
	pendingCloses map[types.Hash]chan wire.Envelope
}

func NewManager(st store.Store, net network.Network, id crypto.Identity, cfg Config) *Manager {
	return &Manager{
		store:         st,
		net:           net,
		id:            id,
		cfg:           cfg,
		locks:         NewKeyedMutex(),
		lastOpenAt:    make(map[types.PeerId]time.Time),
		pendingCloses: make(map[types.Hash]chan wire.Envelope),
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// OpenChannel opens a new channel to peer, funding it with deposit
// sub-units (§4.5 open_channel). It enforces the configured per-peer
// cooldown between channel-open attempts (§9).
func (m *Manager) OpenChannel(ctx context.Context, peer types.PeerId, deposit uint64, fundingTxID *types.Hash) (types.Channel, error) {
	m.mu.Lock()
	last, ok := m.lastOpenAt[peer]
	now := time.Now()
	if ok && now.Sub(last) < m.cfg.OpenCooldown {
		m.mu.Unlock()
		return types.Channel{}, types.NewErrorf(types.ErrCooldownActive, "channel-open cooldown active for peer %s, retry after %s", peer, m.cfg.OpenCooldown)
	}
	m.lastOpenAt[peer] = now
	m.mu.Unlock()

	channelID := crypto.ContentHash(append(append([]byte("nodalync/channel/v1"), m.id.PeerID().String()...), peer.String()...))
	ch, err := Open(channelID, peer, deposit, fundingTxID, nowMs())
	if err != nil {
		return types.Channel{}, err
	}
	if err := m.store.CreateChannel(ctx, peer, ch); err != nil {
		return types.Channel{}, fmt.Errorf("channel: persist open: %w", err)
	}

	env := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgChannelOpen,
		ID:          channelID,
		TimestampMs: nowMs(),
		Sender:      m.id.PeerID(),
		Payload:     channelID[:],
	}
	env.Sign(m.id.Private)
	if err := m.net.Send(ctx, peer, env); err != nil {
		return types.Channel{}, fmt.Errorf("channel: send open: %w", err)
	}
	return ch, nil
}

// AcceptChannel accepts an incoming ChannelOpen, identified by
// channelID and the opener's declared deposit, replying with
// ChannelAccept (§4.5 accept_channel). peerPub is the opener's
// verified public key (resolved by the caller from its own peer
// registry — key discovery is out of scope here).
func (m *Manager) AcceptChannel(ctx context.Context, channelID types.Hash, opener types.PeerId, peerPub ed25519.PublicKey, openerDeposit, myDeposit uint64, openEnvelope wire.Envelope) (types.Channel, error) {
	if !openEnvelope.Verify(peerPub) {
		return types.Channel{}, types.NewError(types.ErrInvalidSignature, "channel open envelope does not verify")
	}
	ch := Accept(channelID, opener, openerDeposit, myDeposit, nil, nowMs())
	if err := m.store.CreateChannel(ctx, opener, ch); err != nil {
		return types.Channel{}, fmt.Errorf("channel: persist accept: %w", err)
	}
	env := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgChannelAccept,
		ID:          channelID,
		TimestampMs: nowMs(),
		Sender:      m.id.PeerID(),
		Payload:     channelID[:],
	}
	env.Sign(m.id.Private)
	if err := m.net.Send(ctx, opener, env); err != nil {
		return types.Channel{}, fmt.Errorf("channel: send accept: %w", err)
	}
	return ch, nil
}

// ConfirmOpen transitions the opener's own Opening record to Open once
// ChannelAccept arrives.
func (m *Manager) ConfirmOpen(ctx context.Context, peer types.PeerId) (types.Channel, error) {
	unlock := m.locks.Lock([32]byte(mustChannelID(ctx, m.store, peer)))
	defer unlock()

	ch, ok, err := m.store.GetChannel(ctx, peer)
	if err != nil {
		return types.Channel{}, fmt.Errorf("channel: load: %w", err)
	}
	if !ok {
		return types.Channel{}, types.NewError(types.ErrChannelNotOpen, "no channel record for peer")
	}
	ch, err = ActivateOpening(ch, nowMs())
	if err != nil {
		return types.Channel{}, err
	}
	if err := m.store.UpdateChannel(ctx, peer, ch); err != nil {
		return types.Channel{}, fmt.Errorf("channel: persist activate: %w", err)
	}
	return ch, nil
}

// mustChannelID is a small helper so ConfirmOpen can take the keyed
// lock before it even knows the channel id (lock granularity here is
// per-peer, one channel per peer, matching Store.GetChannel's shape).
func mustChannelID(ctx context.Context, st store.Store, peer types.PeerId) types.Hash {
	ch, ok, err := st.GetChannel(ctx, peer)
	if err != nil || !ok {
		return types.Hash(crypto.ContentHash(peer[:]))
	}
	return ch.ChannelID
}

// UpdateChannel applies payment to the channel with peer, serialized
// per-channel (§4.5 update_channel, §5). weAreSender indicates which
// side of the payment this node is on.
func (m *Manager) UpdateChannel(ctx context.Context, peer types.PeerId, payment types.Payment, weAreSender bool) (types.Channel, error) {
	ch, ok, err := m.store.GetChannel(ctx, peer)
	if err != nil {
		return types.Channel{}, fmt.Errorf("channel: load: %w", err)
	}
	if !ok {
		return types.Channel{}, types.NewError(types.ErrChannelNotOpen, "no channel record for peer")
	}
	unlock := m.locks.Lock([32]byte(ch.ChannelID))
	defer unlock()

	// Re-load under the lock: another goroutine may have advanced the
	// channel between the unlocked GetChannel above and acquiring the
	// per-channel lock.
	ch, ok, err = m.store.GetChannel(ctx, peer)
	if err != nil {
		return types.Channel{}, fmt.Errorf("channel: reload: %w", err)
	}
	if !ok {
		return types.Channel{}, types.NewError(types.ErrChannelNotOpen, "no channel record for peer")
	}

	var updated types.Channel
	if weAreSender {
		updated, err = ApplySenderPayment(ch, payment, nowMs())
	} else {
		updated, err = ApplyRecipientPayment(ch, payment, nowMs())
	}
	if err != nil {
		return types.Channel{}, err
	}
	if err := m.store.UpdateChannel(ctx, peer, updated); err != nil {
		return types.Channel{}, fmt.Errorf("channel: persist update: %w", err)
	}
	return updated, nil
}

// HandleCloseAck delivers an inbound ChannelCloseAck to whichever
// CloseChannel call is waiting on it. Safe to call from an event-loop
// goroutine distinct from the one running CloseChannel.
func (m *Manager) HandleCloseAck(channelID types.Hash, env wire.Envelope) {
	m.mu.Lock()
	ch, ok := m.pendingCloses[channelID]
	m.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- env:
	default:
	}
}

// CloseChannel attempts a cooperative close (§4.5 close_channel): it
// records the final balances and nonce in the channel's PendingClose,
// sends a signed ChannelClose envelope whose payload is the channel id
// only (the balances and nonce are not part of what is signed or
// sent), and waits up to the configured close timeout for a
// ChannelCloseAck. If the peer
// does not respond, it returns ErrPeerUnresponsive rather than ever
// moving on-chain unilaterally.
func (m *Manager) CloseChannel(ctx context.Context, peer types.PeerId) (CloseResult, error) {
	ch, ok, err := m.store.GetChannel(ctx, peer)
	if err != nil {
		return CloseResult{}, fmt.Errorf("channel: load: %w", err)
	}
	if !ok {
		return CloseResult{}, types.NewError(types.ErrChannelNotOpen, "no channel record for peer")
	}

	unlock := m.locks.Lock([32]byte(ch.ChannelID))
	ch, err = BeginCooperativeClose(ch, nowMs())
	if err != nil {
		unlock()
		return CloseResult{}, err
	}
	if err := m.store.UpdateChannel(ctx, peer, ch); err != nil {
		unlock()
		return CloseResult{}, fmt.Errorf("channel: persist closing: %w", err)
	}
	unlock()

	waitCh := make(chan wire.Envelope, 1)
	m.mu.Lock()
	m.pendingCloses[ch.ChannelID] = waitCh
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pendingCloses, ch.ChannelID)
		m.mu.Unlock()
	}()

	env := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgChannelClose,
		ID:          ch.ChannelID,
		TimestampMs: nowMs(),
		Sender:      m.id.PeerID(),
		Payload:     ch.ChannelID[:],
	}
	env.Sign(m.id.Private)
	if err := m.net.Send(ctx, peer, env); err != nil {
		return CloseResult{}, fmt.Errorf("channel: send close: %w", err)
	}

	timer := time.NewTimer(m.cfg.CloseTimeout)
	defer timer.Stop()
	select {
	case <-waitCh:
		unlock := m.locks.Lock([32]byte(ch.ChannelID))
		defer unlock()
		ch, ok, err = m.store.GetChannel(ctx, peer)
		if err != nil || !ok {
			return CloseResult{}, fmt.Errorf("channel: reload after ack: %w", err)
		}
		ch, err = FinalizeCooperativeClose(ch, nowMs())
		if err != nil {
			return CloseResult{}, err
		}
		if err := m.store.UpdateChannel(ctx, peer, ch); err != nil {
			return CloseResult{}, fmt.Errorf("channel: persist closed: %w", err)
		}
		return CloseResult{MyBalance: ch.MyBalance, TheirBalance: ch.TheirBalance, FundingTxID: ch.FundingTxID}, nil
	case <-timer.C:
		return CloseResult{}, ErrPeerUnresponsive
	case <-ctx.Done():
		return CloseResult{}, ctx.Err()
	}
}

// Dispute moves the channel with peer into Disputed (§4.5 dispute),
// recording the current balances and nonce in PendingDispute, and
// sends one signed ChannelDispute envelope to peer only (it is not
// broadcast). The envelope's payload is the channel id only; the
// balances and nonce are not part of what is signed or sent.
func (m *Manager) Dispute(ctx context.Context, peer types.PeerId) (types.Channel, error) {
	ch, ok, err := m.store.GetChannel(ctx, peer)
	if err != nil {
		return types.Channel{}, fmt.Errorf("channel: load: %w", err)
	}
	if !ok {
		return types.Channel{}, types.NewError(types.ErrChannelNotOpen, "no channel record for peer")
	}
	unlock := m.locks.Lock([32]byte(ch.ChannelID))
	defer unlock()

	ch, err = BeginDispute(ch, nowMs())
	if err != nil {
		return types.Channel{}, err
	}
	if err := m.store.UpdateChannel(ctx, peer, ch); err != nil {
		return types.Channel{}, fmt.Errorf("channel: persist dispute: %w", err)
	}
	env := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgChannelDispute,
		ID:          ch.ChannelID,
		TimestampMs: nowMs(),
		Sender:      m.id.PeerID(),
		Payload:     ch.ChannelID[:],
	}
	env.Sign(m.id.Private)
	if err := m.net.Send(ctx, peer, env); err != nil {
		return types.Channel{}, fmt.Errorf("channel: broadcast dispute: %w", err)
	}
	return ch, nil
}

// ResolveDisputeIfReady finalizes a disputed channel once its window
// has elapsed; it is a no-op (returns the channel unchanged, nil
// error) if the channel is not in Disputed state or the window has
// not yet elapsed. Intended to be polled periodically by node's
// background loop (§5: cooperative, no lock-step ordering required).
func (m *Manager) ResolveDisputeIfReady(ctx context.Context, peer types.PeerId) (types.Channel, error) {
	ch, ok, err := m.store.GetChannel(ctx, peer)
	if err != nil {
		return types.Channel{}, fmt.Errorf("channel: load: %w", err)
	}
	if !ok || ch.State != types.Disputed {
		return ch, nil
	}
	unlock := m.locks.Lock([32]byte(ch.ChannelID))
	defer unlock()

	resolved, err := ResolveDispute(ch, m.cfg.DisputeWindow.Milliseconds(), nowMs())
	if err != nil {
		if types.CodeOf(err) == types.ErrDisputePeriodNotElapsed {
			return ch, nil
		}
		return types.Channel{}, err
	}
	if err := m.store.UpdateChannel(ctx, peer, resolved); err != nil {
		return types.Channel{}, fmt.Errorf("channel: persist resolved dispute: %w", err)
	}
	return resolved, nil
}
