// Package query implements the request-and-pay pipeline (§4.6): the
// requester side that previews, pays for, and caches content, and the
// serving side that validates and fulfills paid queries.
package query

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nodalync.dev/core/channel"
	"nodalync.dev/core/crypto"
	"nodalync.dev/core/network"
	"nodalync.dev/core/store"
	"nodalync.dev/core/types"
	"nodalync.dev/core/wire"
)

// ChannelRequiredError is returned by Query when payment is due but no
// channel to the owner exists yet — it carries what the caller needs
// to open one (§4.6: "fail with channel-required returning the peer
// info needed to open one").
type ChannelRequiredError struct {
	Owner types.PeerId
}

func (e *ChannelRequiredError) Error() string {
	return fmt.Sprintf("query: payment required but no channel to peer %s exists", e.Owner)
}

func (e *ChannelRequiredError) Unwrap() error {
	return types.NewErrorf(types.ErrChannelRequired, "no channel to peer %s", e.Owner)
}

// PeerKeys resolves a PeerId to the Ed25519 public key it was derived
// from. PeerId is a one-way hash (§3), so the core cannot recover a
// key from an id itself — a directory populated by PeerInfo exchange
// (wire.MsgPeerInfo) is an out-of-band collaborator the same way Store
// and Network are (§6.2).
type PeerKeys interface {
	Resolve(peer types.PeerId) (ed25519.PublicKey, bool)
}

// Requester drives the requester side of the query pipeline.
type Requester struct {
	Store    store.Store
	Net      network.Network
	Channels *channel.Manager
	Peers    PeerKeys
	ID       crypto.Identity

	mu      sync.Mutex
	pending map[types.Hash]chan wire.Envelope
}

func NewRequester(st store.Store, net network.Network, channels *channel.Manager, peers PeerKeys, id crypto.Identity) *Requester {
	return &Requester{
		Store:    st,
		Net:      net,
		Channels: channels,
		Peers:    peers,
		ID:       id,
		pending:  make(map[types.Hash]chan wire.Envelope),
	}
}

// HandleResponse delivers an inbound QueryResponse/QueryError envelope
// to whichever Query call is waiting on it, identified by envelope id.
// Intended to be called from the node's network event loop.
func (r *Requester) HandleResponse(env wire.Envelope) {
	r.mu.Lock()
	ch, ok := r.pending[env.ID]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- env:
	default:
	}
}

// Preview loads the manifest for hash, honoring the private-content
// denial rule (§4.6 preview). It returns the manifest only; no L1
// summary or mentions are produced. It never charges.
func Preview(ctx context.Context, st store.Store, hash types.Hash, requester types.PeerId) (types.Manifest, error) {
	m, ok, err := st.GetManifest(ctx, hash)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("query: load manifest: %w", err)
	}
	if !ok {
		return types.Manifest{}, types.NewErrorf(types.ErrUnknownSource, "no manifest for hash %s", hash)
	}
	if m.Visibility == types.Private && requester != m.Owner {
		return types.Manifest{}, types.NewError(types.ErrAccessPrivate, "content is private")
	}
	return m, nil
}

// Query implements the requester side of §4.6 query. manifest must
// already have been obtained via Preview (or is already known because
// the caller owns the content). version selects a specific prior
// hash; nil serves the latest version sharing manifest's root.
func (r *Requester) Query(ctx context.Context, manifest types.Manifest, paymentAmount uint64, version *types.Hash, timeout time.Duration) ([]byte, types.Receipt, error) {
	self := r.ID.PeerID()

	// Owned or already cached: serve locally, no payment (§4.6).
	if manifest.Owner == self {
		bytes, ok, err := r.Store.GetBlob(ctx, manifest.Hash)
		if err != nil {
			return nil, types.Receipt{}, fmt.Errorf("query: load owned blob: %w", err)
		}
		if ok {
			return bytes, types.Receipt{PaymentID: types.ZeroHash, Amount: 0, TimestampMs: nowMs()}, nil
		}
	}
	if cached, ok, err := r.Store.GetBlob(ctx, manifest.Hash); err == nil && ok {
		return cached, types.Receipt{PaymentID: types.ZeroHash, Amount: 0, TimestampMs: nowMs()}, nil
	}

	if _, ok, err := r.Net.DHTGet(ctx, manifest.Hash); err != nil {
		return nil, types.Receipt{}, fmt.Errorf("query: dht lookup: %w", err)
	} else if !ok {
		return nil, types.Receipt{}, types.NewErrorf(types.ErrUnknownSource, "no announcement for hash %s", manifest.Hash)
	}

	amount := paymentAmount
	if manifest.Economics.Price > amount {
		amount = manifest.Economics.Price
	}

	ch, hasChannel, err := r.Store.GetChannel(ctx, manifest.Owner)
	if err != nil {
		return nil, types.Receipt{}, fmt.Errorf("query: load channel: %w", err)
	}
	if amount > 0 && !hasChannel {
		return nil, types.Receipt{}, &ChannelRequiredError{Owner: manifest.Owner}
	}

	var payment types.Payment
	if hasChannel {
		nonce := ch.Nonce + 1
		payment = types.Payment{
			ChannelID:   ch.ChannelID,
			Amount:      amount,
			Recipient:   manifest.Owner,
			QueryHash:   manifest.Hash,
			Provenance:  manifest.Provenance.SortedRootSet(),
			Nonce:       nonce,
			TimestampMs: nowMs(),
		}
		payment.ID = crypto.PaymentID(payment.QueryHash, payment.Amount, payment.Nonce)
		payment.Signature = r.ID.Sign(payment.SigningBytes())
	}

	reqID := crypto.ContentHash(append(append([]byte("nodalync/query-request/v1"), manifest.Hash[:]...), payment.ID[:]...))
	payloadBytes, err := json.Marshal(RequestPayload{Hash: manifest.Hash, Payment: payment, Version: version})
	if err != nil {
		return nil, types.Receipt{}, fmt.Errorf("query: encode request: %w", err)
	}
	env := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgQueryRequest,
		ID:          reqID,
		TimestampMs: nowMs(),
		Sender:      self,
		Payload:     payloadBytes,
	}
	env.Sign(r.ID.Private)

	waitCh := make(chan wire.Envelope, 1)
	r.mu.Lock()
	r.pending[reqID] = waitCh
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, reqID)
		r.mu.Unlock()
	}()

	if err := r.Net.Send(ctx, manifest.Owner, env); err != nil {
		return nil, types.Receipt{}, fmt.Errorf("query: send request: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var respEnv wire.Envelope
	select {
	case respEnv = <-waitCh:
	case <-timer.C:
		return nil, types.Receipt{}, types.NewError(types.ErrTimeout, "query response timed out")
	case <-ctx.Done():
		return nil, types.Receipt{}, ctx.Err()
	}

	if respEnv.MessageType == wire.MsgQueryError {
		var errPayload ErrorPayload
		if err := json.Unmarshal(respEnv.Payload, &errPayload); err != nil {
			return nil, types.Receipt{}, fmt.Errorf("query: decode error response: %w", err)
		}
		return nil, types.Receipt{}, types.NewError(errPayload.Code, errPayload.Msg)
	}

	var resp ResponsePayload
	if err := json.Unmarshal(respEnv.Payload, &resp); err != nil {
		return nil, types.Receipt{}, fmt.Errorf("query: decode response: %w", err)
	}
	if crypto.ContentHash(resp.Bytes) != resp.Hash {
		return nil, types.Receipt{}, types.NewError(types.ErrHashMismatch, "returned bytes do not hash to the served content hash")
	}
	if version != nil && resp.Hash != *version {
		return nil, types.Receipt{}, types.NewError(types.ErrHashMismatch, "server served a hash other than the pinned version")
	}
	ownerPub, ok := r.Peers.Resolve(manifest.Owner)
	if !ok {
		return nil, types.Receipt{}, types.NewErrorf(types.ErrUnknownSource, "no known public key for peer %s", manifest.Owner)
	}
	if !crypto.Verify(ownerPub, resp.Receipt.SigningBytes(), resp.Receipt.Signature) {
		return nil, types.Receipt{}, types.NewError(types.ErrInvalidSignature, "receipt signature does not verify")
	}

	if err := r.Store.PutBlob(ctx, resp.Hash, resp.Bytes); err != nil {
		return nil, types.Receipt{}, fmt.Errorf("query: cache bytes: %w", err)
	}
	if hasChannel {
		if _, err := r.Channels.UpdateChannel(ctx, manifest.Owner, payment, true); err != nil {
			return nil, types.Receipt{}, fmt.Errorf("query: advance channel: %w", err)
		}
	}
	return resp.Bytes, resp.Receipt, nil
}

// GetVersions asks owner for every version sharing hash's root,
// newest first — the requester-side counterpart to
// Server.HandleVersionRequest (§4.6).
func (r *Requester) GetVersions(ctx context.Context, owner types.PeerId, hash types.Hash, timeout time.Duration) ([]VersionInfo, error) {
	self := r.ID.PeerID()

	reqID := crypto.ContentHash(append([]byte("nodalync/version-request/v1"), hash[:]...))
	payloadBytes, err := json.Marshal(VersionRequestPayload{Hash: hash})
	if err != nil {
		return nil, fmt.Errorf("query: encode version request: %w", err)
	}
	env := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgVersionRequest,
		ID:          reqID,
		TimestampMs: nowMs(),
		Sender:      self,
		Payload:     payloadBytes,
	}
	env.Sign(r.ID.Private)

	waitCh := make(chan wire.Envelope, 1)
	r.mu.Lock()
	r.pending[reqID] = waitCh
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, reqID)
		r.mu.Unlock()
	}()

	if err := r.Net.Send(ctx, owner, env); err != nil {
		return nil, fmt.Errorf("query: send version request: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var respEnv wire.Envelope
	select {
	case respEnv = <-waitCh:
	case <-timer.C:
		return nil, types.NewError(types.ErrTimeout, "version response timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if respEnv.MessageType == wire.MsgQueryError {
		var errPayload ErrorPayload
		if err := json.Unmarshal(respEnv.Payload, &errPayload); err != nil {
			return nil, fmt.Errorf("query: decode error response: %w", err)
		}
		return nil, types.NewError(errPayload.Code, errPayload.Msg)
	}

	var resp VersionResponsePayload
	if err := json.Unmarshal(respEnv.Payload, &resp); err != nil {
		return nil, fmt.Errorf("query: decode version response: %w", err)
	}
	return resp.Versions, nil
}

func nowMs() int64 { return time.Now().UnixMilli() }
