package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"nodalync.dev/core/channel"
	"nodalync.dev/core/crypto"
	"nodalync.dev/core/network"
	"nodalync.dev/core/revenue"
	"nodalync.dev/core/store"
	"nodalync.dev/core/types"
	"nodalync.dev/core/validator"
	"nodalync.dev/core/wire"
)

// Server handles inbound QueryRequest envelopes: it is the serving
// side of §4.6 query.
type Server struct {
	Store    store.Store
	Net      network.Network
	Channels *channel.Manager
	Peers    PeerKeys
	ID       crypto.Identity
	Log      *slog.Logger
}

func NewServer(st store.Store, net network.Network, channels *channel.Manager, peers PeerKeys, id crypto.Identity, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{Store: st, Net: net, Channels: channels, Peers: peers, ID: id, Log: log}
}

// HandleQueryRequest processes one inbound QueryRequest envelope and
// sends back QueryResponse or QueryError, exactly mirroring §4.6's
// serving-side contract: validate access, validate payment, advance
// the channel, split revenue, enqueue distributions, reply.
func (s *Server) HandleQueryRequest(ctx context.Context, env wire.Envelope) error {
	requesterPub, ok := s.Peers.Resolve(env.Sender)
	if !ok {
		return s.reply(ctx, env, types.NewErrorf(types.ErrUnknownSource, "no known public key for peer %s", env.Sender))
	}
	if !env.Verify(requesterPub) {
		return s.reply(ctx, env, types.NewError(types.ErrInvalidSignature, "request envelope does not verify"))
	}

	var req RequestPayload
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		return s.reply(ctx, env, fmt.Errorf("query: decode request: %w", err))
	}

	hash := req.Hash
	if req.Version != nil {
		hash = *req.Version
	}
	manifest, ok, err := s.Store.GetManifest(ctx, hash)
	if err != nil {
		return fmt.Errorf("query: load manifest: %w", err)
	}
	if !ok {
		return s.reply(ctx, env, types.NewErrorf(types.ErrUnknownSource, "no manifest for hash %s", hash))
	}
	if err := manifest.IsAccessibleTo(env.Sender); err != nil {
		return s.reply(ctx, env, err)
	}

	// servingHash/servingManifest are what bytes are actually returned
	// for. Payment is validated and revenue split against manifest as
	// requested/priced — unaffected by resolution. No explicit version
	// pin: serve the latest version sharing the requested root (§4.6).
	// An explicit req.Version always pins that exact hash.
	servingHash, servingManifest := hash, manifest
	if req.Version == nil {
		if latest, found, err := s.resolveLatestVersion(ctx, manifest.Version.Root); err != nil {
			return fmt.Errorf("query: resolve latest version: %w", err)
		} else if found {
			servingHash, servingManifest = latest.Hash, latest
			if err := servingManifest.IsAccessibleTo(env.Sender); err != nil {
				return s.reply(ctx, env, err)
			}
		}
	}

	var chRecord types.Channel
	if manifest.Economics.Price > 0 || req.Payment.Amount > 0 {
		chRecord, ok, err = s.Store.GetChannel(ctx, env.Sender)
		if err != nil {
			return fmt.Errorf("query: load channel: %w", err)
		}
		if !ok {
			return s.reply(ctx, env, types.NewErrorf(types.ErrChannelRequired, "no channel from peer %s", env.Sender))
		}
		if err := validator.ValidatePayment(req.Payment, chRecord, manifest, requesterPub); err != nil {
			return s.reply(ctx, env, err)
		}
		if _, err := s.Channels.UpdateChannel(ctx, env.Sender, req.Payment, false); err != nil {
			return s.reply(ctx, env, err)
		}

		credits := revenue.Split(req.Payment.Amount, manifest.Owner, manifest.Hash, manifest.Provenance.SortedRootSet())
		now := time.Now().UnixMilli()
		for _, c := range credits {
			if err := s.Store.EnqueueDistribution(ctx, types.QueuedDistribution{
				PaymentID:  req.Payment.ID,
				Recipient:  c.Recipient,
				Amount:     c.Amount,
				SourceHash: c.SourceHash,
				QueuedAtMs: now,
			}); err != nil {
				return fmt.Errorf("query: enqueue distribution: %w", err)
			}
		}
	}

	bytes, ok, err := s.Store.GetBlob(ctx, servingHash)
	if err != nil {
		return fmt.Errorf("query: load blob: %w", err)
	}
	if !ok {
		return s.reply(ctx, env, types.NewErrorf(types.ErrUnknownSource, "no content bytes for hash %s", servingHash))
	}

	receipt := types.Receipt{
		PaymentID:    req.Payment.ID,
		Amount:       req.Payment.Amount,
		TimestampMs:  time.Now().UnixMilli(),
		ChannelNonce: req.Payment.Nonce,
	}
	receipt.Signature = s.ID.Sign(receipt.SigningBytes())

	respPayload, err := json.Marshal(ResponsePayload{Hash: servingHash, Bytes: bytes, Receipt: receipt})
	if err != nil {
		return fmt.Errorf("query: encode response: %w", err)
	}
	resp := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgQueryResponse,
		ID:          env.ID,
		TimestampMs: time.Now().UnixMilli(),
		Sender:      s.ID.PeerID(),
		Payload:     respPayload,
	}
	resp.Sign(s.ID.Private)
	return s.Net.Send(ctx, env.Sender, resp)
}

// resolveLatestVersion finds the manifest with the highest
// Version.Number among every manifest sharing root, grounded on the
// original's get_content_versions resolution (§4.6).
func (s *Server) resolveLatestVersion(ctx context.Context, root types.Hash) (types.Manifest, bool, error) {
	versions, err := s.Store.ListManifests(ctx, types.ManifestFilter{Root: &root})
	if err != nil {
		return types.Manifest{}, false, err
	}
	var latest types.Manifest
	var found bool
	for _, m := range versions {
		if !found || m.Version.Number > latest.Version.Number {
			latest, found = m, true
		}
	}
	return latest, found, nil
}

// HandleVersionRequest lists every version sharing req.Hash's root,
// newest first — the wire-level counterpart to the original's
// get_content_versions operation.
func (s *Server) HandleVersionRequest(ctx context.Context, env wire.Envelope) error {
	requesterPub, ok := s.Peers.Resolve(env.Sender)
	if !ok {
		return s.reply(ctx, env, types.NewErrorf(types.ErrUnknownSource, "no known public key for peer %s", env.Sender))
	}
	if !env.Verify(requesterPub) {
		return s.reply(ctx, env, types.NewError(types.ErrInvalidSignature, "request envelope does not verify"))
	}

	var req VersionRequestPayload
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		return s.reply(ctx, env, fmt.Errorf("query: decode version request: %w", err))
	}

	anchor, ok, err := s.Store.GetManifest(ctx, req.Hash)
	if err != nil {
		return fmt.Errorf("query: load manifest: %w", err)
	}
	if !ok {
		return s.reply(ctx, env, types.NewErrorf(types.ErrUnknownSource, "no manifest for hash %s", req.Hash))
	}
	if err := anchor.IsAccessibleTo(env.Sender); err != nil {
		return s.reply(ctx, env, err)
	}

	manifests, err := s.Store.ListManifests(ctx, types.ManifestFilter{Root: &anchor.Version.Root})
	if err != nil {
		return fmt.Errorf("query: list versions: %w", err)
	}
	versions := make([]VersionInfo, len(manifests))
	for i, m := range manifests {
		versions[i] = VersionInfo{Hash: m.Hash, Number: m.Version.Number, TimestampMs: m.Version.Timestamp}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Number > versions[j].Number })

	payload, err := json.Marshal(VersionResponsePayload{Root: anchor.Version.Root, Versions: versions})
	if err != nil {
		return fmt.Errorf("query: encode version response: %w", err)
	}
	resp := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgVersionResponse,
		ID:          env.ID,
		TimestampMs: time.Now().UnixMilli(),
		Sender:      s.ID.PeerID(),
		Payload:     payload,
	}
	resp.Sign(s.ID.Private)
	return s.Net.Send(ctx, env.Sender, resp)
}

func (s *Server) reply(ctx context.Context, req wire.Envelope, cause error) error {
	code := types.CodeOf(cause)
	if code == "" {
		code = types.ErrUnknownSource
	}
	payload, _ := json.Marshal(ErrorPayload{Code: code, Msg: cause.Error()})
	resp := wire.Envelope{
		Version:     wire.ProtocolVersion,
		MessageType: wire.MsgQueryError,
		ID:          req.ID,
		TimestampMs: time.Now().UnixMilli(),
		Sender:      s.ID.PeerID(),
		Payload:     payload,
	}
	resp.Sign(s.ID.Private)
	s.Log.Warn("query: request failed", "peer", req.Sender, "code", code, "err", cause)
	if err := s.Net.Send(ctx, req.Sender, resp); err != nil {
		return fmt.Errorf("query: send error response: %w", err)
	}
	return cause
}
