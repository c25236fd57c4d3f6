// Command nodalyncd runs a single Nodalync peer wired to a bbolt
// store, an in-process loopback transport, and the purely off-chain
// local ledger (§4.5 "test/local mode").
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nodalync.dev/core/crypto"
	"nodalync.dev/core/extractor/mentiontest"
	"nodalync.dev/core/ledger/localledger"
	"nodalync.dev/core/network/loopback"
	"nodalync.dev/core/node"
	"nodalync.dev/core/store/boltstore"
)

func main() {
	dataDir := flag.String("data-dir", node.DefaultDataDir(), "directory for the node's bbolt database")
	network := flag.String("network", "devnet", "network name: mainnet, testnet, or devnet")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	seedHex := flag.String("seed-hex", "", "32-byte hex seed for a deterministic identity (dev/test only); random if empty")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "nodalyncd: invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := node.DefaultConfig()
	cfg.DataDir = *dataDir
	cfg.Network = *network
	cfg.LogLevel = *logLevel
	if err := node.ValidateConfig(cfg); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	id, err := loadOrGenerateIdentity(*seedHex)
	if err != nil {
		logger.Error("failed to load identity", "err", err)
		os.Exit(1)
	}

	st, err := boltstore.Open(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open store", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	hub := loopback.NewHub()
	net := hub.Join(id.PeerID())
	lg := localledger.New()
	ex := mentiontest.Extractor{}

	n, err := node.New(cfg, id, st, net, lg, ex, logger)
	if err != nil {
		logger.Error("failed to construct node", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("nodalyncd starting", "peer_id", id.PeerID().String(), "network", cfg.Network, "data_dir", cfg.DataDir)
	if err := n.Run(ctx); err != nil {
		logger.Error("node exited with error", "err", err)
		os.Exit(1)
	}
}

func loadOrGenerateIdentity(seedHex string) (crypto.Identity, error) {
	if seedHex == "" {
		return crypto.GenerateIdentity()
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return crypto.Identity{}, fmt.Errorf("decode seed-hex: %w", err)
	}
	return crypto.IdentityFromSeed(seed)
}
