// Package node wires the core's packages into a runnable peer:
// identity, storage, transport, ledger, extraction, the channel
// manager, the query pipeline, and the settlement batcher, all driven
// from one Config (grounded on the ecosystem's node/config.go
// defaults-plus-validate pattern).
package node

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds every knob DefaultConfig sets to a sane value and
// ValidateConfig checks before a Node starts.
type Config struct {
	Network  string `json:"network"`
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`

	CloseTimeout     time.Duration `json:"close_timeout"`
	DisputeWindow    time.Duration `json:"dispute_window"`
	OpenCooldown     time.Duration `json:"open_cooldown"`
	QueryTimeout     time.Duration `json:"query_timeout"`
	SettlementTick   time.Duration `json:"settlement_tick"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {},
}

var allowedNetworks = map[string]struct{}{
	"mainnet": {}, "testnet": {}, "devnet": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".nodalync"
	}
	return filepath.Join(home, ".nodalync")
}

func DefaultConfig() Config {
	return Config{
		Network:        "devnet",
		DataDir:        DefaultDataDir(),
		LogLevel:       "info",
		CloseTimeout:   30 * time.Second,
		DisputeWindow:  24 * time.Hour,
		OpenCooldown:   10 * time.Second,
		QueryTimeout:   15 * time.Second,
		SettlementTick: time.Minute,
	}
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	network := strings.ToLower(strings.TrimSpace(cfg.Network))
	if _, ok := allowedNetworks[network]; !ok {
		return fmt.Errorf("invalid network %q", cfg.Network)
	}
	if cfg.CloseTimeout <= 0 {
		return errors.New("close_timeout must be > 0")
	}
	if cfg.DisputeWindow <= 0 {
		return errors.New("dispute_window must be > 0")
	}
	if cfg.OpenCooldown < 0 {
		return errors.New("open_cooldown must be >= 0")
	}
	if cfg.QueryTimeout <= 0 {
		return errors.New("query_timeout must be > 0")
	}
	if cfg.SettlementTick <= 0 {
		return errors.New("settlement_tick must be > 0")
	}
	return nil
}
