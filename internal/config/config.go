// Package config loads emberkv's server configuration from a TOML
// file through an afero filesystem, so tests can drive it against an
// in-memory FS instead of touching disk.
package config

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// AOFSyncPolicy mirrors the three policies named in spec.md §4.9.
type AOFSyncPolicy string

const (
	AOFSyncAlways   AOFSyncPolicy = "always"
	AOFSyncEverySec AOFSyncPolicy = "everysec"
	AOFSyncNo       AOFSyncPolicy = "no"
)

// AOFConfig controls append-only-log durability and rewrite behavior.
type AOFConfig struct {
	Enabled        bool          `toml:"enabled"`
	Path           string        `toml:"path"`
	SyncPolicy     AOFSyncPolicy `toml:"sync_policy"`
	RewriteMinSize datasize.ByteSize `toml:"rewrite_min_size"`
}

// ZDBConfig controls snapshot compression.
type ZDBConfig struct {
	Path               string            `toml:"path"`
	CompressionEnabled bool              `toml:"compression_enabled"`
	CompressionLevel   int               `toml:"compression_level"`
	MinCompressionSize datasize.ByteSize `toml:"min_compression_size"`
}

// HLLConfig controls the default precision new HyperLogLogs are
// created with (§4.6).
type HLLConfig struct {
	Precision uint8 `toml:"precision"`
}

// AuthConfig controls session lifetime and token signing.
type AuthConfig struct {
	SessionTTLSeconds int    `toml:"session_ttl_seconds"`
	MaxSessionsPerUser int   `toml:"max_sessions_per_user"`
	TokenSigningKey   string `toml:"token_signing_key"`
	AccessTTLSeconds  int    `toml:"access_ttl_seconds"`
	RefreshTTLSeconds int    `toml:"refresh_ttl_seconds"`
}

// ClusterConfig controls cluster mode and node identity. NumSlots is
// validated and logged at startup; the slot map itself always has
// cluster.NumSlots (16384) slots.
type ClusterConfig struct {
	Enabled  bool   `toml:"enabled"`
	NodeID   string `toml:"node_id"`
	NumSlots int    `toml:"num_slots"`
}

// LogConfig controls structured logging and file rotation, passed
// straight through to internal/logging.Config.
type LogConfig struct {
	Level      string            `toml:"level"`
	FilePath   string            `toml:"file_path"`
	MaxSize    datasize.ByteSize `toml:"max_size"`
	MaxBackups int               `toml:"max_backups"`
	MaxAgeDays int               `toml:"max_age_days"`
	Compress   bool              `toml:"compress"`
}

// Config is the top-level server configuration document.
type Config struct {
	ListenAddr string `toml:"listen_addr"`

	AOF     AOFConfig     `toml:"aof"`
	ZDB     ZDBConfig     `toml:"zdb"`
	HLL     HLLConfig     `toml:"hll"`
	Auth    AuthConfig    `toml:"auth"`
	Cluster ClusterConfig `toml:"cluster"`
	Log     LogConfig     `toml:"log"`
}

// Default returns the configuration emberkv starts from before any
// file is loaded, so a missing config file still yields a usable
// standalone instance.
func Default() Config {
	return Config{
		ListenAddr: "127.0.0.1:7878",
		AOF: AOFConfig{
			Enabled:        false,
			Path:           "emberkv.aof",
			SyncPolicy:     AOFSyncEverySec,
			RewriteMinSize: 64 * datasize.MB,
		},
		ZDB: ZDBConfig{
			Path:               "emberkv.zdb",
			CompressionEnabled: true,
			CompressionLevel:   3,
			MinCompressionSize: 64 * datasize.B,
		},
		HLL: HLLConfig{Precision: 14},
		Auth: AuthConfig{
			SessionTTLSeconds: 3600,
			MaxSessionsPerUser: 10,
			AccessTTLSeconds:  900,
			RefreshTTLSeconds: 7 * 24 * 3600,
		},
		Cluster: ClusterConfig{Enabled: false, NumSlots: 16384},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100 * datasize.MB,
			MaxBackups: 5,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// Load reads and parses a TOML config file at path from fs, applying
// its values on top of Default(). A missing file is not an error —
// callers get Default() back unchanged.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if !exists {
		return cfg, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configuration values that would otherwise surface
// as confusing failures deep in store/zdb/auth initialization.
func (c Config) Validate() error {
	if c.HLL.Precision < 4 || c.HLL.Precision > 18 {
		return fmt.Errorf("config: hll.precision must be in [4,18], got %d", c.HLL.Precision)
	}
	switch c.AOF.SyncPolicy {
	case AOFSyncAlways, AOFSyncEverySec, AOFSyncNo:
	default:
		return fmt.Errorf("config: aof.sync_policy %q is not one of always|everysec|no", c.AOF.SyncPolicy)
	}
	if c.Cluster.Enabled && c.Cluster.NumSlots <= 0 {
		return fmt.Errorf("config: cluster.num_slots must be positive when cluster is enabled")
	}
	if c.Cluster.NumSlots > 16384 {
		return fmt.Errorf("config: cluster.num_slots must not exceed 16384")
	}
	return nil
}
