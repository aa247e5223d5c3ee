package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/etc/emberkv.toml")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `
listen_addr = "0.0.0.0:9999"

[aof]
enabled = true
sync_policy = "always"

[hll]
precision = 16

[cluster]
enabled = true
num_slots = 4096
`
	require.NoError(t, afero.WriteFile(fs, "/etc/emberkv.toml", []byte(doc), 0o644))

	cfg, err := Load(fs, "/etc/emberkv.toml")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9999", cfg.ListenAddr)
	require.True(t, cfg.AOF.Enabled)
	require.Equal(t, AOFSyncAlways, cfg.AOF.SyncPolicy)
	require.Equal(t, uint8(16), cfg.HLL.Precision)
	require.Equal(t, 4096, cfg.Cluster.NumSlots)
	require.Equal(t, "emberkv.zdb", cfg.ZDB.Path) // untouched default survives
}

func TestValidateRejectsBadPrecision(t *testing.T) {
	cfg := Default()
	cfg.HLL.Precision = 30
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadSyncPolicy(t *testing.T) {
	cfg := Default()
	cfg.AOF.SyncPolicy = "sometimes"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOversizedSlotCount(t *testing.T) {
	cfg := Default()
	cfg.Cluster.NumSlots = 20000
	require.Error(t, cfg.Validate())
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/emberkv.toml", []byte("[[[not toml"), 0o644))
	_, err := Load(fs, "/etc/emberkv.toml")
	require.Error(t, err)
}
