// Command emberkv-server wires up a standalone emberkv instance:
// config loading, logging, the in-memory store, AOF replay, and (if
// configured) cluster slot ownership. It intentionally stops short of
// a command dispatcher or wire protocol — those are external
// collaborators per spec.md §1/§6.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emberkv/emberkv/internal/aof"
	"github.com/emberkv/emberkv/internal/cluster"
	"github.com/emberkv/emberkv/internal/config"
	"github.com/emberkv/emberkv/internal/logging"
	"github.com/emberkv/emberkv/internal/pubsub"
	"github.com/emberkv/emberkv/internal/store"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "emberkv-server",
		Short: "emberkv is an in-memory key-value store with optional durability",
		RunE:  run,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "emberkv.toml", "path to the TOML configuration file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()

	cfg, err := config.Load(fs, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.Config{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  int(cfg.Log.MaxSize.MBytes()),
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting emberkv", zap.String("listen_addr", cfg.ListenAddr))

	kv := store.New()
	kv.StartSweeper(time.Second)
	defer kv.StopSweeper()

	if cfg.AOF.Enabled {
		loaded := 0
		err := aof.Replay(fs, cfg.AOF.Path, func(rec aof.Record) error {
			switch rec.Op {
			case aof.OpSet:
				kv.Set(rec.Key, rec.Val)
			case aof.OpDel:
				kv.Del(rec.Key)
			}
			loaded++
			return nil
		})
		if err != nil {
			return fmt.Errorf("replay aof: %w", err)
		}
		logger.Info("aof replay complete", zap.Int("records", loaded))
	}

	// The broker and slot map are constructed here so the command
	// dispatcher (an external collaborator) has them ready to wire in;
	// this entry point doesn't itself serve requests against them.
	broker := pubsub.New(pubsub.DefaultInboxCapacity, pubsub.DefaultMaxMessageSize)
	_ = broker

	if cfg.Cluster.Enabled {
		slots := cluster.NewMap(cfg.Cluster.NodeID)
		_ = slots
		logger.Info("cluster mode enabled",
			zap.String("node_id", cfg.Cluster.NodeID),
			zap.Int("num_slots", cfg.Cluster.NumSlots))
	}

	logger.Info("emberkv ready (standalone mode; wire protocol not implemented by this entry point)")
	return nil
}
