// Package logging configures the structured logger every other
// package writes through: zap for leveled structured logging,
// lumberjack for size/age-based file rotation of the server log sink.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, output destination, and rotation policy.
type Config struct {
	Level      string // "debug", "info", "warn", "error"
	FilePath   string // empty means stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig mirrors the defaults most operators want: info level,
// stderr only (FilePath empty), and rotation limits (100 MB, 5
// backups, 28 days, compressed) that take effect once FilePath is set.
func DefaultConfig() Config {
	return Config{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28, Compress: true}
}

// New builds a zap.Logger from cfg. When FilePath is set, log records
// are written through a lumberjack rotating writer in addition to
// stderr.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}
	if cfg.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller()), nil
}
