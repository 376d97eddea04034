// Package logging builds the zap loggers used across the bridge.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger from cfg. With both Console and File disabled it
// returns a no-op logger.
func New(cfg Config) (*zap.Logger, error) {
	logger, _, err := NewLeveled(cfg)
	return logger, err
}

// NewLeveled is like New but also returns the level handle, so the minimum
// level can be changed while the logger is in use.
func NewLeveled(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	cfg.applyDefaults()

	l, err := cfg.ZapLevel()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	level := zap.NewAtomicLevelAt(l)
	ws, err := getWriteSyncer(cfg)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	if ws == nil {
		return zap.NewNop(), level, nil
	}

	core := zapcore.NewCore(GetEncoder(cfg), ws, level)
	var opts []zap.Option
	if cfg.ShowCaller {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...), level, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg Config) *zap.Logger {
	l, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return l
}
