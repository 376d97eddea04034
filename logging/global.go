package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	globalLogger = zap.NewNop()
	globalMu     sync.RWMutex
)

// Global returns the process-wide logger. It is a no-op logger until Init or
// SetGlobal is called.
func Global() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetGlobal replaces the global logger. A nil logger resets it to a no-op one.
func SetGlobal(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Init builds a logger from cfg and installs it as the global logger.
func Init(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	SetGlobal(logger)
	return nil
}

// Sync flushes the global logger.
func Sync() error {
	return Global().Sync()
}
