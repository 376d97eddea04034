package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Hook is called for each entry written. Its error is ignored.
type Hook func(entry zapcore.Entry) error

// hookCore wraps a zapcore.Core and calls hooks on each log entry.
type hookCore struct {
	zapcore.Core
	hooks []Hook
}

func newHookCore(core zapcore.Core, hooks []Hook) zapcore.Core {
	return &hookCore{Core: core, hooks: hooks}
}

// Check implements zapcore.Core.
func (c *hookCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

// Write implements zapcore.Core.
func (c *hookCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range c.hooks {
		_ = hook(entry)
	}
	return c.Core.Write(entry, fields)
}

// With implements zapcore.Core.
func (c *hookCore) With(fields []zapcore.Field) zapcore.Core {
	return &hookCore{Core: c.Core.With(fields), hooks: c.hooks}
}

// WithHooks returns a copy of logger that runs hooks on every entry it writes.
// Name, caller and other options of logger are kept.
func WithHooks(logger *zap.Logger, hooks ...Hook) *zap.Logger {
	if logger == nil || len(hooks) == 0 {
		return logger
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return newHookCore(core, hooks)
	}))
}

// LevelCounter returns a hook that reports the level of each entry.
func LevelCounter(count func(level string)) Hook {
	return func(entry zapcore.Entry) error {
		count(entry.Level.String())
		return nil
	}
}
