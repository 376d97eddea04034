package logging

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// open rotating files, closed by CloseAllWriters
var (
	openWriters   []*lumberjack.Logger
	openWritersMu sync.Mutex
)

func newFileWriter(cfg Config) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	w := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, cfg.FileName),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	openWritersMu.Lock()
	openWriters = append(openWriters, w)
	openWritersMu.Unlock()

	return zapcore.AddSync(w), nil
}

// getWriteSyncer combines stdout and the rotating file as cfg asks.
// It returns nil when both are disabled.
func getWriteSyncer(cfg Config) (zapcore.WriteSyncer, error) {
	var sinks []zapcore.WriteSyncer
	if cfg.Console {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}
	if cfg.File {
		w, err := newFileWriter(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
	}
	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return zapcore.NewMultiWriteSyncer(sinks...), nil
	}
}

// CloseAllWriters closes every log file opened by New.
func CloseAllWriters() error {
	openWritersMu.Lock()
	defer openWritersMu.Unlock()

	var lastErr error
	for _, w := range openWriters {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	openWriters = nil
	return lastErr
}
