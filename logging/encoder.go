package logging

import (
	"go.uber.org/zap/zapcore"
)

// GetEncoder returns a JSON or console encoder for cfg.
func GetEncoder(cfg Config) zapcore.Encoder {
	ec := getEncoderConfig(cfg)
	if cfg.Format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	return zapcore.NewConsoleEncoder(ec)
}

func getEncoderConfig(cfg Config) zapcore.EncoderConfig {
	levelEncoder := zapcore.LowercaseLevelEncoder
	if cfg.Format != "json" {
		levelEncoder = zapcore.CapitalLevelEncoder
	}
	return zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(cfg.TimeFormat),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}
