package logging

import (
	"fmt"

	"github.com/creasty/defaults"
	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum level (debug, info, warn, error, dpanic, panic, fatal).
	Level string `mapstructure:"level" json:"level" yaml:"level" default:"info" validate:"oneof=debug info warn error dpanic panic fatal"`

	// Format is json or console.
	Format string `mapstructure:"format" json:"format" yaml:"format" default:"console" validate:"oneof=json console"`

	// Console writes entries to stdout.
	Console bool `mapstructure:"console" json:"console" yaml:"console"`

	// File writes entries to a rotating file under Dir.
	File bool `mapstructure:"file" json:"file" yaml:"file"`

	Dir      string `mapstructure:"dir" json:"dir" yaml:"dir" default:"logs"`
	FileName string `mapstructure:"file-name" json:"fileName" yaml:"file-name" default:"hostbridge.log"`

	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize    int  `mapstructure:"max-size" json:"maxSize" yaml:"max-size" default:"100" validate:"gte=0"`
	MaxAge     int  `mapstructure:"max-age" json:"maxAge" yaml:"max-age" default:"7" validate:"gte=0"`
	MaxBackups int  `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups" default:"10" validate:"gte=0"`
	Compress   bool `mapstructure:"compress" json:"compress" yaml:"compress"`

	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format" default:"2006/01/02 - 15:04:05"`

	// ShowCaller adds the calling file and line to each entry.
	ShowCaller bool `mapstructure:"show-caller" json:"showCaller" yaml:"show-caller"`
}

// DefaultConfig returns a console logger at info level.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	c.Console = true
	return c
}

// ZapLevel parses Level.
func (c Config) ZapLevel() (zapcore.Level, error) {
	if c.Level == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}

// applyDefaults fills empty strings and zero sizes. Booleans are left alone.
func (c *Config) applyDefaults() {
	_ = defaults.Set(c)
}
