package config

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/leeforge/hostbridge/host"
	"github.com/leeforge/hostbridge/logging"
)

// Bridge is the application configuration.
type Bridge struct {
	Host      HostConfig      `mapstructure:"host" yaml:"host"`
	Namespace NamespaceConfig `mapstructure:"namespace" yaml:"namespace"`
	Inspect   InspectConfig   `mapstructure:"inspect" yaml:"inspect"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Logging   logging.Config  `mapstructure:"logging" yaml:"logging"`
}

type HostConfig struct {
	// Version is the host release year, 2007 standing for 8.5.
	Version int `mapstructure:"version" yaml:"version" default:"2011" validate:"gte=2007"`
	// Builtins are commands that exist before any plugin loads.
	Builtins []string `mapstructure:"builtins" yaml:"builtins"`
}

type NamespaceConfig struct {
	// Aggregate loads the secondary namespace every wrapper is also bound into.
	Aggregate bool `mapstructure:"aggregate" yaml:"aggregate"`
}

type InspectConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" default:"127.0.0.1:7878" validate:"required,hostname_port"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" yaml:"namespace" default:"hostbridge" validate:"required"`
}

// boolDefaults are applied through viper because a false value cannot be
// told apart from an unset one after unmarshalling.
var boolDefaults = map[string]bool{
	"namespace.aggregate": true,
	"inspect.enabled":     false,
	"logging.console":     true,
	"logging.file":        false,
}

// Default returns the configuration used when no file is present.
func Default() *Bridge {
	b := &Bridge{}
	_ = defaults.Set(b)
	b.Namespace.Aggregate = boolDefaults["namespace.aggregate"]
	b.Inspect.Enabled = boolDefaults["inspect.enabled"]
	b.Logging.Console = boolDefaults["logging.console"]
	b.Logging.File = boolDefaults["logging.file"]
	return b
}

var validate = validator.New()

// Validate checks field constraints.
func (b *Bridge) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// HostVersion returns Host.Version as a host.Version.
func (b *Bridge) HostVersion() host.Version {
	return host.Version(b.Host.Version)
}

// BuiltinCommands returns Host.Builtins as command metadata.
func (b *Bridge) BuiltinCommands() []host.CommandInfo {
	out := make([]host.CommandInfo, 0, len(b.Host.Builtins))
	for _, name := range b.Host.Builtins {
		out = append(out, host.CommandInfo{Name: name})
	}
	return out
}
