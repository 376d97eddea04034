package config

import (
	"sync"

	"github.com/spf13/viper"
)

// Options controls where configuration is read from.
type Options struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	// Watch reloads on file changes and calls OnChange with the new value.
	Watch    bool
	OnChange func(*Bridge)
	// OnError receives reload failures; the previous value stays current.
	OnError func(error)
}

// Loader reads a Bridge configuration and optionally keeps it current.
type Loader struct {
	v     *viper.Viper
	opts  Options
	files []string

	mu        sync.RWMutex
	current   *Bridge
	watcher   *viper.Viper
	watchOnce sync.Once
}
