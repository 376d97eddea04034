// Package config loads the bridge configuration from yaml files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/leeforge/hostbridge/env_mode"
	"github.com/leeforge/hostbridge/utils"
	"github.com/spf13/viper"
)

func DefaultOptions() Options {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}
	return Options{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "HOSTBRIDGE",
	}
}

// Load reads, validates and returns the configuration described by opts.
// Missing files are not an error; defaults and the environment still apply.
func Load(opts Options) (*Loader, error) {
	if opts.FileName == "" {
		opts.FileName = "config"
	}
	if opts.FileType == "" {
		opts.FileType = "yaml"
	}

	l := &Loader{opts: opts, files: configFilePaths(opts)}
	v, err := l.read()
	if err != nil {
		return nil, err
	}
	l.v = v

	b, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.current = b

	if opts.Watch && len(l.files) > 0 {
		l.watch()
	}
	return l, nil
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Bridge {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Files returns the configuration files that were merged, in order.
func (l *Loader) Files() []string {
	return append([]string(nil), l.files...)
}

// Get returns a raw value by dotted key.
func (l *Loader) Get(key string) any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.Get(key)
}

// Export writes the merged configuration to path.
func (l *Loader) Export(path string) error {
	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config to %s: %w", path, err)
	}
	return nil
}

// read merges every file in order, then applies the environment.
func (l *Loader) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(l.opts.FileType)
	for key, val := range boolDefaults {
		v.SetDefault(key, val)
	}
	setScalarDefaults(v)

	for _, path := range l.files {
		tmp := viper.New()
		tmp.SetConfigFile(path)
		if err := tmp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := v.MergeConfigMap(tmp.AllSettings()); err != nil {
			return nil, fmt.Errorf("merge config file %s: %w", path, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if l.opts.EnvPrefix != "" {
		v.SetEnvPrefix(l.opts.EnvPrefix)
	}
	v.AutomaticEnv()
	applyEnvOverrides(v, l.opts.EnvPrefix)
	return v, nil
}

// setScalarDefaults registers the struct-tag defaults with viper so that
// every key is known for environment overrides.
func setScalarDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("host.version", d.Host.Version)
	v.SetDefault("inspect.addr", d.Inspect.Addr)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.file-name", d.Logging.FileName)
	v.SetDefault("logging.max-size", d.Logging.MaxSize)
	v.SetDefault("logging.max-age", d.Logging.MaxAge)
	v.SetDefault("logging.max-backups", d.Logging.MaxBackups)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.time-format", d.Logging.TimeFormat)
	v.SetDefault("logging.show-caller", d.Logging.ShowCaller)
}

// applyEnvOverrides gives environment variables priority over file values:
// logging.max-size is read from <PREFIX>_LOGGING_MAX_SIZE.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}
		if envValue, ok := os.LookupEnv(envKey); ok && envValue != "" {
			v.Set(key, envValue)
		}
	}
}

func (l *Loader) decode() (*Bridge, error) {
	b := &Bridge{}
	if err := defaults.Set(b); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := l.v.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("unmarshal config (path: %s, file: %s.%s): %w",
			l.opts.BasePath, l.opts.FileName, l.opts.FileType, err)
	}
	if err := defaults.Set(b); err != nil {
		return nil, fmt.Errorf("set defaults after unmarshal: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (l *Loader) watch() {
	l.watchOnce.Do(func() {
		// viper watches a single file; the most specific one wins.
		l.watcher = viper.New()
		l.watcher.SetConfigFile(l.files[len(l.files)-1])
		l.watcher.OnConfigChange(func(fsnotify.Event) { l.reload() })
		l.watcher.WatchConfig()
	})
}

// reload rereads every file. A failed reload leaves Current unchanged.
func (l *Loader) reload() {
	v, err := l.read()
	if err == nil {
		l.mu.Lock()
		prev := l.v
		l.v = v
		var b *Bridge
		b, err = l.decode()
		if err != nil {
			l.v = prev
		} else {
			l.current = b
		}
		l.mu.Unlock()
		if err == nil && l.opts.OnChange != nil {
			l.opts.OnChange(b)
			return
		}
	}
	if err != nil && l.opts.OnError != nil {
		l.opts.OnError(err)
	}
}

// configFilePaths lists existing files in merge order: base, local, then the
// env-mode variants.
func configFilePaths(opts Options) []string {
	names := []string{opts.FileName, opts.FileName + ".local"}
	for _, alias := range env_mode.Mode().Aliases() {
		names = append(names, opts.FileName+"."+alias, opts.FileName+"."+alias+".local")
	}

	var files []string
	for _, name := range names {
		path := filepath.Join(opts.BasePath, name+"."+opts.FileType)
		if utils.IsFile(path) {
			files = append(files, path)
		}
	}
	return files
}
