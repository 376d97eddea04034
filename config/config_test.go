package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leeforge/hostbridge/env_mode"
	"github.com/leeforge/hostbridge/host"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// replaceFile swaps content in with a rename so a watcher never sees a
// truncated file.
func replaceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	tmp := filepath.Join(dir, "."+name+".tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, name)))
}

func testOptions(dir string) Options {
	opts := DefaultOptions()
	opts.BasePath = dir
	return opts
}

func TestLoad_DefaultsWhenNoFiles(t *testing.T) {
	env_mode.SetMode(env_mode.TestMode)
	l, err := Load(testOptions(t.TempDir()))
	require.NoError(t, err)
	require.Empty(t, l.Files())

	b := l.Current()
	require.Equal(t, host.V2011, b.HostVersion())
	require.True(t, b.Namespace.Aggregate)
	require.False(t, b.Inspect.Enabled)
	require.Equal(t, "127.0.0.1:7878", b.Inspect.Addr)
	require.Equal(t, "hostbridge", b.Metrics.Namespace)
	require.Equal(t, "info", b.Logging.Level)
	require.True(t, b.Logging.Console)
	require.Equal(t, 100, b.Logging.MaxSize)
	require.Equal(t, Default(), b)
}

func TestLoad_MergesModeFiles(t *testing.T) {
	env_mode.SetMode(env_mode.TestMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
host:
  version: 2008
  builtins: [ls, select]
logging:
  level: warn
`)
	writeFile(t, dir, "config.test.yaml", `
namespace:
  aggregate: false
logging:
  level: debug
`)
	writeFile(t, dir, "config.production.yaml", `
logging:
  level: error
`)

	l, err := Load(testOptions(dir))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.test.yaml"),
	}, l.Files())

	b := l.Current()
	require.Equal(t, host.V2008, b.HostVersion())
	require.False(t, b.Namespace.Aggregate)
	require.Equal(t, "debug", b.Logging.Level)
	require.Equal(t, []host.CommandInfo{{Name: "ls"}, {Name: "select"}}, b.BuiltinCommands())
	require.Equal(t, "debug", l.Get("logging.level"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	env_mode.SetMode(env_mode.TestMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "host:\n  version: 2011\n")
	t.Setenv("HOSTBRIDGE_HOST_VERSION", "2007")
	t.Setenv("HOSTBRIDGE_LOGGING_MAX_SIZE", "5")
	t.Setenv("HOSTBRIDGE_INSPECT_ENABLED", "true")

	l, err := Load(testOptions(dir))
	require.NoError(t, err)
	b := l.Current()
	require.Equal(t, host.V85, b.HostVersion())
	require.Equal(t, 5, b.Logging.MaxSize)
	require.True(t, b.Inspect.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	env_mode.SetMode(env_mode.TestMode)
	tests := []struct {
		name    string
		content string
	}{
		{"version before 8.5", "host:\n  version: 2000\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad inspect addr", "inspect:\n  addr: nowhere\n"},
		{"malformed yaml", "host: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "config.yaml", tt.content)
			_, err := Load(testOptions(dir))
			require.Error(t, err)
		})
	}
}

func TestLoader_Export(t *testing.T) {
	env_mode.SetMode(env_mode.TestMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "host:\n  version: 2009\n")
	l, err := Load(testOptions(dir))
	require.NoError(t, err)

	out := filepath.Join(dir, "exported", "snapshot.yaml")
	require.NoError(t, l.Export(out))
	require.Error(t, l.Export(""))

	opts := testOptions(filepath.Dir(out))
	opts.FileName = "snapshot"
	again, err := Load(opts)
	require.NoError(t, err)
	require.Equal(t, l.Current(), again.Current())
}

func TestLoader_WatchReloads(t *testing.T) {
	env_mode.SetMode(env_mode.TestMode)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "logging:\n  level: info\n")

	changed := make(chan *Bridge, 4)
	failed := make(chan error, 4)
	opts := testOptions(dir)
	opts.Watch = true
	opts.OnChange = func(b *Bridge) { changed <- b }
	opts.OnError = func(err error) { failed <- err }

	l, err := Load(opts)
	require.NoError(t, err)

	replaceFile(t, dir, "config.yaml", "logging:\n  level: debug\n")
	deadline := time.After(5 * time.Second)
	for level := ""; level != "debug"; {
		select {
		case b := <-changed:
			level = b.Logging.Level
		case <-deadline:
			t.Fatal("no reload after file change")
		}
	}
	require.Equal(t, "debug", l.Current().Logging.Level)

	replaceFile(t, dir, "config.yaml", "logging:\n  level: loud\n")
	select {
	case err := <-failed:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no error after invalid change")
	}
	require.Equal(t, "debug", l.Current().Logging.Level)
}
