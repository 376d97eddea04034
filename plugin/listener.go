package plugin

import (
	"fmt"
	"strings"
	"sync"

	bridgeerrors "github.com/leeforge/hostbridge/errors"
	"github.com/leeforge/hostbridge/host"
	"go.uber.org/zap"
)

// LoadCommand is the command string old hosts evaluate after each plugin
// load; the host replaces %s with the plugin name.
const LoadCommand = `hostbridge.pluginLoaded("%s")`

const loadCommandPrefix = "hostbridge.pluginLoaded("

// Listener connects a Registry to the host's plugin lifecycle events.
type Listener struct {
	registry *Registry
	host     host.Host
	logger   *zap.Logger

	mu              sync.Mutex
	loadInstalled   bool
	unloadInstalled bool
	loadID          host.CallbackID
	unloadID        host.CallbackID
}

// NewListener creates a listener feeding reg from h.
func NewListener(reg *Registry, h host.Host, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{registry: reg, host: h, logger: logger}
}

// Install subscribes to plugin load and unload exactly once per listener and,
// on the first call, registers every plugin the host already has loaded.
// Hosts without string-array callbacks get a load command instead and cannot
// report unloads at all; that gap is logged, not returned.
func (l *Listener) Install() error {
	errs := bridgeerrors.NewChain()
	version := l.host.Version()

	l.mu.Lock()
	fresh := false
	if !l.loadInstalled {
		l.loadInstalled = true
		fresh = true
		l.logger.Debug("adding plugin-loaded callback", zap.Stringer("version", version))

		if version.SupportsStringArrayCallbacks() {
			id, err := l.host.AddEventCallback(host.EventPluginLoaded, l.onLoaded)
			if err != nil {
				l.logger.Error("failed to add plugin-loaded callback", zap.Error(err))
				errs.Add(bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeInternal, "add plugin-loaded callback"))
			}
			l.loadID = id
		} else if legacy, ok := l.host.(host.LegacyCallbacks); ok {
			if err := legacy.AddLoadPluginCommand(LoadCommand, l.Exec); err != nil {
				l.logger.Error("failed to add plugin load command", zap.Error(err))
				errs.Add(bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeInternal, "add plugin load command"))
			}
		} else {
			l.logger.Error("host offers no way to observe plugin loads", zap.Stringer("version", version))
			errs.Add(bridgeerrors.NewCapability("no plugin load callback available"))
		}
	} else {
		l.logger.Debug("plugin-loaded callback already exists")
	}

	if !l.unloadInstalled {
		l.unloadInstalled = true
		if version.SupportsStringArrayCallbacks() {
			l.logger.Debug("adding plugin-unloaded callback")
			id, err := l.host.AddEventCallback(host.EventPluginUnloaded, l.onUnloaded)
			if err != nil {
				l.logger.Error("failed to add plugin-unloaded callback", zap.Error(err))
				errs.Add(bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeInternal, "add plugin-unloaded callback"))
			}
			l.unloadID = id
		} else {
			l.logger.Warn("host cannot report plugin unloads; unloaded plugins stay registered",
				zap.Stringer("version", version))
		}
	} else {
		l.logger.Debug("plugin-unloaded callback already exists")
	}
	l.mu.Unlock()

	if fresh {
		l.catchUp()
	}
	return errs.Err()
}

// catchUp registers plugins loaded before the listener was installed.
func (l *Listener) catchUp() {
	loaded, err := l.host.LoadedPlugins()
	if err != nil {
		l.logger.Error("failed to list loaded plugins", zap.Error(err))
		return
	}
	if len(loaded) == 0 {
		return
	}
	l.logger.Info("updating with pre-loaded plugins", zap.String("plugins", strings.Join(loaded, ", ")))
	for _, name := range loaded {
		l.registry.OnPluginLoaded(host.NamePayload(name))
	}
}

func (l *Listener) onLoaded(ev host.Event) {
	l.registry.OnPluginLoaded(ev.Payload)
}

func (l *Listener) onUnloaded(ev host.Event) {
	l.registry.OnPluginUnloaded(ev.Payload)
}

// Exec evaluates a load command produced from LoadCommand.
func (l *Listener) Exec(command string) error {
	command = strings.TrimSpace(command)
	if !strings.HasPrefix(command, loadCommandPrefix) || !strings.HasSuffix(command, ")") {
		return fmt.Errorf("unrecognized bridge command %q", command)
	}
	// The host substitutes the name verbatim, so it is taken as-is from
	// between the outer quotes.
	arg := command[len(loadCommandPrefix) : len(command)-1]
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return fmt.Errorf("bad plugin name in %q", command)
	}
	l.registry.OnPluginLoaded(host.NamePayload(arg[1 : len(arg)-1]))
	return nil
}

// Installed reports which listeners have been installed.
func (l *Listener) Installed() (load, unload bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadInstalled, l.unloadInstalled
}

// CallbackIDs returns the handles of the installed lifecycle callbacks.
func (l *Listener) CallbackIDs() (load, unload host.CallbackID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadID, l.unloadID
}
