// Package host describes the slice of the embedding application's API that the
// bridge consumes: plugin and scene queries, command dispatch and event callbacks.
package host

import "errors"

var (
	// ErrUnknownCallback is returned when removing a callback handle the host does not know.
	ErrUnknownCallback = errors.New("unknown callback id")

	// ErrEmptyPayload is returned when an event payload carries no plugin name.
	ErrEmptyPayload = errors.New("event payload is empty")
)

// CallbackID is an opaque handle for an installed event callback.
// The zero value marks the absence of a handle.
type CallbackID string

// NoCallback is the explicit absent-marker.
const NoCallback CallbackID = ""

// IsZero reports whether the handle is absent.
func (id CallbackID) IsZero() bool {
	return id == NoCallback
}

// EventKind names a host event.
type EventKind string

const (
	EventPluginLoaded   EventKind = "afterPluginLoad"
	EventPluginUnloaded EventKind = "afterPluginUnload"
	EventSceneOpened    EventKind = "SceneOpened"
)

// Event is what the host hands to a callback.
type Event struct {
	Kind     EventKind
	Callback CallbackID // handle of the callback being invoked
	Payload  Payload
}

// Handler is an event callback.
type Handler func(ev Event)

// CommandInfo is the basic metadata the host reports for a command.
type CommandInfo struct {
	Name        string            `json:"name"`
	Plugin      string            `json:"plugin,omitempty"`
	Description string            `json:"description,omitempty"`
	Flags       map[string]string `json:"flags,omitempty"` // long name -> short name
	Undoable    bool              `json:"undoable"`
}

// Queries are the read-only questions the bridge asks the host.
type Queries interface {
	// IsReadingFile reports whether a scene file is being read.
	IsReadingFile() bool
	// IsOpeningFile reports whether a scene file is being opened. Only
	// meaningful when the version supports it.
	IsOpeningFile() bool
	PluginCommands(plugin string) ([]string, error)
	PluginNodeTypes(plugin string) ([]string, error)
	// ValidNodeTypes lists the node types currently instantiable in the scene.
	ValidNodeTypes() ([]string, error)
	LoadedPlugins() ([]string, error)
	CommandInfo(command string) (CommandInfo, error)
}

// Dispatcher runs a host command by name.
type Dispatcher interface {
	Invoke(command string, args ...any) (any, error)
}

// Events installs and removes event callbacks.
type Events interface {
	AddEventCallback(kind EventKind, h Handler) (CallbackID, error)
	RemoveCallback(id CallbackID) error
}

// Host is the full surface the bridge needs.
type Host interface {
	Queries
	Dispatcher
	Events
	Version() Version
}

// CommandEvaluator evaluates a command string inside the bridge.
type CommandEvaluator func(command string) error

// LegacyCallbacks is offered by hosts that predate string-array callbacks.
// The host substitutes the loaded plugin's name for each "%s" in command and
// passes the result to eval after every plugin load. There is no unload
// counterpart.
type LegacyCallbacks interface {
	AddLoadPluginCommand(command string, eval CommandEvaluator) error
}
