package plugin

// State is where a tracked plugin is in its registration lifecycle.
type State int

const (
	StateLoaded   State = iota // Entry created, contributions being registered
	StateDeferred              // Commands registered, node types wait for the scene to open
	StateActive                // Commands and node types registered
	StateUnloaded              // Entry popped, contributions removed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateDeferred:
		return "deferred"
	case StateActive:
		return "active"
	case StateUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the state cannot transition further.
func (s State) IsTerminal() bool {
	return s == StateUnloaded
}

// MarshalText renders the state by name in snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
