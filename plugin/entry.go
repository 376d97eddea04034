package plugin

import "github.com/leeforge/hostbridge/host"

// Entry is what the registry tracks for one loaded plugin. Commands and
// DependNodes are the record of what must be undone on unload.
type Entry struct {
	Name        string
	Commands    []string
	DependNodes []string
	// CallbackID is live only while node registration is deferred.
	CallbackID host.CallbackID

	pending *PendingTask
	state   State
}

// PendingTask is a node registration waiting for the scene to finish opening.
type PendingTask struct {
	Plugin   string
	Declared []string
}

// EntrySnapshot is a detached copy of an Entry.
type EntrySnapshot struct {
	Name        string          `json:"name"`
	Commands    []string        `json:"commands"`
	DependNodes []string        `json:"dependNodes"`
	CallbackID  host.CallbackID `json:"callbackId,omitempty"`
	Pending     []string        `json:"pending,omitempty"`
	State       State           `json:"state"`
}

func (e *Entry) snapshot() EntrySnapshot {
	s := EntrySnapshot{
		Name:        e.Name,
		Commands:    append([]string{}, e.Commands...),
		DependNodes: append([]string{}, e.DependNodes...),
		CallbackID:  e.CallbackID,
		State:       e.state,
	}
	if e.pending != nil {
		s.Pending = append([]string{}, e.pending.Declared...)
	}
	return s
}

// State returns the entry's lifecycle state.
func (e *Entry) State() State {
	return e.state
}

func appendUnique(list []string, v string) ([]string, bool) {
	for _, s := range list {
		if s == v {
			return list, false
		}
	}
	return append(list, v), true
}

func removeValue(list []string, v string) ([]string, bool) {
	for i, s := range list {
		if s == v {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}
