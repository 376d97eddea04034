package host

import "fmt"

// PayloadKind tags the shape of an event payload.
type PayloadKind int

const (
	// PayloadName is a bare plugin name.
	PayloadName PayloadKind = iota
	// PayloadStrings is a string array whose layout depends on event and version.
	PayloadStrings
	// PayloadNone carries nothing, e.g. SceneOpened.
	PayloadNone
)

// Payload is the tagged variant delivered with an event.
type Payload struct {
	Kind    PayloadKind
	Name    string
	Strings []string
}

// NamePayload builds a bare-name payload.
func NamePayload(name string) Payload {
	return Payload{Kind: PayloadName, Name: name}
}

// StringsPayload builds a string-array payload.
func StringsPayload(values ...string) Payload {
	return Payload{Kind: PayloadStrings, Strings: append([]string(nil), values...)}
}

// PluginEvent is the normalized form every lifecycle payload decodes into.
type PluginEvent struct {
	Kind   EventKind
	Plugin string
}

// DecodeLoaded resolves the plugin name of a plugin-loaded payload.
// String arrays are laid out as [path, name]; the name is the second element.
// An empty bare name decodes to "" without error.
func DecodeLoaded(p Payload) (string, error) {
	switch p.Kind {
	case PayloadName:
		return p.Name, nil
	case PayloadStrings:
		switch len(p.Strings) {
		case 0:
			return "", ErrEmptyPayload
		case 1:
			return p.Strings[0], nil
		default:
			return p.Strings[1], nil
		}
	default:
		return "", fmt.Errorf("plugin-loaded payload: unsupported kind %d", p.Kind)
	}
}

// DecodeUnloaded resolves the plugin name of a plugin-unloaded payload.
// String arrays are laid out as [name] or [name, path].
func DecodeUnloaded(p Payload) (string, error) {
	switch p.Kind {
	case PayloadName:
		return p.Name, nil
	case PayloadStrings:
		if len(p.Strings) == 0 {
			return "", ErrEmptyPayload
		}
		return p.Strings[0], nil
	default:
		return "", fmt.Errorf("plugin-unloaded payload: unsupported kind %d", p.Kind)
	}
}

// Normalize decodes a lifecycle event into a PluginEvent.
func Normalize(kind EventKind, p Payload) (PluginEvent, error) {
	var (
		name string
		err  error
	)
	switch kind {
	case EventPluginLoaded:
		name, err = DecodeLoaded(p)
	case EventPluginUnloaded:
		name, err = DecodeUnloaded(p)
	default:
		return PluginEvent{}, fmt.Errorf("event %q is not a plugin lifecycle event", kind)
	}
	if err != nil {
		return PluginEvent{}, err
	}
	return PluginEvent{Kind: kind, Plugin: name}, nil
}
