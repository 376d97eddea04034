package commands

import "fmt"

// Factory generates the wrapper function for a command. A nil result means
// no wrapper could be produced.
type Factory interface {
	Function(name string) Func
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func(name string) Func

func (f FactoryFunc) Function(name string) Func { return f(name) }

// FunctionFactory wraps the low-level binding of a command, rejecting flags
// the cached metadata does not list. It yields nil when the command has no
// metadata or no binding.
type FunctionFactory struct {
	registry *Registry
	bindings *Bindings
}

// NewFunctionFactory creates a factory over the registry and bindings.
func NewFunctionFactory(registry *Registry, bindings *Bindings) *FunctionFactory {
	return &FunctionFactory{registry: registry, bindings: bindings}
}

// Flag is a named argument passed to a wrapper.
type Flag struct {
	Name  string
	Value any
}

func (f *FunctionFactory) Function(name string) Func {
	info, ok := f.registry.Info(name)
	if !ok {
		return nil
	}
	if !f.bindings.Has(name) {
		return nil
	}
	bindings := f.bindings
	return func(args ...any) (any, error) {
		if len(info.Flags) > 0 {
			for _, a := range args {
				flag, ok := a.(Flag)
				if !ok {
					continue
				}
				if !knownFlag(info.Flags, flag.Name) {
					return nil, fmt.Errorf("%s: unknown flag %q", name, flag.Name)
				}
			}
		}
		raw, ok := bindings.Get(name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrNotBound)
		}
		return raw(args...)
	}
}

func knownFlag(flags map[string]string, name string) bool {
	if _, ok := flags[name]; ok {
		return true
	}
	for _, short := range flags {
		if short == name {
			return true
		}
	}
	return false
}

var _ Factory = (*FunctionFactory)(nil)
