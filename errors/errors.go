package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType classifies a bridge failure.
type ErrorType string

const (
	// A host query for a plugin's command or node-type list failed.
	ErrorTypeLookup ErrorType = "lookup"
	// Wrapper generation for a command produced nothing.
	ErrorTypeGeneration ErrorType = "generation"
	// A binding, entry or callback handle was not present.
	ErrorTypeNotFound ErrorType = "not_found"
	// The running host lacks an API the bridge would use.
	ErrorTypeCapability ErrorType = "capability"
	// An event payload could not be normalized.
	ErrorTypeDecode ErrorType = "decode"

	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// BridgeError is a structured, non-fatal failure raised while synchronizing
// the registries with the host.
type BridgeError struct {
	Type       ErrorType `json:"type"`
	Op         string    `json:"op,omitempty"`
	Plugin     string    `json:"plugin,omitempty"`
	Name       string    `json:"name,omitempty"`
	Message    string    `json:"message"`
	InnerError error     `json:"-"`
	Stack      []string  `json:"-"`
}

// Error implements the error interface
func (e *BridgeError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Plugin != "" {
		b.WriteString(e.Plugin)
		if e.Name != "" {
			b.WriteString("/")
			b.WriteString(e.Name)
		}
		b.WriteString(": ")
	} else if e.Name != "" {
		b.WriteString(e.Name)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.InnerError != nil:
		b.WriteString(e.InnerError.Error())
	default:
		b.WriteString(string(e.Type))
	}
	if e.Message != "" && e.InnerError != nil {
		b.WriteString(": ")
		b.WriteString(e.InnerError.Error())
	}
	return b.String()
}

// Unwrap returns the inner error
func (e *BridgeError) Unwrap() error {
	return e.InnerError
}

// Is reports whether target is a BridgeError of the same type.
func (e *BridgeError) Is(target error) bool {
	var t *BridgeError
	if errors.As(target, &t) {
		return e.Type == t.Type
	}
	return false
}

// WithOp sets the operation that failed
func (e *BridgeError) WithOp(op string) *BridgeError {
	e.Op = op
	return e
}

// WithPlugin sets the plugin the failure belongs to
func (e *BridgeError) WithPlugin(plugin string) *BridgeError {
	e.Plugin = plugin
	return e
}

// WithName sets the command or node-type name
func (e *BridgeError) WithName(name string) *BridgeError {
	e.Name = name
	return e
}

// WithInnerError sets the inner error
func (e *BridgeError) WithInnerError(err error) *BridgeError {
	e.InnerError = err
	return e
}

// WithStack captures the call stack
func (e *BridgeError) WithStack() *BridgeError {
	e.Stack = captureStack(3)
	return e
}

// New creates a BridgeError of the given type.
func New(errType ErrorType, message string) *BridgeError {
	return &BridgeError{Type: errType, Message: message}
}

// FromError converts any error into a BridgeError, keeping existing ones intact.
func FromError(err error) *BridgeError {
	if err == nil {
		return nil
	}
	var be *BridgeError
	if errors.As(err, &be) {
		return be
	}
	return &BridgeError{Type: ErrorTypeUnknown, InnerError: err}
}

// Wrap wraps err with a type and message.
func Wrap(err error, errType ErrorType, message string) *BridgeError {
	return &BridgeError{Type: errType, Message: message, InnerError: err}
}

// NewLookup reports a failed host query for a plugin.
func NewLookup(plugin, op string, err error) *BridgeError {
	return Wrap(err, ErrorTypeLookup, "host query failed").WithPlugin(plugin).WithOp(op)
}

// NewGeneration reports that no wrapper could be generated for a command.
func NewGeneration(plugin, command string) *BridgeError {
	return New(ErrorTypeGeneration, "failed to create function").WithPlugin(plugin).WithName(command)
}

// NewNotFound reports a missing binding, entry or handle.
func NewNotFound(kind, name string) *BridgeError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", kind)).WithName(name)
}

// NewCapability reports an API the running host does not provide.
func NewCapability(message string) *BridgeError {
	return New(ErrorTypeCapability, message)
}

// NewDecode reports a payload that could not be normalized.
func NewDecode(message string) *BridgeError {
	return New(ErrorTypeDecode, message)
}

// IsType reports whether err, or anything it wraps, is a BridgeError of errType.
func IsType(err error, errType ErrorType) bool {
	return errors.Is(err, &BridgeError{Type: errType})
}

func captureStack(skip int) []string {
	var stack []string
	for i := skip; i < 10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		funcName := fn.Name()
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}

		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return stack
}

// Chain collects the non-fatal failures of one load or unload pass.
type Chain struct {
	errors []*BridgeError
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{errors: make([]*BridgeError, 0)}
}

// Add appends err to the chain; nil is ignored and chains are flattened.
func (c *Chain) Add(err error) *Chain {
	var other *Chain
	if errors.As(err, &other) {
		c.errors = append(c.errors, other.Errors()...)
		return c
	}
	if be := FromError(err); be != nil {
		c.errors = append(c.errors, be)
	}
	return c
}

// HasErrors checks if the chain has errors
func (c *Chain) HasErrors() bool {
	return c != nil && len(c.errors) > 0
}

// Len returns the number of collected errors
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.errors)
}

// Error returns the combined error message
func (c *Chain) Error() string {
	if !c.HasErrors() {
		return ""
	}

	messages := make([]string, 0, len(c.errors))
	for _, err := range c.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, " | ")
}

// Errors returns all errors in the chain
func (c *Chain) Errors() []*BridgeError {
	if c == nil {
		return nil
	}
	return c.errors
}

// First returns the first error in the chain
func (c *Chain) First() *BridgeError {
	if !c.HasErrors() {
		return nil
	}
	return c.errors[0]
}

// Last returns the last error in the chain
func (c *Chain) Last() *BridgeError {
	if !c.HasErrors() {
		return nil
	}
	return c.errors[len(c.errors)-1]
}

// Filter returns the errors of one type
func (c *Chain) Filter(errType ErrorType) *Chain {
	filtered := NewChain()
	for _, err := range c.Errors() {
		if err.Type == errType {
			filtered.Add(err)
		}
	}
	return filtered
}

// HasType checks if the chain has an error of the specified type
func (c *Chain) HasType(errType ErrorType) bool {
	for _, err := range c.Errors() {
		if err.Type == errType {
			return true
		}
	}
	return false
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (c *Chain) Unwrap() []error {
	out := make([]error, 0, c.Len())
	for _, err := range c.Errors() {
		out = append(out, err)
	}
	return out
}

// Err returns the chain as an error, or nil when it is empty.
func (c *Chain) Err() error {
	if !c.HasErrors() {
		return nil
	}
	return c
}
