package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBridgeError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *BridgeError
		want string
	}{
		{"type only", New(ErrorTypeInternal, ""), "internal"},
		{"plugin and name", NewGeneration("simpleCmd", "doThing"), "simpleCmd/doThing: failed to create function"},
		{"op and inner", NewLookup("meshPlug", "pluginInfo.command", fmt.Errorf("boom")), "pluginInfo.command: meshPlug: host query failed: boom"},
		{"name only", NewNotFound("binding", "doThing"), "doThing: binding not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBridgeError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("host offline")
	err := fmt.Errorf("outer: %w", NewLookup("p", "op", cause))

	if !errors.Is(err, New(ErrorTypeLookup, "")) {
		t.Error("errors.Is should match by type")
	}
	if errors.Is(err, New(ErrorTypeGeneration, "")) {
		t.Error("errors.Is should not match a different type")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the inner cause")
	}
	if !IsType(err, ErrorTypeLookup) {
		t.Error("IsType should find the wrapped lookup error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("FromError(nil) should be nil")
	}
	be := NewDecode("bad payload")
	if FromError(be) != be {
		t.Error("FromError should return existing BridgeError unchanged")
	}
	if got := FromError(errors.New("x")); got.Type != ErrorTypeUnknown {
		t.Errorf("got type %q, want unknown", got.Type)
	}
}

func TestChain(t *testing.T) {
	c := NewChain()
	if c.Err() != nil {
		t.Fatal("empty chain should yield nil error")
	}

	c.Add(NewLookup("p", "commands", errors.New("a"))).
		Add(nil).
		Add(NewGeneration("p", "cmd"))

	if c.Len() != 2 {
		t.Fatalf("expected 2 errors, got %d", c.Len())
	}
	if !c.HasType(ErrorTypeGeneration) {
		t.Error("expected generation error in chain")
	}
	if c.Filter(ErrorTypeLookup).Len() != 1 {
		t.Error("expected one lookup error after filter")
	}
	if c.First().Type != ErrorTypeLookup || c.Last().Type != ErrorTypeGeneration {
		t.Error("unexpected chain ordering")
	}
	if c.Err() == nil {
		t.Error("non-empty chain should yield an error")
	}
	if !IsType(c.Err(), ErrorTypeGeneration) {
		t.Error("IsType should see through the chain")
	}
}

func TestChain_Flattens(t *testing.T) {
	inner := NewChain().Add(NewGeneration("p", "a")).Add(NewGeneration("p", "b"))
	outer := NewChain().Add(NewDecode("x")).Add(inner.Err())

	if outer.Len() != 3 {
		t.Fatalf("expected 3 errors, got %d", outer.Len())
	}
	if outer.Filter(ErrorTypeGeneration).Len() != 2 {
		t.Error("nested generation errors should keep their type")
	}
}

func TestWithStack(t *testing.T) {
	err := New(ErrorTypeInternal, "x").WithStack()
	if len(err.Stack) == 0 {
		t.Error("expected captured stack frames")
	}
}
