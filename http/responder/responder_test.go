package responder

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	bridgeerrors "github.com/leeforge/hostbridge/errors"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %q", ct)
	}
	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	Write(rr, http.StatusCreated, "hello", WithTook(42))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	resp := decode(t, rr)
	if s, ok := resp.Data.(string); !ok || s != "hello" {
		t.Fatalf("unexpected data payload: %+v", resp.Data)
	}
	if resp.Error != nil {
		t.Fatalf("expected nil error, got %+v", resp.Error)
	}
	if resp.Meta.Took != 42 {
		t.Fatalf("expected took 42, got %d", resp.Meta.Took)
	}
}

func TestWriteList(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteList[string](rr, nil)

	resp := decode(t, rr)
	if resp.Meta.Count == nil || *resp.Meta.Count != 0 {
		t.Fatalf("expected count 0, got %+v", resp.Meta)
	}
	if !strings.Contains(rr.Body.String(), `"data":[]`) {
		t.Fatalf("nil list should encode as [], got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	WriteList(rr, []string{"a", "b"})
	resp = decode(t, rr)
	if *resp.Meta.Count != 2 {
		t.Fatalf("expected count 2, got %d", *resp.Meta.Count)
	}
}

func TestErrorShortcuts(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/plugins", nil)

	tests := []struct {
		name     string
		write    func(w http.ResponseWriter)
		status   int
		code     int
		contains string
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, "plugin \"x\" is not tracked") }, http.StatusNotFound, ErrCodeNotFound, "not tracked"},
		{"not found default message", func(w http.ResponseWriter) { NotFound(w, "") }, http.StatusNotFound, ErrCodeNotFound, "Resource Not Found"},
		{"route", func(w http.ResponseWriter) { RouteNotFound(w, req) }, http.StatusNotFound, ErrCodeRouteNotFound, "POST /plugins"},
		{"method", func(w http.ResponseWriter) { MethodNotAllowed(w, req) }, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.write(rr)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rr.Code)
			}
			resp := decode(t, rr)
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Fatalf("unexpected error %+v", resp.Error)
			}
			if !strings.Contains(resp.Error.Message, tt.contains) {
				t.Errorf("message %q does not contain %q", resp.Error.Message, tt.contains)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", bridgeerrors.NewNotFound("plugin entry", "x"), http.StatusNotFound, ErrCodeNotFound},
		{"decode", bridgeerrors.NewDecode("empty payload"), http.StatusBadRequest, ErrCodeBadRequest},
		{"lookup", bridgeerrors.NewLookup("p", "op", errors.New("x")), http.StatusBadGateway, ErrCodeHostLookup},
		{"capability", bridgeerrors.NewCapability("no callbacks"), http.StatusNotImplemented, ErrCodeCapability},
		{"plain", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalServer},
		{"nil", nil, http.StatusInternalServerError, ErrCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, e := FromError(tt.err)
			if status != tt.status || e.Code != tt.code {
				t.Errorf("FromError() = %d/%d, want %d/%d", status, e.Code, tt.status, tt.code)
			}
			if e.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestErr(t *testing.T) {
	rr := httptest.NewRecorder()
	Err(rr, bridgeerrors.NewNotFound("plugin entry", "ghost"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
