// Package responder writes JSON envelopes for the inspection endpoints.
package responder

import (
	"net/http"

	"github.com/leeforge/hostbridge/json"
)

var encodeFailed = []byte("{\"error\":{\"code\":5000,\"message\":\"encode failed\"},\"meta\":{}}")

func writeJSON(w http.ResponseWriter, status int, payload *Response) {
	raw, err := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailed)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// Write sends a success response with data
func Write(w http.ResponseWriter, status int, data any, opts ...Option) {
	writeJSON(w, status, &Response{Data: data, Meta: NewMeta(opts...)})
}

// WriteList sends a success response with a list and its length.
func WriteList[T any](w http.ResponseWriter, items []T, opts ...Option) {
	if items == nil {
		items = []T{}
	}
	opts = append(opts, WithCount(len(items)))
	Write(w, http.StatusOK, items, opts...)
}

// WriteError sends an error response
func WriteError(w http.ResponseWriter, status int, err Error, opts ...Option) {
	writeJSON(w, status, &Response{Error: &err, Meta: NewMeta(opts...)})
}

// OK responds with 200 OK and data
func OK(w http.ResponseWriter, data any, opts ...Option) {
	Write(w, http.StatusOK, data, opts...)
}

// NotFound responds with 404 Not Found
func NotFound(w http.ResponseWriter, message string, opts ...Option) {
	WriteError(w, http.StatusNotFound, NewError(ErrCodeNotFound, message), opts...)
}

// RouteNotFound responds with 404 for unknown paths.
func RouteNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, NewError(ErrCodeRouteNotFound, r.Method+" "+r.URL.Path))
}

// MethodNotAllowed responds with 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, NewError(ErrCodeMethodNotAllowed, r.Method+" "+r.URL.Path))
}

// Err responds with the status and code matching err.
func Err(w http.ResponseWriter, err error, opts ...Option) {
	status, e := FromError(err)
	WriteError(w, status, e, opts...)
}
