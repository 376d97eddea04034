package responder

// Response is the envelope every inspection endpoint returns.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
	Meta  Meta   `json:"meta"`
}

// Error represents the error structure in API responses
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Meta represents metadata in API responses
type Meta struct {
	Took  int64 `json:"took,omitempty"`
	Count *int  `json:"count,omitempty"`
}

type Option func(*Meta)

func WithTook(ms int64) Option {
	return func(m *Meta) {
		m.Took = ms
	}
}

// WithCount records the number of items in a list response.
func WithCount(n int) Option {
	return func(m *Meta) {
		m.Count = &n
	}
}

func NewMeta(opts ...Option) Meta {
	var meta Meta
	for _, opt := range opts {
		opt(&meta)
	}
	return meta
}
