package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is one call to the grade service. Path is relative to the configured base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded unless it is already a []byte.
	Body   interface{}
	Header http.Header
}

// Response is a successful answer, either real or synthesized.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Synthesized is set when the body came from the fallback synthesizer.
	Synthesized bool
	// Degraded is set for synthesized acknowledgements of writes that never reached the grade service.
	Degraded bool
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// ContentType returns the response media type.
func (r *Response) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// IsRead reports whether method neither carries a body nor mutates state.
func IsRead(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
