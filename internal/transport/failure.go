package transport

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a remote call did not succeed.
type FailureKind string

const (
	// ClientError means the grade service answered with a 4xx status. It never triggers fallback.
	ClientError FailureKind = "client_error"
	// ServerError means the grade service answered with a 5xx or otherwise unusable status.
	ServerError FailureKind = "server_error"
	// NetworkError means no response was received, including timeouts.
	NetworkError FailureKind = "network_error"
)

// Failure describes a classified remote call failure.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	switch {
	case f.StatusCode > 0 && f.Message != "":
		return fmt.Sprintf("%s (%d): %s", f.Kind, f.StatusCode, f.Message)
	case f.StatusCode > 0:
		return fmt.Sprintf("%s (%d)", f.Kind, f.StatusCode)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return string(f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

// Fallible reports whether the failure may be answered by synthesis.
func (f *Failure) Fallible() bool {
	return f.Kind == ServerError || f.Kind == NetworkError
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
