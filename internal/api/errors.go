package api

import (
	"fmt"
	"time"
)

// HTTPError is returned for any non-2xx response. Payload holds the parsed
// error body when the server sent one.
type HTTPError struct {
	Status  int
	Message string
	Payload map[string]any
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: http %d", e.Status)
}

// TimeoutError is returned when no response arrives within the client's
// request timeout.
type TimeoutError struct {
	Method string
	Path   string
	Limit  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("api: %s %s timed out after %s", e.Method, e.Path, e.Limit)
}

// NetworkError is returned for transport-level failures where no response
// was received at all.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
