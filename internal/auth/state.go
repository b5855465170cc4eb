// Package auth owns the authentication session: a small state machine over
// the phone-number + one-time-code login flow, the persisted credential, and
// the global unauthorized teardown.
package auth

import (
	"errors"
	"fmt"
)

// Status is the authentication state of the session.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// User is the profile record returned by the primary backend.
type User struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Session is a snapshot of the authentication state.
//
// Invariant: Status == StatusAuthenticated implies Token != "" and
// User != nil; Status == StatusUnauthenticated implies both are absent.
// StatusFailed may retain a previously valid token and user: a failed
// profile update does not deauthenticate.
type Session struct {
	Status    Status
	Token     string
	User      *User
	LastError string
}

// Authenticated reports whether the session holds a usable credential. It is
// true in StatusFailed when the failure struck an already authenticated
// session.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Sentinel errors for rejected operations.
var (
	// ErrBusy is returned when an auth operation is already in flight.
	ErrBusy = errors.New("auth: operation already in flight")
	// ErrNotAuthenticated is returned by operations that require an
	// authenticated session.
	ErrNotAuthenticated = errors.New("auth: not authenticated")
)

// TransitionError reports a state transition outside the closed set.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("auth: invalid transition %s -> %s", e.From, e.To)
}

// validTransitions is the closed transition set. Logout and unauthorized
// teardown (any state -> unauthenticated) are included explicitly.
var validTransitions = map[Status][]Status{
	StatusUnauthenticated: {StatusAuthenticating, StatusUnauthenticated},
	StatusAuthenticating:  {StatusAuthenticated, StatusUnauthenticated, StatusFailed},
	StatusAuthenticated:   {StatusAuthenticating, StatusUnauthenticated, StatusFailed},
	StatusFailed:          {StatusAuthenticating, StatusUnauthenticated},
}

func checkTransition(from, to Status) error {
	for _, next := range validTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}
