// Package validate holds the input validation rules applied by the CLI and
// TUI before auth operations are invoked. The session manager itself never
// re-validates.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^09\d{9}$`)
	codePattern  = regexp.MustCompile(`^\d{4,6}$`)
)

// Error describes a rejected input field.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate: %s: %s", e.Field, e.Reason)
}

// PhoneNumber checks the mobile number format (11 digits starting with 09).
func PhoneNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Error{Field: "phone_number", Reason: "required"}
	}
	if !phonePattern.MatchString(s) {
		return &Error{Field: "phone_number", Reason: "must match 09xxxxxxxxx"}
	}
	return nil
}

// Code checks the one-time verification code format.
func Code(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Error{Field: "code", Reason: "required"}
	}
	if !codePattern.MatchString(s) {
		return &Error{Field: "code", Reason: "must be 4 to 6 digits"}
	}
	return nil
}

// Message checks that a chat message is non-empty after trimming.
func Message(s string) error {
	if strings.TrimSpace(s) == "" {
		return &Error{Field: "message", Reason: "required"}
	}
	return nil
}
