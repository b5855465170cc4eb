package validate

import (
	"errors"
	"testing"
)

func TestPhoneNumber(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"09123456789", true},
		{" 09123456789 ", true},
		{"9123456789", false},
		{"0912345678", false},
		{"091234567890", false},
		{"0912345678a", false},
		{"", false},
	}

	for _, tc := range cases {
		err := PhoneNumber(tc.in)
		if tc.valid && err != nil {
			t.Errorf("PhoneNumber(%q): unexpected error %v", tc.in, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("PhoneNumber(%q): expected error", tc.in)
		}
	}
}

func TestCode(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"1234", true},
		{"123456", true},
		{"123", false},
		{"1234567", false},
		{"12a4", false},
		{"", false},
	}

	for _, tc := range cases {
		err := Code(tc.in)
		if tc.valid && err != nil {
			t.Errorf("Code(%q): unexpected error %v", tc.in, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Code(%q): expected error", tc.in)
		}
	}
}

func TestMessageRejectsWhitespace(t *testing.T) {
	if err := Message("   "); err == nil {
		t.Fatal("expected error for whitespace-only message")
	}
	var verr *Error
	if err := Message(""); !errors.As(err, &verr) {
		t.Fatal("expected *Error for empty message")
	}
	if err := Message("hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
