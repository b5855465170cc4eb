// Package store provides durable client-side state: the persisted session
// credential and the local transcript cache.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tokenFile is the name of the credential file inside the medchat directory.
const tokenFile = "token"

// TokenFile persists the session credential as a single string. It is
// written and cleared only by the session manager.
type TokenFile struct {
	path string
}

// NewTokenFile returns a TokenFile stored inside dir.
func NewTokenFile(dir string) *TokenFile {
	return &TokenFile{path: filepath.Join(dir, tokenFile)}
}

// Read returns the stored credential, or "" when none is persisted.
func (t *TokenFile) Read() (string, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write stores the credential, creating the directory if needed. The file is
// user-readable only.
func (t *TokenFile) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(t.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// Clear removes the persisted credential. Clearing an absent credential is
// not an error.
func (t *TokenFile) Clear() error {
	err := os.Remove(t.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}
