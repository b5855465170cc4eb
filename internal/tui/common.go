// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Common key binding constants.
const (
	KeyCtrlC   = "ctrl+c"
	KeyCtrlL   = "ctrl+l"
	KeyCtrlT   = "ctrl+t"
	KeyCtrlP   = "ctrl+p"
	KeyTab     = "tab"
	KeyEnter   = "enter"
	KeyEsc     = "esc"
	KeyShiftUp = "shift+up"
)

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewProgram creates the Bubble Tea program in alternate screen mode. The
// caller keeps the handle so external events (for example an unauthorized
// teardown) can be injected with Send.
func NewProgram(m tea.Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}
