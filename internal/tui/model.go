package tui

import "github.com/medogram/medchat/internal/config"

// ViewState represents the current screen of the TUI.
type ViewState int

const (
	StateLoading ViewState = iota // restoring the persisted session
	StateLogin
	StateChat
	StateProfile
)

// Model holds state shared across views.
type Model struct {
	Cfg    *config.Config
	State  ViewState
	Width  int
	Height int
}

// NewModel creates the shared model with a sensible initial size for
// environments that never deliver a WindowSizeMsg.
func NewModel(cfg *config.Config) *Model {
	return &Model{
		Cfg:    cfg,
		State:  StateLoading,
		Width:  80,
		Height: 24,
	}
}
