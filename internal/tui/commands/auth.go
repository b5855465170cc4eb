// Package commands provides Bubble Tea commands for network operations.
package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medogram/medchat/internal/auth"
	"github.com/medogram/medchat/internal/tui"
)

// InitializeCmd restores the session from the persisted credential.
func InitializeCmd(m *auth.Manager) tea.Cmd {
	return func() tea.Msg {
		_ = m.Initialize(context.Background())
		return tui.InitDoneMsg{Session: m.Session()}
	}
}

// RegisterCmd requests a verification code for the phone number.
func RegisterCmd(m *auth.Manager, phone string) tea.Cmd {
	return func() tea.Msg {
		if err := m.Register(context.Background(), phone); err != nil {
			return tui.AuthFailedMsg{Err: err, Message: m.Session().LastError}
		}
		return tui.CodeSentMsg{Phone: phone}
	}
}

// VerifyCmd exchanges the phone number and code for a session.
func VerifyCmd(m *auth.Manager, phone, code string) tea.Cmd {
	return func() tea.Msg {
		if err := m.Verify(context.Background(), phone, code); err != nil {
			return tui.AuthFailedMsg{Err: err, Message: m.Session().LastError}
		}
		return tui.VerifiedMsg{Session: m.Session()}
	}
}

// UpdateProfileCmd pushes profile changes to the backend.
func UpdateProfileCmd(m *auth.Manager, update auth.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		if err := m.UpdateProfile(context.Background(), update); err != nil {
			return tui.ProfileSaveFailedMsg{Err: err, Message: m.Session().LastError}
		}
		return tui.ProfileSavedMsg{Session: m.Session()}
	}
}
