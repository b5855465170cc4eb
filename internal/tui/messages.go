package tui

import (
	"github.com/medogram/medchat/internal/auth"
	"github.com/medogram/medchat/internal/chat"
)

// ============================================================================
// Session Messages
// ============================================================================

// InitDoneMsg signals that session restore from the persisted credential has
// finished (successfully or not).
type InitDoneMsg struct {
	Session auth.Session
}

// CodeSentMsg signals that a verification code was sent to the phone number.
type CodeSentMsg struct {
	Phone string
}

// VerifiedMsg signals a successful code verification.
type VerifiedMsg struct {
	Session auth.Session
}

// AuthFailedMsg signals a failed register or verify call. Message is the
// user-visible error recorded in the session.
type AuthFailedMsg struct {
	Err     error
	Message string
}

// SessionExpiredMsg is injected by the composition root when the session was
// torn down by a global 401; the TUI returns to the login view.
type SessionExpiredMsg struct{}

// ============================================================================
// Chat Messages
// ============================================================================

// SendChatMsg is emitted by the chat view when the user submits a message.
type SendChatMsg struct {
	Content string
}

// ChatResultMsg carries the resolution message appended by the engine.
type ChatResultMsg struct {
	Message chat.Message
}

// ChatRejectedMsg signals a send rejected before dispatch (busy, empty
// input, or unauthenticated).
type ChatRejectedMsg struct {
	Err error
}

// ToggleModeMsg requests switching between standard and extended mode.
type ToggleModeMsg struct{}

// ClearChatMsg requests discarding the transcript.
type ClearChatMsg struct{}

// ============================================================================
// Profile Messages
// ============================================================================

// EnterProfileMsg switches to the profile view.
type EnterProfileMsg struct{}

// ExitProfileMsg returns from the profile view to the chat.
type ExitProfileMsg struct{}

// SaveProfileMsg is emitted by the profile view on submit.
type SaveProfileMsg struct {
	Update auth.ProfileUpdate
}

// ProfileSavedMsg signals a successful profile update.
type ProfileSavedMsg struct {
	Session auth.Session
}

// ProfileSaveFailedMsg signals a failed profile update.
type ProfileSaveFailedMsg struct {
	Err     error
	Message string
}
