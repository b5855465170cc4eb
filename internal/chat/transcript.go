// Package chat implements the conversation engine: an ordered transcript of
// user and agent messages, optimistic local append, and dispatch to one of
// the two inference endpoints.
package chat

import (
	"fmt"
	"time"
)

// Sender identifies who produced a message.
type Sender int

const (
	SenderUser Sender = iota
	SenderAgent
)

func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderAgent:
		return "agent"
	default:
		return fmt.Sprintf("sender(%d)", int(s))
	}
}

// Mode selects which backend endpoint handles the next send.
type Mode int

const (
	// ModeStandard dispatches to the regular chat endpoint.
	ModeStandard Mode = iota
	// ModeExtended dispatches to the custom chatbot endpoint, forwarding
	// the stored settings alongside the message.
	ModeExtended
)

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeExtended:
		return "extended"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a config string to a Mode, defaulting to standard.
func ParseMode(s string) Mode {
	if s == "extended" {
		return ModeExtended
	}
	return ModeStandard
}

// Message is one entry in the transcript. A user message is appended before
// its send resolves and is never mutated afterwards; the resolution (reply
// or error) arrives as a separate agent message.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
	IsError   bool
}

// Settings are the custom chatbot options forwarded on extended-mode sends.
type Settings map[string]string

func (s Settings) clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// HistoryEntry is one exchange returned by the backend's history endpoint.
type HistoryEntry struct {
	Message     string    `json:"message"`
	BotResponse string    `json:"bot_response"`
	CreatedAt   time.Time `json:"created_at"`
}
