package store

import "time"

// Conversation groups the messages of one chat transcript.
type Conversation struct {
	ID        string
	Mode      string // standard, extended
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoredMessage is one cached transcript entry.
type StoredMessage struct {
	ID             int
	ConversationID string
	Sender         string // user, agent
	Content        string
	IsError        bool
	Timestamp      time.Time
}

// Summary provides a high-level view of a conversation for listing.
type Summary struct {
	ID        string
	Mode      string
	Messages  int
	UpdatedAt time.Time
}
