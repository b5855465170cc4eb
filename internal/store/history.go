package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// History provides SQLite-backed caching of chat transcripts.
type History struct {
	db *sql.DB
}

// OpenHistory opens the SQLite database at dbPath and creates tables if they
// don't exist.
func OpenHistory(dbPath string) (*History, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		is_error INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateConversation starts a new cached transcript in the given mode.
func (h *History) CreateConversation(mode string) (*Conversation, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := h.db.Exec(
		`INSERT INTO conversations (id, mode, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		id, mode, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	return &Conversation{
		ID:        id,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddMessage appends a message to a conversation and bumps its updated_at.
func (h *History) AddMessage(conversationID, sender, content string, isError bool) error {
	now := time.Now()

	_, err := h.db.Exec(
		`INSERT INTO messages (conversation_id, sender, content, is_error, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		conversationID, sender, content, isError, now,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	_, err = h.db.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now, conversationID,
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	return nil
}

// Messages retrieves all cached messages for a conversation in append order.
func (h *History) Messages(conversationID string) ([]StoredMessage, error) {
	rows, err := h.db.Query(
		`SELECT id, conversation_id, sender, content, is_error, timestamp
		 FROM messages
		 WHERE conversation_id = ?
		 ORDER BY id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []StoredMessage
	for rows.Next() {
		var msg StoredMessage
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Sender, &msg.Content, &msg.IsError, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return messages, nil
}

// ListConversations returns summaries of the most recent conversations.
func (h *History) ListConversations(limit int) ([]Summary, error) {
	rows, err := h.db.Query(
		`SELECT c.id, c.mode, c.updated_at, COALESCE(COUNT(m.id), 0) AS messages
		 FROM conversations c
		 LEFT JOIN messages m ON c.id = m.conversation_id
		 GROUP BY c.id
		 ORDER BY c.updated_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Mode, &sum.UpdatedAt, &sum.Messages); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}
