// Package chat persists chat message history in MariaDB. Messages are rows
// in a single table keyed by a session UUID, stored as JSON and read back
// in insertion order.
package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSession is returned when a session id is not a valid UUID.
	ErrInvalidSession = errors.New("session id must be a valid UUID")

	// ErrInvalidTable is returned when a table name contains characters
	// outside [a-zA-Z0-9_].
	ErrInvalidTable = errors.New("table name must contain only alphanumeric characters and underscores")
)

var tablePattern = regexp.MustCompile(`^\w+$`)

// Message is a single chat turn. Role is the speaker kind (typically
// "human", "ai" or "system"), AdditionalKwargs carries provider-specific
// payload.
type Message struct {
	Role             string         `json:"type"`
	Content          string         `json:"content"`
	AdditionalKwargs map[string]any `json:"additional_kwargs,omitempty"`
}

// History reads and appends the messages of one chat session.
type History struct {
	db        *sql.DB
	sessionID string
	table     string
}

// NewHistory returns a history bound to the given session. The session id
// must be a UUID so unrelated sessions can never collide; the table must
// already exist (see CreateTable).
func NewHistory(db *sql.DB, tableName, sessionID string) (*History, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSession, sessionID)
	}
	if !tablePattern.MatchString(tableName) {
		return nil, ErrInvalidTable
	}
	return &History{
		db:        db,
		sessionID: sessionID,
		table:     quoteIdentifier(tableName),
	}, nil
}

// CreateTable creates the message table and its session index.
func CreateTable(ctx context.Context, db *sql.DB, tableName string) error {
	if !tablePattern.MatchString(tableName) {
		return ErrInvalidTable
	}
	statements := []string{
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s ("+
				"id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,"+
				"session_id UUID NOT NULL,"+
				"message JSON NOT NULL,"+
				"created_at TIMESTAMP(6) NOT NULL DEFAULT NOW()"+
				")",
			quoteIdentifier(tableName)),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id)",
			tableName, quoteIdentifier(tableName)),
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create history table: %w", err)
		}
	}
	return nil
}

// DropTable removes the message table and all sessions stored in it.
func DropTable(ctx context.Context, db *sql.DB, tableName string) error {
	if !tablePattern.MatchString(tableName) {
		return ErrInvalidTable
	}
	_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tableName))
	return err
}

// AddMessages appends messages to the session in one transaction.
func (h *History) AddMessages(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf("INSERT INTO %s (session_id, message) VALUES (?, ?)", h.table)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, msg := range messages {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, h.sessionID, payload); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Messages returns the session's messages in insertion order.
func (h *History) Messages(ctx context.Context) ([]Message, error) {
	query := fmt.Sprintf("SELECT message FROM %s WHERE session_id = ? ORDER BY id", h.table)
	rows, err := h.db.QueryContext(ctx, query, h.sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Clear deletes all messages for the session.
func (h *History) Clear(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", h.table)
	_, err := h.db.ExecContext(ctx, query, h.sessionID)
	return err
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
