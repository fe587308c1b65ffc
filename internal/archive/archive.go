// Package archive keeps a local SQLite transcript of confirmed messages
// so history and search work across sessions. It is a read-side cache,
// not a resend queue: pending messages are never written.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aurachat/aurasync/internal/domain"
)

// Store persists confirmed messages per room.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the archive database at dbPath.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			room_id INTEGER NOT NULL,
			sender_id INTEGER NOT NULL,
			sender_name TEXT NOT NULL,
			content TEXT,
			kind TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			edited INTEGER NOT NULL DEFAULT 0,
			deleted INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(room_id, created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts a confirmed message. Pending records (no server id) are
// ignored.
func (s *Store) Put(msg *domain.Message) error {
	if msg.ID == 0 {
		return nil
	}

	var content sql.NullString
	if msg.Content != nil {
		content = sql.NullString{String: *msg.Content, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO messages (id, room_id, sender_id, sender_name, content, kind, created_at, edited, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomID, msg.Sender.ID, msg.Sender.Username, content, msg.Kind,
		msg.CreatedAt.Unix(), boolInt(msg.Edited), boolInt(msg.Deleted))
	if err != nil {
		return fmt.Errorf("failed to archive message %d: %w", msg.ID, err)
	}
	return nil
}

// PutAll archives a batch (history fetch) in one transaction.
func (s *Store) PutAll(msgs []domain.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO messages (id, room_id, sender_id, sender_name, content, kind, created_at, edited, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range msgs {
		m := &msgs[i]
		if m.ID == 0 {
			continue
		}
		var content sql.NullString
		if m.Content != nil {
			content = sql.NullString{String: *m.Content, Valid: true}
		}
		if _, err := stmt.Exec(m.ID, m.RoomID, m.Sender.ID, m.Sender.Username, content, m.Kind,
			m.CreatedAt.Unix(), boolInt(m.Edited), boolInt(m.Deleted)); err != nil {
			return fmt.Errorf("failed to archive message %d: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// History returns up to limit archived messages for a room, oldest first.
func (s *Store) History(roomID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, room_id, sender_id, sender_name, content, kind, created_at, edited, deleted
		FROM messages
		WHERE room_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// reverse into oldest-first order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Search finds archived messages whose content contains query.
func (s *Store) Search(query string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, room_id, sender_id, sender_name, content, kind, created_at, edited, deleted
		FROM messages
		WHERE deleted = 0 AND content LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search archive: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var msgs []domain.Message
	for rows.Next() {
		var (
			m         domain.Message
			content   sql.NullString
			createdAt int64
			edited    int
			deleted   int
		)
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Sender.ID, &m.Sender.Username,
			&content, &m.Kind, &createdAt, &edited, &deleted); err != nil {
			return nil, err
		}
		if content.Valid {
			c := content.String
			m.Content = &c
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		m.Edited = edited != 0
		m.Deleted = deleted != 0
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
