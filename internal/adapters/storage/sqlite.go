package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"navbot/internal/core/domain"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLite persists sessions as JSON blobs keyed by user id. The state and
// last-activity columns are kept alongside so the idle sweep can run in SQL.
type SQLite struct {
	db *sqlx.DB
}

func NewSQLite(dataSourceName string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.setupSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *SQLite) setupSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		user_id INTEGER PRIMARY KEY,
		chat_id INTEGER NOT NULL,
		state TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to set up schema: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	var data string
	err := s.db.GetContext(ctx, &data, "SELECT data FROM sessions WHERE user_id = ?", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &session, nil
}

func (s *SQLite) Put(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, chat_id, state, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			chat_id = excluded.chat_id,
			state = excluded.state,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		session.UserID, session.ChatID, string(session.State), string(data),
		session.LastActivity.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

func (s *SQLite) Delete(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLite) All(ctx context.Context) ([]*domain.Session, error) {
	var rows []string
	if err := s.db.SelectContext(ctx, &rows, "SELECT data FROM sessions"); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(rows))
	for _, data := range rows {
		var session domain.Session
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sessions"); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// DeleteIdle removes sessions idle since before cutoff, keeping finished
// runs so users don't lose delivered plans.
func (s *SQLite) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE updated_at < ? AND state != ?",
		cutoff.UTC().Format(time.RFC3339Nano), string(domain.StatePlanReady))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep idle sessions: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(deleted), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
