package port

import (
	"context"
	"navbot/internal/core/domain"
	"time"
)

type SessionStore interface {
	// Get returns the session for a user or domain.ErrSessionNotFound.
	Get(ctx context.Context, userID int64) (*domain.Session, error)
	// Put inserts or updates a session.
	Put(ctx context.Context, session *domain.Session) error
	// Delete removes a session; deleting an absent session is not an error.
	Delete(ctx context.Context, userID int64) error
	// All returns every stored session.
	All(ctx context.Context) ([]*domain.Session, error)
	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)
	// DeleteIdle removes unfinished sessions whose last activity is before
	// cutoff and returns how many were removed.
	DeleteIdle(ctx context.Context, cutoff time.Time) (int, error)
}
