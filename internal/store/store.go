// internal/store/store.go
//
// Persistence interface for game sessions plus the shared listing types.
// Implementations: memory (this package, ephemeral) and SQLite (durable).

package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
	"github.com/robalobadob/checkers/apps/go-server/internal/session"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("not found")

const defaultListLimit = 50

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *session.Session) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// List returns up to limit sessions, most recently updated first.
	List(ctx context.Context, limit int) ([]Summary, error)
}

// Summary is the listing view of a session.
type Summary struct {
	ID        string        `json:"id"`
	Active    game.Player   `json:"activePlayer"`
	Score     session.Score `json:"score"`
	Stats     session.Stats `json:"stats"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func summarize(s *session.Session) Summary {
	return Summary{
		ID:        s.ID,
		Active:    s.State.Active,
		Score:     s.State.Score,
		Stats:     s.State.Stats,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultListLimit {
		return defaultListLimit
	}
	return limit
}
