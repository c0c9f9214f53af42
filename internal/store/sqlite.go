// internal/store/sqlite.go
//
// SQLite-backed Store. Each session is one row of the `sessions` table: the
// checksummed snapshot as JSON text plus denormalised columns (side to move,
// scores, result) so listings never decode snapshots.
//
// A row whose snapshot fails validation is not an error for callers: Get logs
// it and hands back a fresh game under the same id.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
	"github.com/robalobadob/checkers/apps/go-server/internal/session"
)

type sqliteStore struct{ db *sql.DB }

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) Store { return &sqliteStore{db: db} }

func (s *sqliteStore) Save(ctx context.Context, sess *session.Session) error {
	snap, err := session.Encode(sess.State)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	st := sess.State
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO sessions
            (id, snapshot, active_player, white_score, black_score, is_over, winner, reason, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            snapshot=excluded.snapshot,
            active_player=excluded.active_player,
            white_score=excluded.white_score,
            black_score=excluded.black_score,
            is_over=excluded.is_over,
            winner=excluded.winner,
            reason=excluded.reason,
            updated_at=excluded.updated_at`,
		sess.ID, string(snap), int(st.Active), st.Score.White, st.Score.Black,
		st.Stats.IsOver, int(st.Stats.Winner), string(st.Stats.Reason),
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
	)
	return err
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var snap, created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot, created_at, updated_at FROM sessions WHERE id=?`, id,
	).Scan(&snap, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	state, err := session.Decode([]byte(snap))
	if err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("corrupt session row; starting fresh")
		state = session.New()
	}
	return &session.Session{
		ID:        id,
		State:     state,
		CreatedAt: parseTime(created),
		UpdatedAt: parseTime(updated),
	}, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	return err
}

func (s *sqliteStore) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, active_player, white_score, black_score, is_over, winner, reason, created_at, updated_at
        FROM sessions
        ORDER BY updated_at DESC
        LIMIT ?`, clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			r                Summary
			active, winner   int
			reason           string
			created, updated string
		)
		if err := rows.Scan(&r.ID, &active, &r.Score.White, &r.Score.Black,
			&r.Stats.IsOver, &winner, &reason, &created, &updated); err != nil {
			return nil, err
		}
		r.Active = game.Player(active)
		r.Stats.Winner = game.Player(winner)
		r.Stats.Reason = session.Reason(reason)
		r.CreatedAt = parseTime(created)
		r.UpdatedAt = parseTime(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// parseTime reads timestamps written by formatTime; on error returns zero time.
func parseTime(v string) time.Time {
	t, _ := time.Parse(timeLayout, v)
	return t
}
