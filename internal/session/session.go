// internal/session/session.go
//
// Session is the mutable holder around State used by stores and the HTTP
// adapter. Each method runs one pure transition and swaps the result in.
// A Session is not safe for concurrent use; callers serialise access.

package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
)

// Session holds one game and its bookkeeping.
type Session struct {
	ID        string
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Start creates a new session with a random id.
func Start() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		State:     New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SelectPiece records a selection. On ErrInvalidSelection the previous
// selection is cleared and nothing else changes.
func (s *Session) SelectPiece(sq game.Square) error {
	next, err := Select(s.State, sq)
	s.State = next
	return err
}

// RequestMove plays from->to. On error the state is unchanged.
func (s *Session) RequestMove(from, to game.Square) (Outcome, error) {
	next, out, err := Move(s.State, from, to)
	if err != nil {
		return Outcome{}, err
	}
	s.State = next
	s.UpdatedAt = time.Now().UTC()
	return out, nil
}

// Reset restarts the game under the same id.
func (s *Session) Reset() {
	s.State = Reset(s.State)
	s.UpdatedAt = time.Now().UTC()
}

// Reachable answers the hover-preview query for the current selection.
func (s *Session) Reachable(q game.Square) bool { return Reachable(s.State, q) }

// Clone returns an independent copy suitable for handing to another owner.
func (s *Session) Clone() *Session {
	cp := *s
	if s.State.Selected != nil {
		sel := *s.State.Selected
		cp.State.Selected = &sel
	}
	return &cp
}
