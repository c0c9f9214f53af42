// internal/session/transitions.go
//
// Pure state transitions: (State, input) -> (State, error).
//
//   New / Reset   fresh board, White to move, legal moves computed.
//   Select        records a selection when the square has legal moves;
//                 otherwise clears the selection and reports ErrInvalidSelection.
//   Move          accepts only a chain-terminal destination, resolves and applies
//                 the move, updates score and termination, hands the turn over.
//   Reachable     hover query: any landing square of a chain from the selection.
//
// A rejected Move returns the input state untouched.

package session

import (
	"github.com/robalobadob/checkers/apps/go-server/internal/game"
)

// New returns the initial state of a game.
func New() State {
	b := game.NewBoard()
	return State{
		Board:  b,
		Active: game.White,
		Legal:  game.GenerateLegalMoves(b, game.White),
	}
}

// Reset discards s and starts over.
func Reset(State) State { return New() }

// Select picks the piece on sq for the next move.
func Select(s State, sq game.Square) (State, error) {
	if !s.Stats.IsOver && s.Legal.Has(sq) {
		sel := sq
		s.Selected = &sel
		return s, nil
	}
	s.Selected = nil
	if s.Stats.IsOver {
		return s, ErrGameOver
	}
	return s, ErrInvalidSelection
}

// Move plays the chain rooted at from that ends on to.
func Move(s State, from, to game.Square) (State, Outcome, error) {
	if s.Stats.IsOver {
		return s, Outcome{}, ErrGameOver
	}
	if !s.Legal.IsTerminal(from, to) {
		return s, Outcome{}, ErrInvalidMove
	}

	mover := s.Active
	m, res := game.Play(s.Board, from, to)

	next := s
	next.Board = res.Board
	next.Selected = nil
	next.Score = s.Score.add(mover, res.Captured)
	next.Stats = Stats{}

	out := Outcome{
		Player:   mover,
		From:     from,
		To:       to,
		Captured: m.Captured,
		Promoted: res.Promoted,
	}

	if next.Score.Of(mover) >= WinningScore {
		next.Legal = game.LegalMoves{}
		next.Stats = Stats{IsOver: true, Winner: mover, Reason: ReasonAllCaptured}
		return next, out, nil
	}

	opp := mover.Opponent()
	next.Active = opp
	next.Legal = game.GenerateLegalMoves(next.Board, opp)
	if next.Legal.Len() == 0 {
		// a player who cannot move loses
		next.Stats = Stats{IsOver: true, Winner: mover, Reason: ReasonNoMoves}
	}
	return next, out, nil
}

// Reachable reports whether q lies on any chain from the selected piece,
// intermediate capture stops included.
func Reachable(s State, q game.Square) bool {
	if s.Selected == nil {
		return false
	}
	return s.Legal.Reaches(*s.Selected, q)
}
