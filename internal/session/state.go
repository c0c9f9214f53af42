// internal/session/state.go
//
// Game session state for a single checkers game.
// Defines:
//   - State:  board, selection, side to move, legal-move map, score and stats.
//   - Phase:  awaiting_selection / piece_selected / game_over, derived from State.
//   - Score:  captured-piece counters per player.
//   - Stats:  termination flag, winner and reason.
//   - Errors: typed, non-fatal rejections returned by the transitions.

package session

import (
	"errors"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidMove      = errors.New("invalid move")
	ErrGameOver         = errors.New("game over")
	ErrMalformedState   = errors.New("malformed persisted state")
)

// WinningScore is the capture count that ends the game.
const WinningScore = game.PiecesPerSide

// Phase is the coarse state-machine position of a session.
type Phase string

const (
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhasePieceSelected     Phase = "piece_selected"
	PhaseGameOver          Phase = "game_over"
)

// Reason explains why a game ended.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonAllCaptured Reason = "all_captured"
	ReasonNoMoves     Reason = "no_moves"
)

// Score counts the opponent pieces each player has captured.
type Score struct {
	White int `json:"1"`
	Black int `json:"2"`
}

// Of returns pl's score.
func (s Score) Of(pl game.Player) int {
	if pl == game.Black {
		return s.Black
	}
	return s.White
}

func (s Score) add(pl game.Player, n int) Score {
	if pl == game.Black {
		s.Black += n
	} else {
		s.White += n
	}
	return s
}

// Stats records how the game ended.
type Stats struct {
	IsOver bool        `json:"isOver"`
	Winner game.Player `json:"winner,omitempty"`
	Reason Reason      `json:"reason,omitempty"`
}

// State is the authoritative state of one game. Transitions never modify a
// State in place; they return a new one. Board is an array and Legal is
// always replaced wholesale, so shallow copies are safe to share.
type State struct {
	Board    game.Board
	Selected *game.Square
	Active   game.Player
	Legal    game.LegalMoves
	Score    Score
	Stats    Stats
}

// Phase derives the state-machine phase.
func (s State) Phase() Phase {
	switch {
	case s.Stats.IsOver:
		return PhaseGameOver
	case s.Selected != nil:
		return PhasePieceSelected
	default:
		return PhaseAwaitingSelection
	}
}

// Outcome describes a move accepted by Move.
type Outcome struct {
	Player   game.Player   `json:"player"`
	From     game.Square   `json:"from"`
	To       game.Square   `json:"to"`
	Captured []game.Square `json:"captured"`
	Promoted bool          `json:"promoted"`
}
