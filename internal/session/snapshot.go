// internal/session/snapshot.go
//
// Flat, JSON-serialisable form of a State for external stores.
//
// Encode writes the board as 8x8 ints, the selection, the side to move, the
// legal-move map flattened to {origin, paths} entries, score and stats, and
// seals the document with a BLAKE2b-256 checksum.
//
// Decode checks structure and checksum and rebuilds the legal-move map from
// board + side to move; the persisted map is informational only, so a stale
// one is harmless. Every failure wraps ErrMalformedState. LoadOrNew turns any
// such failure into a fresh game.

package session

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"

	"github.com/robalobadob/checkers/apps/go-server/internal/game"
)

const snapshotVersion = 1

// Snapshot is the persisted shape of a State.
type Snapshot struct {
	Version       int          `json:"version"`
	Board         [][]int      `json:"board"`
	SelectedPiece *game.Square `json:"selectedPiece"`
	ActivePlayer  game.Player  `json:"activePlayer"`
	PossibleMoves []MoveEntry  `json:"possiblePlayerMovements"`
	Score         Score        `json:"score"`
	Stats         Stats        `json:"stats"`
	Checksum      string       `json:"checksum,omitempty"`
}

// MoveEntry is one origin of the legal-move map with its chains as square paths.
type MoveEntry struct {
	Origin game.Square     `json:"origin"`
	Paths  [][]game.Square `json:"paths"`
}

// NewSnapshot flattens s.
func NewSnapshot(s State) Snapshot {
	snap := Snapshot{
		Version:       snapshotVersion,
		Board:         make([][]int, game.Size),
		ActivePlayer:  s.Active,
		PossibleMoves: FlattenMoves(s.Legal),
		Score:         s.Score,
		Stats:         s.Stats,
	}
	for row := range s.Board {
		snap.Board[row] = make([]int, game.Size)
		for col, p := range s.Board[row] {
			snap.Board[row][col] = int(p)
		}
	}
	if s.Selected != nil {
		sel := *s.Selected
		snap.SelectedPiece = &sel
	}
	return snap
}

// FlattenMoves lists lm's origins in row-major order with every chain as a path.
func FlattenMoves(lm game.LegalMoves) []MoveEntry {
	out := make([]MoveEntry, 0, lm.Len())
	for _, from := range lm.Origins() {
		e := MoveEntry{Origin: from}
		for _, st := range lm[from] {
			e.Paths = append(e.Paths, st.Paths()...)
		}
		out = append(out, e)
	}
	return out
}

// Encode serialises s with its checksum.
func Encode(s State) ([]byte, error) {
	snap := NewSnapshot(s)
	sum, err := snap.sum()
	if err != nil {
		return nil, err
	}
	snap.Checksum = sum
	return json.Marshal(snap)
}

// Decode parses and validates data produced by Encode.
func Decode(data []byte) (State, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return snap.State()
}

// LoadOrNew decodes data, falling back to a fresh game when it is missing or invalid.
func LoadOrNew(data []byte) State {
	if len(data) == 0 {
		return New()
	}
	s, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Msg("discarding persisted session; starting fresh")
		return New()
	}
	return s
}

// sum is the hex BLAKE2b-256 of the snapshot without its checksum.
func (snap Snapshot) sum() (string, error) {
	snap.Checksum = ""
	b, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	h := blake2b.Sum256(b)
	return hex.EncodeToString(h[:]), nil
}

// State validates snap and rebuilds the State it describes.
func (snap Snapshot) State() (State, error) {
	bad := func(format string, args ...any) (State, error) {
		return State{}, fmt.Errorf("%w: %s", ErrMalformedState, fmt.Sprintf(format, args...))
	}

	if snap.Version != snapshotVersion {
		return bad("version %d", snap.Version)
	}
	sum, err := snap.sum()
	if err != nil {
		return bad("checksum: %v", err)
	}
	if snap.Checksum != sum {
		return bad("checksum mismatch")
	}

	var b game.Board
	if len(snap.Board) != game.Size {
		return bad("board has %d rows", len(snap.Board))
	}
	for row, cells := range snap.Board {
		if len(cells) != game.Size {
			return bad("board row %d has %d cells", row, len(cells))
		}
		for col, v := range cells {
			if v < int(game.Empty) || v > int(game.BlackKing) {
				return bad("value %d at %d,%d", v, row, col)
			}
			b[row][col] = game.Piece(v)
		}
	}
	if err := b.Validate(); err != nil {
		return bad("%v", err)
	}

	if !snap.ActivePlayer.Valid() {
		return bad("active player %d", snap.ActivePlayer)
	}
	for _, pl := range []game.Player{game.White, game.Black} {
		score := snap.Score.Of(pl)
		if score < 0 || score > WinningScore {
			return bad("%s score %d", pl, score)
		}
		if score+b.Count(pl.Opponent()) > game.PiecesPerSide {
			return bad("%s score %d does not match the board", pl, score)
		}
	}

	st := snap.Stats
	switch {
	case st.IsOver && !st.Winner.Valid():
		return bad("finished game without a winner")
	case !st.IsOver && (st.Winner != game.NoPlayer || st.Reason != ReasonNone):
		return bad("unfinished game with a result")
	case st.Reason != ReasonNone && st.Reason != ReasonAllCaptured && st.Reason != ReasonNoMoves:
		return bad("reason %q", st.Reason)
	case !st.IsOver && snap.Score.Of(game.White) >= WinningScore, !st.IsOver && snap.Score.Of(game.Black) >= WinningScore:
		return bad("winning score on an unfinished game")
	case st.Reason == ReasonAllCaptured && snap.Score.Of(st.Winner) != WinningScore:
		return bad("%s won by captures with score %d", st.Winner, snap.Score.Of(st.Winner))
	}

	s := State{
		Board:  b,
		Active: snap.ActivePlayer,
		Score:  snap.Score,
		Stats:  st,
		Legal:  game.LegalMoves{},
	}
	if !st.IsOver {
		s.Legal = game.GenerateLegalMoves(b, s.Active)
	}
	if sel := snap.SelectedPiece; sel != nil && s.Legal.Has(*sel) {
		cp := *sel
		s.Selected = &cp
	}
	return s, nil
}
