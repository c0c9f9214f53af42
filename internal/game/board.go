// internal/game/board.go
//
// The 8x8 board model. Board is an array value, so every assignment or
// parameter pass produces an independent copy; engine functions return new
// boards and never write into a board the caller still holds.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// Board is the grid of piece values, indexed [row][col].
type Board [Size][Size]Piece

// NewBoard returns the standard starting position: Black men on the dark
// squares of rows 0-2, White men on the dark squares of rows 5-7.
func NewBoard() Board {
	var b Board
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if (row+col)%2 != 1 {
				continue
			}
			switch {
			case row < 3:
				b[row][col] = BlackMan
			case row > 4:
				b[row][col] = WhiteMan
			}
		}
	}
	return b
}

// At returns the piece on s, or Empty when s is off the board.
func (b *Board) At(s Square) Piece {
	if !s.InBounds() {
		return Empty
	}
	return b[s.Row][s.Col]
}

// Count returns how many pieces pl has on the board.
func (b *Board) Count(pl Player) int {
	n := 0
	for row := range b {
		for _, p := range b[row] {
			if p.BelongsTo(pl) {
				n++
			}
		}
	}
	return n
}

var errBoardInvalid = errors.New("invalid board")

// Validate checks the structural invariants of a board: only the five known
// values appear, pieces stand on dark squares only, and neither side has more
// than PiecesPerSide pieces.
func (b *Board) Validate() error {
	for row := range b {
		for col, p := range b[row] {
			if !p.Valid() {
				return fmt.Errorf("%w: value %d at %d,%d", errBoardInvalid, p, row, col)
			}
			if p != Empty && !Sq(row, col).Dark() {
				return fmt.Errorf("%w: piece on light square %d,%d", errBoardInvalid, row, col)
			}
		}
	}
	for _, pl := range []Player{White, Black} {
		if n := b.Count(pl); n > PiecesPerSide {
			return fmt.Errorf("%w: %s has %d pieces", errBoardInvalid, pl, n)
		}
	}
	return nil
}

// String draws the board one rank per line, row 0 first.
func (b Board) String() string {
	var sb strings.Builder
	for row := range b {
		for _, p := range b[row] {
			sb.WriteRune(p.Rune())
		}
		if row < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ParseBoard reads the diagram produced by String. Blank lines and
// surrounding whitespace are ignored.
func ParseBoard(text string) (Board, error) {
	var b Board
	row := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if row >= Size {
			return Board{}, fmt.Errorf("parse board: more than %d rows", Size)
		}
		if len(line) != Size {
			return Board{}, fmt.Errorf("parse board: row %d has %d cells", row, len(line))
		}
		for col, ch := range line {
			switch ch {
			case '.':
			case 'w':
				b[row][col] = WhiteMan
			case 'b':
				b[row][col] = BlackMan
			case 'W':
				b[row][col] = WhiteKing
			case 'B':
				b[row][col] = BlackKing
			default:
				return Board{}, fmt.Errorf("parse board: unknown cell %q at %d,%d", ch, row, col)
			}
		}
		row++
	}
	if row != Size {
		return Board{}, fmt.Errorf("parse board: got %d rows", row)
	}
	return b, nil
}
