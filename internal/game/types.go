// internal/game/types.go
//
// Core type definitions for the checkers rules engine.
// Defines:
//   - Piece:  the value stored in a board cell (empty, man or king of either side).
//   - Player: the two fixed sides, White (moves first) and Black.
//   - Square: a (row, col) coordinate, used as the key of the legal-move map.
//
// Piece values follow the classic encoding: a king is its man's value + 2, and the
// value's parity names the owner (odd = White family, even = Black family).

package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the board edge length.
const Size = 8

// PiecesPerSide is the number of men each player starts with.
const PiecesPerSide = 12

// Piece is the content of one board cell.
type Piece int8

const (
	Empty     Piece = 0
	WhiteMan  Piece = 1
	BlackMan  Piece = 2
	WhiteKing Piece = 3
	BlackKing Piece = 4
)

// Valid reports whether p is one of the five known cell values.
func (p Piece) Valid() bool { return p >= Empty && p <= BlackKing }

// IsKing reports whether p is a promoted piece.
func (p Piece) IsKing() bool { return p == WhiteKing || p == BlackKing }

// BelongsTo reports whether p is a piece owned by pl.
func (p Piece) BelongsTo(pl Player) bool {
	return p != Empty && pl.Valid() && (int(p)-int(pl))%2 == 0
}

// Owner returns the player owning p, or NoPlayer for an empty cell.
func (p Piece) Owner() Player {
	switch {
	case p == Empty || !p.Valid():
		return NoPlayer
	case p%2 == 1:
		return White
	default:
		return Black
	}
}

// Promoted returns the king value for a man. Kings and empty cells are returned unchanged.
func (p Piece) Promoted() Piece {
	if p == WhiteMan || p == BlackMan {
		return p + 2
	}
	return p
}

// Rune is the single-character form used by Board.String.
func (p Piece) Rune() rune {
	switch p {
	case WhiteMan:
		return 'w'
	case BlackMan:
		return 'b'
	case WhiteKing:
		return 'W'
	case BlackKing:
		return 'B'
	default:
		return '.'
	}
}

// Player identifies a side. The numeric values match the men's piece values.
type Player int8

const (
	NoPlayer Player = 0
	White    Player = 1
	Black    Player = 2
)

// Valid reports whether pl is White or Black.
func (pl Player) Valid() bool { return pl == White || pl == Black }

// Opponent returns the other side.
func (pl Player) Opponent() Player {
	switch pl {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoPlayer
	}
}

// Forward is the row delta of a man's move: White climbs toward row 0, Black descends.
func (pl Player) Forward() int {
	if pl == White {
		return -1
	}
	return 1
}

// PromotionRow is the far rank on which a man of pl is crowned.
func (pl Player) PromotionRow() int {
	if pl == White {
		return 0
	}
	return Size - 1
}

func (pl Player) String() string {
	switch pl {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Square is a board coordinate.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Sq is shorthand for Square{Row: row, Col: col}.
func Sq(row, col int) Square { return Square{Row: row, Col: col} }

// InBounds reports whether both coordinates lie in [0, Size).
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// InBounds reports whether s lies on the board.
func (s Square) InBounds() bool { return InBounds(s.Row, s.Col) }

// Key packs s into row*Size+col.
func (s Square) Key() int { return s.Row*Size + s.Col }

// SquareFromKey is the inverse of Key.
func SquareFromKey(k int) Square { return Square{Row: k / Size, Col: k % Size} }

// Dark reports whether s is a playable square, i.e. (row+col) is odd.
func (s Square) Dark() bool { return (s.Row+s.Col)%2 == 1 }

func (s Square) add(d direction, n int) Square {
	return Square{Row: s.Row + n*d.dr, Col: s.Col + n*d.dc}
}

// String renders s as "row,col".
func (s Square) String() string {
	return strconv.Itoa(s.Row) + "," + strconv.Itoa(s.Col)
}

// ParseSquare reads the "row,col" form produced by String.
func ParseSquare(v string) (Square, error) {
	r, c, ok := strings.Cut(strings.TrimSpace(v), ",")
	if !ok {
		return Square{}, fmt.Errorf("square %q: want row,col", v)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return Square{}, fmt.Errorf("square %q: row: %w", v, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return Square{}, fmt.Errorf("square %q: col: %w", v, err)
	}
	s := Square{Row: row, Col: col}
	if !s.InBounds() {
		return Square{}, fmt.Errorf("square %q: off board", v)
	}
	return s, nil
}

// direction is a diagonal unit step.
type direction struct{ dr, dc int }

// allDirections lists the four diagonals in the order the capture resolver probes them.
var allDirections = [4]direction{
	{dr: 1, dc: 1},
	{dr: 1, dc: -1},
	{dr: -1, dc: 1},
	{dr: -1, dc: -1},
}

// directionsFor returns the diagonals a piece may travel: two forward for a man,
// all four for a king (forward pair first).
func directionsFor(p Piece) []direction {
	pl := p.Owner()
	f := pl.Forward()
	dirs := []direction{{dr: f, dc: -1}, {dr: f, dc: 1}}
	if p.IsKing() {
		dirs = append(dirs, direction{dr: -f, dc: -1}, direction{dr: -f, dc: 1})
	}
	return dirs
}
