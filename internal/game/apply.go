// internal/game/apply.go
//
// Move application. Apply is pure: it copies the board, relocates the
// mover, clears the captured squares and crowns a man that lands on its
// promotion row.

package game

// Move is a resolved move: origin, final landing and the squares it vacates.
type Move struct {
	From     Square   `json:"from"`
	To       Square   `json:"to"`
	Captured []Square `json:"captured,omitempty"`
}

// Result describes the board produced by Apply.
type Result struct {
	Board    Board
	Captured int
	Promoted bool
}

// Apply plays m on a copy of b.
//
// Promotion looks only at the mover's value before the move, so a king is
// never promoted again and a man is crowned at most once, on its final landing.
func Apply(b Board, m Move) Result {
	next := b
	mover := next[m.From.Row][m.From.Col]

	next[m.From.Row][m.From.Col] = Empty
	next[m.To.Row][m.To.Col] = mover
	for _, sq := range m.Captured {
		next[sq.Row][sq.Col] = Empty
	}

	promoted := false
	if !mover.IsKing() && mover != Empty && m.To.Row == mover.Owner().PromotionRow() {
		next[m.To.Row][m.To.Col] = mover.Promoted()
		promoted = true
	}

	return Result{Board: next, Captured: len(m.Captured), Promoted: promoted}
}

// Play resolves the captures of from->to on b and applies the move.
func Play(b Board, from, to Square) (Move, Result) {
	m := Move{From: from, To: to, Captured: ResolveCaptures(b, from, to)}
	return m, Apply(b, m)
}
