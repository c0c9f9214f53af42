// internal/game/generate.go
//
// Legal move generation with forced capture.
//
// For every piece of the side to move:
//   1. Search capture trees depth-first. A jump needs an opposing piece on the
//      adjacent diagonal that has not been captured earlier in the same chain,
//      and an empty landing square beyond it. A piece keeps jumping while a
//      further jump exists, so every leaf is a maximal chain.
//   2. Only when the piece has no jump, collect its one-square simple moves.
// If any piece can capture, only the capture map is returned and pieces
// without a capture of their own cannot move this turn.

package game

import "slices"

// GenerateLegalMoves returns the legal-move map for pl on b. An empty map
// means pl has no legal move.
func GenerateLegalMoves(b Board, pl Player) LegalMoves {
	captures := LegalMoves{}
	simple := LegalMoves{}

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			p := b[row][col]
			if !p.BelongsTo(pl) {
				continue
			}
			from := Sq(row, col)
			dirs := directionsFor(p)

			if jumps := searchJumps(&b, from, pl, dirs, nil); len(jumps) > 0 {
				captures[from] = jumps
				continue
			}
			if len(captures) > 0 {
				// simple moves can no longer be returned
				continue
			}
			if steps := simpleSteps(&b, from, dirs); len(steps) > 0 {
				simple[from] = steps
			}
		}
	}

	if len(captures) > 0 {
		return captures
	}
	return simple
}

// searchJumps returns the capture trees starting at from. captured holds the
// squares already jumped in the current chain.
func searchJumps(b *Board, from Square, pl Player, dirs []direction, captured []Square) []*Step {
	var out []*Step
	for _, d := range dirs {
		over := from.add(d, 1)
		land := from.add(d, 2)
		if !canJump(b, pl, over, land, captured) {
			continue
		}
		chain := append(slices.Clone(captured), over)
		out = append(out, &Step{
			To:       land,
			Captured: chain,
			Next:     searchJumps(b, land, pl, dirs, chain),
		})
	}
	return out
}

// canJump reports whether a piece of pl may jump over `over` onto `land`.
func canJump(b *Board, pl Player, over, land Square, captured []Square) bool {
	if !land.InBounds() || b.At(land) != Empty {
		return false
	}
	if !b.At(over).BelongsTo(pl.Opponent()) {
		return false
	}
	return !slices.Contains(captured, over)
}

func simpleSteps(b *Board, from Square, dirs []direction) []*Step {
	var out []*Step
	for _, d := range dirs {
		to := from.add(d, 1)
		if to.InBounds() && b.At(to) == Empty {
			out = append(out, &Step{To: to})
		}
	}
	return out
}
