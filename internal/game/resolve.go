// internal/game/resolve.go
//
// Capture resolution for a chosen (from, to) pair.
//
// Several chains may reach the same terminal square through different
// captures. ResolveCaptures re-runs the jump search from the origin over all
// four diagonals, keeps every chain that stops exactly on the destination,
// including chains that cross it before ending there, and picks the one
// capturing the most pieces (first found wins a tie).

package game

import "slices"

// ResolveCaptures returns the squares vacated by moving the piece on from to
// to. The result is empty when to is not reachable by jumping.
func ResolveCaptures(b Board, from, to Square) []Square {
	pl := b.At(from).Owner()
	if !pl.Valid() || from == to {
		return nil
	}

	var best []Square
	var search func(cur Square, captured []Square)
	search = func(cur Square, captured []Square) {
		// a king may pass through the destination and loop back onto it,
		// so arriving is not the end of the search
		if cur == to && len(captured) > len(best) {
			best = captured
		}
		for _, d := range allDirections {
			over := cur.add(d, 1)
			land := cur.add(d, 2)
			if !canJump(&b, pl, over, land, captured) {
				continue
			}
			search(land, append(slices.Clone(captured), over))
		}
	}
	search(from, nil)
	return best
}
