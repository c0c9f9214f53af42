// internal/game/moves.go
//
// Move trees and the legal-move map.
//
// A move from an origin is described by a tree of Steps. Each Step is one
// landing square; its Next children are the jumps that may follow from there.
// A simple move is a lone Step with no captures. The leaves of a capture tree
// are the terminal squares a player may choose to execute a whole chain.

package game

import (
	"slices"
)

// Step is one landing square of a move.
type Step struct {
	To Square `json:"to"`
	// Captured lists every square jumped from the origin up to this landing, in order.
	Captured []Square `json:"captured,omitempty"`
	Next     []*Step  `json:"next,omitempty"`
}

// IsCapture reports whether the step was reached by jumping.
func (s *Step) IsCapture() bool { return len(s.Captured) > 0 }

// IsTerminal reports whether the chain ends at this step.
func (s *Step) IsTerminal() bool { return len(s.Next) == 0 }

// Terminals returns the leaf landing squares below (and including) s.
func (s *Step) Terminals() []Square {
	var out []Square
	s.walk(func(st *Step) {
		if st.IsTerminal() {
			out = append(out, st.To)
		}
	})
	return out
}

// Contains reports whether sq is a landing square at any depth of the tree.
func (s *Step) Contains(sq Square) bool {
	found := false
	s.walk(func(st *Step) {
		if st.To == sq {
			found = true
		}
	})
	return found
}

// Leaf returns the terminal step landing on sq with the most captures, or nil.
func (s *Step) Leaf(sq Square) *Step {
	var best *Step
	s.walk(func(st *Step) {
		if st.IsTerminal() && st.To == sq && (best == nil || len(st.Captured) > len(best.Captured)) {
			best = st
		}
	})
	return best
}

// Paths flattens the tree into one ordered square list per maximal chain.
func (s *Step) Paths() [][]Square {
	var out [][]Square
	var visit func(st *Step, prefix []Square)
	visit = func(st *Step, prefix []Square) {
		path := append(slices.Clone(prefix), st.To)
		if st.IsTerminal() {
			out = append(out, path)
			return
		}
		for _, n := range st.Next {
			visit(n, path)
		}
	}
	visit(s, nil)
	return out
}

// walk visits s and all of its descendants depth-first.
func (s *Step) walk(fn func(*Step)) {
	stack := []*Step{s}
	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(st)
		for i := len(st.Next) - 1; i >= 0; i-- {
			stack = append(stack, st.Next[i])
		}
	}
}

// LegalMoves maps each movable origin to the move trees available from it.
// An origin with no moves is never present.
type LegalMoves map[Square][]*Step

// Origins returns the movable squares in row-major order.
func (lm LegalMoves) Origins() []Square {
	out := make([]Square, 0, len(lm))
	for sq := range lm {
		out = append(out, sq)
	}
	slices.SortFunc(out, func(a, b Square) int { return a.Key() - b.Key() })
	return out
}

// Has reports whether from has at least one legal move.
func (lm LegalMoves) Has(from Square) bool { return len(lm[from]) > 0 }

// IsCapture reports whether the map holds capture chains. Capture and simple
// moves never coexist, so checking any one entry is enough.
func (lm LegalMoves) IsCapture() bool {
	for _, steps := range lm {
		for _, st := range steps {
			return st.IsCapture()
		}
	}
	return false
}

// IsTerminal reports whether to is the final landing of some chain rooted at from.
func (lm LegalMoves) IsTerminal(from, to Square) bool {
	for _, st := range lm[from] {
		if slices.Contains(st.Terminals(), to) {
			return true
		}
	}
	return false
}

// Reaches reports whether to is a landing square at any depth of a chain
// rooted at from, intermediate capture stops included.
func (lm LegalMoves) Reaches(from, to Square) bool {
	for _, st := range lm[from] {
		if st.Contains(to) {
			return true
		}
	}
	return false
}

// Len returns the number of movable origins.
func (lm LegalMoves) Len() int { return len(lm) }
