package search

import (
	"math"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/equity"
	"github.com/ben-axnick/PFCloneLogic/transposition"
)

const (
	// CancelledLoss scores a node left unexpanded by cancellation when the
	// controlling side chose it. It loses against every resolved sibling
	// that is not itself a forced loss.
	CancelledLoss = equity.LossScore / 2
	// CancelledWin is the mirror for nodes the opponent chose.
	CancelledWin = equity.WinScore / 2
)

// worker owns everything one search goroutine touches: a turn generator
// per depth, an evaluator and a signer.
type worker struct {
	s      *Solver
	levels []*turnGen
	eval   *equity.PositionalCalculator
	signer *transposition.Signer
}

func newWorker(s *Solver) *worker {
	w := &worker{
		s:      s,
		levels: make([]*turnGen, s.params.HardPly),
		eval:   equity.NewPositionalCalculator(s.weights),
		signer: transposition.NewSigner(),
	}
	// The root level belongs to the solver.
	for d := 1; d < s.params.HardPly; d++ {
		w.levels[d] = newTurnGen(s.arena)
	}
	return w
}

func toP1(v int32, side board.Player) int32 {
	if side == board.P1 {
		return v
	}
	return -v
}

// scoreChild scores child for the controlling side. child sits depth
// plies below the root and toMove plays next in it.
func (w *worker) scoreChild(child *board.Board, depth int, toMove board.Player) int32 {
	s := w.s
	s.nodes.Add(1)
	if v, over := equity.Terminal(child, s.side); over {
		return v
	}
	if depth >= s.params.SoftPly {
		if !child.AnyEdgeAdjacent() || depth >= s.params.HardPly {
			return w.eval.Evaluate(child, s.side)
		}
	}
	if s.cancel.Load() {
		// Pessimistic for whoever picked this child.
		if toMove.Other() == s.side {
			return CancelledLoss
		}
		return CancelledWin
	}
	key := w.signer.Sign(child, toMove, transposition.Identity)
	if v, ok := s.tt.Lookup(key); ok {
		// Scores are stored from P1's point of view.
		return toP1(v, s.side)
	}
	v := w.minimax(child, depth, toMove)
	if depth == 1 && !s.cancel.Load() {
		s.tt.StoreSymmetric(w.signer, child, toMove, toP1(v, s.side))
	}
	return v
}

// minimax expands node, at depth plies below the root with mover to play.
// The controlling side maximizes, the opponent minimizes.
func (w *worker) minimax(node *board.Board, depth int, mover board.Player) int32 {
	maximize := mover == w.s.side
	best := int32(math.MaxInt32)
	if maximize {
		best = math.MinInt32
	}
	w.levels[depth].forEachTurn(node, mover, func(child *board.Board, _ *ActionChain) {
		v := w.scoreChild(child, depth+1, mover.Other())
		if (maximize && v > best) || (!maximize && v < best) {
			best = v
		}
	})
	return best
}

// scoreRoot plays chain on a fresh copy of the root and scores the result.
func (w *worker) scoreRoot(root *board.Board, chain *ActionChain) int32 {
	child := w.s.arena.Clone(root)
	defer w.s.arena.Release(child)
	chain.replay(child, w.s.side)
	return w.scoreChild(child, 1, w.s.side.Other())
}
