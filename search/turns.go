package search

import (
	"github.com/ben-axnick/PFCloneLogic/arena"
	"github.com/ben-axnick/PFCloneLogic/board"
)

type moveOpt struct {
	piece int
	to    int
}

// visitFunc receives every turn a generator produces. child is only valid
// for the duration of the call; the generator releases it afterwards.
type visitFunc func(child *board.Board, chain *ActionChain)

// turnGen enumerates the turns of one player. Every search depth owns its
// own generator, so the scratch lists survive the recursion that happens
// inside visit.
type turnGen struct {
	arena   *arena.Arena
	first   []moveOpt
	second  []moveOpt
	squares []int
	pushes  []int
	scratch []int
	chain   ActionChain
}

func newTurnGen(a *arena.Arena) *turnGen {
	return &turnGen{
		arena:   a,
		first:   make([]moveOpt, 0, 128),
		second:  make([]moveOpt, 0, 128),
		squares: make([]int, 0, 64),
		pushes:  make([]int, 0, 8),
		scratch: make([]int, 0, 8),
	}
}

// collectMoves appends every (piece, destination) pair side can play on b.
func (g *turnGen) collectMoves(b *board.Board, side board.Player, dst []moveOpt) []moveOpt {
	for i, p := range b.Pieces() {
		if p.Owner != side {
			continue
		}
		g.squares = b.CheckMoves(i, g.squares[:0])
		for _, sq := range g.squares {
			dst = append(dst, moveOpt{piece: i, to: sq})
		}
	}
	return dst
}

// dominated reports whether piece i, just moved, now stands next to an
// edge with nothing it can push. Such a move only exposes the piece.
func (g *turnGen) dominated(b *board.Board, i int) bool {
	if !b.Template().EdgeAdjacent(b.Piece(i).Square) {
		return false
	}
	g.scratch = b.CheckPushes(i, g.scratch[:0])
	return len(g.scratch) == 0
}

// forEachTurn calls visit once for every turn side can take on b.
func (g *turnGen) forEachTurn(b *board.Board, side board.Player, visit visitFunc) {
	g.chain = ActionChain{}
	c := &g.chain

	c.add(skip)
	g.pushPhase(b, side, visit)
	c.pop()

	g.first = g.collectMoves(b, side, g.first[:0])
	for fi := range g.first {
		m1 := g.first[fi]
		from := b.Piece(m1.piece).Square
		afterFirst := g.arena.Clone(b)
		afterFirst.Relocate(m1.piece, m1.to)
		if g.dominated(afterFirst, m1.piece) {
			g.arena.Release(afterFirst)
			continue
		}
		c.add(Action{Kind: ActionMove, From: from, To: m1.to})

		c.add(skip)
		g.pushPhase(afterFirst, side, visit)
		c.pop()

		g.second = g.collectMoves(afterFirst, side, g.second[:0])
		for si := range g.second {
			m2 := g.second[si]
			// Moving the same piece twice is covered by a single move.
			if m2.piece == m1.piece {
				continue
			}
			afterSecond := g.arena.Clone(afterFirst)
			from2 := afterSecond.Piece(m2.piece).Square
			afterSecond.Relocate(m2.piece, m2.to)
			if g.dominated(afterSecond, m2.piece) {
				g.arena.Release(afterSecond)
				continue
			}
			c.add(Action{Kind: ActionMove, From: from2, To: m2.to})
			g.pushPhase(afterSecond, side, visit)
			c.pop()
			g.arena.Release(afterSecond)
		}

		c.pop()
		g.arena.Release(afterFirst)
	}
}

// pushPhase ends the chain with every legal push, then with a skip, which
// forfeits the game.
func (g *turnGen) pushPhase(b *board.Board, side board.Player, visit visitFunc) {
	c := &g.chain
	for i, p := range b.Pieces() {
		if p.Owner != side {
			continue
		}
		g.pushes = b.CheckPushes(i, g.pushes[:0])
		for _, target := range g.pushes {
			child := g.arena.Clone(b)
			if err := child.Push(i, target); err != nil {
				panic("search: generated an illegal push: " + err.Error())
			}
			c.add(Action{Kind: ActionPush, From: p.Square, To: target})
			visit(child, c)
			c.pop()
			g.arena.Release(child)
		}
	}
	child := g.arena.Clone(b)
	child.Forfeit(side)
	c.add(skip)
	visit(child, c)
	c.pop()
	g.arena.Release(child)
}
