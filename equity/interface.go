package equity

import (
	"github.com/ben-axnick/PFCloneLogic/board"
)

const (
	// WinScore is the value of a decided game for the winner. No heuristic
	// evaluation comes close to it.
	WinScore int32 = 100000
	// LossScore is the value of a decided game for the loser.
	LossScore = -WinScore
)

// Evaluator scores a position from one side's point of view. Higher is
// better for that side. Implementations keep scratch memory, so each
// search worker owns its own.
type Evaluator interface {
	Evaluate(b *board.Board, side board.Player) int32
}

// Terminal returns the decided score of b for side, if the game is over.
func Terminal(b *board.Board, side board.Player) (int32, bool) {
	switch b.Winner() {
	case board.NoPlayer:
		return 0, false
	case side:
		return WinScore, true
	}
	return LossScore, true
}
