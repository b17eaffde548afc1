package equity

import (
	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
)

// Weights are the terms of the positional evaluation of a single piece.
type Weights struct {
	// Goal is awarded for standing on the central goal block, plus
	// GoalSecure when no push line can dislodge the piece.
	Goal       int32
	GoalSecure int32
	// Base is what any other safe piece is worth.
	Base int32
	// EdgeAdjacent replaces Base for pieces touching an edge, and
	// EdgeTrapped replaces it when such a piece is also anchored and
	// cannot move.
	EdgeAdjacent int32
	EdgeTrapped  int32
	// Mobility is added per reachable square, Support per adjacent ally.
	Mobility int32
	Support  int32
}

var DefaultWeights = Weights{
	Goal:         50,
	GoalSecure:   15,
	Base:         20,
	EdgeAdjacent: -100,
	EdgeTrapped:  -150,
	Mobility:     1,
	Support:      5,
}

// WeightsFromConfig reads the eval-* settings.
func WeightsFromConfig(cfg *config.Config) Weights {
	return Weights{
		Goal:         cfg.GetInt32(config.ConfigEvalGoal),
		GoalSecure:   cfg.GetInt32(config.ConfigEvalGoalSecure),
		Base:         cfg.GetInt32(config.ConfigEvalBase),
		EdgeAdjacent: cfg.GetInt32(config.ConfigEvalEdgeAdjacent),
		EdgeTrapped:  cfg.GetInt32(config.ConfigEvalEdgeTrapped),
		Mobility:     cfg.GetInt32(config.ConfigEvalMobility),
		Support:      cfg.GetInt32(config.ConfigEvalSupport),
	}
}

// PositionalCalculator sums per-piece values: its own pieces count for
// it, the opponent's against it.
type PositionalCalculator struct {
	w     Weights
	moves []int
}

func NewPositionalCalculator(w Weights) *PositionalCalculator {
	return &PositionalCalculator{w: w, moves: make([]int, 0, 64)}
}

func (pc *PositionalCalculator) Weights() Weights { return pc.w }

func (pc *PositionalCalculator) Evaluate(b *board.Board, side board.Player) int32 {
	if v, over := Terminal(b, side); over {
		return v
	}
	var total int32
	for i, p := range b.Pieces() {
		v := pc.PieceValue(b, i)
		if p.Owner == side {
			total += v
		} else {
			total -= v
		}
	}
	return total
}

// PieceValue is the positional value of piece i to its owner.
func (pc *PositionalCalculator) PieceValue(b *board.Board, i int) int32 {
	tpl := b.Template()
	sq := b.Piece(i).Square
	pc.moves = b.CheckMoves(i, pc.moves[:0])
	mobility := int32(len(pc.moves))

	var v int32
	switch {
	case tpl.IsGoal(sq):
		v = pc.w.Goal
		if !b.Displaceable(i) {
			v += pc.w.GoalSecure
		}
	case tpl.EdgeAdjacent(sq):
		v = pc.w.EdgeAdjacent
		if b.IsAnchored(i) && mobility == 0 {
			v = pc.w.EdgeTrapped
		}
	default:
		v = pc.w.Base
	}
	return v + pc.w.Mobility*mobility + pc.w.Support*int32(b.Allies(i))
}
