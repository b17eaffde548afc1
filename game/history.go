package game

import (
	"fmt"

	"github.com/ben-axnick/PFCloneLogic/board"
)

type RecordKind uint8

const (
	RecordPlace RecordKind = iota
	RecordMove
	RecordPush
	RecordSkip
)

// Record is one accepted action of the game.
type Record struct {
	Round  int
	Player board.Player
	Kind   RecordKind
	Piece  board.PieceKind
	From   board.Coords
	To     board.Coords
	// Phase is the phase the action was taken in; it tells a skipped
	// movement from a forfeit.
	Phase Phase
}

func (r Record) String() string {
	prefix := fmt.Sprintf("%d %s", r.Round, r.Player)
	switch r.Kind {
	case RecordPlace:
		return fmt.Sprintf("%s place %s %s", prefix, r.Piece, r.To)
	case RecordMove:
		return fmt.Sprintf("%s move %s %s", prefix, r.From, r.To)
	case RecordPush:
		return fmt.Sprintf("%s push %s %s", prefix, r.From, r.To)
	}
	return fmt.Sprintf("%s skip %s", prefix, r.Phase)
}

// History returns the accepted actions so far.
func (g *Game) History() []Record {
	return append([]Record(nil), g.history...)
}
