// Package turnplayer turns search results into play: it plans a whole turn
// for one side and feeds the actions to a game one at a time.
package turnplayer

import (
	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/game"
)

// Controls is what a player can do to a game in progress. *game.Game
// implements it.
type Controls interface {
	Place(kind board.PieceKind, c board.Coords) bool
	Move(from, to board.Coords) bool
	Push(from, to board.Coords) bool
	Skip()
	Phase() game.Phase
	TurnPlayer() board.Player
	ValidMoves(c board.Coords) []board.Coords
	ValidPushes(c board.Coords) []board.Coords
	Board() *board.Board
	Winner() board.Player
}

var _ Controls = (*game.Game)(nil)
