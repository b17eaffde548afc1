package game

import "errors"

// Fundamental rules of Push Fight.
const (
	MaxRoundPieces  = 2
	MaxSquarePieces = 3
	MovesPerTurn    = 2
	PushesPerTurn   = 1
)

// Phase is the stage of the current turn.
type Phase uint8

const (
	PhasePlacement Phase = iota
	PhaseMovement
	PhasePushing
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhasePlacement:
		return "Placement"
	case PhaseMovement:
		return "Movement"
	case PhasePushing:
		return "Pushing"
	}
	return "Ended"
}

// PiecesPerSide is how many pieces each side places in round 0.
func PiecesPerSide() int { return MaxRoundPieces + MaxSquarePieces }

var (
	ErrWrongPhase   = errors.New("action not allowed in this phase")
	ErrPieceLimit   = errors.New("no more pieces of that kind to place")
	ErrNotYourPiece = errors.New("no piece of the turn player there")
)
