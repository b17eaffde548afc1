package turnplayer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/game"
)

var (
	ErrMidTurn     = errors.New("bot must act at the start of its turn")
	ErrGameEnded   = errors.New("game is over")
	ErrPlanRefused = errors.New("game refused a planned action")
)

type placement struct {
	kind board.PieceKind
	at   board.Coords
}

// formation is the opening set-up for P2 on the standard board. P1 uses
// it rotated half a turn.
var formation = []placement{
	{board.RoundPiece, board.Coords{X: 5, Y: 2}},
	{board.RoundPiece, board.Coords{X: 5, Y: 3}},
	{board.SquarePiece, board.Coords{X: 5, Y: 1}},
	{board.SquarePiece, board.Coords{X: 5, Y: 4}},
	{board.SquarePiece, board.Coords{X: 6, Y: 3}},
}

// BotPlayer plays one side of a game with a Planner.
type BotPlayer struct {
	side    board.Player
	planner *Planner
	cancel  atomic.Bool
}

func NewBotPlayer(side board.Player, planner *Planner) *BotPlayer {
	return &BotPlayer{side: side, planner: planner}
}

func (bp *BotPlayer) Side() board.Player { return bp.side }

// Interrupt makes a plan in progress, or the next one if none is running,
// return early. The flag is cleared when that plan finishes.
func (bp *BotPlayer) Interrupt() { bp.cancel.Store(true) }

// PlanTurn plans the bot's whole turn without playing it.
func (bp *BotPlayer) PlanTurn(ctx context.Context, g Controls) (*Plan, error) {
	bp.checkTurn(g)
	switch g.Phase() {
	case game.PhaseEnded:
		return nil, ErrGameEnded
	case game.PhaseMovement:
	default:
		return nil, fmt.Errorf("%w: phase %s", ErrMidTurn, g.Phase())
	}
	defer bp.cancel.Store(false)
	return bp.planner.Plan(ctx, g.Board(), bp.side, &bp.cancel)
}

// Act plays the bot's turn: the placement of its pieces in round 0, a
// planned turn afterwards.
func (bp *BotPlayer) Act(ctx context.Context, g Controls) (*Plan, error) {
	bp.checkTurn(g)
	if g.Phase() == game.PhasePlacement {
		return nil, bp.place(g)
	}
	plan, err := bp.PlanTurn(ctx, g)
	if err != nil {
		return nil, err
	}
	for a, ok := plan.Next(); ok; a, ok = plan.Next() {
		if !Enact(g, a) {
			return plan, fmt.Errorf("%w: %s", ErrPlanRefused, a)
		}
	}
	return plan, nil
}

func (bp *BotPlayer) checkTurn(g Controls) {
	if g.Phase() != game.PhaseEnded && g.TurnPlayer() != bp.side {
		panic(fmt.Sprintf("turnplayer: %s bot asked to act on %s's turn", bp.side, g.TurnPlayer()))
	}
}

// place sets out the formation, falling back to the free home squares
// nearest the middle of the board wherever the template has no room for
// it.
func (bp *BotPlayer) place(g Controls) error {
	tpl := g.Board().Template()
	for _, p := range formation {
		if g.Phase() != game.PhasePlacement || g.TurnPlayer() != bp.side {
			return nil
		}
		at := p.at
		if bp.side == board.P1 {
			at = board.Coords{X: tpl.Width() - 1 - at.X, Y: tpl.Height() - 1 - at.Y}
		}
		if g.Place(p.kind, at) {
			continue
		}
		if !bp.placeAnywhere(g, p.kind) {
			return fmt.Errorf("turnplayer: no room to place %s for %s", p.kind, bp.side)
		}
	}
	return nil
}

func (bp *BotPlayer) placeAnywhere(g Controls, kind board.PieceKind) bool {
	b := g.Board()
	tpl := b.Template()
	free := lo.Filter(lo.Range(tpl.NumSquares()), func(sq int, _ int) bool {
		return tpl.Kind(sq) == board.Normal && tpl.Territory(sq) == bp.side && b.PieceOn(sq) < 0
	})
	mid := float64(tpl.Width()-1) / 2
	sort.SliceStable(free, func(i, j int) bool {
		return distance(tpl.Coords(free[i]).X, mid) < distance(tpl.Coords(free[j]).X, mid)
	})
	for _, sq := range free {
		if g.Place(kind, tpl.Coords(sq)) {
			log.Debug().Str("side", bp.side.String()).Str("at", tpl.Coords(sq).String()).
				Msg("fallback-placement")
			return true
		}
	}
	return false
}

func distance(x int, mid float64) float64 {
	d := float64(x) - mid
	if d < 0 {
		return -d
	}
	return d
}
