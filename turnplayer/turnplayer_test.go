package turnplayer

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/ben-axnick/PFCloneLogic/arena"
	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/equity"
	"github.com/ben-axnick/PFCloneLogic/event"
	"github.com/ben-axnick/PFCloneLogic/game"
	"github.com/ben-axnick/PFCloneLogic/search"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var (
	standard = board.MustTemplate(board.LayoutStandard, board.StandardLayout)
	compact  = board.MustTemplate(board.LayoutCompact, board.CompactLayout)
)

var winInOne = []string{
	`_====_`,
	`_###S_`,
	`##sR##`,
	`_####_`,
	`_====_`,
}

func newPlanner(t *testing.T, tpl *board.Template, bus *event.Bus) *Planner {
	is := is.New(t)
	p := search.Params{SoftPly: 1, HardPly: 2, Threads: 2, BatchSize: 4}
	a, err := arena.New(tpl, search.RequiredBoards(p.Threads, p.HardPly))
	is.NoErr(err)
	s, err := search.NewSolver(a, nil, equity.DefaultWeights, p)
	is.NoErr(err)
	return NewPlanner(s, bus)
}

func TestPlanIsPulledInOrder(t *testing.T) {
	is := is.New(t)
	bus := event.NewBus()
	planner := newPlanner(t, compact, bus)
	b, err := board.ParseDiagram(compact, winInOne)
	is.NoErr(err)

	plan, err := planner.Plan(context.Background(), b, board.P1, nil)
	is.NoErr(err)
	is.Equal(plan.Score, equity.WinScore)
	is.True(plan.Nodes > 0)
	is.Equal(plan.Remaining(), 3)
	is.True(!bus.Suppressed())
	is.Equal(planner.Solver().Arena().Live(), 0)

	var got []string
	for a, ok := plan.Next(); ok; a, ok = plan.Next() {
		got = append(got, a.String())
	}
	is.Equal(got, []string{"move [2,2] [3,1]", "skip", "push [3,1] [4,1]"})
	_, ok := plan.Next()
	is.True(!ok)
	is.Equal(len(plan.Actions()), 3)
}

func TestPlanRejectsFinishedGames(t *testing.T) {
	is := is.New(t)
	bus := event.NewBus()
	planner := newPlanner(t, compact, bus)
	b, err := board.ParseDiagram(compact, winInOne)
	is.NoErr(err)
	b.Forfeit(board.P2)

	_, err = planner.Plan(context.Background(), b, board.P1, nil)
	is.True(errors.Is(err, search.ErrGameOver))
	is.True(!bus.Suppressed())
	is.Equal(planner.Solver().Arena().Live(), 0)
}

func TestBotPlaysWinningTurn(t *testing.T) {
	is := is.New(t)
	bus := event.NewBus()
	rec := event.NewRecorder()
	bus.Subscribe(event.TopicAll, rec.Handle)
	b, err := board.ParseDiagram(compact, winInOne)
	is.NoErr(err)
	g := game.NewGame(compact, bus)
	g.StartFrom(b, board.P1)
	rec.Reset()

	bot := NewBotPlayer(board.P1, newPlanner(t, compact, bus))
	plan, err := bot.Act(context.Background(), g)
	is.NoErr(err)
	is.Equal(plan.Remaining(), 0)
	is.Equal(g.Winner(), board.P1)
	is.Equal(g.Phase(), game.PhaseEnded)

	topics := rec.Topics()
	is.Equal(topics[0], event.TopicPieceMoved)
	is.Equal(topics[len(topics)-1], event.TopicGameOver)
	is.Equal(bus.Dropped(), uint64(0))

	_, err = bot.Act(context.Background(), g)
	is.True(errors.Is(err, ErrGameEnded))
}

func TestBotPanicsOutOfTurn(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseDiagram(compact, winInOne)
	is.NoErr(err)
	g := game.NewGame(compact, nil)
	g.StartFrom(b, board.P1)
	bot := NewBotPlayer(board.P2, newPlanner(t, compact, g.Bus()))

	defer func() {
		is.True(recover() != nil)
	}()
	_, _ = bot.Act(context.Background(), g)
}

func TestBotRefusesMidTurn(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseDiagram(compact, winInOne)
	is.NoErr(err)
	g := game.NewGame(compact, nil)
	g.StartFrom(b, board.P1)
	g.Skip()
	bot := NewBotPlayer(board.P1, newPlanner(t, compact, g.Bus()))
	_, err = bot.Act(context.Background(), g)
	is.True(errors.Is(err, ErrMidTurn))
}

func TestFormationPlacement(t *testing.T) {
	is := is.New(t)
	g := game.NewGame(standard, nil)
	g.Start(board.P1)
	p1 := NewBotPlayer(board.P1, nil)
	p2 := NewBotPlayer(board.P2, nil)

	_, err := p1.Act(context.Background(), g)
	is.NoErr(err)
	is.Equal(g.TurnPlayer(), board.P2)
	_, err = p2.Act(context.Background(), g)
	is.NoErr(err)
	is.Equal(g.Phase(), game.PhaseMovement)
	is.Equal(g.Board().Diagram(), []string{
		`__=====_`,
		`__s##S#_`,
		`#sr##R##`,
		`##r##RS#`,
		`_#s##S__`,
		`_=====__`,
	})
}

func TestFormationFallsBackOnSmallBoards(t *testing.T) {
	is := is.New(t)
	g := game.NewGame(compact, nil)
	g.Start(board.P2)
	_, err := NewBotPlayer(board.P2, nil).Act(context.Background(), g)
	is.NoErr(err)
	_, err = NewBotPlayer(board.P1, nil).Act(context.Background(), g)
	is.NoErr(err)
	is.Equal(g.Phase(), game.PhaseMovement)
	is.Equal(g.Board().NumPieces(), 10)
	for _, p := range g.Board().Pieces() {
		is.Equal(compact.Territory(p.Square), p.Owner)
	}
}

func TestParseAction(t *testing.T) {
	is := is.New(t)
	a, err := ParseAction([]string{"push", "[3,1]", "4,1"})
	is.NoErr(err)
	is.Equal(a.String(), "push [3,1] [4,1]")
	a, err = ParseAction([]string{"skip"})
	is.NoErr(err)
	is.Equal(a.Kind, search.ActionSkip)
	_, err = ParseAction([]string{"jump", "1,1", "2,2"})
	is.True(errors.Is(err, ErrUnrecognizedAction))
	_, err = ParseAction([]string{"move", "1;1", "2,2"})
	is.True(err != nil)
}

func TestPanickingPlanReleasesSuppression(t *testing.T) {
	is := is.New(t)
	bus := event.NewBus()
	rec := event.NewRecorder()
	bus.Subscribe(event.TopicAll, rec.Handle)
	planner := newPlanner(t, compact, bus)
	b, err := board.ParseDiagram(compact, winInOne)
	is.NoErr(err)

	a := planner.Solver().Arena()
	held := make([]*board.Board, 0, a.Capacity())
	for i, n := 0, a.Capacity(); i < n; i++ {
		held = append(held, a.Acquire())
	}
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		planner.Plan(context.Background(), b, board.P1, nil)
	}()
	err, ok := recovered.(error)
	is.True(ok)
	is.True(errors.Is(err, arena.ErrExhausted))
	is.True(!bus.Suppressed())

	bus.Publish(event.Event{Topic: event.TopicTurnBegin, Player: board.P1})
	is.Equal(rec.Topics(), []event.Topic{event.TopicTurnBegin})
	for _, h := range held {
		a.Release(h)
	}
	is.Equal(a.Live(), 0)
}

func cancelledCandidates(p *Planner) bool {
	return lo.ContainsBy(p.Solver().Candidates(), func(c search.ActionChain) bool {
		return c.Score == search.CancelledLoss
	})
}

func TestInterruptBeforePlanningIsKept(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseDiagram(compact, winInOne)
	is.NoErr(err)
	g := game.NewGame(compact, nil)
	g.StartFrom(b, board.P1)
	planner := newPlanner(t, compact, event.NewBus())
	bot := NewBotPlayer(board.P1, planner)

	bot.Interrupt()
	plan, err := bot.PlanTurn(context.Background(), g)
	is.NoErr(err)
	is.Equal(plan.Score, equity.WinScore)
	is.True(cancelledCandidates(planner))
	is.True(!bot.cancel.Load())

	_, err = bot.PlanTurn(context.Background(), g)
	is.NoErr(err)
	is.True(!cancelledCandidates(planner))
}
