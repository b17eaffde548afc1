package game

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/event"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var tpl = board.MustTemplate(board.LayoutStandard, board.StandardLayout)

type placement struct {
	kind board.PieceKind
	at   board.Coords
}

var (
	p1Formation = []placement{
		{board.RoundPiece, board.Coords{X: 2, Y: 3}},
		{board.RoundPiece, board.Coords{X: 2, Y: 2}},
		{board.SquarePiece, board.Coords{X: 2, Y: 4}},
		{board.SquarePiece, board.Coords{X: 2, Y: 1}},
		{board.SquarePiece, board.Coords{X: 1, Y: 2}},
	}
	p2Formation = []placement{
		{board.RoundPiece, board.Coords{X: 5, Y: 2}},
		{board.RoundPiece, board.Coords{X: 5, Y: 3}},
		{board.SquarePiece, board.Coords{X: 5, Y: 1}},
		{board.SquarePiece, board.Coords{X: 5, Y: 4}},
		{board.SquarePiece, board.Coords{X: 6, Y: 3}},
	}
)

func c(x, y int) board.Coords { return board.Coords{X: x, Y: y} }

func placedGame(t *testing.T) (*Game, *event.Recorder) {
	bus := event.NewBus()
	rec := event.NewRecorder()
	bus.Subscribe(event.TopicAll, rec.Handle)
	g := NewGame(tpl, bus)
	g.Start(board.P1)
	for _, p := range p1Formation {
		require.True(t, g.Place(p.kind, p.at))
	}
	for _, p := range p2Formation {
		require.True(t, g.Place(p.kind, p.at))
	}
	return g, rec
}

func TestPlacementRound(t *testing.T) {
	bus := event.NewBus()
	rec := event.NewRecorder()
	bus.Subscribe(event.TopicAll, rec.Handle)
	g := NewGame(tpl, bus)
	g.Start(board.P1)
	assert.NotEmpty(t, g.Uid())
	assert.Equal(t, PhasePlacement, g.Phase())
	assert.Equal(t, board.P1, g.TurnPlayer())

	assert.False(t, g.Place(board.RoundPiece, c(5, 2)), "enemy territory")
	assert.False(t, g.Place(board.RoundPiece, c(0, 0)), "edge square")
	assert.True(t, g.Place(board.RoundPiece, c(2, 3)))
	assert.True(t, g.Place(board.RoundPiece, c(2, 2)))
	assert.False(t, g.Place(board.RoundPiece, c(3, 2)), "third round piece")
	assert.False(t, g.Place(board.SquarePiece, c(2, 2)), "occupied")
	assert.False(t, g.Move(c(2, 2), c(3, 2)), "no moves while placing")

	for _, p := range p1Formation[2:] {
		require.True(t, g.Place(p.kind, p.at))
	}
	assert.Equal(t, board.P2, g.TurnPlayer())
	assert.Equal(t, PhasePlacement, g.Phase())
	assert.Equal(t, 0, g.Round())

	for _, p := range p2Formation {
		require.True(t, g.Place(p.kind, p.at))
	}
	assert.Equal(t, board.P1, g.TurnPlayer())
	assert.Equal(t, PhaseMovement, g.Phase())
	assert.Equal(t, 1, g.Round())
	assert.Equal(t, 10, g.Board().NumPieces())

	topics := rec.Topics()
	assert.Equal(t, []event.Topic{
		event.TopicGameBegin, event.TopicTurnPhase, event.TopicTurnBegin,
		event.TopicPiecePlaced, event.TopicPiecePlaced,
	}, topics[:5])
	assert.Equal(t, 10, countTopic(topics, event.TopicPiecePlaced))
	assert.Len(t, g.History(), 10)
}

func countTopic(topics []event.Topic, want event.Topic) int {
	n := 0
	for _, t := range topics {
		if t == want {
			n++
		}
	}
	return n
}

func TestMovementThenPush(t *testing.T) {
	g, rec := placedGame(t)
	rec.Reset()

	assert.False(t, g.Move(c(5, 1), c(4, 1)), "not P1's piece")
	assert.False(t, g.Push(c(2, 1), c(3, 1)), "pushing during movement")
	assert.Empty(t, g.ValidMoves(c(5, 1)))
	assert.Contains(t, g.ValidMoves(c(2, 1)), c(4, 1))

	require.True(t, g.Move(c(2, 1), c(4, 1)))
	assert.Equal(t, 1, g.MovesLeft())
	require.True(t, g.Move(c(2, 4), c(3, 4)))
	assert.Equal(t, PhasePushing, g.Phase())
	assert.Equal(t, []board.Coords{c(5, 1)}, g.ValidPushes(c(4, 1)))

	require.True(t, g.Push(c(4, 1), c(5, 1)))
	assert.Equal(t, board.P2, g.TurnPlayer())
	assert.Equal(t, PhaseMovement, g.Phase())
	assert.Equal(t, 1, g.Round())
	a, ok := g.Board().Anchor()
	require.True(t, ok)
	assert.Equal(t, c(5, 1), g.Board().Coords(a))

	i, ok := g.Board().PieceAt(c(6, 1))
	require.True(t, ok)
	assert.Equal(t, board.P2, g.Board().Piece(i).Owner)
	assert.Equal(t, 2, countTopic(rec.Topics(), event.TopicPiecePushed))
	assert.Equal(t, "1 P1 push [4,1] [5,1]", g.History()[len(g.History())-1].String())

	// P2 skips its moves and shoves its own round; the round advances
	g.Skip()
	assert.Equal(t, PhasePushing, g.Phase())
	require.True(t, g.Push(c(6, 3), c(5, 3)))
	assert.Equal(t, board.P1, g.TurnPlayer())
	assert.Equal(t, 2, g.Round())
}

func TestPushOffTheEdgeWins(t *testing.T) {
	g, rec := placedGame(t)
	require.True(t, g.Move(c(2, 4), c(4, 4)))
	g.Skip()
	require.True(t, g.Push(c(4, 4), c(5, 4)))
	assert.Equal(t, board.P1, g.Winner())
	assert.False(t, g.Playing())
	assert.Equal(t, PhaseEnded, g.Phase())
	evts := rec.Events()
	last := evts[len(evts)-1]
	assert.Equal(t, event.TopicGameOver, last.Topic)
	assert.Equal(t, board.P1, last.Player)
	assert.False(t, g.Move(c(2, 2), c(3, 2)))
}

func TestSkippingThePushForfeits(t *testing.T) {
	g, rec := placedGame(t)
	g.Skip()
	assert.Equal(t, PhasePushing, g.Phase())
	g.Skip()
	assert.Equal(t, board.P2, g.Winner())
	assert.Equal(t, PhaseEnded, g.Phase())
	evts := rec.Events()
	assert.Equal(t, event.TopicGameOver, evts[len(evts)-1].Topic)
	assert.Equal(t, "1 P1 skip Pushing", g.History()[len(g.History())-1].String())

	// nothing happens once the game is over
	g.Skip()
	assert.Equal(t, PhaseEnded, g.Phase())
}

func TestStartFromPosition(t *testing.T) {
	b, err := board.ParseDiagram(tpl, []string{
		`__=====_`,
		`__#r###_`,
		`###rR###`,
		`###sS###`,
		`_###R#__`,
		`_=====__`,
	})
	require.NoError(t, err)
	g := NewGame(tpl, nil)
	g.StartFrom(b, board.P2)
	assert.Equal(t, board.P2, g.TurnPlayer())
	assert.Equal(t, PhaseMovement, g.Phase())
	assert.Equal(t, b.Diagram(), g.Board().Diagram())
	assert.Contains(t, g.ToDisplayText(false), "P2 to play (Movement)")
}
