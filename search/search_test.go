package search

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ben-axnick/PFCloneLogic/arena"
	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/equity"
	"github.com/ben-axnick/PFCloneLogic/store"
	"github.com/ben-axnick/PFCloneLogic/transposition"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var (
	standard = board.MustTemplate(board.LayoutStandard, board.StandardLayout)
	compact  = board.MustTemplate(board.LayoutCompact, board.CompactLayout)
)

var opening = []string{
	`__=====_`,
	`__#r###_`,
	`###rR###`,
	`###sS###`,
	`_###R#__`,
	`_=====__`,
}

// P1 wins by walking to [3,1] and pushing the square on [4,1] off the
// right edge.
var winInOne = []string{
	`_====_`,
	`_###S_`,
	`##sR##`,
	`_####_`,
	`_====_`,
}

var testParams = Params{SoftPly: 1, HardPly: 2, Threads: 2, BatchSize: 4}

func newSolver(t *testing.T, tpl *board.Template, p Params, tt *transposition.Cache) *Solver {
	is := is.New(t)
	a, err := arena.New(tpl, RequiredBoards(p.Threads, p.HardPly))
	is.NoErr(err)
	s, err := NewSolver(a, tt, equity.DefaultWeights, p)
	is.NoErr(err)
	return s
}

func parse(t *testing.T, tpl *board.Template, rows []string) *board.Board {
	b, err := board.ParseDiagram(tpl, rows)
	is.New(t).NoErr(err)
	return b
}

func TestTurnShapes(t *testing.T) {
	is := is.New(t)
	s := newSolver(t, standard, testParams, nil)
	b := parse(t, standard, opening)
	chains := s.RootChains(b, board.P1)
	is.True(len(chains) > 100)

	skipFirst := 0
	for _, c := range chains {
		is.True(c.Len >= 2 && c.Len <= 3)
		last := c.Push()
		is.True(last.Kind == ActionPush || last.Kind == ActionSkip)
		if c.Actions[0].Kind == ActionSkip {
			is.Equal(c.Len, 2)
			skipFirst++
		}
		if c.Len == 3 && c.Actions[1].Kind == ActionMove {
			// never the same piece twice
			is.True(c.Actions[1].From != c.Actions[0].To)
		}
	}
	// the square on [3,3] has one push; plus the forfeiting skip
	is.Equal(skipFirst, 2)
	is.Equal(s.Arena().Live(), 0)
}

var railedLayout = []string{
	`========`,
	`#_####_#`,
	`#_####_#`,
	`#_####_#`,
	`#_####_#`,
	`========`,
}

func TestDominatedMovesArePruned(t *testing.T) {
	railed := board.MustTemplate("railed", railedLayout)
	cases := []struct {
		name    string
		tpl     *board.Template
		diagram []string
		round   board.Coords
		edgeAdj board.Coords
	}{
		{
			name:    "standard",
			tpl:     standard,
			diagram: opening,
			round:   board.Coords{X: 3, Y: 1},
			edgeAdj: board.Coords{X: 2, Y: 1},
		},
		{
			name: "railed",
			tpl:  railed,
			diagram: []string{
				`========`,
				`#_####_#`,
				`#_#r#R_#`,
				`#_#s#S_#`,
				`#_####_#`,
				`========`,
			},
			round:   board.Coords{X: 3, Y: 2},
			edgeAdj: board.Coords{X: 2, Y: 2},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			s := newSolver(t, tc.tpl, testParams, nil)
			b := parse(t, tc.tpl, tc.diagram)

			// raw reachability still offers a square next to an edge
			r, ok := b.PieceAt(tc.round)
			is.True(ok)
			is.Equal(b.Piece(r).Kind, board.RoundPiece)
			to, _ := tc.tpl.Index(tc.edgeAdj)
			is.True(tc.tpl.EdgeAdjacent(to))
			is.True(lo.Contains(b.CheckMoves(r, nil), to))

			chains := s.RootChains(b, board.P1)
			is.True(len(chains) > 0)
			for _, c := range chains {
				for _, a := range c.Slice() {
					if a.Kind != ActionMove {
						continue
					}
					p := b.Piece(b.PieceOn(a.From))
					if p.Kind == board.RoundPiece {
						is.True(!tc.tpl.EdgeAdjacent(a.To))
					}
				}
			}
			is.Equal(s.Arena().Live(), 0)
		})
	}
}

func TestSolveFindsImmediateWin(t *testing.T) {
	is := is.New(t)
	tt := transposition.New(store.NewMemoryStore(), 0)
	s := newSolver(t, compact, testParams, tt)
	b := parse(t, compact, winInOne)

	best, err := s.Solve(context.Background(), b, board.P1, nil)
	is.NoErr(err)
	is.Equal(best.Score, equity.WinScore)
	is.Equal(best.Describe(compact), "move [2,2] [3,1]; skip; push [3,1] [4,1]")
	is.True(s.Nodes() > 0)
	is.Equal(s.Arena().Live(), 0)
	is.True(s.Arena().Peak() <= RequiredBoards(testParams.Threads, testParams.HardPly))

	played := board.New(compact)
	played.CopyFrom(b)
	is.NoErr(best.Apply(played, board.P1))
	is.Equal(played.Winner(), board.P1)

	// pushing the round on [3,2] leaves the square next to the edge, so
	// that candidate is searched one ply deeper and cached
	is.True(tt.Stats().Writes > 0)
	_, err = s.Solve(context.Background(), b, board.P1, nil)
	is.NoErr(err)
	is.True(tt.Stats().Hits > 0)
}

func TestPreCancelledSolve(t *testing.T) {
	is := is.New(t)
	tt := transposition.New(store.NewMemoryStore(), 0)
	s := newSolver(t, compact, testParams, tt)
	b := parse(t, compact, winInOne)

	cancel := &atomic.Bool{}
	cancel.Store(true)
	best, err := s.Solve(context.Background(), b, board.P1, cancel)
	is.NoErr(err)
	is.True(best != nil)
	is.True(best.Len <= 3)
	// decided positions are still recognised
	is.Equal(best.Score, equity.WinScore)
	is.True(lo.ContainsBy(s.Candidates(), func(c ActionChain) bool {
		return c.Score == CancelledLoss
	}))
	is.Equal(tt.Stats().Writes, uint64(0))
}

func TestPreCancelledSolveOnFullBoard(t *testing.T) {
	is := is.New(t)
	s := newSolver(t, standard, testParams, nil)
	b := parse(t, standard, opening)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := s.Solve(ctx, b, board.P2, nil)
	is.NoErr(err)
	is.True(best.Len <= 3)
	// quiet candidates keep their static score
	is.True(best.Score > CancelledLoss)
	is.True(best.Score < CancelledWin)
}

func TestOpponentPicksItsBestReply(t *testing.T) {
	is := is.New(t)
	s := newSolver(t, compact, testParams, nil)
	// P2 to move can push the round on [1,1] onto the edge
	b := parse(t, compact, []string{
		`_====_`,
		`_rS##_`,
		`######`,
		`_#s#R_`,
		`_====_`,
	})
	s.side = board.P1
	s.cancel = &atomic.Bool{}
	w := s.workers[0]
	is.Equal(w.minimax(b, 1, board.P2), equity.LossScore)
}

func TestSolveRejectsDecidedGames(t *testing.T) {
	is := is.New(t)
	s := newSolver(t, compact, testParams, nil)
	b := parse(t, compact, winInOne)
	b.Forfeit(board.P2)
	_, err := s.Solve(context.Background(), b, board.P1, nil)
	is.True(errors.Is(err, ErrGameOver))

	other := parse(t, standard, opening)
	_, err = s.Solve(context.Background(), other, board.P1, nil)
	is.True(errors.Is(err, ErrWrongTemplate))
}

func TestUnderProvisionedArena(t *testing.T) {
	is := is.New(t)
	a, err := arena.New(compact, 4)
	is.NoErr(err)
	_, err = NewSolver(a, nil, equity.DefaultWeights, testParams)
	is.True(errors.Is(err, ErrUnderProvisioned))

	_, err = NewSolver(a, nil, equity.DefaultWeights, Params{SoftPly: 2, HardPly: 1, Threads: 1, BatchSize: 1})
	is.True(errors.Is(err, ErrBadParams))
}

func TestParamsFromConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSearchThreads, 3)
	p := ParamsFromConfig(cfg)
	is.Equal(p.SoftPly, 1)
	is.Equal(p.HardPly, 2)
	is.Equal(p.Threads, 3)
	is.NoErr(p.Validate())
	is.Equal(RequiredBoards(3, 2), 1+3+3*4)
}

func TestCandidateLog(t *testing.T) {
	is := is.New(t)
	s := newSolver(t, compact, testParams, nil)
	var buf bytes.Buffer
	s.SetLogStream(&buf)
	_, err := s.Solve(context.Background(), parse(t, compact, winInOne), board.P1, nil)
	is.NoErr(err)

	var logged []solveLog
	is.NoErr(yaml.Unmarshal(buf.Bytes(), &logged))
	is.Equal(len(logged), 1)
	is.Equal(logged[0].Side, "P1")
	is.Equal(logged[0].Candidates[0].Rank, 1)
	is.Equal(logged[0].Candidates[0].Score, equity.WinScore)
}
