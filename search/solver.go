// Package search picks a turn for one side with a shallow minimax over
// whole turns. The root candidates are spread over a pool of workers;
// everything below a root candidate runs sequentially in its worker.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/ben-axnick/PFCloneLogic/arena"
	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/equity"
	"github.com/ben-axnick/PFCloneLogic/transposition"
)

var (
	ErrUnderProvisioned = errors.New("arena capacity is below what the search can need")
	ErrGameOver         = errors.New("game is already decided")
	ErrWrongTemplate    = errors.New("board does not use the arena's layout")
)

// How many ranked candidates go to the log stream.
const logTopN = 32

// Solver is not safe for concurrent Solve calls; give each caller its own.
type Solver struct {
	arena   *arena.Arena
	tt      *transposition.Cache
	weights equity.Weights
	params  Params

	rootGen  *turnGen
	rootEval *equity.PositionalCalculator
	workers  []*worker

	nodes     atomic.Uint64
	logStream io.Writer

	side   board.Player
	cancel *atomic.Bool
	chains []ActionChain
}

// NewSolver checks that the arena can hold every board the search may need
// at once. tt may be nil, in which case nothing is cached.
func NewSolver(a *arena.Arena, tt *transposition.Cache, w equity.Weights, p Params) (*Solver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if need := RequiredBoards(p.Threads, p.HardPly); a.Capacity() < need {
		return nil, fmt.Errorf("%w: have %d boards, need %d", ErrUnderProvisioned, a.Capacity(), need)
	}
	if tt == nil {
		tt = transposition.New(nil, 0)
	}
	s := &Solver{
		arena:    a,
		tt:       tt,
		weights:  w,
		params:   p,
		rootGen:  newTurnGen(a),
		rootEval: equity.NewPositionalCalculator(w),
	}
	for t := 0; t < p.Threads; t++ {
		s.workers = append(s.workers, newWorker(s))
	}
	return s, nil
}

func (s *Solver) Params() Params                     { return s.params }
func (s *Solver) Cache() *transposition.Cache        { return s.tt }
func (s *Solver) Arena() *arena.Arena                { return s.arena }
func (s *Solver) SetLogStream(l io.Writer)           { s.logStream = l }
func (s *Solver) Nodes() uint64                      { return s.nodes.Load() }
func (s *Solver) Candidates() []ActionChain          { return s.chains }
func (s *Solver) SetTimeBudget(budget time.Duration) { s.params.TimeBudget = budget }

// RootChains enumerates the turns side can take on root, each with its
// static estimate, best estimate first.
func (s *Solver) RootChains(root *board.Board, side board.Player) []ActionChain {
	base := s.arena.Clone(root)
	defer s.arena.Release(base)
	chains := s.chains[:0]
	s.rootGen.forEachTurn(base, side, func(child *board.Board, c *ActionChain) {
		chain := *c
		chain.Estimate = s.rootEval.Evaluate(child, side)
		chains = append(chains, chain)
	})
	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].Estimate > chains[j].Estimate
	})
	s.chains = chains
	return chains
}

type batch struct{ lo, hi int }

// workerPanic carries a panic out of a worker goroutine so that it can be
// raised again on the caller's goroutine.
type workerPanic struct{ val any }

func (p *workerPanic) Error() string { return fmt.Sprintf("search worker panicked: %v", p.val) }

// Solve returns the best turn for side on root. Setting cancel, or running
// out of ctx or of the time budget, makes every unexpanded node score
// pessimistically; Solve still returns a complete turn. cancel may be nil.
func (s *Solver) Solve(ctx context.Context, root *board.Board, side board.Player, cancel *atomic.Bool) (*ActionChain, error) {
	if root.Template() != s.arena.Template() {
		return nil, ErrWrongTemplate
	}
	if root.Winner() != board.NoPlayer {
		return nil, ErrGameOver
	}
	if cancel == nil {
		cancel = &atomic.Bool{}
	}
	tstart := time.Now()
	s.side = side
	s.cancel = cancel
	s.nodes.Store(0)

	if s.params.TimeBudget > 0 {
		var cancelCtx context.CancelFunc
		ctx, cancelCtx = context.WithTimeout(ctx, s.params.TimeBudget)
		defer cancelCtx()
	}
	if ctx.Err() != nil {
		cancel.Store(true)
	}

	chains := s.RootChains(root, side)
	log.Debug().Int("candidates", len(chains)).Str("side", side.String()).
		Msg("root-candidates")

	base := s.arena.Clone(root)
	defer s.arena.Release(base)

	done := make(chan struct{})
	aux := errgroup.Group{}
	aux.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})
	aux.Go(func() error {
		select {
		case <-done:
		case <-ctx.Done():
			log.Debug().Msg("search-cancelled")
			cancel.Store(true)
		}
		return nil
	})

	g := errgroup.Group{}
	jobChan := make(chan batch, len(s.workers)*2)
	for _, w := range s.workers {
		w := w
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &workerPanic{val: r}
					// Keep draining so the dispatcher never blocks.
					for range jobChan {
					}
				}
			}()
			for j := range jobChan {
				for k := j.lo; k < j.hi; k++ {
					chains[k].Score = w.scoreRoot(base, &chains[k])
				}
			}
			return nil
		})
	}
	for from := 0; from < len(chains); from += s.params.BatchSize {
		jobChan <- batch{lo: from, hi: min(from+s.params.BatchSize, len(chains))}
	}
	close(jobChan)
	err := g.Wait()
	close(done)
	_ = aux.Wait()

	var wp *workerPanic
	if errors.As(err, &wp) {
		panic(wp.val)
	}

	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].Score > chains[j].Score
	})
	top := chains[0].Score
	ties := lo.CountBy(chains, func(c ActionChain) bool { return c.Score == top })
	best := chains[frand.Intn(ties)]

	stats := s.tt.Stats()
	log.Info().
		Str("side", side.String()).
		Int("candidates", len(chains)).
		Int("ties", ties).
		Int32("score", best.Score).
		Str("best", best.Describe(s.arena.Template())).
		Uint64("nodes", s.nodes.Load()).
		Bool("cancelled", cancel.Load()).
		Uint64("ttable-lookups", stats.Lookups).
		Uint64("ttable-hits", stats.Hits).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")

	if s.logStream != nil {
		if err := s.dumpCandidates(side); err != nil {
			log.Err(err).Msg("search-log-write-failed")
		}
	}
	return &best, nil
}

type candidateLog struct {
	Rank     int    `yaml:"rank"`
	Actions  string `yaml:"actions"`
	Estimate int32  `yaml:"estimate"`
	Score    int32  `yaml:"score"`
}

type solveLog struct {
	Side       string         `yaml:"side"`
	Nodes      uint64         `yaml:"nodes"`
	Candidates []candidateLog `yaml:"candidates"`
}

func (s *Solver) dumpCandidates(side board.Player) error {
	tpl := s.arena.Template()
	entry := solveLog{Side: side.String(), Nodes: s.nodes.Load()}
	for i, c := range s.chains[:min(logTopN, len(s.chains))] {
		entry.Candidates = append(entry.Candidates, candidateLog{
			Rank: i + 1, Actions: c.Describe(tpl), Estimate: c.Estimate, Score: c.Score,
		})
	}
	out, err := yaml.Marshal([]solveLog{entry})
	if err != nil {
		return err
	}
	_, err = s.logStream.Write(out)
	return err
}
