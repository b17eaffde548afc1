package automatic

// Engine-versus-engine play, for tuning and regression checks.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/stats"
	"github.com/ben-axnick/PFCloneLogic/store"
	"github.com/ben-axnick/PFCloneLogic/transposition"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

const logHeader = "gameID,starter,winner,rounds,turns,msPerTurn\n"

// Options for a self-play run.
type Options struct {
	NumGames int
	// Parallel games; each one gets its own engine and search threads.
	Threads    int
	MaxRounds  int
	OutputFile string
	// Progress is where to draw a progress bar; nil draws none.
	Progress io.Writer
}

// Results of a self-play run.
type Results struct {
	Tally     stats.Tally
	PlanTimes stats.Running
	// TurnMillis holds the mean planning time of every game.
	TurnMillis []float64
}

// Report writes the win rates and a histogram of planning times.
func (res *Results) Report(w io.Writer, confidence float64) error {
	if _, err := io.WriteString(w, res.Tally.Summary(confidence)); err != nil {
		return err
	}
	if res.PlanTimes.N() == 0 {
		return nil
	}
	fmt.Fprintf(w, "planning: mean %.1f ms, stdev %.1f ms over %d turns\n",
		res.PlanTimes.Mean(), res.PlanTimes.Stdev(), res.PlanTimes.N())
	if len(res.TurnMillis) < 2 {
		return nil
	}
	fmt.Fprintln(w, "mean ms per turn, by game:")
	return histogram.Fprint(w, histogram.Hist(10, res.TurnMillis), histogram.Linear(40))
}

// PlayCompVComp plays opts.NumGames games and blocks until they are done
// or ctx is cancelled. Starters are picked at random.
func PlayCompVComp(ctx context.Context, cfg *config.Config, opts Options) (*Results, error) {
	if IsPlaying.Value() > 0 {
		return nil, ErrAlreadyPlaying
	}
	threads := max(1, opts.Threads)
	log.Debug().Msgf("Starting %v games, %v threads", opts.NumGames, threads)

	st := store.Open(cfg)
	if st != nil {
		defer st.Close()
	}
	tt := transposition.New(st, cfg.GetDuration(config.ConfigScoreStoreTimeout))
	defer tt.LogStats()

	var logfile *os.File
	if opts.OutputFile != "" {
		var err error
		logfile, err = os.Create(opts.OutputFile)
		if err != nil {
			return nil, err
		}
		defer logfile.Close()
		if _, err := logfile.WriteString(logHeader); err != nil {
			return nil, err
		}
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(opts.NumGames,
			progressbar.OptionSetDescription("self-play"),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
		)
		defer bar.Close()
	}

	CVCCounter.Set(0)
	res := &Results{}
	jobs := make(chan board.Player, threads)
	results := make(chan GameResult, threads)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < opts.NumGames; i++ {
			starter := board.Player(frand.Intn(2))
			select {
			case jobs <- starter:
			case <-gctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				return nil
			}
		}
		return nil
	})

	var (
		wg     sync.WaitGroup
		timesM sync.Mutex
	)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			r, err := NewGameRunner(cfg, tt, opts.MaxRounds)
			if err != nil {
				return err
			}
			defer r.Close()
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			defer func() {
				timesM.Lock()
				res.PlanTimes.Merge(r.PlanTimes())
				timesM.Unlock()
			}()
			for starter := range jobs {
				gr, err := r.PlayGame(gctx, starter)
				if err != nil {
					return err
				}
				results <- gr
				CVCCounter.Add(1)
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var writeErr error
	for gr := range results {
		res.Tally.Record(gr.Winner, gr.Starter, gr.Rounds)
		if gr.PlanTime > 0 {
			res.TurnMillis = append(res.TurnMillis, float64(gr.PlanTime.Microseconds())/1000)
		}
		if logfile != nil && writeErr == nil {
			_, writeErr = logfile.WriteString(gr.csvLine())
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	log.Info().Int("games", res.Tally.Games()).Msg("All games finished.")
	return res, writeErr
}
