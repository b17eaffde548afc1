package turnplayer

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/arena"
	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/equity"
	"github.com/ben-axnick/PFCloneLogic/event"
	"github.com/ben-axnick/PFCloneLogic/search"
	"github.com/ben-axnick/PFCloneLogic/store"
	"github.com/ben-axnick/PFCloneLogic/transposition"
)

// Engine is a planner together with the resources it owns.
type Engine struct {
	*Planner
	store   store.Store
	logFile *os.File
}

// NewEngine builds the arena, score store, cache and solver that cfg
// describes for boards of tpl. Pass a shared cache in tt to let several
// engines learn from each other; a nil tt opens the configured store.
func NewEngine(cfg *config.Config, tpl *board.Template, tt *transposition.Cache, bus *event.Bus) (*Engine, error) {
	e := &Engine{}
	if tt == nil {
		e.store = store.Open(cfg)
		tt = transposition.New(e.store, cfg.GetDuration(config.ConfigScoreStoreTimeout))
	}
	a, err := arena.New(tpl, cfg.GetInt(config.ConfigArenaCapacity))
	if err != nil {
		e.Close()
		return nil, err
	}
	solver, err := search.NewSolver(a, tt, equity.WeightsFromConfig(cfg), search.ParamsFromConfig(cfg))
	if err != nil {
		e.Close()
		return nil, err
	}
	if path := cfg.GetString(config.ConfigSearchLogPath); path != "" {
		e.logFile, err = os.OpenFile(config.DataPath(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("search log: %w", err)
		}
		solver.SetLogStream(e.logFile)
	}
	e.Planner = NewPlanner(solver, bus)
	return e, nil
}

func (e *Engine) Close() {
	if e.logFile != nil {
		if err := e.logFile.Close(); err != nil {
			log.Err(err).Msg("search-log-close-failed")
		}
		e.logFile = nil
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Err(err).Msg("score-store-close-failed")
		}
		e.store = nil
	}
}
