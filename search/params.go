package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/ben-axnick/PFCloneLogic/config"
)

var ErrBadParams = errors.New("invalid search parameters")

// Params tune one solver.
type Params struct {
	// SoftPly is the depth at which quiet positions are scored statically.
	SoftPly int
	// HardPly is the depth at which every position is scored statically,
	// even when a piece is next to an edge.
	HardPly   int
	Threads   int
	BatchSize int
	// TimeBudget cancels the search when it runs out. Zero means no limit.
	TimeBudget time.Duration
}

func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		SoftPly:    cfg.GetInt(config.ConfigSearchSoftPly),
		HardPly:    cfg.GetInt(config.ConfigSearchHardPly),
		Threads:    cfg.GetInt(config.ConfigSearchThreads),
		BatchSize:  cfg.GetInt(config.ConfigSearchBatchSize),
		TimeBudget: cfg.GetDuration(config.ConfigSearchTimeBudget),
	}
}

func (p Params) Validate() error {
	switch {
	case p.SoftPly < 1:
		return fmt.Errorf("%w: soft ply limit must be at least 1", ErrBadParams)
	case p.HardPly < p.SoftPly:
		return fmt.Errorf("%w: hard ply limit is below the soft one", ErrBadParams)
	case p.Threads < 1:
		return fmt.Errorf("%w: need at least one thread", ErrBadParams)
	case p.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be positive", ErrBadParams)
	}
	return nil
}

// boardsPerPly is how many boards one level of turn generation holds at
// once: after the first move, after the second move and after the push.
const boardsPerPly = 3

// RequiredBoards is the arena capacity a solver with these settings can
// need at its peak. The root generator holds a clone of the root plus one
// level; every worker holds its root child plus one level for every ply
// it may expand below it.
func RequiredBoards(threads, hardPly int) int {
	perWorker := 1 + boardsPerPly*(hardPly-1)
	return 1 + boardsPerPly + threads*perWorker
}
