// Package automatic plays the engine against itself and collects the
// results.
package automatic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/game"
	"github.com/ben-axnick/PFCloneLogic/stats"
	"github.com/ben-axnick/PFCloneLogic/transposition"
	"github.com/ben-axnick/PFCloneLogic/turnplayer"
)

// DefaultMaxRounds ends a game nobody is winning.
const DefaultMaxRounds = 100

// GameResult is one finished game. Winner is NoPlayer for a game that
// hit the round limit or was interrupted.
type GameResult struct {
	Uid     string
	Starter board.Player
	Winner  board.Player
	Rounds  int
	Turns   int
	// PlanTime is the mean time the bots took per planned turn.
	PlanTime time.Duration
}

func (r GameResult) csvLine() string {
	return fmt.Sprintf("%s,%s,%s,%d,%d,%.3f\n", r.Uid, r.Starter, r.Winner, r.Rounds,
		r.Turns, float64(r.PlanTime.Microseconds())/1000)
}

// GameRunner plays games between two bots that share one engine.
type GameRunner struct {
	game      *game.Game
	engine    *turnplayer.Engine
	bots      [2]*turnplayer.BotPlayer
	maxRounds int

	planTimes stats.Running
}

// NewGameRunner sets up a runner on the configured layout. tt may be shared
// between runners.
func NewGameRunner(cfg *config.Config, tt *transposition.Cache, maxRounds int) (*GameRunner, error) {
	tpl, err := board.GetTemplate(cfg, cfg.GetString(config.ConfigLayout))
	if err != nil {
		return nil, err
	}
	g := game.NewGame(tpl, nil)
	engine, err := turnplayer.NewEngine(cfg, tpl, tt, g.Bus())
	if err != nil {
		return nil, err
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	r := &GameRunner{game: g, engine: engine, maxRounds: maxRounds}
	for _, p := range []board.Player{board.P1, board.P2} {
		r.bots[p] = turnplayer.NewBotPlayer(p, engine.Planner)
	}
	return r, nil
}

func (r *GameRunner) Close()           { r.engine.Close() }
func (r *GameRunner) Game() *game.Game { return r.game }

// PlanTimes is the per-turn planning time in milliseconds over every game
// this runner has played.
func (r *GameRunner) PlanTimes() *stats.Running { return &r.planTimes }

// PlayGame plays one game to the end. Cancelling ctx stops it after the
// turn in progress, which itself returns early.
func (r *GameRunner) PlayGame(ctx context.Context, starter board.Player) (GameResult, error) {
	r.game.Start(starter)
	var planned stats.Running
	turns := 0
	for r.game.Playing() && r.game.Round() <= r.maxRounds && ctx.Err() == nil {
		bot := r.bots[r.game.TurnPlayer()]
		tstart := time.Now()
		plan, err := bot.Act(ctx, r.game)
		if err != nil {
			return GameResult{}, fmt.Errorf("game %s round %d: %w", r.game.Uid(), r.game.Round(), err)
		}
		turns++
		if plan == nil {
			continue
		}
		ms := float64(time.Since(tstart).Microseconds()) / 1000
		planned.Add(ms)
		r.planTimes.Add(ms)
		log.Debug().Str("uid", r.game.Uid()).Int("round", r.game.Round()).
			Str("player", bot.Side().String()).
			Str("actions", strings.Join(lo.Map(plan.Actions(), func(a turnplayer.Action, _ int) string {
				return a.String()
			}), "; ")).
			Int32("score", plan.Score).Uint64("nodes", plan.Nodes).Float64("ms", ms).
			Msg("turn-played")
	}
	res := GameResult{
		Uid:      r.game.Uid(),
		Starter:  starter,
		Winner:   r.game.Winner(),
		Rounds:   r.game.Round(),
		Turns:    turns,
		PlanTime: time.Duration(planned.Mean() * float64(time.Millisecond)),
	}
	log.Debug().Str("uid", res.Uid).Str("winner", res.Winner.String()).Int("rounds", res.Rounds).
		Msg("game-finished")
	return res, nil
}
