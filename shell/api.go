package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/ben-axnick/PFCloneLogic/automatic"
	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/event"
	"github.com/ben-axnick/PFCloneLogic/game"
	"github.com/ben-axnick/PFCloneLogic/turnplayer"
)

var (
	errNoGame      = errors.New("no game in progress; start one with `new` or `load`")
	errIllegal     = errors.New("that is not allowed right now")
	errNoPlan      = errors.New("no plan; make one with `plan`")
	errUnknownKind = errors.New("piece kind must be round or square")
)

// setKeys are the settings `set` lists and changes.
var setKeys = []string{
	config.ConfigLayout,
	config.ConfigSearchSoftPly,
	config.ConfigSearchHardPly,
	config.ConfigSearchThreads,
	config.ConfigSearchTimeBudget,
	config.ConfigScoreStoreURL,
}

func (sc *ShellController) startGame(tpl *board.Template) error {
	sc.Close()
	sc.plan = nil
	sc.game = game.NewGame(tpl, nil)
	sc.game.Bus().Subscribe(event.TopicGameOver, func(e event.Event) {
		sc.showMessage(fmt.Sprintf("Game over: %s wins", e.Player))
	})
	engine, err := turnplayer.NewEngine(sc.config, tpl, nil, sc.game.Bus())
	if err != nil {
		sc.game = nil
		return err
	}
	sc.engine = engine
	return nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	layout := cmd.options["layout"]
	if layout == "" {
		layout = sc.config.GetString(config.ConfigLayout)
	}
	tpl, err := board.GetTemplate(sc.config, layout)
	if err != nil {
		return nil, err
	}
	first := board.Player(frand.Intn(2))
	if f, ok := cmd.options["first"]; ok {
		if first, err = board.ParsePlayer(f); err != nil || first == board.NoPlayer {
			return nil, fmt.Errorf("unknown side %q", f)
		}
	}
	sides := [2]bool{false, true}
	if b, ok := cmd.options["bot"]; ok {
		if sides, err = parseSides(b); err != nil {
			return nil, err
		}
	}
	if err := sc.startGame(tpl); err != nil {
		return nil, err
	}
	sc.botSides = sides
	sc.game.Start(first)
	return msg(sc.display()), nil
}

// load starts from a diagram. The layout is the first one the diagram
// fits unless -layout names it.
func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	side, err := board.ParsePlayer(cmd.options["side"])
	if err != nil || side == board.NoPlayer {
		return nil, errors.New("usage: load -side P1|P2 <row> <row> ...")
	}
	names := lo.Keys(board.Layouts)
	sort.Strings(names)
	if l, ok := cmd.options["layout"]; ok {
		names = []string{l}
	}
	var lastErr error
	for _, name := range names {
		tpl, err := board.GetTemplate(sc.config, name)
		if err != nil {
			return nil, err
		}
		b, err := board.ParseDiagram(tpl, cmd.args)
		if err != nil {
			lastErr = err
			continue
		}
		if err := sc.startGame(tpl); err != nil {
			return nil, err
		}
		sc.botSides = [2]bool{}
		sc.game.StartFrom(b, side)
		return msg(sc.display()), nil
	}
	return nil, lastErr
}

func (sc *ShellController) show() (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	return msg(sc.display()), nil
}

func parseKind(s string) (board.PieceKind, error) {
	switch strings.ToLower(s) {
	case "round", "r":
		return board.RoundPiece, nil
	case "square", "s":
		return board.SquarePiece, nil
	}
	return board.RoundPiece, errUnknownKind
}

func (sc *ShellController) place(cmd *shellcmd) (*Response, error) {
	if !sc.IsPlaying() {
		return nil, errNoGame
	}
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: place round|square <x,y>")
	}
	kind, err := parseKind(cmd.args[0])
	if err != nil {
		return nil, err
	}
	c, err := board.ParseCoords(cmd.args[1])
	if err != nil {
		return nil, err
	}
	if !sc.game.Place(kind, c) {
		return nil, errIllegal
	}
	return msg(sc.display()), nil
}

func (sc *ShellController) act(cmd *shellcmd) (*Response, error) {
	if !sc.IsPlaying() {
		return nil, errNoGame
	}
	a, err := turnplayer.ParseAction(append([]string{cmd.cmd}, cmd.args...))
	if err != nil {
		return nil, err
	}
	if !turnplayer.Enact(sc.game, a) {
		return nil, errIllegal
	}
	sc.plan = nil
	return msg(sc.display()), nil
}

func (sc *ShellController) targets(cmd *shellcmd) (*Response, error) {
	if !sc.IsPlaying() {
		return nil, errNoGame
	}
	if len(cmd.args) != 1 {
		return nil, fmt.Errorf("usage: %s <x,y>", cmd.cmd)
	}
	c, err := board.ParseCoords(cmd.args[0])
	if err != nil {
		return nil, err
	}
	var cs []board.Coords
	if cmd.cmd == "moves" {
		cs = sc.game.ValidMoves(c)
	} else {
		cs = sc.game.ValidPushes(c)
	}
	if len(cs) == 0 {
		return msg("none"), nil
	}
	return msg(strings.Join(lo.Map(cs, func(c board.Coords, _ int) string { return c.String() }), " ")), nil
}

// planFor plans the turn player's turn, remotely when a plan service is
// set.
func (sc *ShellController) planFor(ctx context.Context) (*turnplayer.Plan, error) {
	side := sc.game.TurnPlayer()
	if sc.remote != nil {
		if sc.game.Phase() != game.PhaseMovement {
			return nil, turnplayer.ErrMidTurn
		}
		return sc.remote.RequestPlan(ctx, sc.game.Board(), side)
	}
	return turnplayer.NewBotPlayer(side, sc.engine.Planner).PlanTurn(ctx, sc.game)
}

func (sc *ShellController) planTurn(ctx context.Context) (*Response, error) {
	if !sc.IsPlaying() {
		return nil, errNoGame
	}
	plan, err := sc.planFor(ctx)
	if err != nil {
		return nil, err
	}
	sc.plan = plan
	return msg(plan.String()), nil
}

func (sc *ShellController) next() (*Response, error) {
	if sc.plan == nil || !sc.IsPlaying() {
		return nil, errNoPlan
	}
	a, ok := sc.plan.Next()
	if !ok {
		sc.plan = nil
		return nil, errNoPlan
	}
	if !turnplayer.Enact(sc.game, a) {
		sc.plan = nil
		return nil, fmt.Errorf("%w: %s", turnplayer.ErrPlanRefused, a)
	}
	if sc.plan.Remaining() == 0 {
		sc.plan = nil
	}
	return msg(a.String() + "\n" + sc.display()), nil
}

func (sc *ShellController) aiplay(ctx context.Context) (*Response, error) {
	if !sc.IsPlaying() {
		return nil, errNoGame
	}
	side := sc.game.TurnPlayer()
	sc.plan = nil
	if sc.game.Phase() == game.PhasePlacement || sc.remote == nil {
		plan, err := turnplayer.NewBotPlayer(side, sc.engine.Planner).Act(ctx, sc.game)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return msg(fmt.Sprintf("%s places its pieces\n%s", side, sc.display())), nil
		}
		return msg(fmt.Sprintf("%s plays %s\n%s", side, plan, sc.display())), nil
	}
	plan, err := sc.planFor(ctx)
	if err != nil {
		return nil, err
	}
	for a, ok := plan.Next(); ok; a, ok = plan.Next() {
		if !turnplayer.Enact(sc.game, a) {
			return nil, fmt.Errorf("%w: %s", turnplayer.ErrPlanRefused, a)
		}
	}
	return msg(fmt.Sprintf("%s plays %s\n%s", side, plan, sc.display())), nil
}

func (sc *ShellController) setBot(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: bot P1|P2|both|none")
	}
	sides, err := parseSides(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.botSides = sides
	return msg("engine plays " + cmd.args[0]), nil
}

func (sc *ShellController) history() (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	return msg(strings.Join(lo.Map(sc.game.History(), func(r game.Record, _ int) string {
		return r.String()
	}), "\n")), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		var sb strings.Builder
		sb.WriteString("Settings:\n")
		for _, k := range setKeys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, sc.config.Get(k))
		}
		return msg(sb.String()), nil
	}
	key := cmd.args[0]
	if !lo.Contains(setKeys, key) {
		return nil, fmt.Errorf("no such setting: %s", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	sc.config.Set(key, cmd.args[1])
	if err := sc.config.Write(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return msg(fmt.Sprintf("set %s to %s and saved to file", key, cmd.args[1])), nil
}

func (sc *ShellController) autoplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	games, err := cmd.intOption("games", 10)
	if err != nil {
		return nil, err
	}
	threads, err := cmd.intOption("threads", 1)
	if err != nil {
		return nil, err
	}
	rounds, err := cmd.intOption("rounds", automatic.DefaultMaxRounds)
	if err != nil {
		return nil, err
	}
	res, err := automatic.PlayCompVComp(ctx, sc.config, automatic.Options{
		NumGames:   games,
		Threads:    threads,
		MaxRounds:  rounds,
		OutputFile: cmd.options["file"],
		Progress:   sc.out,
	})
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := res.Report(&sb, 95); err != nil {
		return nil, err
	}
	return msg(sb.String()), nil
}
