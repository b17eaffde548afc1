package turnplayer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/event"
	"github.com/ben-axnick/PFCloneLogic/search"
)

// Action is one primitive step of a planned turn, in board coordinates.
type Action struct {
	Kind search.ActionKind
	From board.Coords
	To   board.Coords
}

func (a Action) String() string {
	if a.Kind == search.ActionSkip {
		return "skip"
	}
	return fmt.Sprintf("%s %s %s", a.Kind, a.From, a.To)
}

// A Plan is the sequence of actions chosen for one turn. Hosts pull the
// actions with Next and hand each one to Enact.
type Plan struct {
	Side  board.Player
	Score int32
	Nodes uint64

	actions []Action
	next    int
}

// Next returns the next action of the plan, or false once it is used up.
func (p *Plan) Next() (Action, bool) {
	if p.next >= len(p.actions) {
		return Action{}, false
	}
	a := p.actions[p.next]
	p.next++
	return a, true
}

func (p *Plan) Actions() []Action { return append([]Action(nil), p.actions...) }
func (p *Plan) Remaining() int    { return len(p.actions) - p.next }

func (p *Plan) String() string {
	return fmt.Sprintf("%s %v (score %d, %d nodes)", p.Side,
		lo.Map(p.actions, func(a Action, _ int) string { return a.String() }), p.Score, p.Nodes)
}

// Planner runs the search for a side and keeps the game's listeners quiet
// while it does.
type Planner struct {
	solver *search.Solver
	bus    *event.Bus
}

// NewPlanner wraps solver. bus may be nil when nobody listens.
func NewPlanner(solver *search.Solver, bus *event.Bus) *Planner {
	return &Planner{solver: solver, bus: bus}
}

func (p *Planner) Solver() *search.Solver { return p.solver }

// Plan searches root for side's best turn. Setting cancel, or cancelling
// ctx, makes the search return early with the best plan found so far.
func (p *Planner) Plan(ctx context.Context, root *board.Board, side board.Player, cancel *atomic.Bool) (*Plan, error) {
	if p.bus != nil {
		release := p.bus.Suppress()
		defer release()
	}
	a := p.solver.Arena()
	snapshot := a.Clone(root)
	defer a.Release(snapshot)

	chain, err := p.solver.Solve(ctx, snapshot, side, cancel)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		panic("turnplayer: search returned no plan")
	}
	if chain.Len > 3 {
		panic(fmt.Sprintf("turnplayer: plan of %d actions", chain.Len))
	}
	tpl := root.Template()
	actions := lo.Map(chain.Slice(), func(sa search.Action, _ int) Action {
		if sa.Kind == search.ActionSkip {
			return Action{Kind: search.ActionSkip}
		}
		return Action{Kind: sa.Kind, From: tpl.Coords(sa.From), To: tpl.Coords(sa.To)}
	})
	plan := &Plan{Side: side, Score: chain.Score, Nodes: p.solver.Nodes(), actions: actions}
	log.Debug().Str("plan", plan.String()).Msg("plan-ready")
	return plan, nil
}

// NewPlan wraps actions planned elsewhere, e.g. by a remote plan service.
func NewPlan(side board.Player, actions []Action, score int32, nodes uint64) *Plan {
	return &Plan{Side: side, Score: score, Nodes: nodes, actions: actions}
}
