package search

import (
	"strings"

	"github.com/ben-axnick/PFCloneLogic/board"
)

type ActionKind uint8

const (
	ActionSkip ActionKind = iota
	ActionMove
	ActionPush
)

func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionPush:
		return "push"
	}
	return "skip"
}

// Action is one primitive step of a turn. From and To are square indices
// and are -1 for a skip.
type Action struct {
	Kind ActionKind
	From int
	To   int
}

var skip = Action{Kind: ActionSkip, From: -1, To: -1}

// Describe renders the action with board coordinates.
func (a Action) Describe(tpl *board.Template) string {
	if a.Kind == ActionSkip {
		return "skip"
	}
	return a.Kind.String() + " " + tpl.Coords(a.From).String() + " " +
		tpl.Coords(a.To).String()
}

// An ActionChain is a whole turn: zero, one or two moves followed by a
// push or a skip. The last action always belongs to the push phase.
type ActionChain struct {
	Actions [3]Action
	Len     int
	// Estimate is the static evaluation of the resulting position, used to
	// order the root candidates before the full search.
	Estimate int32
	Score    int32
}

func (c *ActionChain) add(a Action) { c.Actions[c.Len] = a; c.Len++ }
func (c *ActionChain) pop()         { c.Len-- }

// Slice returns the actions of the chain in order.
func (c *ActionChain) Slice() []Action { return c.Actions[:c.Len] }

// Push returns the push-phase action of the chain.
func (c *ActionChain) Push() Action { return c.Actions[c.Len-1] }

func (c *ActionChain) Describe(tpl *board.Template) string {
	parts := make([]string, c.Len)
	for i, a := range c.Slice() {
		parts[i] = a.Describe(tpl)
	}
	return strings.Join(parts, "; ")
}

// Apply plays the chain for side on b. A skipped push phase forfeits.
func (c *ActionChain) Apply(b *board.Board, side board.Player) error {
	for i, a := range c.Slice() {
		switch a.Kind {
		case ActionMove:
			if err := b.Move(b.PieceOn(a.From), a.To); err != nil {
				return err
			}
		case ActionPush:
			if err := b.Push(b.PieceOn(a.From), a.To); err != nil {
				return err
			}
		case ActionSkip:
			if i == c.Len-1 {
				b.Forfeit(side)
			}
		}
	}
	return nil
}

// replay is Apply without legality checks, for chains the generator
// produced on an identical board.
func (c *ActionChain) replay(b *board.Board, side board.Player) {
	for i, a := range c.Slice() {
		switch a.Kind {
		case ActionMove:
			b.Relocate(b.PieceOn(a.From), a.To)
		case ActionPush:
			if err := b.Push(b.PieceOn(a.From), a.To); err != nil {
				panic("search: replayed an illegal push: " + err.Error())
			}
		case ActionSkip:
			if i == c.Len-1 {
				b.Forfeit(side)
			}
		}
	}
}
