package turnplayer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/search"
)

var ErrUnrecognizedAction = errors.New("unrecognized action")

// Enact hands one action to the game and reports whether it was accepted.
func Enact(c Controls, a Action) bool {
	switch a.Kind {
	case search.ActionMove:
		return c.Move(a.From, a.To)
	case search.ActionPush:
		return c.Push(a.From, a.To)
	default:
		c.Skip()
		return true
	}
}

// ParseAction reads an action the way Action.String writes it, e.g.
// "move 2,2 3,1", "push [3,1] [4,1]" or "skip".
func ParseAction(fields []string) (Action, error) {
	if len(fields) == 1 && fields[0] == "skip" {
		return Action{Kind: search.ActionSkip}, nil
	}
	if len(fields) != 3 {
		return Action{}, fmt.Errorf("%w: %s", ErrUnrecognizedAction, strings.Join(fields, " "))
	}
	var kind search.ActionKind
	switch fields[0] {
	case "move":
		kind = search.ActionMove
	case "push":
		kind = search.ActionPush
	default:
		return Action{}, fmt.Errorf("%w: %s", ErrUnrecognizedAction, fields[0])
	}
	from, err := board.ParseCoords(fields[1])
	if err != nil {
		return Action{}, err
	}
	to, err := board.ParseCoords(fields[2])
	if err != nil {
		return Action{}, err
	}
	return Action{Kind: kind, From: from, To: to}, nil
}
