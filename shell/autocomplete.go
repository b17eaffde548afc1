package shell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/ben-axnick/PFCloneLogic/board"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"new":      {Options: []string{"-layout", "-first", "-bot"}},
	"load":     {Options: []string{"-side", "-layout"}},
	"place":    {Args: []string{"round", "square"}},
	"bot":      {Args: []string{"P1", "P2", "both", "none"}},
	"set":      {Args: setKeys},
	"help":     {Args: []string{"notation", "set"}},
	"autoplay": {Options: []string{"-games", "-threads", "-rounds", "-file"}},
}

var commandNames = []string{
	"help", "new", "load", "show", "s", "place", "move", "push", "skip",
	"moves", "pushes", "plan", "next", "aiplay", "bot", "history", "set",
	"autoplay", "exit",
}

var sideValues = []string{"P1", "P2"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "first", "side":
				completions = sideValues
			case "bot":
				completions = commandMetadata["bot"].Args
			case "layout":
				completions = layoutNames()
			}
		}
		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
		// squares held by the turn player, for commands that take one
		if completions == nil && c.sc.IsPlaying() {
			switch cmdName {
			case "move", "push", "moves", "pushes":
				completions = c.ownSquares()
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}

func layoutNames() []string {
	names := make([]string, 0, len(board.Layouts))
	for n := range board.Layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *ShellCompleter) ownSquares() []string {
	b := c.sc.game.Board()
	var out []string
	for i, p := range b.Pieces() {
		if p.Owner == c.sc.game.TurnPlayer() {
			co := b.Coords(i)
			out = append(out, fmt.Sprintf("%d,%d", co.X, co.Y))
		}
	}
	return out
}
