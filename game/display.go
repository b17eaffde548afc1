package game

import (
	"fmt"
	"strings"

	"github.com/ben-axnick/PFCloneLogic/board"
)

func addText(lines []string, row int, hpad int, text string) {
	if row >= len(lines) {
		return
	}
	lines[row] = lines[row] + strings.Repeat(" ", hpad) + text
}

// ToDisplayText renders the board with the game state printed to its
// right.
func (g *Game) ToDisplayText(color bool) string {
	if g.board == nil {
		return "no game in progress\n"
	}
	bt := g.board.ToDisplayText(color)
	lines := strings.Split(strings.TrimRight(bt, "\n"), "\n")
	hpadding := 3

	addText(lines, 1, hpadding, fmt.Sprintf("Round %d", g.round))
	if w := g.board.Winner(); w != board.NoPlayer {
		addText(lines, 2, hpadding, fmt.Sprintf("%s wins", w))
	} else {
		addText(lines, 2, hpadding, fmt.Sprintf("%s to play (%s)", g.turnPlayer, g.phase))
		if g.phase == PhaseMovement {
			addText(lines, 3, hpadding, fmt.Sprintf("%d moves left", g.MovesLeft()))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
