package stats

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ben-axnick/PFCloneLogic/board"
)

// Tally counts finished games by winner and by who started. It is safe
// for concurrent use.
type Tally struct {
	mu          sync.Mutex
	games       int
	wins        [3]int
	starterWins int
	rounds      Running
}

func (t *Tally) Record(winner, starter board.Player, rounds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.games++
	t.wins[winner]++
	if winner == starter {
		t.starterWins++
	}
	t.rounds.Add(float64(rounds))
}

func (t *Tally) Games() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.games
}

func (t *Tally) Wins(p board.Player) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wins[p]
}

// WinRate is p's share of the games with its interval at confidence
// percent.
func (t *Tally) WinRate(p board.Player, confidence float64) (rate, lo, hi float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.games == 0 {
		return 0, 0, 1
	}
	lo, hi = WilsonInterval(t.wins[p], t.games, confidence)
	return float64(t.wins[p]) / float64(t.games), lo, hi
}

// Summary renders the tally for the end of a self-play run.
func (t *Tally) Summary(confidence float64) string {
	var sb strings.Builder
	games := t.Games()
	fmt.Fprintf(&sb, "games: %d\n", games)
	for _, p := range []board.Player{board.P1, board.P2} {
		rate, lo, hi := t.WinRate(p, confidence)
		fmt.Fprintf(&sb, "%s wins: %d (%.1f%%, %.0f%% CI %.1f%%-%.1f%%)\n",
			p, t.Wins(p), rate*100, confidence, lo*100, hi*100)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if games > 0 {
		slo, shi := WilsonInterval(t.starterWins, games, confidence)
		fmt.Fprintf(&sb, "first mover wins: %d (%.0f%% CI %.1f%%-%.1f%%)\n",
			t.starterWins, confidence, slo*100, shi*100)
		fmt.Fprintf(&sb, "rounds: mean %.2f, stdev %.2f\n", t.rounds.Mean(), t.rounds.Stdev())
	}
	return sb.String()
}
