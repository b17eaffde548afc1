package automatic

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/stats"
)

// AnalyzeLogFile reads a self-play game log back into a tally.
func AnalyzeLogFile(filepath string) (*stats.Tally, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	r := csv.NewReader(file)

	// Record looks like:
	// gameID,starter,winner,rounds,turns,msPerTurn
	tally := &stats.Tally{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if record[0] == "gameID" {
			continue
		}
		starter, err := board.ParsePlayer(record[1])
		if err != nil {
			return nil, err
		}
		winner, err := board.ParsePlayer(record[2])
		if err != nil {
			return nil, err
		}
		rounds, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, err
		}
		tally.Record(winner, starter, rounds)
	}
	return tally, nil
}
