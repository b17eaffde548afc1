package bot

import (
	"github.com/bytedance/sonic"
)

// PlanRequest asks for the best turn in a position. Anchor is the
// coordinates of the anchored piece, e.g. "3,2", or empty for none.
type PlanRequest struct {
	ID      string   `json:"id"`
	Layout  string   `json:"layout"`
	Diagram []string `json:"diagram"`
	Anchor  string   `json:"anchor,omitempty"`
	Side    string   `json:"side"`
}

// PlanResponse carries the planned actions in order, e.g.
// ["move [2,2] [3,1]", "skip", "push [3,1] [4,1]"], or an error.
type PlanResponse struct {
	ID      string   `json:"id"`
	Actions []string `json:"actions,omitempty"`
	Score   int32    `json:"score"`
	Nodes   uint64   `json:"nodes"`
	Error   string   `json:"error,omitempty"`
}

func DecodeRequest(data []byte) (req PlanRequest, err error) {
	err = sonic.Unmarshal(data, &req)
	return
}

func DecodeResponse(data []byte) (resp PlanResponse, err error) {
	err = sonic.Unmarshal(data, &resp)
	return
}

func (r PlanRequest) Encode() ([]byte, error)  { return sonic.Marshal(r) }
func (r PlanResponse) Encode() ([]byte, error) { return sonic.Marshal(r) }
