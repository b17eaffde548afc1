package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/turnplayer"
)

var ErrBotFailed = errors.New("bot returned an error")

type Client struct {
	nc      *nats.Conn
	subject string
}

func NewClient(nc *nats.Conn, subject string) *Client {
	return &Client{nc: nc, subject: subject}
}

// MakeRequest describes the position for the plan service.
func MakeRequest(b *board.Board, side board.Player) PlanRequest {
	req := PlanRequest{
		ID:      uuid.NewString(),
		Layout:  b.Template().Name(),
		Diagram: b.Diagram(),
		Side:    side.String(),
	}
	if a, ok := b.Anchor(); ok {
		c := b.Coords(a)
		req.Anchor = c.String()
	}
	return req
}

// ParseActions turns a response back into actions.
func ParseActions(resp PlanResponse) ([]turnplayer.Action, error) {
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBotFailed, resp.Error)
	}
	actions := make([]turnplayer.Action, 0, len(resp.Actions))
	for _, s := range resp.Actions {
		a, err := turnplayer.ParseAction(strings.Fields(s))
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// RequestPlan sends the position to the bot and waits for its plan.
func (c *Client) RequestPlan(ctx context.Context, b *board.Board, side board.Player) (*turnplayer.Plan, error) {
	data, err := MakeRequest(b, side).Encode()
	if err != nil {
		return nil, err
	}
	res, err := c.nc.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		return nil, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))
	resp, err := DecodeResponse(res.Data)
	if err != nil {
		return nil, err
	}
	actions, err := ParseActions(resp)
	if err != nil {
		return nil, err
	}
	return turnplayer.NewPlan(side, actions, resp.Score, resp.Nodes), nil
}
