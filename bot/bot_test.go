package bot

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/search"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var winInOne = []string{
	`_====_`,
	`_###S_`,
	`##sR##`,
	`_####_`,
	`_====_`,
}

func testBot(t *testing.T) *Bot {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSearchThreads, 2)
	cfg.Set(config.ConfigArenaCapacity, 64)
	bot := NewBot(cfg)
	t.Cleanup(bot.Close)
	return bot
}

func TestHandleRoundTrip(t *testing.T) {
	is := is.New(t)
	bot := testBot(t)
	tpl := board.MustTemplate(board.LayoutCompact, board.CompactLayout)
	b, err := board.ParseDiagram(tpl, winInOne)
	is.NoErr(err)

	req := MakeRequest(b, board.P1)
	is.True(req.ID != "")
	is.Equal(req.Layout, board.LayoutCompact)
	is.Equal(req.Anchor, "")
	data, err := req.Encode()
	is.NoErr(err)

	resp, err := DecodeResponse(bot.Handle(context.Background(), data))
	is.NoErr(err)
	is.Equal(resp.ID, req.ID)
	is.Equal(resp.Error, "")
	is.Equal(resp.Actions, []string{"move [2,2] [3,1]", "skip", "push [3,1] [4,1]"})
	is.True(resp.Nodes > 0)

	actions, err := ParseActions(resp)
	is.NoErr(err)
	is.Equal(len(actions), 3)
	is.Equal(actions[2].Kind, search.ActionPush)
	is.Equal(actions[2].To, board.Coords{X: 4, Y: 1})
}

func TestHandleAssignsID(t *testing.T) {
	is := is.New(t)
	bot := testBot(t)
	data, err := PlanRequest{Layout: board.LayoutCompact, Diagram: winInOne, Side: "p1"}.Encode()
	is.NoErr(err)
	resp, err := DecodeResponse(bot.Handle(context.Background(), data))
	is.NoErr(err)
	is.True(resp.ID != "")
	is.Equal(resp.Error, "")
}

func TestBadRequests(t *testing.T) {
	is := is.New(t)
	bot := testBot(t)
	cases := []PlanRequest{
		{Layout: board.LayoutCompact, Diagram: winInOne, Side: "none"},
		{Layout: "hexagonal", Diagram: winInOne, Side: "P1"},
		{Layout: board.LayoutCompact, Diagram: winInOne[:3], Side: "P1"},
		{Layout: board.LayoutCompact, Diagram: winInOne, Side: "P1", Anchor: "1,1"},
		{Layout: board.LayoutCompact, Diagram: winInOne, Side: "P1", Anchor: "x"},
	}
	for _, req := range cases {
		resp := bot.Plan(context.Background(), req)
		is.True(resp.Error != "")
		_, err := ParseActions(resp)
		is.True(err != nil)
	}

	resp, err := DecodeResponse(bot.Handle(context.Background(), []byte("{not json")))
	is.NoErr(err)
	is.True(resp.Error != "")
}

func TestAnchorTravels(t *testing.T) {
	is := is.New(t)
	tpl := board.MustTemplate(board.LayoutCompact, board.CompactLayout)
	b, err := board.ParseDiagram(tpl, winInOne)
	is.NoErr(err)
	i, ok := b.PieceAt(board.Coords{X: 4, Y: 1})
	is.True(ok)
	b.SetAnchor(i)

	req := MakeRequest(b, board.P2)
	is.Equal(req.Anchor, "[4,1]")
	bot := testBot(t)
	got, side, err := bot.position(req)
	is.NoErr(err)
	is.Equal(side, board.P2)
	a, ok := got.Anchor()
	is.True(ok)
	is.Equal(got.Coords(a), board.Coords{X: 4, Y: 1})
}

func TestRoundPieceCannotHoldAnchor(t *testing.T) {
	is := is.New(t)
	bot := testBot(t)
	req := PlanRequest{Layout: board.LayoutCompact, Diagram: winInOne, Side: "P1", Anchor: "[3,2]"}
	_, _, err := bot.position(req)
	is.True(errors.Is(err, ErrRoundAnchor))

	resp := bot.Plan(context.Background(), req)
	is.True(strings.Contains(resp.Error, ErrRoundAnchor.Error()))
}
