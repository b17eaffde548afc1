// Package bot serves turn plans over NATS request/reply.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/store"
	"github.com/ben-axnick/PFCloneLogic/transposition"
	"github.com/ben-axnick/PFCloneLogic/turnplayer"
)

var (
	ErrNoAnchorPiece = errors.New("no piece on the anchor square")
	ErrRoundAnchor   = errors.New("only square pieces can hold the anchor")
)

// Bot answers plan requests. Requests are planned one at a time; each
// plan already uses every search thread.
type Bot struct {
	cfg *config.Config
	st  store.Store
	tt  *transposition.Cache

	mu      sync.Mutex
	engines map[string]*turnplayer.Engine
}

func NewBot(cfg *config.Config) *Bot {
	st := store.Open(cfg)
	return &Bot{
		cfg:     cfg,
		st:      st,
		tt:      transposition.New(st, cfg.GetDuration(config.ConfigScoreStoreTimeout)),
		engines: map[string]*turnplayer.Engine{},
	}
}

func (bot *Bot) Close() {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	for _, e := range bot.engines {
		e.Close()
	}
	bot.engines = map[string]*turnplayer.Engine{}
	bot.tt.LogStats()
	if bot.st != nil {
		if err := bot.st.Close(); err != nil {
			log.Err(err).Msg("score-store-close-failed")
		}
		bot.st = nil
	}
}

// engine returns the engine for a layout. Callers hold bot.mu.
func (bot *Bot) engine(tpl *board.Template) (*turnplayer.Engine, error) {
	if e, ok := bot.engines[tpl.Name()]; ok {
		return e, nil
	}
	e, err := turnplayer.NewEngine(bot.cfg, tpl, bot.tt, nil)
	if err != nil {
		return nil, err
	}
	bot.engines[tpl.Name()] = e
	return e, nil
}

func (bot *Bot) position(req PlanRequest) (*board.Board, board.Player, error) {
	side, err := board.ParsePlayer(req.Side)
	if err != nil || side == board.NoPlayer {
		return nil, side, fmt.Errorf("side %q: want P1 or P2", req.Side)
	}
	layout := req.Layout
	if layout == "" {
		layout = bot.cfg.GetString(config.ConfigLayout)
	}
	tpl, err := board.GetTemplate(bot.cfg, layout)
	if err != nil {
		return nil, side, err
	}
	b, err := board.ParseDiagram(tpl, req.Diagram)
	if err != nil {
		return nil, side, err
	}
	if req.Anchor != "" {
		c, err := board.ParseCoords(req.Anchor)
		if err != nil {
			return nil, side, err
		}
		i, ok := b.PieceAt(c)
		if !ok {
			return nil, side, fmt.Errorf("%w %s", ErrNoAnchorPiece, c)
		}
		if b.Piece(i).Kind != board.SquarePiece {
			return nil, side, fmt.Errorf("%w: %s", ErrRoundAnchor, c)
		}
		b.SetAnchor(i)
	}
	return b, side, nil
}

// Plan answers one request.
func (bot *Bot) Plan(ctx context.Context, req PlanRequest) PlanResponse {
	resp := PlanResponse{ID: req.ID}
	b, side, err := bot.position(req)
	if err != nil {
		resp.Error = "could not parse request: " + err.Error()
		return resp
	}
	bot.mu.Lock()
	defer bot.mu.Unlock()
	e, err := bot.engine(b.Template())
	if err != nil {
		resp.Error = "could not create engine: " + err.Error()
		return resp
	}
	plan, err := e.Plan(ctx, b, side, nil)
	if err != nil {
		resp.Error = "could not plan: " + err.Error()
		return resp
	}
	resp.Actions = lo.Map(plan.Actions(), func(a turnplayer.Action, _ int) string { return a.String() })
	resp.Score = plan.Score
	resp.Nodes = plan.Nodes
	return resp
}

// Handle decodes a request, plans it and encodes the response.
func (bot *Bot) Handle(ctx context.Context, data []byte) []byte {
	req, err := DecodeRequest(data)
	var resp PlanResponse
	if err != nil {
		resp = PlanResponse{Error: "could not decode request: " + err.Error()}
	} else {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		tstart := time.Now()
		resp = bot.Plan(ctx, req)
		log.Info().Str("id", resp.ID).Strs("actions", resp.Actions).Int32("score", resp.Score).
			Str("error", resp.Error).Dur("took", time.Since(tstart)).Msg("plan-served")
	}
	out, err := resp.Encode()
	if err != nil {
		// Should never happen.
		return []byte(`{"error":"` + err.Error() + `"}`)
	}
	return out
}

// Main serves plans on the configured subject until ctx is cancelled.
func Main(ctx context.Context, bot *Bot) error {
	url := bot.cfg.GetString(config.ConfigNatsURL)
	subject := bot.cfg.GetString(config.ConfigNatsSubject)
	nc, err := nats.Connect(url, nats.Name("pushfight-bot"))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer nc.Close()

	_, err = nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Msg("plan-request")
		if err := m.Respond(bot.Handle(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("listening")

	<-ctx.Done()
	return nc.Drain()
}
