// Package game runs a game of Push Fight: turn order, the phases of a
// turn and the per-turn limits. Moves on the board itself are checked by
// the board package; this package decides whose turn it is and what they
// may do next.
package game

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/event"
)

// Game is not safe for concurrent use. Control actions report success with
// a bool, the way a UI would call them.
type Game struct {
	uid     string
	tpl     *board.Template
	board   *board.Board
	bus     *event.Bus
	history []Record

	round      int
	starter    board.Player
	turnPlayer board.Player
	phase      Phase
	moves      int
	pushes     int

	scratch []int
}

// NewGame creates a game on tpl that publishes to bus. A nil bus gets a
// private one.
func NewGame(tpl *board.Template, bus *event.Bus) *Game {
	if bus == nil {
		bus = event.NewBus()
	}
	return &Game{tpl: tpl, bus: bus, phase: PhaseEnded, turnPlayer: board.NoPlayer}
}

// boardEvents turns board changes into piece notifications.
type boardEvents struct{ bus *event.Bus }

func (o boardEvents) Observe(c board.Change) {
	var topic event.Topic
	switch c.Kind {
	case board.ChangePlaced:
		topic = event.TopicPiecePlaced
	case board.ChangeMoved:
		topic = event.TopicPieceMoved
	case board.ChangePushed, board.ChangeDisplaced:
		topic = event.TopicPiecePushed
	default:
		// wins are announced when the turn ends
		return
	}
	o.bus.Publish(event.Event{Topic: topic, Player: c.Owner, Change: c})
}

// Start clears the board and begins round 0 with starter to place first.
func (g *Game) Start(starter board.Player) {
	g.uid = uuid.NewString()
	g.board = board.New(g.tpl)
	g.board.SetObserver(boardEvents{bus: g.bus})
	g.history = nil
	g.round = 0
	g.starter = starter
	log.Debug().Str("uid", g.uid).Str("starter", starter.String()).Msg("game-start")
	g.bus.Publish(event.Event{Topic: event.TopicGameBegin, Player: starter})
	g.newTurn(starter)
}

// StartFrom begins a game in the movement phase of round 1 from a position
// set up elsewhere, with toMove to play.
func (g *Game) StartFrom(b *board.Board, toMove board.Player) {
	g.uid = uuid.NewString()
	g.board = board.New(g.tpl)
	g.board.CopyFrom(b)
	g.board.SetObserver(boardEvents{bus: g.bus})
	g.history = nil
	g.round = 1
	g.starter = toMove
	g.bus.Publish(event.Event{Topic: event.TopicGameBegin, Player: toMove})
	g.newTurn(toMove)
}

func (g *Game) newTurn(p board.Player) {
	g.turnPlayer = p
	g.moves, g.pushes = 0, 0
	if g.round == 0 {
		g.setPhase(PhasePlacement)
	} else {
		g.setPhase(PhaseMovement)
	}
	g.bus.Publish(event.Event{Topic: event.TopicTurnBegin, Player: p})
}

func (g *Game) setPhase(p Phase) {
	g.phase = p
	g.bus.Publish(event.Event{Topic: event.TopicTurnPhase, Player: g.turnPlayer, Phase: p.String()})
}

// endTurn hands the turn over, or ends the game if it has been decided.
func (g *Game) endTurn() {
	g.setPhase(PhaseEnded)
	if w := g.board.Winner(); w != board.NoPlayer {
		log.Debug().Str("uid", g.uid).Str("winner", w.String()).Int("round", g.round).
			Msg("game-over")
		g.bus.Publish(event.Event{Topic: event.TopicGameOver, Player: w})
		return
	}
	if g.turnPlayer == g.starter {
		g.newTurn(g.starter.Other())
		return
	}
	g.round++
	g.newTurn(g.starter)
}

func (g *Game) Uid() string               { return g.uid }
func (g *Game) Bus() *event.Bus           { return g.bus }
func (g *Game) Template() *board.Template { return g.tpl }
func (g *Game) Round() int                { return g.round }
func (g *Game) Phase() Phase              { return g.phase }
func (g *Game) TurnPlayer() board.Player  { return g.turnPlayer }
func (g *Game) Starter() board.Player     { return g.starter }
func (g *Game) MovesLeft() int            { return MovesPerTurn - g.moves }
func (g *Game) Playing() bool             { return g.board != nil && g.board.Winner() == board.NoPlayer }

// Board is the live board. Callers that want to experiment on it must
// copy it first.
func (g *Game) Board() *board.Board { return g.board }

func (g *Game) Winner() board.Player {
	if g.board == nil {
		return board.NoPlayer
	}
	return g.board.Winner()
}

func (g *Game) record(r Record) {
	r.Round = g.round
	r.Player = g.turnPlayer
	r.Phase = g.phase
	g.history = append(g.history, r)
}

func (g *Game) countPieces(kind board.PieceKind) int {
	return lo.CountBy(g.board.Pieces(), func(p board.Piece) bool {
		return p.Owner == g.turnPlayer && p.Kind == kind
	})
}

func (g *Game) reject(action string, err error) bool {
	log.Debug().Err(err).Str("action", action).Str("player", g.turnPlayer.String()).
		Str("phase", g.phase.String()).Msg("action-rejected")
	return false
}

// ownPiece returns the index of the turn player's piece on c.
func (g *Game) ownPiece(c board.Coords) (int, bool) {
	i, ok := g.board.PieceAt(c)
	if !ok || g.board.Piece(i).Owner != g.turnPlayer {
		return -1, false
	}
	return i, true
}

// Place puts a piece of the given kind for the turn player on c.
func (g *Game) Place(kind board.PieceKind, c board.Coords) bool {
	if g.phase != PhasePlacement {
		return g.reject("place", ErrWrongPhase)
	}
	limit := MaxRoundPieces
	if kind == board.SquarePiece {
		limit = MaxSquarePieces
	}
	if g.countPieces(kind) >= limit {
		return g.reject("place", ErrPieceLimit)
	}
	sq, ok := g.tpl.Index(c)
	if !ok {
		return g.reject("place", board.ErrNotOnBoard)
	}
	if _, err := g.board.PlacePiece(g.turnPlayer, kind, sq); err != nil {
		return g.reject("place", err)
	}
	g.record(Record{Kind: RecordPlace, Piece: kind, To: c})
	if g.countPieces(board.RoundPiece)+g.countPieces(board.SquarePiece) >= PiecesPerSide() {
		g.endTurn()
	}
	return true
}

// Move moves the turn player's piece on from to to.
func (g *Game) Move(from, to board.Coords) bool {
	if g.phase != PhaseMovement {
		return g.reject("move", ErrWrongPhase)
	}
	i, ok := g.ownPiece(from)
	if !ok {
		return g.reject("move", ErrNotYourPiece)
	}
	sq, ok := g.tpl.Index(to)
	if !ok {
		return g.reject("move", board.ErrNotOnBoard)
	}
	if err := g.board.Move(i, sq); err != nil {
		return g.reject("move", err)
	}
	g.record(Record{Kind: RecordMove, From: from, To: to})
	g.moves++
	if g.moves >= MovesPerTurn {
		g.setPhase(PhasePushing)
	}
	return true
}

// Push makes the turn player's piece on from push the piece on to.
func (g *Game) Push(from, to board.Coords) bool {
	if g.phase != PhasePushing {
		return g.reject("push", ErrWrongPhase)
	}
	i, ok := g.ownPiece(from)
	if !ok {
		return g.reject("push", ErrNotYourPiece)
	}
	sq, ok := g.tpl.Index(to)
	if !ok {
		return g.reject("push", board.ErrNotOnBoard)
	}
	if err := g.board.Push(i, sq); err != nil {
		return g.reject("push", err)
	}
	g.record(Record{Kind: RecordPush, From: from, To: to})
	g.pushes++
	if g.pushes >= PushesPerTurn {
		g.endTurn()
	}
	return true
}

// Skip ends the current phase without acting. Skipping the push phase
// forfeits the game.
func (g *Game) Skip() {
	switch g.phase {
	case PhaseMovement:
		g.record(Record{Kind: RecordSkip})
		g.setPhase(PhasePushing)
	case PhasePushing:
		g.record(Record{Kind: RecordSkip})
		g.board.Forfeit(g.turnPlayer)
		g.endTurn()
	}
}

// ValidMoves lists where the turn player's piece on c can move.
func (g *Game) ValidMoves(c board.Coords) []board.Coords {
	i, ok := g.ownPiece(c)
	if !ok {
		return nil
	}
	g.scratch = g.board.CheckMoves(i, g.scratch[:0])
	return lo.Map(g.scratch, func(sq int, _ int) board.Coords { return g.tpl.Coords(sq) })
}

// ValidPushes lists the squares the turn player's piece on c can push into.
func (g *Game) ValidPushes(c board.Coords) []board.Coords {
	i, ok := g.ownPiece(c)
	if !ok {
		return nil
	}
	g.scratch = g.board.CheckPushes(i, g.scratch[:0])
	return lo.Map(g.scratch, func(sq int, _ int) board.Coords { return g.tpl.Coords(sq) })
}
