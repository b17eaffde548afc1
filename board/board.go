package board

import (
	"errors"
)

// MaxPieces bounds the number of pieces a board can hold. A regular game
// uses ten.
const MaxPieces = 16

var (
	ErrOccupied         = errors.New("square is occupied")
	ErrNotHomeTerritory = errors.New("square is outside the player's territory")
	ErrNotNormal        = errors.New("pieces may only stand on normal squares")
	ErrUnreachable      = errors.New("square is not reachable")
	ErrIllegalPush      = errors.New("push is not legal")
	ErrGameOver         = errors.New("game is already decided")
	ErrTooManyPieces    = errors.New("board cannot hold more pieces")
	ErrNotOnBoard       = errors.New("coordinates are off the board")
)

// ChangeKind says what happened in a Change.
type ChangeKind uint8

const (
	ChangePlaced ChangeKind = iota
	ChangeMoved
	ChangePushed
	ChangeDisplaced
	ChangeWon
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePlaced:
		return "placed"
	case ChangeMoved:
		return "moved"
	case ChangePushed:
		return "pushed"
	case ChangeDisplaced:
		return "displaced"
	case ChangeWon:
		return "won"
	}
	return "unknown"
}

// Change describes one mutation of a board.
type Change struct {
	Kind   ChangeKind
	Piece  int
	Owner  Player
	From   Coords
	To     Coords
	Winner Player
}

// Observer receives the changes of a board it is attached to. Clones never
// inherit an observer, so search boards stay silent.
type Observer interface {
	Observe(Change)
}

// Storage is the backing memory of a board. The arena carves these out of
// large slabs; New allocates a private one.
type Storage struct {
	Pieces   []Piece
	Occupant []int8
	Visited  []bool
	Queue    []int
}

// NewStorage allocates backing memory for one board of the template.
func NewStorage(tpl *Template) Storage {
	n := tpl.NumSquares()
	return Storage{
		Pieces:   make([]Piece, 0, MaxPieces),
		Occupant: make([]int8, n),
		Visited:  make([]bool, n),
		Queue:    make([]int, 0, n),
	}
}

// Board is the mutable game position: pieces, the square-to-piece index,
// the anchor and the winner. It is not safe for concurrent use.
type Board struct {
	tpl      *Template
	pieces   []Piece
	occupant []int8
	anchor   int8
	winner   Player
	observer Observer

	visited []bool
	queue   []int
	slot    int
}

// New returns an empty board with its own storage.
func New(tpl *Template) *Board {
	b := &Board{}
	b.Init(tpl, NewStorage(tpl), -1)
	return b
}

// Init binds the board to a template and backing storage. slot is the
// arena slot that owns the board, or -1.
func (b *Board) Init(tpl *Template, st Storage, slot int) {
	b.tpl = tpl
	b.pieces = st.Pieces[:0]
	b.occupant = st.Occupant
	b.visited = st.Visited
	b.queue = st.Queue[:0]
	b.slot = slot
	b.Reset()
}

// Reset returns the board to baseline: no pieces, no anchor, no winner, no
// observer.
func (b *Board) Reset() {
	b.pieces = b.pieces[:0]
	for i := range b.occupant {
		b.occupant[i] = -1
	}
	b.anchor = -1
	b.winner = NoPlayer
	b.observer = nil
}

// CopyFrom makes b an exact copy of src's pieces, anchor and winner. Both
// boards must share a template. It does not allocate.
func (b *Board) CopyFrom(src *Board) {
	if b.tpl != src.tpl {
		panic("board: CopyFrom across templates")
	}
	b.pieces = b.pieces[:len(src.pieces)]
	copy(b.pieces, src.pieces)
	copy(b.occupant, src.occupant)
	b.anchor = src.anchor
	b.winner = src.winner
}

func (b *Board) Slot() int              { return b.slot }
func (b *Board) Template() *Template    { return b.tpl }
func (b *Board) SetObserver(o Observer) { b.observer = o }
func (b *Board) Winner() Player         { return b.winner }
func (b *Board) NumPieces() int         { return len(b.pieces) }
func (b *Board) Piece(i int) Piece      { return b.pieces[i] }

// Pieces exposes the piece list. Callers must not modify it.
func (b *Board) Pieces() []Piece { return b.pieces }

// PieceOn returns the index of the piece on square sq, or -1.
func (b *Board) PieceOn(sq int) int { return int(b.occupant[sq]) }

// PieceAt returns the index of the piece at c, if any.
func (b *Board) PieceAt(c Coords) (int, bool) {
	sq, ok := b.tpl.Index(c)
	if !ok || b.occupant[sq] < 0 {
		return -1, false
	}
	return int(b.occupant[sq]), true
}

// Coords returns the position of piece i.
func (b *Board) Coords(i int) Coords {
	return b.tpl.squares[b.pieces[i].Square].Pos
}

// Anchor returns the piece the anchor sits on.
func (b *Board) Anchor() (int, bool) {
	return int(b.anchor), b.anchor >= 0
}

// IsAnchored reports whether piece i is held by the anchor.
func (b *Board) IsAnchored(i int) bool {
	return pushers[b.pieces[i].Kind].isAnchored(b, i)
}

func (b *Board) notify(c Change) {
	if b.observer != nil {
		b.observer.Observe(c)
	}
}

// land puts piece i on sq and decides the game if sq is an edge.
func (b *Board) land(i, sq int) {
	b.pieces[i].Square = sq
	b.occupant[sq] = int8(i)
	if b.tpl.squares[sq].Kind == Edge && b.winner == NoPlayer {
		b.winner = b.pieces[i].Owner.Other()
		b.notify(Change{Kind: ChangeWon, Piece: i, Owner: b.pieces[i].Owner,
			To: b.tpl.squares[sq].Pos, Winner: b.winner})
	}
}

// PlacePiece puts a new piece for owner on square sq and returns its index.
func (b *Board) PlacePiece(owner Player, kind PieceKind, sq int) (int, error) {
	switch {
	case sq < 0 || sq >= len(b.occupant):
		return -1, ErrNotOnBoard
	case len(b.pieces) >= MaxPieces:
		return -1, ErrTooManyPieces
	case b.tpl.squares[sq].Kind != Normal:
		return -1, ErrNotNormal
	case b.tpl.Territory(sq) != owner:
		return -1, ErrNotHomeTerritory
	case b.occupant[sq] >= 0:
		return -1, ErrOccupied
	}
	i := len(b.pieces)
	b.pieces = append(b.pieces, Piece{Owner: owner, Kind: kind, Square: sq})
	b.occupant[sq] = int8(i)
	b.notify(Change{Kind: ChangePlaced, Piece: i, Owner: owner, To: b.tpl.squares[sq].Pos})
	return i, nil
}

// flood runs a breadth-first search from start over empty normal squares
// and returns the squares reached, start excluded. The result aliases
// scratch memory and is valid until the next call.
func (b *Board) flood(start int) []int {
	clear(b.visited)
	b.visited[start] = true
	q := append(b.queue[:0], start)
	for head := 0; head < len(q); head++ {
		for _, n := range b.tpl.squares[q[head]].Neighbors {
			if b.visited[n] || b.tpl.squares[n].Kind != Normal || b.occupant[n] >= 0 {
				continue
			}
			b.visited[n] = true
			q = append(q, n)
		}
	}
	b.queue = q
	return q[1:]
}

// CheckMoves appends every square piece i can move to onto dst.
func (b *Board) CheckMoves(i int, dst []int) []int {
	return append(dst, b.flood(b.pieces[i].Square)...)
}

// CanMove reports whether piece i can reach square to.
func (b *Board) CanMove(i, to int) bool {
	start := b.pieces[i].Square
	b.flood(start)
	return to != start && b.visited[to]
}

// Move moves piece i to square to after checking that it is reachable.
func (b *Board) Move(i, to int) error {
	if b.winner != NoPlayer {
		return ErrGameOver
	}
	if to < 0 || to >= len(b.occupant) || !b.CanMove(i, to) {
		return ErrUnreachable
	}
	b.Relocate(i, to)
	return nil
}

// Relocate moves piece i to square to without checking reachability. Use
// it only with targets taken from CheckMoves.
func (b *Board) Relocate(i, to int) {
	from := b.pieces[i].Square
	b.occupant[from] = -1
	b.land(i, to)
	b.notify(Change{Kind: ChangeMoved, Piece: i, Owner: b.pieces[i].Owner,
		From: b.tpl.squares[from].Pos, To: b.tpl.squares[to].Pos})
}

// CanBePushed reports whether piece target can be pushed by pusher. The
// square beyond target along the push line must exist and not be a rail;
// if it holds a piece, that piece must be pushable in turn. The anchored
// piece cannot be pushed.
func (b *Board) CanBePushed(target, pusher int) bool {
	from := b.tpl.squares[b.pieces[pusher].Square].Pos
	at := b.pieces[target].Square
	to := b.tpl.squares[at].Pos
	dx, dy := to.X-from.X, to.Y-from.Y
	if abs(dx)+abs(dy) != 1 {
		return false
	}
	return b.chainFree(at, dx, dy)
}

// chainFree walks the line of pieces starting on square at in direction
// (dx, dy) and reports whether all of them can shift one square.
func (b *Board) chainFree(at, dx, dy int) bool {
	for {
		if b.IsAnchored(int(b.occupant[at])) {
			return false
		}
		next, ok := b.tpl.Step(at, dx, dy)
		if !ok || b.tpl.squares[next].Kind == Rail {
			return false
		}
		if b.occupant[next] < 0 {
			return true
		}
		at = next
	}
}

// CanPush reports whether piece i can push the piece on square target.
func (b *Board) CanPush(i, target int) bool {
	if target < 0 || target >= len(b.occupant) {
		return false
	}
	return pushers[b.pieces[i].Kind].canPush(b, i, target)
}

// CheckPushes appends every square piece i can push into onto dst.
func (b *Board) CheckPushes(i int, dst []int) []int {
	return pushers[b.pieces[i].Kind].checkPushes(b, i, dst)
}

// Push moves piece i into square target, shifting the line of pieces in
// front of it by one square. The pusher takes the anchor.
func (b *Board) Push(i, target int) error {
	if b.winner != NoPlayer {
		return ErrGameOver
	}
	if !b.CanPush(i, target) {
		return ErrIllegalPush
	}
	from := b.pieces[i].Square
	fp, tp := b.tpl.squares[from].Pos, b.tpl.squares[target].Pos
	dx, dy := tp.X-fp.X, tp.Y-fp.Y

	line := append(b.queue[:0], from)
	for sq := target; b.occupant[sq] >= 0; {
		line = append(line, sq)
		next, ok := b.tpl.Step(sq, dx, dy)
		if !ok {
			break
		}
		sq = next
	}
	b.queue = line
	// Shift from the far end so every destination is empty when filled.
	for k := len(line) - 1; k >= 0; k-- {
		sq := line[k]
		p := int(b.occupant[sq])
		next, _ := b.tpl.Step(sq, dx, dy)
		b.occupant[sq] = -1
		kind := ChangeDisplaced
		if k == 0 {
			kind = ChangePushed
		}
		b.land(p, next)
		b.notify(Change{Kind: kind, Piece: p, Owner: b.pieces[p].Owner,
			From: b.tpl.squares[sq].Pos, To: b.tpl.squares[next].Pos})
	}
	b.anchor = int8(i)
	return nil
}

// Forfeit ends the game in favor of p's opponent.
func (b *Board) Forfeit(p Player) {
	if b.winner != NoPlayer {
		return
	}
	b.winner = p.Other()
	b.notify(Change{Kind: ChangeWon, Piece: -1, Owner: p, Winner: b.winner})
}

// AnyEdgeAdjacent reports whether any piece of either side touches an edge.
func (b *Board) AnyEdgeAdjacent() bool {
	for i := range b.pieces {
		if b.tpl.edgeAdjacent[b.pieces[i].Square] {
			return true
		}
	}
	return false
}

// Allies counts the pieces of the same owner orthogonally adjacent to
// piece i.
func (b *Board) Allies(i int) int {
	n := 0
	owner := b.pieces[i].Owner
	for _, sq := range b.tpl.squares[b.pieces[i].Square].Neighbors {
		if o := b.occupant[sq]; o >= 0 && b.pieces[o].Owner == owner {
			n++
		}
	}
	return n
}

// Displaceable reports whether some push line through piece i could move
// it: the square behind it is a normal square an enemy square piece holds
// or could step into, and the line in front can shift.
func (b *Board) Displaceable(i int) bool {
	sq := b.pieces[i].Square
	enemy := b.pieces[i].Owner.Other()
	for _, d := range directions {
		behind, ok := b.tpl.Step(sq, -d.X, -d.Y)
		if !ok || b.tpl.squares[behind].Kind != Normal {
			continue
		}
		if o := b.occupant[behind]; o >= 0 {
			if b.pieces[o].Owner != enemy || b.pieces[o].Kind != SquarePiece {
				continue
			}
		}
		if b.chainFree(sq, d.X, d.Y) {
			return true
		}
	}
	return false
}

// RotateInto writes the half-turn image of b into dst. Both boards must
// share a template.
func (b *Board) RotateInto(dst *Board) {
	if b.tpl != dst.tpl {
		panic("board: RotateInto across templates")
	}
	dst.Reset()
	dst.pieces = dst.pieces[:len(b.pieces)]
	for i, p := range b.pieces {
		p.Square = b.tpl.Rotate(p.Square)
		dst.pieces[i] = p
		dst.occupant[p.Square] = int8(i)
	}
	dst.anchor = b.anchor
	dst.winner = b.winner
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
