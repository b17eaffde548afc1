package transposition

import (
	"slices"

	"github.com/ben-axnick/PFCloneLogic/board"
)

// Transform is one of the symmetries under which a position keeps its
// value: a half turn of the board, and swapping the colours (which negates
// the score).
type Transform uint8

const (
	Identity Transform = iota
	Rotated
	Inverted
	RotatedInverted
)

var AllTransforms = [...]Transform{Identity, Rotated, Inverted, RotatedInverted}

func (t Transform) rotates() bool { return t == Rotated || t == RotatedInverted }
func (t Transform) inverts() bool { return t == Inverted || t == RotatedInverted }

func (t Transform) String() string {
	switch t {
	case Rotated:
		return "rotated"
	case Inverted:
		return "inverted"
	case RotatedInverted:
		return "rotated-inverted"
	}
	return "identity"
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

var groupRunes = [2][2]byte{
	board.P1: {board.RoundPiece: board.P1Round, board.SquarePiece: board.P1Square},
	board.P2: {board.RoundPiece: board.P2Round, board.SquarePiece: board.P2Square},
}

// Signer builds position signatures. It reuses its buffers, so each
// goroutine needs its own.
//
// A signature is the side to move, then for each owner and kind the
// squares of those pieces in ascending order as fixed-width base-36
// coordinate pairs, then the anchor's pair:
//
//	1r3132s33R4244S43@43
type Signer struct {
	buf    []byte
	groups [2][2][]int
}

func NewSigner() *Signer {
	s := &Signer{buf: make([]byte, 0, 64)}
	for o := range s.groups {
		for k := range s.groups[o] {
			s.groups[o][k] = make([]int, 0, board.MaxPieces)
		}
	}
	return s
}

// Sign returns the signature of b with toMove to play, seen through t.
func (s *Signer) Sign(b *board.Board, toMove board.Player, t Transform) string {
	tpl := b.Template()
	for o := range s.groups {
		for k := range s.groups[o] {
			s.groups[o][k] = s.groups[o][k][:0]
		}
	}
	owner := func(p board.Player) board.Player {
		if t.inverts() {
			return p.Other()
		}
		return p
	}
	square := func(sq int) int {
		if t.rotates() {
			return tpl.Rotate(sq)
		}
		return sq
	}
	for _, p := range b.Pieces() {
		o := owner(p.Owner)
		s.groups[o][p.Kind] = append(s.groups[o][p.Kind], square(p.Square))
	}

	buf := s.buf[:0]
	if owner(toMove) == board.P1 {
		buf = append(buf, '1')
	} else {
		buf = append(buf, '2')
	}
	for o := range s.groups {
		for k := range s.groups[o] {
			g := s.groups[o][k]
			slices.Sort(g)
			buf = append(buf, groupRunes[o][k])
			for _, sq := range g {
				buf = appendPair(buf, tpl.Coords(sq))
			}
		}
	}
	buf = append(buf, '@')
	if a, ok := b.Anchor(); ok {
		buf = appendPair(buf, tpl.Coords(square(b.Piece(a).Square)))
	} else {
		buf = append(buf, '-', '-')
	}
	s.buf = buf
	return string(buf)
}

func appendPair(buf []byte, c board.Coords) []byte {
	return append(buf, base36[c.X], base36[c.Y])
}
