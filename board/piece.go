package board

import (
	"fmt"
	"strings"
)

// Player identifies a side. NoPlayer marks "nobody", e.g. no winner yet.
type Player uint8

const (
	P1 Player = iota
	P2
	NoPlayer
)

func (p Player) Other() Player {
	switch p {
	case P1:
		return P2
	case P2:
		return P1
	}
	return NoPlayer
}

func (p Player) String() string {
	switch p {
	case P1:
		return "P1"
	case P2:
		return "P2"
	}
	return "none"
}

// ParsePlayer reads a player the way String writes it. Case is ignored.
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(s) {
	case "p1":
		return P1, nil
	case "p2":
		return P2, nil
	case "none":
		return NoPlayer, nil
	}
	return NoPlayer, fmt.Errorf("unknown player %q", s)
}

// PieceKind is the shape of a piece. Only square pieces push.
type PieceKind uint8

const (
	RoundPiece PieceKind = iota
	SquarePiece
)

func (k PieceKind) String() string {
	if k == SquarePiece {
		return "square"
	}
	return "round"
}

// Piece is a piece on a board. Square is the index of the square it
// stands on; a piece is identified by its index in Board.Pieces.
type Piece struct {
	Owner  Player
	Kind   PieceKind
	Square int
}

// pusher is the push capability of a piece kind. Implementations are
// stateless so dispatch does not allocate.
type pusher interface {
	canPush(b *Board, piece, target int) bool
	checkPushes(b *Board, piece int, dst []int) []int
	isAnchored(b *Board, piece int) bool
}

var pushers = [...]pusher{
	RoundPiece:  roundPusher{},
	SquarePiece: squarePusher{},
}

type roundPusher struct{}

func (roundPusher) canPush(*Board, int, int) bool                { return false }
func (roundPusher) checkPushes(_ *Board, _ int, dst []int) []int { return dst }
func (roundPusher) isAnchored(*Board, int) bool                  { return false }

type squarePusher struct{}

func (squarePusher) canPush(b *Board, piece, target int) bool {
	from := b.pieces[piece].Square
	if !b.tpl.adjacent(from, target) {
		return false
	}
	occ := b.occupant[target]
	if occ < 0 {
		return false
	}
	return b.CanBePushed(int(occ), piece)
}

func (p squarePusher) checkPushes(b *Board, piece int, dst []int) []int {
	for _, n := range b.tpl.squares[b.pieces[piece].Square].Neighbors {
		if p.canPush(b, piece, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

func (squarePusher) isAnchored(b *Board, piece int) bool {
	return int(b.anchor) == piece
}
