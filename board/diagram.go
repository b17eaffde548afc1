package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/logrusorgru/aurora"
)

// Diagram runes for pieces. Lower case is P1, upper case P2.
const (
	P1Round  = 'r'
	P1Square = 's'
	P2Round  = 'R'
	P2Square = 'S'
)

var ErrBadDiagram = errors.New("diagram does not match the layout")

func pieceRune(p Piece) rune {
	switch {
	case p.Owner == P1 && p.Kind == RoundPiece:
		return P1Round
	case p.Owner == P1:
		return P1Square
	case p.Kind == RoundPiece:
		return P2Round
	}
	return P2Square
}

// ParseDiagram builds a board of the template from a diagram.
func ParseDiagram(tpl *Template, rows []string) (*Board, error) {
	b := New(tpl)
	if err := b.LoadDiagram(rows); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadDiagram resets b and fills it from a diagram: the layout rows with
// pieces drawn over the terrain. Territory is not enforced, so any
// mid-game position can be described. A piece drawn on an edge decides
// the game.
func (b *Board) LoadDiagram(rows []string) error {
	b.Reset()
	if len(rows) != b.tpl.height {
		return fmt.Errorf("%w: %d rows, want %d", ErrBadDiagram, len(rows), b.tpl.height)
	}
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != b.tpl.width {
			return fmt.Errorf("%w: row %d", ErrBadDiagram, y)
		}
		for x, r := range runes {
			sq := y*b.tpl.width + x
			kind := b.tpl.squares[sq].Kind
			var p Piece
			switch r {
			case P1Round:
				p = Piece{Owner: P1, Kind: RoundPiece}
			case P1Square:
				p = Piece{Owner: P1, Kind: SquarePiece}
			case P2Round:
				p = Piece{Owner: P2, Kind: RoundPiece}
			case P2Square:
				p = Piece{Owner: P2, Kind: SquarePiece}
			default:
				if r != kind.Rune() {
					return fmt.Errorf("%w: %q at [%d,%d]", ErrBadDiagram, r, x, y)
				}
				continue
			}
			if kind == Rail {
				return fmt.Errorf("%w: piece on rail at [%d,%d]", ErrBadDiagram, x, y)
			}
			if len(b.pieces) >= MaxPieces {
				return ErrTooManyPieces
			}
			i := len(b.pieces)
			b.pieces = append(b.pieces, p)
			b.land(i, sq)
		}
	}
	return nil
}

// SetAnchor puts the anchor on piece i; a negative i lifts it.
func (b *Board) SetAnchor(i int) {
	if i < 0 {
		b.anchor = -1
		return
	}
	b.anchor = int8(i)
}

// Diagram renders the position in diagram notation.
func (b *Board) Diagram() []string {
	rows := b.tpl.Rows()
	for y := range rows {
		runes := []rune(rows[y])
		for x := range runes {
			if o := b.occupant[y*b.tpl.width+x]; o >= 0 {
				runes[x] = pieceRune(b.pieces[o])
			}
		}
		rows[y] = string(runes)
	}
	return rows
}

func (b *Board) String() string {
	return b.ToDisplayText(false)
}

// ToDisplayText renders the board with coordinates for a terminal. With
// color on, P1 is cyan, P2 red and the anchored piece is shown reversed.
func (b *Board) ToDisplayText(color bool) string {
	au := aurora.NewAurora(color)
	var sb strings.Builder
	sb.WriteString("   ")
	for x := 0; x < b.tpl.width; x++ {
		fmt.Fprintf(&sb, "%-2d", x)
	}
	sb.WriteString("\n")
	for y := 0; y < b.tpl.height; y++ {
		fmt.Fprintf(&sb, "%2d ", y)
		for x := 0; x < b.tpl.width; x++ {
			sq := y*b.tpl.width + x
			o := b.occupant[sq]
			if o < 0 {
				sb.WriteString(au.Faint(string(b.tpl.squares[sq].Kind.Rune())).String())
			} else {
				v := au.Cyan(string(pieceRune(b.pieces[o])))
				if b.pieces[o].Owner == P2 {
					v = au.Red(string(pieceRune(b.pieces[o])))
				}
				if int(o) == int(b.anchor) {
					v = v.Reverse()
				}
				sb.WriteString(v.String())
			}
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}
	if a, ok := b.Anchor(); ok {
		fmt.Fprintf(&sb, "anchor: %v\n", b.Coords(a))
	}
	if b.winner != NoPlayer {
		fmt.Fprintf(&sb, "winner: %v\n", b.winner)
	}
	return sb.String()
}
