package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SquareKind is the terrain of a square.
type SquareKind uint8

const (
	Normal SquareKind = iota
	Edge
	Rail
)

func (k SquareKind) Rune() rune {
	switch k {
	case Edge:
		return '_'
	case Rail:
		return '='
	}
	return '#'
}

func (k SquareKind) String() string {
	switch k {
	case Edge:
		return "edge"
	case Rail:
		return "rail"
	}
	return "normal"
}

// Coords is a position on the grid. X grows to the right, Y grows down.
type Coords struct {
	X, Y int
}

func (c Coords) String() string {
	return fmt.Sprintf("[%d,%d]", c.X, c.Y)
}

// ParseCoords accepts "3,1" or "[3,1]".
func ParseCoords(s string) (Coords, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Coords{}, fmt.Errorf("coords %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Coords{}, fmt.Errorf("coords %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Coords{}, fmt.Errorf("coords %q: %w", s, err)
	}
	return Coords{x, y}, nil
}

// A Square is one cell of a template. Neighbors holds the indices of the
// orthogonally adjacent squares, at most four.
type Square struct {
	Index     int
	Pos       Coords
	Kind      SquareKind
	Neighbors []int
}

func (s Square) String() string {
	return fmt.Sprintf("<%v %v>", s.Pos, s.Kind)
}

var (
	ErrEmptyLayout      = errors.New("layout has no rows")
	ErrRaggedLayout     = errors.New("layout rows differ in width")
	ErrUnknownTerrain   = errors.New("layout contains an unknown terrain rune")
	ErrAsymmetricLayout = errors.New("layout is not symmetric under a half turn")
	ErrLayoutTooLarge   = errors.New("layout is wider or taller than 36 squares")
	ErrOddWidth         = errors.New("layout width must be even to split territory")
)

const maxDimension = 36

// Template is the immutable part of a board: terrain, adjacency, the goal
// block and the territory split. Every board built from it shares it.
type Template struct {
	name         string
	width        int
	height       int
	squares      []Square
	edgeAdjacent []bool
	goal         []bool
}

// NewTemplate builds a template from rune-coded rows.
func NewTemplate(name string, rows []string) (*Template, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyLayout
	}
	w := len([]rune(rows[0]))
	h := len(rows)
	if w > maxDimension || h > maxDimension {
		return nil, ErrLayoutTooLarge
	}
	if w%2 != 0 {
		return nil, ErrOddWidth
	}
	t := &Template{
		name:         name,
		width:        w,
		height:       h,
		squares:      make([]Square, w*h),
		edgeAdjacent: make([]bool, w*h),
		goal:         make([]bool, w*h),
	}
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != w {
			return nil, fmt.Errorf("%w: row %d", ErrRaggedLayout, y)
		}
		for x, r := range runes {
			var k SquareKind
			switch r {
			case '#':
				k = Normal
			case '_':
				k = Edge
			case '=':
				k = Rail
			default:
				return nil, fmt.Errorf("%w: %q at [%d,%d]", ErrUnknownTerrain, r, x, y)
			}
			idx := y*w + x
			t.squares[idx] = Square{Index: idx, Pos: Coords{x, y}, Kind: k}
		}
	}
	for i := range t.squares {
		if t.squares[i].Kind != t.squares[t.Rotate(i)].Kind {
			return nil, fmt.Errorf("%w: %v", ErrAsymmetricLayout, t.squares[i].Pos)
		}
	}
	// Adjacency can only be computed once the whole grid exists.
	for i := range t.squares {
		sq := &t.squares[i]
		for _, d := range directions {
			if n, ok := t.Step(i, d.X, d.Y); ok {
				sq.Neighbors = append(sq.Neighbors, n)
				if t.squares[n].Kind == Edge {
					t.edgeAdjacent[i] = true
				}
			}
		}
	}
	for i := range t.squares {
		p := t.squares[i].Pos
		inX := p.X >= (w-1)/2 && p.X <= w/2
		inY := p.Y >= (h-1)/2 && p.Y <= h/2
		t.goal[i] = inX && inY && t.squares[i].Kind == Normal
	}
	return t, nil
}

// MustTemplate is NewTemplate for layouts known to be valid.
func MustTemplate(name string, rows []string) *Template {
	t, err := NewTemplate(name, rows)
	if err != nil {
		panic(err)
	}
	return t
}

var directions = [4]Coords{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func (t *Template) Name() string         { return t.name }
func (t *Template) Width() int           { return t.width }
func (t *Template) Height() int          { return t.height }
func (t *Template) NumSquares() int      { return len(t.squares) }
func (t *Template) Square(i int) *Square { return &t.squares[i] }
func (t *Template) Kind(i int) SquareKind {
	return t.squares[i].Kind
}
func (t *Template) Coords(i int) Coords { return t.squares[i].Pos }

// Index returns the square index at c, if c is on the grid.
func (t *Template) Index(c Coords) (int, bool) {
	if c.X < 0 || c.Y < 0 || c.X >= t.width || c.Y >= t.height {
		return 0, false
	}
	return c.Y*t.width + c.X, true
}

// Step returns the square one (dx, dy) step away from i.
func (t *Template) Step(i, dx, dy int) (int, bool) {
	p := t.squares[i].Pos
	return t.Index(Coords{p.X + dx, p.Y + dy})
}

// Rotate maps a square index to its image under a half turn of the board.
func (t *Template) Rotate(i int) int {
	return len(t.squares) - 1 - i
}

// EdgeAdjacent reports whether square i touches an edge square.
func (t *Template) EdgeAdjacent(i int) bool { return t.edgeAdjacent[i] }

// IsGoal reports whether square i belongs to the central goal block.
func (t *Template) IsGoal(i int) bool { return t.goal[i] }

// Territory returns the player allowed to place pieces on square i.
// The left half of the board belongs to P1.
func (t *Template) Territory(i int) Player {
	if t.squares[i].Pos.X < t.width/2 {
		return P1
	}
	return P2
}

func (t *Template) adjacent(a, b int) bool {
	for _, n := range t.squares[a].Neighbors {
		if n == b {
			return true
		}
	}
	return false
}

// Rows renders the terrain back into rune-coded rows.
func (t *Template) Rows() []string {
	rows := make([]string, t.height)
	var sb strings.Builder
	for y := 0; y < t.height; y++ {
		sb.Reset()
		for x := 0; x < t.width; x++ {
			sb.WriteRune(t.squares[y*t.width+x].Kind.Rune())
		}
		rows[y] = sb.String()
	}
	return rows
}
