package board

// Layouts are rune-coded rows, top row first:
//
//	# normal square, pieces may stand and move here
//	_ edge, a piece that lands here is off the board
//	= rail, blocks pushes and movement
const (
	LayoutStandard = "standard"
	LayoutCompact  = "compact"
)

var (
	// StandardLayout is the regulation Push Fight board.
	StandardLayout = []string{
		`__=====_`,
		`__#####_`,
		`########`,
		`########`,
		`_#####__`,
		`_=====__`,
	}

	// CompactLayout is a smaller board, handy for quick games and tests.
	CompactLayout = []string{
		`_====_`,
		`_####_`,
		`######`,
		`_####_`,
		`_====_`,
	}
)

// Layouts maps layout names to their row descriptions.
var Layouts = map[string][]string{
	LayoutStandard: StandardLayout,
	LayoutCompact:  CompactLayout,
}
