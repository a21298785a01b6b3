// Package board holds the static ludo board geometry: the shared ring,
// each color's movement path, the safe cells and the token step sentinels.
// Everything here is immutable lookup data.
package board

type Color string

const (
	Red    Color = "red"
	Green  Color = "green"
	Yellow Color = "yellow"
	Blue   Color = "blue"
)

const (
	// RingSize is the number of cells on the shared outer ring.
	RingSize = 52

	// RingSteps is how many steps of a color's path lie on the ring
	// before the path turns into its private home stretch.
	RingSteps = 51

	// HomeStretchLen is the number of private cells after the ring,
	// the last of which is the finish cell.
	HomeStretchLen = 6

	// PathLen is the total number of steps from entry to finish.
	PathLen = RingSteps + HomeStretchLen

	// TokensPerColor is the number of tokens each color plays with.
	TokensPerColor = 4
)

// Token step sentinels. A step in [0, PathLen-1] is a position on the
// color's path; the last index is the finish cell.
const (
	StepHome     = -1
	StepFinished = -2
)

// startOffset is the ring cell where each color's path begins.
var startOffset = map[Color]int{
	Red:    0,
	Green:  13,
	Yellow: 26,
	Blue:   39,
}

// homeBase gives each color a disjoint cell-id range for its home
// stretch, so cross-color cell equality can never match there.
var homeBase = map[Color]int{
	Red:    100,
	Green:  110,
	Yellow: 120,
	Blue:   130,
}

var safeCells = map[int]bool{
	0:  true,
	8:  true,
	13: true,
	21: true,
	26: true,
	34: true,
	39: true,
	47: true,
}

// TurnPriority is the fixed color ordering used to compute turn order at
// game start; it is rotated so the host's color leads.
var TurnPriority = []Color{Red, Green, Yellow, Blue}

// Cell maps a color's path step to a board cell id. Steps below
// RingSteps walk the shared ring from the color's start offset; later
// steps walk the color's private home stretch.
func Cell(c Color, step int) int {
	if step < RingSteps {
		return (startOffset[c] + step) % RingSize
	}
	return homeBase[c] + (step - RingSteps)
}

// IsSafe reports whether tokens on the given cell are immune to capture.
// Home-stretch cells are private per color, so they never need to be
// listed here.
func IsSafe(cell int) bool {
	return safeCells[cell]
}

// OnPath reports whether a step value is a live position on the path.
func OnPath(step int) bool {
	return step >= 0 && step < PathLen
}

// StartCell returns the ring cell where the color enters play.
func StartCell(c Color) int {
	return startOffset[c]
}
