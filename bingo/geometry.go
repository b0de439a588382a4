// bingo/geometry.go
package bingo

// Grid geometry: a Width x Width square indexed row-major.
const (
	Width = 4
	Size  = Width * Width
)

type LineKind string

const (
	LineRow      LineKind = "row"
	LineColumn   LineKind = "column"
	LineDiagonal LineKind = "diagonal"
)

// Line is one of the fixed rows, columns or diagonals of the grid.
// Diagonal indexes follow the client convention: 0 for the main diagonal,
// Width-1 for the anti-diagonal (the column of its first-row tile).
type Line struct {
	Kind      LineKind   `json:"kind"`
	Index     int        `json:"index"`
	Positions [Width]int `json:"positions"`
}

func ValidPosition(pos int) bool {
	return pos >= 0 && pos < Size
}

// Coords converts a position into its row and column.
func Coords(pos int) (row, col int) {
	return pos / Width, pos % Width
}

func Row(r int) Line {
	l := Line{Kind: LineRow, Index: r}
	for i := range Width {
		l.Positions[i] = r*Width + i
	}
	return l
}

func Column(c int) Line {
	l := Line{Kind: LineColumn, Index: c}
	for i := range Width {
		l.Positions[i] = c + i*Width
	}
	return l
}

// MainDiagonal runs top-left to bottom-right in steps of Width+1.
func MainDiagonal() Line {
	l := Line{Kind: LineDiagonal, Index: 0}
	for i := range Width {
		l.Positions[i] = i * (Width + 1)
	}
	return l
}

// AntiDiagonal runs top-right to bottom-left in steps of Width-1,
// spanning positions [Width-1, Size-Width].
func AntiDiagonal() Line {
	l := Line{Kind: LineDiagonal, Index: Width - 1}
	for i := range Width {
		l.Positions[i] = (i + 1) * (Width - 1)
	}
	return l
}

// AllLines enumerates every row, then every column, then both diagonals.
func AllLines() []Line {
	lines := make([]Line, 0, 2*Width+2)
	for r := range Width {
		lines = append(lines, Row(r))
	}
	for c := range Width {
		lines = append(lines, Column(c))
	}
	return append(lines, MainDiagonal(), AntiDiagonal())
}

// LinesThrough returns the lines that contain pos: its row, its column and
// any diagonal it lies on.
func LinesThrough(pos int) []Line {
	if !ValidPosition(pos) {
		return nil
	}
	row, col := Coords(pos)
	lines := []Line{Row(row), Column(col)}
	if row == col {
		lines = append(lines, MainDiagonal())
	}
	if row+col == Width-1 {
		lines = append(lines, AntiDiagonal())
	}
	return lines
}

// Complete reports whether every tile on the line is completed.
func (l Line) Complete(completed *[Size]bool) bool {
	for _, p := range l.Positions {
		if !completed[p] {
			return false
		}
	}
	return true
}
