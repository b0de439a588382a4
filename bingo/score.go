// bingo/score.go
package bingo

import (
	"errors"
	"fmt"
)

const (
	DefaultLineBonus = 100
	DefaultGridBonus = 500
)

// NoLine marks a line category with nothing newly completed.
const NoLine = -1

var (
	ErrPositionOutOfRange = errors.New("bingo: position out of range")
	ErrTileNotCompleted   = errors.New("bingo: scored tile is not completed on the board")
)

// Board is the completion bitmap of one user on one grid. Started counts the
// tile records the user has, completed or not; a full grid only scores once
// every position has a record.
type Board struct {
	Completed [Size]bool
	Started   int
}

// Full reports whether every position has a record and every record is completed.
func (b *Board) Full() bool {
	if b.Started != Size {
		return false
	}
	for _, done := range b.Completed {
		if !done {
			return false
		}
	}
	return true
}

// Result is the outcome of completing one tile. Each index is NoLine when
// that category was not completed by this tile.
type Result struct {
	RowIndex    int  `json:"bingo_row"`
	ColIndex    int  `json:"bingo_col"`
	DiagIndex   int  `json:"bingo_diag"`
	FullGrid    bool `json:"full_bingo"`
	BonusPoints int  `json:"bingo_points"`
}

// Scorer holds the bonus values. Every completed line pays LineBonus,
// independently and additively; a full grid adds GridBonus on top.
type Scorer struct {
	LineBonus int
	GridBonus int
}

var DefaultScorer = Scorer{
	LineBonus: DefaultLineBonus,
	GridBonus: DefaultGridBonus,
}

// Score computes the lines that pos just completed. The board must already
// have pos marked as completed.
func (s Scorer) Score(b Board, pos int) (Result, error) {
	res := Result{RowIndex: NoLine, ColIndex: NoLine, DiagIndex: NoLine}
	if !ValidPosition(pos) {
		return res, fmt.Errorf("%w: %d", ErrPositionOutOfRange, pos)
	}
	if !b.Completed[pos] {
		return res, fmt.Errorf("%w: %d", ErrTileNotCompleted, pos)
	}

	row, col := Coords(pos)

	if Row(row).Complete(&b.Completed) {
		res.RowIndex = row
		res.BonusPoints += s.LineBonus
	}
	if Column(col).Complete(&b.Completed) {
		res.ColIndex = col
		res.BonusPoints += s.LineBonus
	}

	// Both diagonal conditions are checked on their own. On an even width no
	// tile satisfies both, so at most one diagonal pays per completion.
	if row == col {
		if d := MainDiagonal(); d.Complete(&b.Completed) {
			res.DiagIndex = d.Index
			res.BonusPoints += s.LineBonus
		}
	}
	if row+col == Width-1 {
		if d := AntiDiagonal(); d.Complete(&b.Completed) {
			res.DiagIndex = d.Index
			res.BonusPoints += s.LineBonus
		}
	}

	if b.Full() {
		res.FullGrid = true
		res.BonusPoints += s.GridBonus
	}
	return res, nil
}

// CompletedLines lists every line that is currently complete on the board.
func CompletedLines(b Board) []Line {
	var done []Line
	for _, l := range AllLines() {
		if l.Complete(&b.Completed) {
			done = append(done, l)
		}
	}
	return done
}
