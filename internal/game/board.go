package game

import "fmt"

const (
	Rows = 8
	Cols = 7
	// Slots is the number of cells on the board.
	Slots = Rows * Cols
)

// Cell is the state of a single board slot.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellCyan
	CellMagenta
	CellCyanWin
	CellMagentaWin
)

// Side is one of the two players of a game.
type Side uint8

const (
	SideCyan Side = iota
	SideMagenta
)

func (s Side) Opposite() Side {
	if s == SideCyan {
		return SideMagenta
	}
	return SideCyan
}

func (s Side) Cell() Cell {
	if s == SideCyan {
		return CellCyan
	}
	return CellMagenta
}

func (s Side) String() string {
	if s == SideCyan {
		return "cyan"
	}
	return "magenta"
}

// owns returns whether c is a token (winning or not) belonging to s.
func (s Side) owns(c Cell) bool {
	if s == SideCyan {
		return c == CellCyan || c == CellCyanWin
	}
	return c == CellMagenta || c == CellMagentaWin
}

// Board is the 7x8 grid in row-major order, row 0 at the top.
type Board [Slots]Cell

// NewBoardString returns the encoding of an empty board.
func NewBoardString() string {
	b := make([]byte, Slots)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

// ParseBoard decodes the 56-character board string. The just-placed markers
// (f, g, h, i) decode to the plain token of their side; unknown characters
// decode to empty.
func ParseBoard(s string) (Board, error) {
	var b Board
	if len(s) != Slots {
		return b, fmt.Errorf("board string length %d, want %d", len(s), Slots)
	}
	for i := 0; i < Slots; i++ {
		switch s[i] {
		case 'a':
			b[i] = CellEmpty
		case 'b', 'f':
			b[i] = CellCyan
		case 'd', 'h':
			b[i] = CellCyanWin
		case 'c', 'g':
			b[i] = CellMagenta
		case 'e', 'i':
			b[i] = CellMagentaWin
		default:
			b[i] = CellEmpty
		}
	}
	return b, nil
}

// Drop resolves a placement position to the cell the token comes to rest in.
// pos may be a column index (0..6, a cell in the top row) or any cell index;
// the token falls from that cell to the lowest empty cell below it. The drop
// is legal only when pos itself is empty.
func (b *Board) Drop(pos int) (int, bool) {
	if pos < 0 || pos >= Slots {
		return 0, false
	}
	if b[pos] != CellEmpty {
		return 0, false
	}
	for pos+Cols < Slots && b[pos+Cols] == CellEmpty {
		pos += Cols
	}
	return pos, true
}

// ColumnOpen reports whether side's token can be dropped from the top of
// column col.
func (b *Board) ColumnOpen(col int) bool {
	if col < 0 || col >= Cols {
		return false
	}
	return b[col] == CellEmpty
}

// Encode returns the 56-character board string, marking the winning run (if
// any) and the just-placed cell at index placed. The second return value is
// the outcome the encoded board represents.
func (b *Board) Encode(placed int) (string, Outcome) {
	winCells := map[int]bool{}
	outcome, line := b.CheckWinDraw()
	if outcome == OutcomeCyanWon || outcome == OutcomeMagentaWon {
		for _, idx := range line.Cells() {
			winCells[idx] = true
		}
	}

	out := make([]byte, Slots)
	for i := 0; i < Slots; i++ {
		switch b[i] {
		case CellEmpty:
			out[i] = 'a'
		case CellCyan, CellCyanWin:
			switch {
			case winCells[i] && i == placed:
				out[i] = 'h'
			case winCells[i]:
				out[i] = 'd'
			case i == placed:
				out[i] = 'f'
			default:
				out[i] = 'b'
			}
		case CellMagenta, CellMagentaWin:
			switch {
			case winCells[i] && i == placed:
				out[i] = 'i'
			case winCells[i]:
				out[i] = 'e'
			case i == placed:
				out[i] = 'g'
			default:
				out[i] = 'c'
			}
		}
	}
	return string(out), outcome
}
