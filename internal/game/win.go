package game

// Outcome is the terminal state an encoded board represents, if any.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeCyanWon
	OutcomeMagentaWon
	OutcomeDraw
)

// WinKind is the orientation of a winning run.
type WinKind uint8

const (
	WinNone WinKind = iota
	WinHorizontal
	WinVertical
	// WinDiagonalUp runs up-right from the starting cell.
	WinDiagonalUp
	// WinDiagonalDown runs down-right from the starting cell.
	WinDiagonalDown
)

// WinLine identifies a winning run by orientation and starting cell index.
type WinLine struct {
	Kind WinKind
	Pos  int
}

// Cells returns the four cell indices of the run.
func (w WinLine) Cells() [4]int {
	var cells [4]int
	for i := 0; i < 4; i++ {
		switch w.Kind {
		case WinHorizontal:
			cells[i] = w.Pos + i
		case WinVertical:
			cells[i] = w.Pos + i*Cols
		case WinDiagonalUp:
			cells[i] = w.Pos + i - i*Cols
		case WinDiagonalDown:
			cells[i] = w.Pos + i + i*Cols
		}
	}
	return cells
}

// CheckWinDraw scans the whole board for a four-in-a-row run in all four
// orientations, or a draw when the board is full. OutcomeNone means the game
// is still going.
func (b *Board) CheckWinDraw() (Outcome, WinLine) {
	hasEmpty := false
	for _, c := range b {
		if c == CellEmpty {
			hasEmpty = true
			break
		}
	}

	for y := 0; y < Rows; y++ {
		for x := 0; x < Cols-3; x++ {
			idx := x + y*Cols
			if o := b.runAt(idx, 1); o != OutcomeNone {
				return o, WinLine{WinHorizontal, idx}
			}
		}
	}
	for y := 0; y < Rows-3; y++ {
		for x := 0; x < Cols; x++ {
			idx := x + y*Cols
			if o := b.runAt(idx, Cols); o != OutcomeNone {
				return o, WinLine{WinVertical, idx}
			}
		}
	}
	for y := 3; y < Rows; y++ {
		for x := 0; x < Cols-3; x++ {
			idx := x + y*Cols
			if o := b.runAt(idx, 1-Cols); o != OutcomeNone {
				return o, WinLine{WinDiagonalUp, idx}
			}
		}
	}
	for y := 0; y < Rows-3; y++ {
		for x := 0; x < Cols-3; x++ {
			idx := x + y*Cols
			if o := b.runAt(idx, 1+Cols); o != OutcomeNone {
				return o, WinLine{WinDiagonalDown, idx}
			}
		}
	}

	if !hasEmpty {
		return OutcomeDraw, WinLine{}
	}
	return OutcomeNone, WinLine{}
}

// runAt reports a run of four identical non-empty cells starting at idx with
// the given index step. Bounds are the caller's responsibility.
func (b *Board) runAt(idx, step int) Outcome {
	first := b[idx]
	if first == CellEmpty {
		return OutcomeNone
	}
	for i := 1; i < 4; i++ {
		if b[idx+i*step] != first {
			return OutcomeNone
		}
	}
	if first == CellCyan || first == CellCyanWin {
		return OutcomeCyanWon
	}
	return OutcomeMagentaWon
}
