package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksRunOfHorizontal(t *testing.T) {
	b := boardFromCells(t, map[int]Cell{
		50: CellMagenta, 51: CellMagenta, 52: CellMagenta,
	})

	// Placing cyan at either end blocks magenta's three-run.
	assert.True(t, blocksRunOf(SideCyan, 53, 3, &b))
	assert.True(t, blocksRunOf(SideCyan, 49, 3, &b))
	// Magenta has nothing to block there.
	assert.False(t, blocksRunOf(SideMagenta, 53, 3, &b))
}

func TestBlocksRunOfVertical(t *testing.T) {
	b := boardFromCells(t, map[int]Cell{
		37: CellMagenta, 44: CellMagenta, 51: CellMagenta,
	})
	assert.True(t, blocksRunOf(SideCyan, 30, 3, &b))
	assert.False(t, blocksRunOf(SideCyan, 30, 4, &b))
}

func TestBlocksRunOfCountsAcrossTheGap(t *testing.T) {
	// Tokens on both sides of idx share one count; a run may pass through it.
	b := boardFromCells(t, map[int]Cell{
		51: CellMagenta, 53: CellMagenta,
	})
	assert.True(t, blocksRunOf(SideCyan, 52, 2, &b))
	assert.False(t, blocksRunOf(SideCyan, 52, 3, &b))
}

func TestUtilityWinningMove(t *testing.T) {
	b := boardFromCells(t, map[int]Cell{
		49: CellCyan, 50: CellCyan, 51: CellCyan,
	})
	u, ok := utilityForColumn(SideCyan, 3, &b)
	require.True(t, ok)
	assert.Equal(t, 1.0, u)
}

func TestUtilityBlockingMove(t *testing.T) {
	b := boardFromCells(t, map[int]Cell{
		49: CellCyan, 50: CellCyan, 51: CellCyan,
	})
	u, ok := utilityForColumn(SideMagenta, 3, &b)
	require.True(t, ok)
	assert.Equal(t, 0.9, u)
}

func TestUtilityConnectMultipliers(t *testing.T) {
	// One own neighbor: 0.5 * 1.05.
	b := boardFromCells(t, map[int]Cell{49: CellCyan})
	u, ok := utilityForColumn(SideCyan, 1, &b)
	require.True(t, ok)
	assert.InDelta(t, 0.525, u, 1e-9)

	// Two own neighbors: 0.5 * 1.22 * 1.05.
	b = boardFromCells(t, map[int]Cell{49: CellCyan, 50: CellCyan})
	u, ok = utilityForColumn(SideCyan, 2, &b)
	require.True(t, ok)
	assert.InDelta(t, 0.6405, u, 1e-9)
}

func TestUtilityPenalizesGiftingTheWin(t *testing.T) {
	// Cyan threatens 42..45 across row six; magenta dropping into column four
	// lands at 53 and hands cyan the winning cell directly above (46).
	b := boardFromCells(t, map[int]Cell{
		43: CellCyan, 44: CellCyan, 45: CellCyan,
		50: CellMagenta, 51: CellCyan, 52: CellMagenta,
	})
	u, ok := utilityForColumn(SideMagenta, 4, &b)
	require.True(t, ok)
	assert.InDelta(t, 0.0525, u, 1e-9)
}

func TestUtilityFullColumn(t *testing.T) {
	var b Board
	for y := 0; y < Rows; y++ {
		b[y*Cols] = CellCyan
	}
	_, ok := utilityForColumn(SideMagenta, 0, &b)
	assert.False(t, ok)
}

func TestChooseColumnHardTakesTheWin(t *testing.T) {
	b := boardFromCells(t, map[int]Cell{
		49: CellCyan, 50: CellCyan, 51: CellCyan,
	})
	// The single winning column must be chosen regardless of tie-break order.
	for i := 0; i < 20; i++ {
		col, err := ChooseColumn(AIHard, SideCyan, &b)
		require.NoError(t, err)
		assert.Equal(t, 3, col)
	}
}

func TestChooseColumnHardBlocksTheWin(t *testing.T) {
	b := boardFromCells(t, map[int]Cell{
		49: CellCyan, 50: CellCyan, 51: CellCyan,
	})
	for i := 0; i < 20; i++ {
		col, err := ChooseColumn(AIHard, SideMagenta, &b)
		require.NoError(t, err)
		assert.Equal(t, 3, col)
	}
}

func TestChooseColumnEasyAndNormalReturnLegalColumns(t *testing.T) {
	SeedAI(1)
	var b Board
	for _, difficulty := range []Difficulty{AIEasy, AINormal} {
		col, err := ChooseColumn(difficulty, SideCyan, &b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, col, 0)
		assert.Less(t, col, Cols)
	}
}

func TestChooseColumnFullBoard(t *testing.T) {
	var b Board
	for i := range b {
		b[i] = CellCyan
	}
	_, err := ChooseColumn(AIHard, SideMagenta, &b)
	assert.ErrorIs(t, err, ErrNoLegalColumn)
}
