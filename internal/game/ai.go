package game

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Difficulty selects how the AI picks among scored columns.
type Difficulty string

const (
	AIEasy   Difficulty = "easy"
	AINormal Difficulty = "normal"
	AIHard   Difficulty = "hard"
)

const (
	// Easy and Normal weight-sample among this many top-scoring columns.
	aiEasyMaxChoices   = 5
	aiNormalMaxChoices = 3

	// Cap for utilities built up from the multiplier rules.
	aiThirdMaxUtility = 0.89
)

var aiRandMu sync.Mutex
var aiRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// SeedAI reseeds the AI's RNG. Tests use this for deterministic tie-breaks.
func SeedAI(seed int64) {
	aiRandMu.Lock()
	aiRand = rand.New(rand.NewSource(seed))
	aiRandMu.Unlock()
}

var ErrNoLegalColumn = errors.New("all columns are full")

type scoredColumn struct {
	col     int
	utility float64
}

// ChooseColumn returns the column (0..6) the AI plays for the given side.
func ChooseColumn(difficulty Difficulty, side Side, b *Board) (int, error) {
	var scored []scoredColumn
	for col := 0; col < Cols; col++ {
		if u, ok := utilityForColumn(side, col, b); ok {
			scored = append(scored, scoredColumn{col, u})
		}
	}
	if len(scored) == 0 {
		return 0, ErrNoLegalColumn
	}

	aiRandMu.Lock()
	defer aiRandMu.Unlock()

	// Shuffle before ranking so equal utilities break ties randomly.
	aiRand.Shuffle(len(scored), func(i, j int) { scored[i], scored[j] = scored[j], scored[i] })

	switch difficulty {
	case AIEasy:
		return pickAmongTop(scored, aiEasyMaxChoices), nil
	case AINormal:
		return pickAmongTop(scored, aiNormalMaxChoices), nil
	default:
		// Hard always takes the best option.
		best := scored[0]
		for _, sc := range scored[1:] {
			if sc.utility > best.utility {
				best = sc
			}
		}
		return best.col, nil
	}
}

func pickAmongTop(scored []scoredColumn, amount int) int {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].utility > scored[j].utility })
	if amount > len(scored) {
		amount = len(scored)
	}
	if amount > 1 {
		return scored[aiRand.Intn(amount)].col
	}
	return scored[0].col
}

// utilityForColumn scores dropping side's token in col, in [0, 1].
// ok=false when the column is full.
func utilityForColumn(side Side, col int, b *Board) (float64, bool) {
	idx, ok := b.Drop(col)
	if !ok {
		return 0, false
	}

	// Winning move.
	if blocksRunOf(side.Opposite(), idx, 3, b) {
		return 1.0, true
	}
	// Blocks the opponent's winning move.
	if blocksRunOf(side, idx, 3, b) {
		return 0.9, true
	}

	utility := 0.5
	if blocksRunOf(side.Opposite(), idx, 2, b) {
		// Connects two of this side's tokens.
		utility = capUtility(utility * 1.22)
	}
	if blocksRunOf(side, idx, 2, b) {
		// Blocks two of the opponent's tokens.
		utility = capUtility(utility * 1.11)
	}
	if blocksRunOf(side.Opposite(), idx, 1, b) {
		// Connects one of this side's tokens.
		utility = capUtility(utility * 1.05)
	}

	// Penalize setting up the opponent's win in the cell directly above.
	if idx >= Cols {
		probe := *b
		probe[idx] = side.Cell()
		probe[idx-Cols] = side.Opposite().Cell()
		switch outcome, _ := probe.CheckWinDraw(); {
		case outcome == OutcomeCyanWon && side.Opposite() == SideCyan,
			outcome == OutcomeMagentaWon && side.Opposite() == SideMagenta:
			utility *= 0.1
		}
	}

	return utility, true
}

func capUtility(u float64) float64 {
	if u >= aiThirdMaxUtility {
		return aiThirdMaxUtility
	}
	return u
}

// blocksRunOf reports whether placing a token at idx blocks player's opponent
// holding "amount" adjacent tokens in some direction through idx. Horizontal
// and diagonal counts accumulate across idx since a run may pass through it;
// the vertical count only looks down.
func blocksRunOf(player Side, idx, amount int, b *Board) bool {
	opposite := player.Opposite()

	count := 0
	// left, then right without resetting
	for t := idx; t%Cols > 0; {
		t--
		if !opposite.owns(b[t]) {
			break
		}
		if count++; count >= amount {
			return true
		}
	}
	for t := idx; t%Cols < Cols-1; {
		t++
		if !opposite.owns(b[t]) {
			break
		}
		if count++; count >= amount {
			return true
		}
	}

	// down
	count = 0
	for t := idx; t/Cols < Rows-1; {
		t += Cols
		if !opposite.owns(b[t]) {
			break
		}
		if count++; count >= amount {
			return true
		}
	}

	// down-left, then up-right without resetting
	count = 0
	for t := idx; t%Cols > 0 && t/Cols < Rows-1; {
		t = t - 1 + Cols
		if !opposite.owns(b[t]) {
			break
		}
		if count++; count >= amount {
			return true
		}
	}
	for t := idx; t%Cols < Cols-1 && t/Cols > 0; {
		t = t + 1 - Cols
		if !opposite.owns(b[t]) {
			break
		}
		if count++; count >= amount {
			return true
		}
	}

	// down-right, then up-left without resetting
	count = 0
	for t := idx; t%Cols < Cols-1 && t/Cols < Rows-1; {
		t = t + 1 + Cols
		if !opposite.owns(b[t]) {
			break
		}
		if count++; count >= amount {
			return true
		}
	}
	for t := idx; t%Cols > 0 && t/Cols > 0; {
		t = t - 1 - Cols
		if !opposite.owns(b[t]) {
			break
		}
		if count++; count >= amount {
			return true
		}
	}

	return false
}
