// Package arbiter serializes every store mutation through a single goroutine.
// Producers (HTTP and websocket handlers) enqueue typed requests on a bounded
// queue; the arbiter owns the sole database handle, answers each request over
// its reply channel, and runs turn-timeout and cleanup maintenance between
// requests.
package arbiter

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"four-line-dropper/backend/internal/config"
	"four-line-dropper/backend/internal/game"
	"four-line-dropper/backend/internal/models"
)

var (
	// ErrBusy means the request queue was full and the request was dropped.
	ErrBusy = errors.New("backend busy")
	// ErrReplyTimeout means the arbiter did not answer within the reply window.
	ErrReplyTimeout = errors.New("timed out waiting for backend reply")
)

const (
	// dequeueTimeout bounds how long the loop blocks before a maintenance pass.
	dequeueTimeout = time.Second
	// replyTimeout bounds how long a producer waits for its answer.
	replyTimeout = 5 * time.Second
)

type Arbiter struct {
	db    *sql.DB
	cfg   config.Config
	queue chan request
	done  chan struct{}

	lastCleanup time.Time
}

func New(db *sql.DB, cfg config.Config) *Arbiter {
	size := cfg.RequestQueueSize
	if size <= 0 {
		size = config.DefaultRequestQueueSize
	}
	return &Arbiter{
		db:    db,
		cfg:   cfg,
		queue: make(chan request, size),
		done:  make(chan struct{}),
	}
}

// Run consumes requests until Stop is called. Between requests (and at least
// once per second) it advances timed-out turns and, once per cleanup
// interval, reaps stale rows.
func (a *Arbiter) Run() {
	for {
		select {
		case <-a.done:
			return
		case req := <-a.queue:
			req.execute(a)
		case <-time.After(dequeueTimeout):
		}
		a.maintain()
	}
}

func (a *Arbiter) Stop() {
	close(a.done)
}

// submit enqueues without blocking; a full queue sheds load instead of
// stalling producers.
func (a *Arbiter) submit(req request) error {
	select {
	case a.queue <- req:
		return nil
	default:
		return ErrBusy
	}
}

// maintain runs the turn-timeout sweep on every pass and the stale-row reap
// at most once per cleanup interval.
func (a *Arbiter) maintain() {
	a.advanceTimedOutTurns()

	if time.Since(a.lastCleanup) < a.cfg.CleanupInterval {
		return
	}
	a.lastCleanup = time.Now()

	if err := models.DeleteStaleGames(a.db, a.cfg.GameCleanupTimeout); err != nil {
		log.Printf("cleanup: delete stale games: %v", err)
	}
	if err := models.DeleteStaleUnpairedPlayers(a.db, a.cfg.PlayerCleanupTimeout); err != nil {
		log.Printf("cleanup: delete stale unpaired players: %v", err)
	}
	if err := models.DeleteStaleEmotes(a.db, a.cfg.GameCleanupTimeout); err != nil {
		log.Printf("cleanup: delete stale emotes: %v", err)
	}
	if err := models.DeleteEmptyGames(a.db); err != nil {
		log.Printf("cleanup: delete empty games: %v", err)
	}
}

// advanceTimedOutTurns makes a hard-difficulty move for every game whose
// current player ran out the turn clock.
func (a *Arbiter) advanceTimedOutTurns() {
	timedOut, err := models.ListTimedOutGames(a.db, a.cfg.TurnSeconds)
	if err != nil {
		log.Printf("turn timeout: list games: %v", err)
		return
	}

	for _, g := range timedOut {
		side := game.SideCyan
		if g.Status == models.StatusMagentaTurn {
			side = game.SideMagenta
		}

		board, err := game.ParseBoard(g.Board)
		if err != nil {
			log.Printf("turn timeout: game %d has corrupt board: %v", g.ID, err)
			continue
		}
		col, err := game.ChooseColumn(game.AIHard, side, &board)
		if err != nil {
			log.Printf("turn timeout: game %d: %v", g.ID, err)
			continue
		}
		placed, ok := board.Drop(col)
		if !ok {
			log.Printf("turn timeout: game %d: chosen column %d not playable", g.ID, col)
			continue
		}
		board[placed] = side.Cell()
		encoded, outcome := board.Encode(placed)

		status := nextStatus(side, outcome)
		// The clock restarts for the next player, but a finishing move leaves
		// turn_time_start alone so updated_time marks the end of the game.
		if err := models.UpdateGameMove(a.db, g.ID, encoded, status, !status.Terminal()); err != nil {
			log.Printf("turn timeout: game %d: persist move: %v", g.ID, err)
			continue
		}
		log.Printf("turn timeout: played %s move in game %d (column %d)", side, g.ID, col)
	}
}

func nextStatus(mover game.Side, outcome game.Outcome) models.Status {
	switch outcome {
	case game.OutcomeCyanWon:
		return models.StatusCyanWon
	case game.OutcomeMagentaWon:
		return models.StatusMagentaWon
	case game.OutcomeDraw:
		return models.StatusDraw
	}
	if mover == game.SideCyan {
		return models.StatusMagentaTurn
	}
	return models.StatusCyanTurn
}
