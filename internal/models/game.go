package models

import (
	"database/sql"
	"errors"
	"math/rand"
)

// Status is the persisted game status column.
type Status int

const (
	StatusCyanTurn Status = iota
	StatusMagentaTurn
	StatusCyanWon
	StatusMagentaWon
	StatusDraw
)

// Terminal reports whether the game can no longer be mutated (except reap).
func (s Status) Terminal() bool {
	return s >= StatusCyanWon
}

type Game struct {
	ID            uint32  `json:"id"`
	CyanPlayer    *uint32 `json:"cyan_player,omitempty"`
	MagentaPlayer *uint32 `json:"magenta_player,omitempty"`
	Board         string  `json:"board"`
	Status        Status  `json:"status"`
	// TurnTimeStart is kept as the stored TEXT timestamp; clients receive it
	// verbatim as updated_time.
	TurnTimeStart string `json:"turn_time_start"`
}

// InsertGame creates a game row with a fresh random id and links both players
// to it. The earlier-arrived player is cyan and moves first.
func InsertGame(db *sql.DB, cyanPlayer, magentaPlayer uint32, board string) (uint32, error) {
	var id uint32
	for {
		id = rand.Uint32()
		var one int
		err := db.QueryRow(`SELECT 1 FROM games WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if _, err := db.Exec(
		`INSERT INTO games (id, cyan_player, magenta_player, board, status) VALUES (?, ?, ?, ?, 0)`,
		id, cyanPlayer, magentaPlayer, board,
	); err != nil {
		return 0, err
	}
	if err := SetPlayerGame(db, cyanPlayer, id); err != nil {
		return 0, err
	}
	if err := SetPlayerGame(db, magentaPlayer, id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetGameByPlayer loads the game the player is linked to. ErrNotFound when
// the player has no game (or no row at all).
func GetGameByPlayer(db *sql.DB, playerID uint32) (*Game, error) {
	var g Game
	var cyan, magenta sql.NullInt64
	err := db.QueryRow(
		`SELECT games.id, games.cyan_player, games.magenta_player, games.board, games.status, games.turn_time_start
		 FROM games JOIN players ON games.id = players.game_id WHERE players.id = ?`,
		playerID,
	).Scan(&g.ID, &cyan, &magenta, &g.Board, &g.Status, &g.TurnTimeStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cyan.Valid {
		v := uint32(cyan.Int64)
		g.CyanPlayer = &v
	}
	if magenta.Valid {
		v := uint32(magenta.Int64)
		g.MagentaPlayer = &v
	}
	return &g, nil
}

// UpdateGameMove persists an accepted placement. refreshTurnStart is set on
// non-terminal moves only; a finishing move leaves turn_time_start untouched.
func UpdateGameMove(db *sql.DB, gameID uint32, board string, status Status, refreshTurnStart bool) error {
	var err error
	if refreshTurnStart {
		_, err = db.Exec(
			`UPDATE games SET status = ?, board = ?, turn_time_start = datetime() WHERE id = ?`,
			status, board, gameID,
		)
	} else {
		_, err = db.Exec(`UPDATE games SET status = ?, board = ? WHERE id = ?`, status, board, gameID)
	}
	return err
}

// TimedOutGame is an in-progress game whose current turn exceeded the limit.
type TimedOutGame struct {
	ID     uint32
	Status Status
	Board  string
}

// ListTimedOutGames returns games with both slots occupied, status 0 or 1,
// and a current turn older than turnSeconds.
func ListTimedOutGames(db *sql.DB, turnSeconds int64) ([]TimedOutGame, error) {
	rows, err := db.Query(
		`SELECT id, status, board FROM games
		 WHERE unixepoch() - unixepoch(turn_time_start) > ?
		   AND cyan_player IS NOT NULL AND magenta_player IS NOT NULL AND status < 2`,
		turnSeconds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimedOutGame
	for rows.Next() {
		var g TimedOutGame
		if err := rows.Scan(&g.ID, &g.Status, &g.Board); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteEmptyGames reaps games both of whose players disconnected.
func DeleteEmptyGames(db *sql.DB) error {
	_, err := db.Exec(`DELETE FROM games WHERE cyan_player IS NULL AND magenta_player IS NULL`)
	return err
}

// DeleteStaleGames reaps games older than maxAgeSeconds regardless of state.
func DeleteStaleGames(db *sql.DB, maxAgeSeconds int64) error {
	_, err := db.Exec(`DELETE FROM games WHERE unixepoch() - unixepoch(date_added) > ?`, maxAgeSeconds)
	return err
}
