package models

import (
	"database/sql"
	"errors"
	"math/rand"
)

// Player is a joined client. game_id stays NULL until the pair-up pass
// matches them into a game.
type Player struct {
	ID        uint32  `json:"id"`
	GameID    *uint32 `json:"game_id,omitempty"`
	Phrase    string  `json:"phrase,omitempty"`
	DateAdded string  `json:"date_added"`
}

// Pairing is the resolved pairing state of a player id.
type Pairing struct {
	Exists bool
	Paired bool
	IsCyan bool
}

func CountPlayers(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT count(id) FROM players`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func PlayerExists(db *sql.DB, id uint32) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM players WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertPlayer creates a player row with a fresh random id, retrying on the
// (unlikely) id collision. An empty phrase is stored as NULL.
func InsertPlayer(db *sql.DB, phrase string) (uint32, error) {
	var phraseArg any
	if phrase != "" {
		phraseArg = phrase
	}
	for {
		id := rand.Uint32()
		_, err := db.Exec(`INSERT INTO players (id, phrase) VALUES (?, ?)`, id, phraseArg)
		if err == nil {
			return id, nil
		}
		if IsUniqueConstraint(err) {
			continue
		}
		return 0, err
	}
}

// UnpairedPlayer is a row from the pair-up scan, in arrival order.
type UnpairedPlayer struct {
	ID     uint32
	Phrase string
}

func ListUnpairedPlayers(db *sql.DB) ([]UnpairedPlayer, error) {
	rows, err := db.Query(`SELECT id, phrase FROM players WHERE game_id IS NULL ORDER BY date_added, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnpairedPlayer
	for rows.Next() {
		var p UnpairedPlayer
		var phrase sql.NullString
		if err := rows.Scan(&p.ID, &phrase); err != nil {
			return nil, err
		}
		if phrase.Valid {
			p.Phrase = phrase.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPairing resolves (exists, paired, is_cyan) for a player id.
func GetPairing(db *sql.DB, id uint32) (Pairing, error) {
	exists, err := PlayerExists(db, id)
	if err != nil || !exists {
		return Pairing{}, err
	}

	var cyan sql.NullInt64
	err = db.QueryRow(
		`SELECT games.cyan_player FROM players JOIN games ON games.id = players.game_id WHERE players.id = ?`,
		id,
	).Scan(&cyan)
	if errors.Is(err, sql.ErrNoRows) {
		return Pairing{Exists: true}, nil
	}
	if err != nil {
		return Pairing{}, err
	}
	return Pairing{Exists: true, Paired: true, IsCyan: cyan.Valid && uint32(cyan.Int64) == id}, nil
}

func SetPlayerGame(db *sql.DB, playerID, gameID uint32) error {
	_, err := db.Exec(`UPDATE players SET game_id = ? WHERE id = ?`, gameID, playerID)
	return err
}

// DeletePlayer removes the player row. The games table's ON DELETE SET NULL
// clears their colour slot; emotes cascade. Returns whether a row was removed.
func DeletePlayer(db *sql.DB, id uint32) (bool, error) {
	res, err := db.Exec(`DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteStaleUnpairedPlayers reaps players that never got paired within
// maxAgeSeconds.
func DeleteStaleUnpairedPlayers(db *sql.DB, maxAgeSeconds int64) error {
	_, err := db.Exec(
		`DELETE FROM players WHERE unixepoch() - unixepoch(date_added) > ? AND game_id IS NULL`,
		maxAgeSeconds,
	)
	return err
}
