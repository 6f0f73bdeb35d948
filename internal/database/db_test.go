package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateBootstrapsSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "game.db")

	db, err := OpenAndMigrate(dbPath)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"players", "games", "emotes", "schema_migrations"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	// Foreign keys must be enforced on the connection.
	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenAndMigrateIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "game.db")

	db, err := OpenAndMigrate(dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO players (id) VALUES (42)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not reapply migrations or touch existing rows.
	db, err = OpenAndMigrate(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM players`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenAndMigrateAddsPhraseColumnToOldStores(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "game.db")

	// Simulate a store from before phrase rendezvous existed.
	raw, err := sql.Open("sqlite3", sqliteDSN(dbPath))
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE players (
		id INTEGER PRIMARY KEY NOT NULL,
		date_added TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		game_id INTEGER)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO players (id) VALUES (7)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := OpenAndMigrate(dbPath)
	require.NoError(t, err)
	defer db.Close()

	// Existing rows survive with a NULL phrase; new inserts can set one.
	var phrase sql.NullString
	require.NoError(t, db.QueryRow(`SELECT phrase FROM players WHERE id = 7`).Scan(&phrase))
	assert.False(t, phrase.Valid)

	_, err = db.Exec(`INSERT INTO players (id, phrase) VALUES (8, 'rendezvous')`)
	assert.NoError(t, err)
}
