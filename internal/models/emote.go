package models

import (
	"database/sql"
	"errors"
)

// Emote is one of the four reactions a player can send to their opponent.
type Emote string

const (
	EmoteSmile   Emote = "smile"
	EmoteNeutral Emote = "neutral"
	EmoteFrown   Emote = "frown"
	EmoteThink   Emote = "think"
)

// ParseEmote validates a wire tag.
func ParseEmote(tag string) (Emote, error) {
	switch Emote(tag) {
	case EmoteSmile, EmoteNeutral, EmoteFrown, EmoteThink:
		return Emote(tag), nil
	}
	return "", ErrInvalidEmote
}

func InsertEmote(db *sql.DB, receiverID uint32, emote Emote) error {
	_, err := db.Exec(`INSERT INTO emotes (type, receiver_id) VALUES (?, ?)`, string(emote), receiverID)
	return err
}

// OldestEmoteForReceiver returns the next pending emote for a player in
// date_added order. ErrNotFound when none are pending. The raw stored tag is
// returned; the caller validates it and deletes the row (consume-on-read).
func OldestEmoteForReceiver(db *sql.DB, receiverID uint32) (id int64, tag string, err error) {
	err = db.QueryRow(
		`SELECT id, type FROM emotes WHERE receiver_id = ? ORDER BY date_added, id LIMIT 1`,
		receiverID,
	).Scan(&id, &tag)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrNotFound
	}
	return id, tag, err
}

func DeleteEmote(db *sql.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM emotes WHERE id = ?`, id)
	return err
}

func DeleteStaleEmotes(db *sql.DB, maxAgeSeconds int64) error {
	_, err := db.Exec(`DELETE FROM emotes WHERE unixepoch() - unixepoch(date_added) > ?`, maxAgeSeconds)
	return err
}
