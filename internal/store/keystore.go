package store

import (
	"database/sql"
	"time"
)

// Session-scoped keys. KeyActiveChat is the id of the currently open
// conversation; it survives a process restart within the same session so the
// conversation can be re-requested on the next connect.
const (
	KeyToken      = "token"
	KeyActiveChat = "active_chat_id"
	KeyTheme      = "theme"
)

// Get returns the stored value for key, or "" if the key is absent.
func (db *DB) Get(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Put inserts or updates a key.
func (db *DB) Put(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO session_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// Delete removes a key. Deleting an absent key is a no-op.
func (db *DB) Delete(key string) error {
	_, err := db.Exec(`DELETE FROM session_state WHERE key = ?`, key)
	return err
}

// Clear wipes every session-scoped key. Used on logout.
func (db *DB) Clear() error {
	_, err := db.Exec(`DELETE FROM session_state`)
	return err
}
