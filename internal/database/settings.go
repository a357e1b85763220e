package database

import "database/sql"

// GetSetting returns a stored setting value, or "" when unset.
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores or replaces a setting value.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))`,
		key, value,
	)
	return err
}
