package database

import "strings"

// ListKeywords returns all keywords sorted ascending.
func (db *DB) ListKeywords() ([]string, error) {
	rows, err := db.conn.Query("SELECT keyword FROM keywords ORDER BY keyword")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, err
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

// AddKeyword stores a keyword, lower-cased. Returns false when it was
// already present.
func (db *DB) AddKeyword(word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false, nil
	}

	result, err := db.conn.Exec(
		"INSERT OR IGNORE INTO keywords (keyword) VALUES (?)", word,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveKeyword deletes a keyword. Returns false when it was absent.
func (db *DB) RemoveKeyword(word string) (bool, error) {
	result, err := db.conn.Exec(
		"DELETE FROM keywords WHERE keyword = ?", strings.ToLower(strings.TrimSpace(word)),
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SeedKeywords populates an empty keyword store from the built-in list.
// It runs at most once per database: a settings marker records the seeding,
// so an intentionally emptied store stays empty across restarts.
func (db *DB) SeedKeywords(seed []string) error {
	if done, err := db.GetSetting("keywords_seeded"); err != nil {
		return err
	} else if done != "" {
		return nil
	}

	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM keywords").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		for _, kw := range seed {
			if _, err := db.AddKeyword(kw); err != nil {
				return err
			}
		}
	}

	return db.SetSetting("keywords_seeded", "1")
}
