package database

import (
	"database/sql"
	"fmt"

	"newsdesk/internal/canonical"
)

// InsertSource registers a new source. Two URLs that canonicalize to the
// same key count as the same source, so the check goes beyond the raw
// UNIQUE constraint. Returns ErrDuplicateSource on collision.
func (db *DB) InsertSource(name, url string, typ SourceType) (int64, error) {
	if !ValidSourceType(typ) {
		return 0, fmt.Errorf("unknown source type %q", typ)
	}

	collides, err := db.sourceURLCollides(url, 0)
	if err != nil {
		return 0, err
	}
	if collides {
		return 0, ErrDuplicateSource
	}

	result, err := db.conn.Exec(
		"INSERT INTO sources (name, url, source_type) VALUES (?, ?, ?)",
		name, url, string(typ),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateSource
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetSource returns a source by ID, or ErrNotFound.
func (db *DB) GetSource(id int64) (*Source, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, url, source_type, is_active, last_check, created_at
		FROM sources WHERE id = ?`, id,
	)
	s, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListSources returns sources ordered by name. With activeOnly set,
// inactive sources are skipped.
func (db *DB) ListSources(activeOnly bool) ([]Source, error) {
	query := `SELECT id, name, url, source_type, is_active, last_check, created_at FROM sources`
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY name"

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		var active int
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Type, &active, &s.LastCheck, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.IsActive = active != 0
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSource changes a source's name and/or URL in one transaction, so
// a failure can never leave a half-applied update. Nil leaves a field
// untouched. The source type is immutable. Returns ErrDuplicateSource when
// the new URL collides with another source.
func (db *DB) UpdateSource(id int64, name, url *string) error {
	if _, err := db.GetSource(id); err != nil {
		return err
	}

	if url != nil {
		collides, err := db.sourceURLCollides(*url, id)
		if err != nil {
			return err
		}
		if collides {
			return ErrDuplicateSource
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if url != nil {
		if _, err := tx.Exec("UPDATE sources SET url = ? WHERE id = ?", *url, id); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSource
			}
			return err
		}
	}
	if name != nil {
		if _, err := tx.Exec("UPDATE sources SET name = ? WHERE id = ?", *name, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ToggleSource flips a source's active flag.
func (db *DB) ToggleSource(id int64) error {
	result, err := db.conn.Exec(
		"UPDATE sources SET is_active = 1 - is_active WHERE id = ?", id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchSourceLastCheck stamps the source's last-check time with now.
func (db *DB) TouchSourceLastCheck(id int64) error {
	_, err := db.conn.Exec(
		"UPDATE sources SET last_check = datetime('now') WHERE id = ?", id,
	)
	return err
}

// DeleteSource removes a source and all of its articles in one
// transaction, so no orphaned articles can survive a partial failure.
func (db *DB) DeleteSource(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM articles WHERE source_id = ?", id); err != nil {
		return err
	}

	result, err := tx.Exec("DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// sourceURLCollides reports whether url canonicalizes to the same key as
// any existing source other than excludeID.
func (db *DB) sourceURLCollides(url string, excludeID int64) (bool, error) {
	key := canonical.Canonicalize(url)

	rows, err := db.conn.Query("SELECT id, url FROM sources")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var existing string
		if err := rows.Scan(&id, &existing); err != nil {
			return false, err
		}
		if id != excludeID && canonical.Canonicalize(existing) == key {
			return true, nil
		}
	}
	return false, rows.Err()
}

func scanSource(row *sql.Row) (*Source, error) {
	var s Source
	var active int
	if err := row.Scan(&s.ID, &s.Name, &s.URL, &s.Type, &active, &s.LastCheck, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.IsActive = active != 0
	return &s, nil
}
