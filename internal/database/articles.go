package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
)

// InsertArticle inserts a new pending article keyed by its canonical URL.
// The UNIQUE constraint on original_url is what closes the check-then-insert
// race: a violation maps to ErrDuplicateArticle, never a raw driver error.
func (db *DB) InsertArticle(sourceID int64, title, content, canonicalURL string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO articles (source_id, original_title, original_content, original_url)
		VALUES (?, ?, ?, ?)`,
		sourceID, title, content, canonicalURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateArticle
		}
		return 0, err
	}
	return result.LastInsertId()
}

// ArticleExists reports whether an article with the canonical URL is stored.
func (db *DB) ArticleExists(canonicalURL string) (bool, error) {
	var id int64
	err := db.conn.QueryRow(
		"SELECT id FROM articles WHERE original_url = ?", canonicalURL,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetArticle returns a single article with its source name, or ErrNotFound.
func (db *DB) GetArticle(id int64) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT a.id, a.source_id, COALESCE(s.name, ''), a.original_title,
		COALESCE(a.original_content, ''), a.original_url, a.rewritten_title,
		a.rewritten_content, a.hashtags, a.image_ref, a.status, a.created_at, a.published_at
		FROM articles a LEFT JOIN sources s ON a.source_id = s.id
		WHERE a.id = ?`, id,
	)

	var a Article
	var hashtags *string
	err := row.Scan(&a.ID, &a.SourceID, &a.SourceName, &a.OriginalTitle,
		&a.OriginalContent, &a.OriginalURL, &a.RewrittenTitle,
		&a.RewrittenContent, &hashtags, &a.ImageRef, &a.Status, &a.CreatedAt, &a.PublishedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Hashtags = decodeHashtags(hashtags)
	return &a, nil
}

// ListPending returns one page of pending articles newest-first along with
// the total pending count. Pages are 1-based.
func (db *DB) ListPending(page, pageSize int) ([]Article, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM articles WHERE status = ?", StatusPending,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.conn.Query(
		`SELECT a.id, a.source_id, COALESCE(s.name, ''), a.original_title,
		COALESCE(a.original_content, ''), a.original_url, a.rewritten_title,
		a.rewritten_content, a.hashtags, a.image_ref, a.status, a.created_at, a.published_at
		FROM articles a LEFT JOIN sources s ON a.source_id = s.id
		WHERE a.status = ?
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ? OFFSET ?`,
		StatusPending, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ListUnprocessedPending returns pending articles that have not been
// rewritten yet, oldest-first so the backlog drains in arrival order.
func (db *DB) ListUnprocessedPending() ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT a.id, a.source_id, COALESCE(s.name, ''), a.original_title,
		COALESCE(a.original_content, ''), a.original_url, a.rewritten_title,
		a.rewritten_content, a.hashtags, a.image_ref, a.status, a.created_at, a.published_at
		FROM articles a LEFT JOIN sources s ON a.source_id = s.id
		WHERE a.status = ? AND (a.rewritten_title IS NULL OR a.rewritten_title = '')
		ORDER BY a.created_at ASC, a.id ASC`,
		StatusPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// UpdateArticleRewrite stores the rewritten title, content, and hashtags.
// Hashtags are persisted as a JSON array to keep their order.
func (db *DB) UpdateArticleRewrite(id int64, title, content string, hashtags []string) error {
	encoded, err := json.Marshal(hashtags)
	if err != nil {
		return fmt.Errorf("encoding hashtags: %w", err)
	}

	result, err := db.conn.Exec(
		`UPDATE articles SET rewritten_title = ?, rewritten_content = ?, hashtags = ?
		WHERE id = ?`,
		title, content, string(encoded), id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateArticleImage stores the generated image reference.
func (db *DB) UpdateArticleImage(id int64, ref string) error {
	result, err := db.conn.Exec(
		"UPDATE articles SET image_ref = ? WHERE id = ?", ref, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetArticleStatus moves a pending article to rejected or published.
// Publishing stamps published_at; rejecting never does. Transitions out of
// a terminal state fail with ErrNotPending.
func (db *DB) SetArticleStatus(id int64, status string) error {
	if status != StatusRejected && status != StatusPublished {
		return fmt.Errorf("invalid target status %q", status)
	}

	var result sql.Result
	var err error
	if status == StatusPublished {
		result, err = db.conn.Exec(
			`UPDATE articles SET status = ?, published_at = datetime('now')
			WHERE id = ? AND status = ?`,
			status, id, StatusPending,
		)
	} else {
		result, err = db.conn.Exec(
			"UPDATE articles SET status = ? WHERE id = ? AND status = ?",
			status, id, StatusPending,
		)
	}
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.GetArticle(id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// DeleteArticle removes an article. Returns false when it did not exist.
func (db *DB) DeleteArticle(id int64) (bool, error) {
	result, err := db.conn.Exec("DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteOlderThan removes articles older than the given number of days,
// regardless of status, and returns how many were removed.
func (db *DB) DeleteOlderThan(days int) (int, error) {
	result, err := db.conn.Exec(
		"DELETE FROM articles WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ClearArticles removes every article and returns the count.
func (db *DB) ClearArticles() (int, error) {
	result, err := db.conn.Exec("DELETE FROM articles")
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		dst   *int
		query string
	}{
		{&s.Sources, "SELECT COUNT(*) FROM sources"},
		{&s.ActiveSources, "SELECT COUNT(*) FROM sources WHERE is_active = 1"},
		{&s.Articles, "SELECT COUNT(*) FROM articles"},
		{&s.Pending, "SELECT COUNT(*) FROM articles WHERE status = 'pending'"},
		{&s.Published, "SELECT COUNT(*) FROM articles WHERE status = 'published'"},
		{&s.Rejected, "SELECT COUNT(*) FROM articles WHERE status = 'rejected'"},
		{&s.Keywords, "SELECT COUNT(*) FROM keywords"},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dst); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		var hashtags *string
		if err := rows.Scan(&a.ID, &a.SourceID, &a.SourceName, &a.OriginalTitle,
			&a.OriginalContent, &a.OriginalURL, &a.RewrittenTitle,
			&a.RewrittenContent, &hashtags, &a.ImageRef, &a.Status,
			&a.CreatedAt, &a.PublishedAt); err != nil {
			return nil, err
		}
		a.Hashtags = decodeHashtags(hashtags)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func decodeHashtags(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(*raw), &tags); err != nil {
		log.Printf("malformed hashtags payload: %v", err)
		return nil
	}
	return tags
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
