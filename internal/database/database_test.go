package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// addTestSource registers a source and returns its ID.
func addTestSource(t *testing.T, db *DB, name, url string, typ SourceType) int64 {
	t.Helper()
	id, err := db.InsertSource(name, url, typ)
	if err != nil {
		t.Fatalf("inserting source %s: %v", name, err)
	}
	return id
}

func ptr(s string) *string { return &s }

func TestOpenCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	version, err := getSchemaVersion(db.conn)
	if err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected schema version %d, got %d", latestVersion(), version)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	addTestSource(t, db, "Demo", "https://example.com/feed", SourceFeed)
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()

	sources, err := db.ListSources(false)
	if err != nil {
		t.Fatalf("listing sources: %v", err)
	}
	if len(sources) != 1 {
		t.Errorf("expected 1 source after reopen, got %d", len(sources))
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	sid := addTestSource(t, db, "Demo", "https://example.com/feed", SourceFeed)
	db.InsertArticle(sid, "A", "", "example.com/a")
	id, _ := db.InsertArticle(sid, "B", "", "example.com/b")
	db.SetArticleStatus(id, StatusPublished)
	db.AddKeyword("ozon")

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("getting stats: %v", err)
	}
	if stats.Sources != 1 || stats.ActiveSources != 1 {
		t.Errorf("unexpected source counts: %+v", stats)
	}
	if stats.Articles != 2 || stats.Pending != 1 || stats.Published != 1 {
		t.Errorf("unexpected article counts: %+v", stats)
	}
	if stats.Keywords != 1 {
		t.Errorf("expected 1 keyword, got %d", stats.Keywords)
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetSetting("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty value for unset key, got %q", got)
	}

	if err := db.SetSetting("k", "v1"); err != nil {
		t.Fatalf("setting: %v", err)
	}
	if err := db.SetSetting("k", "v2"); err != nil {
		t.Fatalf("replacing: %v", err)
	}
	got, _ = db.GetSetting("k")
	if got != "v2" {
		t.Errorf("expected v2, got %q", got)
	}
}
