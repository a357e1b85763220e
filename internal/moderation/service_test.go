package moderation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsdesk/internal/database"
	"newsdesk/internal/ingest"
	"newsdesk/internal/llm"
	"newsdesk/internal/scheduler"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedArticle(t *testing.T, db *database.DB, content string) int64 {
	t.Helper()
	sid, err := db.InsertSource("Demo", "https://example.com/feed", database.SourceFeed)
	if err != nil {
		t.Fatal(err)
	}
	id, err := db.InsertArticle(sid, "Original title", content, "example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	return id
}

type fakeRewriter struct {
	fail        bool
	lastContent string
}

func (f *fakeRewriter) Rewrite(_ context.Context, title, content string) (*llm.Rewrite, error) {
	f.lastContent = content
	if f.fail {
		return nil, errors.New("transform unavailable")
	}
	return &llm.Rewrite{Title: "Rewritten: " + title, Content: "Rewritten body", Hashtags: []string{"#news"}}, nil
}

type fakeEnricher struct {
	text string
	err  error
}

func (f *fakeEnricher) FullText(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeSweeper struct {
	err error
}

func (f *fakeSweeper) TriggerSweep(context.Context) (*ingest.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Result{TotalNew: 3, BySource: map[string]int{"Demo": 3}}, nil
}

func TestAuthorize(t *testing.T) {
	open := NewService(nil, nil, nil, nil, nil, "")
	if err := open.Authorize("anything"); err != nil {
		t.Errorf("service without token must be open, got %v", err)
	}

	locked := NewService(nil, nil, nil, nil, nil, "secret")
	if err := locked.Authorize("secret"); err != nil {
		t.Errorf("correct token rejected: %v", err)
	}
	if err := locked.Authorize("wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := locked.Authorize(""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for empty token, got %v", err)
	}
}

func TestRewriteStoresResult(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, strings.Repeat("long enough content. ", 20))

	rw := &fakeRewriter{}
	svc := NewService(db, nil, rw, nil, nil, "")

	article, err := svc.Rewrite(context.Background(), id)
	if err != nil {
		t.Fatalf("rewriting: %v", err)
	}
	if article.RewrittenTitle == nil || *article.RewrittenTitle != "Rewritten: Original title" {
		t.Errorf("rewrite not stored: %+v", article.RewrittenTitle)
	}
	if len(article.Hashtags) != 1 {
		t.Errorf("hashtags not stored: %v", article.Hashtags)
	}
}

func TestRewriteEnrichesThinContent(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "short summary")

	rw := &fakeRewriter{}
	enricher := &fakeEnricher{text: "The complete article text fetched from the page."}
	svc := NewService(db, nil, rw, nil, enricher, "")

	if _, err := svc.Rewrite(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if rw.lastContent != enricher.text {
		t.Errorf("rewriter saw %q, want enriched text", rw.lastContent)
	}
}

// The thin-content threshold counts characters, not bytes: short Cyrillic
// content is twice its rune count in UTF-8 and must still be enriched.
func TestRewriteEnrichesThinCyrillicContent(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, strings.Repeat("н", 150))

	rw := &fakeRewriter{}
	enricher := &fakeEnricher{text: "Полный текст статьи, полученный со страницы."}
	svc := NewService(db, nil, rw, nil, enricher, "")

	if _, err := svc.Rewrite(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if rw.lastContent != enricher.text {
		t.Errorf("rewriter saw %q, want enriched text", rw.lastContent)
	}
}

func TestRewriteSkipsEnrichmentForFullContent(t *testing.T) {
	db := openTestDB(t)
	full := strings.Repeat("substantial paragraph. ", 20)
	id := seedArticle(t, db, full)

	rw := &fakeRewriter{}
	svc := NewService(db, nil, rw, nil, &fakeEnricher{text: "should not be used"}, "")

	if _, err := svc.Rewrite(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if rw.lastContent != full {
		t.Errorf("full content should not be enriched, rewriter saw %q", rw.lastContent)
	}
}

func TestRewriteFallsBackOnTransformFailure(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "some content")

	svc := NewService(db, nil, &fakeRewriter{fail: true}, nil, &fakeEnricher{err: errors.New("down")}, "")

	article, err := svc.Rewrite(context.Background(), id)
	if err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}
	if article.RewrittenTitle == nil || *article.RewrittenTitle != "Original title" {
		t.Errorf("expected original title fallback, got %+v", article.RewrittenTitle)
	}
}

func TestRewriteUnknownArticle(t *testing.T) {
	svc := NewService(openTestDB(t), nil, &fakeRewriter{}, nil, nil, "")
	if _, err := svc.Rewrite(context.Background(), 42); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPublishAndReject(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "content")
	svc := NewService(db, nil, nil, nil, nil, "")

	if err := svc.Publish(id); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if err := svc.Reject(id); !errors.Is(err, database.ErrNotPending) {
		t.Errorf("rejecting a published article must fail with ErrNotPending, got %v", err)
	}

	article, _ := svc.GetArticle(id)
	if article.Status != database.StatusPublished {
		t.Errorf("status changed after failed transition: %s", article.Status)
	}
}

func TestDeleteArticle(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "content")
	svc := NewService(db, nil, nil, nil, nil, "")

	if err := svc.DeleteArticle(id); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if err := svc.DeleteArticle(id); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("second delete expected ErrNotFound, got %v", err)
	}
}

func TestForceSweep(t *testing.T) {
	svc := NewService(openTestDB(t), &fakeSweeper{}, nil, nil, nil, "")
	result, err := svc.ForceSweep(context.Background())
	if err != nil {
		t.Fatalf("forcing sweep: %v", err)
	}
	if result.TotalNew != 3 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestForceSweepPropagatesBusy(t *testing.T) {
	svc := NewService(openTestDB(t), &fakeSweeper{err: scheduler.ErrBusy}, nil, nil, nil, "")
	if _, err := svc.ForceSweep(context.Background()); !errors.Is(err, scheduler.ErrBusy) {
		t.Errorf("expected ErrBusy to pass through, got %v", err)
	}
}

func TestGenerateImageUnconfigured(t *testing.T) {
	db := openTestDB(t)
	id := seedArticle(t, db, "content")
	svc := NewService(db, nil, nil, nil, nil, "")

	if _, err := svc.GenerateImage(context.Background(), id); err == nil {
		t.Error("expected error without a configured generator")
	}
}

const enrichPage = `<!DOCTYPE html>
<html>
<head><title>Marketplace commission changes</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Marketplace commission changes</h1>
<p>The marketplace announced a revision of its seller commission structure
effective next quarter. Rates for electronics drop by two percentage points
while apparel categories see a modest increase tied to fulfilment costs.</p>
<p>Sellers using the platform's own logistics network keep their current
rates for another six months. Analysts expect the change to push smaller
merchants toward consolidated shipping programs.</p>
</article>
<footer>Copyright</footer>
</body>
</html>`

func TestContentEnricherFullText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(enrichPage))
	}))
	t.Cleanup(srv.Close)

	e := NewContentEnricher("test-agent", 5*time.Second)
	text, err := e.FullText(context.Background(), srv.URL+"/article")
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}
	if !strings.Contains(text, "commission structure") {
		t.Errorf("extracted text missing article body: %q", text)
	}
}

func TestContentEnricherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	e := NewContentEnricher("test-agent", 5*time.Second)
	if _, err := e.FullText(context.Background(), srv.URL); err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestEnsureScheme(t *testing.T) {
	if got := ensureScheme("example.com/a"); got != "https://example.com/a" {
		t.Errorf("ensureScheme = %q", got)
	}
	if got := ensureScheme("http://example.com/a"); got != "http://example.com/a" {
		t.Errorf("ensureScheme kept scheme wrong: %q", got)
	}
}
