package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"newsdesk/internal/config"
)

// chatServer fakes an OpenAI-compatible chat endpoint returning the given
// assistant content.
func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	os.Setenv("NEWSDESK_TEST_KEY", "test-key")
	t.Cleanup(func() { os.Unsetenv("NEWSDESK_TEST_KEY") })
	return NewClient(config.Transform{
		Endpoint:  endpoint,
		Model:     "test-model",
		APIKeyEnv: "NEWSDESK_TEST_KEY",
		MaxTokens: 256,
	})
}

func TestRewrite(t *testing.T) {
	srv := chatServer(t, `{"title": "New title", "content": "New content.", "hashtags": ["#ozon", "#news"]}`, http.StatusOK)
	r := NewRewriter(testClient(t, srv.URL))

	rw, err := r.Rewrite(context.Background(), "Old title", "Old content")
	if err != nil {
		t.Fatalf("rewriting: %v", err)
	}
	if rw.Title != "New title" || rw.Content != "New content." {
		t.Errorf("unexpected rewrite: %+v", rw)
	}
	if len(rw.Hashtags) != 2 || rw.Hashtags[0] != "#ozon" {
		t.Errorf("unexpected hashtags: %v", rw.Hashtags)
	}
}

func TestRewriteFencedResponse(t *testing.T) {
	srv := chatServer(t, "```json\n{\"title\": \"T\", \"content\": \"C\", \"hashtags\": []}\n```", http.StatusOK)
	r := NewRewriter(testClient(t, srv.URL))

	rw, err := r.Rewrite(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("rewriting fenced response: %v", err)
	}
	if rw.Title != "T" {
		t.Errorf("unexpected title: %q", rw.Title)
	}
}

func TestRewriteFillsEmptyFieldsFromOriginal(t *testing.T) {
	srv := chatServer(t, `{"title": "", "content": "", "hashtags": ["#x"]}`, http.StatusOK)
	r := NewRewriter(testClient(t, srv.URL))

	rw, err := r.Rewrite(context.Background(), "Orig title", "Orig content")
	if err != nil {
		t.Fatal(err)
	}
	if rw.Title != "Orig title" || rw.Content != "Orig content" {
		t.Errorf("empty fields not backfilled: %+v", rw)
	}
}

func TestRewriteAPIFailure(t *testing.T) {
	srv := chatServer(t, "", http.StatusBadGateway)
	r := NewRewriter(testClient(t, srv.URL))

	if _, err := r.Rewrite(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error on API failure")
	}
}

func TestChatUnconfigured(t *testing.T) {
	c := NewClient(config.Transform{})
	if c.IsConfigured() {
		t.Error("empty client must not report configured")
	}
	if _, err := c.Chat(context.Background(), "s", "u"); err == nil {
		t.Error("expected error from unconfigured client")
	}
}

func TestFindArticles(t *testing.T) {
	srv := chatServer(t, `{"articles": [{"title": "Story", "url": "https://example.com/1", "summary": "S"}]}`, http.StatusOK)
	a := NewPageAnalyzer(testClient(t, srv.URL))

	articles, err := a.FindArticles(context.Background(), "page text", "https://example.com")
	if err != nil {
		t.Fatalf("analyzing: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Story" {
		t.Errorf("unexpected articles: %+v", articles)
	}
}

func TestFindArticlesEmpty(t *testing.T) {
	srv := chatServer(t, `{"articles": []}`, http.StatusOK)
	a := NewPageAnalyzer(testClient(t, srv.URL))

	articles, err := a.FindArticles(context.Background(), "text", "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 0 {
		t.Errorf("expected no articles, got %+v", articles)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]string
	if err := decodeJSON("```json\n{\"a\": \"b\"}\n```", &dst); err != nil {
		t.Fatalf("decoding fenced json: %v", err)
	}
	if dst["a"] != "b" {
		t.Errorf("unexpected value: %v", dst)
	}
	if err := decodeJSON("not json", &dst); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestImagePromptTruncatesContent(t *testing.T) {
	long := make([]rune, 1000)
	for i := range long {
		long[i] = 'x'
	}
	p := imagePrompt("Title", string(long))
	if len([]rune(p)) > 700 {
		t.Errorf("prompt not truncated: %d runes", len([]rune(p)))
	}
}

func TestImageGeneratorDisabled(t *testing.T) {
	g := NewImageGenerator(config.Image{Enabled: false}, t.TempDir())
	if g.IsConfigured() {
		t.Error("disabled generator must not report configured")
	}
	if _, err := g.Generate(context.Background(), "t", "c"); err == nil {
		t.Error("expected error from disabled generator")
	}
}

func TestImageGeneratorDownloads(t *testing.T) {
	var imageSrv *httptest.Server
	imageSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(imageSrv.Close)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": imageSrv.URL + "/img.png"}},
		})
	}))
	t.Cleanup(apiSrv.Close)

	os.Setenv("NEWSDESK_TEST_KEY", "test-key")
	t.Cleanup(func() { os.Unsetenv("NEWSDESK_TEST_KEY") })

	dir := t.TempDir()
	g := NewImageGenerator(config.Image{
		Enabled:   true,
		Endpoint:  apiSrv.URL,
		Model:     "dall-e-3",
		Size:      "1024x1024",
		Quality:   "standard",
		APIKeyEnv: "NEWSDESK_TEST_KEY",
	}, dir)

	path, err := g.Generate(context.Background(), "Title", "Content")
	if err != nil {
		t.Fatalf("generating: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored image: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected image payload: %q", data)
	}
}
