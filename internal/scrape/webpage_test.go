package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"newsdesk/internal/config"
)

const structuredHTML = `
<html><body>
<div class="infinite-container">
  <div class="news-card">
    <div class="news-card__title">Ozon opens a new warehouse</div>
    <div class="news-card__subtitle">The marketplace expands its logistics network.</div>
    <a class="news-card__link" href="/news/ozon-warehouse"></a>
  </div>
  <div class="news-card">
    <div class="news-card__title">Wildberries commission changes</div>
    <a class="news-card__link" href="https://shoppers.media/news/wb-commission"></a>
  </div>
  <div class="news-card">
    <div class="news-card__title"></div>
    <a class="news-card__link" href="/news/untitled"></a>
  </div>
</div>
</body></html>`

func shoppersSite() *config.Site {
	return &config.Site{
		Host:    "shoppers.media",
		Item:    "div.news-card",
		Title:   "div.news-card__title",
		Link:    "a.news-card__link",
		Summary: "div.news-card__subtitle",
	}
}

func TestParseStructured(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(structuredHTML))
	if err != nil {
		t.Fatal(err)
	}

	items, err := ParseStructured(doc, "https://shoppers.media/tag/news", shoppersSite())
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (untitled card skipped), got %d", len(items))
	}
	if items[0].Title != "Ozon opens a new warehouse" {
		t.Errorf("unexpected title: %q", items[0].Title)
	}
	if items[0].URL != "https://shoppers.media/news/ozon-warehouse" {
		t.Errorf("relative link not resolved: %q", items[0].URL)
	}
	if items[0].Content == "" {
		t.Error("expected summary to be captured")
	}
	if items[1].Content != "" {
		t.Error("card without summary must yield empty content")
	}
}

func TestMapPageArticles(t *testing.T) {
	found := []PageArticle{
		{Title: "First story", URL: "/news/1", Summary: "Summary one"},
		{Title: "Second story", URL: "https://other.example.com/2"},
		{Title: "", URL: "/news/3"},
		{Title: "No link story"},
	}

	items := MapPageArticles(found, "https://example.com/news")
	if len(items) != 3 {
		t.Fatalf("expected 3 items (untitled skipped), got %d", len(items))
	}
	if items[0].URL != "https://example.com/news/1" {
		t.Errorf("relative URL not resolved: %q", items[0].URL)
	}
	if items[1].URL != "https://other.example.com/2" {
		t.Errorf("absolute URL mangled: %q", items[1].URL)
	}
	if items[2].URL != "https://example.com/news" {
		t.Errorf("missing URL must fall back to the page: %q", items[2].URL)
	}
}

func TestPageText(t *testing.T) {
	html := `<html><head><style>.x{}</style><script>var a=1;</script></head>
	<body><nav>Menu</nav><p>Real   content
	here</p><footer>Footer</footer></body></html>`

	text, err := PageText(html)
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}
	if text != "Real content here" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestPageTextCapsLength(t *testing.T) {
	html := "<p>" + strings.Repeat("word ", 10000) + "</p>"
	text, err := PageText(html)
	if err != nil {
		t.Fatal(err)
	}
	if len([]rune(text)) > maxAnalyzerChars {
		t.Errorf("text not capped: %d runes", len([]rune(text)))
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("<b>Hello</b> &amp; <i>world</i>\n\n  twice")
	if got != "Hello & world twice" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n\nTitle line\nrest of message", 70); got != "Title line" {
		t.Errorf("unexpected first line: %q", got)
	}
	long := strings.Repeat("x", 100)
	if got := FirstLine(long, 70); len([]rune(got)) != 70 {
		t.Errorf("expected truncation to 70 runes, got %d", len([]rune(got)))
	}
	if got := FirstLine("   \n  ", 70); got != "" {
		t.Errorf("expected empty result for blank text, got %q", got)
	}
}
