package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsdesk/internal/config"
	"newsdesk/internal/database"
)

// How much cleaned page text the analyzer gets to see.
const maxAnalyzerChars = 15000

// WebpageStrategy extracts candidate items from arbitrary web pages.
// Hosts with a configured selector override are parsed directly; all other
// pages are rendered and handed to the page analyzer. Relevance filtering
// happens downstream in the ingestion coordinator, not here.
type WebpageStrategy struct {
	cfg      *config.Config
	renderer Renderer
	analyzer PageAnalyzer
	client   *http.Client
}

// NewWebpageStrategy creates the webpage strategy.
func NewWebpageStrategy(cfg *config.Config, renderer Renderer, analyzer PageAnalyzer) *WebpageStrategy {
	timeout := time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WebpageStrategy{
		cfg:      cfg,
		renderer: renderer,
		analyzer: analyzer,
		client:   &http.Client{Timeout: timeout},
	}
}

// Fetch dispatches between the structured-layout path and the rendered
// page-analysis path.
func (w *WebpageStrategy) Fetch(ctx context.Context, source *database.Source) ([]Item, error) {
	u, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing source url: %w", err)
	}

	if site := w.cfg.SiteFor(u.Hostname()); site != nil {
		return w.fetchStructured(ctx, source.URL, site)
	}
	return w.fetchAnalyzed(ctx, source.URL)
}

// fetchStructured parses a page with a known layout using its configured
// selectors.
func (w *WebpageStrategy) fetchStructured(ctx context.Context, pageURL string, site *config.Site) ([]Item, error) {
	doc, err := w.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseStructured(doc, pageURL, site)
}

// ParseStructured extracts items from a parsed document using a selector
// override. Split out so layouts can be tested against fixture HTML.
func ParseStructured(doc *goquery.Document, pageURL string, site *config.Site) ([]Item, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var items []Item
	doc.Find(site.Item).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(site.Title).First().Text())
		if title == "" {
			return
		}

		href, ok := card.Find(site.Link).First().Attr("href")
		if !ok || href == "" {
			return
		}
		link, err := base.Parse(href)
		if err != nil {
			return
		}

		var summary string
		if site.Summary != "" {
			summary = strings.TrimSpace(card.Find(site.Summary).First().Text())
		}

		items = append(items, Item{
			Title:   CleanText(title),
			Content: CleanText(summary),
			URL:     link.String(),
		})
	})
	return items, nil
}

// fetchAnalyzed renders the page, reduces it to text, and asks the page
// analyzer for a structured article list.
func (w *WebpageStrategy) fetchAnalyzed(ctx context.Context, pageURL string) ([]Item, error) {
	if w.analyzer == nil {
		return nil, fmt.Errorf("no page analyzer configured for %s", pageURL)
	}

	var html string
	var err error
	if w.renderer != nil {
		html, err = w.renderer.Render(ctx, pageURL)
	} else {
		html, err = w.fetchRaw(ctx, pageURL)
	}
	if err != nil {
		return nil, err
	}

	text, err := PageText(html)
	if err != nil {
		return nil, err
	}

	found, err := w.analyzer.FindArticles(ctx, text, pageURL)
	if err != nil {
		return nil, err
	}
	return MapPageArticles(found, pageURL), nil
}

// MapPageArticles converts analyzer output into candidate items, resolving
// relative URLs against the page.
func MapPageArticles(found []PageArticle, pageURL string) []Item {
	base, baseErr := url.Parse(pageURL)

	var items []Item
	for _, pa := range found {
		title := CleanText(pa.Title)
		if title == "" {
			continue
		}

		link := pa.URL
		if link == "" {
			link = pageURL
		} else if baseErr == nil {
			if resolved, err := base.Parse(link); err == nil {
				link = resolved.String()
			}
		}

		items = append(items, Item{
			Title:   title,
			Content: CleanText(pa.Summary),
			URL:     link,
		})
	}
	return items
}

// PageText strips boilerplate markup from rendered HTML and returns the
// visible text, capped for the analyzer.
func PageText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing page html: %w", err)
	}

	doc.Find("script, style, svg, nav, footer, header, form").Remove()

	text := strings.TrimSpace(doc.Text())
	fields := strings.Fields(text)
	text = strings.Join(fields, " ")

	runes := []rune(text)
	if len(runes) > maxAnalyzerChars {
		text = string(runes[:maxAnalyzerChars])
	}
	return text, nil
}

func (w *WebpageStrategy) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := w.fetchRaw(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (w *WebpageStrategy) fetchRaw(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", w.cfg.Scrape.UserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s: %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
