package moderation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// minExtractedChars is the floor below which a readability extraction is
// treated as empty.
const minExtractedChars = 100

// ContentEnricher fetches the full text of an article page via HTTP plus
// readability extraction. It backfills articles whose discovery left only
// a short summary.
type ContentEnricher struct {
	client    *http.Client
	userAgent string
}

// NewContentEnricher creates an enricher with the given request identity.
func NewContentEnricher(userAgent string, timeout time.Duration) *ContentEnricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentEnricher{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FullText downloads the page and extracts its readable text. articleURL
// may be schemeless (canonical form); https is assumed then. An
// extraction too short to be useful returns an empty string, not an
// error.
func (e *ContentEnricher) FullText(ctx context.Context, articleURL string) (string, error) {
	full := ensureScheme(articleURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching article page: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading article page: %w", err)
	}

	parsed, _ := url.Parse(full)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minExtractedChars {
		return "", nil
	}
	return text, nil
}

func ensureScheme(rawURL string) string {
	if strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "https://" + rawURL
}
