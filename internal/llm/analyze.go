package llm

import (
	"context"
	"fmt"

	"newsdesk/internal/scrape"
)

// PageAnalyzer extracts a structured article list from cleaned page text.
// It implements scrape.PageAnalyzer for the rendered-webpage path.
type PageAnalyzer struct {
	client *Client
}

// NewPageAnalyzer creates an analyzer over a chat client.
func NewPageAnalyzer(client *Client) *PageAnalyzer {
	return &PageAnalyzer{client: client}
}

const analyzeSystem = "You convert text extracted from web pages into " +
	"structured JSON listings of news articles. Always answer with a " +
	"single JSON object and nothing else."

const analyzePrompt = `Analyze the following text content extracted from an HTML page and find every news article or announcement.

For each article extract:
1. "title" - the headline
2. "url" - the full article link; resolve relative links against the base URL: %s
3. "summary" - a short description or the first paragraph

Ignore ads, navigation menus, and other irrelevant content.
Answer as one JSON object whose "articles" key holds the array of found articles; use an empty array when there are none.

Page content:
%s`

// FindArticles asks the model for the articles present in the page text.
func (p *PageAnalyzer) FindArticles(ctx context.Context, pageText, baseURL string) ([]scrape.PageArticle, error) {
	answer, err := p.client.Chat(ctx, analyzeSystem, fmt.Sprintf(analyzePrompt, baseURL, pageText))
	if err != nil {
		return nil, err
	}

	var result struct {
		Articles []scrape.PageArticle `json:"articles"`
	}
	if err := decodeJSON(answer, &result); err != nil {
		return nil, fmt.Errorf("parsing analysis response: %w", err)
	}
	return result.Articles, nil
}
