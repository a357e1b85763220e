package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsdesk/internal/database"
)

// Entries older than this are discarded when the feed carries a publish
// timestamp; undated entries get the benefit of the doubt.
const feedFreshness = 24 * time.Hour

// FeedStrategy parses RSS/Atom feeds into candidate items.
type FeedStrategy struct {
	parser *gofeed.Parser
}

// NewFeedStrategy creates the feed strategy.
func NewFeedStrategy(userAgent string) *FeedStrategy {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &FeedStrategy{parser: parser}
}

// Fetch parses the source's feed and returns fresh entries.
func (f *FeedStrategy) Fetch(ctx context.Context, source *database.Source) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-feedFreshness)
	var items []Item
	for _, entry := range feed.Items {
		item := feedItem(entry)
		if item == nil {
			continue
		}
		if item.Published != nil && item.Published.Before(cutoff) {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

func feedItem(entry *gofeed.Item) *Item {
	link := entry.Link
	if link == "" {
		link = entry.GUID
	}
	if link == "" {
		return nil
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return nil
	}

	content := entry.Description
	if content == "" {
		content = entry.Content
	}

	published := entry.PublishedParsed
	if published == nil {
		published = entry.UpdatedParsed
	}

	return &Item{
		Title:     CleanText(title),
		Content:   CleanText(content),
		URL:       link,
		Published: published,
	}
}
