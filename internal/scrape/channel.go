package scrape

import (
	"context"
	"log"

	"newsdesk/internal/database"
)

const channelTitleMax = 70

// ChannelStrategy synthesizes candidate items from recent channel
// messages. Without a configured reader the source type degrades
// gracefully: a warning and an empty result, never a failure.
type ChannelStrategy struct {
	reader ChannelReader
	limit  int
}

// NewChannelStrategy creates the channel strategy.
func NewChannelStrategy(reader ChannelReader, limit int) *ChannelStrategy {
	if limit <= 0 {
		limit = 20
	}
	return &ChannelStrategy{reader: reader, limit: limit}
}

// Fetch reads the most recent messages and maps each to a candidate item:
// first line as title, full text as content, permalink as URL.
func (c *ChannelStrategy) Fetch(ctx context.Context, source *database.Source) ([]Item, error) {
	if c.reader == nil {
		log.Printf("channel reading is not configured, skipping source %s", source.Name)
		return nil, nil
	}

	messages, err := c.reader.RecentMessages(ctx, source.URL, c.limit)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, msg := range messages {
		if msg.Text == "" || msg.Link == "" {
			continue
		}
		title := FirstLine(msg.Text, channelTitleMax)
		if title == "" {
			continue
		}
		items = append(items, Item{
			Title:     title,
			Content:   msg.Text,
			URL:       msg.Link,
			Published: msg.Posted,
		})
	}
	return items, nil
}
