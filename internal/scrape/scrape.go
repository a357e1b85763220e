// Package scrape turns configured sources into candidate items. Each
// strategy keeps its failures behind its own boundary: a broken feed, an
// unreachable page, or a misbehaving collaborator is logged and yields an
// empty result, never an error that could abort a sweep.
package scrape

import (
	"context"
	"log"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/database"
)

// Item is an unpersisted, freshly fetched piece of content awaiting
// relevance filtering and dedup.
type Item struct {
	Title     string
	Content   string
	URL       string
	Published *time.Time
}

// Strategy fetches candidate items for one source type.
type Strategy interface {
	Fetch(ctx context.Context, source *database.Source) ([]Item, error)
}

// Renderer produces the HTML of a page after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// PageArticle is one structured article extracted by the page analyzer.
type PageArticle struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// PageAnalyzer extracts structured articles from cleaned page text.
type PageAnalyzer interface {
	FindArticles(ctx context.Context, pageText, baseURL string) ([]PageArticle, error)
}

// ChannelMessage is one message read from a messaging channel.
type ChannelMessage struct {
	Text   string
	Link   string
	Posted *time.Time
}

// ChannelReader retrieves recent messages from a channel.
type ChannelReader interface {
	RecentMessages(ctx context.Context, channelURL string, limit int) ([]ChannelMessage, error)
}

// Dispatcher selects a fetch strategy by source type. Its Fetch never
// returns an error: unknown types and strategy failures degrade to an
// empty result with a logged reason.
type Dispatcher struct {
	strategies map[database.SourceType]Strategy
}

// NewDispatcher wires one strategy per source type. The channel reader and
// analyzer may be nil; the affected strategies degrade gracefully.
func NewDispatcher(cfg *config.Config, renderer Renderer, analyzer PageAnalyzer, reader ChannelReader) *Dispatcher {
	return &Dispatcher{
		strategies: map[database.SourceType]Strategy{
			database.SourceFeed:    NewFeedStrategy(cfg.Scrape.UserAgent),
			database.SourceWebpage: NewWebpageStrategy(cfg, renderer, analyzer),
			database.SourceChannel: NewChannelStrategy(reader, cfg.Channel.MessageLimit),
		},
	}
}

// Fetch returns candidate items for the source, empty on any failure.
func (d *Dispatcher) Fetch(ctx context.Context, source *database.Source) []Item {
	strategy, ok := d.strategies[source.Type]
	if !ok {
		log.Printf("no fetch strategy for source type %q (%s)", source.Type, source.Name)
		return nil
	}

	items, err := strategy.Fetch(ctx, source)
	if err != nil {
		log.Printf("fetch failed for source %s (%s): %v", source.Name, source.URL, err)
		return nil
	}
	return items
}
