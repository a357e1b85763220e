// Package ingest orchestrates sweeps: one full pass over all active
// sources, turning fetched candidates into pending articles.
package ingest

import (
	"context"
	"errors"
	"log"

	"newsdesk/internal/canonical"
	"newsdesk/internal/database"
	"newsdesk/internal/llm"
	"newsdesk/internal/scrape"
)

// Fetcher yields candidate items for one source without ever failing.
// *scrape.Dispatcher is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, source *database.Source) []scrape.Item
}

// Rewriter transforms article text. *llm.Rewriter is the production
// implementation.
type Rewriter interface {
	Rewrite(ctx context.Context, title, content string) (*llm.Rewrite, error)
}

// ImageGenerator produces an illustration and returns its local reference.
type ImageGenerator interface {
	IsConfigured() bool
	Generate(ctx context.Context, title, content string) (string, error)
}

// Result aggregates one sweep's outcome for observability.
type Result struct {
	TotalNew int
	BySource map[string]int
}

// Coordinator runs sweeps and the scheduled processing pass.
type Coordinator struct {
	db       *database.DB
	fetcher  Fetcher
	rewriter Rewriter
	imager   ImageGenerator
}

// New creates a coordinator. rewriter and imager may be nil; the
// processing pass then skips the corresponding step.
func New(db *database.DB, fetcher Fetcher, rewriter Rewriter, imager ImageGenerator) *Coordinator {
	return &Coordinator{db: db, fetcher: fetcher, rewriter: rewriter, imager: imager}
}

// Sweep checks every active source for new content. Candidates are
// relevance-filtered uniformly here — never inside a fetch strategy — then
// deduplicated by canonical URL and persisted as pending articles.
// A failing source is isolated: it still gets a BySource entry (count 0)
// and its last-check stamp, and the sweep moves on. Sweep never fails.
func (c *Coordinator) Sweep(ctx context.Context) *Result {
	result := &Result{BySource: make(map[string]int)}

	sources, err := c.db.ListSources(true)
	if err != nil {
		log.Printf("sweep aborted, cannot list sources: %v", err)
		return result
	}

	keywords, err := c.db.ListKeywords()
	if err != nil {
		log.Printf("sweep continues without keywords: %v", err)
	}
	matcher := scrape.NewMatcher(keywords)

	log.Printf("sweep started over %d active sources", len(sources))

	for i := range sources {
		source := &sources[i]
		added := c.sweepSource(ctx, source, matcher)
		result.BySource[source.Name] = added
		result.TotalNew += added

		if err := c.db.TouchSourceLastCheck(source.ID); err != nil {
			log.Printf("updating last check for %s: %v", source.Name, err)
		}
	}

	log.Printf("sweep complete: %d new articles", result.TotalNew)
	return result
}

// sweepSource processes one source and returns how many articles it added.
func (c *Coordinator) sweepSource(ctx context.Context, source *database.Source, matcher *scrape.Matcher) int {
	items := c.fetcher.Fetch(ctx, source)

	added := 0
	for _, item := range items {
		if !matcher.IsRelevant(item.Title + " " + item.Content) {
			continue
		}

		key := canonical.Canonicalize(item.URL)
		if key == "" {
			continue
		}

		exists, err := c.db.ArticleExists(key)
		if err != nil {
			log.Printf("dedup check failed for %s: %v", key, err)
			continue
		}
		if exists {
			continue
		}

		// The exists check is advisory; the UNIQUE constraint decides.
		_, err = c.db.InsertArticle(source.ID, item.Title, item.Content, key)
		if errors.Is(err, database.ErrDuplicateArticle) {
			continue
		}
		if err != nil {
			log.Printf("inserting article from %s: %v", source.Name, err)
			continue
		}

		added++
		log.Printf("new article from %s: %.50s", source.Name, item.Title)
	}
	return added
}

// ProcessPending rewrites pending articles that have no rewritten content
// yet and, when configured, generates an illustration for each. Per-article
// failures are logged and skipped; the pass returns how many articles were
// processed.
func (c *Coordinator) ProcessPending(ctx context.Context) int {
	if c.rewriter == nil {
		return 0
	}

	articles, err := c.db.ListUnprocessedPending()
	if err != nil {
		log.Printf("listing unprocessed articles: %v", err)
		return 0
	}

	processed := 0
	for i := range articles {
		article := &articles[i]

		rw, err := c.rewriter.Rewrite(ctx, article.OriginalTitle, article.OriginalContent)
		if err != nil {
			// Transform failure falls back to the original text so the
			// article still becomes reviewable.
			log.Printf("rewrite failed for article %d, keeping original: %v", article.ID, err)
			rw = &llm.Rewrite{Title: article.OriginalTitle, Content: article.OriginalContent}
		}

		if err := c.db.UpdateArticleRewrite(article.ID, rw.Title, rw.Content, rw.Hashtags); err != nil {
			log.Printf("storing rewrite for article %d: %v", article.ID, err)
			continue
		}

		if c.imager != nil && c.imager.IsConfigured() {
			ref, err := c.imager.Generate(ctx, rw.Title, rw.Content)
			if err != nil {
				log.Printf("image generation failed for article %d: %v", article.ID, err)
			} else if err := c.db.UpdateArticleImage(article.ID, ref); err != nil {
				log.Printf("storing image for article %d: %v", article.ID, err)
			}
		}

		processed++
	}
	return processed
}
