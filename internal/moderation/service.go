// Package moderation is the boundary external interfaces talk to. Every
// review action — listing, rewriting, publishing, rejecting, managing
// sources and keywords — goes through the Service, behind one
// authorization gate.
package moderation

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"newsdesk/internal/database"
	"newsdesk/internal/ingest"
	"newsdesk/internal/llm"
)

// ErrUnauthorized is returned by Authorize for a bad token.
var ErrUnauthorized = errors.New("invalid moderation token")

// thinContentChars is the length under which an article's discovered
// content counts as a bare summary worth enriching before a rewrite.
const thinContentChars = 200

// Sweeper triggers a sweep on demand. *scheduler.Scheduler is the
// production implementation.
type Sweeper interface {
	TriggerSweep(ctx context.Context) (*ingest.Result, error)
}

// Rewriter transforms article text.
type Rewriter interface {
	Rewrite(ctx context.Context, title, content string) (*llm.Rewrite, error)
}

// ImageGenerator produces an illustration and returns its local reference.
type ImageGenerator interface {
	IsConfigured() bool
	Generate(ctx context.Context, title, content string) (string, error)
}

// Enricher retrieves the full text behind an article URL.
type Enricher interface {
	FullText(ctx context.Context, articleURL string) (string, error)
}

// Service exposes the moderation operations. Collaborators other than db
// may be nil; the affected operations then report themselves unavailable.
type Service struct {
	db         *database.DB
	sweeper    Sweeper
	rewriter   Rewriter
	imager     ImageGenerator
	enricher   Enricher
	adminToken string
}

// NewService wires a moderation service.
func NewService(db *database.DB, sweeper Sweeper, rewriter Rewriter, imager ImageGenerator, enricher Enricher, adminToken string) *Service {
	return &Service{
		db:         db,
		sweeper:    sweeper,
		rewriter:   rewriter,
		imager:     imager,
		enricher:   enricher,
		adminToken: adminToken,
	}
}

// Authorize checks a presented token against the configured one. An empty
// configured token leaves the service open; transports are expected to
// call this once at their edge.
func (s *Service) Authorize(token string) error {
	if s.adminToken == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// ListPending returns one page of pending articles, newest first, plus
// the total pending count.
func (s *Service) ListPending(page, pageSize int) ([]database.Article, int, error) {
	return s.db.ListPending(page, pageSize)
}

// GetArticle returns one article with its source name.
func (s *Service) GetArticle(id int64) (*database.Article, error) {
	return s.db.GetArticle(id)
}

// Rewrite re-runs the text transformation for one article. Thin content
// is enriched from the article page first when an enricher is available.
// A transform failure falls back to the original text so the moderator
// always gets a reviewable result.
func (s *Service) Rewrite(ctx context.Context, id int64) (*database.Article, error) {
	if s.rewriter == nil {
		return nil, fmt.Errorf("text transformation is not configured")
	}

	article, err := s.db.GetArticle(id)
	if err != nil {
		return nil, err
	}

	content := article.OriginalContent
	if utf8.RuneCountInString(content) < thinContentChars && s.enricher != nil {
		text, err := s.enricher.FullText(ctx, article.OriginalURL)
		if err != nil {
			log.Printf("enriching article %d: %v", id, err)
		} else if text != "" {
			content = text
		}
	}

	rw, err := s.rewriter.Rewrite(ctx, article.OriginalTitle, content)
	if err != nil {
		log.Printf("rewrite failed for article %d, keeping original: %v", id, err)
		rw = &llm.Rewrite{Title: article.OriginalTitle, Content: content}
	}

	if err := s.db.UpdateArticleRewrite(id, rw.Title, rw.Content, rw.Hashtags); err != nil {
		return nil, err
	}
	return s.db.GetArticle(id)
}

// GenerateImage produces an illustration for one article and stores its
// reference.
func (s *Service) GenerateImage(ctx context.Context, id int64) (*database.Article, error) {
	if s.imager == nil || !s.imager.IsConfigured() {
		return nil, fmt.Errorf("image generation is not configured")
	}

	article, err := s.db.GetArticle(id)
	if err != nil {
		return nil, err
	}

	ref, err := s.imager.Generate(ctx, article.Title(), article.Content())
	if err != nil {
		return nil, fmt.Errorf("generating image: %w", err)
	}
	if err := s.db.UpdateArticleImage(id, ref); err != nil {
		return nil, err
	}
	return s.db.GetArticle(id)
}

// Publish moves a pending article to published. Non-pending articles
// yield database.ErrNotPending.
func (s *Service) Publish(id int64) error {
	return s.db.SetArticleStatus(id, database.StatusPublished)
}

// Reject moves a pending article to rejected.
func (s *Service) Reject(id int64) error {
	return s.db.SetArticleStatus(id, database.StatusRejected)
}

// DeleteArticle removes an article outright, any status.
func (s *Service) DeleteArticle(id int64) error {
	deleted, err := s.db.DeleteArticle(id)
	if err != nil {
		return err
	}
	if !deleted {
		return database.ErrNotFound
	}
	return nil
}

// ClearAll removes every article and returns how many were removed.
func (s *Service) ClearAll() (int, error) {
	return s.db.ClearArticles()
}

// ForceSweep runs a sweep immediately. scheduler.ErrBusy passes through
// when one is already executing.
func (s *Service) ForceSweep(ctx context.Context) (*ingest.Result, error) {
	if s.sweeper == nil {
		return nil, fmt.Errorf("sweeping is not available")
	}
	return s.sweeper.TriggerSweep(ctx)
}

// ListKeywords returns all relevance keywords, sorted.
func (s *Service) ListKeywords() ([]string, error) {
	return s.db.ListKeywords()
}

// AddKeyword stores a keyword; false when it already existed.
func (s *Service) AddKeyword(word string) (bool, error) {
	return s.db.AddKeyword(word)
}

// RemoveKeyword deletes a keyword; false when it was absent.
func (s *Service) RemoveKeyword(word string) (bool, error) {
	return s.db.RemoveKeyword(word)
}

// ListSources returns sources, optionally only active ones.
func (s *Service) ListSources(activeOnly bool) ([]database.Source, error) {
	return s.db.ListSources(activeOnly)
}

// AddSource registers a new source.
func (s *Service) AddSource(name, url string, typ database.SourceType) (int64, error) {
	return s.db.InsertSource(name, url, typ)
}

// UpdateSource changes a source's name and/or URL; nil leaves a field
// untouched.
func (s *Service) UpdateSource(id int64, name, url *string) error {
	return s.db.UpdateSource(id, name, url)
}

// ToggleSource flips a source between active and inactive.
func (s *Service) ToggleSource(id int64) error {
	return s.db.ToggleSource(id)
}

// DeleteSource removes a source and all of its articles.
func (s *Service) DeleteSource(id int64) error {
	return s.db.DeleteSource(id)
}

// Stats returns aggregate pipeline statistics.
func (s *Service) Stats() (*database.Stats, error) {
	return s.db.GetStats()
}
