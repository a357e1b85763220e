package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/config"
)

// ImageGenerator produces an illustration for an article through an
// OpenAI-compatible images API and stores it locally.
type ImageGenerator struct {
	cfg        config.Image
	apiKey     string
	dir        string
	httpClient *http.Client
}

// NewImageGenerator creates a generator storing images under dir.
func NewImageGenerator(cfg config.Image, dir string) *ImageGenerator {
	return &ImageGenerator{
		cfg:        cfg,
		apiKey:     os.Getenv(cfg.APIKeyEnv),
		dir:        dir,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured reports whether image generation can run.
func (g *ImageGenerator) IsConfigured() bool {
	return g != nil && g.cfg.Enabled && g.cfg.Endpoint != "" && g.apiKey != ""
}

// Generate requests an image for the article, downloads it, and returns
// the local file path.
func (g *ImageGenerator) Generate(ctx context.Context, title, content string) (string, error) {
	if !g.IsConfigured() {
		return "", fmt.Errorf("image generation not configured")
	}

	prompt := imagePrompt(title, content)

	payload := map[string]any{
		"model":   g.cfg.Model,
		"prompt":  prompt,
		"size":    g.cfg.Size,
		"quality": g.cfg.Quality,
		"n":       1,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("images API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("images API returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("images API returned no image")
	}

	return g.download(ctx, result.Data[0].URL)
}

// download saves the generated image under a unique name and returns its
// path.
func (g *ImageGenerator) download(ctx context.Context, imageURL string) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating images directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading image: %s", resp.Status)
	}

	path := filepath.Join(g.dir, uuid.NewString()+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing image file: %w", err)
	}
	return path, nil
}

// imagePrompt builds the generation prompt from article text.
func imagePrompt(title, content string) string {
	summary := content
	if runes := []rune(summary); len(runes) > 500 {
		summary = string(runes[:500])
	}
	return fmt.Sprintf(
		"News article illustration: '%s'. Content summary: %s. "+
			"Style: photorealistic, high detail, professional illustration for a news article.",
		title, summary,
	)
}
