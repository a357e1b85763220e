package llm

import (
	"context"
	"fmt"
)

// Rewrite is the transformed form of an article.
type Rewrite struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
}

// Rewriter turns raw article text into publication-ready copy.
type Rewriter struct {
	client *Client
}

// NewRewriter creates a rewriter over a chat client.
func NewRewriter(client *Client) *Rewriter {
	return &Rewriter{client: client}
}

const rewriteSystem = "You are an expert news editor for marketplace and " +
	"e-commerce coverage. You produce engaging, factual copy for social " +
	"channels. Always answer with a single JSON object and nothing else."

const rewritePrompt = `Rewrite the following marketplace news item for publication in a news channel.

TITLE: %s
CONTENT: %s

Requirements:
1. Write a new title, at most 100 characters, informative and engaging.
2. Rewrite the content in 3-6 sentences, keeping every key fact, number, name, and list from the original.
3. Use plain, clear language.
4. Add 3-5 relevant hashtags.

Answer strictly as one JSON object:
{"title": "...", "content": "...", "hashtags": ["#tag1", "#tag2"]}`

// Rewrite transforms title and content. The caller owns the fallback to
// the original text when this fails.
func (r *Rewriter) Rewrite(ctx context.Context, title, content string) (*Rewrite, error) {
	answer, err := r.client.Chat(ctx, rewriteSystem, fmt.Sprintf(rewritePrompt, title, content))
	if err != nil {
		return nil, err
	}

	var rw Rewrite
	if err := decodeJSON(answer, &rw); err != nil {
		return nil, fmt.Errorf("parsing rewrite response: %w", err)
	}
	if rw.Title == "" {
		rw.Title = title
	}
	if rw.Content == "" {
		rw.Content = content
	}
	return &rw, nil
}
