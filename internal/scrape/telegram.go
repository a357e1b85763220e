package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TelegramPreviewReader reads public channels through the t.me/s/ web
// preview, which needs no credentials. Only public channels are readable
// this way; private ones need a heavier client behind the same interface.
type TelegramPreviewReader struct {
	client    *http.Client
	userAgent string
}

// NewTelegramPreviewReader creates the preview reader.
func NewTelegramPreviewReader(userAgent string, timeout time.Duration) *TelegramPreviewReader {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &TelegramPreviewReader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// RecentMessages fetches the channel preview page and returns up to limit
// of the newest messages.
func (t *TelegramPreviewReader) RecentMessages(ctx context.Context, channelURL string, limit int) ([]ChannelMessage, error) {
	name, err := channelName(channelURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://t.me/s/"+name, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channel preview for %s: %s", name, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing channel preview: %w", err)
	}

	messages := ParseChannelPreview(doc)
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// ParseChannelPreview extracts messages from a t.me/s/ preview document.
// The preview lists messages oldest-first; that order is preserved.
func ParseChannelPreview(doc *goquery.Document) []ChannelMessage {
	var messages []ChannelMessage
	doc.Find("div.tgme_widget_message").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Find("div.tgme_widget_message_text").First().Text())
		if text == "" {
			return
		}

		post, ok := sel.Attr("data-post")
		if !ok || post == "" {
			return
		}

		var posted *time.Time
		if stamp, ok := sel.Find("time").First().Attr("datetime"); ok {
			if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
				posted = &ts
			}
		}

		messages = append(messages, ChannelMessage{
			Text:   text,
			Link:   "https://t.me/" + post,
			Posted: posted,
		})
	})
	return messages
}

// channelName extracts the channel slug from a t.me URL or @handle.
func channelName(channelURL string) (string, error) {
	s := strings.TrimSpace(channelURL)
	if strings.HasPrefix(s, "@") {
		return strings.TrimPrefix(s, "@"), nil
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parsing channel url: %w", err)
	}

	path := strings.Trim(u.Path, "/")
	path = strings.TrimPrefix(path, "s/")
	if path == "" {
		return "", fmt.Errorf("no channel name in %q", channelURL)
	}
	return strings.SplitN(path, "/", 2)[0], nil
}
