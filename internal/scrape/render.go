package scrape

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages through headless Chrome so that
// script-generated content is present in the returned HTML.
type ChromeRenderer struct {
	userAgent string
	wait      time.Duration
	timeout   time.Duration
}

// NewChromeRenderer creates a renderer. wait is how long to let scripts
// settle after navigation before the DOM is captured.
func NewChromeRenderer(userAgent string, wait, timeout time.Duration) *ChromeRenderer {
	if wait == 0 {
		wait = 5 * time.Second
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &ChromeRenderer{userAgent: userAgent, wait: wait, timeout: timeout}
}

// Render navigates to the URL in a fresh headless browser context and
// returns the post-script DOM.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(r.userAgent),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(r.wait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
