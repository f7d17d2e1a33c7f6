package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum visible text length for a fetched profile page.
const MinContentLength = 200

// profileReadySelector matches the structured data block or the top card of a
// hydrated profile page.
const profileReadySelector = `script[type="application/ld+json"], section.top-card-layout, main h1`

// NeedsRender reports whether a fetched profile page should be loaded in a
// browser: it carries no structured data and too little visible text.
func NeedsRender(html, visibleText string) bool {
	if strings.Contains(html, "application/ld+json") {
		return false
	}
	return len(strings.TrimSpace(visibleText)) < MinContentLength
}

// RenderOptions controls headless rendering of a profile page.
type RenderOptions struct {
	Timeout time.Duration
	// Settle is extra time given to scripts after the profile content appears.
	Settle  time.Duration
	Verbose bool
}

// Render loads url in headless Chrome, waits for profile content and returns
// the rendered HTML. Requires Chrome/Chromium on the host.
func Render(ctx context.Context, url string, opts RenderOptions) (string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Verbose {
		log.Printf("[browser] rendering %s (timeout %s)", url, opts.Timeout)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("blink-settings", "imagesEnabled=false"),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelRun()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady(profileReadySelector, chromedp.ByQuery),
	}
	if opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(opts.Settle))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	if opts.Verbose {
		log.Printf("[browser] rendered %d bytes from %s", len(html), url)
	}
	return html, nil
}
