// Package fetch retrieves public profile pages over HTTP, with retries and an
// optional headless browser for pages that render client-side.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v5"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeImporter/1.0)"

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 5 << 20

// Result holds the raw and processed content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout         time.Duration
	UserAgent       string
	Headers         map[string]string
	MaxTries        uint
	InitialInterval time.Duration
	Client          *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		MaxTries:        3,
		InitialInterval: time.Second,
	}
}

// IsRetryableStatus reports whether an HTTP status is worth another attempt.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// URL retrieves HTML content from a URL. Transient failures (429 and 5xx) are
// retried with exponential backoff; other statuses fail immediately.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	operation := func() (*Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, backoff.Permanent(&Error{URL: urlStr, Message: "failed to create request", Cause: err})
		}

		req.Header.Set("User-Agent", opts.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		for key, value := range opts.Headers {
			req.Header.Set(key, value)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, backoff.Permanent(&Error{URL: urlStr, Message: "HTTP request failed", Cause: err})
		}
		defer func() { _ = resp.Body.Close() }()

		if IsRetryableStatus(resp.StatusCode) {
			return nil, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(&Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode})
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
		if err != nil {
			return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
		}

		return &Result{
			URL:         urlStr,
			HTML:        string(body),
			ContentType: resp.Header.Get("Content-Type"),
			StatusCode:  resp.StatusCode,
		}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = opts.InitialInterval
	bo.MaxInterval = 10 * opts.InitialInterval

	tries := opts.MaxTries
	if tries == 0 {
		tries = 1
	}

	retryOpts := []backoff.RetryOption{backoff.WithBackOff(bo), backoff.WithMaxTries(tries)}
	if opts.Timeout > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(opts.Timeout))
	}

	result, err := backoff.Retry(ctx, operation, retryOpts...)
	if err != nil {
		var fetchErr *Error
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		return nil, &Error{URL: urlStr, Message: "request abandoned", Cause: err}
	}
	return result, nil
}

// ExtractMainText parses HTML and returns the main body text.
// It removes noise elements, then finds content using contentSelectors.
// If no content selectors match, it falls back to the body element.
func ExtractMainText(html string, contentSelectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .cookie-banner, .popup").Remove()

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// cleanWhitespace drops blank lines and trims the rest.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
