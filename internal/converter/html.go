package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/html"
)

const maxPageBytes = 5 << 20

// ErrNoReadableContent is returned when a page has no extractable text
var ErrNoReadableContent = errors.New("no readable content found in page")

// HTMLText extracts the main content of an HTML document. pageURL resolves
// relative links and may be nil. Documents too small for readability fall
// back to the visible body text.
func HTMLText(data []byte, pageURL *url.URL) (string, error) {
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "file", Path: "/upload.html"}
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err == nil && article.Node != nil {
		var buf bytes.Buffer
		if err := article.RenderText(&buf); err == nil {
			if text := strings.TrimSpace(buf.String()); text != "" {
				return text, nil
			}
		}
	}

	text, err := visibleText(data)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoReadableContent
	}
	return text, nil
}

// visibleText concatenates text nodes outside script, style and head
func visibleText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				lines = append(lines, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(lines, "\n"), nil
}

// PageFetcher downloads job description pages. Static pages are read over
// plain HTTP. When that yields nothing a headless Chromium renders the page.
type PageFetcher struct {
	client  *http.Client
	logger  *slog.Logger
	browser bool

	mu sync.Mutex
	pw *playwright.Playwright
	br playwright.Browser
}

// NewPageFetcher creates a fetcher with the browser fallback enabled
func NewPageFetcher() *PageFetcher {
	return &PageFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
		browser: true,
	}
}

// WithHTTPClient replaces the HTTP client
func (f *PageFetcher) WithHTTPClient(c *http.Client) *PageFetcher {
	f.client = c
	return f
}

// WithLogger sets the logger
func (f *PageFetcher) WithLogger(logger *slog.Logger) *PageFetcher {
	f.logger = logger
	return f
}

// WithBrowser toggles the playwright fallback
func (f *PageFetcher) WithBrowser(enabled bool) *PageFetcher {
	f.browser = enabled
	return f
}

// Fetch returns the readable text of the page at rawURL
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", &ConversionError{OriginalError: err, Hint: fmt.Sprintf("failed to parse URL: %s", rawURL)}
	}
	if pageURL.Scheme != "http" && pageURL.Scheme != "https" {
		return "", &ConversionError{Hint: fmt.Sprintf("unsupported URL scheme: %s", pageURL.Scheme)}
	}

	text, httpErr := f.fetchStatic(ctx, pageURL)
	if httpErr == nil {
		return Clean(text), nil
	}
	if !f.browser {
		return "", httpErr
	}

	f.logger.DebugContext(ctx, "static fetch failed, rendering with browser", "url", rawURL, "error", httpErr)
	text, err = f.render(ctx, pageURL)
	if err != nil {
		return "", errors.Join(httpErr, err)
	}
	return Clean(text), nil
}

func (f *PageFetcher) fetchStatic(ctx context.Context, pageURL *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Debug("error closing response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: pageURL.String()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return HTMLText(body, pageURL)
}

func (f *PageFetcher) render(ctx context.Context, pageURL *url.URL) (string, error) {
	br, err := f.startBrowser()
	if err != nil {
		return "", err
	}

	page, err := br.NewPage()
	if err != nil {
		return "", &ConversionError{OriginalError: err, Hint: "failed to create new page"}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			f.logger.Debug("error closing page", "error", closeErr)
		}
	}()

	timeout := 30000.0
	if deadline, ok := ctx.Deadline(); ok {
		timeout = float64(time.Until(deadline).Milliseconds())
	}
	if _, err := page.Goto(pageURL.String(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(timeout),
	}); err != nil {
		return "", &ConversionError{OriginalError: err, Hint: fmt.Sprintf("failed to navigate to %s", pageURL)}
	}

	content, err := page.Content()
	if err != nil {
		return "", &ConversionError{OriginalError: err, Hint: "failed to get page content"}
	}
	return HTMLText([]byte(content), pageURL)
}

// startBrowser launches Chromium once and reuses it
func (f *PageFetcher) startBrowser() (playwright.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.br != nil {
		return f.br, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, &ConversionError{OriginalError: err, Hint: "failed to initialize playwright"}
	}
	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			f.logger.Debug("error stopping playwright", "error", stopErr)
		}
		return nil, &ConversionError{OriginalError: err, Hint: "failed to launch chromium browser"}
	}
	f.pw, f.br = pw, br
	return br, nil
}

// Close stops the browser if it was started
func (f *PageFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	if f.br != nil {
		if err := f.br.Close(); err != nil {
			firstErr = err
		}
		f.br = nil
	}
	if f.pw != nil {
		if err := f.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		f.pw = nil
	}
	return firstErr
}
