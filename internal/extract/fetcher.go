// Package extract turns a web page into a structured instruction guide.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// Compile-time interface check.
var _ domain.Extractor = (*Fetcher)(nil)

// maxBodyBytes caps how much of a page we read. Instruction pages are
// text-heavy but small; anything past this is ads and boilerplate.
const maxBodyBytes = 1 << 20

// maxPageText caps the text handed to the guide parser, to stay inside
// the model's context window.
const maxPageText = 24000

// GuideParser turns raw page text into a structured guide.
type GuideParser interface {
	ExtractGuide(ctx context.Context, pageText string) (*domain.Guide, error)
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header for page requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithFetchTimeout sets the HTTP client timeout for page requests.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.httpClient.Timeout = d }
}

// Fetcher downloads a web page, strips it down to readable text, and
// hands the text to a guide parser to produce a structured guide.
type Fetcher struct {
	parser     GuideParser
	httpClient *http.Client
	userAgent  string
	log        *zap.Logger
}

// NewFetcher creates a page fetcher backed by the given guide parser.
func NewFetcher(parser GuideParser, log *zap.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		parser: parser,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		userAgent: "AssistChan/1.0",
		log:       log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Extract fetches the page at locator and returns the guide found on it.
// The returned guide carries the locator and page title as its source.
func (f *Fetcher) Extract(ctx context.Context, locator string) (*domain.Guide, error) {
	if _, err := url.ParseRequestURI(locator); err != nil {
		return nil, fmt.Errorf("%w: invalid address %q: %v", domain.ErrExtraction, locator, err)
	}

	pageTitle, pageText, err := f.fetchPage(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if strings.TrimSpace(pageText) == "" {
		return nil, fmt.Errorf("%w: page at %s has no readable text", domain.ErrExtraction, locator)
	}

	f.log.Debug("fetched page",
		zap.String("url", locator),
		zap.String("title", pageTitle),
		zap.Int("chars", len(pageText)))

	guide, err := f.parser.ExtractGuide(ctx, pageText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	guide.Sources = []domain.Source{{URI: locator, Title: pageTitle}}
	return guide, nil
}

// fetchPage downloads the page and returns its title and readable text.
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (title, text string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", "", err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", "", err
	}

	title = extractTitle(doc)
	text = extractReadableText(doc)
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return title, text, nil
}

// extractTitle extracts the page title from HTML.
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

// Tags whose contents never hold instructions.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"iframe":   true,
	"svg":      true,
	"form":     true,
	"button":   true,
}

// Tags that end a run of text. A newline between them keeps list items
// and paragraphs separate so the parser can tell steps apart.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "main": true, "table": true,
	"tr": true, "br": true, "blockquote": true,
}

// extractReadableText extracts the visible text from parsed HTML,
// keeping block boundaries as newlines.
func extractReadableText(doc *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			sb.WriteString("\n")
		}
	}
	traverse(doc)

	// Collapse runs of blank lines left behind by nested blocks.
	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
