package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Web loader limits. The fetch rate bound keeps multi-URL ingestion polite
// toward a single host.
const (
	webFetchTimeout     = 30 * time.Second
	webFetchesPerSecond = 4
)

// HTML-to-text transformation patterns.
var (
	scriptBlock   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlock    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	lineBreakTag  = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphEnd  = regexp.MustCompile(`(?i)</p>`)
	divEnd        = regexp.MustCompile(`(?i)</div>`)
	headingEnd    = regexp.MustCompile(`(?i)</h[1-6]>`)
	listItemStart = regexp.MustCompile(`(?i)<li[^>]*>`)
	listItemEnd   = regexp.MustCompile(`(?i)</li>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	excessNewline = regexp.MustCompile(`\n{3,}`)
)

// htmlToText converts HTML to plain text: script/style blocks are dropped,
// block-level closing tags and <br> map to newlines, list items become
// bulleted lines, remaining tags are stripped, the five common entities are
// decoded, and runs of 3+ newlines collapse to exactly 2.
func htmlToText(html string) string {
	text := scriptBlock.ReplaceAllString(html, "")
	text = styleBlock.ReplaceAllString(text, "")
	text = lineBreakTag.ReplaceAllString(text, "\n")
	text = paragraphEnd.ReplaceAllString(text, "\n\n")
	text = divEnd.ReplaceAllString(text, "\n")
	text = headingEnd.ReplaceAllString(text, "\n\n")
	text = listItemStart.ReplaceAllString(text, "- ")
	text = listItemEnd.ReplaceAllString(text, "\n")
	text = anyTag.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)

	text = excessNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// WebLoader fetches http/https sources. HTML responses are converted to
// plain text before chunking; anything else is chunked as-is.
type WebLoader struct {
	chunkSize    int
	chunkOverlap int
	client       *http.Client
	limiter      *rate.Limiter
}

// NewWebLoader creates a web loader with the given chunking parameters.
func NewWebLoader(chunkSize, chunkOverlap int) *WebLoader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &WebLoader{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		client:       &http.Client{Timeout: webFetchTimeout},
		limiter:      rate.NewLimiter(rate.Limit(webFetchesPerSecond), 1),
	}
}

// CanHandle reports whether source is an http or https URL.
func (*WebLoader) CanHandle(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load fetches the URL and chunks its text content. Non-2xx responses yield
// an *HTTPError carrying the status code. Chunk IDs are
// "<hostname>-<index>" and metadata records the original URL.
func (l *WebLoader) Load(ctx context.Context, source string) ([]Document, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", source, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{URL: source, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	content := string(raw)
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		content = htmlToText(content)
	}

	parsed, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", source, err)
	}

	chunks := Chunk(content, l.chunkSize, l.chunkOverlap)
	docs := make([]Document, 0, len(chunks))
	for i, text := range chunks {
		docs = append(docs, Document{
			ID:      fmt.Sprintf("%s-%d", parsed.Hostname(), i),
			Content: text,
			Source:  source,
			Metadata: map[string]any{
				"url":           source,
				MetaChunkIndex:  i,
				MetaTotalChunks: len(chunks),
			},
		})
	}

	return docs, nil
}
