package tool

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/plankit/plankit/schema"
)

// PageReader fetches a web page and extracts its readable text.
type PageReader struct {
	client   *http.Client
	maxChars int
}

type PageReaderOption func(*PageReader)

// WithPageReaderHTTPClient sets a custom HTTP client.
func WithPageReaderHTTPClient(client *http.Client) PageReaderOption {
	return func(p *PageReader) {
		p.client = client
	}
}

// WithPageReaderMaxChars caps the extracted text length.
func WithPageReaderMaxChars(n int) PageReaderOption {
	return func(p *PageReader) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// NewPageReader creates a new page reader tool.
func NewPageReader(opts ...PageReaderOption) *PageReader {
	p := &PageReader{
		client:   &http.Client{},
		maxChars: 8000,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tool returns the declarative tool definition for the reader.
func (p *PageReader) Tool() Tool {
	return Tool{
		Name:        "read_page",
		Description: "Fetches a web page and returns its readable text content. Input is a URL, typically taken from a prior web_search step.",
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"url": schema.String("The URL of the page to read"),
		}, "url"),
		Action: p.read,
	}
}

func (p *PageReader) read(ctx context.Context, params map[string]any) (string, error) {
	pageURL, _ := params["url"].(string)
	if pageURL == "" {
		return "", fmt.Errorf("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; plankit/1.0)")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	doc.Find("script, style, nav, footer, header").Remove()

	var sb strings.Builder
	doc.Find("h1, h2, h3, p, li").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	})

	text := sb.String()
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}
	if len(text) > p.maxChars {
		text = text[:p.maxChars] + "..."
	}
	if text == "" {
		return "No readable content found", nil
	}
	return text, nil
}
