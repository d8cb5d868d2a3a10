package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/plankit/plankit/schema"
)

// BraveSearch is a tool that uses the Brave Search API to search the web.
type BraveSearch struct {
	APIKey  string
	BaseURL string
	Count   int
	Country string
	Lang    string

	client *http.Client
}

type BraveOption func(*BraveSearch)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveSearch) {
		b.BaseURL = baseURL
	}
}

// WithBraveCount sets the default number of results to return (1-20).
func WithBraveCount(count int) BraveOption {
	return func(b *BraveSearch) {
		if count < 1 {
			count = 1
		}
		if count > 20 {
			count = 20
		}
		b.Count = count
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US", "CN").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) {
		b.Country = country
	}
}

// WithBraveLang sets the language code for search results (e.g., "en", "zh").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) {
		b.Lang = lang
	}
}

// WithBraveHTTPClient sets a custom HTTP client.
func WithBraveHTTPClient(client *http.Client) BraveOption {
	return func(b *BraveSearch) {
		b.client = client
	}
}

// NewBraveSearch creates a new BraveSearch tool.
// If apiKey is empty, it tries to read from BRAVE_API_KEY environment variable.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("BRAVE_API_KEY not set")
	}

	b := &BraveSearch{
		APIKey:  apiKey,
		BaseURL: "https://api.search.brave.com/res/v1/web/search",
		Count:   10,
		Country: "US",
		Lang:    "en",
		client:  &http.Client{},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// SearchResult is one entry of the search tool's structured result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Tool returns the declarative tool definition for the search.
// The result is a JSON array, so downstream steps can reference
// individual fields of the structured result.
func (b *BraveSearch) Tool() Tool {
	return Tool{
		Name:        "web_search",
		Description: "Searches the web and returns a JSON array of results with title, url and description. Useful for finding current information.",
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"query": schema.String("The search query"),
			"count": schema.Integer("Number of results to return (1-20)"),
		}, "query"),
		ResultSchema: schema.Array(schema.Object(map[string]*schema.Schema{
			"title":       schema.String(""),
			"url":         schema.String(""),
			"description": schema.String(""),
		}), "Search results"),
		Action: b.search,
	}
}

func (b *BraveSearch) search(ctx context.Context, params map[string]any) (string, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	count := b.Count
	// JSON decoding yields float64, reference resolution yields int64 for
	// integer-typed params; accept both.
	switch c := params["count"].(type) {
	case float64:
		if c >= 1 && c <= 20 {
			count = int(c)
		}
	case int64:
		if c >= 1 && c <= 20 {
			count = int(c)
		}
	case int:
		if c >= 1 && c <= 20 {
			count = c
		}
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("count", fmt.Sprintf("%d", count))
	if b.Country != "" {
		values.Set("country", b.Country)
	}
	if b.Lang != "" {
		values.Set("search_lang", b.Lang)
	}

	reqURL := fmt.Sprintf("%s?%s", b.BaseURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("brave api returned status: %d", resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]SearchResult, 0, count)
	if web, ok := payload["web"].(map[string]interface{}); ok {
		if items, ok := web["results"].([]interface{}); ok {
			for _, r := range items {
				item, ok := r.(map[string]interface{})
				if !ok {
					continue
				}
				title, _ := item["title"].(string)
				link, _ := item["url"].(string)
				description, _ := item["description"].(string)
				results = append(results, SearchResult{
					Title:       title,
					URL:         link,
					Description: description,
				})
			}
		}
	}

	out, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return string(out), nil
}
