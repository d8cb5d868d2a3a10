package tool

import (
	"context"
	"fmt"

	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"

	"github.com/plankit/plankit/schema"
)

// NewMarkdownRenderer returns a tool that converts markdown text into
// sanitized HTML. Output from prior steps can be rendered safely for
// display surfaces.
func NewMarkdownRenderer() Tool {
	policy := bluemonday.UGCPolicy()

	return Tool{
		Name:        "render_markdown",
		Description: "Converts markdown text into sanitized HTML suitable for embedding in a page.",
		ParamsSchema: schema.Object(map[string]*schema.Schema{
			"markdown": schema.String("The markdown text to render"),
		}, "markdown"),
		Action: func(ctx context.Context, params map[string]any) (string, error) {
			src, _ := params["markdown"].(string)
			if src == "" {
				return "", fmt.Errorf("markdown is required")
			}
			html := markdown.ToHTML([]byte(src), nil, nil)
			return string(policy.SanitizeBytes(html)), nil
		},
	}
}
