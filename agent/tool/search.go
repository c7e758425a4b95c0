package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

// NewWebSearchTool wraps the public web search collaborator.
func NewWebSearchTool(searcher contractx.Searcher) *Tool {
	return &Tool{
		Name: ToolWebSearch,
		Info: &schema.ToolInfo{
			Name: ToolWebSearch,
			Desc: "Search the public web for fashion trends, company news, and other general topics.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Search query", Required: true},
			}),
		},
		Run: func(ctx context.Context, inv Invocation) (string, error) {
			args, err := decodeArgs[struct {
				Query string `json:"query"`
			}](inv.Args)
			if err != nil {
				return "", err
			}
			query, err := requireString(args.Query, "query")
			if err != nil {
				return "", err
			}

			hits, err := searcher.Search(ctx, query)
			if err != nil {
				return "", err
			}
			if len(hits) == 0 {
				return fmt.Sprintf("No web results found for '%s'.", query), nil
			}

			entries := make([]string, 0, len(hits))
			for i, hit := range hits {
				entries = append(entries, fmt.Sprintf("%d. %s\n   %s\n   %s", i+1, hit.Title, hit.URL, hit.Snippet))
			}
			return strings.Join(entries, "\n"), nil
		},
	}
}
