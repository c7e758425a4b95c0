package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/apparelbot/concierge/commerce"
)

// NewCatalogTools builds the read-only product lookup tools over the
// relational catalog.
func NewCatalogTools(catalog *commerce.Catalog) []*Tool {
	return []*Tool{
		{
			Name: ToolListProducts,
			Info: &schema.ToolInfo{
				Name: ToolListProducts,
				Desc: "List ALL available in-stock products with prices.",
			},
			Run: func(ctx context.Context, inv Invocation) (string, error) {
				views, err := catalog.ListInStock(ctx)
				if err != nil {
					return "", err
				}
				if len(views) == 0 {
					return "Inventory Check: No products currently in stock.", nil
				}
				entries := make([]string, 0, len(views))
				for _, v := range views {
					entries = append(entries, fmt.Sprintf("• **%s** - LKR %s\n  %s",
						v.Name, formatAmount(v.Price), formatImageTags(v.ImageURL, v.Name)))
				}
				return strings.Join(entries, "\n\n"), nil
			},
		},
		{
			Name: ToolQueryProducts,
			Info: &schema.ToolInfo{
				Name: ToolQueryProducts,
				Desc: "Find products by name, category, or description. Handles typos and partial names.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"search_query": {Type: schema.String, Desc: "Product name or description to search for", Required: true},
				}),
			},
			Run: func(ctx context.Context, inv Invocation) (string, error) {
				args, err := decodeArgs[struct {
					SearchQuery string `json:"search_query"`
				}](inv.Args)
				if err != nil {
					return "", err
				}
				query, err := requireString(args.SearchQuery, "search_query")
				if err != nil {
					return "Please provide a search term.", nil
				}

				views, err := catalog.Search(ctx, query)
				if err != nil {
					return "", err
				}
				if len(views) == 0 {
					return fmt.Sprintf("I searched everywhere but couldn't find a match for '%s'. Try checking the full product list.", query), nil
				}
				return renderProductViews(views), nil
			},
		},
	}
}

func renderProductViews(views []commerce.ProductView) string {
	entries := make([]string, 0, len(views))
	for _, v := range views {
		sizes := make([]string, 0, len(v.Sizes))
		for _, s := range v.Sizes {
			sizes = append(sizes, fmt.Sprintf("%s (%d left)", s.Size, s.StockQuantity))
		}
		entries = append(entries, fmt.Sprintf("**%s** - LKR %s\n%s\nSizes: %s\n%s",
			v.Name, formatAmount(v.Price), v.Description, strings.Join(sizes, ", "),
			formatImageTags(v.ImageURL, v.Name)))
	}
	return strings.Join(entries, "\n\n")
}

// formatImageTags renders up to three image references as HTML tags the
// chat frontend inlines. Empty and "nan" spreadsheet leftovers are skipped.
func formatImageTags(refs, altText string) string {
	if strings.TrimSpace(refs) == "" {
		return ""
	}
	var tags []string
	for _, ref := range strings.Split(refs, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.EqualFold(ref, "nan") {
			continue
		}
		tags = append(tags, fmt.Sprintf(
			`<img src="%s" alt="%s" style="max-width: 150px; border-radius: 8px; margin: 5px;" />`,
			ref, altText))
		if len(tags) == 3 {
			break
		}
	}
	return strings.Join(tags, "")
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
