package commerce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/uptrace/bun"
)

// similarityCutoff is the minimum normalized similarity for the fuzzy
// fallback to accept a candidate.
const similarityCutoff = 0.5

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// Catalog answers read-only product questions against the relational store.
type Catalog struct {
	db bun.IDB
}

func NewCatalog(db bun.IDB) *Catalog {
	return &Catalog{db: db}
}

// SizeView is one inventory line of a product view.
type SizeView struct {
	Size          string
	StockQuantity int
}

// ProductView is the catalog projection handed to the query tools.
type ProductView struct {
	Name        string
	Price       float64
	Colour      string
	Description string
	ImageURL    string
	Sizes       []SizeView
}

// ListInStock returns every product that has at least one in-stock
// inventory line, ordered by name.
func (c *Catalog) ListInStock(ctx context.Context) ([]ProductView, error) {
	var products []Product
	err := c.db.NewSelect().
		Model(&products).
		Relation("Inventory").
		OrderExpr("p.product_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return viewsOf(products, true), nil
}

// Search resolves a free-text query into product views using three
// strategies in order: case-insensitive substring over name, description
// and category; split-keyword AND match over the name; similarity-ranked
// fallback against the full catalog. Only in-stock lines are reported.
func (c *Catalog) Search(ctx context.Context, query string) ([]ProductView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	products, err := c.substringSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		products, err = c.keywordSearch(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	if len(products) == 0 {
		name, ok, err := c.closestName(ctx, query)
		if err != nil {
			return nil, err
		}
		if ok {
			products, err = c.substringSearch(ctx, name)
			if err != nil {
				return nil, err
			}
		}
	}

	return viewsOf(products, true), nil
}

func (c *Catalog) substringSearch(ctx context.Context, term string) ([]Product, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	var products []Product
	err := c.db.NewSelect().
		Model(&products).
		Relation("Inventory").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(p.product_name) LIKE ?", pattern).
				WhereOr("LOWER(p.description) LIKE ?", pattern).
				WhereOr("LOWER(p.category) LIKE ?", pattern)
		}).
		OrderExpr("p.product_name ASC").
		Limit(20).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	return products, nil
}

func (c *Catalog) keywordSearch(ctx context.Context, query string) ([]Product, error) {
	cleaned := nonWordPattern.ReplaceAllString(query, " ")
	var keywords []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 2 {
			keywords = append(keywords, strings.ToLower(w))
		}
	}
	if len(keywords) < 2 {
		return nil, nil
	}

	var products []Product
	q := c.db.NewSelect().
		Model(&products).
		Relation("Inventory").
		OrderExpr("p.product_name ASC").
		Limit(20)
	for _, kw := range keywords {
		q = q.Where("LOWER(p.product_name) LIKE ?", "%"+kw+"%")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return products, nil
}

// closestName picks the single best similarity candidate above the cutoff.
// Candidates are ranked by score and the ranking is deterministic: ties go
// to the lexically first name.
func (c *Catalog) closestName(ctx context.Context, query string) (string, bool, error) {
	var names []string
	err := c.db.NewSelect().
		Model((*Product)(nil)).
		Column("product_name").
		Scan(ctx, &names)
	if err != nil {
		return "", false, fmt.Errorf("load product names: %w", err)
	}
	sort.Strings(names)

	best := ""
	bestScore := 0.0
	for _, name := range names {
		score := similarity(query, name)
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore < similarityCutoff {
		return "", false, nil
	}
	return best, true, nil
}

// ResolveProduct turns a possibly misspelled product name into a single
// catalog row: substring match first, similarity fallback second. The
// result is deterministic for a fixed catalog and input.
func ResolveProduct(ctx context.Context, db bun.IDB, name string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ProductNotFoundError{Query: name}
	}

	var product Product
	err := db.NewSelect().
		Model(&product).
		Where("LOWER(product_name) LIKE ?", "%"+strings.ToLower(name)+"%").
		OrderExpr("product_name ASC").
		Limit(1).
		Scan(ctx)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	catalog := NewCatalog(db)
	closest, ok, err := catalog.closestName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ProductNotFoundError{Query: name}
	}

	err = db.NewSelect().
		Model(&product).
		Where("product_name = ?", closest).
		OrderExpr("product_id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ProductNotFoundError{Query: name}
		}
		return nil, fmt.Errorf("resolve product by closest name: %w", err)
	}
	return &product, nil
}

func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

func viewsOf(products []Product, inStockOnly bool) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		view := ProductView{
			Name:        p.ProductName,
			Price:       p.Price,
			Colour:      p.Colour,
			Description: p.Description,
			ImageURL:    p.ImageURL,
		}
		for _, line := range p.Inventory {
			if line == nil {
				continue
			}
			if inStockOnly && line.StockQuantity <= 0 {
				continue
			}
			view.Sizes = append(view.Sizes, SizeView{
				Size:          line.Size,
				StockQuantity: line.StockQuantity,
			})
		}
		if inStockOnly && len(view.Sizes) == 0 {
			continue
		}
		views = append(views, view)
	}
	return views
}
