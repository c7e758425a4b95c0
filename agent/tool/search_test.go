package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

type fakeSearcher struct {
	hits     []contractx.SearchResult
	err      error
	gotQuery string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]contractx.SearchResult, error) {
	f.gotQuery = query
	return f.hits, f.err
}

func TestWebSearchTool(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{hits: []contractx.SearchResult{
		{Title: "Summer trends 2026", URL: "https://fashion.example/trends", Snippet: "Linen is back."},
		{Title: "Colour of the year", URL: "https://fashion.example/colour", Snippet: "Deep teal."},
	}}
	tl := NewWebSearchTool(searcher)

	out, err := tl.Run(context.Background(), Invocation{Args: map[string]any{"query": "summer trends"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if searcher.gotQuery != "summer trends" {
		t.Fatalf("searcher query = %q", searcher.gotQuery)
	}
	if !strings.Contains(out, "1. Summer trends 2026") || !strings.Contains(out, "2. Colour of the year") {
		t.Fatalf("output = %q", out)
	}
}

func TestWebSearchToolNoHits(t *testing.T) {
	t.Parallel()

	tl := NewWebSearchTool(&fakeSearcher{})
	out, err := tl.Run(context.Background(), Invocation{Args: map[string]any{"query": "nothing"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "No web results found for 'nothing'." {
		t.Fatalf("output = %q", out)
	}
}

func TestWebSearchToolPropagatesFailure(t *testing.T) {
	t.Parallel()

	tl := NewWebSearchTool(&fakeSearcher{err: errors.New("api quota exceeded")})
	if _, err := tl.Run(context.Background(), Invocation{Args: map[string]any{"query": "x"}}); err == nil {
		t.Fatal("Run() error = nil, want quota failure")
	}
}

func TestRegistryInfosPreservesOrder(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(
		echoTool("a", false),
		echoTool("b", true),
		echoTool("c", false),
	)

	infos := registry.Infos("c", "a")
	if len(infos) != 2 || infos[0].Name != "c" || infos[1].Name != "a" {
		t.Fatalf("Infos() = %+v", infos)
	}

	if _, ok := registry.Lookup("missing"); ok {
		t.Fatal("Lookup(missing) = ok")
	}
}
