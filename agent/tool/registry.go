package tool

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Tool identifiers.
const (
	ToolListProducts     = "list_products"
	ToolQueryProducts    = "query_product_database"
	ToolWebSearch        = "tavily_general_search"
	ToolCreateDraftOrder = "create_draft_order"
	ToolConfirmOrder     = "confirm_order_details"
	ToolRestockNotify    = "add_restock_notification"
)

// Invocation carries one tool call's decoded inputs. SessionID is injected
// by the executor for mutating tools; models cannot set or spoof it.
type Invocation struct {
	SessionID string
	Args      map[string]any
}

// Tool is a named, invocable capability. Run returns a textual observation
// or an error; the executor converts errors into observations so a failing
// tool never crashes a turn.
type Tool struct {
	Name     string
	Info     *schema.ToolInfo
	Mutating bool
	Run      func(ctx context.Context, inv Invocation) (string, error)
}

// Registry maps tool names to capabilities. Lookup is read-only and
// idempotent: asking for a missing name twice yields the same answer and
// mutates nothing.
type Registry struct {
	tools map[string]*Tool
	order []string
}

func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool, len(tools))}
	r.Register(tools...)
	return r
}

func (r *Registry) Register(tools ...*Tool) {
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		if _, seen := r.tools[t.Name]; !seen {
			r.order = append(r.order, t.Name)
		}
		r.tools[t.Name] = t
	}
}

func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Infos returns the eino tool declarations for the named tools, preserving
// the requested order. Unknown names are skipped; with no names given,
// every registered tool is returned in registration order.
func (r *Registry) Infos(names ...string) []*schema.ToolInfo {
	if len(names) == 0 {
		names = r.order
	}
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok && t.Info != nil {
			infos = append(infos, t.Info)
		}
	}
	return infos
}
