package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

// fakeChatModel returns scripted responses and records invocations.
type fakeChatModel struct {
	response *schema.Message
	err      error
	calls    int
	gotMsgs  []*schema.Message
}

var _ einomodel.ToolCallingChatModel = (*fakeChatModel)(nil)

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.gotMsgs = in
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func routeResponse(next string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID: "call-1",
			Function: schema.FunctionCall{
				Name:      routeToolName,
				Arguments: fmt.Sprintf(`{"next":%q}`, next),
			},
		}},
	}
}

func TestRouteFinalAnswerSkipsModel(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{response: routeResponse(string(contractx.DestSales))}
	sup, err := New(model, "prompt")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	transcript := []contractx.Message{
		contractx.UserMessage("thanks!"),
		contractx.AgentMessage("You're welcome.", nil),
	}
	dest, err := sup.Route(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if dest != contractx.DestTerminate {
		t.Fatalf("Route() = %q, want %q", dest, contractx.DestTerminate)
	}
	if model.calls != 0 {
		t.Fatalf("model invoked %d times, want 0", model.calls)
	}
}

func TestRouteDelegatesToModel(t *testing.T) {
	t.Parallel()

	for _, dest := range contractx.Destinations() {
		dest := dest
		t.Run(string(dest), func(t *testing.T) {
			t.Parallel()

			model := &fakeChatModel{response: routeResponse(string(dest))}
			sup, err := New(model, "prompt")
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			got, err := sup.Route(context.Background(), []contractx.Message{
				contractx.UserMessage("do you have this in blue?"),
			})
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}
			if got != dest {
				t.Fatalf("Route() = %q, want %q", got, dest)
			}
			if model.calls != 1 {
				t.Fatalf("model invoked %d times, want 1", model.calls)
			}
		})
	}
}

func TestRouteFailsSafeOnBadDecisions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response *schema.Message
	}{
		{"nil response", nil},
		{"no tool calls", &schema.Message{Role: schema.Assistant, Content: "sure"}},
		{"wrong tool", &schema.Message{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{Name: "other", Arguments: `{}`},
			}},
		}},
		{"malformed arguments", &schema.Message{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{Name: routeToolName, Arguments: `{"next":`},
			}},
		}},
		{"illegal destination", routeResponse("nonexistent_agent")},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sup, err := New(&fakeChatModel{response: tc.response}, "prompt")
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			got, err := sup.Route(context.Background(), []contractx.Message{
				contractx.UserMessage("hello"),
			})
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}
			if got != contractx.DestTerminate {
				t.Fatalf("Route() = %q, want %q", got, contractx.DestTerminate)
			}
		})
	}
}

func TestRouteFlattensToolTraffic(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{response: routeResponse(string(contractx.DestInventoryQuery))}
	sup, err := New(model, "prompt")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// A session whose stored history contains a full tool round, then a
	// fresh user message. The classifier request must not contain raw
	// tool-role messages: their call ids reference assistant tool calls
	// the flattened rendering no longer declares, and providers reject
	// such a sequence.
	transcript := []contractx.Message{
		contractx.UserMessage("do you have the verona?"),
		contractx.AgentMessage("", []contractx.ToolCall{
			{ID: "call-1", Name: "query_product_database", Args: map[string]any{"search_query": "verona"}},
		}),
		contractx.ToolObservation("call-1", "**Verona Wrap Dress** - LKR 5000"),
		contractx.AgentMessage("Yes, it's in stock at LKR 5000.", nil),
		contractx.UserMessage("great, what about size l?"),
	}

	dest, err := sup.Route(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if dest != contractx.DestInventoryQuery {
		t.Fatalf("Route() = %q, want %q", dest, contractx.DestInventoryQuery)
	}

	sawRequest, sawResult := false, false
	for i, msg := range model.gotMsgs {
		if msg.Role == schema.Tool {
			t.Fatalf("message %d has role tool; tool traffic must be flattened", i)
		}
		if len(msg.ToolCalls) != 0 {
			t.Fatalf("message %d carries tool calls; tool traffic must be flattened", i)
		}
		if strings.Contains(msg.Content, "[requested tools: query_product_database]") {
			sawRequest = true
		}
		if strings.Contains(msg.Content, "[tool result] **Verona Wrap Dress**") {
			sawResult = true
		}
	}
	if !sawRequest || !sawResult {
		t.Fatalf("flattened lines missing: request=%v result=%v", sawRequest, sawResult)
	}
}

func TestRouteSurfacesModelErrors(t *testing.T) {
	t.Parallel()

	sup, err := New(&fakeChatModel{err: errors.New("gateway timeout")}, "prompt")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = sup.Route(context.Background(), []contractx.Message{
		contractx.UserMessage("hello"),
	})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Route() error = %v, want ErrModelInvoke", err)
	}
}
