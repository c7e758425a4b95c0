package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

// ToolWorker is a specialist agent backed by a tool-calling chat model
// with a fixed role instruction. It captures every tool call the model
// requests into one agent message and never executes a tool itself.
type ToolWorker struct {
	name         string
	model        einomodel.BaseChatModel
	systemPrompt string
}

var _ contractx.Worker = (*ToolWorker)(nil)

// NewToolWorker binds the given tool declarations to the chat model. An
// empty binding set yields a plain conversational worker.
func NewToolWorker(
	name string,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	tools []*schema.ToolInfo,
) (*ToolWorker, error) {
	model := einomodel.BaseChatModel(chatModel)
	if len(tools) > 0 {
		bound, err := chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for worker=%s: %v", contractx.ErrModelInvoke, name, err)
		}
		model = bound
	}

	return &ToolWorker{
		name:         name,
		model:        model,
		systemPrompt: systemPrompt,
	}, nil
}

func (w *ToolWorker) Invoke(ctx context.Context, transcript []contractx.Message) (contractx.Message, error) {
	msgs, err := toModelMessages(w.systemPrompt, transcript)
	if err != nil {
		return contractx.Message{}, err
	}

	out, err := w.model.Generate(ctx, msgs)
	if err != nil {
		return contractx.Message{}, fmt.Errorf("%w: worker=%s invoke: %v", contractx.ErrModelInvoke, w.name, err)
	}
	if out == nil {
		return contractx.Message{}, fmt.Errorf("%w: worker=%s returned no message", contractx.ErrSchemaViolation, w.name)
	}

	// A call outside the binding set is forwarded as-is: the worker's
	// scoped executor answers it with a not-found observation, which
	// keeps the turn alive the way any tool failure does.
	calls, err := toToolCalls(out.ToolCalls)
	if err != nil {
		return contractx.Message{}, err
	}

	return contractx.AgentMessage(strings.TrimSpace(out.Content), calls), nil
}

// toToolCalls converts provider tool calls into the transcript form. IDs
// are synthesized when a provider omits them so results stay correlatable.
func toToolCalls(calls []schema.ToolCall) ([]contractx.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	out := make([]contractx.ToolCall, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		id := strings.TrimSpace(call.ID)
		if id == "" {
			id = uuid.NewString()
		}

		out = append(out, contractx.ToolCall{ID: id, Name: name, Args: args})
	}
	return out, nil
}

// toModelMessages renders the transcript for the provider, with the role
// instruction as the system message.
func toModelMessages(systemPrompt string, transcript []contractx.Message) ([]*schema.Message, error) {
	msgs := make([]*schema.Message, 0, len(transcript)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		msgs = append(msgs, schema.SystemMessage(systemPrompt))
	}

	for _, m := range transcript {
		switch m.Role {
		case contractx.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Text))
		case contractx.RoleAgent:
			calls, err := toSchemaToolCalls(m.ToolCalls)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, &schema.Message{
				Role:      schema.Assistant,
				Content:   m.Text,
				ToolCalls: calls,
			})
		case contractx.RoleTool:
			msgs = append(msgs, schema.ToolMessage(m.Text, m.CallID))
		default:
			return nil, fmt.Errorf("%w: unknown transcript role %q", contractx.ErrValidation, m.Role)
		}
	}
	return msgs, nil
}

func toSchemaToolCalls(calls []contractx.ToolCall) ([]schema.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	out := make([]schema.ToolCall, 0, len(calls))
	for _, call := range calls {
		raw, err := json.Marshal(call.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: encode tool args for tool=%s: %v", contractx.ErrValidation, call.Name, err)
		}
		out = append(out, schema.ToolCall{
			ID: call.ID,
			Function: schema.FunctionCall{
				Name:      call.Name,
				Arguments: string(raw),
			},
		})
	}
	return out, nil
}
