package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

const routeToolName = "route"

// Supervisor decides where each turn goes next. One rule is hard-coded and
// never consults the oracle: a finished agent answer terminates the turn.
// Everything else is delegated to a classifier chat model constrained to
// the legal destinations through a single 'route' tool.
type Supervisor struct {
	model        einomodel.BaseChatModel
	systemPrompt string
}

var _ contractx.Router = (*Supervisor)(nil)

func New(chatModel einomodel.ToolCallingChatModel, systemPrompt string) (*Supervisor, error) {
	bound, err := chatModel.WithTools([]*schema.ToolInfo{routeToolInfo()})
	if err != nil {
		return nil, fmt.Errorf("%w: bind route tool: %v", contractx.ErrModelInvoke, err)
	}
	return &Supervisor{
		model:        bound,
		systemPrompt: systemPrompt,
	}, nil
}

func routeToolInfo() *schema.ToolInfo {
	destinations := contractx.Destinations()
	values := make([]string, 0, len(destinations))
	for _, d := range destinations {
		values = append(values, string(d))
	}
	return &schema.ToolInfo{
		Name: routeToolName,
		Desc: "Route the conversation to the next node.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"next": {
				Type:     schema.String,
				Desc:     "The next node to hand the conversation to",
				Enum:     values,
				Required: true,
			},
		}),
	}
}

// Route returns the next destination for the transcript. It is total with
// respect to classifier output: anything unparseable degrades to
// DestTerminate. Only a failed model invocation surfaces as an error.
func (s *Supervisor) Route(ctx context.Context, transcript []contractx.Message) (contractx.Destination, error) {
	if len(transcript) > 0 && transcript[len(transcript)-1].IsFinalAnswer() {
		return contractx.DestTerminate, nil
	}

	msgs := make([]*schema.Message, 0, len(transcript)+1)
	msgs = append(msgs, schema.SystemMessage(s.systemPrompt))
	for _, m := range transcript {
		msgs = append(msgs, transcriptLine(m))
	}

	out, err := s.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%w: supervisor invoke: %v", contractx.ErrModelInvoke, err)
	}

	dest := parseDecision(out)
	log.Debug().Str("destination", string(dest)).Msg("supervisor routed")
	return dest, nil
}

// parseDecision extracts the routing choice from the classifier output,
// failing safe to termination on anything unexpected.
func parseDecision(out *schema.Message) contractx.Destination {
	if out == nil || len(out.ToolCalls) == 0 {
		return contractx.DestTerminate
	}

	call := out.ToolCalls[0]
	if call.Function.Name != routeToolName {
		return contractx.DestTerminate
	}

	var args struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		log.Warn().Err(err).Msg("unparseable routing decision, terminating turn")
		return contractx.DestTerminate
	}

	dest, ok := contractx.ParseDestination(strings.TrimSpace(args.Next))
	if !ok {
		log.Warn().Str("next", args.Next).Msg("illegal routing destination, terminating turn")
		return contractx.DestTerminate
	}
	return dest
}

// transcriptLine renders one message for the classifier. The supervisor
// only reads the conversation, so tool traffic is flattened to text on
// both sides: a raw tool-role message whose call id no assistant message
// declares would be rejected by OpenAI-compatible providers.
func transcriptLine(m contractx.Message) *schema.Message {
	switch m.Role {
	case contractx.RoleUser:
		return schema.UserMessage(m.Text)
	case contractx.RoleTool:
		return &schema.Message{
			Role:    schema.Assistant,
			Content: fmt.Sprintf("[tool result] %s", m.Text),
		}
	default:
		content := m.Text
		if len(m.ToolCalls) > 0 {
			names := make([]string, 0, len(m.ToolCalls))
			for _, c := range m.ToolCalls {
				names = append(names, c.Name)
			}
			content = fmt.Sprintf("%s\n[requested tools: %s]", m.Text, strings.Join(names, ", "))
		}
		return &schema.Message{Role: schema.Assistant, Content: content}
	}
}
