package worker

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

const defaultTopK = 3

// PolicyWorker answers store-policy questions with retrieval-augmented
// generation. It has no tool bindings, so its answers always route the
// turn straight back to the supervisor.
type PolicyWorker struct {
	model        einomodel.BaseChatModel
	retriever    contractx.Retriever
	systemPrompt string
	topK         int
}

var _ contractx.Worker = (*PolicyWorker)(nil)

func NewPolicyWorker(
	chatModel einomodel.BaseChatModel,
	retriever contractx.Retriever,
	systemPrompt string,
) *PolicyWorker {
	return &PolicyWorker{
		model:        chatModel,
		retriever:    retriever,
		systemPrompt: systemPrompt,
		topK:         defaultTopK,
	}
}

func (w *PolicyWorker) Invoke(ctx context.Context, transcript []contractx.Message) (contractx.Message, error) {
	question, ok := contractx.LastUserText(transcript)
	if !ok {
		return contractx.Message{}, fmt.Errorf("%w: transcript has no user message", contractx.ErrValidation)
	}

	passages, err := w.retriever.Retrieve(ctx, question, w.topK)
	if err != nil {
		return contractx.Message{}, fmt.Errorf("retrieve policy passages: %w", err)
	}

	prompt := strings.ReplaceAll(w.systemPrompt, "{context}", formatPassages(passages))
	out, err := w.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompt),
		schema.UserMessage(question),
	})
	if err != nil {
		return contractx.Message{}, fmt.Errorf("%w: policy worker invoke: %v", contractx.ErrModelInvoke, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return contractx.Message{}, fmt.Errorf("%w: policy worker returned empty answer", contractx.ErrSchemaViolation)
	}

	return contractx.AgentMessage(strings.TrimSpace(out.Content), nil), nil
}

func formatPassages(passages []contractx.Passage) string {
	if len(passages) == 0 {
		return "(no matching policy documents)"
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}
