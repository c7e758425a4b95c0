package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

type fakeRetriever struct {
	passages []contractx.Passage
	err      error
	gotQuery string
	gotK     int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]contractx.Passage, error) {
	f.gotQuery = query
	f.gotK = k
	return f.passages, f.err
}

func TestPolicyWorkerGroundsPromptInPassages(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{response: &schema.Message{
		Role:    schema.Assistant,
		Content: "Returns are accepted within 14 days.",
	}}
	retriever := &fakeRetriever{passages: []contractx.Passage{
		{Content: "Returns accepted within 14 days of delivery.", Source: "returns.md"},
		{Content: "Refunds issued to the original payment method.", Source: "refunds.md"},
	}}

	w := NewPolicyWorker(model, retriever, "Answer using only this context:\n{context}")

	msg, err := w.Invoke(context.Background(), []contractx.Message{
		contractx.UserMessage("what is your return policy?"),
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if msg.Role != contractx.RoleAgent || len(msg.ToolCalls) != 0 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Text != "Returns are accepted within 14 days." {
		t.Fatalf("msg.Text = %q", msg.Text)
	}

	if retriever.gotQuery != "what is your return policy?" {
		t.Fatalf("retriever query = %q", retriever.gotQuery)
	}
	if retriever.gotK != defaultTopK {
		t.Fatalf("retriever k = %d, want %d", retriever.gotK, defaultTopK)
	}

	system := model.gotMsgs[0].Content
	if strings.Contains(system, "{context}") {
		t.Fatal("context placeholder not substituted")
	}
	if !strings.Contains(system, "Returns accepted within 14 days of delivery.") {
		t.Fatalf("system prompt missing passage: %q", system)
	}
}

func TestPolicyWorkerRetrieverFailure(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{response: &schema.Message{Role: schema.Assistant, Content: "x"}}
	w := NewPolicyWorker(model, &fakeRetriever{err: errors.New("index offline")}, "{context}")

	_, err := w.Invoke(context.Background(), []contractx.Message{
		contractx.UserMessage("can I exchange?"),
	})
	if err == nil {
		t.Fatal("Invoke() error = nil, want retrieval failure")
	}
}

func TestPolicyWorkerRequiresUserMessage(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{response: &schema.Message{Role: schema.Assistant, Content: "x"}}
	w := NewPolicyWorker(model, &fakeRetriever{}, "{context}")

	_, err := w.Invoke(context.Background(), nil)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Invoke() error = %v, want ErrValidation", err)
	}
}
