package contract

import "context"

// Router decides the next destination for a turn. Implementations must be
// total: illegal or unparseable classifier output degrades to DestTerminate
// rather than returning an error for routing reasons.
type Router interface {
	Route(ctx context.Context, transcript []Message) (Destination, error)
}

// Worker is a specialist agent. Invoke returns exactly one agent message;
// every tool call the oracle requested is captured on that message, and
// none is executed inside the worker.
type Worker interface {
	Invoke(ctx context.Context, transcript []Message) (Message, error)
}

// ToolExecutor resolves a worker's pending tool calls into observations.
// The returned slice has the same length and order as calls, with each
// observation carrying its originating call ID.
type ToolExecutor interface {
	Execute(ctx context.Context, sessionID string, calls []ToolCall) []Message
}

// Retriever is the policy-document index collaborator.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// Searcher is the public web search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
