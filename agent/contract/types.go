package contract

// Role identifies who produced a transcript message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// Destination is the supervisor's choice of where the turn goes next.
type Destination string

const (
	DestPolicy         Destination = "policy_agent"
	DestInventoryQuery Destination = "inventory_agent"
	DestSales          Destination = "sales_agent"
	DestWebSearch      Destination = "web_search_agent"
	DestTerminate      Destination = "__end__"
)

// Destinations lists every legal routing target, terminate included.
func Destinations() []Destination {
	return []Destination{
		DestPolicy,
		DestInventoryQuery,
		DestSales,
		DestWebSearch,
		DestTerminate,
	}
}

// ParseDestination maps a raw classifier value onto a legal destination.
func ParseDestination(raw string) (Destination, bool) {
	for _, d := range Destinations() {
		if string(d) == raw {
			return d, true
		}
	}
	return "", false
}

// ToolCall is a worker's request to invoke a named tool. The ID is unique
// within the owning agent message and correlates the eventual result.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is one unit of the transcript. Transcripts are append-only: a
// message is never mutated or removed once recorded.
//
// Variants by role:
//   - user:  Text only
//   - agent: Text and/or ToolCalls
//   - tool:  Text plus the CallID of the agent tool call it answers
type Message struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CallID    string     `json:"call_id,omitempty"`
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func AgentMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAgent, Text: text, ToolCalls: calls}
}

func ToolObservation(callID, text string) Message {
	return Message{Role: RoleTool, Text: text, CallID: callID}
}

// IsFinalAnswer reports whether the message is an agent answer with no
// pending tool calls, i.e. the condition under which a turn must end.
func (m Message) IsFinalAnswer() bool {
	return m.Role == RoleAgent && len(m.ToolCalls) == 0
}

// LastUserText returns the text of the most recent user message, if any.
func LastUserText(transcript []Message) (string, bool) {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == RoleUser {
			return transcript[i].Text, true
		}
	}
	return "", false
}

// Passage is one retrieved document chunk from the policy index.
type Passage struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}
