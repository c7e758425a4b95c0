package contract

import "testing"

func TestParseDestination(t *testing.T) {
	t.Parallel()

	for _, d := range Destinations() {
		got, ok := ParseDestination(string(d))
		if !ok || got != d {
			t.Fatalf("ParseDestination(%q) = %q, %v", d, got, ok)
		}
	}

	if _, ok := ParseDestination("router_agent"); ok {
		t.Fatal("ParseDestination accepted an unknown destination")
	}
	if _, ok := ParseDestination(""); ok {
		t.Fatal("ParseDestination accepted an empty destination")
	}
}

func TestIsFinalAnswer(t *testing.T) {
	t.Parallel()

	if !AgentMessage("done", nil).IsFinalAnswer() {
		t.Fatal("agent message without tool calls should be final")
	}
	if AgentMessage("", []ToolCall{{ID: "c1", Name: "list_products"}}).IsFinalAnswer() {
		t.Fatal("agent message with tool calls is not final")
	}
	if UserMessage("hi").IsFinalAnswer() {
		t.Fatal("user message is never final")
	}
	if ToolObservation("c1", "obs").IsFinalAnswer() {
		t.Fatal("tool observation is never final")
	}
}

func TestLastUserText(t *testing.T) {
	t.Parallel()

	transcript := []Message{
		UserMessage("first"),
		AgentMessage("reply", nil),
		UserMessage("second"),
		AgentMessage("", []ToolCall{{ID: "c1", Name: "x"}}),
	}
	got, ok := LastUserText(transcript)
	if !ok || got != "second" {
		t.Fatalf("LastUserText() = %q, %v", got, ok)
	}

	if _, ok := LastUserText(nil); ok {
		t.Fatal("LastUserText(nil) = ok")
	}
}
