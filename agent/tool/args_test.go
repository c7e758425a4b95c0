package tool

import (
	"errors"
	"testing"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

type sampleArgs struct {
	Query string `json:"search_query"`
	Count int    `json:"count"`
}

func TestDecodeArgs(t *testing.T) {
	t.Parallel()

	got, err := decodeArgs[sampleArgs](map[string]any{
		"search_query": "linen shirt",
		"count":        2,
	})
	if err != nil {
		t.Fatalf("decodeArgs() error = %v", err)
	}
	if got.Query != "linen shirt" || got.Count != 2 {
		t.Fatalf("decodeArgs() = %+v", got)
	}
}

func TestDecodeArgsStripsSentinels(t *testing.T) {
	t.Parallel()

	for _, sentinel := range []string{"", "None", "null", "NIL", "  none  "} {
		got, err := decodeArgs[sampleArgs](map[string]any{
			"search_query": sentinel,
			"count":        1,
		})
		if err != nil {
			t.Fatalf("decodeArgs(%q) error = %v", sentinel, err)
		}
		if got.Query != "" {
			t.Fatalf("decodeArgs(%q).Query = %q, want empty", sentinel, got.Query)
		}
	}
}

func TestDecodeArgsRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := decodeArgs[sampleArgs](map[string]any{
		"search_query": "shirt",
		"surprise":     true,
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("decodeArgs() error = %v, want ErrValidation", err)
	}
}

func TestRequireString(t *testing.T) {
	t.Parallel()

	if _, err := requireString("   ", "size"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("requireString() error = %v, want ErrValidation", err)
	}

	got, err := requireString("  m ", "size")
	if err != nil {
		t.Fatalf("requireString() error = %v", err)
	}
	if got != "m" {
		t.Fatalf("requireString() = %q, want m", got)
	}
}
