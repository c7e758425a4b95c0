package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

// decodeArgs converts a tool call's argument map into a typed argument
// struct. The decode fails closed: unknown fields are rejected instead of
// silently dropped, and string sentinels a model may emit for "no value"
// ("None", "null", "nil") are stripped before decoding so required-field
// checks see them as absent.
func decodeArgs[T any](args map[string]any) (T, error) {
	var out T

	cleaned := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && isSentinel(s) {
			continue
		}
		cleaned[k] = v
	}

	raw, err := json.Marshal(cleaned)
	if err != nil {
		return out, fmt.Errorf("%w: encode tool args: %v", contractx.ErrValidation, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: decode tool args: %v", contractx.ErrValidation, err)
	}
	return out, nil
}

func isSentinel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null", "nil":
		return true
	}
	return false
}

func requireString(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is required", contractx.ErrValidation, field)
	}
	return trimmed, nil
}
