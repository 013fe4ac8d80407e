package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeList reads a list that the backend may return as data.<key>, as a
// bare data array, or as a top-level <key>. Anything else is an empty list.
func decodeList[T any](raw []byte, key string) ([]T, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]json.RawMessage, 0, 3)
	if data, ok := top["data"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(data, &nested) == nil {
			candidates = append(candidates, nested[key])
		}
		candidates = append(candidates, data)
	}
	candidates = append(candidates, top[key])

	for _, c := range candidates {
		if !isArray(c) {
			continue
		}
		var out []T
		if err := json.Unmarshal(c, &out); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		return out, nil
	}
	return []T{}, nil
}

// decodeData unmarshals the data member when present, else the whole body.
func decodeData(raw []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	body := raw
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		body = env.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
