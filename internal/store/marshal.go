package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalIDs converts account ids to a JSON array TEXT for storage.
// HTML escaping is disabled so stored text matches the ids byte for byte.
func marshalIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ids); err != nil {
		return "", fmt.Errorf("marshal account ids: %w", err)
	}
	// Encoder adds a trailing newline
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalIDs parses a JSON array TEXT to account ids.
// Always returns a non-nil slice on success.
func unmarshalIDs(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal account ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
