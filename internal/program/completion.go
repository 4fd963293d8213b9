package program

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EncodeCompletionState turns the per-set flags into the JSON array text kept in storage.
// An empty or nil slice encodes as [].
func EncodeCompletionState(state []bool) (string, error) {
	if state == nil {
		state = []bool{}
	}
	b, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode completion state: %w", err)
	}
	return string(b), nil
}

// DecodeCompletionState is the inverse of EncodeCompletionState.
func DecodeCompletionState(text string) ([]bool, error) {
	state, err := parseBoolArray([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptState, err)
	}
	return state, nil
}

// ParseCompletionState validates a completion state sent by a client.
func ParseCompletionState(raw json.RawMessage) ([]bool, error) {
	state, err := parseBoolArray(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, err)
	}
	return state, nil
}

func parseBoolArray(data []byte) ([]bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, errors.New("not a json array")
	}

	// decode element by element, json.Unmarshal into []bool would accept null items
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}

	state := make([]bool, len(items))
	for i, item := range items {
		switch string(bytes.TrimSpace(item)) {
		case "true":
			state[i] = true
		case "false":
			state[i] = false
		default:
			return nil, fmt.Errorf("item %d is not a boolean", i)
		}
	}
	return state, nil
}
