package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes the usual damage in hand-edited or half-saved payloads:
// unquoted keys, single quotes, trailing commas, unclosed brackets, comments.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return repaired, nil
}

// HJSONToJSON converts Hjson (comments, unquoted keys and strings, optional commas)
// into standard JSON so that json.Unmarshaler implementations still apply.
func HJSONToJSON(input string) (string, error) {
	var tree interface{}
	if err := hjson.Unmarshal([]byte(input), &tree); err != nil {
		return "", fmt.Errorf("hjson parse failed: %w", err)
	}
	out, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("hjson re-encode failed: %w", err)
	}
	return string(out), nil
}

// DecodeLenient decodes input into target trying, in order:
// 1. standard JSON
// 2. Hjson (a superset of JSON, covers human-edited lease files)
// 3. repaired JSON (truncated or otherwise broken payloads)
// It returns the JSON text that finally decoded.
func DecodeLenient(input string, target interface{}) (string, error) {
	firstErr := json.Unmarshal([]byte(input), target)
	if firstErr == nil {
		return input, nil
	}

	if converted, err := HJSONToJSON(input); err == nil {
		if err := json.Unmarshal([]byte(converted), target); err == nil {
			return converted, nil
		}
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), target); err == nil {
			return repaired, nil
		}
	}

	return "", fmt.Errorf("could not decode input as JSON, Hjson or repaired JSON: %w", firstErr)
}
