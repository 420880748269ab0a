package lease

import (
	"encoding/json"
	"fmt"

	"lease_economics/pkg/core/utils"

	"github.com/google/uuid"
)

// Parse decodes a lease from JSON, Hjson or damaged JSON.
// A lease without an id is given a fresh one; notes are cleaned of wrapping fences.
func Parse(raw []byte) (LeaseDescription, error) {
	var l LeaseDescription
	if _, err := utils.DecodeLenient(string(raw), &l); err != nil {
		return LeaseDescription{}, fmt.Errorf("failed to parse lease: %w", err)
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.Notes = utils.CleanMarkdown(l.Notes)
	return l, nil
}

// NoteSections lists the markdown headings of the lease notes.
func (l LeaseDescription) NoteSections() []string {
	if l.Notes == "" {
		return nil
	}
	return utils.MarkdownHeadings(l.Notes)
}

// ApplyOverrides deep-merges overrides onto a copy of base: objects merge key by key,
// the override wins on conflicts, arrays are replaced wholesale. base is never touched.
func ApplyOverrides(base LeaseDescription, overrides map[string]interface{}) (LeaseDescription, error) {
	encoded, err := json.Marshal(base)
	if err != nil {
		return LeaseDescription{}, fmt.Errorf("failed to encode base lease: %w", err)
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(encoded, &tree); err != nil {
		return LeaseDescription{}, fmt.Errorf("failed to decode base lease: %w", err)
	}

	merged := deepMerge(tree, overrides)

	encoded, err = json.Marshal(merged)
	if err != nil {
		return LeaseDescription{}, fmt.Errorf("failed to encode merged lease: %w", err)
	}
	var out LeaseDescription
	if err := json.Unmarshal(encoded, &out); err != nil {
		return LeaseDescription{}, fmt.Errorf("failed to apply overrides: %w", err)
	}
	return out, nil
}

func deepMerge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := out[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			out[k] = deepMerge(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}
