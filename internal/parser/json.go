package parser

import (
	"encoding/json"
	"fmt"

	"firelater-migrate/internal/common/models"
)

// recordArrayKeys are the envelope keys object-notation exports wrap
// their record arrays in.
var recordArrayKeys = []string{"records", "result", "results", "rows", "data"}

// parseJSON reads an object-notation export: either a top-level array of
// records or an envelope object holding one.
func parseJSON(data []byte, source models.SourceSystem, kind models.EntityKind) (*ParseResult, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse JSON export: %w", err)
	}

	var items []any
	switch v := root.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range recordArrayKeys {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			// A single record object.
			items = []any{v}
		}
	default:
		return nil, fmt.Errorf("unexpected JSON export shape %T", root)
	}

	result := &ParseResult{}
	for i, item := range items {
		result.TotalRows++
		index := i + 1

		obj, ok := item.(map[string]any)
		if !ok {
			result.Errors = append(result.Errors, rowError(index, "", "", fmt.Sprintf("record is %T, expected object", item)))
			continue
		}

		payload := flattenObject(obj, "", 0)
		result.Records = append(result.Records, models.ParsedRecord{
			SourceID:   sourceIDFor(payload, index),
			EntityKind: kind,
			Data:       payload,
			Meta:       extractMeta(payload, source),
		})
	}

	return result, nil
}

// flattenObject collapses one level of reference nesting: a
// {value, display_value} pair becomes the value plus a <field>_display
// sibling; a {link} pair collapses to its link. Anything else nested
// recurses with dot-joined keys up to maxFlattenDepth.
func flattenObject(obj map[string]any, prefix string, depth int) map[string]any {
	out := make(map[string]any, len(obj))
	for key, value := range obj {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		nested, ok := value.(map[string]any)
		if !ok {
			out[full] = value
			continue
		}

		if v, ok := nested["value"]; ok {
			out[full] = v
			if display, ok := nested["display_value"]; ok {
				out[full+"_display"] = display
			}
			continue
		}
		if link, ok := nested["link"]; ok && len(nested) == 1 {
			out[full] = link
			continue
		}

		if depth+1 >= maxFlattenDepth {
			// Bounded recursion: drop the subtree instead of chasing it.
			continue
		}
		for k, v := range flattenObject(nested, full, depth+1) {
			out[k] = v
		}
	}
	return out
}
