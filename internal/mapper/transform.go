package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/pkg/utils"
)

var (
	truthyTokens = map[string]bool{
		"true": true, "1": true, "yes": true, "y": true, "active": true, "enabled": true,
	}
	falsyTokens = map[string]bool{
		"false": true, "0": true, "no": true, "n": true, "inactive": true, "disabled": true,
	}
)

// applyTransform runs the mapping's transformation over the resolved
// source value. String transforms operate on the string coercion of the
// value.
func applyTransform(value any, m models.FieldMapping, cfg *models.FieldMappingConfig) (any, error) {
	switch m.Transform {
	case models.TransformNone:
		return value, nil
	case models.TransformUppercase:
		return strings.ToUpper(coerceString(value)), nil
	case models.TransformLowercase:
		return strings.ToLower(coerceString(value)), nil
	case models.TransformTrim:
		return strings.TrimSpace(coerceString(value)), nil
	case models.TransformParseDate:
		t, err := utils.ParseFlexibleTime(coerceString(value))
		if err != nil {
			return nil, err
		}
		return t.Format(time.RFC3339), nil
	case models.TransformParseBool:
		return coerceBool(coerceString(value))
	case models.TransformLookup:
		raw := coerceString(value)
		if mapped, ok := cfg.LookupValue(m.LookupTable, raw); ok {
			return mapped, nil
		}
		// Pass through unmapped values; lookup tables are overrides,
		// not allow-lists.
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown transform %q", m.Transform)
	}
}

// coerceBool maps the fixed truthy/falsy token sets, case-insensitive,
// and fails on anything else.
func coerceBool(value string) (bool, error) {
	token := strings.ToLower(strings.TrimSpace(value))
	if truthyTokens[token] {
		return true, nil
	}
	if falsyTokens[token] {
		return false, nil
	}
	return false, fmt.Errorf("cannot coerce %q to boolean", value)
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
