// Package mapper applies declarative field mapping configurations to
// parsed source records, producing target-schema data plus per-field
// problems. Mapping is a pure in-memory transform.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"firelater-migrate/internal/common/models"
)

// TargetData is the mapped key/value payload for one target entity.
type TargetData map[string]any

// MapWarning flags a non-fatal mapping decision, e.g. a required field
// filled from its default.
type MapWarning struct {
	RecordIndex int    `json:"record_index"`
	Field       string `json:"field"`
	Message     string `json:"message"`
}

// MapRecord resolves every configured mapping against one record.
// Individual field failures are collected and do not fail the record;
// the caller decides what an unusable record is via validation.
func MapRecord(rec models.ParsedRecord, cfg *models.FieldMappingConfig, recordIndex int) (TargetData, []models.MigrationError, []MapWarning) {
	data := make(TargetData, len(cfg.Mappings))
	var errs []models.MigrationError
	var warnings []MapWarning

	for _, m := range cfg.Mappings {
		value, found := resolvePath(rec.Data, m.SourceField)

		switch {
		case found && !isEmptyValue(value):
			transformed, err := applyTransform(value, m, cfg)
			if err != nil {
				errs = append(errs, models.MigrationError{
					RecordIndex: recordIndex,
					SourceID:    rec.SourceID,
					ErrorType:   models.ErrorTypeTransformation,
					Field:       m.TargetField,
					Message:     err.Error(),
					Timestamp:   time.Now(),
				})
				continue
			}
			data[m.TargetField] = transformed

		case m.Required && m.DefaultValue != "":
			data[m.TargetField] = m.DefaultValue
			warnings = append(warnings, MapWarning{
				RecordIndex: recordIndex,
				Field:       m.TargetField,
				Message:     fmt.Sprintf("source field %q absent, used default %q", m.SourceField, m.DefaultValue),
			})

		case m.Required:
			// Required with no default: the field fails, the record
			// keeps mapping.
			errs = append(errs, models.MigrationError{
				RecordIndex: recordIndex,
				SourceID:    rec.SourceID,
				ErrorType:   models.ErrorTypeValidation,
				Field:       m.TargetField,
				Message:     fmt.Sprintf("required source field %q is missing", m.SourceField),
				Timestamp:   time.Now(),
			})

		case m.DefaultValue != "":
			data[m.TargetField] = m.DefaultValue
		}
	}

	return data, errs, warnings
}

// resolvePath walks a dot-addressable path through nested payload maps.
// An absent segment yields not-found, never an error.
func resolvePath(data map[string]any, path string) (any, bool) {
	if v, ok := data[path]; ok {
		return v, true
	}

	segments := strings.Split(path, ".")
	var current any = data
	for _, seg := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
