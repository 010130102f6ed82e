package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"firelater-migrate/internal/common/models"
)

// requiredTargetFields lists the target fields every imported record of a
// kind must end up with after mapping.
var requiredTargetFields = map[models.EntityKind][]string{
	models.EntityIncident:    {"title", "priority", "status"},
	models.EntityRequest:     {"title", "priority", "status"},
	models.EntityProblem:     {"title", "priority", "status"},
	models.EntityChange:      {"title", "risk_level", "status"},
	models.EntityUser:        {"email", "name"},
	models.EntityGroup:       {"name"},
	models.EntityApplication: {"name"},
}

// RequiredFields returns the required target fields for an entity kind.
func RequiredFields(kind models.EntityKind) []string {
	return requiredTargetFields[kind]
}

// ValidateForEntity checks entity-specific required-field presence and
// value constraints on mapped data. It returns all problems, not just the
// first one.
func ValidateForEntity(kind models.EntityKind, data TargetData) []string {
	var problems []string

	for _, field := range requiredTargetFields[kind] {
		v, ok := data[field]
		if !ok || isEmptyValue(v) {
			problems = append(problems, fmt.Sprintf("missing required field %q", field))
		}
	}

	if kind == models.EntityIncident || kind == models.EntityRequest {
		if raw, ok := data["priority"]; ok && !isEmptyValue(raw) {
			if p, err := PriorityValue(raw); err != nil {
				problems = append(problems, err.Error())
			} else {
				data["priority"] = p
			}
		}
	}

	return problems
}

// PriorityValue parses a priority and enforces the 1-4 range.
func PriorityValue(raw any) (int, error) {
	var p int
	switch v := raw.(type) {
	case int:
		p = v
	case float64:
		p = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("priority %q is not a number", v)
		}
		p = n
	default:
		return 0, fmt.Errorf("priority has unsupported type %T", raw)
	}

	if p < 1 || p > 4 {
		return 0, fmt.Errorf("priority %d out of range [1,4]", p)
	}
	return p, nil
}
