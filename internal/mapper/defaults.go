package mapper

import "firelater-migrate/internal/common/models"

// DefaultConfig returns the built-in mapping set for a source system /
// entity kind pair, used when a job names no mapping template.
func DefaultConfig(source models.SourceSystem, kind models.EntityKind) *models.FieldMappingConfig {
	cfg := &models.FieldMappingConfig{
		EntityKind:   kind,
		SourceSystem: source,
		LookupTables: DefaultLookupTables(source),
	}

	switch kind {
	case models.EntityUser:
		cfg.Mappings = []models.FieldMapping{
			{SourceField: userEmailField(source), TargetField: "email", Transform: models.TransformLowercase, Required: true},
			{SourceField: "name", TargetField: "name", Transform: models.TransformTrim, Required: true},
			{SourceField: "active", TargetField: "active", Transform: models.TransformParseBool},
		}
	case models.EntityChange:
		cfg.Mappings = append(ticketMappings(source),
			models.FieldMapping{SourceField: "risk", TargetField: "risk_level", Transform: models.TransformLowercase, Required: true, DefaultValue: "moderate"},
		)
	case models.EntityGroup, models.EntityApplication:
		cfg.Mappings = []models.FieldMapping{
			{SourceField: "name", TargetField: "name", Transform: models.TransformTrim, Required: true},
			{SourceField: "description", TargetField: "description"},
		}
	default:
		// incident, request, problem
		cfg.Mappings = ticketMappings(source)
	}

	return cfg
}

// ticketMappings covers the ticket-shaped kinds. Field names follow each
// source system's export vocabulary.
func ticketMappings(source models.SourceSystem) []models.FieldMapping {
	switch source {
	case models.SourceJira:
		return []models.FieldMapping{
			{SourceField: "summary", TargetField: "title", Transform: models.TransformTrim, Required: true},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "priority", TargetField: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "status", TargetField: "status", Transform: models.TransformLowercase, Required: true, DefaultValue: "open"},
			{SourceField: "assignee", TargetField: "assigned_to_email", Transform: models.TransformLowercase},
			{SourceField: "reporter", TargetField: "requester_email", Transform: models.TransformLowercase},
			{SourceField: "labels", TargetField: "category"},
			{SourceField: "resolutiondate", TargetField: "closed_at", Transform: models.TransformParseDate},
		}
	case models.SourceZendesk:
		return []models.FieldMapping{
			{SourceField: "subject", TargetField: "title", Transform: models.TransformTrim, Required: true},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "priority", TargetField: "priority", Transform: models.TransformLookup, LookupTable: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "status", TargetField: "status", Transform: models.TransformLowercase, Required: true, DefaultValue: "open"},
			{SourceField: "assignee_id", TargetField: "assigned_to_email"},
			{SourceField: "requester_id", TargetField: "requester_email"},
			{SourceField: "tags", TargetField: "category"},
		}
	default:
		// ServiceNow vocabulary doubles as the generic default; it is
		// what most delimited exports in the field look like.
		return []models.FieldMapping{
			{SourceField: "short_description", TargetField: "title", Transform: models.TransformTrim, Required: true},
			{SourceField: "description", TargetField: "description"},
			{SourceField: "priority", TargetField: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "state", TargetField: "status", Transform: models.TransformLookup, LookupTable: "status", Required: true, DefaultValue: "open"},
			{SourceField: "assigned_to", TargetField: "assigned_to_email"},
			{SourceField: "caller_id", TargetField: "requester_email"},
			{SourceField: "category", TargetField: "category"},
			{SourceField: "closed_at", TargetField: "closed_at", Transform: models.TransformParseDate},
		}
	}
}

func userEmailField(source models.SourceSystem) string {
	if source == models.SourceJira {
		return "emailAddress"
	}
	return "email"
}

// DefaultLookupTables holds the stock status/priority translations for
// sources whose exports use numeric codes.
func DefaultLookupTables(source models.SourceSystem) map[string]map[string]string {
	switch source {
	case models.SourceServiceNow, models.SourceGeneric:
		return map[string]map[string]string{
			"status": {
				"1": "open",
				"2": "in_progress",
				"3": "on_hold",
				"6": "resolved",
				"7": "closed",
			},
		}
	case models.SourceZendesk:
		return map[string]map[string]string{
			"priority": {
				"urgent": "1",
				"high":   "2",
				"normal": "3",
				"low":    "4",
			},
		}
	default:
		return nil
	}
}
