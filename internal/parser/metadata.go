package parser

import (
	"time"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/pkg/utils"
)

// metaFields lists, per source system, which payload fields carry record
// provenance. Order matters: a submit/opened field beats a generic
// created field when both are present.
type metaFields struct {
	createdAt []string
	updatedAt []string
	createdBy []string
	updatedBy []string
}

var sourceMetaFields = map[models.SourceSystem]metaFields{
	models.SourceServiceNow: {
		createdAt: []string{"opened_at", "sys_created_on", "created_on"},
		updatedAt: []string{"sys_updated_on", "updated_on"},
		createdBy: []string{"opened_by", "sys_created_by"},
		updatedBy: []string{"sys_updated_by"},
	},
	models.SourceJira: {
		createdAt: []string{"created", "created_at"},
		updatedAt: []string{"updated", "updated_at"},
		createdBy: []string{"reporter", "creator"},
		updatedBy: []string{"assignee"},
	},
	models.SourceZendesk: {
		createdAt: []string{"created_at"},
		updatedAt: []string{"updated_at"},
		createdBy: []string{"submitter_id", "requester_id"},
		updatedBy: []string{"assignee_id"},
	},
	models.SourceGeneric: {
		createdAt: []string{"opened_at", "created_at", "created"},
		updatedAt: []string{"updated_at", "updated"},
		createdBy: []string{"created_by", "opened_by"},
		updatedBy: []string{"updated_by"},
	},
}

// extractMeta pulls creation/update timestamps and actors out of a
// record's payload. Missing or unparsable values leave the field absent;
// metadata never fails a row.
func extractMeta(payload map[string]any, source models.SourceSystem) models.RecordMeta {
	fields, ok := sourceMetaFields[source]
	if !ok {
		fields = sourceMetaFields[models.SourceGeneric]
	}

	return models.RecordMeta{
		CreatedAt: firstTimestamp(payload, fields.createdAt),
		UpdatedAt: firstTimestamp(payload, fields.updatedAt),
		CreatedBy: firstString(payload, fields.createdBy),
		UpdatedBy: firstString(payload, fields.updatedBy),
	}
}

func firstTimestamp(payload map[string]any, keys []string) *time.Time {
	for _, key := range keys {
		raw := stringify(payload[key])
		if raw == "" {
			continue
		}
		if t, err := utils.ParseFlexibleTime(raw); err == nil {
			return &t
		}
	}
	return nil
}

func firstString(payload map[string]any, keys []string) string {
	for _, key := range keys {
		if s := stringify(payload[key]); s != "" {
			return s
		}
	}
	return ""
}
