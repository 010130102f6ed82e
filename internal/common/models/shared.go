package models

import "time"

type ContextKey string

const (
	TenantIDKey ContextKey = "tenant_id"
)

// SourceSystem identifies the external platform an export came from.
type SourceSystem string

const (
	SourceServiceNow SourceSystem = "servicenow"
	SourceJira       SourceSystem = "jira"
	SourceZendesk    SourceSystem = "zendesk"
	SourceGeneric    SourceSystem = "generic" // delimited files with no known dialect
)

// ValidSourceSystem reports whether s is a supported source system.
func ValidSourceSystem(s SourceSystem) bool {
	switch s {
	case SourceServiceNow, SourceJira, SourceZendesk, SourceGeneric:
		return true
	}
	return false
}

// EntityKind is the target domain object type being imported.
type EntityKind string

const (
	EntityIncident    EntityKind = "incident"
	EntityRequest     EntityKind = "request"
	EntityChange      EntityKind = "change"
	EntityUser        EntityKind = "user"
	EntityGroup       EntityKind = "group"
	EntityApplication EntityKind = "application"
	EntityProblem     EntityKind = "problem"
)

// ValidEntityKind reports whether k is a recognized entity kind.
func ValidEntityKind(k EntityKind) bool {
	switch k {
	case EntityIncident, EntityRequest, EntityChange, EntityUser,
		EntityGroup, EntityApplication, EntityProblem:
		return true
	}
	return false
}

// ErrorType classifies per-record migration errors.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeMapping        ErrorType = "mapping"
	ErrorTypeTransformation ErrorType = "transformation"
	ErrorTypeDatabase       ErrorType = "database"
	ErrorTypeImport         ErrorType = "import"
)

// MigrationError records a single per-record failure. Errors are
// accumulated for the job report and never individually retried.
type MigrationError struct {
	RecordIndex int       `json:"record_index" bson:"record_index"`
	SourceID    string    `json:"source_id,omitempty" bson:"source_id,omitempty"`
	ErrorType   ErrorType `json:"error_type" bson:"error_type"`
	Field       string    `json:"field,omitempty" bson:"field,omitempty"`
	Message     string    `json:"message" bson:"message"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// RecordMeta carries provenance extracted from the source system's own
// bookkeeping fields. Fields stay nil when the export doesn't provide
// them or provides something unparsable.
type RecordMeta struct {
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
}

// ParsedRecord is one normalized source row/element. Produced once by a
// parser, consumed exactly once by the field mapper.
type ParsedRecord struct {
	SourceID   string         `json:"source_id"`
	EntityKind EntityKind     `json:"entity_kind"`
	Data       map[string]any `json:"data"`
	Meta       RecordMeta     `json:"meta"`
}
