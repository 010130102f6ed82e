package migration

import (
	"time"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/mapper"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusPreview    JobStatus = "preview"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
	StatusRolledBack JobStatus = "rolled_back"
)

// MigrationJob is one migration of one uploaded file into one entity
// kind. Immutable once completed/failed/cancelled, except for rollback's
// terminal transition.
type MigrationJob struct {
	ID               primitive.ObjectID         `json:"id" bson:"_id,omitempty"`
	TenantID         string                     `json:"tenant_id" bson:"tenant_id"`
	SourceSystem     models.SourceSystem        `json:"source_system" bson:"source_system"`
	EntityKind       models.EntityKind          `json:"entity_kind" bson:"entity_kind"`
	FileName         string                     `json:"file_name" bson:"file_name"`
	FilePath         string                     `json:"file_path" bson:"file_path"`
	Status           JobStatus                  `json:"status" bson:"status"`
	TotalRecords     int                        `json:"total_records" bson:"total_records"`
	ProcessedRecords int                        `json:"processed_records" bson:"processed_records"`
	SuccessCount     int                        `json:"success_count" bson:"success_count"`
	UpdatedCount     int                        `json:"updated_count" bson:"updated_count"`
	SkippedCount     int                        `json:"skipped_count" bson:"skipped_count"`
	FailedCount      int                        `json:"failed_count" bson:"failed_count"`
	MappingConfig    *models.FieldMappingConfig `json:"mapping_config,omitempty" bson:"mapping_config,omitempty"`
	Errors           []models.MigrationError    `json:"errors,omitempty" bson:"errors,omitempty"`
	CreatedBy        string                     `json:"created_by" bson:"created_by"`
	CreatedAt        time.Time                  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at" bson:"updated_at"`
	CompletedAt      *time.Time                 `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Preview is the non-destructive dry-run analysis surfaced on upload.
type Preview struct {
	TotalRecords           int                        `json:"total_records"`
	SampleRecords          []map[string]any           `json:"sample_records"`
	Mappings               []models.FieldMapping      `json:"mappings"`
	UnmappedSourceFields   []string                   `json:"unmapped_source_fields,omitempty"`
	MissingRequiredTargets []string                   `json:"missing_required_targets,omitempty"`
	Suggestions            []mapper.MappingSuggestion `json:"suggestions,omitempty"`
	Recommendations        []string                   `json:"recommendations,omitempty"`
	ParseErrors            []models.MigrationError    `json:"parse_errors,omitempty"`
}

// ExecutionSummary reports timing for one completed execution.
type ExecutionSummary struct {
	Duration         string  `json:"duration"`
	RecordsPerSecond float64 `json:"records_per_second"`
	BatchesProcessed int     `json:"batches_processed"`
}

// ExecutionReport is the terminal artifact of one execution.
type ExecutionReport struct {
	JobID             string                  `json:"job_id"`
	Status            JobStatus               `json:"status"`
	TotalRecords      int                     `json:"total_records"`
	SuccessfulRecords int                     `json:"successful_records"`
	UpdatedRecords    int                     `json:"updated_records"`
	SkippedRecords    int                     `json:"skipped_records"`
	FailedRecords     int                     `json:"failed_records"`
	Errors            []models.MigrationError `json:"errors,omitempty"`
	Warnings          []mapper.MapWarning     `json:"warnings,omitempty"`
	Summary           ExecutionSummary        `json:"summary"`
}
