package migration

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/config"
	"firelater-migrate/internal/database"
	"firelater-migrate/internal/importer"
	"firelater-migrate/internal/mapper"
	"firelater-migrate/internal/parser"

	"go.uber.org/zap"
)

// TemplateResolver resolves a stored mapping template to its config.
// Implemented by the template feature; injected to avoid a package cycle.
type TemplateResolver interface {
	ResolveConfig(ctx context.Context, tenantID, templateID string) (*models.FieldMappingConfig, error)
}

// UploadRequest carries one uploaded export into the orchestrator.
type UploadRequest struct {
	TenantID     string
	UserID       string
	SourceSystem models.SourceSystem
	EntityKind   models.EntityKind
	FileName     string
	FilePath     string
	Data         []byte
	TemplateID   string
	DryRun       bool
	Delimiter    rune
}

// ExecuteRequest tunes one execution run.
type ExecuteRequest struct {
	MappingOverride  *models.FieldMappingConfig
	ContinueOnError  bool
	BatchSize        int
	DetectDuplicates bool
	UpdateExisting   bool
}

type MigrationService interface {
	Upload(ctx context.Context, req UploadRequest) (*MigrationJob, *Preview, error)
	Execute(ctx context.Context, tenantID, jobID string, req ExecuteRequest) (*ExecutionReport, error)
	GetJob(ctx context.Context, tenantID, id string) (*MigrationJob, error)
	ListJobs(ctx context.Context, tenantID string, limit int) ([]MigrationJob, error)
	Rollback(ctx context.Context, tenantID, jobID string) (int64, error)
	Cancel(ctx context.Context, tenantID, jobID string) error
}

type MigrationServiceImpl struct {
	JobRepo   JobRepository
	Templates TemplateResolver
	Target    *database.TargetDB
	Registry  *importer.Registry
	Config    *config.Config
	Logger    *zap.Logger
}

func NewMigrationService(
	jobRepo JobRepository,
	templates TemplateResolver,
	target *database.TargetDB,
	registry *importer.Registry,
	cfg *config.Config,
	logger *zap.Logger,
) MigrationService {
	return &MigrationServiceImpl{
		JobRepo:   jobRepo,
		Templates: templates,
		Target:    target,
		Registry:  registry,
		Config:    cfg,
		Logger:    logger,
	}
}

// Upload parses the file, resolves the mapping configuration, persists
// the job and builds the preview. A file yielding zero usable records
// fails the whole upload.
func (s *MigrationServiceImpl) Upload(ctx context.Context, req UploadRequest) (*MigrationJob, *Preview, error) {
	if !models.ValidSourceSystem(req.SourceSystem) {
		return nil, nil, fmt.Errorf("unknown source system %q", req.SourceSystem)
	}
	if !models.ValidEntityKind(req.EntityKind) {
		return nil, nil, fmt.Errorf("unknown entity kind %q", req.EntityKind)
	}

	result, err := parser.Parse(req.Data, req.SourceSystem, req.EntityKind, parser.ParseOptions{
		Delimiter: req.Delimiter,
		Filename:  req.FileName,
	})
	if err != nil {
		return nil, nil, err
	}

	cfg, err := s.resolveConfig(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	status := StatusPending
	if req.DryRun {
		status = StatusPreview
	}

	job := &MigrationJob{
		TenantID:      req.TenantID,
		SourceSystem:  req.SourceSystem,
		EntityKind:    req.EntityKind,
		FileName:      req.FileName,
		FilePath:      req.FilePath,
		Status:        status,
		TotalRecords:  result.TotalRows,
		MappingConfig: cfg,
		Errors:        result.Errors,
		CreatedBy:     req.UserID,
	}
	if err := s.JobRepo.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to persist job: %w", err)
	}

	preview := s.buildPreview(result, cfg, req.EntityKind)

	s.Logger.Info("migration job uploaded",
		zap.String("job_id", job.ID.Hex()),
		zap.String("tenant_id", req.TenantID),
		zap.String("source_system", string(req.SourceSystem)),
		zap.String("entity_kind", string(req.EntityKind)),
		zap.Int("total_records", result.TotalRows),
		zap.Bool("dry_run", req.DryRun))

	return job, preview, nil
}

func (s *MigrationServiceImpl) resolveConfig(ctx context.Context, req UploadRequest) (*models.FieldMappingConfig, error) {
	if req.TemplateID != "" {
		cfg, err := s.Templates.ResolveConfig(ctx, req.TenantID, req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve mapping template: %w", err)
		}
		return cfg, nil
	}
	return mapper.DefaultConfig(req.SourceSystem, req.EntityKind), nil
}

// buildPreview assembles the dry-run analysis: a bounded record sample,
// the mappings in effect, unmapped source fields, required targets no
// mapping produces, and suggestions for the leftovers.
func (s *MigrationServiceImpl) buildPreview(result *parser.ParseResult, cfg *models.FieldMappingConfig, kind models.EntityKind) *Preview {
	sampleSize := s.Config.PreviewSampleSize
	if sampleSize <= 0 {
		sampleSize = 5
	}

	preview := &Preview{
		TotalRecords: result.TotalRows,
		Mappings:     cfg.Mappings,
		ParseErrors:  result.Errors,
	}

	mappedSources := make(map[string]bool, len(cfg.Mappings))
	mappedTargets := make(map[string]bool, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		mappedSources[m.SourceField] = true
		mappedTargets[m.TargetField] = true
	}

	sourceFields := make(map[string]bool)
	for i, rec := range result.Records {
		if i < sampleSize {
			preview.SampleRecords = append(preview.SampleRecords, rec.Data)
		}
		for field := range rec.Data {
			sourceFields[field] = true
		}
	}

	for field := range sourceFields {
		if !mappedSources[field] {
			preview.UnmappedSourceFields = append(preview.UnmappedSourceFields, field)
		}
	}
	sort.Strings(preview.UnmappedSourceFields)

	for _, field := range mapper.RequiredFields(kind) {
		if !mappedTargets[field] {
			preview.MissingRequiredTargets = append(preview.MissingRequiredTargets, field)
		}
	}

	if len(preview.UnmappedSourceFields) > 0 {
		preview.Suggestions = mapper.SuggestMappings(preview.UnmappedSourceFields)
		preview.Recommendations = append(preview.Recommendations,
			fmt.Sprintf("%d source fields have no mapping and will be ignored", len(preview.UnmappedSourceFields)))
	}
	for _, field := range preview.MissingRequiredTargets {
		preview.Recommendations = append(preview.Recommendations,
			fmt.Sprintf("required target field %q is not produced by any mapping; records without a default will fail", field))
	}
	if result.SkippedRows > 0 {
		preview.Recommendations = append(preview.Recommendations,
			fmt.Sprintf("%d empty rows will be skipped", result.SkippedRows))
	}

	return preview
}

// Execute claims the job, re-parses the stored file and runs the
// entity's import executor inside one target-database transaction.
func (s *MigrationServiceImpl) Execute(ctx context.Context, tenantID, jobID string, req ExecuteRequest) (*ExecutionReport, error) {
	job, err := s.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	// CAS transition pending/preview -> processing. A concurrent caller
	// loses the swap here.
	if err := s.JobRepo.ClaimForExecution(ctx, jobID); err != nil {
		return nil, err
	}

	report, err := s.runImport(ctx, job, req)
	if err != nil {
		s.Logger.Error("migration job failed",
			zap.String("job_id", jobID),
			zap.Error(err))
		if statusErr := s.JobRepo.UpdateStatus(ctx, jobID, StatusFailed); statusErr != nil {
			s.Logger.Error("failed to mark job failed", zap.String("job_id", jobID), zap.Error(statusErr))
		}
		return nil, err
	}

	return report, nil
}

func (s *MigrationServiceImpl) runImport(ctx context.Context, job *MigrationJob, req ExecuteRequest) (*ExecutionReport, error) {
	executor, err := s.Registry.Get(job.EntityKind)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(job.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	result, err := parser.Parse(data, job.SourceSystem, job.EntityKind, parser.ParseOptions{Filename: job.FileName})
	if err != nil {
		return nil, err
	}

	cfg := job.MappingConfig
	if req.MappingOverride != nil {
		cfg = req.MappingOverride
	}
	if cfg == nil {
		cfg = mapper.DefaultConfig(job.SourceSystem, job.EntityKind)
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = s.Config.DefaultBatchSize
	}
	opts := importer.Options{
		DetectDuplicates: req.DetectDuplicates,
		UpdateExisting:   req.UpdateExisting,
		BatchSize:        batchSize,
		ContinueOnError:  req.ContinueOnError,
	}

	start := time.Now()

	tx, err := s.Target.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	jobCtx := importer.JobContext{JobID: job.ID.Hex(), TenantID: job.TenantID}
	res, err := executor.Import(ctx, tx, jobCtx, result.Records, cfg, opts)
	if err != nil {
		// A datastore fault, or a record failure when continue_on_error
		// is off, rolls back every write in the batch.
		if rbErr := tx.Rollback(); rbErr != nil {
			s.Logger.Error("transaction rollback failed", zap.String("job_id", job.ID.Hex()), zap.Error(rbErr))
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import transaction: %w", err)
	}

	duration := time.Since(start)

	job.Status = StatusCompleted
	job.ProcessedRecords = res.Processed
	job.SuccessCount = res.Succeeded
	job.UpdatedCount = res.Updated
	job.SkippedCount = res.Skipped
	job.FailedCount = res.Failed
	job.Errors = append(job.Errors, res.Errors...)
	now := time.Now()
	job.CompletedAt = &now

	if err := s.JobRepo.Update(ctx, job.ID.Hex(), job); err != nil {
		return nil, fmt.Errorf("failed to persist job report: %w", err)
	}

	// Best-effort cleanup of the stored source file.
	if job.FilePath != "" {
		if err := os.Remove(job.FilePath); err != nil && !os.IsNotExist(err) {
			s.Logger.Warn("failed to remove stored source file",
				zap.String("job_id", job.ID.Hex()),
				zap.String("path", job.FilePath),
				zap.Error(err))
		}
	}

	rps := 0.0
	if secs := duration.Seconds(); secs > 0 {
		rps = float64(res.Processed) / secs
	}

	s.Logger.Info("migration job completed",
		zap.String("job_id", job.ID.Hex()),
		zap.Int("processed", res.Processed),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", duration))

	return &ExecutionReport{
		JobID:             job.ID.Hex(),
		Status:            StatusCompleted,
		TotalRecords:      res.Processed,
		SuccessfulRecords: res.Succeeded,
		UpdatedRecords:    res.Updated,
		SkippedRecords:    res.Skipped,
		FailedRecords:     res.Failed,
		Errors:            res.Errors,
		Warnings:          res.Warnings,
		Summary: ExecutionSummary{
			Duration:         duration.String(),
			RecordsPerSecond: rps,
			BatchesProcessed: res.BatchesProcessed,
		},
	}, nil
}

func (s *MigrationServiceImpl) GetJob(ctx context.Context, tenantID, id string) (*MigrationJob, error) {
	job, err := s.JobRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.TenantID != tenantID {
		return nil, fmt.Errorf("job not found")
	}
	return job, nil
}

func (s *MigrationServiceImpl) ListJobs(ctx context.Context, tenantID string, limit int) ([]MigrationJob, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return s.JobRepo.FindByTenant(ctx, tenantID, limit)
}

// Rollback removes every target row a completed job produced, along
// with its provenance entries, in one target-database transaction.
func (s *MigrationServiceImpl) Rollback(ctx context.Context, tenantID, jobID string) (int64, error) {
	job, err := s.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return 0, err
	}
	if job.Status != StatusCompleted {
		return 0, ErrInvalidState
	}

	executor, err := s.Registry.Get(job.EntityKind)
	if err != nil {
		return 0, err
	}

	tx, err := s.Target.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	removed, err := executor.Rollback(ctx, tx, job.ID.Hex())
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.Logger.Error("transaction rollback failed", zap.String("job_id", jobID), zap.Error(rbErr))
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rollback transaction: %w", err)
	}

	if err := s.JobRepo.UpdateStatus(ctx, jobID, StatusRolledBack); err != nil {
		s.Logger.Error("failed to mark job rolled back", zap.String("job_id", jobID), zap.Error(err))
	}

	s.Logger.Info("migration job rolled back",
		zap.String("job_id", jobID),
		zap.Int64("rows_removed", removed))

	return removed, nil
}

func (s *MigrationServiceImpl) Cancel(ctx context.Context, tenantID, jobID string) error {
	job, err := s.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return err
	}
	if job.Status != StatusPending && job.Status != StatusPreview {
		return ErrInvalidState
	}
	return s.JobRepo.UpdateStatus(ctx, jobID, StatusCancelled)
}
