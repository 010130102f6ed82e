package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/mapper"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// optionalColumns are written on insert only when mapping produced them.
var optionalColumns = []string{
	"description", "category", "assigned_to_email", "requester_email", "closed_at",
}

// updatableColumns bound what an update-existing import may touch.
var updatableColumns = []string{
	"title", "description", "priority", "status", "category", "assigned_to_email",
}

// ticketExecutor imports ticket-shaped entities (incidents and requests).
// Both kinds share the schema; only the target table differs.
type ticketExecutor struct {
	kind   models.EntityKind
	table  string
	d      dialect
	prov   *provenanceStore
	logger *zap.Logger
}

func newTicketExecutor(kind models.EntityKind, table string, d dialect, prov *provenanceStore, logger *zap.Logger) *ticketExecutor {
	return &ticketExecutor{kind: kind, table: table, d: d, prov: prov, logger: logger}
}

func (e *ticketExecutor) Kind() models.EntityKind { return e.kind }

// Import maps, validates and writes every record. Per-record problems
// are counted and recovered; a datastore fault aborts and is returned so
// the caller can roll the transaction back.
func (e *ticketExecutor) Import(ctx context.Context, tx *sql.Tx, job JobContext, records []models.ParsedRecord, cfg *models.FieldMappingConfig, opts Options) (*Result, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	res := &Result{}
	for i, rec := range records {
		res.Processed++
		index := i + 1

		failedBefore := res.Failed
		if err := e.importRecord(ctx, tx, job, rec, index, cfg, opts, res); err != nil {
			if IsDatabaseError(err) {
				return res, err
			}
			// Anything else is recovered: log it, count the record
			// skipped, keep going.
			e.logger.Warn("record import failed",
				zap.String("job_id", job.JobID),
				zap.String("source_id", rec.SourceID),
				zap.Error(err))
			res.Skipped++
			res.Errors = append(res.Errors, models.MigrationError{
				RecordIndex: index,
				SourceID:    rec.SourceID,
				ErrorType:   models.ErrorTypeImport,
				Message:     err.Error(),
				Timestamp:   time.Now(),
			})
		}

		if !opts.ContinueOnError && res.Failed > failedBefore {
			return res, fmt.Errorf("record %d (%s): %w", index, rec.SourceID, ErrRecordFailed)
		}

		if index%batchSize == 0 {
			res.BatchesProcessed++
		}
	}
	if res.Processed%batchSize != 0 {
		res.BatchesProcessed++
	}

	return res, nil
}

func (e *ticketExecutor) importRecord(ctx context.Context, tx *sql.Tx, job JobContext, rec models.ParsedRecord, index int, cfg *models.FieldMappingConfig, opts Options, res *Result) error {
	data, mapErrs, warnings := mapper.MapRecord(rec, cfg, index)
	res.Warnings = append(res.Warnings, warnings...)
	if len(mapErrs) > 0 {
		res.Errors = append(res.Errors, mapErrs...)
		res.Failed++
		return nil
	}

	if problems := mapper.ValidateForEntity(e.kind, data); len(problems) > 0 {
		for _, p := range problems {
			res.Errors = append(res.Errors, models.MigrationError{
				RecordIndex: index,
				SourceID:    rec.SourceID,
				ErrorType:   models.ErrorTypeValidation,
				Message:     p,
				Timestamp:   time.Now(),
			})
		}
		res.Failed++
		return nil
	}

	if opts.DetectDuplicates {
		existingID, err := e.findExisting(ctx, tx, job.TenantID, rec.SourceID)
		if err != nil {
			return err
		}
		if existingID != "" {
			if !opts.UpdateExisting {
				res.Skipped++
				return nil
			}
			if err := e.update(ctx, tx, existingID, data); err != nil {
				return err
			}
			if err := e.prov.record(ctx, tx, job, rec.SourceID, e.table, existingID, ActionUpdate); err != nil {
				return err
			}
			res.Updated++
			return nil
		}
	}

	id := uuid.NewString()
	if err := e.insert(ctx, tx, id, job.TenantID, rec, data); err != nil {
		return err
	}
	if err := e.prov.record(ctx, tx, job, rec.SourceID, e.table, id, ActionInsert); err != nil {
		return err
	}
	res.Succeeded++
	return nil
}

func (e *ticketExecutor) findExisting(ctx context.Context, tx *sql.Tx, tenantID, sourceID string) (string, error) {
	query := e.d.rebind(fmt.Sprintf(
		`SELECT id FROM %s WHERE tenant_id = ? AND source_record_id = ?`, e.table))

	var id string
	err := tx.QueryRowContext(ctx, query, tenantID, sourceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapDB(err)
	}
	return id, nil
}

func (e *ticketExecutor) insert(ctx context.Context, tx *sql.Tx, id, tenantID string, rec models.ParsedRecord, data mapper.TargetData) error {
	createdAt := time.Now()
	if rec.Meta.CreatedAt != nil {
		createdAt = *rec.Meta.CreatedAt
	}

	columns := []string{"id", "tenant_id", "source_record_id", "title", "priority", "status", "created_at", "updated_at"}
	args := []any{id, tenantID, rec.SourceID, data["title"], data["priority"], data["status"], createdAt, time.Now()}

	for _, col := range optionalColumns {
		if v, ok := data[col]; ok {
			columns = append(columns, col)
			args = append(args, v)
		}
	}
	if rec.Meta.CreatedBy != "" {
		columns = append(columns, "created_by")
		args = append(args, rec.Meta.CreatedBy)
	}

	query := e.d.rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.table,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")))

	_, err := tx.ExecContext(ctx, query, args...)
	return wrapDB(err)
}

func (e *ticketExecutor) update(ctx context.Context, tx *sql.Tx, id string, data mapper.TargetData) error {
	var sets []string
	var args []any
	for _, col := range updatableColumns {
		if v, ok := data[col]; ok {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id)

	query := e.d.rebind(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		e.table, strings.Join(sets, ", ")))

	_, err := tx.ExecContext(ctx, query, args...)
	return wrapDB(err)
}

// Rollback deletes every target row this job produced, then the
// provenance entries, and returns the count of target rows removed.
// Rows overwritten by an update import are not restored; pre-update
// snapshots are not retained.
func (e *ticketExecutor) Rollback(ctx context.Context, tx *sql.Tx, jobID string) (int64, error) {
	entries, err := e.prov.entriesForJob(ctx, tx, jobID)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, entry := range entries {
		query := e.d.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", entry.targetTable))
		result, err := tx.ExecContext(ctx, query, entry.targetID)
		if err != nil {
			return deleted, wrapDB(err)
		}
		if n, err := result.RowsAffected(); err == nil {
			deleted += n
		}
	}

	if err := e.prov.deleteForJob(ctx, tx, jobID); err != nil {
		return deleted, err
	}
	return deleted, nil
}
