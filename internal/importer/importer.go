// Package importer writes mapped records into the target datastore, one
// executor per entity kind. A whole batch runs inside a single sql.Tx:
// per-record problems are recovered and counted, only datastore faults
// abort the transaction.
package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/database"
	"firelater-migrate/internal/mapper"

	"go.uber.org/zap"
)

// ErrUnsupportedEntity is returned for entity kinds without an executor.
var ErrUnsupportedEntity = errors.New("Unsupported entity type")

// ErrRecordFailed aborts an execution whose options demand a clean run.
var ErrRecordFailed = errors.New("record failed and continue_on_error is disabled")

// Options control duplicate handling and batching for one execution.
type Options struct {
	DetectDuplicates bool
	UpdateExisting   bool
	BatchSize        int
	ContinueOnError  bool
}

// Result aggregates one execution's outcome.
type Result struct {
	Processed        int                     `json:"processed"`
	Succeeded        int                     `json:"succeeded"`
	Updated          int                     `json:"updated"`
	Skipped          int                     `json:"skipped"`
	Failed           int                     `json:"failed"`
	BatchesProcessed int                     `json:"batches_processed"`
	Errors           []models.MigrationError `json:"errors,omitempty"`
	Warnings         []mapper.MapWarning     `json:"warnings,omitempty"`
}

// JobContext identifies the migration job an import belongs to.
type JobContext struct {
	JobID    string
	TenantID string
}

// Executor imports records of one entity kind.
type Executor interface {
	Kind() models.EntityKind
	Import(ctx context.Context, tx *sql.Tx, job JobContext, records []models.ParsedRecord, cfg *models.FieldMappingConfig, opts Options) (*Result, error)
	Rollback(ctx context.Context, tx *sql.Tx, jobID string) (int64, error)
}

// Registry dispatches to the executor for an entity kind.
type Registry struct {
	executors map[models.EntityKind]Executor
}

// NewRegistry builds the executor set. Incidents and requests are the
// supported kinds; everything else is rejected at dispatch time.
func NewRegistry(target *database.TargetDB, logger *zap.Logger) *Registry {
	d := dialect{dbType: target.DBType}
	prov := newProvenanceStore(d)

	r := &Registry{executors: make(map[models.EntityKind]Executor)}
	for _, e := range []Executor{
		newTicketExecutor(models.EntityIncident, "incidents", d, prov, logger),
		newTicketExecutor(models.EntityRequest, "requests", d, prov, logger),
	} {
		r.executors[e.Kind()] = e
	}
	return r
}

// Get returns the executor for kind, or ErrUnsupportedEntity.
func (r *Registry) Get(kind models.EntityKind) (Executor, error) {
	e, ok := r.executors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEntity, kind)
	}
	return e, nil
}

// dbError marks a datastore fault. Unlike per-record problems it aborts
// the whole batch transaction.
type dbError struct {
	err error
}

func (e *dbError) Error() string { return "database error: " + e.err.Error() }
func (e *dbError) Unwrap() error { return e.err }

func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	return &dbError{err: err}
}

// IsDatabaseError reports whether err is a transaction-aborting
// datastore fault.
func IsDatabaseError(err error) bool {
	var de *dbError
	return errors.As(err, &de)
}
