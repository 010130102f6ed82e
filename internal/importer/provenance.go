package importer

import (
	"context"
	"database/sql"
	"time"

	"firelater-migrate/internal/database"

	"github.com/google/uuid"
)

// ProvenanceAction records how a target row came to exist.
type ProvenanceAction string

const (
	ActionInsert ProvenanceAction = "insert"
	ActionUpdate ProvenanceAction = "update"
)

// provenanceStore persists the durable link between a source record and
// the target row it produced. It is the sole mechanism enabling
// rollback. Entries are uniquely keyed by (job_id, source_record_id), so
// re-importing a job upserts rather than duplicates.
type provenanceStore struct {
	d dialect
}

func newProvenanceStore(d dialect) *provenanceStore {
	return &provenanceStore{d: d}
}

func (p *provenanceStore) record(ctx context.Context, tx *sql.Tx, job JobContext, sourceID, targetTable, targetID string, action ProvenanceAction) error {
	query := p.d.rebind(`INSERT INTO import_records
		(id, job_id, tenant_id, source_record_id, target_table, target_id, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`) + p.d.upsertSuffix()

	_, err := tx.ExecContext(ctx, query,
		uuid.NewString(), job.JobID, job.TenantID, sourceID, targetTable, targetID, string(action), time.Now())
	return wrapDB(err)
}

// entriesForJob returns the target rows a job produced, read during rollback.
func (p *provenanceStore) entriesForJob(ctx context.Context, tx *sql.Tx, jobID string) ([]provenanceEntry, error) {
	query := p.d.rebind(`SELECT target_table, target_id FROM import_records WHERE job_id = ?`)

	rows, err := tx.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, wrapDB(err)
	}
	defer rows.Close()

	var entries []provenanceEntry
	for rows.Next() {
		var e provenanceEntry
		if err := rows.Scan(&e.targetTable, &e.targetID); err != nil {
			return nil, wrapDB(err)
		}
		entries = append(entries, e)
	}
	return entries, wrapDB(rows.Err())
}

func (p *provenanceStore) deleteForJob(ctx context.Context, tx *sql.Tx, jobID string) error {
	query := p.d.rebind(`DELETE FROM import_records WHERE job_id = ?`)
	_, err := tx.ExecContext(ctx, query, jobID)
	return wrapDB(err)
}

type provenanceEntry struct {
	targetTable string
	targetID    string
}

// PurgeProvenance removes the provenance entries of jobs that no longer
// exist, e.g. after the retention sweep prunes terminal jobs. It returns
// the number of rows removed.
func PurgeProvenance(ctx context.Context, target *database.TargetDB, jobIDs []string) (int64, error) {
	d := dialect{dbType: target.DBType}

	var purged int64
	for _, jobID := range jobIDs {
		query := d.rebind(`DELETE FROM import_records WHERE job_id = ?`)
		result, err := target.DB.ExecContext(ctx, query, jobID)
		if err != nil {
			return purged, wrapDB(err)
		}
		if n, err := result.RowsAffected(); err == nil {
			purged += n
		}
	}
	return purged, nil
}
