package importer

import (
	"context"
	"fmt"

	"firelater-migrate/internal/database"
)

// ticketTableDDL works on both supported target databases.
const ticketTableDDL = `CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(36) PRIMARY KEY,
	tenant_id VARCHAR(36) NOT NULL,
	source_record_id VARCHAR(255) NOT NULL,
	title VARCHAR(512) NOT NULL,
	description TEXT,
	priority INT NOT NULL,
	status VARCHAR(64) NOT NULL,
	category VARCHAR(255),
	assigned_to_email VARCHAR(255),
	requester_email VARCHAR(255),
	created_by VARCHAR(255),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	closed_at TIMESTAMP NULL
)`

const provenanceTableDDL = `CREATE TABLE IF NOT EXISTS import_records (
	id VARCHAR(36) PRIMARY KEY,
	job_id VARCHAR(36) NOT NULL,
	tenant_id VARCHAR(36) NOT NULL,
	source_record_id VARCHAR(255) NOT NULL,
	target_table VARCHAR(64) NOT NULL,
	target_id VARCHAR(36) NOT NULL,
	action VARCHAR(16) NOT NULL,
	created_at TIMESTAMP NOT NULL,
	CONSTRAINT uq_import_records_job_source UNIQUE (job_id, source_record_id)
)`

// EnsureSchema creates the target and provenance tables when missing.
// Called once at startup.
func EnsureSchema(ctx context.Context, target *database.TargetDB) error {
	for _, table := range []string{"incidents", "requests"} {
		if _, err := target.DB.ExecContext(ctx, fmt.Sprintf(ticketTableDDL, table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	if _, err := target.DB.ExecContext(ctx, provenanceTableDDL); err != nil {
		return fmt.Errorf("failed to create import_records table: %w", err)
	}
	return nil
}
