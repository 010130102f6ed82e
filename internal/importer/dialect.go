package importer

import (
	"fmt"
	"strings"
)

// dialect abstracts the placeholder and upsert differences between the
// supported target databases.
type dialect struct {
	dbType string // "postgresql" or "mysql"
}

// rebind converts ?-style placeholders to $n for postgres targets.
func (d dialect) rebind(query string) string {
	if d.dbType != "postgresql" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsertSuffix returns the conflict clause for the provenance upsert,
// keyed on the (job_id, source_record_id) unique constraint.
func (d dialect) upsertSuffix() string {
	if d.dbType == "postgresql" {
		return " ON CONFLICT (job_id, source_record_id) DO UPDATE SET target_id = EXCLUDED.target_id, action = EXCLUDED.action"
	}
	return " ON DUPLICATE KEY UPDATE target_id = VALUES(target_id), action = VALUES(action)"
}
