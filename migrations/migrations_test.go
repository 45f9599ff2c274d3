package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestSchemaCoversRepositoryTables(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil || len(names) == 0 {
		t.Fatalf("no embedded migrations: %v", err)
	}

	var schema strings.Builder
	for _, name := range names {
		data, err := fs.ReadFile(FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		schema.Write(data)
	}

	for _, table := range []string{
		"snapshots",
		"snapshot_stands",
		"snapshot_turns",
		"snapshot_adjacency_rules",
		"snapshot_allowed_stands",
		"allocation_runs",
		"allocation_assignments",
	} {
		if !strings.Contains(schema.String(), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("schema misses table %s", table)
		}
	}
}
