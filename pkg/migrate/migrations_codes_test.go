package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aliyevk/codedesk-backend/pkg/migrate"
)

func TestCodeRecordsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_code_records.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no code records migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS code_records",
		"CHECK (price IS NULL OR price >= 0)",
		"CREATE INDEX IF NOT EXISTS idx_code_records_user_batch",
		"DROP TABLE IF EXISTS code_records",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	// The status column stays free text so admin overrides are never
	// rejected by the schema.
	if strings.Contains(content, "CHECK (status") {
		t.Error("status column must not carry a CHECK constraint")
	}
}

func TestPayoutEntriesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payout_entries.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payout entries migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payout_entries",
		"CHECK (amount >= 0)",
		"CHECK (code_count >= 0)",
		"DROP TABLE IF EXISTS payout_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAllMigrationsValidate(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
