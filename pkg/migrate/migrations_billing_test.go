package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geniustaku/docuflow-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestBillingSchemaMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_billing_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no billing schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CONSTRAINT subscription_plans_slug_key UNIQUE (slug)",
		"CONSTRAINT companies_code_key UNIQUE (code)",
		"CONSTRAINT companies_api_key_key UNIQUE (api_key)",
		"CONSTRAINT invoices_invoice_number_key UNIQUE (invoice_number)",
		"invoice_id uuid NOT NULL REFERENCES invoices (id) ON DELETE CASCADE",
		"CONSTRAINT payments_reference_key UNIQUE (reference)",
		"DROP TABLE audit_logs",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
