package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fares-ag/blox-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestPaymentTransactionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payment_transactions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payment_transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_transactions",
		"UNIQUE (transaction_id)",
		"FOREIGN KEY (application_id) REFERENCES applications(id) ON DELETE SET NULL",
		"CHECK (amount >= 0)",
		"DROP TABLE IF EXISTS payment_transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumMigrationCoversEveryStatus(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payment_enums.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no enum migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, status := range []string{"'pending'", "'processing'", "'completed'", "'failed'", "'cancelled'"} {
		if !strings.Contains(content, status) {
			t.Errorf("payment_status enum missing %s", status)
		}
	}
}
