package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/merouaHba/EcommerceAPI/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration file matches %s", pattern)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS sub_orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"FOREIGN KEY (sub_order_id) REFERENCES sub_orders(id) ON DELETE CASCADE",
		"is_balance_transfered BOOLEAN NOT NULL DEFAULT FALSE",
		"CHECK (qty > 0)",
		"DROP TABLE IF EXISTS order_items",
	}
	for _, sub := range checks {
		require.Contains(t, content, sub)
	}
}

func TestTransactionsMigrationCapsRefunds(t *testing.T) {
	content := readMigration(t, "*_create_transactions.sql")

	require.Contains(t, content, "payment_intent_id TEXT NOT NULL UNIQUE")
	require.Contains(t, content, "CHECK (amount_refunded_cents <= amount_cents)")
}

func TestMigrationDirValidates(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}
