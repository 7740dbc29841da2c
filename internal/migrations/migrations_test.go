package migrations

import (
	"strings"
	"testing"
)

func TestInitMigrationEmbedded(t *testing.T) {
	data, err := Files.ReadFile("001_init.sql")
	if err != nil {
		t.Fatalf("expected embedded migration, got error: %v", err)
	}

	sql := string(data)
	for _, table := range []string{"google_oauth_tokens", "push_subscriptions", "push_sent"} {
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("initial migration must create %s", table)
		}
	}
}
