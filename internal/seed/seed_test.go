package seed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/nordicastudio/gestion3d/internal/db"
	"github.com/nordicastudio/gestion3d/internal/migrations"
)

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := Config{
		AdminEmail:    "admin@nordicastudio.com",
		AdminPassword: "12345",
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			// 1 admin + 7 settings + 1 filament.
			if stats.Inserts != 9 {
				t.Fatalf("expected 9 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE email = ?`, "admin@nordicastudio.com", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM filaments WHERE name = ?`, "PLA (Genérico)", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE key = ?`, "profitMargin", 1)

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, "admin@nordicastudio.com").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	sum := sha256.Sum256([]byte("12345"))
	if hash != hex.EncodeToString(sum[:]) {
		t.Fatalf("expected admin hash to match password")
	}
}

func TestRunKeepsCustomizedSettings(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "seed-settings-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := database.Exec(`INSERT INTO settings (key, value) VALUES ('profitMargin', '55')`); err != nil {
		t.Fatalf("seed customized setting: %v", err)
	}

	if _, err := Run(database, Config{}); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	var value string
	if err := database.QueryRow(`SELECT value FROM settings WHERE key = 'profitMargin'`).Scan(&value); err != nil {
		t.Fatalf("query setting: %v", err)
	}
	if value != "55" {
		t.Fatalf("seed must not overwrite a customized setting, got %q", value)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, arg any, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(query, arg).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
