package seed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/nordicastudio/gestion3d/internal/settings"
)

const (
	defaultFilamentName  = "PLA (Genérico)"
	defaultFilamentColor = "Negro"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSettings(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureFilament(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	sum := sha256.Sum256([]byte(password))
	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hex.EncodeToString(sum[:])); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureSettings(tx *sql.Tx, stats *Stats) error {
	defaults := settings.Defaults()
	pairs := map[string]string{
		"electricityCost":         strconv.FormatFloat(defaults.ElectricityCost, 'f', -1, 64),
		"machineCost":             strconv.FormatFloat(defaults.MachineCost, 'f', -1, 64),
		"printerConsumptionWatts": strconv.FormatFloat(defaults.PrinterConsumptionWatts, 'f', -1, 64),
		"profitMargin":            strconv.FormatFloat(defaults.ProfitMargin, 'f', -1, 64),
		"currency":                defaults.Currency,
		"companyName":             defaults.CompanyName,
		"backupReminderDays":      strconv.Itoa(defaults.BackupReminderDays),
	}

	for key, value := range pairs {
		res, err := tx.Exec(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, value)
		if err != nil {
			return fmt.Errorf("insert default setting %s: %w", key, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert default setting %s: %w", key, err)
		}
		stats.Inserts += int(affected)
	}
	return nil
}

func ensureFilament(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM filaments WHERE name = ? AND color = ? LIMIT 1)
	`, defaultFilamentName, defaultFilamentColor).Scan(&exists); err != nil {
		return fmt.Errorf("check default filament existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO filaments (name, color, stock_level, cost_per_kg)
		VALUES (?, ?, ?, ?)
	`, defaultFilamentName, defaultFilamentColor, 0, 0); err != nil {
		return fmt.Errorf("insert default filament: %w", err)
	}
	stats.Inserts++
	return nil
}
