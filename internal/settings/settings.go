package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nordicastudio/gestion3d/internal/db"
)

// Settings is the cost and business configuration read by the pricing engine.
// It is a snapshot: callers re-read it for every calculation instead of
// caching, since costs change between quotes.
type Settings struct {
	ElectricityCost         float64 // currency per kWh
	MachineCost             float64 // currency per hour
	PrinterConsumptionWatts float64
	ProfitMargin            float64 // percent
	Currency                string
	CompanyName             string
	BackupReminderDays      int
}

// Defaults mirrors the values a fresh installation starts with.
func Defaults() Settings {
	return Settings{
		ElectricityCost:         0.15,
		MachineCost:             0.5,
		PrinterConsumptionWatts: 150,
		ProfitMargin:            30,
		Currency:                "ARS$",
		CompanyName:             "Nordica Studio 3D",
		BackupReminderDays:      30,
	}
}

// Store reads and writes settings stored as key/value rows.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{db: database} }

// Get returns the current settings, applying defaults for missing keys.
func (s *Store) Get() (Settings, error) {
	return Read(s.db)
}

// Read loads settings through any Queryer, so a caller can take the snapshot
// inside its own transaction at confirm time.
func Read(q db.Queryer) (Settings, error) {
	cfg := Defaults()

	rows, err := q.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return cfg, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return cfg, fmt.Errorf("scan setting: %w", err)
		}
		applyValue(&cfg, key, value)
	}
	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("iterate settings: %w", err)
	}

	return cfg, nil
}

func applyValue(cfg *Settings, key, value string) {
	switch key {
	case "electricityCost":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.ElectricityCost = f
		}
	case "machineCost":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.MachineCost = f
		}
	case "printerConsumptionWatts":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.PrinterConsumptionWatts = f
		}
	case "profitMargin":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.ProfitMargin = f
		}
	case "currency":
		if value != "" {
			cfg.Currency = value
		}
	case "companyName":
		if value != "" {
			cfg.CompanyName = value
		}
	case "backupReminderDays":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			cfg.BackupReminderDays = n
		}
	}
}

// Save upserts every setting key in a single transaction.
func (s *Store) Save(cfg Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}

	pairs := map[string]string{
		"electricityCost":         strconv.FormatFloat(cfg.ElectricityCost, 'f', -1, 64),
		"machineCost":             strconv.FormatFloat(cfg.MachineCost, 'f', -1, 64),
		"printerConsumptionWatts": strconv.FormatFloat(cfg.PrinterConsumptionWatts, 'f', -1, 64),
		"profitMargin":            strconv.FormatFloat(cfg.ProfitMargin, 'f', -1, 64),
		"currency":                cfg.Currency,
		"companyName":             cfg.CompanyName,
		"backupReminderDays":      strconv.Itoa(cfg.BackupReminderDays),
	}

	for key, value := range pairs {
		if _, err := tx.Exec(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, key, value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings transaction: %w", err)
	}
	return nil
}

// LastBackup returns when the last backup was downloaded. The zero time means
// no backup was ever taken; an unparsable stored value counts the same way.
func (s *Store) LastBackup() (time.Time, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = 'lastBackupDate'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query last backup: %w", err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// RecordBackup stores the time of a completed backup download.
func (s *Store) RecordBackup(t time.Time) error {
	if _, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES ('lastBackupDate', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, t.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record backup: %w", err)
	}
	return nil
}
