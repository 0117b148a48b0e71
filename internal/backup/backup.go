package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nordicastudio/gestion3d/internal/clients"
	"github.com/nordicastudio/gestion3d/internal/expenses"
	"github.com/nordicastudio/gestion3d/internal/inventory"
	"github.com/nordicastudio/gestion3d/internal/quotes"
	"github.com/nordicastudio/gestion3d/internal/settings"
)

// Snapshot is a full export of the business data, one JSON document the
// owner can download and keep.
type Snapshot struct {
	GeneratedAt string                `json:"generatedAt"`
	Clients     []clients.Client      `json:"clients"`
	Filaments   []inventory.Filament  `json:"filaments"`
	Accessories []inventory.Accessory `json:"accessories"`
	Quotes      []quotes.Quote        `json:"quotes"`
	Expenses    []expenses.Expense    `json:"expenses"`
	Settings    settings.Settings     `json:"settings"`
}

// Service assembles snapshots from the individual stores.
type Service struct {
	Clients   *clients.Store
	Inventory *inventory.Store
	Quotes    *quotes.Service
	Expenses  *expenses.Store
	Settings  *settings.Store
}

// Export collects every collection into one snapshot.
func (s *Service) Export() (Snapshot, error) {
	var snap Snapshot
	var err error

	snap.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	if snap.Clients, err = s.Clients.List(); err != nil {
		return Snapshot{}, fmt.Errorf("backup clients: %w", err)
	}
	if snap.Filaments, err = s.Inventory.ListFilaments(); err != nil {
		return Snapshot{}, fmt.Errorf("backup filaments: %w", err)
	}
	if snap.Accessories, err = s.Inventory.ListAccessories(); err != nil {
		return Snapshot{}, fmt.Errorf("backup accessories: %w", err)
	}
	if snap.Quotes, err = s.Quotes.ListWithLines(); err != nil {
		return Snapshot{}, fmt.Errorf("backup quotes: %w", err)
	}
	if snap.Expenses, err = s.Expenses.List(); err != nil {
		return Snapshot{}, fmt.Errorf("backup expenses: %w", err)
	}
	if snap.Settings, err = s.Settings.Get(); err != nil {
		return Snapshot{}, fmt.Errorf("backup settings: %w", err)
	}

	return snap, nil
}

// ExportJSON marshals the snapshot with indentation, ready for download.
func (s *Service) ExportJSON() ([]byte, error) {
	snap, err := s.Export()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

// FileName builds the download name for a backup taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("backup-nordica-studio-3d-%s.json", t.UTC().Format("2006-01-02"))
}
