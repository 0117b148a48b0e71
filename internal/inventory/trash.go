package inventory

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nordicastudio/gestion3d/internal/trash"
)

const (
	// CollectionFilaments tags filament snapshots in the trash.
	CollectionFilaments = "filaments"
	// CollectionAccessories tags accessory snapshots in the trash.
	CollectionAccessories = "accessories"
)

// DeleteFilament moves a filament into the trash: the archive and the row
// removal commit together.
func (s *Store) DeleteFilament(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin filament delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	f, err := GetFilament(tx, id)
	if err != nil {
		return err
	}
	if _, err := trash.ArchiveTx(tx, CollectionFilaments, f.ID, f); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM filaments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete filament: %w", err)
	}

	return tx.Commit()
}

// DeleteAccessory moves an accessory into the trash.
func (s *Store) DeleteAccessory(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin accessory delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := GetAccessory(tx, id)
	if err != nil {
		return err
	}
	if _, err := trash.ArchiveTx(tx, CollectionAccessories, a.ID, a); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM accessories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete accessory: %w", err)
	}

	return tx.Commit()
}

// RestoreFilament reinstates an archived filament under its original id.
func RestoreFilament(tx *sql.Tx, originalID int64, data json.RawMessage) error {
	var f Filament
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("unmarshal filament snapshot: %w", err)
	}
	_, err := tx.Exec(`
		INSERT INTO filaments (id, name, color, stock_level, cost_per_kg)
		VALUES (?, ?, ?, ?, ?)
	`, originalID, f.Name, f.Color, f.StockLevel, f.CostPerKg)
	if err != nil {
		return fmt.Errorf("insert restored filament: %w", err)
	}
	return nil
}

// RestoreAccessory reinstates an archived accessory under its original id.
func RestoreAccessory(tx *sql.Tx, originalID int64, data json.RawMessage) error {
	var a Accessory
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("unmarshal accessory snapshot: %w", err)
	}
	_, err := tx.Exec(`
		INSERT INTO accessories (id, name, stock_level, cost)
		VALUES (?, ?, ?, ?)
	`, originalID, a.Name, a.StockLevel, a.Cost)
	if err != nil {
		return fmt.Errorf("insert restored accessory: %w", err)
	}
	return nil
}
