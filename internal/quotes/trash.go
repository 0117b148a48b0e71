package quotes

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nordicastudio/gestion3d/internal/trash"
)

// Restore reinstates an archived quote, with its line items, under its
// original id. The record comes back exactly as archived and no stock
// changes: a pending quote's consumption was either already credited at
// soft-delete or is still correctly deducted, depending on the policy.
func Restore(tx *sql.Tx, originalID int64, data json.RawMessage) error {
	var q Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return fmt.Errorf("unmarshal quote snapshot: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO quotes (
			id, code, client_id, description, printing_time_hours,
			material_cost, accessory_cost, machine_cost, electricity_cost,
			price, status, date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, originalID, q.Code, q.ClientID, q.Description, q.PrintingTimeHours,
		q.MaterialCost, q.AccessoryCost, q.MachineCost, q.ElectricityCost,
		q.Price, string(q.Status), q.Date); err != nil {
		return fmt.Errorf("insert restored quote: %w", err)
	}

	for _, m := range q.Materials {
		if _, err := tx.Exec(`
			INSERT INTO quote_materials (quote_id, filament_id, grams)
			VALUES (?, ?, ?)
		`, originalID, m.FilamentID, m.Grams); err != nil {
			return fmt.Errorf("insert restored quote material: %w", err)
		}
	}
	for _, a := range q.Accessories {
		if _, err := tx.Exec(`
			INSERT INTO quote_accessories (quote_id, accessory_id, quantity)
			VALUES (?, ?, ?)
		`, originalID, a.AccessoryID, a.Quantity); err != nil {
			return fmt.Errorf("insert restored quote accessory: %w", err)
		}
	}

	return nil
}

// PurgeHook returns the trash purge hook for quotes. It only acts under
// ReconcileOnPurge: a purged pending snapshot gets its consumption credited
// back, once. Under the default policy the credit already happened at
// soft-delete, so purging is a plain discard.
func (s *Service) PurgeHook() trash.PurgeHook {
	return func(tx *sql.Tx, item trash.Item) error {
		if s.policy != ReconcileOnPurge {
			return nil
		}

		var q Quote
		if err := json.Unmarshal(item.Data, &q); err != nil {
			return fmt.Errorf("unmarshal quote snapshot: %w", err)
		}
		if q.Status != StatusPending {
			return nil
		}
		return creditStock(tx, q.Materials, q.Accessories)
	}
}
