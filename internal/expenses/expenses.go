package expenses

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nordicastudio/gestion3d/internal/db"
	"github.com/nordicastudio/gestion3d/internal/trash"
)

// Collection tags expense snapshots in the trash.
const Collection = "expenses"

// ErrNotFound indicates the expense does not exist.
var ErrNotFound = errors.New("expenses: expense not found")

// Expense is a single business cost entry.
type Expense struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"` // RFC 3339
}

// FilamentPurchase describes a filament-buying expense. Registering one both
// records the expense and feeds the purchased spool into inventory.
type FilamentPurchase struct {
	FilamentName  string
	FilamentColor string
	Grams         float64
	Amount        float64
	Date          string
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{db: database} }

func (s *Store) Create(e Expense) (int64, error) {
	if e.Date == "" {
		e.Date = time.Now().UTC().Format(time.RFC3339)
	}
	res, err := s.db.Exec(`
		INSERT INTO expenses (description, amount, date)
		VALUES (?, ?, ?)
	`, e.Description, e.Amount, e.Date)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return res.LastInsertId()
}

// CreateFilamentPurchase records a filament purchase in one transaction:
// the matching spool (by name and color) gains stock and gets its cost per kg
// recomputed as a weighted average of old stock value and purchase amount;
// a spool seen for the first time is created outright. The generated expense
// row describes the purchase.
func (s *Store) CreateFilamentPurchase(p FilamentPurchase) (int64, error) {
	if p.Grams <= 0 || p.Amount <= 0 {
		return 0, fmt.Errorf("expenses: grams and amount must be positive")
	}
	if p.Date == "" {
		p.Date = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin purchase transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var filamentID int64
	var stock, costPerKg float64
	err = tx.QueryRow(`
		SELECT id, stock_level, cost_per_kg
		FROM filaments
		WHERE name = ? AND color = ?
		LIMIT 1
	`, p.FilamentName, p.FilamentColor).Scan(&filamentID, &stock, &costPerKg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		newCostPerKg := (p.Amount / p.Grams) * 1000
		if _, err := tx.Exec(`
			INSERT INTO filaments (name, color, stock_level, cost_per_kg)
			VALUES (?, ?, ?, ?)
		`, p.FilamentName, p.FilamentColor, p.Grams, newCostPerKg); err != nil {
			return 0, fmt.Errorf("insert purchased filament: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("query filament for purchase: %w", err)
	default:
		existingValue := (costPerKg / 1000) * stock
		totalStock := stock + p.Grams
		totalValue := existingValue + p.Amount
		newCostPerKg := 0.0
		if totalStock > 0 {
			newCostPerKg = (totalValue / totalStock) * 1000
		}
		if _, err := tx.Exec(`
			UPDATE filaments SET stock_level = ?, cost_per_kg = ? WHERE id = ?
		`, totalStock, newCostPerKg, filamentID); err != nil {
			return 0, fmt.Errorf("update purchased filament: %w", err)
		}
	}

	description := fmt.Sprintf("Compra de %gg de filamento %s %s", p.Grams, p.FilamentName, p.FilamentColor)
	res, err := tx.Exec(`
		INSERT INTO expenses (description, amount, date)
		VALUES (?, ?, ?)
	`, description, p.Amount, p.Date)
	if err != nil {
		return 0, fmt.Errorf("insert purchase expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("purchase expense id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purchase transaction: %w", err)
	}
	return id, nil
}

func (s *Store) Get(id int64) (Expense, error) {
	return get(s.db, id)
}

func get(q db.Queryer, id int64) (Expense, error) {
	var e Expense
	err := q.QueryRow(`
		SELECT id, description, amount, date
		FROM expenses
		WHERE id = ?
	`, id).Scan(&e.ID, &e.Description, &e.Amount, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return Expense{}, ErrNotFound
	}
	if err != nil {
		return Expense{}, fmt.Errorf("query expense: %w", err)
	}
	return e, nil
}

// List returns expenses, most recent date first.
func (s *Store) List() ([]Expense, error) {
	rows, err := s.db.Query(`
		SELECT id, description, amount, date
		FROM expenses
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	out := make([]Expense, 0)
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Total sums every recorded expense.
func (s *Store) Total() (float64, error) {
	var total float64
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM expenses`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// Delete moves an expense into the trash.
func (s *Store) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin expense delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	e, err := get(tx, id)
	if err != nil {
		return err
	}
	if _, err := trash.ArchiveTx(tx, Collection, e.ID, e); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	return tx.Commit()
}

// Restore reinstates an archived expense under its original id.
func Restore(tx *sql.Tx, originalID int64, data json.RawMessage) error {
	var e Expense
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("unmarshal expense snapshot: %w", err)
	}
	_, err := tx.Exec(`
		INSERT INTO expenses (id, description, amount, date)
		VALUES (?, ?, ?, ?)
	`, originalID, e.Description, e.Amount, e.Date)
	if err != nil {
		return fmt.Errorf("insert restored expense: %w", err)
	}
	return nil
}
