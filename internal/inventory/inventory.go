package inventory

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nordicastudio/gestion3d/internal/db"
)

var (
	// ErrNotFound indicates the referenced filament or accessory does not exist.
	ErrNotFound = errors.New("inventory: item not found")
	// ErrInsufficientStock indicates an adjustment would drive stock below zero.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Filament is a spool of printing material tracked in grams.
type Filament struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	StockLevel float64 `json:"stockLevel"` // grams
	CostPerKg  float64 `json:"costPerKg"`
}

// Accessory is a discrete consumable tracked in whole units.
type Accessory struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	StockLevel int64   `json:"stockLevel"` // units
	Cost       float64 `json:"cost"`       // per unit
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{db: database} }

// DB exposes the underlying handle for callers that open their own
// transactions around stock adjustments.
func (s *Store) DB() *sql.DB { return s.db }

/* Filaments */

func (s *Store) CreateFilament(f Filament) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO filaments (name, color, stock_level, cost_per_kg)
		VALUES (?, ?, ?, ?)
	`, f.Name, f.Color, f.StockLevel, f.CostPerKg)
	if err != nil {
		return 0, fmt.Errorf("insert filament: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UpdateFilament(f Filament) error {
	res, err := s.db.Exec(`
		UPDATE filaments
		SET name = ?, color = ?, stock_level = ?, cost_per_kg = ?
		WHERE id = ?
	`, f.Name, f.Color, f.StockLevel, f.CostPerKg, f.ID)
	if err != nil {
		return fmt.Errorf("update filament: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update filament: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetFilament(id int64) (Filament, error) {
	return GetFilament(s.db, id)
}

// GetFilament reads one filament, possibly inside a caller's transaction.
func GetFilament(q db.Queryer, id int64) (Filament, error) {
	var f Filament
	err := q.QueryRow(`
		SELECT id, name, color, stock_level, cost_per_kg
		FROM filaments
		WHERE id = ?
	`, id).Scan(&f.ID, &f.Name, &f.Color, &f.StockLevel, &f.CostPerKg)
	if errors.Is(err, sql.ErrNoRows) {
		return Filament{}, ErrNotFound
	}
	if err != nil {
		return Filament{}, fmt.Errorf("query filament: %w", err)
	}
	return f, nil
}

// FindFilamentByNameColor looks a filament up by its (name, color) pair, used
// when a purchase expense tops up an existing spool.
func (s *Store) FindFilamentByNameColor(name, color string) (Filament, error) {
	var f Filament
	err := s.db.QueryRow(`
		SELECT id, name, color, stock_level, cost_per_kg
		FROM filaments
		WHERE name = ? AND color = ?
		LIMIT 1
	`, name, color).Scan(&f.ID, &f.Name, &f.Color, &f.StockLevel, &f.CostPerKg)
	if errors.Is(err, sql.ErrNoRows) {
		return Filament{}, ErrNotFound
	}
	if err != nil {
		return Filament{}, fmt.Errorf("query filament by name/color: %w", err)
	}
	return f, nil
}

func (s *Store) ListFilaments() ([]Filament, error) {
	rows, err := s.db.Query(`
		SELECT id, name, color, stock_level, cost_per_kg
		FROM filaments
		ORDER BY name, color
	`)
	if err != nil {
		return nil, fmt.Errorf("query filaments: %w", err)
	}
	defer rows.Close()

	filaments := make([]Filament, 0)
	for rows.Next() {
		var f Filament
		if err := rows.Scan(&f.ID, &f.Name, &f.Color, &f.StockLevel, &f.CostPerKg); err != nil {
			return nil, fmt.Errorf("scan filament: %w", err)
		}
		filaments = append(filaments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filaments: %w", err)
	}
	return filaments, nil
}

// AdjustFilamentStock applies a relative stock change in a single statement.
// The guard rejects adjustments that would leave negative stock, so two
// concurrent quotes cannot over-consume the same spool.
func AdjustFilamentStock(q db.Queryer, id int64, deltaGrams float64) error {
	res, err := q.Exec(`
		UPDATE filaments
		SET stock_level = stock_level + ?
		WHERE id = ? AND stock_level + ? >= 0
	`, deltaGrams, id, deltaGrams)
	if err != nil {
		return fmt.Errorf("adjust filament stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust filament stock: %w", err)
	}
	if affected == 0 {
		if _, err := GetFilament(q, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

/* Accessories */

func (s *Store) CreateAccessory(a Accessory) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO accessories (name, stock_level, cost)
		VALUES (?, ?, ?)
	`, a.Name, a.StockLevel, a.Cost)
	if err != nil {
		return 0, fmt.Errorf("insert accessory: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UpdateAccessory(a Accessory) error {
	res, err := s.db.Exec(`
		UPDATE accessories
		SET name = ?, stock_level = ?, cost = ?
		WHERE id = ?
	`, a.Name, a.StockLevel, a.Cost, a.ID)
	if err != nil {
		return fmt.Errorf("update accessory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update accessory: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetAccessory(id int64) (Accessory, error) {
	return GetAccessory(s.db, id)
}

// GetAccessory reads one accessory, possibly inside a caller's transaction.
func GetAccessory(q db.Queryer, id int64) (Accessory, error) {
	var a Accessory
	err := q.QueryRow(`
		SELECT id, name, stock_level, cost
		FROM accessories
		WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.StockLevel, &a.Cost)
	if errors.Is(err, sql.ErrNoRows) {
		return Accessory{}, ErrNotFound
	}
	if err != nil {
		return Accessory{}, fmt.Errorf("query accessory: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccessories() ([]Accessory, error) {
	rows, err := s.db.Query(`
		SELECT id, name, stock_level, cost
		FROM accessories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query accessories: %w", err)
	}
	defer rows.Close()

	accessories := make([]Accessory, 0)
	for rows.Next() {
		var a Accessory
		if err := rows.Scan(&a.ID, &a.Name, &a.StockLevel, &a.Cost); err != nil {
			return nil, fmt.Errorf("scan accessory: %w", err)
		}
		accessories = append(accessories, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accessories: %w", err)
	}
	return accessories, nil
}

// AdjustAccessoryStock applies a relative stock change in whole units, with
// the same non-negative guard as filaments.
func AdjustAccessoryStock(q db.Queryer, id int64, deltaUnits int64) error {
	res, err := q.Exec(`
		UPDATE accessories
		SET stock_level = stock_level + ?
		WHERE id = ? AND stock_level + ? >= 0
	`, deltaUnits, id, deltaUnits)
	if err != nil {
		return fmt.Errorf("adjust accessory stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust accessory stock: %w", err)
	}
	if affected == 0 {
		if _, err := GetAccessory(q, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}
