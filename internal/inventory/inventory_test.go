package inventory

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func newInventoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE filaments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			stock_level NUMERIC NOT NULL DEFAULT 0 CHECK (stock_level >= 0),
			cost_per_kg NUMERIC NOT NULL DEFAULT 0
		);
		CREATE TABLE accessories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			stock_level INTEGER NOT NULL DEFAULT 0 CHECK (stock_level >= 0),
			cost NUMERIC NOT NULL DEFAULT 0
		);
		CREATE TABLE trash_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			original_collection TEXT NOT NULL,
			original_id INTEGER NOT NULL,
			deleted_at TEXT NOT NULL,
			data TEXT NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed creating schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFilamentCRUD(t *testing.T) {
	store := NewStore(newInventoryTestDB(t))

	id, err := store.CreateFilament(Filament{Name: "PLA Pro", Color: "Negro", StockLevel: 800, CostPerKg: 25000})
	if err != nil {
		t.Fatalf("CreateFilament: %v", err)
	}

	f, err := store.GetFilament(id)
	if err != nil {
		t.Fatalf("GetFilament: %v", err)
	}
	if f.Name != "PLA Pro" || f.StockLevel != 800 || f.CostPerKg != 25000 {
		t.Fatalf("unexpected filament: %+v", f)
	}

	f.StockLevel = 650
	if err := store.UpdateFilament(f); err != nil {
		t.Fatalf("UpdateFilament: %v", err)
	}

	list, err := store.ListFilaments()
	if err != nil {
		t.Fatalf("ListFilaments: %v", err)
	}
	if len(list) != 1 || list[0].StockLevel != 650 {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := store.UpdateFilament(Filament{ID: 999, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing filament, got %v", err)
	}
	if _, err := store.GetFilament(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound getting missing filament, got %v", err)
	}
}

func TestAdjustFilamentStock(t *testing.T) {
	db := newInventoryTestDB(t)
	store := NewStore(db)

	id, err := store.CreateFilament(Filament{Name: "PETG", Color: "Rojo", StockLevel: 500})
	if err != nil {
		t.Fatalf("CreateFilament: %v", err)
	}

	if err := AdjustFilamentStock(db, id, -150); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	f, err := store.GetFilament(id)
	if err != nil {
		t.Fatalf("GetFilament: %v", err)
	}
	if f.StockLevel != 350 {
		t.Fatalf("expected stock 350, got %v", f.StockLevel)
	}

	if err := AdjustFilamentStock(db, id, 150); err != nil {
		t.Fatalf("increment: %v", err)
	}
	f, _ = store.GetFilament(id)
	if f.StockLevel != 500 {
		t.Fatalf("expected stock back to 500, got %v", f.StockLevel)
	}
}

func TestAdjustFilamentStock_RejectsNegativeResult(t *testing.T) {
	db := newInventoryTestDB(t)
	store := NewStore(db)

	id, err := store.CreateFilament(Filament{Name: "TPU", Color: "Gris", StockLevel: 100})
	if err != nil {
		t.Fatalf("CreateFilament: %v", err)
	}

	if err := AdjustFilamentStock(db, id, -100.5); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Stock must be untouched after the rejected adjustment.
	f, err := store.GetFilament(id)
	if err != nil {
		t.Fatalf("GetFilament: %v", err)
	}
	if f.StockLevel != 100 {
		t.Fatalf("expected stock 100, got %v", f.StockLevel)
	}
}

func TestAdjustFilamentStock_MissingFilament(t *testing.T) {
	db := newInventoryTestDB(t)

	if err := AdjustFilamentStock(db, 42, -10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustAccessoryStock(t *testing.T) {
	db := newInventoryTestDB(t)
	store := NewStore(db)

	id, err := store.CreateAccessory(Accessory{Name: "Tornillos M3", StockLevel: 20, Cost: 50})
	if err != nil {
		t.Fatalf("CreateAccessory: %v", err)
	}

	if err := AdjustAccessoryStock(db, id, -5); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	a, err := store.GetAccessory(id)
	if err != nil {
		t.Fatalf("GetAccessory: %v", err)
	}
	if a.StockLevel != 15 {
		t.Fatalf("expected stock 15, got %d", a.StockLevel)
	}

	if err := AdjustAccessoryStock(db, id, -16); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestDeleteFilamentArchivesToTrash(t *testing.T) {
	db := newInventoryTestDB(t)
	store := NewStore(db)

	id, err := store.CreateFilament(Filament{Name: "ABS", Color: "Azul", StockLevel: 300, CostPerKg: 28000})
	if err != nil {
		t.Fatalf("CreateFilament: %v", err)
	}

	if err := store.DeleteFilament(id); err != nil {
		t.Fatalf("DeleteFilament: %v", err)
	}

	if _, err := store.GetFilament(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected filament gone, got %v", err)
	}

	var count int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM trash_items WHERE original_collection = 'filaments' AND original_id = ?
	`, id).Scan(&count); err != nil {
		t.Fatalf("count trash: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 trash item, got %d", count)
	}
}

func TestFindFilamentByNameColor(t *testing.T) {
	store := NewStore(newInventoryTestDB(t))

	if _, err := store.CreateFilament(Filament{Name: "PLA", Color: "Blanco", StockLevel: 100}); err != nil {
		t.Fatalf("CreateFilament: %v", err)
	}

	f, err := store.FindFilamentByNameColor("PLA", "Blanco")
	if err != nil {
		t.Fatalf("FindFilamentByNameColor: %v", err)
	}
	if f.StockLevel != 100 {
		t.Fatalf("unexpected filament: %+v", f)
	}

	if _, err := store.FindFilamentByNameColor("PLA", "Verde"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
