package clients

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/nordicastudio/gestion3d/internal/trash"
)

func newClientsTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			address TEXT
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

func TestClientCRUD(t *testing.T) {
	db := newClientsTestDB(t)
	store := NewStore(db)

	id, err := store.Create(Client{Name: "Lucia Fernandez", Email: "lucia@example.com", Phone: "11-5555", Address: "Av. Siempre Viva 742"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Name != "Lucia Fernandez" || c.Email != "lucia@example.com" {
		t.Fatalf("unexpected client %+v", c)
	}

	c.Phone = "11-6666"
	if err := store.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	c, err = store.Get(id)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if c.Phone != "11-6666" {
		t.Fatalf("update not persisted: %+v", c)
	}

	if err := store.Update(Client{ID: 999, Name: "Nadie"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_OrderedByName(t *testing.T) {
	db := newClientsTestDB(t)
	store := NewStore(db)

	for _, name := range []string{"Zoe", "Ana", "Marcos"} {
		if _, err := store.Create(Client{Name: name}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Name != "Ana" || list[2].Name != "Zoe" {
		t.Fatalf("unexpected ordering: %+v", list)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	db := newClientsTestDB(t)
	store := NewStore(db)
	ts := trash.NewService(db)
	ts.Register(Collection, Restore)

	id, err := store.Create(Client{Name: "Pedro", Email: "pedro@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected client gone, got %v", err)
	}

	items, err := ts.List()
	if err != nil {
		t.Fatalf("trash List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 trash item, got %d", len(items))
	}

	if err := ts.Restore(items[0].ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	c, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get after restore: %v", err)
	}
	if c.Name != "Pedro" || c.Email != "pedro@example.com" {
		t.Fatalf("restored client differs: %+v", c)
	}
}
