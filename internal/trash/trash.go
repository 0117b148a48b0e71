package trash

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nordicastudio/gestion3d/internal/db"
)

var (
	// ErrNotFound indicates the trash item does not exist.
	ErrNotFound = errors.New("trash: item not found")
	// ErrUnknownCollection indicates no restorer is registered for the
	// item's origin collection.
	ErrUnknownCollection = errors.New("trash: unknown origin collection")
)

// Item is an archived record: the full snapshot of a deleted row plus enough
// metadata to put it back where it came from.
type Item struct {
	ID                 int64           `json:"id"`
	OriginalCollection string          `json:"originalCollection"`
	OriginalID         int64           `json:"originalId"`
	DeletedAt          string          `json:"deletedAt"`
	Data               json.RawMessage `json:"data"`
}

// RestoreFunc reinstates a snapshot as a live record under its original id.
// It runs inside the transaction that also removes the trash row.
type RestoreFunc func(tx *sql.Tx, originalID int64, data json.RawMessage) error

// PurgeHook runs before a trash row is discarded for good, inside the same
// transaction. Quotes use it under the legacy reconciliation rule to credit
// stock back.
type PurgeHook func(tx *sql.Tx, item Item) error

// Service archives deletions and dispatches restores by origin collection.
type Service struct {
	db         *sql.DB
	restorers  map[string]RestoreFunc
	purgeHooks map[string]PurgeHook
}

func NewService(database *sql.DB) *Service {
	return &Service{
		db:         database,
		restorers:  make(map[string]RestoreFunc),
		purgeHooks: make(map[string]PurgeHook),
	}
}

// Register installs the restore function for an origin collection.
func (s *Service) Register(collection string, fn RestoreFunc) {
	s.restorers[collection] = fn
}

// RegisterPurgeHook installs a pre-purge hook for an origin collection.
func (s *Service) RegisterPurgeHook(collection string, fn PurgeHook) {
	s.purgeHooks[collection] = fn
}

// ArchiveTx snapshots a record into the trash. Callers run it inside the
// transaction that deletes the live record, so archive and delete land
// together or not at all.
func ArchiveTx(q db.Queryer, collection string, originalID int64, snapshot any) (int64, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("marshal %s snapshot: %w", collection, err)
	}

	res, err := q.Exec(`
		INSERT INTO trash_items (original_collection, original_id, deleted_at, data)
		VALUES (?, ?, ?, ?)
	`, collection, originalID, time.Now().UTC().Format(time.RFC3339), string(data))
	if err != nil {
		return 0, fmt.Errorf("insert trash item: %w", err)
	}
	return res.LastInsertId()
}

// List returns every trash item, most recently deleted first.
func (s *Service) List() ([]Item, error) {
	rows, err := s.db.Query(`
		SELECT id, original_collection, original_id, deleted_at, data
		FROM trash_items
		ORDER BY deleted_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query trash items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		var data string
		if err := rows.Scan(&it.ID, &it.OriginalCollection, &it.OriginalID, &it.DeletedAt, &data); err != nil {
			return nil, fmt.Errorf("scan trash item: %w", err)
		}
		it.Data = json.RawMessage(data)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trash items: %w", err)
	}
	return items, nil
}

// Get reads one trash item.
func (s *Service) Get(id int64) (Item, error) {
	return getItem(s.db, id)
}

func getItem(q db.Queryer, id int64) (Item, error) {
	var it Item
	var data string
	err := q.QueryRow(`
		SELECT id, original_collection, original_id, deleted_at, data
		FROM trash_items
		WHERE id = ?
	`, id).Scan(&it.ID, &it.OriginalCollection, &it.OriginalID, &it.DeletedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("query trash item: %w", err)
	}
	it.Data = json.RawMessage(data)
	return it, nil
}

// Restore reinstates the archived snapshot under its original id and removes
// the trash row. The record reappears exactly as archived; stock is not
// touched (a pending quote's consumption is still correctly deducted).
func (s *Service) Restore(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin restore transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := getItem(tx, id)
	if err != nil {
		return err
	}

	restore, ok := s.restorers[item.OriginalCollection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, item.OriginalCollection)
	}
	if err := restore(tx, item.OriginalID, item.Data); err != nil {
		return fmt.Errorf("restore %s %d: %w", item.OriginalCollection, item.OriginalID, err)
	}

	if _, err := tx.Exec(`DELETE FROM trash_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete trash item: %w", err)
	}

	return tx.Commit()
}

// Purge discards a trash item permanently, running the collection's purge
// hook first when one is registered.
func (s *Service) Purge(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin purge transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := getItem(tx, id)
	if err != nil {
		return err
	}

	if hook, ok := s.purgeHooks[item.OriginalCollection]; ok {
		if err := hook(tx, item); err != nil {
			return fmt.Errorf("purge hook for %s %d: %w", item.OriginalCollection, item.OriginalID, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM trash_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete trash item: %w", err)
	}

	return tx.Commit()
}
