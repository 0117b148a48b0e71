package clients

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nordicastudio/gestion3d/internal/db"
	"github.com/nordicastudio/gestion3d/internal/trash"
)

// Collection tags client snapshots in the trash.
const Collection = "clients"

// ErrNotFound indicates the client does not exist.
var ErrNotFound = errors.New("clients: client not found")

// Client is a customer record.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{db: database} }

func (s *Store) Create(c Client) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO clients (name, email, phone, address)
		VALUES (?, ?, ?, ?)
	`, c.Name, c.Email, c.Phone, c.Address)
	if err != nil {
		return 0, fmt.Errorf("insert client: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) Update(c Client) error {
	res, err := s.db.Exec(`
		UPDATE clients
		SET name = ?, email = ?, phone = ?, address = ?
		WHERE id = ?
	`, c.Name, c.Email, c.Phone, c.Address, c.ID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Get(id int64) (Client, error) {
	return get(s.db, id)
}

func get(q db.Queryer, id int64) (Client, error) {
	var c Client
	err := q.QueryRow(`
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, '')
		FROM clients
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("query client: %w", err)
	}
	return c, nil
}

func (s *Store) List() ([]Client, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, '')
		FROM clients
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	out := make([]Client, 0)
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

// Delete moves a client into the trash.
func (s *Store) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin client delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := get(tx, id)
	if err != nil {
		return err
	}
	if _, err := trash.ArchiveTx(tx, Collection, c.ID, c); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM clients WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}

	return tx.Commit()
}

// Restore reinstates an archived client under its original id.
func Restore(tx *sql.Tx, originalID int64, data json.RawMessage) error {
	var c Client
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("unmarshal client snapshot: %w", err)
	}
	_, err := tx.Exec(`
		INSERT INTO clients (id, name, email, phone, address)
		VALUES (?, ?, ?, ?, ?)
	`, originalID, c.Name, c.Email, c.Phone, c.Address)
	if err != nil {
		return fmt.Errorf("insert restored client: %w", err)
	}
	return nil
}
