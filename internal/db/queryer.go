package db

import "database/sql"

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store helpers take a Queryer so the same statement can run standalone or
// inside a caller's transaction.
type Queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
