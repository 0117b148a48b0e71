package main

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func newAuthTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed creating users table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestValidateCredentials(t *testing.T) {
	db := newAuthTestDB(t)
	auth := newAuthService(db, "secret")

	if _, err := db.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		"admin@example.com", hashPassword("hunter2")); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	valid, err := auth.validateCredentials("admin@example.com", "hunter2")
	if err != nil {
		t.Fatalf("validateCredentials: %v", err)
	}
	if !valid {
		t.Fatal("expected valid credentials")
	}

	valid, err = auth.validateCredentials("admin@example.com", "wrong")
	if err != nil {
		t.Fatalf("validateCredentials: %v", err)
	}
	if valid {
		t.Fatal("expected invalid credentials for wrong password")
	}

	valid, err = auth.validateCredentials("nobody@example.com", "hunter2")
	if err != nil {
		t.Fatalf("validateCredentials: %v", err)
	}
	if valid {
		t.Fatal("expected invalid credentials for unknown user")
	}
}

func TestValidateCredentials_PlaintextCompat(t *testing.T) {
	db := newAuthTestDB(t)
	auth := newAuthService(db, "secret")

	if _, err := db.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		"legacy@example.com", "plaintextpass"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	valid, err := auth.validateCredentials("legacy@example.com", "plaintextpass")
	if err != nil {
		t.Fatalf("validateCredentials: %v", err)
	}
	if !valid {
		t.Fatal("expected plaintext-stored password to validate")
	}
}

func TestSessionValueRoundTrip(t *testing.T) {
	auth := newAuthService(nil, "secret")

	value := auth.createSessionValue("admin@example.com")
	email, ok := auth.verifySessionValue(value)
	if !ok {
		t.Fatal("expected session value to verify")
	}
	if email != "admin@example.com" {
		t.Fatalf("expected email round trip, got %q", email)
	}
}

func TestVerifySessionValue_Tampered(t *testing.T) {
	auth := newAuthService(nil, "secret")
	other := newAuthService(nil, "other-secret")

	value := auth.createSessionValue("admin@example.com")

	if _, ok := auth.verifySessionValue(value + "x"); ok {
		t.Fatal("expected tampered signature to fail")
	}
	if _, ok := other.verifySessionValue(value); ok {
		t.Fatal("expected value signed with a different secret to fail")
	}
	if _, ok := auth.verifySessionValue("no-dot-separator"); ok {
		t.Fatal("expected malformed value to fail")
	}
}
