package database

import (
	"path/filepath"
	"testing"
)

func TestNewSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "panic.db")

	db, err := New("sqlite", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	var one int
	if err := db.Get(&one, "SELECT 1"); err != nil || one != 1 {
		t.Fatalf("query failed: %v", err)
	}
}

func TestNewUnsupportedDriver(t *testing.T) {
	if _, err := New("mysql", "whatever"); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}
