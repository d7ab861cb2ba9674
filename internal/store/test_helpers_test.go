package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustExec runs a non-query command and fails the test on error.
func mustExec(t *testing.T, c Commander, text string, args ...any) int {
	t.Helper()
	n, err := c.CreateCommand(text, args...).ExecuteNonQuery(context.Background())
	if err != nil {
		t.Fatalf("exec %q failed: %v", text, err)
	}
	return n
}

// createItemTable creates a small table used across tests.
func createItemTable(t *testing.T, s *Store) {
	t.Helper()
	mustExec(t, s, `create table if not exists "Item"("Id" integer primary key autoincrement, "Name" varchar, "Qty" integer)`)
}

func countItems(t *testing.T, c Commander) int64 {
	t.Helper()
	var n int64
	if err := c.CreateCommand(`select count(*) from "Item"`).ExecuteScalar(context.Background(), &n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
