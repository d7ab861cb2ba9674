package orm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/litequery/internal/schema"
	"github.com/roach88/litequery/internal/store"
	"github.com/roach88/litequery/internal/testutil"
)

// openTestDB opens a file-backed store in a temp dir and wraps it in a DB.
func openTestDB(t *testing.T, opts ...store.Option) *DB {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

// seed creates the table of T and inserts rows.
func seed[T schema.Entity](t *testing.T, db *DB, rows []T) {
	t.Helper()
	ctx := context.Background()
	q := Table[T](db)
	require.NoError(t, q.CreateTable(ctx))
	ptrs := make([]*T, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	n, err := q.InsertAll(ctx, ptrs)
	require.NoError(t, err)
	require.Equal(t, len(rows), n)
}

// seedJoinFixture loads the seven employees and three departments.
func seedJoinFixture(t *testing.T, db *DB) {
	t.Helper()
	seed(t, db, testutil.Employees())
	seed(t, db, testutil.Departments())
}

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, len(items))
	for i, item := range items {
		out[i] = id(item)
	}
	return out
}
