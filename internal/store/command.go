package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/litequery/internal/canon"
)

// Command is one SQL statement with its bound values.
type Command interface {
	// Text returns the SQL text.
	Text() string

	// Args returns the bound values in placeholder order.
	Args() []any

	// ExecuteNonQuery runs the statement and returns the affected row count.
	ExecuteNonQuery(ctx context.Context) (int, error)

	// ExecuteScalar runs a query and scans the first column of the first
	// row into dest. Returns sql.ErrNoRows on an empty result.
	ExecuteScalar(ctx context.Context, dest any) error

	// ExecuteQuery runs a query and returns a live cursor.
	// Callers are responsible for closing the returned rows.
	ExecuteQuery(ctx context.Context) (Rows, error)
}

// Rows is a forward-only cursor. *sql.Rows implements it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type command struct {
	text  string
	args  []any
	store *Store
	exec  execer
	inTx  bool
}

func (c *command) Text() string { return c.text }

func (c *command) Args() []any { return c.args }

func (c *command) ExecuteNonQuery(ctx context.Context) (int, error) {
	stmt, err := c.statement(ctx)
	if err != nil {
		return 0, c.fail("exec", err)
	}
	var res sql.Result
	if stmt != nil {
		res, err = stmt.ExecContext(ctx, c.args...)
	} else {
		res, err = c.exec.ExecContext(ctx, c.text, c.args...)
	}
	if err != nil {
		return 0, c.fail("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, c.fail("exec", err)
	}
	c.log("exec", "rows", n)
	return int(n), nil
}

func (c *command) ExecuteScalar(ctx context.Context, dest any) error {
	stmt, err := c.statement(ctx)
	if err != nil {
		return c.fail("scalar", err)
	}
	var row *sql.Row
	if stmt != nil {
		row = stmt.QueryRowContext(ctx, c.args...)
	} else {
		row = c.exec.QueryRowContext(ctx, c.text, c.args...)
	}
	if err := row.Scan(dest); err != nil {
		return c.fail("scalar", err)
	}
	c.log("scalar")
	return nil
}

func (c *command) ExecuteQuery(ctx context.Context) (Rows, error) {
	stmt, err := c.statement(ctx)
	if err != nil {
		return nil, c.fail("query", err)
	}
	var rows *sql.Rows
	if stmt != nil {
		rows, err = stmt.QueryContext(ctx, c.args...)
	} else {
		rows, err = c.exec.QueryContext(ctx, c.text, c.args...)
	}
	if err != nil {
		return nil, c.fail("query", err)
	}
	c.log("query")
	return rows, nil
}

// statement returns the cached prepared statement to run, or nil to run the
// text directly. Transaction commands still clear the cache on writes.
func (c *command) statement(ctx context.Context) (*sql.Stmt, error) {
	if c.inTx {
		if isWrite(c.text) {
			c.store.clearCache()
		}
		return nil, nil
	}
	return c.store.prepared(ctx, c.text)
}

func (c *command) log(op string, attrs ...any) {
	l := c.store.logger
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	fp, err := canon.Fingerprint(c.text, c.args)
	if err != nil {
		fp = ""
	}
	l.Debug("command executed", append([]any{"op", op, "sql", c.text, "args", len(c.args), "fingerprint", fp}, attrs...)...)
}

// fail logs err and returns it wrapped. Driver errors stay reachable with
// errors.Is and errors.As.
func (c *command) fail(op string, err error) error {
	if err == sql.ErrNoRows {
		return err
	}
	c.store.logger.Error("command failed", "op", op, "sql", c.text, "error", err)
	return fmt.Errorf("%s %q: %w", op, c.text, err)
}
