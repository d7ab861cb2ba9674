package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by WithDriver.
const (
	DriverCGo  = "sqlite3"
	DriverPure = "sqlite"
)

// Commander creates commands. Store and Tx implement it.
type Commander interface {
	CreateCommand(text string, args ...any) Command
}

// Transactor runs a function inside a transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(Commander) error) error
}

// Store is an open SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	driver string
	logger *slog.Logger

	cacheEnabled bool
	mu           sync.Mutex
	stmts        map[string]*sql.Stmt
}

type options struct {
	driver       string
	busyTimeout  time.Duration
	cacheEnabled bool
	logger       *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithDriver selects the database/sql driver: DriverCGo or DriverPure.
func WithDriver(name string) Option {
	return func(o *options) { o.driver = name }
}

// WithBusyTimeout sets how long a statement waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithStatementCache enables or disables prepared statement reuse.
func WithStatementCache(enabled bool) Option {
	return func(o *options) { o.cacheEnabled = enabled }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - busy timeout for lock contention (5 seconds by default)
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		driver:       DriverCGo,
		busyTimeout:  5 * time.Second,
		cacheEnabled: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.driver != DriverCGo && o.driver != DriverPure {
		return nil, fmt.Errorf("unknown sqlite driver %q", o.driver)
	}

	db, err := sql.Open(o.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o.busyTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	o.logger.Info("database opened", "path", path, "driver", o.driver)

	return &Store{
		db:           db,
		path:         path,
		driver:       o.driver,
		logger:       o.logger,
		cacheEnabled: o.cacheEnabled,
		stmts:        make(map[string]*sql.Stmt),
	}, nil
}

// Close releases cached statements and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.clearCache()
	s.logger.Info("database closed", "path", s.path)
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer commands when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// CreateCommand creates a command bound to the store.
func (s *Store) CreateCommand(text string, args ...any) Command {
	return &command{text: text, args: args, store: s, exec: s.db}
}

// RunInTransaction runs fn in a transaction, committing if fn returns nil
// and rolling back otherwise.
func (s *Store) RunInTransaction(ctx context.Context, fn func(Commander) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&Tx{tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tx is an open transaction. Its commands bypass the statement cache.
type Tx struct {
	tx    *sql.Tx
	store *Store
}

// CreateCommand creates a command bound to the transaction.
func (t *Tx) CreateCommand(text string, args ...any) Command {
	return &command{text: text, args: args, store: t.store, exec: t.tx, inTx: true}
}

// prepared returns a cached statement for a read command, preparing it on
// a miss. A write command clears the cache and returns nil.
func (s *Store) prepared(ctx context.Context, text string) (*sql.Stmt, error) {
	if isWrite(text) {
		s.clearCache()
		return nil, nil
	}
	if !s.cacheEnabled {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if stmt, ok := s.stmts[text]; ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, text)
	if err != nil {
		return nil, err
	}
	s.stmts[text] = stmt
	return stmt, nil
}

func (s *Store) clearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for text, stmt := range s.stmts {
		stmt.Close()
		delete(s.stmts, text)
	}
}

// cachedStatements reports the cache size. Used for testing.
func (s *Store) cachedStatements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stmts)
}

var writeVerbs = []string{"insert", "update", "delete", "replace", "create", "alter", "drop"}

// isWrite reports whether a statement modifies data or schema.
func isWrite(text string) bool {
	verb, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	verb = strings.ToLower(verb)
	for _, w := range writeVerbs {
		if verb == w {
			return true
		}
	}
	return false
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, busyTimeout time.Duration) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
