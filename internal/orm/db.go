package orm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/litequery/internal/canon"
	"github.com/roach88/litequery/internal/schema"
	"github.com/roach88/litequery/internal/store"
)

var (
	// ErrNoRows is returned by First and ElementAt on an empty result.
	ErrNoRows = errors.New("orm: no rows in result")

	// ErrSequenceConsumed is yielded when a deferred sequence is iterated
	// a second time.
	ErrSequenceConsumed = errors.New("orm: deferred sequence already consumed")

	// ErrNoConnection is returned by every operation that runs SQL on a DB
	// created without a connection.
	ErrNoConnection = errors.New("orm: no connection")
)

// DB binds the query builder to a command collaborator and a mapping cache.
type DB struct {
	conn     store.Commander
	mappings *schema.Manager
	flags    schema.CreateFlags
	logger   *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithCreateFlags sets the flags used when mapping entity types.
func WithCreateFlags(flags schema.CreateFlags) Option {
	return func(db *DB) { db.flags = flags }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

// WithMappings shares a mapping cache between DBs.
func WithMappings(m *schema.Manager) Option {
	return func(db *DB) { db.mappings = m }
}

// New creates a DB over conn. A DB with a nil conn compiles queries but
// fails every operation that runs them with ErrNoConnection.
func New(conn store.Commander, opts ...Option) *DB {
	db := &DB{conn: conn}
	for _, opt := range opts {
		opt(db)
	}
	if db.mappings == nil {
		db.mappings = schema.NewManager()
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}
	return db
}

// Mapping returns the cached table mapping of desc.
func (db *DB) Mapping(desc schema.TypeDescriptor) *schema.TableMapping {
	return db.mappings.GetMapping(desc, db.flags)
}

// Mappings returns every mapping resolved so far.
func (db *DB) Mappings() []*schema.TableMapping {
	return db.mappings.Mappings()
}

// RunInTransaction runs fn with a DB bound to a transaction. The mapping
// cache is shared. If the collaborator cannot open transactions, fn runs
// directly against it.
func (db *DB) RunInTransaction(ctx context.Context, fn func(*DB) error) error {
	tr, ok := db.conn.(store.Transactor)
	if !ok {
		return fn(db)
	}
	return tr.RunInTransaction(ctx, func(c store.Commander) error {
		tx := *db
		tx.conn = c
		return fn(&tx)
	})
}

// command hands compiled SQL to the collaborator.
func (db *DB) command(text string, args []any) store.Command {
	if db.logger.Enabled(context.Background(), slog.LevelDebug) {
		fp, err := canon.Fingerprint(text, args)
		if err != nil {
			fp = ""
		}
		db.logger.Debug("compiled command", "sql", text, "args", len(args), "fingerprint", fp)
	}
	if db.conn == nil {
		return unbound{text: text, args: args}
	}
	return db.conn.CreateCommand(text, args...)
}

// unbound is the command of a DB without a connection.
type unbound struct {
	text string
	args []any
}

func (c unbound) Text() string { return c.text }
func (c unbound) Args() []any { return c.args }

func (unbound) ExecuteNonQuery(context.Context) (int, error) { return 0, ErrNoConnection }
func (unbound) ExecuteScalar(context.Context, any) error { return ErrNoConnection }
func (unbound) ExecuteQuery(context.Context) (store.Rows, error) {
	return nil, ErrNoConnection
}
