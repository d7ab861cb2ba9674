package orm

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/litequery/internal/qerr"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/schema"
)

// Persistence operations act on the query's table by primary key. They
// ignore the query's filter, ordering and pagination, and are rejected on
// a join.

// CreateTable creates the table and its indices if they do not exist.
func (q TableQuery[T]) CreateTable(ctx context.Context) error {
	if err := q.entityOnly("create table"); err != nil {
		return err
	}
	ddl := q.table.CreateTableSQL()
	if ddl == "" {
		return fmt.Errorf("table %q has no mappable columns", q.table.TableName)
	}
	if _, err := q.db.command(ddl, nil).ExecuteNonQuery(ctx); err != nil {
		return err
	}
	for _, stmt := range q.table.CreateIndexSQL() {
		if _, err := q.db.command(stmt, nil).ExecuteNonQuery(ctx); err != nil {
			return err
		}
	}
	q.db.logger.Info("table created", "table", q.table.TableName, "columns", len(q.table.Columns()))
	return nil
}

// DropTable drops the table if it exists.
func (q TableQuery[T]) DropTable(ctx context.Context) error {
	if err := q.entityOnly("drop table"); err != nil {
		return err
	}
	_, err := q.db.command(q.table.DropTableSQL(), nil).ExecuteNonQuery(ctx)
	return err
}

// Insert inserts obj and returns the affected row count. When the table
// has an autoincrement key, obj's key is set to the new rowid.
func (q TableQuery[T]) Insert(ctx context.Context, obj *T) (int, error) {
	if err := q.entityOnly("insert"); err != nil {
		return 0, err
	}

	table := schema.Quote(q.table.TableName)
	cols := q.table.InsertColumns()
	text := "insert into " + table + " default values"
	var args []any
	if len(cols) > 0 {
		names := make([]string, len(cols))
		values := make([]any, len(cols))
		for i, col := range cols {
			v, err := col.Get(obj)
			if err != nil {
				return 0, fmt.Errorf("insert %s: %w", q.table.TableName, err)
			}
			names[i] = schema.Quote(col.Name)
			values[i] = v
		}
		var err error
		text, args, err = sq.Insert(table).Columns(names...).Values(values...).ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
	}

	n, err := q.db.command(text, args).ExecuteNonQuery(ctx)
	if err != nil {
		return 0, err
	}

	if auto, ok := q.table.AutoIncColumn(); ok {
		var id int64
		if err := q.db.command("select last_insert_rowid()", nil).ExecuteScalar(ctx, &id); err != nil {
			return n, err
		}
		if err := auto.Set(obj, id); err != nil {
			return n, fmt.Errorf("insert %s: %w", q.table.TableName, err)
		}
	}
	return n, nil
}

// InsertAll inserts objs in one transaction and returns the total affected
// row count. Nothing is inserted if any insert fails.
func (q TableQuery[T]) InsertAll(ctx context.Context, objs []*T) (int, error) {
	total := 0
	err := q.db.RunInTransaction(ctx, func(tx *DB) error {
		tq := q
		tq.db = tx
		for _, obj := range objs {
			n, err := tq.Insert(ctx, obj)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Update writes every non-key column of obj to the row with obj's primary
// key, returning the affected row count.
func (q TableQuery[T]) Update(ctx context.Context, obj *T) (int, error) {
	if err := q.entityOnly("update"); err != nil {
		return 0, err
	}
	pks := q.table.PKs()
	if len(pks) == 0 {
		return 0, fmt.Errorf("cannot update %q: it has no primary key", q.table.TableName)
	}

	b := sq.Update(schema.Quote(q.table.TableName))
	set := 0
	for _, col := range q.table.Columns() {
		if col.PrimaryKey {
			continue
		}
		v, err := col.Get(obj)
		if err != nil {
			return 0, fmt.Errorf("update %s: %w", q.table.TableName, err)
		}
		b = b.Set(schema.Quote(col.Name), v)
		set++
	}
	if set == 0 {
		return 0, nil
	}
	for _, pk := range pks {
		v, err := pk.Get(obj)
		if err != nil {
			return 0, fmt.Errorf("update %s: %w", q.table.TableName, err)
		}
		b = b.Where(schema.Quote(pk.Name)+" = ?", v)
	}

	text, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	return q.db.command(text, args).ExecuteNonQuery(ctx)
}

// DeleteEntity deletes the row with obj's primary key, returning the
// affected row count.
func (q TableQuery[T]) DeleteEntity(ctx context.Context, obj *T) (int, error) {
	if err := q.entityOnly("delete"); err != nil {
		return 0, err
	}
	pks := q.table.PKs()
	if len(pks) == 0 {
		return 0, fmt.Errorf("cannot delete from %q: it has no primary key", q.table.TableName)
	}

	b := sq.Delete(schema.Quote(q.table.TableName))
	for _, pk := range pks {
		v, err := pk.Get(obj)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", q.table.TableName, err)
		}
		b = b.Where(schema.Quote(pk.Name)+" = ?", v)
	}

	text, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	return q.db.command(text, args).ExecuteNonQuery(ctx)
}

// Get returns the row whose single-column primary key equals key, or
// ErrNoRows.
func (q TableQuery[T]) Get(ctx context.Context, key any) (T, error) {
	var zero T
	if err := q.entityOnly("get"); err != nil {
		return zero, err
	}
	pks := q.table.PKs()
	if len(pks) != 1 {
		return zero, fmt.Errorf("cannot get from %q: it has %d primary key columns, want 1", q.table.TableName, len(pks))
	}

	base := TableQuery[T]{db: q.db, table: q.table, decode: q.decode, width: q.width}
	return base.Where(queryir.Eq(queryir.Col(pks[0].PropertyName), queryir.Const(key))).First(ctx)
}

func (q TableQuery[T]) entityOnly(op string) error {
	if q.join != nil {
		return qerr.InvalidComposition("cannot %s through a join", op)
	}
	return nil
}
