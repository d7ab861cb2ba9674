package orm

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"

	"github.com/roach88/litequery/internal/qerr"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/querysql"
	"github.com/roach88/litequery/internal/store"
)

// ToList runs the query and buffers every row.
func (q TableQuery[T]) ToList(ctx context.Context) ([]T, error) {
	cmd, err := q.Command("")
	if err != nil {
		return nil, err
	}
	rows, err := cmd.ExecuteQuery(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := q.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// All returns the query's rows as a sequence. A query that is not Deferred
// runs and buffers immediately; the sequence can then be ranged over any
// number of times.
//
// A Deferred query runs when ranging starts and streams from a live cursor,
// which is closed when ranging stops. It can be ranged over once; later
// attempts yield ErrSequenceConsumed. Issue no other command on the same
// connection while ranging, it would wait on the open cursor.
func (q TableQuery[T]) All(ctx context.Context) iter.Seq2[T, error] {
	if !q.deferred {
		items, err := q.ToList(ctx)
		return func(yield func(T, error) bool) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}

	var consumed atomic.Bool
	return func(yield func(T, error) bool) {
		var zero T
		if consumed.Swap(true) {
			yield(zero, ErrSequenceConsumed)
			return
		}
		cmd, err := q.Command("")
		if err != nil {
			yield(zero, err)
			return
		}
		rows, err := cmd.ExecuteQuery(ctx)
		if err != nil {
			yield(zero, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			item, err := q.scan(rows)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}

func (q TableQuery[T]) scan(rows store.Rows) (T, error) {
	values := make([]any, q.width)
	ptrs := make([]any, q.width)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		var zero T
		return zero, err
	}
	return q.decode(values)
}

// Count runs a count(*) projection of the query.
func (q TableQuery[T]) Count(ctx context.Context) (int, error) {
	cmd, err := q.Command(countSelection)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := cmd.ExecuteScalar(ctx, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountWhere counts the rows matching pred in addition to the query's filter.
func (q TableQuery[T]) CountWhere(ctx context.Context, pred queryir.Node) (int, error) {
	return q.Where(pred).Count(ctx)
}

// First returns the first row, or ErrNoRows.
func (q TableQuery[T]) First(ctx context.Context) (T, error) {
	items, err := q.Take(1).ToList(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(items) == 0 {
		var zero T
		return zero, ErrNoRows
	}
	return items[0], nil
}

// FirstOrDefault returns the first row, or the zero T when there is none.
func (q TableQuery[T]) FirstOrDefault(ctx context.Context) (T, error) {
	item, err := q.First(ctx)
	if errors.Is(err, ErrNoRows) {
		return item, nil
	}
	return item, err
}

// ElementAt returns the row at index, or ErrNoRows.
func (q TableQuery[T]) ElementAt(ctx context.Context, index int) (T, error) {
	return q.Skip(index).Take(1).First(ctx)
}

// Delete deletes the rows matching pred and the query's filter, returning
// the number of rows deleted. A nil pred deletes every row the query's
// filter selects.
func (q TableQuery[T]) Delete(ctx context.Context, pred queryir.Node) (int, error) {
	text, args, err := q.DeleteSQL(pred)
	if err != nil {
		return 0, err
	}
	return q.db.command(text, args).ExecuteNonQuery(ctx)
}

// DeleteSQL compiles the statement Delete would run.
func (q TableQuery[T]) DeleteSQL(pred queryir.Node) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if q.limit != nil {
		return "", nil, qerr.InvalidComposition("cannot delete if a limit has been specified")
	}
	if q.offset != nil {
		return "", nil, qerr.InvalidComposition("cannot delete if an offset has been specified")
	}
	if q.join != nil {
		return "", nil, qerr.InvalidComposition("cannot delete from a join")
	}
	if pred != nil {
		if err := checkExpr(pred); err != nil {
			return "", nil, err
		}
	}

	c := querysql.NewCompiler(q.table)
	stmt := querysql.Delete{From: q.table.TableName}
	if where := queryir.All(pred, q.where); where != nil {
		r, err := c.Compile(where)
		if err != nil {
			return "", nil, err
		}
		stmt.Where = r.CommandText
	}
	return stmt.SQL(), c.Args, nil
}
