package orm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/litequery/internal/qerr"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/querysql"
	"github.com/roach88/litequery/internal/schema"
	"github.com/roach88/litequery/internal/store"
)

// Join aliases. The outer table keeps its identity under o.
const (
	aliasOuter = "o"
	aliasInner = "i"
)

// JoinKind selects inner or left outer join semantics.
type JoinKind = querysql.JoinKind

const (
	InnerJoin = querysql.InnerJoin
	OuterJoin = querysql.OuterJoin
)

type ordering struct {
	key       queryir.Node
	ascending bool
}

type joinSpec struct {
	inner    *schema.TableMapping
	outerKey queryir.Node
	innerKey queryir.Node
	kind     JoinKind
}

// TableQuery is an immutable query over the rows of one table, or of a
// join when built by Join.
type TableQuery[T any] struct {
	db    *DB
	table *schema.TableMapping
	join  *joinSpec

	// decode builds a T from one row of width values.
	decode func(values []any) (T, error)
	width  int

	where    queryir.Node
	orderBys []ordering
	limit    *int
	offset   *int
	deferred bool

	err error
}

// Table starts a query over the table of entity type T.
func Table[T schema.Entity](db *DB) TableQuery[T] {
	return TableFor[T](db, db.Mapping(schema.DescriptorOf[T]()))
}

// TableFor starts a query over table, materializing rows as T. The mapping
// must describe T.
func TableFor[T any](db *DB, table *schema.TableMapping) TableQuery[T] {
	cols := table.Columns()
	return TableQuery[T]{
		db:     db,
		table:  table,
		decode: entityDecoder[T](cols),
		width:  len(cols),
	}
}

// Dynamic starts a query over a Row-backed table described at run time.
func Dynamic(db *DB, desc schema.TypeDescriptor) TableQuery[schema.Row] {
	return TableFor[schema.Row](db, db.Mapping(desc))
}

// Mapping returns the queried table. For a join it is the outer table.
func (q TableQuery[T]) Mapping() *schema.TableMapping {
	return q.table
}

// Err returns the first composition error recorded by a fluent call.
func (q TableQuery[T]) Err() error {
	return q.err
}

// Where filters the query. Repeated calls are conjoined.
func (q TableQuery[T]) Where(pred queryir.Node) TableQuery[T] {
	if q.err != nil {
		return q
	}
	if q.limit != nil || q.offset != nil {
		q.err = qerr.InvalidComposition("cannot call where after a skip or a take")
		return q
	}
	if err := checkExpr(pred); err != nil {
		q.err = err
		return q
	}
	q.where = queryir.All(q.where, pred)
	return q
}

// OrderBy sorts ascending by key. Keys apply in call order.
func (q TableQuery[T]) OrderBy(key queryir.Node) TableQuery[T] {
	return q.addOrderBy(key, true)
}

// OrderByDescending sorts descending by key. Keys apply in call order.
func (q TableQuery[T]) OrderByDescending(key queryir.Node) TableQuery[T] {
	return q.addOrderBy(key, false)
}

// ThenBy adds an ascending key after the existing ones.
func (q TableQuery[T]) ThenBy(key queryir.Node) TableQuery[T] {
	return q.addOrderBy(key, true)
}

// ThenByDescending adds a descending key after the existing ones.
func (q TableQuery[T]) ThenByDescending(key queryir.Node) TableQuery[T] {
	return q.addOrderBy(key, false)
}

// addOrderBy appends an ordering. The key must be a column of the queried
// table, optionally wrapped in conversions.
func (q TableQuery[T]) addOrderBy(key queryir.Node, ascending bool) TableQuery[T] {
	if q.err != nil {
		return q
	}
	if _, err := querysql.NewCompiler(q.table).CompileColumn(key); err != nil {
		q.err = err
		return q
	}
	q.orderBys = append(slices.Clip(q.orderBys), ordering{key: key, ascending: ascending})
	return q
}

// Take limits the result to n rows. With an existing limit the smaller wins.
func (q TableQuery[T]) Take(n int) TableQuery[T] {
	if q.limit != nil {
		n = min(*q.limit, n)
	}
	q.limit = &n
	return q
}

// Skip skips n rows. Repeated calls add up.
func (q TableQuery[T]) Skip(n int) TableQuery[T] {
	if q.offset != nil {
		n += *q.offset
	}
	q.offset = &n
	return q
}

// Deferred makes All yield a lazy single-pass sequence.
func (q TableQuery[T]) Deferred() TableQuery[T] {
	q.deferred = true
	return q
}

// SQL compiles the query's select statement.
func (q TableQuery[T]) SQL() (string, []any, error) {
	return q.compile("")
}

const countSelection = "count(*)"

// CountSQL compiles the statement Count would run.
func (q TableQuery[T]) CountSQL() (string, []any, error) {
	return q.compile(countSelection)
}

// Command compiles the query with the given selection list, or the full
// column list when selection is empty, without executing it.
func (q TableQuery[T]) Command(selection string) (store.Command, error) {
	text, args, err := q.compile(selection)
	if err != nil {
		return nil, err
	}
	return q.db.command(text, args), nil
}

// compile assembles the select statement. Clause order is fixed no matter
// the order of the fluent calls.
func (q TableQuery[T]) compile(selection string) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	c := querysql.NewCompiler(q.table)
	stmt := querysql.Select{
		From:   q.table.TableName,
		Limit:  q.limit,
		Offset: q.offset,
	}

	if q.join != nil {
		clause, err := q.join.clause(q.table)
		if err != nil {
			return "", nil, err
		}
		stmt.Alias = aliasOuter
		stmt.Join = clause
		stmt.Columns = append(querysql.Columns(q.table, aliasOuter), querysql.Columns(q.join.inner, aliasInner)...)
		c.Alias = aliasOuter
	} else {
		stmt.Columns = querysql.Columns(q.table, "")
	}
	if selection != "" {
		stmt.Columns = []string{selection}
	}

	if q.where != nil {
		r, err := c.Compile(q.where)
		if err != nil {
			return "", nil, err
		}
		stmt.Where = r.CommandText
	}
	for _, o := range q.orderBys {
		r, err := c.CompileColumn(o.key)
		if err != nil {
			return "", nil, err
		}
		stmt.OrderBy = append(stmt.OrderBy, querysql.Ordering{Column: r.CommandText, Ascending: o.ascending})
	}

	return stmt.SQL(), c.Args, nil
}

// checkExpr rejects structurally broken trees before they are stored.
func checkExpr(n queryir.Node) error {
	res := queryir.Validate(n)
	if res.Valid {
		return nil
	}
	text := "<nil>"
	if n != nil {
		text = n.String()
	}
	return qerr.Unsupported(text, "%s", strings.Join(res.Problems, "; "))
}

// entityDecoder sets each column of a new T from the row values, in
// column order.
func entityDecoder[T any](cols []schema.ColumnDef) func([]any) (T, error) {
	return func(values []any) (T, error) {
		var item T
		err := populate(&item, cols, values)
		return item, err
	}
}

func populate(obj any, cols []schema.ColumnDef, values []any) error {
	if len(values) != len(cols) {
		return fmt.Errorf("row has %d values for %d columns", len(values), len(cols))
	}
	for i, col := range cols {
		if err := col.Set(obj, values[i]); err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
	}
	return nil
}
