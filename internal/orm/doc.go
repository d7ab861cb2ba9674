// Package orm is the typed query builder over a SQLite command collaborator.
//
// A TableQuery is an immutable value. Every fluent call returns a new query
// and leaves its receiver untouched, so one query may be shared and used as
// the base of many derived queries, concurrently.
//
//	adults := orm.Table[Employee](db).Where(queryir.Ge(queryir.Col("Age"), queryir.Const(18)))
//	byName := adults.OrderBy(queryir.Col("Name"))
//	n, err := adults.Count(ctx)
//	page, err := byName.Skip(20).Take(10).ToList(ctx)
//
// Nothing is compiled until a terminal operation runs. Each terminal call
// compiles from scratch, so repeated calls produce identical commands.
//
// # Composition Rules
//
//   - Where after Skip or Take is rejected.
//   - Skip is additive; Take keeps the smaller limit.
//   - Delete is rejected on a paginated query.
//   - A query joins at most one table. The outer query may be filtered and
//     ordered but not paginated.
//
// Violations are recorded in the query when the call is made and returned
// by every terminal operation before any SQL is produced. Err reports them
// early.
//
// # Materialization
//
// A query returns a buffered slice by default. A Deferred query instead
// yields a lazy single-pass sequence over a live cursor; the cursor is
// released when iteration stops, early or not.
package orm
