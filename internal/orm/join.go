package orm

import (
	"fmt"

	"github.com/roach88/litequery/internal/qerr"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/querysql"
	"github.com/roach88/litequery/internal/schema"
)

// JoinResult pairs the outer and inner rows of a join.
type JoinResult[O, I any] struct {
	Outer O
	Inner I
}

// Join joins the table of entity type I to outer on outerKey = innerKey.
// Both keys must be plain column references of their own tables.
func Join[O any, I schema.Entity](outer TableQuery[O], outerKey, innerKey queryir.Node, kind JoinKind) TableQuery[JoinResult[O, I]] {
	return JoinMapping[O, I](outer, outer.db.Mapping(schema.DescriptorOf[I]()), outerKey, innerKey, kind)
}

// JoinMapping joins inner to outer on outerKey = innerKey, materializing
// inner rows as I.
//
// The outer query's filter, ordering and deferred flag carry into the
// join. Further Where and OrderBy calls address outer columns.
func JoinMapping[O, I any](outer TableQuery[O], inner *schema.TableMapping, outerKey, innerKey queryir.Node, kind JoinKind) TableQuery[JoinResult[O, I]] {
	outerCols := outer.table.Columns()
	innerCols := inner.Columns()
	q := TableQuery[JoinResult[O, I]]{
		db:    outer.db,
		table: outer.table,
		join: &joinSpec{
			inner:    inner,
			outerKey: outerKey,
			innerKey: innerKey,
			kind:     kind,
		},
		decode:   joinDecoder[O, I](outerCols, innerCols),
		width:    len(outerCols) + len(innerCols),
		where:    outer.where,
		orderBys: outer.orderBys,
		deferred: outer.deferred,
		err:      outer.err,
	}
	if q.err != nil {
		return q
	}

	switch {
	case outer.join != nil:
		q.err = qerr.InvalidComposition("a query joins at most one table")
	case outer.limit != nil || outer.offset != nil:
		q.err = qerr.InvalidComposition("cannot join after a skip or a take")
	default:
		if _, err := q.join.clause(outer.table); err != nil {
			q.err = err
		}
	}
	return q
}

// clause compiles both key selectors under their aliases.
func (j *joinSpec) clause(outer *schema.TableMapping) (*querysql.JoinClause, error) {
	oc := querysql.NewCompiler(outer)
	oc.Alias = aliasOuter
	left, err := oc.CompileColumn(j.outerKey)
	if err != nil {
		return nil, err
	}

	ic := querysql.NewCompiler(j.inner)
	ic.Alias = aliasInner
	right, err := ic.CompileColumn(j.innerKey)
	if err != nil {
		return nil, err
	}

	return &querysql.JoinClause{
		Kind:  j.kind,
		Table: j.inner.TableName,
		Alias: aliasInner,
		On:    left.CommandText + " = " + right.CommandText,
	}, nil
}

// joinDecoder splits a joined row at the outer column count.
func joinDecoder[O, I any](outerCols, innerCols []schema.ColumnDef) func([]any) (JoinResult[O, I], error) {
	return func(values []any) (JoinResult[O, I], error) {
		var r JoinResult[O, I]
		n := len(outerCols)
		if len(values) != n+len(innerCols) {
			return r, fmt.Errorf("row has %d values for %d columns", len(values), n+len(innerCols))
		}
		if err := populate(&r.Outer, outerCols, values[:n]); err != nil {
			return r, err
		}
		if err := populate(&r.Inner, innerCols, values[n:]); err != nil {
			return r, err
		}
		return r, nil
	}
}
