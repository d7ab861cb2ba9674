package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/litequery/internal/schema"
)

// JoinKind selects inner or left outer join semantics.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	OuterJoin
)

func (k JoinKind) String() string {
	if k == OuterJoin {
		return "left outer join"
	}
	return "inner join"
}

// Ordering is one order by term. Column is already rendered SQL.
type Ordering struct {
	Column    string
	Ascending bool
}

// JoinClause joins a second table under an alias.
type JoinClause struct {
	Kind  JoinKind
	Table string
	Alias string
	On    string
}

// Select is an assembled select statement. Clauses render in fixed order
// regardless of how they were set:
//
//	select <columns> from <table>[ <join>][ where][ order by][ limit][ offset]
type Select struct {
	Columns []string
	From    string
	Alias   string
	Join    *JoinClause
	Where   string
	OrderBy []Ordering
	Limit   *int
	Offset  *int
}

// SQL renders the statement. An offset without a limit gets limit -1 so
// SQLite accepts the offset clause.
func (s Select) SQL() string {
	var sb strings.Builder
	sb.WriteString("select ")
	sb.WriteString(strings.Join(s.Columns, ", "))
	sb.WriteString(" from ")
	sb.WriteString(schema.Quote(s.From))
	if s.Alias != "" {
		sb.WriteString(" as ")
		sb.WriteString(s.Alias)
	}
	if s.Join != nil {
		sb.WriteString(" ")
		sb.WriteString(s.Join.Kind.String())
		sb.WriteString(" ")
		sb.WriteString(schema.Quote(s.Join.Table))
		sb.WriteString(" as ")
		sb.WriteString(s.Join.Alias)
		sb.WriteString(" on ")
		sb.WriteString(s.Join.On)
	}
	if s.Where != "" {
		sb.WriteString(" where ")
		sb.WriteString(s.Where)
	}
	if len(s.OrderBy) > 0 {
		terms := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			terms[i] = o.Column
			if !o.Ascending {
				terms[i] += " desc"
			}
		}
		sb.WriteString(" order by ")
		sb.WriteString(strings.Join(terms, ", "))
	}
	if s.Limit != nil {
		sb.WriteString(" limit ")
		sb.WriteString(strconv.Itoa(*s.Limit))
	}
	if s.Offset != nil {
		if s.Limit == nil {
			sb.WriteString(" limit -1")
		}
		sb.WriteString(" offset ")
		sb.WriteString(strconv.Itoa(*s.Offset))
	}
	return sb.String()
}

// Delete is an assembled delete statement.
type Delete struct {
	From  string
	Where string
}

// SQL renders the statement.
func (d Delete) SQL() string {
	sql := "delete from " + schema.Quote(d.From)
	if d.Where != "" {
		sql += " where " + d.Where
	}
	return sql
}

// Columns renders a table's column list, qualified by alias when non-empty.
func Columns(table *schema.TableMapping, alias string) []string {
	names := table.ColumnNames()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = schema.Quote(n)
		if alias != "" {
			out[i] = alias + "." + out[i]
		}
	}
	return out
}
