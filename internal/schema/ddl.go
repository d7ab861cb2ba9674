package schema

import (
	"fmt"
	"strings"
)

// Quote quotes an SQL identifier.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Decl renders the column's definition inside a create table statement.
// compositePK suppresses the inline primary key clause.
func (c ColumnDef) Decl(compositePK bool) string {
	parts := []string{Quote(c.Name), c.SQLType()}
	if c.PrimaryKey && !compositePK {
		parts = append(parts, "primary key")
	}
	if c.AutoIncrement {
		parts = append(parts, "autoincrement")
	}
	if !c.Nullable() {
		parts = append(parts, "not null")
	}
	if c.Collation != "" {
		parts = append(parts, "collate "+c.Collation)
	}
	return strings.Join(parts, " ")
}

// CreateTableSQL renders the create table statement. It returns "" for a
// mapping with no columns.
func (m *TableMapping) CreateTableSQL() string {
	if len(m.columns) == 0 {
		return ""
	}
	pks := m.PKs()
	composite := len(pks) > 1

	decls := make([]string, 0, len(m.columns)+1)
	for _, c := range m.columns {
		decls = append(decls, c.Decl(composite))
	}
	if composite {
		names := make([]string, len(pks))
		for i, c := range pks {
			names[i] = Quote(c.Name)
		}
		decls = append(decls, fmt.Sprintf("primary key (%s)", strings.Join(names, ", ")))
	}
	return fmt.Sprintf("create table if not exists %s(\n%s\n)", Quote(m.TableName), strings.Join(decls, ",\n"))
}

// CreateIndexSQL renders one create index statement per index.
func (m *TableMapping) CreateIndexSQL() []string {
	indices := m.Indices()
	stmts := make([]string, 0, len(indices))
	for _, idx := range indices {
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = Quote(c)
		}
		kind := "index"
		if idx.Unique {
			kind = "unique index"
		}
		stmts = append(stmts, fmt.Sprintf("create %s if not exists %s on %s(%s)",
			kind, Quote(idx.Name), Quote(idx.Table), strings.Join(cols, ", ")))
	}
	return stmts
}

// DropTableSQL renders the drop table statement.
func (m *TableMapping) DropTableSQL() string {
	return "drop table if exists " + Quote(m.TableName)
}
