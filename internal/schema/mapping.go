package schema

import (
	"fmt"
	"slices"
	"strings"
)

// CreateFlags control implicit mapping behaviour.
type CreateFlags int

const (
	// CreateNone applies only explicit decorations.
	CreateNone CreateFlags = 0

	// ImplicitPK makes a member named "Id" or "<TypeName>Id" the primary
	// key when no member is explicitly decorated as one.
	ImplicitPK CreateFlags = 1

	// ImplicitIndex indexes undecorated members whose name ends in "Id".
	ImplicitIndex CreateFlags = 2

	AllImplicit = ImplicitPK | ImplicitIndex

	// AutoIncPK makes an integer primary key autoincrement.
	AutoIncPK CreateFlags = 4
)

const implicitPKName = "Id"

// ColumnDef is one mapped column.
type ColumnDef struct {
	Name          string
	PropertyName  string
	Type          ColumnType
	Kind          ValueKind
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	MaxLength     *int
	Collation     string
	Indices       []IndexSpec

	member Member
}

// Nullable reports whether the column accepts NULL.
func (c ColumnDef) Nullable() bool {
	return !c.PrimaryKey && !c.NotNull
}

// Get reads the column's value from an entity.
func (c ColumnDef) Get(obj any) (any, error) {
	return c.member.Get(obj)
}

// Set writes a column value into an entity.
func (c ColumnDef) Set(obj any, value any) error {
	return c.member.Set(obj, value)
}

// SQLType is the declared SQLite type of the column.
func (c ColumnDef) SQLType() string {
	switch c.Kind {
	case KindTime:
		return "datetime"
	case KindUUID:
		return "varchar(36)"
	case KindString:
		if c.MaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *c.MaxLength)
		}
		return "varchar"
	}
	return c.Type.String()
}

// Index is a named index over one or more columns.
type Index struct {
	Name    string
	Table   string
	Unique  bool
	Columns []string
}

// TableMapping is the immutable description of how an entity type maps to
// a table.
type TableMapping struct {
	TableName string
	TypeName  string
	Key       string

	columns    []ColumnDef
	descriptor TypeDescriptor
}

// NewTableMapping derives the mapping for desc.
func NewTableMapping(desc TypeDescriptor, flags CreateFlags) *TableMapping {
	m := &TableMapping{
		TableName:  desc.TableName(),
		TypeName:   desc.Name,
		Key:        desc.Key,
		descriptor: desc,
	}

	explicitPK := slices.ContainsFunc(desc.Members, func(mem Member) bool {
		return mem.Options.PrimaryKey && !mem.Options.Ignore
	})

	seen := make(map[string]bool)
	implicitTaken := false
	for _, mem := range desc.Members {
		opts := mem.Options
		if opts.Ignore || mem.Kind == KindUnsupported || !mem.Settable() {
			continue
		}
		if !mem.Exported() && opts.Column == "" {
			continue
		}
		name := mem.Name
		if opts.Column != "" {
			name = opts.Column
		}
		if seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		col := ColumnDef{
			Name:          name,
			PropertyName:  mem.Name,
			Type:          mem.Kind.ColumnType(),
			Kind:          mem.Kind,
			PrimaryKey:    opts.PrimaryKey,
			AutoIncrement: opts.AutoIncrement,
			NotNull:       opts.NotNull,
			MaxLength:     opts.MaxLength,
			Collation:     opts.Collation,
			Indices:       slices.Clone(opts.Indices),
			member:        mem,
		}
		if !explicitPK && !implicitTaken && flags&ImplicitPK != 0 && isImplicitPK(mem.Name, desc.Name) {
			col.PrimaryKey = true
			implicitTaken = true
		}
		if col.PrimaryKey && flags&AutoIncPK != 0 {
			col.AutoIncrement = true
		}
		if len(col.Indices) == 0 && !col.PrimaryKey && flags&ImplicitIndex != 0 &&
			strings.HasSuffix(strings.ToLower(mem.Name), "id") {
			col.Indices = []IndexSpec{{}}
		}
		m.columns = append(m.columns, col)
	}

	// Autoincrement needs a single integer primary key.
	pks := 0
	for _, c := range m.columns {
		if c.PrimaryKey {
			pks++
		}
	}
	autoIncTaken := false
	for i := range m.columns {
		c := &m.columns[i]
		if c.AutoIncrement && (!c.PrimaryKey || pks > 1 || c.Type != TypeInteger || autoIncTaken) {
			c.AutoIncrement = false
		}
		if c.AutoIncrement {
			autoIncTaken = true
		}
	}
	return m
}

func isImplicitPK(member, typeName string) bool {
	return strings.EqualFold(member, implicitPKName) ||
		strings.EqualFold(member, typeName+implicitPKName)
}

// Descriptor returns the descriptor the mapping was built from.
func (m *TableMapping) Descriptor() TypeDescriptor {
	return m.descriptor
}

// Columns returns the mapped columns in member order.
func (m *TableMapping) Columns() []ColumnDef {
	return slices.Clone(m.columns)
}

// ColumnNames returns the mapped column names in member order.
func (m *TableMapping) ColumnNames() []string {
	names := make([]string, len(m.columns))
	for i, c := range m.columns {
		names[i] = c.Name
	}
	return names
}

// FindColumnWithPropertyName finds the column backed by the named member.
func (m *TableMapping) FindColumnWithPropertyName(member string) (ColumnDef, bool) {
	for _, c := range m.columns {
		if c.PropertyName == member {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// FindColumn finds a column by name, ignoring case.
func (m *TableMapping) FindColumn(name string) (ColumnDef, bool) {
	for _, c := range m.columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// PK returns the primary key column. With a composite key it returns the
// first key column.
func (m *TableMapping) PK() (ColumnDef, bool) {
	for _, c := range m.columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// PKs returns all primary key columns.
func (m *TableMapping) PKs() []ColumnDef {
	var pks []ColumnDef
	for _, c := range m.columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}

// AutoIncColumn returns the autoincrement column, if any.
func (m *TableMapping) AutoIncColumn() (ColumnDef, bool) {
	for _, c := range m.columns {
		if c.AutoIncrement {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// InsertColumns returns the columns written by an insert.
func (m *TableMapping) InsertColumns() []ColumnDef {
	cols := make([]ColumnDef, 0, len(m.columns))
	for _, c := range m.columns {
		if !c.AutoIncrement {
			cols = append(cols, c)
		}
	}
	return cols
}

// Indices groups index decorations by name. Unnamed decorations get the
// name "<table>_<column>". Columns are ordered by their declared order.
func (m *TableMapping) Indices() []Index {
	type entry struct {
		col   string
		order int
	}
	var order []string
	byName := make(map[string]*Index)
	entries := make(map[string][]entry)

	for _, c := range m.columns {
		for _, spec := range c.Indices {
			name := spec.Name
			if name == "" {
				name = m.TableName + "_" + c.Name
			}
			idx, ok := byName[name]
			if !ok {
				idx = &Index{Name: name, Table: m.TableName}
				byName[name] = idx
				order = append(order, name)
			}
			idx.Unique = idx.Unique || spec.Unique
			entries[name] = append(entries[name], entry{c.Name, spec.Order})
		}
	}

	out := make([]Index, 0, len(order))
	for _, name := range order {
		es := entries[name]
		slices.SortStableFunc(es, func(a, b entry) int { return a.order - b.order })
		idx := byName[name]
		for _, e := range es {
			idx.Columns = append(idx.Columns, e.col)
		}
		out = append(out, *idx)
	}
	return out
}
