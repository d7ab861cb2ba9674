package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entity is implemented by every type that can be mapped to a table.
// Descriptor must be callable on the zero value.
type Entity interface {
	Descriptor() TypeDescriptor
}

// PropertyAccessor reads and writes named members of an object.
type PropertyAccessor interface {
	Get(obj any, member string) (any, error)
	Set(obj any, member string, value any) error
}

// IndexSpec is a single index decoration on a member. An empty Name means
// the default name "<table>_<column>".
type IndexSpec struct {
	Name   string
	Order  int
	Unique bool
}

// Decorations are the column annotations attached to a member.
type Decorations struct {
	Column        string
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Ignore        bool
	MaxLength     *int
	Collation     string
	Indices       []IndexSpec
}

// ColumnOption decorates a member.
type ColumnOption func(*Decorations)

// Column overrides the column name and marks the member as mapped even if
// it is not exported.
func Column(name string) ColumnOption {
	return func(d *Decorations) { d.Column = name }
}

// PrimaryKey marks the member as part of the primary key.
func PrimaryKey() ColumnOption {
	return func(d *Decorations) { d.PrimaryKey = true }
}

// AutoIncrement makes an integer primary key autoincrement.
func AutoIncrement() ColumnOption {
	return func(d *Decorations) { d.AutoIncrement = true }
}

// NotNull forbids null in the column.
func NotNull() ColumnOption {
	return func(d *Decorations) { d.NotNull = true }
}

// Ignore excludes the member from the mapping.
func Ignore() ColumnOption {
	return func(d *Decorations) { d.Ignore = true }
}

// MaxLength sets the varchar length of a text column.
func MaxLength(n int) ColumnOption {
	return func(d *Decorations) { d.MaxLength = &n }
}

// Collate sets the column collation.
func Collate(name string) ColumnOption {
	return func(d *Decorations) { d.Collation = name }
}

// Indexed adds the member to the named index at the given position.
func Indexed(name string, order int) ColumnOption {
	return func(d *Decorations) {
		d.Indices = append(d.Indices, IndexSpec{Name: name, Order: order})
	}
}

// Unique adds the member to the named unique index at the given position.
func Unique(name string, order int) ColumnOption {
	return func(d *Decorations) {
		d.Indices = append(d.Indices, IndexSpec{Name: name, Order: order, Unique: true})
	}
}

// Member is one named member of an entity type.
type Member struct {
	Name     string
	Kind     ValueKind
	Nullable bool
	Options  Decorations

	get func(obj any) (any, error)
	set func(obj any, value any) error
}

// Exported reports whether the member name starts with an upper-case letter.
func (m Member) Exported() bool {
	r, _ := utf8.DecodeRuneInString(m.Name)
	return unicode.IsUpper(r)
}

// Settable reports whether the member can be written.
func (m Member) Settable() bool {
	return m.set != nil
}

// Get reads the member's value from obj.
func (m Member) Get(obj any) (any, error) {
	if m.get == nil {
		return nil, fmt.Errorf("member %s is not readable", m.Name)
	}
	return m.get(obj)
}

// Set writes value into obj, converting it to the member's type.
func (m Member) Set(obj any, value any) error {
	if m.set == nil {
		return fmt.Errorf("member %s is read-only", m.Name)
	}
	if err := m.set(obj, value); err != nil {
		return fmt.Errorf("set %s: %w", m.Name, err)
	}
	return nil
}

func decorate(opts []ColumnOption) Decorations {
	var d Decorations
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Field declares a readable and writable member of T backed by the field
// ref points to.
func Field[T, V any](name string, ref func(*T) *V, opts ...ColumnOption) Member {
	kind, nullable := kindOf[V]()
	return Member{
		Name:     name,
		Kind:     kind,
		Nullable: nullable,
		Options:  decorate(opts),
		get: func(obj any) (any, error) {
			p, err := owner[T](obj, false)
			if err != nil {
				return nil, err
			}
			return *ref(p), nil
		},
		set: func(obj any, value any) error {
			p, err := owner[T](obj, true)
			if err != nil {
				return err
			}
			return assign(ref(p), value)
		},
	}
}

// Computed declares a read-only member of T. Computed members are usable
// in captured-value expressions but are never mapped to columns.
func Computed[T, V any](name string, get func(T) V) Member {
	kind, nullable := kindOf[V]()
	return Member{
		Name:     name,
		Kind:     kind,
		Nullable: nullable,
		get: func(obj any) (any, error) {
			p, err := owner[T](obj, false)
			if err != nil {
				return nil, err
			}
			return get(*p), nil
		},
	}
}

func owner[T any](obj any, writable bool) (*T, error) {
	switch o := obj.(type) {
	case *T:
		if o == nil {
			return nil, fmt.Errorf("nil %T", obj)
		}
		return o, nil
	case T:
		if !writable {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("object is %T, want %T", obj, (*T)(nil))
}

// TypeDescriptor is the static description of an entity type.
type TypeDescriptor struct {
	// Name is the short type name. It is the default table name and the
	// base of the implicit "<Name>Id" primary key rule.
	Name string

	// Key identifies the type in the mapping cache.
	Key string

	// Table overrides the table name when non-empty.
	Table string

	Members []Member
}

// Describe builds the descriptor of T from its members.
func Describe[T any](members ...Member) TypeDescriptor {
	var zero T
	key := fmt.Sprintf("%T", zero)
	name := key
	if i := strings.LastIndexByte(strings.SplitN(key, "[", 2)[0], '.'); i >= 0 {
		name = key[i+1:]
	}
	return TypeDescriptor{Name: name, Key: key, Members: members}
}

// DescriptorOf returns the descriptor of an entity type.
func DescriptorOf[T Entity]() TypeDescriptor {
	var zero T
	return zero.Descriptor()
}

// WithTable returns a copy of d mapped to the given table name.
func (d TypeDescriptor) WithTable(table string) TypeDescriptor {
	d.Table = table
	return d
}

// TableName returns the table the type maps to.
func (d TypeDescriptor) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return d.Name
}

// Member looks up a member by exact name.
func (d TypeDescriptor) Member(name string) (Member, bool) {
	for _, m := range d.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Get implements PropertyAccessor.
func (d TypeDescriptor) Get(obj any, member string) (any, error) {
	m, ok := d.Member(member)
	if !ok {
		return nil, fmt.Errorf("%s has no member %q", d.Name, member)
	}
	return m.Get(obj)
}

// Set implements PropertyAccessor.
func (d TypeDescriptor) Set(obj any, member string, value any) error {
	m, ok := d.Member(member)
	if !ok {
		return fmt.Errorf("%s has no member %q", d.Name, member)
	}
	return m.Set(obj, value)
}

// MapAccessor accesses members of map[string]any values and Rows.
type MapAccessor struct{}

func (MapAccessor) Get(obj any, member string) (any, error) {
	switch m := obj.(type) {
	case map[string]any:
		return m[member], nil
	case Row:
		return m[member], nil
	case *Row:
		return (*m)[member], nil
	}
	return nil, fmt.Errorf("object is %T, want a map", obj)
}

func (MapAccessor) Set(obj any, member string, value any) error {
	switch m := obj.(type) {
	case map[string]any:
		m[member] = value
		return nil
	case Row:
		m[member] = value
		return nil
	case *Row:
		if *m == nil {
			*m = Row{}
		}
		(*m)[member] = value
		return nil
	}
	return fmt.Errorf("object is %T, want a map", obj)
}

// AccessorFunc adapts a read function to a read-only PropertyAccessor.
type AccessorFunc func(obj any, member string) (any, error)

func (f AccessorFunc) Get(obj any, member string) (any, error) {
	return f(obj, member)
}

func (f AccessorFunc) Set(obj any, member string, value any) error {
	return fmt.Errorf("member %s is read-only", member)
}
