package schema

import "fmt"

// Row is a dynamically typed record, one entry per column. Rows back the
// dynamic table descriptors loaded from schema files.
type Row map[string]any

// RowField declares a member of a Row. Values written through the member
// are coerced to the canonical Go type of kind.
func RowField(name string, kind ValueKind, opts ...ColumnOption) Member {
	return Member{
		Name:     name,
		Kind:     kind,
		Nullable: true,
		Options:  decorate(opts),
		get: func(obj any) (any, error) {
			switch r := obj.(type) {
			case Row:
				return r[name], nil
			case *Row:
				if r == nil {
					return nil, fmt.Errorf("nil %T", obj)
				}
				return (*r)[name], nil
			}
			return nil, fmt.Errorf("object is %T, want schema.Row", obj)
		},
		set: func(obj any, value any) error {
			r, ok := obj.(*Row)
			if !ok || r == nil {
				return fmt.Errorf("object is %T, want *schema.Row", obj)
			}
			v, err := CoerceKind(kind, value)
			if err != nil {
				return err
			}
			if *r == nil {
				*r = Row{}
			}
			(*r)[name] = v
			return nil
		},
	}
}

// DynamicType describes a Row-backed type named name.
func DynamicType(name string, members ...Member) TypeDescriptor {
	return TypeDescriptor{
		Name:    name,
		Key:     "schema.Row:" + name,
		Members: members,
	}
}
