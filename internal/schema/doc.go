// Package schema derives table mappings from entity type descriptors.
//
// An entity type describes itself once, statically, through a
// TypeDescriptor: the list of its members, each carrying a typed getter and
// setter plus column decorations. No struct fields are discovered through
// runtime reflection; the descriptor IS the property-accessor capability
// the rest of the module uses to read and write entity values.
//
//	type Employee struct {
//		Id   int64
//		Name string
//	}
//
//	func (Employee) Descriptor() schema.TypeDescriptor {
//		return schema.Describe[Employee](
//			schema.Field("Id", func(e *Employee) *int64 { return &e.Id }, schema.PrimaryKey()),
//			schema.Field("Name", func(e *Employee) *string { return &e.Name }, schema.MaxLength(64)),
//		)
//	}
//
// # Mapping Rules
//
//   - A member becomes a column when it is exported and settable, or when it
//     is explicitly decorated with Column(name).
//   - The member's Go type decides the storage category: integers and bool
//     map to Integer, floats to Float, string/time.Time/uuid.UUID to Text,
//     []byte to Blob. Pointer forms are nullable. Anything else is skipped.
//   - Column names are unique within a mapping; the first member wins.
//   - At most one autoincrement column, and only on a primary key.
//
// Mappings are immutable once built and cached per descriptor key by a
// Manager, whose single lock spans lookup-or-create.
package schema
