// Package testutil provides shared entities, fixture data and assertion
// helpers for tests across the module.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/litequery/internal/schema"
)

// Employee is the outer entity of the join fixtures.
type Employee struct {
	Id        int64
	Name      string
	Age       int
	Address   string
	Salary    float64
	Active    bool
	ManagerId *int64
}

func (Employee) Descriptor() schema.TypeDescriptor {
	return schema.Describe[Employee](
		schema.Field("Id", func(e *Employee) *int64 { return &e.Id }, schema.PrimaryKey()),
		schema.Field("Name", func(e *Employee) *string { return &e.Name }, schema.MaxLength(64), schema.NotNull()),
		schema.Field("Age", func(e *Employee) *int { return &e.Age }),
		schema.Field("Address", func(e *Employee) *string { return &e.Address }),
		schema.Field("Salary", func(e *Employee) *float64 { return &e.Salary }),
		schema.Field("Active", func(e *Employee) *bool { return &e.Active }),
		schema.Field("ManagerId", func(e *Employee) **int64 { return &e.ManagerId }),
	)
}

// Department references an Employee through EmployeeId.
type Department struct {
	Id         int64
	Dept       string
	EmployeeId int64
}

func (Department) Descriptor() schema.TypeDescriptor {
	return schema.Describe[Department](
		schema.Field("Id", func(d *Department) *int64 { return &d.Id }, schema.PrimaryKey()),
		schema.Field("Dept", func(d *Department) *string { return &d.Dept }),
		schema.Field("EmployeeId", func(d *Department) *int64 { return &d.EmployeeId }),
	)
}

// Item is the two-column entity of the or-predicate example.
type Item struct {
	Id      int64
	ColumnA string
	ColumnB string
}

func (Item) Descriptor() schema.TypeDescriptor {
	return schema.Describe[Item](
		schema.Field("Id", func(i *Item) *int64 { return &i.Id }, schema.PrimaryKey(), schema.AutoIncrement()),
		schema.Field("ColumnA", func(i *Item) *string { return &i.ColumnA }),
		schema.Field("ColumnB", func(i *Item) *string { return &i.ColumnB }),
	)
}

// TestObj is the pagination entity. Its Order member maps to a column whose
// name is an SQL keyword.
type TestObj struct {
	Id      int64
	Order   int
	Content string
}

func (TestObj) Descriptor() schema.TypeDescriptor {
	return schema.Describe[TestObj](
		schema.Field("Id", func(o *TestObj) *int64 { return &o.Id }, schema.PrimaryKey(), schema.AutoIncrement()),
		schema.Field("Order", func(o *TestObj) *int { return &o.Order }),
		schema.Field("Content", func(o *TestObj) *string { return &o.Content }),
	)
}

// Event exercises the time and UUID column mappings.
type Event struct {
	Ref     uuid.UUID
	At      time.Time
	Payload []byte
	Note    *string
}

func (Event) Descriptor() schema.TypeDescriptor {
	return schema.Describe[Event](
		schema.Field("Ref", func(e *Event) *uuid.UUID { return &e.Ref }, schema.PrimaryKey()),
		schema.Field("At", func(e *Event) *time.Time { return &e.At }, schema.Indexed("", 0)),
		schema.Field("Payload", func(e *Event) *[]byte { return &e.Payload }),
		schema.Field("Note", func(e *Event) **string { return &e.Note }),
	)
}

// Employees returns the seven employee rows of the join fixture.
func Employees() []Employee {
	return []Employee{
		{Id: 1, Name: "Paul", Age: 32, Address: "California", Salary: 20000, Active: true},
		{Id: 2, Name: "Allen", Age: 25, Address: "Texas", Salary: 15000, Active: true, ManagerId: ptr(int64(1))},
		{Id: 3, Name: "Teddy", Age: 23, Address: "Norway", Salary: 20000, ManagerId: ptr(int64(1))},
		{Id: 4, Name: "Mark", Age: 25, Address: "Rich-Mond", Salary: 65000, Active: true, ManagerId: ptr(int64(2))},
		{Id: 5, Name: "David", Age: 27, Address: "Texas", Salary: 85000, ManagerId: ptr(int64(2))},
		{Id: 6, Name: "Kim", Age: 22, Address: "South-Hall", Salary: 45000, Active: true},
		{Id: 7, Name: "James", Age: 24, Address: "Houston", Salary: 10000, ManagerId: ptr(int64(4))},
	}
}

// Departments returns the three department rows of the join fixture.
func Departments() []Department {
	return []Department{
		{Id: 1, Dept: "IT Billing", EmployeeId: 1},
		{Id: 2, Dept: "Engineering", EmployeeId: 2},
		{Id: 3, Dept: "Finance", EmployeeId: 7},
	}
}

// Items returns the three rows of the or-predicate example.
func Items() []Item {
	return []Item{
		{ColumnA: "Foo", ColumnB: "Bar"},
		{ColumnA: "Bar", ColumnB: "Baz"},
		{ColumnA: "Baz", ColumnB: "Qux"},
	}
}

// TestObjs returns n pagination rows with Order 1..n.
func TestObjs(n int) []TestObj {
	objs := make([]TestObj, n)
	for i := range objs {
		objs[i] = TestObj{Order: i + 1, Content: "content"}
	}
	return objs
}

// Events returns n event rows stamped by a fresh deterministic clock.
func Events(n int) []Event {
	clock := NewDeterministicClock()
	events := make([]Event, n)
	for i := range events {
		events[i] = Event{At: clock.Next(), Ref: SeqUUID(int64(i + 1)), Payload: []byte{byte(i)}}
	}
	return events
}

// Mapping builds the table mapping of an entity type.
func Mapping[T schema.Entity](flags schema.CreateFlags) *schema.TableMapping {
	return schema.NewTableMapping(schema.DescriptorOf[T](), flags)
}

func ptr[T any](v T) *T { return &v }
