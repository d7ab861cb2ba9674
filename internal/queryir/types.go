package queryir

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is an expression tree node.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	exprNode() // Marker method - seals interface to this package
	String() string
}

// Accessor reads a named member of a captured object.
// schema.TypeDescriptor and schema.MapAccessor satisfy it.
type Accessor interface {
	Get(obj any, member string) (any, error)
}

// Member references a member of the entity the query ranges over.
// Compiles to the quoted name of the mapped column.
type Member struct {
	Name string
}

func (Member) exprNode() {}

func (m Member) String() string { return "x." + m.Name }

// Variable is a captured local. Get is called every time the tree is
// compiled, so a reused query sees the variable's current value.
type Variable struct {
	Name string
	Get  func() any
}

func (Variable) exprNode() {}

func (v Variable) String() string { return "$" + v.Name }

// Capture reads member Name of the value Root evaluates to.
// Root must itself be a value: a Constant, Variable or Capture.
type Capture struct {
	Root     Node
	Name     string
	Accessor Accessor
}

func (Capture) exprNode() {}

func (c Capture) String() string { return nodeString(c.Root) + "." + c.Name }

// Constant is a literal value.
type Constant struct {
	Value any
}

func (Constant) exprNode() {}

func (c Constant) String() string { return literalString(c.Value) }

// UnaryOp is a unary operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota + 1
	OpNegate
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNegate:
		return "-"
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// Unary applies a unary operator.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func (Unary) exprNode() {}

func (u Unary) String() string { return u.Op.String() + nodeString(u.Operand) }

// ConvertType is the target of a type coercion.
type ConvertType int

const (
	ToInt ConvertType = iota + 1
	ToInt32
	ToInt64
	ToUint
	ToFloat32
	ToFloat64
	ToString
	ToBool
	ToTime
)

var convertNames = map[ConvertType]string{
	ToInt:     "int",
	ToInt32:   "int32",
	ToInt64:   "int64",
	ToUint:    "uint",
	ToFloat32: "float32",
	ToFloat64: "float64",
	ToString:  "string",
	ToBool:    "bool",
	ToTime:    "time",
}

func (t ConvertType) String() string {
	if name, ok := convertNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ConvertType(%d)", int(t))
}

// ParseConvertType looks up a conversion target by name.
func ParseConvertType(name string) (ConvertType, bool) {
	for t, n := range convertNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Convert coerces the operand's value to To. A Nullable target lets null
// pass through unchanged.
type Convert struct {
	Operand  Node
	To       ConvertType
	Nullable bool
}

func (Convert) exprNode() {}

func (c Convert) String() string {
	name := c.To.String()
	if c.Nullable {
		name = "*" + name
	}
	return name + "(" + nodeString(c.Operand) + ")"
}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	OpEq BinaryOp = iota + 1
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpAndAlso
	OpOrElse
	OpAnd
	OpOr
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpCoalesce
)

var binaryNames = map[BinaryOp]string{
	OpEq:       "==",
	OpNe:       "!=",
	OpGt:       ">",
	OpGe:       ">=",
	OpLt:       "<",
	OpLe:       "<=",
	OpAndAlso:  "&&",
	OpOrElse:   "||",
	OpAnd:      "&",
	OpOr:       "|",
	OpAdd:      "+",
	OpSubtract: "-",
	OpMultiply: "*",
	OpDivide:   "/",
	OpModulo:   "%",
	OpCoalesce: "??",
}

func (op BinaryOp) String() string {
	if name, ok := binaryNames[op]; ok {
		return name
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// Binary applies a binary operator.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (Binary) exprNode() {}

func (b Binary) String() string {
	return "(" + nodeString(b.Left) + " " + b.Op.String() + " " + nodeString(b.Right) + ")"
}

// MethodCall calls Method on Object with Args. A nil Object is a static
// call, where the receiver-like operand is the first argument.
type MethodCall struct {
	Method string
	Object Node
	Args   []Node
}

func (MethodCall) exprNode() {}

func (c MethodCall) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = nodeString(a)
	}
	call := c.Method + "(" + strings.Join(args, ", ") + ")"
	if c.Object == nil {
		return call
	}
	return nodeString(c.Object) + "." + call
}

// Conditional is test ? then : else.
type Conditional struct {
	Test Node
	Then Node
	Else Node
}

func (Conditional) exprNode() {}

func (c Conditional) String() string {
	return "(" + nodeString(c.Test) + " ? " + nodeString(c.Then) + " : " + nodeString(c.Else) + ")"
}

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}

func literalString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case []byte:
		return fmt.Sprintf("0x%x", x)
	case fmt.Stringer:
		return strconv.Quote(x.String())
	}
	return fmt.Sprintf("%v", v)
}
