package querysql

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/litequery/internal/qerr"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/schema"
)

// Compiler compiles expression trees to parameterized SQLite fragments.
//
// CRITICAL: Values are never interpolated. Every literal becomes a ?
// placeholder and is appended to Args in emission order.
type Compiler struct {
	// Table resolves member names to column names.
	Table *schema.TableMapping

	// Alias qualifies column references when non-empty (joins).
	Alias string

	// Args accumulates the bound values of every successful Compile call.
	Args []any
}

// NewCompiler creates a Compiler for the given table.
func NewCompiler(table *schema.TableMapping) *Compiler {
	return &Compiler{Table: table}
}

// Result is the compiled form of one node.
type Result struct {
	// CommandText is the SQL fragment.
	CommandText string

	// RawText is the unquoted column name when the node is a plain column
	// reference, else "".
	RawText string

	// Value is the literal the node evaluated to, if any.
	Value any

	// Args are the values bound by CommandText's placeholders, in order.
	Args []any

	kind resultKind
}

// bound reports whether the result is a single bound literal.
func (r Result) bound() bool {
	return r.CommandText == "?" && len(r.Args) == 1
}

type resultKind int

const (
	kindScalar resultKind = iota
	kindString
	kindCollection
)

// lowerName lower-cases a method name into an SQL function name.
// A Caser is not safe for concurrent use; build one per call.
func lowerName(name string) string {
	return cases.Lower(language.Und).String(name)
}

// binaryOps is the fixed operator table. Operators absent from it fail.
var binaryOps = map[queryir.BinaryOp]string{
	queryir.OpGt:       ">",
	queryir.OpGe:       ">=",
	queryir.OpLt:       "<",
	queryir.OpLe:       "<=",
	queryir.OpAnd:      "&",
	queryir.OpAndAlso:  "and",
	queryir.OpOr:       "|",
	queryir.OpOrElse:   "or",
	queryir.OpEq:       "=",
	queryir.OpNe:       "!=",
	queryir.OpAdd:      "+",
	queryir.OpSubtract: "-",
}

// Compile compiles n and appends its bound values to c.Args.
// On error c.Args is left unchanged and no partial SQL is returned.
func (c *Compiler) Compile(n queryir.Node) (Result, error) {
	r, err := c.compile(n)
	if err != nil {
		return Result{}, err
	}
	c.Args = append(c.Args, r.Args...)
	return r, nil
}

// CompileColumn compiles a key selector. The node must be a member of the
// table, optionally wrapped in type conversions.
func (c *Compiler) CompileColumn(n queryir.Node) (Result, error) {
	for {
		conv, ok := n.(queryir.Convert)
		if !ok {
			break
		}
		n = conv.Operand
	}
	m, ok := n.(queryir.Member)
	if !ok {
		return Result{}, qerr.InvalidComposition("key selector %s is not a column reference", nodeText(n))
	}
	return c.compileMember(m)
}

func (c *Compiler) compile(n queryir.Node) (Result, error) {
	if n == nil {
		return Result{}, qerr.Unsupported("<nil>", "cannot compile a nil expression")
	}

	switch node := n.(type) {
	case queryir.Member:
		return c.compileMember(node)
	case queryir.Constant:
		return bindValue(node.Value), nil
	case queryir.Variable:
		if node.Get == nil {
			return Result{}, qerr.Unsupported(node.String(), "variable has no getter")
		}
		return capturedValue(node.Get()), nil
	case queryir.Capture:
		return c.compileCapture(node)
	case queryir.Unary:
		return c.compileUnary(node)
	case queryir.Convert:
		return c.compileConvert(node)
	case queryir.Binary:
		return c.compileBinary(node)
	case queryir.MethodCall:
		return c.compileCall(node)
	default:
		return Result{}, qerr.Unsupported(n.String(), "cannot compile %T", n)
	}
}

// compileMember resolves a member of the queried entity to its column.
func (c *Compiler) compileMember(m queryir.Member) (Result, error) {
	if c.Table == nil {
		return Result{}, qerr.Unsupported(m.String(), "no table to resolve members against")
	}
	col, ok := c.Table.FindColumnWithPropertyName(m.Name)
	if !ok {
		return Result{}, qerr.UnresolvedColumn(c.Table.TableName, m.Name)
	}
	text := schema.Quote(col.Name)
	if c.Alias != "" {
		text = c.Alias + "." + text
	}
	kind := kindScalar
	if col.Kind == schema.KindString {
		kind = kindString
	}
	return Result{CommandText: text, RawText: col.Name, kind: kind}, nil
}

// compileCapture reads a member of a captured value. The root's own
// bindings are discarded; only the member's value is bound.
func (c *Compiler) compileCapture(node queryir.Capture) (Result, error) {
	if node.Accessor == nil {
		return Result{}, qerr.Unsupported(node.String(), "captured member has no accessor")
	}
	switch node.Root.(type) {
	case queryir.Constant, queryir.Variable, queryir.Capture:
	default:
		return Result{}, qerr.Unsupported(node.String(), "member access must be rooted in a captured value")
	}
	root, err := c.compile(node.Root)
	if err != nil {
		return Result{}, err
	}
	if root.Value == nil {
		return Result{}, qerr.Unsupported(node.String(), "member access on a null value")
	}
	v, err := node.Accessor.Get(root.Value, node.Name)
	if err != nil {
		return Result{}, qerr.Unsupported(node.String(), "read captured member: %v", err)
	}
	return capturedValue(v), nil
}

func bindValue(v any) Result {
	kind := kindScalar
	if _, ok := v.(string); ok {
		kind = kindString
	}
	return Result{CommandText: "?", Value: v, Args: []any{v}, kind: kind}
}

// capturedValue binds a captured value. Slices and arrays expand to a
// parenthesized list, one placeholder per element, except byte slices and
// driver values such as UUIDs.
func capturedValue(v any) Result {
	items, ok := collection(v)
	if !ok {
		return bindValue(v)
	}
	marks := make([]string, len(items))
	for i := range items {
		marks[i] = "?"
	}
	return Result{
		CommandText: "(" + strings.Join(marks, ",") + ")",
		Value:       v,
		Args:        items,
		kind:        kindCollection,
	}
}

func collection(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	switch v.(type) {
	case []byte, driver.Valuer:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func (c *Compiler) compileUnary(node queryir.Unary) (Result, error) {
	opr, err := c.compile(node.Operand)
	if err != nil {
		return Result{}, err
	}

	switch node.Op {
	case queryir.OpNot:
		if b, ok := opr.Value.(bool); ok && opr.bound() {
			return bindValue(!b), nil
		}
		val := opr.Value
		if b, ok := val.(bool); ok {
			val = !b
		}
		return Result{CommandText: "NOT(" + opr.CommandText + ")", Value: val, Args: opr.Args}, nil
	case queryir.OpNegate:
		if opr.bound() {
			v, ok := negate(opr.Value)
			if !ok {
				return Result{}, qerr.Unsupported(node.String(), "cannot negate %T", opr.Value)
			}
			return bindValue(v), nil
		}
		return Result{CommandText: "(-" + opr.CommandText + ")", Args: opr.Args}, nil
	}
	return Result{}, qerr.Unsupported(node.String(), "unsupported unary operator %s", node.Op)
}

func negate(v any) (any, bool) {
	switch x := v.(type) {
	case int:
		return -x, true
	case int8:
		return -x, true
	case int16:
		return -x, true
	case int32:
		return -x, true
	case int64:
		return -x, true
	case float32:
		return -x, true
	case float64:
		return -x, true
	}
	return nil, false
}

// compileConvert coerces the operand's value. The SQL text is unchanged.
func (c *Compiler) compileConvert(node queryir.Convert) (Result, error) {
	r, err := c.compile(node.Operand)
	if err != nil {
		return Result{}, err
	}
	if r.Value == nil || r.kind == kindCollection {
		return r, nil
	}
	v, err := convertValue(r.Value, node.To)
	if err != nil {
		return Result{}, qerr.Unsupported(node.String(), "convert %T to %s: %v", r.Value, node.To, err)
	}
	if r.bound() {
		return bindValue(v), nil
	}
	r.Value = v
	return r, nil
}

func convertValue(v any, to queryir.ConvertType) (any, error) {
	switch to {
	case queryir.ToInt:
		return cast.ToIntE(v)
	case queryir.ToInt32:
		return cast.ToInt32E(v)
	case queryir.ToInt64:
		return cast.ToInt64E(v)
	case queryir.ToUint:
		return cast.ToUintE(v)
	case queryir.ToFloat32:
		return cast.ToFloat32E(v)
	case queryir.ToFloat64:
		return cast.ToFloat64E(v)
	case queryir.ToString:
		return cast.ToStringE(v)
	case queryir.ToBool:
		return cast.ToBoolE(v)
	case queryir.ToTime:
		return cast.ToTimeE(v)
	}
	return nil, fmt.Errorf("unknown conversion target %s", to)
}

func (c *Compiler) compileBinary(node queryir.Binary) (Result, error) {
	left, err := c.compile(node.Left)
	if err != nil {
		return Result{}, err
	}
	right, err := c.compile(node.Right)
	if err != nil {
		return Result{}, err
	}

	// x = null never matches; rewrite to the is / is not idiom.
	if left.bound() && left.Value == nil {
		return compileNullBinary(node, right, left.Args)
	}
	if right.bound() && right.Value == nil {
		return compileNullBinary(node, left, right.Args)
	}

	op, ok := binaryOps[node.Op]
	if !ok {
		return Result{}, qerr.Unsupported(node.String(), "unsupported binary operator %s", node.Op)
	}
	kind := kindScalar
	if node.Op == queryir.OpAdd && (left.kind == kindString || right.kind == kindString) {
		op = "||"
		kind = kindString
	}
	return Result{
		CommandText: "(" + left.CommandText + " " + op + " " + right.CommandText + ")",
		Args:        concat(left.Args, right.Args),
		kind:        kind,
	}, nil
}

func compileNullBinary(node queryir.Binary, other Result, nullArgs []any) (Result, error) {
	var op string
	switch node.Op {
	case queryir.OpEq:
		op = "is"
	case queryir.OpNe:
		op = "is not"
	default:
		return Result{}, qerr.Unsupported(node.String(), "cannot compare null with operator %s", node.Op)
	}
	return Result{
		CommandText: "(" + other.CommandText + " " + op + " ?)",
		Args:        concat(other.Args, nullArgs),
	}, nil
}

// compileCall dispatches on the method name. Unrecognized methods become
// SQL function calls named after the lower-cased method, receiver first.
func (c *Compiler) compileCall(node queryir.MethodCall) (Result, error) {
	var obj *Result
	if node.Object != nil {
		r, err := c.compile(node.Object)
		if err != nil {
			return Result{}, err
		}
		obj = &r
	}
	args := make([]Result, len(node.Args))
	for i, a := range node.Args {
		r, err := c.compile(a)
		if err != nil {
			return Result{}, err
		}
		args[i] = r
	}

	static := obj == nil
	switch {
	case node.Method == "Like" && static && len(args) == 2:
		return join(kindScalar, "(", args[0], " like ", args[1], ")"), nil
	case node.Method == "Contains" && static && len(args) == 2:
		return join(kindScalar, "(", args[1], " in ", args[0], ")"), nil
	case node.Method == "Contains" && !static && len(args) == 1:
		if obj.kind == kindString {
			return join(kindScalar, "(", *obj, " like ('%' || ", args[0], " || '%'))"), nil
		}
		return join(kindScalar, "(", args[0], " in ", *obj, ")"), nil
	case node.Method == "StartsWith" && !static && len(args) == 1:
		return join(kindScalar, "(", *obj, " like (", args[0], " || '%'))"), nil
	case node.Method == "EndsWith" && !static && len(args) == 1:
		return join(kindScalar, "(", *obj, " like ('%' || ", args[0], "))"), nil
	case node.Method == "Equals" && !static && len(args) == 1:
		return join(kindScalar, "(", *obj, " = (", args[0], "))"), nil
	case node.Method == "ToLower" && !static && len(args) == 0:
		return join(kindString, "(lower(", *obj, "))"), nil
	case node.Method == "ToUpper" && !static && len(args) == 0:
		return join(kindString, "(upper(", *obj, "))"), nil
	}

	if node.Method == "" {
		return Result{}, qerr.Unsupported(node.String(), "call with empty method name")
	}
	parts := []any{lowerName(node.Method) + "("}
	operands := args
	if obj != nil {
		operands = append([]Result{*obj}, args...)
	}
	for i, a := range operands {
		if i > 0 {
			parts = append(parts, ",")
		}
		parts = append(parts, a)
	}
	parts = append(parts, ")")
	return join(kindScalar, parts...), nil
}

// join concatenates literal text and compiled operands, collecting the
// operands' bound values in emission order.
func join(kind resultKind, parts ...any) Result {
	var sb strings.Builder
	var args []any
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			sb.WriteString(v)
		case Result:
			sb.WriteString(v.CommandText)
			args = append(args, v.Args...)
		}
	}
	return Result{CommandText: sb.String(), Args: args, kind: kind}
}

func concat(a, b []any) []any {
	out := make([]any, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func nodeText(n queryir.Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
