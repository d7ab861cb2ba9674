package queryir

// Col references a member of the queried entity.
func Col(name string) Node { return Member{Name: name} }

// Const is a literal value.
func Const(v any) Node { return Constant{Value: v} }

// Null is the null literal.
func Null() Node { return Constant{Value: nil} }

// Var captures a local read at every compilation.
func Var(name string, get func() any) Node { return Variable{Name: name, Get: get} }

// Values captures a collection. Compiled as a parenthesized parameter list,
// one placeholder per element, for use on the right of an in test.
func Values(v any) Node {
	return Variable{Name: "values", Get: func() any { return v }}
}

// Prop reads member name of the captured value root.
func Prop(root Node, name string, acc Accessor) Node {
	return Capture{Root: root, Name: name, Accessor: acc}
}

// Not is logical negation.
func Not(n Node) Node { return Unary{Op: OpNot, Operand: n} }

// Negate is arithmetic negation.
func Negate(n Node) Node { return Unary{Op: OpNegate, Operand: n} }

// ConvertTo coerces the operand's value to t.
func ConvertTo(n Node, t ConvertType) Node { return Convert{Operand: n, To: t} }

// ConvertNullable coerces the operand's value to t, passing null through.
func ConvertNullable(n Node, t ConvertType) Node {
	return Convert{Operand: n, To: t, Nullable: true}
}

// Eq tests l == r. Against null it compiles to an is test.
func Eq(l, r Node) Node { return Binary{Op: OpEq, Left: l, Right: r} }

// Ne tests l != r. Against null it compiles to an is not test.
func Ne(l, r Node) Node { return Binary{Op: OpNe, Left: l, Right: r} }

// Gt tests l > r.
func Gt(l, r Node) Node { return Binary{Op: OpGt, Left: l, Right: r} }

// Ge tests l >= r.
func Ge(l, r Node) Node { return Binary{Op: OpGe, Left: l, Right: r} }

// Lt tests l < r.
func Lt(l, r Node) Node { return Binary{Op: OpLt, Left: l, Right: r} }

// Le tests l <= r.
func Le(l, r Node) Node { return Binary{Op: OpLe, Left: l, Right: r} }

// AndAlso is the short-circuit conjunction, compiled to and.
func AndAlso(l, r Node) Node { return Binary{Op: OpAndAlso, Left: l, Right: r} }

// OrElse is the short-circuit disjunction, compiled to or.
func OrElse(l, r Node) Node { return Binary{Op: OpOrElse, Left: l, Right: r} }

// BitAnd is the non-short-circuit and, compiled to &.
func BitAnd(l, r Node) Node { return Binary{Op: OpAnd, Left: l, Right: r} }

// BitOr is the non-short-circuit or, compiled to |.
func BitOr(l, r Node) Node { return Binary{Op: OpOr, Left: l, Right: r} }

// Add is l + r.
func Add(l, r Node) Node { return Binary{Op: OpAdd, Left: l, Right: r} }

// Sub is l - r.
func Sub(l, r Node) Node { return Binary{Op: OpSubtract, Left: l, Right: r} }

// All conjoins nodes left to right with AndAlso. Nil nodes are skipped;
// All of no nodes is nil.
func All(nodes ...Node) Node {
	var out Node
	for _, n := range nodes {
		switch {
		case n == nil:
		case out == nil:
			out = n
		default:
			out = AndAlso(out, n)
		}
	}
	return out
}

// Call invokes method on obj. A nil obj makes a static call.
func Call(obj Node, method string, args ...Node) Node {
	return MethodCall{Method: method, Object: obj, Args: args}
}

// Func calls an SQL scalar function by name.
func Func(name string, args ...Node) Node {
	return MethodCall{Method: name, Args: args}
}

// Like is a static like(a, b) test.
func Like(a, b Node) Node { return Func("Like", a, b) }

// In tests item for membership in collection.
func In(collection, item Node) Node { return Func("Contains", collection, item) }

// Contains is obj.Contains(x): a substring test on strings, membership on collections.
func Contains(obj, x Node) Node { return Call(obj, "Contains", x) }

// StartsWith tests that obj begins with x.
func StartsWith(obj, x Node) Node { return Call(obj, "StartsWith", x) }

// EndsWith tests that obj ends with x.
func EndsWith(obj, x Node) Node { return Call(obj, "EndsWith", x) }

// Equals is obj.Equals(x), compiled to =.
func Equals(obj, x Node) Node { return Call(obj, "Equals", x) }

// ToLower lower-cases obj.
func ToLower(obj Node) Node { return Call(obj, "ToLower") }

// ToUpper upper-cases obj.
func ToUpper(obj Node) Node { return Call(obj, "ToUpper") }

// Cond is test ? then : else.
func Cond(test, then, els Node) Node {
	return Conditional{Test: test, Then: then, Else: els}
}
