// Package queryir provides the expression tree that query predicates and
// key selectors are written in.
//
// The tree is the boundary between the ways a predicate can be authored
// (typed builder functions in this package, or the text DSL in package dsl)
// and the SQL compiler in package querysql:
//
//	[builder funcs] ─┐
//	                 ├─→ [queryir.Node] ─→ [querysql.Compiler] ─→ SQL + args
//	[dsl.Parse]     ─┘
//
// NODE KINDS:
//
//   - Member: a member of the entity being queried (a column reference)
//   - Variable: a captured local, read each time the tree is compiled
//   - Capture: a member of a captured value, read through an Accessor
//   - Constant: a literal value
//   - Unary: logical not or arithmetic negation
//   - Convert: a type coercion of the operand's value
//   - Binary: comparison, logical, bitwise and arithmetic operators
//   - MethodCall: a method or function call, rewritten by the compiler
//   - Conditional: test ? then : else
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method; only types in this package implement
// it. Compilers can type-switch exhaustively and report anything they do not
// translate.
//
// Example:
//
//	pred := queryir.OrElse(
//		queryir.Eq(queryir.Col("ColumnA"), queryir.Const("Foo")),
//		queryir.Eq(queryir.Col("ColumnB"), queryir.Const("Qux")),
//	)
//
// Every node renders a textual form through String, used in error messages
// and logs:
//
//	((x.ColumnA == "Foo") || (x.ColumnB == "Qux"))
package queryir
