// Package dsl parses a small text predicate language into expression trees.
//
// The language reads like a Go boolean expression over the columns of the
// queried entity:
//
//	Age >= 18 && Address.StartsWith("T") || ManagerId == null
//	Id in $ids && like(Name, '_a%')
//	$filter.MinSalary <= Salary ? Active : false
//
// Identifiers name members of the entity. $name reads a variable from the
// bindings passed to Parse, at every compilation. .Member reads a member of
// a variable; .Method(args) and name(args) are method and function calls.
// A call to a conversion name (int64, float64, string, ...) is a type
// conversion.
//
// Precedence, lowest first: ?:, ||, &&, |, &, comparisons and in, + and -,
// unary ! and -.
package dsl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/schema"
)

// methodName upper-cases the first letter, so like(...) and Like(...) are
// the same call.
func methodName(name string) string {
	return cases.Title(language.Und, cases.NoLower).String(name)
}

// Parse parses src into an expression tree. Variables resolve against vars;
// the map is read again at every compilation of the returned tree.
func Parse(src string, vars map[string]any) (queryir.Node, error) {
	tree, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse predicate: %w", err)
	}
	b := &builder{vars: vars}
	n, err := b.expression(tree)
	if err != nil {
		return nil, fmt.Errorf("parse predicate: %w", err)
	}
	return n, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string, vars map[string]any) queryir.Node {
	n, err := Parse(src, vars)
	if err != nil {
		panic(err)
	}
	return n
}

// builder converts the parse tree into queryir nodes.
type builder struct {
	vars map[string]any
}

func (b *builder) expression(e *expression) (queryir.Node, error) {
	cond, err := b.orElse(e.Cond)
	if err != nil || e.Then == nil {
		return cond, err
	}
	then, err := b.expression(e.Then)
	if err != nil {
		return nil, err
	}
	els, err := b.expression(e.Else)
	if err != nil {
		return nil, err
	}
	return queryir.Cond(cond, then, els), nil
}

func (b *builder) orElse(e *orElse) (queryir.Node, error) {
	return chain(b, e.Head, e.Tail, (*builder).andAlso, queryir.OrElse)
}

func (b *builder) andAlso(e *andAlso) (queryir.Node, error) {
	return chain(b, e.Head, e.Tail, (*builder).bitOr, queryir.AndAlso)
}

func (b *builder) bitOr(e *bitOr) (queryir.Node, error) {
	return chain(b, e.Head, e.Tail, (*builder).bitAnd, queryir.BitOr)
}

func (b *builder) bitAnd(e *bitAnd) (queryir.Node, error) {
	return chain(b, e.Head, e.Tail, (*builder).comparison, queryir.BitAnd)
}

// chain folds a left-associative operator chain.
func chain[E any](b *builder, head E, tail []E, operand func(*builder, E) (queryir.Node, error), op func(l, r queryir.Node) queryir.Node) (queryir.Node, error) {
	out, err := operand(b, head)
	if err != nil {
		return nil, err
	}
	for _, t := range tail {
		r, err := operand(b, t)
		if err != nil {
			return nil, err
		}
		out = op(out, r)
	}
	return out, nil
}

var comparisons = map[string]func(l, r queryir.Node) queryir.Node{
	"==": queryir.Eq,
	"!=": queryir.Ne,
	">":  queryir.Gt,
	">=": queryir.Ge,
	"<":  queryir.Lt,
	"<=": queryir.Le,
}

func (b *builder) comparison(e *comparison) (queryir.Node, error) {
	left, err := b.additive(e.Left)
	if err != nil || e.Op == "" {
		return left, err
	}
	right, err := b.additive(e.Right)
	if err != nil {
		return nil, err
	}
	if e.Op == "in" {
		return queryir.In(right, left), nil
	}
	return comparisons[e.Op](left, right), nil
}

func (b *builder) additive(e *additive) (queryir.Node, error) {
	out, err := b.unary(e.Head)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Tail {
		r, err := b.unary(t.Operand)
		if err != nil {
			return nil, err
		}
		if t.Op == "+" {
			out = queryir.Add(out, r)
		} else {
			out = queryir.Sub(out, r)
		}
	}
	return out, nil
}

func (b *builder) unary(e *unary) (queryir.Node, error) {
	if e.Postfix != nil {
		return b.postfix(e.Postfix)
	}
	operand, err := b.unary(e.Operand)
	if err != nil {
		return nil, err
	}
	if e.Op == "!" {
		return queryir.Not(operand), nil
	}
	// Negative numeric literals fold into the constant.
	if c, ok := operand.(queryir.Constant); ok {
		switch v := c.Value.(type) {
		case int64:
			return queryir.Const(-v), nil
		case float64:
			return queryir.Const(-v), nil
		}
	}
	return queryir.Negate(operand), nil
}

func (b *builder) postfix(e *postfix) (queryir.Node, error) {
	out, err := b.primary(e.Primary)
	if err != nil {
		return nil, err
	}
	for _, a := range e.Access {
		if a.Call {
			args, err := b.list(a.Args)
			if err != nil {
				return nil, err
			}
			out = queryir.Call(out, methodName(a.Name), args...)
			continue
		}
		switch out.(type) {
		case queryir.Variable, queryir.Capture:
		default:
			return nil, fmt.Errorf("%s: cannot read member %s of %s, only variables have members", pos(a.Pos), a.Name, out)
		}
		out = queryir.Prop(out, a.Name, valueAccessor)
	}
	return out, nil
}

func (b *builder) primary(e *primary) (queryir.Node, error) {
	switch {
	case e.Null:
		return queryir.Null(), nil
	case e.True:
		return queryir.Const(true), nil
	case e.False:
		return queryir.Const(false), nil
	case e.Float != nil:
		return queryir.Const(*e.Float), nil
	case e.Int != nil:
		return queryir.Const(*e.Int), nil
	case e.String != nil:
		return queryir.Const(*e.String), nil
	case e.RawString != nil:
		return queryir.Const(strings.Trim(*e.RawString, "'")), nil
	case e.Var != "":
		return b.variable(e.Pos, strings.TrimPrefix(e.Var, "$"))
	case e.Call != nil:
		return b.call(e.Call)
	case e.Column != "":
		return queryir.Col(e.Column), nil
	case e.Sub != nil:
		return b.expression(e.Sub)
	}
	return nil, fmt.Errorf("%s: empty expression", pos(e.Pos))
}

func (b *builder) variable(at lexer.Position, name string) (queryir.Node, error) {
	if _, ok := b.vars[name]; !ok {
		return nil, fmt.Errorf("%s: undefined variable $%s", pos(at), name)
	}
	vars := b.vars
	return queryir.Var(name, func() any { return vars[name] }), nil
}

// call is a conversion when name is a conversion target, else a function.
func (b *builder) call(e *funcCall) (queryir.Node, error) {
	args, err := b.list(e.Args)
	if err != nil {
		return nil, err
	}
	if to, ok := queryir.ParseConvertType(e.Name); ok {
		if len(args) != 1 {
			return nil, fmt.Errorf("conversion %s takes 1 argument, got %d", e.Name, len(args))
		}
		return queryir.ConvertTo(args[0], to), nil
	}
	return queryir.Func(methodName(e.Name), args...), nil
}

func (b *builder) list(es []*expression) ([]queryir.Node, error) {
	out := make([]queryir.Node, len(es))
	for i, e := range es {
		n, err := b.expression(e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// valueAccessor reads members of bound variables: entities through their
// descriptor, maps by key.
var valueAccessor = schema.AccessorFunc(func(obj any, member string) (any, error) {
	if e, ok := obj.(schema.Entity); ok {
		return e.Descriptor().Get(obj, member)
	}
	return schema.MapAccessor{}.Get(obj, member)
})

func pos(p lexer.Position) string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
