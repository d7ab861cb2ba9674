package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult lists the structural defects of an expression tree.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each defect, in tree order.
	Problems []string
}

// Err returns the problems as a single error, or nil if the tree is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid expression: %s", strings.Join(r.Problems, "; "))
}

// Validate checks a tree for structural defects: missing operands, empty
// names, unknown operators, captures without an accessor, and captures
// rooted in something other than a value.
//
// Validate does not decide what the compiler can translate; a valid tree
// may still fail compilation with an unsupported operator or method.
// Validate is a pure function with no side effects.
func Validate(n Node) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate(n)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(n Node) {
	if n == nil {
		v.addProblem("nil node")
		return
	}

	switch node := n.(type) {
	case Member:
		if node.Name == "" {
			v.addProblem("member with empty name")
		}
	case Variable:
		if node.Get == nil {
			v.addProblem("variable %s has no getter", node.Name)
		}
	case Capture:
		if node.Name == "" {
			v.addProblem("capture with empty member name")
		}
		if node.Accessor == nil {
			v.addProblem("capture %s has no accessor", node)
		}
		switch node.Root.(type) {
		case Constant, Variable, Capture:
			v.validate(node.Root)
		case nil:
			v.addProblem("capture %s has no root", node.Name)
		default:
			v.addProblem("capture %s is rooted in %T, want a captured value", node.Name, node.Root)
		}
	case Constant:
	case Unary:
		if node.Op != OpNot && node.Op != OpNegate {
			v.addProblem("unknown unary operator %s", node.Op)
		}
		v.validate(node.Operand)
	case Convert:
		if _, ok := convertNames[node.To]; !ok {
			v.addProblem("unknown conversion target %s", node.To)
		}
		v.validate(node.Operand)
	case Binary:
		if _, ok := binaryNames[node.Op]; !ok {
			v.addProblem("unknown binary operator %s", node.Op)
		}
		v.validate(node.Left)
		v.validate(node.Right)
	case MethodCall:
		if node.Method == "" {
			v.addProblem("call with empty method name")
		}
		if node.Object != nil {
			v.validate(node.Object)
		}
		for _, a := range node.Args {
			v.validate(a)
		}
	case Conditional:
		v.validate(node.Test)
		v.validate(node.Then)
		v.validate(node.Else)
	default:
		v.addProblem("unknown node type %T", n)
	}
}
