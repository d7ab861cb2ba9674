package dsl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// predicateLexer defines the token types of the predicate language.
var predicateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Float", Pattern: `\d+\.\d+(?:[eE][-+]?\d+)?`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "RawString", Pattern: `'[^']*'`},
	{Name: "Var", Pattern: `\$[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Op", Pattern: `\|\||&&|==|!=|>=|<=|[-+!<>|&?:(),.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// expression is the root of the parse tree: an optional ternary over an
// or-chain.
type expression struct {
	Pos  lexer.Position
	Cond *orElse     `@@`
	Then *expression `( "?" @@`
	Else *expression `  ":" @@ )?`
}

type orElse struct {
	Head *andAlso   `@@`
	Tail []*andAlso `( "||" @@ )*`
}

type andAlso struct {
	Head *bitOr   `@@`
	Tail []*bitOr `( "&&" @@ )*`
}

type bitOr struct {
	Head *bitAnd   `@@`
	Tail []*bitAnd `( "|" @@ )*`
}

type bitAnd struct {
	Head *comparison   `@@`
	Tail []*comparison `( "&" @@ )*`
}

// comparison is non-associative: a == b == c does not parse.
type comparison struct {
	Pos   lexer.Position
	Left  *additive `@@`
	Op    string    `( @( "==" | "!=" | ">=" | "<=" | ">" | "<" | "in" )`
	Right *additive `  @@ )?`
}

type additive struct {
	Head *unary    `@@`
	Tail []*addend `@@*`
}

type addend struct {
	Op      string `@( "+" | "-" )`
	Operand *unary `@@`
}

type unary struct {
	Pos     lexer.Position
	Op      string   `( @( "!" | "-" )`
	Operand *unary   `  @@ )`
	Postfix *postfix `| @@`
}

type postfix struct {
	Primary *primary  `@@`
	Access  []*access `@@*`
}

// access is .Member or .Method(args).
type access struct {
	Pos  lexer.Position
	Name string        `"." @Ident`
	Call bool          `( @"("`
	Args []*expression `  ( @@ ( "," @@ )* )? ")" )?`
}

type primary struct {
	Pos       lexer.Position
	Null      bool        `  @"null"`
	True      bool        `| @"true"`
	False     bool        `| @"false"`
	Float     *float64    `| @Float`
	Int       *int64      `| @Int`
	String    *string     `| @String`
	RawString *string     `| @RawString`
	Var       string      `| @Var`
	Call      *funcCall   `| @@`
	Column    string      `| @Ident`
	Sub       *expression `| "(" @@ ")"`
}

type funcCall struct {
	Name string        `@Ident "("`
	Args []*expression `( @@ ( "," @@ )* )? ")"`
}

var parser = participle.MustBuild[expression](
	participle.Lexer(predicateLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(3),
)
