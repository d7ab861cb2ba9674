package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litequery/internal/qerr"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/schema"
	"github.com/roach88/litequery/internal/testutil"
)

var (
	col   = queryir.Col
	val   = queryir.Const
	empty = []any(nil)
)

func employeeCompiler() *Compiler {
	return NewCompiler(testutil.Mapping[testutil.Employee](schema.CreateNone))
}

func TestCompile_Nodes(t *testing.T) {
	desc := schema.DescriptorOf[testutil.Employee]()
	boss := testutil.Employee{Age: 40, Name: "Paul"}
	team := map[string]any{"lead": boss, "ids": []int64{1, 2}}

	testCases := []struct {
		name string
		node queryir.Node
		sql  string
		args []any
	}{
		{"equality", queryir.Eq(col("Name"), val("Paul")), `("Name" = ?)`, []any{"Paul"}},
		{"inequality", queryir.Ne(col("Age"), val(25)), `("Age" != ?)`, []any{25}},
		{"greater", queryir.Gt(col("Age"), val(25)), `("Age" > ?)`, []any{25}},
		{"greater or equal", queryir.Ge(col("Age"), val(25)), `("Age" >= ?)`, []any{25}},
		{"less", queryir.Lt(col("Age"), val(25)), `("Age" < ?)`, []any{25}},
		{"less or equal", queryir.Le(col("Age"), val(25)), `("Age" <= ?)`, []any{25}},
		{
			"and also",
			queryir.AndAlso(queryir.Ge(col("Age"), val(23)), queryir.Le(col("Age"), val(25))),
			`(("Age" >= ?) and ("Age" <= ?))`,
			[]any{23, 25},
		},
		{
			"or else",
			queryir.OrElse(queryir.Eq(col("Name"), val("Kim")), col("Active")),
			`(("Name" = ?) or "Active")`,
			[]any{"Kim"},
		},
		{"bitwise and", queryir.BitAnd(col("Age"), val(1)), `("Age" & ?)`, []any{1}},
		{"bitwise or", queryir.BitOr(col("Age"), val(1)), `("Age" | ?)`, []any{1}},
		{"numeric add", queryir.Add(col("Age"), val(1)), `("Age" + ?)`, []any{1}},
		{"subtract", queryir.Sub(col("Salary"), val(1.5)), `("Salary" - ?)`, []any{1.5}},
		{"string add concatenates", queryir.Add(col("Name"), val("!")), `("Name" || ?)`, []any{"!"}},
		{"string literal add concatenates", queryir.Add(val(">"), col("Age")), `(? || "Age")`, []any{">"}},
		{
			"nested string add",
			queryir.Eq(queryir.Add(queryir.Add(col("Name"), val(" ")), col("Address")), val("Paul California")),
			`((("Name" || ?) || "Address") = ?)`,
			[]any{" ", "Paul California"},
		},

		// null rewrites
		{"equal null", queryir.Eq(col("ManagerId"), queryir.Null()), `("ManagerId" is ?)`, []any{nil}},
		{"not equal null", queryir.Ne(col("ManagerId"), queryir.Null()), `("ManagerId" is not ?)`, []any{nil}},
		{"null on the left", queryir.Eq(queryir.Null(), col("ManagerId")), `("ManagerId" is ?)`, []any{nil}},
		{
			"null against expression keeps emission order",
			queryir.Eq(queryir.Null(), queryir.Add(col("Age"), val(1))),
			`(("Age" + ?) is ?)`,
			[]any{1, nil},
		},

		// method rewrites
		{
			"string contains",
			queryir.Contains(col("Name"), val("a")),
			`("Name" like ('%' || ? || '%'))`,
			[]any{"a"},
		},
		{"starts with", queryir.StartsWith(col("Name"), val("P")), `("Name" like (? || '%'))`, []any{"P"}},
		{"ends with", queryir.EndsWith(col("Name"), val("l")), `("Name" like ('%' || ?))`, []any{"l"}},
		{"equals", queryir.Equals(col("Name"), val("Paul")), `("Name" = (?))`, []any{"Paul"}},
		{"to lower", queryir.ToLower(col("Name")), `(lower("Name"))`, empty},
		{"to upper", queryir.ToUpper(col("Name")), `(upper("Name"))`, empty},
		{
			"lowered comparison",
			queryir.Eq(queryir.ToLower(col("Name")), val("paul")),
			`((lower("Name")) = ?)`,
			[]any{"paul"},
		},
		{
			"lowered concatenation",
			queryir.Add(queryir.ToUpper(col("Address")), val("!")),
			`((upper("Address")) || ?)`,
			[]any{"!"},
		},
		{"static like", queryir.Like(col("Name"), val("P%")), `("Name" like ?)`, []any{"P%"}},
		{
			"static contains is membership",
			queryir.In(queryir.Values([]int64{1, 2, 7}), col("Id")),
			`("Id" in (?,?,?))`,
			[]any{int64(1), int64(2), int64(7)},
		},
		{
			"collection contains is membership",
			queryir.Contains(queryir.Values([]string{"Kim", "Paul"}), col("Name")),
			`("Name" in (?,?))`,
			[]any{"Kim", "Paul"},
		},
		{
			"membership binds item before collection",
			queryir.In(queryir.Values([]int{1, 2}), val(2)),
			`(? in (?,?))`,
			[]any{2, 1, 2},
		},
		{
			"string variable contains is like",
			queryir.Contains(queryir.Var("s", func() any { return "Paul" }), col("Name")),
			`(? like ('%' || "Name" || '%'))`,
			[]any{"Paul"},
		},
		{"empty collection", queryir.In(queryir.Values([]int{}), col("Id")), `("Id" in ())`, empty},

		// unary and conversions
		{"not column", queryir.Not(col("Active")), `NOT("Active")`, empty},
		{"not comparison", queryir.Not(queryir.Eq(col("Age"), val(25))), `NOT(("Age" = ?))`, []any{25}},
		{"not bool literal negates the value", queryir.Not(val(true)), `?`, []any{false}},
		{"negate literal", queryir.Negate(val(5)), `?`, []any{-5}},
		{"negate column", queryir.Negate(col("Age")), `(-"Age")`, empty},
		{"convert literal", queryir.ConvertTo(val("42"), queryir.ToInt64), `?`, []any{int64(42)}},
		{"convert column is transparent", queryir.ConvertTo(col("Age"), queryir.ToInt64), `"Age"`, empty},
		{"convert null passes through", queryir.ConvertNullable(queryir.Null(), queryir.ToInt), `?`, []any{nil}},
		{
			"converted null still rewrites",
			queryir.Eq(col("ManagerId"), queryir.ConvertNullable(queryir.Null(), queryir.ToInt64)),
			`("ManagerId" is ?)`,
			[]any{nil},
		},

		// captured values
		{"variable", queryir.Gt(col("Age"), queryir.Var("min", func() any { return 30 })), `("Age" > ?)`, []any{30}},
		{
			"captured member",
			queryir.Gt(col("Age"), queryir.Prop(queryir.Var("boss", func() any { return boss }), "Age", desc)),
			`("Age" > ?)`,
			[]any{40},
		},
		{
			"nested captured member",
			queryir.Eq(col("Name"),
				queryir.Prop(queryir.Prop(val(team), "lead", schema.MapAccessor{}), "Name", desc)),
			`("Name" = ?)`,
			[]any{"Paul"},
		},
		{
			"captured collection expands",
			queryir.In(queryir.Prop(val(team), "ids", schema.MapAccessor{}), col("Id")),
			`("Id" in (?,?))`,
			[]any{int64(1), int64(2)},
		},
		{
			"captured bytes bind once",
			queryir.Eq(col("Name"), queryir.Var("raw", func() any { return []byte("Paul") })),
			`("Name" = ?)`,
			[]any{[]byte("Paul")},
		},

		// fallback function calls
		{"fallback function", queryir.Func("abs", col("Age")), `abs("Age")`, empty},
		{"fallback lowercases the name", queryir.Func("COALESCE", col("ManagerId"), val(0)), `coalesce("ManagerId",?)`, []any{0}},
		{"fallback method passes receiver first", queryir.Call(col("Name"), "Trim"), `trim("Name")`, empty},
		{
			"fallback method with args",
			queryir.Call(col("Name"), "Substr", val(1), val(2)),
			`substr("Name",?,?)`,
			[]any{1, 2},
		},
		{
			"rewrite names without receiver fall back",
			queryir.Func("ToLower", col("Name")),
			`tolower("Name")`,
			empty,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := employeeCompiler()
			r, err := c.Compile(tc.node)
			require.NoError(t, err)
			assert.Equal(t, tc.sql, r.CommandText)
			assert.Equal(t, tc.args, c.Args)
			assert.Equal(t, len(c.Args), countPlaceholders(r.CommandText), "one bound value per placeholder")
		})
	}
}

func countPlaceholders(sql string) int {
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
		}
	}
	return n
}

func TestCompile_MemberResult(t *testing.T) {
	c := employeeCompiler()

	r, err := c.Compile(col("ManagerId"))
	require.NoError(t, err)
	assert.Equal(t, `"ManagerId"`, r.CommandText)
	assert.Equal(t, "ManagerId", r.RawText)
	assert.Nil(t, r.Value)

	c.Alias = "o"
	r, err = c.Compile(col("Name"))
	require.NoError(t, err)
	assert.Equal(t, `o."Name"`, r.CommandText)
	assert.Equal(t, "Name", r.RawText)
}

func TestCompile_QuotesKeywordColumns(t *testing.T) {
	c := NewCompiler(testutil.Mapping[testutil.TestObj](schema.CreateNone))

	r, err := c.Compile(queryir.Gt(col("Order"), val(3)))
	require.NoError(t, err)
	assert.Equal(t, `("Order" > ?)`, r.CommandText)
}

func TestCompile_VariableReadAtEveryCompile(t *testing.T) {
	limit := 10
	node := queryir.Lt(col("Age"), queryir.Var("limit", func() any { return limit }))

	c := employeeCompiler()
	_, err := c.Compile(node)
	require.NoError(t, err)

	limit = 20
	_, err = c.Compile(node)
	require.NoError(t, err)

	assert.Equal(t, []any{10, 20}, c.Args)
}

func TestCompile_Errors(t *testing.T) {
	desc := schema.DescriptorOf[testutil.Employee]()

	testCases := []struct {
		name       string
		node       queryir.Node
		code       qerr.Code
		unresolved bool
	}{
		{"nil node", nil, qerr.CodeUnsupportedExpression, false},
		{"unknown member", queryir.Eq(col("Title"), val("x")), qerr.CodeUnresolvedColumn, true},
		{"unknown member deep in tree", queryir.Not(queryir.Contains(col("Title"), val("x"))), qerr.CodeUnresolvedColumn, true},
		{"conditional", queryir.Cond(col("Active"), val(1), val(0)), qerr.CodeUnsupportedExpression, false},
		{"multiply", queryir.Binary{Op: queryir.OpMultiply, Left: col("Age"), Right: val(2)}, qerr.CodeUnsupportedExpression, false},
		{"coalesce", queryir.Binary{Op: queryir.OpCoalesce, Left: col("ManagerId"), Right: val(0)}, qerr.CodeUnsupportedExpression, false},
		{"ordering against null", queryir.Gt(col("Age"), queryir.Null()), qerr.CodeUnsupportedExpression, false},
		{"negate string", queryir.Negate(val("x")), qerr.CodeUnsupportedExpression, false},
		{"bad conversion", queryir.ConvertTo(val("abc"), queryir.ToInt64), qerr.CodeUnsupportedExpression, false},
		{"capture rooted in entity", queryir.Prop(col("Name"), "Length", desc), qerr.CodeUnsupportedExpression, false},
		{"capture of null", queryir.Prop(queryir.Null(), "Age", desc), qerr.CodeUnsupportedExpression, false},
		{"capture without accessor", queryir.Prop(val(1), "Age", nil), qerr.CodeUnsupportedExpression, false},
		{"capture of missing member", queryir.Prop(val(testutil.Employee{}), "Title", desc), qerr.CodeUnsupportedExpression, false},
		{"variable without getter", queryir.Var("x", nil), qerr.CodeUnsupportedExpression, false},
		{"empty method", queryir.Call(col("Name"), ""), qerr.CodeUnsupportedExpression, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := employeeCompiler()
			_, err := c.Compile(queryir.Eq(col("Id"), val(1)))
			require.NoError(t, err)

			r, err := c.Compile(tc.node)
			require.Error(t, err)
			assert.Equal(t, tc.code, qerr.CodeOf(err))
			assert.True(t, qerr.IsUnsupportedExpression(err))
			assert.Equal(t, tc.unresolved, qerr.IsUnresolvedColumn(err))
			assert.Empty(t, r.CommandText, "no partial SQL")
			assert.Equal(t, []any{1}, c.Args, "failed compile binds nothing")
		})
	}
}

func TestCompile_UnsupportedCarriesNodeText(t *testing.T) {
	c := employeeCompiler()
	_, err := c.Compile(queryir.Cond(col("Active"), val(1), val(0)))

	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "(x.Active ? 1 : 0)", qe.Expr)
}

func TestCompileColumn(t *testing.T) {
	c := employeeCompiler()

	r, err := c.CompileColumn(col("Name"))
	require.NoError(t, err)
	assert.Equal(t, `"Name"`, r.CommandText)
	assert.Equal(t, "Name", r.RawText)

	r, err = c.CompileColumn(queryir.ConvertTo(col("Age"), queryir.ToInt64))
	require.NoError(t, err)
	assert.Equal(t, "Age", r.RawText)

	_, err = c.CompileColumn(queryir.Add(col("Age"), val(1)))
	assert.True(t, qerr.IsInvalidComposition(err))

	_, err = c.CompileColumn(col("Title"))
	assert.True(t, qerr.IsUnresolvedColumn(err))

	assert.Empty(t, c.Args)
}

func TestCompile_Deterministic(t *testing.T) {
	node := queryir.AndAlso(
		queryir.OrElse(
			queryir.StartsWith(col("Name"), val("P")),
			queryir.In(queryir.Values([]int{3, 5}), col("Id")),
		),
		queryir.Ne(col("ManagerId"), queryir.Null()),
	)

	c1, c2 := employeeCompiler(), employeeCompiler()
	r1, err := c1.Compile(node)
	require.NoError(t, err)
	r2, err := c2.Compile(node)
	require.NoError(t, err)

	assert.Equal(t, r1.CommandText, r2.CommandText)
	assert.Equal(t, c1.Args, c2.Args)
}
