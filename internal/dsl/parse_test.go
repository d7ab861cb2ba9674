package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/querysql"
	"github.com/roach88/litequery/internal/schema"
	"github.com/roach88/litequery/internal/testutil"
)

func TestParse_Text(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{"comparison", `Age >= 18`, `(x.Age >= 18)`},
		{"precedence", `A == 1 || B == 2 && C != 3`, `((x.A == 1) || ((x.B == 2) && (x.C != 3)))`},
		{"parentheses", `(A == 1 || B == 2) && C`, `(((x.A == 1) || (x.B == 2)) && x.C)`},
		{"bitwise", `Flags & 4 | 1`, `((x.Flags & 4) | 1)`},
		{"arithmetic", `Age + 1 - 2 > 3`, `(((x.Age + 1) - 2) > 3)`},
		{"negative literal folds", `Age > -5`, `(x.Age > -5)`},
		{"negated column", `-Age < 0`, `(-x.Age < 0)`},
		{"not", `!Active`, `!x.Active`},
		{"null", `ManagerId == null`, `(x.ManagerId == null)`},
		{"booleans", `Active == true || Active == false`, `((x.Active == true) || (x.Active == false))`},
		{"double quoted", `Name == "a \"b\""`, `(x.Name == "a \"b\"")`},
		{"single quoted", `Name == 'Paul'`, `(x.Name == "Paul")`},
		{"float", `Salary > 1.5e3`, `(x.Salary > 1500)`},
		{"method", `Name.contains("a")`, `x.Name.Contains("a")`},
		{"chained methods", `Name.ToLower().StartsWith("p")`, `x.Name.ToLower().StartsWith("p")`},
		{"function", `like(Name, '_a%')`, `Like(x.Name, "_a%")`},
		{"conversion", `int64(Salary) > 10`, `(int64(x.Salary) > 10)`},
		{"ternary", `Active ? Age > 1 : false`, `(x.Active ? (x.Age > 1) : false)`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Parse(tc.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{"empty", ``, "parse predicate"},
		{"dangling operator", `Age >`, "parse predicate"},
		{"chained comparison", `A == B == C`, "parse predicate"},
		{"undefined variable", `Age > $min`, "undefined variable $min"},
		{"member of column", `Name.Length`, "only variables have members"},
		{"conversion arity", `int64(A, B)`, "takes 1 argument"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_Compiles(t *testing.T) {
	table := testutil.Mapping[testutil.Employee](schema.CreateNone)
	vars := map[string]any{
		"ids":    []int64{1, 2, 7},
		"min":    25,
		"filter": map[string]any{"City": "Texas"},
		"boss":   testutil.Employee{Id: 4},
	}

	testCases := []struct {
		name     string
		src      string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "membership",
			src:      `Id in $ids && Age >= $min`,
			wantSQL:  `(("Id" in (?,?,?)) and ("Age" >= ?))`,
			wantArgs: []any{int64(1), int64(2), int64(7), 25},
		},
		{
			name:     "map member",
			src:      `Address == $filter.City`,
			wantSQL:  `("Address" = ?)`,
			wantArgs: []any{"Texas"},
		},
		{
			name:     "entity member",
			src:      `ManagerId == $boss.Id`,
			wantSQL:  `("ManagerId" = ?)`,
			wantArgs: []any{int64(4)},
		},
		{
			name:     "string contains",
			src:      `Name.Contains("a") || ManagerId != null`,
			wantSQL:  `(("Name" like ('%' || ? || '%')) or ("ManagerId" is not ?))`,
			wantArgs: []any{"a", nil},
		},
		{
			name:     "like function",
			src:      `like(Name, 'P%')`,
			wantSQL:  `("Name" like ?)`,
			wantArgs: []any{"P%"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Parse(tc.src, vars)
			require.NoError(t, err)
			c := querysql.NewCompiler(table)
			r, err := c.Compile(n)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, r.CommandText)
			assert.Equal(t, tc.wantArgs, c.Args)
		})
	}
}

func TestParse_VariablesReadLive(t *testing.T) {
	table := testutil.Mapping[testutil.Employee](schema.CreateNone)
	vars := map[string]any{"name": "Paul"}
	n := MustParse(`Name == $name`, vars)

	compile := func() []any {
		c := querysql.NewCompiler(table)
		_, err := c.Compile(n)
		require.NoError(t, err)
		return c.Args
	}
	assert.Equal(t, []any{"Paul"}, compile())
	vars["name"] = "Kim"
	assert.Equal(t, []any{"Kim"}, compile())
}

func TestParse_Validates(t *testing.T) {
	n, err := Parse(`$a.B.C == 1 && Active`, map[string]any{"a": nil})
	require.NoError(t, err)
	assert.True(t, queryir.Validate(n).Valid)
}
