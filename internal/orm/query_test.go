package orm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litequery/internal/qerr"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/store"
	"github.com/roach88/litequery/internal/testutil"
)

var (
	col = queryir.Col
	val = queryir.Const
)

func itemID(i testutil.Item) int64         { return i.Id }
func employeeID(e testutil.Employee) int64 { return e.Id }
func objOrder(o testutil.TestObj) int64    { return int64(o.Order) }

func TestOrPredicate_SelectsRowsInOrder(t *testing.T) {
	for _, driver := range []string{store.DriverCGo, store.DriverPure} {
		t.Run(driver, func(t *testing.T) {
			db := openTestDB(t, store.WithDriver(driver))
			seed(t, db, testutil.Items())

			items, err := Table[testutil.Item](db).
				Where(queryir.OrElse(
					queryir.Eq(col("ColumnA"), val("Foo")),
					queryir.Eq(col("ColumnB"), val("Qux")),
				)).
				OrderBy(col("Id")).
				ToList(context.Background())
			require.NoError(t, err)

			assert.Equal(t, []int64{1, 3}, ids(items, itemID))
			assert.Equal(t, "Foo", items[0].ColumnA)
			assert.Equal(t, "Qux", items[1].ColumnB)
		})
	}
}

func TestInsert_SetsAutoIncrementKey(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, testutil.Items())

	item := testutil.Item{ColumnA: "new", ColumnB: "row"}
	n, err := Table[testutil.Item](db).Insert(context.Background(), &item)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(4), item.Id)
}

func TestWhere_Conjunction(t *testing.T) {
	db := openTestDB(t)
	a := queryir.Gt(col("Age"), val(23))
	b := queryir.Eq(col("Address"), val("Texas"))

	chained, chainedArgs, err := Table[testutil.Employee](db).Where(a).Where(b).SQL()
	require.NoError(t, err)
	combined, combinedArgs, err := Table[testutil.Employee](db).Where(queryir.AndAlso(a, b)).SQL()
	require.NoError(t, err)

	assert.Equal(t, combined, chained)
	assert.Equal(t, combinedArgs, chainedArgs)
}

func TestPagination_Algebra(t *testing.T) {
	db := openTestDB(t)
	q := Table[testutil.TestObj](db).OrderBy(col("Order"))

	sql := func(q TableQuery[testutil.TestObj]) string {
		t.Helper()
		text, _, err := q.SQL()
		require.NoError(t, err)
		return text
	}

	assert.Equal(t, sql(q.Skip(5)), sql(q.Skip(2).Skip(3)))
	assert.Equal(t, sql(q.Take(3)), sql(q.Take(5).Take(3)))
	assert.Equal(t, sql(q.Take(3)), sql(q.Take(3).Take(5)))
	assert.Contains(t, sql(q.Skip(5)), "limit -1 offset 5")
}

func TestWhere_AfterPaginationFails(t *testing.T) {
	db := openTestDB(t)
	pred := queryir.Eq(col("Id"), val(1))

	for name, q := range map[string]TableQuery[testutil.Employee]{
		"take": Table[testutil.Employee](db).Take(1).Where(pred),
		"skip": Table[testutil.Employee](db).Skip(1).Where(pred),
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, qerr.IsInvalidComposition(q.Err()))
			_, err := q.ToList(context.Background())
			assert.True(t, qerr.IsInvalidComposition(err))
		})
	}
}

func TestQuery_Immutable(t *testing.T) {
	db := openTestDB(t)
	seedJoinFixture(t, db)
	ctx := context.Background()

	base := Table[testutil.Employee](db).Where(queryir.Gt(col("Age"), val(24)))
	young := base.Where(queryir.Lt(col("Age"), val(28))).OrderBy(col("Age")).ThenBy(col("Id"))
	paged := base.OrderByDescending(col("Salary")).Take(2)

	all, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, all)

	got, err := young.ToList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 5}, ids(got, employeeID))

	top, err := paged.ToList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4}, ids(top, employeeID))

	// base is unchanged by the derived queries
	again, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, again)
}

func TestOrderBy_ThenBy(t *testing.T) {
	db := openTestDB(t)
	seedJoinFixture(t, db)

	got, err := Table[testutil.Employee](db).
		OrderBy(col("Age")).
		ThenByDescending(col("Id")).
		ToList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 3, 7, 4, 2, 5, 1}, ids(got, employeeID))
}

func TestOrderBy_RejectsNonColumn(t *testing.T) {
	db := openTestDB(t)

	q := Table[testutil.Employee](db).OrderBy(queryir.Add(col("Age"), val(1)))
	assert.True(t, qerr.IsInvalidComposition(q.Err()))

	q = Table[testutil.Employee](db).OrderBy(col("Missing"))
	assert.True(t, qerr.IsUnresolvedColumn(q.Err()))
}

func TestWhere_RejectsMalformedTree(t *testing.T) {
	db := openTestDB(t)

	q := Table[testutil.Employee](db).Where(nil)
	assert.True(t, qerr.IsUnsupportedExpression(q.Err()))

	q = Table[testutil.Employee](db).Where(queryir.Eq(col(""), val(1)))
	assert.True(t, qerr.IsUnsupportedExpression(q.Err()))
}

func TestCompile_UnsupportedSurfacesAtTerminal(t *testing.T) {
	db := openTestDB(t)
	seedJoinFixture(t, db)

	q := Table[testutil.Employee](db).Where(queryir.Cond(
		queryir.Eq(col("Active"), val(true)),
		val(true),
		val(false),
	))
	require.NoError(t, q.Err())

	_, err := q.ToList(context.Background())
	assert.True(t, qerr.IsUnsupportedExpression(err))
}

func TestCompile_Deterministic(t *testing.T) {
	db := openTestDB(t)
	q := Table[testutil.Employee](db).
		Where(queryir.AndAlso(
			queryir.In(queryir.Values([]int64{1, 2}), col("Id")),
			queryir.Contains(col("Name"), val("a")),
		)).
		OrderBy(col("Name")).
		Skip(1)

	text1, args1, err := q.SQL()
	require.NoError(t, err)
	text2, args2, err := q.SQL()
	require.NoError(t, err)
	assert.Equal(t, text1, text2)
	assert.Equal(t, args1, args2)
}

func TestVariable_ReadAtEachCompile(t *testing.T) {
	db := openTestDB(t)
	seedJoinFixture(t, db)
	ctx := context.Background()

	name := "Paul"
	q := Table[testutil.Employee](db).Where(queryir.Eq(col("Name"), queryir.Var("name", func() any { return name })))

	first, err := q.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Id)

	name = "Kim"
	first, err = q.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), first.Id)
}

func TestNullComparison(t *testing.T) {
	db := openTestDB(t)
	seedJoinFixture(t, db)
	ctx := context.Background()

	noManager, err := Table[testutil.Employee](db).
		Where(queryir.Eq(col("ManagerId"), queryir.Null())).
		OrderBy(col("Id")).
		ToList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 6}, ids(noManager, employeeID))
	assert.Nil(t, noManager[0].ManagerId)

	managed, err := Table[testutil.Employee](db).CountWhere(ctx, queryir.Ne(queryir.Null(), col("ManagerId")))
	require.NoError(t, err)
	assert.Equal(t, 5, managed)
}

func TestStringRewrites(t *testing.T) {
	db := openTestDB(t)
	seedJoinFixture(t, db)
	ctx := context.Background()

	testCases := []struct {
		name string
		pred queryir.Node
		want []int64
	}{
		{"contains", queryir.Contains(col("Address"), val("-")), []int64{4, 6}},
		{"starts with", queryir.StartsWith(col("Name"), val("Da")), []int64{5}},
		{"ends with", queryir.EndsWith(col("Name"), val("es")), []int64{7}},
		{"lower equals", queryir.Equals(queryir.ToLower(col("Name")), val("mark")), []int64{4}},
		{"upper", queryir.Eq(queryir.ToUpper(col("Address")), val("TEXAS")), []int64{2, 5}},
		{"membership", queryir.In(queryir.Values([]string{"Kim", "Paul"}), col("Name")), []int64{1, 6}},
		{"like", queryir.Like(col("Name"), val("_a%")), []int64{1, 4, 5, 7}},
		{"fallback function", queryir.Eq(queryir.Func("Length", col("Name")), val(3)), []int64{6}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Table[testutil.Employee](db).Where(tc.pred).OrderBy(col("Id")).ToList(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got, employeeID))
		})
	}
}

func TestGolden_Commands(t *testing.T) {
	db := openTestDB(t)
	employees := Table[testutil.Employee](db)

	testCases := []struct {
		name  string
		query func() (string, []any, error)
	}{
		{
			name: "join_filtered_ordered",
			query: Join[testutil.Employee, testutil.Department](
				employees.Where(queryir.Gt(col("Age"), val(20))).OrderBy(col("Id")),
				col("Id"), col("EmployeeId"), InnerJoin,
			).SQL,
		},
		{
			name: "count_active",
			query: func() (string, []any, error) {
				cmd, err := employees.Where(queryir.Eq(col("Active"), val(true))).Command("count(*)")
				if err != nil {
					return "", nil, err
				}
				return cmd.Text(), cmd.Args(), nil
			},
		},
		{
			name: "delete_filtered",
			query: func() (string, []any, error) {
				return employees.Where(queryir.Eq(col("Address"), val("Texas"))).DeleteSQL(queryir.Gt(col("Age"), val(26)))
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			text, args, err := tc.query()
			require.NoError(t, err)
			testutil.AssertCommandGolden(t, tc.name, text, args)
		})
	}
}
