package testutil

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/litequery/internal/canon"
)

// AssertCommandGolden compares a compiled command against
// testdata/golden/{name}.golden in the calling package.
//
// The snapshot is the SQL text on the first line and the canonical JSON of
// the bound values on the second. To regenerate golden files, run:
//
//	go test ./internal/... -update
func AssertCommandGolden(t *testing.T, name, sql string, args []any) {
	t.Helper()

	if args == nil {
		args = []any{}
	}
	argsJSON, err := canon.Marshal(args)
	if err != nil {
		t.Fatalf("encode args: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(fmt.Sprintf("%s\n%s\n", sql, argsJSON)))
}
