// Command litequery compiles and runs YAML query files against SQLite
// tables described by CUE schemas.
//
// Usage:
//
//	litequery schema --schema schema.cue               # Print DDL
//	litequery schema --schema schema.cue --apply --db app.db
//	litequery compile --schema schema.cue query.yaml   # Print SQL and parameters
//	litequery exec --schema schema.cue --db app.db query.yaml
package main

import (
	"fmt"
	"os"

	"github.com/roach88/litequery/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "litequery:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
