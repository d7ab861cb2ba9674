package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litequery/internal/canon"
	"github.com/roach88/litequery/internal/orm"
	"github.com/roach88/litequery/internal/qerr"
)

// CompiledQuery is the output of the compile command.
type CompiledQuery struct {
	Kind        string `json:"kind"`
	Table       string `json:"table"`
	SQL         string `json:"sql"`
	Args        []any  `json:"args"`
	Fingerprint string `json:"fingerprint"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a query file to parameterized SQL",
		Long: `Compile a YAML query file against the CUE schema and print the SQL
text with its parameter values, without opening a database.

The where key holds a predicate over the table's columns:

  Age >= $min && Name.StartsWith("J") || ManagerId == null
  Id in $ids && like(Name, '_a%')

$name reads vars.name from the query file. Methods: Contains, StartsWith,
EndsWith, Equals, ToLower, ToUpper; like(a, b) and any other free call
become SQL functions; int64(x), float64(x), string(x), ... convert.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCompile(opts *RootOptions, queryPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := opts.loadSchema(formatter, LoadModeCollectAll)
	if err != nil {
		return err
	}
	qf, err := LoadQueryFile(opts.Fs, queryPath)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	// A DB without a connection compiles but never executes.
	db := orm.New(nil, orm.WithCreateFlags(s.Flags), orm.WithLogger(opts.Logger))
	plan, err := BuildPlan(db, s, qf)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	text, args, err := plan.SQL()
	if err != nil {
		return failQuery(formatter, err)
	}

	fp, err := canon.Fingerprint(text, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}
	if args == nil {
		args = []any{}
	}
	result := CompiledQuery{
		Kind:        plan.Kind(),
		Table:       qf.Table,
		SQL:         text,
		Args:        args,
		Fingerprint: fp,
	}
	return outputCompileSuccess(formatter, result)
}

// outputCompileSuccess outputs the compiled statement.
func outputCompileSuccess(formatter *OutputFormatter, result CompiledQuery) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	argsJSON, err := canon.Marshal(result.Args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}
	formatter.Check("Compiled %s on %s", result.Kind, result.Table)
	fmt.Fprintln(formatter.Writer)
	formatter.SQL(result.SQL)
	fmt.Fprintf(formatter.Writer, "\nargs: %s\n", argsJSON)
	fmt.Fprintf(formatter.Writer, "fingerprint: %s\n", result.Fingerprint)
	return nil
}

// failQuery reports a query that does not compile. Expression and
// composition errors carry their own code and offending expression.
func failQuery(formatter *OutputFormatter, err error) error {
	var qe *qerr.Error
	if errors.As(err, &qe) {
		return formatter.Fail(ExitCommandError, ErrCodeQuery, qe.Error(), map[string]string{
			"kind": string(qe.Code),
			"expr": qe.Expr,
		})
	}
	return formatter.Fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
}
