package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/litequery/internal/qerr"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <query.yaml>",
		Short: "Run a query file against a database",
		Long: `Run a YAML query file against the SQLite database and print the
selected rows, the row count (count: true) or the number of rows deleted
(delete: true).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExec(opts *RootOptions, queryPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := opts.loadSchema(formatter, LoadModeFailFast)
	if err != nil {
		return err
	}
	qf, err := LoadQueryFile(opts.Fs, queryPath)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	db, closeDB, err := opts.openDB(formatter, s)
	if err != nil {
		return err
	}
	defer closeDB()

	plan, err := BuildPlan(db, s, qf)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	text, _, err := plan.SQL()
	if err != nil {
		return failQuery(formatter, err)
	}
	formatter.VerboseLog("Running %s", text)

	result, err := plan.Run(cmd.Context())
	if err != nil {
		var qe *qerr.Error
		if errors.As(err, &qe) {
			return failQuery(formatter, err)
		}
		return formatter.Fail(ExitFailure, ErrCodeExecFailed, err.Error(), nil)
	}
	return outputExecSuccess(formatter, result)
}

// outputExecSuccess outputs the rows or counts of a run.
func outputExecSuccess(formatter *OutputFormatter, result *Result) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	switch result.Kind {
	case "delete":
		formatter.Check("Deleted %d row(s)", result.Count)
		return nil
	case "count":
		formatter.Check("%d row(s)", result.Count)
		return nil
	}

	formatter.Check("%d row(s)", result.Count)
	for _, row := range result.Rows {
		if len(result.Columns) == 0 {
			fmt.Fprintf(formatter.Writer, "  %v\n", row)
			continue
		}
		fields := make([]string, len(result.Columns))
		for i, c := range result.Columns {
			fields[i] = fmt.Sprintf("%s=%v", c, formatValue(row[c]))
		}
		fmt.Fprintf(formatter.Writer, "  %s\n", strings.Join(fields, " "))
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case []byte:
		return fmt.Sprintf("0x%x", x)
	}
	return fmt.Sprint(v)
}
