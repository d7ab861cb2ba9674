package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litequery/internal/canon"
	"github.com/roach88/litequery/internal/orm"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Apply bool
}

// TableDDL is the DDL of one mapped table.
type TableDDL struct {
	Name       string   `json:"name"`
	Statements []string `json:"statements"`
}

// SchemaResult is the output of the schema command.
type SchemaResult struct {
	Tables  []TableDDL `json:"tables"`
	Hash    string     `json:"hash"`
	Applied bool       `json:"applied"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print or apply the DDL of the CUE schema",
		Long: `Map every table of the CUE schema and print its create table and
create index statements. With --apply, create the tables in the database
(existing tables are left alone).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "create the tables in --db")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := opts.loadSchema(formatter, LoadModeCollectAll)
	if err != nil {
		return err
	}

	db := orm.New(nil, orm.WithCreateFlags(s.Flags), orm.WithLogger(opts.Logger))
	result := SchemaResult{}
	var all []string
	for _, desc := range s.Tables {
		m := db.Mapping(desc)
		ddl := m.CreateTableSQL()
		if ddl == "" {
			return formatter.Fail(ExitCommandError, ErrCodeNoColumns, fmt.Sprintf("table %s has no mappable columns", desc.Name), nil)
		}
		stmts := append([]string{ddl}, m.CreateIndexSQL()...)
		result.Tables = append(result.Tables, TableDDL{Name: m.TableName, Statements: stmts})
		all = append(all, stmts...)
	}
	result.Hash = canon.MappingHash(all)

	if opts.Apply {
		live, closeDB, err := opts.openDB(formatter, s)
		if err != nil {
			return err
		}
		defer closeDB()
		for _, desc := range s.Tables {
			if err := orm.Dynamic(live, desc).CreateTable(cmd.Context()); err != nil {
				return formatter.Fail(ExitFailure, ErrCodeExecFailed, err.Error(), map[string]string{"table": desc.TableName()})
			}
		}
		result.Applied = true
	}

	return outputSchemaSuccess(formatter, result, opts.DB)
}

// outputSchemaSuccess outputs the DDL and whether it was applied.
func outputSchemaSuccess(formatter *OutputFormatter, result SchemaResult, dbPath string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, t := range result.Tables {
		for _, stmt := range t.Statements {
			formatter.SQL(stmt + ";")
		}
		fmt.Fprintln(formatter.Writer)
	}
	fmt.Fprintf(formatter.Writer, "hash: %s\n", result.Hash)
	if result.Applied {
		formatter.Check("Applied %d table(s) to %s", len(result.Tables), dbPath)
	}
	return nil
}
