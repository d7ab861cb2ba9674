package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/litequery/internal/orm"
	"github.com/roach88/litequery/internal/store"
)

// RootOptions holds global flags for all commands. Flag values are
// replaced by the resolved configuration before any command runs.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string
	Driver  string
	Schema  string

	Fs     afero.Fs
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the litequery CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(afero.NewOsFs())
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	opts := &RootOptions{Fs: fs}

	cmd := &cobra.Command{
		Use:   "litequery",
		Short: "litequery - typed SQLite queries",
		Long: `Compile and run queries against SQLite tables described by CUE schemas.

Queries are YAML files with a predicate written in a small expression
language; see "litequery compile --help".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database file")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", store.DriverCGo, "database driver (sqlite3|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "CUE schema file or directory")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// resolve loads the layered configuration into opts and sets up logging.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	cfg, err := LoadConfig(opts.Fs, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	opts.Verbose = cfg.Verbose
	opts.Format = cfg.Format
	opts.DB = cfg.DB
	opts.Driver = cfg.Driver
	opts.Schema = cfg.Schema

	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// formatter builds the output formatter for cmd.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		Color:     !color.NoColor,
	}
}

// loadSchema loads the configured schema, reporting failures through f.
func (opts *RootOptions) loadSchema(f *OutputFormatter, mode LoadMode) (*Schema, error) {
	if opts.Schema == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "no schema: set --schema, LITEQUERY_SCHEMA or schema in litequery.yaml", nil)
	}
	s, errs := LoadSchema(opts.Fs, opts.Schema, mode)
	if len(errs) > 0 {
		code, message := loadErrorCode(errs[0])
		details := make([]string, len(errs))
		for i, err := range errs {
			details[i] = err.Error()
		}
		return nil, f.Fail(ExitCommandError, code, message, details)
	}
	f.VerboseLog("Loaded %d table(s) from %d CUE file(s)", len(s.Tables), s.FileCount)
	return s, nil
}

// openDB opens the configured database with the schema's mapping flags.
func (opts *RootOptions) openDB(f *OutputFormatter, s *Schema) (*orm.DB, func(), error) {
	if opts.DB == "" {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, "no database: set --db, LITEQUERY_DB or db in litequery.yaml", nil)
	}
	st, err := store.Open(opts.DB, store.WithDriver(opts.Driver), store.WithLogger(opts.Logger))
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	db := orm.New(st, orm.WithCreateFlags(s.Flags), orm.WithLogger(opts.Logger))
	closeFn := func() {
		if err := st.Close(); err != nil {
			opts.Logger.Error("closing database", "path", opts.DB, "error", err)
		}
	}
	return db, closeFn, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
