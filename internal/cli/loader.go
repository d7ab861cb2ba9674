package cli

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/spf13/afero"

	"github.com/roach88/litequery/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Schema is the set of tables declared by the CUE schema files.
//
//	flags: ["implicitPK", "autoIncPK"]
//	tables: Employee: {
//		table: "employees" // optional table name
//		columns: {
//			Id:   {type: "int", pk: true}
//			Name: {type: "string", notNull: true, maxLength: 64}
//			Dept: {type: "int", indexed: true}
//		}
//	}
type Schema struct {
	Tables    []schema.TypeDescriptor
	Flags     schema.CreateFlags
	FileCount int
}

// Table finds a table by its declared name or its table name.
func (s *Schema) Table(name string) (schema.TypeDescriptor, bool) {
	for _, t := range s.Tables {
		if t.Name == name || t.TableName() == name {
			return t, true
		}
	}
	return schema.TypeDescriptor{}, false
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// columnSpec is the CUE shape of one column.
type columnSpec struct {
	Type          string `json:"type"`
	Column        string `json:"column"`
	PK            bool   `json:"pk"`
	AutoIncrement bool   `json:"autoincrement"`
	NotNull       bool   `json:"notNull"`
	MaxLength     int    `json:"maxLength"`
	Collate       string `json:"collate"`
	Indexed       bool   `json:"indexed"`
	Index         string `json:"index"`
	Unique        bool   `json:"unique"`
	Order         int    `json:"order"`
	Ignore        bool   `json:"ignore"`
}

var flagNames = map[string]schema.CreateFlags{
	"implicitPK":    schema.ImplicitPK,
	"implicitIndex": schema.ImplicitIndex,
	"allImplicit":   schema.AllImplicit,
	"autoIncPK":     schema.AutoIncPK,
}

// LoadSchema loads table definitions from a .cue file or a directory of
// them. If mode is LoadModeFailFast, returns on first error.
func LoadSchema(fs afero.Fs, path string, mode LoadMode) (*Schema, []error) {
	files, err := findCUEFiles(fs, path)
	if err != nil {
		return nil, []error{err}
	}

	ctx := cuecontext.New()
	var value cue.Value
	for i, file := range files {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", file, err)}}
		}
		v := ctx.CompileBytes(data, cue.Filename(file))
		if err := v.Err(); err != nil {
			return nil, []error{cueLoadError(ErrCodeLoadFailed, err)}
		}
		if i == 0 {
			value = v
		} else {
			value = value.Unify(v)
		}
	}
	if err := value.Validate(); err != nil {
		return nil, []error{cueLoadError(ErrCodeBuildFailed, err)}
	}

	result := &Schema{FileCount: len(files)}
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	flags, err := parseFlags(value.LookupPath(cue.ParsePath("flags")))
	if err != nil && fail(err) {
		return result, errs
	}
	result.Flags = flags

	tablesVal := value.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		errs = append(errs, &LoadError{Code: ErrCodeNoTables, Message: "no tables defined", Pos: value.Pos()})
		return result, errs
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		errs = append(errs, cueLoadError(ErrCodeGeneric, err))
		return result, errs
	}
	for iter.Next() {
		desc, err := parseTable(iter.Label(), iter.Value())
		if err != nil {
			if fail(err) {
				return result, errs
			}
			continue
		}
		result.Tables = append(result.Tables, desc)
	}

	if len(result.Tables) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoTables, Message: "no tables defined", Pos: tablesVal.Pos()})
	}
	return result, errs
}

func parseFlags(v cue.Value) (schema.CreateFlags, error) {
	if !v.Exists() {
		return schema.CreateNone, nil
	}
	var names []string
	if err := v.Decode(&names); err != nil {
		return schema.CreateNone, cueLoadError(ErrCodeInvalidOption, err)
	}
	var flags schema.CreateFlags
	for _, name := range names {
		f, ok := flagNames[name]
		if !ok {
			return schema.CreateNone, &LoadError{
				Code:    ErrCodeInvalidOption,
				Message: fmt.Sprintf("unknown flag %q", name),
				Pos:     v.Pos(),
			}
		}
		flags |= f
	}
	return flags, nil
}

// parseTable builds a dynamic row descriptor from one table definition.
func parseTable(name string, v cue.Value) (schema.TypeDescriptor, error) {
	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return schema.TypeDescriptor{}, &LoadError{
			Code:    ErrCodeNoColumns,
			Message: fmt.Sprintf("table %s: columns are required", name),
			Pos:     v.Pos(),
		}
	}
	iter, err := colsVal.Fields()
	if err != nil {
		return schema.TypeDescriptor{}, cueLoadError(ErrCodeGeneric, err)
	}

	var members []schema.Member
	for iter.Next() {
		member, err := parseColumn(name, iter.Label(), iter.Value())
		if err != nil {
			return schema.TypeDescriptor{}, err
		}
		members = append(members, member)
	}
	if len(members) == 0 {
		return schema.TypeDescriptor{}, &LoadError{
			Code:    ErrCodeNoColumns,
			Message: fmt.Sprintf("table %s: at least one column is required", name),
			Pos:     colsVal.Pos(),
		}
	}

	desc := schema.DynamicType(name, members...)
	if tv := v.LookupPath(cue.ParsePath("table")); tv.Exists() {
		table, err := tv.String()
		if err != nil {
			return schema.TypeDescriptor{}, cueLoadError(ErrCodeInvalidOption, err)
		}
		desc = desc.WithTable(table)
	}
	return desc, nil
}

func parseColumn(table, name string, v cue.Value) (schema.Member, error) {
	var spec columnSpec
	if err := v.Decode(&spec); err != nil {
		return schema.Member{}, cueLoadError(ErrCodeInvalidOption, err)
	}
	kind, ok := schema.ParseKind(spec.Type)
	if !ok {
		return schema.Member{}, &LoadError{
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("%s.%s: unknown column type %q", table, name, spec.Type),
			Pos:     v.Pos(),
		}
	}

	// every declared column maps, whatever the case of its name
	opts := []schema.ColumnOption{schema.Column(cmp.Or(spec.Column, name))}
	if spec.PK {
		opts = append(opts, schema.PrimaryKey())
	}
	if spec.AutoIncrement {
		opts = append(opts, schema.AutoIncrement())
	}
	if spec.NotNull {
		opts = append(opts, schema.NotNull())
	}
	if spec.MaxLength > 0 {
		opts = append(opts, schema.MaxLength(spec.MaxLength))
	}
	if spec.Collate != "" {
		opts = append(opts, schema.Collate(spec.Collate))
	}
	if spec.Indexed || spec.Index != "" || spec.Unique {
		if spec.Unique {
			opts = append(opts, schema.Unique(spec.Index, spec.Order))
		} else {
			opts = append(opts, schema.Indexed(spec.Index, spec.Order))
		}
	}
	if spec.Ignore {
		opts = append(opts, schema.Ignore())
	}
	return schema.RowField(name, kind, opts...), nil
}

// findCUEFiles returns path itself for a file, or every .cue file below a
// directory in lexical order.
func findCUEFiles(fs afero.Fs, path string) ([]string, error) {
	info, err := fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = afero.Walk(fs, path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(p) == ".cue" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
	}
	slices.Sort(files)
	return files, nil
}

// cueLoadError extracts position info from CUE errors.
func cueLoadError(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	loadErr := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeConfig      = "E007" // Configuration error

	// Schema errors
	ErrCodeNoTables      = "E101" // No tables defined
	ErrCodeNoColumns     = "E102" // Table without columns
	ErrCodeInvalidType   = "E103" // Unknown column type
	ErrCodeInvalidOption = "E104" // Malformed column option or flag

	// Query file errors
	ErrCodeQueryFile    = "E201" // Query file unreadable or malformed
	ErrCodeUnknownTable = "E202" // Query names a table the schema lacks
	ErrCodePredicate    = "E203" // Predicate does not parse
	ErrCodeQuery        = "E204" // Query does not compile
	ErrCodeExecFailed   = "E205" // Statement failed against the database
)

// loadErrorCode returns the code and message of a loader error.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
