package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/litequery/internal/dsl"
	"github.com/roach88/litequery/internal/orm"
	"github.com/roach88/litequery/internal/queryir"
	"github.com/roach88/litequery/internal/schema"
)

// QueryFile is a query written as YAML:
//
//	table: Employee
//	where: Age >= $min && Name.StartsWith("J")
//	vars: {min: 21}
//	orderBy: [-Age, Name]
//	skip: 10
//	take: 5
//	join: {table: Department, outerKey: Id, innerKey: EmployeeId, kind: outer}
//	count: false
//	delete: false
type QueryFile struct {
	Table   string         `yaml:"table"`
	Where   string         `yaml:"where"`
	Vars    map[string]any `yaml:"vars"`
	OrderBy []string       `yaml:"orderBy"`
	Skip    *int           `yaml:"skip"`
	Take    *int           `yaml:"take"`
	Join    *JoinFile      `yaml:"join"`
	Count   bool           `yaml:"count"`
	Delete  bool           `yaml:"delete"`
}

// JoinFile joins a second table to the query's table.
type JoinFile struct {
	Table    string `yaml:"table"`
	OuterKey string `yaml:"outerKey"`
	InnerKey string `yaml:"innerKey"`
	Kind     string `yaml:"kind"` // "inner" (default) | "outer"
}

// LoadQueryFile reads and decodes a query file.
func LoadQueryFile(fs afero.Fs, path string) (*QueryFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeQueryFile, Message: fmt.Sprintf("reading query file: %v", err)}
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, &LoadError{Code: ErrCodeQueryFile, Message: fmt.Sprintf("decoding %s: %v", path, err)}
	}
	if qf.Table == "" {
		return nil, &LoadError{Code: ErrCodeQueryFile, Message: fmt.Sprintf("%s: table is required", path)}
	}
	if qf.Count && qf.Delete {
		return nil, &LoadError{Code: ErrCodeQueryFile, Message: fmt.Sprintf("%s: count and delete are exclusive", path)}
	}
	return &qf, nil
}

type joinedRow = orm.JoinResult[schema.Row, schema.Row]

// Plan is a query file bound to a schema, ready to compile or run.
// Composition errors stay inside the queries and surface from SQL or Run.
type Plan struct {
	file   *QueryFile
	rows   orm.TableQuery[schema.Row]
	joined *orm.TableQuery[joinedRow]
}

// BuildPlan resolves the query file's tables and predicate against db.
func BuildPlan(db *orm.DB, s *Schema, qf *QueryFile) (*Plan, error) {
	desc, ok := s.Table(qf.Table)
	if !ok {
		return nil, &LoadError{Code: ErrCodeUnknownTable, Message: fmt.Sprintf("unknown table %q", qf.Table)}
	}
	q := orm.Dynamic(db, desc)

	if qf.Where != "" {
		pred, err := dsl.Parse(qf.Where, qf.Vars)
		if err != nil {
			return nil, &LoadError{Code: ErrCodePredicate, Message: err.Error()}
		}
		q = q.Where(pred)
	}
	for i, key := range qf.OrderBy {
		name, descending := strings.CutPrefix(key, "-")
		col := queryir.Col(name)
		switch {
		case i == 0 && descending:
			q = q.OrderByDescending(col)
		case i == 0:
			q = q.OrderBy(col)
		case descending:
			q = q.ThenByDescending(col)
		default:
			q = q.ThenBy(col)
		}
	}

	p := &Plan{file: qf}
	if qf.Join == nil {
		p.rows = paginate(q, qf)
		return p, nil
	}

	innerDesc, ok := s.Table(qf.Join.Table)
	if !ok {
		return nil, &LoadError{Code: ErrCodeUnknownTable, Message: fmt.Sprintf("unknown join table %q", qf.Join.Table)}
	}
	kind, err := joinKind(qf.Join.Kind)
	if err != nil {
		return nil, err
	}
	j := orm.JoinMapping[schema.Row, schema.Row](q, db.Mapping(innerDesc),
		queryir.Col(qf.Join.OuterKey), queryir.Col(qf.Join.InnerKey), kind)
	j = paginate(j, qf)
	p.rows = q
	p.joined = &j
	return p, nil
}

func paginate[T any](q orm.TableQuery[T], qf *QueryFile) orm.TableQuery[T] {
	if qf.Skip != nil {
		q = q.Skip(*qf.Skip)
	}
	if qf.Take != nil {
		q = q.Take(*qf.Take)
	}
	return q
}

func joinKind(name string) (orm.JoinKind, error) {
	switch name {
	case "", "inner":
		return orm.InnerJoin, nil
	case "outer", "left":
		return orm.OuterJoin, nil
	}
	return 0, &LoadError{Code: ErrCodeQueryFile, Message: fmt.Sprintf("unknown join kind %q", name)}
}

// Kind names the statement the plan compiles to: select, count or delete.
func (p *Plan) Kind() string {
	switch {
	case p.file.Delete:
		return "delete"
	case p.file.Count:
		return "count"
	}
	return "select"
}

// SQL compiles the plan without running it.
func (p *Plan) SQL() (string, []any, error) {
	switch {
	case p.joined != nil && p.file.Delete:
		return p.joined.DeleteSQL(nil)
	case p.joined != nil && p.file.Count:
		return p.joined.CountSQL()
	case p.joined != nil:
		return p.joined.SQL()
	case p.file.Delete:
		return p.rows.DeleteSQL(nil)
	case p.file.Count:
		return p.rows.CountSQL()
	}
	return p.rows.SQL()
}

// Result is the outcome of running a plan. Rows holds selected rows, or
// {"outer": ..., "inner": ...} pairs for a join.
type Result struct {
	Kind    string           `json:"kind"`
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	Count   int              `json:"count"`
}

// Run executes the plan.
func (p *Plan) Run(ctx context.Context) (*Result, error) {
	res := &Result{Kind: p.Kind()}
	var err error
	switch {
	case p.joined != nil && p.file.Delete:
		res.Count, err = p.joined.Delete(ctx, nil)
	case p.joined != nil && p.file.Count:
		res.Count, err = p.joined.Count(ctx)
	case p.joined != nil:
		var pairs []joinedRow
		pairs, err = p.joined.ToList(ctx)
		for _, pair := range pairs {
			res.Rows = append(res.Rows, map[string]any{"outer": map[string]any(pair.Outer), "inner": map[string]any(pair.Inner)})
		}
		res.Count = len(pairs)
	case p.file.Delete:
		res.Count, err = p.rows.Delete(ctx, nil)
	case p.file.Count:
		res.Count, err = p.rows.Count(ctx)
	default:
		var rows []schema.Row
		rows, err = p.rows.ToList(ctx)
		res.Columns = p.rows.Mapping().ColumnNames()
		for _, r := range rows {
			res.Rows = append(res.Rows, map[string]any(r))
		}
		res.Count = len(rows)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
