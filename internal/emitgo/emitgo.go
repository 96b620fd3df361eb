package emitgo

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/jschaf/sqlnullify/internal/casing"
	"github.com/jschaf/sqlnullify/internal/infer"
	"github.com/jschaf/sqlnullify/internal/pgschema"
	"github.com/jschaf/sqlnullify/internal/queryfile"
)

// QueryResult pairs a named query from a query file with its inferred
// StatementDescription, the unit emitgo.Generate renders into one Go
// function.
type QueryResult struct {
	Query queryfile.Query
	Desc  infer.StatementDescription
}

// Generate renders one Go source file (unformatted; callers that want
// canonical formatting should run it through go/format themselves) for
// pkgName containing one function per entry in results.
func Generate(w io.Writer, pkgName string, results []QueryResult) error {
	gf, err := buildGoFile(pkgName, results)
	if err != nil {
		return fmt.Errorf("build go file: %w", err)
	}
	tmpl, err := template.New("query_file").Funcs(templateFuncs).Parse(goFileTemplate)
	if err != nil {
		return fmt.Errorf("parse emitgo template: %w", err)
	}
	if err := tmpl.Execute(w, gf); err != nil {
		return fmt.Errorf("execute emitgo template: %w", err)
	}
	return nil
}

type goFile struct {
	PkgName string
	Imports []string
	Queries []goQuery
}

type goQuery struct {
	Name       string
	SQLVarName string
	ResultKind queryfile.ResultKind
	SQL        string
	Params     []goField
	Row        []goField
}

type goField struct {
	Name string
	Type string
}

func (q goQuery) HasRow() bool { return q.ResultKind != queryfile.ResultKindExec && len(q.Row) > 0 }

// ParamList emits the function-signature spelling of q's parameters: none,
// inlined for one or two, or a Params struct beyond that, past which a
// struct pays for itself in readability.
func (q goQuery) ParamList() string {
	switch len(q.Params) {
	case 0:
		return ""
	case 1, 2:
		var sb strings.Builder
		for _, p := range q.Params {
			sb.WriteString(", ")
			sb.WriteString(lowerFirst(p.Name))
			sb.WriteByte(' ')
			sb.WriteString(p.Type)
		}
		return sb.String()
	default:
		return ", params " + q.Name + "Params"
	}
}

// ArgList emits the pgx-call spelling of q's parameters, matching
// ParamList's naming choice.
func (q goQuery) ArgList() string {
	if len(q.Params) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range q.Params {
		sb.WriteString(", ")
		if len(q.Params) <= 2 {
			sb.WriteString(lowerFirst(p.Name))
		} else {
			sb.WriteString("params." + p.Name)
			_ = i
		}
	}
	return sb.String()
}

func (q goQuery) NeedsParamsStruct() bool { return len(q.Params) > 2 }

func buildGoFile(pkgName string, results []QueryResult) (goFile, error) {
	caser := casing.NewCaser()
	caser.AddAcronym("id", "ID")

	imports := map[string]struct{}{
		"context":                 {},
		"github.com/jackc/pgconn": {},
		"github.com/jackc/pgx/v4": {},
	}

	queries := make([]goQuery, 0, len(results))
	for _, r := range results {
		params := make([]goField, len(r.Desc.Params))
		for i, p := range r.Desc.Params {
			pkg, typ, err := pgToGoType(pgschema.Type{OID: p.OID}, p.Nullable)
			if err != nil {
				return goFile{}, fmt.Errorf("query %s param %d: %w", r.Query.Name, i, err)
			}
			if pkg != "" {
				imports[pkg] = struct{}{}
			}
			params[i] = goField{Name: fmt.Sprintf("Param%d", i+1), Type: typ}
		}

		row := make([]goField, len(r.Desc.Columns))
		for i, c := range r.Desc.Columns {
			var pkg, typ string
			var err error
			if c.Type.IsArray() {
				var elemPkg, elemTyp string
				elemPkg, elemTyp, err = pgArrayElemGoType(c.Type.ArrayElem.OID)
				if err == nil {
					typ = "[]" + elemTyp
					pkg = elemPkg
					if c.Nullable {
						typ = "*" + typ
					}
				}
			} else {
				pkg, typ, err = pgToGoType(c.Type, c.Nullable)
			}
			if err != nil {
				return goFile{}, fmt.Errorf("query %s column %s: %w", r.Query.Name, c.Name, err)
			}
			if pkg != "" {
				imports[pkg] = struct{}{}
			}
			row[i] = goField{Name: caser.ToUpperCamel(c.Name), Type: typ}
		}

		queries = append(queries, goQuery{
			Name:       caser.ToUpperCamel(r.Query.Name),
			SQLVarName: lowerFirst(caser.ToUpperCamel(r.Query.Name)) + "SQL",
			ResultKind: resolveResultKind(r.Query.ResultKind, len(row)),
			SQL:        r.Desc.SQL,
			Params:     params,
			Row:        row,
		})
	}

	sortedImports := make([]string, 0, len(imports))
	for pkg := range imports {
		sortedImports = append(sortedImports, pkg)
	}
	sort.Strings(sortedImports)

	return goFile{PkgName: pkgName, Imports: sortedImports, Queries: queries}, nil
}

// resolveResultKind falls back to a cardinality guess when a query file
// gave no `-- name: Foo :kind` pragma: no output columns means the
// statement was run for effect (:exec), otherwise :many is the
// conservative default since scanning a :one result into a single row
// fails loudly if more than one row comes back anyway.
func resolveResultKind(declared queryfile.ResultKind, numCols int) queryfile.ResultKind {
	if declared != "" {
		return declared
	}
	if numCols == 0 {
		return queryfile.ResultKindExec
	}
	return queryfile.ResultKindMany
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

var templateFuncs = template.FuncMap{
	"lowerFirst": lowerFirst,
}

const goFileTemplate = `// Code generated by sqlnullify. DO NOT EDIT.

package {{.PkgName}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)

{{range .Queries}}
const {{.SQLVarName}} = ` + "`{{.SQL}}`" + `
{{if .NeedsParamsStruct}}
type {{.Name}}Params struct {
{{- range .Params}}
	{{.Name}} {{.Type}}
{{- end}}
}
{{end -}}
{{if .HasRow}}
type {{.Name}}Row struct {
{{- range .Row}}
	{{.Name}} {{.Type}}
{{- end}}
}
{{end}}
{{if eq .ResultKind ":one"}}
func Query{{.Name}}(ctx context.Context, db pgx.Tx{{.ParamList}}) ({{.Name}}Row, error) {
	var row {{.Name}}Row
	err := db.QueryRow(ctx, {{.SQLVarName}}{{.ArgList}}).Scan({{range $i, $f := .Row}}{{if $i}}, {{end}}&row.{{$f.Name}}{{end}})
	return row, err
}
{{else if eq .ResultKind ":many"}}
func Query{{.Name}}(ctx context.Context, db pgx.Tx{{.ParamList}}) ([]{{.Name}}Row, error) {
	rows, err := db.Query(ctx, {{.SQLVarName}}{{.ArgList}})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []{{.Name}}Row
	for rows.Next() {
		var row {{.Name}}Row
		if err := rows.Scan({{range $i, $f := .Row}}{{if $i}}, {{end}}&row.{{$f.Name}}{{end}}); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
{{else}}
func Exec{{.Name}}(ctx context.Context, db pgx.Tx{{.ParamList}}) (pgconn.CommandTag, error) {
	return db.Exec(ctx, {{.SQLVarName}}{{.ArgList}})
}
{{end}}
{{end}}
`
