// Package queryfile splits a `.sql` file containing one or more statements,
// each optionally preceded by a `-- name: Foo :one` pragma comment, into
// individual raw SQL statements ready to hand to internal/sqlparse and
// internal/infer.
//
// The pggen.arg('Name') placeholder-substitution machinery found in older
// query-file parsers is dropped here because statements in this system
// already address parameters with native Postgres `$1`-style placeholders,
// so there is nothing to rewrite.
package queryfile

import (
	"fmt"
	goscan "go/scanner"
	gotok "go/token"
	"strings"
)

// ResultKind is the declared cardinality of a query's result, taken from
// its pragma comment.
type ResultKind string

const (
	ResultKindMany ResultKind = ":many"
	ResultKindOne  ResultKind = ":one"
	ResultKindExec ResultKind = ":exec"
)

// Query is one statement extracted from a query file.
type Query struct {
	// Name of the query, from the pragma comment, like 'FindAuthors' in
	// `-- name: FindAuthors :many`. Empty if no pragma preceded the
	// statement.
	Name string
	// SQL is the statement text, including its trailing semicolon.
	SQL string
	// ResultKind is the cardinality pragma; empty if none was given.
	ResultKind ResultKind
	// Pos is the position of the first token of the statement.
	Pos gotok.Pos
}

// File is every query extracted from one source file, in source order.
type File struct {
	Name    string
	Queries []Query
}

var errNoStatements = fmt.Errorf("query file contains no SQL statements")

// Parse splits src into individual statements. A statement is any run of
// text terminated by a top-level semicolon; string and quoted-identifier
// literals are tracked so semicolons inside them don't split a statement.
func Parse(filename string, src []byte) (*File, error) {
	fset := gotok.NewFileSet()
	file := fset.AddFile(filename, -1, len(src))
	var errs goscan.ErrorList

	queries, err := splitStatements(file, string(src))
	if err != nil {
		errs.Add(file.Position(gotok.Pos(1)), err.Error())
		return nil, errs.Err()
	}
	if len(queries) == 0 {
		return nil, errNoStatements
	}
	return &File{Name: filename, Queries: queries}, nil
}

// splitStatements walks src character by character, tracking the most
// recent pragma comment and single/double-quoted string state, and cuts a
// new Query at each top-level semicolon.
func splitStatements(file *gotok.File, src string) ([]Query, error) {
	var queries []Query
	var pendingName string
	var pendingKind ResultKind
	stmtStart := -1
	var inSingle, inDouble, inLineComment bool

	flushPragma := func(line string) {
		name, kind, ok := parsePragma(line)
		if ok {
			pendingName, pendingKind = name, kind
		}
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
			i++
			continue
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
			i++
			continue
		case inDouble:
			if c == '"' {
				inDouble = false
			}
			i++
			continue
		case c == '-' && i+1 < len(src) && src[i+1] == '-':
			end := strings.IndexByte(src[i:], '\n')
			var line string
			if end < 0 {
				line = src[i:]
			} else {
				line = src[i : i+end]
			}
			flushPragma(line)
			inLineComment = true
			i++
			continue
		case c == '\'':
			inSingle = true
			if stmtStart < 0 {
				stmtStart = i
			}
			i++
			continue
		case c == '"':
			inDouble = true
			if stmtStart < 0 {
				stmtStart = i
			}
			i++
			continue
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case c == ';':
			if stmtStart >= 0 {
				queries = append(queries, Query{
					Name:       pendingName,
					SQL:        strings.TrimSpace(src[stmtStart:i+1]),
					ResultKind: pendingKind,
					Pos:        file.Pos(stmtStart),
				})
			}
			stmtStart = -1
			pendingName, pendingKind = "", ""
			i++
			continue
		default:
			if stmtStart < 0 {
				stmtStart = i
			}
			i++
		}
	}
	if stmtStart >= 0 && strings.TrimSpace(src[stmtStart:]) != "" {
		queries = append(queries, Query{
			Name:       pendingName,
			SQL:        strings.TrimSpace(src[stmtStart:]),
			ResultKind: pendingKind,
			Pos:        file.Pos(stmtStart),
		})
	}
	return queries, nil
}

// parsePragma recognizes `-- name: Foo :one` style comments.
func parsePragma(line string) (name string, kind ResultKind, ok bool) {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "--"))
	const prefix = "name:"
	if !strings.HasPrefix(strings.ToLower(line), prefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(line[len(prefix):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", "", false
	}
	name = fields[0]
	if len(fields) > 1 {
		switch ResultKind(fields[1]) {
		case ResultKindMany, ResultKindOne, ResultKindExec:
			kind = ResultKind(fields[1])
		}
	}
	return name, kind, true
}
