package infer

import (
	"errors"
	"fmt"

	"github.com/jschaf/sqlnullify/internal/ast"
	"github.com/jschaf/sqlnullify/internal/pgschema"
	"go.uber.org/zap"
)

// Parser turns SQL text into the AST this package walks.
// internal/sqlparse is the concrete implementation; this package depends
// only on the interface so it stays testable with hand-built ASTs.
type Parser interface {
	Parse(sql string) (ast.Statement, error)
}

// ErrInvariant marks a fatal internal error: the inferred output shape
// didn't match what the driver probe reported. Every other error this
// package can encounter is recoverable and never reaches a caller as an
// error value — see Infer.
var ErrInvariant = errors.New("infer: invariant violation")

// InferAST is the pure core of the pipeline:
// infer(schema, raw, ast) → enriched | error. It composes the three passes
// in order — column nullability, parameter nullability, row-count — and
// validates that the inferred shape matches raw before returning.
//
// Every error InferAST returns is "fatal" in the sense that InferAST
// itself makes no distinction between recoverable and fatal causes: that
// classification, and the fallback to raw, is Infer's job. InferAST is
// meant for callers (tests, or a caller that wants to handle failures
// itself) who already have a parsed statement and want the enriched result
// or a precise error.
func InferAST(schema pgschema.SchemaClient, raw StatementDescription, stmt ast.Statement) (StatementDescription, error) {
	res := newResolver(schema, nil)

	fields, err := getOutputColumns(res, stmt)
	if err != nil {
		return StatementDescription{}, fmt.Errorf("infer output columns: %w", err)
	}
	withCols, err := applyColumns(raw, fields)
	if err != nil {
		return StatementDescription{}, err
	}

	paramNullable, err := inferParamNullability(schema, stmt)
	if err != nil {
		return StatementDescription{}, fmt.Errorf("infer param nullability: %w", err)
	}
	withParams := applyParams(withCols, paramNullable)

	withParams.RowCount = inferRowCount(stmt)
	return withParams, nil
}

// applyColumns zips fields onto raw.Columns by position, after validating
// name and length alignment between the inferred output and the
// driver-probed columns.
func applyColumns(raw StatementDescription, fields []VirtualField) (StatementDescription, error) {
	out := raw.Clone()
	if len(fields) != len(out.Columns) {
		return StatementDescription{}, fmt.Errorf("%w: inferred %d output columns, probe reported %d",
			ErrInvariant, len(fields), len(out.Columns))
	}
	for i, f := range fields {
		if f.Name != out.Columns[i].Name {
			return StatementDescription{}, fmt.Errorf("%w: column %d name mismatch: inferred %q, probe reported %q",
				ErrInvariant, i, f.Name, out.Columns[i].Name)
		}
		switch n := f.Nullability.(type) {
		case Scalar:
			out.Columns[i].Nullable = n.Nullable
		case Array:
			out.Columns[i].Nullable = n.Nullable
			elemOID := pgschema.OID(0)
			if out.Columns[i].Type.ArrayElem != nil {
				elemOID = out.Columns[i].Type.ArrayElem.OID
			}
			out.Columns[i].Type.ArrayElem = &pgschema.ArrayElem{OID: elemOID, Nullable: n.ElemNullable}
		}
	}
	return out, nil
}

func applyParams(raw StatementDescription, nullable map[int]bool) StatementDescription {
	out := raw.Clone()
	for i := range out.Params {
		// Parameter i in raw.Params corresponds to $i+1.
		if n, ok := nullable[i+1]; ok {
			out.Params[i].Nullable = n
		}
	}
	return out
}

// Infer is the external entry point. It parses sqlText, then runs
// InferAST, converting every recoverable failure (parse failure, schema
// lookup failure, any inference error) into a logged warning and the
// unrefined raw description. Only a fatal invariant violation is returned
// as an error.
func Infer(schema pgschema.SchemaClient, parser Parser, raw StatementDescription, sqlText string, logger *zap.SugaredLogger) (StatementDescription, error) {
	stmt, err := parser.Parse(sqlText)
	if err != nil {
		warnf(logger, "sqlnullify: parse failed for statement, falling back to conservative nullability: %s", err)
		return raw, nil
	}

	enriched, err := InferAST(schema, raw, stmt)
	if err != nil {
		if errors.Is(err, ErrInvariant) {
			return StatementDescription{}, fmt.Errorf("infer %q: %w", raw.SQL, err)
		}
		warnf(logger, "sqlnullify: inference failed for statement, falling back to conservative nullability: %s", err)
		return raw, nil
	}
	return enriched, nil
}

func warnf(logger *zap.SugaredLogger, format string, args ...interface{}) {
	if logger == nil {
		return
	}
	logger.Warnf(format, args...)
}
