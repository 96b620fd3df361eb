package infer

import (
	"fmt"

	"github.com/jschaf/sqlnullify/internal/ast"
)

// getOutputColumns dispatches by statement kind, returning the ordered
// list of VirtualFields the statement produces as its top-level output.
func getOutputColumns(res *resolver, stmt ast.Statement) ([]VirtualField, error) {
	switch s := stmt.(type) {
	case *ast.SelectStatement:
		return selectOutputColumns(res, s)
	case *ast.InsertStatement:
		return insertOutputColumns(res, s)
	case *ast.UpdateStatement:
		return updateOutputColumns(res, s)
	case *ast.DeleteStatement:
		return deleteOutputColumns(res, s)
	default:
		return nil, fmt.Errorf("unhandled statement type %T", stmt)
	}
}

func selectOutputColumns(res *resolver, s *ast.SelectStatement) ([]VirtualField, error) {
	if s.SetOp != ast.SetOpNone {
		return setOpOutputColumns(res, s)
	}

	res, err := res.resolveWithQueries(s.With)
	if err != nil {
		return nil, err
	}

	var cols []SourceColumn
	if s.From != nil {
		cols, err = res.sourceColumnsForTableExpr(s.From)
		if err != nil {
			return nil, err
		}
	}
	nonNull := collectNonNullExprs(s.Where)
	cols = refineSourceColumns(cols, nonNull)

	return inferSelectListOutput(res, cols, nonNull, s.List)
}

// setOpOutputColumns handles UNION/INTERSECT/EXCEPT: output nullability
// per column is the OR across both arms. Names and count come from the
// left arm; a right arm with a different
// column count is a recoverable inference error.
func setOpOutputColumns(res *resolver, s *ast.SelectStatement) ([]VirtualField, error) {
	left, err := getOutputColumns(res, s.Left)
	if err != nil {
		return nil, fmt.Errorf("infer left side of %s: %w", s.SetOp, err)
	}
	right, err := getOutputColumns(res, s.Right)
	if err != nil {
		return nil, fmt.Errorf("infer right side of %s: %w", s.SetOp, err)
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("%s arms have different column counts: %d vs %d", s.SetOp, len(left), len(right))
	}
	out := make([]VirtualField, len(left))
	for i := range left {
		l, r := left[i].Nullability, right[i].Nullability
		out[i] = VirtualField{Name: left[i].Name, Nullability: orNullability(l, r)}
	}
	return out, nil
}

func orNullability(a, b FieldNullability) FieldNullability {
	if aa, ok := a.(Array); ok {
		if bb, ok := b.(Array); ok {
			return Array{Nullable: aa.Nullable || bb.Nullable, ElemNullable: aa.ElemNullable || bb.ElemNullable}
		}
	}
	return Scalar{Nullable: a.Outer() || b.Outer()}
}

func insertOutputColumns(res *resolver, s *ast.InsertStatement) ([]VirtualField, error) {
	if len(s.Returning) == 0 {
		return nil, nil
	}
	res, err := res.resolveWithQueries(s.With)
	if err != nil {
		return nil, err
	}
	cols, _, err := res.sourceColumnsForTable(s.Table)
	if err != nil {
		return nil, err
	}
	return inferSelectListOutput(res, cols, nil, s.Returning)
}

func updateOutputColumns(res *resolver, s *ast.UpdateStatement) ([]VirtualField, error) {
	if len(s.Returning) == 0 {
		return nil, nil
	}
	res, err := res.resolveWithQueries(s.With)
	if err != nil {
		return nil, err
	}
	cols, _, err := res.sourceColumnsForTable(s.Table)
	if err != nil {
		return nil, err
	}
	if s.From != nil {
		fromCols, err := res.sourceColumnsForTableExpr(s.From)
		if err != nil {
			return nil, err
		}
		cols = append(cols, fromCols...)
	}
	nonNull := collectNonNullExprs(s.Where)
	cols = refineSourceColumns(cols, nonNull)
	return inferSelectListOutput(res, cols, nonNull, s.Returning)
}

func deleteOutputColumns(res *resolver, s *ast.DeleteStatement) ([]VirtualField, error) {
	if len(s.Returning) == 0 {
		return nil, nil
	}
	res, err := res.resolveWithQueries(s.With)
	if err != nil {
		return nil, err
	}
	cols, _, err := res.sourceColumnsForTable(s.Table)
	if err != nil {
		return nil, err
	}
	nonNull := collectNonNullExprs(s.Where)
	cols = refineSourceColumns(cols, nonNull)
	return inferSelectListOutput(res, cols, nonNull, s.Returning)
}

// inferSelectListOutput infers a VirtualField for each SelectItem and
// flattens the (possibly star-expanded) results in order.
func inferSelectListOutput(res *resolver, cols []SourceColumn, nonNull []ast.Expr, list []ast.SelectItem) ([]VirtualField, error) {
	var out []VirtualField
	for _, item := range list {
		switch {
		case item.Star && item.TableStar != "":
			for _, c := range cols {
				if c.Hidden || c.TableAlias != item.TableStar {
					continue
				}
				out = append(out, VirtualField{Name: c.ColumnName, Nullability: c.Nullability})
			}
		case item.Star:
			for _, c := range cols {
				if c.Hidden {
					continue
				}
				out = append(out, VirtualField{Name: c.ColumnName, Nullability: c.Nullability})
			}
		default:
			scope := exprScope{cols: cols, nonNull: nonNull, res: res}
			nullability, err := inferExprNullability(scope, item.Expr)
			if err != nil {
				return nil, fmt.Errorf("infer select item: %w", err)
			}
			name := item.Alias
			if name == "" {
				name = deriveColumnName(item.Expr)
			}
			out = append(out, VirtualField{Name: name, Nullability: nullability})
		}
	}
	return out, nil
}

// deriveColumnName mirrors how Postgres names an unaliased output column:
// the bare column name for a column reference, "?column?" otherwise.
func deriveColumnName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.ColumnRef:
		return e.Column
	case *ast.TableColumnRef:
		return e.Column
	default:
		return "?column?"
	}
}
