package infer

import "github.com/jschaf/sqlnullify/internal/ast"

// inferRowCount decides the row-count estimate from the top-level
// statement shape only; it never looks at WHERE or JOIN conditions.
func inferRowCount(stmt ast.Statement) RowCount {
	switch s := stmt.(type) {
	case *ast.SelectStatement:
		if s.SetOp != ast.SetOpNone {
			return RowCountMany // UNION/INTERSECT/EXCEPT: row count isn't tracked through set ops
		}
		if isLimitOne(s.Limit) {
			return RowCountZeroOrOne
		}
		return RowCountMany

	case *ast.InsertStatement:
		switch {
		case s.DefaultVals:
			return RowCountOne
		case s.Select != nil:
			// INSERT ... SELECT: RETURNING presence still governs zero vs.
			// many, the same as the general no-RETURNING rule below, rather
			// than defaulting unconditionally to many.
			if len(s.Returning) > 0 {
				return RowCountMany
			}
			return RowCountZero
		case len(s.Returning) == 0:
			return RowCountZero
		case len(s.Values) == 1:
			return RowCountOne
		default:
			return RowCountMany
		}

	case *ast.UpdateStatement:
		if len(s.Returning) > 0 {
			return RowCountMany
		}
		return RowCountZero

	case *ast.DeleteStatement:
		if len(s.Returning) > 0 {
			return RowCountMany
		}
		return RowCountZero

	default:
		return RowCountMany
	}
}

// isLimitOne reports whether limit is the constant `1`.
func isLimitOne(limit ast.Expr) bool {
	c, ok := limit.(*ast.Constant)
	if !ok || c.IsNull {
		return false
	}
	return c.Text == "1"
}
