package infer

import "github.com/jschaf/sqlnullify/internal/ast"

// collectNonNullExprs walks where and returns every sub-expression
// guaranteed non-NULL whenever the row is returned. The result need not be
// a set; duplicates are harmless.
//
//   - `A AND B` recurses into both operands.
//   - `E IS NOT NULL` / `E NOTNULL` contributes {E}.
//   - `L op R` for a NULL-safe binary op contributes {L, R}.
//   - `f(a1, ..., an)` for a NULL-safe function contributes {a1, ..., an}.
//   - Everything else, including OR (either branch might be the
//     truth-maker) and NOT (not descended), contributes nothing.
func collectNonNullExprs(where ast.Expr) []ast.Expr {
	if where == nil {
		return nil
	}
	switch e := where.(type) {
	case *ast.BinaryOp:
		if isLogicalAnd(e.Op) {
			out := collectNonNullExprs(e.LHS)
			out = append(out, collectNonNullExprs(e.RHS)...)
			return out
		}
		if upperEq(e.Op, "OR") {
			return nil
		}
		if lookupBinaryOp(e.Op) == safe {
			return []ast.Expr{e.LHS, e.RHS}
		}
		return nil
	case *ast.UnaryOp:
		if isNotNullCheck(e.Op) {
			return []ast.Expr{e.Operand}
		}
		return nil
	case *ast.FunctionCall:
		if lookupFunction(e.Name) == safe {
			out := make([]ast.Expr, len(e.Args))
			copy(out, e.Args)
			return out
		}
		return nil
	default:
		return nil
	}
}

func isLogicalAnd(op string) bool {
	return upperEq(op, "AND")
}

func isNotNullCheck(op string) bool {
	return upperEq(op, "NOTNULL") || upperEq(op, "ISNOTNULL")
}

func upperEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		c := a[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != b[i] {
			return false
		}
	}
	return true
}
