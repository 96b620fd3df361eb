package ast

// Equal reports whether a and b are structurally identical expressions:
// same kind, same operator/name/text, same children, recursively. It never
// attempts semantic equivalence (e.g. `a = b` vs `b = a`); that is out of
// scope. Used exclusively to test an expression against the list
// of WHERE-derived non-null expressions (internal/infer's wherenn.go).
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case *ColumnRef:
		y, ok := b.(*ColumnRef)
		return ok && x.Column == y.Column
	case *TableColumnRef:
		y, ok := b.(*TableColumnRef)
		return ok && x.Table == y.Table && x.Column == y.Column
	case *Constant:
		y, ok := b.(*Constant)
		return ok && x.Text == y.Text && x.IsNull == y.IsNull
	case *Parameter:
		y, ok := b.(*Parameter)
		return ok && x.Index == y.Index
	case *UnaryOp:
		y, ok := b.(*UnaryOp)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.LHS, y.LHS) && Equal(x.RHS, y.RHS)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *ExistsOp:
		_, ok := b.(*ExistsOp)
		return ok // subquery identity is out of scope
	case *InOp:
		y, ok := b.(*InOp)
		return ok && Equal(x.LHS, y.LHS)
	case *InList:
		y, ok := b.(*InList)
		if !ok || len(x.Items) != len(y.Items) || !Equal(x.LHS, y.LHS) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *ArraySubQuery:
		_, ok := b.(*ArraySubQuery)
		return ok
	case *TypeCast:
		y, ok := b.(*TypeCast)
		return ok && x.TargetType == y.TargetType && Equal(x.LHS, y.LHS)
	case *SubqueryExpr:
		_, ok := b.(*SubqueryExpr)
		return ok
	case *Unsupported:
		y, ok := b.(*Unsupported)
		return ok && x.Description == y.Description
	default:
		return false
	}
}
