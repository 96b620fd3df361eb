package ast

// ExprVisitor is implemented by callers that need to handle every Expr
// variant. internal/infer's expression analyzer is the canonical
// implementation; new Expr variants become a compile error at every
// ExprVisitor implementation until handled, which is the point.
type ExprVisitor interface {
	VisitColumnRef(*ColumnRef) error
	VisitTableColumnRef(*TableColumnRef) error
	VisitConstant(*Constant) error
	VisitParameter(*Parameter) error
	VisitUnaryOp(*UnaryOp) error
	VisitBinaryOp(*BinaryOp) error
	VisitFunctionCall(*FunctionCall) error
	VisitExistsOp(*ExistsOp) error
	VisitInOp(*InOp) error
	VisitInList(*InList) error
	VisitArraySubQuery(*ArraySubQuery) error
	VisitTypeCast(*TypeCast) error
	VisitSubqueryExpr(*SubqueryExpr) error
	VisitUnsupported(*Unsupported) error
}

// Walk dispatches expr to the matching ExprVisitor method. It panics on an
// unrecognized concrete type, since that can only mean a new Expr variant
// was added without updating this exhaustive switch: a config error in the
// visitor machinery itself, not a malformed statement.
func Walk(v ExprVisitor, expr Expr) error {
	switch e := expr.(type) {
	case *ColumnRef:
		return v.VisitColumnRef(e)
	case *TableColumnRef:
		return v.VisitTableColumnRef(e)
	case *Constant:
		return v.VisitConstant(e)
	case *Parameter:
		return v.VisitParameter(e)
	case *UnaryOp:
		return v.VisitUnaryOp(e)
	case *BinaryOp:
		return v.VisitBinaryOp(e)
	case *FunctionCall:
		return v.VisitFunctionCall(e)
	case *ExistsOp:
		return v.VisitExistsOp(e)
	case *InOp:
		return v.VisitInOp(e)
	case *InList:
		return v.VisitInList(e)
	case *ArraySubQuery:
		return v.VisitArraySubQuery(e)
	case *TypeCast:
		return v.VisitTypeCast(e)
	case *SubqueryExpr:
		return v.VisitSubqueryExpr(e)
	case *Unsupported:
		return v.VisitUnsupported(e)
	default:
		panic("ast: Walk: unhandled Expr variant, add a case")
	}
}

// WalkSomeHandlers is a partial set of Expr handlers for WalkSome. Any nil
// entry uses the default action instead: recurse into children where that
// makes sense, otherwise stop.
type WalkSomeHandlers struct {
	ColumnRef      func(*ColumnRef)
	TableColumnRef func(*TableColumnRef)
	Parameter      func(*Parameter)
}

// WalkSome performs a narrow, best-effort scan of expr and its
// subexpressions (but never descends into subqueries — those get their own
// WalkSome call from whichever scope owns them), invoking the matching
// handler in h for every node encountered. It exists for focused scans
// like "collect every parameter", where writing a full ExprVisitor would
// be pure ceremony. It must not be used for column nullability dispatch,
// where every variant needs distinct handling.
func WalkSome(expr Expr, h WalkSomeHandlers) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ColumnRef:
		if h.ColumnRef != nil {
			h.ColumnRef(e)
		}
	case *TableColumnRef:
		if h.TableColumnRef != nil {
			h.TableColumnRef(e)
		}
	case *Constant:
		// no children
	case *Parameter:
		if h.Parameter != nil {
			h.Parameter(e)
		}
	case *UnaryOp:
		WalkSome(e.Operand, h)
	case *BinaryOp:
		WalkSome(e.LHS, h)
		WalkSome(e.RHS, h)
	case *FunctionCall:
		for _, a := range e.Args {
			WalkSome(a, h)
		}
	case *ExistsOp:
		// subqueries are out of scope for a narrow scalar scan
	case *InOp:
		WalkSome(e.LHS, h)
	case *InList:
		WalkSome(e.LHS, h)
		for _, it := range e.Items {
			WalkSome(it, h)
		}
	case *ArraySubQuery:
		// subqueries are out of scope for a narrow scalar scan
	case *TypeCast:
		WalkSome(e.LHS, h)
	case *SubqueryExpr:
		// subqueries are out of scope for a narrow scalar scan
	case *Unsupported:
		// no children
	}
}

// CollectParameters returns every Parameter node reachable from expr
// without descending into subqueries, in left-to-right order.
func CollectParameters(expr Expr) []*Parameter {
	var params []*Parameter
	WalkSome(expr, WalkSomeHandlers{
		Parameter: func(p *Parameter) { params = append(params, p) },
	})
	return params
}
