package infer

import (
	"fmt"

	"github.com/jschaf/sqlnullify/internal/ast"
)

// refineSourceColumns applies WHERE-derived non-null expressions to cols:
// any source column whose (tableAlias, columnName) syntactically appears as
// a ColumnRef or TableColumnRef in nonNull is forced to
// Scalar{Nullable: false}.
//
// An unqualified ColumnRef matches any source column by name, regardless
// of alias — a documented, if debatable, choice: see DESIGN.md's Open
// Question resolution. It is conservative
// for output non-nullability since it can only ever turn a nullable
// column non-nullable when *some* same-named column was proven non-null,
// which is sound as long as the WHERE clause genuinely filters every row
// that could supply a NULL for the matched column — a guarantee this
// analyzer does not verify across ambiguous same-named columns, so callers
// relying on strict per-table precision under join ambiguity should
// qualify their WHERE clauses.
func refineSourceColumns(cols []SourceColumn, nonNull []ast.Expr) []SourceColumn {
	out := make([]SourceColumn, len(cols))
	copy(out, cols)
	for i, c := range out {
		if columnMatchesAny(c, nonNull) {
			out[i].Nullability = Scalar{Nullable: false}
		}
	}
	return out
}

func columnMatchesAny(c SourceColumn, nonNull []ast.Expr) bool {
	for _, e := range nonNull {
		switch ref := e.(type) {
		case *ast.ColumnRef:
			if ref.Column == c.ColumnName {
				return true
			}
		case *ast.TableColumnRef:
			if ref.Table == c.TableAlias && ref.Column == c.ColumnName {
				return true
			}
		}
	}
	return false
}

// exprMatchesAny reports whether expr is structurally equal to any member
// of nonNull.
func exprMatchesAny(expr ast.Expr, nonNull []ast.Expr) bool {
	for _, e := range nonNull {
		if ast.Equal(expr, e) {
			return true
		}
	}
	return false
}

// lookupSourceColumn resolves a column reference against cols. A bare
// (unqualified) reference has table == "". On no match, ok is false. On
// multiple matches, the first declared source column wins — ambiguous bare
// references are vanishingly rare in real schemas, and callers should not
// assume source columns are named uniquely.
func lookupSourceColumn(cols []SourceColumn, table, column string) (SourceColumn, bool) {
	for _, c := range cols {
		if c.ColumnName != column {
			continue
		}
		if table == "" || c.TableAlias == table {
			return c, true
		}
	}
	return SourceColumn{}, false
}

// exprScope bundles the context an expression is inferred against: the
// source columns visible in the enclosing FROM clause, the WHERE-derived
// non-null expressions in scope, and the resolver needed to recurse into
// any subquery the expression contains (EXISTS, IN, ARRAY, scalar
// subqueries).
type exprScope struct {
	cols    []SourceColumn
	nonNull []ast.Expr
	res     *resolver
}

// inferExprNullability dispatches on expr's kind, using ast's exhaustive
// ExprVisitor machinery so a new Expr variant is a compile error here until
// handled.
func inferExprNullability(scope exprScope, expr ast.Expr) (FieldNullability, error) {
	if exprMatchesAny(expr, scope.nonNull) {
		return Scalar{Nullable: false}, nil
	}
	v := &exprInferer{scope: scope}
	if err := ast.Walk(v, expr); err != nil {
		return nil, err
	}
	return v.result, nil
}

type exprInferer struct {
	scope  exprScope
	result FieldNullability
}

func (v *exprInferer) infer(e ast.Expr) (FieldNullability, error) {
	return inferExprNullability(v.scope, e)
}

func (v *exprInferer) VisitColumnRef(e *ast.ColumnRef) error {
	c, ok := lookupSourceColumn(v.scope.cols, "", e.Column)
	if !ok {
		return fmt.Errorf("unknown column %q", e.Column)
	}
	v.result = c.Nullability
	return nil
}

func (v *exprInferer) VisitTableColumnRef(e *ast.TableColumnRef) error {
	c, ok := lookupSourceColumn(v.scope.cols, e.Table, e.Column)
	if !ok {
		return fmt.Errorf("unknown column %q.%q", e.Table, e.Column)
	}
	v.result = c.Nullability
	return nil
}

func (v *exprInferer) VisitConstant(e *ast.Constant) error {
	if e.IsNull {
		v.result = Scalar{Nullable: true}
		return nil
	}
	v.result = Scalar{Nullable: false}
	return nil
}

func (v *exprInferer) VisitParameter(*ast.Parameter) error {
	// Conservatively nullable at expression-inference level; refined
	// separately by the parameter-nullability pass for column-bound sites.
	v.result = Scalar{Nullable: true}
	return nil
}

func (v *exprInferer) VisitUnaryOp(e *ast.UnaryOp) error {
	switch lookupUnaryOp(e.Op) {
	case safe:
		r, err := v.infer(e.Operand)
		if err != nil {
			return err
		}
		v.result = r
	case neverNull:
		v.result = Scalar{Nullable: false}
	default: // unsafe, alwaysNull
		v.result = Scalar{Nullable: true}
	}
	return nil
}

func (v *exprInferer) VisitBinaryOp(e *ast.BinaryOp) error {
	switch lookupBinaryOp(e.Op) {
	case safe:
		l, err := v.infer(e.LHS)
		if err != nil {
			return err
		}
		r, err := v.infer(e.RHS)
		if err != nil {
			return err
		}
		v.result = Scalar{Nullable: l.Outer() || r.Outer()}
	case neverNull:
		v.result = Scalar{Nullable: false}
	default: // unsafe, alwaysNull
		v.result = Scalar{Nullable: true}
	}
	return nil
}

func (v *exprInferer) VisitFunctionCall(e *ast.FunctionCall) error {
	switch lookupFunction(e.Name) {
	case safe:
		nullable := false
		for _, a := range e.Args {
			r, err := v.infer(a)
			if err != nil {
				return err
			}
			if r.Outer() {
				nullable = true
			}
		}
		v.result = Scalar{Nullable: nullable}
	case neverNull:
		v.result = Scalar{Nullable: false}
	default: // unsafe, alwaysNull
		v.result = Scalar{Nullable: true}
	}
	return nil
}

func (v *exprInferer) VisitExistsOp(*ast.ExistsOp) error {
	v.result = Scalar{Nullable: false}
	return nil
}

func (v *exprInferer) VisitInOp(e *ast.InOp) error {
	r, err := v.infer(e.LHS)
	if err != nil {
		return err
	}
	v.result = r
	return nil
}

func (v *exprInferer) VisitInList(e *ast.InList) error {
	l, err := v.infer(e.LHS)
	if err != nil {
		return err
	}
	nullable := l.Outer()
	for _, it := range e.Items {
		r, err := v.infer(it)
		if err != nil {
			return err
		}
		if r.Outer() {
			nullable = true
		}
	}
	v.result = Scalar{Nullable: nullable}
	return nil
}

func (v *exprInferer) VisitArraySubQuery(e *ast.ArraySubQuery) error {
	if v.scope.res == nil {
		return fmt.Errorf("array subquery requires a resolver in scope")
	}
	fields, err := getOutputColumns(v.scope.res, e.Subquery)
	if err != nil {
		return fmt.Errorf("infer array subquery: %w", err)
	}
	if len(fields) != 1 {
		return fmt.Errorf("array subquery must have exactly 1 output column, got %d", len(fields))
	}
	v.result = Array{Nullable: false, ElemNullable: fields[0].Nullability.Outer()}
	return nil
}

func (v *exprInferer) VisitTypeCast(e *ast.TypeCast) error {
	r, err := v.infer(e.LHS)
	if err != nil {
		return err
	}
	v.result = r
	return nil
}

func (v *exprInferer) VisitSubqueryExpr(e *ast.SubqueryExpr) error {
	if v.scope.res == nil {
		return fmt.Errorf("scalar subquery requires a resolver in scope")
	}
	fields, err := getOutputColumns(v.scope.res, e.Subquery)
	if err != nil {
		return fmt.Errorf("infer scalar subquery: %w", err)
	}
	if len(fields) != 1 {
		return fmt.Errorf("scalar subquery must have exactly 1 output column, got %d", len(fields))
	}
	v.result = fields[0].Nullability
	return nil
}

func (v *exprInferer) VisitUnsupported(*ast.Unsupported) error {
	v.result = Scalar{Nullable: true}
	return nil
}
