package infer

import (
	"fmt"

	"github.com/jschaf/sqlnullify/internal/ast"
	"github.com/jschaf/sqlnullify/internal/pgschema"
)

// resolver carries the state threaded explicitly through a single
// statement's inference: the schema client and the CTEs visible at the
// current point in the statement. Outer CTEs flow as an explicit parameter
// (here, a field set once at construction and extended by value, never
// mutated in place) rather than through mutable ambient state, keeping
// inference re-entrant.
type resolver struct {
	schema pgschema.SchemaClient
	ctes   []VirtualTable // outer CTEs plus every local CTE resolved so far, in visibility order
}

func newResolver(schema pgschema.SchemaClient, outerCTEs []VirtualTable) *resolver {
	ctes := make([]VirtualTable, len(outerCTEs))
	copy(ctes, outerCTEs)
	return &resolver{schema: schema, ctes: ctes}
}

// withCTE returns a new resolver that also sees cte, without mutating r.
// CTE i must only see CTEs 0..i-1 plus every outer CTE, so callers append
// one at a time while resolving each WITH entry in order.
func (r *resolver) withCTE(cte VirtualTable) *resolver {
	next := &resolver{schema: r.schema, ctes: make([]VirtualTable, len(r.ctes)+1)}
	copy(next.ctes, r.ctes)
	next.ctes[len(r.ctes)] = cte
	return next
}

func (r *resolver) lookupCTE(name string) (VirtualTable, bool) {
	// Later entries shadow earlier ones with the same name, matching how a
	// nested WITH can re-declare an outer CTE's name.
	for i := len(r.ctes) - 1; i >= 0; i-- {
		if r.ctes[i].Name == name {
			return r.ctes[i], true
		}
	}
	return VirtualTable{}, false
}

// resolveWithQueries resolves each WithQuery in order, returning a
// resolver that sees all of them plus the incoming ones. The first failure
// short-circuits.
func (r *resolver) resolveWithQueries(withs []ast.WithQuery) (*resolver, error) {
	cur := r
	for _, w := range withs {
		fields, err := cur.resolveWithQuery(w)
		if err != nil {
			return nil, fmt.Errorf("resolve cte %q: %w", w.Name, err)
		}
		cur = cur.withCTE(VirtualTable{Name: w.Name, Columns: fields})
	}
	return cur, nil
}

// resolveWithQuery resolves a single WITH entry's output shape. For
// WITH RECURSIVE, the non-recursive term is resolved first and its shape
// registered as the CTE's own VirtualTable before the full query (base
// term plus recursive term) is resolved, so a self-reference to the CTE's
// name inside the recursive term finds a VirtualTable instead of failing
// table lookup.
func (r *resolver) resolveWithQuery(w ast.WithQuery) ([]VirtualField, error) {
	if !w.Recursive {
		return getOutputColumns(r, w.Query)
	}
	sel, ok := w.Query.(*ast.SelectStatement)
	if !ok || sel.SetOp == ast.SetOpNone {
		return getOutputColumns(r, w.Query)
	}
	base, err := getOutputColumns(r, sel.Left)
	if err != nil {
		return nil, fmt.Errorf("resolve base term: %w", err)
	}
	selfRef := r.withCTE(VirtualTable{Name: w.Name, Columns: base})
	return getOutputColumns(selfRef, w.Query)
}

// sourceColumnsForTable resolves a bare TableRef: CTE lookup first (local
// then outer, per lookupCTE), falling back to the schema client.
func (r *resolver) sourceColumnsForTable(ref ast.TableRef) ([]SourceColumn, string, error) {
	alias := ref.As
	if alias == "" {
		alias = ref.Name
	}

	if ref.Schema == "" {
		if vt, ok := r.lookupCTE(ref.Name); ok {
			return virtualFieldsToSourceColumns(vt.Columns, alias), alias, nil
		}
	}

	var schemaArg *string
	if ref.Schema != "" {
		s := ref.Schema
		schemaArg = &s
	}
	table, err := r.schema.GetTable(schemaArg, ref.Name)
	if err != nil {
		return nil, "", fmt.Errorf("resolve table %s: %w", ref.Name, err)
	}
	cols := make([]SourceColumn, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = SourceColumn{
			TableAlias:  alias,
			ColumnName:  c.Name,
			Nullability: columnFieldNullability(c),
			Hidden:      c.Hidden,
		}
	}
	return cols, alias, nil
}

// columnFieldNullability builds the FieldNullability a schema-level Column
// implies.
func columnFieldNullability(c pgschema.Column) FieldNullability {
	if c.Type.ArrayElem != nil {
		return Array{Nullable: c.Nullable, ElemNullable: c.Type.ArrayElem.Nullable}
	}
	return Scalar{Nullable: c.Nullable}
}

func virtualFieldsToSourceColumns(fields []VirtualField, alias string) []SourceColumn {
	cols := make([]SourceColumn, len(fields))
	for i, f := range fields {
		cols[i] = SourceColumn{TableAlias: alias, ColumnName: f.Name, Nullability: f.Nullability}
	}
	return cols
}

// joinNullable reports whether the left/right side's columns become
// nullable for the given join type.
func joinNullable(jt ast.JoinType) (leftNullable, rightNullable bool) {
	switch jt {
	case ast.JoinInner:
		return false, false
	case ast.JoinLeft:
		return false, true
	case ast.JoinRight:
		return true, false
	case ast.JoinFull:
		return true, true
	default:
		return false, false
	}
}

func forceNullable(cols []SourceColumn) []SourceColumn {
	out := make([]SourceColumn, len(cols))
	for i, c := range cols {
		out[i] = c
		out[i].Nullability = withOuterNullable(c.Nullability, true)
	}
	return out
}

// sourceColumnsForTableExpr recursively resolves a TableExpression into
// the flat list of SourceColumns visible in that scope.
func (r *resolver) sourceColumnsForTableExpr(te ast.TableExpression) ([]SourceColumn, error) {
	switch t := te.(type) {
	case *ast.TableRef:
		cols, _, err := r.sourceColumnsForTable(*t)
		return cols, err

	case *ast.SubQuery:
		fields, err := getOutputColumns(r, t.Query)
		if err != nil {
			return nil, fmt.Errorf("resolve subquery %q: %w", t.As, err)
		}
		return virtualFieldsToSourceColumns(fields, t.As), nil

	case *ast.CrossJoin:
		left, err := r.sourceColumnsForTableExpr(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.sourceColumnsForTableExpr(t.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil

	case *ast.QualifiedJoin:
		left, err := r.sourceColumnsForTableExpr(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.sourceColumnsForTableExpr(t.Right)
		if err != nil {
			return nil, err
		}
		leftNullable, rightNullable := joinNullable(t.JoinType)
		if leftNullable {
			left = forceNullable(left)
		}
		if rightNullable {
			right = forceNullable(right)
		}
		return append(left, right...), nil

	default:
		return nil, fmt.Errorf("unhandled table expression %T", te)
	}
}
