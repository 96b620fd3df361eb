// Package infer is the statement inference pipeline: given a schema oracle,
// a driver-probed StatementDescription, and a parsed AST, it derives
// precise output-column nullability, input-parameter nullability, and a
// conservative row-count estimate. This file holds the data model the rest
// of the package operates on.
package infer

import "github.com/jschaf/sqlnullify/internal/pgschema"

// RowCount is the conservative cardinality estimate for a statement.
type RowCount string

const (
	RowCountZero      RowCount = "zero"
	RowCountOne       RowCount = "one"
	RowCountZeroOrOne RowCount = "zeroOrOne"
	RowCountMany      RowCount = "many"
)

// Column is one output column of a StatementDescription: its probed name
// and type, refined nullability.
type Column struct {
	Name     string
	Type     pgschema.Type
	Nullable bool
}

// Param is one positional input parameter of a StatementDescription, index
// 0 corresponding to $1.
type Param struct {
	OID      pgschema.OID
	Nullable bool
}

// StatementDescription is both the input (as probed by the driver, all
// columns/params conservatively nullable) and the output (as enriched by
// Infer) of the pipeline.
type StatementDescription struct {
	SQL      string
	Columns  []Column
	Params   []Param
	RowCount RowCount
}

// Clone returns a deep-enough copy of s for a pass to mutate without
// aliasing the caller's slices; every pass in this package returns a new
// StatementDescription rather than mutating its input.
func (s StatementDescription) Clone() StatementDescription {
	cols := make([]Column, len(s.Columns))
	copy(cols, s.Columns)
	params := make([]Param, len(s.Params))
	copy(params, s.Params)
	return StatementDescription{SQL: s.SQL, Columns: cols, Params: params, RowCount: s.RowCount}
}

// FieldNullability is a tagged verdict: either a Scalar verdict or an Array
// verdict carrying independent outer/element nullability. Keeping these as
// distinct types instead of a single struct
// with an optional element field forces every consumer to say explicitly
// which kind it's handling instead of silently ignoring element
// nullability for scalar columns.
type FieldNullability interface {
	// Outer reports whether the field itself (as opposed to, for an array,
	// its elements) can be NULL.
	Outer() bool
	fieldNullability()
}

// Scalar is the FieldNullability of any non-array expression or column.
type Scalar struct {
	Nullable bool
}

func (s Scalar) Outer() bool      { return s.Nullable }
func (Scalar) fieldNullability()  {}

// Array is the FieldNullability of an array-typed expression or column:
// the array itself can be NULL independently of whether its elements can.
type Array struct {
	Nullable     bool
	ElemNullable bool
}

func (a Array) Outer() bool     { return a.Nullable }
func (Array) fieldNullability() {}

// withOuterNullable returns a copy of n with its outer nullability forced
// to nullable, preserving element nullability for arrays. Used to apply
// join-nullability propagation during FROM-clause resolution.
func withOuterNullable(n FieldNullability, nullable bool) FieldNullability {
	switch v := n.(type) {
	case Scalar:
		return Scalar{Nullable: nullable}
	case Array:
		return Array{Nullable: nullable, ElemNullable: v.ElemNullable}
	default:
		return Scalar{Nullable: nullable}
	}
}

// VirtualField is an output column of a (sub)query before it's bound back
// to a StatementDescription's probed columns.
type VirtualField struct {
	Name        string
	Nullability FieldNullability
}

// VirtualTable is a named CTE's or subquery's result shape.
type VirtualTable struct {
	Name    string
	Columns []VirtualField
}

// SourceColumn is a column visible in the current FROM scope.
type SourceColumn struct {
	TableAlias  string
	ColumnName  string
	Nullability FieldNullability
	Hidden      bool // system column excluded by `SELECT *`, resolvable by explicit reference
}
