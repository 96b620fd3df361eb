// Package pgschema is the narrow
// interface internal/infer uses to resolve table and column metadata, plus
// two implementations (an in-memory StaticClient for tests and a
// pgx-backed LiveClient for real use).
package pgschema

import "fmt"

// OID is a Postgres object identifier, matching pgtype.OID's underlying
// representation.
type OID = uint32

// ArrayElem describes the element type of an array-typed column.
type ArrayElem struct {
	OID      OID
	Nullable bool
}

// Type is a column's Postgres type: a scalar OID, plus, for array columns,
// the element's OID and nullability.
type Type struct {
	OID       OID
	ArrayElem *ArrayElem // nil for scalar columns
}

func (t Type) IsArray() bool { return t.ArrayElem != nil }

// Column is a database-level column description, the atomic fact the
// inference core builds everything else from.
type Column struct {
	Name     string
	Type     Type
	Nullable bool // database-level NOT NULL status; false means NOT NULL
	Hidden   bool // system columns like oid, ctid, tableoid, xmin, cmin, ...
}

// Table is a schema-qualified table and its columns, in ordinal (attnum)
// order.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// Column looks up a column by name (case-sensitive, as the identifier was
// parsed). Returns false if not found.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ErrTableNotFound is returned by SchemaClient.GetTable when the requested
// table does not exist in the search path.
type ErrTableNotFound struct {
	Schema string
	Name   string
}

func (e *ErrTableNotFound) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("table %q not found in search_path", e.Name)
	}
	return fmt.Sprintf("table %q not found in schema %q", e.Name, e.Schema)
}
