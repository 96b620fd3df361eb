// Package emitgo renders an enriched StatementDescription into a Go source
// file: one typed query function per SQL statement, with pointer types for
// nullable columns/params and value types for non-nullable ones.
//
// Type resolution follows an OID-to-Go-type table (pgToGoType, keyed on
// pgtype's OID constants), internal/casing-based identifier naming, and a
// text/template rendering step. The data model here is scalar-or-array-of-
// scalar only, with no composite/enum/domain types, so there is no
// declarer machinery for those; numeric columns map to
// github.com/shopspring/decimal.Decimal instead of pgtype.Numeric, as a
// plain Go value type.
package emitgo

import (
	"fmt"
	"strings"

	"github.com/jackc/pgtype"
	"github.com/jschaf/sqlnullify/internal/pgschema"
)

// goType is the nullable and non-nullable Go spelling for a Postgres type.
// A blank nonNullable means only the nullable (pointer or pgtype wrapper)
// spelling is available.
type goType struct{ nullable, nonNullable string }

// pgToGoType maps a scalar pgschema.Type to a Go type, choosing the
// non-nullable spelling unless nullable is true or there is no
// non-nullable spelling for that Postgres type.
func pgToGoType(t pgschema.Type, nullable bool) (pkg, typ string, err error) {
	gt, ok := goPgTypes[uint32(t.OID)]
	if !ok {
		return "", "", fmt.Errorf("no go type registered for postgres oid %d", t.OID)
	}
	if nullable || gt.nonNullable == "" {
		pkg, typ = splitQualifiedType(gt.nullable)
		return pkg, typ, nil
	}
	pkg, typ = splitQualifiedType(gt.nonNullable)
	return pkg, typ, nil
}

// pgArrayElemGoType maps an array's element OID to a Go element type for a
// slice spelling (`[]elemType`), always using the non-nullable element
// type. Callers consult it for every array column, so an element that may
// be NULL gets the same Go element type as one that may not.
func pgArrayElemGoType(elemOID pgschema.OID) (pkg, typ string, err error) {
	gt, ok := goPgTypes[uint32(elemOID)]
	if !ok {
		return "", "", fmt.Errorf("no go type registered for postgres element oid %d", elemOID)
	}
	if gt.nonNullable == "" {
		pkg, typ = splitQualifiedType(gt.nullable)
		return pkg, typ, nil
	}
	pkg, typ = splitQualifiedType(gt.nonNullable)
	return pkg, typ, nil
}

// splitQualifiedType splits a Go type spelling like "*time.Time" or
// "*github.com/shopspring/decimal.Decimal" into its import path and the
// source-level type spelling ("time.Time" or "decimal.Decimal", with the
// leading "*" preserved). Builtins like "*bool" have no import path.
func splitQualifiedType(qualType string) (pkg, typ string) {
	ptr := ""
	if strings.HasPrefix(qualType, "*") {
		ptr = "*"
		qualType = qualType[1:]
	}
	if !strings.ContainsRune(qualType, '.') {
		return "", ptr + qualType
	}
	lastDot := strings.LastIndexByte(qualType, '.')
	lastSlash := strings.LastIndexByte(qualType, '/')
	return qualType[:lastDot], ptr + qualType[lastSlash+1:]
}

var goPgTypes = map[uint32]goType{
	pgtype.BoolOID:        {"*bool", "bool"},
	pgtype.Int2OID:        {"*int16", "int16"},
	pgtype.Int4OID:        {"*int32", "int32"},
	pgtype.Int8OID:        {"*int", "int"},
	pgtype.Float4OID:      {"*float32", "float32"},
	pgtype.Float8OID:      {"*float64", "float64"},
	pgtype.TextOID:        {"*string", "string"},
	pgtype.VarcharOID:     {"*string", "string"},
	pgtype.BPCharOID:      {"*string", "string"},
	pgtype.NameOID:        {"*string", "string"},
	pgtype.NumericOID:     {"*github.com/shopspring/decimal.Decimal", "github.com/shopspring/decimal.Decimal"},
	pgtype.UUIDOID:        {"github.com/jackc/pgtype.UUID", ""},
	pgtype.DateOID:        {"*time.Time", "time.Time"},
	pgtype.TimeOID:        {"*time.Time", "time.Time"},
	pgtype.TimestampOID:   {"*time.Time", "time.Time"},
	pgtype.TimestamptzOID: {"*time.Time", "time.Time"},
	pgtype.IntervalOID:    {"github.com/jackc/pgtype.Interval", ""},
	pgtype.JSONOID:        {"github.com/jackc/pgtype.JSON", ""},
	pgtype.JSONBOID:       {"github.com/jackc/pgtype.JSONB", ""},
	pgtype.ByteaOID:       {"[]byte", "[]byte"},
	pgtype.InetOID:        {"github.com/jackc/pgtype.Inet", ""},
	pgtype.BitOID:         {"github.com/jackc/pgtype.Bit", ""},
	pgtype.VarbitOID:      {"github.com/jackc/pgtype.Varbit", ""},
}
