package emitgo

import (
	"testing"

	"github.com/jschaf/sqlnullify/internal/pgschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitQualifiedType(t *testing.T) {
	tests := []struct {
		in      string
		pkg     string
		typ     string
	}{
		{"bool", "", "bool"},
		{"*bool", "", "*bool"},
		{"time.Time", "time", "time.Time"},
		{"*time.Time", "time", "*time.Time"},
		{"github.com/jackc/pgtype.UUID", "github.com/jackc/pgtype", "pgtype.UUID"},
		{"github.com/shopspring/decimal.Decimal", "github.com/shopspring/decimal", "decimal.Decimal"},
		{"*github.com/shopspring/decimal.Decimal", "github.com/shopspring/decimal", "*decimal.Decimal"},
	}
	for _, tt := range tests {
		pkg, typ := splitQualifiedType(tt.in)
		assert.Equal(t, tt.pkg, pkg, "pkg for %s", tt.in)
		assert.Equal(t, tt.typ, typ, "typ for %s", tt.in)
	}
}

func TestPgToGoType_NonNullablePrefersValueType(t *testing.T) {
	pkg, typ, err := pgToGoType(pgschema.Type{OID: 23}, false)
	require.NoError(t, err)
	assert.Equal(t, "", pkg)
	assert.Equal(t, "int32", typ)
}

func TestPgToGoType_NullableUsesPointer(t *testing.T) {
	pkg, typ, err := pgToGoType(pgschema.Type{OID: 23}, true)
	require.NoError(t, err)
	assert.Equal(t, "", pkg)
	assert.Equal(t, "*int32", typ)
}

func TestPgToGoType_Numeric_QualifiesDecimalPackage(t *testing.T) {
	pkg, typ, err := pgToGoType(pgschema.Type{OID: 1700}, false)
	require.NoError(t, err)
	assert.Equal(t, "github.com/shopspring/decimal", pkg)
	assert.Equal(t, "decimal.Decimal", typ)
}

func TestPgToGoType_UnknownOID_Errors(t *testing.T) {
	_, _, err := pgToGoType(pgschema.Type{OID: 999999}, false)
	require.Error(t, err)
}

func TestPgArrayElemGoType_UsesNonNullableElementSpelling(t *testing.T) {
	pkg, typ, err := pgArrayElemGoType(23)
	require.NoError(t, err)
	assert.Equal(t, "", pkg)
	assert.Equal(t, "int32", typ)
}
