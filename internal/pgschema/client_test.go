package pgschema_test

import (
	"testing"

	"github.com/jschaf/sqlnullify/internal/pgschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticClient_GetTable_Unqualified(t *testing.T) {
	c := pgschema.NewStaticClient(pgschema.Table{
		Name: "users",
		Columns: []pgschema.Column{
			{Name: "user_id", Type: pgschema.Type{OID: 23}, Nullable: false},
		},
	})
	tbl, err := c.GetTable(nil, "users")
	require.NoError(t, err)
	assert.Equal(t, "users", tbl.Name)
}

func TestStaticClient_GetTable_SchemaQualified(t *testing.T) {
	c := pgschema.NewStaticClient(pgschema.Table{
		Schema: "audit",
		Name:   "events",
	})
	schema := "audit"
	tbl, err := c.GetTable(&schema, "events")
	require.NoError(t, err)
	assert.Equal(t, "audit", tbl.Schema)

	other := "public"
	_, err = c.GetTable(&other, "events")
	require.Error(t, err)
	var notFound *pgschema.ErrTableNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestStaticClient_GetTable_NotFound(t *testing.T) {
	c := pgschema.NewStaticClient()
	_, err := c.GetTable(nil, "missing")
	require.Error(t, err)
}

func TestTable_Column(t *testing.T) {
	tbl := pgschema.Table{Columns: []pgschema.Column{
		{Name: "bio", Nullable: true},
	}}
	col, ok := tbl.Column("bio")
	require.True(t, ok)
	assert.True(t, col.Nullable)

	_, ok = tbl.Column("missing")
	assert.False(t, ok)
}

func TestType_IsArray(t *testing.T) {
	scalar := pgschema.Type{OID: 23}
	array := pgschema.Type{OID: 1007, ArrayElem: &pgschema.ArrayElem{OID: 23}}
	assert.False(t, scalar.IsArray())
	assert.True(t, array.IsArray())
}
