package infer_test

import (
	"testing"

	"github.com/jschaf/sqlnullify/internal/difftest"
	"github.com/jschaf/sqlnullify/internal/infer"
	"github.com/jschaf/sqlnullify/internal/pgschema"
	"github.com/jschaf/sqlnullify/internal/sqlparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	oidInt4 pgschema.OID = 23
	oidText pgschema.OID = 25
)

func usersSchema() *pgschema.StaticClient {
	return pgschema.NewStaticClient(pgschema.Table{
		Name: "users",
		Columns: []pgschema.Column{
			{Name: "user_id", Type: pgschema.Type{OID: oidInt4}, Nullable: false},
			{Name: "name", Type: pgschema.Type{OID: oidText}, Nullable: false},
			{Name: "bio", Type: pgschema.Type{OID: oidText}, Nullable: true},
		},
	})
}

func inferSQL(t *testing.T, schema pgschema.SchemaClient, sql string, raw infer.StatementDescription) infer.StatementDescription {
	t.Helper()
	stmt, err := sqlparse.New().Parse(sql)
	require.NoError(t, err)
	got, err := infer.InferAST(schema, raw, stmt)
	require.NoError(t, err)
	return got
}

func TestInferAST_SelectStar_NullableFollowsSchema(t *testing.T) {
	schema := usersSchema()
	raw := infer.StatementDescription{
		SQL: "select * from users",
		Columns: []infer.Column{
			{Name: "user_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
			{Name: "name", Type: pgschema.Type{OID: oidText}, Nullable: true},
			{Name: "bio", Type: pgschema.Type{OID: oidText}, Nullable: true},
		},
	}
	got := inferSQL(t, schema, "select * from users", raw)
	require.Len(t, got.Columns, 3)
	assert.False(t, got.Columns[0].Nullable, "user_id is NOT NULL")
	assert.False(t, got.Columns[1].Nullable, "name is NOT NULL")
	assert.True(t, got.Columns[2].Nullable, "bio is nullable")
}

func TestInferAST_WhereIsNotNull_RefinesColumn(t *testing.T) {
	schema := usersSchema()
	raw := infer.StatementDescription{
		SQL: "select bio from users where bio is not null",
		Columns: []infer.Column{
			{Name: "bio", Type: pgschema.Type{OID: oidText}, Nullable: true},
		},
	}
	got := inferSQL(t, schema, "select bio from users where bio is not null", raw)
	require.Len(t, got.Columns, 1)
	assert.False(t, got.Columns[0].Nullable)
}

func TestInferAST_LimitOne_RowCountZeroOrOne(t *testing.T) {
	schema := usersSchema()
	raw := infer.StatementDescription{
		SQL: "select user_id from users limit 1",
		Columns: []infer.Column{
			{Name: "user_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
		},
	}
	got := inferSQL(t, schema, "select user_id from users limit 1", raw)
	assert.Equal(t, infer.RowCountZeroOrOne, got.RowCount)
}

func TestInferAST_LeftJoin_ForcesRightSideNullable(t *testing.T) {
	schema := pgschema.NewStaticClient(
		pgschema.Table{Name: "users", Columns: []pgschema.Column{
			{Name: "user_id", Type: pgschema.Type{OID: oidInt4}, Nullable: false},
		}},
		pgschema.Table{Name: "orders", Columns: []pgschema.Column{
			{Name: "order_id", Type: pgschema.Type{OID: oidInt4}, Nullable: false},
			{Name: "user_id", Type: pgschema.Type{OID: oidInt4}, Nullable: false},
		}},
	)
	sql := "select o.order_id from users u left join orders o on o.user_id = u.user_id"
	raw := infer.StatementDescription{
		SQL: sql,
		Columns: []infer.Column{
			{Name: "order_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
		},
	}
	got := inferSQL(t, schema, sql, raw)
	assert.True(t, got.Columns[0].Nullable, "right side of a LEFT JOIN is nullable")
}

func TestInferAST_InsertValuesReturning_RefinesParamsAndColumns(t *testing.T) {
	schema := usersSchema()
	sql := "insert into users (user_id, name, bio) values ($1, $2, $3) returning user_id, bio"
	raw := infer.StatementDescription{
		SQL: sql,
		Columns: []infer.Column{
			{Name: "user_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
			{Name: "bio", Type: pgschema.Type{OID: oidText}, Nullable: true},
		},
		Params: []infer.Param{
			{OID: oidInt4, Nullable: true},
			{OID: oidText, Nullable: true},
			{OID: oidText, Nullable: true},
		},
	}
	got := inferSQL(t, schema, sql, raw)
	assert.False(t, got.Columns[0].Nullable)
	assert.True(t, got.Columns[1].Nullable)
	assert.False(t, got.Params[0].Nullable, "$1 binds to NOT NULL user_id")
	assert.False(t, got.Params[1].Nullable, "$2 binds to NOT NULL name")
	assert.True(t, got.Params[2].Nullable, "$3 binds to nullable bio")
	assert.Equal(t, infer.RowCountOne, got.RowCount)
}

func TestInferAST_UpdateSetVsWhere_OnlySetParamsRefined(t *testing.T) {
	schema := usersSchema()
	sql := "update users set bio = $1 where user_id = $2"
	raw := infer.StatementDescription{
		SQL: sql,
		Params: []infer.Param{
			{OID: oidText, Nullable: true},
			{OID: oidInt4, Nullable: true},
		},
	}
	got := inferSQL(t, schema, sql, raw)
	assert.True(t, got.Params[0].Nullable, "$1 binds to nullable bio via SET")
	assert.True(t, got.Params[1].Nullable, "$2 is only in WHERE, left at driver default")
}

func TestInferAST_WithRecursive_SelfReferenceResolvesAgainstBaseTerm(t *testing.T) {
	schema := pgschema.NewStaticClient(pgschema.Table{
		Name: "nodes",
		Columns: []pgschema.Column{
			{Name: "id", Type: pgschema.Type{OID: oidInt4}, Nullable: false},
			{Name: "parent_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
		},
	})
	sql := `
		WITH RECURSIVE tree AS (
			SELECT id, parent_id FROM nodes WHERE parent_id IS NULL
			UNION ALL
			SELECT n.id, n.parent_id FROM nodes n JOIN tree t ON n.parent_id = t.id
		)
		SELECT id, parent_id FROM tree
	`
	raw := infer.StatementDescription{
		SQL: sql,
		Columns: []infer.Column{
			{Name: "id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
			{Name: "parent_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
		},
	}
	got := inferSQL(t, schema, sql, raw)
	want := infer.StatementDescription{
		SQL: sql,
		Columns: []infer.Column{
			{Name: "id", Type: pgschema.Type{OID: oidInt4}, Nullable: false},
			{Name: "parent_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
		},
		RowCount: infer.RowCountMany,
	}
	difftest.AssertSame(t, want, got)
}

func TestInferAST_ColumnCountMismatch_IsInvariantError(t *testing.T) {
	schema := usersSchema()
	sql := "select user_id, name from users"
	stmt, err := sqlparse.New().Parse(sql)
	require.NoError(t, err)
	raw := infer.StatementDescription{
		SQL: sql,
		Columns: []infer.Column{
			{Name: "user_id", Type: pgschema.Type{OID: oidInt4}, Nullable: true},
		},
	}
	_, err = infer.InferAST(schema, raw, stmt)
	require.Error(t, err)
	assert.ErrorIs(t, err, infer.ErrInvariant)
}
