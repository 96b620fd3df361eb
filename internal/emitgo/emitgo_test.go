package emitgo_test

import (
	"strings"
	"testing"

	"github.com/jschaf/sqlnullify/internal/emitgo"
	"github.com/jschaf/sqlnullify/internal/infer"
	"github.com/jschaf/sqlnullify/internal/pgschema"
	"github.com/jschaf/sqlnullify/internal/queryfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_OneResultQuery(t *testing.T) {
	results := []emitgo.QueryResult{
		{
			Query: queryfile.Query{Name: "FindUser", ResultKind: queryfile.ResultKindOne, SQL: "select user_id, bio from users where user_id = $1"},
			Desc: infer.StatementDescription{
				SQL: "select user_id, bio from users where user_id = $1",
				Columns: []infer.Column{
					{Name: "user_id", Type: pgschema.Type{OID: 23}, Nullable: false},
					{Name: "bio", Type: pgschema.Type{OID: 25}, Nullable: true},
				},
				Params: []infer.Param{{OID: 23, Nullable: false}},
			},
		},
	}
	var buf strings.Builder
	err := emitgo.Generate(&buf, "querytest", results)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "package querytest")
	assert.Contains(t, out, "type FindUserRow struct")
	assert.Contains(t, out, "UserID int32")
	assert.Contains(t, out, "Bio *string")
	assert.Contains(t, out, "func QueryFindUser(ctx context.Context, db pgx.Tx, param1 int32) (FindUserRow, error)")
}

func TestGenerate_ExecQueryWithNoRows(t *testing.T) {
	results := []emitgo.QueryResult{
		{
			Query: queryfile.Query{Name: "DeleteUser", ResultKind: queryfile.ResultKindExec, SQL: "delete from users where user_id = $1"},
			Desc: infer.StatementDescription{
				SQL:    "delete from users where user_id = $1",
				Params: []infer.Param{{OID: 23, Nullable: false}},
			},
		},
	}
	var buf strings.Builder
	err := emitgo.Generate(&buf, "querytest", results)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "func ExecDeleteUser(ctx context.Context, db pgx.Tx, param1 int32) (pgconn.CommandTag, error)")
	assert.NotContains(t, out, "DeleteUserRow")
}

func TestGenerate_ManyParams_UsesParamsStruct(t *testing.T) {
	results := []emitgo.QueryResult{
		{
			Query: queryfile.Query{Name: "InsertUser", ResultKind: queryfile.ResultKindExec, SQL: "insert into users (a, b, c) values ($1, $2, $3)"},
			Desc: infer.StatementDescription{
				SQL: "insert into users (a, b, c) values ($1, $2, $3)",
				Params: []infer.Param{
					{OID: 23, Nullable: false},
					{OID: 25, Nullable: false},
					{OID: 16, Nullable: true},
				},
			},
		},
	}
	var buf strings.Builder
	err := emitgo.Generate(&buf, "querytest", results)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "type InsertUserParams struct")
	assert.Contains(t, out, "params InsertUserParams")
}
