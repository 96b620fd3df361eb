package sqlparse

import (
	"testing"

	"github.com/jschaf/sqlnullify/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, sql string) ast.Statement {
	t.Helper()
	stmt, err := New().Parse(sql)
	require.NoError(t, err, "sql: %s", sql)
	return stmt
}

func TestParser_Select_Basic(t *testing.T) {
	stmt := mustParse(t, "SELECT id, name FROM users WHERE id = $1")
	sel, ok := stmt.(*ast.SelectStatement)
	require.True(t, ok)
	require.Len(t, sel.List, 2)
	assert.Equal(t, "id", sel.List[0].Expr.(*ast.ColumnRef).Column)
	assert.Equal(t, "name", sel.List[1].Expr.(*ast.ColumnRef).Column)
	from, ok := sel.From.(*ast.TableRef)
	require.True(t, ok)
	assert.Equal(t, "users", from.Name)
	where, ok := sel.Where.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "=", where.Op)
	assert.Equal(t, 1, where.RHS.(*ast.Parameter).Index)
}

func TestParser_Select_Star(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM users")
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.List, 1)
	assert.True(t, sel.List[0].Star)
	assert.Equal(t, "", sel.List[0].TableStar)
}

func TestParser_Select_TableStar(t *testing.T) {
	stmt := mustParse(t, "SELECT u.* FROM users u")
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.List, 1)
	assert.True(t, sel.List[0].Star)
	assert.Equal(t, "u", sel.List[0].TableStar)
	from := sel.From.(*ast.TableRef)
	assert.Equal(t, "u", from.As)
}

func TestParser_Select_Joins(t *testing.T) {
	stmt := mustParse(t, `
		SELECT o.id, c.name
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		INNER JOIN warehouses w ON w.id = o.warehouse_id
	`)
	sel := stmt.(*ast.SelectStatement)
	outer, ok := sel.From.(*ast.QualifiedJoin)
	require.True(t, ok)
	assert.Equal(t, ast.JoinInner, outer.JoinType)
	inner, ok := outer.Left.(*ast.QualifiedJoin)
	require.True(t, ok)
	assert.Equal(t, ast.JoinLeft, inner.JoinType)
}

func TestParser_Select_CommaCrossJoin(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM a, b")
	sel := stmt.(*ast.SelectStatement)
	cross, ok := sel.From.(*ast.CrossJoin)
	require.True(t, ok)
	assert.Equal(t, "a", cross.Left.(*ast.TableRef).Name)
	assert.Equal(t, "b", cross.Right.(*ast.TableRef).Name)
}

func TestParser_Select_LimitOne(t *testing.T) {
	stmt := mustParse(t, "SELECT id FROM users ORDER BY created_at DESC LIMIT 1")
	sel := stmt.(*ast.SelectStatement)
	require.NotNil(t, sel.Limit)
	c, ok := sel.Limit.(*ast.Constant)
	require.True(t, ok)
	assert.Equal(t, "1", c.Text)
}

func TestParser_Select_WhereIsNotNull(t *testing.T) {
	stmt := mustParse(t, "SELECT id FROM users WHERE email IS NOT NULL")
	sel := stmt.(*ast.SelectStatement)
	op, ok := sel.Where.(*ast.UnaryOp)
	require.True(t, ok)
	assert.Equal(t, "NOTNULL", op.Op)
	assert.Equal(t, "email", op.Operand.(*ast.ColumnRef).Column)
}

func TestParser_Select_WithCTE(t *testing.T) {
	stmt := mustParse(t, `
		WITH active AS (SELECT id FROM users WHERE active = true)
		SELECT id FROM active
	`)
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.With, 1)
	assert.Equal(t, "active", sel.With[0].Name)
	assert.False(t, sel.With[0].Recursive)
}

func TestParser_Select_WithRecursive(t *testing.T) {
	stmt := mustParse(t, `
		WITH RECURSIVE tree AS (
			SELECT id, parent_id FROM nodes WHERE parent_id IS NULL
			UNION ALL
			SELECT n.id, n.parent_id FROM nodes n JOIN tree t ON n.parent_id = t.id
		)
		SELECT id FROM tree
	`)
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.With, 1)
	assert.True(t, sel.With[0].Recursive)
	body, ok := sel.With[0].Query.(*ast.SelectStatement)
	require.True(t, ok)
	assert.Equal(t, ast.SetOpUnion, body.SetOp)
	assert.True(t, body.SetAll)
}

func TestParser_Select_SetOp(t *testing.T) {
	stmt := mustParse(t, "SELECT id FROM a UNION SELECT id FROM b")
	sel := stmt.(*ast.SelectStatement)
	assert.Equal(t, ast.SetOpUnion, sel.SetOp)
	assert.False(t, sel.SetAll)
	require.NotNil(t, sel.Left)
	require.NotNil(t, sel.Right)
}

func TestParser_Select_ExistsAndIn(t *testing.T) {
	stmt := mustParse(t, `
		SELECT id FROM users u
		WHERE EXISTS (SELECT 1 FROM orders o WHERE o.user_id = u.id)
		AND u.plan IN ('gold', 'silver')
	`)
	sel := stmt.(*ast.SelectStatement)
	and, ok := sel.Where.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "AND", and.Op)
	_, ok = and.LHS.(*ast.ExistsOp)
	assert.True(t, ok)
	inList, ok := and.RHS.(*ast.InList)
	require.True(t, ok)
	require.Len(t, inList.Items, 2)
}

func TestParser_Select_ArraySubqueryAndScalarSubquery(t *testing.T) {
	stmt := mustParse(t, `
		SELECT
			ARRAY(SELECT tag FROM tags WHERE tags.post_id = posts.id) AS tags,
			(SELECT count(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count
		FROM posts
	`)
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.List, 2)
	_, ok := sel.List[0].Expr.(*ast.ArraySubQuery)
	assert.True(t, ok)
	assert.Equal(t, "tags", sel.List[0].Alias)
	_, ok = sel.List[1].Expr.(*ast.SubqueryExpr)
	assert.True(t, ok)
	assert.Equal(t, "comment_count", sel.List[1].Alias)
}

func TestParser_Select_CastAndFunctionCall(t *testing.T) {
	stmt := mustParse(t, "SELECT coalesce(nickname, name)::text AS display_name FROM users")
	sel := stmt.(*ast.SelectStatement)
	cast, ok := sel.List[0].Expr.(*ast.TypeCast)
	require.True(t, ok)
	assert.Equal(t, "text", cast.TargetType)
	call, ok := cast.LHS.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "coalesce", call.Name)
	require.Len(t, call.Args, 2)
}

func TestParser_Select_CastMultiWordType(t *testing.T) {
	stmt := mustParse(t, "SELECT created_at::timestamp without time zone FROM events")
	sel := stmt.(*ast.SelectStatement)
	cast, ok := sel.List[0].Expr.(*ast.TypeCast)
	require.True(t, ok)
	assert.Equal(t, "timestamp without time zone", cast.TargetType)
}

func TestParser_Insert_ValuesReturning(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id, created_at")
	ins := stmt.(*ast.InsertStatement)
	assert.Equal(t, "users", ins.Table.Name)
	assert.Equal(t, []string{"name", "email"}, ins.Columns)
	require.Len(t, ins.Values, 1)
	require.Len(t, ins.Values[0], 2)
	require.Len(t, ins.Returning, 2)
}

func TestParser_Insert_MultiRowValues(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO logs (msg) VALUES ($1), ($2), ($3)")
	ins := stmt.(*ast.InsertStatement)
	require.Len(t, ins.Values, 3)
}

func TestParser_Insert_DefaultValues(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO events DEFAULT VALUES RETURNING id")
	ins := stmt.(*ast.InsertStatement)
	assert.True(t, ins.DefaultVals)
	require.Len(t, ins.Returning, 1)
}

func TestParser_Insert_Select(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO archive (id, name) SELECT id, name FROM users WHERE active = false")
	ins := stmt.(*ast.InsertStatement)
	require.NotNil(t, ins.Select)
	require.Nil(t, ins.Values)
}

func TestParser_Update_SetFromWhereReturning(t *testing.T) {
	stmt := mustParse(t, `
		UPDATE users u
		SET name = $1, updated_at = now()
		FROM accounts a
		WHERE u.account_id = a.id AND u.id = $2
		RETURNING u.id
	`)
	upd := stmt.(*ast.UpdateStatement)
	require.Len(t, upd.Sets, 2)
	assert.Equal(t, "name", upd.Sets[0].Column)
	require.NotNil(t, upd.From)
	require.NotNil(t, upd.Where)
	require.Len(t, upd.Returning, 1)
}

func TestParser_Delete_WhereReturning(t *testing.T) {
	stmt := mustParse(t, "DELETE FROM sessions WHERE expires_at < now() RETURNING token")
	del := stmt.(*ast.DeleteStatement)
	assert.Equal(t, "sessions", del.Table.Name)
	require.NotNil(t, del.Where)
	require.Len(t, del.Returning, 1)
}

func TestParser_UnsupportedCaseDegradesExpression(t *testing.T) {
	stmt := mustParse(t, "SELECT CASE WHEN active THEN 1 ELSE 0 END AS flag FROM users")
	sel := stmt.(*ast.SelectStatement)
	_, ok := sel.List[0].Expr.(*ast.Unsupported)
	assert.True(t, ok)
}

func TestParser_Precedence(t *testing.T) {
	stmt := mustParse(t, "SELECT id FROM t WHERE a = 1 AND b = 2 OR c = 3")
	sel := stmt.(*ast.SelectStatement)
	or, ok := sel.Where.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "OR", or.Op)
	and, ok := or.LHS.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "AND", and.Op)
}

func TestParser_ErrorOnGarbage(t *testing.T) {
	_, err := New().Parse("SELECT FROM WHERE")
	assert.Error(t, err)
}
