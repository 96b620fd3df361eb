package ast_test

import (
	"testing"

	"github.com/jschaf/sqlnullify/internal/ast"
	"github.com/stretchr/testify/assert"
)

func TestEqual_ColumnRef(t *testing.T) {
	assert.True(t, ast.Equal(&ast.ColumnRef{Column: "bio"}, &ast.ColumnRef{Column: "bio"}))
	assert.False(t, ast.Equal(&ast.ColumnRef{Column: "bio"}, &ast.ColumnRef{Column: "name"}))
}

func TestEqual_TableColumnRef_RequiresSameTable(t *testing.T) {
	a := &ast.TableColumnRef{Table: "u", Column: "bio"}
	b := &ast.TableColumnRef{Table: "u", Column: "bio"}
	c := &ast.TableColumnRef{Table: "o", Column: "bio"}
	assert.True(t, ast.Equal(a, b))
	assert.False(t, ast.Equal(a, c))
}

func TestEqual_DifferentKinds_NotEqual(t *testing.T) {
	assert.False(t, ast.Equal(&ast.ColumnRef{Column: "bio"}, &ast.Constant{Text: "bio"}))
}

func TestEqual_BinaryOp_Recursive(t *testing.T) {
	a := &ast.BinaryOp{Op: "AND",
		LHS: &ast.ColumnRef{Column: "a"},
		RHS: &ast.ColumnRef{Column: "b"},
	}
	b := &ast.BinaryOp{Op: "AND",
		LHS: &ast.ColumnRef{Column: "a"},
		RHS: &ast.ColumnRef{Column: "b"},
	}
	c := &ast.BinaryOp{Op: "AND",
		LHS: &ast.ColumnRef{Column: "a"},
		RHS: &ast.ColumnRef{Column: "c"},
	}
	assert.True(t, ast.Equal(a, b))
	assert.False(t, ast.Equal(a, c))
}

func TestEqual_NilHandling(t *testing.T) {
	assert.True(t, ast.Equal(nil, nil))
	assert.False(t, ast.Equal(&ast.ColumnRef{Column: "a"}, nil))
}

func TestEqual_SubqueryIdentityIsOutOfScope(t *testing.T) {
	// Two distinct EXISTS expressions with different subqueries still count
	// as equal: subquery contents aren't compared.
	a := &ast.ExistsOp{Subquery: &ast.SelectStatement{}}
	b := &ast.ExistsOp{Subquery: nil}
	assert.True(t, ast.Equal(a, b))
}
