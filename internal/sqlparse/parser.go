// Package sqlparse turns SQL text into the internal/ast tree internal/infer
// walks. It is a hand-written recursive-descent parser over a hand-written
// scanner (byte-offset error reporting, up to two look-ahead tokens)
// targeted at parsing a single SQL statement's expression grammar.
//
// Coverage: SELECT/INSERT/UPDATE/DELETE, WITH (including WITH RECURSIVE),
// the four join kinds, and the closed expression sum. CASE, BETWEEN and
// IS [NOT] TRUE/FALSE/UNKNOWN are skipped structurally and folded into
// ast.Unsupported, so they degrade only the expression that used them.
// GROUP BY, HAVING, ORDER BY, WINDOW and FOR clauses are consumed and
// discarded. Other constructs outside the grammar, such as window calls
// (OVER), GROUPING SETS and LATERAL, make the whole parse fail.
package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jschaf/sqlnullify/internal/ast"
)

// Parser implements infer.Parser.
type Parser struct{}

// New returns a ready-to-use Parser. Parser holds no state between calls.
func New() *Parser { return &Parser{} }

// Parse parses a single SQL statement, ignoring a single trailing
// semicolon if present.
func (p *Parser) Parse(sql string) (stmt ast.Statement, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(parseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	pp := &parser{sc: newScanner(sql)}
	pp.advance()
	stmt = pp.parseInnerStatement()
	if pp.tok.kind == tokPunct && pp.tok.text == ";" {
		pp.advance()
	}
	if pp.tok.kind != tokEOF {
		pp.fail("unexpected trailing input %q", pp.tok.text)
	}
	return stmt, nil
}

type parseError struct {
	msg string
	pos int
}

func (e parseError) Error() string {
	return fmt.Sprintf("sqlparse: %s (at byte offset %d)", e.msg, e.pos)
}

type parser struct {
	sc    *scanner
	tok   token
	queue []token
}

func (p *parser) fill(n int) {
	for len(p.queue) < n {
		t, err := p.sc.next()
		if err != nil {
			panic(parseError{msg: err.Error(), pos: p.tok.pos})
		}
		p.queue = append(p.queue, t)
	}
}

// peekN returns the token n positions after the current one; peekN(1) is
// the token that advance() would make current next.
func (p *parser) peekN(n int) token {
	p.fill(n)
	return p.queue[n-1]
}

func (p *parser) advance() {
	if len(p.queue) == 0 {
		p.fill(1)
	}
	p.tok = p.queue[0]
	p.queue = p.queue[1:]
}

func (p *parser) fail(format string, args ...interface{}) {
	panic(parseError{msg: fmt.Sprintf(format, args...), pos: p.tok.pos})
}

func (p *parser) peekKeyword(word string) bool {
	return p.tok.kind == tokIdent && p.tok.upperKeyword() == word
}

func (p *parser) peekNKeyword(n int, word string) bool {
	t := p.peekN(n)
	return t.kind == tokIdent && t.upperKeyword() == word
}

func (p *parser) expectKeyword(word string) {
	if !p.peekKeyword(word) {
		p.fail("expected keyword %s, got %q", word, p.tok.text)
	}
	p.advance()
}

func (p *parser) expectPunct(s string) {
	if !(p.tok.kind == tokPunct && p.tok.text == s) {
		p.fail("expected %q, got %q", s, p.tok.text)
	}
	p.advance()
}

func (p *parser) peekOp(s string) bool {
	return p.tok.kind == tokOp && p.tok.text == s
}

func (p *parser) expectOp(s string) {
	if !p.peekOp(s) {
		p.fail("expected operator %q, got %q", s, p.tok.text)
	}
	p.advance()
}

// isIdentLike reports whether t can serve as an identifier (a name or a
// quoted identifier).
func isIdentLike(t token) bool { return t.kind == tokIdent || t.kind == tokQuotedIdent }

func (p *parser) parseIdentName() string {
	if !isIdentLike(p.tok) {
		p.fail("expected identifier, got %q", p.tok.text)
	}
	name := p.tok.text
	p.advance()
	return name
}

// reservedWords cannot be consumed as an implicit (AS-less) alias for a
// table or select-list expression.
var reservedWords = map[string]bool{
	"WHERE": true, "JOIN": true, "ON": true, "INNER": true, "LEFT": true,
	"RIGHT": true, "FULL": true, "CROSS": true, "GROUP": true, "ORDER": true,
	"LIMIT": true, "OFFSET": true, "RETURNING": true, "UNION": true,
	"INTERSECT": true, "EXCEPT": true, "HAVING": true, "SET": true,
	"VALUES": true, "FROM": true, "AND": true, "OR": true, "AS": true,
	"DEFAULT": true,
}

func (p *parser) canBeImplicitAlias() bool {
	return isIdentLike(p.tok) && (p.tok.kind == tokQuotedIdent || !reservedWords[p.tok.upperKeyword()])
}

// ----------------------------------------------------------------------------
// Statements

func (p *parser) parseInnerStatement() ast.Statement {
	with := p.parseOptionalWith()
	switch {
	case p.peekKeyword("SELECT"):
		return p.parseSelectSetOp(with)
	case p.peekKeyword("INSERT"):
		return p.parseInsert(with)
	case p.peekKeyword("UPDATE"):
		return p.parseUpdate(with)
	case p.peekKeyword("DELETE"):
		return p.parseDelete(with)
	default:
		p.fail("expected SELECT, INSERT, UPDATE, or DELETE, got %q", p.tok.text)
		return nil
	}
}

func (p *parser) parseOptionalWith() []ast.WithQuery {
	if !p.peekKeyword("WITH") {
		return nil
	}
	p.advance()
	recursive := false
	if p.peekKeyword("RECURSIVE") {
		recursive = true
		p.advance()
	}
	var out []ast.WithQuery
	for {
		name := p.parseIdentName()
		p.expectKeyword("AS")
		p.expectPunct("(")
		body := p.parseInnerStatement()
		p.expectPunct(")")
		out = append(out, ast.WithQuery{Name: name, Query: body, Recursive: recursive})
		if p.tok.kind == tokPunct && p.tok.text == "," {
			p.advance()
			continue
		}
		break
	}
	return out
}

func (p *parser) parseSelectSetOp(with []ast.WithQuery) *ast.SelectStatement {
	left := p.parseSelectPrimary()
	for {
		var opKind ast.SetOpKind
		switch {
		case p.peekKeyword("UNION"):
			opKind = ast.SetOpUnion
		case p.peekKeyword("INTERSECT"):
			opKind = ast.SetOpIntersect
		case p.peekKeyword("EXCEPT"):
			opKind = ast.SetOpExcept
		default:
			left.With = with
			return left
		}
		p.advance()
		all := false
		if p.peekKeyword("ALL") {
			all = true
			p.advance()
		} else if p.peekKeyword("DISTINCT") {
			p.advance()
		}
		right := p.parseSelectPrimary()
		left = &ast.SelectStatement{SetOp: opKind, SetAll: all, Left: left, Right: right}
	}
}

func (p *parser) parseSelectPrimary() *ast.SelectStatement {
	if p.tok.kind == tokPunct && p.tok.text == "(" {
		p.advance()
		inner := p.parseSelectSetOp(nil)
		p.expectPunct(")")
		return inner
	}
	p.expectKeyword("SELECT")
	if p.peekKeyword("DISTINCT") {
		p.advance()
		if p.peekKeyword("ON") {
			p.advance()
			p.expectPunct("(")
			for {
				p.parseExpr()
				if p.tok.kind == tokPunct && p.tok.text == "," {
					p.advance()
					continue
				}
				break
			}
			p.expectPunct(")")
		}
	} else if p.peekKeyword("ALL") {
		p.advance()
	}

	list := p.parseSelectList()

	var from ast.TableExpression
	if p.peekKeyword("FROM") {
		p.advance()
		from = p.parseTableExpr()
	}

	var where ast.Expr
	if p.peekKeyword("WHERE") {
		p.advance()
		where = p.parseExpr()
	}

	for {
		switch {
		case p.peekKeyword("GROUP"):
			p.advance()
			p.expectKeyword("BY")
			p.parseExprListDiscard()
			continue
		case p.peekKeyword("HAVING"):
			p.advance()
			p.parseExpr()
			continue
		case p.peekKeyword("ORDER"):
			p.advance()
			p.expectKeyword("BY")
			p.parseOrderByListDiscard()
			continue
		case p.peekKeyword("WINDOW"):
			p.advance()
			p.skipUntilClauseBoundary()
			continue
		}
		break
	}

	var limit ast.Expr
	if p.peekKeyword("LIMIT") {
		p.advance()
		if !p.peekKeyword("ALL") {
			limit = p.parseExpr()
		} else {
			p.advance()
		}
	}
	if p.peekKeyword("OFFSET") {
		p.advance()
		p.parseExpr()
		if p.peekKeyword("ROW") || p.peekKeyword("ROWS") {
			p.advance()
		}
	}
	if p.peekKeyword("FOR") { // FOR UPDATE / FOR SHARE
		p.advance()
		p.skipUntilClauseBoundary()
	}

	return &ast.SelectStatement{List: list, From: from, Where: where, Limit: limit}
}

// skipUntilClauseBoundary consumes tokens until a token that plausibly
// starts a new clause, a statement terminator, or a closing paren. Used
// for trailing clauses (WINDOW, FOR UPDATE) this parser recognizes the
// start of but doesn't model.
func (p *parser) skipUntilClauseBoundary() {
	for {
		switch {
		case p.tok.kind == tokEOF:
			return
		case p.tok.kind == tokPunct && (p.tok.text == ";" || p.tok.text == ")"):
			return
		case p.peekKeyword("LIMIT"), p.peekKeyword("OFFSET"), p.peekKeyword("UNION"),
			p.peekKeyword("INTERSECT"), p.peekKeyword("EXCEPT"):
			return
		}
		p.advance()
	}
}

func (p *parser) parseExprListDiscard() {
	for {
		p.parseExpr()
		if p.tok.kind == tokPunct && p.tok.text == "," {
			p.advance()
			continue
		}
		break
	}
}

func (p *parser) parseOrderByListDiscard() {
	for {
		p.parseExpr()
		if p.peekKeyword("ASC") || p.peekKeyword("DESC") {
			p.advance()
		}
		if p.peekKeyword("NULLS") {
			p.advance()
			if p.peekKeyword("FIRST") || p.peekKeyword("LAST") {
				p.advance()
			}
		}
		if p.tok.kind == tokPunct && p.tok.text == "," {
			p.advance()
			continue
		}
		break
	}
}

func (p *parser) parseSelectList() []ast.SelectItem {
	var items []ast.SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if p.tok.kind == tokPunct && p.tok.text == "," {
			p.advance()
			continue
		}
		break
	}
	return items
}

func (p *parser) parseSelectItem() ast.SelectItem {
	if p.peekOp("*") {
		p.advance()
		return ast.SelectItem{Star: true}
	}
	if isIdentLike(p.tok) && p.peekN(1).kind == tokPunct && p.peekN(1).text == "." && p.peekN(2).kind == tokOp && p.peekN(2).text == "*" {
		table := p.tok.text
		p.advance()
		p.advance()
		p.advance()
		return ast.SelectItem{Star: true, TableStar: table}
	}
	expr := p.parseExpr()
	alias := ""
	if p.peekKeyword("AS") {
		p.advance()
		alias = p.parseIdentName()
	} else if p.canBeImplicitAlias() {
		alias = p.parseIdentName()
	}
	return ast.SelectItem{Expr: expr, Alias: alias}
}

func (p *parser) parseInsert(with []ast.WithQuery) *ast.InsertStatement {
	p.expectKeyword("INSERT")
	p.expectKeyword("INTO")
	table := p.parseTableName()
	if p.peekKeyword("AS") {
		p.advance()
		table.As = p.parseIdentName()
	} else if p.canBeImplicitAlias() {
		table.As = p.parseIdentName()
	}

	var columns []string
	if p.tok.kind == tokPunct && p.tok.text == "(" {
		p.advance()
		for {
			columns = append(columns, p.parseIdentName())
			if p.tok.kind == tokPunct && p.tok.text == "," {
				p.advance()
				continue
			}
			break
		}
		p.expectPunct(")")
	}

	var values [][]ast.Expr
	var sel *ast.SelectStatement
	defaultVals := false

	switch {
	case p.peekKeyword("DEFAULT"):
		p.advance()
		p.expectKeyword("VALUES")
		defaultVals = true
	case p.peekKeyword("VALUES"):
		p.advance()
		for {
			p.expectPunct("(")
			var row []ast.Expr
			for {
				row = append(row, p.parseExpr())
				if p.tok.kind == tokPunct && p.tok.text == "," {
					p.advance()
					continue
				}
				break
			}
			p.expectPunct(")")
			values = append(values, row)
			if p.tok.kind == tokPunct && p.tok.text == "," {
				p.advance()
				continue
			}
			break
		}
	case p.peekKeyword("SELECT") || p.peekKeyword("WITH"):
		sel = p.parseSelectSetOp(nil)
	default:
		p.fail("expected VALUES, DEFAULT VALUES, or SELECT after INSERT INTO, got %q", p.tok.text)
	}

	if p.peekKeyword("ON") { // ON CONFLICT ...; not modeled, skip to RETURNING/end
		p.advance()
		p.skipUntilClauseBoundaryInsert()
	}

	var returning []ast.SelectItem
	if p.peekKeyword("RETURNING") {
		p.advance()
		returning = p.parseSelectList()
	}
	return &ast.InsertStatement{
		With: with, Table: table, Columns: columns, Values: values,
		Select: sel, DefaultVals: defaultVals, Returning: returning,
	}
}

func (p *parser) skipUntilClauseBoundaryInsert() {
	for {
		switch {
		case p.tok.kind == tokEOF:
			return
		case p.tok.kind == tokPunct && p.tok.text == ";":
			return
		case p.peekKeyword("RETURNING"):
			return
		}
		p.advance()
	}
}

func (p *parser) parseUpdate(with []ast.WithQuery) *ast.UpdateStatement {
	p.expectKeyword("UPDATE")
	table := p.parseTableName()
	if p.peekKeyword("AS") {
		p.advance()
		table.As = p.parseIdentName()
	} else if p.canBeImplicitAlias() {
		table.As = p.parseIdentName()
	}
	p.expectKeyword("SET")

	var sets []ast.SetClause
	for {
		col := p.parseIdentName()
		p.expectOp("=")
		val := p.parseExpr()
		sets = append(sets, ast.SetClause{Column: col, Value: val})
		if p.tok.kind == tokPunct && p.tok.text == "," {
			p.advance()
			continue
		}
		break
	}

	var from ast.TableExpression
	if p.peekKeyword("FROM") {
		p.advance()
		from = p.parseTableExpr()
	}
	var where ast.Expr
	if p.peekKeyword("WHERE") {
		p.advance()
		where = p.parseExpr()
	}
	var returning []ast.SelectItem
	if p.peekKeyword("RETURNING") {
		p.advance()
		returning = p.parseSelectList()
	}
	return &ast.UpdateStatement{With: with, Table: table, Sets: sets, From: from, Where: where, Returning: returning}
}

func (p *parser) parseDelete(with []ast.WithQuery) *ast.DeleteStatement {
	p.expectKeyword("DELETE")
	p.expectKeyword("FROM")
	table := p.parseTableName()
	if p.peekKeyword("AS") {
		p.advance()
		table.As = p.parseIdentName()
	} else if p.canBeImplicitAlias() {
		table.As = p.parseIdentName()
	}
	var where ast.Expr
	if p.peekKeyword("WHERE") {
		p.advance()
		where = p.parseExpr()
	}
	var returning []ast.SelectItem
	if p.peekKeyword("RETURNING") {
		p.advance()
		returning = p.parseSelectList()
	}
	return &ast.DeleteStatement{With: with, Table: table, Where: where, Returning: returning}
}

func (p *parser) parseTableName() ast.TableRef {
	first := p.parseIdentName()
	if p.tok.kind == tokPunct && p.tok.text == "." {
		p.advance()
		second := p.parseIdentName()
		return ast.TableRef{Schema: first, Name: second}
	}
	return ast.TableRef{Name: first}
}

// ----------------------------------------------------------------------------
// Table expressions

func (p *parser) parseTableExpr() ast.TableExpression {
	left := p.parseTableRefOrSub()
	for {
		if p.tok.kind == tokPunct && p.tok.text == "," {
			p.advance()
			right := p.parseTableRefOrSub()
			left = &ast.CrossJoin{Left: left, Right: right}
			continue
		}
		joinType, isCross, ok := p.tryParseJoinKeyword()
		if !ok {
			break
		}
		right := p.parseTableRefOrSub()
		if isCross {
			left = &ast.CrossJoin{Left: left, Right: right}
			continue
		}
		p.expectKeyword("ON")
		on := p.parseExpr()
		left = &ast.QualifiedJoin{Left: left, Right: right, JoinType: joinType, On: on}
	}
	return left
}

func (p *parser) tryParseJoinKeyword() (jt ast.JoinType, isCross bool, ok bool) {
	switch {
	case p.peekKeyword("CROSS"):
		p.advance()
		p.expectKeyword("JOIN")
		return "", true, true
	case p.peekKeyword("JOIN"):
		p.advance()
		return ast.JoinInner, false, true
	case p.peekKeyword("INNER"):
		p.advance()
		p.expectKeyword("JOIN")
		return ast.JoinInner, false, true
	case p.peekKeyword("LEFT"):
		p.advance()
		if p.peekKeyword("OUTER") {
			p.advance()
		}
		p.expectKeyword("JOIN")
		return ast.JoinLeft, false, true
	case p.peekKeyword("RIGHT"):
		p.advance()
		if p.peekKeyword("OUTER") {
			p.advance()
		}
		p.expectKeyword("JOIN")
		return ast.JoinRight, false, true
	case p.peekKeyword("FULL"):
		p.advance()
		if p.peekKeyword("OUTER") {
			p.advance()
		}
		p.expectKeyword("JOIN")
		return ast.JoinFull, false, true
	default:
		return "", false, false
	}
}

func (p *parser) parseTableRefOrSub() ast.TableExpression {
	if p.tok.kind == tokPunct && p.tok.text == "(" {
		p.advance()
		sub := p.parseSelectSetOp(nil)
		p.expectPunct(")")
		as := ""
		if p.peekKeyword("AS") {
			p.advance()
			as = p.parseIdentName()
		} else if p.canBeImplicitAlias() {
			as = p.parseIdentName()
		}
		return &ast.SubQuery{Query: sub, As: as}
	}
	ref := p.parseTableName()
	if p.peekKeyword("AS") {
		p.advance()
		ref.As = p.parseIdentName()
	} else if p.canBeImplicitAlias() {
		ref.As = p.parseIdentName()
	}
	return &ref
}

// ----------------------------------------------------------------------------
// Expressions: precedence-climbing recursive descent.
//
// OR < AND < NOT (prefix) < comparison/IS/IN/LIKE/BETWEEN < +,-,|| <
// *,/,% < unary +,- < ::cast (postfix) < primary.

func (p *parser) parseExpr() ast.Expr { return p.parseOr() }

func (p *parser) parseOr() ast.Expr {
	l := p.parseAnd()
	for p.peekKeyword("OR") {
		p.advance()
		r := p.parseAnd()
		l = &ast.BinaryOp{Op: "OR", LHS: l, RHS: r}
	}
	return l
}

func (p *parser) parseAnd() ast.Expr {
	l := p.parseNot()
	for p.peekKeyword("AND") {
		p.advance()
		r := p.parseNot()
		l = &ast.BinaryOp{Op: "AND", LHS: l, RHS: r}
	}
	return l
}

func (p *parser) parseNot() ast.Expr {
	if p.peekKeyword("NOT") {
		p.advance()
		operand := p.parseNot()
		return &ast.UnaryOp{Op: "NOT", Operand: operand}
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() ast.Expr {
	l := p.parseAdditive()

	switch {
	case p.tok.kind == tokOp && isComparisonOp(p.tok.text):
		op := normalizeOp(p.tok.text)
		p.advance()
		r := p.parseAdditive()
		return &ast.BinaryOp{Op: op, LHS: l, RHS: r}

	case p.peekKeyword("LIKE"):
		p.advance()
		r := p.parseAdditive()
		return &ast.BinaryOp{Op: "LIKE", LHS: l, RHS: r}

	case p.peekKeyword("ILIKE"):
		p.advance()
		r := p.parseAdditive()
		return &ast.BinaryOp{Op: "ILIKE", LHS: l, RHS: r}

	case p.peekKeyword("BETWEEN"):
		p.advance()
		p.parseAdditive()
		p.expectKeyword("AND")
		p.parseAdditive()
		return &ast.Unsupported{Description: "BETWEEN"}

	case p.peekKeyword("IN"):
		p.advance()
		return p.parseInTail(l)

	case p.peekKeyword("IS"):
		p.advance()
		return p.parseIsTail(l)

	case p.peekKeyword("NOTNULL"):
		p.advance()
		return &ast.UnaryOp{Op: "NOTNULL", Operand: l}

	case p.peekKeyword("NOT"):
		switch {
		case p.peekNKeyword(1, "LIKE"):
			p.advance()
			p.advance()
			r := p.parseAdditive()
			return &ast.UnaryOp{Op: "NOT", Operand: &ast.BinaryOp{Op: "LIKE", LHS: l, RHS: r}}
		case p.peekNKeyword(1, "ILIKE"):
			p.advance()
			p.advance()
			r := p.parseAdditive()
			return &ast.UnaryOp{Op: "NOT", Operand: &ast.BinaryOp{Op: "ILIKE", LHS: l, RHS: r}}
		case p.peekNKeyword(1, "IN"):
			p.advance()
			p.advance()
			return &ast.UnaryOp{Op: "NOT", Operand: p.parseInTail(l)}
		case p.peekNKeyword(1, "BETWEEN"):
			p.advance()
			p.advance()
			p.parseAdditive()
			p.expectKeyword("AND")
			p.parseAdditive()
			return &ast.Unsupported{Description: "NOT BETWEEN"}
		}
	}
	return l
}

func (p *parser) parseInTail(lhs ast.Expr) ast.Expr {
	p.expectPunct("(")
	if p.peekKeyword("SELECT") || p.peekKeyword("WITH") {
		sub := p.parseSelectSetOp(nil)
		p.expectPunct(")")
		return &ast.InOp{LHS: lhs, Subquery: sub}
	}
	var items []ast.Expr
	for {
		items = append(items, p.parseExpr())
		if p.tok.kind == tokPunct && p.tok.text == "," {
			p.advance()
			continue
		}
		break
	}
	p.expectPunct(")")
	return &ast.InList{LHS: lhs, Items: items}
}

func (p *parser) parseIsTail(lhs ast.Expr) ast.Expr {
	if p.peekKeyword("NOT") {
		p.advance()
		switch {
		case p.peekKeyword("NULL"):
			p.advance()
			return &ast.UnaryOp{Op: "NOTNULL", Operand: lhs}
		case p.peekKeyword("DISTINCT"):
			p.advance()
			p.expectKeyword("FROM")
			r := p.parseAdditive()
			return &ast.BinaryOp{Op: "IS NOT DISTINCT FROM", LHS: lhs, RHS: r}
		default:
			p.advance() // TRUE/FALSE/UNKNOWN
			return &ast.Unsupported{Description: "IS NOT " + p.tok.text}
		}
	}
	switch {
	case p.peekKeyword("NULL"):
		p.advance()
		return &ast.UnaryOp{Op: "ISNULL", Operand: lhs}
	case p.peekKeyword("DISTINCT"):
		p.advance()
		p.expectKeyword("FROM")
		r := p.parseAdditive()
		return &ast.BinaryOp{Op: "IS DISTINCT FROM", LHS: lhs, RHS: r}
	default:
		p.advance() // TRUE/FALSE/UNKNOWN
		return &ast.Unsupported{Description: "IS " + p.tok.text}
	}
}

func isComparisonOp(op string) bool {
	switch op {
	case "=", "<>", "!=", "<", ">", "<=", ">=":
		return true
	}
	return false
}

func normalizeOp(op string) string {
	if op == "!=" {
		return "<>"
	}
	return op
}

func (p *parser) parseAdditive() ast.Expr {
	l := p.parseMultiplicative()
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-" || p.tok.text == "||") {
		op := p.tok.text
		p.advance()
		r := p.parseMultiplicative()
		l = &ast.BinaryOp{Op: op, LHS: l, RHS: r}
	}
	return l
}

func (p *parser) parseMultiplicative() ast.Expr {
	l := p.parseUnary()
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/" || p.tok.text == "%") {
		op := p.tok.text
		p.advance()
		r := p.parseUnary()
		l = &ast.BinaryOp{Op: op, LHS: l, RHS: r}
	}
	return l
}

func (p *parser) parseUnary() ast.Expr {
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "+") {
		op := p.tok.text
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryOp{Op: op, Operand: operand}
	}
	return p.parseCastPostfix()
}

func (p *parser) parseCastPostfix() ast.Expr {
	e := p.parsePrimary()
	for p.peekOp("::") {
		p.advance()
		ty := p.parseTypeName()
		e = &ast.TypeCast{LHS: e, TargetType: ty}
	}
	return e
}

func (p *parser) parseTypeName() string {
	var parts []string
	parts = append(parts, p.parseIdentName())
	for isIdentLike(p.tok) && isTypeNameContinuation(p.tok.upperKeyword()) {
		parts = append(parts, p.tok.text)
		p.advance()
	}
	if p.tok.kind == tokPunct && p.tok.text == "(" {
		depth := 0
		for {
			if p.tok.kind == tokPunct && p.tok.text == "(" {
				depth++
			} else if p.tok.kind == tokPunct && p.tok.text == ")" {
				depth--
			}
			p.advance()
			if depth == 0 {
				break
			}
		}
	}
	for p.tok.kind == tokPunct && p.tok.text == "[" {
		p.advance()
		p.expectPunct("]")
		parts = append(parts, "[]")
	}
	return strings.Join(parts, " ")
}

// isTypeNameContinuation recognizes the second (and further) words of a
// multi-word Postgres type name, like `double precision` or `character
// varying`.
func isTypeNameContinuation(word string) bool {
	switch word {
	case "PRECISION", "VARYING", "WITHOUT", "WITH", "TIME", "ZONE":
		return true
	}
	return false
}

func (p *parser) parsePrimary() ast.Expr {
	switch {
	case p.tok.kind == tokParam:
		idx, err := strconv.Atoi(p.tok.text)
		if err != nil {
			p.fail("invalid parameter index %q", p.tok.text)
		}
		p.advance()
		return &ast.Parameter{Index: idx}

	case p.tok.kind == tokNumber:
		text := p.tok.text
		p.advance()
		return &ast.Constant{Text: text}

	case p.tok.kind == tokString:
		text := p.tok.text
		p.advance()
		return &ast.Constant{Text: text}

	case p.tok.kind == tokQuotedIdent:
		return p.parseIdentOrCallOrColumn()

	case p.tok.kind == tokIdent:
		switch p.tok.upperKeyword() {
		case "NULL":
			p.advance()
			return &ast.Constant{IsNull: true}
		case "TRUE", "FALSE":
			text := p.tok.upperKeyword()
			p.advance()
			return &ast.Constant{Text: text}
		case "EXISTS":
			p.advance()
			p.expectPunct("(")
			sub := p.parseSelectSetOp(nil)
			p.expectPunct(")")
			return &ast.ExistsOp{Subquery: sub}
		case "ARRAY":
			p.advance()
			p.expectPunct("(")
			sub := p.parseSelectSetOp(nil)
			p.expectPunct(")")
			return &ast.ArraySubQuery{Subquery: sub}
		case "CAST":
			p.advance()
			p.expectPunct("(")
			inner := p.parseExpr()
			p.expectKeyword("AS")
			ty := p.parseTypeName()
			p.expectPunct(")")
			return &ast.TypeCast{LHS: inner, TargetType: ty}
		case "CASE":
			p.skipCase()
			return &ast.Unsupported{Description: "CASE"}
		default:
			return p.parseIdentOrCallOrColumn()
		}

	case p.tok.kind == tokPunct && p.tok.text == "(":
		p.advance()
		if p.peekKeyword("SELECT") || p.peekKeyword("WITH") {
			sub := p.parseSelectSetOp(nil)
			p.expectPunct(")")
			return &ast.SubqueryExpr{Subquery: sub}
		}
		inner := p.parseExpr()
		p.expectPunct(")")
		return inner

	default:
		p.fail("unexpected token in expression: %q", p.tok.text)
		return nil
	}
}

// skipCase consumes a full CASE ... END expression without modeling it.
func (p *parser) skipCase() {
	p.expectKeyword("CASE")
	depth := 1
	for depth > 0 {
		switch {
		case p.tok.kind == tokEOF:
			p.fail("unterminated CASE expression")
		case p.peekKeyword("CASE"):
			depth++
			p.advance()
		case p.peekKeyword("END"):
			depth--
			p.advance()
		default:
			p.advance()
		}
	}
}

func (p *parser) parseIdentOrCallOrColumn() ast.Expr {
	name := p.tok.text
	p.advance()

	if p.tok.kind == tokPunct && p.tok.text == "(" {
		p.advance()
		var args []ast.Expr
		if p.tok.kind == tokOp && p.tok.text == "*" {
			p.advance() // count(*)
		} else if !(p.tok.kind == tokPunct && p.tok.text == ")") {
			if p.peekKeyword("DISTINCT") {
				p.advance()
			}
			for {
				args = append(args, p.parseExpr())
				if p.tok.kind == tokPunct && p.tok.text == "," {
					p.advance()
					continue
				}
				break
			}
		}
		p.expectPunct(")")
		return &ast.FunctionCall{Name: name, Args: args}
	}

	if p.tok.kind == tokPunct && p.tok.text == "." {
		p.advance()
		if p.tok.kind == tokOp && p.tok.text == "*" {
			p.fail("bare table.* is only valid in a select list")
		}
		col := p.parseIdentName()
		return &ast.TableColumnRef{Table: name, Column: col}
	}

	return &ast.ColumnRef{Column: name}
}
