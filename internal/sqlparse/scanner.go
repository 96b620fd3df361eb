package sqlparse

import (
	"fmt"
	"strings"
)

// scanner tokenizes a single SQL statement: a hand-rolled byte-at-a-time
// lexer tracking byte offsets for error messages, scoped to the token set
// the expression grammar here actually needs rather than a
// query-file-fragment token set.
type scanner struct {
	src []byte
	off int
}

func newScanner(src string) *scanner {
	return &scanner{src: []byte(src)}
}

func (s *scanner) peekByte() byte {
	if s.off >= len(s.src) {
		return 0
	}
	return s.src[s.off]
}

func (s *scanner) byteAt(o int) byte {
	if o >= len(s.src) {
		return 0
	}
	return s.src[o]
}

func (s *scanner) skipSpaceAndComments() {
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.off++
		case c == '-' && s.byteAt(s.off+1) == '-':
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.off++
			}
		case c == '/' && s.byteAt(s.off+1) == '*':
			s.off += 2
			for s.off < len(s.src) && !(s.src[s.off] == '*' && s.byteAt(s.off+1) == '/') {
				s.off++
			}
			s.off += 2
		default:
			return
		}
	}
}

// next scans and returns the next token.
func (s *scanner) next() (token, error) {
	s.skipSpaceAndComments()
	if s.off >= len(s.src) {
		return token{kind: tokEOF, pos: s.off}, nil
	}
	start := s.off
	c := s.src[s.off]

	switch {
	case isIdentStart(c):
		for s.off < len(s.src) && isIdentPart(s.src[s.off]) {
			s.off++
		}
		return token{kind: tokIdent, text: string(s.src[start:s.off]), pos: start}, nil

	case c == '"':
		s.off++
		var b strings.Builder
		for s.off < len(s.src) {
			if s.src[s.off] == '"' {
				if s.byteAt(s.off+1) == '"' { // escaped quote
					b.WriteByte('"')
					s.off += 2
					continue
				}
				s.off++
				return token{kind: tokQuotedIdent, text: b.String(), pos: start}, nil
			}
			b.WriteByte(s.src[s.off])
			s.off++
		}
		return token{}, fmt.Errorf("unterminated quoted identifier at offset %d", start)

	case c == '\'':
		s.off++
		var b strings.Builder
		for s.off < len(s.src) {
			if s.src[s.off] == '\'' {
				if s.byteAt(s.off+1) == '\'' { // escaped quote
					b.WriteByte('\'')
					s.off += 2
					continue
				}
				s.off++
				return token{kind: tokString, text: b.String(), pos: start}, nil
			}
			b.WriteByte(s.src[s.off])
			s.off++
		}
		return token{}, fmt.Errorf("unterminated string literal at offset %d", start)

	case c == '$':
		s.off++
		digStart := s.off
		for s.off < len(s.src) && isDigit(s.src[s.off]) {
			s.off++
		}
		if s.off == digStart {
			return token{}, fmt.Errorf("expected digits after '$' at offset %d", start)
		}
		return token{kind: tokParam, text: string(s.src[digStart:s.off]), pos: start}, nil

	case isDigit(c) || (c == '.' && isDigit(s.byteAt(s.off+1))):
		for s.off < len(s.src) && (isDigit(s.src[s.off]) || s.src[s.off] == '.') {
			s.off++
		}
		return token{kind: tokNumber, text: string(s.src[start:s.off]), pos: start}, nil

	case c == '(' || c == ')' || c == ',' || c == ';' || c == '[' || c == ']':
		s.off++
		return token{kind: tokPunct, text: string(c), pos: start}, nil

	case c == '.':
		// Not followed by a digit (handled above); bare field-access dot.
		s.off++
		return token{kind: tokPunct, text: ".", pos: start}, nil

	default:
		return s.scanOperator(start)
	}
}

// multiCharOps lists operator spellings longer than one character, longest
// first so the scanner greedily matches the longest valid operator.
var multiCharOps = []string{
	"::", "->>", "->", "#>>", "#>", "<>", "!=", "<=", ">=", "||",
	"!~*", "!~", "~*",
}

func (s *scanner) scanOperator(start int) (token, error) {
	rest := string(s.src[start:])
	for _, op := range multiCharOps {
		if strings.HasPrefix(rest, op) {
			s.off += len(op)
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	switch s.src[start] {
	case '=', '<', '>', '+', '-', '*', '/', '%', '^', '~', '#':
		s.off++
		return token{kind: tokOp, text: string(s.src[start]), pos: start}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q at offset %d", s.src[start], start)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
