package infer

import "strings"

// nullSafety classifies how an operator or function propagates NULL.
type nullSafety int

const (
	// safe: result is NULL iff some operand is NULL.
	safe nullSafety = iota
	// unsafe: result may be NULL even with non-NULL operands (or, for
	// aggregates, may be NULL because the input set is empty). Also the
	// bucket for anything whose true rule (e.g. COALESCE: NULL iff *all*
	// operands NULL) doesn't fit the safe/alwaysNull/neverNull shapes;
	// "unsafe" always resolves to nullable, which is conservative-correct.
	unsafe
	// alwaysNull: result is always NULL.
	alwaysNull
	// neverNull: result is never NULL.
	neverNull
)

// binaryOpSafety classifies infix binary operators. Unlisted operators
// default to unsafe (conservatively nullable), per the degrade-to-nullable
// policy for unrecognized constructs.
var binaryOpSafety = map[string]nullSafety{
	"+": safe, "-": safe, "*": safe, "/": safe, "%": safe, "^": safe,
	"=": safe, "<>": safe, "!=": safe, "<": safe, ">": safe, "<=": safe, ">=": safe,
	"||": safe,
	"AND": safe, "OR": safe,
	"LIKE": safe, "ILIKE": safe, "NOT LIKE": safe, "NOT ILIKE": safe,
	"~": safe, "~*": safe, "!~": safe, "!~*": safe,
	"IS DISTINCT FROM":     neverNull,
	"IS NOT DISTINCT FROM": neverNull,
	"->": safe, "->>": safe, "#>": safe, "#>>": safe,
}

// unaryOpSafety classifies prefix/postfix unary operators, keyed by the
// canonical operator spelling the parser produces (see internal/sqlparse).
var unaryOpSafety = map[string]nullSafety{
	"-":        safe,
	"+":        safe,
	"NOT":      safe,
	"ISNULL":   neverNull, // `x IS NULL`
	"NOTNULL":  neverNull, // `x IS NOT NULL` / `x NOTNULL`
}

// functionSafety classifies function calls by lowercase name. Unlisted
// functions default to unsafe.
var functionSafety = map[string]nullSafety{
	"lower": safe, "upper": safe, "trim": safe, "btrim": safe, "ltrim": safe, "rtrim": safe,
	"length": safe, "char_length": safe, "octet_length": safe,
	"abs": safe, "round": safe, "ceil": safe, "ceiling": safe, "floor": safe, "trunc": safe,
	"substr": safe, "substring": safe, "concat_ws": unsafe,
	"upper_inc": safe, "lower_inc": safe,
	"greatest": unsafe, "least": unsafe, // NULL args are skipped, so this isn't strictly "safe"
	"coalesce": unsafe, // NULL iff *all* args NULL, not "some" — see nullSafety doc
	"nullif":   unsafe, // spec's canonical "unsafe" example
	"count":    neverNull,
	"sum":      unsafe, "avg": unsafe, "min": unsafe, "max": unsafe, // NULL on empty group
	"now": neverNull, "current_timestamp": neverNull, "current_date": neverNull,
	"random":  neverNull,
	"array_length": unsafe, // NULL if the requested dimension doesn't exist
	"cardinality":  safe,
	"to_char": safe, "to_number": safe, "to_date": safe,
	"md5": safe, "encode": safe, "decode": safe,
}

func lookupBinaryOp(op string) nullSafety {
	if s, ok := binaryOpSafety[strings.ToUpper(op)]; ok {
		return s
	}
	return unsafe
}

func lookupUnaryOp(op string) nullSafety {
	if s, ok := unaryOpSafety[strings.ToUpper(op)]; ok {
		return s
	}
	return unsafe
}

func lookupFunction(name string) nullSafety {
	if s, ok := functionSafety[strings.ToLower(name)]; ok {
		return s
	}
	return unsafe
}
