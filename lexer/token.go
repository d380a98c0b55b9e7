// Package lexer turns query source bytes into a token stream with
// precise source spans (spec §4.1): it enforces strict operator
// spacing, normalizes field identifiers, and synthesizes implicit AND
// tokens where whitespace separates two terms.
package lexer

import "github.com/typhoonworks/sifter/diag"

// TokenType is the closed set of lexical categories the scanner emits
// (spec §3.1).
type TokenType int

const (
	StringValue TokenType = iota + 1
	FieldIdentifier
	Eq
	Lt
	Lte
	Gt
	Gte
	SetIn
	SetNotIn
	SetAll
	And
	Or
	Not
	LParen
	RParen
	Comma
	EOF
)

func (t TokenType) String() string {
	switch t {
	case StringValue:
		return "STRING_VALUE"
	case FieldIdentifier:
		return "FIELD_IDENTIFIER"
	case Eq:
		return "EQ"
	case Lt:
		return "LT"
	case Lte:
		return "LTE"
	case Gt:
		return "GT"
	case Gte:
		return "GTE"
	case SetIn:
		return "SET_IN"
	case SetNotIn:
		return "SET_NOT_IN"
	case SetAll:
		return "SET_ALL"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	case LParen:
		return "LPAREN"
	case RParen:
		return "RPAREN"
	case Comma:
		return "COMMA"
	case EOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexical item: its kind, the exact source substring
// (Lexeme), the decoded value (Literal — empty when irrelevant) and its
// source Span.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal string
	Span    diag.Span
}

// IsComparator reports whether t is one of the five relational/equality
// comparator kinds a Cmp node can carry directly from a single token.
func (t TokenType) IsComparator() bool {
	switch t {
	case Eq, Lt, Lte, Gt, Gte:
		return true
	default:
		return false
	}
}

func (t TokenType) IsSetOperator() bool {
	switch t {
	case SetIn, SetNotIn, SetAll:
		return true
	default:
		return false
	}
}
