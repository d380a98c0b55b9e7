package diag

import "fmt"

// Stage identifies which pipeline stage raised an Error.
type Stage int

const (
	Lex Stage = iota + 1
	Parse
	Build
)

func (s Stage) String() string {
	switch s {
	case Lex:
		return "lex"
	case Parse:
		return "parse"
	case Build:
		return "build"
	default:
		return "unknown"
	}
}

// ReasonKind is the closed set of reasons an Error can carry. Every
// member below corresponds 1:1 to an error name in the compiler's
// error taxonomy.
type ReasonKind int

const (
	// Lex stage
	UnterminatedString ReasonKind = iota + 1
	InvalidComparator
	BrokenOperator
	UnexpectedChar
	InvalidField
	InvalidPredicateSpacing
	InvalidInput

	// Parse stage
	UnrecognizedToken
	UnexpectedToken
	UnexpectedEofAfterOperator
	MissingRhs
	MissingRightParen
	EmptyGroup
	OperatorBeforeRightParen
	ExpectedListAfterSetOperator
	EmptyList
	TrailingCommaInList
	MissingCommaInList
	ListNotAllowedForColonOp
	InvalidWildcardPosition
	WildcardNotAllowedForRelop
	WildcardNotAllowedInList
	NotWithoutTerm
	StrayComma

	// Build stage
	UnknownField
	UnknownAssociation
	InvalidValue
	InvalidNullComparison
	TooManyJoins
	FullTextMisconfigured
	UnsupportedMultiAssocContainsAll
)

var reasonNames = map[ReasonKind]string{
	UnterminatedString:      "UnterminatedString",
	InvalidComparator:       "InvalidComparator",
	BrokenOperator:          "BrokenOperator",
	UnexpectedChar:          "UnexpectedChar",
	InvalidField:            "InvalidField",
	InvalidPredicateSpacing: "InvalidPredicateSpacing",
	InvalidInput:            "InvalidInput",

	UnrecognizedToken:             "UnrecognizedToken",
	UnexpectedToken:               "UnexpectedToken",
	UnexpectedEofAfterOperator:    "UnexpectedEofAfterOperator",
	MissingRhs:                    "MissingRhs",
	MissingRightParen:             "MissingRightParen",
	EmptyGroup:                    "EmptyGroup",
	OperatorBeforeRightParen:      "OperatorBeforeRightParen",
	ExpectedListAfterSetOperator:  "ExpectedListAfterSetOperator",
	EmptyList:                     "EmptyList",
	TrailingCommaInList:           "TrailingCommaInList",
	MissingCommaInList:            "MissingCommaInList",
	ListNotAllowedForColonOp:      "ListNotAllowedForColonOp",
	InvalidWildcardPosition:       "InvalidWildcardPosition",
	WildcardNotAllowedForRelop:    "WildcardNotAllowedForRelop",
	WildcardNotAllowedInList:      "WildcardNotAllowedInList",
	NotWithoutTerm:                "NotWithoutTerm",
	StrayComma:                    "StrayComma",

	UnknownField:                      "UnknownField",
	UnknownAssociation:                "UnknownAssociation",
	InvalidValue:                      "InvalidValue",
	InvalidNullComparison:             "InvalidNullComparison",
	TooManyJoins:                      "TooManyJoins",
	FullTextMisconfigured:             "FullTextMisconfigured",
	UnsupportedMultiAssocContainsAll:  "UnsupportedMultiAssocContainsAll",
}

func (r ReasonKind) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Token is the minimal token shape an Error may carry for context; it is
// a value type so diag never needs to import the lexer package.
type Token struct {
	Lexeme string
	Offset int
}

// Error is the single sum type every compile failure is returned as.
// Lex and Parse errors are always fatal; Build errors are governed by
// the caller's policy knobs and may be downgraded to a Warning instead.
type Error struct {
	StageOf Stage
	Reason  ReasonKind
	SpanOf  *Span
	TokenOf *Token
	Message string
}

func (e Error) Error() string {
	if e.SpanOf != nil {
		return fmt.Sprintf("%s", e.Message)
	}
	return e.Message
}

func NewError(stage Stage, reason ReasonKind, span Span, message string) Error {
	s := span
	return Error{StageOf: stage, Reason: reason, SpanOf: &s, Message: message}
}

func NewErrorAt(stage Stage, reason ReasonKind, offset int, message string) Error {
	s := Span{Offset: offset, Length: 0}
	return Error{StageOf: stage, Reason: reason, SpanOf: &s, Message: message}
}

// WarningReason mirrors ReasonKind for the subset of build-stage
// conditions that can be downgraded to a non-fatal warning instead of
// aborting the compile.
type WarningReason int

const (
	WarnUnknownField WarningReason = iota + 1
	WarnUnknownAssociation
	WarnInvalidCast
	WarnDegradedContainsAll
)

func (w WarningReason) String() string {
	switch w {
	case WarnUnknownField:
		return "UnknownField"
	case WarnUnknownAssociation:
		return "UnknownAssociation"
	case WarnInvalidCast:
		return "InvalidCast"
	case WarnDegradedContainsAll:
		return "DegradedContainsAll"
	default:
		return "Unknown"
	}
}

// Warning is recorded in Meta.Warnings when a build-stage condition is
// configured to degrade rather than fail the compile.
type Warning struct {
	Reason  WarningReason
	Field   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Reason, w.Message)
}
