// Package parser implements the precedence-climbing parser that turns
// a token stream into a typed AST (spec §4.2): AND/OR with fixed
// precedence, a NOT prefix, comparison/set predicates, and full-text
// fallback for bare terms.
package parser

import (
	"fmt"
	"strings"

	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/lexer"
	"github.com/typhoonworks/sifter/value"
)

// Parse lexes and parses source into an AST. An empty source parses to
// ast.Empty() (spec §8.3).
func Parse(source string) (ast.Node, error) {
	toks, err := lexer.Scan(source)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	if p.peek().Type == lexer.EOF {
		return ast.Empty(), nil
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.EOF {
		return nil, p.unexpectedToken(p.peek())
	}
	return node, nil
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func perr(reason diag.ReasonKind, offset int, msg string) error {
	return diag.NewErrorAt(diag.Parse, reason, offset, msg)
}

func (p *parser) unexpectedToken(t lexer.Token) error {
	return perr(diag.UnexpectedToken, t.Span.Offset,
		fmt.Sprintf("Unexpected token %q at position %d", t.Lexeme, t.Span.Offset))
}

// parseOr parses `parseAnd (OR parseAnd)*`, precedence 10.
func (p *parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.Or {
		opTok := p.advance()
		right, err := p.parseOperand(opTok, p.parseAnd)
		if err != nil {
			return nil, err
		}
		left = ast.NewOr(left, right)
	}
	return left, nil
}

// parseAnd parses `parseUnary (AND parseUnary)*`, precedence 20.
func (p *parser) parseAnd() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.And {
		opTok := p.advance()
		right, err := p.parseOperand(opTok, p.parseUnary)
		if err != nil {
			return nil, err
		}
		left = ast.NewAnd(left, right)
	}
	return left, nil
}

// parseOperand parses the right-hand side of a binary connector,
// producing OperatorBeforeRightParen / UnexpectedEofAfterOperator with
// the exact message format golden tests expect (spec §4.2, §8.5).
func (p *parser) parseOperand(opTok lexer.Token, next func() (ast.Node, error)) (ast.Node, error) {
	word := strings.ToUpper(opTok.Literal)
	switch p.peek().Type {
	case lexer.RParen:
		return nil, perr(diag.OperatorBeforeRightParen, opTok.Span.Offset,
			fmt.Sprintf("Expected expression after '%s' at position %d. Operators must be followed by a value or field.",
				word, opTok.Span.Offset))
	case lexer.EOF:
		return nil, perr(diag.UnexpectedEofAfterOperator, opTok.Span.Offset,
			fmt.Sprintf("Expected expression after '%s' at position %d. Operators must be followed by a value or field.",
				word, opTok.Span.Offset))
	}
	return next()
}

// parseUnary handles the NOT prefix (spec §4.2).
func (p *parser) parseUnary() (ast.Node, error) {
	if p.peek().Type == lexer.Not {
		notTok := p.advance()
		if p.peek().Type == lexer.EOF {
			return nil, perr(diag.NotWithoutTerm, notTok.Span.Offset,
				fmt.Sprintf("Expected expression after 'NOT' at position %d. Operators must be followed by a value or field.",
					notTok.Span.Offset))
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Not{Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Node, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.LParen:
		return p.parseGroup()
	case lexer.FieldIdentifier:
		p.advance()
		return p.parsePredicate(tok)
	case lexer.StringValue:
		p.advance()
		return ast.FullText{Term: tok.Literal}, nil
	case lexer.Comma:
		return nil, perr(diag.StrayComma, tok.Span.Offset,
			fmt.Sprintf("Unexpected comma at position %d", tok.Span.Offset))
	default:
		return nil, perr(diag.UnrecognizedToken, tok.Span.Offset,
			fmt.Sprintf("Unrecognized token %q at position %d", tok.Lexeme, tok.Span.Offset))
	}
}

func (p *parser) parseGroup() (ast.Node, error) {
	open := p.advance() // consume '('
	openPos := open.Span.Offset

	if p.peek().Type == lexer.RParen {
		p.advance()
		return nil, perr(diag.EmptyGroup, openPos,
			fmt.Sprintf("Empty group at position %d. Groups must contain an expression.", openPos))
	}

	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.peek().Type == lexer.EOF {
		return nil, perr(diag.MissingRightParen, openPos,
			fmt.Sprintf("Missing closing parenthesis ')' for opening parenthesis at position %d", openPos))
	}
	if p.peek().Type != lexer.RParen {
		return nil, p.unexpectedToken(p.peek())
	}
	p.advance()
	return inner, nil
}

// parsePredicate parses what follows a field identifier: a comparator
// predicate, a set-operator predicate, or — if no operator directly
// follows — a fallback full-text term using the field's raw lexeme.
func (p *parser) parsePredicate(fieldTok lexer.Token) (ast.Node, error) {
	path := strings.Split(fieldTok.Literal, ".")
	next := p.peek()

	switch {
	case next.Type.IsComparator():
		opTok := p.advance()
		return p.parseComparison(path, opTok)
	case next.Type.IsSetOperator():
		opTok := p.advance()
		return p.parseSetPredicate(path, opTok)
	default:
		return ast.FullText{Term: fieldTok.Lexeme}, nil
	}
}

func (p *parser) parseComparison(path []string, opTok lexer.Token) (ast.Node, error) {
	rhs := p.peek()

	if rhs.Type == lexer.EOF {
		return nil, perr(diag.MissingRhs, opTok.Span.End(),
			fmt.Sprintf("Expected a value after '%s' at position %d", opTok.Lexeme, opTok.Span.End()))
	}
	if opTok.Type == lexer.Eq && rhs.Type == lexer.LParen {
		return nil, perr(diag.ListNotAllowedForColonOp, rhs.Span.Offset,
			fmt.Sprintf("A list is not allowed as the right-hand side of ':' at position %d", rhs.Span.Offset))
	}
	if rhs.Type != lexer.StringValue {
		return nil, p.unexpectedToken(rhs)
	}
	p.advance()

	quoted := isQuoted(rhs)

	if opTok.Type == lexer.Eq {
		op, v, err := classifyEqValue(rhs, quoted)
		if err != nil {
			return nil, err
		}
		return ast.Cmp{FieldPath: path, Op: op, Value: v}, nil
	}

	if !quoted && strings.Contains(rhs.Lexeme, "*") {
		return nil, perr(diag.WildcardNotAllowedForRelop, rhs.Span.Offset,
			fmt.Sprintf("Wildcards are not allowed with relational operators at position %d", rhs.Span.Offset))
	}

	return ast.Cmp{FieldPath: path, Op: relOpFor(opTok.Type), Value: classifyPlainValue(rhs, quoted)}, nil
}

func (p *parser) parseSetPredicate(path []string, opTok lexer.Token) (ast.Node, error) {
	if p.peek().Type != lexer.LParen {
		return nil, perr(diag.ExpectedListAfterSetOperator, p.peek().Span.Offset,
			fmt.Sprintf("Expected a list after '%s' at position %d", opTok.Lexeme, opTok.Span.Offset))
	}
	open := p.advance()
	values, err := p.parseList(open.Span.Offset)
	if err != nil {
		return nil, err
	}
	return ast.Cmp{FieldPath: path, Op: setOpFor(opTok.Type), Values: values}, nil
}

func (p *parser) parseList(openPos int) ([]value.Value, error) {
	if p.peek().Type == lexer.RParen {
		p.advance()
		return nil, perr(diag.EmptyList, openPos,
			fmt.Sprintf("Empty list at position %d. Lists must contain at least one value.", openPos))
	}

	var values []value.Value
	for {
		item := p.peek()
		if item.Type != lexer.StringValue {
			return nil, p.unexpectedToken(item)
		}
		quoted := isQuoted(item)
		if !quoted && strings.Contains(item.Lexeme, "*") {
			return nil, perr(diag.WildcardNotAllowedInList, item.Span.Offset,
				fmt.Sprintf("Wildcards are not allowed inside a list at position %d", item.Span.Offset))
		}
		values = append(values, classifyPlainValue(item, quoted))
		p.advance()

		switch p.peek().Type {
		case lexer.Comma:
			comma := p.advance()
			if p.peek().Type == lexer.RParen {
				return nil, perr(diag.TrailingCommaInList, comma.Span.Offset,
					fmt.Sprintf("Trailing comma at position %d. Remove the comma after the last list item.", comma.Span.Offset))
			}
			continue
		case lexer.RParen:
			p.advance()
			return values, nil
		case lexer.StringValue:
			return nil, perr(diag.MissingCommaInList, p.peek().Span.Offset,
				fmt.Sprintf("Missing comma in list at position %d", p.peek().Span.Offset))
		case lexer.And:
			// Whitespace between two items comes through as an implicit
			// AND: the separating comma is missing.
			if strings.TrimSpace(p.peek().Lexeme) == "" {
				p.advance()
				return nil, perr(diag.MissingCommaInList, p.peek().Span.Offset,
					fmt.Sprintf("Missing comma in list at position %d", p.peek().Span.Offset))
			}
			return nil, p.unexpectedToken(p.peek())
		default:
			return nil, p.unexpectedToken(p.peek())
		}
	}
}

func isQuoted(tok lexer.Token) bool {
	if len(tok.Lexeme) == 0 {
		return false
	}
	return tok.Lexeme[0] == '\'' || tok.Lexeme[0] == '"'
}

// classifyEqValue implements the EQ value-classification rules of spec
// §4.2: quoted literals are never reinterpreted as wildcards; unquoted
// literals with a single leading or trailing '*' become
// StartsWith/EndsWith; any other '*' placement is an error; unquoted
// "NULL" becomes SQL null.
func classifyEqValue(tok lexer.Token, quoted bool) (ast.CmpOp, value.Value, error) {
	if quoted {
		return ast.OpEq, value.String(tok.Literal), nil
	}
	if tok.Literal == "NULL" {
		return ast.OpEq, value.Null(), nil
	}

	lex := tok.Lexeme
	stars := strings.Count(lex, "*")
	switch {
	case stars == 0:
		return ast.OpEq, value.String(tok.Literal), nil
	case lex == "*":
		return 0, value.Value{}, perr(diag.InvalidWildcardPosition, tok.Span.Offset,
			fmt.Sprintf("Invalid wildcard position at position %d", tok.Span.Offset))
	case stars == 1 && strings.HasPrefix(lex, "*"):
		return ast.OpEndsWith, value.String(lex[1:]), nil
	case stars == 1 && strings.HasSuffix(lex, "*"):
		return ast.OpStartsWith, value.String(lex[:len(lex)-1]), nil
	default:
		return 0, value.Value{}, perr(diag.InvalidWildcardPosition, tok.Span.Offset,
			fmt.Sprintf("Invalid wildcard position at position %d", tok.Span.Offset))
	}
}

// classifyPlainValue is used for relational-operator and list-item
// values, where wildcard derivation never applies but NULL still does.
func classifyPlainValue(tok lexer.Token, quoted bool) value.Value {
	if quoted {
		return value.String(tok.Literal)
	}
	if tok.Literal == "NULL" {
		return value.Null()
	}
	return value.String(tok.Literal)
}

func relOpFor(t lexer.TokenType) ast.CmpOp {
	switch t {
	case lexer.Lt:
		return ast.OpLt
	case lexer.Lte:
		return ast.OpLte
	case lexer.Gt:
		return ast.OpGt
	case lexer.Gte:
		return ast.OpGte
	default:
		return ast.OpEq
	}
}

func setOpFor(t lexer.TokenType) ast.CmpOp {
	switch t {
	case lexer.SetIn:
		return ast.OpIn
	case lexer.SetNotIn:
		return ast.OpNin
	case lexer.SetAll:
		return ast.OpContainsAll
	default:
		return ast.OpIn
	}
}
