package lexer

import (
	"fmt"

	"github.com/typhoonworks/sifter/diag"
)

// Scan turns src into a token stream terminated by exactly one EOF
// token (spec §4.1). It enforces the forward-progress invariant: every
// iteration either consumes at least one byte or returns an error.
func Scan(src string) ([]Token, error) {
	s := &scanner{src: src}
	var toks []Token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

type scanner struct {
	src      string
	pos      int
	prev     TokenType // zero value = start of input
	havePrev bool
	pending  *Token

	// parenCtx tracks, for each currently open '(', whether it opened a
	// set-operator list (true) or an ordinary group (false) — needed to
	// tell a list item apart from a nested expression when a name-start
	// byte run follows '(' or ','.
	parenCtx []bool
}

// inValuePosition reports whether the next token must be a value rather
// than a field identifier: directly after a comparator, or after '(' or
// ',' inside a set-operator list.
func (s *scanner) inValuePosition() bool {
	if s.prev.IsComparator() {
		return true
	}
	if s.prev == LParen || s.prev == Comma {
		return len(s.parenCtx) > 0 && s.parenCtx[len(s.parenCtx)-1]
	}
	return false
}

func isNameStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isNameContinue(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9') || b == '-'
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isSpecial(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '(', ')', ':', '<', '>', '=', ',', '\'', '"':
		return true
	default:
		return false
	}
}

// isTermBoundary reports whether the previous significant token leaves
// us at a position where a new term may start: the very beginning of
// input, after '(', ',', a connector, or a NOT modifier.
func (s *scanner) isTermBoundary() bool {
	if !s.havePrev {
		return true
	}
	switch s.prev {
	case LParen, Comma, And, Or, Not:
		return true
	default:
		return false
	}
}

// isTermEnd reports whether the previous significant token could end a
// term, making it eligible for implicit-AND insertion before the next one.
func isTermEnd(t TokenType) bool {
	switch t {
	case StringValue, FieldIdentifier, RParen:
		return true
	default:
		return false
	}
}

func (s *scanner) errAt(offset int, reason diag.ReasonKind, format string, args ...interface{}) error {
	return diag.NewErrorAt(diag.Lex, reason, offset, fmt.Sprintf(format, args...))
}

func (s *scanner) next() (Token, error) {
	if s.pending != nil {
		t := *s.pending
		s.pending = nil
		s.prev = t.Type
		s.havePrev = true
		return t, nil
	}

	wsStart := s.pos
	for s.pos < len(s.src) && isWhitespace(s.src[s.pos]) {
		s.pos++
	}
	wsLen := s.pos - wsStart

	if s.pos >= len(s.src) {
		return s.emit(EOF, s.pos, 0, ""), nil
	}

	tok, err := s.scanOne(wsLen, wsStart)
	if err != nil {
		return Token{}, err
	}

	if wsLen > 0 && isTermEnd(s.prev) && s.havePrev {
		switch tok.Type {
		case And, Or, RParen, Comma, EOF, SetIn, SetNotIn, SetAll:
			// no implicit AND before these
		default:
			andTok := Token{
				Type:    And,
				Lexeme:  s.src[wsStart : wsStart+wsLen],
				Literal: "and",
				Span:    diag.Span{Offset: wsStart, Length: wsLen},
			}
			cp := tok
			s.pending = &cp
			s.prev = And
			s.havePrev = true
			return andTok, nil
		}
	}

	s.prev = tok.Type
	s.havePrev = true
	return tok, nil
}

func (s *scanner) emit(t TokenType, offset, length int, literal string) Token {
	return Token{
		Type:    t,
		Lexeme:  s.src[offset : offset+length],
		Literal: literal,
		Span:    diag.Span{Offset: offset, Length: length},
	}
}

// scanOne scans exactly one real (non-whitespace) token starting at
// s.pos. wsLen/wsStart describe the whitespace run (if any) immediately
// preceding it, needed to enforce the strict predicate-spacing rule.
func (s *scanner) scanOne(wsLen, wsStart int) (Token, error) {
	if s.prev.IsComparator() && wsLen > 0 {
		return Token{}, s.errAt(wsStart, diag.InvalidPredicateSpacing,
			"Invalid whitespace in predicate at position %d", wsStart)
	}

	start := s.pos
	b := s.src[start]

	switch b {
	case '(':
		s.parenCtx = append(s.parenCtx, s.prev.IsSetOperator())
		s.pos++
		return s.emit(LParen, start, 1, ""), nil
	case ')':
		if len(s.parenCtx) > 0 {
			s.parenCtx = s.parenCtx[:len(s.parenCtx)-1]
		}
		s.pos++
		return s.emit(RParen, start, 1, ""), nil
	case ',':
		s.pos++
		return s.emit(Comma, start, 1, ""), nil
	case '\'', '"':
		return s.scanQuotedString(start)
	}

	if b == '-' && s.isTermBoundary() {
		s.pos++
		return s.emit(Not, start, 1, "not"), nil
	}

	if b == ':' {
		return s.scanColonOperator(start, wsLen, wsStart)
	}
	if b == '<' || b == '>' {
		return s.scanRelOperator(start, wsLen, wsStart)
	}
	if b == '=' {
		if s.prev == FieldIdentifier && !s.havePendingWhitespaceBreak(wsLen) {
			s.pos++
			return Token{}, s.errAt(start, diag.InvalidComparator, "Invalid operator '=' at position %d", start)
		}
		s.pos++
		return Token{}, s.errAt(start, diag.InvalidComparator, "Invalid operator '=' at position %d", start)
	}

	if isNameStart(b) {
		if s.inValuePosition() {
			return s.scanBareValue(start)
		}
		return s.scanIdentifierLike(start)
	}

	// Bare value: run of visible non-special bytes.
	return s.scanBareValue(start)
}

func (s *scanner) havePendingWhitespaceBreak(wsLen int) bool {
	return wsLen > 0
}

func (s *scanner) scanQuotedString(start int) (Token, error) {
	quote := s.src[start]
	i := start + 1
	var decoded []byte
	for {
		if i >= len(s.src) {
			s.pos = i
			return Token{}, s.errAt(start, diag.UnterminatedString, "Unterminated string at position %d", start)
		}
		c := s.src[i]
		if c == '\\' && i+1 < len(s.src) {
			decoded = append(decoded, s.src[i+1])
			i += 2
			continue
		}
		if c == quote {
			i++
			break
		}
		decoded = append(decoded, c)
		i++
	}
	s.pos = i
	return Token{
		Type:    StringValue,
		Lexeme:  s.src[start:i],
		Literal: string(decoded),
		Span:    diag.Span{Offset: start, Length: i - start},
	}, nil
}

// scanColonOperator handles ':' which is only valid as EQ directly
// after a field identifier with no intervening whitespace.
func (s *scanner) scanColonOperator(start, wsLen, wsStart int) (Token, error) {
	if s.prev == FieldIdentifier && wsLen > 0 {
		return Token{}, s.errAt(wsStart, diag.InvalidPredicateSpacing,
			"Invalid whitespace in predicate at position %d", wsStart)
	}
	if s.prev != FieldIdentifier {
		return Token{}, s.errAt(start, diag.UnexpectedChar, "Unexpected character ':' at position %d", start)
	}
	s.pos = start + 1
	return s.emit(Eq, start, 1, ""), nil
}

// scanRelOperator handles '<', '<=', '>', '>='.
func (s *scanner) scanRelOperator(start, wsLen, wsStart int) (Token, error) {
	if s.prev == FieldIdentifier && wsLen > 0 {
		return Token{}, s.errAt(wsStart, diag.InvalidPredicateSpacing,
			"Invalid whitespace in predicate at position %d", wsStart)
	}
	if s.prev != FieldIdentifier {
		return Token{}, s.errAt(start, diag.UnexpectedChar, "Unexpected character '%c' at position %d", s.src[start], start)
	}

	base := s.src[start]
	i := start + 1

	if i < len(s.src) && s.src[i] == '=' {
		s.pos = i + 1
		if base == '<' {
			return s.emit(Lte, start, 2, ""), nil
		}
		return s.emit(Gte, start, 2, ""), nil
	}

	// Detect a split operator like "< =": whitespace then '='.
	j := i
	for j < len(s.src) && isWhitespace(s.src[j]) {
		j++
	}
	if j > i && j < len(s.src) && s.src[j] == '=' {
		s.pos = j + 1
		return Token{}, s.errAt(start, diag.BrokenOperator, "Broken operator at position %d", start)
	}

	s.pos = i
	if base == '<' {
		return s.emit(Lt, start, 1, ""), nil
	}
	return s.emit(Gt, start, 1, ""), nil
}

// setOperatorKeywords lists (keyword text, token type) in the order
// they must be tried: "NOT IN" before "IN", so the longer match wins.
var setOperatorKeywords = []struct {
	words []string
	kind  TokenType
}{
	{[]string{"NOT", "IN"}, SetNotIn},
	{[]string{"IN"}, SetIn},
	{[]string{"ALL"}, SetAll},
}

// scanIdentifierLike scans a token starting at a name-start byte. It
// first tries the case-sensitive context-dependent keywords (set
// operators after "field ", connectors AND/OR and the NOT modifier
// where a term may start or has just ended), then falls back to
// ordinary field-identifier scanning.
func (s *scanner) scanIdentifierLike(start int) (Token, error) {
	if s.prev == FieldIdentifier {
		if tok, ok, err := s.tryScanSetOperator(start); ok || err != nil {
			return tok, err
		}
	}

	if s.isTermBoundary() || isTermEnd(s.prev) {
		if tok, ok := s.tryScanConnectorOrNot(start); ok {
			return tok, nil
		}
	}

	return s.scanFieldIdentifier(start)
}

// tryScanSetOperator attempts to match one of "NOT IN", "IN", "ALL"
// (case-sensitive, uppercase) starting at `start`, requiring whitespace
// before the keyword (already implied: caller only calls this when
// s.prev == FieldIdentifier and we are scanning a real token after a
// whitespace skip happened in next()) and whitespace after the keyword.
// Whether a '(' follows is checked by the parser, which reports
// ExpectedListAfterSetOperator otherwise. If the keyword touches more
// name-continue bytes than the keyword itself, it is not a match and
// the scanner falls through to ordinary identifier scanning.
func (s *scanner) tryScanSetOperator(start int) (Token, bool, error) {
	for _, kw := range setOperatorKeywords {
		pos := start
		ok := true
		for wi, word := range kw.words {
			if wi > 0 {
				wsStart := pos
				for pos < len(s.src) && isWhitespace(s.src[pos]) {
					pos++
				}
				if pos == wsStart {
					ok = false
					break
				}
			}
			if !matchWord(s.src, pos, word) {
				ok = false
				break
			}
			pos += len(word)
		}
		if !ok {
			continue
		}
		// Reject if the keyword touches more name-continue chars
		// (e.g. "INDEX" instead of "IN").
		if pos < len(s.src) && isNameContinue(s.src[pos]) {
			continue
		}
		// Require whitespace to follow.
		afterKeyword := pos
		wsStart := pos
		for pos < len(s.src) && isWhitespace(s.src[pos]) {
			pos++
		}
		if pos == wsStart {
			continue
		}
		_ = afterKeyword
		s.pos = pos // leave scanner positioned right after the whitespace, normally at '('
		return s.emit(kw.kind, start, pos-start, ""), true, nil
	}
	return Token{}, false, nil
}

func matchWord(src string, pos int, word string) bool {
	if pos+len(word) > len(src) {
		return false
	}
	return src[pos:pos+len(word)] == word
}

// tryScanConnectorOrNot attempts AND, OR (case-sensitive, whole-word)
// and NOT (word form of the NOT modifier, followed by whitespace or the
// end of input).
func (s *scanner) tryScanConnectorOrNot(start int) (Token, bool) {
	for _, c := range []struct {
		word string
		kind TokenType
		lit  string
	}{
		{"AND", And, "and"},
		{"OR", Or, "or"},
	} {
		if matchWord(s.src, start, c.word) {
			end := start + len(c.word)
			if end >= len(s.src) || !isNameContinue(s.src[end]) {
				s.pos = end
				return s.emit(c.kind, start, len(c.word), c.lit), true
			}
		}
	}

	if matchWord(s.src, start, "NOT") {
		end := start + 3
		if end >= len(s.src) || isWhitespace(s.src[end]) {
			s.pos = end
			return s.emit(Not, start, 3, "not"), true
		}
	}

	return Token{}, false
}

// scanFieldIdentifier scans a name-start/name-continue run, allowing a
// '.' to continue the path only when immediately followed by another
// name-start byte.
func (s *scanner) scanFieldIdentifier(start int) (Token, error) {
	i := start + 1
	for i < len(s.src) {
		b := s.src[i]
		if isNameContinue(b) {
			i++
			continue
		}
		if b == '.' {
			if i+1 < len(s.src) && isNameStart(s.src[i+1]) {
				i += 2
				continue
			}
			s.pos = i + 1
			return Token{}, s.errAt(i, diag.InvalidField, "Invalid field path at position %d", i)
		}
		break
	}
	s.pos = i
	lexeme := s.src[start:i]
	return Token{
		Type:    FieldIdentifier,
		Lexeme:  lexeme,
		Literal: NormalizeFieldPath(lexeme),
		Span:    diag.Span{Offset: start, Length: i - start},
	}, nil
}

// scanBareValue scans a run of visible, non-special bytes (spec §4.1.7):
// numbers, wildcarded tokens, lowercase words, etc.
func (s *scanner) scanBareValue(start int) (Token, error) {
	i := start
	for i < len(s.src) {
		b := s.src[i]
		if b <= ' ' || isSpecial(b) {
			break
		}
		i++
	}
	if i == start {
		s.pos = i + 1
		return Token{}, s.errAt(start, diag.UnexpectedChar, "Unexpected character '%c' at position %d", s.src[start], start)
	}
	s.pos = i
	lexeme := s.src[start:i]
	return Token{
		Type:    StringValue,
		Lexeme:  lexeme,
		Literal: lexeme,
		Span:    diag.Span{Offset: start, Length: i - start},
	}, nil
}
