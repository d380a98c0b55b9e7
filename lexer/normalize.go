package lexer

import "strings"

// NormalizeFieldPath applies the per-segment case normalization rule of
// spec §4.1.2 to a dot-separated field path lexeme: insert '_' only at
// lower|digit -> UPPER transitions, map '-' and space to '_', collapse
// consecutive '_', lower-case everything. Acronyms (runs of uppercase)
// are never split.
func NormalizeFieldPath(lexeme string) string {
	segments := strings.Split(lexeme, ".")
	for i, seg := range segments {
		segments[i] = normalizeSegment(seg)
	}
	return strings.Join(segments, ".")
}

func normalizeSegment(seg string) string {
	replaced := make([]rune, 0, len(seg))
	for _, r := range seg {
		if r == '-' || r == ' ' {
			replaced = append(replaced, '_')
		} else {
			replaced = append(replaced, r)
		}
	}

	var b strings.Builder
	for i, r := range replaced {
		if i > 0 {
			prev := replaced[i-1]
			if isLowerOrDigit(prev) && isUpperLetter(r) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(r)
	}

	return collapseUnderscores(strings.ToLower(b.String()))
}

func isLowerLetter(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpperLetter(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool       { return r >= '0' && r <= '9' }
func isLowerOrDigit(r rune) bool {
	return isLowerLetter(r) || isDigit(r)
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if r == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IdempotentNormalize reports whether normalization is idempotent for x
// (spec §8.2): to_snake(to_snake(x)) == to_snake(x).
func IdempotentNormalize(x string) bool {
	once := NormalizeFieldPath(x)
	twice := NormalizeFieldPath(once)
	return once == twice
}
