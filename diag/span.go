// Package diag holds the diagnostic types shared across the compile
// pipeline: source spans and the single closed Error/Warning sum types
// described by the compiler's error-handling design.
package diag

import "fmt"

// Span identifies a byte region of the original source: [Offset, Offset+Length).
type Span struct {
	Offset int
	Length int
}

func (s Span) End() int {
	return s.Offset + s.Length
}

func (s Span) String() string {
	return fmt.Sprintf("%d+%d", s.Offset, s.Length)
}

// Cover returns the smallest span that contains both s and other.
func (s Span) Cover(other Span) Span {
	start := s.Offset
	if other.Offset < start {
		start = other.Offset
	}
	end := s.End()
	if other.End() > end {
		end = other.End()
	}
	return Span{Offset: start, Length: end - start}
}
