package sifter

import (
	"fmt"
	"strings"

	"github.com/typhoonworks/sifter/diag"
)

// Errors aggregates a list of diagnostics into a single error value. A
// Compile failure is always just a diag.Error, and Lint returns a plain
// []diag.Error holding at most one entry; nothing in this package
// returns an Errors itself.
type Errors struct {
	Errors []diag.Error
}

func (e Errors) Error() string {
	var msg strings.Builder
	msg.WriteString("sifter syntax error:\n\n")
	for _, de := range e.Errors {
		offset := 0
		if de.SpanOf != nil {
			offset = de.SpanOf.Offset
		}
		msg.WriteString(fmt.Sprintf("%s:%d: %s: %s\n", de.StageOf, offset, de.Reason, de.Message))
	}
	return msg.String()
}
