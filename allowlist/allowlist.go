// Package allowlist implements the allow-list resolver (spec §4.3): an
// immutable trust declaration mapping user-visible field paths,
// possibly aliased, to the canonical paths the rest of the pipeline
// operates on.
package allowlist

import (
	"fmt"
	"strings"

	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/diag"
)

// AllowList is the immutable, built form of config.Options.AllowedFields.
type AllowList struct {
	AllowAll bool
	Allowed  map[string]bool
	Aliases  map[string]string
}

// Build constructs an AllowList from the caller's entries. Unrecognized
// entries (zero-value AllowListEntry) are dropped silently; the
// allow-list is a trust declaration, not a schema.
func Build(allowAll bool, entries []config.AllowListEntry) AllowList {
	al := AllowList{
		AllowAll: allowAll,
		Allowed:  make(map[string]bool),
		Aliases:  make(map[string]string),
	}
	for _, e := range entries {
		switch {
		case e.As != "" && e.Field != "":
			al.Aliases[e.As] = e.Field
		case e.Field != "":
			al.Allowed[e.Field] = true
		case e.As != "":
			// An As with no Field is not a recognizable entry shape.
			continue
		}
	}
	return al
}

// Resolve applies the five-step algorithm of spec §4.3 to a parsed
// field path. ok is false whenever the path is not admitted, under any
// policy; diagErr is non-nil only for the Error policy outcome. warning
// is non-nil only for the Warn policy outcome.
func (al AllowList) Resolve(fieldPath []string, unknownField config.Policy) (resolved []string, ok bool, warning *diag.Warning, diagErr error) {
	joined := strings.Join(fieldPath, ".")

	if al.AllowAll {
		return fieldPath, true, nil, nil
	}
	if target, isAlias := al.Aliases[joined]; isAlias {
		return strings.Split(target, "."), true, nil, nil
	}
	if al.Allowed[joined] {
		return fieldPath, true, nil, nil
	}
	if len(fieldPath) == 1 && al.Allowed[fieldPath[0]] {
		return fieldPath, true, nil, nil
	}

	switch unknownField {
	case config.Warn:
		return nil, false, &diag.Warning{
			Reason:  diag.WarnUnknownField,
			Field:   joined,
			Message: fmt.Sprintf("unknown field %q dropped from predicate", joined),
		}, nil
	case config.Error:
		return nil, false, nil, diag.NewErrorAt(diag.Build, diag.UnknownField, 0,
			fmt.Sprintf("Unknown field %q", joined))
	default: // config.Ignore
		return nil, false, nil, nil
	}
}
