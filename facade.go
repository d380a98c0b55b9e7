// Package sifter is the root facade over the filter-query compiler:
// lex -> parse -> allow-list resolution -> type coercion -> build, in
// one call. The sub-packages (lexer, parser, allowlist, coerce,
// build) are usable independently, but Compile and Lint are the
// entry points most callers need.
package sifter

import (
	"github.com/typhoonworks/sifter/allowlist"
	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/build"
	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/lexer"
	"github.com/typhoonworks/sifter/parser"
	"github.com/typhoonworks/sifter/schema"
)

// Re-exported so callers only need to import this package for the
// common case; the sub-packages remain importable directly for
// advanced use (writing a custom adapter, embedding the parser in a
// linter, and so on).
type (
	Compiled  = build.Compiled
	Fragment  = build.Fragment
	JoinPlan  = build.JoinPlan
	OrderSpec = build.OrderSpec
	Meta      = build.Meta
	Options   = config.Options
	View      = schema.View
)

// Compile runs the full pipeline against source and returns a Compiled
// query ready to be handed to an Adapter. A Lex or Parse failure is
// always fatal; a Build failure is fatal unless the relevant Options
// policy downgrades it to a warning instead.
func Compile(source string, view View, opts Options) (Compiled, error) {
	node, err := parser.Parse(source)
	if err != nil {
		return Compiled{}, err
	}

	allow := allowlist.Build(opts.AllowAll, opts.AllowedFields)
	b := build.NewBuilder(opts.Schema, view, allow, opts)
	return b.Build(node)
}

// Lint runs lex and parse only — no schema or allow-list is needed —
// so editor tooling can validate a query's syntax without a live
// schema handy.
//
// The parser has no error-recovery/synchronization point, so a single
// malformed query still reports one diagnostic per call rather than
// every mistake at once; Lint exists as the stable entry point for
// that, and is the natural place to add synchronization later without
// moving callers off of Compile.
func Lint(source string) []diag.Error {
	if _, err := lexer.Scan(source); err != nil {
		if de, ok := err.(diag.Error); ok {
			return []diag.Error{de}
		}
		return nil
	}

	if _, err := parser.Parse(source); err != nil {
		if de, ok := err.(diag.Error); ok {
			return []diag.Error{de}
		}
	}
	return nil
}

// IsEmpty reports whether node carries no predicates at all (an empty
// query source parses to this).
func IsEmpty(node ast.Node) bool {
	return ast.IsEmpty(node)
}
