// Package testutil holds small pretty-printing helpers for tests:
// dumping an AST or a compiled Fragment in a stable, readable form on
// assertion failure. Modeled on the teacher's sqltest/querydump.go
// (same use of github.com/alecthomas/repr to render scalars instead of
// Go's default %#v), minus anything that requires a live database/sql
// connection — this package only ever prints values already in memory.
package testutil

import (
	"fmt"
	"strings"

	"github.com/alecthomas/repr"

	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/build"
)

// DumpAST renders node as an indented tree, using repr for full-text
// terms and each Cmp's String() for predicates, for use in test
// failure messages instead of Go's %#v (which
// prints unexported Value/Type internals unreadably).
func DumpAST(node ast.Node) string {
	var b strings.Builder
	dumpNode(&b, node, 0)
	return b.String()
}

func dumpNode(b *strings.Builder, node ast.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case ast.And:
		fmt.Fprintf(b, "%sAND\n", indent)
		for _, c := range n.Children {
			dumpNode(b, c, depth+1)
		}
	case ast.Or:
		fmt.Fprintf(b, "%sOR\n", indent)
		for _, c := range n.Children {
			dumpNode(b, c, depth+1)
		}
	case ast.Not:
		fmt.Fprintf(b, "%sNOT\n", indent)
		dumpNode(b, n.Expr, depth+1)
	case ast.Cmp:
		fmt.Fprintf(b, "%s%s\n", indent, n.String())
	case ast.FullText:
		fmt.Fprintf(b, "%sFULLTEXT %s\n", indent, repr.String(n.Term))
	default:
		fmt.Fprintf(b, "%s%s\n", indent, node.String())
	}
}

// DumpFragment renders a compiled WHERE/HAVING fragment followed by its
// bound parameters, one per line, for eyeballing a test failure's
// actual SQL.
func DumpFragment(f build.Fragment) string {
	var b strings.Builder
	fmt.Fprintln(&b, f.SQL)
	for i, p := range f.Params {
		fmt.Fprintf(&b, "  $%d = %s\n", i+1, repr.String(p.String()))
	}
	return b.String()
}

// DumpCompiled renders a build.Compiled result: the WHERE/HAVING
// fragments, the join plan, GROUP BY, and the recorded warnings.
// Distinct, SelectAdd and the rest of Meta are not shown.
func DumpCompiled(c build.Compiled) string {
	var b strings.Builder
	fmt.Fprintln(&b, "WHERE:", DumpFragment(c.Where))
	for _, j := range c.Joins {
		fmt.Fprintf(&b, "JOIN %s (%s) ON %s\n", j.Table, j.Kind, j.OnSQL)
	}
	if len(c.GroupBy) > 0 {
		fmt.Fprintln(&b, "GROUP BY:", strings.Join(c.GroupBy, ", "))
	}
	if c.Having != nil {
		fmt.Fprintln(&b, "HAVING:", DumpFragment(*c.Having))
	}
	for _, w := range c.Meta.Warnings {
		fmt.Fprintf(&b, "WARNING %s: %s\n", w.Reason, w.Message)
	}
	return b.String()
}
