package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/build"
	"github.com/typhoonworks/sifter/value"
)

func TestDumpASTRendersNestedStructure(t *testing.T) {
	node := ast.NewAnd(
		ast.Cmp{FieldPath: []string{"status"}, Op: ast.OpEq, Value: value.String("live")},
		ast.Not{Expr: ast.FullText{Term: "gadget"}},
	)
	out := DumpAST(node)
	assert.True(t, strings.Contains(out, "AND"))
	assert.True(t, strings.Contains(out, "NOT"))
	assert.True(t, strings.Contains(out, "gadget"))
}

func TestDumpFragmentShowsBoundParams(t *testing.T) {
	f := build.Fragment{SQL: "events.status = ?", Params: []value.Value{value.String("live")}}
	out := DumpFragment(f)
	assert.True(t, strings.Contains(out, "events.status = ?"))
	assert.True(t, strings.Contains(out, "live"))
}
