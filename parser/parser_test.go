package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/diag"
)

func asErr(t *testing.T, err error) diag.Error {
	t.Helper()
	de, ok := err.(diag.Error)
	require.True(t, ok, "expected diag.Error, got %T: %v", err, err)
	return de
}

func TestParseEmptySourceYieldsEmptyTree(t *testing.T) {
	node, err := Parse("")
	require.NoError(t, err)
	assert.True(t, ast.IsEmpty(node))
}

func TestParseSimpleComparison(t *testing.T) {
	node, err := Parse("status:live")
	require.NoError(t, err)
	cmp, ok := node.(ast.Cmp)
	require.True(t, ok)
	assert.Equal(t, "status", cmp.Field())
	assert.Equal(t, ast.OpEq, cmp.Op)
	assert.Equal(t, "live", cmp.Value.StringVal())
}

func TestParseImplicitAndBetweenTerms(t *testing.T) {
	node, err := Parse("status:live priority:high")
	require.NoError(t, err)
	and, ok := node.(ast.And)
	require.True(t, ok)
	require.Len(t, and.Children, 2)
}

func TestParseExplicitAndOrPrecedence(t *testing.T) {
	// AND binds tighter than OR: a OR b AND c == a OR (b AND c)
	node, err := Parse("status:live OR priority:high AND region:eu")
	require.NoError(t, err)
	or, ok := node.(ast.Or)
	require.True(t, ok)
	require.Len(t, or.Children, 2)
	_, isAnd := or.Children[1].(ast.And)
	assert.True(t, isAnd)
}

func TestParseAndFlattensThreeTerms(t *testing.T) {
	node, err := Parse("a:1 AND b:2 AND c:3")
	require.NoError(t, err)
	and, ok := node.(ast.And)
	require.True(t, ok)
	assert.Len(t, and.Children, 3)
}

func TestParseNotPrefix(t *testing.T) {
	node, err := Parse("NOT status:live")
	require.NoError(t, err)
	not, ok := node.(ast.Not)
	require.True(t, ok)
	_, isCmp := not.Expr.(ast.Cmp)
	assert.True(t, isCmp)
}

func TestParseGroup(t *testing.T) {
	node, err := Parse("(status:live OR status:draft) AND region:eu")
	require.NoError(t, err)
	and, ok := node.(ast.And)
	require.True(t, ok)
	require.Len(t, and.Children, 2)
	_, isOr := and.Children[0].(ast.Or)
	assert.True(t, isOr)
}

func TestParseEqWildcardStartsWith(t *testing.T) {
	node, err := Parse("name:foo*")
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.Equal(t, ast.OpStartsWith, cmp.Op)
	assert.Equal(t, "foo", cmp.Value.StringVal())
}

func TestParseEqWildcardEndsWith(t *testing.T) {
	node, err := Parse("name:*bar")
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.Equal(t, ast.OpEndsWith, cmp.Op)
	assert.Equal(t, "bar", cmp.Value.StringVal())
}

func TestParseEqWildcardInteriorIsError(t *testing.T) {
	_, err := Parse("name:fo*o")
	de := asErr(t, err)
	assert.Equal(t, diag.InvalidWildcardPosition, de.Reason)
}

func TestParseEqQuotedWildcardIsLiteral(t *testing.T) {
	node, err := Parse(`name:'foo*'`)
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.Equal(t, ast.OpEq, cmp.Op)
	assert.Equal(t, "foo*", cmp.Value.StringVal())
}

func TestParseBareNullBecomesNullValue(t *testing.T) {
	node, err := Parse("deleted_at:NULL")
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.True(t, cmp.Value.IsNull())
}

func TestParseRelationalWildcardIsError(t *testing.T) {
	_, err := Parse("age>10*")
	de := asErr(t, err)
	assert.Equal(t, diag.WildcardNotAllowedForRelop, de.Reason)
}

func TestParseInList(t *testing.T) {
	node, err := Parse("status IN (live, draft)")
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.Equal(t, ast.OpIn, cmp.Op)
	require.Len(t, cmp.Values, 2)
	assert.Equal(t, "live", cmp.Values[0].StringVal())
	assert.Equal(t, "draft", cmp.Values[1].StringVal())
}

func TestParseNotInList(t *testing.T) {
	node, err := Parse("status NOT IN (live, draft)")
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.Equal(t, ast.OpNin, cmp.Op)
}

func TestParseAllList(t *testing.T) {
	node, err := Parse("tags ALL (red, blue)")
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.Equal(t, ast.OpContainsAll, cmp.Op)
}

func TestParseBareWordFallsBackToFullText(t *testing.T) {
	node, err := Parse("elixir status:published")
	require.NoError(t, err)
	and, ok := node.(ast.And)
	require.True(t, ok)
	require.Len(t, and.Children, 2)
	ft, ok := and.Children[0].(ast.FullText)
	require.True(t, ok)
	assert.Equal(t, "elixir", ft.Term)
}

func TestParseQuotedBareTermIsFullText(t *testing.T) {
	node, err := Parse(`'hello world'`)
	require.NoError(t, err)
	ft, ok := node.(ast.FullText)
	require.True(t, ok)
	assert.Equal(t, "hello world", ft.Term)
}

func TestParseUnterminatedStringAtPosition(t *testing.T) {
	_, err := Parse(`status:'unterminated`)
	de := asErr(t, err)
	assert.Equal(t, diag.UnterminatedString, de.Reason)
	assert.Equal(t, "Unterminated string at position 7", de.Message)
}

func TestParseInvalidComparatorAtPosition(t *testing.T) {
	_, err := Parse("status=live")
	de := asErr(t, err)
	assert.Equal(t, diag.InvalidComparator, de.Reason)
	assert.Equal(t, "Invalid operator '=' at position 6", de.Message)
}

func TestParseMissingRightParen(t *testing.T) {
	_, err := Parse("(status:live OR name:test")
	de := asErr(t, err)
	assert.Equal(t, diag.MissingRightParen, de.Reason)
	assert.Equal(t, "Missing closing parenthesis ')' for opening parenthesis at position 0", de.Message)
}

func TestParseUnexpectedEofAfterOperator(t *testing.T) {
	_, err := Parse("status:live AND")
	de := asErr(t, err)
	assert.Equal(t, diag.UnexpectedEofAfterOperator, de.Reason)
	assert.Equal(t, "Expected expression after 'AND' at position 12. Operators must be followed by a value or field.", de.Message)
}

func TestParseEmptyListAtPosition(t *testing.T) {
	_, err := Parse("status IN ()")
	de := asErr(t, err)
	assert.Equal(t, diag.EmptyList, de.Reason)
	assert.Equal(t, "Empty list at position 10. Lists must contain at least one value.", de.Message)
}

func TestParseTrailingCommaAtPosition(t *testing.T) {
	_, err := Parse("status IN (live, draft,)")
	de := asErr(t, err)
	assert.Equal(t, diag.TrailingCommaInList, de.Reason)
	assert.Equal(t, "Trailing comma at position 22. Remove the comma after the last list item.", de.Message)
}

func TestParseMissingCommaInList(t *testing.T) {
	_, err := Parse("status IN (live draft)")
	de := asErr(t, err)
	assert.Equal(t, diag.MissingCommaInList, de.Reason)
}

func TestParseWildcardNotAllowedInList(t *testing.T) {
	_, err := Parse("status IN (li*ve, draft)")
	de := asErr(t, err)
	assert.Equal(t, diag.WildcardNotAllowedInList, de.Reason)
}

func TestParseListNotAllowedForColonOp(t *testing.T) {
	_, err := Parse("status:(live, draft)")
	de := asErr(t, err)
	assert.Equal(t, diag.ListNotAllowedForColonOp, de.Reason)
}

func TestParseNotWithoutTerm(t *testing.T) {
	_, err := Parse("status:live AND NOT")
	de := asErr(t, err)
	assert.Equal(t, diag.NotWithoutTerm, de.Reason)
}

func TestParseEmptyGroup(t *testing.T) {
	_, err := Parse("()")
	de := asErr(t, err)
	assert.Equal(t, diag.EmptyGroup, de.Reason)
}

func TestParseOperatorBeforeRightParen(t *testing.T) {
	_, err := Parse("(status:live AND)")
	de := asErr(t, err)
	assert.Equal(t, diag.OperatorBeforeRightParen, de.Reason)
}

func TestParseExpectedListAfterSetOperator(t *testing.T) {
	_, err := Parse("status IN live")
	de := asErr(t, err)
	assert.Equal(t, diag.ExpectedListAfterSetOperator, de.Reason)
}

func TestParseDottedFieldPath(t *testing.T) {
	node, err := Parse("organization.name:acme")
	require.NoError(t, err)
	cmp := node.(ast.Cmp)
	assert.Equal(t, []string{"organization", "name"}, cmp.FieldPath)
}
