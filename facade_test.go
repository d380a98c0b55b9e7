package sifter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/schema"
	"github.com/typhoonworks/sifter/value"
)

type widgetsSchema struct{}

func (widgetsSchema) Fields(s string) map[string]bool {
	if s == "widgets" {
		return map[string]bool{"name": true, "weight": true}
	}
	return nil
}

func (widgetsSchema) Type(s, f string) (value.Type, bool) {
	if s != "widgets" {
		return value.Type{}, false
	}
	switch f {
	case "name":
		return value.Type{Kind: value.KText}, true
	case "weight":
		return value.Type{Kind: value.KInteger}, true
	}
	return value.Type{}, false
}

func (widgetsSchema) PrimaryKey(s string) string                     { return "id" }
func (widgetsSchema) Association(s, name string) (schema.Assoc, bool) { return schema.Assoc{}, false }
func (widgetsSchema) TableName(s string) string                      { return "widgets" }

func TestCompileSimpleQuery(t *testing.T) {
	opts := config.NewOptions(config.Lenient)
	opts.Schema = "widgets"
	opts.AllowAll = true

	compiled, err := Compile("name:gadget", widgetsSchema{}, opts)
	require.NoError(t, err)
	assert.Equal(t, "widgets.name = ?", compiled.Where.SQL)
	require.Len(t, compiled.Where.Params, 1)
	assert.Equal(t, "gadget", compiled.Where.Params[0].StringVal())
}

func TestCompileEmptySourceHasNoPredicates(t *testing.T) {
	opts := config.NewOptions(config.Lenient)
	opts.Schema = "widgets"
	opts.AllowAll = true

	compiled, err := Compile("", widgetsSchema{}, opts)
	require.NoError(t, err)
	assert.True(t, compiled.NoPredicates())
}

func TestCompilePropagatesParseError(t *testing.T) {
	opts := config.NewOptions(config.Lenient)
	opts.Schema = "widgets"
	opts.AllowAll = true

	_, err := Compile("name: AND", widgetsSchema{}, opts)
	require.Error(t, err)
}

func TestLintReturnsParseDiagnostic(t *testing.T) {
	errs := Lint("name: AND")
	require.Len(t, errs, 1)
}

func TestLintAcceptsValidQuery(t *testing.T) {
	errs := Lint("name:gadget AND weight>10")
	assert.Empty(t, errs)
}
