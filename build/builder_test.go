package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoonworks/sifter/allowlist"
	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/parser"
	"github.com/typhoonworks/sifter/schema"
	"github.com/typhoonworks/sifter/value"
)

// eventsSchema implements schema.View for the events/organization/tags
// fixture used throughout spec §8.4.
type eventsSchema struct{}

func (eventsSchema) Fields(s string) map[string]bool {
	switch s {
	case "events":
		return map[string]bool{"status": true, "priority": true, "active": true, "time_start": true, "organization_id": true, "id": true}
	case "organization":
		return map[string]bool{"name": true, "id": true}
	case "tags":
		return map[string]bool{"name": true, "id": true}
	default:
		return nil
	}
}

func (eventsSchema) Type(s, f string) (value.Type, bool) {
	types := map[string]map[string]value.Type{
		"events": {
			"status":          {Kind: value.KText},
			"priority":        {Kind: value.KInteger},
			"active":          {Kind: value.KBool},
			"time_start":      {Kind: value.KUtcDateTime},
			"organization_id": {Kind: value.KInteger},
			"id":              {Kind: value.KInteger},
		},
		"organization": {
			"name": {Kind: value.KText},
			"id":   {Kind: value.KInteger},
		},
		"tags": {
			"name": {Kind: value.KText},
			"id":   {Kind: value.KInteger},
		},
	}
	t, ok := types[s][f]
	return t, ok
}

func (eventsSchema) PrimaryKey(s string) string { return "id" }

func (eventsSchema) Association(s, name string) (schema.Assoc, bool) {
	if s != "events" {
		return schema.Assoc{}, false
	}
	switch name {
	case "organization":
		return schema.Assoc{Kind: schema.BelongsTo, Related: "organization", OwnerKey: "organization_id", RelatedKey: "id"}, true
	case "tags":
		return schema.Assoc{Kind: schema.ManyToMany, Related: "tags", JoinTable: "events_tags", JoinOwnerFK: "event_id", JoinRelatedFK: "tag_id"}, true
	default:
		return schema.Assoc{}, false
	}
}

func (eventsSchema) TableName(s string) string {
	switch s {
	case "events":
		return "events"
	case "organization":
		return "organizations"
	case "tags":
		return "tags"
	default:
		return s
	}
}

func compileQuery(t *testing.T, source string, al allowlist.AllowList, opts config.Options) Compiled {
	t.Helper()
	node, err := parser.Parse(source)
	require.NoError(t, err)
	b := NewBuilder("events", eventsSchema{}, al, opts)
	compiled, err := b.Build(node)
	require.NoError(t, err)
	return compiled
}

func lenientOpts() config.Options {
	o := config.NewOptions(config.Lenient)
	o.Schema = "events"
	return o
}

func TestBuildSimpleField(t *testing.T) {
	al := allowlist.Build(true, nil)
	c := compileQuery(t, "status:live", al, lenientOpts())
	assert.Equal(t, "events.status = ?", c.Where.SQL)
	require.Len(t, c.Where.Params, 1)
	assert.Equal(t, "live", c.Where.Params[0].StringVal())
	assert.False(t, c.Meta.UsesFullText)
}

func TestBuildBooleanPrecedence(t *testing.T) {
	al := allowlist.Build(true, nil)
	c := compileQuery(t, "status:live OR status:draft AND priority:10", al, lenientOpts())
	assert.Equal(t, "(events.status = ? OR (events.status = ? AND events.priority = ?))", c.Where.SQL)
	require.Len(t, c.Where.Params, 3)
}

func TestBuildAssociationFilterIntroducesJoin(t *testing.T) {
	al := allowlist.Build(false, []config.AllowListEntry{
		{Field: "status"},
		{As: "org.name", Field: "organization.name"},
	})
	c := compileQuery(t, "status:live AND org.name:Bea*", al, lenientOpts())
	require.Len(t, c.Joins, 1)
	assert.Equal(t, "organization", c.Joins[0].Association)
	assert.Equal(t, "organizations", c.Joins[0].Table)
	assert.Equal(t, "events.organization_id = organizations.id", c.Joins[0].OnSQL)
	assert.Equal(t, "(events.status = ? AND organizations.name ILIKE ?)", c.Where.SQL)
	assert.Equal(t, "Bea%", c.Where.Params[1].StringVal())
}

func TestBuildSetWithNull(t *testing.T) {
	al := allowlist.Build(true, nil)
	c := compileQuery(t, "organization_id IN (NULL, 7, 8)", al, lenientOpts())
	assert.Equal(t, "(events.organization_id IN (?, ?)) OR events.organization_id IS NULL", c.Where.SQL)
	require.Len(t, c.Where.Params, 2)
	assert.Equal(t, int64(7), c.Where.Params[0].IntVal())
	assert.Equal(t, int64(8), c.Where.Params[1].IntVal())
}

func TestBuildDateOnlyOnDatetime(t *testing.T) {
	al := allowlist.Build(true, nil)
	c := compileQuery(t, "time_start:2025-08-07", al, lenientOpts())
	assert.Equal(t, "(events.time_start >= ? AND events.time_start < ?)", c.Where.SQL)
	require.Len(t, c.Where.Params, 2)
	assert.Equal(t, "2025-08-07", c.Where.Params[0].TimeVal().Format("2006-01-02"))
	assert.Equal(t, "2025-08-08", c.Where.Params[1].TimeVal().Format("2006-01-02"))
}

func TestBuildFullTextWithField(t *testing.T) {
	al := allowlist.Build(true, nil)
	opts := lenientOpts()
	opts.SearchFields = []string{"title", "content"}
	opts.SearchStrategy = &config.SearchStrategy{Kind: config.ILike}
	c := compileQuery(t, "elixir status:published", al, opts)
	assert.Equal(t, "((events.title ILIKE ? OR events.content ILIKE ?) AND events.status = ?)", c.Where.SQL)
	assert.True(t, c.Meta.UsesFullText)
}

func TestBuildManyToManyRequiresDistinctWithoutAggregation(t *testing.T) {
	al := allowlist.Build(false, []config.AllowListEntry{{Field: "tags.name"}, {Field: "status"}})
	c := compileQuery(t, "tags.name:red AND status:live", al, lenientOpts())
	assert.True(t, c.Distinct)
	assert.Nil(t, c.Having)
}

func TestBuildContainsAllOverAssociationUsesGroupByHaving(t *testing.T) {
	al := allowlist.Build(false, []config.AllowListEntry{{Field: "tags.name"}})
	c := compileQuery(t, "tags.name ALL (red, blue)", al, lenientOpts())
	assert.False(t, c.Distinct)
	require.NotNil(t, c.Having)
	assert.Equal(t, "COUNT(DISTINCT tags.name) = ?", c.Having.SQL)
	assert.Equal(t, int64(2), c.Having.Params[0].IntVal())
	assert.Equal(t, []string{"events.id"}, c.GroupBy)
	assert.Equal(t, "tags.name IN (?, ?)", c.Where.SQL)
}

func TestBuildContainsAllOverScalarDegradesWithWarning(t *testing.T) {
	al := allowlist.Build(true, nil)
	c := compileQuery(t, "status ALL (live, draft)", al, lenientOpts())
	assert.Equal(t, "events.status IN (?, ?)", c.Where.SQL)
	require.Len(t, c.Meta.Warnings, 1)
	assert.Equal(t, diag.WarnDegradedContainsAll, c.Meta.Warnings[0].Reason)
}

func TestBuildUnknownFieldErrorPolicy(t *testing.T) {
	al := allowlist.Build(false, nil)
	opts := lenientOpts()
	opts.UnknownField = config.Error
	node, err := parser.Parse("bogus:live")
	require.NoError(t, err)
	b := NewBuilder("events", eventsSchema{}, al, opts)
	_, buildErr := b.Build(node)
	require.Error(t, buildErr)
	de := buildErr.(diag.Error)
	assert.Equal(t, diag.UnknownField, de.Reason)
}

func TestBuildEmptySourceIsNoPredicates(t *testing.T) {
	al := allowlist.Build(true, nil)
	c := compileQuery(t, "", al, lenientOpts())
	assert.True(t, c.NoPredicates())
}

func TestBuildNegatedFullTextHasNoEffect(t *testing.T) {
	al := allowlist.Build(true, nil)
	opts := lenientOpts()
	opts.SearchFields = []string{"title"}
	opts.SearchStrategy = &config.SearchStrategy{Kind: config.ILike}
	c := compileQuery(t, "NOT elixir", al, opts)
	assert.True(t, c.NoPredicates())
}
