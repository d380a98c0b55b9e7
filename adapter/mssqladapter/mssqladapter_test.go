package mssqladapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typhoonworks/sifter/build"
	"github.com/typhoonworks/sifter/value"
)

func TestRenderSimpleWhere(t *testing.T) {
	compiled := build.Compiled{
		Where: build.Fragment{
			SQL:    "events.status = ?",
			Params: []value.Value{value.String("live")},
		},
	}
	q := Render(compiled, "events", []string{"id", "status"})
	assert.Equal(t, `SELECT [events].[id], [events].[status] FROM [events] WHERE events.status = @p1`, q.SQL)
	assert.Len(t, q.Args, 1)
	assert.Equal(t, "p1", q.Args[0].Name)
	assert.Equal(t, "live", q.Args[0].Value)
}

func TestRenderMultiplePlaceholdersAcrossWhereAndHaving(t *testing.T) {
	compiled := build.Compiled{
		Where: build.Fragment{SQL: "tags.name IN (?, ?)", Params: []value.Value{value.String("red"), value.String("blue")}},
	}
	having := build.Fragment{SQL: "COUNT(DISTINCT tags.name) = ?", Params: []value.Value{value.Int(2)}}
	compiled.Having = &having
	compiled.GroupBy = []string{"events.id"}

	q := Render(compiled, "events", nil)
	assert.Contains(t, q.SQL, "WHERE tags.name IN (@p1, @p2)")
	assert.Contains(t, q.SQL, "HAVING COUNT(DISTINCT tags.name) = @p3")
	assert.Len(t, q.Args, 3)
	assert.Equal(t, "p3", q.Args[2].Name)
}
