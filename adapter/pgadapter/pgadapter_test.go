package pgadapter

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
	assert.Equal(t, `SELECT "events"."id", "events"."status" FROM "events" WHERE events.status = $1`, q.SQL)
	assert.Equal(t, []interface{}{"live"}, q.Args)
}

func TestRenderWithJoinGroupByHavingOrder(t *testing.T) {
	compiled := build.Compiled{
		Where: build.Fragment{SQL: "tags.name IN (?, ?)", Params: []value.Value{value.String("red"), value.String("blue")}},
	}
	compiled.Joins = []build.JoinPlan{{
		Association:    "tags",
		Table:          "tags",
		OnSQL:          "tags.id = events_tags.tag_id",
		JoinTable:      "events_tags",
		JoinTableOnSQL: "events_tags.event_id = events.id",
	}}
	compiled.GroupBy = []string{"events.id"}
	having := build.Fragment{SQL: "COUNT(DISTINCT tags.name) = ?", Params: []value.Value{value.Int(2)}}
	compiled.Having = &having
	compiled.Meta.RecommendedOrder = []build.OrderSpec{{Column: "search_rank", Desc: true}}

	q := Render(compiled, "events", nil)
	assert.Contains(t, q.SQL, `LEFT JOIN "events_tags" ON events_tags.event_id = events.id`)
	assert.Contains(t, q.SQL, `LEFT JOIN "tags" ON tags.id = events_tags.tag_id`)
	assert.Contains(t, q.SQL, "WHERE tags.name IN ($1, $2)")
	assert.Contains(t, q.SQL, "GROUP BY events.id")
	assert.Contains(t, q.SQL, "HAVING COUNT(DISTINCT tags.name) = $3")
	assert.Contains(t, q.SQL, "ORDER BY search_rank DESC")
	assert.Equal(t, []interface{}{"red", "blue", int64(2)}, q.Args)
}

func TestRenderDistinct(t *testing.T) {
	compiled := build.Compiled{Distinct: true}
	q := Render(compiled, "events", []string{"id"})
	assert.Contains(t, q.SQL, "SELECT DISTINCT")
}
