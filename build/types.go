// Package build lowers a typed AST into a parameterized condition plus
// planning metadata (spec §3.5, §4.5–§4.7): the predicate compiler,
// the join planner, and the full-text compiler. Everything downstream
// of this package (the facade, the SQL adapters) only composes the
// values produced here; build never does I/O.
package build

import (
	"strings"

	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/schema"
	"github.com/typhoonworks/sifter/value"
)

// Fragment is a parameterized SQL condition: SQL carries one '?'
// placeholder per entry of Params, in left-to-right order. An empty
// Fragment (SQL == "") is the canonical NoPredicates value (spec §7,
// §8.3) — it contributes nothing to a WHERE/HAVING clause.
type Fragment struct {
	SQL    string
	Params []value.Value
}

func (f Fragment) IsEmpty() bool { return f.SQL == "" }

// and/or combine fragments, skipping empty ones and collapsing to a
// single fragment (no redundant parens) when only one survives.
func combine(frags []Fragment, sep string) Fragment {
	var sqlParts []string
	var params []value.Value
	for _, f := range frags {
		if f.IsEmpty() {
			continue
		}
		sqlParts = append(sqlParts, f.SQL)
		params = append(params, f.Params...)
	}
	switch len(sqlParts) {
	case 0:
		return Fragment{}
	case 1:
		return Fragment{SQL: sqlParts[0], Params: params}
	default:
		return Fragment{SQL: "(" + strings.Join(sqlParts, sep) + ")", Params: params}
	}
}

func andFragments(frags ...Fragment) Fragment { return combine(frags, " AND ") }
func orFragments(frags ...Fragment) Fragment  { return combine(frags, " OR ") }

// JoinPlan describes the single optional association hop (spec §4.6).
type JoinPlan struct {
	Association string // the field-path segment naming this association
	Kind        schema.AssocKind
	Table       string // related table name, used as the join alias

	// OnSQL is the full ON clause for "LEFT JOIN Table ON OnSQL".
	OnSQL string

	// JoinTable/JoinTableOnSQL are set only for ManyToMany: an
	// additional "LEFT JOIN JoinTable ON JoinTableOnSQL" precedes the
	// join above.
	JoinTable       string
	JoinTableOnSQL  string
}

// OrderSpec is one ORDER BY term recommended by a full-text strategy
// (spec §4.7, Column strategy).
type OrderSpec struct {
	Column string
	Desc   bool
}

// Meta carries everything about a compile beyond the WHERE clause
// itself (spec §3.5).
type Meta struct {
	UsesFullText      bool
	AddedSelectFields []string
	RecommendedOrder  []OrderSpec
	Warnings          []diag.Warning
}

// Compiled is the result of a successful build (spec §3.5). All
// intermediate values are produced in one pass; nothing here is
// mutated after construction.
type Compiled struct {
	Where     Fragment
	Joins     []JoinPlan
	GroupBy   []string
	Having    *Fragment
	Distinct  bool
	SelectAdd []string
	Meta      Meta
}

// NoPredicates reports whether c carries no WHERE/HAVING condition at
// all — the facade leaves the base queryable unchanged in that case
// (spec §7).
func (c Compiled) NoPredicates() bool {
	return c.Where.IsEmpty() && (c.Having == nil || c.Having.IsEmpty())
}
