// Package schema describes the type-registry adapter interface the
// core consumes (spec §3.4, §6.2): field existence, Ecto-equivalent
// type, and association kind/key metadata. The core never constructs a
// View itself; it is always supplied by the host application.
package schema

import "github.com/typhoonworks/sifter/value"

// AssocKind is the closed set of association shapes the join planner
// understands (spec §4.6). Exactly four variants; never reach into a
// View from the parser, only from the join planner.
type AssocKind int

const (
	BelongsTo AssocKind = iota + 1
	HasOne
	HasMany
	ManyToMany
)

func (k AssocKind) String() string {
	switch k {
	case BelongsTo:
		return "belongs_to"
	case HasOne:
		return "has_one"
	case HasMany:
		return "has_many"
	case ManyToMany:
		return "many_to_many"
	default:
		return "unknown"
	}
}

// IsToMany reports whether traversing this association can multiply
// root rows, which is what drives the DISTINCT/GROUP BY decision in
// the join planner (spec §4.6, §8.1).
func (k AssocKind) IsToMany() bool {
	return k == HasMany || k == ManyToMany
}

// Assoc describes one association step: its kind, the related schema
// name, and the foreign-key/join-table metadata needed to generate the
// join SQL.
type Assoc struct {
	Kind    AssocKind
	Related string // related schema name

	// OwnerKey/RelatedKey: for BelongsTo, OwnerKey is a column on the
	// root table and RelatedKey is the related table's key it points
	// at. For HasOne/HasMany, RelatedKey is the FK column on the
	// related table and OwnerKey is the root's own key it points back at.
	OwnerKey   string
	RelatedKey string

	// Join-table metadata, only set when Kind == ManyToMany.
	JoinTable       string
	JoinOwnerFK     string
	JoinRelatedFK   string
}

// View is the schema/type-registry collaborator interface the core
// consumes. It is read-only and must be safe for concurrent use from
// many compiles.
type View interface {
	// Fields returns every field name declared on schema s.
	Fields(s string) map[string]bool

	// Type returns the declared type of field f on schema s. The
	// second return is false if f is not a field of s.
	Type(s, f string) (value.Type, bool)

	// PrimaryKey returns the primary key column name of schema s.
	PrimaryKey(s string) string

	// Association returns the association named `name` on schema s,
	// or false if there is none by that name.
	Association(s, name string) (Assoc, bool)

	// TableName returns the SQL table name backing schema s.
	TableName(s string) string
}
