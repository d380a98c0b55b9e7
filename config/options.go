// Package config holds the compiler's caller-facing options (spec §6.3):
// the allow-list input shape, the unknown-field/assoc/cast policy knobs,
// and the full-text search strategy selection. It has no dependency on
// the rest of the compiler so every stage can accept it without a
// dependency cycle.
package config

// Policy governs what happens when a build-stage condition (unknown
// field, unknown association step, uncastable literal) is hit.
type Policy int

const (
	Ignore Policy = iota + 1
	Warn
	Error
)

func (p Policy) String() string {
	switch p {
	case Ignore:
		return "ignore"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Mode is a preset for the three handling knobs below.
type Mode int

const (
	Lenient Mode = iota + 1
	Strict
)

// EmptyInPolicy governs what an empty IN/NOT IN list lowers to.
type EmptyInPolicy int

const (
	EmptyInFalse EmptyInPolicy = iota + 1 // predicate is unconditionally false
	EmptyInTrue                           // predicate is unconditionally true (degenerates to no predicate)
	EmptyInError                          // compile fails
)

// TsqueryMode selects the default sanitizer and tsquery constructor for
// the TsQuery full-text strategy.
type TsqueryMode int

const (
	Plainto TsqueryMode = iota + 1
	Raw
)

// StrategyKind is the full-text search strategy family.
type StrategyKind int

const (
	ILike StrategyKind = iota + 1
	TsQuery
	Column
)

// SearchStrategy configures full-text compilation (spec §4.7).
type SearchStrategy struct {
	Kind StrategyKind

	// Config is the Postgres text-search configuration name (e.g. "english"),
	// used by TsQuery and Column.
	Config string

	// ColumnName is the precomputed tsvector column name, used by Column only.
	ColumnName string
}

// Sanitizer sanitizes a raw full-text search term before compilation.
// Modeled as an interface so callers can plug in either a closure
// (through SanitizerFunc) or a named type with a Sanitize method. The
// built-in default sanitizers are plain functions used only when no
// Sanitizer is set.
type Sanitizer interface {
	Sanitize(term string) string
}

// SanitizerFunc adapts a plain function to the Sanitizer interface.
type SanitizerFunc func(string) string

func (f SanitizerFunc) Sanitize(term string) string { return f(term) }

// AllowListEntry is one entry of the `allowed_fields` option: either a
// plain path ("organization.name") or an alias mapping.
type AllowListEntry struct {
	As    string
	Field string
}

// Options is the full set of per-call knobs (spec §6.3). Zero value is
// not valid on its own; use NewOptions to apply Mode presets.
type Options struct {
	Mode Mode

	UnknownField  Policy
	UnknownAssoc  Policy
	InvalidCast   Policy
	MaxJoins      int
	JoinOverflow  Policy // only Ignore or Error are meaningful
	EmptyIn       EmptyInPolicy

	TsqueryMode       TsqueryMode
	FullTextSanitizer Sanitizer
	SearchFields      []string
	SearchStrategy    *SearchStrategy

	// AllowAll, when true, admits any parseable field path subject only
	// to the type registry (spec §4.3 step 1); AllowedFields, aliases
	// included, is then not consulted.
	AllowAll      bool
	AllowedFields []AllowListEntry
	Schema        string
}

// NewOptions returns Options preset for Mode m, which the caller may
// then override field by field. Per-call options override per-process
// defaults override application defaults (spec §6.3); that layered
// resolution is the caller's responsibility before NewOptions is
// reached, options here is already the fully-resolved value.
func NewOptions(m Mode) Options {
	switch m {
	case Strict:
		return Options{
			Mode:         Strict,
			UnknownField: Error,
			UnknownAssoc: Error,
			InvalidCast:  Error,
			MaxJoins:     1,
			JoinOverflow: Error,
			EmptyIn:      EmptyInError,
			TsqueryMode:  Plainto,
		}
	case Lenient:
		fallthrough
	default:
		return Options{
			Mode:         Lenient,
			UnknownField: Ignore,
			UnknownAssoc: Ignore,
			InvalidCast:  Ignore,
			MaxJoins:     1,
			JoinOverflow: Ignore,
			EmptyIn:      EmptyInFalse,
			TsqueryMode:  Plainto,
		}
	}
}
