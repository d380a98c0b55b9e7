package build

import (
	"fmt"
	"strings"

	"github.com/typhoonworks/sifter/allowlist"
	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/coerce"
	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/schema"
	"github.com/typhoonworks/sifter/value"
)

// Builder is the orchestrator that lowers an AST into a Compiled query
// (spec §4.5–§4.7). It is stateless between calls to Build; all
// per-compile state lives in compileCtx.
type Builder struct {
	Schema string
	View   schema.View
	Allow  allowlist.AllowList
	Opts   config.Options
}

func NewBuilder(schemaName string, view schema.View, allow allowlist.AllowList, opts config.Options) *Builder {
	return &Builder{Schema: schemaName, View: view, Allow: allow, Opts: opts}
}

type aggEntry struct {
	Column string
	Count  int
}

// compileCtx accumulates per-compile state threaded through the
// recursive descent: the single active join (if any), warnings,
// full-text usage, and any ContainsAll-over-association aggregation
// entries destined for GROUP BY/HAVING.
type compileCtx struct {
	join             *JoinPlan
	warnings         []diag.Warning
	usesFullText     bool
	addedSelect      []string
	recommendedOrder []OrderSpec
	aggEntries       []aggEntry
}

// Build lowers node into a Compiled query (spec §3.5). An AST with no
// surviving predicates is not an error: Compiled.NoPredicates() is true.
func (b *Builder) Build(node ast.Node) (Compiled, error) {
	if ast.IsEmpty(node) {
		return Compiled{}, nil
	}

	joinSearchFields := b.joinRelevantSearchFields()
	required := collectAssociationNames(node, joinSearchFields)

	maxJoins := b.Opts.MaxJoins
	if maxJoins == 0 {
		maxJoins = 1
	}
	joinPlan, joinWarnings, err := planJoin(b.Schema, required, b.View, maxJoins, b.Opts.JoinOverflow, b.Opts.UnknownAssoc)
	if err != nil {
		return Compiled{}, err
	}

	ctx := &compileCtx{join: joinPlan, warnings: joinWarnings}

	where, err := b.compileNode(ctx, node)
	if err != nil {
		return Compiled{}, err
	}

	var having *Fragment
	var groupBy []string
	distinct := false

	if len(ctx.aggEntries) > 0 {
		parts := make([]string, len(ctx.aggEntries))
		var params []value.Value
		for i, e := range ctx.aggEntries {
			parts[i] = fmt.Sprintf("COUNT(DISTINCT %s) = ?", e.Column)
			params = append(params, value.Int(int64(e.Count)))
		}
		hv := Fragment{SQL: strings.Join(parts, " AND "), Params: params}
		having = &hv
		groupBy = []string{fmt.Sprintf("%s.%s", b.View.TableName(b.Schema), b.View.PrimaryKey(b.Schema))}
	} else if joinPlan != nil && joinPlan.Kind.IsToMany() {
		distinct = true
	}

	var joins []JoinPlan
	if joinPlan != nil {
		joins = []JoinPlan{*joinPlan}
	}

	return Compiled{
		Where:     where,
		Joins:     joins,
		GroupBy:   groupBy,
		Having:    having,
		Distinct:  distinct,
		SelectAdd: ctx.addedSelect,
		Meta: Meta{
			UsesFullText:      ctx.usesFullText,
			AddedSelectFields: ctx.addedSelect,
			RecommendedOrder:  ctx.recommendedOrder,
			Warnings:          ctx.warnings,
		},
	}, nil
}

// joinRelevantSearchFields excludes the Column strategy's precomputed
// column (it is always a root-table column, never association-joined).
func (b *Builder) joinRelevantSearchFields() []string {
	if b.Opts.SearchStrategy != nil && b.Opts.SearchStrategy.Kind == config.Column {
		return nil
	}
	return b.Opts.SearchFields
}

func (b *Builder) compileNode(ctx *compileCtx, node ast.Node) (Fragment, error) {
	switch n := node.(type) {
	case ast.And:
		return b.compileChildren(ctx, n.Children, andFragments)
	case ast.Or:
		return b.compileChildren(ctx, n.Children, orFragments)
	case ast.Not:
		// Negation of a bare full-text term has no effect on the WHERE
		// clause (spec §4.7).
		if _, ok := n.Expr.(ast.FullText); ok {
			return Fragment{}, nil
		}
		inner, err := b.compileNode(ctx, n.Expr)
		if err != nil {
			return Fragment{}, err
		}
		if inner.IsEmpty() {
			return Fragment{}, nil
		}
		return Fragment{SQL: "NOT (" + inner.SQL + ")", Params: inner.Params}, nil
	case ast.Cmp:
		return b.compileCmp(ctx, n)
	case ast.FullText:
		return b.compileFullText(ctx, n.Term)
	default:
		return Fragment{}, nil
	}
}

func (b *Builder) compileChildren(ctx *compileCtx, children []ast.Node, combine func(...Fragment) Fragment) (Fragment, error) {
	frags := make([]Fragment, 0, len(children))
	for _, c := range children {
		f, err := b.compileNode(ctx, c)
		if err != nil {
			return Fragment{}, err
		}
		frags = append(frags, f)
	}
	return combine(frags...), nil
}

func (b *Builder) compileCmp(ctx *compileCtx, c ast.Cmp) (Fragment, error) {
	resolved, ok, warn, err := b.Allow.Resolve(c.FieldPath, b.Opts.UnknownField)
	if err != nil {
		return Fragment{}, err
	}
	if warn != nil {
		ctx.warnings = append(ctx.warnings, *warn)
	}
	if !ok {
		return Fragment{}, nil
	}

	if len(resolved) >= 2 {
		// ContainsAll against an association other than the planned one
		// is left to compileContainsAll, which rejects it.
		otherAssoc := ctx.join == nil || ctx.join.Association != resolved[0]
		if len(resolved) > 2 || (otherAssoc && c.Op != ast.OpContainsAll) {
			return b.dropUnresolvedField(ctx, resolved)
		}
	}

	fieldType, found := b.fieldType(resolved)
	if !found {
		return b.dropUnresolvedField(ctx, resolved)
	}

	col := b.columnRef(ctx, resolved)

	if c.Op.IsSetOp() {
		return b.compileSetOp(ctx, c, resolved, fieldType, col)
	}
	return b.compileScalarOp(ctx, c, resolved, fieldType, col)
}

func (b *Builder) fieldType(resolved []string) (value.Type, bool) {
	if len(resolved) == 1 {
		return b.View.Type(b.Schema, resolved[0])
	}
	assoc, ok := b.View.Association(b.Schema, resolved[0])
	if !ok {
		return value.Type{}, false
	}
	return b.View.Type(assoc.Related, resolved[1])
}

func (b *Builder) columnRef(ctx *compileCtx, resolved []string) string {
	return b.qualify(ctx, strings.Join(resolved, "."))
}

func (b *Builder) dropUnresolvedField(ctx *compileCtx, resolved []string) (Fragment, error) {
	joined := strings.Join(resolved, ".")
	switch b.Opts.UnknownField {
	case config.Warn:
		ctx.warnings = append(ctx.warnings, diag.Warning{
			Reason:  diag.WarnUnknownField,
			Field:   joined,
			Message: fmt.Sprintf("field %q dropped from predicate", joined),
		})
		return Fragment{}, nil
	case config.Error:
		return Fragment{}, diag.NewErrorAt(diag.Build, diag.UnknownField, 0, fmt.Sprintf("Unknown field %q", joined))
	default:
		return Fragment{}, nil
	}
}

func (b *Builder) handleCastError(ctx *compileCtx, field string, err error) (Fragment, error) {
	de, isDiag := err.(diag.Error)
	if !isDiag {
		return Fragment{}, err
	}
	switch b.Opts.InvalidCast {
	case config.Error:
		return Fragment{}, de
	case config.Warn:
		ctx.warnings = append(ctx.warnings, diag.Warning{
			Reason:  diag.WarnInvalidCast,
			Field:   field,
			Message: de.Message,
		})
		return Fragment{}, nil
	default:
		return Fragment{}, nil
	}
}

func (b *Builder) compileScalarOp(ctx *compileCtx, c ast.Cmp, resolved []string, fieldType value.Type, col string) (Fragment, error) {
	res, err := coerce.CoerceScalar(fieldType, c.Op, c.Value)
	if err != nil {
		return b.handleCastError(ctx, strings.Join(resolved, "."), err)
	}

	if res.DateOnly {
		return expandDateOnly(col, res), nil
	}

	switch c.Op {
	case ast.OpStartsWith:
		return Fragment{SQL: col + " ILIKE ?", Params: []value.Value{value.String(escapeLike(res.Value.StringVal()) + "%")}}, nil
	case ast.OpEndsWith:
		return Fragment{SQL: col + " ILIKE ?", Params: []value.Value{value.String("%" + escapeLike(res.Value.StringVal()))}}, nil
	case ast.OpEq:
		if res.Value.IsNull() {
			return Fragment{SQL: col + " IS NULL"}, nil
		}
		return Fragment{SQL: col + " = ?", Params: []value.Value{res.Value}}, nil
	case ast.OpNeq:
		if res.Value.IsNull() {
			return Fragment{SQL: col + " IS NOT NULL"}, nil
		}
		return Fragment{SQL: col + " != ?", Params: []value.Value{res.Value}}, nil
	default: // Gt, Gte, Lt, Lte
		return Fragment{SQL: col + " " + c.Op.String() + " ?", Params: []value.Value{res.Value}}, nil
	}
}

func (b *Builder) compileSetOp(ctx *compileCtx, c ast.Cmp, resolved []string, fieldType value.Type, col string) (Fragment, error) {
	switch c.Op {
	case ast.OpIn, ast.OpNin:
		vals, err := coerce.CoerceList(fieldType, c.Values)
		if err != nil {
			return b.handleCastError(ctx, strings.Join(resolved, "."), err)
		}
		return b.compileInNin(c.Op, col, vals)
	case ast.OpContainsAll:
		return b.compileContainsAll(ctx, resolved, fieldType, col, c.Values)
	default:
		return Fragment{}, nil
	}
}

func (b *Builder) compileInNin(op ast.CmpOp, col string, vals []value.Value) (Fragment, error) {
	if len(vals) == 0 {
		switch b.Opts.EmptyIn {
		case config.EmptyInTrue:
			return Fragment{}, nil
		case config.EmptyInError:
			return Fragment{}, diag.NewErrorAt(diag.Build, diag.InvalidValue, 0, "empty list not allowed by empty_in policy")
		default:
			return Fragment{SQL: "FALSE"}, nil
		}
	}

	var nonNull []value.Value
	hasNull := false
	for _, v := range vals {
		if v.IsNull() {
			hasNull = true
		} else {
			nonNull = append(nonNull, v)
		}
	}

	var listSQL string
	if len(nonNull) > 0 {
		qs := placeholders(len(nonNull))
		verb := "IN"
		if op == ast.OpNin {
			verb = "NOT IN"
		}
		listSQL = fmt.Sprintf("%s %s (%s)", col, verb, strings.Join(qs, ", "))
	}

	if op == ast.OpIn {
		if !hasNull {
			return Fragment{SQL: listSQL, Params: nonNull}, nil
		}
		nullSQL := col + " IS NULL"
		if listSQL == "" {
			return Fragment{SQL: nullSQL}, nil
		}
		return Fragment{SQL: fmt.Sprintf("(%s) OR %s", listSQL, nullSQL), Params: nonNull}, nil
	}

	// Nin
	if !hasNull {
		return Fragment{SQL: listSQL, Params: nonNull}, nil
	}
	nullSQL := col + " IS NOT NULL"
	if listSQL == "" {
		return Fragment{SQL: nullSQL}, nil
	}
	return Fragment{SQL: fmt.Sprintf("(%s) AND %s", listSQL, nullSQL), Params: nonNull}, nil
}

func (b *Builder) compileContainsAll(ctx *compileCtx, resolved []string, fieldType value.Type, col string, raw []value.Value) (Fragment, error) {
	if fieldType.Kind == value.KArray {
		vals, err := coerce.CoerceList(fieldType, raw)
		if err != nil {
			return b.handleCastError(ctx, strings.Join(resolved, "."), err)
		}
		inner := sqlTypeName(fieldType.Inner.Kind)
		qs := placeholders(len(vals))
		return Fragment{
			SQL:    fmt.Sprintf("%s @> ARRAY[%s]::%s[]", col, strings.Join(qs, ", "), inner),
			Params: vals,
		}, nil
	}

	if len(resolved) >= 2 {
		if ctx.join == nil || ctx.join.Association != resolved[0] {
			return Fragment{}, diag.NewErrorAt(diag.Build, diag.UnsupportedMultiAssocContainsAll, 0,
				"ContainsAll against more than one association is not supported")
		}
		vals, err := coerce.CoerceList(fieldType, raw)
		if err != nil {
			return b.handleCastError(ctx, strings.Join(resolved, "."), err)
		}
		qs := placeholders(len(vals))
		where := Fragment{SQL: fmt.Sprintf("%s IN (%s)", col, strings.Join(qs, ", ")), Params: vals}
		ctx.aggEntries = append(ctx.aggEntries, aggEntry{Column: col, Count: len(vals)})
		return where, nil
	}

	// Scalar root column: degrade to In with a warning (spec §4.5).
	vals, err := coerce.CoerceList(fieldType, raw)
	if err != nil {
		return b.handleCastError(ctx, strings.Join(resolved, "."), err)
	}
	ctx.warnings = append(ctx.warnings, diag.Warning{
		Reason:  diag.WarnDegradedContainsAll,
		Field:   strings.Join(resolved, "."),
		Message: fmt.Sprintf("ContainsAll against scalar column %q degraded to IN", col),
	})
	return b.compileInNin(ast.OpIn, col, vals)
}

func expandDateOnly(col string, res coerce.Result) Fragment {
	start := res.Value.TimeVal()
	next := start.AddDate(0, 0, 1)

	switch res.Op {
	case ast.OpEq:
		return Fragment{
			SQL:    fmt.Sprintf("(%s >= ? AND %s < ?)", col, col),
			Params: []value.Value{value.DateTime(start), value.DateTime(next)},
		}
	case ast.OpGte:
		return Fragment{SQL: col + " >= ?", Params: []value.Value{value.DateTime(start)}}
	case ast.OpGt:
		return Fragment{SQL: col + " >= ?", Params: []value.Value{value.DateTime(next)}}
	case ast.OpLte:
		return Fragment{SQL: col + " < ?", Params: []value.Value{value.DateTime(next)}}
	case ast.OpLt:
		return Fragment{SQL: col + " < ?", Params: []value.Value{value.DateTime(start)}}
	default:
		return Fragment{}
	}
}

func placeholders(n int) []string {
	qs := make([]string, n)
	for i := range qs {
		qs[i] = "?"
	}
	return qs
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// sqlTypeName maps a value.Kind to the Postgres type keyword used when
// casting an ARRAY[...] literal for ContainsAll against an Array(inner)
// column (spec §4.5).
func sqlTypeName(k value.Kind) string {
	switch k {
	case value.KInteger:
		return "integer"
	case value.KBool:
		return "boolean"
	case value.KDecimal:
		return "numeric"
	case value.KDate:
		return "date"
	case value.KUtcDateTime, value.KNaiveDateTime, value.KNaiveDateTimeMicro:
		return "timestamp"
	case value.KUuid:
		return "uuid"
	case value.KText:
		return "text"
	default:
		return "text"
	}
}
