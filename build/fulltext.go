package build

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/value"
)

var whitespaceRun = regexp.MustCompile(`\s+`)
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

const fullTextMaxLen = 100

func sanitizePlainto(term string) string {
	t := strings.TrimSpace(term)
	t = whitespaceRun.ReplaceAllString(t, " ")
	if len(t) > fullTextMaxLen {
		t = t[:fullTextMaxLen]
	}
	return t
}

func sanitizeRaw(term string) string {
	t := strings.TrimSpace(term)
	if len(t) > fullTextMaxLen {
		t = t[:fullTextMaxLen]
	}

	fields := strings.Fields(t)
	if len(fields) > 10 {
		fields = fields[:10]
	}

	var tokens []string
	for _, f := range fields {
		stripped := nonAlphanumeric.ReplaceAllString(f, "")
		if len(stripped) < 2 {
			continue
		}
		tokens = append(tokens, stripped)
		if len(tokens) == 5 {
			break
		}
	}

	for i, tok := range tokens {
		tokens[i] = tok + ":*"
	}
	return strings.Join(tokens, " & ")
}

type sanitizerFunc func(string) string

func defaultSanitizer(mode config.TsqueryMode) sanitizerFunc {
	if mode == config.Raw {
		return sanitizeRaw
	}
	return sanitizePlainto
}

// compileFullText implements the three search_strategy variants (spec
// §4.7). It returns the WHERE fragment contributed by term; when the
// Column strategy applies it also records a select-add column and a
// recommended ORDER BY in ctx. An empty-after-sanitization term, or a term with
// no search fields configured, degenerates to NoPredicates.
func (b *Builder) compileFullText(ctx *compileCtx, term string) (Fragment, error) {
	opts := b.Opts

	var sanitize func(string) string
	if opts.FullTextSanitizer != nil {
		sanitize = opts.FullTextSanitizer.Sanitize
	} else {
		sanitize = defaultSanitizer(opts.TsqueryMode)
	}
	sanitized := sanitize(term)
	if sanitized == "" {
		return Fragment{}, nil
	}

	kind := config.ILike
	cfg := ""
	colName := ""
	if opts.SearchStrategy != nil {
		kind = opts.SearchStrategy.Kind
		cfg = opts.SearchStrategy.Config
		colName = opts.SearchStrategy.ColumnName
	}

	if kind == config.Column && colName == "" {
		return Fragment{}, diag.NewErrorAt(diag.Build, diag.FullTextMisconfigured, 0,
			"search_strategy Column requires a column_name")
	}

	if kind == config.Column {
		col := b.qualify(ctx, colName)
		ctx.usesFullText = true
		ctx.addedSelect = append(ctx.addedSelect, "search_rank")
		ctx.recommendedOrder = append(ctx.recommendedOrder, OrderSpec{Column: "search_rank", Desc: true})
		return Fragment{
			SQL:    fmt.Sprintf("%s @@ plainto_tsquery(?, ?)", col),
			Params: []value.Value{value.String(cfg), value.String(sanitized)},
		}, nil
	}

	if len(opts.SearchFields) == 0 {
		return Fragment{}, nil
	}

	var frags []Fragment
	for _, f := range opts.SearchFields {
		col := b.qualify(ctx, f)
		switch kind {
		case config.TsQuery:
			fn := "plainto_tsquery"
			if opts.TsqueryMode == config.Raw {
				fn = "to_tsquery"
			}
			frags = append(frags, Fragment{
				SQL:    fmt.Sprintf("to_tsvector(?, coalesce(%s, '')) @@ %s(?, ?)", col, fn),
				Params: []value.Value{value.String(cfg), value.String(cfg), value.String(sanitized)},
			})
		default: // ILike
			frags = append(frags, Fragment{
				SQL:    fmt.Sprintf("%s ILIKE ?", col),
				Params: []value.Value{value.String("%" + escapeLike(sanitized) + "%")},
			})
		}
	}

	if len(frags) > 0 {
		ctx.usesFullText = true
	}
	return orFragments(frags...), nil
}

// qualify maps a (possibly dotted) field path string to a fully
// qualified "table.column" SQL reference, using the active join plan
// for two-segment paths.
func (b *Builder) qualify(ctx *compileCtx, fieldPath string) string {
	parts := strings.SplitN(fieldPath, ".", 2)
	if len(parts) == 1 {
		return fmt.Sprintf("%s.%s", b.View.TableName(b.Schema), parts[0])
	}
	if ctx.join != nil && ctx.join.Association == parts[0] {
		return fmt.Sprintf("%s.%s", ctx.join.Table, parts[1])
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}
