package build

import (
	"fmt"
	"strings"

	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/schema"
)

// collectAssociationNames walks node plus the configured full-text
// search fields and returns, in first-seen order with duplicates
// removed, every association name a two-or-more-segment field path
// references (spec §4.6).
func collectAssociationNames(node ast.Node, searchFields []string) []string {
	seen := make(map[string]bool)
	var order []string

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case ast.And:
			for _, c := range v.Children {
				walk(c)
			}
		case ast.Or:
			for _, c := range v.Children {
				walk(c)
			}
		case ast.Not:
			walk(v.Expr)
		case ast.Cmp:
			if len(v.FieldPath) >= 2 {
				add(v.FieldPath[0])
			}
		}
	}
	walk(node)

	for _, f := range searchFields {
		if idx := strings.IndexByte(f, '.'); idx >= 0 {
			add(f[:idx])
		}
	}

	return order
}

// planJoin resolves at most one required association name into a
// concrete JoinPlan. maxJoins, currently always 1 (spec §6.3), bounds
// how many distinct associations a single compile may touch; beyond
// that the join_overflow policy applies.
func planJoin(rootSchema string, required []string, view schema.View, maxJoins int, joinOverflow config.Policy, unknownAssoc config.Policy) (*JoinPlan, []diag.Warning, error) {
	if len(required) == 0 {
		return nil, nil, nil
	}

	if len(required) > maxJoins {
		if joinOverflow == config.Error {
			return nil, nil, diag.NewErrorAt(diag.Build, diag.TooManyJoins, 0,
				fmt.Sprintf("query requires %d association joins, only %d allowed", len(required), maxJoins))
		}
		// Ignore: proceed with only the first association; predicates
		// naming any other association are dropped during resolution.
	}

	name := required[0]
	assoc, ok := view.Association(rootSchema, name)
	if !ok {
		switch unknownAssoc {
		case config.Warn:
			return nil, []diag.Warning{{
				Reason:  diag.WarnUnknownAssociation,
				Field:   name,
				Message: fmt.Sprintf("unknown association %q dropped from predicate", name),
			}}, nil
		case config.Error:
			return nil, nil, diag.NewErrorAt(diag.Build, diag.UnknownAssociation, 0,
				fmt.Sprintf("Unknown association %q", name))
		default:
			return nil, nil, nil
		}
	}

	rootTable := view.TableName(rootSchema)
	relatedTable := view.TableName(assoc.Related)

	plan := &JoinPlan{
		Association: name,
		Kind:        assoc.Kind,
		Table:       relatedTable,
	}

	switch assoc.Kind {
	case schema.BelongsTo:
		plan.OnSQL = fmt.Sprintf("%s.%s = %s.%s", rootTable, assoc.OwnerKey, relatedTable, assoc.RelatedKey)
	case schema.HasOne, schema.HasMany:
		plan.OnSQL = fmt.Sprintf("%s.%s = %s.%s", relatedTable, assoc.RelatedKey, rootTable, assoc.OwnerKey)
	case schema.ManyToMany:
		rootPK := view.PrimaryKey(rootSchema)
		relatedPK := view.PrimaryKey(assoc.Related)
		plan.JoinTable = assoc.JoinTable
		plan.JoinTableOnSQL = fmt.Sprintf("%s.%s = %s.%s", assoc.JoinTable, assoc.JoinOwnerFK, rootTable, rootPK)
		plan.OnSQL = fmt.Sprintf("%s.%s = %s.%s", relatedTable, relatedPK, assoc.JoinTable, assoc.JoinRelatedFK)
	}

	return plan, nil, nil
}
