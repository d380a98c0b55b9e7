// Package ast defines the typed syntax tree the parser produces (spec
// §3.2): boolean-logic nodes, comparison predicates, set predicates and
// full-text nodes, plus the flattening helpers that keep And/Or trees
// shallow.
package ast

import (
	"fmt"
	"strings"

	"github.com/typhoonworks/sifter/value"
)

// Node is the closed sum type of AST nodes. The unexported marker
// method keeps the set closed to this package.
type Node interface {
	node()
	String() string
}

// And is a flattened conjunction: no child is itself an And node.
type And struct {
	Children []Node
}

func (And) node() {}

func (a And) String() string {
	return joinChildren(a.Children, " AND ")
}

// Or is a flattened disjunction: no child is itself an Or node.
type Or struct {
	Children []Node
}

func (Or) node() {}

func (o Or) String() string {
	return joinChildren(o.Children, " OR ")
}

func joinChildren(children []Node, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Not negates a single child expression.
type Not struct {
	Expr Node
}

func (Not) node() {}

func (n Not) String() string {
	return "NOT " + n.Expr.String()
}

// CmpOp is the closed set of comparison/set operators a Cmp node can carry.
type CmpOp int

const (
	OpEq CmpOp = iota + 1
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpNin
	OpContainsAll
	OpStartsWith
	OpEndsWith
)

func (op CmpOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpIn:
		return "IN"
	case OpNin:
		return "NOT IN"
	case OpContainsAll:
		return "ALL"
	case OpStartsWith:
		return "STARTS_WITH"
	case OpEndsWith:
		return "ENDS_WITH"
	default:
		return "?"
	}
}

// IsSetOp reports whether op takes a list of values rather than a
// single scalar.
func (op CmpOp) IsSetOp() bool {
	switch op {
	case OpIn, OpNin, OpContainsAll:
		return true
	default:
		return false
	}
}

// Cmp is a single comparison or set-membership predicate against a
// (possibly dotted) field path. FieldPath is always non-empty. For
// set operators, Values carries >=1 elements and Value is unused; for
// scalar operators, Value carries the single operand.
type Cmp struct {
	FieldPath []string
	Op        CmpOp
	Value     value.Value
	Values    []value.Value
}

func (Cmp) node() {}

func (c Cmp) Field() string {
	return strings.Join(c.FieldPath, ".")
}

func (c Cmp) String() string {
	if c.Op.IsSetOp() {
		parts := make([]string, len(c.Values))
		for i, v := range c.Values {
			parts[i] = v.String()
		}
		return fmt.Sprintf("%s %s (%s)", c.Field(), c.Op, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s %s %s", c.Field(), c.Op, c.Value.String())
}

// FullText is a bare (non-field) search term, matched by the full-text
// compiler against the configured search fields.
type FullText struct {
	Term string
}

func (FullText) node() {}

func (f FullText) String() string {
	return fmt.Sprintf("%q", f.Term)
}

// NewAnd builds an And node, splicing any child that is itself an And
// so the tree stays flat (spec §4.2 "AST flattening", invariant in §8.1).
// When exactly one child survives flattening, that child is returned
// as is rather than wrapped in an And.
func NewAnd(children ...Node) Node {
	flat := make([]Node, 0, len(children))
	for _, c := range children {
		if inner, ok := c.(And); ok {
			flat = append(flat, inner.Children...)
		} else {
			flat = append(flat, c)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return And{Children: flat}
}

// NewOr builds an Or node, splicing any child that is itself an Or.
// A single surviving child is returned as is rather than wrapped.
func NewOr(children ...Node) Node {
	flat := make([]Node, 0, len(children))
	for _, c := range children {
		if inner, ok := c.(Or); ok {
			flat = append(flat, inner.Children...)
		} else {
			flat = append(flat, c)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Or{Children: flat}
}

// Empty returns the canonical empty tree: And{} with no children,
// which compiles to NoPredicates (spec §8.3).
func Empty() Node {
	return And{Children: nil}
}

func IsEmpty(n Node) bool {
	a, ok := n.(And)
	return ok && len(a.Children) == 0
}
