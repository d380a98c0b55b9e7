// Package mssqladapter serializes a build.Compiled query into T-SQL:
// @pN named placeholders and [bracket]-quoted identifiers, the other
// half of the two reference Adapter implementations spec §6.1 treats
// as an external collaborator to the pure core compiler.
//
// Grounded on the teacher's mssql code path in the removed dbops.go
// (`driver.(*mssql.Driver)` branches) and on the now-removed
// error.go's SQLUserError wrapping of mssql.Error.
package mssqladapter

import (
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/typhoonworks/sifter/build"
	"github.com/typhoonworks/sifter/value"
)

// Query is a fully assembled, ready-to-execute T-SQL statement.
type Query struct {
	SQL  string
	Args []sql.NamedArg
}

// Render assembles compiled into a SELECT against table, projecting
// columns plus whatever compiled.SelectAdd contributed.
func Render(compiled build.Compiled, table string, columns []string) Query {
	var b strings.Builder
	b.WriteString("SELECT ")
	if compiled.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(selectList(table, columns, compiled.SelectAdd))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(table))

	for _, j := range compiled.Joins {
		if j.JoinTable != "" {
			fmt.Fprintf(&b, " LEFT JOIN %s ON %s", quoteIdent(j.JoinTable), j.JoinTableOnSQL)
		}
		fmt.Fprintf(&b, " LEFT JOIN %s ON %s", quoteIdent(j.Table), j.OnSQL)
	}

	var args []sql.NamedArg
	if !compiled.Where.IsEmpty() {
		b.WriteString(" WHERE ")
		b.WriteString(rewritePlaceholders(compiled.Where.SQL, &args, compiled.Where.Params))
	}

	if len(compiled.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(compiled.GroupBy, ", "))
	}

	if compiled.Having != nil && !compiled.Having.IsEmpty() {
		b.WriteString(" HAVING ")
		b.WriteString(rewritePlaceholders(compiled.Having.SQL, &args, compiled.Having.Params))
	}

	if len(compiled.Meta.RecommendedOrder) > 0 {
		b.WriteString(" ORDER BY ")
		parts := make([]string, len(compiled.Meta.RecommendedOrder))
		for i, o := range compiled.Meta.RecommendedOrder {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", o.Column, dir)
		}
		b.WriteString(strings.Join(parts, ", "))
	}

	return Query{SQL: b.String(), Args: args}
}

func selectList(table string, columns, extra []string) string {
	if len(columns) == 0 {
		return strings.Join(append([]string{quoteIdent(table) + ".*"}, extra...), ", ")
	}
	qualified := make([]string, 0, len(columns)+len(extra))
	for _, c := range columns {
		qualified = append(qualified, fmt.Sprintf("%s.%s", quoteIdent(table), quoteIdent(c)))
	}
	qualified = append(qualified, extra...)
	return strings.Join(qualified, ", ")
}

// quoteIdent brackets a (possibly dotted) identifier the way T-SQL
// requires (events.name -> [events].[name]).
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "[" + p + "]"
	}
	return strings.Join(parts, ".")
}

// rewritePlaceholders translates sifter's dialect-neutral '?' markers
// into T-SQL named parameters (@p1, @p2, ...).
func rewritePlaceholders(fragment string, args *[]sql.NamedArg, params []value.Value) string {
	var b strings.Builder
	pi := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] == '?' {
			name := fmt.Sprintf("p%d", len(*args)+1)
			*args = append(*args, sql.Named(name, params[pi].Any()))
			pi++
			fmt.Fprintf(&b, "@%s", name)
			continue
		}
		b.WriteByte(fragment[i])
	}
	return b.String()
}

// DetectDialect reports whether db is backed by go-mssqldb's driver.
func DetectDialect(db *sql.DB) bool {
	_, ok := db.Driver().(*mssql.Driver)
	return ok
}

// WrapError wraps a driver error raised while executing a serialized
// query, surfacing the per-statement detail mssql.Error carries (the
// same unwrap the teacher's removed SQLUserError performed over
// mssql.Error.All).
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if sqlErr, ok := err.(mssql.Error); ok {
		return QueryError{Wrapped: sqlErr}
	}
	return err
}

// QueryError is returned by WrapError when the underlying driver error
// is an mssql.Error, so callers can report every message the server
// attached to the batch instead of just the first.
type QueryError struct {
	Wrapped mssql.Error
}

func (e QueryError) Error() string {
	var b strings.Builder
	for _, item := range e.Wrapped.All {
		fmt.Fprintf(&b, "%s: %s\n", item.ProcName, item.Message)
	}
	return b.String()
}
