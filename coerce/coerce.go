// Package coerce casts the parser's untyped string/null literals
// against the schema-declared type of the field they compare against
// (spec §4.4), including the date-only detection that lets ordered
// comparisons against datetime columns expand into boundary ranges.
package coerce

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/value"
)

// Result is the outcome of coercing a single scalar literal. DateOnly
// is set when the value was detected as a pure date RHS against a
// datetime-typed field (spec §4.4); the predicate compiler expands it
// into a boundary range rather than a direct comparison.
type Result struct {
	Value    value.Value
	DateOnly bool
	Op       ast.CmpOp
}

const dateOnlyLayout = "2006-01-02"

// CoerceScalar casts a single literal against fieldType for comparison
// operator op.
func CoerceScalar(fieldType value.Type, op ast.CmpOp, raw value.Value) (Result, error) {
	if raw.IsNull() {
		if isRelational(op) {
			return Result{}, diag.NewErrorAt(diag.Build, diag.InvalidNullComparison, 0,
				fmt.Sprintf("null is not comparable with '%s'", op))
		}
		return Result{Value: value.Null(), Op: op}, nil
	}

	if op == ast.OpStartsWith || op == ast.OpEndsWith {
		return Result{Value: value.String(raw.StringVal()), Op: op}, nil
	}

	if fieldType.IsDateTime() && isDateOnlyEligible(op) {
		if d, ok := parseDateOnly(raw.StringVal()); ok {
			return Result{Value: value.Date(d), DateOnly: true, Op: op}, nil
		}
	}

	v, err := cast(fieldType, raw)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v, Op: op}, nil
}

// CoerceList casts every element of a set-predicate's value list. When
// fieldType is Array(inner), elements are cast against inner (spec
// §4.5's `col @> ARRAY[...]::inner[]` lowering needs inner-typed params).
func CoerceList(fieldType value.Type, raws []value.Value) ([]value.Value, error) {
	elemType := fieldType
	if fieldType.Kind == value.KArray && fieldType.Inner != nil {
		elemType = *fieldType.Inner
	}

	out := make([]value.Value, len(raws))
	for i, r := range raws {
		if r.IsNull() {
			out[i] = value.Null()
			continue
		}
		v, err := cast(elemType, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// isRelational is the narrower set spec §4.4 rejects null against:
// only the four ordered comparators, not Eq (Eq against null means IS NULL).
func isRelational(op ast.CmpOp) bool {
	switch op {
	case ast.OpGt, ast.OpGte, ast.OpLt, ast.OpLte:
		return true
	default:
		return false
	}
}

// isDateOnlyEligible is the wider set the date-only expansion table
// (spec §4.5) covers: Eq plus the four ordered comparators.
func isDateOnlyEligible(op ast.CmpOp) bool {
	switch op {
	case ast.OpEq, ast.OpGt, ast.OpGte, ast.OpLt, ast.OpLte:
		return true
	default:
		return false
	}
}

func parseDateOnly(s string) (time.Time, bool) {
	t, err := time.Parse(dateOnlyLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// cast implements the type registry's cast(type, value) (spec §4.4).
// It lives here rather than as a schema.View method: the View
// interface is a read-only descriptor the host application supplies,
// and casting is a pure function of that descriptor plus the raw
// literal, with no need for the host to implement it per schema.
func cast(t value.Type, raw value.Value) (value.Value, error) {
	if raw.IsNull() {
		return value.Null(), nil
	}

	s := raw.StringVal()
	switch t.Kind {
	case value.KString, value.KText:
		return value.String(s), nil

	case value.KInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.Value{}, invalidValue(t, s)
		}
		return value.Int(i), nil

	case value.KBool:
		switch s {
		case "true", "1":
			return value.Bool(true), nil
		case "false", "0":
			return value.Bool(false), nil
		default:
			return value.Value{}, invalidValue(t, s)
		}

	case value.KDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return value.Value{}, invalidValue(t, s)
		}
		return value.Decimal(d), nil

	case value.KDate:
		d, err := time.Parse(dateOnlyLayout, s)
		if err != nil {
			return value.Value{}, invalidValue(t, s)
		}
		return value.Date(d), nil

	case value.KUtcDateTime, value.KNaiveDateTime, value.KNaiveDateTimeMicro:
		dt, err := parseDateTime(s)
		if err != nil {
			return value.Value{}, invalidValue(t, s)
		}
		return value.DateTime(dt), nil

	case value.KUuid:
		u, err := uuid.FromString(s)
		if err != nil {
			return value.Value{}, invalidValue(t, s)
		}
		return value.Uuid(u), nil

	default:
		return value.Value{}, invalidValue(t, s)
	}
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseDateTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func invalidValue(t value.Type, raw string) error {
	return diag.NewErrorAt(diag.Build, diag.InvalidValue, 0,
		fmt.Sprintf("cannot cast %q to %s", raw, t.Kind))
}
