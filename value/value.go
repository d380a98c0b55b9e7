package value

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// ValueKind is the tag of the Value union.
type ValueKind int

const (
	VNull ValueKind = iota + 1
	VString
	VInt
	VBool
	VDecimal
	VDate
	VDateTime
	VUuid
)

// Value is a tagged union over the literal scalars the scanner/parser
// can produce plus whatever the coercer casts them into. Null is a
// first-class member meaning SQL NULL (spec §3.2).
type Value struct {
	Kind ValueKind

	str  string
	i    int64
	b    bool
	dec  decimal.Decimal
	t    time.Time
	uuid uuid.UUID
}

func Null() Value                { return Value{Kind: VNull} }
func String(s string) Value      { return Value{Kind: VString, str: s} }
func Int(i int64) Value          { return Value{Kind: VInt, i: i} }
func Bool(b bool) Value          { return Value{Kind: VBool, b: b} }
func Decimal(d decimal.Decimal) Value { return Value{Kind: VDecimal, dec: d} }
func Date(t time.Time) Value     { return Value{Kind: VDate, t: t} }
func DateTime(t time.Time) Value { return Value{Kind: VDateTime, t: t} }
func Uuid(u uuid.UUID) Value     { return Value{Kind: VUuid, uuid: u} }

func (v Value) IsNull() bool { return v.Kind == VNull }

func (v Value) StringVal() string         { return v.str }
func (v Value) IntVal() int64             { return v.i }
func (v Value) BoolVal() bool             { return v.b }
func (v Value) DecimalVal() decimal.Decimal { return v.dec }
func (v Value) TimeVal() time.Time        { return v.t }
func (v Value) UuidVal() uuid.UUID        { return v.uuid }

// Any returns the underlying Go value suitable for binding as a
// database/sql driver argument (nil for VNull).
func (v Value) Any() interface{} {
	switch v.Kind {
	case VNull:
		return nil
	case VString:
		return v.str
	case VInt:
		return v.i
	case VBool:
		return v.b
	case VDecimal:
		return v.dec
	case VDate:
		return v.t
	case VDateTime:
		return v.t
	case VUuid:
		return v.uuid
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case VNull:
		return "NULL"
	case VString:
		return fmt.Sprintf("%q", v.str)
	case VInt:
		return fmt.Sprintf("%d", v.i)
	case VBool:
		return fmt.Sprintf("%t", v.b)
	case VDecimal:
		return v.dec.String()
	case VDate:
		return v.t.Format("2006-01-02")
	case VDateTime:
		return v.t.Format(time.RFC3339)
	case VUuid:
		return v.uuid.String()
	default:
		return "<invalid value>"
	}
}

// Equal reports whether v and other carry the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case VNull:
		return true
	case VString:
		return v.str == other.str
	case VInt:
		return v.i == other.i
	case VBool:
		return v.b == other.b
	case VDecimal:
		return v.dec.Equal(other.dec)
	case VDate, VDateTime:
		return v.t.Equal(other.t)
	case VUuid:
		return v.uuid == other.uuid
	default:
		return false
	}
}
