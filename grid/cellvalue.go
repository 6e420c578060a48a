package grid

import (
	"math"

	"github.com/sqldef/gridiff/stringpool"
)

// ValueKind tags the variant held by a CellValue. The zero value is Blank,
// matching an absent CellValue.
type ValueKind int

const (
	Blank ValueKind = iota
	Number
	Text
	Bool
	Error
)

// CellValue is the sum type described in spec §3: {Blank, Number(f64,
// finite), Text(StringId), Bool, Error(StringId)}. NaN/Inf numbers are
// rejected at construction time rather than at the output boundary, so a
// bad float can never enter a Grid in the first place.
type CellValue struct {
	kind    ValueKind
	number  float64
	text    stringpool.StringId
	boolean bool
}

// NewNumber builds a Number CellValue. It panics if f is NaN or infinite;
// callers (the external workbook reader) are expected to have already
// validated this, and a non-finite number reaching the grid is a caller bug
// per spec §3.
func NewNumber(f float64) CellValue {
	if isNonFinite(f) {
		panic("grid: non-finite number cannot be stored in a CellValue")
	}
	return CellValue{kind: Number, number: f}
}

// NewText builds a Text CellValue referencing an interned string.
func NewText(id stringpool.StringId) CellValue {
	return CellValue{kind: Text, text: id}
}

// NewBool builds a Bool CellValue.
func NewBool(b bool) CellValue {
	return CellValue{kind: Bool, boolean: b}
}

// NewError builds an Error CellValue referencing the interned error text
// (e.g. "#REF!").
func NewError(id stringpool.StringId) CellValue {
	return CellValue{kind: Error, text: id}
}

// Kind reports which variant v holds.
func (v CellValue) Kind() ValueKind { return v.kind }

// Number returns the numeric payload. Only meaningful when Kind() == Number.
func (v CellValue) Number() float64 { return v.number }

// TextID returns the interned string id. Only meaningful when Kind() is Text
// or Error.
func (v CellValue) TextID() stringpool.StringId { return v.text }

// Bool returns the boolean payload. Only meaningful when Kind() == Bool.
func (v CellValue) Bool() bool { return v.boolean }

// Equal reports whether v and other hold the same variant and payload.
func (v CellValue) Equal(other CellValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Blank:
		return true
	case Number:
		return v.number == other.number
	case Text, Error:
		return v.text == other.text
	case Bool:
		return v.boolean == other.boolean
	default:
		return false
	}
}

func isNonFinite(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
