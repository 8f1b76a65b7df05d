// Package value implements the tagged scalar values the VM operates on:
// nil, bool, char, int64, a double with a printing precision, and a
// non-owning string slice (see spec.md §3).
package value

import (
	"fmt"
	"strconv"
)

// Kind discriminates which payload of a Value is active.
type Kind uint8

const (
	Nil Kind = iota
	Bool
	Char
	Int
	Double
	String
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Int:
		return "int"
	case Double:
		return "double"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// maxPrecision is the clamp on the number of fractional digits a Double
// carries for printing (spec §3).
const maxPrecision = 10

// Value is a discriminated union over Kind. Only the field matching Kind is
// meaningful. String values are a slice into either the source buffer or a
// program-lifetime literal; Value never copies that backing memory.
type Value struct {
	Kind Kind

	B bool
	C byte
	I int64
	D float64

	// Prec is the number of fractional digits observed in the source
	// literal for a Double, clamped to maxPrecision. Only meaningful when
	// Kind == Double.
	Prec int

	S string
}

func NilValue() Value { return Value{Kind: Nil} }

func BoolValue(b bool) Value { return Value{Kind: Bool, B: b} }

func CharValue(c byte) Value { return Value{Kind: Char, C: c} }

func IntValue(i int64) Value { return Value{Kind: Int, I: i} }

// DoubleValue builds a Double, clamping prec into [0, maxPrecision].
func DoubleValue(d float64, prec int) Value {
	if prec < 0 {
		prec = 0
	}
	if prec > maxPrecision {
		prec = maxPrecision
	}
	return Value{Kind: Double, D: d, Prec: prec}
}

func StringValue(s string) Value { return Value{Kind: String, S: s} }

// Truthy reports whether v counts as true for jif/jit/inot and `if`/`while`
// guards. Nil and zero/empty values are falsy, matching the VM's boolean
// coercion (spec §4.4 `inot`/`jif`/`jit`).
func (v Value) Truthy() bool {
	switch v.Kind {
	case Nil:
		return false
	case Bool:
		return v.B
	case Char:
		return v.C != 0
	case Int:
		return v.I != 0
	case Double:
		return v.D != 0
	case String:
		return v.S != ""
	default:
		return false
	}
}

// SameKind reports whether two Values carry the same tag, the precondition
// for every arithmetic, relational and equality opcode (spec §4.8).
func SameKind(a, b Value) bool { return a.Kind == b.Kind }

// Render formats v the way `print` does: strings verbatim (escapes were
// already expanded by the compiler when the literal was emitted), doubles
// with their fixed fractional-digit count, everything else in its natural
// textual form.
func (v Value) Render() string {
	switch v.Kind {
	case Nil:
		return "nil"
	case Bool:
		if v.B {
			return "true"
		}
		return "false"
	case Char:
		return string(rune(v.C))
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Double:
		return strconv.FormatFloat(v.D, 'f', v.Prec, 64)
	case String:
		return v.S
	default:
		return fmt.Sprintf("<unknown kind %d>", v.Kind)
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.Kind, v.Render())
}
