// Package fxlang implements the small function table that effect
// programs (abilities, items, move secondary effects) call into, grounded
// on original_source/battler/src/effect/fxlang/functions.rs. The battle
// engine's built-in effects (internal/battle/effects.go) are written as
// native Go closures directly against Engine; fxlang exists as the same
// surface for effect authors who want to write data-driven programs
// instead of Go code, consistent with the "run_function" boundary the
// original draws between program evaluation and the battle engine.
package fxlang

import "fmt"

// Kind discriminates a Value (spec's effect data model does not name a
// scripting value type; this is supplemental per original_source's
// effect::fxlang::Value).
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindString
	KindMonRef
	KindList
)

// Value is a tagged union of everything an fxlang program can hold or
// pass as a function argument.
type Value struct {
	Kind Kind
	Bool bool
	Int  int
	Str  string
	Mon  int // opaque mon handle, interpreted by the Host
	List []Value
}

func Nil() Value           { return Value{Kind: KindNil} }
func BoolValue(b bool) Value  { return Value{Kind: KindBool, Bool: b} }
func IntValue(n int) Value    { return Value{Kind: KindInt, Int: n} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func MonValue(h int) Value    { return Value{Kind: KindMonRef, Mon: h} }
func ListValue(vs []Value) Value { return Value{Kind: KindList, List: vs} }

func (v Value) AsBool() (bool, error) {
	if v.Kind != KindBool {
		return false, fmt.Errorf("fxlang: expected bool, got %v", v.Kind)
	}
	return v.Bool, nil
}

func (v Value) AsInt() (int, error) {
	if v.Kind != KindInt {
		return 0, fmt.Errorf("fxlang: expected int, got %v", v.Kind)
	}
	return v.Int, nil
}

func (v Value) AsString() (string, error) {
	if v.Kind != KindString {
		return "", fmt.Errorf("fxlang: expected string, got %v", v.Kind)
	}
	return v.Str, nil
}

func (v Value) AsMon() (int, error) {
	if v.Kind != KindMonRef {
		return 0, fmt.Errorf("fxlang: expected mon reference, got %v", v.Kind)
	}
	return v.Mon, nil
}
