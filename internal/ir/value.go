package ir

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IRValue is a sealed interface representing constant values in rules.
// Only IRString, IRInt and IRBool implement it.
// NO IRFloat - floats are forbidden in IR (they break determinism).
type IRValue interface {
	irValue() // Sealed - only these types implement it

	// Literal renders the value as Datalog source text.
	Literal() string
}

// IRString represents a string constant.
type IRString string

func (IRString) irValue() {}

// Literal renders the string double-quoted with Go escaping.
func (s IRString) Literal() string {
	return strconv.Quote(string(s))
}

// IRInt represents an integer constant.
// Always int64, never float64.
type IRInt int64

func (IRInt) irValue() {}

// Literal renders the integer in base 10.
func (n IRInt) Literal() string {
	return strconv.FormatInt(int64(n), 10)
}

// IRBool represents a boolean constant.
type IRBool bool

func (IRBool) irValue() {}

// Literal renders true or false.
func (b IRBool) Literal() string {
	return strconv.FormatBool(bool(b))
}

// NewIRString creates an IRString value.
// The string is NFC normalized so that visually identical constants render
// and hash identically.
func NewIRString(s string) IRString {
	return IRString(norm.NFC.String(s))
}

// NewIRInt creates an IRInt value.
func NewIRInt(n int64) IRInt {
	return IRInt(n)
}

// NewIRBool creates an IRBool value.
func NewIRBool(b bool) IRBool {
	return IRBool(b)
}

// ToIRValue converts a decoded Go value to an IRValue.
// Accepts the shapes produced by encoding/json (with UseNumber), yaml.v3
// and CUE decoding. Null and floats are rejected.
func ToIRValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in IR: only string, int, bool allowed")
	case IRValue:
		return val, nil
	case string:
		return NewIRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return IRInt(int64(val)), nil
	case fmt.Stringer:
		// json.Number and similar textual numbers
		s := val.String()
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are forbidden in IR: %s", s)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unsupported constant %q: %w", s, err)
		}
		return IRInt(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in IR: %v", val)
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", v)
	}
}
