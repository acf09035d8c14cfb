package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	// Verify all types implement IRValue (compile-time check via assignment)
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name  string
		value IRValue
		want  string
	}{
		{"string", IRString("alice"), `"alice"`},
		{"string with quote", IRString(`a"b`), `"a\"b"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(5), "5"},
		{"negative int", IRInt(-12), "-12"},
		{"true", IRBool(true), "true"},
		{"false", IRBool(false), "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Literal())
		})
	}
}

func TestNewIRStringNormalizesNFC(t *testing.T) {
	// "e" + combining acute accent vs precomposed "é"
	decomposed := NewIRString("e\u0301")
	precomposed := NewIRString("\u00e9")

	assert.Equal(t, precomposed, decomposed, "NFC normalization should make both equal")
	assert.Equal(t, precomposed.Literal(), decomposed.Literal())
}

func TestToIRValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want IRValue
	}{
		{"string", "x", IRString("x")},
		{"bool", true, IRBool(true)},
		{"int", 3, IRInt(3)},
		{"int32", int32(4), IRInt(4)},
		{"int64", int64(5), IRInt(5)},
		{"uint64", uint64(6), IRInt(6)},
		{"json number", json.Number("42"), IRInt(42)},
		{"already IR", IRInt(7), IRInt(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToIRValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToIRValueRejects(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		wantErr string
	}{
		{"null", nil, "null is forbidden"},
		{"float64", 1.5, "floats are forbidden"},
		{"float32", float32(2.5), "floats are forbidden"},
		{"json float", json.Number("1.5"), "floats are forbidden"},
		{"json exponent", json.Number("1e3"), "floats are forbidden"},
		{"uint64 overflow", uint64(1 << 63), "out of int64 range"},
		{"slice", []string{"a"}, "unsupported constant type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToIRValue(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
