// Package js_types implements the abstract value conversions of ECMA-262 §9
// (ToBoolean, ToNumber, ToString) for the constant values the compressor can
// see at build time.
package js_types

import (
	"math"
	"strconv"
	"strings"

	"github.com/miroslavpokorny/Njsast/internal/js_ast"
)

// ToBoolean returns the boolean coercion of a constant expression. ok is
// false when the expression isn't a constant the converter understands.
func ToBoolean(data js_ast.E) (value bool, ok bool) {
	switch e := data.(type) {
	case *js_ast.ENull, *js_ast.EUndefined:
		return false, true

	case *js_ast.EIdentifier:
		// The global atoms are identifiers in the tree
		if e.Thedef == nil {
			switch e.Name {
			case "undefined", "NaN":
				return false, true
			case "Infinity":
				return true, true
			}
		}
		return false, false

	case *js_ast.EBoolean:
		return e.Value, true

	case *js_ast.ENumber:
		return e.Value != 0 && !math.IsNaN(e.Value), true

	case *js_ast.EString:
		return len(e.Value) > 0, true

	case *js_ast.EObject, *js_ast.EArray, *js_ast.EFunction, *js_ast.EArrow, *js_ast.ERegExp:
		return true, true
	}
	return false, false
}

// ToNumber returns the numeric coercion of a constant expression.
func ToNumber(data js_ast.E) (value float64, ok bool) {
	switch e := data.(type) {
	case *js_ast.ENull:
		return 0, true

	case *js_ast.EIdentifier:
		if e.Thedef == nil {
			switch e.Name {
			case "undefined", "NaN":
				return math.NaN(), true
			case "Infinity":
				return math.Inf(1), true
			}
		}
		return 0, false

	case *js_ast.EUndefined:
		return math.NaN(), true

	case *js_ast.EBoolean:
		if e.Value {
			return 1, true
		}
		return 0, true

	case *js_ast.ENumber:
		return e.Value, true

	case *js_ast.EString:
		return StringToNumber(e.Value), true
	}
	return 0, false
}

// ToString returns the string coercion of a constant expression.
func ToString(data js_ast.E) (value string, ok bool) {
	switch e := data.(type) {
	case *js_ast.ENull:
		return "null", true

	case *js_ast.EIdentifier:
		if e.Thedef == nil {
			switch e.Name {
			case "undefined", "NaN", "Infinity":
				return e.Name, true
			}
		}
		return "", false

	case *js_ast.EUndefined:
		return "undefined", true

	case *js_ast.EBoolean:
		if e.Value {
			return "true", true
		}
		return "false", true

	case *js_ast.ENumber:
		return NumberToString(e.Value), true

	case *js_ast.EString:
		return e.Value, true
	}
	return "", false
}

// StringToNumber implements ECMA-262 §9.3.1, the grammar for converting a
// string to a number: optional whitespace, then either a 0x/0o/0b integer or
// a signed decimal with optional exponent, with "Infinity" recognized. The
// empty string is 0 and anything unparseable is NaN. "-0" stays negative
// zero and overflow rounds to the infinities.
func StringToNumber(s string) float64 {
	s = strings.TrimFunc(s, isStrWhitespace)
	if s == "" {
		return 0
	}

	// Radix prefixes don't allow a sign
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return parseRadix(s[2:], 16)
		case 'o', 'O':
			return parseRadix(s[2:], 8)
		case 'b', 'B':
			return parseRadix(s[2:], 2)
		}
	}

	body := s
	sign := 1.0
	if body[0] == '+' || body[0] == '-' {
		if body[0] == '-' {
			sign = -1
		}
		body = body[1:]
	}

	if body == "Infinity" {
		return sign * math.Inf(1)
	}

	value, err := strconv.ParseFloat(body, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			// Overflow: ParseFloat already rounded to +/-Inf
			return sign * value
		}
		return math.NaN()
	}

	// ParseFloat accepts forms the ECMA grammar doesn't ("inf", "1p2",
	// underscores, hex floats)
	for _, c := range body {
		if (c < '0' || c > '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}

	return sign * value
}

func parseRadix(digits string, radix int) float64 {
	if digits == "" {
		return math.NaN()
	}
	value := 0.0
	for _, c := range digits {
		d := -1
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'f':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int(c-'A') + 10
		}
		if d < 0 || d >= radix {
			return math.NaN()
		}
		value = value*float64(radix) + float64(d)
	}
	return value
}

func isStrWhitespace(c rune) bool {
	switch c {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	// The general punctuation spaces U+2000..U+200A
	return c >= 0x2000 && c <= 0x200A
}

// NumberToString implements ECMA-262 §9.8.1 closely enough for printing
// constants: shortest round-trippable representation, "Infinity"/"NaN"
// spelled out, and negative zero printed as "0".
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 {
		text := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes "1e+21", JavaScript also writes "1e+21"
		return text
	}

	text := strconv.FormatFloat(f, 'f', -1, 64)
	if abs < 1e-6 {
		text = strconv.FormatFloat(f, 'e', -1, 64)
	}
	return text
}
