package js_types

import (
	"math"
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/test"
)

func TestStringToNumber(t *testing.T) {
	cases := []struct {
		input    string
		expected float64
	}{
		{"", 0},
		{" 42 ", 42},
		{"\t\n42", 42},
		{"0x10", 16},
		{"0X10", 16},
		{"0o10", 8},
		{"0b10", 2},
		{"3.25", 3.25},
		{"+3", 3},
		{"-3", -3},
		{".5", 0.5},
		{"1e3", 1000},
		{"-1.5e-2", -0.015},
		{"1e999", math.Inf(1)},
		{"-1e999", math.Inf(-1)},
	}
	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			test.AssertEqual(t, StringToNumber(c.input), c.expected)
		})
	}

	t.Run("Infinity", func(t *testing.T) {
		test.AssertEqual(t, math.IsInf(StringToNumber("Infinity"), 1), true)
		test.AssertEqual(t, math.IsInf(StringToNumber("+Infinity"), 1), true)
		test.AssertEqual(t, math.IsInf(StringToNumber("-Infinity"), -1), true)
	})

	t.Run("-0", func(t *testing.T) {
		value := StringToNumber("-0")
		test.AssertEqual(t, value == 0, true)
		test.AssertEqual(t, math.Signbit(value), true)
	})

	for _, bad := range []string{"abc", "12abc", "0xZZ", "0x", "inf", "1_000", "1e", "- 1"} {
		t.Run(bad, func(t *testing.T) {
			test.AssertEqual(t, math.IsNaN(StringToNumber(bad)), true)
		})
	}
}

func TestToNumber(t *testing.T) {
	expectNum := func(data js_ast.E, expected float64) {
		t.Helper()
		value, ok := ToNumber(data)
		test.AssertEqual(t, ok, true)
		test.AssertEqual(t, value, expected)
	}

	expectNum(&js_ast.ENull{}, 0)
	expectNum(&js_ast.EBoolean{Value: true}, 1)
	expectNum(&js_ast.EBoolean{Value: false}, 0)
	expectNum(&js_ast.EString{Value: ""}, 0)
	expectNum(&js_ast.EString{Value: " 42 "}, 42)
	expectNum(&js_ast.EString{Value: "0x10"}, 16)
	expectNum(&js_ast.ENumber{Value: 3}, 3)

	value, ok := ToNumber(&js_ast.EUndefined{})
	test.AssertEqual(t, ok, true)
	test.AssertEqual(t, math.IsNaN(value), true)

	value, ok = ToNumber(&js_ast.EString{Value: "abc"})
	test.AssertEqual(t, ok, true)
	test.AssertEqual(t, math.IsNaN(value), true)

	_, ok = ToNumber(&js_ast.EIdentifier{Name: "x"})
	test.AssertEqual(t, ok, false)
}

func TestToBoolean(t *testing.T) {
	expectBool := func(data js_ast.E, expected bool) {
		t.Helper()
		value, ok := ToBoolean(data)
		test.AssertEqual(t, ok, true)
		test.AssertEqual(t, value, expected)
	}

	expectBool(&js_ast.ENull{}, false)
	expectBool(&js_ast.EUndefined{}, false)
	expectBool(&js_ast.EBoolean{Value: false}, false)
	expectBool(&js_ast.ENumber{Value: 0}, false)
	expectBool(&js_ast.ENumber{Value: math.NaN()}, false)
	expectBool(&js_ast.EString{Value: ""}, false)

	expectBool(&js_ast.EBoolean{Value: true}, true)
	expectBool(&js_ast.ENumber{Value: 1}, true)
	expectBool(&js_ast.EString{Value: "a"}, true)
	expectBool(&js_ast.EObject{}, true)
	expectBool(&js_ast.EArray{}, true)

	_, ok := ToBoolean(&js_ast.EIdentifier{Name: "x"})
	test.AssertEqual(t, ok, false)
}

func TestNumberToString(t *testing.T) {
	test.AssertEqual(t, NumberToString(0), "0")
	test.AssertEqual(t, NumberToString(math.Copysign(0, -1)), "0")
	test.AssertEqual(t, NumberToString(1), "1")
	test.AssertEqual(t, NumberToString(-1.5), "-1.5")
	test.AssertEqual(t, NumberToString(math.NaN()), "NaN")
	test.AssertEqual(t, NumberToString(math.Inf(1)), "Infinity")
	test.AssertEqual(t, NumberToString(math.Inf(-1)), "-Infinity")
}
