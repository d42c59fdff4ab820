package renamer

import (
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_parser"
	"github.com/miroslavpokorny/Njsast/internal/js_printer"
	"github.com/miroslavpokorny/Njsast/internal/logger"
	"github.com/miroslavpokorny/Njsast/internal/test"
)

func expectMangled(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		tree, ok := js_parser.Parse(log, test.SourceForTest(contents), js_parser.Options{})
		if !ok {
			t.Fatal("parse failed")
		}
		js_ast.AnalyzeScopes(log, &tree)
		Mangle(&tree, nil)
		js := js_printer.Print(&tree, js_printer.Options{})
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func TestNumberToMinifiedName(t *testing.T) {
	test.AssertEqual(t, NumberToMinifiedName(0), "a")
	test.AssertEqual(t, NumberToMinifiedName(1), "b")
	test.AssertEqual(t, NumberToMinifiedName(25), "z")
	test.AssertEqual(t, NumberToMinifiedName(54), "aa")
}

func TestMangle(t *testing.T) {
	// Globals keep their names; locals shrink
	expectMangled(t, "function f(longname) { return longname }",
		"function f(a){return a;}")
	expectMangled(t, "function f(first, second) { return first + second }",
		"function f(a,b){return a+b;}")
	expectMangled(t, "var keep = 1",
		"var keep=1;")

	// A free global referenced inside blocks the short name it uses
	expectMangled(t, "function f(x) { return a + x }",
		"function f(b){return a+b;}")

	// Inner scopes may reuse names their siblings use
	expectMangled(t, "function f(aaa) { return aaa } function g(bbb) { return bbb }",
		"function f(a){return a;}function g(a){return a;}")

	// A closure keeps its captured variable distinct
	expectMangled(t, "function f(outer) { return function(inner) { return outer + inner } }",
		"function f(a){return function(b){return a+b;};}")
}

func TestManglePinnedScope(t *testing.T) {
	// Direct eval pins every name in the scope chain
	expectMangled(t, "function f(keepme) { return eval('keepme') }",
		"function f(keepme){return eval(\"keepme\");}")
}
