package compressor

import (
	"errors"
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/config"
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_parser"
	"github.com/miroslavpokorny/Njsast/internal/js_printer"
	"github.com/miroslavpokorny/Njsast/internal/logger"
	"github.com/miroslavpokorny/Njsast/internal/test"
)

func compressForTest(t *testing.T, contents string, options config.CompressOptions) (string, error) {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := js_parser.Parse(log, test.SourceForTest(contents), js_parser.Options{})
	if !ok {
		t.Fatal("parse failed")
	}
	js_ast.AnalyzeScopes(log, &tree)
	if err := Compress(&tree, options); err != nil {
		return "", err
	}
	return string(js_printer.Print(&tree, js_printer.Options{})), nil
}

func expectCompressed(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		observed, err := compressForTest(t, contents, config.DefaultCompressOptions())
		if err != nil {
			t.Fatal(err)
		}
		test.AssertEqualWithDiff(t, observed, expected)
	})
}

func TestUnreachableIf(t *testing.T) {
	expectCompressed(t, "if (false) { x() } else { y() }", "y();")
	expectCompressed(t, "if (true) { x() } else { y() }", "x();")
	expectCompressed(t, "if (false) { x() }", "")
	expectCompressed(t, "if (1) a()", "a();")
	expectCompressed(t, "if (0) a(); else if (0) b(); else c()", "c();")
	expectCompressed(t, "if ('') a(); else b()", "b();")
	expectCompressed(t, "if (null) a()", "")
	expectCompressed(t, "if (a) { if (false) b() }", "if(a);")
}

func TestUnreachableWhile(t *testing.T) {
	expectCompressed(t, "while (0) foo()", "")
	expectCompressed(t, "while (false) { foo() }", "")
	expectCompressed(t, "while (a) foo()", "while(a)foo();")
}

func TestUnreachableDoWhile(t *testing.T) {
	expectCompressed(t, "do { x() } while (0)", "x();")
	expectCompressed(t, "do x(); while (false)", "x();")
	expectCompressed(t, "do { if (a) break; x() } while (0)",
		"do{if(a)break;x();}while(0);")
	expectCompressed(t, "do { x() } while (a)", "do x();while(a);")
}

func TestUnreachableFor(t *testing.T) {
	expectCompressed(t, "for (var i = 0; false; i++) x()", "var i;i=0;")
	expectCompressed(t, "for (f(); 0; ) x()", "f();")
	expectCompressed(t, "for (; 0; ) x()", "")
	expectCompressed(t, "for (;;) x()", "for(;;)x();")
}

func TestNotImplemented(t *testing.T) {
	for _, contents := range []string{
		"for (a in b) x()",
		"for (a of b) x()",
		"with (a) x()",
	} {
		t.Run(contents, func(t *testing.T) {
			_, err := compressForTest(t, contents, config.DefaultCompressOptions())
			if !errors.Is(err, ErrNotImplemented) {
				t.Fatalf("expected a not-implemented error, got %v", err)
			}
		})
	}
}

func TestEmptyStatements(t *testing.T) {
	expectCompressed(t, ";;;", "")
	expectCompressed(t, "a();;b()", "a();b();")
	expectCompressed(t, "{}", "")
	expectCompressed(t, "{ a() }", "a();")
	expectCompressed(t, "{ a(); b() }", "a();b();")
	expectCompressed(t, "{ let a = 1 }", "{let a=1;}")
}

func TestBooleanCompress(t *testing.T) {
	expectCompressed(t, "x = !!(a === b)", "x=a===b;")
	expectCompressed(t, "x = !!(a && b)", "x=!!(a&&b);")
	expectCompressed(t, "x = !!!(a === b)", "x=!(a===b);")
}

func TestConstantFolding(t *testing.T) {
	expectCompressed(t, "x = 1 + 2", "x=3;")
	expectCompressed(t, "x = 1 + 2 * 3", "x=7;")
	expectCompressed(t, "x = 'a' + 'b'", "x=\"ab\";")
	expectCompressed(t, "x = 'a' + 1", "x=\"a1\";")
	expectCompressed(t, "x = '5' - 2", "x=3;")
	expectCompressed(t, "x = !0", "x=true;")
	expectCompressed(t, "x = !1", "x=false;")
	expectCompressed(t, "x = 1 < 2", "x=true;")
	expectCompressed(t, "x = 1 === 2", "x=false;")
	expectCompressed(t, "x = null == undefined", "x=true;")
	expectCompressed(t, "x = true ? a : b", "x=a;")
	expectCompressed(t, "x = false && a", "x=false;")
	expectCompressed(t, "x = true && a", "x=a;")
	expectCompressed(t, "x = false || a", "x=a;")
	expectCompressed(t, "x = -(3)", "x=-3;")
	expectCompressed(t, "x = void 0", "x=void 0;")
}

func TestReturnCompress(t *testing.T) {
	expectCompressed(t, "function f() { if (a) return 1; return 2 }",
		"function f(){return a?1:2;}")
	expectCompressed(t, "function f() { x(); return }",
		"function f(){x();}")
	expectCompressed(t, "function f() { return x() }",
		"function f(){return x();}")
}

func TestVariableHoisting(t *testing.T) {
	expectCompressed(t, "function f() { g(); var x = 1 }",
		"function f(){var x;g();x=1;}")
	expectCompressed(t, "function f() { var a = 1, b = 2 }",
		"function f(){var a,b;a=1,b=2;}")
	expectCompressed(t, "function f() { var a }",
		"function f(){var a;}")
}

func TestFixedPoint(t *testing.T) {
	// Compressing the compressor's own output must not change it again
	inputs := []string{
		"if (false) { x() } else { y() }",
		"x = 1 + 2 * 3",
		"function f() { if (a) return 1; return 2 }",
		"do { x() } while (0)",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once, err := compressForTest(t, input, config.DefaultCompressOptions())
			if err != nil {
				t.Fatal(err)
			}
			twice, err := compressForTest(t, once, config.DefaultCompressOptions())
			if err != nil {
				t.Fatal(err)
			}
			test.AssertEqual(t, twice, once)
		})
	}
}

func TestDisabledPasses(t *testing.T) {
	observed, err := compressForTest(t, "if (false) x()", config.CompressOptions{MaxPasses: 1})
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, observed, "if(false)x();")
}
