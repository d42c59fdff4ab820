package js_printer

import (
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/js_parser"
	"github.com/miroslavpokorny/Njsast/internal/logger"
	"github.com/miroslavpokorny/Njsast/internal/test"
)

func parseForTest(t *testing.T, contents string) string {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := js_parser.Parse(log, test.SourceForTest(contents), js_parser.Options{})
	if !ok {
		t.Fatalf("parse failed: %s", contents)
	}
	return string(Print(&tree, Options{}))
}

func expectBeautified(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		tree, ok := js_parser.Parse(log, test.SourceForTest(contents), js_parser.Options{})
		if !ok {
			t.Fatal("parse failed")
		}
		js := Print(&tree, Options{Beautify: true})
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func TestBeautify(t *testing.T) {
	expectBeautified(t, "if(a){b()}", "if (a) {\n  b();\n}\n")
	expectBeautified(t, "var a=1,b=2", "var a = 1, b = 2;\n")
	expectBeautified(t, "x=a?b:c", "x = a ? b : c;\n")
	expectBeautified(t, "function f(){return 1}", "function f() {\n  return 1;\n}\n")
	expectBeautified(t, "while(a){b()}", "while (a) {\n  b();\n}\n")
}

// Printing a parsed tree and reparsing the output must yield the same
// printed text again.
func TestRoundTripStability(t *testing.T) {
	inputs := []string{
		"x=1;",
		"var a=1,b=[2,3],{c}=d;",
		"function f(a,b=1,...rest){return a+b;}",
		"x=(a,b)=>a+b;",
		"x=a=>({y:a});",
		"class A extends B{constructor(){super();}m(){}}",
		"for(var i=0;i<3;i++)f(i);",
		"for(a in b)f();",
		"for(a of b)f();",
		"x=`a${b+1}c`;",
		"x=/ab+c/gi;",
		"try{a();}catch(e){b(e);}finally{c();}",
		"switch(a){case 1:b();break;default:c();}",
		"x={a:1,b,\"c d\":2,[e]:3,m(){},get g(){},set s(v){}};",
		"label:while(a)if(b)break label;else continue label;",
		"x=a&&b||c;",
		"({a=1}=b);",
		"x=typeof a==\"string\";",
		"new A().b(...c);",
		"async function f(){await g();}",
		"function* f(){yield 1;yield* g();}",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once := parseForTest(t, input)
			twice := parseForTest(t, once)
			test.AssertEqualWithDiff(t, twice, once)
		})
	}
}
