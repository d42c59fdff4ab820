package js_parser

import (
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/js_printer"
	"github.com/miroslavpokorny/Njsast/internal/logger"
	"github.com/miroslavpokorny/Njsast/internal/test"
)

func expectPrinted(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		tree, ok := Parse(log, test.SourceForTest(contents), Options{})
		msgs := log.Done()
		for _, msg := range msgs {
			if msg.Kind == logger.Error {
				t.Fatalf("parse error: %s", msg.Text)
			}
		}
		if !ok {
			t.Fatal("parse failed")
		}
		js := js_printer.Print(&tree, js_printer.Options{})
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func expectParseError(t *testing.T, contents string, expectedText string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		_, ok := Parse(log, test.SourceForTest(contents), Options{})
		if ok {
			t.Fatal("expected a parse error")
		}
		msgs := log.Done()
		if len(msgs) == 0 {
			t.Fatal("expected an error message")
		}
		found := false
		for _, msg := range msgs {
			if msg.Text == expectedText {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %q, got %q", expectedText, msgs[0].Text)
		}
	})
}

func TestStatements(t *testing.T) {
	expectPrinted(t, "x = 1", "x=1;")
	expectPrinted(t, "x = 1; y = 2", "x=1;y=2;")
	expectPrinted(t, ";", ";")
	expectPrinted(t, "debugger", "debugger;")
	expectPrinted(t, "{ x(); y() }", "{x();y();}")
	expectPrinted(t, "if (a) b()", "if(a)b();")
	expectPrinted(t, "if (a) b(); else c()", "if(a)b();else c();")
	expectPrinted(t, "if (a) { b() } else { c() }", "if(a){b();}else{c();}")
	expectPrinted(t, "while (a) b()", "while(a)b();")
	expectPrinted(t, "do b(); while (a)", "do b();while(a);")
	expectPrinted(t, "do { b() } while (a)", "do{b();}while(a);")
	expectPrinted(t, "throw a", "throw a;")
	expectPrinted(t, "try { a() } catch (e) { b() }", "try{a();}catch(e){b();}")
	expectPrinted(t, "try { a() } finally { b() }", "try{a();}finally{b();}")
	expectPrinted(t, "try { a() } catch { b() }", "try{a();}catch{b();}")
	expectPrinted(t, "switch (a) { case 1: b(); break; default: c() }",
		"switch(a){case 1:b();break;default:c();}")
}

func TestDeclarations(t *testing.T) {
	expectPrinted(t, "var a", "var a;")
	expectPrinted(t, "var a = 1", "var a=1;")
	expectPrinted(t, "var a = 1, b = 2", "var a=1,b=2;")
	expectPrinted(t, "let a", "let a;")
	expectPrinted(t, "const a = 1", "const a=1;")
	expectPrinted(t, "var [a, b] = c", "var [a,b]=c;")
	expectPrinted(t, "var [a, ...b] = c", "var [a,...b]=c;")
	expectPrinted(t, "var {a} = c", "var {a}=c;")
	expectPrinted(t, "var {a: b} = c", "var {a:b}=c;")
	expectPrinted(t, "var {a = 1} = c", "var {a=1}=c;")

	expectParseError(t, "const a", "The constant \"a\" must be initialized")
	expectParseError(t, "if (a) const b = 1", "Cannot use a declaration in a single-statement context")
}

func TestFor(t *testing.T) {
	expectPrinted(t, "for (;;) ;", "for(;;);")
	expectPrinted(t, "for (var i = 0; i < 3; i++) f()", "for(var i=0;i<3;i++)f();")
	expectPrinted(t, "for (a in b) f()", "for(a in b)f();")
	expectPrinted(t, "for (var a in b) f()", "for(var a in b)f();")
	expectPrinted(t, "for (a of b) f()", "for(a of b)f();")
	expectPrinted(t, "for (var a of b) f()", "for(var a of b)f();")
	expectPrinted(t, "for (let a of b) f()", "for(let a of b)f();")

	expectParseError(t, "for (var a = 1 in b) f()",
		"The declaration in a for-in loop cannot have an initializer")
	expectParseError(t, "for (var a, b in c) f()",
		"The left side of a for-in loop must have a single declaration")
	expectParseError(t, "for (var a = 1 of b) f()",
		"The declaration in a for-of loop cannot have an initializer")
}

func TestLabels(t *testing.T) {
	expectPrinted(t, "x: while (a) break x", "x:while(a)break x;")
	expectPrinted(t, "x: while (a) continue x", "x:while(a)continue x;")
	expectPrinted(t, "while (a) break", "while(a)break;")
	expectPrinted(t, "while (a) continue", "while(a)continue;")

	expectParseError(t, "x: { x: f() }", "Duplicate label \"x\"")
	expectParseError(t, "break", "Cannot use \"break\" here")
	expectParseError(t, "continue", "Cannot use \"continue\" here")
	expectParseError(t, "x: while (a) break y", "There is no containing label named \"y\"")
	expectParseError(t, "x: { f(); while (a) continue x }",
		"There is no containing loop label named \"x\"")
	expectParseError(t, "switch (a) { case 1: continue }", "Cannot use \"continue\" here")
}

func TestExpressions(t *testing.T) {
	expectPrinted(t, "1 + 2 * 3", "1+2*3;")
	expectPrinted(t, "(1 + 2) * 3", "(1+2)*3;")
	expectPrinted(t, "a = b = c", "a=b=c;")
	expectPrinted(t, "a ? b : c", "a?b:c;")
	expectPrinted(t, "a ? b : c ? d : e", "a?b:c?d:e;")
	expectPrinted(t, "(a ? b : c) ? d : e", "(a?b:c)?d:e;")
	expectPrinted(t, "a, b, c", "a,b,c;")
	expectPrinted(t, "a.b.c", "a.b.c;")
	expectPrinted(t, "a[b][c]", "a[b][c];")
	expectPrinted(t, "a()()", "a()();")
	expectPrinted(t, "new A", "new A();")
	expectPrinted(t, "new A(b)", "new A(b);")
	expectPrinted(t, "new a.B()", "new a.B();")
	expectPrinted(t, "typeof a", "typeof a;")
	expectPrinted(t, "void 0", "void 0;")
	expectPrinted(t, "!a", "!a;")
	expectPrinted(t, "-a", "-a;")
	expectPrinted(t, "- -a", "- -a;")
	expectPrinted(t, "a++", "a++;")
	expectPrinted(t, "++a", "++a;")
	expectPrinted(t, "a ** b ** c", "a**b**c;")
	expectPrinted(t, "(a ** b) ** c", "(a**b)**c;")
	expectPrinted(t, "a - b - c", "a-b-c;")
	expectPrinted(t, "a - (b - c)", "a-(b-c);")
	expectPrinted(t, "a in b", "a in b;")
	expectPrinted(t, "a instanceof b", "a instanceof b;")
	expectPrinted(t, "[1, 2, 3]", "[1,2,3];")
	expectPrinted(t, "[,]", "[,];")
	expectPrinted(t, "f(...a)", "f(...a);")
	expectPrinted(t, "[...a]", "[...a];")

	expectParseError(t, "1 = 2", "Invalid assignment target")
	expectParseError(t, "a + b = 2", "Invalid assignment target")
	expectParseError(t, "a ++ b", "Expected \";\" but found \"b\"")
}

func TestObjectLiterals(t *testing.T) {
	expectPrinted(t, "x = {}", "x={};")
	expectPrinted(t, "x = {a: 1}", "x={a:1};")
	expectPrinted(t, "x = {a: 1, b: 2}", "x={a:1,b:2};")
	expectPrinted(t, "x = {a}", "x={a};")
	expectPrinted(t, "x = {'a b': 1}", "x={\"a b\":1};")
	expectPrinted(t, "x = {1: 2}", "x={1:2};")
	expectPrinted(t, "x = {[a]: 1}", "x={[a]:1};")
	expectPrinted(t, "x = {m() {}}", "x={m(){}};")
	expectPrinted(t, "x = {get a() {}}", "x={get a(){}};")
	expectPrinted(t, "x = {set a(v) {}}", "x={set a(v){}};")
	expectPrinted(t, "x = {...a}", "x={...a};")
	expectPrinted(t, "({a} = b)", "({a}=b);")
	expectPrinted(t, "({a = 1} = b)", "({a=1}=b);")

	expectParseError(t, "x = {a = 1}", "Unexpected \"=\"")
	expectParseError(t, "f({a = 1})", "Unexpected \"=\"")
}

func TestArrows(t *testing.T) {
	expectPrinted(t, "x = a => a", "x=a=>a;")
	expectPrinted(t, "x = (a) => a", "x=a=>a;")
	expectPrinted(t, "x = (a, b) => a", "x=(a,b)=>a;")
	expectPrinted(t, "x = () => a", "x=()=>a;")
	expectPrinted(t, "x = () => {}", "x=()=>{};")
	expectPrinted(t, "x = (a = 1) => a", "x=(a=1)=>a;")
	expectPrinted(t, "x = ({a}) => a", "x=({a})=>a;")
	expectPrinted(t, "x = ({a = 1}) => a", "x=({a=1})=>a;")
	expectPrinted(t, "x = ([a, b]) => a", "x=([a,b])=>a;")
	expectPrinted(t, "x = (...a) => a", "x=(...a)=>a;")
	expectPrinted(t, "x = a => b => c", "x=a=>b=>c;")
	expectPrinted(t, "x = a => ({})", "x=a=>({});")
	expectPrinted(t, "x = async a => a", "x=async a=>a;")
	expectPrinted(t, "x = async (a) => a", "x=async a=>a;")

	// A parenthesized expression list that never becomes a parameter list
	expectParseError(t, "x = (a, b,)", "Unexpected \",\"")
	expectParseError(t, "x = (...a)", "Unexpected \"...\"")
	expectParseError(t, "x = ()", "Unexpected \")\"")
}

func TestFunctions(t *testing.T) {
	expectPrinted(t, "function f() {}", "function f(){}")
	expectPrinted(t, "function f(a, b) {}", "function f(a,b){}")
	expectPrinted(t, "function f(a = 1) {}", "function f(a=1){}")
	expectPrinted(t, "function f(...a) {}", "function f(...a){}")
	expectPrinted(t, "function* f() { yield 1 }", "function* f(){yield 1;}")
	expectPrinted(t, "function* f() { yield* a }", "function* f(){yield* a;}")
	expectPrinted(t, "function* f() { yield }", "function* f(){yield;}")
	expectPrinted(t, "async function f() { await a }", "async function f(){await a;}")
	expectPrinted(t, "x = function() {}", "x=function(){};")
	expectPrinted(t, "x = function f() {}", "x=function f(){};")
	expectPrinted(t, "(function() {})()", "(function(){})();")

	expectParseError(t, "return", "A return statement can only be used inside a function")
	expectPrinted(t, "function f() { return }", "function f(){return;}")

	expectParseError(t, "async function f() { var await }",
		"Cannot use \"await\" as an identifier inside an async function")
	expectParseError(t, "function* f() { var yield }",
		"Cannot use \"yield\" as an identifier inside a generator")
}

func TestClasses(t *testing.T) {
	expectPrinted(t, "class A {}", "class A{}")
	expectPrinted(t, "class A extends B {}", "class A extends B{}")
	expectPrinted(t, "class A { m() {} }", "class A{m(){}}")
	expectPrinted(t, "class A { static m() {} }", "class A{static m(){}}")
	expectPrinted(t, "class A { get a() {} set a(v) {} }", "class A{get a(){}set a(v){}}")
	expectPrinted(t, "class A { constructor() { super() } }", "class A{constructor(){super();}}")
	expectPrinted(t, "x = class {}", "x=class{};")
	expectPrinted(t, "x = class A {}", "x=class A{};")
}

func TestStrictMode(t *testing.T) {
	expectPrinted(t, "'use strict'", "\"use strict\";")
	expectPrinted(t, "'other'; 'use strict'; f()", "\"other\";\"use strict\";f();")

	// A directive after a real statement is just an expression
	expectPrinted(t, "f(); 'use strict'; with (a) {}", "f();\"use strict\";with(a){}")
	expectParseError(t, "'use strict'; with (a) {}",
		"With statements cannot be used in strict mode")
	expectParseError(t, "'use strict'; var let", "\"let\" is a reserved word in strict mode")
	expectParseError(t, "'use strict'; eval = 1", "Cannot assign to \"eval\" in strict mode")
	expectParseError(t, "'use strict'; arguments = 1", "Cannot assign to \"arguments\" in strict mode")
	expectParseError(t, "'use strict'; function f(eval) {}", "Cannot bind \"eval\" in strict mode")
	expectParseError(t, "function f(a = 1) { 'use strict' }",
		"Cannot use a \"use strict\" directive in a function with a non-simple parameter list")
}

func TestASI(t *testing.T) {
	expectPrinted(t, "a\nb", "a;b;")
	expectPrinted(t, "a\n(b)", "a(b);")
	expectPrinted(t, "function f() { return\nx }", "function f(){return;x;}")
	expectPrinted(t, "a\n++b", "a;++b;")
	expectPrinted(t, "x: while (a) { break x\n}", "x:while(a){break x;}")
}

func TestTemplates(t *testing.T) {
	expectPrinted(t, "x = ``", "x=``;")
	expectPrinted(t, "x = `abc`", "x=`abc`;")
	expectPrinted(t, "x = `a${b}c`", "x=`a${b}c`;")
	expectPrinted(t, "x = `${a}${b}`", "x=`${a}${b}`;")
	expectPrinted(t, "x = `a\\n`", "x=`a\\n`;")
	expectPrinted(t, "x = tag`a`", "x=tag`a`;")
	expectPrinted(t, "x = tag`\\unicode`", "x=tag`\\unicode`;")

	expectParseError(t, "x = `\\unicode`", "Bad escape sequence in untagged template literal")
}

func TestRegExp(t *testing.T) {
	expectPrinted(t, "x = /abc/", "x=/abc/;")
	expectPrinted(t, "x = /abc/gi", "x=/abc/gi;")
	expectPrinted(t, "x = /a[/]c/", "x=/a[/]c/;")
	expectPrinted(t, "x = a / b", "x=a/b;")
	expectPrinted(t, "x = a / b / c", "x=a/b/c;")
}

func TestImportExport(t *testing.T) {
	expectPrinted(t, "import 'a'", "import \"a\";")
	expectPrinted(t, "import a from 'b'", "import a from\"b\";")
	expectPrinted(t, "import * as a from 'b'", "import * as a from\"b\";")
	expectPrinted(t, "import {a} from 'b'", "import {a} from\"b\";")
	expectPrinted(t, "import {a as c} from 'b'", "import {a as c} from\"b\";")
	expectPrinted(t, "import a, {b} from 'c'", "import a,{b} from\"c\";")
	expectPrinted(t, "export {a}", "export {a};")
	expectPrinted(t, "export {a as b}", "export {a as b};")
	expectPrinted(t, "export {a} from 'b'", "export {a} from\"b\";")
	expectPrinted(t, "export * from 'b'", "export * from\"b\";")
	expectPrinted(t, "export var a = 1", "export var a=1;")
	expectPrinted(t, "export function f() {}", "export function f(){}")
	expectPrinted(t, "export default 1", "export default 1;")
	expectPrinted(t, "export default function() {}", "export default function(){}")
	expectPrinted(t, "x = import('a')", "x=import(\"a\");")

	expectParseError(t, "if (x) import 'a'", "Unexpected \"import\"")
	expectParseError(t, "if (x) export {}", "Unexpected \"export\"")
}

func TestSwitchErrors(t *testing.T) {
	expectParseError(t, "switch (a) { default: b(); default: c() }",
		"Multiple default clauses are not allowed")
}

func TestNewTarget(t *testing.T) {
	expectPrinted(t, "function f() { return new.target }", "function f(){return new.target;}")
	expectParseError(t, "new.target", "Cannot use \"new.target\" outside a function")
}

func TestAsync(t *testing.T) {
	expectPrinted(t, "async function f() {}", "async function f(){}")
	expectPrinted(t, "x = async function() {}", "x=async function(){};")
	expectPrinted(t, "async()", "async();")
	expectPrinted(t, "async(a, b)", "async(a,b);")
	expectPrinted(t, "x = async", "x=async;")
}
