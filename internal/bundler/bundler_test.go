package bundler

import (
	"path"
	"strings"
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/config"
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/logger"
)

// testHost is an in-memory bundler host.
type testHost struct {
	files  map[string]string
	out    map[string]string
	plain  map[string][]string
	header string
}

func newTestHost(files map[string]string) *testHost {
	return &testHost{files: files, out: map[string]string{}}
}

func (h *testHost) ReadContent(name string) (string, bool) {
	content, ok := h.files[name]
	return content, ok
}

func (h *testHost) GetPlainJsDependencies(name string) []string {
	return h.plain[name]
}

func (h *testHost) ResolveRequire(spec string, from string) string {
	resolved := spec
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		resolved = path.Join(path.Dir(from), spec)
	}
	if path.Ext(resolved) == "" {
		resolved += ".js"
	}
	return resolved
}

func (h *testHost) GenerateBundleName(logicalName string) string {
	return logicalName + ".js"
}

func (h *testHost) JsHeaders(splitName string, needsImport bool) string {
	if needsImport {
		return "/*runtime*/\n"
	}
	return h.header
}

func (h *testHost) WriteBundle(name string, content string) {
	h.out[name] = content
}

func bundleForTest(t *testing.T, files map[string]string, options config.Options) *testHost {
	t.Helper()
	host := newTestHost(files)
	log := logger.NewDeferLog()
	if err := Bundle(log, host, options); err != nil {
		t.Fatal(err)
	}
	return host
}

func mainOnly(entry string) map[string][]string {
	return map[string][]string{config.MainSplitName: {entry}}
}

func TestSimpleRequire(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"a.js":     "exports.k = 1;",
		"index.js": "var a = require('./a'); console.log(a.k);",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "console.log(1)") {
		t.Fatalf("the export was not inlined:\n%s", out)
	}
	if strings.Contains(out, "require") {
		t.Fatalf("require must not survive:\n%s", out)
	}
	if strings.Contains(out, "var a") {
		t.Fatalf("the require binding must be removed:\n%s", out)
	}
}

func TestSymbolExport(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"a.js":     "function helper() { return 1 }\nexports.helper = helper;",
		"index.js": "var a = require('./a'); a.helper();",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "function helper()") {
		t.Fatalf("the exported function must survive:\n%s", out)
	}
	if !strings.Contains(out, "helper();") {
		t.Fatalf("the call site must reference the symbol directly:\n%s", out)
	}
	if strings.Contains(out, "require") {
		t.Fatalf("require must not survive:\n%s", out)
	}
}

func TestMissingExportBecomesUndefined(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"a.js":     "exports.k = 1;",
		"index.js": "var a = require('./a'); console.log(a.missing);",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "console.log(void 0)") {
		t.Fatalf("a missing export reads as undefined:\n%s", out)
	}
}

func TestMissingModule(t *testing.T) {
	host := newTestHost(map[string]string{
		"index.js": "var a = require('./gone');",
	})
	log := logger.NewDeferLog()
	err := Bundle(log, host, config.Options{PartToMainFilesMap: mainOnly("index.js")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "Cannot find gone.js" {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestWholeExportCycle(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"a.js":     "var b = require('./b'); exports.fromA = 1; console.log(b);",
		"b.js":     "var a = require('./a'); exports.fromB = 2; console.log(a);",
		"index.js": "var a = require('./a'); console.log(a.fromA);",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "__export_$_a") || !strings.Contains(out, "__export_$_b") {
		t.Fatalf("both namespace objects must be synthesized:\n%s", out)
	}
	if strings.Contains(out, "require(") {
		t.Fatalf("no require call may survive:\n%s", out)
	}
}

func TestCollisionRenaming(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"a.js":     "function helper() { return 1 }\nexports.a = helper;",
		"b.js":     "function helper() { return 2 }\nexports.b = helper;",
		"index.js": "var a = require('./a'); var b = require('./b'); a.a(); b.b();",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	// The previously-installed symbol is renamed, not the newly-arrived one
	if !strings.Contains(out, "function helper_a()") {
		t.Fatalf("the first helper must be renamed with its file suffix:\n%s", out)
	}
	if !strings.Contains(out, "function helper()") {
		t.Fatalf("the second helper keeps its name:\n%s", out)
	}
	if !strings.Contains(out, "helper_a();") || !strings.Contains(out, "helper();") {
		t.Fatalf("call sites must follow the renames:\n%s", out)
	}
}

func TestStarImport(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"a.js":     "exports.k = 1;",
		"index.js": "import * as ns from './a'; console.log(ns);",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "__export_$_a") {
		t.Fatalf("a star import synthesizes the namespace object:\n%s", out)
	}
	if !strings.Contains(out, "console.log(__export_$_a)") {
		t.Fatalf("the namespace reference must be direct:\n%s", out)
	}
}

func TestEsModuleImports(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"a.js":     "export var value = 41;\nexport function bump(x) { return x + 1 }",
		"index.js": "import {value, bump} from './a'; console.log(bump(value));",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "console.log(bump(value))") {
		t.Fatalf("imports must collapse to direct references:\n%s", out)
	}
	if strings.Contains(out, "import") {
		t.Fatalf("no import statement may survive:\n%s", out)
	}
}

func TestLazyImport(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"m.js":     "exports.x = 1;",
		"index.js": "var p = import('./m'); p.then(function(ns) { console.log(ns.x) });",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "__import(\"m\",\"m\")") {
		t.Fatalf("the lazy import must become the trampoline:\n%s", out)
	}

	chunk := host.out["m.js"]
	if !strings.Contains(chunk, "__export_$_m") {
		t.Fatalf("the lazy module needs its namespace object:\n%s", chunk)
	}
	if !strings.Contains(chunk, "__export(\"m\",__export_$_m);") {
		t.Fatalf("the lazy module must register its namespace:\n%s", chunk)
	}
}

func TestLazyImportForcedSplits(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"x.js":     "var y = require('./y'); exports.x = y.y;",
		"y.js":     "exports.y = 2;",
		"index.js": "var p = import('./x');",
	}, config.Options{PartToMainFilesMap: map[string][]string{
		config.MainSplitName: {"index.js"},
		"chunkY":             {"y.js"},
	}})

	out := host.out["bundle.js"]
	expected := "__import(\"chunkY\",\"y\").then(function(){return __import(\"x\",\"x\");})"
	if !strings.Contains(out, expected) {
		t.Fatalf("expected a forced-split chain %q:\n%s", expected, out)
	}
}

func TestMainSplitLazyUsesUndefined(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"m.js":     "exports.x = 1;",
		"other.js": "var m = require('./m'); exports.o = m.x;",
		"index.js": "var o = require('./other'); console.log(o.o); var p = import('./m');",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	// m is reachable from the main entry, so it lives in the main split and
	// the trampoline takes literal undefined
	if !strings.Contains(out, "__import(void 0,\"m\")") {
		t.Fatalf("an intra-main lazy import passes undefined:\n%s", out)
	}
}

func TestGlobalDefines(t *testing.T) {
	compress := config.DefaultCompressOptions()
	host := bundleForTest(t, map[string]string{
		"index.js": "if (DEBUG) { slow() } else { fast() }",
	}, config.Options{
		PartToMainFilesMap: mainOnly("index.js"),
		GlobalDefines:      map[string]js_ast.E{"DEBUG": &js_ast.EBoolean{Value: false}},
		CompressOptions:    &compress,
	})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "fast()") || strings.Contains(out, "slow") {
		t.Fatalf("the define must select the else branch:\n%s", out)
	}
}

func TestPlainJsDependencies(t *testing.T) {
	host := newTestHost(map[string]string{
		"index.js":  "console.log(1);",
		"prelude.j": "/*prelude*/",
	})
	host.plain = map[string][]string{"index.js": {"prelude.j"}}
	log := logger.NewDeferLog()
	if err := Bundle(log, host, config.Options{PartToMainFilesMap: mainOnly("index.js")}); err != nil {
		t.Fatal(err)
	}
	out := host.out["bundle.js"]
	if !strings.HasPrefix(out, "/*prelude*/") {
		t.Fatalf("plain dependencies are emitted verbatim first:\n%s", out)
	}
}

func TestExportFromReExport(t *testing.T) {
	host := bundleForTest(t, map[string]string{
		"inner.js": "export var deep = 7;",
		"outer.js": "export {deep as shallow} from './inner';",
		"index.js": "import {shallow} from './outer'; console.log(shallow);",
	}, config.Options{PartToMainFilesMap: mainOnly("index.js")})

	out := host.out["bundle.js"]
	if !strings.Contains(out, "console.log(deep)") {
		t.Fatalf("the re-export must collapse to the defining symbol:\n%s", out)
	}
}
