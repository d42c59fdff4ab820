// Package bundler links a graph of modules into one or more bundle files.
// The host provides file content and require resolution through IBundlerCtx;
// the bundler parses each file, computes its exports, assigns files to
// splits, rewrites cross-module references into direct intra-bundle
// references, and prints the result.
package bundler

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/miroslavpokorny/Njsast/internal/compressor"
	"github.com/miroslavpokorny/Njsast/internal/config"
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_parser"
	"github.com/miroslavpokorny/Njsast/internal/logger"
)

var log = commonlog.GetLogger("njsast.bundler")

// IBundlerCtx is the host context consumed by the linker.
type IBundlerCtx interface {
	// ReadContent returns the source text, or ok=false when missing
	ReadContent(name string) (content string, ok bool)

	// GetPlainJsDependencies returns files emitted verbatim as headers
	GetPlainJsDependencies(name string) []string

	// ResolveRequire canonicalizes a require specifier relative to the
	// importing file
	ResolveRequire(spec string, from string) string

	// GenerateBundleName maps a logical bundle name to an output file name
	GenerateBundleName(logicalName string) string

	// JsHeaders returns the runtime prelude, including the __import
	// function when needsImport is set
	JsHeaders(splitName string, needsImport bool) string

	// WriteBundle is the output sink
	WriteBundle(name string, content string)
}

// IConstEvalCtx is the pluggable oracle for cross-module constant
// evaluation. A host can answer with a literal to inline at a use site
// before the export map is consulted; the default declines every query.
type IConstEvalCtx interface {
	EvaluateConstant(module string, name string) (js_ast.E, bool)
}

type noConstEval struct{}

func (noConstEval) EvaluateConstant(string, string) (js_ast.E, bool) {
	return nil, false
}

// SelfExport is one exported binding on the originating module: either a
// simple name/symbol pair or a re-export from another module.
type SelfExport struct {
	Name   string
	Thedef *js_ast.SymbolDef

	// Non-empty for re-exports: "export * from <StarFrom>" when Foreign is
	// empty, "export {Foreign as Name} from <StarFrom>" otherwise
	StarFrom string
	Foreign  string
}

// importBinding records what a local symbol created by an import statement
// or require declaration stands for.
type importBinding struct {
	// The resolved file the binding refers to
	source string

	// The foreign export name; empty means the whole namespace
	foreign string

	// True for "import * as ns": the namespace object always materializes
	star bool
}

// SourceFile is a module during linking. Its state advances monotonically:
// Unparsed, Parsed, Analyzed, ExportsComputed, WholeExportSynthesized,
// Rewritten, Emitted.
type SourceFile struct {
	Name string
	Ast  *js_ast.AST

	Requires     []string
	LazyRequires []string

	SelfExports []SelfExport

	// Export name to the node a use site should reference: an EIdentifier
	// carrying a SymbolDef, or an inlinable literal
	Exports map[string]js_ast.E

	// The synthesized namespace-object variable, when another module needs
	// the whole namespace
	WholeExport      *js_ast.SymbolDef
	NeedsWholeExport bool

	// Local symbols bound by import statements and require declarations
	importBindings map[*js_ast.SymbolDef]importBinding

	PlainJsDependencies []string

	// The owning bundle split's short name
	PartOfBundle string

	// The property under which this file's namespace is requested via
	// __import from another split
	PropName string
}

// Ident is a short identifier-safe form of the file name, mixed into
// synthesized symbol names.
func (f *SourceFile) Ident() string {
	name := f.Name
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9' && len(out) > 0) {
			out = append(out, c)
		} else if len(out) > 0 && out[len(out)-1] != '_' {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	return string(out)
}

// SplitInfo describes one bundle split.
type SplitInfo struct {
	ShortName   string
	IsMainSplit bool

	// The property name of the exported loader for this split's primary
	// entry
	PropName string

	// Every file whose namespace may be requested via import() from
	// another split, with its export symbol
	ExportsAllUsedFromLazyBundles map[string]*js_ast.SymbolDef

	// Splits that a consumer must load before this one, in load order
	ExpandedSplitsForcedLazy []*SplitInfo

	// Entry files for this split
	MainFiles []string

	// Set when a file in this split emits an __import call
	needsImport bool
}

type Bundler struct {
	ctx       IBundlerCtx
	diag      logger.Log
	options   config.Options
	constEval IConstEvalCtx

	cache         map[string]*SourceFile
	rootVariables map[string]*js_ast.SymbolDef
	splitMap      map[string]*SplitInfo

	// Files in discovery (dependency) order, leaves first
	order []*SourceFile
}

// Bundle runs the five linker phases and writes every split through the
// host context.
func Bundle(diag logger.Log, ctx IBundlerCtx, options config.Options) error {
	b := &Bundler{
		ctx:           ctx,
		diag:          diag,
		options:       options,
		constEval:     noConstEval{},
		cache:         map[string]*SourceFile{},
		rootVariables: map[string]*js_ast.SymbolDef{},
		splitMap:      map[string]*SplitInfo{},
	}
	if evaluator, ok := ctx.(IConstEvalCtx); ok {
		b.constEval = evaluator
	}

	if len(options.PartToMainFilesMap) == 0 {
		return fmt.Errorf("no entry files configured")
	}

	log.Debug("phase 1: discovery")
	if err := b.discover(); err != nil {
		return err
	}

	log.Debug("phase 2: split assignment")
	b.assignSplits()

	log.Debug("phase 3: export materialization")
	b.materializeWholeExports()

	log.Debug("phase 4: rewrite")
	if err := b.rewriteAll(); err != nil {
		return err
	}

	log.Debug("phase 5: emit")
	return b.emit()
}

// splitNames returns the configured split names with the main split first
// and the rest in stable order.
func (b *Bundler) splitNames() []string {
	names := make([]string, 0, len(b.options.PartToMainFilesMap))
	if _, ok := b.options.PartToMainFilesMap[config.MainSplitName]; ok {
		names = append(names, config.MainSplitName)
	}
	rest := make([]string, 0, len(b.options.PartToMainFilesMap))
	for name := range b.options.PartToMainFilesMap {
		if name != config.MainSplitName {
			rest = append(rest, name)
		}
	}
	for i := 1; i < len(rest); i++ {
		for j := i; j > 0 && rest[j] < rest[j-1]; j-- {
			rest[j], rest[j-1] = rest[j-1], rest[j]
		}
	}
	return append(names, rest...)
}

// discover parses every reachable file and collects requires, lazy
// requires, self exports, and the initial export map.
func (b *Bundler) discover() error {
	for _, split := range b.splitNames() {
		for _, entry := range b.options.PartToMainFilesMap[split] {
			resolved := b.ctx.ResolveRequire(entry, "")
			if err := b.discoverFile(resolved); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bundler) discoverFile(name string) error {
	if _, ok := b.cache[name]; ok {
		return nil
	}

	content, ok := b.ctx.ReadContent(name)
	if !ok {
		return fmt.Errorf("Cannot find %s", name)
	}

	file := &SourceFile{
		Name:           name,
		Exports:        map[string]js_ast.E{},
		importBindings: map[*js_ast.SymbolDef]importBinding{},
	}
	b.cache[name] = file
	file.PlainJsDependencies = b.ctx.GetPlainJsDependencies(name)

	source := logger.Source{
		Index:          uint32(len(b.order)),
		AbsolutePath:   name,
		PrettyPath:     name,
		Contents:       content,
		IdentifierName: file.Ident(),
	}

	tree, ok := js_parser.Parse(b.diag, source, js_parser.Options{})
	if !ok {
		return fmt.Errorf("failed to parse %s", name)
	}
	js_ast.AnalyzeScopes(b.diag, &tree)
	if b.diag.HasErrors() {
		return fmt.Errorf("failed to analyze %s", name)
	}
	file.Ast = &tree

	b.applyGlobalDefines(file)

	if b.options.CompressOptions != nil {
		if err := compressor.Compress(file.Ast, *b.options.CompressOptions); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	b.collectRequires(file)
	b.collectExports(file)

	// Depth-first: dependencies are discovered (and therefore ordered)
	// before their dependents
	for _, required := range file.Requires {
		if err := b.discoverFile(required); err != nil {
			return err
		}
	}
	for _, lazy := range file.LazyRequires {
		if err := b.discoverFile(lazy); err != nil {
			return err
		}
	}

	b.order = append(b.order, file)
	return nil
}

// applyGlobalDefines replaces free-identifier reads with configured
// constants before compression sees the tree.
func (b *Bundler) applyGlobalDefines(file *SourceFile) {
	if len(b.options.GlobalDefines) == 0 {
		return
	}
	transformer := &js_ast.Transformer{}
	transformer.BeforeExpr = func(expr js_ast.Expr, inList bool) (js_ast.Expr, js_ast.TransformAction) {
		if id, ok := expr.Data.(*js_ast.EIdentifier); ok && id.Thedef == nil {
			if value, ok := b.options.GlobalDefines[id.Name]; ok {
				return js_ast.Expr{Loc: expr.Loc, Data: value}, js_ast.TransformReplace
			}
		}
		return expr, js_ast.TransformKeep
	}
	file.Ast.Stmts = transformer.TransformStmts(file.Ast.Stmts)
}

// requireTarget matches a "require(<string>)" call and returns the resolved
// path.
func (b *Bundler) requireTarget(file *SourceFile, data js_ast.E) (string, bool) {
	call, ok := data.(*js_ast.ECall)
	if !ok || len(call.Args) != 1 {
		return "", false
	}
	id, ok := call.Target.Data.(*js_ast.EIdentifier)
	if !ok || id.Name != "require" || id.Thedef != nil {
		return "", false
	}
	str, ok := call.Args[0].Data.(*js_ast.EString)
	if !ok {
		return "", false
	}
	return b.ctx.ResolveRequire(str.Value, file.Name), true
}

func (b *Bundler) addRequire(file *SourceFile, resolved string) {
	for _, existing := range file.Requires {
		if existing == resolved {
			return
		}
	}
	file.Requires = append(file.Requires, resolved)
}

func (b *Bundler) addLazyRequire(file *SourceFile, resolved string) {
	for _, existing := range file.LazyRequires {
		if existing == resolved {
			return
		}
	}
	file.LazyRequires = append(file.LazyRequires, resolved)
}

// collectRequires walks the tree for require()/import()/import-statement
// edges and records import bindings.
func (b *Bundler) collectRequires(file *SourceFile) {
	// "var x = require('m')" bindings at the top level
	for _, stmt := range file.Ast.Stmts {
		local, ok := stmt.Data.(*js_ast.SLocal)
		if !ok {
			continue
		}
		for _, decl := range local.Decls {
			if decl.Value == nil {
				continue
			}
			target, isRequire := b.requireTarget(file, decl.Value.Data)
			if !isRequire {
				continue
			}
			if id, ok := decl.Binding.Data.(*js_ast.BIdentifier); ok && id.Thedef != nil {
				file.importBindings[id.Thedef] = importBinding{source: target}
			}
		}
	}

	walker := &js_ast.Walker{}
	walker.VisitStmt = func(stmt *js_ast.Stmt) bool {
		switch s := stmt.Data.(type) {
		case *js_ast.SImport:
			resolved := b.ctx.ResolveRequire(s.Source, file.Name)
			b.addRequire(file, resolved)
			if s.StarName != nil && s.StarName.Thedef != nil {
				file.importBindings[s.StarName.Thedef] = importBinding{source: resolved, star: true}
			}
			if s.DefaultName != nil && s.DefaultName.Thedef != nil {
				file.importBindings[s.DefaultName.Thedef] = importBinding{source: resolved, foreign: "default"}
			}
			for i := range s.Mappings {
				m := &s.Mappings[i]
				if m.Local.Thedef != nil {
					file.importBindings[m.Local.Thedef] = importBinding{source: resolved, foreign: m.Foreign}
				}
			}
			return false

		case *js_ast.SExport:
			if s.Source != "" {
				b.addRequire(file, b.ctx.ResolveRequire(s.Source, file.Name))
			}
		}
		return true
	}
	walker.VisitExpr = func(expr *js_ast.Expr) bool {
		switch e := (*expr).Data.(type) {
		case *js_ast.ECall:
			if target, ok := b.requireTarget(file, e); ok {
				b.addRequire(file, target)
				return false
			}

		case *js_ast.EImport:
			if str, ok := e.Expr.Data.(*js_ast.EString); ok {
				b.addLazyRequire(file, b.ctx.ResolveRequire(str.Value, file.Name))
				return false
			}
		}
		return true
	}
	walker.WalkStmts(file.Ast.Stmts)
}

// collectExports fills SelfExports and the initial Exports map from both
// CommonJS "exports.k = v" assignments and ES export statements.
func (b *Bundler) collectExports(file *SourceFile) {
	stmts := file.Ast.Stmts[:0]

	for _, stmt := range file.Ast.Stmts {
		switch s := stmt.Data.(type) {
		case *js_ast.SExpr:
			if name, value, ok := exportsAssignment(s.Value); ok {
				replacement := b.recordExport(file, name, value)
				if replacement != nil {
					stmts = append(stmts, *replacement)
				}
				continue
			}

		case *js_ast.SExport:
			b.recordExportStmt(file, s)
			if s.Decl != nil {
				// The underlying declaration stays in the module body
				stmts = append(stmts, *s.Decl)
			}
			if s.DefaultExpr != nil {
				stmts = append(stmts, b.synthesizeDefaultExport(file, s))
			}
			continue
		}
		stmts = append(stmts, stmt)
	}

	file.Ast.Stmts = stmts
}

// exportsAssignment matches "exports.<name> = <value>".
func exportsAssignment(expr js_ast.Expr) (string, js_ast.Expr, bool) {
	binary, ok := expr.Data.(*js_ast.EBinary)
	if !ok || binary.Op != js_ast.BinOpAssign {
		return "", js_ast.Expr{}, false
	}
	dot, ok := binary.Left.Data.(*js_ast.EDot)
	if !ok {
		return "", js_ast.Expr{}, false
	}
	id, ok := dot.Target.Data.(*js_ast.EIdentifier)
	if !ok || id.Name != "exports" || id.Thedef != nil {
		return "", js_ast.Expr{}, false
	}
	return dot.Name, binary.Right, true
}

// recordExport registers one CommonJS export. The defining statement is
// dropped when the returned replacement is nil; a synthesized variable
// declaration takes its place otherwise.
func (b *Bundler) recordExport(file *SourceFile, name string, value js_ast.Expr) *js_ast.Stmt {
	switch v := value.Data.(type) {
	case *js_ast.EIdentifier:
		if v.Thedef != nil {
			file.SelfExports = append(file.SelfExports, SelfExport{Name: name, Thedef: v.Thedef})
			file.Exports[name] = &js_ast.EIdentifier{Name: v.Name, Thedef: v.Thedef}
			return nil
		}

	case *js_ast.ENumber, *js_ast.EString, *js_ast.EBoolean, *js_ast.ENull, *js_ast.EUndefined:
		// Literal exports are inlined at use sites
		file.SelfExports = append(file.SelfExports, SelfExport{Name: name})
		file.Exports[name] = v
		return nil
	}

	// A complex initializer becomes a synthesized module-local variable:
	// "exports.k = v" turns into "var k_file = v"
	def := b.synthesizeLocal(file, name)
	file.SelfExports = append(file.SelfExports, SelfExport{Name: name, Thedef: def})
	file.Exports[name] = &js_ast.EIdentifier{Name: def.Name, Thedef: def}

	return &js_ast.Stmt{Loc: value.Loc, Data: &js_ast.SLocal{
		Kind: js_ast.LocalVar,
		Decls: []js_ast.Decl{{
			Binding: js_ast.Binding{Loc: value.Loc, Data: &js_ast.BIdentifier{
				Name: def.Name, Kind: js_ast.SymbolVar, Thedef: def,
			}},
			Value: &value,
		}},
	}}
}

func (b *Bundler) synthesizeLocal(file *SourceFile, name string) *js_ast.SymbolDef {
	base := name + "_" + file.Ident()
	unique := js_ast.MakeUniqueName(base, file.Ast.ModuleScope.Variables, "")
	return file.Ast.ModuleScope.DefineSymbol(js_ast.SymbolVar, unique)
}

func (b *Bundler) recordExportStmt(file *SourceFile, s *js_ast.SExport) {
	switch {
	case s.IsStar:
		resolved := b.ctx.ResolveRequire(s.Source, file.Name)
		file.SelfExports = append(file.SelfExports, SelfExport{StarFrom: resolved})

	case s.IsDefault:
		if s.Decl != nil {
			if def := declName(*s.Decl); def != nil {
				file.SelfExports = append(file.SelfExports, SelfExport{Name: "default", Thedef: def})
				file.Exports["default"] = &js_ast.EIdentifier{Name: def.Name, Thedef: def}
			}
		}
		// An expression default is synthesized separately

	case s.Decl != nil:
		for _, def := range declaredNames(*s.Decl) {
			file.SelfExports = append(file.SelfExports, SelfExport{Name: def.Name, Thedef: def})
			file.Exports[def.Name] = &js_ast.EIdentifier{Name: def.Name, Thedef: def}
		}

	case s.Source != "":
		// "export {a as b} from 'm'": resolved once that module's own
		// exports are known
		resolved := b.ctx.ResolveRequire(s.Source, file.Name)
		for i := range s.Mappings {
			m := &s.Mappings[i]
			file.SelfExports = append(file.SelfExports, SelfExport{Name: m.Foreign, StarFrom: resolved, Foreign: m.Local.Name})
		}

	default:
		for i := range s.Mappings {
			m := &s.Mappings[i]
			if def := file.Ast.ModuleScope.Variables[m.Local.Name]; def != nil {
				file.SelfExports = append(file.SelfExports, SelfExport{Name: m.Foreign, Thedef: def})
				file.Exports[m.Foreign] = &js_ast.EIdentifier{Name: def.Name, Thedef: def}
			}
		}
	}
}

func (b *Bundler) synthesizeDefaultExport(file *SourceFile, s *js_ast.SExport) js_ast.Stmt {
	def := b.synthesizeLocal(file, "default")
	file.SelfExports = append(file.SelfExports, SelfExport{Name: "default", Thedef: def})
	file.Exports["default"] = &js_ast.EIdentifier{Name: def.Name, Thedef: def}

	return js_ast.Stmt{Loc: s.DefaultExpr.Loc, Data: &js_ast.SLocal{
		Kind: js_ast.LocalVar,
		Decls: []js_ast.Decl{{
			Binding: js_ast.Binding{Loc: s.DefaultExpr.Loc, Data: &js_ast.BIdentifier{
				Name: def.Name, Kind: js_ast.SymbolVar, Thedef: def,
			}},
			Value: s.DefaultExpr,
		}},
	}}
}

func declName(stmt js_ast.Stmt) *js_ast.SymbolDef {
	switch s := stmt.Data.(type) {
	case *js_ast.SFunction:
		if s.Fn.Name != nil {
			return s.Fn.Name.Thedef
		}
	case *js_ast.SClass:
		if s.Class.Name != nil {
			return s.Class.Name.Thedef
		}
	}
	return nil
}

func declaredNames(stmt js_ast.Stmt) []*js_ast.SymbolDef {
	switch s := stmt.Data.(type) {
	case *js_ast.SFunction:
		if s.Fn.Name != nil && s.Fn.Name.Thedef != nil {
			return []*js_ast.SymbolDef{s.Fn.Name.Thedef}
		}
	case *js_ast.SClass:
		if s.Class.Name != nil && s.Class.Name.Thedef != nil {
			return []*js_ast.SymbolDef{s.Class.Name.Thedef}
		}
	case *js_ast.SLocal:
		defs := []*js_ast.SymbolDef{}
		for _, decl := range s.Decls {
			collectBindingDefs(decl.Binding, &defs)
		}
		return defs
	}
	return nil
}

func collectBindingDefs(binding js_ast.Binding, out *[]*js_ast.SymbolDef) {
	switch data := binding.Data.(type) {
	case *js_ast.BIdentifier:
		if data.Thedef != nil {
			*out = append(*out, data.Thedef)
		}
	case *js_ast.BArray:
		for _, item := range data.Items {
			collectBindingDefs(item.Binding, out)
		}
	case *js_ast.BObject:
		for _, property := range data.Properties {
			collectBindingDefs(property.Value, out)
		}
	}
}
