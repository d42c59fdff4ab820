package bundler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_printer"
	"github.com/miroslavpokorny/Njsast/internal/logger"
	"github.com/miroslavpokorny/Njsast/internal/renamer"
)

// assignSplits computes each file's owning bundle: main-split when reachable
// from a main entry, otherwise the split whose entry first reaches it. Lazy
// targets that belong to no configured split get an implicit one.
func (b *Bundler) assignSplits() {
	names := b.splitNames()
	for i, name := range names {
		b.splitMap[name] = &SplitInfo{
			ShortName:                     name,
			IsMainSplit:                   i == 0,
			MainFiles:                     b.resolvedEntries(name),
			ExportsAllUsedFromLazyBundles: map[string]*js_ast.SymbolDef{},
		}
	}

	for _, name := range names {
		b.floodAssign(name, b.splitMap[name].MainFiles)
	}

	// Implicit splits for lazy targets nothing else claimed
	for _, file := range b.order {
		for _, lazy := range file.LazyRequires {
			target := b.cache[lazy]
			if target.PartOfBundle != "" {
				continue
			}
			shortName := js_ast.MakeUniqueName(target.Ident(), asDefMap(b.splitMap), "_split")
			b.splitMap[shortName] = &SplitInfo{
				ShortName:                     shortName,
				MainFiles:                     []string{target.Name},
				ExportsAllUsedFromLazyBundles: map[string]*js_ast.SymbolDef{},
			}
			b.floodAssign(shortName, []string{target.Name})
		}
	}

	// Every lazy-import target may be requested via __import, so it needs a
	// namespace object and a property name
	usedProps := map[string]bool{}
	for _, file := range b.order {
		for _, lazy := range file.LazyRequires {
			target := b.cache[lazy]
			target.NeedsWholeExport = true
			if target.PropName == "" {
				prop := target.Ident()
				for usedProps[prop] {
					prop = prop + "_"
				}
				usedProps[prop] = true
				target.PropName = prop
			}
		}
	}

	// A split's own prop name is its primary entry's
	for _, split := range b.splitMap {
		if len(split.MainFiles) > 0 {
			entry := b.cache[split.MainFiles[0]]
			if entry.PropName == "" && !split.IsMainSplit {
				prop := entry.Ident()
				for usedProps[prop] {
					prop = prop + "_"
				}
				usedProps[prop] = true
				entry.PropName = prop
				entry.NeedsWholeExport = true
			}
			split.PropName = entry.PropName
		}
	}

	b.computeForcedLazy()
}

func asDefMap(splits map[string]*SplitInfo) map[string]*js_ast.SymbolDef {
	out := make(map[string]*js_ast.SymbolDef, len(splits))
	for name := range splits {
		out[name] = nil
	}
	return out
}

func (b *Bundler) resolvedEntries(split string) []string {
	entries := []string{}
	for _, entry := range b.options.PartToMainFilesMap[split] {
		entries = append(entries, b.ctx.ResolveRequire(entry, ""))
	}
	return entries
}

func (b *Bundler) floodAssign(split string, entries []string) {
	queue := append([]string{}, entries...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		file := b.cache[name]
		if file == nil || file.PartOfBundle != "" {
			continue
		}
		file.PartOfBundle = split
		queue = append(queue, file.Requires...)
	}
}

// computeForcedLazy fills ExpandedSplitsForcedLazy: the transitive closure
// of splits a consumer must load to obtain the target, derived from
// cross-split require edges.
func (b *Bundler) computeForcedLazy() {
	direct := map[string]map[string]bool{}
	for _, file := range b.order {
		for _, required := range file.Requires {
			dep := b.cache[required]
			if dep.PartOfBundle != file.PartOfBundle {
				if depSplit := b.splitMap[dep.PartOfBundle]; depSplit != nil && !depSplit.IsMainSplit {
					if direct[file.PartOfBundle] == nil {
						direct[file.PartOfBundle] = map[string]bool{}
					}
					direct[file.PartOfBundle][dep.PartOfBundle] = true
				}
			}
		}
	}

	for name, split := range b.splitMap {
		seen := map[string]bool{name: true}
		ordered := []string{}
		var visit func(from string)
		visit = func(from string) {
			deps := make([]string, 0, len(direct[from]))
			for dep := range direct[from] {
				deps = append(deps, dep)
			}
			sort.Strings(deps)
			for _, dep := range deps {
				if seen[dep] {
					continue
				}
				seen[dep] = true
				visit(dep)
				ordered = append(ordered, dep)
			}
		}
		visit(name)
		for _, dep := range ordered {
			split.ExpandedSplitsForcedLazy = append(split.ExpandedSplitsForcedLazy, b.splitMap[dep])
		}
	}
}

// materializeWholeExports resolves star re-exports, detects which files are
// consumed as a whole namespace, and synthesizes their namespace-object
// variables.
func (b *Bundler) materializeWholeExports() {
	b.resolveStarExports()

	// A star import materializes the namespace unconditionally
	for _, file := range b.order {
		for _, binding := range file.importBindings {
			if binding.star {
				b.cache[binding.source].NeedsWholeExport = true
			}
		}
	}

	for _, file := range b.order {
		b.detectWholeUses(file)
	}

	for _, file := range b.order {
		if file.NeedsWholeExport {
			b.synthesizeWholeExport(file)
		}
	}

	for _, file := range b.order {
		if file.PropName != "" && file.WholeExport != nil {
			if split := b.splitMap[file.PartOfBundle]; split != nil {
				split.ExportsAllUsedFromLazyBundles[file.Name] = file.WholeExport
			}
		}
	}
}

// resolveStarExports copies re-exported bindings into each file's Exports
// map, iterating because chains of "export * from" may be arbitrarily deep.
func (b *Bundler) resolveStarExports() {
	for changed := true; changed; {
		changed = false
		for _, file := range b.order {
			for _, selfExport := range file.SelfExports {
				if selfExport.StarFrom == "" {
					continue
				}
				source := b.cache[selfExport.StarFrom]
				if source == nil {
					continue
				}

				if selfExport.Foreign != "" {
					if node, ok := source.Exports[selfExport.Foreign]; ok {
						if _, exists := file.Exports[selfExport.Name]; !exists {
							file.Exports[selfExport.Name] = node
							changed = true
						}
					}
					continue
				}

				for name, node := range source.Exports {
					if name == "default" {
						continue
					}
					if _, exists := file.Exports[name]; !exists {
						file.Exports[name] = node
						changed = true
					}
				}
			}
		}
	}
}

// detectWholeUses marks dependencies whose namespace is consumed as a value
// rather than through property accesses with known names.
func (b *Bundler) detectWholeUses(file *SourceFile) {
	walker := &js_ast.Walker{}
	walker.VisitExpr = func(expr *js_ast.Expr) bool {
		switch e := (*expr).Data.(type) {
		case *js_ast.EDot:
			// A property access off an import binding or a require call
			// resolves to a single export, whatever its name
			if id, ok := e.Target.Data.(*js_ast.EIdentifier); ok && id.Thedef != nil {
				if _, isImport := file.importBindings[id.Thedef]; isImport {
					return false
				}
			}
			if _, ok := b.requireTarget(file, e.Target.Data); ok {
				return false
			}

		case *js_ast.EIdentifier:
			if e.Thedef != nil {
				if binding, isImport := file.importBindings[e.Thedef]; isImport && binding.foreign == "" {
					b.cache[binding.source].NeedsWholeExport = true
				}
			}

		case *js_ast.ECall:
			// A bare require('m') used as a value
			if target, ok := b.requireTarget(file, e); ok {
				b.cache[target].NeedsWholeExport = true
				return false
			}
		}
		return true
	}
	walker.VisitStmt = func(stmt *js_ast.Stmt) bool {
		// A bare require statement is just a load edge, not a whole use
		if s, ok := stmt.Data.(*js_ast.SExpr); ok {
			if _, isRequire := b.requireTarget(file, s.Value.Data); isRequire {
				return false
			}
		}
		// Declarations "var x = require('m')" were already captured as
		// import bindings
		if s, ok := stmt.Data.(*js_ast.SLocal); ok {
			allBindings := true
			for _, decl := range s.Decls {
				if decl.Value == nil {
					allBindings = false
					break
				}
				if _, isRequire := b.requireTarget(file, decl.Value.Data); !isRequire {
					allBindings = false
					break
				}
			}
			if allBindings && len(s.Decls) > 0 {
				return false
			}
		}
		return true
	}
	walker.WalkStmts(file.Ast.Stmts)
}

// synthesizeWholeExport appends "var __export_$_<ident> = {...}" over the
// file's exports and retains the symbol in the module's variables.
func (b *Bundler) synthesizeWholeExport(file *SourceFile) {
	if file.WholeExport != nil {
		return
	}

	name := js_ast.MakeUniqueName("__export_$_"+file.Ident(), file.Ast.ModuleScope.Variables, "")
	def := file.Ast.ModuleScope.DefineSymbol(js_ast.SymbolVar, name)
	file.WholeExport = def

	names := make([]string, 0, len(file.Exports))
	for exportName := range file.Exports {
		names = append(names, exportName)
	}
	sort.Strings(names)

	properties := make([]js_ast.Property, 0, len(names))
	for _, exportName := range names {
		value := js_ast.Expr{Data: cloneExportNode(file.Exports[exportName])}
		properties = append(properties, js_ast.Property{
			Key:   js_ast.Expr{Data: &js_ast.EString{Value: exportName}},
			Value: &value,
		})
	}

	object := js_ast.Expr{Data: &js_ast.EObject{Properties: properties}}
	file.Ast.Stmts = append(file.Ast.Stmts, js_ast.Stmt{Data: &js_ast.SLocal{
		Kind: js_ast.LocalVar,
		Decls: []js_ast.Decl{{
			Binding: js_ast.Binding{Data: &js_ast.BIdentifier{Name: name, Kind: js_ast.SymbolVar, Thedef: def}},
			Value:   &object,
		}},
	}})
}

// cloneExportNode duplicates an export-map node for insertion at a use
// site. Symbol references stay aliased through the shared SymbolDef.
func cloneExportNode(data js_ast.E) js_ast.E {
	switch e := data.(type) {
	case *js_ast.EIdentifier:
		return &js_ast.EIdentifier{Name: e.Name, Thedef: e.Thedef}
	case *js_ast.ENumber:
		return &js_ast.ENumber{Value: e.Value, Raw: e.Raw}
	case *js_ast.EString:
		return &js_ast.EString{Value: e.Value}
	case *js_ast.EBoolean:
		return &js_ast.EBoolean{Value: e.Value}
	case *js_ast.ENull:
		return &js_ast.ENull{}
	default:
		return &js_ast.EUndefined{}
	}
}

// BundlerTreeTransformer rewrites one file's tree against the shared bundle
// scope: require bindings collapse to direct references, import() becomes
// the __import trampoline, and import/export statements disappear.
type BundlerTreeTransformer struct {
	b    *Bundler
	file *SourceFile

	// The final bundle scope shared by every file
	rootVariables map[string]*js_ast.SymbolDef

	cache    map[string]*SourceFile
	splitMap map[string]*SplitInfo
}

func (b *Bundler) rewriteAll() error {
	defFiles := map[*js_ast.Scope]*SourceFile{}
	for _, file := range b.order {
		defFiles[file.Ast.ModuleScope] = file
	}

	for _, file := range b.order {
		tt := &BundlerTreeTransformer{
			b:             b,
			file:          file,
			rootVariables: b.rootVariables,
			cache:         b.cache,
			splitMap:      b.splitMap,
		}
		tt.rewrite()

		// Install this file's top-level symbols into the shared scope,
		// renaming the previously-installed symbol on collision
		names := make([]string, 0, len(file.Ast.ModuleScope.Variables))
		for name := range file.Ast.ModuleScope.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			def := file.Ast.ModuleScope.Variables[name]
			if _, isImportBinding := file.importBindings[def]; isImportBinding {
				// The binding was dissolved by the rewrite
				continue
			}
			b.installRootSymbol(def, defFiles)
		}
	}
	return nil
}

// installRootSymbol maintains the invariant that rootVariables maps every
// in-use name to exactly one SymbolDef.
func (b *Bundler) installRootSymbol(def *js_ast.SymbolDef, defFiles map[*js_ast.Scope]*SourceFile) {
	name := def.EffectiveName()
	existing, collides := b.rootVariables[name]
	if collides && existing != def {
		suffix := "_"
		if owner := defFiles[existing.Scope]; owner != nil {
			suffix = "_" + owner.Ident()
		}
		fresh := js_ast.MakeUniqueName(name, b.rootVariables, suffix)
		existing.MangledName = fresh
		b.rootVariables[fresh] = existing
	}
	b.rootVariables[name] = def
}

func (tt *BundlerTreeTransformer) rewrite() {
	transformer := &js_ast.Transformer{
		BeforeStmt: tt.beforeStmt,
		BeforeExpr: tt.beforeExpr,
	}
	tt.file.Ast.Stmts = transformer.TransformStmts(tt.file.Ast.Stmts)
}

func (tt *BundlerTreeTransformer) beforeStmt(stmt js_ast.Stmt, inList bool) (js_ast.Stmt, js_ast.TransformAction) {
	switch s := stmt.Data.(type) {
	case *js_ast.SImport:
		return stmt, js_ast.TransformRemove

	case *js_ast.SExport:
		// Exports were consumed during discovery
		return stmt, js_ast.TransformRemove

	case *js_ast.SExpr:
		// A bare "require('m')" expression statement is only a load edge
		if _, isRequire := tt.b.requireTarget(tt.file, s.Value.Data); isRequire {
			return stmt, js_ast.TransformRemove
		}

	case *js_ast.SLocal:
		// "var x = require('m')" declarations dissolve; every use of x was
		// redirected at the reference level
		decls := s.Decls[:0]
		removed := false
		for _, decl := range s.Decls {
			if decl.Value != nil {
				if _, isRequire := tt.b.requireTarget(tt.file, decl.Value.Data); isRequire {
					if _, ok := decl.Binding.Data.(*js_ast.BIdentifier); ok {
						removed = true
						continue
					}
				}
			}
			decls = append(decls, decl)
		}
		if removed {
			s.Decls = decls
			if len(s.Decls) == 0 {
				return stmt, js_ast.TransformRemove
			}
		}
	}

	return stmt, js_ast.TransformKeep
}

func (tt *BundlerTreeTransformer) beforeExpr(expr js_ast.Expr, inList bool) (js_ast.Expr, js_ast.TransformAction) {
	switch e := expr.Data.(type) {
	case *js_ast.EDot:
		// "x.prop" where x is a require binding or "require('m').prop"
		if source, ok := tt.namespaceSource(e.Target); ok {
			return tt.resolveExportAccess(source, e.Name, expr.Loc), js_ast.TransformReplace
		}

	case *js_ast.EIdentifier:
		if e.Thedef == nil {
			break
		}
		binding, isImport := tt.file.importBindings[e.Thedef]
		if !isImport {
			break
		}
		source := tt.cache[binding.source]
		if binding.foreign == "" {
			// The whole namespace object
			if source.WholeExport != nil {
				return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EIdentifier{
					Name: source.WholeExport.Name, Thedef: source.WholeExport,
				}}, js_ast.TransformReplace
			}
			return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EUndefined{}}, js_ast.TransformReplace
		}
		return tt.resolveExportAccess(source, binding.foreign, expr.Loc), js_ast.TransformReplace

	case *js_ast.ECall:
		// A bare "require('m')" in expression position becomes the
		// namespace object
		if target, ok := tt.b.requireTarget(tt.file, e); ok {
			source := tt.cache[target]
			if source.WholeExport != nil {
				return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EIdentifier{
					Name: source.WholeExport.Name, Thedef: source.WholeExport,
				}}, js_ast.TransformReplace
			}
		}

	case *js_ast.EImport:
		if str, ok := e.Expr.Data.(*js_ast.EString); ok {
			resolved := tt.b.ctx.ResolveRequire(str.Value, tt.file.Name)
			return tt.rewriteLazyImport(resolved, expr.Loc), js_ast.TransformReplace
		}
	}

	return expr, js_ast.TransformKeep
}

// namespaceSource resolves an expression that stands for a module's
// namespace: a require binding or a direct require call.
func (tt *BundlerTreeTransformer) namespaceSource(target js_ast.Expr) (*SourceFile, bool) {
	if id, ok := target.Data.(*js_ast.EIdentifier); ok && id.Thedef != nil {
		if binding, isImport := tt.file.importBindings[id.Thedef]; isImport && binding.foreign == "" {
			return tt.cache[binding.source], true
		}
	}
	if resolved, ok := tt.b.requireTarget(tt.file, target.Data); ok {
		return tt.cache[resolved], true
	}
	return nil, false
}

// resolveExportAccess rewrites one cross-module property access to a direct
// reference, an inlined literal, or undefined when the export is absent
// (possible for TypeScript-only interfaces).
func (tt *BundlerTreeTransformer) resolveExportAccess(source *SourceFile, name string, loc logger.Loc) js_ast.Expr {
	// The constant-evaluation oracle gets first refusal
	if value, ok := tt.b.constEval.EvaluateConstant(source.Name, name); ok {
		return js_ast.Expr{Loc: loc, Data: cloneExportNode(value)}
	}

	node, ok := source.Exports[name]
	if !ok {
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUndefined{}}
	}
	return js_ast.Expr{Loc: loc, Data: cloneExportNode(node)}
}

// rewriteLazyImport turns "import('m')" into the __import runtime
// trampoline, chaining .then() loads for every split the target transitively
// forces lazy.
func (tt *BundlerTreeTransformer) rewriteLazyImport(resolved string, loc logger.Loc) js_ast.Expr {
	target := tt.cache[resolved]
	targetSplit := tt.splitMap[target.PartOfBundle]
	currentSplit := tt.splitMap[tt.file.PartOfBundle]
	if currentSplit != nil {
		currentSplit.needsImport = true
	}

	call := tt.importCall(targetSplit, target.PropName, currentSplit, loc)

	// Forced splits load first, outermost link first
	forced := targetSplit.ExpandedSplitsForcedLazy
	for i := len(forced) - 1; i >= 0; i-- {
		dep := forced[i]
		if dep == currentSplit {
			continue
		}
		inner := call
		ret := js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{Value: &inner}}
		callback := js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: js_ast.Fn{
			Body: js_ast.FnBody{Loc: loc, Stmts: []js_ast.Stmt{ret}},
		}}}
		depCall := tt.importCall(dep, dep.PropName, currentSplit, loc)
		call = js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
			Target: js_ast.Expr{Loc: loc, Data: &js_ast.EDot{Target: depCall, Name: "then"}},
			Args:   []js_ast.Expr{callback},
		}}
	}

	return call
}

func (tt *BundlerTreeTransformer) importCall(split *SplitInfo, prop string, from *SplitInfo, loc logger.Loc) js_ast.Expr {
	var splitArg js_ast.E
	if split.IsMainSplit && from != nil && from.IsMainSplit {
		// Both sides live in the main split; the loader is told so with a
		// literal undefined
		splitArg = &js_ast.EUndefined{}
	} else {
		splitArg = &js_ast.EString{Value: split.ShortName}
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
		Target: js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: "__import"}},
		Args: []js_ast.Expr{
			{Loc: loc, Data: splitArg},
			{Loc: loc, Data: &js_ast.EString{Value: prop}},
		},
	}}
}

// emit concatenates each split's rewritten top-levels in dependency order,
// prepends the host headers, and writes the bundles.
func (b *Bundler) emit() error {
	splitOrder := []string{}
	for _, name := range b.splitNames() {
		splitOrder = append(splitOrder, name)
	}
	implicit := []string{}
	for name := range b.splitMap {
		found := false
		for _, existing := range splitOrder {
			if existing == name {
				found = true
				break
			}
		}
		if !found {
			implicit = append(implicit, name)
		}
	}
	sort.Strings(implicit)
	splitOrder = append(splitOrder, implicit...)

	for _, splitName := range splitOrder {
		split := b.splitMap[splitName]

		var sb strings.Builder
		sb.WriteString(b.ctx.JsHeaders(splitName, split.needsImport))

		for _, file := range b.order {
			if file.PartOfBundle != splitName {
				continue
			}
			for _, dep := range file.PlainJsDependencies {
				if content, ok := b.ctx.ReadContent(dep); ok {
					sb.WriteString(content)
					if !strings.HasSuffix(content, "\n") {
						sb.WriteString("\n")
					}
				}
			}
		}

		reserved := map[string]bool{}
		if b.options.Mangle {
			for name := range b.rootVariables {
				reserved[name] = true
			}
		}

		fileCount := 0
		for _, file := range b.order {
			if file.PartOfBundle != splitName {
				continue
			}
			if b.options.Mangle {
				renamer.Mangle(file.Ast, reserved)
			}
			sb.Write(js_printer.Print(file.Ast, js_printer.Options{
				Beautify: b.options.OutputOptions.Beautify,
			}))
			fileCount++
		}

		// Lazy-requested namespaces register with the loader
		if len(split.ExportsAllUsedFromLazyBundles) > 0 {
			names := make([]string, 0, len(split.ExportsAllUsedFromLazyBundles))
			for name := range split.ExportsAllUsedFromLazyBundles {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				def := split.ExportsAllUsedFromLazyBundles[name]
				file := b.cache[name]
				sb.WriteString(fmt.Sprintf("__export(%q,%s);\n", file.PropName, def.EffectiveName()))
			}
		}

		log.Infof("emitting %s (%d files)", splitName, fileCount)
		b.ctx.WriteBundle(b.ctx.GenerateBundleName(splitName), sb.String())
	}
	return nil
}
