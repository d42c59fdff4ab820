package js_ast

import (
	"fmt"

	"github.com/miroslavpokorny/Njsast/internal/logger"
)

// AnalyzeScopes populates every scope in the tree with its Variables,
// Functions and Enclosed sets and resolves each identifier occurrence to a
// SymbolDef. References to free globals keep a nil Thedef.
//
// The pass walks the tree once, declaring symbols and queueing identifier
// occurrences, then resolves the queue at the end. Deferring resolution is
// what makes hoisting work: a use may lexically precede the function
// statement that declares its target.
func AnalyzeScopes(log logger.Log, tree *AST) {
	a := scopeAnalyzer{log: log, source: tree.Source}
	tree.ModuleScope = NewScope(ScopeToplevel, nil)
	tree.ModuleScope.Strict = tree.Strict
	a.scope = tree.ModuleScope
	a.stmts(tree.Stmts)
	a.resolve()
}

type pendingRef struct {
	scope *Scope
	ref   *EIdentifier
	usage SymbolUsage
}

type scopeAnalyzer struct {
	log    logger.Log
	source *logger.Source
	scope  *Scope
	refs   []pendingRef

	// Set while visiting the target of an assignment or update
	assignTarget bool
}

func (a *scopeAnalyzer) push(kind ScopeKind) *Scope {
	a.scope = NewScope(kind, a.scope)
	return a.scope
}

func (a *scopeAnalyzer) pop() {
	a.scope = a.scope.Parent
}

func (a *scopeAnalyzer) addError(loc logger.Loc, text string) {
	a.log.AddError(a.source, loc, text)
}

// declare installs a symbol definition, applying the duplicate rules: "var"
// and function statements merge with earlier hoisted declarations, while a
// "let"/"const"/class collision is an error.
func (a *scopeAnalyzer) declare(loc logger.Loc, kind SymbolKind, name string) *SymbolDef {
	scope := a.scope
	if kind.IsHoisted() {
		scope = scope.EnclosingFunctionOrToplevel()
	}

	if existing, ok := scope.Variables[name]; ok {
		if kind.IsBlockScoped() || existing.Kind.IsBlockScoped() {
			a.addError(loc, fmt.Sprintf("The symbol %q has already been declared", name))
			return existing
		}
		// Merging "var" redeclarations keeps the first definition
		if kind == SymbolDefun {
			existing.Kind = SymbolDefun
			scope.Functions[name] = existing
		}
		return existing
	}

	return scope.DefineSymbol(kind, name)
}

func (a *scopeAnalyzer) declareBinding(kind SymbolKind, binding Binding, init *Expr) {
	switch b := binding.Data.(type) {
	case *BIdentifier:
		b.Kind = kind
		b.Thedef = a.declare(binding.Loc, kind, b.Name)
		if init != nil && b.Thedef.Init == nil {
			b.Thedef.Init = init
		}

	case *BArray:
		for i := range b.Items {
			a.declareBinding(kind, b.Items[i].Binding, nil)
			if b.Items[i].DefaultValue != nil {
				a.expr(*b.Items[i].DefaultValue)
			}
		}

	case *BObject:
		for i := range b.Properties {
			p := &b.Properties[i]
			if !p.IsSpread && p.IsComputed {
				a.expr(p.Key)
			}
			a.declareBinding(kind, p.Value, nil)
			if p.DefaultValue != nil {
				a.expr(*p.DefaultValue)
			}
		}
	}
}

func (a *scopeAnalyzer) fn(fn *Fn, nameKind SymbolKind) {
	if fn.Name != nil && nameKind == SymbolDefun {
		fn.Name.Thedef = a.declare(fn.Name.Loc, SymbolDefun, fn.Name.Name)
	}

	fn.Scope = a.push(ScopeFunction)

	// A "use strict" directive in the body's prologue turns on strict mode
	for _, stmt := range fn.Body.Stmts {
		directive, ok := stmt.Data.(*SDirective)
		if !ok {
			break
		}
		if directive.Value == "use strict" {
			fn.Scope.Strict = true
		}
	}

	// A function expression's name is only visible inside the function
	if fn.Name != nil && nameKind == SymbolLambda {
		fn.Name.Thedef = a.declare(fn.Name.Loc, SymbolLambda, fn.Name.Name)
	}

	for i := range fn.Args {
		a.declareBinding(SymbolFunarg, fn.Args[i].Binding, fn.Args[i].Default)
	}
	a.stmts(fn.Body.Stmts)
	a.pop()
}

func (a *scopeAnalyzer) class(class *Class, scope **Scope, declareName bool) {
	if class.Name != nil && declareName {
		class.Name.Thedef = a.declare(class.Name.Loc, SymbolClass, class.Name.Name)
	}
	if class.Extends != nil {
		a.expr(*class.Extends)
	}

	*scope = a.push(ScopeClass)
	a.scope.Strict = true // class bodies are always strict

	if class.Name != nil && !declareName {
		class.Name.Thedef = a.declare(class.Name.Loc, SymbolClass, class.Name.Name)
	}
	for i := range class.Properties {
		prop := &class.Properties[i]
		if prop.IsComputed {
			a.expr(prop.Key)
		}
		if prop.Value != nil {
			a.expr(*prop.Value)
		}
		if prop.Initializer != nil {
			a.expr(*prop.Initializer)
		}
	}
	a.pop()
}

func (a *scopeAnalyzer) stmts(stmts []Stmt) {
	for i := range stmts {
		a.stmt(stmts[i])
	}
}

func (a *scopeAnalyzer) localKindToSymbol(kind LocalKind) SymbolKind {
	switch kind {
	case LocalLet:
		return SymbolLet
	case LocalConst:
		return SymbolConst
	default:
		return SymbolVar
	}
}

func (a *scopeAnalyzer) local(s *SLocal) {
	kind := a.localKindToSymbol(s.Kind)
	for i := range s.Decls {
		a.declareBinding(kind, s.Decls[i].Binding, s.Decls[i].Value)
		if s.Decls[i].Value != nil {
			a.expr(*s.Decls[i].Value)
		}
	}
}

func (a *scopeAnalyzer) stmt(stmt Stmt) {
	switch s := stmt.Data.(type) {
	case *SBlock:
		s.Scope = a.push(ScopeBlock)
		a.stmts(s.Stmts)
		a.pop()

	case *SExpr:
		a.expr(s.Value)

	case *SFunction:
		a.fn(&s.Fn, SymbolDefun)

	case *SClass:
		a.class(&s.Class, &s.Scope, true)

	case *SLabel:
		a.stmt(s.Stmt)

	case *SIf:
		a.expr(s.Test)
		a.stmt(s.Yes)
		if s.No != nil {
			a.stmt(*s.No)
		}

	case *SFor:
		s.Scope = a.push(ScopeBlock)
		if s.Init != nil {
			a.stmt(*s.Init)
		}
		if s.Test != nil {
			a.expr(*s.Test)
		}
		if s.Update != nil {
			a.expr(*s.Update)
		}
		a.stmt(s.Body)
		a.pop()

	case *SForIn:
		s.Scope = a.push(ScopeBlock)
		a.stmt(s.Init)
		a.expr(s.Value)
		a.stmt(s.Body)
		a.pop()

	case *SForOf:
		s.Scope = a.push(ScopeBlock)
		a.stmt(s.Init)
		a.expr(s.Value)
		a.stmt(s.Body)
		a.pop()

	case *SDoWhile:
		a.stmt(s.Body)
		a.expr(s.Test)

	case *SWhile:
		a.expr(s.Test)
		a.stmt(s.Body)

	case *SWith:
		a.expr(s.Value)
		a.scope.ContainsWith = true
		a.stmt(s.Body)

	case *STry:
		a.push(ScopeBlock)
		a.stmts(s.Body)
		a.pop()
		if s.Catch != nil {
			s.Catch.Scope = a.push(ScopeCatch)
			if s.Catch.Binding != nil {
				a.declareBinding(SymbolCatch, *s.Catch.Binding, nil)
			}
			a.stmts(s.Catch.Body)
			a.pop()
		}
		if s.Finally != nil {
			a.push(ScopeBlock)
			a.stmts(s.Finally.Stmts)
			a.pop()
		}

	case *SSwitch:
		a.expr(s.Test)
		s.Scope = a.push(ScopeBlock)
		for i := range s.Cases {
			if s.Cases[i].Value != nil {
				a.expr(*s.Cases[i].Value)
			}
			a.stmts(s.Cases[i].Body)
		}
		a.pop()

	case *SReturn:
		if s.Value != nil {
			a.expr(*s.Value)
		}

	case *SThrow:
		a.expr(s.Value)

	case *SLocal:
		a.local(s)

	case *SImport:
		if s.DefaultName != nil {
			s.DefaultName.Thedef = a.declare(s.DefaultName.Loc, SymbolImport, s.DefaultName.Name)
		}
		if s.StarName != nil {
			s.StarName.Thedef = a.declare(s.StarName.Loc, SymbolImport, s.StarName.Name)
		}
		for i := range s.Mappings {
			m := &s.Mappings[i]
			m.Local.Thedef = a.declare(m.Local.Loc, SymbolImport, m.Local.Name)
		}

	case *SExport:
		if s.Decl != nil {
			a.stmt(*s.Decl)
		}
		if s.DefaultExpr != nil {
			a.expr(*s.DefaultExpr)
		}
		if s.Source == "" {
			// "export {a as b}" references local symbols
			for i := range s.Mappings {
				m := &s.Mappings[i]
				ref := &EIdentifier{Name: m.Local.Name}
				a.refs = append(a.refs, pendingRef{scope: a.scope, ref: ref, usage: SymbolRead})
			}
		}
	}
}

func (a *scopeAnalyzer) assignTargetExpr(expr Expr) {
	wasAssignTarget := a.assignTarget
	a.assignTarget = true
	a.expr(expr)
	a.assignTarget = wasAssignTarget
}

func (a *scopeAnalyzer) expr(expr Expr) {
	switch e := expr.Data.(type) {
	case *EIdentifier:
		usage := SymbolRead
		if a.assignTarget {
			usage = SymbolWrite
		}
		a.refs = append(a.refs, pendingRef{scope: a.scope, ref: e, usage: usage})

	case *EArray:
		for i := range e.Items {
			a.expr(e.Items[i])
		}

	case *EUnary:
		if e.Op.IsUnaryUpdate() {
			// "x++" both reads and writes x
			a.assignTargetExpr(e.Value)
			a.markLastRefRead()
		} else {
			a.expr(e.Value)
		}

	case *EBinary:
		if e.Op.IsAssign() {
			a.assignTargetExpr(e.Left)
			if e.Op != BinOpAssign {
				a.markLastRefRead()
			}
			wasAssignTarget := a.assignTarget
			a.assignTarget = false
			a.expr(e.Right)
			a.assignTarget = wasAssignTarget
		} else {
			a.expr(e.Left)
			a.expr(e.Right)
		}

	case *ESequence:
		for i := range e.Exprs {
			a.expr(e.Exprs[i])
		}

	case *ENew:
		a.expr(e.Target)
		for i := range e.Args {
			a.expr(e.Args[i])
		}

	case *ECall:
		if id, ok := e.Target.Data.(*EIdentifier); ok && id.Name == "eval" {
			e.IsDirectEval = true
			a.scope.ContainsDirectEval = true
		}
		a.expr(e.Target)
		for i := range e.Args {
			a.expr(e.Args[i])
		}

	case *EDot:
		a.expr(e.Target)

	case *EIndex:
		a.expr(e.Target)
		a.expr(e.Index)

	case *EArrow:
		e.Scope = a.push(ScopeFunction)
		for i := range e.Args {
			a.declareBinding(SymbolFunarg, e.Args[i].Binding, e.Args[i].Default)
		}
		a.stmts(e.Body.Stmts)
		a.pop()

	case *EFunction:
		a.fn(&e.Fn, SymbolLambda)

	case *EClass:
		a.class(&e.Class, &e.Scope, false)

	case *EObject:
		for i := range e.Properties {
			prop := &e.Properties[i]
			if prop.IsComputed {
				a.expr(prop.Key)
			}
			if prop.Value != nil {
				a.expr(*prop.Value)
			}
			if prop.Initializer != nil {
				a.expr(*prop.Initializer)
			}
		}

	case *ESpread:
		a.expr(e.Value)

	case *ETemplate:
		if e.Tag != nil {
			a.expr(*e.Tag)
		}
		for i := range e.Parts {
			a.expr(e.Parts[i].Value)
		}

	case *EAwait:
		a.expr(e.Value)

	case *EYield:
		if e.Value != nil {
			a.expr(*e.Value)
		}

	case *EIf:
		a.expr(e.Test)
		a.expr(e.Yes)
		a.expr(e.No)

	case *EImport:
		a.expr(e.Expr)
	}
}

// markLastRefRead upgrades the most recently queued reference to read+write.
// Compound assignments and updates both read and write their target.
func (a *scopeAnalyzer) markLastRefRead() {
	if n := len(a.refs); n > 0 {
		a.refs[n-1].usage |= SymbolRead
	}
}

func (a *scopeAnalyzer) resolve() {
	for _, pending := range a.refs {
		def := pending.scope.FindVariable(pending.ref.Name)
		if def == nil {
			// A free global
			continue
		}
		pending.ref.Thedef = def
		def.References = append(def.References, pending.ref)
		def.Usage |= pending.usage
		for scope := pending.scope; scope != def.Scope; scope = scope.Parent {
			scope.AddEnclosed(def)
		}
	}
}
