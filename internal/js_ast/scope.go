package js_ast

import (
	"fmt"
)

type SymbolKind uint8

const (
	// A reference that isn't declared in the file it occurs in. For example,
	// using "window" without declaring it will be unbound.
	SymbolUnbound SymbolKind = iota

	// Variables declared using "var". These are hoisted out of the scope they
	// are declared in to the closest containing function or module scope.
	SymbolVar

	SymbolLet
	SymbolConst

	// Function arguments
	SymbolFunarg

	// Function statements ("function f() {}")
	SymbolDefun

	// The name binding of a function expression, visible only inside it
	SymbolLambda

	// The binding of a catch clause
	SymbolCatch

	// The local side of an import clause item
	SymbolImport

	// The foreign side of an import clause item ("a" in "import {a as b}")
	SymbolImportForeign

	// The local side of an export clause item
	SymbolExport

	// The foreign side of an export clause item ("b" in "export {a as b}")
	SymbolExportForeign

	// A class method name
	SymbolMethod

	// A class declaration name
	SymbolClass

	// Labels are in their own namespace
	SymbolLabel
)

func (kind SymbolKind) IsHoisted() bool {
	return kind == SymbolVar || kind == SymbolDefun || kind == SymbolFunarg
}

func (kind SymbolKind) IsBlockScoped() bool {
	return kind == SymbolLet || kind == SymbolConst || kind == SymbolClass || kind == SymbolCatch
}

func (kind SymbolKind) String() string {
	switch kind {
	case SymbolVar:
		return "var"
	case SymbolLet:
		return "let"
	case SymbolConst:
		return "const"
	case SymbolDefun, SymbolLambda:
		return "function"
	case SymbolCatch:
		return "catch"
	case SymbolClass:
		return "class"
	case SymbolImport, SymbolImportForeign:
		return "import"
	default:
		return "symbol"
	}
}

// SymbolUsage records how a symbol occurrence is used.
type SymbolUsage uint8

const (
	SymbolRead SymbolUsage = 1 << iota
	SymbolWrite
)

// SymbolDef is the identity of a declared variable: its name, the scope that
// declares it, and every reference back into the tree. References are weak
// back-edges; the tree owns the nodes.
type SymbolDef struct {
	Name  string
	Kind  SymbolKind
	Scope *Scope

	// The initializer of the declaration, when there is one
	Init *Expr

	// Every EIdentifier that resolved to this definition
	References []*EIdentifier

	Usage SymbolUsage

	// True for definitions in the module scope
	Global bool

	// The short name chosen by the mangler, or "" before mangling. The
	// printer must prefer this over Name when it is set.
	MangledName string
}

// Unreferenced is true when nothing refers to the symbol and the defining
// scope isn't pinned by eval or with.
func (d *SymbolDef) Unreferenced() bool {
	return len(d.References) == 0 && !d.Scope.Pinned()
}

func (d *SymbolDef) EffectiveName() string {
	if d.MangledName != "" {
		return d.MangledName
	}
	return d.Name
}

type ScopeKind uint8

const (
	ScopeBlock ScopeKind = iota
	ScopeWith
	ScopeCatch
	ScopeClass

	// The scopes below stop hoisted variables from extending into parent scopes
	ScopeFunction
	ScopeToplevel
)

func (kind ScopeKind) StopsHoisting() bool {
	return kind >= ScopeFunction
}

type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope

	// All symbols declared directly in this scope
	Variables map[string]*SymbolDef

	// The subset of Variables that are function statements
	Functions map[string]*SymbolDef

	// Symbols declared in an outer scope but referenced from within this one
	Enclosed []*SymbolDef

	// Strict mode, inherited from the parent and flipped on by a "use strict"
	// directive in a function body. Arrow function scopes only inherit it;
	// a directive in an arrow body does not set it.
	Strict bool

	// A scope containing a direct eval() or a with statement pins every
	// symbol it can see: none of them may be renamed or dropped.
	ContainsDirectEval bool
	ContainsWith       bool
}

func NewScope(kind ScopeKind, parent *Scope) *Scope {
	s := &Scope{
		Kind:      kind,
		Parent:    parent,
		Variables: make(map[string]*SymbolDef),
		Functions: make(map[string]*SymbolDef),
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
		s.Strict = parent.Strict
	}
	return s
}

func (s *Scope) Pinned() bool {
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.ContainsDirectEval || scope.ContainsWith {
			return true
		}
	}
	return false
}

// EnclosingFunctionOrToplevel walks up to the nearest scope that stops
// hoisting. "var" and function statements land there.
func (s *Scope) EnclosingFunctionOrToplevel() *Scope {
	scope := s
	for !scope.Kind.StopsHoisting() {
		scope = scope.Parent
	}
	return scope
}

// FindVariable resolves a name against this scope chain. Returns nil when the
// name is a free global.
func (s *Scope) FindVariable(name string) *SymbolDef {
	for scope := s; scope != nil; scope = scope.Parent {
		if def, ok := scope.Variables[name]; ok {
			return def
		}
	}
	return nil
}

// DefineSymbol installs a new definition in this scope.
func (s *Scope) DefineSymbol(kind SymbolKind, name string) *SymbolDef {
	def := &SymbolDef{
		Name:   name,
		Kind:   kind,
		Scope:  s,
		Global: s.Kind == ScopeToplevel,
	}
	s.Variables[name] = def
	if kind == SymbolDefun {
		s.Functions[name] = def
	}
	return def
}

// AddEnclosed records that def, declared in an outer scope, is referenced
// from within this one.
func (s *Scope) AddEnclosed(def *SymbolDef) {
	for _, existing := range s.Enclosed {
		if existing == def {
			return
		}
	}
	s.Enclosed = append(s.Enclosed, def)
}

// MakeUniqueName derives a name from "base" that isn't bound in "inUse",
// trying "base" itself first and then suffixed variants.
func MakeUniqueName(base string, inUse map[string]*SymbolDef, suffix string) string {
	if _, ok := inUse[base]; !ok {
		return base
	}
	if suffix != "" {
		candidate := base + suffix
		if _, ok := inUse[candidate]; !ok {
			return candidate
		}
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%s%d", base, suffix, i)
		if _, ok := inUse[candidate]; !ok {
			return candidate
		}
	}
}
