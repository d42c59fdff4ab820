// Package renamer assigns short names to local symbols after compression.
// Globals keep their names: the bundler's shared scope owns them.
package renamer

import (
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_lexer"
)

const nameHead = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_$"
const nameTail = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_$"

// NumberToMinifiedName maps an ordinal to "a", "b", ... "$", "aa", "ba", ...
func NumberToMinifiedName(i int) string {
	j := i % len(nameHead)
	name := nameHead[j : j+1]
	i = i / len(nameHead)

	for i > 0 {
		i--
		j := i % len(nameTail)
		name += nameTail[j : j+1]
		i = i / len(nameTail)
	}

	return name
}

// Mangle renames every non-global symbol in the tree to the shortest free
// name, outermost scopes first so that Enclosed sets see their final names.
// Pinned scopes (eval, with) are skipped entirely. extraReserved carries
// names owned by the surrounding bundle scope that locals must not capture.
func Mangle(tree *js_ast.AST, extraReserved map[string]bool) {
	if tree.ModuleScope == nil {
		return
	}

	// Free globals and module-level names are immovable
	reserved := map[string]bool{}
	for name := range extraReserved {
		reserved[name] = true
	}
	for name := range tree.ModuleScope.Variables {
		reserved[name] = true
	}
	collectFreeGlobals(tree, reserved)

	for _, child := range tree.ModuleScope.Children {
		mangleScope(child, reserved)
	}
}

func collectFreeGlobals(tree *js_ast.AST, out map[string]bool) {
	walker := &js_ast.Walker{}
	walker.VisitExpr = func(expr *js_ast.Expr) bool {
		if id, ok := (*expr).Data.(*js_ast.EIdentifier); ok && id.Thedef == nil {
			out[id.Name] = true
		}
		return true
	}
	walker.WalkStmts(tree.Stmts)
}

func mangleScope(scope *js_ast.Scope, reserved map[string]bool) {
	if scope.Pinned() {
		return
	}

	// Names that must stay visible inside this scope under their final
	// spelling: everything this scope closes over
	taken := map[string]bool{}
	for name := range reserved {
		taken[name] = true
	}
	for _, def := range scope.Enclosed {
		taken[def.EffectiveName()] = true
	}

	counter := 0
	nextName := func() string {
		for {
			name := NumberToMinifiedName(counter)
			counter++
			if js_lexer.Keywords[name] != 0 || js_lexer.StrictModeReservedWords[name] {
				continue
			}
			if taken[name] {
				continue
			}
			return name
		}
	}

	// Stable order: declaration order is not tracked, so sort by name for
	// determinism
	for _, name := range sortedNames(scope.Variables) {
		def := scope.Variables[name]
		if def.Scope != scope {
			continue
		}
		mangled := nextName()
		def.MangledName = mangled
		taken[mangled] = true
	}

	for _, child := range scope.Children {
		mangleScope(child, reserved)
	}
}

func sortedNames(variables map[string]*js_ast.SymbolDef) []string {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}
