package js_ast

import (
	"testing"

	"github.com/miroslavpokorny/Njsast/internal/logger"
)

// Trees in this file are constructed by hand so the package has no test
// dependency on the parser.

func ident(name string) Expr {
	return Expr{Data: &EIdentifier{Name: name}}
}

func callStmt(name string) Stmt {
	return Stmt{Data: &SExpr{Value: Expr{Data: &ECall{Target: ident(name)}}}}
}

func TestWalkerVisitsPreOrder(t *testing.T) {
	stmts := []Stmt{
		{Data: &SIf{
			Test: ident("a"),
			Yes:  callStmt("b"),
		}},
		callStmt("c"),
	}

	visited := []string{}
	walker := &Walker{}
	walker.VisitExpr = func(expr *Expr) bool {
		if id, ok := (*expr).Data.(*EIdentifier); ok {
			visited = append(visited, id.Name)
		}
		return true
	}
	walker.WalkStmts(stmts)

	if len(visited) != 3 || visited[0] != "a" || visited[1] != "b" || visited[2] != "c" {
		t.Fatalf("wrong visit order: %v", visited)
	}
}

func TestWalkerSkipChildren(t *testing.T) {
	stmts := []Stmt{
		{Data: &SIf{
			Test: ident("a"),
			Yes:  callStmt("b"),
		}},
	}

	visited := []string{}
	walker := &Walker{}
	walker.VisitStmt = func(stmt *Stmt) bool {
		_, isIf := (*stmt).Data.(*SIf)
		return !isIf
	}
	walker.VisitExpr = func(expr *Expr) bool {
		if id, ok := (*expr).Data.(*EIdentifier); ok {
			visited = append(visited, id.Name)
		}
		return true
	}
	walker.WalkStmts(stmts)

	if len(visited) != 0 {
		t.Fatalf("expected no visits, got %v", visited)
	}
}

func TestWalkerStop(t *testing.T) {
	stmts := []Stmt{callStmt("a"), callStmt("b"), callStmt("c")}

	visited := []string{}
	walker := &Walker{}
	walker.VisitExpr = func(expr *Expr) bool {
		if id, ok := (*expr).Data.(*EIdentifier); ok {
			visited = append(visited, id.Name)
			if id.Name == "b" {
				walker.Stop()
			}
		}
		return true
	}
	walker.WalkStmts(stmts)

	if len(visited) != 2 {
		t.Fatalf("expected the walk to stop after b, got %v", visited)
	}
}

func TestTransformerRemoveFromList(t *testing.T) {
	stmts := []Stmt{callStmt("keep"), callStmt("drop"), callStmt("keep2")}

	transformer := &Transformer{}
	transformer.BeforeStmt = func(stmt Stmt, inList bool) (Stmt, TransformAction) {
		if expr, ok := stmt.Data.(*SExpr); ok {
			if call, ok := expr.Value.Data.(*ECall); ok {
				if id, ok := call.Target.Data.(*EIdentifier); ok && id.Name == "drop" {
					if !inList {
						t.Fatal("expected a list position")
					}
					return stmt, TransformRemove
				}
			}
		}
		return stmt, TransformKeep
	}

	out := transformer.TransformStmts(stmts)
	if len(out) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(out))
	}
}

func TestTransformerRemoveInMandatoryPosition(t *testing.T) {
	// Removing the body of an if produces SEmpty rather than a hole
	stmts := []Stmt{
		{Data: &SIf{Test: ident("a"), Yes: callStmt("drop")}},
	}

	transformer := &Transformer{}
	transformer.BeforeStmt = func(stmt Stmt, inList bool) (Stmt, TransformAction) {
		if _, ok := stmt.Data.(*SExpr); ok && !inList {
			return stmt, TransformRemove
		}
		return stmt, TransformKeep
	}

	out := transformer.TransformStmts(stmts)
	ifStmt := out[0].Data.(*SIf)
	if _, ok := ifStmt.Yes.Data.(*SEmpty); !ok {
		t.Fatalf("expected SEmpty, got %T", ifStmt.Yes.Data)
	}
}

func TestTransformerReplaceSkipsChildren(t *testing.T) {
	stmts := []Stmt{callStmt("a")}

	visitedInside := false
	transformer := &Transformer{}
	transformer.BeforeExpr = func(expr Expr, inList bool) (Expr, TransformAction) {
		if _, ok := expr.Data.(*ECall); ok {
			return Expr{Data: &ENull{}}, TransformReplace
		}
		if _, ok := expr.Data.(*EIdentifier); ok {
			visitedInside = true
		}
		return expr, TransformKeep
	}

	out := transformer.TransformStmts(stmts)
	if _, ok := out[0].Data.(*SExpr).Value.Data.(*ENull); !ok {
		t.Fatal("expected the call to be replaced")
	}
	if visitedInside {
		t.Fatal("children of a replaced node must not be visited")
	}
}

func TestTransformerAfterCleansUp(t *testing.T) {
	// A var statement whose only declaration is dropped by After
	stmts := []Stmt{
		{Data: &SLocal{Kind: LocalVar, Decls: []Decl{{
			Binding: Binding{Data: &BIdentifier{Name: "a"}},
		}}}},
		callStmt("b"),
	}

	transformer := &Transformer{}
	transformer.AfterStmt = func(stmt Stmt, inList bool) (Stmt, TransformAction) {
		if local, ok := stmt.Data.(*SLocal); ok {
			local.Decls = local.Decls[:0]
			return stmt, TransformRemove
		}
		return stmt, TransformKeep
	}

	out := transformer.TransformStmts(stmts)
	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}
}

func TestTransformerSplice(t *testing.T) {
	inner := []Stmt{callStmt("a"), callStmt("b")}
	stmts := []Stmt{
		{Data: &SBlock{Stmts: inner}},
		callStmt("c"),
	}

	transformer := &Transformer{}
	transformer.AfterStmt = func(stmt Stmt, inList bool) (Stmt, TransformAction) {
		if block, ok := stmt.Data.(*SBlock); ok && inList {
			return Stmt{Data: &SSplice{Stmts: block.Stmts}}, TransformReplace
		}
		return stmt, TransformKeep
	}

	out := transformer.TransformStmts(stmts)
	if len(out) != 3 {
		t.Fatalf("expected the block to be spliced, got %d statements", len(out))
	}
}

func makeScopeTree() (*AST, *SymbolDef, *EIdentifier) {
	// var a; function f() { a = 1; }
	ref := &EIdentifier{Name: "a"}
	tree := &AST{
		Stmts: []Stmt{
			{Data: &SLocal{Kind: LocalVar, Decls: []Decl{{
				Binding: Binding{Data: &BIdentifier{Name: "a"}},
			}}}},
			{Data: &SFunction{Fn: Fn{
				Name: &LocName{Name: "f"},
				Body: FnBody{Stmts: []Stmt{
					{Data: &SExpr{Value: Expr{Data: &EBinary{
						Op:    BinOpAssign,
						Left:  Expr{Data: ref},
						Right: Expr{Data: &ENumber{Value: 1}},
					}}}},
				}},
			}}},
		},
		Source: &logger.Source{},
	}
	AnalyzeScopes(logger.NewDeferLog(), tree)
	def := tree.ModuleScope.Variables["a"]
	return tree, def, ref
}

func TestScopeAnalysis(t *testing.T) {
	tree, def, ref := makeScopeTree()

	if def == nil {
		t.Fatal("a was not declared")
	}
	if ref.Thedef != def {
		t.Fatal("the reference was not resolved to its definition")
	}
	if len(def.References) != 1 || def.References[0] != ref {
		t.Fatalf("expected exactly one reference, got %d", len(def.References))
	}
	if def.Usage&SymbolWrite == 0 {
		t.Fatal("an assignment target must be marked as written")
	}
	if !def.Global {
		t.Fatal("a module-scope var is global")
	}

	// The function scope closes over a
	fn := tree.Stmts[1].Data.(*SFunction)
	found := false
	for _, enclosed := range fn.Fn.Scope.Enclosed {
		if enclosed == def {
			found = true
		}
	}
	if !found {
		t.Fatal("the function scope must record a as enclosed")
	}

	// f itself is declared but never referenced
	fdef := tree.ModuleScope.Variables["f"]
	if fdef == nil || !fdef.Unreferenced() {
		t.Fatal("f should be unreferenced")
	}
}

func TestScopeFreeGlobal(t *testing.T) {
	ref := &EIdentifier{Name: "console"}
	tree := &AST{
		Stmts:  []Stmt{{Data: &SExpr{Value: Expr{Data: ref}}}},
		Source: &logger.Source{},
	}
	AnalyzeScopes(logger.NewDeferLog(), tree)
	if ref.Thedef != nil {
		t.Fatal("a free global keeps a nil Thedef")
	}
}

func TestScopeDuplicateLet(t *testing.T) {
	tree := &AST{
		Stmts: []Stmt{
			{Data: &SLocal{Kind: LocalLet, Decls: []Decl{{
				Binding: Binding{Data: &BIdentifier{Name: "a"}},
			}}}},
			{Data: &SLocal{Kind: LocalLet, Decls: []Decl{{
				Binding: Binding{Data: &BIdentifier{Name: "a"}},
			}}}},
		},
		Source: &logger.Source{},
	}
	log := logger.NewDeferLog()
	AnalyzeScopes(log, tree)
	if !log.HasErrors() {
		t.Fatal("expected a duplicate declaration error")
	}
}

func TestScopeVarHoistsToFunction(t *testing.T) {
	// function f() { { var a; } }
	tree := &AST{
		Stmts: []Stmt{
			{Data: &SFunction{Fn: Fn{
				Name: &LocName{Name: "f"},
				Body: FnBody{Stmts: []Stmt{
					{Data: &SBlock{Stmts: []Stmt{
						{Data: &SLocal{Kind: LocalVar, Decls: []Decl{{
							Binding: Binding{Data: &BIdentifier{Name: "a"}},
						}}}},
					}}},
				}},
			}}},
		},
		Source: &logger.Source{},
	}
	AnalyzeScopes(logger.NewDeferLog(), tree)

	fn := tree.Stmts[0].Data.(*SFunction)
	if fn.Fn.Scope.Variables["a"] == nil {
		t.Fatal("var must hoist to the function scope")
	}
	block := fn.Fn.Body.Stmts[0].Data.(*SBlock)
	if block.Scope.Variables["a"] != nil {
		t.Fatal("var must not be declared in the block scope")
	}
}

func TestMakeUniqueName(t *testing.T) {
	inUse := map[string]*SymbolDef{"a": nil}
	if name := MakeUniqueName("b", inUse, "_x"); name != "b" {
		t.Fatalf("expected b, got %s", name)
	}
	if name := MakeUniqueName("a", inUse, "_x"); name != "a_x" {
		t.Fatalf("expected a_x, got %s", name)
	}
	inUse["a_x"] = nil
	if name := MakeUniqueName("a", inUse, "_x"); name != "a_x2" {
		t.Fatalf("expected a_x2, got %s", name)
	}
}
