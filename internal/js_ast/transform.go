package js_ast

// Transformer rewrites a tree in place. For every node the Before callback
// runs first and decides what happens:
//
//   - TransformKeep: descend into the node and replace its children in place
//   - TransformReplace: install the returned node, skip its children
//   - TransformRemove: delete the node from its containing list
//
// After the children have been transformed the After callback gets a second
// pass over the node, typically to clean up — a SLocal left with zero
// declarations, or a SExpr whose value was removed.
//
// Removal in a non-list statement slot produces SEmpty; removal in a
// mandatory expression slot produces EMissing, which the containing node's
// After pass is expected to clean up.
type TransformAction uint8

const (
	TransformKeep TransformAction = iota
	TransformReplace
	TransformRemove
)

type Transformer struct {
	BeforeStmt func(stmt Stmt, inList bool) (Stmt, TransformAction)
	AfterStmt  func(stmt Stmt, inList bool) (Stmt, TransformAction)
	BeforeExpr func(expr Expr, inList bool) (Expr, TransformAction)
	AfterExpr  func(expr Expr, inList bool) (Expr, TransformAction)
}

func (t *Transformer) TransformStmts(stmts []Stmt) []Stmt {
	out := stmts[:0]
	for _, stmt := range stmts {
		result, action := t.transformStmt(stmt, true)
		if action == TransformRemove {
			continue
		}
		// A list-typed replacement splices its children into this list
		if splice, ok := result.Data.(*SSplice); ok {
			out = append(out, splice.Stmts...)
			continue
		}
		out = append(out, result)
	}
	return out
}

// TransformStmt transforms a statement in a non-list position. A removed
// statement becomes SEmpty.
func (t *Transformer) TransformStmt(stmt Stmt) Stmt {
	result, action := t.transformStmt(stmt, false)
	if action == TransformRemove {
		return Stmt{stmt.Loc, &SEmpty{}}
	}
	return result
}

// TransformExpr transforms an expression in a mandatory position. A removed
// expression becomes EMissing.
func (t *Transformer) TransformExpr(expr Expr) Expr {
	result, action := t.transformExpr(expr, false)
	if action == TransformRemove {
		return Expr{expr.Loc, &EMissing{}}
	}
	return result
}

func (t *Transformer) transformOptionalStmt(stmt *Stmt) *Stmt {
	if stmt == nil {
		return nil
	}
	result, action := t.transformStmt(*stmt, false)
	if action == TransformRemove {
		return nil
	}
	return &result
}

func (t *Transformer) transformOptionalExpr(expr *Expr) *Expr {
	if expr == nil {
		return nil
	}
	result, action := t.transformExpr(*expr, false)
	if action == TransformRemove {
		return nil
	}
	return &result
}

func (t *Transformer) transformExprs(exprs []Expr) []Expr {
	out := exprs[:0]
	for _, expr := range exprs {
		result, action := t.transformExpr(expr, true)
		if action == TransformRemove {
			continue
		}
		out = append(out, result)
	}
	return out
}

func (t *Transformer) transformArgs(args []Arg) {
	for i := range args {
		args[i].Default = t.transformOptionalExpr(args[i].Default)
	}
}

func (t *Transformer) transformFn(fn *Fn) {
	t.transformArgs(fn.Args)
	fn.Body.Stmts = t.TransformStmts(fn.Body.Stmts)
}

func (t *Transformer) transformProperties(properties []Property) {
	for i := range properties {
		prop := &properties[i]
		if prop.Kind != PropertySpread {
			prop.Key = t.TransformExpr(prop.Key)
		}
		if prop.Value != nil {
			*prop.Value = t.TransformExpr(*prop.Value)
		}
		prop.Initializer = t.transformOptionalExpr(prop.Initializer)
	}
}

func (t *Transformer) transformClass(class *Class) {
	class.Extends = t.transformOptionalExpr(class.Extends)
	t.transformProperties(class.Properties)
}

func (t *Transformer) transformStmt(stmt Stmt, inList bool) (Stmt, TransformAction) {
	if t.BeforeStmt != nil {
		result, action := t.BeforeStmt(stmt, inList)
		switch action {
		case TransformReplace:
			return result, TransformKeep
		case TransformRemove:
			return stmt, TransformRemove
		}
		stmt = result
	}

	switch s := stmt.Data.(type) {
	case *SBlock:
		s.Stmts = t.TransformStmts(s.Stmts)

	case *SExpr:
		s.Value = t.TransformExpr(s.Value)

	case *SFunction:
		t.transformFn(&s.Fn)

	case *SClass:
		t.transformClass(&s.Class)

	case *SLabel:
		s.Stmt = t.TransformStmt(s.Stmt)

	case *SIf:
		s.Test = t.TransformExpr(s.Test)
		s.Yes = t.TransformStmt(s.Yes)
		s.No = t.transformOptionalStmt(s.No)

	case *SFor:
		s.Init = t.transformOptionalStmt(s.Init)
		s.Test = t.transformOptionalExpr(s.Test)
		s.Update = t.transformOptionalExpr(s.Update)
		s.Body = t.TransformStmt(s.Body)

	case *SForIn:
		s.Init = t.TransformStmt(s.Init)
		s.Value = t.TransformExpr(s.Value)
		s.Body = t.TransformStmt(s.Body)

	case *SForOf:
		s.Init = t.TransformStmt(s.Init)
		s.Value = t.TransformExpr(s.Value)
		s.Body = t.TransformStmt(s.Body)

	case *SDoWhile:
		s.Body = t.TransformStmt(s.Body)
		s.Test = t.TransformExpr(s.Test)

	case *SWhile:
		s.Test = t.TransformExpr(s.Test)
		s.Body = t.TransformStmt(s.Body)

	case *SWith:
		s.Value = t.TransformExpr(s.Value)
		s.Body = t.TransformStmt(s.Body)

	case *STry:
		s.Body = t.TransformStmts(s.Body)
		if s.Catch != nil {
			s.Catch.Body = t.TransformStmts(s.Catch.Body)
		}
		if s.Finally != nil {
			s.Finally.Stmts = t.TransformStmts(s.Finally.Stmts)
		}

	case *SSwitch:
		s.Test = t.TransformExpr(s.Test)
		for i := range s.Cases {
			s.Cases[i].Value = t.transformOptionalExpr(s.Cases[i].Value)
			s.Cases[i].Body = t.TransformStmts(s.Cases[i].Body)
		}

	case *SReturn:
		s.Value = t.transformOptionalExpr(s.Value)

	case *SThrow:
		s.Value = t.TransformExpr(s.Value)

	case *SLocal:
		decls := s.Decls[:0]
		for i := range s.Decls {
			decl := s.Decls[i]
			decl.Value = t.transformOptionalExpr(decl.Value)
			decls = append(decls, decl)
		}
		s.Decls = decls

	case *SExport:
		if s.Decl != nil {
			decl := t.TransformStmt(*s.Decl)
			s.Decl = &decl
		}
		if s.DefaultExpr != nil {
			*s.DefaultExpr = t.TransformExpr(*s.DefaultExpr)
		}
	}

	if t.AfterStmt != nil {
		result, action := t.AfterStmt(stmt, inList)
		if action == TransformRemove {
			return stmt, TransformRemove
		}
		if action == TransformReplace {
			return result, TransformKeep
		}
	}
	return stmt, TransformKeep
}

func (t *Transformer) transformExpr(expr Expr, inList bool) (Expr, TransformAction) {
	if t.BeforeExpr != nil {
		result, action := t.BeforeExpr(expr, inList)
		switch action {
		case TransformReplace:
			return result, TransformKeep
		case TransformRemove:
			return expr, TransformRemove
		}
		expr = result
	}

	switch e := expr.Data.(type) {
	case *EArray:
		e.Items = t.transformExprs(e.Items)

	case *EUnary:
		e.Value = t.TransformExpr(e.Value)

	case *EBinary:
		e.Left = t.TransformExpr(e.Left)
		e.Right = t.TransformExpr(e.Right)

	case *ESequence:
		e.Exprs = t.transformExprs(e.Exprs)

	case *ENew:
		e.Target = t.TransformExpr(e.Target)
		e.Args = t.transformExprs(e.Args)

	case *ECall:
		e.Target = t.TransformExpr(e.Target)
		e.Args = t.transformExprs(e.Args)

	case *EDot:
		e.Target = t.TransformExpr(e.Target)

	case *EIndex:
		e.Target = t.TransformExpr(e.Target)
		e.Index = t.TransformExpr(e.Index)

	case *EArrow:
		t.transformArgs(e.Args)
		e.Body.Stmts = t.TransformStmts(e.Body.Stmts)

	case *EFunction:
		t.transformFn(&e.Fn)

	case *EClass:
		t.transformClass(&e.Class)

	case *EObject:
		t.transformProperties(e.Properties)

	case *ESpread:
		e.Value = t.TransformExpr(e.Value)

	case *ETemplate:
		if e.Tag != nil {
			*e.Tag = t.TransformExpr(*e.Tag)
		}
		for i := range e.Parts {
			e.Parts[i].Value = t.TransformExpr(e.Parts[i].Value)
		}

	case *EAwait:
		e.Value = t.TransformExpr(e.Value)

	case *EYield:
		e.Value = t.transformOptionalExpr(e.Value)

	case *EIf:
		e.Test = t.TransformExpr(e.Test)
		e.Yes = t.TransformExpr(e.Yes)
		e.No = t.TransformExpr(e.No)

	case *EImport:
		e.Expr = t.TransformExpr(e.Expr)
	}

	if t.AfterExpr != nil {
		result, action := t.AfterExpr(expr, inList)
		if action == TransformRemove {
			return expr, TransformRemove
		}
		if action == TransformReplace {
			return result, TransformKeep
		}
	}
	return expr, TransformKeep
}
