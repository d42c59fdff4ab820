package js_ast

// Walker visits every node pre-order. A visit callback returns true to
// descend into the node's children (the default when the callback is nil) or
// false to skip them. Stop aborts the rest of the walk entirely.
type Walker struct {
	VisitStmt    func(stmt *Stmt) bool
	VisitExpr    func(expr *Expr) bool
	VisitBinding func(binding *Binding) bool

	stopped bool
}

// Stop aborts the walk. No further callbacks fire after the current one.
func (w *Walker) Stop() {
	w.stopped = true
}

func (w *Walker) WalkStmts(stmts []Stmt) {
	for i := range stmts {
		if w.stopped {
			return
		}
		w.WalkStmt(&stmts[i])
	}
}

func (w *Walker) walkExprs(exprs []Expr) {
	for i := range exprs {
		if w.stopped {
			return
		}
		w.WalkExpr(&exprs[i])
	}
}

func (w *Walker) walkFn(fn *Fn) {
	w.walkArgs(fn.Args)
	w.WalkStmts(fn.Body.Stmts)
}

func (w *Walker) walkArgs(args []Arg) {
	for i := range args {
		if w.stopped {
			return
		}
		w.WalkBinding(&args[i].Binding)
		if args[i].Default != nil {
			w.WalkExpr(args[i].Default)
		}
	}
}

func (w *Walker) walkClass(class *Class) {
	if class.Extends != nil {
		w.WalkExpr(class.Extends)
	}
	w.walkProperties(class.Properties)
}

func (w *Walker) walkProperties(properties []Property) {
	for i := range properties {
		if w.stopped {
			return
		}
		prop := &properties[i]
		if prop.Kind != PropertySpread {
			w.WalkExpr(&prop.Key)
		}
		if prop.Value != nil {
			w.WalkExpr(prop.Value)
		}
		if prop.Initializer != nil {
			w.WalkExpr(prop.Initializer)
		}
	}
}

func (w *Walker) WalkBinding(binding *Binding) {
	if w.stopped {
		return
	}
	if w.VisitBinding != nil && !w.VisitBinding(binding) {
		return
	}
	switch b := binding.Data.(type) {
	case *BArray:
		for i := range b.Items {
			w.WalkBinding(&b.Items[i].Binding)
			if b.Items[i].DefaultValue != nil {
				w.WalkExpr(b.Items[i].DefaultValue)
			}
		}
	case *BObject:
		for i := range b.Properties {
			p := &b.Properties[i]
			if !p.IsSpread {
				w.WalkExpr(&p.Key)
			}
			w.WalkBinding(&p.Value)
			if p.DefaultValue != nil {
				w.WalkExpr(p.DefaultValue)
			}
		}
	}
}

func (w *Walker) WalkStmt(stmt *Stmt) {
	if w.stopped {
		return
	}
	if w.VisitStmt != nil && !w.VisitStmt(stmt) {
		return
	}

	switch s := stmt.Data.(type) {
	case *SBlock:
		w.WalkStmts(s.Stmts)

	case *SExpr:
		w.WalkExpr(&s.Value)

	case *SFunction:
		w.walkFn(&s.Fn)

	case *SClass:
		w.walkClass(&s.Class)

	case *SLabel:
		w.WalkStmt(&s.Stmt)

	case *SIf:
		w.WalkExpr(&s.Test)
		w.WalkStmt(&s.Yes)
		if s.No != nil {
			w.WalkStmt(s.No)
		}

	case *SFor:
		if s.Init != nil {
			w.WalkStmt(s.Init)
		}
		if s.Test != nil {
			w.WalkExpr(s.Test)
		}
		if s.Update != nil {
			w.WalkExpr(s.Update)
		}
		w.WalkStmt(&s.Body)

	case *SForIn:
		w.WalkStmt(&s.Init)
		w.WalkExpr(&s.Value)
		w.WalkStmt(&s.Body)

	case *SForOf:
		w.WalkStmt(&s.Init)
		w.WalkExpr(&s.Value)
		w.WalkStmt(&s.Body)

	case *SDoWhile:
		w.WalkStmt(&s.Body)
		w.WalkExpr(&s.Test)

	case *SWhile:
		w.WalkExpr(&s.Test)
		w.WalkStmt(&s.Body)

	case *SWith:
		w.WalkExpr(&s.Value)
		w.WalkStmt(&s.Body)

	case *STry:
		w.WalkStmts(s.Body)
		if s.Catch != nil {
			if s.Catch.Binding != nil {
				w.WalkBinding(s.Catch.Binding)
			}
			w.WalkStmts(s.Catch.Body)
		}
		if s.Finally != nil {
			w.WalkStmts(s.Finally.Stmts)
		}

	case *SSwitch:
		w.WalkExpr(&s.Test)
		for i := range s.Cases {
			if s.Cases[i].Value != nil {
				w.WalkExpr(s.Cases[i].Value)
			}
			w.WalkStmts(s.Cases[i].Body)
		}

	case *SReturn:
		if s.Value != nil {
			w.WalkExpr(s.Value)
		}

	case *SThrow:
		w.WalkExpr(&s.Value)

	case *SLocal:
		for i := range s.Decls {
			w.WalkBinding(&s.Decls[i].Binding)
			if s.Decls[i].Value != nil {
				w.WalkExpr(s.Decls[i].Value)
			}
		}

	case *SExport:
		if s.Decl != nil {
			w.WalkStmt(s.Decl)
		}
		if s.DefaultExpr != nil {
			w.WalkExpr(s.DefaultExpr)
		}
	}
}

func (w *Walker) WalkExpr(expr *Expr) {
	if w.stopped {
		return
	}
	if w.VisitExpr != nil && !w.VisitExpr(expr) {
		return
	}

	switch e := expr.Data.(type) {
	case *EArray:
		w.walkExprs(e.Items)

	case *EUnary:
		w.WalkExpr(&e.Value)

	case *EBinary:
		w.WalkExpr(&e.Left)
		w.WalkExpr(&e.Right)

	case *ESequence:
		w.walkExprs(e.Exprs)

	case *ENew:
		w.WalkExpr(&e.Target)
		w.walkExprs(e.Args)

	case *ECall:
		w.WalkExpr(&e.Target)
		w.walkExprs(e.Args)

	case *EDot:
		w.WalkExpr(&e.Target)

	case *EIndex:
		w.WalkExpr(&e.Target)
		w.WalkExpr(&e.Index)

	case *EArrow:
		w.walkArgs(e.Args)
		w.WalkStmts(e.Body.Stmts)

	case *EFunction:
		w.walkFn(&e.Fn)

	case *EClass:
		w.walkClass(&e.Class)

	case *EObject:
		w.walkProperties(e.Properties)

	case *ESpread:
		w.WalkExpr(&e.Value)

	case *ETemplate:
		if e.Tag != nil {
			w.WalkExpr(e.Tag)
		}
		for i := range e.Parts {
			w.WalkExpr(&e.Parts[i].Value)
		}

	case *EAwait:
		w.WalkExpr(&e.Value)

	case *EYield:
		if e.Value != nil {
			w.WalkExpr(e.Value)
		}

	case *EIf:
		w.WalkExpr(&e.Test)
		w.WalkExpr(&e.Yes)
		w.WalkExpr(&e.No)

	case *EImport:
		w.WalkExpr(&e.Expr)
	}
}
