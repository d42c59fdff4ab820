package js_printer

import (
	"strings"

	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_lexer"
	"github.com/miroslavpokorny/Njsast/internal/js_types"
)

type Options struct {
	// Indented, human-readable output instead of minified output
	Beautify bool
}

// Print renders a tree back to JavaScript text.
func Print(tree *js_ast.AST, options Options) []byte {
	p := &printer{options: options}
	p.printStmts(tree.Stmts)
	return p.js
}

// PrintExpr renders a single expression, for tests and diagnostics.
func PrintExpr(expr js_ast.Expr, options Options) []byte {
	p := &printer{options: options}
	p.printExpr(expr, js_ast.LLowest, 0)
	return p.js
}

type printFlags uint8

const (
	forbidCall printFlags = 1 << iota
	forbidIn
)

type printer struct {
	options Options
	js      []byte
	indent  int

	// Used to detect positions where an object literal or function
	// expression would parse as a statement
	stmtStart int
}

func (p *printer) print(text string) {
	p.js = append(p.js, text...)
}

func (p *printer) printSpace() {
	if p.options.Beautify {
		p.print(" ")
	}
}

func (p *printer) printNewline() {
	if p.options.Beautify {
		p.print("\n")
	}
}

func (p *printer) printIndent() {
	if p.options.Beautify {
		p.print(strings.Repeat("  ", p.indent))
	}
}

func (p *printer) printSemicolonAfterStatement() {
	p.print(";")
	p.printNewline()
}

// printSpaceBeforeOperand separates "+ +x" and "- -x" so they don't merge
// into "++x"/"--x".
func (p *printer) printSpaceBeforeOperand(next js_ast.Expr) {
	if len(p.js) == 0 {
		return
	}
	last := p.js[len(p.js)-1]
	if unary, ok := next.Data.(*js_ast.EUnary); ok {
		text := js_ast.OpTable[unary.Op].Text
		if (last == '+' && text[0] == '+') || (last == '-' && text[0] == '-') {
			p.print(" ")
		}
	}
}

func (p *printer) printIdentifier(name string, thedef *js_ast.SymbolDef) {
	if thedef != nil {
		p.print(thedef.EffectiveName())
		return
	}
	p.print(name)
}

func (p *printer) printQuotedString(value string) {
	p.js = append(p.js, '"')
	for _, c := range value {
		switch c {
		case '"':
			p.print("\\\"")
		case '\\':
			p.print("\\\\")
		case '\n':
			p.print("\\n")
		case '\r':
			p.print("\\r")
		case '\t':
			p.print("\\t")
		case '\b':
			p.print("\\b")
		case '\f':
			p.print("\\f")
		case '\v':
			p.print("\\v")
		case 0:
			p.print("\\0")
		case 0x2028:
			p.print("\\u2028")
		case 0x2029:
			p.print("\\u2029")
		default:
			if c < 0x20 {
				p.print("\\x")
				p.js = append(p.js, "0123456789abcdef"[c>>4], "0123456789abcdef"[c&15])
			} else {
				p.js = appendRune(p.js, c)
			}
		}
	}
	p.js = append(p.js, '"')
}

func appendRune(js []byte, c rune) []byte {
	return append(js, string(c)...)
}

func (p *printer) printStmts(stmts []js_ast.Stmt) {
	for _, stmt := range stmts {
		p.printStmt(stmt)
	}
}

func (p *printer) printBlock(stmts []js_ast.Stmt) {
	p.print("{")
	p.printNewline()
	p.indent++
	p.printStmts(stmts)
	p.indent--
	p.printIndent()
	p.print("}")
}

// printBody prints a statement in single-statement position (the body of an
// if, loop, etc.).
func (p *printer) printBody(body js_ast.Stmt) {
	if block, ok := body.Data.(*js_ast.SBlock); ok {
		p.printSpace()
		p.printBlock(block.Stmts)
		p.printNewline()
		return
	}
	p.printNewline()
	p.indent++
	p.printStmt(body)
	p.indent--
}

// endsWithDanglingIf is true when a statement's trailing branch is an "if"
// without an "else", which would capture a following "else".
func endsWithDanglingIf(stmt js_ast.Stmt) bool {
	switch s := stmt.Data.(type) {
	case *js_ast.SIf:
		if s.No == nil {
			return true
		}
		return endsWithDanglingIf(*s.No)
	case *js_ast.SFor:
		return endsWithDanglingIf(s.Body)
	case *js_ast.SForIn:
		return endsWithDanglingIf(s.Body)
	case *js_ast.SForOf:
		return endsWithDanglingIf(s.Body)
	case *js_ast.SWhile:
		return endsWithDanglingIf(s.Body)
	case *js_ast.SWith:
		return endsWithDanglingIf(s.Body)
	case *js_ast.SLabel:
		return endsWithDanglingIf(s.Stmt)
	}
	return false
}

func (p *printer) printStmt(stmt js_ast.Stmt) {
	p.printIndent()

	switch s := stmt.Data.(type) {
	case *js_ast.SEmpty:
		p.print(";")
		p.printNewline()

	case *js_ast.SBlock:
		p.printBlock(s.Stmts)
		p.printNewline()

	case *js_ast.SDebugger:
		p.print("debugger")
		p.printSemicolonAfterStatement()

	case *js_ast.SDirective:
		p.printQuotedString(s.Value)
		p.printSemicolonAfterStatement()

	case *js_ast.SExpr:
		if leftmostIsObject(s.Value) {
			// "{a} = b" would parse as a block; the whole expression gets
			// wrapped instead of just the object
			p.print("(")
			p.printExpr(s.Value, js_ast.LLowest, 0)
			p.print(")")
		} else {
			p.stmtStart = len(p.js)
			p.printExpr(s.Value, js_ast.LLowest, 0)
		}
		p.printSemicolonAfterStatement()

	case *js_ast.SFunction:
		if s.Fn.IsAsync {
			p.print("async ")
		}
		p.print("function")
		if s.Fn.IsGenerator {
			p.print("*")
		}
		p.print(" ")
		if s.Fn.Name != nil {
			p.printIdentifier(s.Fn.Name.Name, s.Fn.Name.Thedef)
		}
		p.printFnArgsAndBody(s.Fn.Args, s.Fn.HasRestArg, s.Fn.Body)
		p.printNewline()

	case *js_ast.SClass:
		p.printClass(&s.Class, true)
		p.printNewline()

	case *js_ast.SLabel:
		p.print(s.Name.Name)
		p.print(":")
		p.printBody(s.Stmt)

	case *js_ast.SIf:
		p.printIf(s)

	case *js_ast.SFor:
		p.print("for")
		p.printSpace()
		p.print("(")
		if s.Init != nil {
			p.printForLoopInit(*s.Init)
		}
		p.print(";")
		p.printSpace()
		if s.Test != nil {
			p.printExpr(*s.Test, js_ast.LLowest, 0)
		}
		p.print(";")
		p.printSpace()
		if s.Update != nil {
			p.printExpr(*s.Update, js_ast.LLowest, 0)
		}
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SForIn:
		p.print("for")
		p.printSpace()
		p.print("(")
		p.printForLoopInit(s.Init)
		p.print(" in ")
		p.printExpr(s.Value, js_ast.LLowest, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SForOf:
		p.print("for")
		p.printSpace()
		p.print("(")
		p.printForLoopInit(s.Init)
		p.print(" of ")
		p.printExpr(s.Value, js_ast.LComma, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SDoWhile:
		p.print("do")
		if block, ok := s.Body.Data.(*js_ast.SBlock); ok {
			p.printSpace()
			p.printBlock(block.Stmts)
			p.printSpace()
		} else {
			p.print(" ")
			p.printNewline()
			p.indent++
			p.printStmt(s.Body)
			p.indent--
			p.printIndent()
		}
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(s.Test, js_ast.LLowest, 0)
		p.print(")")
		p.printSemicolonAfterStatement()

	case *js_ast.SWhile:
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(s.Test, js_ast.LLowest, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SWith:
		p.print("with")
		p.printSpace()
		p.print("(")
		p.printExpr(s.Value, js_ast.LLowest, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.STry:
		p.print("try")
		p.printSpace()
		p.printBlock(s.Body)
		if s.Catch != nil {
			p.printSpace()
			p.print("catch")
			if s.Catch.Binding != nil {
				p.printSpace()
				p.print("(")
				p.printBinding(*s.Catch.Binding)
				p.print(")")
			}
			p.printSpace()
			p.printBlock(s.Catch.Body)
		}
		if s.Finally != nil {
			p.printSpace()
			p.print("finally")
			p.printSpace()
			p.printBlock(s.Finally.Stmts)
		}
		p.printNewline()

	case *js_ast.SSwitch:
		p.print("switch")
		p.printSpace()
		p.print("(")
		p.printExpr(s.Test, js_ast.LLowest, 0)
		p.print(")")
		p.printSpace()
		p.print("{")
		p.printNewline()
		p.indent++
		for _, c := range s.Cases {
			p.printIndent()
			if c.Value != nil {
				p.print("case ")
				p.printExpr(*c.Value, js_ast.LLowest, 0)
			} else {
				p.print("default")
			}
			p.print(":")
			p.printNewline()
			p.indent++
			p.printStmts(c.Body)
			p.indent--
		}
		p.indent--
		p.printIndent()
		p.print("}")
		p.printNewline()

	case *js_ast.SReturn:
		p.print("return")
		if s.Value != nil {
			p.print(" ")
			p.printExpr(*s.Value, js_ast.LLowest, 0)
		}
		p.printSemicolonAfterStatement()

	case *js_ast.SThrow:
		p.print("throw ")
		p.printExpr(s.Value, js_ast.LLowest, 0)
		p.printSemicolonAfterStatement()

	case *js_ast.SLocal:
		p.printDecls(s.Kind, s.Decls)
		p.printSemicolonAfterStatement()

	case *js_ast.SBreak:
		p.print("break")
		if s.Label != nil {
			p.print(" ")
			p.print(s.Label.Name)
		}
		p.printSemicolonAfterStatement()

	case *js_ast.SContinue:
		p.print("continue")
		if s.Label != nil {
			p.print(" ")
			p.print(s.Label.Name)
		}
		p.printSemicolonAfterStatement()

	case *js_ast.SImport:
		p.printImport(s)

	case *js_ast.SExport:
		p.printExport(s)

	default:
		panic("Internal error: unexpected statement type")
	}
}

func (p *printer) printIf(s *js_ast.SIf) {
	p.print("if")
	p.printSpace()
	p.print("(")
	p.printExpr(s.Test, js_ast.LLowest, 0)
	p.print(")")

	yes := s.Yes
	wrapYes := s.No != nil && endsWithDanglingIf(yes)

	if block, ok := yes.Data.(*js_ast.SBlock); ok && !wrapYes {
		p.printSpace()
		p.printBlock(block.Stmts)
		if s.No != nil {
			p.printSpace()
		} else {
			p.printNewline()
		}
	} else if wrapYes {
		p.printSpace()
		p.print("{")
		p.printNewline()
		p.indent++
		p.printStmt(yes)
		p.indent--
		p.printIndent()
		p.print("}")
		if s.No != nil {
			p.printSpace()
		} else {
			p.printNewline()
		}
	} else {
		p.printNewline()
		p.indent++
		p.printStmt(yes)
		p.indent--
		if s.No != nil {
			p.printIndent()
		}
	}

	if s.No != nil {
		p.print("else")
		if elseIf, ok := s.No.Data.(*js_ast.SIf); ok {
			p.print(" ")
			p.printIf(elseIf)
		} else if block, ok := s.No.Data.(*js_ast.SBlock); ok {
			p.printSpace()
			p.printBlock(block.Stmts)
			p.printNewline()
		} else {
			p.print(" ")
			p.printNewline()
			p.indent++
			p.printStmt(*s.No)
			p.indent--
		}
	}
}

func (p *printer) printForLoopInit(init js_ast.Stmt) {
	switch s := init.Data.(type) {
	case *js_ast.SExpr:
		p.printExpr(s.Value, js_ast.LLowest, forbidIn)
	case *js_ast.SLocal:
		p.printDecls(s.Kind, s.Decls)
	default:
		panic("Internal error: unexpected for-loop initializer")
	}
}

func (p *printer) printDecls(kind js_ast.LocalKind, decls []js_ast.Decl) {
	p.print(kind.String())
	p.print(" ")
	for i, decl := range decls {
		if i != 0 {
			p.print(",")
			p.printSpace()
		}
		p.printBinding(decl.Binding)
		if decl.Value != nil {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.printExpr(*decl.Value, js_ast.LComma, forbidIn)
		}
	}
}

func (p *printer) printBinding(binding js_ast.Binding) {
	switch b := binding.Data.(type) {
	case *js_ast.BMissing:

	case *js_ast.BIdentifier:
		p.printIdentifier(b.Name, b.Thedef)

	case *js_ast.BArray:
		p.print("[")
		for i, item := range b.Items {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			if b.HasSpread && i == len(b.Items)-1 {
				p.print("...")
			}
			p.printBinding(item.Binding)
			if item.DefaultValue != nil {
				p.printSpace()
				p.print("=")
				p.printSpace()
				p.printExpr(*item.DefaultValue, js_ast.LComma, 0)
			}
		}
		p.print("]")

	case *js_ast.BObject:
		p.print("{")
		for i, property := range b.Properties {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			p.printSpace()
			if property.IsSpread {
				p.print("...")
				p.printBinding(property.Value)
			} else {
				if property.IsComputed {
					p.print("[")
					p.printExpr(property.Key, js_ast.LComma, 0)
					p.print("]")
					p.print(":")
					p.printSpace()
					p.printBinding(property.Value)
				} else {
					shorthand := false
					if str, ok := property.Key.Data.(*js_ast.EString); ok {
						if id, ok := property.Value.Data.(*js_ast.BIdentifier); ok &&
							str.Value == id.Name && id.Thedef == nil {
							// The binding name is unchanged, use shorthand
							p.printIdentifier(id.Name, nil)
							shorthand = true
						} else if id, ok := property.Value.Data.(*js_ast.BIdentifier); ok &&
							id.Thedef != nil && str.Value == id.Thedef.EffectiveName() {
							p.printIdentifier(id.Name, id.Thedef)
							shorthand = true
						}
					}
					if !shorthand {
						p.printPropertyKey(property.Key)
						p.print(":")
						p.printSpace()
						p.printBinding(property.Value)
					}
				}
				if property.DefaultValue != nil {
					p.printSpace()
					p.print("=")
					p.printSpace()
					p.printExpr(*property.DefaultValue, js_ast.LComma, 0)
				}
			}
		}
		p.printSpace()
		p.print("}")

	default:
		panic("Internal error: unexpected binding type")
	}
}

func (p *printer) printPropertyKey(key js_ast.Expr) {
	switch k := key.Data.(type) {
	case *js_ast.EString:
		if js_lexer.IsIdentifier(k.Value) {
			p.print(k.Value)
		} else {
			p.printQuotedString(k.Value)
		}
	case *js_ast.ENumber:
		p.print(js_types.NumberToString(k.Value))
	default:
		p.printExpr(key, js_ast.LComma, 0)
	}
}

func (p *printer) printImport(s *js_ast.SImport) {
	p.print("import")

	hasClause := false
	if s.DefaultName != nil {
		p.print(" ")
		p.printIdentifier(s.DefaultName.Name, s.DefaultName.Thedef)
		hasClause = true
	}
	if s.StarName != nil {
		if hasClause {
			p.print(",")
			p.printSpace()
		} else {
			p.print(" ")
		}
		p.print("* as ")
		p.printIdentifier(s.StarName.Name, s.StarName.Thedef)
		hasClause = true
	} else if s.Mappings != nil {
		if hasClause {
			p.print(",")
			p.printSpace()
		} else {
			p.print(" ")
		}
		p.print("{")
		for i, m := range s.Mappings {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			p.printSpace()
			p.print(m.Foreign)
			if m.Local.Name != m.Foreign {
				p.print(" as ")
				p.printIdentifier(m.Local.Name, m.Local.Thedef)
			}
		}
		p.printSpace()
		p.print("}")
		hasClause = true
	}

	if hasClause {
		p.print(" from")
		p.printSpace()
	} else {
		p.print(" ")
	}
	p.printQuotedString(s.Source)
	p.printSemicolonAfterStatement()
}

func (p *printer) printExport(s *js_ast.SExport) {
	p.print("export")

	switch {
	case s.IsStar:
		p.print(" * from")
		p.printSpace()
		p.printQuotedString(s.Source)
		p.printSemicolonAfterStatement()

	case s.IsDefault:
		p.print(" default ")
		if s.Decl != nil {
			p.printExportedDecl(*s.Decl)
		} else if s.DefaultExpr != nil {
			p.printExpr(*s.DefaultExpr, js_ast.LComma, 0)
			p.printSemicolonAfterStatement()
		}

	case s.Decl != nil:
		p.print(" ")
		p.printExportedDecl(*s.Decl)

	default:
		p.print(" {")
		for i, m := range s.Mappings {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			p.printSpace()
			p.print(m.Local.Name)
			if m.Foreign != m.Local.Name {
				p.print(" as ")
				p.print(m.Foreign)
			}
		}
		p.printSpace()
		p.print("}")
		if s.Source != "" {
			p.print(" from")
			p.printSpace()
			p.printQuotedString(s.Source)
		}
		p.printSemicolonAfterStatement()
	}
}

// printExportedDecl prints the declaration in "export <decl>" position. The
// indent was already printed by the export statement.
func (p *printer) printExportedDecl(decl js_ast.Stmt) {
	switch s := decl.Data.(type) {
	case *js_ast.SFunction:
		if s.Fn.IsAsync {
			p.print("async ")
		}
		p.print("function")
		if s.Fn.IsGenerator {
			p.print("*")
		}
		if s.Fn.Name != nil {
			p.print(" ")
			p.printIdentifier(s.Fn.Name.Name, s.Fn.Name.Thedef)
		}
		p.printFnArgsAndBody(s.Fn.Args, s.Fn.HasRestArg, s.Fn.Body)
		p.printNewline()

	case *js_ast.SClass:
		p.printClass(&s.Class, true)
		p.printNewline()

	case *js_ast.SLocal:
		p.printDecls(s.Kind, s.Decls)
		p.printSemicolonAfterStatement()

	default:
		panic("Internal error: unexpected exported declaration")
	}
}

func (p *printer) printFnArgsAndBody(args []js_ast.Arg, hasRest bool, body js_ast.FnBody) {
	p.print("(")
	for i, arg := range args {
		if i != 0 {
			p.print(",")
			p.printSpace()
		}
		if hasRest && i == len(args)-1 {
			p.print("...")
		}
		p.printBinding(arg.Binding)
		if arg.Default != nil {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.printExpr(*arg.Default, js_ast.LComma, 0)
		}
	}
	p.print(")")
	p.printSpace()
	p.printBlock(body.Stmts)
}

func (p *printer) printClass(class *js_ast.Class, _ bool) {
	p.print("class")
	if class.Name != nil {
		p.print(" ")
		p.printIdentifier(class.Name.Name, class.Name.Thedef)
	}
	if class.Extends != nil {
		p.print(" extends ")
		p.printExpr(*class.Extends, js_ast.LNew, 0)
	}
	p.printSpace()
	p.print("{")
	p.printNewline()
	p.indent++

	for _, property := range class.Properties {
		p.printIndent()
		if property.IsStatic {
			p.print("static ")
		}
		p.printProperty(property, true)
		p.printNewline()
	}

	p.indent--
	p.printIndent()
	p.print("}")
}

func (p *printer) printProperty(property js_ast.Property, isClassMember bool) {
	if property.Kind == js_ast.PropertySpread {
		p.print("...")
		p.printExpr(*property.Value, js_ast.LComma, 0)
		return
	}

	if property.Kind == js_ast.PropertyGet {
		p.print("get ")
	} else if property.Kind == js_ast.PropertySet {
		p.print("set ")
	}

	if property.IsMethod || property.Kind == js_ast.PropertyGet || property.Kind == js_ast.PropertySet {
		fn := property.Value.Data.(*js_ast.EFunction)
		if fn.Fn.IsAsync {
			p.print("async ")
		}
		if fn.Fn.IsGenerator {
			p.print("*")
		}
		if property.IsComputed {
			p.print("[")
			p.printExpr(property.Key, js_ast.LComma, 0)
			p.print("]")
		} else {
			p.printPropertyKey(property.Key)
		}
		p.printFnArgsAndBody(fn.Fn.Args, fn.Fn.HasRestArg, fn.Fn.Body)
		return
	}

	if property.IsComputed {
		p.print("[")
		p.printExpr(property.Key, js_ast.LComma, 0)
		p.print("]")
		p.print(":")
		p.printSpace()
		p.printExpr(*property.Value, js_ast.LComma, 0)
		return
	}

	// Shorthand is possible when the value is an identifier whose printed
	// name still matches the key
	if property.WasShorthand {
		if str, ok := property.Key.Data.(*js_ast.EString); ok {
			if id, ok := property.Value.Data.(*js_ast.EIdentifier); ok {
				name := id.Name
				if id.Thedef != nil {
					name = id.Thedef.EffectiveName()
				}
				if name == str.Value {
					p.print(name)
					if property.Initializer != nil {
						p.printSpace()
						p.print("=")
						p.printSpace()
						p.printExpr(*property.Initializer, js_ast.LComma, 0)
					}
					return
				}
			}
		}
	}

	p.printPropertyKey(property.Key)
	p.print(":")
	p.printSpace()
	p.printExpr(*property.Value, js_ast.LComma, 0)
	if property.Initializer != nil {
		p.printSpace()
		p.print("=")
		p.printSpace()
		p.printExpr(*property.Initializer, js_ast.LComma, 0)
	}
}

// leftmostIsObject reports whether the first token the expression prints is
// "{", which would make an expression statement parse as a block.
func leftmostIsObject(expr js_ast.Expr) bool {
	for {
		switch e := expr.Data.(type) {
		case *js_ast.EObject:
			return true
		case *js_ast.EBinary:
			expr = e.Left
		case *js_ast.ESequence:
			expr = e.Exprs[0]
		case *js_ast.EIf:
			expr = e.Test
		case *js_ast.ECall:
			expr = e.Target
		case *js_ast.ENew:
			return false
		case *js_ast.EDot:
			expr = e.Target
		case *js_ast.EIndex:
			expr = e.Target
		case *js_ast.ETemplate:
			if e.Tag == nil {
				return false
			}
			expr = *e.Tag
		case *js_ast.EUnary:
			if e.Op.IsPrefix() {
				return false
			}
			expr = e.Value
		default:
			return false
		}
	}
}
