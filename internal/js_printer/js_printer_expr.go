package js_printer

import (
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_types"
)

func (p *printer) printExpr(expr js_ast.Expr, level js_ast.L, flags printFlags) {
	switch e := expr.Data.(type) {
	case *js_ast.EMissing:

	case *js_ast.EUndefined:
		// Printed as "void 0", parenthesized inside a prefix or tighter
		// context
		if level >= js_ast.LPrefix {
			p.print("(void 0)")
		} else {
			p.print("void 0")
		}

	case *js_ast.ESuper:
		p.print("super")

	case *js_ast.ENull:
		p.print("null")

	case *js_ast.EThis:
		p.print("this")

	case *js_ast.EBoolean:
		if e.Value {
			p.print("true")
		} else {
			p.print("false")
		}

	case *js_ast.ENumber:
		value := e.Value
		text := js_types.NumberToString(value)
		if text[0] == '-' && level >= js_ast.LPrefix {
			p.print("(")
			p.print(text)
			p.print(")")
		} else {
			if len(p.js) > 0 && p.js[len(p.js)-1] == '-' && text[0] == '-' {
				p.print(" ")
			}
			p.print(text)
		}

	case *js_ast.EString:
		p.printQuotedString(e.Value)

	case *js_ast.ERegExp:
		// A slash after a slash would start a line comment
		if len(p.js) > 0 && p.js[len(p.js)-1] == '/' {
			p.print(" ")
		}
		p.print("/")
		p.print(e.Pattern)
		p.print("/")
		p.print(e.Flags)

	case *js_ast.EIdentifier:
		p.printIdentifier(e.Name, e.Thedef)

	case *js_ast.ENewTarget:
		p.print("new.target")

	case *js_ast.ESpread:
		p.print("...")
		p.printExpr(e.Value, js_ast.LComma, 0)

	case *js_ast.EArray:
		p.print("[")
		for i, item := range e.Items {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			p.printExpr(item, js_ast.LComma, 0)

			// A trailing missing element needs a trailing comma to survive
			// a reparse
			if i == len(e.Items)-1 {
				if _, ok := item.Data.(*js_ast.EMissing); ok {
					p.print(",")
				}
			}
		}
		p.print("]")

	case *js_ast.EObject:
		wrap := p.stmtStart == len(p.js)
		if wrap {
			p.print("(")
		}
		p.print("{")
		for i, property := range e.Properties {
			if i != 0 {
				p.print(",")
			}
			p.printSpace()
			p.printProperty(property, false)
		}
		p.printSpace()
		p.print("}")
		if wrap {
			p.print(")")
		}

	case *js_ast.EFunction:
		wrap := p.stmtStart == len(p.js)
		if wrap {
			p.print("(")
		}
		if e.Fn.IsAsync {
			p.print("async ")
		}
		p.print("function")
		if e.Fn.IsGenerator {
			p.print("*")
		}
		if e.Fn.Name != nil {
			p.print(" ")
			p.printIdentifier(e.Fn.Name.Name, e.Fn.Name.Thedef)
		}
		p.printFnArgsAndBody(e.Fn.Args, e.Fn.HasRestArg, e.Fn.Body)
		if wrap {
			p.print(")")
		}

	case *js_ast.EClass:
		wrap := p.stmtStart == len(p.js)
		if wrap {
			p.print("(")
		}
		p.printClass(&e.Class, false)
		if wrap {
			p.print(")")
		}

	case *js_ast.EArrow:
		wrap := level >= js_ast.LAssign
		if wrap {
			p.print("(")
		}
		if e.IsAsync {
			p.print("async ")
		}

		// A single identifier argument needs no parentheses
		if len(e.Args) == 1 && e.Args[0].Default == nil && !e.HasRestArg {
			if _, ok := e.Args[0].Binding.Data.(*js_ast.BIdentifier); ok {
				p.printBinding(e.Args[0].Binding)
			} else {
				p.printArrowArgs(e)
			}
		} else {
			p.printArrowArgs(e)
		}

		p.printSpace()
		p.print("=>")
		p.printSpace()

		if e.PreferExpr && len(e.Body.Stmts) == 1 {
			if ret, ok := e.Body.Stmts[0].Data.(*js_ast.SReturn); ok && ret.Value != nil {
				p.printArrowExprBody(*ret.Value)
				if wrap {
					p.print(")")
				}
				return
			}
		}

		p.printBlock(e.Body.Stmts)
		if wrap {
			p.print(")")
		}

	case *js_ast.ENew:
		wrap := level >= js_ast.LCall
		if wrap {
			p.print("(")
		}
		p.print("new ")
		p.printExpr(e.Target, js_ast.LNew, forbidCall)
		p.print("(")
		for i, arg := range e.Args {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			p.printExpr(arg, js_ast.LComma, 0)
		}
		p.print(")")
		if wrap {
			p.print(")")
		}

	case *js_ast.ECall:
		wrap := level >= js_ast.LNew || (flags&forbidCall) != 0
		if wrap {
			p.print("(")
		}
		p.printExpr(e.Target, js_ast.LPostfix, flags&forbidCall)
		p.print("(")
		for i, arg := range e.Args {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			p.printExpr(arg, js_ast.LComma, 0)
		}
		p.print(")")
		if wrap {
			p.print(")")
		}

	case *js_ast.EDot:
		p.printExpr(e.Target, js_ast.LPostfix, flags&(forbidCall|forbidIn))
		// "1.toString()" is a syntax error; the dot would be a decimal point
		if num, ok := e.Target.Data.(*js_ast.ENumber); ok {
			text := js_types.NumberToString(num.Value)
			needsSpace := true
			for _, c := range text {
				if c == '.' || c == 'e' || c == 'x' || c == 'I' || c == 'N' {
					needsSpace = false
					break
				}
			}
			if needsSpace {
				p.print(" ")
			}
		}
		p.print(".")
		p.print(e.Name)

	case *js_ast.EIndex:
		p.printExpr(e.Target, js_ast.LPostfix, flags&(forbidCall|forbidIn))
		p.print("[")
		p.printExpr(e.Index, js_ast.LLowest, 0)
		p.print("]")

	case *js_ast.ETemplate:
		if e.Tag != nil {
			p.printExpr(*e.Tag, js_ast.LPostfix, 0)
		}
		p.print("`")
		p.print(e.HeadRaw)
		for _, part := range e.Parts {
			p.print("${")
			p.printExpr(part.Value, js_ast.LLowest, 0)
			p.print("}")
			p.print(part.TailRaw)
		}
		p.print("`")

	case *js_ast.EUnary:
		entry := js_ast.OpTable[e.Op]
		wrap := level >= entry.Level
		if wrap {
			p.print("(")
		}

		if e.Op.IsPrefix() {
			p.print(entry.Text)
			if entry.IsKeyword {
				p.print(" ")
			} else {
				p.printSpaceBeforeOperand(e.Value)
			}
			p.printExpr(e.Value, js_ast.LPrefix-1, 0)
		} else {
			p.printExpr(e.Value, js_ast.LPostfix-1, 0)
			p.print(entry.Text)
		}

		if wrap {
			p.print(")")
		}

	case *js_ast.EBinary:
		entry := js_ast.OpTable[e.Op]
		wrap := level >= entry.Level || (e.Op == js_ast.BinOpIn && (flags&forbidIn) != 0)
		if wrap {
			p.print("(")
			flags &= ^forbidIn
		}

		leftLevel := entry.Level - 1
		rightLevel := entry.Level - 1
		if e.Op.IsRightAssociative() {
			leftLevel = entry.Level
		}
		if e.Op.IsLeftAssociative() {
			rightLevel = entry.Level
		}

		p.printExpr(e.Left, leftLevel, flags&forbidIn)

		if entry.IsKeyword {
			p.print(" ")
			p.print(entry.Text)
			p.print(" ")
		} else {
			p.printSpace()
			p.print(entry.Text)
			p.printSpace()
			p.printSpaceBeforeOperand(e.Right)
		}

		p.printExpr(e.Right, rightLevel, flags&forbidIn)

		if wrap {
			p.print(")")
		}

	case *js_ast.ESequence:
		wrap := level >= js_ast.LComma
		if wrap {
			p.print("(")
		}
		for i, item := range e.Exprs {
			if i != 0 {
				p.print(",")
				p.printSpace()
			}
			p.printExpr(item, js_ast.LComma, flags&forbidIn)
		}
		if wrap {
			p.print(")")
		}

	case *js_ast.EIf:
		wrap := level >= js_ast.LConditional || (flags&forbidIn) != 0 && containsIn(e.Test)
		if wrap {
			p.print("(")
			flags &= ^forbidIn
		}
		p.printExpr(e.Test, js_ast.LConditional, flags&forbidIn)
		p.printSpace()
		p.print("?")
		p.printSpace()
		p.printExpr(e.Yes, js_ast.LComma, 0)
		p.printSpace()
		p.print(":")
		p.printSpace()
		p.printExpr(e.No, js_ast.LComma, flags&forbidIn)
		if wrap {
			p.print(")")
		}

	case *js_ast.EAwait:
		wrap := level >= js_ast.LPrefix
		if wrap {
			p.print("(")
		}
		p.print("await ")
		p.printExpr(e.Value, js_ast.LPrefix-1, 0)
		if wrap {
			p.print(")")
		}

	case *js_ast.EYield:
		wrap := level >= js_ast.LAssign
		if wrap {
			p.print("(")
		}
		p.print("yield")
		if e.IsStar {
			p.print("*")
		}
		if e.Value != nil {
			p.print(" ")
			p.printExpr(*e.Value, js_ast.LYield, 0)
		}
		if wrap {
			p.print(")")
		}

	case *js_ast.EImport:
		wrap := level >= js_ast.LNew || (flags&forbidCall) != 0
		if wrap {
			p.print("(")
		}
		p.print("import(")
		p.printExpr(e.Expr, js_ast.LComma, 0)
		p.print(")")
		if wrap {
			p.print(")")
		}

	default:
		panic("Internal error: unexpected expression type")
	}
}

func (p *printer) printArrowArgs(e *js_ast.EArrow) {
	p.print("(")
	for i, arg := range e.Args {
		if i != 0 {
			p.print(",")
			p.printSpace()
		}
		if e.HasRestArg && i == len(e.Args)-1 {
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
}

// printArrowExprBody prints a "=> expr" body. An object literal must be
// parenthesized so it isn't taken as a block.
func (p *printer) printArrowExprBody(value js_ast.Expr) {
	if _, ok := value.Data.(*js_ast.EObject); ok {
		p.print("(")
		p.printExpr(value, js_ast.LComma, 0)
		p.print(")")
		return
	}
	if _, ok := value.Data.(*js_ast.ESequence); ok {
		p.print("(")
		p.printExpr(value, js_ast.LLowest, 0)
		p.print(")")
		return
	}
	p.printExpr(value, js_ast.LComma, 0)
}

// containsIn reports whether an "in" operator occurs in the expression
// outside of any parenthesized-by-printing subtree. Used to parenthesize
// for-init expressions.
func containsIn(expr js_ast.Expr) bool {
	switch e := expr.Data.(type) {
	case *js_ast.EBinary:
		return e.Op == js_ast.BinOpIn || containsIn(e.Left) || containsIn(e.Right)
	case *js_ast.ESequence:
		for _, item := range e.Exprs {
			if containsIn(item) {
				return true
			}
		}
	case *js_ast.EIf:
		return containsIn(e.Test)
	}
	return false
}
