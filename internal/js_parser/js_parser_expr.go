package js_parser

import (
	"fmt"

	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_lexer"
	"github.com/miroslavpokorny/Njsast/internal/logger"
)

// Tokens that continue a binary expression, with their operator and level.
var binaryOps = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TPlus:                              js_ast.BinOpAdd,
	js_lexer.TMinus:                             js_ast.BinOpSub,
	js_lexer.TAsterisk:                          js_ast.BinOpMul,
	js_lexer.TSlash:                             js_ast.BinOpDiv,
	js_lexer.TPercent:                           js_ast.BinOpRem,
	js_lexer.TAsteriskAsterisk:                  js_ast.BinOpPow,
	js_lexer.TLessThan:                          js_ast.BinOpLt,
	js_lexer.TLessThanEquals:                    js_ast.BinOpLe,
	js_lexer.TGreaterThan:                       js_ast.BinOpGt,
	js_lexer.TGreaterThanEquals:                 js_ast.BinOpGe,
	js_lexer.TIn:                                js_ast.BinOpIn,
	js_lexer.TInstanceof:                        js_ast.BinOpInstanceof,
	js_lexer.TLessThanLessThan:                  js_ast.BinOpShl,
	js_lexer.TGreaterThanGreaterThan:            js_ast.BinOpShr,
	js_lexer.TGreaterThanGreaterThanGreaterThan: js_ast.BinOpUShr,
	js_lexer.TEqualsEquals:                      js_ast.BinOpLooseEq,
	js_lexer.TExclamationEquals:                 js_ast.BinOpLooseNe,
	js_lexer.TEqualsEqualsEquals:                js_ast.BinOpStrictEq,
	js_lexer.TExclamationEqualsEquals:           js_ast.BinOpStrictNe,
	js_lexer.TBarBar:                            js_ast.BinOpLogicalOr,
	js_lexer.TAmpersandAmpersand:                js_ast.BinOpLogicalAnd,
	js_lexer.TBar:                               js_ast.BinOpBitwiseOr,
	js_lexer.TAmpersand:                         js_ast.BinOpBitwiseAnd,
	js_lexer.TCaret:                             js_ast.BinOpBitwiseXor,
}

var assignOps = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TEquals:                                  js_ast.BinOpAssign,
	js_lexer.TPlusEquals:                              js_ast.BinOpAddAssign,
	js_lexer.TMinusEquals:                             js_ast.BinOpSubAssign,
	js_lexer.TAsteriskEquals:                          js_ast.BinOpMulAssign,
	js_lexer.TSlashEquals:                             js_ast.BinOpDivAssign,
	js_lexer.TPercentEquals:                           js_ast.BinOpRemAssign,
	js_lexer.TAsteriskAsteriskEquals:                  js_ast.BinOpPowAssign,
	js_lexer.TLessThanLessThanEquals:                  js_ast.BinOpShlAssign,
	js_lexer.TGreaterThanGreaterThanEquals:            js_ast.BinOpShrAssign,
	js_lexer.TGreaterThanGreaterThanGreaterThanEquals: js_ast.BinOpUShrAssign,
	js_lexer.TBarEquals:                               js_ast.BinOpBitwiseOrAssign,
	js_lexer.TAmpersandEquals:                         js_ast.BinOpBitwiseAndAssign,
	js_lexer.TCaretEquals:                             js_ast.BinOpBitwiseXorAssign,
}

func opLevel(op js_ast.OpCode) js_ast.L {
	return js_ast.OpTable[op].Level
}

func (p *parser) parseExpr(level js_ast.L) js_ast.Expr {
	return p.parseSuffix(p.parsePrefix(level), level)
}

// checkDestructuringErrors asserts that no pattern-only construct survived in
// expression position. Called once per statement.
func (p *parser) checkDestructuringErrors() {
	if p.shorthandAssign.Start != locUnset {
		loc := p.shorthandAssign
		p.shorthandAssign = logger.Loc{Start: locUnset}
		p.raise(loc, "Unexpected \"=\"")
	}
}

// clearDestructuringErrorsSince discards pattern-only markers recorded while
// parsing an expression that did become a pattern.
func (p *parser) clearDestructuringErrorsSince(loc logger.Loc) {
	if p.shorthandAssign.Start >= loc.Start {
		p.shorthandAssign = logger.Loc{Start: locUnset}
	}
}

func (p *parser) parsePrefix(level js_ast.L) js_ast.Expr {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSuper:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}

	case js_lexer.TOpenParen:
		// This may be a parenthesized expression or an arrow parameter list
		return p.parseParenExpr(loc, false)

	case js_lexer.TFalse:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: false}}

	case js_lexer.TTrue:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}}

	case js_lexer.TNull:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}

	case js_lexer.TThis:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}

	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		raw := p.lexer.Raw()
		p.lexer.Next()

		switch {
		case name == "async" && raw == "async" && !p.lexer.HasNewlineBefore:
			if p.lexer.Token == js_lexer.TFunction {
				return p.parseFnExpr(loc, true)
			}
			if p.lexer.Token == js_lexer.TIdentifier {
				// "async x => ..."
				argLoc := p.lexer.Loc()
				argName := p.lexer.Identifier
				p.checkIdentifierName(argLoc, argName)
				p.lexer.Next()
				if p.lexer.Token != js_lexer.TEqualsGreaterThan {
					p.lexer.Expected(js_lexer.TEqualsGreaterThan)
				}
				args := []js_ast.Arg{{Binding: js_ast.Binding{Loc: argLoc, Data: &js_ast.BIdentifier{Name: argName}}}}
				return p.parseArrowBody(loc, args, false, true)
			}
			if p.lexer.Token == js_lexer.TOpenParen {
				// "async(...)" is a call unless "=>" follows the close paren
				return p.parseParenExpr(loc, true)
			}

		case name == "yield":
			if p.inGenerator {
				return p.parseYieldExpr(loc)
			}
			if p.isStrict {
				p.raise(loc, "\"yield\" is a reserved word in strict mode")
			}
			if p.yieldPos.Start == locUnset {
				p.yieldPos = loc
			}

		case name == "await":
			if p.inAsync {
				value := p.parseExpr(js_ast.LPrefix)
				return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: value}}
			}
			if p.awaitPos.Start == locUnset {
				p.awaitPos = loc
			}

		default:
			if p.isStrict && js_lexer.StrictModeReservedWords[name] {
				p.raise(loc, fmt.Sprintf("%q is a reserved word in strict mode", name))
			}
		}

		ident := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: name}}

		// "x => ..." re-interprets the identifier as a parameter list
		if p.lexer.Token == js_lexer.TEqualsGreaterThan && !p.lexer.HasNewlineBefore && level <= js_ast.LAssign {
			args := []js_ast.Arg{{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}}}
			return p.parseArrowBody(loc, args, false, false)
		}
		return ident

	case js_lexer.TStringLiteral:
		value := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: value}}

	case js_lexer.TNoSubstitutionTemplateLiteral:
		head := p.lexer.StringLiteral
		headRaw := rawTemplateChunk(p.lexer.Raw(), false)
		p.checkTemplateEscape(nil)
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{Head: head, HeadRaw: headRaw}}

	case js_lexer.TTemplateHead:
		head := p.lexer.StringLiteral
		headRaw := rawTemplateChunk(p.lexer.Raw(), true)
		p.checkTemplateEscape(nil)
		parts := p.parseTemplateParts(nil)
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{Head: head, HeadRaw: headRaw, Parts: parts}}

	case js_lexer.TNumericLiteral:
		value := p.lexer.Number
		raw := p.lexer.NumberRaw
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: value, Raw: raw}}

	case js_lexer.TSlash, js_lexer.TSlashEquals:
		p.lexer.ScanRegExp()
		pattern := p.lexer.RegExpPattern
		flags := p.lexer.RegExpFlags
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Pattern: pattern, Flags: flags}}

	case js_lexer.TVoid:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpVoid, Value: value}}

	case js_lexer.TTypeof:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpTypeof, Value: value}}

	case js_lexer.TDelete:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		if id, ok := value.Data.(*js_ast.EIdentifier); ok && p.isStrict {
			p.raise(value.Loc, fmt.Sprintf("Delete of a bare identifier %q is forbidden in strict mode", id.Name))
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpDelete, Value: value}}

	case js_lexer.TPlus:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPos, Value: value}}

	case js_lexer.TMinus:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNeg, Value: value}}

	case js_lexer.TTilde:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpCpl, Value: value}}

	case js_lexer.TExclamation:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNot, Value: value}}

	case js_lexer.TMinusMinus:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		p.assertValidAssignTarget(value)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreDec, Value: value}}

	case js_lexer.TPlusPlus:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		p.assertValidAssignTarget(value)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreInc, Value: value}}

	case js_lexer.TFunction:
		return p.parseFnExpr(loc, false)

	case js_lexer.TClass:
		p.lexer.Next()
		var name *js_ast.LocName
		if p.lexer.Token == js_lexer.TIdentifier {
			name = &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
			p.checkIdentifierName(name.Loc, name.Name)
			p.lexer.Next()
		}
		class := p.parseClass(name)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: class}}

	case js_lexer.TNew:
		p.lexer.Next()

		// "new.target"
		if p.lexer.Token == js_lexer.TDot {
			p.lexer.Next()
			if !p.lexer.IsContextualKeyword("target") {
				p.lexer.Unexpected()
			}
			if !p.inFunction {
				p.raise(loc, "Cannot use \"new.target\" outside a function")
			}
			p.lexer.Next()
			return js_ast.Expr{Loc: loc, Data: &js_ast.ENewTarget{}}
		}

		target := p.parseExpr(js_ast.LMember)
		args := []js_ast.Expr{}
		if p.lexer.Token == js_lexer.TOpenParen {
			args = p.parseCallArgs()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: target, Args: args}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.Expr{}

		for p.lexer.Token != js_lexer.TCloseBracket {
			switch p.lexer.Token {
			case js_lexer.TComma:
				// An elision
				items = append(items, js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EMissing{}})

			case js_lexer.TDotDotDot:
				spreadLoc := p.lexer.Loc()
				p.lexer.Next()
				value := p.parseExpr(js_ast.LComma)
				items = append(items, js_ast.Expr{Loc: spreadLoc, Data: &js_ast.ESpread{Value: value}})

			default:
				items = append(items, p.parseExpr(js_ast.LComma))
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBracket)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}

	case js_lexer.TOpenBrace:
		return p.parseObjectLiteral(loc)

	case js_lexer.TImport:
		p.lexer.Next()
		return p.parseImportExpr(loc)

	default:
		p.lexer.Unexpected()
		return js_ast.Expr{}
	}
}


// rawTemplateChunk strips the delimiters off a template token's raw text:
// the leading "\u0060" or "}" and the trailing "\u0060" or "${".
func rawTemplateChunk(raw string, endsWithSubstitution bool) string {
	if endsWithSubstitution {
		return raw[1 : len(raw)-2]
	}
	return raw[1 : len(raw)-1]
}

func (p *parser) parseYieldExpr(loc logger.Loc) js_ast.Expr {
	isStar := false
	if p.lexer.Token == js_lexer.TAsterisk && !p.lexer.HasNewlineBefore {
		isStar = true
		p.lexer.Next()
	}

	var value *js_ast.Expr
	switch p.lexer.Token {
	case js_lexer.TCloseBrace, js_lexer.TCloseBracket, js_lexer.TCloseParen,
		js_lexer.TColon, js_lexer.TComma, js_lexer.TSemicolon, js_lexer.TEndOfFile:
		// The yield operand is optional
	default:
		if isStar || !p.lexer.CanInsertSemicolon() {
			expr := p.parseExpr(js_ast.LYield)
			value = &expr
		}
	}

	return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{Value: value, IsStar: isStar}}
}

func (p *parser) parseImportExpr(loc logger.Loc) js_ast.Expr {
	// "import('path')"
	if p.lexer.Token != js_lexer.TOpenParen {
		p.lexer.Expected(js_lexer.TOpenParen)
	}
	p.lexer.Next()
	value := p.parseExpr(js_ast.LComma)
	p.lexer.Expect(js_lexer.TCloseParen)
	return js_ast.Expr{Loc: loc, Data: &js_ast.EImport{Expr: value}}
}

func (p *parser) checkTemplateEscape(tag *js_ast.Expr) {
	if p.lexer.TemplateInvalidEscape && tag == nil {
		p.raise(p.lexer.TemplateInvalidEscapeLoc(), "Bad escape sequence in untagged template literal")
	}
}

func (p *parser) parseTemplateParts(tag *js_ast.Expr) []js_ast.TemplatePart {
	p.lexer.Next()
	parts := []js_ast.TemplatePart{}

	for {
		value := p.parseExpr(js_ast.LLowest)
		tailLoc := p.lexer.Loc()
		p.lexer.RescanCloseBraceAsTemplateToken()
		tail := p.lexer.StringLiteral
		tailRaw := rawTemplateChunk(p.lexer.Raw(), p.lexer.Token == js_lexer.TTemplateMiddle)
		p.checkTemplateEscape(tag)
		parts = append(parts, js_ast.TemplatePart{Value: value, TailLoc: tailLoc, Tail: tail, TailRaw: tailRaw})

		if p.lexer.Token == js_lexer.TTemplateTail {
			p.lexer.Next()
			return parts
		}
		p.lexer.Next()
	}
}

func (p *parser) parseCallArgs() []js_ast.Expr {
	p.lexer.Expect(js_lexer.TOpenParen)
	args := []js_ast.Expr{}

	for p.lexer.Token != js_lexer.TCloseParen {
		if p.lexer.Token == js_lexer.TDotDotDot {
			spreadLoc := p.lexer.Loc()
			p.lexer.Next()
			value := p.parseExpr(js_ast.LComma)
			args = append(args, js_ast.Expr{Loc: spreadLoc, Data: &js_ast.ESpread{Value: value}})
		} else {
			args = append(args, p.parseExpr(js_ast.LComma))
		}
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	return args
}

// parseParenExpr handles the ambiguity between "(expr)" and an arrow
// function's parameter list. The contents are parsed as expressions with
// pattern-only constructs recorded; if "=>" follows, the expression list is
// re-interpreted as parameters via toAssignableList.
func (p *parser) parseParenExpr(loc logger.Loc, isAsync bool) js_ast.Expr {
	p.lexer.Expect(js_lexer.TOpenParen)

	items := []js_ast.Expr{}
	spreadLocs := []logger.Loc{}
	trailingCommaLoc := logger.Loc{Start: locUnset}

	for p.lexer.Token != js_lexer.TCloseParen {
		if p.lexer.Token == js_lexer.TDotDotDot {
			spreadLoc := p.lexer.Loc()
			spreadLocs = append(spreadLocs, spreadLoc)
			p.lexer.Next()
			value := p.parseExpr(js_ast.LComma)
			items = append(items, js_ast.Expr{Loc: spreadLoc, Data: &js_ast.ESpread{Value: value}})
		} else {
			items = append(items, p.parseExpr(js_ast.LComma))
		}

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		commaLoc := p.lexer.Loc()
		p.lexer.Next()
		if p.lexer.Token == js_lexer.TCloseParen {
			trailingCommaLoc = commaLoc
		}
	}

	p.lexer.Expect(js_lexer.TCloseParen)

	// An arrow function re-interprets the list as parameters
	if p.lexer.Token == js_lexer.TEqualsGreaterThan && !p.lexer.HasNewlineBefore {
		args := p.toAssignableList(items, loc)
		hasRest := false
		if len(spreadLocs) > 0 {
			hasRest = true
		}
		return p.parseArrowBody(loc, args, hasRest, isAsync)
	}

	// It stayed a parenthesized expression, so pattern-only constructs are
	// errors now
	if trailingCommaLoc.Start != locUnset {
		p.raise(trailingCommaLoc, "Unexpected \",\"")
	}
	if len(spreadLocs) > 0 {
		p.raise(spreadLocs[0], "Unexpected \"...\"")
	}

	if isAsync {
		// It was a call to a function named "async"
		target := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: "async"}}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: target, Args: items}}
	}

	if len(items) == 0 {
		p.raise(loc, "Unexpected \")\"")
	}

	if len(items) == 1 {
		return items[0]
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.ESequence{Exprs: items}}
}

// toAssignableList converts a parsed expression list into arrow parameters.
func (p *parser) toAssignableList(items []js_ast.Expr, loc logger.Loc) []js_ast.Arg {
	args := make([]js_ast.Arg, 0, len(items))

	for i, item := range items {
		if spread, ok := item.Data.(*js_ast.ESpread); ok {
			if i != len(items)-1 {
				p.raise(item.Loc, "A rest parameter must be last in a parameter list")
			}
			binding := p.toBinding(spread.Value)
			args = append(args, js_ast.Arg{Binding: binding})
			continue
		}

		if binary, ok := item.Data.(*js_ast.EBinary); ok && binary.Op == js_ast.BinOpAssign {
			binding := p.toBinding(binary.Left)
			value := binary.Right
			args = append(args, js_ast.Arg{Binding: binding, Default: &value})
			continue
		}

		args = append(args, js_ast.Arg{Binding: p.toBinding(item)})
	}

	p.clearDestructuringErrorsSince(loc)
	return args
}

// toBinding converts an expression into a binding pattern, raising on
// anything that isn't a valid pattern element.
func (p *parser) toBinding(expr js_ast.Expr) js_ast.Binding {
	switch e := expr.Data.(type) {
	case *js_ast.EIdentifier:
		p.checkIdentifierName(expr.Loc, e.Name)
		if p.isStrict && (e.Name == "eval" || e.Name == "arguments") {
			p.raise(expr.Loc, fmt.Sprintf("Cannot bind %q in strict mode", e.Name))
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BIdentifier{Name: e.Name}}

	case *js_ast.EMissing:
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BMissing{}}

	case *js_ast.EArray:
		items := make([]js_ast.ArrayBinding, 0, len(e.Items))
		hasSpread := false
		for i, item := range e.Items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				if i != len(e.Items)-1 {
					p.raise(item.Loc, "A rest element must be last in a destructuring pattern")
				}
				hasSpread = true
				items = append(items, js_ast.ArrayBinding{Binding: p.toBinding(spread.Value)})
				continue
			}
			if binary, ok := item.Data.(*js_ast.EBinary); ok && binary.Op == js_ast.BinOpAssign {
				value := binary.Right
				items = append(items, js_ast.ArrayBinding{Binding: p.toBinding(binary.Left), DefaultValue: &value})
				continue
			}
			items = append(items, js_ast.ArrayBinding{Binding: p.toBinding(item)})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread}}

	case *js_ast.EObject:
		properties := make([]js_ast.PropertyBinding, 0, len(e.Properties))
		for _, prop := range e.Properties {
			if prop.Kind == js_ast.PropertySpread {
				if prop.Value == nil {
					p.raise(expr.Loc, "Invalid rest element in destructuring pattern")
				}
				properties = append(properties, js_ast.PropertyBinding{
					IsSpread: true,
					Value:    p.toBinding(*prop.Value),
				})
				continue
			}
			if prop.IsMethod || prop.Kind == js_ast.PropertyGet || prop.Kind == js_ast.PropertySet {
				p.raise(prop.Key.Loc, "Invalid binding pattern")
			}

			var value js_ast.Binding
			var defaultValue *js_ast.Expr
			if prop.Value != nil {
				inner := *prop.Value
				if binary, ok := inner.Data.(*js_ast.EBinary); ok && binary.Op == js_ast.BinOpAssign {
					right := binary.Right
					value = p.toBinding(binary.Left)
					defaultValue = &right
				} else {
					value = p.toBinding(inner)
				}
			}
			if prop.Initializer != nil {
				defaultValue = prop.Initializer
			}

			properties = append(properties, js_ast.PropertyBinding{
				IsComputed:   prop.IsComputed,
				Key:          prop.Key,
				Value:        value,
				DefaultValue: defaultValue,
			})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BObject{Properties: properties}}

	default:
		p.raise(expr.Loc, "Invalid binding pattern")
		return js_ast.Binding{}
	}
}

func (p *parser) parseArrowBody(loc logger.Loc, args []js_ast.Arg, hasRest bool, isAsync bool) js_ast.Expr {
	// "yield" or "await" used as an identifier inside the parameter list of
	// a generator/async arrow is invalid
	if isAsync && p.awaitPos.Start >= loc.Start {
		p.raise(p.awaitPos, "Cannot use \"await\" in an async arrow function's parameter list")
	}

	p.lexer.Expect(js_lexer.TEqualsGreaterThan)
	p.clearDestructuringErrorsSince(loc)

	old := p.pushFnState(isAsync, false)
	defer p.popFnState(old)

	if p.lexer.Token == js_lexer.TOpenBrace {
		p.lexer.Next()
		stmts := p.parseFnBodyStmts(args)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{
			Args: args, Body: js_ast.FnBody{Loc: loc, Stmts: stmts},
			IsAsync: isAsync, HasRestArg: hasRest,
		}}
	}

	// An expression body is sugar for a single return statement
	expr := p.parseExpr(js_ast.LComma)
	stmts := []js_ast.Stmt{{Loc: expr.Loc, Data: &js_ast.SReturn{Value: &expr}}}
	return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{
		Args: args, Body: js_ast.FnBody{Loc: loc, Stmts: stmts},
		IsAsync: isAsync, HasRestArg: hasRest, PreferExpr: true,
	}}
}

func (p *parser) parseFnExpr(loc logger.Loc, isAsync bool) js_ast.Expr {
	p.lexer.Expect(js_lexer.TFunction)

	isGenerator := false
	if p.lexer.Token == js_lexer.TAsterisk {
		isGenerator = true
		p.lexer.Next()
	}

	var name *js_ast.LocName
	if p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.checkIdentifierName(name.Loc, name.Name)
		p.lexer.Next()
	}

	fn := p.parseFn(name, isAsync, isGenerator)
	return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
}

// parseFn parses the parameter list and body shared by function statements,
// function expressions, and methods.
func (p *parser) parseFn(name *js_ast.LocName, isAsync bool, isGenerator bool) js_ast.Fn {
	old := p.pushFnState(isAsync, isGenerator)
	defer p.popFnState(old)

	args, hasRest := p.parseFnArgs()

	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseFnBodyStmts(args)

	return js_ast.Fn{
		Name:        name,
		Args:        args,
		Body:        js_ast.FnBody{Stmts: stmts},
		IsAsync:     isAsync,
		IsGenerator: isGenerator,
		HasRestArg:  hasRest,
	}
}

func (p *parser) parseFnArgs() ([]js_ast.Arg, bool) {
	p.lexer.Expect(js_lexer.TOpenParen)
	args := []js_ast.Arg{}
	hasRest := false

	for p.lexer.Token != js_lexer.TCloseParen {
		if p.lexer.Token == js_lexer.TDotDotDot {
			restLoc := p.lexer.Loc()
			p.lexer.Next()
			hasRest = true
			binding := p.parseBinding()
			args = append(args, js_ast.Arg{Binding: binding})
			if p.lexer.Token == js_lexer.TComma {
				p.raise(restLoc, "A rest parameter must be last in a parameter list")
			}
			break
		}

		binding := p.parseBinding()

		var def *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			expr := p.parseExpr(js_ast.LComma)
			def = &expr
		}
		args = append(args, js_ast.Arg{Binding: binding, Default: def})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	return args, hasRest
}

// parseFnBodyStmts parses a "{...}" function body whose "{" was already
// consumed, handling the directive prologue. A "use strict" directive is
// rejected when the parameter list is non-simple.
func (p *parser) parseFnBodyStmts(args []js_ast.Arg) []js_ast.Stmt {
	oldCanBeDirective := p.canBeDirective
	p.canBeDirective = true
	wasStrict := p.isStrict

	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
	p.lexer.Next()

	if !wasStrict && p.isStrict && !isSimpleParamList(args) {
		for _, stmt := range stmts {
			if directive, ok := stmt.Data.(*js_ast.SDirective); ok && directive.Value == "use strict" {
				p.raise(stmt.Loc, "Cannot use a \"use strict\" directive in a function with a non-simple parameter list")
			}
		}
	}
	if !wasStrict && p.isStrict {
		p.checkParamsStrict(args)
	}

	p.canBeDirective = oldCanBeDirective
	return stmts
}

func isSimpleParamList(args []js_ast.Arg) bool {
	for _, arg := range args {
		if arg.Default != nil {
			return false
		}
		if _, ok := arg.Binding.Data.(*js_ast.BIdentifier); !ok {
			return false
		}
	}
	return true
}

func (p *parser) checkParamsStrict(args []js_ast.Arg) {
	for _, arg := range args {
		if id, ok := arg.Binding.Data.(*js_ast.BIdentifier); ok {
			if id.Name == "eval" || id.Name == "arguments" {
				p.raise(arg.Binding.Loc, fmt.Sprintf("Cannot bind %q in strict mode", id.Name))
			}
		}
	}
}

// parseBinding parses a binding pattern in declaration position.
func (p *parser) parseBinding() js_ast.Binding {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		p.checkIdentifierName(loc, name)
		if p.isStrict && (name == "eval" || name == "arguments") {
			p.raise(loc, fmt.Sprintf("Cannot bind %q in strict mode", name))
		}
		p.lexer.Next()
		return js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.ArrayBinding{}
		hasSpread := false

		for p.lexer.Token != js_lexer.TCloseBracket {
			if p.lexer.Token == js_lexer.TComma {
				items = append(items, js_ast.ArrayBinding{
					Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BMissing{}},
				})
			} else {
				if p.lexer.Token == js_lexer.TDotDotDot {
					p.lexer.Next()
					hasSpread = true
				}

				binding := p.parseBinding()

				var def *js_ast.Expr
				if p.lexer.Token == js_lexer.TEquals {
					if hasSpread {
						p.raise(p.lexer.Loc(), "A rest element cannot have a default value")
					}
					p.lexer.Next()
					expr := p.parseExpr(js_ast.LComma)
					def = &expr
				}

				items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValue: def})

				if hasSpread && p.lexer.Token == js_lexer.TComma {
					p.raise(p.lexer.Loc(), "A rest element must be last in a destructuring pattern")
				}
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBracket)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.PropertyBinding{}

		for p.lexer.Token != js_lexer.TCloseBrace {
			property := p.parsePropertyBinding()
			properties = append(properties, property)

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BObject{Properties: properties}}
	}

	p.lexer.Expected(js_lexer.TIdentifier)
	return js_ast.Binding{}
}

func (p *parser) parsePropertyBinding() js_ast.PropertyBinding {
	if p.lexer.Token == js_lexer.TDotDotDot {
		p.lexer.Next()
		value := p.parseBinding()
		if _, ok := value.Data.(*js_ast.BIdentifier); !ok {
			p.raise(value.Loc, "A rest element must be an identifier")
		}
		return js_ast.PropertyBinding{IsSpread: true, Value: value}
	}

	var key js_ast.Expr
	isComputed := false

	switch p.lexer.Token {
	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.ENumber{Value: p.lexer.Number, Raw: p.lexer.NumberRaw}}
		p.lexer.Next()

	case js_lexer.TStringLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		isComputed = true
		p.lexer.Next()
		key = p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)

	default:
		// A keyword is allowed as a property name
		name := p.lexer.Identifier
		loc := p.lexer.Loc()
		if p.lexer.Token != js_lexer.TIdentifier && !p.lexer.Token.IsKeyword() {
			p.lexer.Expected(js_lexer.TIdentifier)
		}
		if p.lexer.Token.IsKeyword() {
			name = p.lexer.Raw()
		}
		p.lexer.Next()
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: name}}

		// A shorthand binding like "{a}" or "{a = 1}"
		if p.lexer.Token != js_lexer.TColon {
			if js_lexer.Keywords[name] != 0 {
				p.raise(loc, fmt.Sprintf("Cannot use %q as an identifier here", name))
			}
			p.checkIdentifierName(loc, name)
			value := js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}

			var def *js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				expr := p.parseExpr(js_ast.LComma)
				def = &expr
			}
			return js_ast.PropertyBinding{Key: key, Value: value, DefaultValue: def}
		}
	}

	p.lexer.Expect(js_lexer.TColon)
	value := p.parseBinding()

	var def *js_ast.Expr
	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		expr := p.parseExpr(js_ast.LComma)
		def = &expr
	}

	return js_ast.PropertyBinding{IsComputed: isComputed, Key: key, Value: value, DefaultValue: def}
}

func (p *parser) parseDecls() []js_ast.Decl {
	decls := []js_ast.Decl{}

	for {
		binding := p.parseBinding()

		var value *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			expr := p.parseExpr(js_ast.LComma)
			value = &expr
		}

		decls = append(decls, js_ast.Decl{Binding: binding, Value: value})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	return decls
}

// parseObjectLiteral parses "{...}" in expression position. Shorthand
// properties with "=" initializers are recorded as pattern-only constructs.
func (p *parser) parseObjectLiteral(loc logger.Loc) js_ast.Expr {
	p.lexer.Expect(js_lexer.TOpenBrace)
	properties := []js_ast.Property{}
	seen := map[string]bool{}

	for p.lexer.Token != js_lexer.TCloseBrace {
		property := p.parseProperty(seen)
		properties = append(properties, property)

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: properties}}
}

func (p *parser) parseProperty(seen map[string]bool) js_ast.Property {
	if p.lexer.Token == js_lexer.TDotDotDot {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LComma)
		return js_ast.Property{Kind: js_ast.PropertySpread, Value: &value}
	}

	kind := js_ast.PropertyNormal
	isAsync := false
	isGenerator := false

	if p.lexer.Token == js_lexer.TAsterisk {
		isGenerator = true
		p.lexer.Next()
	}

	key, isComputed, wasWord := p.parsePropertyKey()

	// "get x() {}", "set x() {}", "async x() {}"
	if wasWord && !isComputed && p.lexer.Token != js_lexer.TColon && p.lexer.Token != js_lexer.TOpenParen &&
		p.lexer.Token != js_lexer.TComma && p.lexer.Token != js_lexer.TCloseBrace &&
		p.lexer.Token != js_lexer.TEquals {
		str := key.Data.(*js_ast.EString)
		switch str.Value {
		case "get":
			kind = js_ast.PropertyGet
		case "set":
			kind = js_ast.PropertySet
		case "async":
			isAsync = true
			if p.lexer.Token == js_lexer.TAsterisk {
				isGenerator = true
				p.lexer.Next()
			}
		default:
			p.lexer.Unexpected()
		}
		key, isComputed, wasWord = p.parsePropertyKey()
	}

	// A method
	if p.lexer.Token == js_lexer.TOpenParen {
		fn := p.parseFn(nil, isAsync, isGenerator)
		value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EFunction{Fn: fn}}

		if kind == js_ast.PropertyGet && len(fn.Args) != 0 {
			p.raise(key.Loc, "A getter cannot have parameters")
		}
		if kind == js_ast.PropertySet && len(fn.Args) != 1 {
			p.raise(key.Loc, "A setter must have exactly one parameter")
		}

		return js_ast.Property{
			Kind: kind, Key: key, Value: &value,
			IsComputed: isComputed, IsMethod: kind == js_ast.PropertyNormal,
		}
	}

	if isGenerator || isAsync || kind != js_ast.PropertyNormal {
		p.lexer.Expected(js_lexer.TOpenParen)
	}

	// Track duplicate plain properties; the last one wins at runtime but a
	// duplicate is suspicious enough to flag
	if !isComputed {
		if str, ok := key.Data.(*js_ast.EString); ok {
			if seen[str.Value] && kind == js_ast.PropertyNormal {
				p.raiseRecoverable(key.Loc, fmt.Sprintf("Duplicate property %q", str.Value))
			}
			seen[str.Value] = true
		}
	}

	// "{key: value}"
	if p.lexer.Token == js_lexer.TColon {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LComma)
		return js_ast.Property{Kind: kind, Key: key, Value: &value, IsComputed: isComputed}
	}

	// Shorthand: "{a}" or the pattern-only "{a = 1}"
	if !wasWord {
		p.lexer.Expected(js_lexer.TColon)
	}
	str := key.Data.(*js_ast.EString)
	if js_lexer.Keywords[str.Value] != 0 {
		p.raise(key.Loc, fmt.Sprintf("Cannot use %q as an identifier here", str.Value))
	}
	p.checkIdentifierName(key.Loc, str.Value)
	value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EIdentifier{Name: str.Value}}

	if p.lexer.Token == js_lexer.TEquals {
		eqLoc := p.lexer.Loc()
		if p.shorthandAssign.Start == locUnset {
			p.shorthandAssign = eqLoc
		}
		p.lexer.Next()
		init := p.parseExpr(js_ast.LComma)
		return js_ast.Property{
			Kind: kind, Key: key, Value: &value, Initializer: &init, WasShorthand: true,
		}
	}

	return js_ast.Property{Kind: kind, Key: key, Value: &value, WasShorthand: true}
}

// parsePropertyKey returns the key expression, whether it was computed, and
// whether it was a bare word (identifier or keyword).
func (p *parser) parsePropertyKey() (js_ast.Expr, bool, bool) {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TNumericLiteral:
		key := js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: p.lexer.Number, Raw: p.lexer.NumberRaw}}
		p.lexer.Next()
		return key, false, false

	case js_lexer.TStringLiteral:
		key := js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()
		return key, false, false

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		key := p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)
		return key, true, false

	default:
		name := p.lexer.Identifier
		if p.lexer.Token != js_lexer.TIdentifier && !p.lexer.Token.IsKeyword() {
			p.lexer.Expected(js_lexer.TIdentifier)
		}
		if p.lexer.Token.IsKeyword() {
			name = p.lexer.Raw()
		}
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: name}}, false, true
	}
}

func (p *parser) parseClass(name *js_ast.LocName) js_ast.Class {
	var extends *js_ast.Expr
	if p.lexer.Token == js_lexer.TExtends {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LNew)
		extends = &value
	}

	bodyLoc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)

	// Class bodies are always strict
	oldStrict := p.isStrict
	p.isStrict = true

	properties := []js_ast.Property{}
	for p.lexer.Token != js_lexer.TCloseBrace {
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
			continue
		}
		properties = append(properties, p.parseClassMember())
	}

	p.isStrict = oldStrict
	p.lexer.Expect(js_lexer.TCloseBrace)

	return js_ast.Class{Name: name, Extends: extends, BodyLoc: bodyLoc, Properties: properties}
}

func (p *parser) parseClassMember() js_ast.Property {
	isStatic := false
	if p.lexer.IsContextualKeyword("static") {
		p.lexer.Next()
		// "static(){}" is a method named "static"
		if p.lexer.Token == js_lexer.TOpenParen {
			fn := p.parseFn(nil, false, false)
			key := js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EString{Value: "static"}}
			value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EFunction{Fn: fn}}
			return js_ast.Property{Key: key, Value: &value, IsMethod: true}
		}
		isStatic = true
	}

	kind := js_ast.PropertyNormal
	isAsync := false
	isGenerator := false

	if p.lexer.Token == js_lexer.TAsterisk {
		isGenerator = true
		p.lexer.Next()
	}

	key, isComputed, wasWord := p.parsePropertyKey()

	if wasWord && !isComputed && p.lexer.Token != js_lexer.TOpenParen {
		str := key.Data.(*js_ast.EString)
		switch str.Value {
		case "get":
			kind = js_ast.PropertyGet
		case "set":
			kind = js_ast.PropertySet
		case "async":
			isAsync = true
			if p.lexer.Token == js_lexer.TAsterisk {
				isGenerator = true
				p.lexer.Next()
			}
		default:
			p.lexer.Expected(js_lexer.TOpenParen)
		}
		key, isComputed, _ = p.parsePropertyKey()
	}

	fn := p.parseFn(nil, isAsync, isGenerator)
	value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EFunction{Fn: fn}}

	if kind == js_ast.PropertyGet && len(fn.Args) != 0 {
		p.raise(key.Loc, "A getter cannot have parameters")
	}
	if kind == js_ast.PropertySet && len(fn.Args) != 1 {
		p.raise(key.Loc, "A setter must have exactly one parameter")
	}

	return js_ast.Property{
		Kind: kind, Key: key, Value: &value,
		IsComputed: isComputed, IsStatic: isStatic, IsMethod: kind == js_ast.PropertyNormal,
	}
}

// assertValidAssignTarget rejects expressions that cannot be assigned to.
func (p *parser) assertValidAssignTarget(target js_ast.Expr) {
	switch e := target.Data.(type) {
	case *js_ast.EIdentifier:
		if p.isStrict && (e.Name == "eval" || e.Name == "arguments") {
			p.raise(target.Loc, fmt.Sprintf("Cannot assign to %q in strict mode", e.Name))
		}

	case *js_ast.EDot, *js_ast.EIndex:
		// Always assignable

	case *js_ast.EArray, *js_ast.EObject:
		// A destructuring assignment pattern; pattern-only constructs
		// inside it are valid now
		p.clearDestructuringErrorsSince(target.Loc)

	default:
		p.raise(target.Loc, "Invalid assignment target")
	}
}

func (p *parser) parseSuffix(left js_ast.Expr, level js_ast.L) js_ast.Expr {
	for {
		switch p.lexer.Token {
		case js_lexer.TDot:
			p.lexer.Next()
			nameLoc := p.lexer.Loc()
			name := p.lexer.Identifier
			// Keywords are allowed as property names after "."
			if p.lexer.Token != js_lexer.TIdentifier && !p.lexer.Token.IsKeyword() {
				p.lexer.Expected(js_lexer.TIdentifier)
			}
			if p.lexer.Token.IsKeyword() {
				name = p.lexer.Raw()
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc}}

		case js_lexer.TOpenBracket:
			p.lexer.Next()
			index := p.parseExpr(js_ast.LLowest)
			p.lexer.Expect(js_lexer.TCloseBracket)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index}}

		case js_lexer.TOpenParen:
			if level >= js_ast.LCall {
				return left
			}
			args := p.parseCallArgs()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: args}}

		case js_lexer.TNoSubstitutionTemplateLiteral:
			if level >= js_ast.LPrefix {
				return left
			}
			head := p.lexer.StringLiteral
			headRaw := rawTemplateChunk(p.lexer.Raw(), false)
			tag := left
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ETemplate{Tag: &tag, Head: head, HeadRaw: headRaw}}

		case js_lexer.TTemplateHead:
			if level >= js_ast.LPrefix {
				return left
			}
			head := p.lexer.StringLiteral
			headRaw := rawTemplateChunk(p.lexer.Raw(), true)
			tag := left
			parts := p.parseTemplateParts(&tag)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ETemplate{Tag: &tag, Head: head, HeadRaw: headRaw, Parts: parts}}

		case js_lexer.TQuestion:
			if level >= js_ast.LConditional {
				return left
			}
			p.lexer.Next()

			// The middle operand is parsed with "in" allowed even inside a
			// for-init
			oldAllowIn := p.allowIn
			p.allowIn = true
			yes := p.parseExpr(js_ast.LComma)
			p.allowIn = oldAllowIn

			p.lexer.Expect(js_lexer.TColon)
			no := p.parseExpr(js_ast.LComma)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIf{Test: left, Yes: yes, No: no}}

		case js_lexer.TPlusPlus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.assertValidAssignTarget(left)
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: left}}

		case js_lexer.TMinusMinus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.assertValidAssignTarget(left)
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostDec, Value: left}}

		case js_lexer.TComma:
			if level >= js_ast.LComma {
				return left
			}
			exprs := []js_ast.Expr{left}
			for p.lexer.Token == js_lexer.TComma {
				p.lexer.Next()
				exprs = append(exprs, p.parseExpr(js_ast.LComma))
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ESequence{Exprs: exprs}}

		default:
			// Assignment operators
			if op, ok := assignOps[p.lexer.Token]; ok {
				if level > js_ast.LAssign-1 {
					return left
				}
				p.assertValidAssignTarget(left)
				if op != js_ast.BinOpAssign {
					// Compound assignment requires a simple target
					switch left.Data.(type) {
					case *js_ast.EIdentifier, *js_ast.EDot, *js_ast.EIndex:
					default:
						p.raise(left.Loc, "Invalid assignment target")
					}
				}
				p.lexer.Next()
				right := p.parseExpr(js_ast.LAssign - 1)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: right}}
				continue
			}

			// Binary operators
			if op, ok := binaryOps[p.lexer.Token]; ok {
				if p.lexer.Token == js_lexer.TIn && !p.allowIn {
					return left
				}

				entryLevel := opLevel(op)
				if level >= entryLevel {
					return left
				}

				p.lexer.Next()

				// Right-associative operators parse their right side at the
				// same level; left-associative ones one tighter
				rightLevel := entryLevel
				if op.IsRightAssociative() {
					rightLevel = entryLevel - 1
				}
				right := p.parseExpr(rightLevel)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: right}}
				continue
			}

			return left
		}
	}
}
