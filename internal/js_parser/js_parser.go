package js_parser

// A recursive-descent parser from tokens to the AST, with Pratt-style binary
// operator precedence. The parser owns a single lexer instance and a bundle
// of mutable position flags (potentialArrowAt, yieldPos, awaitPos, label
// stack); fnState snapshots restore them on every function-scope entry.

import (
	"fmt"

	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_lexer"
	"github.com/miroslavpokorny/Njsast/internal/logger"
)

type Options struct {
	// When set, errors the parser can recover from (duplicate object
	// property, redundant directive) are reported as warnings instead of
	// escalating to fatal errors.
	RecoverableErrorsAsWarnings bool
}

// ParserPanic is thrown (via panic) for fatal syntactic errors and recovered
// at the Parse boundary.
type ParserPanic struct{}

type labelInfo struct {
	name   string
	isLoop bool
}

type parser struct {
	log     logger.Log
	source  logger.Source
	lexer   js_lexer.Lexer
	options Options

	// Function-scope state, saved and restored by fnState
	isStrict    bool
	inAsync     bool
	inGenerator bool
	inFunction  bool
	loopDepth   int
	switchDepth int
	labels      []labelInfo

	// "in" is forbidden in a for-statement init
	allowIn bool

	// The first "yield"/"await" used as an identifier inside a potential
	// arrow parameter list; asserted when the arrow materializes
	yieldPos logger.Loc
	awaitPos logger.Loc

	// The first "=" of a shorthand property initializer ("{a = 1}"), a
	// construct that is only valid as a destructuring pattern. Cleared when
	// the containing expression becomes a pattern; asserted at statement
	// boundaries.
	shorthandAssign logger.Loc

	// True while the parsed statements can still form a directive prologue
	canBeDirective bool
}

const locUnset = int32(-1)

func Parse(log logger.Log, source logger.Source, options Options) (tree js_ast.AST, ok bool) {
	ok = true
	defer func() {
		r := recover()
		if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
			ok = false
		} else if _, isParserPanic := r.(ParserPanic); isParserPanic {
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	p := &parser{
		log:              log,
		source:           source,
		options:          options,
		allowIn:         true,
		yieldPos:        logger.Loc{Start: locUnset},
		awaitPos:         logger.Loc{Start: locUnset},
		shorthandAssign:  logger.Loc{Start: locUnset},
	}
	p.lexer = js_lexer.NewLexer(log, source)

	p.canBeDirective = true
	stmts := p.parseStmtsUpTo(js_lexer.TEndOfFile, parseStmtOpts{isModuleScope: true})

	tree = js_ast.AST{
		Stmts:  stmts,
		Strict: p.isStrict,
		Source: &source,
	}
	return
}

func (p *parser) addError(loc logger.Loc, text string) {
	p.log.AddError(&p.source, loc, text)
}

func (p *parser) addRangeError(r logger.Range, text string) {
	p.log.AddRangeError(&p.source, r, text)
}

// raise reports a fatal error and aborts the parse.
func (p *parser) raise(loc logger.Loc, text string) {
	p.addError(loc, text)
	panic(ParserPanic{})
}

// raiseRecoverable reports an error the parse could continue past. The
// default behavior escalates it to a fatal error anyway; the option demotes
// it to a warning.
func (p *parser) raiseRecoverable(loc logger.Loc, text string) {
	if p.options.RecoverableErrorsAsWarnings {
		p.log.AddWarning(&p.source, loc, text)
		return
	}
	p.raise(loc, text)
}

// fnState is the parser state that is scoped to one function body.
type fnState struct {
	isStrict    bool
	inAsync     bool
	inGenerator bool
	inFunction  bool
	loopDepth   int
	switchDepth int
	labels      []labelInfo
	yieldPos    logger.Loc
	awaitPos    logger.Loc
}

func (p *parser) pushFnState(isAsync bool, isGenerator bool) fnState {
	old := fnState{
		isStrict:    p.isStrict,
		inAsync:     p.inAsync,
		inGenerator: p.inGenerator,
		inFunction:  p.inFunction,
		loopDepth:   p.loopDepth,
		switchDepth: p.switchDepth,
		labels:      p.labels,
		yieldPos:    p.yieldPos,
		awaitPos:    p.awaitPos,
	}
	p.inAsync = isAsync
	p.inGenerator = isGenerator
	p.inFunction = true
	p.loopDepth = 0
	p.switchDepth = 0
	p.labels = nil
	p.yieldPos = logger.Loc{Start: locUnset}
	p.awaitPos = logger.Loc{Start: locUnset}
	return old
}

func (p *parser) popFnState(old fnState) {
	p.isStrict = old.isStrict
	p.inAsync = old.inAsync
	p.inGenerator = old.inGenerator
	p.inFunction = old.inFunction
	p.loopDepth = old.loopDepth
	p.switchDepth = old.switchDepth
	p.labels = old.labels
	p.yieldPos = old.yieldPos
	p.awaitPos = old.awaitPos
}

type parseStmtOpts struct {
	isModuleScope    bool
	allowLexicalDecl bool
}

func (p *parser) parseStmtsUpTo(end js_lexer.T, opts parseStmtOpts) []js_ast.Stmt {
	stmts := []js_ast.Stmt{}
	opts.allowLexicalDecl = true

	for p.lexer.Token != end {
		stmt := p.parseStmt(opts)
		p.checkDestructuringErrors()

		// The directive prologue is the leading run of bare string-literal
		// expression statements
		if p.canBeDirective {
			if directive, ok := p.asDirective(stmt); ok {
				stmts = append(stmts, directive)
				continue
			}
			p.canBeDirective = false
		}

		stmts = append(stmts, stmt)
	}

	return stmts
}

// asDirective converts a bare, unparenthesized string-literal expression
// statement into SDirective and applies "use strict".
func (p *parser) asDirective(stmt js_ast.Stmt) (js_ast.Stmt, bool) {
	expr, ok := stmt.Data.(*js_ast.SExpr)
	if !ok {
		return stmt, false
	}
	str, ok := expr.Value.Data.(*js_ast.EString)
	if !ok {
		return stmt, false
	}

	// A parenthesized string is a plain expression, not a directive
	if stmt.Loc.Start < int32(len(p.source.Contents)) {
		c := p.source.Contents[stmt.Loc.Start]
		if c != '"' && c != '\'' {
			return stmt, false
		}
	}

	if str.Value == "use strict" {
		if p.isStrict {
			p.raiseRecoverable(stmt.Loc, "Redundant \"use strict\" directive")
		}
		p.isStrict = true
	}
	return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SDirective{Value: str.Value}}, true
}

func (p *parser) parseStmt(opts parseStmtOpts) js_ast.Stmt {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSemicolon:
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		p.canBeDirective = false
		stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts}}

	case js_lexer.TDebugger:
		p.lexer.Next()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDebugger{}}

	case js_lexer.TVar:
		p.lexer.Next()
		decls := p.parseDecls()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}}

	case js_lexer.TConst:
		if !opts.allowLexicalDecl {
			p.forbidLexicalDecl(loc)
		}
		p.lexer.Next()
		decls := p.parseDecls()
		p.lexer.ExpectOrInsertSemicolon()
		p.requireInitializers(decls)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls}}

	case js_lexer.TIf:
		return p.parseIfStmt(loc)

	case js_lexer.TDo:
		p.lexer.Next()
		p.loopDepth++
		body := p.parseStmt(parseStmtOpts{})
		p.loopDepth--
		p.lexer.Expect(js_lexer.TWhile)
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)

		// A trailing semicolon after do-while is optional
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDoWhile{Body: body, Test: test}}

	case js_lexer.TWhile:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		p.loopDepth++
		body := p.parseStmt(parseStmtOpts{})
		p.loopDepth--
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: test, Body: body}}

	case js_lexer.TWith:
		if p.isStrict {
			p.raise(loc, "With statements cannot be used in strict mode")
		}
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		value := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWith{Value: value, Body: body}}

	case js_lexer.TSwitch:
		return p.parseSwitchStmt(loc)

	case js_lexer.TFor:
		return p.parseForStmt(loc)

	case js_lexer.TTry:
		return p.parseTryStmt(loc)

	case js_lexer.TThrow:
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			p.raise(loc, "Illegal newline after \"throw\"")
		}
		value := p.parseExpr(js_ast.LLowest)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: value}}

	case js_lexer.TReturn:
		if !p.inFunction {
			p.raise(loc, "A return statement can only be used inside a function")
		}
		p.lexer.Next()
		var value *js_ast.Expr
		if p.lexer.Token != js_lexer.TSemicolon && !p.lexer.CanInsertSemicolon() {
			expr := p.parseExpr(js_ast.LLowest)
			value = &expr
		}
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{Value: value}}

	case js_lexer.TBreak:
		p.lexer.Next()
		label := p.parseLabelName()
		if label == nil {
			if p.loopDepth == 0 && p.switchDepth == 0 {
				p.raise(loc, "Cannot use \"break\" here")
			}
		} else if !p.hasLabel(label.Name, false) {
			p.raise(label.Loc, fmt.Sprintf("There is no containing label named %q", label.Name))
		}
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBreak{Label: label}}

	case js_lexer.TContinue:
		p.lexer.Next()
		label := p.parseLabelName()
		if label == nil {
			if p.loopDepth == 0 {
				p.raise(loc, "Cannot use \"continue\" here")
			}
		} else if !p.hasLabel(label.Name, true) {
			p.raise(label.Loc, fmt.Sprintf("There is no containing loop label named %q", label.Name))
		}
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SContinue{Label: label}}

	case js_lexer.TFunction:
		return p.parseFnStmt(loc, false, false)

	case js_lexer.TClass:
		return p.parseClassStmt(loc, false)

	case js_lexer.TImport:
		return p.parseImportStmt(loc, opts)

	case js_lexer.TExport:
		if !opts.isModuleScope {
			p.raise(loc, "Unexpected \"export\"")
		}
		return p.parseExportStmt(loc)

	default:
		if p.lexer.IsContextualKeyword("let") {
			if stmt, ok := p.parseLetStmt(loc, opts); ok {
				return stmt
			}
		}

		if p.lexer.IsContextualKeyword("async") {
			// "async function f() {}" needs no newline between the two words
			if couldBe, stmt := p.parseAsyncFnStmt(loc); couldBe {
				return stmt
			}
		}

		expr := p.parseExpr(js_ast.LLowest)

		// "name: statement" is a label
		if id, ok := expr.Data.(*js_ast.EIdentifier); ok && p.lexer.Token == js_lexer.TColon {
			p.lexer.Next()
			return p.parseLabeledStmt(loc, id.Name)
		}

		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
	}
}

func (p *parser) forbidLexicalDecl(loc logger.Loc) {
	p.raise(loc, "Cannot use a declaration in a single-statement context")
}

func (p *parser) requireInitializers(decls []js_ast.Decl) {
	for _, d := range decls {
		if d.Value == nil {
			if id, ok := d.Binding.Data.(*js_ast.BIdentifier); ok {
				p.addError(d.Binding.Loc, fmt.Sprintf("The constant %q must be initialized", id.Name))
				panic(ParserPanic{})
			}
			p.raise(d.Binding.Loc, "This constant must be initialized")
		}
	}
}

func (p *parser) parseLetStmt(loc logger.Loc, opts parseStmtOpts) (js_ast.Stmt, bool) {
	// "let" is contextual: it only starts a declaration when followed by an
	// identifier, "[", or "{"
	raw := p.lexer.Raw()
	if raw != "let" {
		return js_ast.Stmt{}, false
	}
	p.lexer.Next()
	switch p.lexer.Token {
	case js_lexer.TIdentifier, js_lexer.TOpenBracket, js_lexer.TOpenBrace:
		if !opts.allowLexicalDecl {
			p.forbidLexicalDecl(loc)
		}
		decls := p.parseDecls()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls}}, true
	}

	// It was an expression beginning with the identifier "let"
	expr := p.parseSuffix(js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: "let"}}, js_ast.LLowest)
	if p.lexer.Token == js_lexer.TColon {
		p.lexer.Next()
		return p.parseLabeledStmt(loc, "let"), true
	}
	p.lexer.ExpectOrInsertSemicolon()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}, true
}

func (p *parser) parseLabeledStmt(loc logger.Loc, name string) js_ast.Stmt {
	for _, label := range p.labels {
		if label.name == name {
			p.raise(loc, fmt.Sprintf("Duplicate label %q", name))
		}
	}

	isLoop := p.lexer.Token == js_lexer.TFor || p.lexer.Token == js_lexer.TWhile || p.lexer.Token == js_lexer.TDo
	p.labels = append(p.labels, labelInfo{name: name, isLoop: isLoop})
	stmt := p.parseStmt(parseStmtOpts{})
	p.labels = p.labels[:len(p.labels)-1]

	return js_ast.Stmt{Loc: loc, Data: &js_ast.SLabel{
		Name:   js_ast.LocName{Loc: loc, Name: name},
		Stmt:   stmt,
		IsLoop: isLoop,
	}}
}

func (p *parser) hasLabel(name string, mustBeLoop bool) bool {
	for _, label := range p.labels {
		if label.name == name {
			return !mustBeLoop || label.isLoop
		}
	}
	return false
}

func (p *parser) parseLabelName() *js_ast.LocName {
	if p.lexer.Token != js_lexer.TIdentifier || p.lexer.CanInsertSemicolon() {
		return nil
	}
	name := js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
	p.lexer.Next()
	return &name
}

func (p *parser) parseIfStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TIf)
	p.lexer.Expect(js_lexer.TOpenParen)
	test := p.parseExpr(js_ast.LLowest)
	p.lexer.Expect(js_lexer.TCloseParen)
	yes := p.parseStmt(parseStmtOpts{})

	var no *js_ast.Stmt
	if p.lexer.Token == js_lexer.TElse {
		p.lexer.Next()
		stmt := p.parseStmt(parseStmtOpts{})
		no = &stmt
	}

	return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{Test: test, Yes: yes, No: no}}
}

func (p *parser) parseSwitchStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TSwitch)
	p.lexer.Expect(js_lexer.TOpenParen)
	test := p.parseExpr(js_ast.LLowest)
	p.lexer.Expect(js_lexer.TCloseParen)
	p.lexer.Expect(js_lexer.TOpenBrace)

	cases := []js_ast.Case{}
	foundDefault := false
	p.switchDepth++

	for p.lexer.Token != js_lexer.TCloseBrace {
		var value *js_ast.Expr

		if p.lexer.Token == js_lexer.TDefault {
			if foundDefault {
				p.raise(p.lexer.Loc(), "Multiple default clauses are not allowed")
			}
			foundDefault = true
			p.lexer.Next()
			p.lexer.Expect(js_lexer.TColon)
		} else {
			p.lexer.Expect(js_lexer.TCase)
			expr := p.parseExpr(js_ast.LLowest)
			value = &expr
			p.lexer.Expect(js_lexer.TColon)
		}

		body := []js_ast.Stmt{}
		for p.lexer.Token != js_lexer.TCloseBrace && p.lexer.Token != js_lexer.TCase &&
			p.lexer.Token != js_lexer.TDefault {
			body = append(body, p.parseStmt(parseStmtOpts{allowLexicalDecl: true}))
		}

		cases = append(cases, js_ast.Case{Value: value, Body: body})
	}

	p.switchDepth--
	p.lexer.Expect(js_lexer.TCloseBrace)
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SSwitch{Test: test, Cases: cases}}
}

func (p *parser) parseTryStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TTry)
	p.lexer.Expect(js_lexer.TOpenBrace)
	body := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
	p.lexer.Next()

	var catch *js_ast.Catch
	var finally *js_ast.Finally

	if p.lexer.Token == js_lexer.TCatch {
		catchLoc := p.lexer.Loc()
		p.lexer.Next()

		var binding *js_ast.Binding
		// The "catch" binding is optional since ES2019
		if p.lexer.Token == js_lexer.TOpenParen {
			p.lexer.Next()
			value := p.parseBinding()
			binding = &value
			p.lexer.Expect(js_lexer.TCloseParen)
		}

		p.lexer.Expect(js_lexer.TOpenBrace)
		stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
		p.lexer.Next()
		catch = &js_ast.Catch{Loc: catchLoc, Binding: binding, Body: stmts}
	}

	if p.lexer.Token == js_lexer.TFinally {
		finallyLoc := p.lexer.Loc()
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenBrace)
		stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
		p.lexer.Next()
		finally = &js_ast.Finally{Loc: finallyLoc, Stmts: stmts}
	}

	if catch == nil && finally == nil {
		p.raise(loc, "Missing catch or finally clause")
	}

	return js_ast.Stmt{Loc: loc, Data: &js_ast.STry{Body: body, Catch: catch, Finally: finally}}
}

func (p *parser) parseForStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TFor)
	p.lexer.Expect(js_lexer.TOpenParen)

	var init *js_ast.Stmt

	// "in" must be allowed again after the init clause
	p.allowIn = false

	switch p.lexer.Token {
	case js_lexer.TSemicolon:

	case js_lexer.TVar:
		initLoc := p.lexer.Loc()
		p.lexer.Next()
		decls := p.parseDecls()
		init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}}

	case js_lexer.TConst:
		initLoc := p.lexer.Loc()
		p.lexer.Next()
		decls := p.parseDecls()
		init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls}}

	default:
		if p.lexer.IsContextualKeyword("let") {
			initLoc := p.lexer.Loc()
			p.lexer.Next()
			switch p.lexer.Token {
			case js_lexer.TIdentifier, js_lexer.TOpenBracket, js_lexer.TOpenBrace:
				decls := p.parseDecls()
				init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls}}
			default:
				expr := p.parseSuffix(js_ast.Expr{Loc: initLoc, Data: &js_ast.EIdentifier{Name: "let"}}, js_ast.LLowest)
				init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SExpr{Value: expr}}
			}
		} else {
			expr := p.parseExpr(js_ast.LLowest)
			init = &js_ast.Stmt{Loc: expr.Loc, Data: &js_ast.SExpr{Value: expr}}
		}
	}

	p.allowIn = true

	// Detect for-in and for-of loops
	if p.lexer.Token == js_lexer.TIn {
		p.assertValidForInOfInit(init, "for-in")
		p.lexer.Next()
		value := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		p.loopDepth++
		body := p.parseStmt(parseStmtOpts{})
		p.loopDepth--
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{Init: *init, Value: value, Body: body}}
	}

	if p.lexer.IsContextualKeyword("of") {
		p.assertValidForInOfInit(init, "for-of")
		p.lexer.Next()
		value := p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseParen)
		p.loopDepth++
		body := p.parseStmt(parseStmtOpts{})
		p.loopDepth--
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{Init: *init, Value: value, Body: body}}
	}

	p.lexer.Expect(js_lexer.TSemicolon)

	var test *js_ast.Expr
	if p.lexer.Token != js_lexer.TSemicolon {
		expr := p.parseExpr(js_ast.LLowest)
		test = &expr
	}
	p.lexer.Expect(js_lexer.TSemicolon)

	var update *js_ast.Expr
	if p.lexer.Token != js_lexer.TCloseParen {
		expr := p.parseExpr(js_ast.LLowest)
		update = &expr
	}
	p.lexer.Expect(js_lexer.TCloseParen)

	p.loopDepth++
	body := p.parseStmt(parseStmtOpts{})
	p.loopDepth--
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{Init: init, Test: test, Update: update, Body: body}}
}

// assertValidForInOfInit enforces that the left side of for-in/for-of is a
// single declarator without an initializer, or an assignable expression.
func (p *parser) assertValidForInOfInit(init *js_ast.Stmt, kind string) {
	if init == nil {
		p.raise(p.lexer.Loc(), fmt.Sprintf("Missing left side of %s loop", kind))
	}
	switch s := init.Data.(type) {
	case *js_ast.SLocal:
		if len(s.Decls) != 1 {
			p.raise(init.Loc, fmt.Sprintf("The left side of a %s loop must have a single declaration", kind))
		}
		if s.Decls[0].Value != nil {
			p.raise(init.Loc, fmt.Sprintf("The declaration in a %s loop cannot have an initializer", kind))
		}
	case *js_ast.SExpr:
		p.assertValidAssignTarget(s.Value)
	default:
		p.raise(init.Loc, fmt.Sprintf("Invalid left side of %s loop", kind))
	}
}

func (p *parser) parseFnStmt(loc logger.Loc, isAsync bool, isNameOptional bool) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TFunction)

	isGenerator := false
	if p.lexer.Token == js_lexer.TAsterisk {
		isGenerator = true
		p.lexer.Next()
	}

	var name *js_ast.LocName
	if p.lexer.Token == js_lexer.TIdentifier || !isNameOptional {
		if p.lexer.Token != js_lexer.TIdentifier {
			p.lexer.Expected(js_lexer.TIdentifier)
		}
		name = &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.checkIdentifierName(name.Loc, name.Name)
		p.lexer.Next()
	}

	fn := p.parseFn(name, isAsync, isGenerator)
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn}}
}

func (p *parser) parseAsyncFnStmt(loc logger.Loc) (bool, js_ast.Stmt) {
	// Only "async [no newline] function" makes a statement; everything else
	// falls through to expression parsing
	contents := p.source.Contents
	i := int(p.lexer.Range().End())
	for i < len(contents) && (contents[i] == ' ' || contents[i] == '\t') {
		i++
	}
	if i+8 > len(contents) || contents[i:i+8] != "function" {
		return false, js_ast.Stmt{}
	}

	p.lexer.Next() // "async"
	return true, p.parseFnStmt(loc, true, false)
}

func (p *parser) parseClassStmt(loc logger.Loc, isNameOptional bool) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TClass)

	var name *js_ast.LocName
	if p.lexer.Token == js_lexer.TIdentifier || !isNameOptional {
		if p.lexer.Token != js_lexer.TIdentifier {
			p.lexer.Expected(js_lexer.TIdentifier)
		}
		name = &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.checkIdentifierName(name.Loc, name.Name)
		p.lexer.Next()
	}

	class := p.parseClass(name)
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class}}
}

func (p *parser) parseImportStmt(loc logger.Loc, opts parseStmtOpts) js_ast.Stmt {
	p.lexer.Next()

	// "import('path')" is an expression, not a statement
	if p.lexer.Token == js_lexer.TOpenParen {
		expr := p.parseSuffix(p.parseImportExpr(loc), js_ast.LLowest)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
	}

	if !opts.isModuleScope {
		p.raise(loc, "Unexpected \"import\"")
	}

	stmt := js_ast.SImport{}

	switch p.lexer.Token {
	case js_lexer.TStringLiteral:
		// "import 'path'"
		stmt.Source = p.lexer.StringLiteral
		stmt.SourceLoc = p.lexer.Loc()
		p.lexer.Next()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &stmt}

	case js_lexer.TAsterisk:
		// "import * as ns from 'path'"
		p.lexer.Next()
		p.expectContextualKeyword("as")
		stmt.StarName = p.parseBindingName()

	case js_lexer.TOpenBrace:
		// "import {item1, item2} from 'path'"
		stmt.Mappings = p.parseImportClause()

	case js_lexer.TIdentifier:
		// "import defaultItem from 'path'"
		stmt.DefaultName = p.parseBindingName()

		if p.lexer.Token == js_lexer.TComma {
			p.lexer.Next()
			switch p.lexer.Token {
			case js_lexer.TAsterisk:
				p.lexer.Next()
				p.expectContextualKeyword("as")
				stmt.StarName = p.parseBindingName()
			case js_lexer.TOpenBrace:
				stmt.Mappings = p.parseImportClause()
			default:
				p.lexer.Unexpected()
			}
		}

	default:
		p.lexer.Unexpected()
	}

	p.expectContextualKeyword("from")
	if p.lexer.Token != js_lexer.TStringLiteral {
		p.lexer.Expected(js_lexer.TStringLiteral)
	}
	stmt.Source = p.lexer.StringLiteral
	stmt.SourceLoc = p.lexer.Loc()
	p.lexer.Next()
	p.lexer.ExpectOrInsertSemicolon()
	return js_ast.Stmt{Loc: loc, Data: &stmt}
}

func (p *parser) parseBindingName() *js_ast.LocName {
	if p.lexer.Token != js_lexer.TIdentifier {
		p.lexer.Expected(js_lexer.TIdentifier)
	}
	name := &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
	p.checkIdentifierName(name.Loc, name.Name)
	p.lexer.Next()
	return name
}

func (p *parser) parseImportClause() []js_ast.NameMapping {
	p.lexer.Expect(js_lexer.TOpenBrace)
	mappings := []js_ast.NameMapping{}

	for p.lexer.Token != js_lexer.TCloseBrace {
		itemLoc := p.lexer.Loc()

		// The foreign name may be any identifier-like word including keywords
		foreign := p.lexer.Identifier
		if p.lexer.Token != js_lexer.TIdentifier && !p.lexer.Token.IsKeyword() {
			p.lexer.Expected(js_lexer.TIdentifier)
		}
		if p.lexer.Token.IsKeyword() {
			foreign = p.lexer.Raw()
		}
		local := js_ast.LocName{Loc: itemLoc, Name: foreign}
		p.lexer.Next()

		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			if p.lexer.Token != js_lexer.TIdentifier {
				p.lexer.Expected(js_lexer.TIdentifier)
			}
			local = js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
			p.lexer.Next()
		} else if js_lexer.Keywords[foreign] != 0 {
			// A keyword must be renamed to be used as a local binding
			p.raise(itemLoc, fmt.Sprintf("Cannot use %q as an identifier here", foreign))
		}
		p.checkIdentifierName(local.Loc, local.Name)

		mappings = append(mappings, js_ast.NameMapping{Loc: itemLoc, Foreign: foreign, Local: local})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return mappings
}

func (p *parser) parseExportStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()

	stmt := js_ast.SExport{}

	switch p.lexer.Token {
	case js_lexer.TAsterisk:
		// "export * from 'path'"
		p.lexer.Next()
		stmt.IsStar = true
		p.expectContextualKeyword("from")
		if p.lexer.Token != js_lexer.TStringLiteral {
			p.lexer.Expected(js_lexer.TStringLiteral)
		}
		stmt.Source = p.lexer.StringLiteral
		stmt.SourceLoc = p.lexer.Loc()
		p.lexer.Next()
		p.lexer.ExpectOrInsertSemicolon()

	case js_lexer.TOpenBrace:
		// "export {a, b as c}" or "export {a} from 'path'"
		stmt.Mappings = p.parseExportClause()
		if p.lexer.IsContextualKeyword("from") {
			p.lexer.Next()
			if p.lexer.Token != js_lexer.TStringLiteral {
				p.lexer.Expected(js_lexer.TStringLiteral)
			}
			stmt.Source = p.lexer.StringLiteral
			stmt.SourceLoc = p.lexer.Loc()
			p.lexer.Next()
		}
		p.lexer.ExpectOrInsertSemicolon()

	case js_lexer.TDefault:
		p.lexer.Next()
		stmt.IsDefault = true

		switch {
		case p.lexer.Token == js_lexer.TFunction:
			decl := p.parseFnStmt(p.lexer.Loc(), false, true)
			stmt.Decl = &decl
		case p.lexer.Token == js_lexer.TClass:
			decl := p.parseClassStmt(p.lexer.Loc(), true)
			stmt.Decl = &decl
		default:
			expr := p.parseExpr(js_ast.LComma)
			stmt.DefaultExpr = &expr
			p.lexer.ExpectOrInsertSemicolon()
		}

	case js_lexer.TVar, js_lexer.TConst, js_lexer.TFunction, js_lexer.TClass:
		decl := p.parseStmt(parseStmtOpts{allowLexicalDecl: true})
		stmt.Decl = &decl

	default:
		if p.lexer.IsContextualKeyword("let") {
			decl := p.parseStmt(parseStmtOpts{allowLexicalDecl: true})
			stmt.Decl = &decl
			break
		}
		p.lexer.Unexpected()
	}

	return js_ast.Stmt{Loc: loc, Data: &stmt}
}

func (p *parser) parseExportClause() []js_ast.NameMapping {
	p.lexer.Expect(js_lexer.TOpenBrace)
	mappings := []js_ast.NameMapping{}

	for p.lexer.Token != js_lexer.TCloseBrace {
		itemLoc := p.lexer.Loc()
		local := p.lexer.Identifier
		if p.lexer.Token != js_lexer.TIdentifier {
			p.lexer.Expected(js_lexer.TIdentifier)
		}
		p.lexer.Next()

		foreign := local
		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			if p.lexer.Token != js_lexer.TIdentifier && !p.lexer.Token.IsKeyword() {
				p.lexer.Expected(js_lexer.TIdentifier)
			}
			foreign = p.lexer.Raw()
			p.lexer.Next()
		}

		mappings = append(mappings, js_ast.NameMapping{
			Loc:     itemLoc,
			Foreign: foreign,
			Local:   js_ast.LocName{Loc: itemLoc, Name: local},
		})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return mappings
}

func (p *parser) expectContextualKeyword(text string) {
	if !p.lexer.IsContextualKeyword(text) {
		p.lexer.ExpectedString(fmt.Sprintf("%q", text))
	}
	p.lexer.Next()
}

// checkIdentifierName rejects reserved words used as binding names.
func (p *parser) checkIdentifierName(loc logger.Loc, name string) {
	if p.isStrict && js_lexer.StrictModeReservedWords[name] {
		p.raise(loc, fmt.Sprintf("%q is a reserved word in strict mode", name))
	}
	if name == "yield" && p.inGenerator {
		p.raise(loc, "Cannot use \"yield\" as an identifier inside a generator")
	}
	if name == "await" && p.inAsync {
		p.raise(loc, "Cannot use \"await\" as an identifier inside an async function")
	}
}
