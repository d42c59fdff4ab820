package js_ast

import (
	"github.com/miroslavpokorny/Njsast/internal/logger"
)

// Every module (i.e. file) is parsed into a separate AST data structure. The
// tree is a closed sum type: expressions, statements and bindings are small
// structs behind the marker interfaces E, S and B. Each child is exclusively
// owned by its parent; the only back-edges are the weak Thedef pointers from
// identifiers into the symbol table, which are filled in by the scope
// analyzer after parsing.

type L int

// https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Operators/Operator_Precedence
const (
	LLowest L = iota
	LComma
	LSpread
	LYield
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitwiseOr
	LBitwiseXor
	LBitwiseAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponentiation
	LPrefix
	LPostfix
	LNew
	LCall
	LMember
)

type OpCode int

func (op OpCode) IsPrefix() bool {
	return op < UnOpPostDec
}

func (op OpCode) IsUnaryUpdate() bool {
	return op >= UnOpPreDec && op <= UnOpPostInc
}

func (op OpCode) IsLeftAssociative() bool {
	return op >= BinOpAdd && op < BinOpComma && op != BinOpPow
}

func (op OpCode) IsRightAssociative() bool {
	return op >= BinOpAssign || op == BinOpPow
}

func (op OpCode) IsAssign() bool {
	return op >= BinOpAssign
}

// If you add a new token, remember to add it to "OpTable" too
const (
	// Prefix
	UnOpPos OpCode = iota
	UnOpNeg
	UnOpCpl
	UnOpNot
	UnOpVoid
	UnOpTypeof
	UnOpDelete

	// Prefix update
	UnOpPreDec
	UnOpPreInc

	// Postfix update
	UnOpPostDec
	UnOpPostInc

	// Left-associative
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpRem
	BinOpPow
	BinOpLt
	BinOpLe
	BinOpGt
	BinOpGe
	BinOpIn
	BinOpInstanceof
	BinOpShl
	BinOpShr
	BinOpUShr
	BinOpLooseEq
	BinOpLooseNe
	BinOpStrictEq
	BinOpStrictNe
	BinOpNullishCoalescing
	BinOpLogicalOr
	BinOpLogicalAnd
	BinOpBitwiseOr
	BinOpBitwiseAnd
	BinOpBitwiseXor

	// Non-associative
	BinOpComma

	// Right-associative
	BinOpAssign
	BinOpAddAssign
	BinOpSubAssign
	BinOpMulAssign
	BinOpDivAssign
	BinOpRemAssign
	BinOpPowAssign
	BinOpShlAssign
	BinOpShrAssign
	BinOpUShrAssign
	BinOpBitwiseOrAssign
	BinOpBitwiseAndAssign
	BinOpBitwiseXorAssign
)

type opTableEntry struct {
	Text      string
	Level     L
	IsKeyword bool
}

var OpTable = []opTableEntry{
	// Prefix
	{"+", LPrefix, false},
	{"-", LPrefix, false},
	{"~", LPrefix, false},
	{"!", LPrefix, false},
	{"void", LPrefix, true},
	{"typeof", LPrefix, true},
	{"delete", LPrefix, true},

	// Prefix update
	{"--", LPrefix, false},
	{"++", LPrefix, false},

	// Postfix update
	{"--", LPostfix, false},
	{"++", LPostfix, false},

	// Left-associative
	{"+", LAdd, false},
	{"-", LAdd, false},
	{"*", LMultiply, false},
	{"/", LMultiply, false},
	{"%", LMultiply, false},
	{"**", LExponentiation, false}, // Right-associative
	{"<", LCompare, false},
	{"<=", LCompare, false},
	{">", LCompare, false},
	{">=", LCompare, false},
	{"in", LCompare, true},
	{"instanceof", LCompare, true},
	{"<<", LShift, false},
	{">>", LShift, false},
	{">>>", LShift, false},
	{"==", LEquals, false},
	{"!=", LEquals, false},
	{"===", LEquals, false},
	{"!==", LEquals, false},
	{"??", LNullishCoalescing, false},
	{"||", LLogicalOr, false},
	{"&&", LLogicalAnd, false},
	{"|", LBitwiseOr, false},
	{"&", LBitwiseAnd, false},
	{"^", LBitwiseXor, false},

	// Non-associative
	{",", LComma, false},

	// Right-associative
	{"=", LAssign, false},
	{"+=", LAssign, false},
	{"-=", LAssign, false},
	{"*=", LAssign, false},
	{"/=", LAssign, false},
	{"%=", LAssign, false},
	{"**=", LAssign, false},
	{"<<=", LAssign, false},
	{">>=", LAssign, false},
	{">>>=", LAssign, false},
	{"|=", LAssign, false},
	{"&=", LAssign, false},
	{"^=", LAssign, false},
}

type LocName struct {
	Loc    logger.Loc
	Name   string
	Thedef *SymbolDef
}

type PropertyKind int

const (
	PropertyNormal PropertyKind = iota
	PropertyGet
	PropertySet
	PropertySpread
)

type Property struct {
	Key Expr

	// This is omitted for shorthand properties
	Value *Expr

	// This is used when parsing a pattern that uses default values:
	//
	//   [a = 1] = [];
	//   ({a = 1} = {});
	//
	Initializer *Expr

	Kind         PropertyKind
	IsComputed   bool
	IsMethod     bool
	IsStatic     bool
	WasShorthand bool
}

type PropertyBinding struct {
	IsComputed   bool
	IsSpread     bool
	Key          Expr
	Value        Binding
	DefaultValue *Expr
}

type Arg struct {
	Binding Binding
	Default *Expr
}

type Fn struct {
	Name *LocName
	Args []Arg
	Body FnBody

	Scope *Scope

	IsAsync     bool
	IsGenerator bool
	HasRestArg  bool
}

type FnBody struct {
	Loc   logger.Loc
	Stmts []Stmt
}

type Class struct {
	Name       *LocName
	Extends    *Expr
	BodyLoc    logger.Loc
	Properties []Property
}

type ArrayBinding struct {
	Binding      Binding
	DefaultValue *Expr
}

type Binding struct {
	Loc  logger.Loc
	Data B
}

// This interface is never called. Its purpose is to encode a variant type in
// Go's type system.
type B interface{ isBinding() }

type BMissing struct{}

type BIdentifier struct {
	Name   string
	Kind   SymbolKind
	Thedef *SymbolDef
}

type BArray struct {
	Items     []ArrayBinding
	HasSpread bool
}

type BObject struct {
	Properties []PropertyBinding
}

func (*BMissing) isBinding()    {}
func (*BIdentifier) isBinding() {}
func (*BArray) isBinding()      {}
func (*BObject) isBinding()     {}

type Expr struct {
	Loc  logger.Loc
	Data E
}

// This interface is never called. Its purpose is to encode a variant type in
// Go's type system.
type E interface{ isExpr() }

type EArray struct {
	Items []Expr
}

type EUnary struct {
	Op    OpCode
	Value Expr
}

type EBinary struct {
	Op    OpCode
	Left  Expr
	Right Expr
}

// A comma expression list. Always has at least two elements; a degenerate
// single element must be unwrapped by the caller.
type ESequence struct {
	Exprs []Expr
}

type EBoolean struct{ Value bool }

type ESuper struct{}

type ENull struct{}

type EUndefined struct{}

type EThis struct{}

type ENew struct {
	Target Expr
	Args   []Expr
}

type ENewTarget struct{}

type ECall struct {
	Target       Expr
	Args         []Expr
	IsDirectEval bool
}

type EDot struct {
	Target  Expr
	Name    string
	NameLoc logger.Loc
}

type EIndex struct {
	Target Expr
	Index  Expr
}

type EArrow struct {
	Args []Arg
	Body FnBody

	Scope *Scope

	IsAsync    bool
	HasRestArg bool
	PreferExpr bool // Use shorthand if true and "Body" is a single return statement
}

type EFunction struct{ Fn Fn }

type EClass struct {
	Class Class
	Scope *Scope
}

// A reference to a name. Thedef is nil until the scope analyzer runs, and
// stays nil afterwards for free globals.
type EIdentifier struct {
	Name   string
	Thedef *SymbolDef
}

type EMissing struct{}

type ENumber struct {
	Value float64
	Raw   string
}

type EObject struct {
	Properties []Property
}

type ESpread struct{ Value Expr }

type EString struct {
	Value string
}

type TemplatePart struct {
	Value   Expr
	TailLoc logger.Loc
	Tail    string
	TailRaw string
}

type ETemplate struct {
	Tag     *Expr
	Head    string
	HeadRaw string
	Parts   []TemplatePart
}

type ERegExp struct {
	Pattern string
	Flags   string
}

type EAwait struct {
	Value Expr
}

type EYield struct {
	Value  *Expr
	IsStar bool
}

type EIf struct {
	Test Expr
	Yes  Expr
	No   Expr
}

// A dynamic "import(...)" expression. The bundler rewrites these to a runtime
// trampoline call.
type EImport struct {
	Expr Expr
}

func (*EArray) isExpr()      {}
func (*EUnary) isExpr()      {}
func (*EBinary) isExpr()     {}
func (*ESequence) isExpr()   {}
func (*EBoolean) isExpr()    {}
func (*ESuper) isExpr()      {}
func (*ENull) isExpr()       {}
func (*EUndefined) isExpr()  {}
func (*EThis) isExpr()       {}
func (*ENew) isExpr()        {}
func (*ENewTarget) isExpr()  {}
func (*ECall) isExpr()       {}
func (*EDot) isExpr()        {}
func (*EIndex) isExpr()      {}
func (*EArrow) isExpr()      {}
func (*EFunction) isExpr()   {}
func (*EClass) isExpr()      {}
func (*EIdentifier) isExpr() {}
func (*EMissing) isExpr()    {}
func (*ENumber) isExpr()     {}
func (*EObject) isExpr()     {}
func (*ESpread) isExpr()     {}
func (*EString) isExpr()     {}
func (*ETemplate) isExpr()   {}
func (*ERegExp) isExpr()     {}
func (*EAwait) isExpr()      {}
func (*EYield) isExpr()      {}
func (*EIf) isExpr()         {}
func (*EImport) isExpr()     {}

func Assign(a Expr, b Expr) Expr {
	return Expr{a.Loc, &EBinary{BinOpAssign, a, b}}
}

func Not(a Expr) Expr {
	// "!!!a" => "!a"
	if not, ok := a.Data.(*EUnary); ok && not.Op == UnOpNot && IsBooleanValue(not.Value) {
		return not.Value
	}
	return Expr{a.Loc, &EUnary{UnOpNot, a}}
}

func IsBooleanValue(a Expr) bool {
	switch e := a.Data.(type) {
	case *EBoolean:
		return true
	case *EUnary:
		return e.Op == UnOpNot || e.Op == UnOpDelete
	case *EBinary:
		switch e.Op {
		case BinOpStrictEq, BinOpStrictNe, BinOpLooseEq, BinOpLooseNe,
			BinOpLt, BinOpGt, BinOpLe, BinOpGe,
			BinOpInstanceof, BinOpIn:
			return true
		case BinOpLogicalOr, BinOpLogicalAnd:
			return IsBooleanValue(e.Left) && IsBooleanValue(e.Right)
		}
	}
	return false
}

// JoinWithSequence flattens two expressions into one sequence expression.
func JoinWithSequence(a Expr, b Expr) Expr {
	exprs := make([]Expr, 0, 4)
	if seq, ok := a.Data.(*ESequence); ok {
		exprs = append(exprs, seq.Exprs...)
	} else {
		exprs = append(exprs, a)
	}
	if seq, ok := b.Data.(*ESequence); ok {
		exprs = append(exprs, seq.Exprs...)
	} else {
		exprs = append(exprs, b)
	}
	return Expr{a.Loc, &ESequence{Exprs: exprs}}
}

type Stmt struct {
	Loc  logger.Loc
	Data S
}

// This interface is never called. Its purpose is to encode a variant type in
// Go's type system.
type S interface{ isStmt() }

type SBlock struct {
	Stmts []Stmt
	Scope *Scope
}

type SEmpty struct{}

type SDebugger struct{}

// A string-literal expression statement in the directive prologue position.
type SDirective struct {
	Value string
}

type SExpr struct {
	Value Expr
}

type SFunction struct {
	Fn       Fn
	IsExport bool
}

type SClass struct {
	Class    Class
	Scope    *Scope
	IsExport bool
}

type SLabel struct {
	Name   LocName
	Stmt   Stmt
	IsLoop bool
}

type SIf struct {
	Test Expr
	Yes  Stmt
	No   *Stmt
}

type SFor struct {
	Init   *Stmt // May be a SLocal or SExpr
	Test   *Expr
	Update *Expr
	Body   Stmt
	Scope  *Scope
}

type SForIn struct {
	Init  Stmt // May be a SLocal or SExpr
	Value Expr
	Body  Stmt
	Scope *Scope
}

type SForOf struct {
	Init  Stmt // May be a SLocal or SExpr
	Value Expr
	Body  Stmt
	Scope *Scope
}

type SDoWhile struct {
	Body Stmt
	Test Expr
}

type SWhile struct {
	Test Expr
	Body Stmt
}

type SWith struct {
	Value Expr
	Body  Stmt
}

type Catch struct {
	Loc     logger.Loc
	Binding *Binding
	Body    []Stmt
	Scope   *Scope
}

type Finally struct {
	Loc   logger.Loc
	Stmts []Stmt
}

type STry struct {
	Body    []Stmt
	Catch   *Catch
	Finally *Finally
}

type Case struct {
	Value *Expr // nil for "default:"
	Body  []Stmt
}

type SSwitch struct {
	Test  Expr
	Cases []Case
	Scope *Scope
}

type SReturn struct {
	Value *Expr
}

type SThrow struct {
	Value Expr
}

type LocalKind uint8

const (
	LocalVar LocalKind = iota
	LocalLet
	LocalConst
)

func (kind LocalKind) String() string {
	switch kind {
	case LocalLet:
		return "let"
	case LocalConst:
		return "const"
	default:
		return "var"
	}
}

type Decl struct {
	Binding Binding
	Value   *Expr
}

type SLocal struct {
	Decls    []Decl
	Kind     LocalKind
	IsExport bool
}

type SBreak struct {
	Label *LocName
}

type SContinue struct {
	Label *LocName
}

// NameMapping is one "foreign as local" pair in an import or export clause.
type NameMapping struct {
	Loc     logger.Loc
	Foreign string
	Local   LocName
}

// This object represents all of these types of import statements:
//
//	import 'path'
//	import {item1, item2} from 'path'
//	import * as ns from 'path'
//	import defaultItem, {item1, item2} from 'path'
type SImport struct {
	Source      string
	SourceLoc   logger.Loc
	DefaultName *LocName
	StarName    *LocName
	Mappings    []NameMapping
}

// This object represents all forms of "export". Source is non-empty for
// re-exports ("export {a} from 'path'" and "export * from 'path'").
type SExport struct {
	Source    string
	SourceLoc logger.Loc
	Decl      *Stmt // SLocal, SFunction, or SClass
	Mappings  []NameMapping
	IsDefault bool
	IsStar    bool

	// Holds the expression of "export default <expr>"
	DefaultExpr *Expr
}

// SSplice is not a real statement: it is only valid as a transformer
// replacement in list position, where its statements are spliced into the
// containing list.
type SSplice struct {
	Stmts []Stmt
}

func (*SSplice) isStmt()    {}
func (*SBlock) isStmt()     {}
func (*SEmpty) isStmt()     {}
func (*SDebugger) isStmt()  {}
func (*SDirective) isStmt() {}
func (*SExpr) isStmt()      {}
func (*SFunction) isStmt()  {}
func (*SClass) isStmt()     {}
func (*SLabel) isStmt()     {}
func (*SIf) isStmt()        {}
func (*SFor) isStmt()       {}
func (*SForIn) isStmt()     {}
func (*SForOf) isStmt()     {}
func (*SDoWhile) isStmt()   {}
func (*SWhile) isStmt()     {}
func (*SWith) isStmt()      {}
func (*STry) isStmt()       {}
func (*SSwitch) isStmt()    {}
func (*SReturn) isStmt()    {}
func (*SThrow) isStmt()     {}
func (*SLocal) isStmt()     {}
func (*SBreak) isStmt()     {}
func (*SContinue) isStmt()  {}
func (*SImport) isStmt()    {}
func (*SExport) isStmt()    {}

// AST is the parsed toplevel of one source file.
type AST struct {
	Stmts       []Stmt
	ModuleScope *Scope

	// True when the directive prologue contains "use strict"
	Strict bool

	Source *logger.Source
}
