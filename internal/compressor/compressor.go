// Package compressor applies the optimizing transformations: unreachable-code
// elimination, block and empty-statement folding, boolean compression,
// function return compression, variable hoisting, and constant folding. A
// fixed-point driver reruns the enabled passes until the tree stops changing
// or MaxPasses is reached.
package compressor

import (
	"fmt"
	"math"

	"github.com/miroslavpokorny/Njsast/internal/config"
	"github.com/miroslavpokorny/Njsast/internal/js_ast"
	"github.com/miroslavpokorny/Njsast/internal/js_types"
	"github.com/miroslavpokorny/Njsast/internal/logger"
)

// ErrNotImplemented is wrapped by errors for compressor cases that raise
// explicitly (for-in, for-of, with in the unreachable-code pass).
var ErrNotImplemented = fmt.Errorf("not implemented")

type compressor struct {
	options config.CompressOptions
	changed bool
	err     error
}

// Compress runs the enabled passes to a fixed point. The input tree is
// mutated in place.
func Compress(tree *js_ast.AST, options config.CompressOptions) error {
	maxPasses := options.MaxPasses
	if maxPasses == 0 {
		maxPasses = 1
	}

	for pass := uint32(0); pass < maxPasses; pass++ {
		c := &compressor{options: options}
		transformer := &js_ast.Transformer{
			AfterStmt: c.afterStmt,
			AfterExpr: c.afterExpr,
		}
		tree.Stmts = transformer.TransformStmts(tree.Stmts)
		if c.err != nil {
			return c.err
		}
		if !c.changed {
			break
		}
	}

	// Hoisting is idempotent, so it runs once after the fixed point
	if options.EnableVariableHoisting {
		c := &compressor{options: options}
		c.hoistVariables(tree)
	}
	return nil
}

func (c *compressor) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *compressor) afterStmt(stmt js_ast.Stmt, inList bool) (js_ast.Stmt, js_ast.TransformAction) {
	if c.err != nil {
		return stmt, js_ast.TransformKeep
	}

	if c.options.EnableUnreachableCodeElimination {
		if result, action, handled := c.eliminateUnreachable(stmt, inList); handled {
			return result, action
		}
	}

	if c.options.EnableEmptyStatementElimination && inList {
		if _, ok := stmt.Data.(*js_ast.SEmpty); ok {
			c.changed = true
			return stmt, js_ast.TransformRemove
		}
	}

	if c.options.EnableBlockElimination {
		if result, action, handled := c.eliminateBlock(stmt, inList); handled {
			return result, action
		}
	}

	if c.options.EnableFunctionReturnCompress {
		if fn, ok := stmt.Data.(*js_ast.SFunction); ok {
			c.compressFnReturns(&fn.Fn.Body)
		}
	}

	// A var statement that lost all of its declarations disappears
	if local, ok := stmt.Data.(*js_ast.SLocal); ok && len(local.Decls) == 0 {
		c.changed = true
		if inList {
			return stmt, js_ast.TransformRemove
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SEmpty{}}, js_ast.TransformReplace
	}

	// A expression statement whose value was removed disappears
	if expr, ok := stmt.Data.(*js_ast.SExpr); ok {
		if _, ok := expr.Value.Data.(*js_ast.EMissing); ok {
			c.changed = true
			if inList {
				return stmt, js_ast.TransformRemove
			}
			return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SEmpty{}}, js_ast.TransformReplace
		}
	}

	return stmt, js_ast.TransformKeep
}

// eliminateUnreachable implements the constant-condition policies.
func (c *compressor) eliminateUnreachable(stmt js_ast.Stmt, inList bool) (js_ast.Stmt, js_ast.TransformAction, bool) {
	switch s := stmt.Data.(type) {
	case *js_ast.SIf:
		test, known := js_types.ToBoolean(s.Test.Data)
		if !known {
			return stmt, js_ast.TransformKeep, false
		}
		c.changed = true
		if test {
			return s.Yes, js_ast.TransformReplace, true
		}
		if s.No != nil {
			return *s.No, js_ast.TransformReplace, true
		}
		if inList {
			return stmt, js_ast.TransformRemove, true
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SEmpty{}}, js_ast.TransformReplace, true

	case *js_ast.SWhile:
		test, known := js_types.ToBoolean(s.Test.Data)
		if !known || test {
			return stmt, js_ast.TransformKeep, false
		}
		c.changed = true
		if inList {
			return stmt, js_ast.TransformRemove, true
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SEmpty{}}, js_ast.TransformReplace, true

	case *js_ast.SDoWhile:
		test, known := js_types.ToBoolean(s.Test.Data)
		if !known || test {
			return stmt, js_ast.TransformKeep, false
		}
		// The body ran once; it survives unless it contains a break
		if containsBreak(s.Body) {
			return stmt, js_ast.TransformKeep, false
		}
		c.changed = true
		return s.Body, js_ast.TransformReplace, true

	case *js_ast.SFor:
		if s.Test == nil {
			return stmt, js_ast.TransformKeep, false
		}
		test, known := js_types.ToBoolean(s.Test.Data)
		if !known || test {
			return stmt, js_ast.TransformKeep, false
		}
		c.changed = true
		if s.Init != nil {
			// The init clause still runs
			return *s.Init, js_ast.TransformReplace, true
		}
		if inList {
			return stmt, js_ast.TransformRemove, true
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SEmpty{}}, js_ast.TransformReplace, true

	case *js_ast.SForIn:
		c.fail(fmt.Errorf("%w: unreachable-code elimination inside for-in", ErrNotImplemented))
	case *js_ast.SForOf:
		c.fail(fmt.Errorf("%w: unreachable-code elimination inside for-of", ErrNotImplemented))
	case *js_ast.SWith:
		c.fail(fmt.Errorf("%w: unreachable-code elimination inside with", ErrNotImplemented))
	}
	return stmt, js_ast.TransformKeep, false
}

// containsBreak reports whether a break statement targets the enclosing
// loop from within this subtree.
func containsBreak(stmt js_ast.Stmt) bool {
	found := false
	walker := &js_ast.Walker{}
	walker.VisitStmt = func(s *js_ast.Stmt) bool {
		switch s.Data.(type) {
		case *js_ast.SBreak:
			found = true
			walker.Stop()
		case *js_ast.SWhile, *js_ast.SDoWhile, *js_ast.SFor, *js_ast.SForIn, *js_ast.SForOf, *js_ast.SSwitch:
			// A nested loop or switch captures the unlabeled breaks inside
			// it, and a labeled break inside it still reaches its label once
			// the enclosing loop is replaced by its body.
			return false
		case *js_ast.SFunction:
			return false
		}
		return true
	}
	walker.VisitExpr = func(e *js_ast.Expr) bool {
		switch (*e).Data.(type) {
		case *js_ast.EFunction, *js_ast.EArrow:
			return false
		}
		return true
	}
	walker.WalkStmt(&stmt)
	return found
}

// eliminateBlock folds nested blocks whose only effect is grouping.
func (c *compressor) eliminateBlock(stmt js_ast.Stmt, inList bool) (js_ast.Stmt, js_ast.TransformAction, bool) {
	block, ok := stmt.Data.(*js_ast.SBlock)
	if !ok {
		return stmt, js_ast.TransformKeep, false
	}

	// A block with lexical declarations is a real scope
	for _, inner := range block.Stmts {
		switch s := inner.Data.(type) {
		case *js_ast.SLocal:
			if s.Kind != js_ast.LocalVar {
				return stmt, js_ast.TransformKeep, false
			}
		case *js_ast.SFunction, *js_ast.SClass:
			return stmt, js_ast.TransformKeep, false
		}
	}

	switch len(block.Stmts) {
	case 0:
		c.changed = true
		if inList {
			return stmt, js_ast.TransformRemove, true
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SEmpty{}}, js_ast.TransformReplace, true

	case 1:
		c.changed = true
		return block.Stmts[0], js_ast.TransformReplace, true
	}

	// A multi-statement block in list position folds into the parent list
	if inList {
		c.changed = true
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SSplice{Stmts: block.Stmts}}, js_ast.TransformReplace, true
	}

	return stmt, js_ast.TransformKeep, false
}

// compressFnReturns merges a trailing "if (c) return a; return b" pair into
// a single conditional return and drops a trailing bare "return".
func (c *compressor) compressFnReturns(body *js_ast.FnBody) {
	stmts := body.Stmts

	for len(stmts) > 0 {
		last := stmts[len(stmts)-1]

		// "return" or "return undefined" at the end of a function is a no-op
		if ret, ok := last.Data.(*js_ast.SReturn); ok {
			if ret.Value == nil {
				stmts = stmts[:len(stmts)-1]
				c.changed = true
				continue
			}
			if _, isUndefined := ret.Value.Data.(*js_ast.EUndefined); isUndefined {
				stmts = stmts[:len(stmts)-1]
				c.changed = true
				continue
			}
		}

		// "if (c) return a; return b" => "return c ? a : b"
		if len(stmts) >= 2 {
			if ret, ok := last.Data.(*js_ast.SReturn); ok && ret.Value != nil {
				if ifStmt, ok := stmts[len(stmts)-2].Data.(*js_ast.SIf); ok && ifStmt.No == nil {
					if innerRet, ok := ifStmt.Yes.Data.(*js_ast.SReturn); ok && innerRet.Value != nil {
						merged := js_ast.Stmt{Loc: stmts[len(stmts)-2].Loc, Data: &js_ast.SReturn{
							Value: &js_ast.Expr{Loc: ifStmt.Test.Loc, Data: &js_ast.EIf{
								Test: ifStmt.Test,
								Yes:  *innerRet.Value,
								No:   *ret.Value,
							}},
						}}
						stmts = append(stmts[:len(stmts)-2], merged)
						c.changed = true
						continue
					}
				}
			}
		}

		break
	}

	body.Stmts = stmts
}

// hoistVariables moves every "var" declaration in a function body (or the
// toplevel) to a single declaration at the front, in declaration order,
// leaving initializers behind as plain assignments.
func (c *compressor) hoistVariables(tree *js_ast.AST) {
	tree.Stmts = c.hoistVariablesInBody(tree.Stmts)

	walker := &js_ast.Walker{}
	walker.VisitStmt = func(stmt *js_ast.Stmt) bool {
		if fn, ok := stmt.Data.(*js_ast.SFunction); ok {
			fn.Fn.Body.Stmts = c.hoistVariablesInBody(fn.Fn.Body.Stmts)
		}
		return true
	}
	walker.VisitExpr = func(expr *js_ast.Expr) bool {
		switch e := (*expr).Data.(type) {
		case *js_ast.EFunction:
			e.Fn.Body.Stmts = c.hoistVariablesInBody(e.Fn.Body.Stmts)
		case *js_ast.EArrow:
			e.Body.Stmts = c.hoistVariablesInBody(e.Body.Stmts)
		}
		return true
	}
	walker.WalkStmts(tree.Stmts)
}

func (c *compressor) hoistVariablesInBody(stmts []js_ast.Stmt) []js_ast.Stmt {
	var hoisted []js_ast.Decl

	// Only direct statements and statements inside plain nested blocks and
	// control-flow bodies are rewritten; nested functions hoist their own
	transformer := &js_ast.Transformer{}
	transformer.BeforeStmt = func(stmt js_ast.Stmt, inList bool) (js_ast.Stmt, js_ast.TransformAction) {
		switch s := stmt.Data.(type) {
		case *js_ast.SFunction:
			return stmt, js_ast.TransformReplace

		case *js_ast.SForIn:
			// The loop head declaration must stay; only the body is rewritten
			s.Body = transformer.TransformStmt(s.Body)
			return stmt, js_ast.TransformReplace

		case *js_ast.SForOf:
			s.Body = transformer.TransformStmt(s.Body)
			return stmt, js_ast.TransformReplace

		case *js_ast.SLocal:
			if s.Kind != js_ast.LocalVar {
				return stmt, js_ast.TransformKeep
			}

			assignments := []js_ast.Expr{}
			for _, decl := range s.Decls {
				id, ok := decl.Binding.Data.(*js_ast.BIdentifier)
				if !ok {
					// Destructuring declarations stay where they are
					return stmt, js_ast.TransformKeep
				}
				hoisted = append(hoisted, js_ast.Decl{Binding: js_ast.Binding{
					Loc:  decl.Binding.Loc,
					Data: &js_ast.BIdentifier{Name: id.Name, Kind: id.Kind, Thedef: id.Thedef},
				}})
				if decl.Value != nil {
					target := js_ast.Expr{Loc: decl.Binding.Loc, Data: &js_ast.EIdentifier{Name: id.Name, Thedef: id.Thedef}}
					assignments = append(assignments, js_ast.Assign(target, *decl.Value))
				}
			}

			if len(assignments) == 0 {
				c.changed = true
				return stmt, js_ast.TransformRemove
			}
			value := assignments[0]
			if len(assignments) > 1 {
				value = js_ast.Expr{Loc: assignments[0].Loc, Data: &js_ast.ESequence{Exprs: assignments}}
			}
			c.changed = true
			return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SExpr{Value: value}}, js_ast.TransformReplace
		}
		return stmt, js_ast.TransformKeep
	}
	transformer.BeforeExpr = func(expr js_ast.Expr, inList bool) (js_ast.Expr, js_ast.TransformAction) {
		switch expr.Data.(type) {
		case *js_ast.EFunction, *js_ast.EArrow:
			return expr, js_ast.TransformReplace
		}
		return expr, js_ast.TransformKeep
	}

	stmts = transformer.TransformStmts(stmts)

	if len(hoisted) == 0 {
		return stmts
	}

	// Deduplicate repeated "var" names, keeping the first
	seen := map[string]bool{}
	decls := hoisted[:0]
	for _, decl := range hoisted {
		name := decl.Binding.Data.(*js_ast.BIdentifier).Name
		if seen[name] {
			continue
		}
		seen[name] = true
		decls = append(decls, decl)
	}

	// Insert after the directive prologue
	insertAt := 0
	for insertAt < len(stmts) {
		if _, ok := stmts[insertAt].Data.(*js_ast.SDirective); !ok {
			break
		}
		insertAt++
	}

	varStmt := js_ast.Stmt{Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}}
	result := make([]js_ast.Stmt, 0, len(stmts)+1)
	result = append(result, stmts[:insertAt]...)
	result = append(result, varStmt)
	result = append(result, stmts[insertAt:]...)
	return result
}

func (c *compressor) afterExpr(expr js_ast.Expr, inList bool) (js_ast.Expr, js_ast.TransformAction) {
	if c.err != nil {
		return expr, js_ast.TransformKeep
	}

	if c.options.EnableBooleanCompress {
		if result, changed := c.compressBoolean(expr); changed {
			c.changed = true
			return result, js_ast.TransformReplace
		}
	}

	if c.options.EnableFunctionReturnCompress {
		if fn, ok := expr.Data.(*js_ast.EFunction); ok {
			c.compressFnReturns(&fn.Fn.Body)
		}
	}

	if result, changed := c.foldConstant(expr); changed {
		c.changed = true
		return result, js_ast.TransformReplace
	}

	return expr, js_ast.TransformKeep
}

// compressBoolean removes double negations whose operand is already
// boolean-typed by context.
func (c *compressor) compressBoolean(expr js_ast.Expr) (js_ast.Expr, bool) {
	if outer, ok := expr.Data.(*js_ast.EUnary); ok && outer.Op == js_ast.UnOpNot {
		if inner, ok := outer.Value.Data.(*js_ast.EUnary); ok && inner.Op == js_ast.UnOpNot {
			if js_ast.IsBooleanValue(inner.Value) {
				return inner.Value, true
			}
		}
	}
	return expr, false
}

// foldConstant evaluates operators whose operands are compile-time
// constants, per the ECMA abstract operations.
func (c *compressor) foldConstant(expr js_ast.Expr) (js_ast.Expr, bool) {
	switch e := expr.Data.(type) {
	case *js_ast.EUnary:
		switch e.Op {
		case js_ast.UnOpNot:
			if value, ok := js_types.ToBoolean(e.Value.Data); ok {
				return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EBoolean{Value: !value}}, true
			}

		case js_ast.UnOpNeg:
			if value, ok := js_types.ToNumber(e.Value.Data); ok {
				if isConstantLiteral(e.Value.Data) {
					return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ENumber{Value: -value}}, true
				}
			}

		case js_ast.UnOpPos:
			if value, ok := js_types.ToNumber(e.Value.Data); ok {
				if isConstantLiteral(e.Value.Data) {
					return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ENumber{Value: value}}, true
				}
			}

		case js_ast.UnOpVoid:
			if isConstantLiteral(e.Value.Data) {
				return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EUndefined{}}, true
			}
		}

	case *js_ast.EBinary:
		left, leftOk := constantValue(e.Left.Data)
		right, rightOk := constantValue(e.Right.Data)
		if !leftOk || !rightOk {
			// Logical operators only need a constant left side
			if leftOk {
				switch e.Op {
				case js_ast.BinOpLogicalAnd:
					if test, ok := js_types.ToBoolean(e.Left.Data); ok {
						if test {
							return e.Right, true
						}
						return e.Left, true
					}
				case js_ast.BinOpLogicalOr:
					if test, ok := js_types.ToBoolean(e.Left.Data); ok {
						if test {
							return e.Left, true
						}
						return e.Right, true
					}
				}
			}
			return expr, false
		}

		if folded, ok := foldBinary(e.Op, left, right, expr.Loc); ok {
			return folded, true
		}

	case *js_ast.EIf:
		if test, ok := js_types.ToBoolean(e.Test.Data); ok {
			if test {
				return e.Yes, true
			}
			return e.No, true
		}
	}

	return expr, false
}

// constant is the Go representation of a constant literal, as extracted by
// constantValue.
type constant struct {
	isNumber bool
	isString bool
	isBool   bool
	isNull   bool
	isUndef  bool
	number   float64
	str      string
	boolean  bool
}

func constantValue(data js_ast.E) (constant, bool) {
	switch e := data.(type) {
	case *js_ast.EIdentifier:
		if e.Thedef == nil {
			switch e.Name {
			case "undefined":
				return constant{isUndef: true}, true
			case "NaN":
				return constant{isNumber: true, number: math.NaN()}, true
			case "Infinity":
				return constant{isNumber: true, number: math.Inf(1)}, true
			}
		}
		return constant{}, false

	case *js_ast.ENumber:
		return constant{isNumber: true, number: e.Value}, true
	case *js_ast.EString:
		return constant{isString: true, str: e.Value}, true
	case *js_ast.EBoolean:
		return constant{isBool: true, boolean: e.Value}, true
	case *js_ast.ENull:
		return constant{isNull: true}, true
	case *js_ast.EUndefined:
		return constant{isUndef: true}, true
	}
	return constant{}, false
}

func isConstantLiteral(data js_ast.E) bool {
	_, ok := constantValue(data)
	return ok
}

func (v constant) toNumber() float64 {
	switch {
	case v.isNumber:
		return v.number
	case v.isString:
		return js_types.StringToNumber(v.str)
	case v.isBool:
		if v.boolean {
			return 1
		}
		return 0
	case v.isNull:
		return 0
	default:
		return math.NaN()
	}
}

func (v constant) toString() string {
	switch {
	case v.isNumber:
		return js_types.NumberToString(v.number)
	case v.isString:
		return v.str
	case v.isBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case v.isNull:
		return "null"
	default:
		return "undefined"
	}
}

func foldBinary(op js_ast.OpCode, left constant, right constant, loc logger.Loc) (js_ast.Expr, bool) {
	switch op {
	case js_ast.BinOpAdd:
		// String concatenation wins when either side is a string
		if left.isString || right.isString {
			return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: left.toString() + right.toString()}}, true
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: left.toNumber() + right.toNumber()}}, true

	case js_ast.BinOpSub:
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: left.toNumber() - right.toNumber()}}, true

	case js_ast.BinOpMul:
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: left.toNumber() * right.toNumber()}}, true

	case js_ast.BinOpDiv:
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: left.toNumber() / right.toNumber()}}, true

	case js_ast.BinOpRem:
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: math.Mod(left.toNumber(), right.toNumber())}}, true

	case js_ast.BinOpStrictEq, js_ast.BinOpLooseEq:
		if value, ok := constantEquals(left, right, op == js_ast.BinOpStrictEq); ok {
			return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: value}}, true
		}

	case js_ast.BinOpStrictNe, js_ast.BinOpLooseNe:
		if value, ok := constantEquals(left, right, op == js_ast.BinOpStrictNe); ok {
			return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: !value}}, true
		}

	case js_ast.BinOpLt, js_ast.BinOpGt, js_ast.BinOpLe, js_ast.BinOpGe:
		// Both-string comparisons are lexicographic; everything else is
		// numeric, and a NaN operand makes the result false
		var result bool
		if left.isString && right.isString {
			switch op {
			case js_ast.BinOpLt:
				result = left.str < right.str
			case js_ast.BinOpGt:
				result = left.str > right.str
			case js_ast.BinOpLe:
				result = left.str <= right.str
			default:
				result = left.str >= right.str
			}
		} else {
			l, r := left.toNumber(), right.toNumber()
			switch op {
			case js_ast.BinOpLt:
				result = l < r
			case js_ast.BinOpGt:
				result = l > r
			case js_ast.BinOpLe:
				result = l <= r
			default:
				result = l >= r
			}
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: result}}, true
	}

	return js_ast.Expr{}, false
}

func constantEquals(left constant, right constant, strict bool) (bool, bool) {
	// Same-type comparisons are the same for == and ===
	switch {
	case left.isNumber && right.isNumber:
		return left.number == right.number, true
	case left.isString && right.isString:
		return left.str == right.str, true
	case left.isBool && right.isBool:
		return left.boolean == right.boolean, true
	case left.isNull && right.isNull, left.isUndef && right.isUndef:
		return true, true
	}

	if strict {
		return false, true
	}

	// null == undefined, everything else coerces numerically
	if (left.isNull || left.isUndef) && (right.isNull || right.isUndef) {
		return true, true
	}
	if left.isNull || left.isUndef || right.isNull || right.isUndef {
		return false, true
	}
	return left.toNumber() == right.toNumber(), true
}
