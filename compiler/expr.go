package compiler

import (
	"fmt"

	"ncc/bytecode"
	"ncc/lexer"
	"ncc/value"
)

// unaryPrecedence is level 7 of §4.2's table: unary `+ - !`, right
// associative.
func unaryPrecedence(k lexer.Kind) int {
	switch k {
	case lexer.Plus, lexer.Minus, lexer.Not:
		return 7
	default:
		return 0
	}
}

// binaryPrecedence is levels 1-6 of §4.2's table.
func binaryPrecedence(k lexer.Kind) int {
	switch k {
	case lexer.Star, lexer.Slash, lexer.Percent:
		return 6
	case lexer.Plus, lexer.Minus:
		return 5
	case lexer.Lt, lexer.Lte, lexer.Gt, lexer.Gte:
		return 4
	case lexer.EqEq, lexer.NotEq:
		return 3
	case lexer.AndAnd:
		return 2
	case lexer.OrOr:
		return 1
	default:
		return 0
	}
}

// parseExpression is the Pratt precedence-climbing loop of §4.2:
// parse_expression(parentPrecedence) looks at the next token's unary
// precedence; if that is 0 it delegates to a primary, otherwise parses a
// unary op at that precedence; then loops consuming binary operators whose
// precedence is > parentPrecedence, recursing at the operator's own
// precedence so that an operator of equal precedence ends the right
// operand (left associativity).
func (c *Context) parseExpression(parentPrecedence int) {
	up := unaryPrecedence(c.peek().Kind)
	if up == 0 || up < parentPrecedence {
		c.parsePrimary()
	} else {
		opTok := c.advance()
		c.parseExpression(up)
		c.emitUnary(opTok)
	}

	for {
		tok := c.peek()
		bp := binaryPrecedence(tok.Kind)
		if bp == 0 || bp <= parentPrecedence {
			return
		}
		c.advance()

		switch tok.Kind {
		case lexer.AndAnd:
			c.parseLogicalAnd(tok.Loc.Line, bp)
		case lexer.OrOr:
			c.parseLogicalOr(tok.Loc.Line, bp)
		default:
			c.parseExpression(bp)
			c.emitBinary(tok)
		}
	}
}

func (c *Context) emitUnary(opTok lexer.Token) {
	switch opTok.Kind {
	case lexer.Plus:
		c.emitOp(bytecode.OpPositive, opTok.Loc.Line)
	case lexer.Minus:
		c.emitOp(bytecode.OpNeg, opTok.Loc.Line)
	case lexer.Not:
		c.emitOp(bytecode.OpINot, opTok.Loc.Line)
	}
}

func (c *Context) emitBinary(opTok lexer.Token) {
	var op bytecode.Opcode
	switch opTok.Kind {
	case lexer.Plus:
		op = bytecode.OpAdd
	case lexer.Minus:
		op = bytecode.OpSub
	case lexer.Star:
		op = bytecode.OpMult
	case lexer.Slash:
		op = bytecode.OpIDiv
	case lexer.Percent:
		op = bytecode.OpMod
	case lexer.Lt:
		op = bytecode.OpLt
	case lexer.Lte:
		op = bytecode.OpLte
	case lexer.Gt:
		op = bytecode.OpGt
	case lexer.Gte:
		op = bytecode.OpGte
	case lexer.EqEq:
		op = bytecode.OpEq
	case lexer.NotEq:
		op = bytecode.OpNeq
	default:
		return
	}
	c.emitOp(op, opTok.Loc.Line)
}

// parseLogicalAnd implements `&&`'s short-circuit (spec §4.2, §4.4): jif
// peeks the left value already on the stack; if falsy it jumps straight
// past the right operand and the combine opcode, leaving the left value as
// the result. Otherwise the right operand is evaluated and logical_and
// reduces both to the boolean result.
func (c *Context) parseLogicalAnd(line, prec int) {
	jifOff := c.emitJumpPlaceholder(bytecode.OpJif, line)
	c.parseExpression(prec)
	c.emitOp(bytecode.OpLogicalAnd, line)
	c.patchJumpHere(jifOff)
}

// parseLogicalOr mirrors parseLogicalAnd using jit (spec §4.2).
func (c *Context) parseLogicalOr(line, prec int) {
	jitOff := c.emitJumpPlaceholder(bytecode.OpJit, line)
	c.parseExpression(prec)
	c.emitOp(bytecode.OpLogicalOr, line)
	c.patchJumpHere(jitOff)
}

// parsePrimary handles literals, grouping, identifiers and calls.
func (c *Context) parsePrimary() {
	tok := c.advance()
	switch tok.Kind {
	case lexer.Integer:
		idx := c.chunk.AddConstant(value.IntValue(tok.Int))
		c.emitOpU16(bytecode.OpIntC, idx, tok.Loc.Line)
	case lexer.DoubleLit:
		idx := c.chunk.AddConstant(value.DoubleValue(tok.Double, tok.DoublePrec))
		c.emitOpU16(bytecode.OpDoubleC, idx, tok.Loc.Line)
	case lexer.CharLit:
		idx := c.chunk.AddConstant(value.CharValue(tok.Char))
		c.emitOpU16(bytecode.OpCharC, idx, tok.Loc.Line)
	case lexer.StringLit:
		decoded, ok := lexer.DecodeEscapes(tok.Str)
		if !ok {
			c.errorAt(tok, "invalid escape sequence in string literal")
			decoded = tok.Str
		}
		idx := c.chunk.AddConstant(value.StringValue(decoded))
		c.emitOpU16(bytecode.OpStringC, idx, tok.Loc.Line)
	case lexer.KwNil:
		c.emitOp(bytecode.OpNil, tok.Loc.Line)
	case lexer.KwTrue:
		c.emitOp(bytecode.OpTrueL, tok.Loc.Line)
	case lexer.KwFalse:
		c.emitOp(bytecode.OpFalseL, tok.Loc.Line)
	case lexer.LParen:
		c.parseAssignment()
		c.consume(lexer.RParen, "expected ')' after expression")
	case lexer.Identifier:
		c.emitIdentifierLoad(tok)
	case lexer.FuncIdentifier:
		c.functionCall(tok)
	case lexer.EOF, lexer.Semicolon, lexer.Comma:
		// Mirrors the original's primary-expression dispatch: these are
		// not errors here, just nothing to emit (the caller's own
		// consume() calls surface any real problem).
	default:
		c.errorAt(tok, "expected expression, found '"+truncateToken(tok.Lexeme)+"'")
	}
}

// emitIdentifierLoad resolves name, locals shadowing globals (spec §4.2),
// and emits the matching get_local/get_global.
func (c *Context) emitIdentifierLoad(tok lexer.Token) {
	if slot, ok := c.locals.Lookup(tok.Lexeme); ok {
		c.emitOpU16(bytecode.OpGetLocal, uint16(int16(slot)), tok.Loc.Line)
		return
	}
	if slot, ok := c.globals.Lookup(tok.Lexeme); ok {
		c.emitOpU16(bytecode.OpGetGlobal, uint16(slot), tok.Loc.Line)
		return
	}
	c.errorAt(tok, "undefined reference to '"+truncateToken(tok.Lexeme)+"'")
}

// parseAssignment handles `Identifier '=' expr` (right-associative via
// recursion); any other left-hand side falls back to parseExpression(0)
// (spec §4.2).
func (c *Context) parseAssignment() {
	toks := c.peekN(2)
	if len(toks) == 2 && toks[0].Kind == lexer.Identifier && toks[1].Kind == lexer.Assign {
		nameTok := c.advance()
		c.advance() // '='
		c.parseAssignment()

		if slot, ok := c.locals.Lookup(nameTok.Lexeme); ok {
			c.emitOpU16(bytecode.OpSetLocal, uint16(int16(slot)), nameTok.Loc.Line)
			return
		}
		if slot, ok := c.globals.Lookup(nameTok.Lexeme); ok {
			c.emitOpU16(bytecode.OpSetGlobal, uint16(slot), nameTok.Loc.Line)
			return
		}
		c.errorAt(nameTok, "undefined reference to '"+truncateToken(nameTok.Lexeme)+"'")
		return
	}
	c.parseExpression(0)
}

// functionCall emits a call to the function named by tok (spec §4.6).
//
// Emission order here follows original_source/main.cpp's function_call(),
// not spec §4.6's literal step numbering: arguments are evaluated and
// pushed FIRST, then ret_addr, then jump. Spec's own text lists ret_addr
// before the arguments, but that ordering is inconsistent with spec §3's
// own stated argument slot range (-(2+arity)…-3): only pushing arguments
// before ret_addr leaves the last argument at bp-3 once the callee's
// ipush_bp lands, matching that formula. Patching this against spec's
// literal order would leave ret_addr buried under the arguments, beneath
// the reach of `ret`.
func (c *Context) functionCall(tok lexer.Token) {
	info, ok := c.funcs.Lookup(tok.Lexeme)
	if !ok {
		c.errorAt(tok, "undefined reference to function '"+truncateToken(tok.Lexeme)+"'")
		c.skipCallArguments()
		return
	}

	c.consume(lexer.LParen, "expected '(' after function name")

	argCount := 0
	for !c.check(lexer.RParen) && !c.check(lexer.EOF) {
		c.parseExpression(0)
		argCount++
		if c.check(lexer.Comma) {
			c.advance()
		}
	}
	c.consume(lexer.RParen, "expected ')' after arguments")

	if argCount != info.Arity {
		c.errorAt(tok, fmt.Sprintf("function '%s' expects %d argument(s), got %d",
			truncateToken(tok.Lexeme), info.Arity, argCount))
		return
	}

	retAddrOff := c.emitJumpPlaceholder(bytecode.OpRetAddr, tok.Loc.Line)
	c.emitOpU16(bytecode.OpJump, uint16(info.Addr), tok.Loc.Line)
	c.patchJumpHere(retAddrOff)

	for i := 0; i < info.Arity; i++ {
		c.emitOp(bytecode.OpIPop, tok.Loc.Line)
	}
	c.emitOp(bytecode.OpLoadRetValue, tok.Loc.Line)
}

// skipCallArguments discards tokens through the matching ')' after an
// undefined-function-reference error, the original's recovery strategy.
func (c *Context) skipCallArguments() {
	if !c.check(lexer.LParen) {
		return
	}
	c.advance()
	depth := 1
	for depth > 0 && !c.check(lexer.EOF) {
		switch c.advance().Kind {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
		}
	}
}

