package compiler

import (
	"ncc/bytecode"
	"ncc/lexer"
	"ncc/value"
)

// statement dispatches on the leading token (spec §4.2 "Statements").
func (c *Context) statement() {
	switch c.peek().Kind {
	case lexer.KwPrint:
		c.printStatement()
	case lexer.KwIf:
		c.ifStatement()
	case lexer.KwWhile:
		c.whileStatement()
	case lexer.KwFor:
		c.forStatement()
	case lexer.KwReturn:
		c.returnStatement()
	case lexer.KwGetC:
		c.inputStatement(bytecode.OpGetC, bytecode.OpLocalGetC)
	case lexer.KwGetI:
		c.inputStatement(bytecode.OpGetI, bytecode.OpLocalGetI)
	case lexer.KwGetD:
		c.inputStatement(bytecode.OpGetD, bytecode.OpLocalGetD)
	case lexer.LBrace:
		c.blockStatement()
	default:
		c.expressionStatement()
	}
}

// expressionStatement is the fallback: any assignment/expression followed
// by `;`, its net +1 consumed by a trailing ipop (spec §8: "for every
// statement, the net stack effect is 0").
func (c *Context) expressionStatement() {
	if c.check(lexer.Semicolon) {
		c.advance()
		return
	}
	line := c.peek().Loc.Line
	c.parseAssignment()
	c.consume(lexer.Semicolon, "expected ';' after expression")
	c.emitOp(bytecode.OpIPop, line)
}

// blockStatement opens a new lexical scope, compiles its declarations, and
// emits one ipop per local it declared on the way out (spec §3, §4.2).
func (c *Context) blockStatement() {
	c.advance() // '{'
	c.locals.EnterScope()

	for !c.check(lexer.RBrace) && !c.check(lexer.EOF) {
		c.blockDeclaration()
	}
	closeLine := c.peek().Loc.Line
	c.consume(lexer.RBrace, "expected '}' to close block")

	popped := c.locals.ExitScope()
	for i := 0; i < popped; i++ {
		c.emitOp(bytecode.OpIPop, closeLine)
	}
}

// ifStatement parses `if (e) {…} (elif (e) {…})* (else {…})?` (spec §4.2).
// Each arm emits `jif` over its body and a `jump` past the remaining arms;
// the guard value is popped on both the taken and not-taken edges.
func (c *Context) ifStatement() {
	line := c.peek().Loc.Line
	c.advance() // 'if'
	c.consume(lexer.LParen, "expected '(' after 'if'")
	c.parseExpression(0)
	c.consume(lexer.RParen, "expected ')' after condition")

	jifOff := c.emitJumpPlaceholder(bytecode.OpJif, line)
	c.emitOp(bytecode.OpIPop, line) // taken edge: discard the truthy guard

	if !c.check(lexer.LBrace) {
		c.errorAt(c.peek(), "expected '{' to start if-body")
		return
	}
	c.blockStatement()

	jumpOff := c.emitJumpPlaceholder(bytecode.OpJump, line)
	c.patchJumpHere(jifOff)
	c.emitOp(bytecode.OpIPop, line) // not-taken edge: discard the falsy guard

	if c.check(lexer.KwElif) {
		c.ifStatementAsElif()
	} else if c.check(lexer.KwElse) {
		c.advance()
		if !c.check(lexer.LBrace) {
			c.errorAt(c.peek(), "expected '{' to start else-body")
			return
		}
		c.blockStatement()
	}

	c.patchJumpHere(jumpOff)
}

// ifStatementAsElif consumes the 'elif' keyword and recurses into the same
// arm structure as ifStatement (spec §4.2: "elif recurses into
// parse_if_statement").
func (c *Context) ifStatementAsElif() {
	line := c.peek().Loc.Line
	c.advance() // 'elif'
	c.consume(lexer.LParen, "expected '(' after 'elif'")
	c.parseExpression(0)
	c.consume(lexer.RParen, "expected ')' after condition")

	jifOff := c.emitJumpPlaceholder(bytecode.OpJif, line)
	c.emitOp(bytecode.OpIPop, line)

	if !c.check(lexer.LBrace) {
		c.errorAt(c.peek(), "expected '{' to start elif-body")
		return
	}
	c.blockStatement()

	jumpOff := c.emitJumpPlaceholder(bytecode.OpJump, line)
	c.patchJumpHere(jifOff)
	c.emitOp(bytecode.OpIPop, line)

	if c.check(lexer.KwElif) {
		c.ifStatementAsElif()
	} else if c.check(lexer.KwElse) {
		c.advance()
		if !c.check(lexer.LBrace) {
			c.errorAt(c.peek(), "expected '{' to start else-body")
			return
		}
		c.blockStatement()
	}

	c.patchJumpHere(jumpOff)
}

// whileStatement: guard re-evaluated at loop_start on every iteration,
// body ends with an unconditional jump back to it (spec §4.2).
func (c *Context) whileStatement() {
	line := c.peek().Loc.Line
	c.advance() // 'while'
	c.consume(lexer.LParen, "expected '(' after 'while'")

	loopStart := c.chunk.Len()
	c.parseExpression(0)
	c.consume(lexer.RParen, "expected ')' after condition")

	jifOff := c.emitJumpPlaceholder(bytecode.OpJif, line)
	c.emitOp(bytecode.OpIPop, line)

	if !c.check(lexer.LBrace) {
		c.errorAt(c.peek(), "expected '{' to start while-body")
		return
	}
	c.blockStatement()

	c.emitOpU16(bytecode.OpJump, uint16(loopStart), line)
	c.patchJumpHere(jifOff)
	c.emitOp(bytecode.OpIPop, line)
}

// forStatement implements the source-position replay trick of spec §4.2,
// §9: the step expression's tokens are skipped on the first pass, the body
// is compiled, then the lexer cursor rewinds to compile the step for real
// after the body and before the back-jump.
func (c *Context) forStatement() {
	line := c.peek().Loc.Line
	c.advance() // 'for'
	c.locals.EnterScope()
	c.consume(lexer.LParen, "expected '(' after 'for'")

	if c.check(lexer.KwVar) {
		c.varDecl()
	} else {
		c.consume(lexer.Semicolon, "expected ';' after for-init")
	}

	loopStart := c.chunk.Len()
	hasCond := false
	var exitOff int
	if !c.check(lexer.Semicolon) {
		c.parseExpression(0)
		hasCond = true
		exitOff = c.emitJumpPlaceholder(bytecode.OpJif, line)
		c.emitOp(bytecode.OpIPop, line)
	}
	c.consume(lexer.Semicolon, "expected ';' after for-condition")

	stepMark := c.lex.Save()
	hasStep := !c.check(lexer.RParen)
	if hasStep {
		c.skipToRParen()
	}
	c.consume(lexer.RParen, "expected ')' after for-clauses")

	if !c.check(lexer.LBrace) {
		c.errorAt(c.peek(), "expected '{' to start for-body")
		return
	}
	c.blockStatement()

	if hasStep {
		afterBody := c.lex.Save()
		c.lex.Restore(stepMark)
		c.parseAssignment()
		c.emitOp(bytecode.OpIPop, line)
		c.lex.Restore(afterBody)
	}

	c.emitOpU16(bytecode.OpJump, uint16(loopStart), line)
	if hasCond {
		c.patchJumpHere(exitOff)
		c.emitOp(bytecode.OpIPop, line)
	}

	popped := c.locals.ExitScope()
	for i := 0; i < popped; i++ {
		c.emitOp(bytecode.OpIPop, line)
	}
}

// skipToRParen discards raw tokens up to, but not including, the next ')'
// without emitting anything — used to skip the for-loop step on the first
// pass. Parentheses are not counted, so a ')' inside the step ends the skip.
func (c *Context) skipToRParen() {
	for !c.check(lexer.RParen) && !c.check(lexer.EOF) {
		c.advance()
	}
}

// returnStatement evaluates its expression (or pushes int 0 for a bare
// `return;`), stores it in the return-value register, then jumps to the
// function epilogue — the jump's target is recorded and patched once the
// epilogue's address is known (spec §4.2).
func (c *Context) returnStatement() {
	line := c.peek().Loc.Line
	c.advance() // 'return'
	c.returnFound = true

	if !c.check(lexer.Semicolon) {
		c.parseAssignment()
	} else {
		idx := c.chunk.AddConstant(value.IntValue(0))
		c.emitOpU16(bytecode.OpIntC, idx, line)
	}
	c.consume(lexer.Semicolon, "expected ';' after return value")

	c.emitOp(bytecode.OpStoreRetValue, line)
	jumpOff := c.emitJumpPlaceholder(bytecode.OpJump, line)
	c.exitAddrs = append(c.exitAddrs, jumpOff)
}

// inputStatement parses `getc(x);` / `geti(x);` / `getd(x);`, choosing the
// global or local opcode variant by how x resolves (spec §4.2, §4.4).
func (c *Context) inputStatement(globalOp, localOp bytecode.Opcode) {
	line := c.peek().Loc.Line
	c.advance() // 'getc'/'geti'/'getd'
	c.consume(lexer.LParen, "expected '(' after input statement")
	nameTok := c.consume(lexer.Identifier, "expected variable name")
	c.consume(lexer.RParen, "expected ')' after variable name")
	c.consume(lexer.Semicolon, "expected ';' after input statement")

	if slot, ok := c.locals.Lookup(nameTok.Lexeme); ok {
		c.emitOpU16(localOp, uint16(int16(slot)), line)
		return
	}
	if slot, ok := c.globals.Lookup(nameTok.Lexeme); ok {
		c.emitOpU16(globalOp, uint16(slot), line)
		return
	}
	c.errorAt(nameTok, "undefined reference to '"+truncateToken(nameTok.Lexeme)+"'")
}
