package compiler

import (
	"ncc/bytecode"
	"ncc/lexer"
	"ncc/value"
)

// topLevelDeclaration is the file-scope dispatch: only `var` and `func` are
// permitted there (spec §4.3); anything else is a compile error, recovered
// by scanning forward to the next `func`.
func (c *Context) topLevelDeclaration() {
	switch c.peek().Kind {
	case lexer.KwVar:
		c.varDecl()
	case lexer.KwFunc:
		c.funcDecl()
	default:
		c.errorAt(c.peek(), "unqualified statement in global scope")
		c.synchronize()
	}
}

// blockDeclaration is the dispatch inside a block/function body: `var` or
// any statement (spec §6 grammar: "decl := var_decl | stmt").
func (c *Context) blockDeclaration() {
	if c.check(lexer.KwVar) {
		c.varDecl()
		return
	}
	c.statement()
}

// varDecl parses `var name (= expr)? ;`. With no initializer a bare `nil`
// is pushed, matching original_source/main.cpp's parse_variable_declaration.
// At global scope it registers a slot and emits define_global; inside a
// function it registers the next local slot and emits define_local (spec
// §4.3). Redeclaring a name already declared in the same scope is an error.
func (c *Context) varDecl() {
	line := c.peek().Loc.Line
	c.advance() // 'var'
	nameTok := c.consume(lexer.Identifier, "expected variable name after 'var'")

	if c.match(lexer.Assign) {
		c.parseAssignment()
	} else {
		c.emitOp(bytecode.OpNil, line)
	}
	c.consume(lexer.Semicolon, "expected ';' after variable declaration")

	if !c.inFunction {
		slot, ok := c.globals.Declare(nameTok.Lexeme)
		if !ok {
			c.errorAt(nameTok, "redefinition of '"+truncateToken(nameTok.Lexeme)+"'")
			return
		}
		c.emitOpU16(bytecode.OpDefineGlobal, uint16(slot), nameTok.Loc.Line)
		return
	}

	slot, ok := c.locals.Declare(nameTok.Lexeme)
	if !ok {
		c.errorAt(nameTok, "redefinition of '"+truncateToken(nameTok.Lexeme)+"'")
		return
	}
	c.emitOpU16(bytecode.OpDefineLocal, uint16(int16(slot)), nameTok.Loc.Line)
}

// funcDecl parses `func name(arg, …) { … }` (spec §4.3).
//
// The function is registered in the function table — fixing its call
// address at the entry point (the upcoming ipush_bp) — only once its
// parameter list and opening brace are confirmed, but *before* its body is
// compiled: this is what lets a function call itself, at the cost of
// forbidding forward references to functions declared later in the file
// (spec's single-pass design; see DESIGN.md).
//
// Parameters are registered at their fixed negative slots (§3:
// -(2+arity)…-3) and share the function body's own top-level scope depth —
// the epilogue's ipop count below excludes them deliberately, since the
// caller's post-call ipop×arity cleans those slots instead.
func (c *Context) funcDecl() {
	c.advance() // 'func'
	nameTok := c.consume(lexer.FuncIdentifier, "expected function name after 'func'")

	if _, exists := c.funcs.Lookup(nameTok.Lexeme); exists {
		c.errorAt(nameTok, "redefinition of function '"+truncateToken(nameTok.Lexeme)+"'")
	}

	c.locals.EnterFunction()
	c.consume(lexer.LParen, "expected '(' after function name")

	var params []string
	for !c.check(lexer.RParen) && !c.check(lexer.EOF) {
		paramTok := c.consume(lexer.Identifier, "expected parameter name")
		params = append(params, paramTok.Lexeme)
		if c.check(lexer.Comma) {
			c.advance()
		}
	}
	c.consume(lexer.RParen, "expected ')' after parameters")

	arity := len(params)
	for i, name := range params {
		slot := -(2 + arity) + i
		c.locals.DeclareArg(name, slot)
	}

	if !c.check(lexer.LBrace) {
		c.errorAt(c.peek(), "expected '{' to start function body")
		return
	}
	c.advance() // '{'

	entryAddr := c.chunk.Len()
	if _, declared := c.funcs.Declare(nameTok.Lexeme, arity); declared {
		c.funcs.SetAddr(nameTok.Lexeme, entryAddr)
	}
	isMain := nameTok.Lexeme == "main"

	c.emitOp(bytecode.OpIPushBp, nameTok.Loc.Line)

	c.inFunction = true
	c.exitAddrs = c.exitAddrs[:0]
	c.returnFound = false

	for !c.check(lexer.RBrace) && !c.check(lexer.EOF) {
		c.blockDeclaration()
	}
	closeLine := c.peek().Loc.Line
	c.consume(lexer.RBrace, "expected '}' to close function body")

	for _, off := range c.exitAddrs {
		c.patchJumpHere(off)
	}
	c.exitAddrs = c.exitAddrs[:0]

	if !c.returnFound {
		idx := c.chunk.AddConstant(value.IntValue(0))
		c.emitOpU16(bytecode.OpIntC, idx, closeLine)
		c.emitOp(bytecode.OpStoreRetValue, closeLine)
	}

	popCount := c.locals.CurrentScopeCount() - arity
	for i := 0; i < popCount; i++ {
		c.emitOp(bytecode.OpIPop, closeLine)
	}
	c.emitOp(bytecode.OpIPopBp, closeLine)
	if isMain {
		c.emitOp(bytecode.OpMainRet, closeLine)
	} else {
		c.emitOp(bytecode.OpRet, closeLine)
	}

	c.inFunction = false
}
