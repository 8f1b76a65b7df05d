// Package compiler implements the single-pass Pratt-style parser/emitter
// (spec.md §4.2-§4.6): it walks the token stream exactly once, appending
// opcodes directly to a *bytecode.Chunk as it recognizes each construct.
// No AST is ever built.
package compiler

import (
	"fmt"
	"io"
	"strings"

	"ncc/bytecode"
	"ncc/lexer"
	"ncc/symtab"
)

// Context bundles every piece of compile-time state the teacher kept as
// module-level globals (compile_error, parse_error, cur_scope_depth,
// exit_addrs, …) into one explicit value passed through the whole parse,
// per spec's "Global latches" design note.
type Context struct {
	lex      *lexer.Lexer
	chunk    *bytecode.Chunk
	globals  *symtab.GlobalTable
	locals   *symtab.LocalTable
	funcs    *symtab.FunctionTable
	filename string
	errout   io.Writer

	lexError   bool
	parseError bool

	// inFunction is true while compiling a function body; it decides
	// whether a var_decl resolves to a global or a local slot (spec §4.3).
	inFunction bool

	// exitAddrs collects the jump offsets emitted by every `return` seen
	// in the function currently being compiled, back-patched to the
	// epilogue at function close (spec §4.2 "return_stmt").
	exitAddrs []int

	// returnFound latches true the first time any `return` is compiled
	// anywhere in the current function body (including nested blocks),
	// and is never reset except at function entry. The original resets
	// this per-statement, which makes it reflect only the
	// last top-level statement of the function body rather than whether
	// any return occurred at all — a bug spec's own §4.3 text ("if no
	// explicit return was seen") does not describe, so it is not
	// replicated here.
	returnFound bool
}

// New builds a Context ready to compile src. errout receives diagnostics
// (os.Stderr in production, a buffer in tests).
func New(filename, src string, errout io.Writer) *Context {
	return &Context{
		lex:      lexer.New(filename, src),
		chunk:    bytecode.NewChunk(),
		globals:  symtab.NewGlobalTable(),
		locals:   symtab.NewLocalTable(),
		funcs:    symtab.NewFunctionTable(),
		filename: filename,
		errout:   errout,
	}
}

// Compile consumes the whole source, returning the emitted chunk, the
// function table (the VM needs main's address), and whether compilation
// succeeded (no lex or parse error was latched).
func (c *Context) Compile() (*bytecode.Chunk, *symtab.FunctionTable, bool) {
	for !c.check(lexer.EOF) {
		c.topLevelDeclaration()
	}

	if !c.funcs.HasMain() {
		fmt.Fprintf(c.errout, "%s error: no function named 'main' found\n", lexer.Location{Filename: c.filename, Line: 0, Col: 0})
		c.parseError = true
	}

	return c.chunk, c.funcs, !c.lexError && !c.parseError
}

// --- token stream helpers -------------------------------------------------

// peek returns the next token without consuming it. A lexical error
// encountered during the lookahead is latched and reported exactly once it
// is actually advanced over, matching the lexer's own "keep producing
// tokens after an error" recovery contract.
func (c *Context) peek() lexer.Token { return c.lex.Peek() }

func (c *Context) peekN(n int) []lexer.Token { return c.lex.PeekN(n) }

// advance consumes and returns the next token, latching and reporting any
// lex error tokens it passes over (spec §7: lex errors are additive, the
// scanner keeps going after one).
func (c *Context) advance() lexer.Token {
	tok := c.lex.Next()
	for tok.Kind == lexer.Error {
		c.lexError = true
		c.report(tok.Loc, tok.Err)
		tok = c.lex.Next()
	}
	return tok
}

func (c *Context) check(k lexer.Kind) bool { return c.peek().Kind == k }

func (c *Context) match(k lexer.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

// consume advances past the next token, checking it is of kind k. On a
// mismatch it still consumes (guaranteeing forward progress for callers)
// but latches a parse error at the actual token found.
func (c *Context) consume(k lexer.Kind, msg string) lexer.Token {
	tok := c.advance()
	if tok.Kind != k {
		c.errorAt(tok, msg)
	}
	return tok
}

// synchronize discards tokens until `func` or EOF, the recovery boundary
// spec §7 gives for parse errors.
func (c *Context) synchronize() {
	for !c.check(lexer.EOF) && !c.check(lexer.KwFunc) {
		c.advance()
	}
}

// --- diagnostics -----------------------------------------------------------

func (c *Context) errorAt(tok lexer.Token, msg string) {
	c.parseError = true
	c.report(tok.Loc, msg)
}

// report writes one `[line:col] error: …` diagnostic, the offending source
// line, and a caret pointing at the column (spec §6).
func (c *Context) report(loc lexer.Location, msg string) {
	fmt.Fprintf(c.errout, "%s:%s error: %s\n", c.filename, loc, msg)
	line := sourceLine(c.lex.Source(), loc.Line)
	fmt.Fprintf(c.errout, "    %s\n", line)
	if loc.Col-1 >= 0 {
		fmt.Fprintf(c.errout, "    %s^\n", strings.Repeat(" ", loc.Col-1))
	}
}

func sourceLine(src string, n int) string {
	lines := strings.Split(src, "\n")
	if n-1 < 0 || n-1 >= len(lines) {
		return ""
	}
	return lines[n-1]
}

// truncateToken truncates an identifier/lexeme for diagnostics to at most
// 10 runes, marking the cut with "…" (spec §6).
func truncateToken(s string) string {
	r := []rune(s)
	if len(r) <= 10 {
		return s
	}
	return string(r[:10]) + "…"
}

// --- emission helpers -------------------------------------------------------

func (c *Context) emitOp(op bytecode.Opcode, line int) int { return c.chunk.WriteOp(op, line) }

func (c *Context) emitOpU16(op bytecode.Opcode, operand uint16, line int) {
	c.chunk.WriteOp(op, line)
	c.chunk.WriteUint16(operand, line)
}

func (c *Context) emitJumpPlaceholder(op bytecode.Opcode, line int) int {
	return c.chunk.EmitJumpPlaceholder(op, line)
}

func (c *Context) patchJumpHere(offset int) {
	c.chunk.PatchJump(offset, uint16(c.chunk.Len()))
}

func (c *Context) patchJumpTo(offset, target int) {
	c.chunk.PatchJump(offset, uint16(target))
}
