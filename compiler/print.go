package compiler

import (
	"ncc/bytecode"
	"ncc/lexer"
	"ncc/value"
)

// printStatement parses `print ( <string-literal-with-holes> ) ;` (spec
// §4.2, §4.5) and emits a trailing `print n` with the total argument count.
func (c *Context) printStatement() {
	line := c.peek().Loc.Line
	c.advance() // 'print'
	c.consume(lexer.LParen, "expected '(' after 'print'")

	argCount := 0
	if c.check(lexer.RParen) {
		c.errorAt(c.peek(), "expected expression")
	} else {
		tok := c.peek()
		if tok.Kind != lexer.StringLit {
			c.errorAt(tok, "expected string literal as print argument")
			c.advance()
		} else {
			c.advance()
			argCount = c.emitPrintArguments(tok)
		}
	}

	c.consume(lexer.RParen, "expected ')' after print argument")
	c.consume(lexer.Semicolon, "expected ';' after print statement")

	c.emitOp(bytecode.OpPrint, line)
	c.chunk.WriteByte(byte(argCount), line)
}

// emitPrintArguments splits tok's raw text on unescaped `{`/`}` (spec §4.5),
// emitting a `string_c` for every literal run (escapes decoded) and
// compiling every hole as an embedded expression, interleaved in textual
// order. It returns the total number of values pushed.
//
// Each hole is compiled from a disposable sub-lexer seeded with just the
// hole's raw text, swapped in for the duration of the call: original's
// equivalent trick rewinds the single global lexer's source index into the
// middle of the string and back out again. A sub-lexer reaches the same
// result without repositioning shared state, at the cost of hole-relative
// rather than whole-file line/column numbers in any diagnostic raised
// inside a hole — see DESIGN.md.
func (c *Context) emitPrintArguments(tok lexer.Token) int {
	raw := tok.Str
	n := len(raw)
	argCount := 0
	runStart := 0
	i := 0

	for i < n {
		ch := raw[i]
		if ch == '\\' {
			i += 2
			continue
		}
		if ch == '{' {
			if i > runStart {
				c.emitLiteralRun(tok, raw[runStart:i])
				argCount++
			}

			j := i + 1
			closed := false
			for j < n {
				if raw[j] == '\\' {
					j += 2
					continue
				}
				if raw[j] == '}' {
					closed = true
					break
				}
				j++
			}
			if !closed {
				c.errorAt(tok, "unterminated '{' in print argument")
				return argCount
			}

			hole := raw[i+1 : j]
			if hole == "" {
				c.errorAt(tok, "empty print hole '{}' is not allowed")
			} else {
				c.compilePrintHole(tok, hole)
				argCount++
			}

			i = j + 1
			runStart = i
			continue
		}
		i++
	}

	if runStart < n {
		c.emitLiteralRun(tok, raw[runStart:])
		argCount++
	} else if argCount == 0 {
		c.emitLiteralRun(tok, "")
		argCount++
	}

	return argCount
}

func (c *Context) emitLiteralRun(tok lexer.Token, raw string) {
	decoded, ok := lexer.DecodeEscapes(raw)
	if !ok {
		c.errorAt(tok, "invalid escape sequence in print argument")
		decoded = raw
	}
	idx := c.chunk.AddConstant(value.StringValue(decoded))
	c.emitOpU16(bytecode.OpStringC, idx, tok.Loc.Line)
}

func (c *Context) compilePrintHole(tok lexer.Token, hole string) {
	savedLex := c.lex
	c.lex = lexer.New(c.filename, hole)
	c.parseAssignment()
	c.lex = savedLex
}
