package lexer

import "strconv"

// Kind enumerates the token kinds the scanner can produce (spec.md §4.1,
// §6 grammar). Only one kind ("Error") represents a lexical failure; the
// scanner recovers and keeps producing tokens after emitting one.
type Kind uint8

const (
	Illegal Kind = iota
	Error
	EOF

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	Plus
	Minus
	Star
	Slash
	Percent
	Comma
	Semicolon

	// comparisons / operators
	Lt
	Lte
	Gt
	Gte
	EqEq
	NotEq
	Not
	AndAnd
	OrOr
	Assign

	// literals
	Integer
	DoubleLit
	CharLit
	StringLit

	// keywords
	KwNil
	KwTrue
	KwFalse
	KwVar
	KwPrint
	KwIf
	KwElif
	KwElse
	KwWhile
	KwFor
	KwReturn
	KwInput
	KwGetC
	KwGetI
	KwGetS
	KwGetD
	KwFunc

	Identifier
	FuncIdentifier
)

var names = map[Kind]string{
	Illegal:        "Illegal",
	Error:          "Error",
	EOF:            "EOF",
	LParen:         "(",
	RParen:         ")",
	LBrace:         "{",
	RBrace:         "}",
	Plus:           "+",
	Minus:          "-",
	Star:           "*",
	Slash:          "/",
	Percent:        "%",
	Comma:          ",",
	Semicolon:      ";",
	Lt:             "<",
	Lte:            "<=",
	Gt:             ">",
	Gte:            ">=",
	EqEq:           "==",
	NotEq:          "!=",
	Not:            "!",
	AndAnd:         "&&",
	OrOr:           "||",
	Assign:         "=",
	Integer:        "Integer",
	DoubleLit:      "Double",
	CharLit:        "Character",
	StringLit:      "String",
	KwNil:          "nil",
	KwTrue:         "true",
	KwFalse:        "false",
	KwVar:          "var",
	KwPrint:        "print",
	KwIf:           "if",
	KwElif:         "elif",
	KwElse:         "else",
	KwWhile:        "while",
	KwFor:          "for",
	KwReturn:       "return",
	KwInput:        "input",
	KwGetC:         "getc",
	KwGetI:         "geti",
	KwGetS:         "gets",
	KwGetD:         "getd",
	KwFunc:         "func",
	Identifier:     "Identifier",
	FuncIdentifier: "FuncIdentifier",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "Unknown"
}

var keywords = map[string]Kind{
	"nil":    KwNil,
	"true":   KwTrue,
	"false":  KwFalse,
	"var":    KwVar,
	"print":  KwPrint,
	"if":     KwIf,
	"elif":   KwElif,
	"else":   KwElse,
	"while":  KwWhile,
	"for":    KwFor,
	"return": KwReturn,
	"input":  KwInput,
	"getc":   KwGetC,
	"geti":   KwGetI,
	"gets":   KwGetS,
	"getd":   KwGetD,
	"func":   KwFunc,
}

// Location identifies a point in the source buffer for diagnostics.
type Location struct {
	Filename string
	Line     int
	Col      int
}

func (l Location) String() string {
	return "[" + strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Col) + "]"
}

// Token is a single lexical unit. Only the payload field matching Kind is
// meaningful; Lexeme always holds the raw source text that produced the
// token (used for diagnostics and identifier resolution).
type Token struct {
	Kind   Kind
	Loc    Location
	Lexeme string

	Int        int64
	Double     float64
	DoublePrec int
	Char       byte
	// Str holds the *raw*, undecoded text between the quotes of a string
	// literal (escapes and `{`/`}` markers intact). Splitting on unescaped
	// braces and decoding escapes is the compiler's job (spec §4.5) because
	// only it knows which runs are literal text versus embedded
	// expressions.
	Str string

	// Err is set when Kind == Error: a human-readable description of the
	// lexical failure.
	Err string
}

func (t Token) String() string {
	return t.Loc.String() + " " + t.Kind.String() + " `" + t.Lexeme + "`"
}
