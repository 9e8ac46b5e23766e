package pyparse

import (
	"fmt"

	"github.com/reusee/taieval/pyast"
)

type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenNewline
	TokenIndent
	TokenDedent
	TokenName
	TokenNumber
	TokenString
	TokenOp
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenNewline:
		return "newline"
	case TokenIndent:
		return "indent"
	case TokenDedent:
		return "dedent"
	case TokenName:
		return "name"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenOp:
		return "operator"
	}
	return "unknown"
}

type Token struct {
	Kind  TokenKind
	Value string // name, operator text, or decoded string body
	Pos   pyast.Pos

	// numbers: int64, *big.Int, float64 or complex128
	Number any

	// strings
	Bytes  bool
	Format bool // f-string; Value holds the undecoded body
	Raw    bool
	// BodyPos is the position of the first character of the string body.
	BodyPos pyast.Pos
}

func (t *Token) String() string {
	switch t.Kind {
	case TokenName, TokenOp:
		return fmt.Sprintf("'%s'", t.Value)
	case TokenNumber:
		return fmt.Sprintf("number %v", t.Number)
	case TokenString:
		return "string literal"
	}
	return t.Kind.String()
}

func (t *Token) is(kind TokenKind, value string) bool {
	return t.Kind == kind && t.Value == value
}

var keywords = map[string]bool{
	"False":    true,
	"None":     true,
	"True":     true,
	"and":      true,
	"as":       true,
	"assert":   true,
	"async":    true,
	"await":    true,
	"break":    true,
	"class":    true,
	"continue": true,
	"def":      true,
	"del":      true,
	"elif":     true,
	"else":     true,
	"except":   true,
	"finally":  true,
	"for":      true,
	"from":     true,
	"global":   true,
	"if":       true,
	"import":   true,
	"in":       true,
	"is":       true,
	"lambda":   true,
	"nonlocal": true,
	"not":      true,
	"or":       true,
	"pass":     true,
	"raise":    true,
	"return":   true,
	"try":      true,
	"while":    true,
	"with":     true,
	"yield":    true,
}

// IsKeyword reports whether name is a reserved keyword of the language.
func IsKeyword(name string) bool {
	return keywords[name]
}

// operators ordered longest first
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", ":=", "**", "//", "<<", ">>", "<=", ">=", "==", "!=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}
