package pyparse

import (
	"math/big"
	"strings"
	"testing"
)

func TestTokenizer(t *testing.T) {
	type TokenInfo struct {
		Kind  TokenKind
		Value string
	}

	tests := []struct {
		input  string
		tokens []TokenInfo
	}{
		{
			input: "x = 1",
			tokens: []TokenInfo{
				{TokenName, "x"},
				{TokenOp, "="},
				{TokenNumber, "1"},
				{TokenNewline, ""},
			},
		},
		{
			input: "if x:\n    y = 2\nz\n",
			tokens: []TokenInfo{
				{TokenName, "if"},
				{TokenName, "x"},
				{TokenOp, ":"},
				{TokenNewline, ""},
				{TokenIndent, ""},
				{TokenName, "y"},
				{TokenOp, "="},
				{TokenNumber, "2"},
				{TokenNewline, ""},
				{TokenDedent, ""},
				{TokenName, "z"},
				{TokenNewline, ""},
			},
		},
		{
			input: "f(a,\n  b)  # comment\n\n\n",
			tokens: []TokenInfo{
				{TokenName, "f"},
				{TokenOp, "("},
				{TokenName, "a"},
				{TokenOp, ","},
				{TokenName, "b"},
				{TokenOp, ")"},
				{TokenNewline, ""},
			},
		},
		{
			input: "a \\\n + b",
			tokens: []TokenInfo{
				{TokenName, "a"},
				{TokenOp, "+"},
				{TokenName, "b"},
				{TokenNewline, ""},
			},
		},
		{
			input: "x **= y // z ... !=",
			tokens: []TokenInfo{
				{TokenName, "x"},
				{TokenOp, "**="},
				{TokenName, "y"},
				{TokenOp, "//"},
				{TokenName, "z"},
				{TokenOp, "..."},
				{TokenOp, "!="},
				{TokenNewline, ""},
			},
		},
		{
			input: "if a:\n  if b:\n    c\n",
			tokens: []TokenInfo{
				{TokenName, "if"},
				{TokenName, "a"},
				{TokenOp, ":"},
				{TokenNewline, ""},
				{TokenIndent, ""},
				{TokenName, "if"},
				{TokenName, "b"},
				{TokenOp, ":"},
				{TokenNewline, ""},
				{TokenIndent, ""},
				{TokenName, "c"},
				{TokenNewline, ""},
				{TokenDedent, ""},
				{TokenDedent, ""},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			tokens, err := Tokenize("test", test.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, expected := range test.tokens {
				if i >= len(tokens) {
					t.Fatalf("step %d: missing token", i)
				}
				token := tokens[i]
				if token.Kind != expected.Kind {
					t.Errorf("step %d: expected kind %v, got %v (value: %q)", i, expected.Kind, token.Kind, token.Value)
				}
				if token.Value != expected.Value {
					t.Errorf("step %d: expected value %q, got %q", i, expected.Value, token.Value)
				}
			}
			last := tokens[len(test.tokens)]
			if last.Kind != TokenEOF {
				t.Errorf("expected EOF, got %v", last.Kind)
			}
		})
	}
}

func TestTokenizeNumbers(t *testing.T) {
	huge, _ := new(big.Int).SetString("99999999999999999999", 10)
	tests := []struct {
		input string
		want  any
	}{
		{"42", int64(42)},
		{"1_000", int64(1000)},
		{"0x_ff", int64(255)},
		{"0o17", int64(15)},
		{"0b101", int64(5)},
		{"1.5", 1.5},
		{".5", 0.5},
		{"1e3", 1000.0},
		{"2.5E-1", 0.25},
		{"2j", complex(0, 2)},
		{"0", int64(0)},
		{"000", int64(0)},
	}
	for _, test := range tests {
		tokens, err := Tokenize("test", test.input)
		if err != nil {
			t.Fatalf("%s: %v", test.input, err)
		}
		if tokens[0].Kind != TokenNumber {
			t.Fatalf("%s: got %v", test.input, tokens[0].Kind)
		}
		if tokens[0].Number != test.want {
			t.Errorf("%s: got %v (%T), want %v", test.input, tokens[0].Number, tokens[0].Number, test.want)
		}
	}

	tokens, err := Tokenize("test", "99999999999999999999")
	if err != nil {
		t.Fatal(err)
	}
	i, ok := tokens[0].Number.(*big.Int)
	if !ok || i.Cmp(huge) != 0 {
		t.Fatalf("got %v", tokens[0].Number)
	}

	if _, err := Tokenize("test", "012"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		bytes  bool
		format bool
	}{
		{`'a\nb'`, "a\nb", false, false},
		{`"it's"`, "it's", false, false},
		{`r'a\nb'`, `a\nb`, false, false},
		{`b'\x41\x42'`, "AB", true, false},
		{`'\u00e9'`, "é", false, false},
		{`'\101'`, "A", false, false},
		{"'''a\nb'''", "a\nb", false, false},
		{`"""say "hi" """`, `say "hi" `, false, false},
		{`f'{x}\n'`, `{x}\n`, false, true},
		{`'a\
b'`, "ab", false, false},
		{`'\q'`, `\q`, false, false},
	}
	for _, test := range tests {
		tokens, err := Tokenize("test", test.input)
		if err != nil {
			t.Fatalf("%s: %v", test.input, err)
		}
		tok := tokens[0]
		if tok.Kind != TokenString {
			t.Fatalf("%s: got %v", test.input, tok.Kind)
		}
		if tok.Value != test.want {
			t.Errorf("%s: got %q, want %q", test.input, tok.Value, test.want)
		}
		if tok.Bytes != test.bytes || tok.Format != test.format {
			t.Errorf("%s: got bytes=%v format=%v", test.input, tok.Bytes, tok.Format)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"'abc", "unterminated string literal"},
		{"'''abc", "unterminated triple-quoted string literal"},
		{"'a\nb'", "unterminated string literal"},
		{"x = $", "invalid character"},
		{"if a:\n    b\n  c\n", "unindent does not match"},
		{"a \\ b", "line continuation"},
	}
	for _, test := range tests {
		_, err := Tokenize("test", test.input)
		if err == nil {
			t.Fatalf("%q: expected error", test.input)
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%q: got %v", test.input, err)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("test", "a = 1\n  \nbb = 'x'\n")
	if err != nil {
		t.Fatal(err)
	}
	var names []Token
	for _, tok := range tokens {
		if tok.Kind == TokenName {
			names = append(names, tok)
		}
	}
	if len(names) != 2 {
		t.Fatalf("got %d names", len(names))
	}
	if names[0].Pos.Line != 1 || names[0].Pos.Column != 1 {
		t.Fatalf("got %v", names[0].Pos)
	}
	if names[1].Pos.Line != 3 || names[1].Pos.Column != 1 {
		t.Fatalf("got %v", names[1].Pos)
	}
}
