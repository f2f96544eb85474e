package asm

import (
	"fmt"
	"strconv"
	"strings"

	"asmfront/pkg/grammar"
)

// Token is a classified fragment. Value is normalized: decimal text for
// numbers, the canonical name for symbolic kinds, the matched text otherwise.
type Token struct {
	Kind  grammar.Kind
	Value string
}

func (t Token) String() string {
	return fmt.Sprintf("%-8s %q", t.Kind, t.Value)
}

// Tokenizer classifies fragments. It is safe for concurrent use.
type Tokenizer struct {
	lex *grammar.Lexer
}

func NewTokenizer(lex *grammar.Lexer) *Tokenizer {
	return &Tokenizer{lex: lex}
}

// Tokenize classifies the start of fragment. The error is ErrNoMatch when no
// kind matches, ErrMalformedNumber when a numeric literal overflows, and
// ErrUnknownSymbol when a symbolic pattern matched an undeclared spelling.
func (t *Tokenizer) Tokenize(fragment string) (Token, error) {
	kind, text, ok := t.lex.Match(fragment)
	if !ok {
		return Token{}, ErrNoMatch
	}

	switch {
	case kind == grammar.Number:
		v, err := parseNumber(text)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %s", ErrMalformedNumber, text)
		}
		return Token{Kind: kind, Value: strconv.FormatInt(v, 10)}, nil
	case kind.Symbolic():
		name, ok := t.lex.Lookup(kind, text)
		if !ok {
			return Token{}, fmt.Errorf("%w: %v %q", ErrUnknownSymbol, kind, text)
		}
		return Token{Kind: kind, Value: name}, nil
	}
	return Token{Kind: kind, Value: text}, nil
}

// parseNumber reads 0x, 0o and 0b prefixed literals in their radix and
// everything else as decimal.
func parseNumber(s string) (int64, error) {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	base := 10
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			s = s[2:]
		}
	}
	return strconv.ParseInt(sign+s, base, 64)
}
