package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer classifies single fragments against a compiled Grammar. It holds no
// mutable state and is safe for concurrent use.
type Lexer struct {
	def     *lexer.StatefulDefinition
	kinds   map[lexer.TokenType]Kind
	symbols map[Kind]map[string]string
}

// Match returns the kind and text of the first rule matching at the start of
// fragment. ok is false when no rule matches.
func (l *Lexer) Match(fragment string) (kind Kind, text string, ok bool) {
	if fragment == "" {
		return Invalid, "", false
	}
	lx, err := l.def.LexString("", fragment)
	if err != nil {
		return Invalid, "", false
	}
	tok, err := lx.Next()
	if err != nil || tok.EOF() {
		return Invalid, "", false
	}
	kind, ok = l.kinds[tok.Type]
	if !ok {
		return Invalid, "", false
	}
	return kind, tok.Value, true
}

// Lookup resolves a matched spelling to its canonical symbol name.
func (l *Lexer) Lookup(kind Kind, text string) (string, bool) {
	name, ok := l.symbols[kind][text]
	return name, ok
}
