package grammar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind identifies the category a source fragment classifies as.
type Kind int

const (
	Invalid Kind = iota

	// Literals
	Number // numeric literal, any radix
	Text   // free text: labels, macro names, jump targets

	// Symbolic kinds, resolved against a symbol set
	Register
	Op0      // no operands
	SingleOp // one operand, immediate or register
	MemOp    // one operand, immediates only inside brackets
	Op2      // two operands
	Jump     // branch to a label
)

var kindNames = [...]string{
	Invalid:  "Invalid",
	Number:   "Number",
	Text:     "Text",
	Register: "Register",
	Op0:      "Op0",
	SingleOp: "SingleOp",
	MemOp:    "MemOp",
	Op2:      "Op2",
	Jump:     "Jump",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Symbolic reports whether fragments of this kind resolve through a symbol set.
func (k Kind) Symbolic() bool {
	return k >= Register && k <= Jump
}

// Mnemonic reports whether the kind names an instruction.
func (k Kind) Mnemonic() bool {
	return k >= Op0 && k <= Jump
}

// Arity returns the operand count of a mnemonic kind, or -1 for other kinds.
func (k Kind) Arity() int {
	switch k {
	case Op0:
		return 0
	case SingleOp, MemOp, Jump:
		return 1
	case Op2:
		return 2
	}
	return -1
}

// Rule binds a kind to the pattern that recognizes it at the start of a fragment.
type Rule struct {
	Kind    Kind
	Pattern string
}

// Grammar is the externally supplied description of the dialect. Rules are
// tried in order; the first one matching at the start of a fragment wins.
type Grammar struct {
	Rules []Rule

	// Symbols lists the declared names of every symbolic kind. A declared
	// name may carry Suffix, which is not part of its canonical spelling.
	Symbols map[Kind][]string
	Suffix  string

	MacroPattern   *regexp.Regexp
	PointerPattern *regexp.Regexp
}

var (
	ErrNoRules      = errors.New("grammar has no rules")
	ErrNoTextKind   = errors.New("grammar has no Text rule")
	ErrNoSymbols    = errors.New("symbolic kind has no symbol set")
	ErrDuplicate    = errors.New("duplicate rule")
	ErrInvalidKind  = errors.New("invalid kind")
	ErrNoRecognizer = errors.New("grammar is missing a directive pattern")
)

// Validate checks the grammar for the problems Compile cannot recover from.
func (g *Grammar) Validate() error {
	if len(g.Rules) == 0 {
		return ErrNoRules
	}
	if g.MacroPattern == nil || g.PointerPattern == nil {
		return ErrNoRecognizer
	}

	seen := make(map[Kind]bool, len(g.Rules))
	for i, r := range g.Rules {
		if r.Kind <= Invalid || r.Kind > Jump {
			return fmt.Errorf("rule %d: %w: %v", i, ErrInvalidKind, r.Kind)
		}
		if seen[r.Kind] {
			return fmt.Errorf("rule %d: %w: %v", i, ErrDuplicate, r.Kind)
		}
		seen[r.Kind] = true
		if strings.TrimSpace(r.Pattern) == "" {
			return fmt.Errorf("rule %d (%v): empty pattern", i, r.Kind)
		}
		if r.Kind.Symbolic() && len(g.Symbols[r.Kind]) == 0 {
			return fmt.Errorf("rule %d: %w: %v", i, ErrNoSymbols, r.Kind)
		}
	}
	if !seen[Text] {
		return ErrNoTextKind
	}
	return nil
}

// Canonical strips the suffix convention from a declared symbol name.
func (g *Grammar) Canonical(name string) string {
	if g.Suffix == "" {
		return name
	}
	return strings.TrimSuffix(name, g.Suffix)
}

// Compile validates the grammar and builds the lexer used for classification.
func (g *Grammar) Compile() (*Lexer, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	rules := make([]lexer.SimpleRule, 0, len(g.Rules))
	for _, r := range g.Rules {
		rules = append(rules, lexer.SimpleRule{Name: r.Kind.String(), Pattern: r.Pattern})
	}
	def, err := lexer.NewSimple(rules)
	if err != nil {
		return nil, fmt.Errorf("compiling token rules: %w", err)
	}

	l := &Lexer{
		def:     def,
		kinds:   make(map[lexer.TokenType]Kind, len(g.Rules)),
		symbols: make(map[Kind]map[string]string),
	}
	syms := def.Symbols()
	for _, r := range g.Rules {
		l.kinds[syms[r.Kind.String()]] = r.Kind
	}
	for kind, names := range g.Symbols {
		table := make(map[string]string, len(names))
		for _, name := range names {
			c := g.Canonical(name)
			table[c] = c
		}
		l.symbols[kind] = table
	}
	return l, nil
}

// MustCompile is like Compile but panics on error.
func (g *Grammar) MustCompile() *Lexer {
	l, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return l
}

// IsMacro reports whether line has the macro-definition shape.
func (g *Grammar) IsMacro(line string) bool {
	return g.MacroPattern.MatchString(line)
}

// IsPointer reports whether line has the pointer-declaration shape.
func (g *Grammar) IsPointer(line string) bool {
	return g.PointerPattern.MatchString(line)
}
