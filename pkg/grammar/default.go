package grammar

import (
	"regexp"
	"sort"
	"strings"
)

// Suffix used by the default grammar for names that collide with keywords
// of the tooling that generates the tables.
const opSuffix = "_op"

var defaultSymbols = map[Kind][]string{
	Register: {
		"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rsp", "rbp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	},
	Op0:      {"nop", "ret", "hlt", "syscall", "leave"},
	SingleOp: {"push", "int_op"},
	MemOp:    {"pop", "inc", "dec", "not_op", "neg"},
	Op2:      {"mov", "add", "sub", "and_op", "or_op", "xor_op", "cmp", "lea", "test"},
	Jump:     {"jmp", "je", "jne", "jz", "jnz", "jl", "jg", "jle", "jge", "call"},
}

// Default returns the grammar of the x86-flavoured dialect the tools ship
// with. Each call returns a fresh value that callers may modify.
func Default() *Grammar {
	g := &Grammar{
		Symbols:        make(map[Kind][]string, len(defaultSymbols)),
		Suffix:         opSuffix,
		MacroPattern:   regexp.MustCompile(`^\s*#define\b`),
		PointerPattern: regexp.MustCompile(`^\s*[A-Za-z_]\w*\s+ptr\b`),
	}
	for kind, names := range defaultSymbols {
		g.Symbols[kind] = append([]string(nil), names...)
	}

	// Symbolic kinds come before Text so that reserved words win; Number
	// comes first so that a leading minus is never taken for anything else.
	g.Rules = []Rule{
		{Number, `-?(?:0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+|[0-9]+)\b`},
		{Register, g.WordsPattern(Register)},
		{Op0, g.WordsPattern(Op0)},
		{SingleOp, g.WordsPattern(SingleOp)},
		{MemOp, g.WordsPattern(MemOp)},
		{Op2, g.WordsPattern(Op2)},
		{Jump, g.WordsPattern(Jump)},
		{Text, `[A-Za-z_][A-Za-z0-9_]*`},
	}
	return g
}

// WordsPattern builds a pattern matching any canonical name of kind as a
// whole word. Longer names are listed first.
func (g *Grammar) WordsPattern(kind Kind) string {
	names := make([]string, 0, len(g.Symbols[kind]))
	for _, n := range g.Symbols[kind] {
		names = append(names, regexp.QuoteMeta(g.Canonical(n)))
	}
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	return `(?:` + strings.Join(names, "|") + `)\b`
}
