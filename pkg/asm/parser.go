package asm

import (
	"io"
	"log/slog"
	"strings"
	"unicode"

	"asmfront/pkg/grammar"
)

// ErrorPolicy decides what the source drivers do with a failing line.
type ErrorPolicy int

const (
	// AbortOnError stops at the first failing line.
	AbortOnError ErrorPolicy = iota
	// SkipOnError logs the failing line and continues with the next one.
	SkipOnError
)

// Parser turns source lines into operations. It owns the macro and pointer
// tables of one source pass, so lines must be fed in file order. A Parser is
// not safe for concurrent use; see ParseConcurrent.
type Parser struct {
	grammar  *grammar.Grammar
	tok      *Tokenizer
	macros   *MacroTable
	pointers *PointerTable

	log         *slog.Logger
	macroPolicy MacroPolicy
	errorPolicy ErrorPolicy

	line int
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.log = l }
}

func WithMacroPolicy(mp MacroPolicy) Option {
	return func(p *Parser) { p.macroPolicy = mp }
}

func WithErrorPolicy(ep ErrorPolicy) Option {
	return func(p *Parser) { p.errorPolicy = ep }
}

// NewParser compiles g and returns a parser with empty tables. A nil g
// selects grammar.Default().
func NewParser(g *grammar.Grammar, opts ...Option) (*Parser, error) {
	if g == nil {
		g = grammar.Default()
	}
	lex, err := g.Compile()
	if err != nil {
		return nil, err
	}

	p := &Parser{
		grammar: g,
		tok:     NewTokenizer(lex),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p, nil
}

// Reset clears both tables and the line counter for a new source pass.
func (p *Parser) Reset() {
	p.macros = NewMacroTable(p.macroPolicy)
	p.pointers = &PointerTable{}
	p.line = 0
}

func (p *Parser) Tokenizer() *Tokenizer { return p.tok }

// Macros returns every macro defined so far, in definition order.
func (p *Parser) Macros() []Macro { return p.macros.All() }

// Pointers returns every pointer declared so far, in source order.
func (p *Parser) Pointers() []Pointer { return p.pointers.All() }

// ParseOperation parses one line with the current macro table. It returns
// nil and no error for blank, too short and directive lines; directives are
// not applied.
func (p *Parser) ParseOperation(line string) (*Operation, error) {
	return p.parseOperation(line, p.macros.Expand)
}

// ParseLine applies a directive line to the tables, or parses an operation
// line. Errors are *LineError values carrying the 1-based line number.
func (p *Parser) ParseLine(line string) (*Operation, error) {
	p.line++
	if ok, err := p.parseDirective(line); ok {
		if err != nil {
			return nil, &LineError{Line: p.line, Text: line, Err: err}
		}
		return nil, nil
	}
	op, err := p.ParseOperation(line)
	if err != nil {
		return nil, &LineError{Line: p.line, Text: line, Err: err}
	}
	if op != nil {
		op.Line = p.line
	}
	return op, nil
}

// ExpandLine applies directives like ParseLine and otherwise returns the
// line after macro expansion. ok is false for directive lines.
func (p *Parser) ExpandLine(line string) (expanded string, ok bool, err error) {
	p.line++
	if isDir, err := p.parseDirective(line); isDir {
		if err != nil {
			return "", false, &LineError{Line: p.line, Text: line, Err: err}
		}
		return "", false, nil
	}
	return p.macros.Expand(line), true, nil
}

func (p *Parser) isDirective(line string) bool {
	return p.grammar.IsMacro(line) || p.grammar.IsPointer(line)
}

// parseOperation holds the part of parsing that only reads the parser, so
// that it can run concurrently against macro snapshots.
func (p *Parser) parseOperation(line string, expand func(string) string) (*Operation, error) {
	line = strings.Join(strings.Fields(line), " ")
	if len(line) < 2 || p.isDirective(line) {
		return nil, nil
	}

	pieces := splitPieces(expand(line))
	op := &Operation{}

	i := 0
	for i < len(pieces) && strings.HasSuffix(pieces[i].text, ":") {
		label, err := p.parseLabel(pieces[i])
		if err != nil {
			return nil, err
		}
		op.Labels = append(op.Labels, label)
		i++
	}
	if i >= len(pieces) {
		return op, nil
	}

	cmd := pieces[i]
	tok, err := p.tok.Tokenize(cmd.text)
	if err != nil {
		return nil, cmd.fail(err)
	}
	if !tok.Kind.Mnemonic() {
		return nil, cmd.fail(ErrNotMnemonic)
	}
	op.Operation = tok.Value
	op.Kind = tok.Kind

	op.Args, err = p.parseOperands(tok.Kind, cmd, pieces[i+1:])
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (p *Parser) parseLabel(pc piece) (Label, error) {
	var label Label
	name := strings.TrimSuffix(pc.text, ":")
	if strings.HasPrefix(name, ".") {
		label.Local = true
		name = name[1:]
	}
	tok, err := p.tok.Tokenize(name)
	if err != nil || tok.Kind != grammar.Text {
		return label, pc.fail(ErrLabelName)
	}
	label.Name = tok.Value
	return label, nil
}

func (p *Parser) parseOperands(kind grammar.Kind, cmd piece, rest []piece) ([]Argument, error) {
	need := kind.Arity()
	if len(rest) < need {
		return nil, &SyntaxError{Column: cmd.end() + 1, Fragment: cmd.text, Err: ErrMissingOperand}
	}
	if len(rest) > need {
		return nil, rest[need].fail(ErrUnexpectedOperand)
	}

	switch kind {
	case grammar.SingleOp, grammar.MemOp:
		arg, err := p.parseOperand(rest[0], rest[0].text, kind == grammar.SingleOp)
		if err != nil {
			return nil, err
		}
		return []Argument{arg}, nil

	case grammar.Op2:
		dst, err := p.parseOperand(rest[0], strings.TrimSuffix(rest[0].text, ","), false)
		if err != nil {
			return nil, err
		}
		src, err := p.parseOperand(rest[1], rest[1].text, true)
		if err != nil {
			return nil, err
		}
		return []Argument{dst, src}, nil

	case grammar.Jump:
		arg, err := p.parseTarget(rest[0])
		if err != nil {
			return nil, err
		}
		return []Argument{arg}, nil
	}
	return nil, nil
}

// parseOperand reads a register or numeric operand, optionally wrapped in
// brackets. Without immediate, a bare number is dropped and the argument
// value stays empty; only the bracketed form carries a number.
func (p *Parser) parseOperand(pc piece, text string, immediate bool) (Argument, error) {
	var arg Argument
	open, closed := strings.HasPrefix(text, "["), strings.HasSuffix(text, "]")
	if open != closed {
		return arg, pc.fail(ErrMalformedOperand)
	}
	if open {
		text = text[1 : len(text)-1]
		arg.Memory = true
	}

	tok, err := p.tok.Tokenize(text)
	if err != nil {
		return arg, pc.fail(err)
	}
	switch tok.Kind {
	case grammar.Register:
		arg.Register = true
		arg.Value = tok.Value
	case grammar.Number:
		if immediate || arg.Memory {
			arg.Value = tok.Value
		}
	default:
		return arg, pc.fail(ErrInvalidOperand)
	}
	return arg, nil
}

func (p *Parser) parseTarget(pc piece) (Argument, error) {
	var arg Argument
	text := pc.text
	if strings.HasPrefix(text, ".") {
		arg.Memory = true
		text = text[1:]
	}
	tok, err := p.tok.Tokenize(text)
	if err != nil {
		return arg, pc.fail(err)
	}
	if tok.Kind != grammar.Text {
		return arg, pc.fail(ErrInvalidOperand)
	}
	arg.Value = tok.Value
	return arg, nil
}

// piece is a whitespace-delimited fragment and its 1-based byte column.
type piece struct {
	text string
	col  int
}

func (pc piece) end() int { return pc.col + len(pc.text) - 1 }

func (pc piece) fail(err error) error {
	return &SyntaxError{Column: pc.col, Fragment: pc.text, Err: err}
}

func splitPieces(s string) []piece {
	var out []piece
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, piece{text: s[start:i], col: start + 1})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, piece{text: s[start:], col: start + 1})
	}
	return out
}
