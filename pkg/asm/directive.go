package asm

import (
	"fmt"
	"strings"
)

// Pointer is a declared pointer-size alias. The size is kept as written;
// interpreting it is left to code generation.
type Pointer struct {
	Name string
	Size string
}

func (p Pointer) String() string {
	return fmt.Sprintf("%s ptr %s", p.Name, p.Size)
}

// PointerTable accumulates pointer declarations in source order.
type PointerTable struct {
	pointers []Pointer
}

func (t *PointerTable) Declare(name, size string) {
	t.pointers = append(t.pointers, Pointer{Name: name, Size: size})
}

func (t *PointerTable) Len() int { return len(t.pointers) }

// All returns a copy of every declaration in source order.
func (t *PointerTable) All() []Pointer {
	return append([]Pointer(nil), t.pointers...)
}

func (t *PointerTable) truncate(n int) {
	if n < len(t.pointers) {
		t.pointers = t.pointers[:n]
	}
}

// ParseMacro records a macro definition. It reports whether line had the
// macro-definition shape; a matching line without exactly the keyword, a
// name and a value yields a *DirectiveError and leaves the table unchanged.
func (p *Parser) ParseMacro(line string) (bool, error) {
	if !p.grammar.IsMacro(line) {
		return false, nil
	}
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return true, &DirectiveError{Directive: "macro", Fields: len(fields), Err: ErrMalformedDirective}
	}
	p.macros.Define(fields[1], fields[2])
	p.log.Debug("macro defined", "name", fields[1], "value", fields[2])
	return true, nil
}

// ParsePointer records a pointer declaration of the form NAME ptr SIZE. It
// follows the same reporting rules as ParseMacro.
func (p *Parser) ParsePointer(line string) (bool, error) {
	if !p.grammar.IsPointer(line) {
		return false, nil
	}
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return true, &DirectiveError{Directive: "pointer", Fields: len(fields), Err: ErrMalformedDirective}
	}
	p.pointers.Declare(fields[0], fields[2])
	p.log.Debug("pointer declared", "name", fields[0], "size", fields[2])
	return true, nil
}

// parseDirective runs both recognizers, macro first.
func (p *Parser) parseDirective(line string) (bool, error) {
	if ok, err := p.ParseMacro(line); ok {
		return true, err
	}
	return p.ParsePointer(line)
}
