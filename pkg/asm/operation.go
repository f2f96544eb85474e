package asm

import (
	"strings"

	"asmfront/pkg/grammar"
)

// Label is a name attached to the instruction that follows it.
type Label struct {
	Name  string
	Local bool
}

func (l Label) String() string {
	if l.Local {
		return "." + l.Name + ":"
	}
	return l.Name + ":"
}

// Argument is one operand. Memory is set when the source form was
// bracket-delimited, or for a jump target written with the local prefix.
type Argument struct {
	Value    string
	Register bool
	Memory   bool
}

func (a Argument) String() string {
	if a.Memory {
		return "[" + a.Value + "]"
	}
	return a.Value
}

// Operation is one parsed source line. Line is the 1-based source line when
// the operation came from ParseLine or ParseSource, 0 otherwise. A line that
// only defines labels has an empty Operation and Kind grammar.Invalid.
type Operation struct {
	Line      int
	Labels    []Label
	Operation string
	Kind      grammar.Kind
	Args      []Argument
}

// LabelOnly reports whether the line carried labels but no instruction.
func (o *Operation) LabelOnly() bool {
	return o.Operation == ""
}

// String renders the operation back into source form.
func (o *Operation) String() string {
	var sb strings.Builder
	for _, l := range o.Labels {
		sb.WriteString(l.String())
		sb.WriteByte(' ')
	}
	sb.WriteString(o.Operation)
	for i, a := range o.Args {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		if o.Kind == grammar.Jump && a.Memory {
			sb.WriteString("." + a.Value)
			continue
		}
		sb.WriteString(a.String())
	}
	return strings.TrimSpace(sb.String())
}
