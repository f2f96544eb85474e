package asm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"asmfront/pkg/grammar"
)

const sampleProgram = `#define COUNT 10
#define ACC rax
counter ptr qword

start:
    mov ACC, COUNT
.loop: dec ACC
    cmp ACC, 0
    jne .loop
    jmp SIZE
#define SIZE 4
done: push SIZE
    ret
`

func TestParseSource(t *testing.T) {
	p := newTestParser(t)
	got, err := p.ParseSource(sampleProgram)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}

	want := []Operation{
		{Line: 5, Labels: []Label{label("start")}},
		{Line: 6, Operation: "mov", Kind: grammar.Op2, Args: []Argument{reg("rax"), imm("10")}},
		{Line: 7, Labels: []Label{localLabel("loop")}, Operation: "dec", Kind: grammar.MemOp, Args: []Argument{reg("rax")}},
		{Line: 8, Operation: "cmp", Kind: grammar.Op2, Args: []Argument{reg("rax"), imm("0")}},
		{Line: 9, Operation: "jne", Kind: grammar.Jump, Args: []Argument{{Value: "loop", Memory: true}}},
		{Line: 10, Operation: "jmp", Kind: grammar.Jump, Args: []Argument{{Value: "SIZE"}}},
		{Line: 12, Labels: []Label{label("done")}, Operation: "push", Kind: grammar.SingleOp, Args: []Argument{imm("4")}},
		{Line: 13, Operation: "ret", Kind: grammar.Op0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSource mismatch\n got: %+v\nwant: %+v", got, want)
	}

	wantMacros := []Macro{{"COUNT", "10"}, {"ACC", "rax"}, {"SIZE", "4"}}
	if !reflect.DeepEqual(p.Macros(), wantMacros) {
		t.Errorf("Macros() = %v; want %v", p.Macros(), wantMacros)
	}
	if !reflect.DeepEqual(p.Pointers(), []Pointer{{"counter", "qword"}}) {
		t.Errorf("Pointers() = %v", p.Pointers())
	}
}

func TestParseSourceCRLF(t *testing.T) {
	p := newTestParser(t)
	ops, err := p.ParseSource("nop\r\npush 1\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[1].Line != 2 {
		t.Errorf("got %+v", ops)
	}
}

func TestParseSourceAbort(t *testing.T) {
	p := newTestParser(t)
	ops, err := p.ParseSource("nop\npush 1\nmov rax\nret")

	var le *LineError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v; want *LineError", err)
	}
	if le.Line != 3 || le.Text != "mov rax" || le.Column() != 4 {
		t.Errorf("LineError = %+v (column %d)", le, le.Column())
	}
	if !errors.Is(err, ErrMissingOperand) {
		t.Errorf("error = %v; want %v", err, ErrMissingOperand)
	}
	if len(ops) != 2 {
		t.Errorf("got %d operations before the failure; want 2", len(ops))
	}
}

func TestParseSourceSkip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := newTestParser(t, WithErrorPolicy(SkipOnError), WithLogger(logger))

	ops, err := p.ParseSource("nop\n1bad: ret\n#define HALF\npush 1\njmp rax")
	if err == nil {
		t.Fatal("expected joined errors")
	}
	for _, want := range []error{ErrLabelName, ErrMalformedDirective, ErrInvalidOperand} {
		if !errors.Is(err, want) {
			t.Errorf("joined error does not contain %v: %v", want, err)
		}
	}
	if len(ops) != 2 || ops[1].Operation != "push" {
		t.Errorf("got %+v; want nop and push", ops)
	}

	out := buf.String()
	for _, want := range []string{"skipping line", "line=2", "line=3", "line=5", "column=5", `text="jmp rax"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestParseConcurrentMatchesSequential(t *testing.T) {
	chunk := strings.Replace(sampleProgram, "    jmp SIZE\n", "", 1)
	var src strings.Builder
	for i := 0; i < 20; i++ {
		src.WriteString(chunk)
		fmt.Fprintf(&src, "#define K%dK %d\npush K%dK\n#define COUNT 0x20\n", i, i, i)
	}

	seq := newTestParser(t)
	want, err := seq.ParseSource(src.String())
	if err != nil {
		t.Fatal(err)
	}

	for _, workers := range []int{0, 1, 4} {
		p := newTestParser(t)
		got, err := p.ParseConcurrent(context.Background(), src.String(), workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers=%d: concurrent result differs from sequential", workers)
		}
		if !reflect.DeepEqual(p.Macros(), seq.Macros()) || !reflect.DeepEqual(p.Pointers(), seq.Pointers()) {
			t.Errorf("workers=%d: tables differ from sequential", workers)
		}
	}
}

func TestParseConcurrentAbortRollsBack(t *testing.T) {
	src := "#define A 1\nmov rax\n#define B 2\nx ptr byte\npush A"

	seq := newTestParser(t)
	wantOps, wantErr := seq.ParseSource(src)

	p := newTestParser(t)
	gotOps, gotErr := p.ParseConcurrent(context.Background(), src, 2)

	if gotErr == nil || gotErr.Error() != wantErr.Error() {
		t.Errorf("error = %v; want %v", gotErr, wantErr)
	}
	if len(gotOps) != len(wantOps) {
		t.Errorf("operations = %+v; want %+v", gotOps, wantOps)
	}
	if !reflect.DeepEqual(p.Macros(), []Macro{{"A", "1"}}) || len(p.Pointers()) != 0 {
		t.Errorf("tables not rolled back: %v %v", p.Macros(), p.Pointers())
	}

	op, err := p.ParseLine("nop")
	if err != nil || op.Line != 3 {
		t.Errorf("line counter after abort: %+v, %v", op, err)
	}
}

func TestParseConcurrentSkip(t *testing.T) {
	src := "nop\n#define\npush 1\njmp 5"
	p := newTestParser(t, WithErrorPolicy(SkipOnError))
	ops, err := p.ParseConcurrent(context.Background(), src, 3)
	if !errors.Is(err, ErrMalformedDirective) || !errors.Is(err, ErrInvalidOperand) {
		t.Errorf("error = %v", err)
	}
	if len(ops) != 2 {
		t.Errorf("got %+v", ops)
	}
}

func TestParseConcurrentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestParser(t)
	if _, err := p.ParseConcurrent(ctx, "nop", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want %v", err, context.Canceled)
	}
}

func TestExpandLine(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"#define SIZE 4", "", false},
		{"buf ptr qword", "", false},
		{"push  SIZE ; keep spacing", "push  4 ; keep spacing", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, ok, err := p.ExpandLine(tc.line)
		if err != nil {
			t.Fatalf("ExpandLine(%q) error: %v", tc.line, err)
		}
		if got != tc.want || ok != tc.ok {
			t.Errorf("ExpandLine(%q) = %q, %v; want %q, %v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
	if _, _, err := p.ExpandLine("#define"); !errors.Is(err, ErrMalformedDirective) {
		t.Errorf("ExpandLine(#define) error = %v", err)
	}
}

func TestExpandSource(t *testing.T) {
	p := newTestParser(t)
	got, err := p.ExpandSource("#define N 3\nbuf ptr byte\npush N\n  mov rax, N\n")
	if err != nil {
		t.Fatal(err)
	}
	if want := "push 3\n  mov rax, 3\n"; got != want {
		t.Errorf("ExpandSource = %q; want %q", got, want)
	}
}

func TestExpandSourcePolicies(t *testing.T) {
	src := "#define N 3\n#define\npush N"

	p := newTestParser(t)
	got, err := p.ExpandSource(src)
	if !errors.Is(err, ErrMalformedDirective) || got != "" {
		t.Errorf("abort: ExpandSource = %q, %v", got, err)
	}

	p = newTestParser(t, WithErrorPolicy(SkipOnError))
	got, err = p.ExpandSource(src)
	if !errors.Is(err, ErrMalformedDirective) {
		t.Errorf("skip: error = %v", err)
	}
	if want := "#define\npush 3"; got != want {
		t.Errorf("skip: ExpandSource = %q; want %q", got, want)
	}
}
