package asm

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SplitLines splits src into lines, accepting both LF and CRLF endings.
func SplitLines(src string) []string {
	return strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
}

// ParseSource parses src line by line, in order, continuing from the
// parser's current state. Label-only lines are kept in the result. With
// AbortOnError the operations before the failing line are returned together
// with its *LineError; with SkipOnError every failing line is logged and the
// errors are returned joined.
func (p *Parser) ParseSource(src string) ([]Operation, error) {
	var ops []Operation
	var errs []error
	for _, line := range SplitLines(src) {
		op, err := p.ParseLine(line)
		if err != nil {
			if p.errorPolicy == AbortOnError {
				return ops, err
			}
			p.skip(err)
			errs = append(errs, err)
			continue
		}
		if op != nil {
			ops = append(ops, *op)
		}
	}
	return ops, errors.Join(errs...)
}

// ExpandSource applies the directives in src and returns every other line
// after macro expansion, joined with LF. Directive lines are dropped. Errors
// follow the parser's ErrorPolicy as in ParseSource; a skipped line is kept
// unexpanded.
func (p *Parser) ExpandSource(src string) (string, error) {
	var out []string
	var errs []error
	for _, line := range SplitLines(src) {
		expanded, ok, err := p.ExpandLine(line)
		if err != nil {
			if p.errorPolicy == AbortOnError {
				return strings.Join(out, "\n"), err
			}
			p.skip(err)
			errs = append(errs, err)
			out = append(out, line)
			continue
		}
		if ok {
			out = append(out, expanded)
		}
	}
	return strings.Join(out, "\n"), errors.Join(errs...)
}

// ParseConcurrent produces the same result as ParseSource, parsing operation
// lines on up to workers goroutines (unlimited when workers <= 0).
//
// Directives are applied first in a sequential pre-scan that records, for
// every operation line, the macro table prefix visible at that point. Only
// then are operation lines parsed, each against its own snapshot. On abort
// the tables are rolled back to their state at the failing line.
func (p *Parser) ParseConcurrent(ctx context.Context, src string, workers int) ([]Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type job struct {
		line     int
		text     string
		macros   MacroSnapshot
		pointers int
		parse    bool

		op  *Operation
		err error
	}

	var jobs []*job
	for _, text := range SplitLines(src) {
		p.line++
		j := &job{line: p.line, text: text}
		isDir, err := p.parseDirective(text)
		if err != nil {
			j.err = &LineError{Line: p.line, Text: text, Err: err}
		}
		if !isDir {
			j.parse = true
		}
		j.macros = p.macros.Snapshot(p.macros.Len())
		j.pointers = p.pointers.Len()
		jobs = append(jobs, j)
		if j.err != nil && p.errorPolicy == AbortOnError {
			break
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, j := range jobs {
		if !j.parse {
			continue
		}
		j := j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			op, err := p.parseOperation(j.text, j.macros.Expand)
			if err != nil {
				j.err = &LineError{Line: j.line, Text: j.text, Err: err}
				return nil
			}
			if op != nil {
				op.Line = j.line
			}
			j.op = op
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ops []Operation
	var errs []error
	for _, j := range jobs {
		if j.err != nil {
			if p.errorPolicy == AbortOnError {
				p.macros.truncate(j.macros.Len())
				p.pointers.truncate(j.pointers)
				p.line = j.line
				return ops, j.err
			}
			p.skip(j.err)
			errs = append(errs, j.err)
			continue
		}
		if j.op != nil {
			ops = append(ops, *j.op)
		}
	}
	return ops, errors.Join(errs...)
}

func (p *Parser) skip(err error) {
	var le *LineError
	if !errors.As(err, &le) {
		p.log.Warn("skipping line", "err", err)
		return
	}
	p.log.Warn("skipping line",
		"line", le.Line,
		"column", le.Column(),
		"text", le.Text,
		"err", le.Err,
	)
}
