package main

import (
	"context"
	"fmt"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/spf13/cobra"

	"asmfront/pkg/asm"
)

func newParseCmd(opts *options) *cobra.Command {
	var dump bool
	var workers int
	cmd := &cobra.Command{
		Use:   "parse sourceFile",
		Short: "Parse a source file and print its operations",
		Long: `Parse prints one line per operation: the source line number followed by
the operation rendered back into canonical form. With --dump the
operations are printed as Go values instead.

--workers above 1 parses operation lines in parallel; 0 uses as many
goroutines as there are lines. The output is identical either way.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := opts.newParser(cmd)
			if err != nil {
				return err
			}

			var ops []asm.Operation
			if workers == 1 {
				ops, err = p.ParseSource(src)
			} else {
				ops, err = p.ParseConcurrent(context.Background(), src, workers)
			}
			if err != nil && !opts.skipErrors {
				return err
			}

			out := cmd.OutOrStdout()
			if dump {
				printer, perr := opts.printer(out)
				if perr != nil {
					return perr
				}
				printer.Println(ops)
			} else {
				for i := range ops {
					fmt.Fprintf(out, "%4d  %s\n", ops[i].Line, ops[i].String())
				}
			}
			return failedLines(err)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print operations as Go values")
	cmd.Flags().IntVarP(&workers, "workers", "j", 1, "number of parsing goroutines")
	return cmd
}

func newExpandCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "expand sourceFile",
		Short: "Show macro expansion as a unified diff",
		Long: `Expand applies every #define and pointer declaration in the file, drops
those directive lines, substitutes macros into the remaining lines and
prints the result as a unified diff against the original source.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := opts.newParser(cmd)
			if err != nil {
				return err
			}
			expanded, err := p.ExpandSource(src)
			if err != nil && !opts.skipErrors {
				return err
			}

			edits := myers.ComputeEdits(span.URIFromPath(args[0]), src, expanded)
			diff := gotextdiff.ToUnified(args[0], args[0]+" (expanded)", src, edits)
			fmt.Fprint(cmd.OutOrStdout(), diff)
			return failedLines(err)
		},
	}
}

func newTablesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tables sourceFile",
		Short: "Dump the macro and pointer tables of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := opts.newParser(cmd)
			if err != nil {
				return err
			}
			_, err = p.ParseSource(src)
			if err != nil && !opts.skipErrors {
				return err
			}

			printer, perr := opts.printer(cmd.OutOrStdout())
			if perr != nil {
				return perr
			}
			printer.Println(map[string]any{
				"macros":   p.Macros(),
				"pointers": p.Pointers(),
			})
			return failedLines(err)
		},
	}
}

// failedLines turns the joined errors of a skip-mode run into a short
// summary; the lines themselves were already logged.
func failedLines(err error) error {
	if err == nil {
		return nil
	}
	n := 1
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n = len(joined.Unwrap())
	}
	return fmt.Errorf("%d line(s) failed", n)
}
