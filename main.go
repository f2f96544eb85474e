package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"asmfront/pkg/asm"
	"asmfront/pkg/utils"
)

// options holds the flags shared by every subcommand.
type options struct {
	policy     string
	skipErrors bool
	verbose    bool
	color      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "asmfront",
		Short: "Front end for a small x86-flavoured assembly dialect",
		Long: `asmfront reads assembly source line by line and reports the
operations it finds: labels, mnemonic, operand kinds and values.

Commands:
  parse   Print every parsed operation, or dump them as Go values
  expand  Show what macro expansion does to a file as a unified diff
  tables  Dump the macro and pointer tables built from a file

A source path of "-" reads standard input.
`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.policy, "policy", "first", "which duplicate macro definition wins: first or last")
	flags.BoolVar(&opts.skipErrors, "skip-errors", false, "log failing lines and keep going instead of stopping")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log directives as they are applied")
	flags.StringVar(&opts.color, "color", "auto", "colour dumps: auto, always or never")

	root.AddCommand(newParseCmd(opts), newExpandCmd(opts), newTablesCmd(opts))
	return root
}

// newParser builds a parser configured from the shared flags. Logs go to the
// command's stderr.
func (o *options) newParser(cmd *cobra.Command) (*asm.Parser, error) {
	policy, err := asm.ParseMacroPolicy(o.policy)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	errPolicy := asm.AbortOnError
	if o.skipErrors {
		errPolicy = asm.SkipOnError
	}
	return asm.NewParser(nil,
		asm.WithLogger(logger),
		asm.WithMacroPolicy(policy),
		asm.WithErrorPolicy(errPolicy),
	)
}

// printer returns a pp printer writing to w. Colour is only used on a
// terminal unless forced.
func (o *options) printer(w io.Writer) (*pp.PrettyPrinter, error) {
	var color bool
	switch o.color {
	case "always":
		color = true
	case "never":
		color = false
	case "auto":
		f, ok := w.(*os.File)
		color = ok && term.IsTerminal(int(f.Fd()))
	default:
		return nil, fmt.Errorf("unknown --color value %q", o.color)
	}
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(color)
	return printer, nil
}

func readSource(path string, stdin io.Reader) (string, error) {
	src, _, err := utils.ReadSource(path, stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read input file %q: %w", path, err)
	}
	return src, nil
}
