package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crushlang/crush"
	"github.com/crushlang/crush/internal/clilog"
)

var (
	compileIn   string
	decompileIn string
	outPath     string
	clobber     bool
	verbosity   int
)

// run implements the CLI surface described in §6: exactly one of -c/-d is
// required, -o chooses the output target (otherwise compile prints a
// status line and decompile writes to stdout), and --clobber controls
// whether an existing output file may be overwritten.
func run(cmd *cobra.Command, args []string) error {
	log := clilog.New(verbosity)

	if (compileIn == "") == (decompileIn == "") {
		return usageError("specify exactly one of -c or -d")
	}

	if compileIn != "" {
		return runCompile(log)
	}
	return runDecompile(log)
}

func runCompile(log *clilog.Logger) error {
	log.Printf(1, "reading DSL source from %s", compileIn)
	src, err := os.ReadFile(compileIn)
	if err != nil {
		return ioError("reading input", err)
	}

	out, err := crush.Compile(string(src))
	if err != nil {
		return fmt.Errorf("%s:%w", compileIn, err)
	}

	if outPath == "" {
		fmt.Printf("compiled %d bytes ok\n", len(out))
		return nil
	}
	if err := writeOutput(outPath, out, clobber); err != nil {
		return err
	}
	log.Printf(1, "wrote %d bytes to %s", len(out), outPath)
	return nil
}

func runDecompile(log *clilog.Logger) error {
	log.Printf(1, "reading binary map from %s", decompileIn)
	data, err := os.ReadFile(decompileIn)
	if err != nil {
		return ioError("reading input", err)
	}

	text, err := crush.Decompile(data)
	if err != nil {
		return fmt.Errorf("%s:%w", decompileIn, err)
	}

	if outPath == "" {
		fmt.Print(text)
		return nil
	}
	if err := writeOutput(outPath, []byte(text), clobber); err != nil {
		return err
	}
	log.Printf(1, "wrote decompiled source to %s", outPath)
	return nil
}

func writeOutput(path string, data []byte, clobber bool) error {
	if !clobber {
		if _, err := os.Stat(path); err == nil {
			return ioError("writing output", fmt.Errorf("%s already exists (use --clobber)", path))
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ioError("writing output", err)
	}
	return nil
}

type usageErr struct{ msg string }

func usageError(msg string) error { return usageErr{msg: msg} }
func (e usageErr) Error() string { return e.msg }

type ioErr struct {
	stage string
	err   error
}

func ioError(stage string, err error) error { return ioErr{stage: stage, err: err} }
func (e ioErr) Error() string { return fmt.Sprintf("%s: %v", e.stage, e.err) }
func (e ioErr) Unwrap() error { return e.err }

func main() {
	root := &cobra.Command{
		Use:           "crushtool",
		Short:         "Compile and decompile CRUSH placement maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.Flags().StringVarP(&compileIn, "compile", "c", "", "compile the given DSL text file to binary")
	root.Flags().StringVarP(&decompileIn, "decompile", "d", "", "decompile the given binary file to text")
	root.Flags().StringVarP(&outPath, "output", "o", "", "write output to file instead of stdout")
	root.Flags().BoolVar(&clobber, "clobber", false, "overwrite an existing output file")
	root.Flags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (repeatable)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
