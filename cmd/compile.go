// Copyright © 2024 The LISPC authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/compiler/x/profiler"
	"github.com/luthersystems/lispc/diagnostic"
)

var (
	compileExprs      []string
	compileExcludes   []string
	compileCallgrind  string
	compileCPUProfile string
	compileTrace      string
	compileTraceAPI   string
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] [files...]",
	Short: "Compile Lisp source files to PHP",
	Long: `Compile Lisp source files to PHP.

All inputs are compiled in one session, in the order given, so definitions
made by one file are visible to the files after it.  Compilation of a file
stops at its first error.

With no files and no expressions the source is read from stdin.  Generated
code is printed to stdout unless --output-dir is given, in which case each
file.lisp is written to <dir>/file.php.

Examples:
  lispc compile file.lisp                 Print the PHP for a file
  lispc compile -o build ./...            Compile every .lisp file below .
  lispc compile -e '(php/+ 1 2)'          Compile an expression
  lispc compile --source-map f.lisp       Embed a source map comment
  lispc compile --callgrind out.cg f.lisp Profile compilation stages
  lispc compile --trace spans.yaml f.lisp Trace compilation stages`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		opts := []compiler.Option{
			compiler.WithLogger(log),
			compiler.WithSourceMap(viper.GetBool("source-map")),
		}

		if compileCallgrind != "" {
			prof := profiler.NewCallgrindProfiler(profiler.WithSourceLabeler())
			if err := prof.SetFile(compileCallgrind); err != nil {
				return err
			}
			if err := prof.Enable(); err != nil {
				return err
			}
			defer completeProfile(log, prof)
			opts = append(opts, compiler.WithProfiler(prof))
		}
		if compileCPUProfile != "" {
			f, err := os.Create(compileCPUProfile)
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck
			if err := pprof.StartCPUProfile(f); err != nil {
				return err
			}
			defer pprof.StopCPUProfile()
			prof := profiler.NewPprofAnnotator(cmd.Context(), profiler.WithSourceLabeler())
			if err := prof.Enable(); err != nil {
				return err
			}
			defer completeProfile(log, prof)
			opts = append(opts, compiler.WithProfiler(prof))
		}
		if compileTrace != "" {
			rec := &traceRecorder{}
			prof, stop, err := startTrace(cmd.Context(), compileTraceAPI, rec)
			if err != nil {
				return err
			}
			defer finishTrace(log, prof, stop, rec, compileTrace)
			opts = append(opts, compiler.WithProfiler(prof))
		}

		paths, err := expandArgs(args, compileExcludes)
		if err != nil {
			return err
		}
		inputs := compileInputs(paths, compileExprs, cmd.InOrStdin())
		out := &compileOutput{
			stdout:    cmd.OutOrStdout(),
			outputDir: viper.GetString("output-dir"),
		}
		failed := runCompile(cmd.Context(), compiler.NewSession(opts...), inputs, out, cmd.ErrOrStderr(), newRenderer())
		if failed > 0 {
			return &exitError{code: 1}
		}
		return nil
	},
}

func completeProfile(log logrus.FieldLogger, p compiler.Profiler) {
	if err := p.Complete(); err != nil {
		log.WithError(err).Error("unable to complete profile")
	}
}

// compileInput is one unit of source given on the command line.
type compileInput struct {
	name string
	// path is empty when the source is held in src.
	path string
	src  io.Reader
}

// compileInputs lists the sources to compile.  Files come first, then
// expressions.  Without either the source is read from stdin.
func compileInputs(paths []string, exprs []string, stdin io.Reader) []compileInput {
	var inputs []compileInput
	for _, p := range paths {
		if p == "-" {
			inputs = append(inputs, compileInput{name: "stdin", src: stdin})
			continue
		}
		inputs = append(inputs, compileInput{name: p, path: p})
	}
	for i, e := range exprs {
		name := "expression"
		if len(exprs) > 1 {
			name = fmt.Sprintf("expression-%d", i+1)
		}
		inputs = append(inputs, compileInput{name: name, src: strings.NewReader(e)})
	}
	if len(inputs) == 0 {
		inputs = append(inputs, compileInput{name: "stdin", src: stdin})
	}
	return inputs
}

// compileOutput decides where generated code is written.
type compileOutput struct {
	stdout    io.Writer
	outputDir string
}

// write stores the code generated for input.  Only inputs read from files
// are written to the output directory; the rest go to stdout.
func (o *compileOutput) write(input compileInput, code string) error {
	if o.outputDir == "" || input.path == "" {
		_, err := io.WriteString(o.stdout, code)
		return err
	}
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil { //#nosec G301
		return err
	}
	dest := filepath.Join(o.outputDir, phpName(input.path))
	return os.WriteFile(dest, []byte(code), 0o644) //#nosec G306
}

// runCompile compiles each input in session and returns the number of
// inputs that failed.  Errors are rendered to stderr as they occur.
func runCompile(ctx context.Context, session *compiler.Session, inputs []compileInput, out *compileOutput, stderr io.Writer, r *diagnostic.Renderer) int {
	failed := 0
	for _, input := range inputs {
		var res *compiler.Result
		var err error
		if input.path != "" {
			res, err = session.CompileFile(ctx, input.path)
		} else {
			res, err = session.CompileReader(ctx, input.name, input.src)
		}
		if err != nil {
			renderError(stderr, r, err)
			failed++
			continue
		}
		if err := out.write(input, res.Code); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", input.name, err)
			failed++
		}
	}
	return failed
}

// phpName returns the name of the file generated from the source file at
// path.
func phpName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".php"
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringArrayVarP(&compileExprs, "expression", "e", nil,
		"Compile an expression given on the command line (may be repeated).")
	compileCmd.Flags().StringP("output-dir", "o", "",
		"Write each generated file to this directory instead of stdout.")
	compileCmd.Flags().Bool("source-map", false,
		"Append a base64 encoded source map comment to generated code.")
	compileCmd.Flags().StringArrayVar(&compileExcludes, "exclude", nil,
		"Glob pattern for files to exclude from ./... expansion (may be repeated).")
	compileCmd.Flags().StringVar(&compileCallgrind, "callgrind", "",
		"Write a callgrind profile of the compilation stages to this file.")
	compileCmd.Flags().StringVar(&compileCPUProfile, "cpu-profile", "",
		"Write a Go CPU profile labeled by compilation stage to this file.")
	compileCmd.Flags().StringVar(&compileTrace, "trace", "",
		"Write the spans of the compilation stages to this file as YAML.")
	compileCmd.Flags().StringVar(&compileTraceAPI, "trace-api", traceAPIOpenTelemetry,
		`Tracing API used by --trace: "otel" or "opencensus".`)
	compileCmd.MarkFlagsMutuallyExclusive("callgrind", "cpu-profile", "trace")
	cobra.CheckErr(viper.BindPFlag("output-dir", compileCmd.Flags().Lookup("output-dir")))
	cobra.CheckErr(viper.BindPFlag("source-map", compileCmd.Flags().Lookup("source-map")))
}
