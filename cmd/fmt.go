// Copyright © 2024 The LISPC authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/lispc/formatter"
)

var (
	fmtWrite    bool
	fmtDiff     bool
	fmtList     bool
	fmtExcludes []string
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] [files...]",
	Short: "Format Lisp source files",
	Long: `Format Lisp source files, similar to gofmt for Go.

Normalizes whitespace and indentation, aligns forms according to Lisp
conventions, and preserves comments and discarded #_ forms.  The formatter
is idempotent.

With no files, reads from stdin and writes to stdout.
With files, prints formatted output to stdout unless -w is given.

Modes:
  (default)   Print formatted code to stdout
  -w          Write result back to source file
  -d          Display a diff of changes
  -l          List files that would be changed

Examples:
  lispc fmt file.lisp               Print formatted output
  lispc fmt -w file.lisp            Format in place
  lispc fmt -w *.lisp               Format all lisp files in place
  lispc fmt -d file.lisp            Show what would change
  lispc fmt -l *.lisp               List files needing formatting
  cat file.lisp | lispc fmt         Format from stdin
  lispc fmt --indent-size 4 f.lisp  Use 4-space indentation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := formatter.DefaultConfig()
		cfg.IndentSize = viper.GetInt("indent-size")
		stdout := cmd.OutOrStdout()

		if len(args) == 0 {
			return fmtStdin(cmd.InOrStdin(), stdout, cfg)
		}

		expanded, err := expandArgs(args, fmtExcludes)
		if err != nil {
			return err
		}

		exitCode := 0
		for _, path := range expanded {
			changed, err := fmtFile(stdout, path, cfg)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				exitCode = 1
			} else if fmtList && changed {
				exitCode = 1
			}
		}
		if exitCode != 0 {
			return &exitError{code: exitCode}
		}
		return nil
	},
}

func fmtStdin(stdin io.Reader, stdout io.Writer, cfg *formatter.Config) error {
	src, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	out, err := formatter.Format(src, cfg)
	if err != nil {
		return fmt.Errorf("<stdin>: %w", err)
	}
	_, err = stdout.Write(out)
	return err
}

func fmtFile(stdout io.Writer, path string, cfg *formatter.Config) (bool, error) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	out, err := formatter.FormatFile(src, path, cfg)
	if err != nil {
		return false, err
	}

	changed := string(src) != string(out)

	if fmtList {
		if changed {
			fmt.Fprintln(stdout, path)
		}
		return changed, nil
	}

	if fmtDiff {
		if changed {
			printUnifiedDiff(stdout, path, src, out)
		}
		return changed, nil
	}

	if fmtWrite {
		if !changed {
			return false, nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		return true, os.WriteFile(path, out, info.Mode().Perm())
	}

	// Default: print to stdout
	_, err = stdout.Write(out)
	return changed, err
}

func printUnifiedDiff(w io.Writer, path string, original, formatted []byte) {
	// Simple line-by-line diff output
	fmt.Fprintf(w, "--- %s\n", path)
	fmt.Fprintf(w, "+++ %s\n", path)

	origLines := splitLines(original)
	fmtLines := splitLines(formatted)

	i, j := 0, 0
	for i < len(origLines) || j < len(fmtLines) {
		if i < len(origLines) && j < len(fmtLines) && origLines[i] == fmtLines[j] {
			fmt.Fprintf(w, " %s\n", origLines[i])
			i++
			j++
		} else if i < len(origLines) {
			fmt.Fprintf(w, "-%s\n", origLines[i])
			i++
		} else {
			fmt.Fprintf(w, "+%s\n", fmtLines[j])
			j++
		}
	}
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false,
		"Write result to (source) file instead of stdout.")
	fmtCmd.Flags().BoolVarP(&fmtDiff, "diff", "d", false,
		"Display diffs instead of rewriting files.")
	fmtCmd.Flags().BoolVarP(&fmtList, "list", "l", false,
		"List files whose formatting differs from lispc fmt's.")
	fmtCmd.Flags().Int("indent-size", 2,
		"Number of spaces per indentation level.")
	fmtCmd.Flags().StringArrayVar(&fmtExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	cobra.CheckErr(viper.BindPFlag("indent-size", fmtCmd.Flags().Lookup("indent-size")))
}
