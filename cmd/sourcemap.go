// Copyright © 2024 The LISPC authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/sourcemap"
)

var sourcemapCmd = &cobra.Command{
	Use:   "sourcemap file.php [line...]",
	Short: "Map generated PHP lines back to their source",
	Long: `Read the source map embedded in a file generated with --source-map and
print the source location of each requested generated line.  With no lines
every mapped line of the file is printed.

Examples:
  lispc sourcemap build/main.php 12     Where did line 12 come from?
  lispc sourcemap build/main.php        Print the whole mapping`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := os.ReadFile(args[0]) //nolint:gosec // CLI tool reads user-specified files
		if err != nil {
			return err
		}
		var lines []int
		for _, arg := range args[1:] {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid line number %q", arg)
			}
			lines = append(lines, n)
		}
		return printSourceLines(cmd.OutOrStdout(), string(code), lines)
	},
}

// printSourceLines writes "generated -> source:line" for each generated
// line of code.  Unmapped lines are skipped when no lines are requested
// and reported as unmapped otherwise.
func printSourceLines(w io.Writer, code string, lines []int) error {
	sm, err := compiler.ReadSourceMap(code)
	if err != nil {
		return err
	}
	consumer, err := sourcemap.NewConsumer(sm.Mappings)
	if err != nil {
		return fmt.Errorf("decoding mappings: %w", err)
	}
	all := len(lines) == 0
	if all {
		n := strings.Count(code, "\n") + 1
		for i := 1; i <= n; i++ {
			lines = append(lines, i)
		}
	}
	for _, line := range lines {
		orig := consumer.OriginalLine(line)
		if orig == 0 {
			if !all {
				fmt.Fprintf(w, "%d -> unmapped\n", line) //nolint:errcheck
			}
			continue
		}
		source := "?"
		if segs := consumer.Segments(line); len(segs) > 0 && segs[0].Source < len(sm.Sources) {
			source = sm.Sources[segs[0].Source]
		}
		if _, err := fmt.Fprintf(w, "%d -> %s:%d\n", line, source, orig); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(sourcemapCmd)
}
