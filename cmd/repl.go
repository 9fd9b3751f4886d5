// Copyright © 2024 The LISPC authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luthersystems/lispc/repl"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive compile loop",
	Long: `Start an interactive read-compile-print loop.

Each form entered is compiled in a single session and the generated PHP is
printed.  Definitions and macros persist between forms, so a macro defined
at the prompt can be used by the next form.  Line editing, completion of
defined names and command history are supported via readline.  Use Ctrl-D
or Ctrl-C to exit.

Example session:
  lispc> (defmacro unless [c & body] ` + "`" + `(if ~c nil (do ~@body)))
  lispc> (unless (php/empty x) (php/echo x))`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repl.RunRepl(filepath.Base(os.Args[0])+"> ", repl.WithColor(colorMode()))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
