// Copyright © 2024 The LISPC authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/formatter"
	"github.com/luthersystems/lispc/lsp"
)

var (
	lspStdio bool
	lspPort  int
)

var lspCmd = &cobra.Command{
	Use:   "lsp [flags]",
	Short: "Start the Language Server Protocol server",
	Long: `Start an LSP server for Lisp source files.

The language server compiles each open document and provides diagnostics,
hover documentation, go-to-definition, completion, document symbols,
formatting and folding ranges.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  lispc lsp                           Start with stdio transport
  lispc lsp --stdio                   Same as above (explicit)
  lispc lsp --port 7998               Start with TCP on port 7998

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "lispc lsp --stdio" for .lisp files.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		log := newLogger()
		cfg := formatter.DefaultConfig()
		cfg.IndentSize = viper.GetInt("indent-size")
		srv := lsp.New(
			lsp.WithLogger(log),
			lsp.WithCompilerOptions(compiler.WithLogger(log)),
			lsp.WithFormatConfig(cfg),
		)

		if !lspStdio && lspPort > 0 {
			addr := fmt.Sprintf("localhost:%d", lspPort)
			log.WithField("addr", addr).Info("LSP server listening")
			if err := srv.RunTCP(addr); err != nil {
				return fmt.Errorf("lsp server error: %w", err)
			}
			return nil
		}
		if err := srv.RunStdio(); err != nil {
			return fmt.Errorf("lsp server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lspCmd)

	lspCmd.Flags().BoolVar(&lspStdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	lspCmd.Flags().IntVar(&lspPort, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
}
