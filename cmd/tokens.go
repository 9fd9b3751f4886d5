// Copyright © 2024 The LISPC authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/luthersystems/lispc/parser/lexer"
	"github.com/luthersystems/lispc/parser/token"
)

var (
	tokensYAML   bool
	tokensTrivia bool
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] [file]",
	Short: "Print the tokens of a source file",
	Long: `Print the tokens the lexer produces for a source file, one per line,
with their location, type and text.  With no file the source is read from
stdin.

Whitespace, newlines and comments are omitted unless --trivia is given.

Examples:
  lispc tokens file.lisp           Tab separated token listing
  lispc tokens --yaml file.lisp    YAML token listing`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "stdin"
		var src []byte
		var err error
		if len(args) == 0 {
			src, err = io.ReadAll(cmd.InOrStdin())
		} else {
			name = args[0]
			src, err = os.ReadFile(name) //nolint:gosec // CLI tool reads user-specified files
		}
		if err != nil {
			return err
		}
		toks, lexErr := lexer.All(name, string(src))
		if err := writeTokens(cmd.OutOrStdout(), toks, tokensTrivia, tokensYAML); err != nil {
			return err
		}
		if lexErr != nil {
			renderError(cmd.ErrOrStderr(), newRenderer(), lexErr)
			return &exitError{code: 1}
		}
		return nil
	},
}

// tokenRecord is the YAML form of a token.
type tokenRecord struct {
	Type string `yaml:"type"`
	Text string `yaml:"text,omitempty"`
	Line int    `yaml:"line"`
	Col  int    `yaml:"col"`
}

// writeTokens prints toks to w, as YAML when asYAML is set.
func writeTokens(w io.Writer, toks []*token.Token, trivia bool, asYAML bool) error {
	var records []tokenRecord
	for _, tok := range toks {
		if !trivia && tok.IsTrivia() {
			continue
		}
		if asYAML {
			records = append(records, tokenRecord{
				Type: tok.Type.String(),
				Text: tok.Text,
				Line: tok.Source.Line,
				Col:  tok.Source.Col,
			})
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%q\n", tok.Source, tok.Type, tok.Text); err != nil {
			return err
		}
	}
	if !asYAML {
		return nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().BoolVar(&tokensYAML, "yaml", false,
		"Print tokens as a YAML sequence.")
	tokensCmd.Flags().BoolVar(&tokensTrivia, "trivia", false,
		"Include whitespace, newlines and comments.")
}
