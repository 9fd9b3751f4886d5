// Copyright © 2024 The LISPC authors

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/luthersystems/lispc/analyzer"
	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/docs"
)

const docWrapColumn = 72

var (
	docFiles     []string
	docNamespace string
	docList      bool
	docGuide     bool
)

// docCmd represents the doc command
var docCmd = &cobra.Command{
	Use:   "doc [flags] [NAME]",
	Short: "Show documentation for definitions and namespaces",
	Long: `Show documentation for core and user definitions.

By default, looks up a definition by name from the user namespace.  Use -f
to compile source files first (useful for documenting your own code); the
lookup is then made from the namespace the last file ends in.  Use -n to
list the definitions of a namespace and -l to list all namespaces.

Examples:
  lispc doc when                      Show docs for the when macro
  lispc doc -f util.lisp my-fn        Compile a file, then show my-fn
  lispc doc -n 'lispc\core'           List core definitions
  lispc doc -l                        List namespaces
  lispc doc --guide                   Print the language reference`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if docGuide {
			_, err := io.WriteString(out, docs.LangGuide)
			return err
		}

		session := compiler.NewSession(compiler.WithLogger(newLogger()))
		for _, path := range docFiles {
			if _, err := session.CompileFile(context.Background(), path); err != nil {
				renderError(cmd.ErrOrStderr(), newRenderer(), err)
				return &exitError{code: 1}
			}
		}
		reg := session.Registry()

		switch {
		case docList:
			for _, ns := range reg.Namespaces() {
				fmt.Fprintln(out, ns) //nolint:errcheck
			}
			return nil
		case docNamespace != "" && len(args) == 0:
			return writeNamespaceDoc(out, reg, docNamespace)
		case len(args) == 1:
			ns := docNamespace
			if ns == "" {
				ns = reg.CurrentNamespace()
			}
			return writeDefinitionDoc(out, reg, ns, args[0])
		}
		return cmd.Help()
	},
}

// writeDefinitionDoc describes the definition name refers to from ns.
func writeDefinitionDoc(w io.Writer, reg *analyzer.Registry, ns string, name string) error {
	def, ok := reg.Lookup(ns, name)
	if !ok {
		return fmt.Errorf("no definition of %s visible from namespace %s", name, ns)
	}
	fmt.Fprintf(w, "%s %s/%s\n", def.Kind(), def.Ns, def.Name) //nolint:errcheck
	if sig := def.Signature(); sig != "" {
		fmt.Fprintf(w, "\n  %s\n", sig) //nolint:errcheck
	}
	if doc := def.Doc(); doc != "" {
		fmt.Fprintf(w, "\n%s\n", indent.String(wordwrap.String(doc, docWrapColumn), 2)) //nolint:errcheck
	}
	return nil
}

// writeNamespaceDoc lists the public definitions of ns with the first line
// of their docs.
func writeNamespaceDoc(w io.Writer, reg *analyzer.Registry, ns string) error {
	defs := reg.Definitions(ns)
	if len(defs) == 0 {
		return fmt.Errorf("no definitions in namespace %s", ns)
	}
	for _, def := range defs {
		if def.IsPrivate() {
			continue
		}
		line := fmt.Sprintf("%-8s %s", def.Kind(), def.Name)
		if doc := firstLine(def.Doc()); doc != "" {
			line += "  " + doc
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

func init() {
	rootCmd.AddCommand(docCmd)

	docCmd.Flags().StringArrayVarP(&docFiles, "file", "f", nil,
		"Compile a source file before the lookup (may be repeated).")
	docCmd.Flags().StringVarP(&docNamespace, "namespace", "n", "",
		"List a namespace, or look NAME up from it.")
	docCmd.Flags().BoolVarP(&docList, "list", "l", false,
		"List all namespaces.")
	docCmd.Flags().BoolVar(&docGuide, "guide", false,
		"Print the language reference.")
}
