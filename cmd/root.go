// Copyright © 2024 The LISPC authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lispc",
	Short: "lispc compiles a Lisp dialect to PHP",
	Long: `lispc compiles a Clojure-flavored Lisp dialect to PHP source code.

Each top-level form is read, macro expanded, analyzed and emitted before the
next one is parsed, so macros and namespaces defined earlier in a file are
visible to the forms that follow.

Getting started:
  lispc compile file.lisp          Compile a file, printing PHP to stdout
  lispc compile -o build ./...     Compile every .lisp file under . into build/
  lispc compile -e '(php/+ 1 2)'   Compile an expression
  lispc repl                       Start an interactive compile loop
  lispc fmt -w file.lisp           Format source code in place
  lispc tokens file.lisp           Show the tokens of a file
  lispc sourcemap out.php 12       Map a generated line back to its source
  lispc lsp                        Start the language server

Configuration is read from $HOME/.lispc.yaml (or --config) and from
environment variables prefixed with LISPC_, e.g. LISPC_SOURCE_MAP=true.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var eerr *exitError
		if errors.As(err, &eerr) {
			os.Exit(eerr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lispc.yaml)")
	rootCmd.PersistentFlags().String("color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	rootCmd.PersistentFlags().String("log-level", "warning",
		"Log level: panic, fatal, error, warning, info, debug or trace.")
	cobra.CheckErr(viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color")))
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".lispc" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".lispc")
	}

	viper.SetEnvPrefix("LISPC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		newLogger().WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

// newLogger returns a logger writing to stderr at the configured level.
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		logger.WithError(err).Warn("invalid log level")
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// exitError reports a failure whose details were already written to the
// user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
