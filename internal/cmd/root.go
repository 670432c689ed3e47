// Package cmd wires the configuration, the engines and the keyword library
// into the sl2browser command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luispater/sl2browser/internal/config"
	"github.com/luispater/sl2browser/internal/logging"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	debug      bool
	cfg        *config.AppConfig
}

// NewRootCmd builds the sl2browser command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "sl2browser",
		Short:         "Run legacy Selenium keywords on a modern browser engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(opts.configPath, opts.envFiles...)
			if err != nil {
				return err
			}
			if opts.debug {
				cfg.Debug = true
			}
			logging.Setup(cmd.ErrOrStderr(), cfg.Debug)
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file, "+config.DefaultPath+" when empty")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files loaded before reading SL2B_* variables")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newTranslateCmd(),
		newKeywordsCmd(),
	)
	return root
}

// Execute runs the command line and exits non zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
