// Command sharenv serves shell environment variables with key rotation and
// live reload.
//
//	sharenv serve --vars-dir ./vars --aliases-file ./aliases
//	eval "$(curl -s http://localhost:5000/env)"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zoobzio/sharenv/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options carries the state shared by all subcommands.
type options struct {
	v          *viper.Viper
	configPath string
}

func (o *options) load() (config.Config, error) {
	return config.Load(o.v, o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &options{v: config.New()}

	root := &cobra.Command{
		Use:           "sharenv",
		Short:         "Share environment variables and aliases over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (yaml)")
	flags.String("vars-dir", config.DefaultVarsDir, "directory with one file per variable")
	flags.String("aliases-file", config.DefaultAliasesFile, "file with shell aliases")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	bindFlag(opts.v, "vars_dir", root.PersistentFlags().Lookup("vars-dir"))
	bindFlag(opts.v, "aliases_file", root.PersistentFlags().Lookup("aliases-file"))
	bindFlag(opts.v, "log_level", root.PersistentFlags().Lookup("log-level"))

	serve := newServeCmd(opts)
	root.AddCommand(serve, newCheckCmd(opts))
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}
