package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saylorsolutions/obfsecrets/cmd/internal"
	"github.com/saylorsolutions/obfsecrets/internal/config"
	"github.com/saylorsolutions/obfsecrets/internal/logging"
)

var version = "dev"

type rootOptions struct {
	verbose    bool
	debug      bool
	configPath string
	log        logging.Logger
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyOSEnv()
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := new(rootOptions)
	root := &cobra.Command{
		Use:   "obfsecrets",
		Short: "Generate source code that embeds XOR obfuscated secrets",
		Long: `obfsecrets generates source code embedding named secrets from a JSON file, so they don't appear in clear text in the source tree or compiled binary.
The secrets file must be a flat JSON object of string values. Comments and trailing commas are allowed.

SECURITY:
    This is not encryption, this is obfuscation, and they are very different things!
XOR screening is intended to hide embedded data from passive binary analysis only, since the key is stored right next to the screened data.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logging.Logger{
				Verbose: opts.verbose,
				Debug:   opts.debug,
				Out:     cmd.ErrOrStderr(),
			}
			opts.log.Debugf("Running %s with verbose=%t, debug=%t", cmd.Name(), opts.verbose, opts.debug)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output.")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug output.")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", fmt.Sprintf("Config file with generation defaults. Defaults to %s if present.", config.DefaultFile))

	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newRevealCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			internal.Echo(cmd.OutOrStdout(), "obfsecrets %s", version)
		},
	})
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		internal.Fatal(err)
	}
}
