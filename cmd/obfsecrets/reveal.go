package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saylorsolutions/obfsecrets/cmd/internal"
	"github.com/saylorsolutions/obfsecrets/internal/config"
	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

func newRevealCmd(root *rootOptions) *cobra.Command {
	var (
		check   bool
		sealKey string
	)
	cmd := &cobra.Command{
		Use:   "reveal BUNDLE [NAME...]",
		Short: "Decode secrets from a bundle written by generate --bundle",
		Long: `Decodes secrets from a bundle written by generate --bundle.
With NAME arguments, each named secret is printed on its own line.
Otherwise all secrets are printed as a JSON object, in the same format generate accepts.
Use --check to only verify that every secret decodes, without printing any values.
A sealed bundle requires the passphrase it was sealed with.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return fmt.Errorf("%w: %v", internal.ErrInvalidArguments, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.log
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", obfs.ErrInputUnreadable, err)
			}
			if obfs.IsSealed(data) {
				if !cmd.Flags().Changed("seal-key") {
					cfg, err := root.loadConfig()
					if err != nil {
						return err
					}
					if cfg.SealKey == nil {
						return fmt.Errorf("%w: %s is sealed, a seal key is required", internal.ErrInvalidArguments, args[0])
					}
					sealKey = *cfg.SealKey
				}
				log.Debugf("Unsealing %s", args[0])
				data, err = obfs.Unseal(data, sealKey)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
			}
			enc := new(obfs.Encoded)
			if err := enc.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			log.Infof("Bundle contains %d secrets keyed with %s", len(enc.Secrets), enc.Hash)

			if names := args[1:]; len(names) > 0 {
				for _, name := range names {
					val, err := enc.Reveal(name)
					if err != nil {
						return err
					}
					if !check {
						internal.Echo(cmd.OutOrStdout(), "%s", val)
					}
				}
				return nil
			}

			secrets, err := enc.RevealAll()
			if err != nil {
				return err
			}
			if check {
				internal.Echo(cmd.OutOrStdout(), "%d secrets verified", len(secrets))
				return nil
			}
			out, err := json.MarshalIndent(secrets, "", "  ")
			if err != nil {
				return err
			}
			internal.Echo(cmd.OutOrStdout(), "%s", out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Only verify that secrets decode, without printing them.")
	cmd.Flags().StringVar(&sealKey, "seal-key", "", fmt.Sprintf("Passphrase the bundle was sealed with. May also be set with %s.", config.SealKeyEnv))
	return cmd
}
