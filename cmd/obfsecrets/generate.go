package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/saylorsolutions/obfsecrets/cmd/internal"
	"github.com/saylorsolutions/obfsecrets/cmd/obfsecrets/internal/gen"
	"github.com/saylorsolutions/obfsecrets/internal/config"
	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

type generateOptions struct {
	key      string
	lang     string
	hash     string
	pkg      string
	exposed  bool
	bundle   string
	sealKey  string
	sealCost uint8
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := new(generateOptions)
	cmd := &cobra.Command{
		Use:   "generate FILE [OUTPUT]",
		Short: "Generate source code embedding the secrets in FILE",
		Long: `Generates source code embedding the secrets in FILE, which may be - to read from stdin.
The generated type is named after OUTPUT, replacing characters that match the regex pattern [^a-zA-Z0-9_] with "_".
For example, an OUTPUT of app-secrets.go results in a type called app_secrets, or App_secrets with --exposed.
Without OUTPUT, the source is written to stdout and the type is called SData.

If no key is given with --key, the config file, or the OBFSECRETS_KEY environment variable, a random one is used.`,
		Example: `  obfsecrets generate secrets.json > sdata.go
  obfsecrets generate secrets.json internal/secrets/secrets.go -k "$BUILD_KEY"
  obfsecrets generate --lang swift secrets.json SData.swift`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
				return fmt.Errorf("%w: %v", internal.ErrInvalidArguments, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			return runGenerate(cmd, root, resolveGenerateOptions(cmd.Flags(), opts, cfg), args)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.key, "key", "k", "", "Passphrase used to derive the key that secrets are screened with.")
	flags.StringVarP(&opts.lang, "lang", "l", string(gen.LangGo), fmt.Sprintf("Language of the generated source, either '%s' or '%s'.", gen.LangGo, gen.LangSwift))
	flags.StringVar(&opts.hash, "hash", obfs.SHA256.String(), "Hash used to derive the key from the passphrase, one of sha256, sha3-256, blake2b-256, or blake3.")
	flags.StringVarP(&opts.pkg, "package", "p", "", "Package name of the generated Go file. Defaults to the name of the output directory.")
	flags.BoolVarP(&opts.exposed, "exposed", "E", false, "Make the generated type exposed from its package. It's recommended to only expose from within an internal package.")
	flags.StringVarP(&opts.bundle, "bundle", "b", "", "Also write a binary bundle of the encoded secrets, which can be checked with the reveal command.")
	flags.StringVar(&opts.sealKey, "seal-key", "", fmt.Sprintf("Seal the bundle with AES-256-GCM using this passphrase. May also be set with %s.", config.SealKeyEnv))
	flags.Uint8Var(&opts.sealCost, "seal-cost", 17, "Seal key derivation cost, as a power of 2 of scrypt iterations.")
	return cmd
}

// resolvedGenerate is the effective set of generation settings after config and flags are merged.
type resolvedGenerate struct {
	generateOptions
	keySet  bool
	sealSet bool
}

// resolveGenerateOptions gives flags that were explicitly set precedence over the config file.
func resolveGenerateOptions(flags *flag.FlagSet, opts *generateOptions, cfg *config.Config) resolvedGenerate {
	res := resolvedGenerate{generateOptions: *opts}
	if !flags.Changed("lang") && len(cfg.Lang) > 0 {
		res.lang = cfg.Lang
	}
	if !flags.Changed("hash") && len(cfg.Hash) > 0 {
		res.hash = cfg.Hash
	}
	if !flags.Changed("package") {
		res.pkg = cfg.Package
	}
	if !flags.Changed("exposed") {
		res.exposed = cfg.Exposed
	}
	res.keySet = flags.Changed("key")
	if !res.keySet && cfg.Key != nil {
		res.key = *cfg.Key
		res.keySet = true
	}
	res.sealSet = flags.Changed("seal-key")
	if !res.sealSet && cfg.SealKey != nil {
		res.sealKey = *cfg.SealKey
		res.sealSet = true
	}
	return res
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts resolvedGenerate, args []string) error {
	log := root.log
	lang, err := gen.ParseLang(opts.lang)
	if err != nil {
		return fmt.Errorf("%w: %v", internal.ErrInvalidArguments, err)
	}
	hash, err := obfs.ParseHash(opts.hash)
	if err != nil {
		return err
	}

	input := args[0]
	var secrets obfs.SecretSet
	if input == "-" {
		log.Debugf("Reading secrets from stdin")
		secrets, err = obfs.LoadSecretSet(cmd.InOrStdin())
	} else {
		log.Debugf("Reading secrets from %s", input)
		secrets, err = obfs.ReadSecretSet(input)
	}
	if err != nil {
		return err
	}

	params := []gen.ParamOpt{
		gen.UseLang(lang),
		gen.UseHash(hash),
		gen.PackageName(opts.pkg),
		gen.ExposeType(opts.exposed),
	}
	if opts.keySet {
		params = append(params, gen.UsePassphrase(opts.key))
	} else {
		log.Infof("No key given, using a random passphrase")
	}
	var output string
	if len(args) > 1 {
		output = args[1]
		params = append(params, gen.OutputFile(output))
	}

	res, err := gen.Render(secrets, params...)
	if err != nil {
		return err
	}
	log.Infof("Encoded %d secrets (%d bytes) with %s as %s", len(res.Encoded.Secrets), len(res.Encoded.Blob), hash, res.Params.TypeName)
	for _, s := range res.Encoded.Secrets {
		log.Debugf("%s: [%d, %d) %s", s.Name, s.Offset, s.Upper(), s.Token())
	}

	// The bundle is prepared up front and written last, so a failed run leaves no bundle behind.
	var bundle []byte
	switch {
	case len(opts.bundle) > 0 && opts.sealSet:
		bundle, err = res.SealedBundle(opts.sealKey, obfs.SealIterations(1<<opts.sealCost))
	case len(opts.bundle) > 0:
		bundle, err = res.Encoded.MarshalBinary()
	case opts.sealSet:
		log.Warnf("A seal key was given without --bundle, nothing will be sealed")
	}
	if err != nil {
		return err
	}

	if len(output) == 0 {
		if _, err := cmd.OutOrStdout().Write(res.Source); err != nil {
			return fmt.Errorf("%w: %v", obfs.ErrOutputUnwritable, err)
		}
	} else if err := res.WriteSource(output); err != nil {
		return err
	}

	if len(opts.bundle) > 0 {
		if err := gen.WriteFile(opts.bundle, bundle); err != nil {
			if len(output) > 0 {
				_ = os.Remove(output)
			}
			return err
		}
		if opts.sealSet {
			log.Infof("Wrote sealed bundle to %s", opts.bundle)
		} else {
			log.Warnf("Bundle %s is not sealed, anyone who can read it can reveal the secrets", opts.bundle)
		}
	}
	if len(output) > 0 {
		internal.Echo(cmd.OutOrStdout(), "%s", color.GreenString("%s successfully generated.", filepath.Base(output)))
	}
	return nil
}
