// Package config loads default generation settings from a TOML file.
//
// A config file is optional. When no path is given, DefaultFile is read from the
// working directory if it exists. Command line flags take precedence over the file,
// and the KeyEnv environment variable takes precedence over the file's key.
//
//	package = "secrets"
//	lang    = "go"
//	hash    = "sha256"
//	exposed = true
//	key     = "build passphrase"
//
// The seal_key setting, or the SealKeyEnv environment variable, seals bundles written with --bundle.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

const (
	DefaultFile = ".obfsecrets.toml"
	KeyEnv      = "OBFSECRETS_KEY"
	SealKeyEnv  = "OBFSECRETS_SEAL_KEY"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	Package string  `toml:"package"`
	Lang    string  `toml:"lang"`
	Hash    string  `toml:"hash"`
	Exposed bool    `toml:"exposed"`
	Key     *string `toml:"key"`
	SealKey *string `toml:"seal_key"`
}

// Load reads the config file at path.
// If path is empty then DefaultFile is used, and a missing DefaultFile results in an empty Config.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	explicit := len(path) > 0
	if !explicit {
		path = DefaultFile
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return new(Config), nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if _, err := obfs.ParseHash(cfg.Hash); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the key and seal key with the values of KeyEnv and SealKeyEnv, if they're set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if key, ok := lookup(KeyEnv); ok {
		c.Key = &key
	}
	if key, ok := lookup(SealKeyEnv); ok {
		c.SealKey = &key
	}
}

// ApplyOSEnv calls ApplyEnv with the process environment.
func (c *Config) ApplyOSEnv() {
	c.ApplyEnv(os.LookupEnv)
}
