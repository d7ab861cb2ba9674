package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/litequery/internal/store"
)

// Config is the resolved CLI configuration.
//
// Sources, highest priority first: command-line flags, LITEQUERY_*
// environment variables, a .env file in the working directory, a
// litequery.yaml file, defaults.
type Config struct {
	DB      string `mapstructure:"db"`
	Driver  string `mapstructure:"driver"`
	Schema  string `mapstructure:"schema"`
	Format  string `mapstructure:"format"`
	Verbose bool   `mapstructure:"verbose"`
}

const envPrefix = "LITEQUERY"

var configKeys = []string{"db", "driver", "schema", "format", "verbose"}

// LoadConfig resolves the configuration. Files are read through fs; flags
// that were set on the command line override every other source.
func LoadConfig(fs afero.Fs, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetConfigName("litequery")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "litequery"))
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("driver", store.DriverCGo)
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	dotenv, err := readDotenv(fs, ".env")
	if err != nil {
		return nil, err
	}
	if len(dotenv) > 0 {
		if err := v.MergeConfigMap(dotenv); err != nil {
			return nil, fmt.Errorf("merging .env: %w", err)
		}
	}

	if flags != nil {
		for _, key := range configKeys {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", key, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// readDotenv returns the LITEQUERY_* entries of a .env file as config keys.
// A missing file is not an error.
func readDotenv(fs afero.Fs, path string) (map[string]any, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make(map[string]any)
	for k, val := range env {
		key, ok := strings.CutPrefix(k, envPrefix+"_")
		if !ok {
			continue
		}
		out[strings.ToLower(key)] = val
	}
	return out, nil
}
