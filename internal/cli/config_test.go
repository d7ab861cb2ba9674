package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configFs returns a filesystem with litequery.yaml in the working
// directory, where the config search looks first.
func configFs(t *testing.T, yaml string) afero.Fs {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	fs := afero.NewMemMapFs()
	if yaml != "" {
		writeFile(t, fs, filepath.Join(wd, "litequery.yaml"), yaml)
	}
	return fs
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	flags.String("format", "text", "")
	flags.String("db", "", "")
	flags.String("driver", "sqlite3", "")
	flags.String("schema", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(configFs(t, ""), testFlags())
	require.NoError(t, err)
	assert.Equal(t, &Config{Driver: "sqlite3", Format: "text"}, cfg)
}

func TestLoadConfig_Layers(t *testing.T) {
	const file = "db: file.db\nschema: file.cue\nformat: json\n"

	tests := []struct {
		name   string
		dotenv string
		env    map[string]string
		args   []string
		want   Config
	}{
		{
			name: "config file",
			want: Config{DB: "file.db", Schema: "file.cue", Driver: "sqlite3", Format: "json"},
		},
		{
			name:   "dotenv over config file",
			dotenv: "LITEQUERY_DB=dotenv.db\nLITEQUERY_VERBOSE=true\nOTHER=ignored\n",
			want:   Config{DB: "dotenv.db", Schema: "file.cue", Driver: "sqlite3", Format: "json", Verbose: true},
		},
		{
			name:   "environment over dotenv",
			dotenv: "LITEQUERY_DB=dotenv.db\n",
			env:    map[string]string{"LITEQUERY_DB": "env.db", "LITEQUERY_DRIVER": "sqlite"},
			want:   Config{DB: "env.db", Schema: "file.cue", Driver: "sqlite", Format: "json"},
		},
		{
			name: "flags over environment",
			env:  map[string]string{"LITEQUERY_DB": "env.db"},
			args: []string{"--db", "flag.db", "--format", "text"},
			want: Config{DB: "flag.db", Schema: "file.cue", Driver: "sqlite3", Format: "text"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := configFs(t, file)
			if tt.dotenv != "" {
				writeFile(t, fs, ".env", tt.dotenv)
			}
			flags := testFlags()
			require.NoError(t, flags.Parse(tt.args))

			cfg, err := LoadConfig(fs, flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(configFs(t, "db: [\n"), testFlags())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}
