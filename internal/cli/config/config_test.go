package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slnlint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "state database")
	flags.StringP("output", "o", "", "output format")
	flags.String("colours", "", "colour chart")
	flags.String("exclude", "", "exclude pattern")
	flags.Bool("no-history", false, "skip history")
	flags.BoolP("verbose", "v", false, "verbose")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(filepath.Dir(path), DefaultStateFile), cfg.StatePath)
	assert.Equal(t, []string{"**/bin/*", "**/obj/*"}, cfg.SolutionExcludes)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.False(t, cfg.Verbose)
	assert.Nil(t, cfg.ExcludePattern())
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `output: json
colours: colours.yaml
exclude: "^Tools\\."
solution_excludes:
  - "legacy/*"
history_limit: 5
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "colours.yaml"), cfg.ColourChart)
	assert.Equal(t, []string{"legacy/*"}, cfg.SolutionExcludes)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.True(t, cfg.ExcludePattern().MatchString("Tools.Migrator"))
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "output: json\n")
	t.Setenv("SLNLINT_OUTPUT", "markdown")
	t.Setenv("SLNLINT_SOLUTION_EXCLUDES", "a/*,b/*")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, []string{"a/*", "b/*"}, cfg.SolutionExcludes, "comma separated env values fill lists")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "output: json\n")
	t.Setenv("SLNLINT_OUTPUT", "markdown")

	flags := testFlags()
	require.NoError(t, flags.Set("output", "text"))
	require.NoError(t, flags.Set("no-history", "true"))
	require.NoError(t, flags.Set("state", "history.db"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.OutputFormat)
	assert.True(t, cfg.NoHistory)
	assert.Equal(t, filepath.Join(cwd, "history.db"), cfg.StatePath, "flag paths are relative to the working directory")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "")
	t.Setenv("SLNLINT_OUTPUT", "markdown")

	cfg, err := LoadConfig(path, testFlags())
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		errSubstr string
	}{
		{name: "valid", cfg: Config{OutputFormat: "auto"}},
		{name: "bad output", cfg: Config{OutputFormat: "xml"}, errSubstr: "invalid output format"},
		{name: "bad exclude", cfg: Config{OutputFormat: "text", Exclude: "("}, errSubstr: "invalid exclude pattern"},
		{name: "empty solution exclude", cfg: Config{OutputFormat: "text", SolutionExcludes: []string{" "}}, errSubstr: "empty pattern"},
		{name: "negative history", cfg: Config{OutputFormat: "text", HistoryLimit: -1}, errSubstr: "history_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestSettings(t *testing.T) {
	settings := Settings()

	keys := make([]string, 0, len(settings))
	for _, s := range settings {
		keys = append(keys, s.Key)
		assert.NotEmpty(t, s.Description, "setting %s should be described", s.Key)
		assert.Equal(t, envPrefix+strings.ToUpper(s.Key), s.Env)
	}
	assert.Equal(t, []string{
		"verbose", "output", "state_path", "no_history", "history_limit", "colours", "exclude", "solution_excludes",
	}, keys)
	assert.NotContains(t, keys, "-")

	flags := make(map[string]string)
	for _, s := range settings {
		flags[s.Key] = s.Flag
	}
	assert.Equal(t, "state", flags["state_path"])
	assert.Equal(t, "no-history", flags["no_history"])
	assert.Equal(t, "output", flags["output"])
	assert.Equal(t, "solution-excludes", flags["solution_excludes"])
}
