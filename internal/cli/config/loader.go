package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/slnlint/internal/config"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

const (
	envPrefix = "SLNLINT_"

	// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
	maxUpwardSearchLevels = 10
)

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"state":      "state_path",
	"no-history": "no_history",
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Without an explicit cfgFile, slnlint.yaml is searched for upward from the
// working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	projectRoot := cwd

	if cfgFile == "" {
		if root := intconfig.FindProjectRoot(cwd, maxUpwardSearchLevels); root != "" {
			projectRoot = root
			cfgFile = intconfig.FindConfigFile(root)
		}
	} else if abs, err := filepath.Abs(cfgFile); err == nil {
		projectRoot = filepath.Dir(abs)
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"verbose":           false,
		"output":            DefaultOutput,
		"state_path":        DefaultStateFile,
		"no_history":        false,
		"history_limit":     intconfig.DefaultHistoryLimit,
		"solution_excludes": intconfig.DefaultSolutionExcludes(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: SLNLINT_STATE_PATH -> state_path
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	var flagState string
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
		if flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" && v != ":memory:" {
				flagState, _ = filepath.Abs(v)
			}
		}
	}

	// 5. Unmarshal; comma separated env values fill list fields.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Paths from flags are relative to the working directory, the rest
	// to the project root.
	cfg.ProjectRoot = projectRoot
	if flagState != "" {
		cfg.StatePath = flagState
	} else {
		cfg.StatePath = intconfig.ResolvePath(cfg.StatePath, projectRoot)
	}
	if cfg.ColourChart != "" && !(flags != nil && flags.Changed("colours")) {
		cfg.ColourChart = intconfig.ResolvePath(cfg.ColourChart, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// WithLogger returns ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
