// Package config loads the slnlint CLI configuration.
//
// Values are layered, lowest priority first: built-in defaults, the
// slnlint.yaml file, SLNLINT_ environment variables and explicitly set
// command-line flags.
package config

import (
	"reflect"
	"strings"

	intconfig "github.com/leapstack-labs/slnlint/internal/config"
)

// Config holds all CLI configuration options. The desc tags feed the
// generated configuration reference.
type Config struct {
	Verbose      bool   `koanf:"verbose" desc:"Log at debug level"`
	OutputFormat string `koanf:"output" desc:"Output format: auto, text, markdown or json"`
	StatePath    string `koanf:"state_path" desc:"Run history database path"`
	NoHistory    bool   `koanf:"no_history" desc:"Do not record runs"`
	HistoryLimit int    `koanf:"history_limit" desc:"Number of runs history lists by default"`

	// ColourChart is the path of a colour configuration file.
	ColourChart string `koanf:"colours" desc:"Colour chart file (yaml, json or toml)"`
	// Exclude is a regular expression. Executables whose name matches are
	// not pulled into a lean solution.
	Exclude string `koanf:"exclude" desc:"Regex of executables kept out of lean solutions"`
	// SolutionExcludes are glob patterns skipped when expanding solution
	// and project patterns.
	SolutionExcludes []string `koanf:"solution_excludes" desc:"Globs skipped when expanding solution and project patterns, comma separated in the environment"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// Setting describes one configuration key. Flag is the name of the
// persistent flag setting the key, if the root command defines one.
type Setting struct {
	Key         string
	Env         string
	Flag        string
	Description string
}

// Settings lists the configuration keys in declaration order.
func Settings() []Setting {
	t := reflect.TypeFor[Config]()
	out := make([]Setting, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		key := f.Tag.Get("koanf")
		if key == "" || key == "-" {
			continue
		}
		out = append(out, Setting{
			Key:         key,
			Env:         envPrefix + strings.ToUpper(key),
			Flag:        flagName(key),
			Description: f.Tag.Get("desc"),
		})
	}
	return out
}

// Default configuration values.
const (
	DefaultStateFile = intconfig.DefaultStateFile
	DefaultOutput    = intconfig.DefaultOutput // Auto-detect: TTY=text, non-TTY=markdown
)

// OutputModes lists the accepted values of the output setting.
var OutputModes = []string{"auto", "text", "markdown", "json"}

func flagName(key string) string {
	for flag, k := range flagKeys {
		if k == key {
			return flag
		}
	}
	return strings.ReplaceAll(key, "_", "-")
}
