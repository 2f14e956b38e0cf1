package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputModes, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of %s)", c.OutputFormat, strings.Join(OutputModes, ", "))
	}
	if c.Exclude != "" {
		if _, err := regexp.Compile(c.Exclude); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", c.Exclude, err)
		}
	}
	for _, p := range c.SolutionExcludes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("solution_excludes contains an empty pattern")
		}
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit)
	}
	return nil
}

// ExcludePattern compiles Exclude. It returns nil when no pattern is set.
func (c *Config) ExcludePattern() *regexp.Regexp {
	if c.Exclude == "" {
		return nil
	}
	return regexp.MustCompile(c.Exclude)
}
