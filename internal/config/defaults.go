// Package config holds defaults shared by the CLI configuration and the
// commands, and locates the slnlint config file on disk.
package config

// Config file names, in lookup order.
const (
	ConfigFileName    = "slnlint.yaml"
	ConfigFileNameAlt = "slnlint.yml"
)

// Default configuration values.
const (
	DefaultStateFile    = ".slnlint/state.db"
	DefaultOutput       = "auto"
	DefaultGraphFile    = "dependency-graph.gv"
	DefaultHistoryLimit = 20
)

// DefaultSolutionExcludes are the glob patterns skipped when expanding
// solution patterns.
func DefaultSolutionExcludes() []string {
	return []string{"**/bin/*", "**/obj/*"}
}
