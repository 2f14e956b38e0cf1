package config

import (
	"os"
	"path/filepath"
)

// FindConfigFile returns the config file in dir, or "" when there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file. It returns "" when none is found within maxLevels.
func FindProjectRoot(startDir string, maxLevels int) string {
	dir := startDir
	for range maxLevels {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}

// ResolvePath joins path onto baseDir unless it is empty, absolute or the
// in-memory database name.
func ResolvePath(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
