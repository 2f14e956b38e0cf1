package solution

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// defaultExcludes keeps build output out of every search.
var defaultExcludes = []string{"**/bin/*", "**/obj/*"}

// Find expands patterns into absolute file paths. A pattern without glob
// characters names a file directly. Otherwise everything before the last
// separator ahead of the first glob character is the search root, and the
// rest, along with each exclude pattern, is matched case-insensitively
// against paths relative to that root. "**" matches any number of
// directories.
func Find(patterns, excludes []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("finding solutions", "patterns", patterns, "excludes", excludes)

	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		files, err := findOne(pattern, append(slices.Clone(defaultExcludes), excludes...))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}

	slices.Sort(out)
	logger.Info("found solutions", "count", len(out))
	return out, nil
}

func findOne(pattern string, excludes []string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	glob := strings.IndexAny(pattern, "?*[")
	if glob == -1 {
		abs, err := filepath.Abs(filepath.FromSlash(pattern))
		if err != nil {
			return nil, err
		}
		return []string{abs}, nil
	}

	root, include := ".", pattern
	if sep := strings.LastIndex(pattern[:glob], "/"); sep != -1 {
		root, include = pattern[:sep], pattern[sep+1:]
		if root == "" {
			root = "/"
		}
	}
	root, err := filepath.Abs(filepath.FromSlash(root))
	if err != nil {
		return nil, err
	}
	include = strings.TrimPrefix(include, "./")

	var out []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matchGlob(include, rel) || excluded(excludes, rel) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("search directory %s does not exist", root)
		}
		return nil, err
	}
	return out, nil
}

// excluded reports whether rel or any of its parent directories matches an
// exclude pattern.
func excluded(excludes []string, rel string) bool {
	for _, ex := range excludes {
		ex = strings.TrimPrefix(filepath.ToSlash(ex), "./")
		for candidate := rel; candidate != "." && candidate != ""; candidate = path.Dir(candidate) {
			if matchGlob(ex, candidate) {
				return true
			}
		}
	}
	return false
}

// matchGlob matches a slash separated path against a pattern where "**"
// spans zero or more segments and other segments follow path.Match.
func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(strings.ToLower(pattern), "/"), strings.Split(strings.ToLower(name), "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], name[0]); err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

// Load finds and reads solutions, dropping the ones marked as ignored.
func Load(patterns, excludes []string, logger *slog.Logger) ([]*Solution, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	paths, err := Find(patterns, excludes, logger)
	if err != nil {
		return nil, err
	}

	out := make([]*Solution, 0, len(paths))
	for _, p := range paths {
		sln, err := Read(p)
		if err != nil {
			return nil, err
		}
		if sln.Ignored() {
			logger.Warn("solution is marked as ignored and will be skipped", "solution", p, "property", IgnoreProperty)
			continue
		}
		out = append(out, sln)
	}
	return out, nil
}
