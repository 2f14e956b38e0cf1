package project

import (
	"log/slog"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"
)

// TestFinder locates the test projects of a project on disk by directory
// convention. Results are memoized per project.
type TestFinder struct {
	logger *slog.Logger
	found  map[Path][]Path
}

// NewTestFinder creates a finder.
func NewTestFinder(logger *slog.Logger) *TestFinder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TestFinder{logger: logger, found: make(map[Path][]Path)}
}

// TestProjects returns the project files named <name>*Test*.?sproj found in
//
//  1. a Test or Tests subdirectory of the project's directory,
//  2. <name>*Test* directories under that Test or Tests subdirectory,
//  3. <dir>.*Test sibling directories of the project's directory,
//  4. the mirror of the project's location under a test or tests directory
//     next to the closest enclosing src directory.
func (f *TestFinder) TestProjects(p Path) []Path {
	if cached, ok := f.found[p]; ok {
		return cached
	}

	name := p.Name()
	projDir := p.Dir()
	quoted := regexp.QuoteMeta(name)

	var candidates []Path
	candidates = append(candidates, f.search(name, projDir, `.*test.?`)...)
	candidates = append(candidates, f.search(name, path.Join(projDir, "Test"), quoted+`.*test.*`)...)
	candidates = append(candidates, f.search(name, path.Join(projDir, "Tests"), quoted+`.*test.*`)...)

	if parent := path.Dir(projDir); parent != projDir {
		candidates = append(candidates, f.search(name, parent, regexp.QuoteMeta(path.Base(projDir))+`\..*test.?`)...)

		if idx := strings.LastIndex(parent, "/src"); idx != -1 && (idx+4 == len(parent) || parent[idx+4] == '/') {
			root := parent[:idx]
			rel := strings.TrimPrefix(parent[idx+4:], "/")
			for _, dir := range subdirs(root, matcher(`test.?`)) {
				candidates = append(candidates, f.search(name, path.Join(dir, rel), quoted+`\..*test.?`)...)
			}
		}
	}

	slices.SortFunc(candidates, ComparePaths)
	candidates = slices.Compact(candidates)
	f.found[p] = candidates
	return candidates
}

// search returns the test project files of name inside the subdirectories of
// base whose names match dirPattern.
func (f *TestFinder) search(name, base, dirPattern string) []Path {
	dirs := subdirs(base, matcher(dirPattern))
	if len(dirs) == 0 {
		return nil
	}
	f.logger.Debug("searching for test projects", "project", name, "directory", base, "pattern", dirPattern)

	file := matcher(regexp.QuoteMeta(name) + `.*test.*\..?sproj`)
	var out []Path
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && file.MatchString(e.Name()) {
				out = append(out, NewPath(path.Join(dir, e.Name())))
			}
		}
	}
	return out
}

// matcher compiles a case-insensitive pattern matching whole names.
func matcher(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + pattern + `$`)
}

func subdirs(base string, re *regexp.Regexp) []string {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && re.MatchString(e.Name()) {
			out = append(out, path.Join(base, e.Name()))
		}
	}
	return out
}
