// Package solution reads Visual Studio solution files and finds them on disk.
package solution

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/leapstack-labs/slnlint/internal/project"
)

// solutionFolderType is the project type GUID of virtual solution folders.
const solutionFolderType = "2150E333-8FDC-42A3-9474-1A3956D46DE8"

// IgnoreProperty marks a solution that should be skipped when set to true in
// its ExtendedSolutionProperties section.
const IgnoreProperty = "SolutionValidatorIgnored"

var (
	projectLine  = regexp.MustCompile(`^Project\("\{([^}]+)\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"\{([^}]+)\}"`)
	sectionStart = regexp.MustCompile(`^GlobalSection\(([^)]+)\)`)
)

// Project is one MSBuild project listed in a solution.
type Project struct {
	Name     string
	Path     project.Path
	TypeGUID string
	GUID     string
}

// Solution is a parsed solution file.
type Solution struct {
	// Path is the absolute path of the .sln file.
	Path string
	// Name is the file name without extension.
	Name     string
	Projects []Project
	// Properties holds the ExtendedSolutionProperties section.
	Properties map[string]string
}

// Read parses the solution file at path.
func Read(path string) (*Solution, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("opening solution: %w", err)
	}
	defer f.Close()

	sln, err := Parse(f, abs)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", abs, err)
	}
	return sln, nil
}

// Parse reads solution content. Project paths are resolved against the
// directory of path.
func Parse(r io.Reader, path string) (*Solution, error) {
	base := filepath.Base(path)
	sln := &Solution{
		Path:       path,
		Name:       strings.TrimSuffix(base, filepath.Ext(base)),
		Properties: make(map[string]string),
	}
	slnPath := project.NewPath(path)

	section := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case section != "":
			if line == "EndGlobalSection" {
				section = ""
				continue
			}
			if section == "ExtendedSolutionProperties" {
				if k, v, ok := strings.Cut(line, "="); ok {
					sln.Properties[strings.TrimSpace(k)] = strings.TrimSpace(v)
				}
			}
		case sectionStart.MatchString(line):
			section = sectionStart.FindStringSubmatch(line)[1]
		default:
			m := projectLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			typeGUID, name, rel, guid := strings.ToUpper(m[1]), m[2], m[3], m[4]
			if typeGUID == solutionFolderType || !isProjectFile(rel) {
				continue
			}
			sln.Projects = append(sln.Projects, Project{
				Name:     name,
				Path:     slnPath.Resolve(rel),
				TypeGUID: typeGUID,
				GUID:     guid,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sln, nil
}

func isProjectFile(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), "proj")
}

// ProjectPaths returns the paths of every listed project.
func (s *Solution) ProjectPaths() []project.Path {
	out := make([]project.Path, len(s.Projects))
	for i, p := range s.Projects {
		out[i] = p.Path
	}
	return out
}

// Contains reports whether the solution lists p.
func (s *Solution) Contains(p project.Path) bool {
	return slices.ContainsFunc(s.Projects, func(sp Project) bool { return sp.Path == p })
}

// Ignored reports whether the solution opted out of validation.
func (s *Solution) Ignored() bool {
	return strings.EqualFold(s.Properties[IgnoreProperty], "true")
}

func (s *Solution) String() string { return s.Path }
