package project

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Path is a canonical project file path. Two Paths are equal exactly when
// they name the same file, so Path can be used as a map key.
type Path struct {
	p string
}

// NewPath canonicalises p. Relative paths are resolved against the working
// directory and Windows separators are accepted on every platform.
func NewPath(p string) Path {
	if p == "" {
		return Path{}
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if !filepath.IsAbs(p) && !strings.HasPrefix(p, "/") {
		if abs, err := filepath.Abs(p); err == nil {
			p = filepath.ToSlash(abs)
		}
	}
	return Path{p: norm.NFC.String(path.Clean(p))}
}

// String returns the canonical form.
func (p Path) String() string { return p.p }

// IsZero reports whether p is empty.
func (p Path) IsZero() bool { return p.p == "" }

// OS returns the path in the host's separator convention.
func (p Path) OS() string { return filepath.FromSlash(p.p) }

// Base returns the file name including its extension.
func (p Path) Base() string { return path.Base(p.p) }

// Name returns the file name without its extension, which is also the
// project's name.
func (p Path) Name() string {
	base := path.Base(p.p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Dir returns the containing directory.
func (p Path) Dir() string { return path.Dir(p.p) }

// Resolve interprets rel relative to the directory containing p.
func (p Path) Resolve(rel string) Path {
	rel = strings.ReplaceAll(rel, `\`, "/")
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return NewPath(rel)
	}
	return NewPath(path.Join(p.Dir(), rel))
}

// RelativeTo returns p relative to dir, falling back to the absolute form.
func (p Path) RelativeTo(dir string) string {
	rel, err := filepath.Rel(filepath.FromSlash(dir), p.OS())
	if err != nil {
		return p.p
	}
	return filepath.ToSlash(rel)
}

// ComparePaths orders paths lexically.
func ComparePaths(a, b Path) int {
	return strings.Compare(a.p, b.p)
}
