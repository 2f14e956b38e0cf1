package project

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/leapstack-labs/slnlint/internal/framework"
)

// ErrNotFound is returned by a Store when no project exists at a path.
var ErrNotFound = errors.New("project file not found")

// Store reads project metadata and persists the few edits the fixers make.
type Store interface {
	Read(p Path) (Metadata, error)
	WriteTargetFrameworks(p Path, frameworks []framework.TargetFramework) error
	RemoveReferences(p Path, includes []string) error
}

// MemoryStore keeps project metadata in memory.
type MemoryStore struct {
	projects map[Path]Metadata
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[Path]Metadata)}
}

// Put adds or replaces a project.
func (s *MemoryStore) Put(p Path, md Metadata) {
	if md.Properties == nil {
		md.Properties = map[string]string{}
	}
	s.projects[p] = md
}

// Read implements Store.
func (s *MemoryStore) Read(p Path) (Metadata, error) {
	md, ok := s.projects[p]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return Metadata{Properties: maps.Clone(md.Properties), References: slices.Clone(md.References)}, nil
}

// WriteTargetFrameworks implements Store.
func (s *MemoryStore) WriteTargetFrameworks(p Path, frameworks []framework.TargetFramework) error {
	md, ok := s.projects[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	props := maps.Clone(md.Properties)
	delete(props, PropTargetFramework)
	delete(props, PropTargetFrameworks)
	if len(frameworks) == 1 {
		props[PropTargetFramework] = frameworks[0].String()
	} else {
		props[PropTargetFrameworks] = framework.Join(frameworks)
	}
	md.Properties = props
	s.projects[p] = md
	return nil
}

// RemoveReferences implements Store.
func (s *MemoryStore) RemoveReferences(p Path, includes []string) error {
	md, ok := s.projects[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	md.References = slices.DeleteFunc(slices.Clone(md.References), func(r Reference) bool {
		return slices.Contains(includes, r.Include)
	})
	s.projects[p] = md
	return nil
}

// readOnly wraps a Store and logs writes instead of applying them.
type readOnly struct {
	Store
	logger *slog.Logger
}

// ReadOnly returns a Store that reads through to s but never writes. Used
// for dry runs.
func ReadOnly(s Store, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return readOnly{Store: s, logger: logger}
}

func (r readOnly) WriteTargetFrameworks(p Path, frameworks []framework.TargetFramework) error {
	r.logger.Info("dry run: would set target frameworks", "project", p.String(), "frameworks", framework.Join(frameworks))
	return nil
}

func (r readOnly) RemoveReferences(p Path, includes []string) error {
	r.logger.Info("dry run: would remove project references", "project", p.String(), "references", includes)
	return nil
}
