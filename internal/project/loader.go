package project

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// slowLoad is the load time above which a warning is logged.
const slowLoad = 500 * time.Millisecond

// Loader is the project metadata provider. It memoizes by canonical path so
// every graph built from one loader shares the same Details values. A Loader
// is not safe for concurrent use.
type Loader struct {
	store    Store
	logger   *slog.Logger
	ids      Counter
	projects map[Path]*Details
}

// NewLoader creates a loader reading through store.
func NewLoader(store Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		store:    store,
		logger:   logger,
		projects: make(map[Path]*Details),
	}
}

// TryGetProject returns the project at p. Projects that are missing or fail
// to load are memoized as invalid Details and reported with ok=false.
func (l *Loader) TryGetProject(p Path) (*Details, bool) {
	if d, ok := l.projects[p]; ok {
		return d, d.Valid
	}

	id := l.ids.Next()
	start := time.Now()

	md, err := l.store.Read(p)
	if err != nil {
		l.logger.Warn("unable to load project", "path", p.String(), "error", err)
		d := InvalidDetails(id, p)
		l.projects[p] = d
		return d, false
	}

	d, err := NewDetails(id, p, md, l.store, l.logger)
	if err != nil {
		l.logger.Error("error loading project file", "path", p.String(), "error", err)
		d = InvalidDetails(id, p)
		l.projects[p] = d
		return d, false
	}

	if elapsed := time.Since(start); elapsed > slowLoad {
		l.logger.Warn("project loading was slow", "path", p.String(), "duration", elapsed)
	}
	l.logger.Debug("loaded project", "path", p.String(), "id", int(id))

	l.projects[p] = d
	return d, d.Valid
}

// GetProjects loads every path, failing on the first one that cannot be loaded.
func (l *Loader) GetProjects(paths []Path) ([]*Details, error) {
	out := make([]*Details, 0, len(paths))
	for _, p := range paths {
		d, ok := l.TryGetProject(p)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		out = append(out, d)
	}
	return out, nil
}

// TopLevelNonTestProjects returns the projects among paths that nothing else
// in paths references, excluding test projects. Executables are always kept.
// A test project's reference to its project under test does not count.
func (l *Loader) TopLevelNonTestProjects(paths []Path) []*Details {
	referenced := make(map[Path]bool)
	var projects []*Details

	for _, p := range paths {
		d, _ := l.TryGetProject(p)
		projects = append(projects, d)

		put, hasPUT := d.ProjectUnderTest()
		for _, ref := range d.References {
			if hasPUT && ref == put {
				continue
			}
			referenced[ref] = true
		}
	}

	return slices.DeleteFunc(projects, func(d *Details) bool {
		return d.IsTestProject() || (referenced[d.Path] && !d.IsExecutable())
	})
}

// Projects returns every project loaded so far ordered by ID.
func (l *Loader) Projects() []*Details {
	out := make([]*Details, 0, len(l.projects))
	for _, d := range l.projects {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *Details) int { return int(a.ID) - int(b.ID) })
	return out
}
