package fix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/testutil"
)

func pathOf(name string) project.Path {
	return project.NewPath("/repo/" + name + "/" + name + ".csproj")
}

func put(store *project.MemoryStore, name, frameworks string, refs ...string) project.Path {
	md := project.Metadata{Properties: map[string]string{project.PropTargetFrameworks: frameworks}}
	for _, r := range refs {
		md.References = append(md.References, project.Reference{Include: "../" + r + "/" + r + ".csproj"})
	}
	p := pathOf(name)
	store.Put(p, md)
	return p
}

func newFixer(t *testing.T, store project.Store) (*FrameworkFixer, *project.Loader) {
	logger := testutil.NewTestLogger(t)
	loader := project.NewLoader(store, logger)
	return NewFrameworkFixer(loader, graph.NewTargetBuilder(loader, logger), logger), loader
}

func frameworksOf(t *testing.T, loader *project.Loader, p project.Path) string {
	t.Helper()
	d, ok := loader.TryGetProject(p)
	require.True(t, ok)
	return framework.Join(d.TargetFrameworks())
}

func TestFix_UpgradesToReferencedFramework(t *testing.T) {
	store := project.NewMemoryStore()
	app := put(store, "App", "net6.0", "Lib")
	lib := put(store, "Lib", "net7.0")

	fixer, loader := newFixer(t, store)
	report, err := fixer.Fix([]project.Path{app, lib})
	require.NoError(t, err)

	assert.Empty(t, report.Skipped)
	assert.Equal(t, []Change{
		{Project: app.String(), Action: ActionAddFramework, Value: "net7.0"},
		{Project: app.String(), Action: ActionRemoveFramework, Value: "net6.0"},
	}, report.Changes)
	assert.Equal(t, "net7.0", frameworksOf(t, loader, app))
	assert.Equal(t, "net7.0", frameworksOf(t, loader, lib))

	md, err := store.Read(app)
	require.NoError(t, err)
	assert.Equal(t, "net7.0", md.Properties[project.PropTargetFramework])

	again, err := fixer.Fix([]project.Path{app, lib})
	require.NoError(t, err)
	assert.Empty(t, again.Changes, "fixing is idempotent")
}

func TestFix_AddsMissingTestFrameworks(t *testing.T) {
	store := project.NewMemoryStore()
	app := put(store, "App", "net472", "Lib")
	lib := put(store, "Lib", "net472;net6.0")
	tests := put(store, "Lib.Tests", "net6.0", "Lib")

	fixer, loader := newFixer(t, store)
	report, err := fixer.Fix([]project.Path{app, lib, tests})
	require.NoError(t, err)

	assert.Equal(t, []Change{
		{Project: tests.String(), Action: ActionAddFramework, Value: "net472"},
	}, report.Changes)
	assert.Equal(t, "net472;net6.0", frameworksOf(t, loader, tests))
}

func TestFix_SkipsInvalidProjects(t *testing.T) {
	store := project.NewMemoryStore()
	app := put(store, "App", "net6.0", "Missing")

	fixer, loader := newFixer(t, store)
	report, err := fixer.Fix([]project.Path{app})
	require.NoError(t, err)

	assert.Empty(t, report.Changes)
	assert.Equal(t, []string{"fix-frameworks", "add-test-frameworks"}, report.Skipped)
	assert.Equal(t, "net6.0", frameworksOf(t, loader, app))
}

func TestFix_DryRunLeavesStoreUntouched(t *testing.T) {
	store := project.NewMemoryStore()
	app := put(store, "App", "net6.0", "Lib")
	lib := put(store, "Lib", "net7.0")

	fixer, _ := newFixer(t, project.ReadOnly(store, nil))
	report, err := fixer.Fix([]project.Path{app, lib})
	require.NoError(t, err)
	assert.NotEmpty(t, report.Changes)

	md, err := store.Read(app)
	require.NoError(t, err)
	assert.Equal(t, "net6.0", md.Properties[project.PropTargetFrameworks])
}

func TestTrimReferences(t *testing.T) {
	store := project.NewMemoryStore()
	a := put(store, "A", "net6.0", "B", "C")
	put(store, "B", "net6.0", "C")
	c := put(store, "C", "net6.0")

	logger := testutil.NewTestLogger(t)
	loader := project.NewLoader(store, logger)
	g := graph.NewBuilder(loader, logger).GenerateGraph(a)

	changes, err := TrimReferences(g, logger)
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Project: a.String(), Action: ActionRemoveReference, Value: c.String()},
	}, changes)

	md, err := store.Read(a)
	require.NoError(t, err)
	require.Len(t, md.References, 1)
	assert.Equal(t, "../B/B.csproj", md.References[0].Include)
}

func TestTrimReferences_NothingRedundant(t *testing.T) {
	store := project.NewMemoryStore()
	a := put(store, "A", "net6.0", "B")
	put(store, "B", "net6.0")

	loader := project.NewLoader(store, nil)
	g := graph.NewBuilder(loader, nil).GenerateGraph(a)

	changes, err := TrimReferences(g, nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestTrimReferences_InvalidGraph(t *testing.T) {
	store := project.NewMemoryStore()
	a := put(store, "A", "net6.0", "Missing")

	loader := project.NewLoader(store, nil)
	g := graph.NewBuilder(loader, nil).GenerateGraph(a)

	_, err := TrimReferences(g, nil)
	assert.True(t, errors.Is(err, ErrInvalidGraph))
}
