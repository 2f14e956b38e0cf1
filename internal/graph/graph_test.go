package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/slnlint/internal/colour"
	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/testutil"
)

// fixture is a tiny in-memory solution.
type fixture struct {
	store *project.MemoryStore
}

func newFixture() *fixture {
	return &fixture{store: project.NewMemoryStore()}
}

func projectPath(name string) project.Path {
	return project.NewPath("/repo/" + name + "/" + name + ".csproj")
}

// add registers a project. props is a flat key=value list.
func (f *fixture) add(name, frameworks string, refs []string, props ...string) project.Path {
	md := project.Metadata{Properties: map[string]string{project.PropTargetFrameworks: frameworks}}
	for i := 0; i+1 < len(props); i += 2 {
		md.Properties[props[i]] = props[i+1]
	}
	for _, r := range refs {
		md.References = append(md.References, project.Reference{Include: "../" + r + "/" + r + ".csproj"})
	}
	p := projectPath(name)
	f.store.Put(p, md)
	return p
}

func (f *fixture) loader(t *testing.T) *project.Loader {
	return project.NewLoader(f.store, testutil.NewTestLogger(t))
}

func nodeNames(nodes []*ProjectNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return out
}

func TestBuilder_Chain(t *testing.T) {
	f := newFixture()
	a := f.add("A", "net6.0", []string{"B"})
	f.add("B", "net6.0", []string{"C"})
	f.add("C", "net6.0", []string{"D"})
	f.add("D", "net6.0", nil)

	b := NewBuilder(f.loader(t), testutil.NewTestLogger(t))
	g := b.GenerateGraph(a)

	require.Equal(t, 4, g.Count())
	nodeA := b.GetNode(a)
	assert.Equal(t, 3, nodeA.Height())
	assert.Equal(t, 0, b.GetNode(projectPath("D")).Height())
	assert.Equal(t, []string{"B"}, nodeNames(nodeA.References()))
	assert.ElementsMatch(t, []string{"C", "D"}, nodeNames(nodeA.TransitiveReferences()))
	assert.False(t, g.HasInvalidNodes())
}

func TestBuilder_EmptyGraph(t *testing.T) {
	b := NewBuilder(newFixture().loader(t), nil)
	g := b.GenerateGraph()
	assert.Equal(t, 0, g.Count())
}

func TestBuilder_SharesNodes(t *testing.T) {
	f := newFixture()
	a := f.add("A", "net6.0", []string{"C"})
	bp := f.add("B", "net6.0", []string{"C"})
	f.add("C", "net6.0", nil)

	b := NewBuilder(f.loader(t), nil)
	g1 := b.GenerateGraph(a)
	g2 := b.GenerateGraph(bp)

	c1, ok := g1.TryGetNode(b.GetNode(projectPath("C")).ID())
	require.True(t, ok)
	c2, ok := g2.TryGetNode(c1.ID())
	require.True(t, ok)
	assert.Same(t, c1, c2)

	assert.Equal(t, 0, b.AddNode(projectPath("C"), g1), "already present")
	assert.Equal(t, 1, b.AddNode(bp, g1))
	assert.True(t, ContainsPath(g1, bp))
}

func TestBuilder_MissingReference(t *testing.T) {
	f := newFixture()
	a := f.add("A", "net6.0", []string{"Ghost"})

	b := NewBuilder(f.loader(t), testutil.NewTestLogger(t))
	g := b.GenerateGraph(a)

	assert.Equal(t, 2, g.Count())
	assert.ElementsMatch(t, []string{"A", "Ghost"}, nodeNames(g.InvalidNodes()))
}

func TestBuilder_Cycle(t *testing.T) {
	f := newFixture()
	a := f.add("A", "net6.0", []string{"B"})
	f.add("B", "net6.0", []string{"A"})

	b := NewBuilder(f.loader(t), testutil.NewTestLogger(t))
	g := b.GenerateGraph(a)

	assert.True(t, g.HasInvalidNodes())
}

func purpleChart(t *testing.T) *colour.Chart {
	t.Helper()
	chart := colour.NewChart(testutil.NewTestLogger(t))
	_, err := chart.AddColour("Red", "", nil)
	require.NoError(t, err)
	_, err = chart.AddColour("Blue", "", nil)
	require.NoError(t, err)
	_, err = chart.AddColour("Green", "", nil)
	require.NoError(t, err)
	_, err = chart.AddColour("Purple", "", []string{"Red", "Blue"})
	require.NoError(t, err)
	return chart
}

func TestMatchColours_Purple(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", []string{"Core"}, project.PropColour, "Purple")
	f.add("Core", "net6.0", nil, project.PropColour, "Blue")

	chart := purpleChart(t)
	g := NewBuilder(f.loader(t), nil).GenerateGraph(app)

	invalid, colours, err := MatchColours(g, chart, false, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Empty(t, invalid)

	purple, _ := chart.ByName("Purple")
	appNode, ok := g.TryGetNode(0)
	require.True(t, ok)
	assert.Equal(t, purple, colours[appNode.ID()])
}

func TestMatchColours_UnregisteredCombination(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", []string{"Data"}, project.PropColour, "Red")
	f.add("Data", "net6.0", nil, project.PropColour, "Green")
	top := f.add("Top", "net6.0", []string{"App"}, project.PropColour, "Purple")

	chart := purpleChart(t)
	g := NewBuilder(f.loader(t), nil).GenerateGraph(top, app)

	invalid, colours, err := MatchColours(g, chart, false, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"App"}, nodeNames(invalid), "dependents of a failing node are not reported")
	for _, n := range g.Nodes() {
		if n.Name() != "Data" {
			assert.True(t, colours[n.ID()].IsInvalid(), n.Name())
		}
	}
}

func TestMatchColours_MissingColour(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", []string{"Core"}, project.PropColour, "Orange")
	f.add("Core", "net6.0", nil, project.PropColour, "Blue")

	t.Run("invalid without addMissing", func(t *testing.T) {
		chart := purpleChart(t)
		g := NewBuilder(f.loader(t), nil).GenerateGraph(app)

		invalid, _, err := MatchColours(g, chart, false, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"App"}, nodeNames(invalid))
		assert.False(t, chart.Contains("Orange"))
	})

	t.Run("added as base colour", func(t *testing.T) {
		chart := purpleChart(t)
		g := NewBuilder(f.loader(t), nil).GenerateGraph(app)

		invalid, colours, err := MatchColours(g, chart, true, nil)
		require.NoError(t, err)
		assert.Empty(t, invalid)

		orange, ok := chart.ByName("Orange")
		require.True(t, ok)
		assert.True(t, orange.IsBase())
		appNode := NewBuilder(f.loader(t), nil).GetNode(app)
		assert.Equal(t, orange, colours[appNode.ID()], "synthesised colour is not combined with references")
	})
}

func TestMatchColours_Clashes(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", []string{"Core"},
		project.PropColour, "Purple", project.PropColourClashes, "Blue;Unknown")
	f.add("Core", "net6.0", nil, project.PropColour, "Red")

	chart := purpleChart(t)
	g := NewBuilder(f.loader(t), nil).GenerateGraph(app)

	invalid, _, err := MatchColours(g, chart, false, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"App"}, nodeNames(invalid))
}

func TestMatchColours_DefaultColour(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", []string{"Core"})
	f.add("Core", "net6.0", nil, project.PropColour, "Red")

	chart := purpleChart(t)
	g := NewBuilder(f.loader(t), nil).GenerateGraph(app)

	invalid, colours, err := MatchColours(g, chart, false, nil)
	require.NoError(t, err)
	assert.Empty(t, invalid)
	red, _ := chart.ByName("Red")
	for _, c := range colours {
		assert.Equal(t, red, c)
	}
}

func TestMatchColours_TooManyBaseColours(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", nil, project.PropColour, "OneTooMany")

	chart := colour.NewChart(nil)
	for i := 0; i < colour.MaxBaseColours; i++ {
		_, err := chart.AddColour(string(rune('a'+i%26))+string(rune('A'+i/26)), "", nil)
		require.NoError(t, err)
	}

	g := NewBuilder(f.loader(t), nil).GenerateGraph(app)
	_, _, err := MatchColours(g, chart, true, nil)
	assert.ErrorIs(t, err, colour.ErrTooManyBaseColours)
}

func TestTargetBuilder_Frameworks(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0;net472", []string{"Lib"})
	f.add("Lib", "netstandard2.0;net6.0", nil)

	tb := NewTargetBuilder(f.loader(t), testutil.NewTestLogger(t))
	g := tb.GenerateGraphForPaths(app)

	assert.Equal(t, 4, g.Count(), "two app targets and the two lib targets they pick")
	assert.False(t, g.HasInvalidNodes())

	for _, n := range g.Nodes() {
		if n.Name() != "App" {
			continue
		}
		require.Len(t, n.References(), 1)
		ref := n.References()[0]
		switch n.Framework.String() {
		case "net6.0":
			assert.Equal(t, "net6.0", ref.Framework.String())
		case "net472":
			assert.Equal(t, "netstandard2.0", ref.Framework.String())
			assert.Equal(t, "net472;netstandard2.0", framework.Join(n.FrameworkSet))
		}
	}
}

func TestTargetBuilder_NoMatchingFramework(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", []string{"Legacy"})
	f.add("Legacy", "net472", nil)

	tb := NewTargetBuilder(f.loader(t), testutil.NewTestLogger(t))
	g := tb.GenerateGraphForPaths(app)

	var invalid []string
	for _, n := range g.InvalidNodes() {
		invalid = append(invalid, n.String())
		if n.Name() == "Legacy" {
			assert.False(t, n.IsExisting)
		}
	}
	assert.ElementsMatch(t, []string{"App (net6.0)", "Legacy (net6.0)"}, invalid)
}

func TestTargetBuilder_NetStandardBridge(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net472", []string{"Shared"})
	f.add("Shared", "netstandard2.0", []string{"Core"})
	f.add("Core", "netstandard2.0;netcoreapp3.1", nil)

	tb := NewTargetBuilder(f.loader(t), nil)
	g := tb.GenerateGraphForPaths(app, projectPath("Core"))

	var core31 *ProjectTarget
	for _, n := range g.Nodes() {
		if n.Name() == "Core" && n.Framework.String() == "netcoreapp3.1" {
			core31 = n
		}
	}
	require.NotNil(t, core31)
	assert.True(t, core31.Valid())
	assert.False(t, g.HasInvalidNodes())
}

func TestTargetBuilder_ClosestHigherUpgrade(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", []string{"Lib"})
	f.add("Lib", "net7.0", nil)

	loader := f.loader(t)
	appDetails, ok := loader.TryGetProject(app)
	require.True(t, ok)

	tb := NewTargetBuilder(loader, testutil.NewTestLogger(t))
	net6 := framework.MustParse("net6.0")
	net7 := framework.MustParse("net7.0")

	n := tb.GetNode(net6, appDetails)

	assert.Equal(t, "net7.0", n.Framework.String(), "requested framework upgraded to the reference's")
	assert.Equal(t, TargetID(net7, appDetails.ID), n.ID())
	assert.False(t, n.IsExisting, "App never declared net7.0")
	assert.False(t, n.Valid())
	assert.Equal(t, "net7.0", framework.Join(n.FrameworkSet))
	assert.Same(t, n, tb.GetNode(net7, appDetails), "cached under the upgraded id")
	assert.Same(t, n, tb.GetNode(net6, appDetails), "cached under the requested id")
}

func TestTargetBuilder_ClearCache(t *testing.T) {
	f := newFixture()
	app := f.add("App", "net6.0", nil)

	loader := f.loader(t)
	d, _ := loader.TryGetProject(app)
	tb := NewTargetBuilder(loader, nil)

	net6 := framework.MustParse("net6.0")
	first := tb.GetNode(net6, d)
	assert.Same(t, first, tb.GetNode(net6, d))

	tb.ClearCache()
	assert.NotSame(t, first, tb.GetNode(net6, d))
}

func TestTargetID(t *testing.T) {
	tf := framework.MustParse("net6.0")
	assert.Equal(t, int64(tf.ID())*10000+7, TargetID(tf, 7))
}
