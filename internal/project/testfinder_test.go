package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("<Project />"), 0o644))
	}
}

func TestTestFinder_Conventions(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"src/Lib/Lib.csproj",
		// Test(s) subdirectory
		"src/Lib/Tests/Lib.Tests.csproj",
		// <name>*Test* directory under Test(s)
		"src/Lib/Test/Lib.UnitTests/Lib.UnitTests.csproj",
		// sibling directory
		"src/Lib.Tests/Lib.Tests.csproj",
		// mirror under tests next to src
		"tests/Lib.Integration.Tests/Lib.Integration.Tests.fsproj",
		// not test projects of Lib
		"src/Lib.Tests/Helpers.csproj",
		"src/Other.Tests/Other.Tests.csproj",
		"tests/Other.Tests/Other.Tests.csproj",
	)

	finder := NewTestFinder(nil)
	got := finder.TestProjects(NewPath(filepath.Join(root, "src", "Lib", "Lib.csproj")))

	var rel []string
	for _, p := range got {
		rel = append(rel, p.RelativeTo(filepath.ToSlash(root)))
	}
	assert.Equal(t, []string{
		"src/Lib.Tests/Lib.Tests.csproj",
		"src/Lib/Test/Lib.UnitTests/Lib.UnitTests.csproj",
		"src/Lib/Tests/Lib.Tests.csproj",
		"tests/Lib.Integration.Tests/Lib.Integration.Tests.fsproj",
	}, rel)
}

func TestTestFinder_NestedSrcMirror(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"src/Core/Lib/Lib.csproj",
		"test/Core/Lib.Tests/Lib.Tests.csproj",
	)

	got := NewTestFinder(nil).TestProjects(NewPath(filepath.Join(root, "src", "Core", "Lib", "Lib.csproj")))
	require.Len(t, got, 1)
	assert.Equal(t, "Lib.Tests", got[0].Name())
}

func TestTestFinder_Memoizes(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "src/Lib/Lib.csproj", "src/Lib.Tests/Lib.Tests.csproj")
	lib := NewPath(filepath.Join(root, "src", "Lib", "Lib.csproj"))

	finder := NewTestFinder(nil)
	require.Len(t, finder.TestProjects(lib), 1)

	touch(t, root, "src/Lib.Test/Lib.Test.csproj")
	assert.Len(t, finder.TestProjects(lib), 1, "later files are not picked up")
	assert.Len(t, NewTestFinder(nil).TestProjects(lib), 2)
}

func TestTestFinder_MissingDirectory(t *testing.T) {
	assert.Empty(t, NewTestFinder(nil).TestProjects(NewPath("/does/not/exist/App/App.csproj")))
}
