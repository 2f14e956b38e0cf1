package solution

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/testutil"
)

const sampleSolution = `
Microsoft Visual Studio Solution File, Format Version 12.00
# Visual Studio Version 17
Project("{9A19103F-16F7-4668-BE54-9A1E7A4F7556}") = "App", "src\App\App.csproj", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "tests", "tests", "{22222222-2222-2222-2222-222222222222}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App.Tests", "tests\App.Tests\App.Tests.csproj", "{33333333-3333-3333-3333-333333333333}"
EndProject
Project("{E24C65DC-7377-472B-9ABA-BC803B73C61A}") = "Site", "http://localhost/Site", "{44444444-4444-4444-4444-444444444444}"
EndProject
Global
	GlobalSection(SolutionConfigurationPlatforms) = preSolution
		Debug|Any CPU = Debug|Any CPU
	EndGlobalSection
	GlobalSection(ExtendedSolutionProperties) = postSolution
		SolutionGuid = {55555555-5555-5555-5555-555555555555}
	EndGlobalSection
EndGlobal
`

func TestParse(t *testing.T) {
	sln, err := Parse(strings.NewReader(sampleSolution), "/repo/App.sln")
	require.NoError(t, err)

	assert.Equal(t, "App", sln.Name)
	require.Len(t, sln.Projects, 2)
	assert.Equal(t, "App", sln.Projects[0].Name)
	assert.Equal(t, project.NewPath("/repo/src/App/App.csproj"), sln.Projects[0].Path)
	assert.Equal(t, "FAE04EC0-301F-11D3-BF4B-00C04F79EFBC", sln.Projects[1].TypeGUID)
	assert.Equal(t, project.NewPath("/repo/tests/App.Tests/App.Tests.csproj"), sln.Projects[1].Path)

	assert.True(t, sln.Contains(project.NewPath("/repo/src/App/App.csproj")))
	assert.False(t, sln.Contains(project.NewPath("/repo/src/Other/Other.csproj")))
	assert.Equal(t, "{55555555-5555-5555-5555-555555555555}", sln.Properties["SolutionGuid"])
	assert.False(t, sln.Ignored())
}

func TestParse_Ignored(t *testing.T) {
	content := strings.Replace(sampleSolution, "SolutionGuid =", IgnoreProperty+" = True\n\t\tSolutionGuid =", 1)
	sln, err := Parse(strings.NewReader(content), "/repo/App.sln")
	require.NoError(t, err)
	assert.True(t, sln.Ignored())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "A.sln"), sampleSolution)
	writeFile(t, filepath.Join(dir, "a", "deep", "B.SLN"), sampleSolution)
	writeFile(t, filepath.Join(dir, "a", "bin", "Skip.sln"), sampleSolution)
	writeFile(t, filepath.Join(dir, "obj", "Skip.sln"), sampleSolution)
	writeFile(t, filepath.Join(dir, "legacy", "Old.sln"), sampleSolution)
	writeFile(t, filepath.Join(dir, "a", "notes.txt"), "")

	logger := testutil.NewTestLogger(t)

	t.Run("recursive glob", func(t *testing.T) {
		found, err := Find([]string{filepath.Join(dir, "**", "*.sln")}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a", "A.sln"),
			filepath.Join(dir, "a", "deep", "B.SLN"),
			filepath.Join(dir, "legacy", "Old.sln"),
		}, found)
	})

	t.Run("exclude pattern", func(t *testing.T) {
		found, err := Find([]string{filepath.Join(dir, "**", "*.sln")}, []string{"legacy/*"}, logger)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("plain file", func(t *testing.T) {
		file := filepath.Join(dir, "a", "A.sln")
		found, err := Find([]string{file, file}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{file}, found)
	})

	t.Run("single level glob", func(t *testing.T) {
		found, err := Find([]string{filepath.Join(dir, "a", "*.sln")}, nil, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a", "A.sln")}, found)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := Find([]string{filepath.Join(dir, "nope", "*.sln")}, nil, logger)
		assert.Error(t, err)
	})
}

func TestLoad_SkipsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Keep.sln"), sampleSolution)
	writeFile(t, filepath.Join(dir, "Skip.sln"),
		strings.Replace(sampleSolution, "SolutionGuid =", IgnoreProperty+" = true\n\t\tSolutionGuid =", 1))

	logger, rec := testutil.NewRecordingLogger()
	slns, err := Load([]string{filepath.Join(dir, "*.sln")}, nil, logger)
	require.NoError(t, err)
	require.Len(t, slns, 1)
	assert.Equal(t, "Keep", slns[0].Name)
	assert.Equal(t, []string{"solution is marked as ignored and will be skipped"}, rec.Messages())
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"**/*.sln", "x.sln", true},
		{"**/*.sln", "a/b/x.sln", true},
		{"*.sln", "a/x.sln", false},
		{"a/**/x.sln", "a/x.sln", true},
		{"**/bin/*", "src/bin/x.sln", true},
		{"**/bin/*", "src/binary/x.sln", false},
		{"*.SLN", "x.sln", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchGlob(tt.pattern, tt.name), "%s ~ %s", tt.pattern, tt.name)
	}
}
