package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/slnlint/internal/framework"
)

const sampleProject = `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFrameworks>net6.0;net472</TargetFrameworks>
    <OutputType>Exe</OutputType>
    <Colour>Web</Colour>
  </PropertyGroup>
  <PropertyGroup Condition="'$(Configuration)' == 'Release'">
    <Optimize>true</Optimize>
  </PropertyGroup>
  <ItemGroup>
    <ProjectReference Include="..\Lib\Lib.csproj" />
    <ProjectReference Include="..\Core\Core.csproj" Condition="'$(TargetFramework)' == 'net6.0'">
      <Private>false</Private>
    </ProjectReference>
  </ItemGroup>
  <ItemGroup Condition="'$(TargetFrameworkIdentifier)' == '.NETFramework'">
    <ProjectReference Include="..\Legacy\Legacy.csproj" />
  </ItemGroup>
</Project>
`

func TestParseMetadata(t *testing.T) {
	md, err := ParseMetadata([]byte(sampleProject))
	require.NoError(t, err)

	assert.Equal(t, "net6.0;net472", md.Properties[PropTargetFrameworks])
	assert.Equal(t, "Exe", md.Properties[PropOutputType])
	assert.Equal(t, "Web", md.Properties[PropColour])
	assert.NotContains(t, md.Properties, "Optimize", "conditioned groups are skipped")

	require.Len(t, md.References, 3)
	assert.Equal(t, Reference{Include: `..\Lib\Lib.csproj`}, md.References[0])
	assert.Equal(t, "'$(TargetFramework)' == 'net6.0'", md.References[1].Condition)
	assert.Equal(t, "'$(TargetFrameworkIdentifier)' == '.NETFramework'", md.References[2].GroupCondition)
}

func TestParseMetadata_Malformed(t *testing.T) {
	_, err := ParseMetadata([]byte("<Project><PropertyGroup>"))
	assert.Error(t, err)
}

func TestSetFrameworksXML(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		frameworks []string
		contains   []string
		missing    []string
	}{
		{
			name:       "plural to single",
			input:      sampleProject,
			frameworks: []string{"net6.0"},
			contains:   []string{"<TargetFramework>net6.0</TargetFramework>"},
			missing:    []string{"<TargetFrameworks>"},
		},
		{
			name:       "single to plural",
			input:      "<Project>\n  <PropertyGroup>\n    <TargetFramework>net6.0</TargetFramework>\n  </PropertyGroup>\n</Project>\n",
			frameworks: []string{"netstandard2.0", "net6.0"},
			contains:   []string{"<TargetFrameworks>netstandard2.0;net6.0</TargetFrameworks>"},
			missing:    []string{"<TargetFramework>"},
		},
		{
			name:       "both present collapses to one element",
			input:      "<Project>\n  <PropertyGroup>\n    <TargetFramework>net6.0</TargetFramework>\n    <TargetFrameworks>net6.0</TargetFrameworks>\n  </PropertyGroup>\n</Project>\n",
			frameworks: []string{"net472", "net6.0"},
			contains:   []string{"<TargetFrameworks>net472;net6.0</TargetFrameworks>"},
			missing:    []string{"<TargetFramework>"},
		},
		{
			name:       "none present",
			input:      "<Project>\n</Project>\n",
			frameworks: []string{"net6.0"},
			contains:   []string{"<PropertyGroup>", "<TargetFramework>net6.0</TargetFramework>", "</Project>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list []framework.TargetFramework
			for _, f := range tt.frameworks {
				list = append(list, framework.MustParse(f))
			}

			out, err := SetFrameworksXML([]byte(tt.input), list)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, string(out), s)
			}
			for _, s := range tt.missing {
				assert.NotContains(t, string(out), s)
			}

			md, err := ParseMetadata(out)
			require.NoError(t, err)
			got, err := frameworksFromProperties(md.Properties)
			require.NoError(t, err)
			assert.Equal(t, framework.Join(list), framework.Join(got))
		})
	}
}

func TestSetFrameworksXML_Empty(t *testing.T) {
	_, err := SetFrameworksXML([]byte(sampleProject), nil)
	assert.Error(t, err)
}

func TestRemoveReferencesXML(t *testing.T) {
	out := RemoveReferencesXML([]byte(sampleProject), []string{`..\Core\Core.csproj`, `..\Legacy\Legacy.csproj`})

	md, err := ParseMetadata(out)
	require.NoError(t, err)
	require.Len(t, md.References, 1)
	assert.Equal(t, `..\Lib\Lib.csproj`, md.References[0].Include)
	assert.NotContains(t, string(out), "<Private>")
	assert.Contains(t, string(out), "<OutputType>Exe</OutputType>")
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "App", "App.csproj")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(sampleProject), 0o640))

	store := NewFileStore()
	p := NewPath(file)

	require.NoError(t, store.WriteTargetFrameworks(p, []framework.TargetFramework{framework.MustParse("net8.0")}))
	require.NoError(t, store.RemoveReferences(p, []string{`..\Lib\Lib.csproj`}))

	md, err := store.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "net8.0", md.Properties[PropTargetFramework])
	assert.Len(t, md.References, 2)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	_, err = store.Read(NewPath(filepath.Join(dir, "Missing.csproj")))
	assert.ErrorIs(t, err, ErrNotFound)
}
