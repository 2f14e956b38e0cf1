package colour

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/slnlint/internal/testutil"
)

// A chart written for .NET tooling: PascalCase keys, comments and a trailing
// comma.
const pascalCaseChart = `// Colours used across the repository.
[
{
  "Name": "Green",
  "Description": "Primary colour" // inline comment
},
{
  "Name": "Red",
  "Description": "A different primary colour"
},
/* Blue is reserved for shared libraries. */
{
  "Name": "Blue",
  "Description": "See http://example.com/colours//blue"
},
{
  "Name": "Purple",
  "Description": "A combined Colour",
  "ComponentColours": [ "Red", "Blue" ]
},
{
  "Name": "Magenta",
  "Description": "Another combined Colour",
  "ComponentColours": [ "Green", "Blue" ],
  "Attributes": { "shape": "box" }
},
{
  "name": "Yellow",
  "componentcolours": [ "Purple", "Green" ],
},
]
`

func TestLoadConfigFile_PascalCaseWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colours.json")
	require.NoError(t, os.WriteFile(path, []byte(pascalCaseChart), 0o600))

	records, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "See http://example.com/colours//blue", records[2].Description, "comment markers inside strings are kept")
	assert.Equal(t, []string{"Red", "Blue"}, records[3].ComponentColours)

	chart := NewChart(testutil.NewTestLogger(t))
	require.NoError(t, chart.AddColoursFromConfig(records))

	want := map[string]int32{
		"Green":   1,
		"Red":     2,
		"Blue":    4,
		"Purple":  6,
		"Magenta": 5,
		"Yellow":  7,
	}
	for name, value := range want {
		col, ok := chart.ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, value, col.Value, name)
	}
	assert.Equal(t, 8, chart.Len())
	assert.Equal(t, "box", chart.Attributes("Magenta")["shape"])
}

func TestLoadConfigFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{name: "unterminated json comment", file: "colours.json", content: "[ /* {\"Name\": \"Core\"} ]", wantErr: "parsing colour config"},
		{name: "json entry without name", file: "colours.json", content: `[{"Description": "nameless"}]`, wantErr: "entry 0 has no name"},
		{name: "json object instead of list", file: "colours.json", content: `{"Name": "Core"}`, wantErr: "parsing colour config"},
		{name: "missing file", file: "", wantErr: "reading colour config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.json")
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), tt.file)
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}

			_, err := LoadConfigFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
