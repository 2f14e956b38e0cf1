package colour

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/slnlint/internal/testutil"
)

// newTestChart registers Green=1, Red=2, Blue=4 and a few composites.
func newTestChart(t *testing.T) *Chart {
	t.Helper()
	chart := NewChart(testutil.NewTestLogger(t))
	err := chart.AddColoursFromConfig([]Record{
		{Name: "Yellow", ComponentColours: []string{"Purple", "Green"}},
		{Name: "Green"},
		{Name: "Purple", ComponentColours: []string{"Red", "Blue"}},
		{Name: "Red"},
		{Name: "Blue"},
		{Name: "Magenta", ComponentColours: []string{"Green", "Blue"}},
	})
	require.NoError(t, err)
	return chart
}

func TestChart_BuiltIns(t *testing.T) {
	chart := NewChart(nil)

	def, ok := chart.ByName(DefaultName)
	require.True(t, ok)
	assert.Equal(t, int32(0), def.Value)

	inv, ok := chart.ByValue(-1)
	require.True(t, ok)
	assert.Equal(t, InvalidName, inv.Name)
	assert.Equal(t, 2, chart.Len())
}

func TestChart_AddColoursFromConfig(t *testing.T) {
	chart := newTestChart(t)

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

	_, ok := chart.ByValue(3)
	assert.False(t, ok, "Green|Red was never registered")
}

func TestChart_IsBase(t *testing.T) {
	chart := newTestChart(t)

	for name, base := range map[string]bool{"Red": true, "Blue": true, "Purple": false, "Default": false, "Invalid": false} {
		col, _ := chart.ByName(name)
		assert.Equal(t, base, col.IsBase(), name)
	}
}

func TestChart_TryGetNewColour(t *testing.T) {
	chart := newTestChart(t)
	red, _ := chart.ByName("Red")
	blue, _ := chart.ByName("Blue")
	green, _ := chart.ByName("Green")
	purple, _ := chart.ByName("Purple")

	t.Run("registered combination", func(t *testing.T) {
		col, ok := chart.TryGetNewColour(purple, blue)
		require.True(t, ok)
		assert.Equal(t, "Purple", col.Name)
	})

	t.Run("unregistered combination", func(t *testing.T) {
		col, ok := chart.TryGetNewColour(red, green)
		assert.False(t, ok)
		assert.True(t, col.IsInvalid())
	})

	t.Run("invalid constituent", func(t *testing.T) {
		col, ok := chart.TryGetNewColour(purple, Invalid)
		assert.False(t, ok)
		assert.True(t, col.IsInvalid())
	})
}

func TestChart_Associativity(t *testing.T) {
	chart := NewChart(nil)
	for _, name := range []string{"A", "B", "C"} {
		_, err := chart.AddColour(name, "", nil)
		require.NoError(t, err)
	}
	ab, err := chart.AddColour("AB", "", []string{"A", "B"})
	require.NoError(t, err)
	abc, err := chart.AddColour("ABC", "", []string{"A", "B", "C"})
	require.NoError(t, err)

	c, _ := chart.ByName("C")
	combined, ok := chart.TryGetNewColour(ab, c)
	require.True(t, ok)
	assert.Equal(t, abc, combined)
}

func TestChart_AddColour_Duplicate(t *testing.T) {
	chart := newTestChart(t)

	_, err := chart.AddColour("Red", "again", nil)
	assert.ErrorIs(t, err, ErrDuplicateColour)

	_, err = chart.AddColour("Violet", "same bits as Purple", []string{"Blue", "Red"})
	assert.ErrorIs(t, err, ErrDuplicateColour)

	_, err = chart.AddColour(DefaultName, "", nil)
	assert.ErrorIs(t, err, ErrDuplicateColour)
}

func TestChart_AddColour_UnknownComponent(t *testing.T) {
	chart := NewChart(nil)
	_, err := chart.AddColour("Mix", "", []string{"Nope"})
	assert.ErrorIs(t, err, ErrUnknownColour)
}

func TestChart_TooManyBaseColours(t *testing.T) {
	chart := NewChart(nil)
	for i := 0; i < MaxBaseColours; i++ {
		col, err := chart.AddColour(string(rune('a'+i%26))+string(rune('A'+i/26)), "", nil)
		require.NoError(t, err)
		assert.True(t, col.IsBase())
		assert.Positive(t, col.Value)
	}

	_, err := chart.AddColour("overflow", "", nil)
	assert.ErrorIs(t, err, ErrTooManyBaseColours)
}

func TestChart_AddColoursFromConfig_Unresolvable(t *testing.T) {
	chart := NewChart(nil)
	err := chart.AddColoursFromConfig([]Record{
		{Name: "Red"},
		{Name: "Loop1", ComponentColours: []string{"Loop2"}},
		{Name: "Loop2", ComponentColours: []string{"Loop1"}},
		{Name: "Orphan", ComponentColours: []string{"Red", "Missing"}},
	})

	require.ErrorIs(t, err, ErrUnresolvable)
	assert.Contains(t, err.Error(), "Loop1")
	assert.Contains(t, err.Error(), "Loop2")
	assert.Contains(t, err.Error(), "Orphan")
	assert.NotContains(t, err.Error(), "Red,")
	assert.True(t, chart.Contains("Red"), "resolvable entries are still registered")
}

func TestChart_AddColoursFromConfig_DuplicateName(t *testing.T) {
	chart := NewChart(nil)
	err := chart.AddColoursFromConfig([]Record{{Name: "Red"}, {Name: "Red"}})
	assert.ErrorIs(t, err, ErrDuplicateColour)
}

func TestChart_Attributes(t *testing.T) {
	chart := NewChart(nil)
	require.NoError(t, chart.AddColoursFromConfig([]Record{
		{Name: "Red"},
		{Name: "Blue", Attributes: map[string]string{"shape": "ellipse", "color": "navy"}},
		{Name: DefaultName, Attributes: map[string]string{"color": "grey"}},
	}))

	assert.Equal(t, map[string]string{"shape": "rectangle", "color": "red", "style": "filled"}, chart.Attributes("Red"))
	assert.Equal(t, map[string]string{"shape": "ellipse", "color": "navy"}, chart.Attributes("Blue"))
	assert.Equal(t, "grey", chart.Attributes(DefaultName)["color"])
	assert.Equal(t, "white", chart.Attributes(InvalidName)["fontcolor"])
	assert.Equal(t, "black", chart.Attributes(InvalidName)["color"])
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"colours.yaml": `
- name: Core
  description: Core libraries
- name: Web
- name: App
  componentColours: [Core, Web]
  attributes:
    shape: box
`,
		"colours.json": `[
  {"name": "Core"},
  {"name": "Web"},
  {"name": "App", "componentColours": ["Core", "Web"], "attributes": {"shape": "box"}}
]`,
		"colours.toml": `
[[colours]]
name = "Core"

[[colours]]
name = "Web"

[[colours]]
name = "App"
componentColours = ["Core", "Web"]
attributes = { shape = "box" }
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			chart := NewChart(nil)
			require.NoError(t, chart.LoadFile(path))

			app, ok := chart.ByName("App")
			require.True(t, ok)
			assert.Equal(t, int32(3), app.Value)
			assert.Equal(t, "box", chart.Attributes("App")["shape"])
		})
	}
}

func TestLoadConfigFile_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colours.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- description: nameless\n"), 0o600))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}
