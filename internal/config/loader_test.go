package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "App")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("verbose: true\n"), 0o600))

	assert.Equal(t, root, FindProjectRoot(nested, 10))
	assert.Equal(t, "", FindProjectRoot(nested, 1), "search depth is bounded")
	assert.Equal(t, filepath.Join(root, ConfigFileName), FindConfigFile(root))
	assert.Equal(t, "", FindConfigFile(nested))
}

func TestFindConfigFile_Alt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), nil, 0o600))
	assert.Equal(t, filepath.Join(dir, ConfigFileNameAlt), FindConfigFile(dir))
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		path, base, want string
	}{
		{path: "", base: "/repo", want: ""},
		{path: ":memory:", base: "/repo", want: ":memory:"},
		{path: "/abs/state.db", base: "/repo", want: "/abs/state.db"},
		{path: ".slnlint/state.db", base: "/repo", want: "/repo/.slnlint/state.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolvePath(tt.path, tt.base), tt.path)
	}
}
