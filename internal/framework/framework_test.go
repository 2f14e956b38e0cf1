package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		moniker  string
		kind     Type
		version  Version
		platform Platform
	}{
		{"net471", NetFramework, Version{4, 7, 1}, Agnostic},
		{"net48", NetFramework, V(4, 8), Agnostic},
		{"netstandard2.0", NetStandard, V(2, 0), Agnostic},
		{"netstandard2.1", NetStandard, V(2, 1), Agnostic},
		{"netcoreapp2.1", NetCore, V(2, 1), Agnostic},
		{"netcoreapp3.1", NetCore, V(3, 1), Agnostic},
		{"net5", NetCore, V(5, 0), Agnostic},
		{"net5.0", NetCore, V(5, 0), Agnostic},
		{"net5.0-windows", NetCore, V(5, 0), Windows},
		{"net6.0-Linux", NetCore, V(6, 0), Linux},
		{"net6.0-windows10.0", NetCore, V(6, 0), Windows},
		{"net7.0-android", NetCore, V(7, 0), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.moniker, func(t *testing.T) {
			tf, err := Parse(tt.moniker)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tf.Type())
			assert.Equal(t, tt.version, tf.Version())
			assert.Equal(t, tt.platform, tf.Platform())
			assert.Equal(t, tt.moniker, tf.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, moniker := range []string{"", "java8", "netcoreapp", "netstandardX", "net4"} {
		t.Run(moniker, func(t *testing.T) {
			_, err := Parse(moniker)
			assert.ErrorIs(t, err, ErrUnknownFramework)
		})
	}
}

func TestNet5AndNet50_AreBothVersionFive(t *testing.T) {
	a := MustParse("net5")
	b := MustParse("net5.0")

	assert.Equal(t, a.Version(), b.Version())
	assert.Equal(t, a.Type(), b.Type())
	assert.False(t, a.Equal(b), "equality is by moniker")
	assert.Equal(t, 0, a.Compare(b))
}

func TestCompare(t *testing.T) {
	assert.Negative(t, MustParse("net471").Compare(MustParse("netstandard2.0")))
	assert.Negative(t, MustParse("netstandard2.1").Compare(MustParse("netcoreapp2.1")))
	assert.Negative(t, MustParse("netcoreapp3.1").Compare(MustParse("net5.0")))
	assert.Negative(t, MustParse("net5.0").Compare(MustParse("net5.0-windows")))
	assert.Positive(t, MustParse("net6.0").Compare(MustParse("net5.0-linux")))
}

func TestID_IsDistinct(t *testing.T) {
	monikers := []string{
		"net471", "net472", "net48", "netstandard2.0", "netstandard2.1",
		"netcoreapp2.1", "netcoreapp3.1", "net5.0", "net5.0-windows", "net5.0-linux", "net6.0",
	}
	seen := make(map[int]string)
	for _, m := range monikers {
		id := MustParse(m).ID()
		prev, dup := seen[id]
		require.False(t, dup, "%s collides with %s", m, prev)
		seen[id] = m
	}
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, ".NETCoreApp", MustParse("net6.0").Identifier())
	assert.Equal(t, ".NETFramework", MustParse("net472").Identifier())
	assert.Equal(t, ".NETStandard", MustParse("netstandard2.0").Identifier())
}

func TestParseList(t *testing.T) {
	list, err := ParseList("netstandard2.0; net6.0;;")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "netstandard2.0;net6.0", Join(list))

	_, err = ParseList("net6.0;bogus")
	assert.Error(t, err)
}
