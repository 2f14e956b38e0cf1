// Package framework models .NET target frameworks and the rules deciding
// which framework a project may reference from another.
package framework

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnknownFramework is returned when a target framework moniker cannot be parsed.
var ErrUnknownFramework = errors.New("unknown target framework")

// Type is the runtime family of a target framework.
type Type int

// Framework families. The numeric values feed into ID.
const (
	NetFramework Type = iota
	NetStandard
	NetCore
	DotNet
)

func (t Type) String() string {
	switch t {
	case NetFramework:
		return "NetFramework"
	case NetStandard:
		return "NetStandard"
	case NetCore:
		return "NetCore"
	case DotNet:
		return "DotNet"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Platform is the optional OS platform suffix of a moniker, e.g. net5.0-windows.
type Platform int

// Platforms. The numeric values feed into ID.
const (
	Agnostic Platform = iota
	Windows
	Linux
	Unknown
)

func (p Platform) String() string {
	switch p {
	case Agnostic:
		return "agnostic"
	case Windows:
		return "windows"
	case Linux:
		return "linux"
	default:
		return "unknown"
	}
}

// Version is a major.minor.build framework version.
type Version struct {
	Major int
	Minor int
	Build int
}

// V is shorthand for a major.minor Version.
func V(major, minor int) Version {
	return Version{Major: major, Minor: minor}
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Build, o.Build)
	}
}

func (v Version) String() string {
	if v.Build != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

const (
	netFrameworkPrefix = "net4"
	netStandardPrefix  = "netstandard"
	netCorePrefix      = "netcoreapp"
)

var net5Pattern = regexp.MustCompile(`net(?P<version>\d+\.?\d*)(-(?P<platform>\D+))?(?P<platformversion>\d+.\d+)?`)

// TargetFramework is an immutable parsed moniker such as net471, netstandard2.0
// or net6.0-windows. Two values are equal when their monikers are equal.
type TargetFramework struct {
	raw      string
	version  Version
	kind     Type
	platform Platform
}

// Parse parses a target framework moniker.
func Parse(moniker string) (TargetFramework, error) {
	s := strings.TrimSpace(moniker)
	tf := TargetFramework{raw: s}

	switch {
	case strings.HasPrefix(s, netCorePrefix):
		v, err := parseDotted(strings.TrimPrefix(s, netCorePrefix))
		if err != nil {
			return TargetFramework{}, fmt.Errorf("%w: %q: %v", ErrUnknownFramework, moniker, err)
		}
		tf.kind, tf.version = NetCore, v
	case strings.HasPrefix(s, netStandardPrefix):
		v, err := parseDotted(strings.TrimPrefix(s, netStandardPrefix))
		if err != nil {
			return TargetFramework{}, fmt.Errorf("%w: %q: %v", ErrUnknownFramework, moniker, err)
		}
		tf.kind, tf.version = NetStandard, v
	case strings.HasPrefix(s, netFrameworkPrefix):
		v, err := parseCompact(strings.TrimPrefix(s, "net"))
		if err != nil {
			return TargetFramework{}, fmt.Errorf("%w: %q: %v", ErrUnknownFramework, moniker, err)
		}
		tf.kind, tf.version = NetFramework, v
	default:
		m := net5Pattern.FindStringSubmatch(s)
		if m == nil {
			return TargetFramework{}, fmt.Errorf("%w: %q", ErrUnknownFramework, moniker)
		}
		raw := m[net5Pattern.SubexpIndex("version")]
		if !strings.Contains(raw, ".") {
			raw += ".0"
		}
		v, err := parseDotted(raw)
		if err != nil {
			return TargetFramework{}, fmt.Errorf("%w: %q: %v", ErrUnknownFramework, moniker, err)
		}
		tf.kind, tf.version = NetCore, v
		tf.platform = parsePlatform(m[net5Pattern.SubexpIndex("platform")])
	}

	return tf, nil
}

// MustParse is like Parse but panics on error.
func MustParse(moniker string) TargetFramework {
	tf, err := Parse(moniker)
	if err != nil {
		panic(err)
	}
	return tf
}

// ParseList parses a semicolon separated TargetFrameworks value.
func ParseList(value string) ([]TargetFramework, error) {
	var out []TargetFramework
	for _, part := range strings.Split(value, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		tf, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, nil
}

func parsePlatform(s string) Platform {
	switch strings.ToLower(s) {
	case "":
		return Agnostic
	case "windows":
		return Windows
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// parseDotted parses "3.1" or "2.0.1".
func parseDotted(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("malformed version %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("malformed version %q", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Build: nums[2]}, nil
}

// parseCompact parses the undotted .NET Framework form, e.g. "471" or "48".
func parseCompact(s string) (Version, error) {
	if len(s) < 2 || len(s) > 3 {
		return Version{}, fmt.Errorf("malformed version %q", s)
	}
	dotted := strings.Join(strings.Split(s, ""), ".")
	return parseDotted(dotted)
}

// String returns the moniker as written in the project file.
func (f TargetFramework) String() string { return f.raw }

// Version returns the framework version.
func (f TargetFramework) Version() Version { return f.version }

// Type returns the framework family.
func (f TargetFramework) Type() Type { return f.kind }

// Platform returns the platform suffix, Agnostic when absent.
func (f TargetFramework) Platform() Platform { return f.platform }

// IsZero reports whether f is the zero value.
func (f TargetFramework) IsZero() bool { return f.raw == "" }

// Equal compares monikers.
func (f TargetFramework) Equal(o TargetFramework) bool { return f.raw == o.raw }

// Compare orders by type, then version, then platform.
func (f TargetFramework) Compare(o TargetFramework) int {
	if f.kind != o.kind {
		return cmpInt(int(f.kind), int(o.kind))
	}
	if c := f.version.Compare(o.version); c != 0 {
		return c
	}
	return cmpInt(int(f.platform), int(o.platform))
}

// Identifier returns the MSBuild $(TargetFrameworkIdentifier) value.
func (f TargetFramework) Identifier() string {
	switch f.kind {
	case NetCore, DotNet:
		return ".NETCoreApp"
	case NetFramework:
		return ".NETFramework"
	case NetStandard:
		return ".NETStandard"
	default:
		return ""
	}
}

// ID packs the framework into a small integer. Majors up to 99 and single digit
// minor and build numbers never collide.
func (f TargetFramework) ID() int {
	return int(f.kind) +
		10*f.version.Major +
		1000*f.version.Minor +
		10000*f.version.Build +
		100000*int(f.platform)
}

// Contains reports whether list holds a framework equal to f.
func Contains(list []TargetFramework, f TargetFramework) bool {
	for _, tf := range list {
		if tf.Equal(f) {
			return true
		}
	}
	return false
}

// Join renders frameworks as a TargetFrameworks property value.
func Join(list []TargetFramework) string {
	parts := make([]string, len(list))
	for i, tf := range list {
		parts[i] = tf.raw
	}
	return strings.Join(parts, ";")
}
