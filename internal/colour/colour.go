// Package colour encodes architecture layers as bitmask colours.
//
// Each base colour owns one bit. Composite colours are the OR of their
// components, so walking a dependency chain and OR-ing the colours of every
// project yields the set of layers the chain touches. Only combinations that
// were registered up front are valid.
package colour

import "math/bits"

// Names of the built-in colours.
const (
	DefaultName = "Default"
	InvalidName = "Invalid"
)

// Colour is a named bitmask.
type Colour struct {
	Name        string
	Description string
	Value       int32
}

var (
	// Default is the colour of projects that declare none. It has no bits set.
	Default = Colour{Name: DefaultName, Description: "Default colour", Value: 0}
	// Invalid marks a project whose dependency chain resolves to no registered colour.
	Invalid = Colour{Name: InvalidName, Description: "Invalid colour", Value: -1}
)

// IsBase reports whether exactly one bit is set.
func (c Colour) IsBase() bool {
	return c.Value > 0 && bits.OnesCount32(uint32(c.Value)) == 1
}

// IsInvalid reports whether c is the Invalid colour.
func (c Colour) IsInvalid() bool {
	return c.Value == Invalid.Value
}

// Intersects reports whether c and o share a bit. Invalid intersects nothing.
func (c Colour) Intersects(o Colour) bool {
	if c.IsInvalid() || o.IsInvalid() {
		return false
	}
	return c.Value&o.Value != 0
}

func (c Colour) String() string {
	return c.Name
}

// IsBuiltIn reports whether name is one of the reserved colour names.
func IsBuiltIn(name string) bool {
	return name == DefaultName || name == InvalidName
}
