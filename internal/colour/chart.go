package colour

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// MaxBaseColours is the number of bits available for base colours.
const MaxBaseColours = 31

// Chart errors.
var (
	ErrDuplicateColour    = errors.New("duplicate colour")
	ErrTooManyBaseColours = errors.New("too many base colours")
	ErrUnknownColour      = errors.New("unknown colour")
	ErrUnresolvable       = errors.New("unresolvable colour configuration")
)

// Chart is the registry of known colours.
type Chart struct {
	logger     *slog.Logger
	byName     map[string]Colour
	byValue    map[int32]Colour
	attributes map[string]map[string]string
	baseCount  int
}

// NewChart returns a chart holding only the built-in colours.
func NewChart(logger *slog.Logger) *Chart {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Chart{
		logger:     logger,
		byName:     make(map[string]Colour),
		byValue:    make(map[int32]Colour),
		attributes: make(map[string]map[string]string),
	}
	for _, builtin := range []Colour{Default, Invalid} {
		c.byName[builtin.Name] = builtin
		c.byValue[builtin.Value] = builtin
	}
	return c
}

// ByName looks a colour up by name.
func (c *Chart) ByName(name string) (Colour, bool) {
	col, ok := c.byName[name]
	return col, ok
}

// ByValue looks a colour up by bit pattern.
func (c *Chart) ByValue(value int32) (Colour, bool) {
	col, ok := c.byValue[value]
	return col, ok
}

// Contains reports whether name is registered.
func (c *Chart) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Len returns the number of registered colours, built-ins included.
func (c *Chart) Len() int {
	return len(c.byName)
}

// Colours returns every registered colour ordered by value.
func (c *Chart) Colours() []Colour {
	out := slices.Collect(maps.Values(c.byName))
	slices.SortFunc(out, func(a, b Colour) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})
	return out
}

// TryGetNewColour ORs base with constituents. The result is only valid when
// the combined bit pattern was registered; otherwise Invalid is returned.
func (c *Chart) TryGetNewColour(base Colour, constituents ...Colour) (Colour, bool) {
	if base.IsInvalid() {
		return Invalid, false
	}
	value := base.Value
	for _, constituent := range constituents {
		if constituent.IsInvalid() {
			return Invalid, false
		}
		value |= constituent.Value
	}

	if col, ok := c.byValue[value]; ok {
		return col, true
	}
	return Invalid, false
}

// AddColour registers a colour. Without components it becomes a new base
// colour owning the next free bit; with components its value is their OR.
func (c *Chart) AddColour(name, description string, components []string) (Colour, error) {
	if _, exists := c.byName[name]; exists {
		return Invalid, fmt.Errorf("%w: %s", ErrDuplicateColour, name)
	}

	var value int32
	if len(components) == 0 {
		if c.baseCount >= MaxBaseColours {
			return Invalid, fmt.Errorf("%w: cannot add %s, only %d are supported", ErrTooManyBaseColours, name, MaxBaseColours)
		}
		value = 1 << c.baseCount
		c.baseCount++
		c.logger.Debug("adding base colour", "name", name, "value", value)
	} else {
		for _, component := range components {
			col, ok := c.byName[component]
			if !ok {
				return Invalid, fmt.Errorf("%w: %s is a component of %s", ErrUnknownColour, component, name)
			}
			value |= col.Value
		}
	}

	if existing, taken := c.byValue[value]; taken {
		return Invalid, fmt.Errorf("%w: %s has the same value as %s", ErrDuplicateColour, name, existing.Name)
	}

	col := Colour{Name: name, Description: description, Value: value}
	c.byName[name] = col
	c.byValue[value] = col
	c.logger.Debug("added colour", "name", name, "value", value)
	return col, nil
}

// SetAttributes overrides the display attributes of a colour.
func (c *Chart) SetAttributes(name string, attrs map[string]string) {
	c.attributes[name] = maps.Clone(attrs)
}

// Attributes returns display attributes for a colour, used when decorating
// rendered graphs.
func (c *Chart) Attributes(name string) map[string]string {
	if attrs, ok := c.attributes[name]; ok {
		return maps.Clone(attrs)
	}

	attrs := map[string]string{
		"shape": "rectangle",
		"color": strings.ToLower(name),
		"style": "filled",
	}
	switch name {
	case DefaultName:
		attrs["color"] = "gold"
	case InvalidName:
		attrs["color"] = "black"
		attrs["fontcolor"] = "white"
	}
	return attrs
}
