package colour

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Record is one entry of a colour configuration file. JSON keys match
// case-insensitively, so charts written as {"Name": ..., "ComponentColours":
// [...]} load as well.
type Record struct {
	Name             string            `yaml:"name" toml:"name" json:"name"`
	Description      string            `yaml:"description" toml:"description" json:"description"`
	ComponentColours []string          `yaml:"componentColours" toml:"componentColours" json:"componentColours"`
	Attributes       map[string]string `yaml:"attributes" toml:"attributes" json:"attributes"`
}

// tomlFile wraps records because TOML documents cannot have a top-level array.
type tomlFile struct {
	Colours []Record `toml:"colours"`
}

// LoadConfigFile reads colour records from a YAML, JSON or TOML file. JSON
// files may carry comments and trailing commas.
func LoadConfigFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading colour config: %w", err)
	}

	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var doc tomlFile
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("parsing colour config %s: %w", path, err)
		}
		records = doc.Colours
	case ".json", ".jsonc":
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parsing colour config %s: %w", path, err)
		}
		if err := json.Unmarshal(std, &records); err != nil {
			return nil, fmt.Errorf("parsing colour config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parsing colour config %s: %w", path, err)
		}
	}

	for i, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("parsing colour config %s: entry %d has no name", path, i)
		}
	}
	return records, nil
}

// AddColoursFromConfig registers records in dependency order. Each pass adds
// every record whose components are already known; resolution stops once a
// pass adds nothing. Records still pending at that point reference unknown
// colours or each other in a cycle.
func (c *Chart) AddColoursFromConfig(records []Record) error {
	pending := make([]Record, 0, len(records))
	for _, r := range records {
		// Built-in colours cannot be redefined, only restyled.
		if IsBuiltIn(r.Name) {
			if r.Attributes != nil {
				c.SetAttributes(r.Name, r.Attributes)
			}
			continue
		}
		pending = append(pending, r)
	}

	maxPasses := len(pending) + 1
	for pass := 0; len(pending) > 0; pass++ {
		if pass >= maxPasses {
			return fmt.Errorf("%w: no convergence after %d passes for: %s", ErrUnresolvable, pass, joinNames(pending))
		}

		var remaining []Record
		added := 0
		for _, r := range pending {
			if !c.canResolve(r) {
				remaining = append(remaining, r)
				continue
			}
			if _, err := c.AddColour(r.Name, r.Description, r.ComponentColours); err != nil {
				return err
			}
			if r.Attributes != nil {
				c.SetAttributes(r.Name, r.Attributes)
			}
			added++
		}

		if added == 0 {
			return fmt.Errorf("%w: unable to resolve dependencies for: %s", ErrUnresolvable, joinNames(remaining))
		}
		pending = remaining
	}

	c.logger.Info("colour chart loaded", "colours", c.Len())
	return nil
}

// LoadFile adds the colours defined in a configuration file.
func (c *Chart) LoadFile(path string) error {
	records, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	return c.AddColoursFromConfig(records)
}

func (c *Chart) canResolve(r Record) bool {
	for _, component := range r.ComponentColours {
		if !c.Contains(component) {
			return false
		}
	}
	return true
}

func joinNames(records []Record) string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}
