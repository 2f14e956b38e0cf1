package project

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/leapstack-labs/slnlint/internal/framework"
)

// FileStore reads and edits MSBuild project files on disk. It only looks at
// unconditioned property groups and does not expand properties or follow
// imports.
type FileStore struct{}

// NewFileStore returns a Store backed by the file system.
func NewFileStore() *FileStore {
	return &FileStore{}
}

type projectXML struct {
	PropertyGroups []propertyGroupXML `xml:"PropertyGroup"`
	ItemGroups     []itemGroupXML     `xml:"ItemGroup"`
}

type propertyGroupXML struct {
	Condition  string        `xml:"Condition,attr"`
	Properties []propertyXML `xml:",any"`
}

type propertyXML struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type itemGroupXML struct {
	Condition  string                `xml:"Condition,attr"`
	References []projectReferenceXML `xml:"ProjectReference"`
}

type projectReferenceXML struct {
	Include   string `xml:"Include,attr"`
	Condition string `xml:"Condition,attr"`
}

// Read implements Store.
func (s *FileStore) Read(p Path) (Metadata, error) {
	data, err := os.ReadFile(p.OS())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return Metadata{}, err
	}
	return ParseMetadata(data)
}

// ParseMetadata extracts properties and project references from project XML.
func ParseMetadata(data []byte) (Metadata, error) {
	var doc projectXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("parsing project xml: %w", err)
	}

	md := Metadata{Properties: make(map[string]string)}
	for _, group := range doc.PropertyGroups {
		if strings.TrimSpace(group.Condition) != "" {
			continue
		}
		for _, prop := range group.Properties {
			md.Properties[prop.XMLName.Local] = strings.TrimSpace(prop.Value)
		}
	}

	for _, group := range doc.ItemGroups {
		for _, ref := range group.References {
			if ref.Include == "" {
				continue
			}
			md.References = append(md.References, Reference{
				Include:        ref.Include,
				Condition:      strings.TrimSpace(ref.Condition),
				GroupCondition: strings.TrimSpace(group.Condition),
			})
		}
	}

	return md, nil
}

var (
	pluralFrameworksPattern = regexp.MustCompile(`(?s)<TargetFrameworks>.*?</TargetFrameworks>`)
	singleFrameworkPattern  = regexp.MustCompile(`(?s)<TargetFramework>.*?</TargetFramework>`)
	singleFrameworkLine     = regexp.MustCompile(`(?m)^[ \t]*<TargetFramework>[^<]*</TargetFramework>[ \t]*\r?\n?`)
	projectReferencePattern = regexp.MustCompile(`(?s)[ \t]*<ProjectReference\b[^>]*?\bInclude="([^"]*)"[^>]*?(?:/>|>.*?</ProjectReference>)[ \t]*(?:\r?\n)?`)
	projectEndPattern       = regexp.MustCompile(`</Project>\s*$`)
)

// WriteTargetFrameworks implements Store. A single framework is written as
// TargetFramework, several as TargetFrameworks.
func (s *FileStore) WriteTargetFrameworks(p Path, frameworks []framework.TargetFramework) error {
	return s.edit(p, func(content []byte) ([]byte, error) {
		return SetFrameworksXML(content, frameworks)
	})
}

// RemoveReferences implements Store.
func (s *FileStore) RemoveReferences(p Path, includes []string) error {
	return s.edit(p, func(content []byte) ([]byte, error) {
		return RemoveReferencesXML(content, includes), nil
	})
}

func (s *FileStore) edit(p Path, change func([]byte) ([]byte, error)) error {
	info, err := os.Stat(p.OS())
	if err != nil {
		return err
	}
	content, err := os.ReadFile(p.OS())
	if err != nil {
		return err
	}
	updated, err := change(content)
	if err != nil {
		return fmt.Errorf("editing %s: %w", p, err)
	}
	return os.WriteFile(p.OS(), updated, info.Mode().Perm())
}

// SetFrameworksXML rewrites the framework property of a project document.
func SetFrameworksXML(content []byte, frameworks []framework.TargetFramework) ([]byte, error) {
	if len(frameworks) == 0 {
		return nil, errors.New("a project needs at least one target framework")
	}

	element := fmt.Sprintf("<TargetFrameworks>%s</TargetFrameworks>", framework.Join(frameworks))
	if len(frameworks) == 1 {
		element = fmt.Sprintf("<TargetFramework>%s</TargetFramework>", frameworks[0])
	}

	switch {
	case pluralFrameworksPattern.Match(content):
		content = singleFrameworkLine.ReplaceAll(content, nil)
		return replaceFirst(pluralFrameworksPattern, content, element), nil
	case singleFrameworkPattern.Match(content):
		return replaceFirst(singleFrameworkPattern, content, element), nil
	default:
		loc := projectEndPattern.FindIndex(content)
		if loc == nil {
			return nil, errors.New("no closing </Project> element")
		}
		group := fmt.Sprintf("  <PropertyGroup>\n    %s\n  </PropertyGroup>\n", element)
		var buf bytes.Buffer
		buf.Write(content[:loc[0]])
		buf.WriteString(group)
		buf.Write(content[loc[0]:])
		return buf.Bytes(), nil
	}
}

// RemoveReferencesXML drops ProjectReference items whose Include is listed.
func RemoveReferencesXML(content []byte, includes []string) []byte {
	drop := make(map[string]bool, len(includes))
	for _, inc := range includes {
		drop[inc] = true
	}

	var buf bytes.Buffer
	last := 0
	for _, m := range projectReferencePattern.FindAllSubmatchIndex(content, -1) {
		include := string(content[m[2]:m[3]])
		if !drop[include] {
			continue
		}
		buf.Write(content[last:m[0]])
		last = m[1]
	}
	buf.Write(content[last:])
	return buf.Bytes()
}

func replaceFirst(re *regexp.Regexp, content []byte, replacement string) []byte {
	loc := re.FindIndex(content)
	if loc == nil {
		return content
	}
	var buf bytes.Buffer
	buf.Write(content[:loc[0]])
	buf.WriteString(replacement)
	buf.Write(content[loc[1]:])
	return buf.Bytes()
}
