// Package manifest converts an environment's installed-package listing
// into requirements.yaml: a flat mapping of package name to version
// whose key order is the order the packages were reported in.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest file written into the workspace root.
const FileName = "requirements.yaml"

const headComment = "# Generated by gemkit from `pip list`; rewritten on every run."

// Entry is one installed package.
type Entry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Manifest is an ordered package listing.
type Manifest struct {
	Entries []Entry
}

// Len returns the number of packages.
func (m Manifest) Len() int {
	return len(m.Entries)
}

// Has reports whether a package with the given name is present.
// Names compare case-insensitively with '-' and '_' treated alike.
func (m Manifest) Has(name string) bool {
	want := normalize(name)
	for _, e := range m.Entries {
		if normalize(e.Name) == want {
			return true
		}
	}
	return false
}

// Version returns the version recorded for name.
func (m Manifest) Version(name string) (string, bool) {
	want := normalize(name)
	for _, e := range m.Entries {
		if normalize(e.Name) == want {
			return e.Version, true
		}
	}
	return "", false
}

// FromPipJSON parses the output of `pip list --format=json`.
// Order is preserved; a repeated name keeps its first position.
func FromPipJSON(data []byte) (Manifest, error) {
	var raw []Entry
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return Manifest{}, fmt.Errorf("parse pip list output: %w", err)
	}

	m := Manifest{Entries: make([]Entry, 0, len(raw))}
	seen := make(map[string]bool, len(raw))
	for i, e := range raw {
		if strings.TrimSpace(e.Name) == "" {
			return Manifest{}, fmt.Errorf("parse pip list output: entry %d has no name", i)
		}
		key := normalize(e.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

// Marshal renders m as YAML. Versions are always double-quoted strings so
// values like 1.10 survive a round trip.
func Marshal(m Manifest) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m.Entries {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Version, Style: yaml.DoubleQuotedStyle},
		)
	}
	if len(m.Entries) == 0 {
		mapping.Style = yaml.FlowStyle
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, HeadComment: headComment, Content: []*yaml.Node{mapping}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse reads a manifest back, keeping the file's key order.
func Parse(data []byte) (Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Manifest{}, err
	}
	if doc.Kind == 0 {
		return Manifest{}, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return Manifest{}, fmt.Errorf("%s must be a mapping of package name to version", FileName)
	}

	mapping := doc.Content[0]
	m := Manifest{Entries: make([]Entry, 0, len(mapping.Content)/2)}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k, v := mapping.Content[i], mapping.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return Manifest{}, fmt.Errorf("%s: value for %q is not a scalar (line %d)", FileName, k.Value, v.Line)
		}
		m.Entries = append(m.Entries, Entry{Name: k.Value, Version: v.Value})
	}
	return m, nil
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}
