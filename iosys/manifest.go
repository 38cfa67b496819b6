package iosys

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Manifest overrides per-relation IO directives without editing the source
// program (SPEC_FULL.md §10.3): a relation name maps to a directive
// override set, merged on top of (not replacing) the program's own
// directives.
type Manifest struct {
	Relations map[string]map[string]string `yaml:"relations"`
}

// LoadManifest parses a YAML directives manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "iosys: reading manifest %q", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "iosys: parsing manifest %q", path)
	}
	return &m, nil
}

// Apply merges the manifest's overrides for relation on top of base,
// without mutating base. Manifest keys win on conflict.
func (m *Manifest) Apply(relation string, base map[string]string) map[string]string {
	out := make(map[string]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	if m == nil {
		return out
	}
	for k, v := range m.Relations[relation] {
		out[k] = v
	}
	return out
}
