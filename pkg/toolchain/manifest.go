package toolchain

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Component names used throughout the release flows.
const (
	ComponentZKsyncOS = "zksync-os"
	ComponentEra      = "era"
)

//go:embed manifest.yaml
var defaultManifest []byte

// Pins describes one supported protocol release: the source refs it builds
// from, its protocol version numbers, and the local tool versions the flows
// were tested against.
type Pins struct {
	// ExecutionVersion is passed to genesis regeneration.
	ExecutionVersion int `yaml:"execution_version,omitempty" validate:"gte=0"`

	// ProvingVersion is patched into the server sources.
	ProvingVersion int `yaml:"proving_version,omitempty" validate:"gte=0"`

	// Refs pins git refs by repository name.
	Refs map[string]string `yaml:"refs,omitempty"`

	// PrebuildZKstackContracts marks releases whose ecosystem deployment
	// needs the zkstack-side contracts built first.
	PrebuildZKstackContracts bool `yaml:"prebuild_zkstack_contracts,omitempty"`

	// Tools pins local tool versions by binary name.
	Tools map[string]string `yaml:"tools" validate:"required,min=1"`
}

// Component groups the supported releases of one deployable component.
type Component struct {
	Releases map[string]Pins `yaml:"releases" validate:"required,min=1,dive"`
}

// Manifest is the full support matrix.
type Manifest struct {
	Components map[string]Component `yaml:"components" validate:"required,min=1,dive"`
}

// Load parses and validates the embedded manifest.
func Load() (*Manifest, error) {
	return parse(defaultManifest)
}

// LoadFile parses and validates a manifest from disk, for overriding the
// embedded matrix during development.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Manifest, error) {
	// Validate the raw document shape first, then decode into the typed
	// manifest; schema errors point at the YAML field names.
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := validateManifestSchema(doc); err != nil {
		return nil, fmt.Errorf("manifest rejected by schema: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := validator.New().Struct(m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Release returns the pins for one component release.
func (m *Manifest) Release(component, release string) (Pins, error) {
	c, ok := m.Components[component]
	if !ok {
		return Pins{}, fmt.Errorf("unknown component %q (have %s)",
			component, strings.Join(m.ComponentNames(), ", "))
	}
	p, ok := c.Releases[release]
	if !ok {
		return Pins{}, fmt.Errorf("unsupported %s release %q (have %s)",
			component, release, strings.Join(c.ReleaseNames(), ", "))
	}
	return p, nil
}

// ComponentNames returns the component names in sorted order.
func (m *Manifest) ComponentNames() []string {
	names := make([]string, 0, len(m.Components))
	for name := range m.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReleaseNames returns the release names in sorted order.
func (c Component) ReleaseNames() []string {
	names := make([]string, 0, len(c.Releases))
	for name := range c.Releases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolNames returns the pinned tool names in sorted order.
func (p Pins) ToolNames() []string {
	names := make([]string, 0, len(p.Tools))
	for name := range p.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns a copy of p restricted to the named tools, for flows that
// only touch part of the toolchain. A name the manifest does not pin stays
// in the result with an empty pin; Verify still requires its presence.
func (p Pins) Select(names ...string) Pins {
	sub := p
	sub.Tools = make(map[string]string, len(names))
	for _, name := range names {
		sub.Tools[name] = p.Tools[name]
	}
	return sub
}
