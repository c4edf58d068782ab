package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Filename is the manifest file every package in a workspace declares
// itself with.
const Filename = "package.json"

// Manifest is the parsed shape of a package.json. Only the fields the
// dependency graph cares about are modeled; unknown fields are ignored.
type Manifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Private              bool              `json:"private"`
	Workspaces           Workspaces        `json:"workspaces"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	Scripts              map[string]string `json:"scripts"`
}

// Workspaces models the two shapes the workspaces field takes in the wild:
// a plain pattern array, or an object with a "packages" array (yarn's
// nohoist form).
type Workspaces struct {
	Patterns []string
}

func (w *Workspaces) UnmarshalJSON(data []byte) error {
	var patterns []string
	if err := json.Unmarshal(data, &patterns); err == nil {
		w.Patterns = patterns
		return nil
	}

	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("workspaces field is neither an array nor an object: %w", err)
	}
	w.Patterns = obj.Packages
	return nil
}

func (w Workspaces) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Patterns)
}

// IsEmpty reports whether the manifest declares no workspace patterns.
func (w Workspaces) IsEmpty() bool {
	return len(w.Patterns) == 0
}

// Parse decodes raw package.json content.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	return &m, nil
}

// Read loads and parses the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// AllDependencies merges every declared dependency block into one name→range
// map. Production dependencies win over dev, dev over optional, optional
// over peer when the same name is declared twice.
func (m *Manifest) AllDependencies() map[string]string {
	all := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies))
	for _, block := range []map[string]string{
		m.PeerDependencies,
		m.OptionalDependencies,
		m.DevDependencies,
		m.Dependencies,
	} {
		for name, rng := range block {
			all[name] = rng
		}
	}
	return all
}
