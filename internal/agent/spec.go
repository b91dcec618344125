// Package agent loads agent configurations and dispatches prompts to a
// hosted text-generation model.
package agent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Spec is one agent's configuration: a named prompt template plus an
// output contract. Specs are immutable once loaded.
type Spec struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PromptTemplate string `json:"prompt_template"`

	// Structured marks agents whose output must parse as a JSON object.
	Structured bool `json:"structured,omitempty"`
}

func (s Spec) validate() error {
	if s.Name == "" {
		return errors.New("agent spec missing name")
	}
	if s.PromptTemplate == "" {
		return errors.Errorf("agent %q missing prompt_template", s.Name)
	}
	return ValidateTemplate(s.PromptTemplate, StateKeys)
}

// LoadSpec reads a single agent configuration file.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, errors.Wrapf(err, "failed to read agent file %s", path)
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return Spec{}, errors.Wrapf(err, "failed to parse agent file %s", path)
	}
	if err := spec.validate(); err != nil {
		return Spec{}, errors.Wrapf(err, "invalid agent file %s", path)
	}
	return spec, nil
}

// LoadDir loads every *.json agent file in a directory, keyed by agent
// name. Duplicate names are a load error.
func LoadDir(dir string) (map[string]Spec, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan agents dir %s", dir)
	}
	sort.Strings(paths)

	specs := make(map[string]Spec, len(paths))
	for _, path := range paths {
		spec, err := LoadSpec(path)
		if err != nil {
			return nil, err
		}
		if _, exists := specs[spec.Name]; exists {
			return nil, errors.Errorf("duplicate agent name %q in %s", spec.Name, dir)
		}
		specs[spec.Name] = spec
	}
	return specs, nil
}
