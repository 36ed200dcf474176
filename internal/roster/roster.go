// Package roster loads the set of radiologists whose readings are tracked.
package roster

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pdptracker/internal/core"
)

//go:embed default_roster.yaml
var defaultRoster []byte

type file struct {
	People []core.Person `yaml:"people"`
}

var (
	ErrEmptyRoster = errors.New("roster has no people")
	ErrDuplicateID = errors.New("duplicate person id")
)

// Default returns the built-in roster.
func Default() []core.Person {
	people, err := Parse(defaultRoster)
	if err != nil {
		panic(fmt.Sprintf("embedded roster: %v", err))
	}
	return people
}

// Load reads a roster from path, falling back to the built-in roster when
// path is empty.
func Load(path string) ([]core.Person, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	people, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	return people, nil
}

// Parse decodes and validates a YAML roster document. Order is preserved.
func Parse(data []byte) ([]core.Person, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(f.People) == 0 {
		return nil, ErrEmptyRoster
	}
	seen := make(map[string]struct{}, len(f.People))
	for i, p := range f.People {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("person %d: %w", i, core.ErrEmptyID)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		f.People[i].ID = id
		if f.People[i].Corto == "" {
			f.People[i].Corto = p.Nombre
		}
	}
	return f.People, nil
}

// IDs returns the person ids in roster order.
func IDs(people []core.Person) []string {
	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}
	return ids
}
