package cardname

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasesYAML string

// Aliases maps normalized shop spellings to official card names.
type Aliases struct {
	byName map[string]string
}

type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases reads an alias table from YAML with a top-level "aliases" map.
func LoadAliases(r io.Reader) (Aliases, error) {
	var file aliasFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return Aliases{byName: map[string]string{}}, nil
		}
		return Aliases{}, fmt.Errorf("decode aliases: %w", err)
	}

	byName := make(map[string]string, len(file.Aliases))
	for from, to := range file.Aliases {
		key := Normalize(from)
		to = strings.TrimSpace(to)
		if key == "" || to == "" {
			continue
		}
		byName[key] = to
	}
	return Aliases{byName: byName}, nil
}

// DefaultAliases returns the built-in alias table.
func DefaultAliases() Aliases {
	aliases, err := LoadAliases(strings.NewReader(defaultAliasesYAML))
	if err != nil {
		panic(err)
	}
	return aliases
}

// Lookup returns the official name for a normalized candidate.
func (a Aliases) Lookup(normalized string) (string, bool) {
	name, ok := a.byName[normalized]
	return name, ok
}

// Merge returns a table with the entries of other layered over a.
func (a Aliases) Merge(other Aliases) Aliases {
	merged := make(map[string]string, len(a.byName)+len(other.byName))
	for k, v := range a.byName {
		merged[k] = v
	}
	for k, v := range other.byName {
		merged[k] = v
	}
	return Aliases{byName: merged}
}

func (a Aliases) Len() int {
	return len(a.byName)
}
