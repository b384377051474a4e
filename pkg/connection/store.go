package connection

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Store holds connections.yaml's raw (unexpanded) content in memory.
// It is safe for concurrent reads; there is no mutation path after
// Load.
type Store struct {
	raw file
}

// Load reads and parses the connections file at path. A missing file
// is not an error: it yields an empty Store, since a fresh project
// may not have declared any connections yet.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Store{raw: file{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrLoadFailed, path, err)
	}

	var parsed file
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrLoadFailed, path, err)
	}
	if parsed == nil {
		parsed = file{}
	}
	return &Store{raw: parsed}, nil
}

// List returns every connection entry, sorted by family then alias,
// with config unexpanded (placeholders like "${VAR}" are returned
// verbatim, never resolved).
func (s *Store) List() []Entry {
	var out []Entry
	for family, aliases := range s.raw {
		for alias, cfg := range aliases {
			out = append(out, Entry{Family: family, Alias: alias, Config: cfg})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}

// Lookup returns the raw (unexpanded) config for ref, or
// ErrFamilyNotFound / ErrAliasNotFound.
func (s *Store) Lookup(ref Reference) (map[string]any, error) {
	aliases, ok := s.raw[ref.Family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFamilyNotFound, ref.Family)
	}
	cfg, ok := aliases[ref.Alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAliasNotFound, ref.String())
	}
	return cfg, nil
}
