package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Table is an in-memory catalogue, usually loaded from a YAML file of the
// form:
//
//	sources:
//	  - name: B0329+54
//	    dm: 26.7641
//	    aliases: [J0332+5434]
type Table struct {
	dms map[string]float64
}

type tableFile struct {
	Sources []tableEntry `yaml:"sources"`
}

type tableEntry struct {
	Name    string   `yaml:"name"`
	DM      float64  `yaml:"dm"`
	Aliases []string `yaml:"aliases"`
}

// NewTable builds a Table from name -> DM pairs.
func NewTable(dms map[string]float64) *Table {
	t := &Table{dms: make(map[string]float64, len(dms))}
	for name, dm := range dms {
		t.dms[NormalizeName(name)] = dm
	}
	return t
}

// LoadTable reads a YAML catalogue file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()
	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes a YAML catalogue.
func ParseTable(r io.Reader) (*Table, error) {
	var tf tableFile
	if err := yaml.NewDecoder(r).Decode(&tf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	t := &Table{dms: make(map[string]float64)}
	for i, e := range tf.Sources {
		if e.Name == "" {
			return nil, fmt.Errorf("parse catalogue: entry %d has no name", i)
		}
		t.dms[NormalizeName(e.Name)] = e.DM
		for _, a := range e.Aliases {
			t.dms[NormalizeName(a)] = e.DM
		}
	}
	return t, nil
}

// Len returns the number of names (including aliases) in the table.
func (t *Table) Len() int { return len(t.dms) }

func (t *Table) ExpectedDM(_ context.Context, source string) (float64, error) {
	dm, ok := t.dms[NormalizeName(source)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, source)
	}
	return dm, nil
}
