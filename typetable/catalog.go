package typetable

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog indexes tables by name.
type Catalog struct {
	tables map[string]*Table
}

// NewCatalog returns a catalog holding tables. Later tables replace earlier
// ones with the same name.
func NewCatalog(tables ...*Table) *Catalog {
	c := &Catalog{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		c.tables[t.Name] = t
	}
	return c
}

// LoadDir builds a catalog from every .toml and .cbor file in dir.
func LoadDir(dir string) (*Catalog, error) {
	c := NewCatalog()
	if err := c.LoadDir(dir); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDir adds every table in dir. Two files defining the same table name
// is an error.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read table directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ExtTOML, ExtCBOR:
		default:
			continue
		}
		t, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if err := c.Add(t); err != nil {
			return fmt.Errorf("%s: %w", filepath.Join(dir, e.Name()), err)
		}
	}
	return nil
}

// Add registers t, refusing a name that is already present.
func (c *Catalog) Add(t *Table) error {
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}
	if _, dup := c.tables[t.Name]; dup {
		return fmt.Errorf("duplicate table %q", t.Name)
	}
	c.tables[t.Name] = t
	return nil
}

// Get returns the named table.
func (c *Catalog) Get(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Names lists table names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len is the number of tables.
func (c *Catalog) Len() int { return len(c.tables) }
