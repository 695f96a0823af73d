package core

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed options.yaml
var defaultCatalogYAML []byte

// Column describes one category column of the grid.
type Column struct {
	Key     string   `yaml:"key"`
	Title   string   `yaml:"title"`
	Options []string `yaml:"options"`
}

// Catalog is the closed set of sub-category options offered per column.
type Catalog struct {
	Columns [NumCategories]Column
}

type catalogDocument struct {
	Columns []Column `yaml:"columns"`
}

// DefaultCatalog returns the embedded option lists.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded options.yaml: %v", err))
	}
	return c
}

// LoadCatalogFile reads an option catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a YAML option catalog. It must list
// exactly four columns, each with a key, a title and at least one option
// satisfying IsValidCategoryLabel.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Columns) != NumCategories {
		return nil, fmt.Errorf("expected %d columns, got %d", NumCategories, len(doc.Columns))
	}

	c := &Catalog{}
	seen := map[string]bool{}
	for i, col := range doc.Columns {
		col.Key = strings.TrimSpace(col.Key)
		if col.Key == "" {
			return nil, fmt.Errorf("column %d: empty key", i)
		}
		if seen[col.Key] {
			return nil, fmt.Errorf("column %d: duplicate key %q", i, col.Key)
		}
		seen[col.Key] = true
		if strings.TrimSpace(col.Title) == "" {
			return nil, fmt.Errorf("column %q: empty title", col.Key)
		}
		if len(col.Options) == 0 {
			return nil, fmt.Errorf("column %q: no options", col.Key)
		}
		for _, opt := range col.Options {
			if !IsValidCategoryLabel(opt) {
				return nil, fmt.Errorf("column %q: invalid option %q", col.Key, opt)
			}
		}
		c.Columns[i] = col
	}
	return c, nil
}

// DefaultLabel is the first option of column col.
func (c *Catalog) DefaultLabel(col int) string {
	return c.Columns[col].Options[0]
}

// Titles returns the column titles in grid order, used as chart labels.
func (c *Catalog) Titles() [NumCategories]string {
	var out [NumCategories]string
	for i, col := range c.Columns {
		out[i] = col.Title
	}
	return out
}

// ColumnIndex resolves a column key ("housing") or a decimal index ("0").
func (c *Catalog) ColumnIndex(keyOrIndex string) (int, error) {
	keyOrIndex = strings.TrimSpace(keyOrIndex)
	for i, col := range c.Columns {
		if col.Key == keyOrIndex {
			return i, nil
		}
	}
	if len(keyOrIndex) == 1 && keyOrIndex[0] >= '0' && keyOrIndex[0] < '0'+NumCategories {
		return int(keyOrIndex[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: unknown column %q", ErrOutOfGrid, keyOrIndex)
}

// HasOption reports whether label is one of the offered options of col.
func (c *Catalog) HasOption(col int, label string) bool {
	for _, opt := range c.Columns[col].Options {
		if opt == label {
			return true
		}
	}
	return false
}
