package keywords

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultCatalog []byte

// Keyword is a term with an advisory weight. Weights are carried through
// unchanged; nothing in the scoring uses them.
type Keyword struct {
	Term   string  `yaml:"term" json:"term"`
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// UnmarshalYAML accepts either a bare string or a {term, weight} map.
func (k *Keyword) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		k.Term = node.Value
		k.Weight = 1
		return nil
	}
	type plain Keyword
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Weight == 0 {
		p.Weight = 1
	}
	*k = Keyword(p)
	return nil
}

// Category is a named, ordered keyword list.
type Category struct {
	Name     string    `yaml:"name" json:"name"`
	Keywords []Keyword `yaml:"keywords" json:"keywords"`
}

// Terms returns the keyword terms in order.
func (c Category) Terms() []string {
	out := make([]string, len(c.Keywords))
	for i, k := range c.Keywords {
		out[i] = k.Term
	}
	return out
}

// NewCategory builds a category from plain terms with weight 1.
func NewCategory(name string, terms ...string) Category {
	c := Category{Name: name, Keywords: make([]Keyword, len(terms))}
	for i, t := range terms {
		c.Keywords[i] = Keyword{Term: t, Weight: 1}
	}
	return c
}

// Catalog holds the static fallback keyword lists, keyed by category name and
// kept in file order.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded keyword catalog is invalid: %v", err))
	}
	return c
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse keyword catalog: %w", err)
	}
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("keyword catalog: category %d has no name", i)
		}
	}
	return &c, nil
}

// LoadCatalog reads a catalog file and layers it over the built-in one:
// categories with a known name replace the default list, new names are
// appended.
func LoadCatalog(path string) (*Catalog, error) {
	base := DefaultCatalog()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword catalog: %w", err)
	}
	extra, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	base.Merge(extra)
	return base, nil
}

// Merge overlays other onto c.
func (c *Catalog) Merge(other *Catalog) {
	for _, oc := range other.Categories {
		replaced := false
		for i := range c.Categories {
			if c.Categories[i].Name == oc.Name {
				c.Categories[i] = oc
				replaced = true
				break
			}
		}
		if !replaced {
			c.Categories = append(c.Categories, oc)
		}
	}
}

// Names returns category names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		out[i] = cat.Name
	}
	return out
}

// Category looks up a category by name.
func (c *Catalog) Category(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// Fallback returns the static terms for a category, or nil.
func (c *Catalog) Fallback(name string) []string {
	cat, ok := c.Category(name)
	if !ok {
		return nil
	}
	return cat.Terms()
}
