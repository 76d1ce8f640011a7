// Package spice contains the shelf domain: the spice and dish catalogs, the
// per-session basket and the superset filter over dishes.
package spice

import "strings"

// Spice is one jar on the shelf. Name is the unique display key.
type Spice struct {
	Name  string
	Alias string
	Color string
}

// Dish is one entry of the dish catalog.
type Dish struct {
	Name     string
	Region   string
	Category string
	Heat     string
	Spices   []string
	ImageURL string
	WikiURL  string
}

// Validate checks the shelf entry invariants.
func (s Spice) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptySpiceName
	}
	return nil
}

// Validate checks the dish invariants. Spice names are not cross-checked
// against the shelf.
func (d Dish) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyDishName
	}
	if len(d.Spices) == 0 {
		return ErrNoSpices
	}
	return nil
}

// HasImage reports whether the dish carries a renderable image link.
func (d Dish) HasImage() bool {
	return isHTTPURL(d.ImageURL)
}

// HasWiki reports whether the dish carries a renderable encyclopedia link.
func (d Dish) HasWiki() bool {
	return isHTTPURL(d.WikiURL)
}

// UsesAll reports whether every name in spices appears in the dish's spice list.
func (d Dish) UsesAll(spices []string) bool {
	if len(spices) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(d.Spices))
	for _, s := range d.Spices {
		have[s] = struct{}{}
	}
	for _, s := range spices {
		if _, ok := have[s]; !ok {
			return false
		}
	}
	return true
}

// isHTTPURL accepts the schemes the page's img-src policy allows.
func isHTTPURL(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Catalog is the immutable pair of reference tables loaded at startup.
// Accessors hand out copies so callers cannot mutate shared state.
type Catalog struct {
	spices []Spice
	dishes []Dish
	index  map[string]int
}

// NewCatalog builds a catalog. Later duplicates of a spice name are ignored
// for lookups but kept on the shelf in input order.
func NewCatalog(spices []Spice, dishes []Dish) *Catalog {
	c := &Catalog{
		spices: make([]Spice, len(spices)),
		dishes: make([]Dish, len(dishes)),
		index:  make(map[string]int, len(spices)),
	}
	copy(c.spices, spices)
	for i, d := range dishes {
		d.Spices = append([]string(nil), d.Spices...)
		c.dishes[i] = d
	}
	for i, s := range c.spices {
		if _, dup := c.index[s.Name]; !dup {
			c.index[s.Name] = i
		}
	}
	return c
}

// Spices returns the shelf in catalog order.
func (c *Catalog) Spices() []Spice {
	out := make([]Spice, len(c.spices))
	copy(out, c.spices)
	return out
}

// Dishes returns the dish table in catalog order.
func (c *Catalog) Dishes() []Dish {
	out := make([]Dish, len(c.dishes))
	copy(out, c.dishes)
	return out
}

// Spice looks up a shelf entry by name.
func (c *Catalog) Spice(name string) (Spice, bool) {
	i, ok := c.index[name]
	if !ok {
		return Spice{}, false
	}
	return c.spices[i], true
}

// HasSpice reports whether name is on the shelf.
func (c *Catalog) HasSpice(name string) bool {
	_, ok := c.index[name]
	return ok
}

// SpiceCount returns the number of shelf entries.
func (c *Catalog) SpiceCount() int { return len(c.spices) }

// DishCount returns the number of dishes.
func (c *Catalog) DishCount() int { return len(c.dishes) }

// UnknownSpices lists dish spice names that have no shelf entry, in first-seen
// order. The catalog does not enforce the reference; this is for diagnostics.
func (c *Catalog) UnknownSpices() []string {
	seen := make(map[string]struct{})
	var unknown []string
	for _, d := range c.dishes {
		for _, s := range d.Spices {
			if _, ok := c.index[s]; ok {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			unknown = append(unknown, s)
		}
	}
	return unknown
}
