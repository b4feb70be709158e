package checks

import "fmt"

// Catalog is an ordered, immutable set of checks keyed by ID. It is built
// once at startup and then shared read-only by every run.
type Catalog struct {
	checks []Check
	index  map[string]Check
}

// NewCatalog returns a catalog holding checks in the given order.
// Panics on duplicate check IDs to catch wiring mistakes at startup.
func NewCatalog(checks ...Check) *Catalog {
	c := &Catalog{
		checks: make([]Check, 0, len(checks)),
		index:  make(map[string]Check, len(checks)),
	}
	for _, chk := range checks {
		if _, exists := c.index[chk.ID()]; exists {
			panic(fmt.Sprintf("duplicate check ID: %q", chk.ID()))
		}
		c.checks = append(c.checks, chk)
		c.index[chk.ID()] = chk
	}
	return c
}

// All returns all checks in registration order. The returned slice is a copy.
func (c *Catalog) All() []Check {
	return append([]Check(nil), c.checks...)
}

// Get returns the check with the given ID.
func (c *Catalog) Get(id string) (Check, bool) {
	chk, ok := c.index[id]
	return chk, ok
}

// IDs returns every check ID in registration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.checks))
	for i, chk := range c.checks {
		ids[i] = chk.ID()
	}
	return ids
}

// Len returns the number of checks in the catalog.
func (c *Catalog) Len() int { return len(c.checks) }
