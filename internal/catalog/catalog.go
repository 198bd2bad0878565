package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog is the ordered, read-only collection of site descriptors for
// one run. It is constructed once by Load and passed by reference into
// the probing engine; nothing mutates it after construction.
type Catalog struct {
	sites []*SiteDescriptor

	// Invalid lists descriptors rejected during loading. The caller is
	// expected to log these; they never abort the run.
	Invalid []InvalidSite
}

// Sites returns the descriptors in catalog order.
// The returned slice must not be modified.
func (c *Catalog) Sites() []*SiteDescriptor {
	return c.sites
}

// Len returns the number of valid descriptors.
func (c *Catalog) Len() int {
	return len(c.sites)
}

// Lookup returns the descriptor with the given name, matched
// case-insensitively, or nil when absent.
func (c *Catalog) Lookup(name string) *SiteDescriptor {
	for _, d := range c.sites {
		if strings.EqualFold(d.Name, name) {
			return d
		}
	}
	return nil
}

// Select returns a new catalog restricted to the named sites, preserving
// catalog order. Requesting a site that does not exist is fatal: it
// returns ErrSiteNotFound naming every missing site.
func (c *Catalog) Select(names []string) (*Catalog, error) {
	if len(names) == 0 {
		return c, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	sub := &Catalog{Invalid: c.Invalid}
	for _, d := range c.sites {
		if wanted[strings.ToLower(d.Name)] {
			sub.sites = append(sub.sites, d)
			delete(wanted, strings.ToLower(d.Name))
		}
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for n := range wanted {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, strings.Join(missing, ", "))
	}
	return sub, nil
}

// SortByRank returns a new catalog ordered by ascending rank.
// Unranked sites (rank zero) sort last, keeping their relative order.
func (c *Catalog) SortByRank() *Catalog {
	sorted := &Catalog{
		sites:   make([]*SiteDescriptor, len(c.sites)),
		Invalid: c.Invalid,
	}
	copy(sorted.sites, c.sites)

	sort.SliceStable(sorted.sites, func(i, j int) bool {
		ri, rj := sorted.sites[i].Rank, sorted.sites[j].Rank
		if ri == 0 {
			return false
		}
		if rj == 0 {
			return true
		}
		return ri < rj
	})
	return sorted
}
