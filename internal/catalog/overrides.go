package catalog

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultOverrideFile is the default override file name.
const DefaultOverrideFile = ".namescan"

// ErrOverrideNotFound is returned when the override file does not exist.
var ErrOverrideNotFound = errors.New("override file not found")

// SiteOverride adjusts one catalog descriptor without editing the
// site database itself.
type SiteOverride struct {
	// Disabled removes the site from the run entirely.
	Disabled bool `yaml:"disabled,omitempty"`

	// Headers are extra request headers merged over the site's own.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Overrides represents the structure of the .namescan override file.
type Overrides struct {
	// Sites maps catalog site names to their overrides.
	Sites map[string]SiteOverride `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to every site unless the
	// site-specific entry overrides them.
	Defaults SiteOverride `yaml:"defaults,omitempty"`
}

// LoadOverrides loads site overrides from a YAML file.
// If the file does not exist, it returns ErrOverrideNotFound; callers
// decide whether that matters based on whether the path was explicit.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided override path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o.Sites == nil {
		o.Sites = make(map[string]SiteOverride)
	}
	return &o, nil
}

// FindOverrideFile searches for the override file in the following order:
// 1. If path is specified, use it directly
// 2. Look for .namescan in the current directory
// 3. Look for .namescan in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindOverrideFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultOverrideFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultOverrideFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Apply returns a new catalog with the overrides folded in: disabled
// sites removed and header maps merged (defaults first, then the
// site-specific entry, then the override wins over the descriptor).
func (o *Overrides) Apply(c *Catalog) *Catalog {
	out := &Catalog{Invalid: c.Invalid}
	for _, d := range c.sites {
		site, hasSite := o.Sites[d.Name]
		if (hasSite && site.Disabled) || (!hasSite && o.Defaults.Disabled) {
			continue
		}

		merged := mergeHeaders(d.Headers, o.Defaults.Headers)
		if hasSite {
			merged = mergeHeaders(merged, site.Headers)
		}
		if len(merged) != len(d.Headers) || !sameHeaders(merged, d.Headers) {
			// Copy-on-write: descriptors are shared and immutable, so a
			// header change produces a fresh descriptor value.
			clone := *d
			clone.Headers = merged
			out.sites = append(out.sites, &clone)
			continue
		}
		out.sites = append(out.sites, d)
	}
	return out
}

// mergeHeaders merges override headers over base without mutating either.
func mergeHeaders(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// sameHeaders reports whether two header maps hold identical entries.
func sameHeaders(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
