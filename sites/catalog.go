package sites

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/gnomonworks/sundial-forge/model"
)

var (
	ErrSiteExists   = errors.New("site already exists")
	ErrSiteNotFound = errors.New("site not found")
)

// Site is one observatory location an instrument can be generated for.
type Site struct {
	Name     string         `json:"name"`
	Location model.Location `json:"location"`
	// Timezone is the IANA zone of the site, informational only: all
	// computation runs in UTC and local solar time.
	Timezone string `json:"timezone,omitempty"`
	// MagneticDeclination in degrees east of true north, for builders
	// aligning a gnomon by compass.
	MagneticDeclination float64 `json:"magnetic_declination,omitempty"`
	Description         string  `json:"description,omitempty"`
}

// Validate checks the site record.
func (s Site) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: site name is required", model.ErrInvalidParameter)
	}
	return s.Location.Validate()
}

// Catalog is an in-memory, thread-safe store of observatory sites.
type Catalog struct {
	mu    sync.RWMutex
	sites map[string]Site
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{sites: make(map[string]Site)}
}

func siteKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add stores a new site. It returns ErrSiteExists if the name is
// already taken (names compare case-insensitively).
func (c *Catalog) Add(s Site) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.Location = s.Location.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	key := siteKey(s.Name)
	if _, exists := c.sites[key]; exists {
		return fmt.Errorf("%w: %q", ErrSiteExists, s.Name)
	}
	c.sites[key] = s
	return nil
}

// Get returns the site with the given name.
func (c *Catalog) Get(name string) (Site, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sites[siteKey(name)]
	if !ok {
		return Site{}, fmt.Errorf("%w: %q", ErrSiteNotFound, name)
	}
	return s, nil
}

// List returns a snapshot of all sites, ordered by name.
func (c *Catalog) List() []Site {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]Site, 0, len(c.sites))
	for _, s := range c.sites {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Len returns the number of sites in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sites)
}

// LoadFile merges a JSON array of sites into the catalog and returns
// how many were added. A name collision aborts with ErrSiteExists;
// sites before the collision stay added.
func (c *Catalog) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read sites file: %w", err)
	}

	var loaded []Site
	if err := json.Unmarshal(data, &loaded); err != nil {
		return 0, fmt.Errorf("parse sites file %s: %w", path, err)
	}

	added := 0
	for _, s := range loaded {
		if err := c.Add(s); err != nil {
			return added, fmt.Errorf("site %d of %s: %w", added+1, path, err)
		}
		added++
	}
	return added, nil
}
