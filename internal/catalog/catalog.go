// Package catalog provides a file-backed templates.Catalog: the set of
// templates owned by other projects that build types may reference.
package catalog

import (
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/specialistvlad/pipedef/internal/ident"
	"github.com/specialistvlad/pipedef/internal/templates"
	"github.com/specialistvlad/pipedef/internal/yamlconf"
)

// Catalog is an in-memory template catalog.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*templates.Template
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{templates: make(map[string]*templates.Template)}
}

// Load reads one or more YAML catalog files.
func Load(paths ...string) (*Catalog, error) {
	c := New()
	for _, path := range paths {
		specs, err := yamlconf.LoadTemplates(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		for _, spec := range specs {
			if err := c.Add(templates.FromSpec(spec)); err != nil {
				return nil, fmt.Errorf("catalog %s: %w", path, err)
			}
		}
	}
	return c, nil
}

// Add stores a template. The id must be a valid entity id and unique.
func (c *Catalog) Add(t templates.Template) error {
	if err := ident.ValidateEntityID(ident.KindTemplate, t.ID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.templates[t.ID]; ok {
		return &configerr.DuplicateIdError{Kind: ident.KindTemplate, ID: t.ID, Owner: "catalog"}
	}
	c.templates[t.ID] = t.Clone()
	return nil
}

// Lookup implements templates.Catalog.
func (c *Catalog) Lookup(id string) (*templates.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// IDs returns every template id in the catalog, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
