package templates

import (
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/specialistvlad/pipedef/internal/ident"
)

const componentName = "template resolver"

// Resolver holds the templates known to a project.
type Resolver struct {
	mu       sync.RWMutex
	frozen   bool
	local    map[string]*Template
	external map[string]*Template
	catalog  Catalog
}

// NewResolver creates a resolver. catalog may be nil.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{
		local:    make(map[string]*Template),
		external: make(map[string]*Template),
		catalog:  catalog,
	}
}

// Register adds a local template.
func (r *Resolver) Register(t Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &configerr.FrozenStateError{Component: componentName, Op: fmt.Sprintf("register %q", t.ID)}
	}
	if err := ident.ValidateEntityID(ident.KindTemplate, t.ID); err != nil {
		return err
	}
	if r.exists(t.ID) {
		return &configerr.DuplicateIdError{Kind: ident.KindTemplate, ID: t.ID}
	}

	var errs []error
	seenSteps := make(map[string]struct{}, len(t.Steps))
	for _, s := range t.Steps {
		if err := ident.ValidateFeatureID(ident.KindStep, s.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := seenSteps[s.ID]; ok {
			errs = append(errs, &configerr.DuplicateIdError{Kind: ident.KindStep, ID: s.ID, Owner: "template " + t.ID})
		}
		seenSteps[s.ID] = struct{}{}
	}
	seenFeatures := make(map[string]struct{}, len(t.Features))
	for _, f := range t.Features {
		if err := ident.ValidateFeatureID(ident.KindFeature, f.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := seenFeatures[f.ID]; ok {
			errs = append(errs, &configerr.DuplicateIdError{Kind: ident.KindFeature, ID: f.ID, Owner: "template " + t.ID})
		}
		seenFeatures[f.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c := t.Clone()
	c.External = false
	r.local[t.ID] = c
	return nil
}

// RegisterExternal records an opaque reference to a template owned by
// another project. Only the id grammar is checked.
func (r *Resolver) RegisterExternal(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &configerr.FrozenStateError{Component: componentName, Op: fmt.Sprintf("register external %q", id)}
	}
	if err := ident.ValidateEntityID(ident.KindTemplate, id); err != nil {
		return err
	}
	if r.exists(id) {
		return &configerr.DuplicateIdError{Kind: ident.KindTemplate, ID: id}
	}
	r.external[id] = &Template{ID: id, External: true}
	return nil
}

func (r *Resolver) exists(id string) bool {
	_, local := r.local[id]
	_, external := r.external[id]
	return local || external
}

// Resolve returns the template with the given id. Local templates come
// first, then the catalog, then opaque external placeholders. The returned
// value is a copy.
func (r *Resolver) Resolve(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(id)
}

func (r *Resolver) resolve(id string) (*Template, error) {
	if t, ok := r.local[id]; ok {
		return t.Clone(), nil
	}
	if r.catalog != nil {
		if t, ok := r.catalog.Lookup(id); ok && t != nil {
			c := t.Clone()
			c.ID = id
			c.External = true
			return c, nil
		}
	}
	if t, ok := r.external[id]; ok {
		return t.Clone(), nil
	}
	return nil, &configerr.UnknownTemplateError{ID: id}
}

// Compose applies templateIDs in order and then the build type's own
// features. Steps are concatenated. A feature id that is already present
// replaces the earlier feature in place when that one is overridable and is
// otherwise a *configerr.FeatureCollisionError. Every problem found is
// returned, joined.
//
// Collisions among the build type's own features are not reported here; the
// first one is kept.
func (r *Resolver) Compose(buildTypeID string, templateIDs []string, own []Feature) (*Composition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comp := &Composition{Origins: make(map[string]string)}
	index := make(map[string]int)
	var errs []error

	self := "build type " + buildTypeID
	apply := func(f Feature, source string) {
		i, exists := index[f.ID]
		if !exists {
			index[f.ID] = len(comp.Features)
			comp.Features = append(comp.Features, f.Clone())
			comp.Origins[f.ID] = source
			return
		}
		existing := comp.Origins[f.ID]
		if existing == self && source == self {
			return
		}
		if !comp.Features[i].Overridable {
			errs = append(errs, &configerr.FeatureCollisionError{
				BuildType: buildTypeID,
				FeatureID: f.ID,
				Source:    source,
				Existing:  existing,
			})
			return
		}
		comp.Features[i] = f.Clone()
		comp.Origins[f.ID] = source
	}

	for _, id := range templateIDs {
		t, err := r.resolve(id)
		if err != nil {
			var unknown *configerr.UnknownTemplateError
			if errors.As(err, &unknown) {
				unknown.BuildType = buildTypeID
			}
			errs = append(errs, err)
			continue
		}
		comp.Templates = append(comp.Templates, t)
		for _, s := range t.Steps {
			comp.Steps = append(comp.Steps, s.Clone())
		}
		for _, f := range t.Features {
			apply(f, "template "+t.ID)
		}
	}
	for _, f := range own {
		apply(f, self)
	}

	if len(errs) > 0 {
		return comp, errors.Join(errs...)
	}
	return comp, nil
}

// Freeze makes the resolver read-only.
func (r *Resolver) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}
