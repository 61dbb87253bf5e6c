package featurekind

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/specialistvlad/pipedef/internal/templates"
)

// Module is the interface every feature kind module implements.
type Module interface {
	Register(r *Registry)
}

// Kind describes one feature kind.
type Kind struct {
	Name        string
	Description string
	// Validate reports every problem with the feature's parameters. Values
	// have had resolvable parameter references expanded; anything still
	// holding a reference is supplied at run time and should be skipped.
	Validate func(f templates.Feature) []error
	// Normalize, if set, fills in derived parameters on the resolved copy.
	Normalize func(f templates.Feature) templates.Feature
}

// Registry holds the registered kinds.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// Register adds a kind. Registering the same name twice is a programming
// error and panics.
func (r *Registry) Register(k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k.Name == "" {
		panic("featurekind: kind name must not be empty")
	}
	if _, exists := r.kinds[k.Name]; exists {
		panic(fmt.Sprintf("featurekind: kind %q registered twice", k.Name))
	}
	r.kinds[k.Name] = &k
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	if !ok {
		return Kind{}, false
	}
	return *k, true
}

// Names returns the registered kind names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Validate runs the kind's validator. Every violation is wrapped in a
// *configerr.FeatureKindError naming owner.
func (r *Registry) Validate(owner string, f templates.Feature) []error {
	k, ok := r.Lookup(f.Kind)
	if !ok || k.Validate == nil {
		return nil
	}
	var errs []error
	for _, err := range k.Validate(f) {
		errs = append(errs, &configerr.FeatureKindError{Owner: owner, FeatureID: f.ID, Kind: f.Kind, Err: err})
	}
	return errs
}

// Normalize returns f with the kind's derived parameters filled in. f itself
// is not modified.
func (r *Registry) Normalize(f templates.Feature) templates.Feature {
	k, ok := r.Lookup(f.Kind)
	c := f.Clone()
	if !ok || k.Normalize == nil {
		return c
	}
	return k.Normalize(c)
}

// HasReference reports whether value still holds a `%name%` reference.
func HasReference(value string) bool {
	return strings.Count(value, "%") >= 2
}

// Require reports a missing or empty parameter for each name.
func Require(f templates.Feature, names ...string) []error {
	var errs []error
	for _, n := range names {
		if strings.TrimSpace(f.Params[n]) == "" {
			errs = append(errs, fmt.Errorf("parameter %q is required", n))
		}
	}
	return errs
}

// Lines splits a multi-line parameter value into trimmed, non-empty lines.
func Lines(value string) []string {
	var out []string
	for _, line := range strings.Split(value, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
