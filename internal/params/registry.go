package params

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/specialistvlad/pipedef/internal/ident"
	"github.com/zclconf/go-cty/cty"
)

const componentName = "parameter registry"

// Registry holds parameter declarations and overrides for every scope of a
// single project.
type Registry struct {
	mu        sync.RWMutex
	frozen    bool
	decls     map[Scope]map[string]*Parameter
	overrides map[Scope]map[string]cty.Value
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		decls:     make(map[Scope]map[string]*Parameter),
		overrides: make(map[Scope]map[string]cty.Value),
	}
}

// Declare adds a parameter to scope. Declaring a name that already exists in
// the same scope fails with *configerr.DuplicateParameterError; the same name
// in a different scope is allowed and shadows the wider declaration, as long
// as both declare the same kind.
func (r *Registry) Declare(scope Scope, p Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &configerr.FrozenStateError{Component: componentName, Op: fmt.Sprintf("declare %q", p.Name)}
	}
	if err := ident.ValidateParameterName(p.Name); err != nil {
		return err
	}
	if _, exists := r.decls[scope][p.Name]; exists {
		return &configerr.DuplicateParameterError{Name: p.Name, Scope: string(scope)}
	}
	if p.Kind == KindEnum && len(p.Options) == 0 {
		return fmt.Errorf("parameter %q: enum parameters need at least one option", p.Name)
	}
	if p.Format != "" && p.Format != FormatSemver {
		return fmt.Errorf("parameter %q: unknown format %q", p.Name, p.Format)
	}
	if err := r.checkShadowing(scope, p); err != nil {
		return err
	}

	decl := p
	decl.Options = slices.Clone(p.Options)
	if decl.Default == cty.NilVal {
		decl.Default = cty.NullVal(decl.Kind.Type())
	}
	// An empty default on a non-empty parameter means the value must be
	// supplied by an override.
	if !decl.AllowEmpty && !decl.Default.IsNull() && decl.Default.Type().Equals(cty.String) && decl.Default.AsString() == "" {
		decl.Default = cty.NullVal(decl.Kind.Type())
	}
	if !decl.Default.IsNull() {
		if err := checkValue(&decl, scope, decl.Default); err != nil {
			return err
		}
	}

	if r.decls[scope] == nil {
		r.decls[scope] = make(map[string]*Parameter)
	}
	r.decls[scope][p.Name] = &decl
	return nil
}

// Override sets the value of name at scope. The nearest declaration visible
// from scope determines the expected type.
func (r *Registry) Override(scope Scope, name string, value cty.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &configerr.FrozenStateError{Component: componentName, Op: fmt.Sprintf("override %q", name)}
	}
	decl, _ := r.lookup(scope, name)
	if decl == nil {
		return &configerr.UnresolvedParameterError{Name: name, Scope: string(scope)}
	}
	if err := checkValue(decl, scope, value); err != nil {
		return err
	}

	if r.overrides[scope] == nil {
		r.overrides[scope] = make(map[string]cty.Value)
	}
	r.overrides[scope][name] = value
	return nil
}

// Resolve returns the value of name as seen from scope.
func (r *Registry) Resolve(scope Scope, name string) (cty.Value, error) {
	b, err := r.Binding(scope, name)
	if err != nil {
		return cty.NilVal, err
	}
	return b.Value, nil
}

// ResolveString is Resolve rendered as the string the CI runtime receives.
func (r *Registry) ResolveString(scope Scope, name string) (string, error) {
	v, err := r.Resolve(scope, name)
	if err != nil {
		return "", err
	}
	return String(v), nil
}

// Binding resolves name from scope and reports the scope the value came from.
func (r *Registry) Binding(scope Scope, name string) (Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.binding(scope, name)
}

func (r *Registry) binding(scope Scope, name string) (Binding, error) {
	decl, _ := r.lookup(scope, name)
	if decl == nil {
		return Binding{}, &configerr.UnresolvedParameterError{Name: name, Scope: string(scope)}
	}
	for _, s := range scope.chain() {
		if v, ok := r.overrides[s][name]; ok {
			return Binding{Parameter: *decl, Value: v, Source: s, Overridden: true}, nil
		}
		if d, ok := r.decls[s][name]; ok && d.HasDefault() {
			return Binding{Parameter: *decl, Value: d.Default, Source: s}, nil
		}
	}
	return Binding{}, &configerr.UnresolvedParameterError{Name: name, Scope: string(scope)}
}

// Lookup returns the declaration of name nearest to scope.
func (r *Registry) Lookup(scope Scope, name string) (Parameter, Scope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, declScope := r.lookup(scope, name)
	if decl == nil {
		return Parameter{}, ProjectScope, false
	}
	return *decl, declScope, true
}

func (r *Registry) lookup(scope Scope, name string) (*Parameter, Scope) {
	for _, s := range scope.chain() {
		if d, ok := r.decls[s][name]; ok {
			return d, s
		}
	}
	return nil, ProjectScope
}

// Visible returns the sorted names of every parameter declared in scope or
// any wider scope.
func (r *Registry) Visible(scope Scope) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visible(scope)
}

func (r *Registry) visible(scope Scope) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range scope.chain() {
		for name := range r.decls[s] {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ResolveAll resolves every parameter visible from scope. Parameters that do
// not resolve are reported as errors instead of stopping the walk.
func (r *Registry) ResolveAll(scope Scope) ([]Binding, []error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		bindings []Binding
		errs     []error
	)
	for _, name := range r.visible(scope) {
		b, err := r.binding(scope, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		bindings = append(bindings, b)
	}
	return bindings, errs
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// checkShadowing rejects a declaration whose kind disagrees with a
// declaration of the same name in the scope it shadows or is shadowed by.
func (r *Registry) checkShadowing(scope Scope, p Parameter) error {
	for s, decls := range r.decls {
		if s == scope || (scope != ProjectScope && s != ProjectScope) {
			continue
		}
		if other, ok := decls[p.Name]; ok && other.Kind != p.Kind {
			return &configerr.TypeMismatchError{
				Name:     p.Name,
				Expected: other.Kind.String(),
				Actual:   p.Kind.String(),
				Detail:   "declared as " + other.Kind.String() + " in scope " + s.String(),
			}
		}
	}
	return nil
}

// checkValue verifies that value is acceptable for the declaration.
func checkValue(decl *Parameter, scope Scope, value cty.Value) error {
	if value == cty.NilVal || value.IsNull() {
		return &configerr.TypeMismatchError{Name: decl.Name, Expected: decl.Kind.String(), Actual: "null"}
	}
	if !value.IsWhollyKnown() {
		return &configerr.TypeMismatchError{Name: decl.Name, Expected: decl.Kind.String(), Actual: "unknown value"}
	}
	if !value.Type().Equals(decl.Kind.Type()) {
		return &configerr.TypeMismatchError{Name: decl.Name, Expected: decl.Kind.String(), Actual: value.Type().FriendlyName()}
	}
	if decl.Kind == KindBool {
		return nil
	}

	s := value.AsString()
	if decl.Kind == KindEnum && !slices.Contains(decl.Options, s) {
		return &configerr.TypeMismatchError{
			Name:     decl.Name,
			Expected: "enum",
			Actual:   fmt.Sprintf("%q", s),
			Detail:   "must be one of " + strings.Join(decl.Options, ", "),
		}
	}
	if s == "" {
		if !decl.AllowEmpty {
			return &configerr.EmptyValueError{Name: decl.Name, Scope: string(scope)}
		}
		return nil
	}
	if decl.Format == FormatSemver {
		if _, err := semver.NewVersion(s); err != nil {
			return &configerr.InvalidFormatError{Name: decl.Name, Format: FormatSemver, Value: s, Err: err}
		}
	}
	return nil
}
