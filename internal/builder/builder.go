package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/specialistvlad/pipedef/internal/dag"
	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/ident"
	"github.com/specialistvlad/pipedef/internal/params"
	"github.com/specialistvlad/pipedef/internal/templates"
)

const componentName = "project builder"

// Builder collects build types and turns them into a ResolvedProject.
type Builder struct {
	mu sync.RWMutex

	info            ProjectInfo
	params          *params.Registry
	resolver        *templates.Resolver
	kinds           *featurekind.Registry
	runtimePrefixes []string

	buildTypes      map[string]*BuildTypeDef
	order           []string
	projectFeatures []templates.Feature

	state    State
	resolved *ResolvedProject
}

// New creates a builder over an existing parameter registry and template
// resolver. kinds may be nil, in which case every feature kind is opaque.
func New(info ProjectInfo, reg *params.Registry, resolver *templates.Resolver, kinds *featurekind.Registry) *Builder {
	if kinds == nil {
		kinds = featurekind.New()
	}
	return &Builder{
		info:            info,
		params:          reg,
		resolver:        resolver,
		kinds:           kinds,
		runtimePrefixes: slices.Clone(DefaultRuntimePrefixes),
		buildTypes:      make(map[string]*BuildTypeDef),
	}
}

// Params returns the parameter registry the builder resolves against.
func (b *Builder) Params() *params.Registry {
	return b.params
}

// Resolver returns the template resolver.
func (b *Builder) Resolver() *templates.Resolver {
	return b.resolver
}

// State returns the current lifecycle state.
func (b *Builder) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// AddBuildType registers a build type definition.
func (b *Builder) AddBuildType(def BuildTypeDef) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateFrozen {
		return &configerr.FrozenStateError{Component: componentName, Op: fmt.Sprintf("add build type %q", def.ID)}
	}
	if err := ident.ValidateEntityID(ident.KindBuildType, def.ID); err != nil {
		return err
	}
	if _, exists := b.buildTypes[def.ID]; exists {
		return &configerr.DuplicateIdError{Kind: ident.KindBuildType, ID: def.ID}
	}

	b.buildTypes[def.ID] = def.clone()
	b.order = append(b.order, def.ID)
	b.state = StateUnvalidated
	return nil
}

// AddProjectFeature registers a project-level feature such as an issue
// tracker.
func (b *Builder) AddProjectFeature(f templates.Feature) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateFrozen {
		return &configerr.FrozenStateError{Component: componentName, Op: fmt.Sprintf("add project feature %q", f.ID)}
	}
	if err := ident.ValidateFeatureID(ident.KindFeature, f.ID); err != nil {
		return err
	}
	for _, existing := range b.projectFeatures {
		if existing.ID == f.ID {
			return &configerr.DuplicateIdError{Kind: ident.KindFeature, ID: f.ID, Owner: "project"}
		}
	}

	b.projectFeatures = append(b.projectFeatures, f.Clone())
	b.state = StateUnvalidated
	return nil
}

// Validate runs every graph-level check. All violations are returned
// together as a *configerr.ValidationError.
func (b *Builder) Validate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateFrozen {
		return nil
	}
	_, err := b.validateLocked(ctx)
	return err
}

// Build validates the project and, on success, freezes the builder, the
// parameter registry and the template resolver. Calling Build again returns
// the same ResolvedProject.
func (b *Builder) Build(ctx context.Context) (*ResolvedProject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	if b.state == StateFrozen {
		logger.Debug("Project already built, returning frozen result.")
		return b.resolved, nil
	}

	v, err := b.validateLocked(ctx)
	if err != nil {
		return nil, err
	}

	rp := b.assemble(v)
	b.params.Freeze()
	b.resolver.Freeze()
	b.state = StateFrozen
	b.resolved = rp
	logger.Info("Project built.", "project", b.info.ID, "build_types", len(rp.buildTypes))
	return rp, nil
}

// validation carries intermediate results from validateLocked to assemble.
type validation struct {
	compositions map[string]*templates.Composition
	triggers     map[string][]templates.Feature
	dependents   map[string][]string
	order        []string
}

func (b *Builder) validateLocked(ctx context.Context) (*validation, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating project.", "project", b.info.ID, "build_types", len(b.order))

	v := &validation{
		compositions: make(map[string]*templates.Composition, len(b.order)),
		triggers:     make(map[string][]templates.Feature, len(b.order)),
	}
	var errs []error

	for _, f := range b.projectFeatures {
		errs = append(errs, b.checkFeature(params.ProjectScope, "project", f, true)...)
	}

	for _, id := range b.order {
		def := b.buildTypes[id]
		owner := "build type " + id
		scope := params.BuildTypeScope(id)

		own, dupErrs := uniqueFeatures(def.Features, ident.KindFeature, owner)
		errs = append(errs, dupErrs...)
		triggers, dupErrs := uniqueFeatures(def.Triggers, ident.KindTrigger, owner)
		errs = append(errs, dupErrs...)

		comp, err := b.resolver.Compose(id, def.Templates, own)
		if err != nil {
			errs = append(errs, flatten(err)...)
		}
		v.compositions[id] = comp
		v.triggers[id] = triggers

		for _, s := range comp.Steps {
			errs = append(errs, b.checkRefs(scope, fmt.Sprintf("%s step %q", owner, s.ID), s.Params, false)...)
		}
		for _, f := range comp.Features {
			errs = append(errs, b.checkFeature(scope, owner, f, false)...)
		}
		for _, f := range triggers {
			errs = append(errs, b.checkFeature(scope, owner, f, false)...)
		}
		ctxlog.FromContext(ctxlog.With(ctx, "build_type", id)).Debug("Build type checked.", "steps", len(comp.Steps), "features", len(comp.Features), "triggers", len(triggers))
	}
	errs = append(errs, b.checkParams()...)

	order, dependents, depErrs := b.checkDependencies(ctx)
	errs = append(errs, depErrs...)
	v.order = order
	v.dependents = dependents

	if len(errs) > 0 {
		b.state = StateUnvalidated
		logger.Debug("Project validation failed.", "violations", len(errs))
		return nil, &configerr.ValidationError{Violations: errs}
	}
	b.state = StateValidated
	logger.Debug("Project validation passed.")
	return v, nil
}

// uniqueFeatures drops repeated ids, reporting each repeat, and checks the
// id grammar.
func uniqueFeatures(in []templates.Feature, kind, owner string) ([]templates.Feature, []error) {
	var (
		out  []templates.Feature
		errs []error
	)
	seen := make(map[string]struct{}, len(in))
	for _, f := range in {
		if err := ident.ValidateFeatureID(kind, f.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", owner, err))
			continue
		}
		if _, ok := seen[f.ID]; ok {
			errs = append(errs, &configerr.DuplicateIdError{Kind: kind, ID: f.ID, Owner: owner})
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out, errs
}

func (b *Builder) checkFeature(scope params.Scope, owner string, f templates.Feature, requireValue bool) []error {
	referrer := fmt.Sprintf("%s feature %q", owner, f.ID)
	errs := b.checkRefs(scope, referrer, f.Params, requireValue)

	expanded := f.Clone()
	for k, val := range expanded.Params {
		if s, err := ident.Expand(val, b.lookup(scope)); err == nil {
			expanded.Params[k] = s
		}
	}
	return append(errs, b.kinds.Validate(owner, expanded)...)
}

// checkRefs verifies the `%name%` references in values. Names nobody declares
// are always reported. Declared names without a value are reported only when
// requireValue is set; otherwise checkParams covers them.
func (b *Builder) checkRefs(scope params.Scope, referrer string, values map[string]string, requireValue bool) []error {
	var errs []error
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		refs, err := ident.References(values[k])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s param %q: %w", referrer, k, err))
			continue
		}
		for _, name := range refs {
			if ident.HasPrefix(name, b.runtimePrefixes) {
				continue
			}
			decl, _, declared := b.params.Lookup(scope, name)
			if declared && (!requireValue || decl.Display == params.DisplayPrompt) {
				continue
			}
			if _, err := b.params.Resolve(scope, name); err == nil {
				continue
			}
			errs = append(errs, &configerr.UnresolvedParameterError{Name: name, Scope: string(scope), Referrer: referrer})
		}
	}
	return errs
}

// checkParams reports declared parameters that end up without a value. A
// build type parameter is reported in its own scope. A project parameter is
// reported once, when the project has no build types or at least one build
// type sees it without a value.
func (b *Builder) checkParams() []error {
	var errs []error
	missing := make(map[string]bool)
	for _, id := range b.order {
		scope := params.BuildTypeScope(id)
		for _, name := range b.unresolved(scope) {
			if _, declScope, _ := b.params.Lookup(scope, name); declScope == scope {
				errs = append(errs, &configerr.UnresolvedParameterError{Name: name, Scope: string(scope)})
				continue
			}
			missing[name] = true
		}
	}
	for _, name := range b.unresolved(params.ProjectScope) {
		if len(b.order) == 0 || missing[name] {
			errs = append(errs, &configerr.UnresolvedParameterError{Name: name, Scope: string(params.ProjectScope)})
		}
	}
	return errs
}

// unresolved lists the parameters visible in scope that have no value,
// skipping prompt parameters.
func (b *Builder) unresolved(scope params.Scope) []string {
	_, resolveErrs := b.params.ResolveAll(scope)
	var names []string
	for _, err := range resolveErrs {
		var u *configerr.UnresolvedParameterError
		if !errors.As(err, &u) {
			continue
		}
		if decl, _, ok := b.params.Lookup(scope, u.Name); ok && decl.Display == params.DisplayPrompt {
			continue
		}
		names = append(names, u.Name)
	}
	return names
}

// checkDependencies builds the depends_on graph. It returns the build order
// and, per build type, the build types that depend on it.
func (b *Builder) checkDependencies(ctx context.Context) ([]string, map[string][]string, []error) {
	g := dag.New()
	for _, id := range b.order {
		g.AddNode(id)
	}

	var errs []error
	for _, id := range b.order {
		for _, dep := range b.buildTypes[id].DependsOn {
			if !g.HasNode(dep) {
				errs = append(errs, &configerr.UnknownDependencyError{BuildType: id, Target: dep})
				continue
			}
			if err := g.AddEdge(dep, id); err != nil {
				errs = append(errs, err)
			}
		}
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		errs = append(errs, err)
	}

	dependents := make(map[string][]string)
	for _, id := range b.order {
		if ids, err := g.Dependents(id); err == nil && len(ids) > 0 {
			dependents[id] = ids
		}
	}
	ctxlog.FromContext(ctx).Debug("Dependency graph checked.", "nodes", g.Len(), "ordered", len(order))
	return order, dependents, errs
}

func (b *Builder) lookup(scope params.Scope) func(string) (string, bool) {
	return func(name string) (string, bool) {
		s, err := b.params.ResolveString(scope, name)
		return s, err == nil
	}
}

func (b *Builder) assemble(v *validation) *ResolvedProject {
	rp := &ResolvedProject{
		info:   b.info,
		params: b.resolveParams(params.ProjectScope),
		index:  make(map[string]*ResolvedBuildType, len(b.order)),
		order:  v.order,
	}
	for _, f := range b.projectFeatures {
		rp.features = append(rp.features, b.kinds.Normalize(f))
	}

	for _, id := range b.order {
		def := b.buildTypes[id]
		comp := v.compositions[id]

		bt := &ResolvedBuildType{
			ID:             def.ID,
			Name:           def.Name,
			Description:    def.Description,
			Templates:      slices.Clone(def.Templates),
			DependsOn:      slices.Clone(def.DependsOn),
			Dependents:     v.dependents[id],
			Steps:          cloneSteps(comp.Steps),
			FeatureOrigins: comp.Origins,
			Params:         b.resolveParams(params.BuildTypeScope(id)),
		}
		for _, f := range comp.Features {
			bt.Features = append(bt.Features, b.kinds.Normalize(f))
		}
		for _, f := range v.triggers[id] {
			bt.Triggers = append(bt.Triggers, b.kinds.Normalize(f))
		}
		rp.buildTypes = append(rp.buildTypes, bt)
		rp.index[id] = bt
	}
	return rp
}

func (b *Builder) resolveParams(scope params.Scope) []ResolvedParam {
	names := b.params.Visible(scope)
	out := make([]ResolvedParam, 0, len(names))
	for _, name := range names {
		decl, _, _ := b.params.Lookup(scope, name)
		binding, err := b.params.Binding(scope, name)
		if err != nil {
			out = append(out, newResolvedParam(decl, nil))
			continue
		}
		out = append(out, newResolvedParam(decl, &binding))
	}
	return out
}

// flatten unwraps errors joined with errors.Join.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
