package builder

import (
	"maps"
	"slices"

	"github.com/specialistvlad/pipedef/internal/params"
	"github.com/specialistvlad/pipedef/internal/templates"
)

// ResolvedParam is a parameter as seen from one scope after resolution.
type ResolvedParam struct {
	Name        string   `json:"name" yaml:"name"`
	Kind        string   `json:"kind" yaml:"kind"`
	Value       string   `json:"value" yaml:"value"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Display     string   `json:"display" yaml:"display"`
	AllowEmpty  bool     `json:"allowEmpty" yaml:"allowEmpty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`
	// Source is the scope the value came from.
	Source     string `json:"source" yaml:"source"`
	Overridden bool   `json:"overridden,omitempty" yaml:"overridden,omitempty"`
	// Resolved is false for prompt parameters without a value and for
	// project parameters whose value every build type supplies itself.
	Resolved bool `json:"resolved" yaml:"resolved"`
}

func (p ResolvedParam) clone() ResolvedParam {
	p.Options = slices.Clone(p.Options)
	return p
}

func newResolvedParam(decl params.Parameter, b *params.Binding) ResolvedParam {
	rp := ResolvedParam{
		Name:        decl.Name,
		Kind:        decl.Kind.String(),
		Label:       decl.Label,
		Description: decl.Description,
		Display:     decl.Display.String(),
		AllowEmpty:  decl.AllowEmpty,
		Options:     slices.Clone(decl.Options),
		Format:      decl.Format,
	}
	if b != nil {
		rp.Value = params.String(b.Value)
		rp.Source = b.Source.String()
		rp.Overridden = b.Overridden
		rp.Resolved = true
	}
	return rp
}

// ResolvedBuildType is a build type with its templates applied.
type ResolvedBuildType struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Templates   []string `json:"templates,omitempty" yaml:"templates,omitempty"`
	DependsOn   []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	// Dependents lists the build types whose depends_on names this one.
	Dependents []string            `json:"dependents,omitempty" yaml:"dependents,omitempty"`
	Steps      []templates.Step    `json:"steps,omitempty" yaml:"steps,omitempty"`
	Features   []templates.Feature `json:"features,omitempty" yaml:"features,omitempty"`
	Triggers   []templates.Feature `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	// FeatureOrigins maps a feature id to the template or build type it came from.
	FeatureOrigins map[string]string `json:"featureOrigins,omitempty" yaml:"featureOrigins,omitempty"`
	Params         []ResolvedParam   `json:"params,omitempty" yaml:"params,omitempty"`
}

func (bt *ResolvedBuildType) clone() ResolvedBuildType {
	c := *bt
	c.Templates = slices.Clone(bt.Templates)
	c.DependsOn = slices.Clone(bt.DependsOn)
	c.Dependents = slices.Clone(bt.Dependents)
	c.Steps = cloneSteps(bt.Steps)
	c.Features = cloneFeatures(bt.Features)
	c.Triggers = cloneFeatures(bt.Triggers)
	c.FeatureOrigins = maps.Clone(bt.FeatureOrigins)
	c.Params = make([]ResolvedParam, len(bt.Params))
	for i, p := range bt.Params {
		c.Params[i] = p.clone()
	}
	return c
}

// Param returns the named parameter of the build type.
func (bt *ResolvedBuildType) Param(name string) (ResolvedParam, bool) {
	for _, p := range bt.Params {
		if p.Name == name {
			return p.clone(), true
		}
	}
	return ResolvedParam{}, false
}

// ResolvedProject is the frozen result of a successful Build. All accessors
// return copies, so it is safe for concurrent readers.
type ResolvedProject struct {
	info       ProjectInfo
	params     []ResolvedParam
	features   []templates.Feature
	buildTypes []*ResolvedBuildType
	index      map[string]*ResolvedBuildType
	order      []string
}

// Project returns the project header.
func (p *ResolvedProject) Project() ProjectInfo {
	return p.info
}

// Params returns the project-scope parameters, sorted by name.
func (p *ResolvedProject) Params() []ResolvedParam {
	out := make([]ResolvedParam, len(p.params))
	for i, rp := range p.params {
		out[i] = rp.clone()
	}
	return out
}

// Features returns the project-level features.
func (p *ResolvedProject) Features() []templates.Feature {
	return cloneFeatures(p.features)
}

// BuildTypes returns every build type in declaration order.
func (p *ResolvedProject) BuildTypes() []ResolvedBuildType {
	out := make([]ResolvedBuildType, len(p.buildTypes))
	for i, bt := range p.buildTypes {
		out[i] = bt.clone()
	}
	return out
}

// BuildType returns the build type with the given id.
func (p *ResolvedProject) BuildType(id string) (ResolvedBuildType, bool) {
	bt, ok := p.index[id]
	if !ok {
		return ResolvedBuildType{}, false
	}
	return bt.clone(), true
}

// Parameter returns name as seen from the build type with the given id. An
// empty id selects the project scope.
func (p *ResolvedProject) Parameter(buildTypeID, name string) (ResolvedParam, bool) {
	if buildTypeID == "" {
		for _, rp := range p.params {
			if rp.Name == name {
				return rp.clone(), true
			}
		}
		return ResolvedParam{}, false
	}
	bt, ok := p.index[buildTypeID]
	if !ok {
		return ResolvedParam{}, false
	}
	return bt.Param(name)
}

// BuildOrder returns the build type ids with dependencies first.
func (p *ResolvedProject) BuildOrder() []string {
	return slices.Clone(p.order)
}
