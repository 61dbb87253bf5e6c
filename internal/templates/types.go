package templates

import "maps"

// Step is a unit of work contributed by a template.
type Step struct {
	ID     string            `json:"id" yaml:"id"`
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Feature is an attachment to a build type: a trigger, a notifier, an issue
// tracker and so on. Kind selects the validator in the featurekind registry.
type Feature struct {
	ID     string            `json:"id" yaml:"id"`
	Kind   string            `json:"type" yaml:"type"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	// Overridable allows a feature applied later to replace this one.
	Overridable bool `json:"overridable,omitempty" yaml:"overridable,omitempty"`
}

// Clone returns a deep copy of f.
func (f Feature) Clone() Feature {
	f.Params = maps.Clone(f.Params)
	return f
}

// Clone returns a deep copy of s.
func (s Step) Clone() Step {
	s.Params = maps.Clone(s.Params)
	return s
}

// Template is a reusable set of steps and features.
type Template struct {
	ID          string
	Description string
	// External marks a template owned by another project. Its steps and
	// features are not known here.
	External bool
	Steps    []Step
	Features []Feature
}

// Clone returns a deep copy of t.
func (t *Template) Clone() *Template {
	c := *t
	c.Steps = make([]Step, len(t.Steps))
	for i, s := range t.Steps {
		c.Steps[i] = s.Clone()
	}
	c.Features = make([]Feature, len(t.Features))
	for i, f := range t.Features {
		c.Features[i] = f.Clone()
	}
	return &c
}

// Catalog looks up templates defined outside the project.
type Catalog interface {
	Lookup(id string) (*Template, bool)
}

// Composition is the concrete result of applying templates to a build type.
type Composition struct {
	Templates []*Template
	Steps     []Step
	Features  []Feature
	// Origins maps a feature id to the template (or build type) it came from.
	Origins map[string]string
}
