package builder

import (
	"slices"

	"github.com/specialistvlad/pipedef/internal/templates"
)

// State is the lifecycle state of a Builder.
type State int

const (
	StateUnvalidated State = iota
	StateValidated
	StateFrozen
)

func (s State) String() string {
	switch s {
	case StateValidated:
		return "validated"
	case StateFrozen:
		return "frozen"
	default:
		return "unvalidated"
	}
}

// ProjectInfo is the project header.
type ProjectInfo struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
}

// BuildTypeDef is the input definition of a build type.
type BuildTypeDef struct {
	ID          string
	Name        string
	Description string
	Templates   []string
	DependsOn   []string
	Features    []templates.Feature
	Triggers    []templates.Feature
}

func (d BuildTypeDef) clone() *BuildTypeDef {
	c := d
	c.Templates = slices.Clone(d.Templates)
	c.DependsOn = slices.Clone(d.DependsOn)
	c.Features = cloneFeatures(d.Features)
	c.Triggers = cloneFeatures(d.Triggers)
	return &c
}

func cloneFeatures(in []templates.Feature) []templates.Feature {
	if in == nil {
		return nil
	}
	out := make([]templates.Feature, len(in))
	for i, f := range in {
		out[i] = f.Clone()
	}
	return out
}

func cloneSteps(in []templates.Step) []templates.Step {
	if in == nil {
		return nil
	}
	out := make([]templates.Step, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// DefaultRuntimePrefixes are parameter name prefixes the CI server supplies
// itself.
var DefaultRuntimePrefixes = []string{"teamcity.", "build.", "dep."}
