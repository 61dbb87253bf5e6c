package templates

import (
	"maps"

	"github.com/specialistvlad/pipedef/internal/config"
)

// FromSpec converts a loaded template declaration.
func FromSpec(spec *config.TemplateSpec) Template {
	t := Template{ID: spec.ID, Description: spec.Description, External: spec.External}
	for _, s := range spec.Steps {
		t.Steps = append(t.Steps, Step{ID: s.ID, Name: s.Name, Kind: s.Kind, Params: maps.Clone(s.Params)})
	}
	for _, f := range spec.Features {
		t.Features = append(t.Features, FeatureFromSpec(f))
	}
	return t
}

// FeatureFromSpec converts a loaded feature or trigger declaration.
func FeatureFromSpec(spec *config.FeatureSpec) Feature {
	return Feature{ID: spec.ID, Kind: spec.Kind, Params: maps.Clone(spec.Params), Overridable: spec.Overridable}
}

// FeaturesFromSpecs converts a list of feature declarations.
func FeaturesFromSpecs(specs []*config.FeatureSpec) []Feature {
	out := make([]Feature, 0, len(specs))
	for _, s := range specs {
		out = append(out, FeatureFromSpec(s))
	}
	return out
}
