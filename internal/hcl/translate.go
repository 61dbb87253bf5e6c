package hcl

import (
	"fmt"
	"maps"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/pipedef/internal/config"
	"github.com/zclconf/go-cty/cty"
)

func translateFile(file string, root *fileRoot) (*config.Model, error) {
	m := &config.Model{Version: root.Version}

	if len(root.Projects) > 1 {
		return nil, fmt.Errorf("only one project block is allowed per file, found %d", len(root.Projects))
	}
	for _, p := range root.Projects {
		m.Project = &config.ProjectSpec{ID: p.ID, Name: p.Name, Description: p.Description, Source: file}
	}

	for _, p := range root.Params {
		spec, err := translateParam(file, p)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, spec)
	}

	for _, t := range root.Templates {
		spec := &config.TemplateSpec{ID: t.ID, Description: t.Description, External: t.External, Source: file}
		if t.External && (len(t.Steps) > 0 || len(t.Features) > 0) {
			return nil, fmt.Errorf("external template %q cannot declare steps or features", t.ID)
		}
		for _, s := range t.Steps {
			spec.Steps = append(spec.Steps, &config.StepSpec{ID: s.ID, Name: s.Name, Kind: s.Kind, Params: maps.Clone(s.Params)})
		}
		spec.Features = translateFeatures(file, t.Features)
		m.Templates = append(m.Templates, spec)
	}

	m.Features = translateFeatures(file, root.Features)

	for _, b := range root.BuildTypes {
		spec := &config.BuildTypeSpec{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Templates:   b.Templates,
			DependsOn:   b.DependsOn,
			Features:    translateFeatures(file, b.Features),
			Triggers:    translateFeatures(file, b.Triggers),
			Source:      file,
		}
		for _, p := range b.ParamDecls {
			ps, err := translateParam(file, p)
			if err != nil {
				return nil, err
			}
			spec.Params = append(spec.Params, ps)
		}
		overrides, err := evalOverrides(b.Params)
		if err != nil {
			return nil, fmt.Errorf("build type %q: %w", b.ID, err)
		}
		spec.Overrides = overrides
		m.BuildTypes = append(m.BuildTypes, spec)
	}
	return m, nil
}

func translateParam(file string, p *paramBlock) (*config.ParamSpec, error) {
	spec := &config.ParamSpec{
		Name:        p.Name,
		Kind:        p.Kind,
		Label:       p.Label,
		Description: p.Description,
		Display:     p.Display,
		AllowEmpty:  p.AllowEmpty,
		Options:     p.Options,
		Format:      p.Format,
		Source:      file,
	}
	v, err := evalStatic(p.Default)
	if err != nil {
		return nil, fmt.Errorf("parameter %q default: %w", p.Name, err)
	}
	if !v.IsNull() {
		spec.Default = &v
	}
	return spec, nil
}

func translateFeatures(file string, blocks []*featureBlock) []*config.FeatureSpec {
	out := make([]*config.FeatureSpec, 0, len(blocks))
	for _, f := range blocks {
		out = append(out, &config.FeatureSpec{
			ID:          f.ID,
			Kind:        f.Type,
			Params:      maps.Clone(f.Params),
			Overridable: f.Overridable,
			Source:      file,
		})
	}
	return out
}

// evalStatic evaluates an expression without variables or functions. A
// missing expression yields a null value.
func evalStatic(expr hcl.Expression) (cty.Value, error) {
	if expr == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

// evalOverrides evaluates a `params = { name = value }` attribute.
func evalOverrides(expr hcl.Expression) (map[string]cty.Value, error) {
	v, err := evalStatic(expr)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	out := make(map[string]cty.Value)
	if v.IsNull() {
		return out, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("params must be an object, got %s", ty.FriendlyName())
	}
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		out[k.AsString()] = val
	}
	return out, nil
}
