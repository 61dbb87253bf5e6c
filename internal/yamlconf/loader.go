package yamlconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/specialistvlad/pipedef/internal/config"
	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/specialistvlad/pipedef/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes every .yaml and .yml file under paths and merges them.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	for _, file := range files {
		part, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(part); err != nil {
			return nil, err
		}
	}

	logger.Debug("YAML loading complete.", "files", len(files), "build_types", len(model.BuildTypes))
	return model, nil
}

// LoadFile decodes a single YAML file. Unknown keys are rejected.
func LoadFile(path string) (*config.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc document
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}

	m, err := translate(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to translate YAML file %s: %w", path, err)
	}
	return m, nil
}

func translate(file string, doc *document) (*config.Model, error) {
	m := &config.Model{Version: doc.Version}
	if doc.Project != nil {
		m.Project = &config.ProjectSpec{ID: doc.Project.ID, Name: doc.Project.Name, Description: doc.Project.Description, Source: file}
	}

	var err error
	if m.Params, err = translateParams(file, doc.Params); err != nil {
		return nil, err
	}

	for _, t := range doc.Templates {
		spec, err := templateSpec(file, t)
		if err != nil {
			return nil, err
		}
		m.Templates = append(m.Templates, spec)
	}
	m.Features = translateFeatures(file, doc.Features)

	for _, b := range doc.BuildTypes {
		spec := &config.BuildTypeSpec{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Templates:   b.Templates,
			DependsOn:   b.DependsOn,
			Features:    translateFeatures(file, b.Features),
			Triggers:    translateFeatures(file, b.Triggers),
			Overrides:   make(map[string]cty.Value, len(b.Params)),
			Source:      file,
		}
		if spec.Params, err = translateParams(file, b.Declare); err != nil {
			return nil, fmt.Errorf("build type %q: %w", b.ID, err)
		}
		for name, node := range b.Params {
			v, err := scalarValue(&node)
			if err != nil {
				return nil, fmt.Errorf("build type %q: params.%s: %w", b.ID, name, err)
			}
			spec.Overrides[name] = v
		}
		m.BuildTypes = append(m.BuildTypes, spec)
	}
	return m, nil
}

// templateSpec converts one decoded template entry.
func templateSpec(file string, t *templateDoc) (*config.TemplateSpec, error) {
	if t.External && (len(t.Steps) > 0 || len(t.Features) > 0) {
		return nil, fmt.Errorf("external template %q cannot declare steps or features", t.ID)
	}
	spec := &config.TemplateSpec{ID: t.ID, Description: t.Description, External: t.External, Source: file}
	for _, s := range t.Steps {
		spec.Steps = append(spec.Steps, &config.StepSpec{ID: s.ID, Name: s.Name, Kind: s.Kind, Params: maps.Clone(s.Params)})
	}
	spec.Features = translateFeatures(file, t.Features)
	return spec, nil
}

func translateParams(file string, docs []*paramDoc) ([]*config.ParamSpec, error) {
	var out []*config.ParamSpec
	for _, p := range docs {
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
		v, err := scalarValue(&p.Default)
		if err != nil {
			return nil, fmt.Errorf("parameter %q default: %w", p.Name, err)
		}
		if !v.IsNull() {
			spec.Default = &v
		}
		out = append(out, spec)
	}
	return out, nil
}

func translateFeatures(file string, docs []*featureDoc) []*config.FeatureSpec {
	out := make([]*config.FeatureSpec, 0, len(docs))
	for _, f := range docs {
		out = append(out, &config.FeatureSpec{ID: f.ID, Kind: f.Type, Params: maps.Clone(f.Params), Overridable: f.Overridable, Source: file})
	}
	return out
}

// scalarValue converts a YAML scalar into a cty value of the matching type.
// An absent node is null.
func scalarValue(n *yaml.Node) (cty.Value, error) {
	if n == nil || n.Kind == 0 {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if n.Kind != yaml.ScalarNode {
		return cty.NilVal, fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "!!str":
		return cty.StringVal(n.Value), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	case "!!int", "!!float":
		v, err := cty.ParseNumberVal(n.Value)
		if err != nil {
			return cty.NilVal, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return cty.NilVal, fmt.Errorf("line %d: unsupported value type %s", n.Line, n.ShortTag())
	}
}

// LoadTemplates reads the templates declared in a single YAML file. It is
// used for template catalogs, which share the project file format.
func LoadTemplates(path string) ([]*config.TemplateSpec, error) {
	m, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return m.Templates, nil
}
