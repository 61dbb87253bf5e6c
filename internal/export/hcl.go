package export

import (
	"strconv"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/pipedef/internal/builder"
	"github.com/specialistvlad/pipedef/internal/templates"
	"github.com/zclconf/go-cty/cty"
)

// marshalHCL writes the document with the block layout the HCL loader reads.
// Parameters carry `value`, `source` and `overridden` in place of `default`,
// and build types carry their composed steps and origins, so the output is a
// rendering of the resolved project and is not accepted by the loader.
func marshalHCL(doc *Document) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	setString(root, "version", doc.Project.Version)
	project := root.AppendNewBlock("project", []string{doc.Project.ID}).Body()
	setString(project, "name", doc.Project.Name)
	setString(project, "description", doc.Project.Description)

	for _, p := range doc.Params {
		root.AppendNewline()
		writeParam(root, p)
	}
	for _, feat := range doc.Features {
		root.AppendNewline()
		writeFeature(root, "feature", feat, "")
	}

	for _, bt := range doc.BuildTypes {
		root.AppendNewline()
		body := root.AppendNewBlock("build_type", []string{bt.ID}).Body()
		setString(body, "name", bt.Name)
		setString(body, "description", bt.Description)
		setList(body, "templates", bt.Templates)
		setList(body, "depends_on", bt.DependsOn)

		for _, s := range bt.Steps {
			step := body.AppendNewBlock("step", []string{s.Kind, s.ID}).Body()
			setString(step, "name", s.Name)
			setMap(step, "params", s.Params)
		}
		for _, feat := range bt.Features {
			writeFeature(body, "feature", feat, bt.FeatureOrigins[feat.ID])
		}
		for _, trig := range bt.Triggers {
			writeFeature(body, "trigger", trig, "")
		}
		for _, p := range bt.Params {
			writeParam(body, p)
		}
	}
	return f.Bytes()
}

func writeParam(parent *hclwrite.Body, p builder.ResolvedParam) {
	body := parent.AppendNewBlock("param", []string{p.Kind, p.Name}).Body()
	if p.Resolved {
		if b, err := strconv.ParseBool(p.Value); err == nil && p.Kind == "bool" {
			body.SetAttributeValue("value", cty.BoolVal(b))
		} else {
			body.SetAttributeValue("value", cty.StringVal(p.Value))
		}
	}
	setString(body, "label", p.Label)
	setString(body, "description", p.Description)
	if p.Display != "normal" {
		setString(body, "display", p.Display)
	}
	if p.AllowEmpty {
		body.SetAttributeValue("allow_empty", cty.True)
	}
	setList(body, "options", p.Options)
	setString(body, "format", p.Format)
	setString(body, "source", p.Source)
	if p.Overridden {
		body.SetAttributeValue("overridden", cty.True)
	}
}

func writeFeature(parent *hclwrite.Body, blockType string, feat templates.Feature, origin string) {
	body := parent.AppendNewBlock(blockType, []string{feat.ID}).Body()
	body.SetAttributeValue("type", cty.StringVal(feat.Kind))
	setMap(body, "params", feat.Params)
	if feat.Overridable {
		body.SetAttributeValue("overridable", cty.True)
	}
	setString(body, "origin", origin)
}

func setString(body *hclwrite.Body, name, value string) {
	if value != "" {
		body.SetAttributeValue(name, cty.StringVal(value))
	}
}

func setList(body *hclwrite.Body, name string, values []string) {
	if len(values) == 0 {
		return
	}
	vals := make([]cty.Value, len(values))
	for i, v := range values {
		vals[i] = cty.StringVal(v)
	}
	body.SetAttributeValue(name, cty.ListVal(vals))
}

func setMap(body *hclwrite.Body, name string, values map[string]string) {
	if len(values) == 0 {
		return
	}
	vals := make(map[string]cty.Value, len(values))
	for k, v := range values {
		vals[k] = cty.StringVal(v)
	}
	body.SetAttributeValue(name, cty.MapVal(vals))
}
