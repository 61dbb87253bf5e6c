package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a file may contain.
type fileRoot struct {
	Version    string            `hcl:"version,optional"`
	Projects   []*projectBlock   `hcl:"project,block"`
	Params     []*paramBlock     `hcl:"param,block"`
	Templates  []*templateBlock  `hcl:"template,block"`
	Features   []*featureBlock   `hcl:"feature,block"`
	BuildTypes []*buildTypeBlock `hcl:"build_type,block"`
}

type projectBlock struct {
	ID          string `hcl:"id,label"`
	Name        string `hcl:"name,optional"`
	Description string `hcl:"description,optional"`
}

// paramBlock is `param "<kind>" "<name>" { ... }`.
type paramBlock struct {
	Kind        string         `hcl:"kind,label"`
	Name        string         `hcl:"name,label"`
	Default     hcl.Expression `hcl:"default,optional"`
	Label       string         `hcl:"label,optional"`
	Description string         `hcl:"description,optional"`
	Display     string         `hcl:"display,optional"`
	AllowEmpty  bool           `hcl:"allow_empty,optional"`
	Options     []string       `hcl:"options,optional"`
	Format      string         `hcl:"format,optional"`
}

type templateBlock struct {
	ID          string          `hcl:"id,label"`
	Description string          `hcl:"description,optional"`
	External    bool            `hcl:"external,optional"`
	Steps       []*stepBlock    `hcl:"step,block"`
	Features    []*featureBlock `hcl:"feature,block"`
}

// stepBlock is `step "<kind>" "<id>" { ... }`.
type stepBlock struct {
	Kind   string            `hcl:"kind,label"`
	ID     string            `hcl:"id,label"`
	Name   string            `hcl:"name,optional"`
	Params map[string]string `hcl:"params,optional"`
}

type featureBlock struct {
	ID          string            `hcl:"id,label"`
	Type        string            `hcl:"type"`
	Params      map[string]string `hcl:"params,optional"`
	Overridable bool              `hcl:"overridable,optional"`
}

type buildTypeBlock struct {
	ID          string          `hcl:"id,label"`
	Name        string          `hcl:"name,optional"`
	Description string          `hcl:"description,optional"`
	Templates   []string        `hcl:"templates,optional"`
	DependsOn   []string        `hcl:"depends_on,optional"`
	Params      hcl.Expression  `hcl:"params,optional"`
	ParamDecls  []*paramBlock   `hcl:"param,block"`
	Features    []*featureBlock `hcl:"feature,block"`
	Triggers    []*featureBlock `hcl:"trigger,block"`
}
