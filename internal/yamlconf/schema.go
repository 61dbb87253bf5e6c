package yamlconf

import "gopkg.in/yaml.v3"

type document struct {
	Version    string          `yaml:"version"`
	Project    *projectDoc     `yaml:"project"`
	Params     []*paramDoc     `yaml:"params"`
	Templates  []*templateDoc  `yaml:"templates"`
	Features   []*featureDoc   `yaml:"features"`
	BuildTypes []*buildTypeDoc `yaml:"build_types"`
}

type projectDoc struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type paramDoc struct {
	Name        string    `yaml:"name"`
	Kind        string    `yaml:"kind"`
	Default     yaml.Node `yaml:"default"`
	Label       string    `yaml:"label"`
	Description string    `yaml:"description"`
	Display     string    `yaml:"display"`
	AllowEmpty  bool      `yaml:"allow_empty"`
	Options     []string  `yaml:"options"`
	Format      string    `yaml:"format"`
}

type templateDoc struct {
	ID          string        `yaml:"id"`
	Description string        `yaml:"description"`
	External    bool          `yaml:"external"`
	Steps       []*stepDoc    `yaml:"steps"`
	Features    []*featureDoc `yaml:"features"`
}

type stepDoc struct {
	ID     string            `yaml:"id"`
	Name   string            `yaml:"name"`
	Kind   string            `yaml:"kind"`
	Params map[string]string `yaml:"params"`
}

type featureDoc struct {
	ID          string            `yaml:"id"`
	Type        string            `yaml:"type"`
	Params      map[string]string `yaml:"params"`
	Overridable bool              `yaml:"overridable"`
}

type buildTypeDoc struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Templates   []string             `yaml:"templates"`
	DependsOn   []string             `yaml:"depends_on"`
	Params      map[string]yaml.Node `yaml:"params"`
	Declare     []*paramDoc          `yaml:"declare"`
	Features    []*featureDoc        `yaml:"features"`
	Triggers    []*featureDoc        `yaml:"triggers"`
}
