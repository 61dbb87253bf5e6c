package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/pipedef/internal/builder"
	"github.com/specialistvlad/pipedef/internal/templates"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// ParseFormat converts a command line value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unknown export format %q: expected json, yaml or hcl", s)
	}
}

// Document is the serialisable view of a ResolvedProject.
type Document struct {
	Project    builder.ProjectInfo         `json:"project" yaml:"project"`
	Params     []builder.ResolvedParam     `json:"params,omitempty" yaml:"params,omitempty"`
	Features   []templates.Feature         `json:"features,omitempty" yaml:"features,omitempty"`
	BuildTypes []builder.ResolvedBuildType `json:"buildTypes" yaml:"buildTypes"`
	BuildOrder []string                    `json:"buildOrder" yaml:"buildOrder"`
}

// NewDocument copies rp into a Document.
func NewDocument(rp *builder.ResolvedProject) *Document {
	return &Document{
		Project:    rp.Project(),
		Params:     rp.Params(),
		Features:   rp.Features(),
		BuildTypes: rp.BuildTypes(),
		BuildOrder: rp.BuildOrder(),
	}
}

// Marshal encodes rp in the given format.
func Marshal(rp *builder.ResolvedProject, format Format) ([]byte, error) {
	doc := NewDocument(rp)
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatHCL:
		return marshalHCL(doc), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Write encodes rp to w.
func Write(w io.Writer, rp *builder.ResolvedProject, format Format) error {
	out, err := Marshal(rp, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}
