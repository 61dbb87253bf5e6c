// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a project.
type Model struct {
	// Version is the DSL version the definition was written against.
	Version    string
	Project    *ProjectSpec
	Params     []*ParamSpec
	Templates  []*TemplateSpec
	Features   []*FeatureSpec
	BuildTypes []*BuildTypeSpec
}

// ProjectSpec is the root project header.
type ProjectSpec struct {
	ID          string
	Name        string
	Description string
	Source      string
}

// ParamSpec declares a parameter.
type ParamSpec struct {
	Name string
	// Kind is the raw kind keyword (text, bool, enum).
	Kind string
	// Default is nil when no default was given.
	Default     *cty.Value
	Label       string
	Description string
	Display     string
	AllowEmpty  bool
	Options     []string
	Format      string
	Source      string
}

// TemplateSpec declares a template. External templates carry only an id.
type TemplateSpec struct {
	ID          string
	Description string
	External    bool
	Steps       []*StepSpec
	Features    []*FeatureSpec
	Source      string
}

// StepSpec is a step contributed by a template.
type StepSpec struct {
	ID     string
	Name   string
	Kind   string
	Params map[string]string
}

// FeatureSpec is a feature or trigger.
type FeatureSpec struct {
	ID          string
	Kind        string
	Params      map[string]string
	Overridable bool
	Source      string
}

// BuildTypeSpec declares a build type.
type BuildTypeSpec struct {
	ID          string
	Name        string
	Description string
	Templates   []string
	DependsOn   []string
	// Params are declarations scoped to this build type.
	Params []*ParamSpec
	// Overrides set values for parameters declared here or at project level.
	Overrides map[string]cty.Value
	Features  []*FeatureSpec
	Triggers  []*FeatureSpec
	Source    string
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// Merge appends everything in src to m. The project header and the version
// may be set by at most one source.
func (m *Model) Merge(src *Model) error {
	if src == nil {
		return nil
	}
	if src.Version != "" {
		if m.Version != "" && m.Version != src.Version {
			return fmt.Errorf("conflicting DSL versions %q and %q", m.Version, src.Version)
		}
		m.Version = src.Version
	}
	if src.Project != nil {
		if m.Project != nil {
			return fmt.Errorf("project %q is declared in %s and again in %s", src.Project.ID, m.Project.Source, src.Project.Source)
		}
		p := *src.Project
		m.Project = &p
	}
	m.Params = append(m.Params, src.Params...)
	m.Templates = append(m.Templates, src.Templates...)
	m.Features = append(m.Features, src.Features...)
	m.BuildTypes = append(m.BuildTypes, src.BuildTypes...)
	return nil
}
