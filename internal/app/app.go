package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/specialistvlad/pipedef/internal/builder"
	"github.com/specialistvlad/pipedef/internal/catalog"
	"github.com/specialistvlad/pipedef/internal/config"
	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/hcl"
	"github.com/specialistvlad/pipedef/internal/params"
	"github.com/specialistvlad/pipedef/internal/templates"
	"github.com/specialistvlad/pipedef/internal/yamlconf"
)

// MinDSLVersion is the oldest DSL version a project may declare.
const MinDSLVersion = "2019.2"

var minVersion = semver.MustParse(MinDSLVersion)

// ErrNotBuilt is returned by operations that need a successful Load first.
var ErrNotBuilt = errors.New("project has not been built")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	kinds   *featurekind.Registry
	loaders []config.Loader

	builder *builder.Builder
	project *builder.ResolvedProject
}

// NewApp is the constructor for the main application. modules defaults to
// every feature kind compiled into the binary.
func NewApp(outW io.Writer, cfg *Config, modules ...featurekind.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	kinds := featurekind.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(kinds)
	}
	logger.Debug("Feature kinds registered.", "kinds", kinds.Names())

	var loaders []config.Loader
	switch cfg.Format {
	case FormatHCL:
		loaders = []config.Loader{hcl.NewLoader()}
	case FormatYAML:
		loaders = []config.Loader{yamlconf.NewLoader()}
	default:
		loaders = []config.Loader{hcl.NewLoader(), yamlconf.NewLoader()}
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		kinds:   kinds,
		loaders: loaders,
	}
}

// Context returns ctx carrying the app's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Logger returns the app's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Builder returns the builder of the last Load, or nil.
func (a *App) Builder() *builder.Builder {
	return a.builder
}

// Project returns the ResolvedProject of the last successful Load, or nil.
func (a *App) Project() *builder.ResolvedProject {
	return a.project
}

// Load reads the configured paths and builds the project. Declaration
// errors are returned as soon as they occur; graph-level problems come back
// together as a *configerr.ValidationError.
func (a *App) Load(ctx context.Context) (*builder.ResolvedProject, error) {
	ctx = a.Context(ctx)

	model, err := a.loadModel(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(ctx, model.Version); err != nil {
		return nil, err
	}

	var cat templates.Catalog
	if len(a.config.Catalogs) > 0 {
		c, err := catalog.Load(a.config.Catalogs...)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Template catalog loaded.", "templates", len(c.IDs()))
		cat = c
	}

	b, err := a.declare(ctx, model, cat)
	if err != nil {
		return nil, err
	}
	if err := a.applyInvocationOverrides(ctx, b.Params()); err != nil {
		return nil, err
	}
	a.builder = b

	rp, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	a.project = rp
	return rp, nil
}

func (a *App) loadModel(ctx context.Context) (*config.Model, error) {
	model := config.NewModel()
	for _, loader := range a.loaders {
		part, err := loader.Load(ctx, a.config.Paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}
	if model.Project == nil {
		return nil, fmt.Errorf("no project declared in %v", a.config.Paths)
	}
	a.logger.Debug("Configuration loaded and translated into unified model.",
		"project", model.Project.ID,
		"build_types", len(model.BuildTypes),
	)
	return model, nil
}

// checkVersion rejects DSL versions older than MinDSLVersion. A missing
// version is accepted with a warning.
func checkVersion(ctx context.Context, raw string) error {
	if raw == "" {
		ctxlog.FromContext(ctx).Warn("No DSL version declared, assuming current.")
		return nil
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("invalid DSL version %q: %w", raw, err)
	}
	if v.LessThan(minVersion) {
		return fmt.Errorf("DSL version %s is not supported: need %s or newer", raw, MinDSLVersion)
	}
	return nil
}

// declare fills a fresh parameter registry, template resolver and builder
// from model.
func (a *App) declare(ctx context.Context, model *config.Model, cat templates.Catalog) (*builder.Builder, error) {
	logger := ctxlog.FromContext(ctx)
	reg := params.NewRegistry()
	resolver := templates.NewResolver(cat)

	for _, spec := range model.Params {
		if err := declareParam(reg, params.ProjectScope, spec); err != nil {
			return nil, err
		}
	}
	for _, bt := range model.BuildTypes {
		for _, spec := range bt.Params {
			if err := declareParam(reg, params.BuildTypeScope(bt.ID), spec); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("Parameters declared.", "project", len(model.Params))

	for _, spec := range model.Templates {
		var err error
		if spec.External {
			err = resolver.RegisterExternal(spec.ID)
		} else {
			err = resolver.Register(templates.FromSpec(spec))
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Source, err)
		}
	}
	logger.Debug("Templates registered.", "count", len(model.Templates))

	info := builder.ProjectInfo{
		ID:          model.Project.ID,
		Name:        model.Project.Name,
		Description: model.Project.Description,
		Version:     model.Version,
	}
	b := builder.New(info, reg, resolver, a.kinds)

	for _, spec := range model.Features {
		if err := b.AddProjectFeature(templates.FeatureFromSpec(spec)); err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Source, err)
		}
	}
	for _, bt := range model.BuildTypes {
		scope := params.BuildTypeScope(bt.ID)
		for _, name := range sortedKeys(bt.Overrides) {
			if err := reg.Override(scope, name, bt.Overrides[name]); err != nil {
				return nil, fmt.Errorf("%s: build type %q: %w", bt.Source, bt.ID, err)
			}
		}
		err := b.AddBuildType(builder.BuildTypeDef{
			ID:          bt.ID,
			Name:        bt.Name,
			Description: bt.Description,
			Templates:   bt.Templates,
			DependsOn:   bt.DependsOn,
			Features:    templates.FeaturesFromSpecs(bt.Features),
			Triggers:    templates.FeaturesFromSpecs(bt.Triggers),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", bt.Source, err)
		}
	}
	logger.Debug("Build types added.", "count", len(model.BuildTypes))
	return b, nil
}

func declareParam(reg *params.Registry, scope params.Scope, spec *config.ParamSpec) error {
	kind, err := params.ParseKind(spec.Kind)
	if err != nil {
		return fmt.Errorf("%s: parameter %q: %w", spec.Source, spec.Name, err)
	}
	display, err := params.ParseDisplay(spec.Display)
	if err != nil {
		return fmt.Errorf("%s: parameter %q: %w", spec.Source, spec.Name, err)
	}
	p := params.Parameter{
		Name:        spec.Name,
		Kind:        kind,
		Label:       spec.Label,
		Description: spec.Description,
		Display:     display,
		AllowEmpty:  spec.AllowEmpty,
		Options:     spec.Options,
		Format:      spec.Format,
	}
	if spec.Default != nil {
		p.Default = *spec.Default
	}
	if err := reg.Declare(scope, p); err != nil {
		return fmt.Errorf("%s: %w", spec.Source, err)
	}
	return nil
}
