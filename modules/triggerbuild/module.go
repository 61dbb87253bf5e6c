// Package triggerbuild validates `triggerBuildFeature` features: a build
// feature that queues other build types when the owning build finishes,
// forwarding a list of parameters to them.
package triggerbuild

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/ident"
	"github.com/specialistvlad/pipedef/internal/templates"
)

// KindName is the feature kind tag handled by this module.
const KindName = "triggerBuildFeature"

// Module implements the featurekind.Module interface for this package.
type Module struct{}

// Register registers the kind with the feature kind registry.
func (m *Module) Register(r *featurekind.Registry) {
	r.Register(featurekind.Kind{
		Name:        KindName,
		Description: "Triggers other build types with forwarded parameters.",
		Validate:    Validate,
		Normalize:   Normalize,
	})
}

// Validate checks the `triggers` and `parameters` params.
func Validate(f templates.Feature) []error {
	errs := featurekind.Require(f, "triggers")

	for _, target := range Targets(f) {
		if featurekind.HasReference(target) {
			continue
		}
		if err := ident.ValidateEntityID(ident.KindBuildType, target); err != nil {
			errs = append(errs, fmt.Errorf("triggers: %w", err))
		}
	}

	for i, fw := range Forwarded(f) {
		if featurekind.HasReference(fw.Name) {
			continue
		}
		if err := ident.ValidateParameterName(fw.Name); err != nil {
			errs = append(errs, fmt.Errorf("parameters line %d: %w", i+1, err))
		}
	}
	return errs
}

// Normalize rewrites `triggers` as one target per line and `parameters` as
// trimmed `name` or `name=value` lines.
func Normalize(f templates.Feature) templates.Feature {
	if targets := Targets(f); len(targets) > 0 {
		f.Params["triggers"] = strings.Join(targets, "\n")
	}
	if forwarded := Forwarded(f); len(forwarded) > 0 {
		lines := make([]string, len(forwarded))
		for i, fw := range forwarded {
			lines[i] = fw.String()
		}
		f.Params["parameters"] = strings.Join(lines, "\n")
	}
	return f
}

// Targets returns the build type ids listed in `triggers`, which may be
// separated by newlines or commas.
func Targets(f templates.Feature) []string {
	var out []string
	for _, line := range featurekind.Lines(f.Params["triggers"]) {
		for _, t := range strings.Split(line, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// Forward is one line of the `parameters` param.
type Forward struct {
	Name  string
	Value string
	// Current is set for a bare name, which forwards the parameter's value
	// in the triggering build.
	Current bool
}

func (fw Forward) String() string {
	if fw.Current {
		return fw.Name
	}
	return fw.Name + "=" + fw.Value
}

// Forwarded parses the `parameters` param in line order.
func Forwarded(f templates.Feature) []Forward {
	var out []Forward
	for _, line := range featurekind.Lines(f.Params["parameters"]) {
		name, value, found := strings.Cut(line, "=")
		out = append(out, Forward{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value), Current: !found})
	}
	return out
}
