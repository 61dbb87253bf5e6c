// Package githubissues validates `githubIssues` project features that link
// a project to a GitHub issue tracker.
package githubissues

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/specialistvlad/pipedef/internal/featurekind"
	"github.com/specialistvlad/pipedef/internal/templates"
)

// KindName is the feature kind tag handled by this module.
const KindName = "githubIssues"

// Module implements the featurekind.Module interface for this package.
type Module struct{}

// Register registers the kind with the feature kind registry.
func (m *Module) Register(r *featurekind.Registry) {
	r.Register(featurekind.Kind{
		Name:        KindName,
		Description: "Links the project to a GitHub issue tracker.",
		Validate:    Validate,
		Normalize:   Normalize,
	})
}

// Validate checks that `repositoryURL` points at a GitHub repository.
func Validate(f templates.Feature) []error {
	errs := featurekind.Require(f, "repositoryURL")
	raw := strings.TrimSpace(f.Params["repositoryURL"])
	if raw == "" || featurekind.HasReference(raw) {
		return errs
	}
	if _, _, err := Repository(raw); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// Normalize defaults `displayName` to owner/repo.
func Normalize(f templates.Feature) templates.Feature {
	if strings.TrimSpace(f.Params["displayName"]) != "" {
		return f
	}
	owner, repo, err := Repository(f.Params["repositoryURL"])
	if err != nil {
		return f
	}
	if f.Params == nil {
		f.Params = make(map[string]string)
	}
	f.Params["displayName"] = owner + "/" + repo
	return f
}

// Repository splits a GitHub repository URL into owner and name. A percent
// sign is taken literally, so `%name%` references survive in the result.
func Repository(raw string) (owner, repo string, err error) {
	u, err := url.Parse(strings.ReplaceAll(strings.TrimSpace(raw), "%", "%25"))
	if err != nil {
		return "", "", fmt.Errorf("repositoryURL %q: %w", raw, err)
	}
	if u.Scheme != "https" || !strings.EqualFold(u.Host, "github.com") {
		return "", "", fmt.Errorf("repositoryURL %q must be an https://github.com URL", raw)
	}
	parts := strings.Split(strings.Trim(strings.TrimSuffix(u.Path, ".git"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repositoryURL %q must name exactly owner/repository", raw)
	}
	return parts[0], parts[1], nil
}
