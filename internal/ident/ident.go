package ident

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/pipedef/internal/configerr"
)

// MaxEntityIDLength is the longest external id accepted for an entity.
const MaxEntityIDLength = 225

// Identifier kinds, used in error messages.
const (
	KindProject   = "project"
	KindBuildType = "build type"
	KindTemplate  = "template"
	KindFeature   = "feature"
	KindTrigger   = "trigger"
	KindStep      = "step"
	KindParameter = "parameter"
)

var (
	entityIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	featureRegex  = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)
	segmentRegex  = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_\-]*$`)
)

// ValidateEntityID checks id against the external id grammar shared by
// projects, build types and templates.
func ValidateEntityID(kind, id string) error {
	if id == "" {
		return &configerr.InvalidIdentifierError{Kind: kind, ID: id, Reason: "identifier cannot be empty"}
	}
	if len(id) > MaxEntityIDLength {
		return &configerr.InvalidIdentifierError{Kind: kind, ID: id, Reason: fmt.Sprintf("longer than %d characters", MaxEntityIDLength)}
	}
	if !entityIDRegex.MatchString(id) {
		return &configerr.InvalidIdentifierError{Kind: kind, ID: id, Reason: "must start with a letter and contain only letters, digits and underscores"}
	}
	return nil
}

// ValidateFeatureID checks the id of a feature, trigger or step.
func ValidateFeatureID(kind, id string) error {
	if id == "" {
		return &configerr.InvalidIdentifierError{Kind: kind, ID: id, Reason: "identifier cannot be empty"}
	}
	if !featureRegex.MatchString(id) {
		return &configerr.InvalidIdentifierError{Kind: kind, ID: id, Reason: "may contain only letters, digits, '_', '.', and '-'"}
	}
	return nil
}

// ValidateParameterName checks a parameter name such as `env.JAVA_HOME`.
func ValidateParameterName(name string) error {
	if name == "" {
		return &configerr.InvalidIdentifierError{Kind: KindParameter, ID: name, Reason: "name cannot be empty"}
	}
	for _, segment := range strings.Split(name, ".") {
		if segment == "" {
			return &configerr.InvalidIdentifierError{Kind: KindParameter, ID: name, Reason: "name contains an empty segment"}
		}
		if !segmentRegex.MatchString(segment) {
			return &configerr.InvalidIdentifierError{Kind: KindParameter, ID: name, Reason: fmt.Sprintf("invalid segment %q", segment)}
		}
	}
	return nil
}

// References returns the parameter names referenced as `%name%` in value, in
// order of appearance and without duplicates. An unterminated reference is
// reported as an error.
func References(value string) ([]string, error) {
	var refs []string
	seen := make(map[string]struct{})

	rest := value
	for {
		start := strings.IndexByte(rest, '%')
		if start == -1 {
			return refs, nil
		}
		rest = rest[start+1:]
		end := strings.IndexByte(rest, '%')
		if end == -1 {
			return refs, fmt.Errorf("unterminated parameter reference in %q", value)
		}
		name := rest[:end]
		rest = rest[end+1:]
		if name == "" {
			// `%%` escapes a literal percent sign.
			continue
		}
		if err := ValidateParameterName(name); err != nil {
			return refs, fmt.Errorf("invalid parameter reference %%%s%%: %w", name, err)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		refs = append(refs, name)
	}
}

// HasPrefix reports whether name falls under one of the dotted prefixes,
// e.g. `teamcity.build.id` under `teamcity.`.
func HasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Expand substitutes every `%name%` reference in value for which lookup
// reports a value. References lookup does not know and `%%` escapes are left
// untouched.
func Expand(value string, lookup func(name string) (string, bool)) (string, error) {
	var b strings.Builder
	rest := value
	for {
		start := strings.IndexByte(rest, '%')
		if start == -1 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])
		rest = rest[start+1:]
		end := strings.IndexByte(rest, '%')
		if end == -1 {
			return value, fmt.Errorf("unterminated parameter reference in %q", value)
		}
		name := rest[:end]
		rest = rest[end+1:]
		if v, ok := lookup(name); ok && name != "" {
			b.WriteString(v)
			continue
		}
		b.WriteString("%" + name + "%")
	}
}
