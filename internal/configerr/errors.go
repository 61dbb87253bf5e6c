package configerr

import (
	"fmt"
	"sort"
	"strings"
)

// DuplicateParameterError is returned when a parameter name is declared twice
// in the same scope.
type DuplicateParameterError struct {
	Name  string
	Scope string
}

func (e *DuplicateParameterError) Error() string {
	return fmt.Sprintf("parameter %q is already declared in scope %s", e.Name, scopeName(e.Scope))
}

// UnresolvedParameterError is returned when a parameter has no value in any
// scope of the chain and no default.
type UnresolvedParameterError struct {
	Name  string
	Scope string
	// Referrer names the entity holding the reference, if any.
	Referrer string
}

func (e *UnresolvedParameterError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("%s references parameter %q which does not resolve in scope %s", e.Referrer, e.Name, scopeName(e.Scope))
	}
	return fmt.Sprintf("parameter %q does not resolve in scope %s", e.Name, scopeName(e.Scope))
}

// TypeMismatchError is returned when a value disagrees with the declared
// type of a parameter.
type TypeMismatchError struct {
	Name     string
	Expected string
	Actual   string
	Detail   string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("parameter %q: expected %s, got %s", e.Name, e.Expected, e.Actual)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// EmptyValueError is returned when an empty value is assigned to a parameter
// that does not allow empty values.
type EmptyValueError struct {
	Name  string
	Scope string
}

func (e *EmptyValueError) Error() string {
	return fmt.Sprintf("parameter %q does not allow an empty value (scope %s)", e.Name, scopeName(e.Scope))
}

// InvalidFormatError is returned when a value does not satisfy the format a
// parameter declares.
type InvalidFormatError struct {
	Name   string
	Format string
	Value  string
	Err    error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("parameter %q: value %q is not a valid %s: %v", e.Name, e.Value, e.Format, e.Err)
}

func (e *InvalidFormatError) Unwrap() error { return e.Err }

// UnknownTemplateError is returned when a template reference matches no
// local template, registered external template or catalog entry.
type UnknownTemplateError struct {
	ID        string
	BuildType string
}

func (e *UnknownTemplateError) Error() string {
	if e.BuildType != "" {
		return fmt.Sprintf("build type %q references unknown template %q", e.BuildType, e.ID)
	}
	return fmt.Sprintf("unknown template %q", e.ID)
}

// FeatureCollisionError is returned when composing a build type would
// overwrite a feature that is not marked overridable.
type FeatureCollisionError struct {
	BuildType string
	FeatureID string
	// Source names the template (or the build type itself) contributing the
	// colliding feature; Existing names where the first one came from.
	Source   string
	Existing string
}

func (e *FeatureCollisionError) Error() string {
	return fmt.Sprintf("build type %q: feature %q from %s collides with the one from %s", e.BuildType, e.FeatureID, e.Source, e.Existing)
}

// DuplicateIdError is returned when an identifier is registered twice.
type DuplicateIdError struct {
	Kind string
	ID   string
	// Owner is set for ids that are unique per owning entity, such as the
	// features of one build type.
	Owner string
}

func (e *DuplicateIdError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s: duplicate %s id %q", e.Owner, e.Kind, e.ID)
	}
	return fmt.Sprintf("duplicate %s id %q", e.Kind, e.ID)
}

// InvalidIdentifierError is returned when an id does not match its grammar.
type InvalidIdentifierError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s id %q: %s", e.Kind, e.ID, e.Reason)
}

// FrozenStateError is returned by any mutation attempted after freezing.
type FrozenStateError struct {
	Component string
	Op        string
}

func (e *FrozenStateError) Error() string {
	return fmt.Sprintf("%s is frozen: %s is not permitted", e.Component, e.Op)
}

// UnknownDependencyError is returned when depends_on names a build type that
// is not part of the project.
type UnknownDependencyError struct {
	BuildType string
	Target    string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("build type %q depends on unknown build type %q", e.BuildType, e.Target)
}

// DependencyCycleError is returned when build type dependencies form a cycle.
type DependencyCycleError struct {
	Path []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("build type dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// FeatureKindError wraps a violation reported by a feature kind validator.
type FeatureKindError struct {
	Owner     string
	FeatureID string
	Kind      string
	Err       error
}

func (e *FeatureKindError) Error() string {
	return fmt.Sprintf("%s: feature %q (%s): %v", e.Owner, e.FeatureID, e.Kind, e.Err)
}

func (e *FeatureKindError) Unwrap() error { return e.Err }

// ValidationError aggregates every violation found during a validation pass.
type ValidationError struct {
	Violations []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	sort.Strings(msgs)
	return fmt.Sprintf("project validation failed with %d violation(s):\n- %s", len(msgs), strings.Join(msgs, "\n- "))
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Violations
}

// Len reports the number of violations.
func (e *ValidationError) Len() int {
	return len(e.Violations)
}

func scopeName(s string) string {
	if s == "" {
		return "project"
	}
	return s
}
