package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the declared type of a parameter.
type Kind int

const (
	// KindText is a free-form string parameter.
	KindText Kind = iota
	// KindBool is a checkbox-style parameter.
	KindBool
	// KindEnum is a string parameter restricted to a set of options.
	KindEnum
)

// ParseKind converts the configuration keyword into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "text", "string", "":
		return KindText, nil
	case "bool", "boolean", "checkbox":
		return KindBool, nil
	case "enum", "select":
		return KindEnum, nil
	default:
		return KindText, fmt.Errorf("unknown parameter kind %q: expected text, bool or enum", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "text"
	}
}

// Type returns the cty type values of this kind carry.
func (k Kind) Type() cty.Type {
	if k == KindBool {
		return cty.Bool
	}
	return cty.String
}

// Display controls how the CI runtime shows a parameter to users.
type Display int

const (
	DisplayNormal Display = iota
	DisplayHidden
	DisplayPrompt
)

// ParseDisplay converts the configuration keyword into a Display.
func ParseDisplay(s string) (Display, error) {
	switch strings.ToLower(s) {
	case "", "normal", "visible":
		return DisplayNormal, nil
	case "hidden":
		return DisplayHidden, nil
	case "prompt":
		return DisplayPrompt, nil
	default:
		return DisplayNormal, fmt.Errorf("unknown parameter display %q: expected normal, hidden or prompt", s)
	}
}

func (d Display) String() string {
	switch d {
	case DisplayHidden:
		return "hidden"
	case DisplayPrompt:
		return "prompt"
	default:
		return "normal"
	}
}

// FormatSemver requires text values to parse as a semantic version.
const FormatSemver = "semver"

// Parameter is a single parameter declaration.
type Parameter struct {
	Name        string
	Kind        Kind
	Default     cty.Value // cty.NilVal or a null value means "no default"
	Label       string
	Description string
	Display     Display
	AllowEmpty  bool
	Options     []string // enum only
	Format      string
}

// HasDefault reports whether the declaration carries a usable default.
func (p *Parameter) HasDefault() bool {
	return p.Default != cty.NilVal && !p.Default.IsNull()
}

// Scope names the level a parameter is declared or overridden at.
type Scope string

// ProjectScope is the widest scope.
const ProjectScope Scope = ""

// BuildTypeScope returns the scope of the build type with the given id.
func BuildTypeScope(buildTypeID string) Scope {
	return Scope(buildTypeID)
}

func (s Scope) String() string {
	if s == ProjectScope {
		return "project"
	}
	return string(s)
}

// chain lists the scopes consulted for s, narrowest first.
func (s Scope) chain() []Scope {
	if s == ProjectScope {
		return []Scope{ProjectScope}
	}
	return []Scope{s, ProjectScope}
}

// Binding is a resolved parameter value together with where it came from.
type Binding struct {
	Parameter  Parameter
	Value      cty.Value
	Source     Scope
	Overridden bool
}

// ParseValue converts a raw string, as given on a command line or in an env
// file, into a value of the given kind.
func ParseValue(name string, kind Kind, raw string) (cty.Value, error) {
	if kind != KindBool {
		return cty.StringVal(raw), nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return cty.NilVal, &configerr.TypeMismatchError{Name: name, Expected: "bool", Actual: "string", Detail: fmt.Sprintf("%q is not a boolean", raw)}
	}
	return cty.BoolVal(b), nil
}

// String renders a resolved value the way the CI runtime receives it.
func String(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return ""
	}
	switch ty := v.Type(); {
	case ty.Equals(cty.String):
		return v.AsString()
	case ty.Equals(cty.Bool):
		return strconv.FormatBool(v.True())
	default:
		return v.GoString()
	}
}
