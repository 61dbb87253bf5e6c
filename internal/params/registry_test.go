package params

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/pipedef/internal/configerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func text(name, def string) Parameter {
	return Parameter{Name: name, Kind: KindText, Default: cty.StringVal(def)}
}

func TestDeclare_DuplicateInSameScope(t *testing.T) {
	orders := [][]string{{"first", "second"}, {"second", "first"}}
	for _, order := range orders {
		t.Run(fmt.Sprintf("%v", order), func(t *testing.T) {
			r := NewRegistry()
			defaults := map[string]string{"first": "a", "second": "b"}

			require.NoError(t, r.Declare(ProjectScope, text("docker_jdk_version", defaults[order[0]])))
			err := r.Declare(ProjectScope, text("docker_jdk_version", defaults[order[1]]))

			var dupErr *configerr.DuplicateParameterError
			require.ErrorAs(t, err, &dupErr)
			assert.Equal(t, "docker_jdk_version", dupErr.Name)

			// The first declaration wins and is untouched.
			v, err := r.ResolveString(ProjectScope, "docker_jdk_version")
			require.NoError(t, err)
			assert.Equal(t, defaults[order[0]], v)
		})
	}
}

func TestDeclare_SameNameInNarrowerScopeShadows(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, text("git_main_branch", "main")))
	require.NoError(t, r.Declare(BuildTypeScope("Build"), text("git_main_branch", "trunk")))

	v, err := r.ResolveString(BuildTypeScope("Build"), "git_main_branch")
	require.NoError(t, err)
	assert.Equal(t, "trunk", v)

	v, err = r.ResolveString(ProjectScope, "git_main_branch")
	require.NoError(t, err)
	assert.Equal(t, "main", v)
}

func TestDeclare_ShadowingKeepsKind(t *testing.T) {
	testCases := []struct {
		name   string
		first  Scope
		second Scope
	}{
		{name: "narrower after wider", first: ProjectScope, second: BuildTypeScope("A")},
		{name: "wider after narrower", first: BuildTypeScope("A"), second: ProjectScope},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, r.Declare(tc.first, text("x", "hello")))

			err := r.Declare(tc.second, Parameter{Name: "x", Kind: KindBool})
			var tmErr *configerr.TypeMismatchError
			require.ErrorAs(t, err, &tmErr)
			assert.Equal(t, "text", tmErr.Expected)
			assert.Equal(t, "bool", tmErr.Actual)

			b, err := r.Binding(BuildTypeScope("A"), "x")
			require.NoError(t, err)
			assert.Equal(t, KindText, b.Parameter.Kind)
			assert.Equal(t, cty.StringVal("hello"), b.Value)
		})
	}

	r := NewRegistry()
	require.NoError(t, r.Declare(BuildTypeScope("A"), Parameter{Name: "x", Kind: KindBool}))
	assert.NoError(t, r.Declare(BuildTypeScope("B"), text("x", "hello")), "sibling build types are independent")
}

func TestDeclare_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		param   Parameter
		checkFn func(t *testing.T, err error)
	}{
		{
			name:  "invalid name",
			param: text("env..X", "x"),
			checkFn: func(t *testing.T, err error) {
				var idErr *configerr.InvalidIdentifierError
				assert.ErrorAs(t, err, &idErr)
			},
		},
		{
			name:  "default of wrong type",
			param: Parameter{Name: "flag", Kind: KindBool, Default: cty.StringVal("yes")},
			checkFn: func(t *testing.T, err error) {
				var tmErr *configerr.TypeMismatchError
				require.ErrorAs(t, err, &tmErr)
				assert.Equal(t, "bool", tmErr.Expected)
				assert.Equal(t, "string", tmErr.Actual)
			},
		},
		{
			name:  "enum without options",
			param: Parameter{Name: "channel", Kind: KindEnum, Default: cty.StringVal("stable")},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "at least one option")
			},
		},
		{
			name:  "enum default outside options",
			param: Parameter{Name: "channel", Kind: KindEnum, Options: []string{"stable", "beta"}, Default: cty.StringVal("nightly")},
			checkFn: func(t *testing.T, err error) {
				var tmErr *configerr.TypeMismatchError
				assert.ErrorAs(t, err, &tmErr)
			},
		},
		{
			name:  "semver format",
			param: Parameter{Name: "docker_gradle_version", Kind: KindText, Format: FormatSemver, Default: cty.StringVal("eight")},
			checkFn: func(t *testing.T, err error) {
				var fmtErr *configerr.InvalidFormatError
				assert.ErrorAs(t, err, &fmtErr)
			},
		},
		{
			name:  "unknown format",
			param: Parameter{Name: "x", Kind: KindText, Format: "uuid"},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "unknown format")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewRegistry().Declare(ProjectScope, tc.param)
			require.Error(t, err)
			tc.checkFn(t, err)
		})
	}
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, text("docker_jdk_version", "8")))
	require.NoError(t, r.Override(BuildTypeScope("Build"), "docker_jdk_version", cty.StringVal("17")))

	v, err := r.ResolveString(BuildTypeScope("Build"), "docker_jdk_version")
	require.NoError(t, err)
	assert.Equal(t, "17", v)

	v, err = r.ResolveString(BuildTypeScope("PullRequests"), "docker_jdk_version")
	require.NoError(t, err)
	assert.Equal(t, "8", v)

	// The project-level default is not mutated by the build type override.
	decl, scope, ok := r.Lookup(ProjectScope, "docker_jdk_version")
	require.True(t, ok)
	assert.Equal(t, ProjectScope, scope)
	assert.Equal(t, "8", decl.Default.AsString())

	v, err = r.ResolveString(ProjectScope, "docker_jdk_version")
	require.NoError(t, err)
	assert.Equal(t, "8", v)
}

func TestResolve_ProjectOverrideShadowsDefault(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, text("env.PUBLISHED_JAVA_GROUP", "net.minecraftforge")))
	require.NoError(t, r.Override(ProjectScope, "env.PUBLISHED_JAVA_GROUP", cty.StringVal("net.neoforged")))

	b, err := r.Binding(BuildTypeScope("Build"), "env.PUBLISHED_JAVA_GROUP")
	require.NoError(t, err)
	assert.Equal(t, "net.neoforged", b.Value.AsString())
	assert.True(t, b.Overridden)
	assert.Equal(t, ProjectScope, b.Source)

	decl, _, _ := r.Lookup(ProjectScope, "env.PUBLISHED_JAVA_GROUP")
	assert.Equal(t, "net.minecraftforge", decl.Default.AsString())
}

func TestResolve_Unresolved(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, Parameter{Name: "release_token", Kind: KindText, Display: DisplayPrompt}))
	require.NoError(t, r.Declare(ProjectScope, Parameter{Name: "artifact", Kind: KindText, Default: cty.StringVal("")}))

	testCases := []string{"missing", "release_token", "artifact"}
	for _, name := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(BuildTypeScope("Build"), name)
			var unresolved *configerr.UnresolvedParameterError
			require.ErrorAs(t, err, &unresolved)
			assert.Equal(t, name, unresolved.Name)
		})
	}
}

func TestResolve_EmptyAllowed(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, Parameter{Name: "extra_args", Kind: KindText, Default: cty.StringVal(""), AllowEmpty: true}))

	v, err := r.ResolveString(ProjectScope, "extra_args")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestOverride_Errors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, text("docker_jdk_version", "8")))
	require.NoError(t, r.Declare(ProjectScope, Parameter{Name: "publish", Kind: KindBool, Default: cty.False}))
	require.NoError(t, r.Declare(ProjectScope, Parameter{Name: "channel", Kind: KindEnum, Options: []string{"stable", "beta"}, Default: cty.StringVal("stable")}))

	scope := BuildTypeScope("Build")

	err := r.Override(scope, "docker_jdk_version", cty.NumberIntVal(17))
	var tmErr *configerr.TypeMismatchError
	require.ErrorAs(t, err, &tmErr)
	assert.Equal(t, "text", tmErr.Expected)
	assert.Equal(t, "number", tmErr.Actual)

	err = r.Override(scope, "publish", cty.StringVal("true"))
	require.ErrorAs(t, err, &tmErr)

	err = r.Override(scope, "channel", cty.StringVal("nightly"))
	require.ErrorAs(t, err, &tmErr)
	assert.Contains(t, tmErr.Error(), "stable, beta")

	err = r.Override(scope, "docker_jdk_version", cty.StringVal(""))
	var emptyErr *configerr.EmptyValueError
	require.ErrorAs(t, err, &emptyErr)

	err = r.Override(scope, "undeclared", cty.StringVal("x"))
	var unresolved *configerr.UnresolvedParameterError
	require.ErrorAs(t, err, &unresolved)

	require.NoError(t, r.Override(scope, "publish", cty.True))
	v, err := r.ResolveString(scope, "publish")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestResolveAll(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, text("b", "2")))
	require.NoError(t, r.Declare(ProjectScope, text("a", "1")))
	require.NoError(t, r.Declare(BuildTypeScope("Build"), Parameter{Name: "c", Kind: KindText}))

	bindings, errs := r.ResolveAll(BuildTypeScope("Build"))
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], `"c"`)
	require.Len(t, bindings, 2)
	assert.Equal(t, "a", bindings[0].Parameter.Name)
	assert.Equal(t, "b", bindings[1].Parameter.Name)

	assert.Equal(t, []string{"a", "b", "c"}, r.Visible(BuildTypeScope("Build")))
	assert.Equal(t, []string{"a", "b"}, r.Visible(ProjectScope))
}

func TestFreeze(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, text("docker_jdk_version", "8")))
	r.Freeze()

	var frozenErr *configerr.FrozenStateError
	assert.ErrorAs(t, r.Declare(ProjectScope, text("other", "x")), &frozenErr)
	assert.ErrorAs(t, r.Override(ProjectScope, "docker_jdk_version", cty.StringVal("17")), &frozenErr)

	v, err := r.ResolveString(ProjectScope, "docker_jdk_version")
	require.NoError(t, err)
	assert.Equal(t, "8", v)
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare(ProjectScope, text("docker_jdk_version", "8")))

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(BuildTypeScope("Build"), "docker_jdk_version"); err != nil {
				errs <- err
			}
		}()
		go func(i int) {
			defer wg.Done()
			scope := BuildTypeScope(fmt.Sprintf("Build%d", i))
			if err := r.Override(scope, "docker_jdk_version", cty.StringVal("17")); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("publish", KindBool, "true")
	require.NoError(t, err)
	assert.True(t, v.True())

	v, err = ParseValue("docker_jdk_version", KindText, "17")
	require.NoError(t, err)
	assert.Equal(t, "17", v.AsString())

	_, err = ParseValue("publish", KindBool, "maybe")
	var tmErr *configerr.TypeMismatchError
	assert.True(t, errors.As(err, &tmErr))
}

func TestParseKindAndDisplay(t *testing.T) {
	k, err := ParseKind("boolean")
	require.NoError(t, err)
	assert.Equal(t, KindBool, k)
	_, err = ParseKind("number")
	assert.Error(t, err)

	d, err := ParseDisplay("HIDDEN")
	require.NoError(t, err)
	assert.Equal(t, DisplayHidden, d)
	assert.Equal(t, "hidden", d.String())
	_, err = ParseDisplay("secret")
	assert.Error(t, err)
}
